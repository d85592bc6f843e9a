// Package botapi is a minimal Telegram Bot API client.
package botapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"
	"github.com/rs/zerolog"

	"github.com/navtemmt/telegram-channel-mirror-mtproto/telegram/entity"
)

// DefaultURL is Bot API endpoint.
const DefaultURL = "https://api.telegram.org"

// Options of Client.
type Options struct {
	// URL of Bot API. Defaults to DefaultURL.
	URL string
	// HTTPClient defaults to client with 30 seconds timeout.
	HTTPClient *http.Client
	// MaxRetries of a single request. Defaults to 3.
	MaxRetries uint64
	// Backoff returns retry policy. Defaults to exponential backoff.
	Backoff func() backoff.BackOff
	// Logger is instance of zerolog.Logger. No logs by default.
	Logger *zerolog.Logger
}

func (o *Options) setDefaults() {
	if o.URL == "" {
		o.URL = DefaultURL
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.Backoff == nil {
		o.Backoff = func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		}
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
}

// Client is a Bot API client.
type Client struct {
	token   string
	url     string
	http    *http.Client
	retries uint64
	backoff func() backoff.BackOff
	log     *zerolog.Logger
}

// NewClient creates new Client for bot token.
func NewClient(token string, opt Options) *Client {
	opt.setDefaults()
	return &Client{
		token:   token,
		url:     opt.URL,
		http:    opt.HTTPClient,
		retries: opt.MaxRetries,
		backoff: opt.Backoff,
		log:     opt.Logger,
	}
}

// Error is an unsuccessful Bot API response.
type Error struct {
	Code        int    `json:"error_code"`
	Description string `json:"description"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("bot api: %d %s", e.Code, e.Description)
}

type response struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// SendMessageRequest is a sendMessage request.
type SendMessageRequest struct {
	ChatID   string          `json:"chat_id"`
	Text     string          `json:"text"`
	Entities []entity.Entity `json:"entities,omitempty"`
}

// SendMessage sends text message.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) error {
	return c.call(ctx, "sendMessage", req)
}

func (c *Client) call(ctx context.Context, method string, params interface{}) error {
	body, err := json.Marshal(params)
	if err != nil {
		return errors.Wrap(err, "encode")
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.backoff(), c.retries), ctx)
	return backoff.RetryNotify(func() error {
		err := c.do(ctx, method, body)
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, d time.Duration) {
		c.log.Info().
			Err(err).
			Str("method", method).
			Dur("backoff", d).
			Msg("Retrying request")
	})
}

func (c *Client) do(ctx context.Context, method string, body []byte) error {
	u := fmt.Sprintf("%s/bot%s/%s", c.url, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		// Do not leak token in URL.
		return errors.Errorf("%s: request failed", method)
	}
	defer func() { _ = res.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	var r response
	if err := json.Unmarshal(data, &r); err != nil {
		return errors.Wrapf(err, "%s: decode response (status %d)", method, res.StatusCode)
	}
	if !r.OK {
		code := r.ErrorCode
		if code == 0 {
			code = res.StatusCode
		}
		return &Error{Code: code, Description: r.Description}
	}
	return nil
}
