// Package telegram implements remote API on top of gotd MTProto client.
package telegram

import (
	"context"
	"io"
	"strconv"
	"sync"

	"github.com/go-faster/errors"
	"github.com/gotd/td/bin"
	"github.com/gotd/td/crypto/srp"
	tdsession "github.com/gotd/td/session"
	td "github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/navtemmt/telegram-channel-mirror-mtproto/rpc"
	"github.com/navtemmt/telegram-channel-mirror-mtproto/session"
)

// Storage is credential storage which also keeps MTProto session.
type Storage interface {
	rpc.Storage
	tdsession.Storage
}

// conn is the subset of gotd telegram.Client used by Client.
type conn interface {
	tg.Invoker
	Run(ctx context.Context, f func(ctx context.Context) error) error
	MigrateTo(ctx context.Context, dcID int) error
}

var _ conn = (*td.Client)(nil)

// Client is rpc.API backed by gotd telegram.Client.
//
// SetDefaultDC moves the primary connection to the new DC and persists
// the selection so the next start connects there directly.
type Client struct {
	conn    conn
	storage Storage
	rand    io.Reader
	log     *zerolog.Logger

	dc    *atomic.Int64
	dcMux sync.Mutex
}

var _ rpc.API = (*Client)(nil)

// NewClient creates new unstarted Client.
func NewClient(ctx context.Context, appID int, appHash string, opt Options) (*Client, error) {
	opt.setDefaults()

	dc, err := storedDC(ctx, opt.Storage)
	if err != nil {
		return nil, err
	}
	if dc == 0 {
		dc = opt.DC
	}
	opt.Logger.Debug().Int("dc", dc).Msg("Creating client")

	return newClient(td.NewClient(appID, appHash, td.Options{
		SessionStorage: opt.Storage,
		DC:             dc,
	}), dc, opt), nil
}

func newClient(c conn, dc int, opt Options) *Client {
	return &Client{
		conn:    c,
		storage: opt.Storage,
		rand:    opt.Random,
		log:     opt.Logger,
		dc:      atomic.NewInt64(int64(dc)),
	}
}

func storedDC(ctx context.Context, s rpc.Storage) (int, error) {
	v, err := s.Get(ctx, session.DCKey)
	if errors.Is(err, rpc.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "get dc")
	}
	dc, err := strconv.Atoi(string(v))
	if err != nil || dc <= 0 {
		return 0, errors.Errorf("invalid stored dc %q", v)
	}
	return dc, nil
}

// Run starts client session and blocks until f returns.
func (c *Client) Run(ctx context.Context, f func(ctx context.Context) error) error {
	c.log.Info().Int("dc", c.DC()).Msg("Starting")
	defer c.log.Info().Msg("Closed")

	return c.conn.Run(ctx, f)
}

// Invoke implements tg.Invoker.
func (c *Client) Invoke(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
	return c.conn.Invoke(ctx, input, output)
}

// API returns raw Telegram API client.
func (c *Client) API() *tg.Client {
	return tg.NewClient(c)
}

// DC returns current DC id.
func (c *Client) DC() int {
	return int(c.dc.Load())
}

// SetDefaultDC implements rpc.API.
func (c *Client) SetDefaultDC(ctx context.Context, dc int) error {
	if dc <= 0 {
		return errors.Errorf("invalid dc %d", dc)
	}

	c.dcMux.Lock()
	defer c.dcMux.Unlock()

	if err := c.conn.MigrateTo(ctx, dc); err != nil {
		return errors.Wrapf(err, "migrate to dc %d", dc)
	}
	if err := c.storage.Set(ctx, session.DCKey, []byte(strconv.Itoa(dc))); err != nil {
		return errors.Wrap(err, "store dc")
	}
	prev := c.dc.Swap(int64(dc))
	c.log.Info().
		Int64("from", prev).
		Int("to", dc).
		Msg("Default DC changed")
	return nil
}

// Storage implements rpc.API.
func (c *Client) Storage() rpc.Storage {
	return c.storage
}

// ComputeProof implements rpc.API.
func (c *Client) ComputeProof(in rpc.PasswordInput, password []byte) (rpc.Proof, error) {
	random := make([]byte, 256)
	if _, err := io.ReadFull(c.rand, random); err != nil {
		return rpc.Proof{}, errors.Wrap(err, "read random")
	}

	answer, err := srp.NewSRP(c.rand).Hash(password, in.SRPB, random, srp.Input{
		Salt1: in.Salt1,
		Salt2: in.Salt2,
		G:     in.G,
		P:     in.P,
	})
	if err != nil {
		return rpc.Proof{}, errors.Wrap(err, "compute srp")
	}

	return rpc.Proof{
		A:  answer.A,
		M1: answer.M1,
	}, nil
}
