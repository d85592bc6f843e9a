package botapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/navtemmt/telegram-channel-mirror-mtproto/telegram/entity"
)

type server struct {
	t        *testing.T
	requests atomic.Int64
	status   []int

	mux sync.Mutex
	got []SendMessageRequest
}

func (s *server) sent() []SendMessageRequest {
	s.mux.Lock()
	defer s.mux.Unlock()
	return append([]SendMessageRequest(nil), s.got...)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := int(s.requests.Inc()) - 1
	if r.URL.Path != "/bottoken/sendMessage" {
		http.NotFound(w, r)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.t.Errorf("decode: %v", err)
	}
	s.mux.Lock()
	s.got = append(s.got, req)
	s.mux.Unlock()

	status := http.StatusOK
	if n < len(s.status) {
		status = s.status[n]
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status == http.StatusOK {
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":          false,
		"error_code":  status,
		"description": http.StatusText(status),
	})
}

func newClient(t *testing.T, s *server) *Client {
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	lg := zerolog.New(zerolog.NewTestWriter(t))
	return NewClient("token", Options{
		URL:        srv.URL,
		HTTPClient: srv.Client(),
		Backoff:    func() backoff.BackOff { return &backoff.ZeroBackOff{} },
		Logger:     &lg,
	})
}

func TestClient_SendMessage(t *testing.T) {
	ctx := context.Background()
	req := SendMessageRequest{
		ChatID:   "42",
		Text:     "hello",
		Entities: []entity.Entity{{Type: entity.Bold, Offset: 0, Length: 5}},
	}

	t.Run("OK", func(t *testing.T) {
		a := require.New(t)
		s := &server{t: t}
		a.NoError(newClient(t, s).SendMessage(ctx, req))
		a.Equal([]SendMessageRequest{req}, s.sent())
	})
	t.Run("Retry", func(t *testing.T) {
		a := require.New(t)
		s := &server{t: t, status: []int{http.StatusBadGateway, http.StatusTooManyRequests}}
		a.NoError(newClient(t, s).SendMessage(ctx, req))
		a.Equal(int64(3), s.requests.Load())
	})
	t.Run("ClientError", func(t *testing.T) {
		a := require.New(t)
		s := &server{t: t, status: []int{http.StatusBadRequest}}
		err := newClient(t, s).SendMessage(ctx, req)

		var apiErr *Error
		a.ErrorAs(err, &apiErr)
		a.Equal(http.StatusBadRequest, apiErr.Code)
		a.Equal(int64(1), s.requests.Load())
	})
	t.Run("Exhausted", func(t *testing.T) {
		a := require.New(t)
		s := &server{t: t, status: []int{500, 500, 500, 500, 500}}
		a.Error(newClient(t, s).SendMessage(ctx, req))
		a.Equal(int64(4), s.requests.Load())
	})
}

func TestNotifier(t *testing.T) {
	a := require.New(t)
	s := &server{t: t}
	n := NewNotifier(newClient(t, s), "42")

	a.NoError(n.Notify(context.Background(), errAuth))
	got := s.sent()
	a.Len(got, 1)
	a.Equal("42", got[0].ChatID)
	a.Equal(errAuth.Error(), got[0].Text)
}

var errAuth = &Error{Code: 401, Description: "Unauthorized"}
