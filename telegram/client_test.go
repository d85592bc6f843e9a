package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/gotd/td/bin"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/navtemmt/telegram-channel-mirror-mtproto/rpc"
	"github.com/navtemmt/telegram-channel-mirror-mtproto/session"
)

func TestNewClient(t *testing.T) {
	ctx := context.Background()

	t.Run("Default", func(t *testing.T) {
		a := require.New(t)
		c, err := NewClient(ctx, 1, "hash", Options{Storage: session.NewMemory()})
		a.NoError(err)
		a.Equal(DefaultDC, c.DC())
	})
	t.Run("Option", func(t *testing.T) {
		a := require.New(t)
		c, err := NewClient(ctx, 1, "hash", Options{Storage: session.NewMemory(), DC: 4})
		a.NoError(err)
		a.Equal(4, c.DC())
	})
	t.Run("Stored", func(t *testing.T) {
		a := require.New(t)
		s := session.NewMemory()
		a.NoError(s.Set(ctx, session.DCKey, []byte("5")))

		c, err := NewClient(ctx, 1, "hash", Options{Storage: s, DC: 4})
		a.NoError(err)
		a.Equal(5, c.DC())
	})
	t.Run("Invalid", func(t *testing.T) {
		a := require.New(t)
		s := session.NewMemory()
		a.NoError(s.Set(ctx, session.DCKey, []byte("five")))

		_, err := NewClient(ctx, 1, "hash", Options{Storage: s})
		a.Error(err)
	})
}

// fakeConn routes requests to its current DC.
type fakeConn struct {
	dc         int
	migrateErr error
	routed     []int
}

func (f *fakeConn) Invoke(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
	f.routed = append(f.routed, f.dc)
	return nil
}

func (f *fakeConn) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeConn) MigrateTo(ctx context.Context, dcID int) error {
	if f.migrateErr != nil {
		return f.migrateErr
	}
	f.dc = dcID
	return nil
}

func TestClient_SetDefaultDC(t *testing.T) {
	ctx := context.Background()

	t.Run("Routing", func(t *testing.T) {
		a := require.New(t)
		logs := &bytes.Buffer{}
		logger := zerolog.New(logs).Level(zerolog.InfoLevel)
		s := session.NewMemory()

		opt := Options{Storage: s, Logger: &logger}
		opt.setDefaults()
		fc := &fakeConn{dc: DefaultDC}
		c := newClient(fc, DefaultDC, opt)

		a.NoError(c.Invoke(ctx, &tg.HelpGetConfigRequest{}, &tg.Config{}))
		a.NoError(c.SetDefaultDC(ctx, 5))
		a.NoError(c.Invoke(ctx, &tg.HelpGetConfigRequest{}, &tg.Config{}))
		a.Equal([]int{2, 5}, fc.routed)
		a.Equal(5, c.DC())

		a.Error(c.SetDefaultDC(ctx, 0))
		a.Equal(5, fc.dc)
		a.Equal(5, c.DC())

		v, err := s.Get(ctx, session.DCKey)
		a.NoError(err)
		a.Equal("5", string(v))

		lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
		a.Len(lines, 1)
		var entry map[string]interface{}
		a.NoError(json.Unmarshal([]byte(lines[0]), &entry))
		a.Equal("Default DC changed", entry["message"])
		a.EqualValues(2, entry["from"])
		a.EqualValues(5, entry["to"])

		reopened, err := NewClient(ctx, 1, "hash", Options{Storage: s})
		a.NoError(err)
		a.Equal(5, reopened.DC())
	})
	t.Run("MigrateError", func(t *testing.T) {
		a := require.New(t)
		s := session.NewMemory()
		opt := Options{Storage: s}
		opt.setDefaults()
		fc := &fakeConn{dc: DefaultDC, migrateErr: errors.New("dial failed")}
		c := newClient(fc, DefaultDC, opt)

		a.Error(c.SetDefaultDC(ctx, 4))
		a.Equal(DefaultDC, c.DC())
		_, err := s.Get(ctx, session.DCKey)
		a.ErrorIs(err, rpc.ErrNotFound)
	})
}
