package updates

import (
	"testing"
	"time"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/require"

	"github.com/navtemmt/telegram-channel-mirror-mtproto/session"
	"github.com/navtemmt/telegram-channel-mirror-mtproto/tgtest"
)

const (
	timeout = 5 * time.Second
	tick    = 10 * time.Millisecond
)

func TestConfig_setDefaults(t *testing.T) {
	a := require.New(t)
	api := tg.NewClient(tgtest.NewAPI(t, nil))

	cfg := Config{API: api, Storage: session.NewMemory(), Native: true, Limit: 1000}
	cfg.setDefaults()
	a.Equal(MaxLimit, cfg.Limit)
	a.Equal(DefaultInterval, cfg.Interval)
	a.NotNil(cfg.Clock)
	a.NotNil(cfg.Rand)
	a.NotNil(cfg.Logger)

	a.Panics(func() {
		cfg := Config{API: api, Storage: session.NewMemory()}
		cfg.setDefaults()
	})
	a.Panics(func() {
		cfg := Config{Storage: session.NewMemory(), Native: true}
		cfg.setDefaults()
	})
}

func TestBotChatID(t *testing.T) {
	require.Equal(t, "-1001234", BotChatID(1234))
}
