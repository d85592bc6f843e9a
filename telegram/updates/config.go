package updates

import (
	"context"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gotd/td/clock"
	"github.com/gotd/td/crypto"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/navtemmt/telegram-channel-mirror-mtproto/internal/botapi"
	"github.com/navtemmt/telegram-channel-mirror-mtproto/rpc"
	"github.com/navtemmt/telegram-channel-mirror-mtproto/telegram/peers"
)

// API is the interface which contains
// Telegram RPC methods used by poller.
type API interface {
	MessagesGetHistory(ctx context.Context, request *tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error)
	MessagesForwardMessages(ctx context.Context, request *tg.MessagesForwardMessagesRequest) (tg.UpdatesClass, error)
}

// Sender sends messages through Bot API.
type Sender interface {
	SendMessage(ctx context.Context, req botapi.SendMessageRequest) error
}

// Defaults of Config.
const (
	DefaultInterval = 5 * time.Second
	DefaultLimit    = 20
	MaxLimit        = 100
)

// Config of the poller.
type Config struct {
	// API to fetch and forward messages.
	API API
	// Source channel.
	Source peers.Channel
	// Target channel.
	Target peers.Channel
	// Storage for last seen message id.
	Storage rpc.Storage
	// Native selects messages.forwardMessages. Otherwise messages are
	// copied through Bot (required then).
	Native bool
	// Bot is Bot API sender for bypass mode.
	Bot Sender

	// Interval between rounds.
	Interval time.Duration
	// Limit of messages per round, 1..100.
	Limit int
	// MaxRetries of a single round. Defaults to 5.
	MaxRetries uint64
	// Backoff returns retry policy of a round (optional).
	Backoff func() backoff.BackOff

	// Clock to use. Defaults to clock.System.
	Clock clock.Clock
	// Rand is random source for forward ids. Defaults to crypto.DefaultRand().
	Rand io.Reader
	// Logger (optional).
	Logger *zerolog.Logger
	// TracerProvider (optional).
	TracerProvider trace.TracerProvider
}

func (cfg *Config) setDefaults() {
	if cfg.API == nil {
		panic("API is nil")
	}
	if cfg.Storage == nil {
		panic("Storage is nil")
	}
	if !cfg.Native && cfg.Bot == nil {
		panic("Bot is nil in bypass mode")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Limit > MaxLimit {
		cfg.Limit = MaxLimit
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	if cfg.Backoff == nil {
		cfg.Backoff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = 0
			return b
		}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System
	}
	if cfg.Rand == nil {
		cfg.Rand = crypto.DefaultRand()
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = trace.NewNoopTracerProvider()
	}
}
