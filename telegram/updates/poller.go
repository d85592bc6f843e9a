// Package updates mirrors new channel messages by polling history.
package updates

import (
	"context"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"
	"github.com/gotd/td/clock"
	"github.com/gotd/td/crypto"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"

	"github.com/navtemmt/telegram-channel-mirror-mtproto/internal/botapi"
	"github.com/navtemmt/telegram-channel-mirror-mtproto/rpc"
	"github.com/navtemmt/telegram-channel-mirror-mtproto/rpcerr"
	"github.com/navtemmt/telegram-channel-mirror-mtproto/telegram/entity"
	"github.com/navtemmt/telegram-channel-mirror-mtproto/telegram/peers"
)

// LastMessageKey is storage key of last mirrored message id.
const LastMessageKey = "last_message_id"

// Poller mirrors messages from source channel to target.
type Poller struct {
	api     API
	source  peers.Channel
	target  peers.Channel
	storage rpc.Storage
	native  bool
	bot     Sender

	interval time.Duration
	limit    int
	retries  uint64
	backoff  func() backoff.BackOff

	clock  clock.Clock
	rand   io.Reader
	log    *zerolog.Logger
	tracer trace.Tracer

	rounds   atomic.Int64
	mirrored atomic.Int64
}

// NewPoller creates new Poller.
func NewPoller(cfg Config) *Poller {
	cfg.setDefaults()
	return &Poller{
		api:      cfg.API,
		source:   cfg.Source,
		target:   cfg.Target,
		storage:  cfg.Storage,
		native:   cfg.Native,
		bot:      cfg.Bot,
		interval: cfg.Interval,
		limit:    cfg.Limit,
		retries:  cfg.MaxRetries,
		backoff:  cfg.Backoff,
		clock:    cfg.Clock,
		rand:     cfg.Rand,
		log:      cfg.Logger,
		tracer:   cfg.TracerProvider.Tracer("mirror/updates"),
	}
}

// Rounds returns count of completed rounds.
func (p *Poller) Rounds() int64 { return p.rounds.Load() }

// Mirrored returns count of mirrored messages.
func (p *Poller) Mirrored() int64 { return p.mirrored.Load() }

// Run polls source channel every interval until ctx is done or
// permanent error occurs.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info().
		Object("from", p.source).
		Object("to", p.target).
		Bool("native", p.native).
		Dur("interval", p.interval).
		Msg("Mirroring")

	ticker := p.clock.Ticker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.round(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if rpcerr.IsPermanent(err) {
				return errors.Wrap(err, "poll")
			}
			p.log.Error().Err(err).Msg("Round failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
		}
	}
}

func (p *Poller) round(ctx context.Context) error {
	b := backoff.WithContext(backoff.WithMaxRetries(p.backoff(), p.retries), ctx)
	return backoff.RetryNotify(func() error {
		err := p.Poll(ctx)
		if rpcerr.IsPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, d time.Duration) {
		p.log.Warn().Err(err).Dur("backoff", d).Msg("Poll failed, retrying")
	})
}

// Poll runs single round: mirrors every message newer than the stored
// one, oldest-first in pages of limit, storing progress as it goes.
//
// First round without stored id only records the newest id.
func (p *Poller) Poll(ctx context.Context) (rErr error) {
	ctx, span := p.tracer.Start(ctx, "updates.Poll")
	defer span.End()
	defer func() {
		if rErr != nil {
			span.RecordError(rErr)
		}
	}()

	last, ok, err := p.last(ctx)
	if err != nil {
		return errors.Wrap(err, "get last message id")
	}

	if !ok {
		msgs, _, err := p.history(ctx, &tg.MessagesGetHistoryRequest{
			Peer:  p.source.InputPeer(),
			Limit: 1,
		}, 0)
		if err != nil {
			return errors.Wrap(err, "get newest message")
		}
		newest := 0
		if len(msgs) > 0 {
			newest = msgs[len(msgs)-1].GetID()
		}
		if err := p.setLast(ctx, newest); err != nil {
			return err
		}
		p.log.Info().Int("last_message_id", newest).Msg("Start position recorded")
		p.rounds.Inc()
		return nil
	}

	total := 0
	for {
		// Page of messages right above last, Telegram returns messages
		// older than OffsetID shifted by AddOffset.
		msgs, pg, err := p.history(ctx, &tg.MessagesGetHistoryRequest{
			Peer:      p.source.InputPeer(),
			OffsetID:  last + 1,
			AddOffset: -p.limit,
			Limit:     p.limit,
			MinID:     last,
		}, last)
		if err != nil {
			return errors.Wrap(err, "get history")
		}
		if len(msgs) > 0 {
			if p.native {
				err = p.forward(ctx, msgs)
			} else {
				err = p.copy(ctx, msgs)
			}
			if err != nil {
				return err
			}
			last = msgs[len(msgs)-1].GetID()
			total += len(msgs)
			p.mirrored.Add(int64(len(msgs)))
		}
		if pg.newest > last {
			// Skip deleted messages.
			if err := p.setLast(ctx, pg.newest); err != nil {
				return err
			}
			last = pg.newest
		}
		if !pg.full || pg.newest == 0 {
			break
		}
	}
	span.SetAttributes(attribute.Int("messages", total))
	p.rounds.Inc()

	if total > 0 {
		p.log.Info().
			Int("count", total).
			Int("last_message_id", last).
			Msg("Mirrored")
	}
	return nil
}

type page struct {
	// newest id of the page above minID, including deleted messages.
	newest int
	full   bool
}

// history returns messages with id > minID in ascending order.
func (p *Poller) history(ctx context.Context, req *tg.MessagesGetHistoryRequest, minID int) ([]tg.MessageClass, page, error) {
	res, err := p.api.MessagesGetHistory(ctx, req)
	if err != nil {
		return nil, page{}, err
	}

	m, ok := res.AsModified()
	if !ok {
		return nil, page{}, nil
	}

	var (
		msgs []tg.MessageClass
		pg   = page{full: len(m.GetMessages()) >= req.Limit}
	)
	for _, msg := range m.GetMessages() {
		if msg.GetID() <= minID {
			continue
		}
		if msg.GetID() > pg.newest {
			pg.newest = msg.GetID()
		}
		if _, empty := msg.(*tg.MessageEmpty); empty {
			continue
		}
		msgs = append(msgs, msg)
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].GetID() < msgs[j].GetID()
	})
	return msgs, pg, nil
}

// forward forwards page natively and stores its newest id.
func (p *Poller) forward(ctx context.Context, msgs []tg.MessageClass) error {
	ids := make([]int, 0, len(msgs))
	randomIDs := make([]int64, 0, len(msgs))
	for _, msg := range msgs {
		id, err := crypto.RandInt64(p.rand)
		if err != nil {
			return errors.Wrap(err, "generate random id")
		}
		ids = append(ids, msg.GetID())
		randomIDs = append(randomIDs, id)
	}

	if _, err := p.api.MessagesForwardMessages(ctx, &tg.MessagesForwardMessagesRequest{
		DropAuthor: true,
		FromPeer:   p.source.InputPeer(),
		ID:         ids,
		RandomID:   randomIDs,
		ToPeer:     p.target.InputPeer(),
	}); err != nil {
		return errors.Wrap(err, "forward messages")
	}
	return p.setLast(ctx, ids[len(ids)-1])
}

// copy posts messages one by one through Bot API, storing id of each
// message once it is sent.
func (p *Poller) copy(ctx context.Context, msgs []tg.MessageClass) error {
	chatID := BotChatID(p.target.ID)
	for _, msg := range msgs {
		m, ok := msg.(*tg.Message)
		if !ok || m.Message == "" {
			p.log.Debug().Int("message_id", msg.GetID()).Msg("Skipping non-text message")
		} else if err := p.bot.SendMessage(ctx, botapi.SendMessageRequest{
			ChatID:   chatID,
			Text:     m.Message,
			Entities: entity.Translate(m.Entities),
		}); err != nil {
			return errors.Wrapf(err, "copy message %d", m.ID)
		}

		if err := p.setLast(ctx, msg.GetID()); err != nil {
			return err
		}
	}
	return nil
}

func (p *Poller) last(ctx context.Context) (int, bool, error) {
	data, err := p.storage.Get(ctx, LastMessageKey)
	if errors.Is(err, rpc.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, false, errors.Wrapf(err, "parse %q", data)
	}
	return id, true, nil
}

func (p *Poller) setLast(ctx context.Context, id int) error {
	if err := p.storage.Set(ctx, LastMessageKey, []byte(strconv.Itoa(id))); err != nil {
		return errors.Wrap(err, "set last message id")
	}
	return nil
}

// BotChatID returns Bot API chat id of channel.
func BotChatID(channelID int64) string {
	return "-100" + strconv.FormatInt(channelID, 10)
}
