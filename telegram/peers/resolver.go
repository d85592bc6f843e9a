// Package peers resolves source and destination channels.
package peers

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
)

// DialogsLimit is count of dialogs searched for channel by id.
const DialogsLimit = 200

// ErrNotFound is returned when channel is not found.
var ErrNotFound = errors.New("channel not found")

// Channel is a resolved channel.
type Channel struct {
	ID         int64
	AccessHash int64
	Title      string
	// NoForwards is set for channels with protected content.
	NoForwards bool
}

// InputPeer returns input peer for channel.
func (c Channel) InputPeer() *tg.InputPeerChannel {
	return &tg.InputPeerChannel{
		ChannelID:  c.ID,
		AccessHash: c.AccessHash,
	}
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (c Channel) MarshalZerologObject(e *zerolog.Event) {
	e.Int64("channel_id", c.ID).
		Str("title", c.Title).
		Bool("noforwards", c.NoForwards)
}

// Query selects channel either by ID or by Username.
type Query struct {
	ID       int64
	Username string
}

// Resolver resolves channels.
type Resolver struct {
	raw    tg.Invoker
	api    *tg.Client
	logger *zerolog.Logger
}

// Options of Resolver.
type Options struct {
	// Logger is instance of zerolog.Logger. No logs by default.
	Logger *zerolog.Logger
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
}

// NewResolver creates new Resolver.
func NewResolver(invoker tg.Invoker, opt Options) *Resolver {
	opt.setDefaults()
	return &Resolver{
		raw:    invoker,
		api:    tg.NewClient(invoker),
		logger: opt.Logger,
	}
}

// Resolve resolves channel by query. ID has precedence over username.
func (r *Resolver) Resolve(ctx context.Context, q Query) (Channel, error) {
	switch {
	case q.ID != 0:
		return r.ByID(ctx, q.ID)
	case q.Username != "":
		return r.ByUsername(ctx, q.Username)
	default:
		return Channel{}, errors.New("neither channel id nor username is set")
	}
}

// ByID finds channel among user dialogs, so private channels are
// supported if user is a member.
func (r *Resolver) ByID(ctx context.Context, id int64) (Channel, error) {
	dialogs, err := r.api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      DialogsLimit,
	})
	if err != nil {
		return Channel{}, errors.Wrap(err, "get dialogs")
	}

	modified, ok := dialogs.AsModified()
	if !ok {
		return Channel{}, errors.Errorf("unexpected dialogs type %T", dialogs)
	}
	for _, chat := range modified.GetChats() {
		c, ok := channelFrom(chat)
		if ok && c.ID == id {
			r.logger.Info().Object("channel", c).Msg("Found channel")
			return c, nil
		}
	}

	return Channel{}, errors.Wrapf(ErrNotFound, "channel %d is not in dialogs", id)
}

// ByUsername resolves public channel by username.
func (r *Resolver) ByUsername(ctx context.Context, username string) (Channel, error) {
	var resolved tg.ContactsResolvedPeer
	if err := r.raw.Invoke(ctx, &tg.ContactsResolveUsernameRequest{
		Username: username,
	}, &resolved); err != nil {
		return Channel{}, errors.Wrapf(err, "resolve %q", username)
	}

	for _, chat := range resolved.Chats {
		if c, ok := channelFrom(chat); ok {
			r.logger.Info().Object("channel", c).Str("username", username).Msg("Resolved channel")
			return c, nil
		}
	}
	return Channel{}, errors.Wrapf(ErrNotFound, "username %q", username)
}

func channelFrom(chat tg.ChatClass) (Channel, bool) {
	switch c := chat.(type) {
	case *tg.Channel:
		return Channel{
			ID:         c.ID,
			AccessHash: c.AccessHash,
			Title:      c.Title,
			NoForwards: c.Noforwards,
		}, true
	case *tg.ChannelForbidden:
		return Channel{
			ID:         c.ID,
			AccessHash: c.AccessHash,
			Title:      c.Title,
		}, true
	default:
		return Channel{}, false
	}
}
