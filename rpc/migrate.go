package rpc

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/gotd/td/bin"
	"github.com/rs/zerolog"

	"github.com/navtemmt/telegram-channel-mirror-mtproto/rpcerr"
)

// Migrator is a tg.Invoker which follows a single DC migration redirect.
//
// On *_MIGRATE_<n> error the active DC of the underlying API is switched
// to n and the same request is sent once more. Error of the second
// attempt is returned as is, even if it is another migration.
type Migrator struct {
	api API
	log *zerolog.Logger

	// mux serializes DC switches.
	mux sync.Mutex
}

// NewMigrator creates new Migrator.
func NewMigrator(api API, opt Options) *Migrator {
	opt.setDefaults()
	return &Migrator{
		api: api,
		log: opt.Logger,
	}
}

// Invoke implements tg.Invoker.
func (m *Migrator) Invoke(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
	err := m.api.Invoke(ctx, input, output)
	if err == nil {
		return nil
	}
	dc, ok := rpcerr.AsMigrate(err)
	if !ok {
		return err
	}

	m.log.Info().
		Object("method", logMethod{input: input}).
		Int("dc", dc).
		Msg("Migrating to DC")
	if err := m.setDC(ctx, dc); err != nil {
		return errors.Wrapf(err, "migrate to dc %d", dc)
	}

	return m.api.Invoke(ctx, input, output)
}

func (m *Migrator) setDC(ctx context.Context, dc int) error {
	m.mux.Lock()
	defer m.mux.Unlock()

	return m.api.SetDefaultDC(ctx, dc)
}
