// Package session implements credential storage for the remote API.
//
// Both storages also implement session.Storage of gotd, keeping MTProto
// session data under SessionKey, so removing all credentials logs the
// client out.
package session

import (
	"context"

	"github.com/go-faster/errors"
	tdsession "github.com/gotd/td/session"

	"github.com/navtemmt/telegram-channel-mirror-mtproto/rpc"
)

// Well-known keys.
const (
	// SessionKey holds MTProto session data (auth key, DC, salt).
	SessionKey = "session"
	// DCKey holds id of the last active DC.
	DCKey = "dc"
)

var (
	_ rpc.Storage       = (*File)(nil)
	_ tdsession.Storage = (*File)(nil)
	_ rpc.Storage       = (*Memory)(nil)
	_ tdsession.Storage = (*Memory)(nil)
)

func loadSession(ctx context.Context, s rpc.Storage) ([]byte, error) {
	data, err := s.Get(ctx, SessionKey)
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, tdsession.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load session")
	}
	return data, nil
}

func storeSession(ctx context.Context, s rpc.Storage, data []byte) error {
	if err := s.Set(ctx, SessionKey, data); err != nil {
		return errors.Wrap(err, "store session")
	}
	return nil
}
