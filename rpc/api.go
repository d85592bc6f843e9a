// Package rpc defines the boundary to the remote Telegram API and the
// migration-aware invoker used by every login call.
package rpc

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/gotd/td/tg"
)

// ErrNotFound is returned by Storage.Get for missing keys.
var ErrNotFound = errors.New("key not found")

// Storage is a credential store owned by the remote API.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// RemoveAll deletes every stored credential.
	RemoveAll(ctx context.Context) error
}

// PasswordInput is the server side of a 2FA password challenge.
type PasswordInput struct {
	G     int
	P     []byte
	Salt1 []byte
	Salt2 []byte
	// SRPB is the server public value B.
	SRPB []byte
}

// Proof is the client side of SRP exchange.
type Proof struct {
	// A is the client public value.
	A  []byte
	M1 []byte
}

// API is the remote Telegram API.
//
// Implementations hold the single active DC selection shared by all
// callers.
type API interface {
	tg.Invoker

	// SetDefaultDC switches the active DC for all subsequent calls.
	SetDefaultDC(ctx context.Context, dc int) error
	// Storage returns credential store.
	Storage() Storage
	// ComputeProof derives SRP proof for given challenge and password.
	ComputeProof(in PasswordInput, password []byte) (Proof, error)
}
