// Package tgtest contains a scripted remote API for tests.
package tgtest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/gotd/td/bin"
	"github.com/rs/zerolog"

	"github.com/navtemmt/telegram-channel-mirror-mtproto/rpc"
	"github.com/navtemmt/telegram-channel-mirror-mtproto/session"
)

// Handler returns result of request sent to given DC.
//
// Returned result is encoded and decoded into caller's output.
type Handler func(ctx context.Context, dc int, input bin.Encoder) (bin.Encoder, error)

// Call is a request received by API.
type Call struct {
	DC    int
	Input bin.Encoder
}

// TypeID returns request type id or zero.
func (c Call) TypeID() uint32 {
	if v, ok := c.Input.(interface{ TypeID() uint32 }); ok {
		return v.TypeID()
	}
	return 0
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (c Call) MarshalZerologObject(e *zerolog.Event) {
	e.Int("dc", c.DC).
		Str("type_id", fmt.Sprintf("%#x", c.TypeID()))
}

// API is a fake rpc.API.
type API struct {
	handler Handler
	logger  *zerolog.Logger
	storage *session.Memory

	mux        sync.Mutex
	dc         int
	calls      []Call
	migrations []int
	proofs     []rpc.PasswordInput
}

var _ rpc.API = (*API)(nil)

// NewAPI creates new API on DC 2 which passes requests to h.
func NewAPI(t testing.TB, h Handler) *API {
	logger := zerolog.New(zerolog.NewTestWriter(t)).With().Str("logger", "tgtest").Logger()
	return &API{
		handler: h,
		logger:  &logger,
		storage: session.NewMemory(),
		dc:      2,
	}
}

// Invoke implements tg.Invoker.
func (a *API) Invoke(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
	a.mux.Lock()
	call := Call{DC: a.dc, Input: input}
	a.calls = append(a.calls, call)
	a.mux.Unlock()

	a.logger.Info().Object("call", call).Msg("New call")

	result, err := a.handler(ctx, call.DC, input)
	if err != nil {
		return err
	}
	if result == nil {
		return errors.Errorf("no result for %#x", call.TypeID())
	}

	var b bin.Buffer
	if err := b.Encode(result); err != nil {
		return errors.Wrap(err, "encode result")
	}
	if err := output.Decode(&b); err != nil {
		return errors.Wrap(err, "decode result")
	}
	return nil
}

// SetDefaultDC implements rpc.API.
func (a *API) SetDefaultDC(ctx context.Context, dc int) error {
	a.mux.Lock()
	defer a.mux.Unlock()

	a.dc = dc
	a.migrations = append(a.migrations, dc)
	return nil
}

// Storage implements rpc.API.
func (a *API) Storage() rpc.Storage {
	return a.storage
}

// Memory returns underlying storage.
func (a *API) Memory() *session.Memory {
	return a.storage
}

// ComputeProof implements rpc.API. Proof is A = SRPB, M1 = password.
func (a *API) ComputeProof(in rpc.PasswordInput, password []byte) (rpc.Proof, error) {
	a.mux.Lock()
	defer a.mux.Unlock()

	a.proofs = append(a.proofs, in)
	return rpc.Proof{
		A:  append([]byte(nil), in.SRPB...),
		M1: append([]byte(nil), password...),
	}, nil
}

// DC returns current DC.
func (a *API) DC() int {
	a.mux.Lock()
	defer a.mux.Unlock()

	return a.dc
}

// Calls returns all received requests.
func (a *API) Calls() []Call {
	a.mux.Lock()
	defer a.mux.Unlock()

	return append([]Call(nil), a.calls...)
}

// Count returns count of received requests with given type id.
func (a *API) Count(typeID uint32) (n int) {
	for _, c := range a.Calls() {
		if c.TypeID() == typeID {
			n++
		}
	}
	return n
}

// Migrations returns DC ids passed to SetDefaultDC.
func (a *API) Migrations() []int {
	a.mux.Lock()
	defer a.mux.Unlock()

	return append([]int(nil), a.migrations...)
}

// Proofs returns inputs passed to ComputeProof.
func (a *API) Proofs() []rpc.PasswordInput {
	a.mux.Lock()
	defer a.mux.Unlock()

	return append([]rpc.PasswordInput(nil), a.proofs...)
}
