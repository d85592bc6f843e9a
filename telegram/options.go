package telegram

import (
	"io"

	"github.com/gotd/td/crypto"
	"github.com/rs/zerolog"
)

// DefaultDC is DC used when nothing is stored.
const DefaultDC = 2

// Options of Client.
type Options struct {
	// Storage keeps session and DC selection. Required.
	Storage Storage
	// DC is initial DC, used only if Storage has no DC stored.
	// Defaults to DefaultDC.
	DC int
	// Random is random source used for SRP.
	// Defaults to crypto.DefaultRand().
	Random io.Reader
	// Logger is instance of zerolog.Logger. No logs by default.
	Logger *zerolog.Logger
}

func (opt *Options) setDefaults() {
	if opt.Storage == nil {
		panic("Storage is nil")
	}
	if opt.DC == 0 {
		opt.DC = DefaultDC
	}
	if opt.Random == nil {
		opt.Random = crypto.DefaultRand()
	}
	if opt.Logger == nil {
		nop := zerolog.Nop()
		opt.Logger = &nop
	}
}
