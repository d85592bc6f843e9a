package rpc

import (
	"github.com/rs/zerolog"
)

// Options of Migrator.
type Options struct {
	// Logger is instance of zerolog.Logger. No logs by default.
	Logger *zerolog.Logger
}

func (cfg *Options) setDefaults() {
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}
}
