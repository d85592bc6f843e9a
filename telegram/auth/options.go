package auth

import (
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Options of Client.
type Options struct {
	// Phone is fallback phone number used when SendCode is called
	// without one.
	Phone string
	// Logger is instance of zerolog.Logger. No logs by default.
	Logger *zerolog.Logger
}

func (opt *Options) setDefaults() {
	// It's okay to use zero value Phone.
	if opt.Logger == nil {
		nop := zerolog.Nop()
		opt.Logger = &nop
	}
}

// FlowOptions of Flow.
type FlowOptions struct {
	// MaxAttempts limits count of login attempts. Zero means no limit.
	MaxAttempts int
	// Logger is instance of zerolog.Logger. No logs by default.
	Logger *zerolog.Logger
	// TracerProvider (optional).
	TracerProvider trace.TracerProvider
}

func (opt *FlowOptions) setDefaults() {
	if opt.MaxAttempts < 0 {
		opt.MaxAttempts = 0
	}
	if opt.Logger == nil {
		nop := zerolog.Nop()
		opt.Logger = &nop
	}
	if opt.TracerProvider == nil {
		opt.TracerProvider = trace.NewNoopTracerProvider()
	}
}
