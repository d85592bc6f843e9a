package auth

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/navtemmt/telegram-channel-mirror-mtproto/rpcerr"
)

var (
	// ErrExhausted is returned when flow reaches attempt limit.
	ErrExhausted = errors.New("authentication attempts exhausted")
	// ErrSignUpRequired is returned when phone number is not registered.
	ErrSignUpRequired = errors.New("account not found, sign up required")
	// ErrPromptTimeout is returned when user does not answer prompt in time.
	ErrPromptTimeout = errors.New("prompt timed out")
)

// ConfigError means that a required value is available from no source.
// It is never retried.
type ConfigError struct {
	// Field is the missing value, like "phone".
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Field, e.Err)
	}
	return fmt.Sprintf("%s is not configured", e.Field)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// RetryError is a recoverable failure: the flow starts over with a new
// code request.
type RetryError struct {
	RPC rpcerr.Error
	Err error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("retry: %s", e.RPC.Message)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

func (e *RetryError) notice() string {
	switch e.RPC.Kind {
	case rpcerr.PhoneCodeInvalid:
		return "Invalid code, retrying"
	case rpcerr.PasswordHashInvalid:
		return "Wrong 2FA password, retrying"
	default:
		return "Retrying"
	}
}
