// Package rpcerr classifies Telegram RPC errors into the small closed set
// of codes the login flow branches on.
package rpcerr

import (
	"fmt"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tgerr"
)

// Kind is a class of RPC error.
type Kind int

const (
	// Terminal is any error that is not explicitly handled.
	Terminal Kind = iota
	// Migrate means the request must be reissued on another DC.
	Migrate
	// PhoneCodeInvalid means the submitted login code is wrong or expired.
	PhoneCodeInvalid
	// SessionPasswordNeeded means the account has a 2FA password.
	SessionPasswordNeeded
	// PasswordHashInvalid means the submitted SRP proof does not match.
	PasswordHashInvalid
)

func (k Kind) String() string {
	switch k {
	case Migrate:
		return "migrate"
	case PhoneCodeInvalid:
		return "phone_code_invalid"
	case SessionPasswordNeeded:
		return "session_password_needed"
	case PasswordHashInvalid:
		return "password_hash_invalid"
	default:
		return "terminal"
	}
}

// Error codes handled by the login flow.
const (
	CodePhoneCodeInvalid      = "PHONE_CODE_INVALID"
	CodeSessionPasswordNeeded = "SESSION_PASSWORD_NEEDED"
	CodePasswordHashInvalid   = "PASSWORD_HASH_INVALID"
)

// Migration error types, the DC id is the error argument.
var migrateTypes = []string{
	"PHONE_MIGRATE",
	"NETWORK_MIGRATE",
	"USER_MIGRATE",
	"FILE_MIGRATE",
}

// Error is a classified RPC error.
type Error struct {
	Kind Kind
	// Code is the numeric error code, e.g. 303 for migrations.
	Code int
	// Message is the raw error message, e.g. "PHONE_MIGRATE_5".
	Message string
	// DC is the target datacenter, set only for Migrate.
	DC int
}

func (e Error) String() string {
	if e.Kind == Migrate {
		return fmt.Sprintf("%s (dc %d)", e.Message, e.DC)
	}
	return e.Message
}

// Parse classifies raw error code and message.
func Parse(code int, message string) Error {
	return classify(tgerr.New(code, message))
}

func classify(rpcErr *tgerr.Error) Error {
	e := Error{
		Kind:    Terminal,
		Code:    rpcErr.Code,
		Message: rpcErr.Message,
	}

	switch {
	case rpcErr.Message == CodePhoneCodeInvalid:
		e.Kind = PhoneCodeInvalid
	case rpcErr.Message == CodeSessionPasswordNeeded:
		e.Kind = SessionPasswordNeeded
	case rpcErr.Message == CodePasswordHashInvalid:
		e.Kind = PasswordHashInvalid
	case rpcErr.IsOneOf(migrateTypes...) && rpcErr.Argument > 0:
		e.Kind = Migrate
		e.DC = rpcErr.Argument
	}

	return e
}

// Classify extracts and classifies RPC error from err chain.
//
// Returns false if err does not contain an RPC error.
func Classify(err error) (Error, bool) {
	rpcErr, ok := tgerr.As(err)
	if !ok {
		return Error{}, false
	}
	return classify(rpcErr), true
}

// Is reports whether err is an RPC error of given kind.
func Is(err error, k Kind) bool {
	e, ok := Classify(err)
	return ok && e.Kind == k
}

// AsMigrate returns target DC if err is a migration signal.
func AsMigrate(err error) (int, bool) {
	e, ok := Classify(err)
	if !ok || e.Kind != Migrate {
		return 0, false
	}
	return e.DC, true
}

// IsPermanent reports whether err invalidates the current session, so
// retrying the request with the same credentials is pointless.
func IsPermanent(err error) bool {
	return auth.IsUnauthorized(err) || tgerr.Is(err, "AUTH_KEY_DUPLICATED")
}
