package auth

import (
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
)

// User is an authenticated account.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
}

func userFrom(u *tg.User) User {
	return User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
	}
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (u User) MarshalZerologObject(e *zerolog.Event) {
	e.Int64("user_id", u.ID).
		Str("first_name", u.FirstName).
		Str("last_name", u.LastName)
	if u.Username != "" {
		e.Str("username", u.Username)
	}
}

// Outcome is a final state of Flow.
type Outcome int

const (
	// Fatal means that flow stopped on unrecoverable error.
	Fatal Outcome = iota
	// Authenticated means that session is authorized.
	Authenticated
	// Exhausted means that attempt limit is reached.
	Exhausted
)

func (o Outcome) String() string {
	switch o {
	case Authenticated:
		return "authenticated"
	case Exhausted:
		return "exhausted"
	default:
		return "fatal"
	}
}

// Result of Flow.
type Result struct {
	Outcome  Outcome
	Attempts int
	// Users is the post-authentication identity. Empty if it could not be
	// fetched.
	Users []User
}
