package auth

import (
	"context"
	"sync"

	tdauth "github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// UserAuthenticator asks user for login secrets.
//
// It is gotd auth.UserAuthenticator without sign-up and terms of service,
// sign-up is not supported.
type UserAuthenticator interface {
	Phone(ctx context.Context) (string, error)
	Password(ctx context.Context) (string, error)
	tdauth.CodeAuthenticator
}

// Constant returns UserAuthenticator with configured values.
//
// Phone is used for every attempt. Code and password are one-time
// secrets: each is returned once, later calls go to fallback. Empty
// values go to fallback directly. With nil fallback missing code or
// password is a ConfigError and missing phone is returned empty, leaving
// the decision to Client.SendCode.
func Constant(phone, code, password string, fallback UserAuthenticator) UserAuthenticator {
	return &constant{
		phone:    phone,
		code:     code,
		password: password,
		fallback: fallback,
	}
}

type constant struct {
	phone    string
	fallback UserAuthenticator

	mux      sync.Mutex
	code     string
	password string
}

func (c *constant) Phone(ctx context.Context) (string, error) {
	if c.phone != "" {
		return c.phone, nil
	}
	if c.fallback == nil {
		return "", nil
	}
	return c.fallback.Phone(ctx)
}

func (c *constant) Code(ctx context.Context, sent *tg.AuthSentCode) (string, error) {
	if v := c.take(&c.code); v != "" {
		return v, nil
	}
	if c.fallback == nil {
		return "", &ConfigError{Field: "code"}
	}
	return c.fallback.Code(ctx, sent)
}

func (c *constant) Password(ctx context.Context) (string, error) {
	if v := c.take(&c.password); v != "" {
		return v, nil
	}
	if c.fallback == nil {
		return "", &ConfigError{Field: "password"}
	}
	return c.fallback.Password(ctx)
}

func (c *constant) take(v *string) string {
	c.mux.Lock()
	defer c.mux.Unlock()

	r := *v
	*v = ""
	return r
}
