// Package auth implements phone login with 2FA password and DC migration.
package auth

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"

	"github.com/navtemmt/telegram-channel-mirror-mtproto/rpc"
)

// Client issues login RPC calls. Every call goes through rpc.Migrator.
type Client struct {
	api     *tg.Client
	remote  rpc.API
	appID   int
	appHash string
	phone   string
	log     *zerolog.Logger
}

// NewClient creates new Client.
func NewClient(api rpc.API, appID int, appHash string, opt Options) *Client {
	opt.setDefaults()

	lg := opt.Logger.With().Str("logger", "migrate").Logger()
	return &Client{
		api:     tg.NewClient(rpc.NewMigrator(api, rpc.Options{Logger: &lg})),
		remote:  api,
		appID:   appID,
		appHash: appHash,
		phone:   opt.Phone,
		log:     opt.Logger,
	}
}

// Challenge is an issued login code.
type Challenge struct {
	Phone         string
	PhoneCodeHash string
	// Sent is set if code was sent.
	Sent *tg.AuthSentCode
	// Authorization is set if server authorized without code.
	Authorization *tg.AuthAuthorization
}

// SendCode requests login code for phone, or for fallback phone if empty.
func (c *Client) SendCode(ctx context.Context, phone string) (*Challenge, error) {
	if phone == "" {
		phone = c.phone
	}
	if phone == "" {
		return nil, &ConfigError{Field: "phone"}
	}

	c.log.Info().Msg("Sending code")
	sent, err := c.api.AuthSendCode(ctx, &tg.AuthSendCodeRequest{
		PhoneNumber: phone,
		APIID:       c.appID,
		APIHash:     c.appHash,
		Settings:    tg.CodeSettings{},
	})
	if err != nil {
		return nil, errors.Wrap(err, "send code")
	}

	switch s := sent.(type) {
	case *tg.AuthSentCode:
		return &Challenge{
			Phone:         phone,
			PhoneCodeHash: s.PhoneCodeHash,
			Sent:          s,
		}, nil
	case *tg.AuthSentCodeSuccess:
		a, err := checkAuthorization(s.Authorization)
		if err != nil {
			return nil, errors.Wrap(err, "send code")
		}
		return &Challenge{
			Phone:         phone,
			Authorization: a,
		}, nil
	default:
		return nil, errors.Errorf("unexpected sent code type %T", sent)
	}
}

// SignIn submits login code for challenge.
func (c *Client) SignIn(ctx context.Context, ch *Challenge, code string) (*tg.AuthAuthorization, error) {
	a, err := c.api.AuthSignIn(ctx, &tg.AuthSignInRequest{
		PhoneNumber:   ch.Phone,
		PhoneCodeHash: ch.PhoneCodeHash,
		PhoneCode:     code,
	})
	if err != nil {
		return nil, errors.Wrap(err, "sign in")
	}
	return checkAuthorization(a)
}

// PasswordChallenge is the current 2FA password challenge.
type PasswordChallenge struct {
	SRPID int64
	Input rpc.PasswordInput
}

// Password fetches fresh password challenge.
func (c *Client) Password(ctx context.Context) (*PasswordChallenge, error) {
	p, err := c.api.AccountGetPassword(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get password")
	}

	algo, ok := p.CurrentAlgo.(*tg.PasswordKdfAlgoSHA256SHA256PBKDF2HMACSHA512iter100000SHA256ModPow)
	if !ok {
		return nil, errors.Errorf("unsupported password algo %T", p.CurrentAlgo)
	}

	return &PasswordChallenge{
		SRPID: p.SRPID,
		Input: rpc.PasswordInput{
			G:     algo.G,
			P:     algo.P,
			Salt1: algo.Salt1,
			Salt2: algo.Salt2,
			SRPB:  p.SRPB,
		},
	}, nil
}

// Proof derives SRP proof for challenge using remote API.
func (c *Client) Proof(p *PasswordChallenge, password string) (rpc.Proof, error) {
	proof, err := c.remote.ComputeProof(p.Input, []byte(password))
	if err != nil {
		return rpc.Proof{}, errors.Wrap(err, "compute proof")
	}
	return proof, nil
}

// CheckPassword submits SRP proof.
func (c *Client) CheckPassword(ctx context.Context, srpID int64, proof rpc.Proof) (*tg.AuthAuthorization, error) {
	a, err := c.api.AuthCheckPassword(ctx, &tg.InputCheckPasswordSRP{
		SRPID: srpID,
		A:     proof.A,
		M1:    proof.M1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "check password")
	}
	return checkAuthorization(a)
}

// Self returns current user. Any error is logged and yields nil.
func (c *Client) Self(ctx context.Context) []User {
	users, err := c.api.UsersGetUsers(ctx, []tg.InputUserClass{&tg.InputUserSelf{}})
	if err != nil {
		c.log.Warn().Err(err).Msg("Got error on self")
		return nil
	}

	var r []User
	for _, u := range users {
		if user, ok := u.(*tg.User); ok {
			r = append(r, userFrom(user))
		}
	}
	return r
}

// Logout removes all stored credentials. No requests are sent.
func Logout(ctx context.Context, storage rpc.Storage) error {
	if err := storage.RemoveAll(ctx); err != nil {
		return errors.Wrap(err, "remove credentials")
	}
	return nil
}

func checkAuthorization(a tg.AuthAuthorizationClass) (*tg.AuthAuthorization, error) {
	switch a := a.(type) {
	case *tg.AuthAuthorization:
		return a, nil
	case *tg.AuthAuthorizationSignUpRequired:
		return nil, ErrSignUpRequired
	default:
		return nil, errors.Errorf("unexpected authorization type %T", a)
	}
}
