package auth

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/navtemmt/telegram-channel-mirror-mtproto/rpcerr"
)

// Flow drives login: send code, sign in, optional 2FA password.
//
// Invalid code and wrong password start the whole flow over with a new
// code request, since the previous code hash may be stale by then.
type Flow struct {
	auth   UserAuthenticator
	max    int
	log    *zerolog.Logger
	tracer trace.Tracer
}

// NewFlow creates new Flow.
func NewFlow(auth UserAuthenticator, opt FlowOptions) Flow {
	opt.setDefaults()
	return Flow{
		auth:   auth,
		max:    opt.MaxAttempts,
		log:    opt.Logger,
		tracer: opt.TracerProvider.Tracer("auth"),
	}
}

// Run authenticates client.
//
// Error is nil only for Authenticated outcome.
func (f Flow) Run(ctx context.Context, client *Client) (Result, error) {
	var lastErr error
	for attempt := 1; f.max == 0 || attempt <= f.max; attempt++ {
		err := f.attempt(ctx, client, attempt)
		if err == nil {
			users := client.Self(ctx)
			for _, u := range users {
				f.log.Info().Object("user", u).Msg("Authenticated")
			}
			return Result{
				Outcome:  Authenticated,
				Attempts: attempt,
				Users:    users,
			}, nil
		}

		var retry *RetryError
		if !errors.As(err, &retry) {
			return Result{Outcome: Fatal, Attempts: attempt}, err
		}
		f.log.Warn().
			Int("attempt", attempt).
			Str("reason", retry.RPC.Message).
			Msg(retry.notice())
		lastErr = err
	}

	return Result{Outcome: Exhausted, Attempts: f.max}, errors.Wrapf(ErrExhausted, "after %d attempts: %v", f.max, lastErr)
}

func (f Flow) attempt(ctx context.Context, client *Client, attempt int) (rErr error) {
	ctx, span := f.tracer.Start(ctx, "auth.Attempt",
		trace.WithAttributes(attribute.Int("attempt", attempt)),
	)
	defer func() {
		if rErr != nil {
			span.RecordError(rErr)
		}
		span.End()
	}()

	phone, err := f.auth.Phone(ctx)
	if err != nil {
		return errors.Wrap(err, "get phone")
	}

	ch, err := client.SendCode(ctx, phone)
	if err != nil {
		return err
	}
	if ch.Authorization != nil {
		return nil
	}

	code, err := f.auth.Code(ctx, ch.Sent)
	if err != nil {
		return errors.Wrap(err, "get code")
	}

	_, signInErr := client.SignIn(ctx, ch, code)
	if signInErr == nil {
		return nil
	}

	e, ok := rpcerr.Classify(signInErr)
	switch {
	case ok && e.Kind == rpcerr.SessionPasswordNeeded:
		return f.password(ctx, client)
	case ok && e.Kind == rpcerr.PhoneCodeInvalid:
		return &RetryError{RPC: e, Err: signInErr}
	default:
		return signInErr
	}
}

func (f Flow) password(ctx context.Context, client *Client) error {
	f.log.Info().Msg("Password required")

	p, err := client.Password(ctx)
	if err != nil {
		return err
	}
	password, err := f.auth.Password(ctx)
	if err != nil {
		return errors.Wrap(err, "get password")
	}
	proof, err := client.Proof(p, password)
	if err != nil {
		return err
	}

	if _, err := client.CheckPassword(ctx, p.SRPID, proof); err != nil {
		if e, ok := rpcerr.Classify(err); ok && e.Kind == rpcerr.PasswordHashInvalid {
			return &RetryError{RPC: e, Err: err}
		}
		return err
	}
	return nil
}
