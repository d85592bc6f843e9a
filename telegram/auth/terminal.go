package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/gotd/td/clock"
	"github.com/gotd/td/tg"
	"golang.org/x/term"
)

// TerminalOptions of Terminal.
type TerminalOptions struct {
	// In is input. Defaults to os.Stdin.
	In io.Reader
	// Out receives prompts. Defaults to os.Stderr.
	Out io.Writer
	// Fd is terminal file descriptor used to read password without
	// echo. Echo is not disabled if Fd is not a terminal.
	// Defaults to os.Stdin descriptor if In is not set, -1 otherwise.
	Fd int
	// Timeout limits each prompt. Zero means no limit.
	Timeout time.Duration
	// Clock defaults to clock.System.
	Clock clock.Clock
}

func (opt *TerminalOptions) setDefaults() {
	if opt.In == nil {
		opt.In = os.Stdin
		opt.Fd = int(os.Stdin.Fd())
	} else if opt.Fd == 0 {
		opt.Fd = -1
	}
	if opt.Out == nil {
		opt.Out = os.Stderr
	}
	if opt.Clock == nil {
		opt.Clock = clock.System
	}
}

// Terminal is interactive UserAuthenticator.
type Terminal struct {
	in      *bufio.Reader
	out     io.Writer
	fd      int
	timeout time.Duration
	clock   clock.Clock

	// pending is a read left by timed out or canceled prompt. Its line
	// answers the next prompt.
	pending chan answer
	mux     sync.Mutex
}

var _ UserAuthenticator = (*Terminal)(nil)

// NewTerminal creates new Terminal.
func NewTerminal(opt TerminalOptions) *Terminal {
	opt.setDefaults()
	return &Terminal{
		in:      bufio.NewReader(opt.In),
		out:     opt.Out,
		fd:      opt.Fd,
		timeout: opt.Timeout,
		clock:   opt.Clock,
	}
}

// Phone implements UserAuthenticator.
func (t *Terminal) Phone(ctx context.Context) (string, error) {
	return t.ask(ctx, "phone", "Enter phone (+xxxxxxxxxxx): ", false)
}

// Code implements UserAuthenticator.
func (t *Terminal) Code(ctx context.Context, sent *tg.AuthSentCode) (string, error) {
	return t.ask(ctx, "code", "Enter verification code: ", false)
}

// Password implements UserAuthenticator.
func (t *Terminal) Password(ctx context.Context) (string, error) {
	return t.ask(ctx, "password", "Enter 2FA password: ", true)
}

type answer struct {
	value string
	err   error
}

func (t *Terminal) ask(ctx context.Context, field, prompt string, secret bool) (string, error) {
	if _, err := fmt.Fprint(t.out, prompt); err != nil {
		return "", errors.Wrap(err, "write prompt")
	}

	t.mux.Lock()
	result := t.pending
	t.pending = nil
	t.mux.Unlock()
	if result == nil {
		result = make(chan answer, 1)
		go func() {
			v, err := t.read(secret)
			result <- answer{value: v, err: err}
		}()
	}

	var timeout <-chan time.Time
	if t.timeout > 0 {
		timer := t.clock.Timer(t.timeout)
		defer timer.Stop()
		timeout = timer.C()
	}

	select {
	case r := <-result:
		if r.err != nil {
			return "", errors.Wrapf(r.err, "read %s", field)
		}
		return r.value, nil
	case <-timeout:
		t.keep(result)
		return "", &ConfigError{Field: field, Err: ErrPromptTimeout}
	case <-ctx.Done():
		t.keep(result)
		return "", ctx.Err()
	}
}

func (t *Terminal) keep(result chan answer) {
	t.mux.Lock()
	defer t.mux.Unlock()
	t.pending = result
}

func (t *Terminal) read(secret bool) (string, error) {
	if secret && t.fd >= 0 && term.IsTerminal(t.fd) {
		v, err := term.ReadPassword(t.fd)
		_, _ = fmt.Fprintln(t.out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(v)), nil
	}

	line, err := t.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
