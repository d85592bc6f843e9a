package auth

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/gotd/neo"
	"github.com/stretchr/testify/require"
)

// blockingReader never returns.
type blockingReader struct{}

func (blockingReader) Read(p []byte) (int, error) {
	select {}
}

func TestTerminal(t *testing.T) {
	ctx := context.Background()

	t.Run("Read", func(t *testing.T) {
		a := require.New(t)
		out := &bytes.Buffer{}
		term := NewTerminal(TerminalOptions{
			In:  strings.NewReader(" +10000000000 \n12345\nsecret"),
			Out: out,
		})

		phone, err := term.Phone(ctx)
		a.NoError(err)
		a.Equal(testPhone, phone)

		code, err := term.Code(ctx, nil)
		a.NoError(err)
		a.Equal(testCode, code)

		password, err := term.Password(ctx)
		a.NoError(err)
		a.Equal(testPassword, password)

		a.Contains(out.String(), "Enter phone")
		a.Contains(out.String(), "Enter verification code")
		a.Contains(out.String(), "Enter 2FA password")

		_, err = term.Code(ctx, nil)
		a.Error(err)
	})
	t.Run("Timeout", func(t *testing.T) {
		a := require.New(t)
		clock := neo.NewTime(time.Unix(100, 0))
		observer := clock.Observe()
		term := NewTerminal(TerminalOptions{
			In:      blockingReader{},
			Out:     &bytes.Buffer{},
			Timeout: time.Minute,
			Clock:   clock,
		})

		done := make(chan error, 1)
		go func() {
			_, err := term.Code(ctx, nil)
			done <- err
		}()

		<-observer
		clock.Travel(time.Minute + time.Second)

		err := <-done
		a.ErrorIs(err, ErrPromptTimeout)
		var cfgErr *ConfigError
		a.ErrorAs(err, &cfgErr)
		a.Equal("code", cfgErr.Field)
	})
	t.Run("AfterTimeout", func(t *testing.T) {
		a := require.New(t)
		clock := neo.NewTime(time.Unix(100, 0))
		observer := clock.Observe()
		pr, pw := io.Pipe()
		defer func() { _ = pw.Close() }()

		term := NewTerminal(TerminalOptions{
			In:      pr,
			Out:     &bytes.Buffer{},
			Timeout: time.Minute,
			Clock:   clock,
		})

		done := make(chan error, 1)
		go func() {
			_, err := term.Code(ctx, nil)
			done <- err
		}()
		<-observer
		clock.Travel(time.Minute + time.Second)
		a.ErrorIs(<-done, ErrPromptTimeout)

		go func() { _, _ = pw.Write([]byte("12345\n")) }()
		code, err := term.Code(ctx, nil)
		a.NoError(err)
		a.Equal(testCode, code)
	})
}
