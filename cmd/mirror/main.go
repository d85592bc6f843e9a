// Binary mirror copies new posts of one Telegram channel into another.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/navtemmt/telegram-channel-mirror-mtproto/internal/botapi"
	"github.com/navtemmt/telegram-channel-mirror-mtproto/internal/config"
	"github.com/navtemmt/telegram-channel-mirror-mtproto/session"
	"github.com/navtemmt/telegram-channel-mirror-mtproto/telegram"
	"github.com/navtemmt/telegram-channel-mirror-mtproto/telegram/auth"
	"github.com/navtemmt/telegram-channel-mirror-mtproto/telegram/peers"
	"github.com/navtemmt/telegram-channel-mirror-mtproto/telegram/updates"
)

type flags struct {
	Config        string
	EnvFile       string
	Session       string
	LogLevel      string
	MaxAttempts   int
	PromptTimeout time.Duration
	Logout        bool
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), errors.Wrap(err, "parse log level")
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().
		Logger(), nil
}

func run(ctx context.Context, f flags, lg *zerolog.Logger) error {
	storage := session.NewFile(f.Session)
	if f.Logout {
		if err := auth.Logout(ctx, storage); err != nil {
			return err
		}
		lg.Info().Str("path", storage.Path()).Msg("Logged out")
		return nil
	}

	cfg, err := config.Load(f.Config, f.EnvFile)
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	err = mirror(ctx, cfg, f, storage, lg)
	if err == nil || (ctx.Err() != nil && errors.Is(err, context.Canceled)) {
		return nil
	}
	if !cfg.Report() {
		return err
	}

	n := botapi.NewNotifier(botapi.NewClient(cfg.ErrorBotToken, botapi.Options{Logger: lg}), cfg.ErrorUserID)
	// Parent context may be already canceled.
	notifyCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return multierr.Append(err, n.Notify(notifyCtx, err))
}

func mirror(ctx context.Context, cfg config.Config, f flags, storage *session.File, lg *zerolog.Logger) error {
	client, err := telegram.NewClient(ctx, cfg.AppID, cfg.AppHash, telegram.Options{
		Storage: storage,
		Logger:  lg,
	})
	if err != nil {
		return errors.Wrap(err, "create client")
	}

	return client.Run(ctx, func(ctx context.Context) error {
		authClient := auth.NewClient(client, cfg.AppID, cfg.AppHash, auth.Options{
			Phone:  cfg.Phone,
			Logger: lg,
		})
		flow := auth.NewFlow(
			auth.Constant(cfg.Phone, cfg.Code, cfg.Password, auth.NewTerminal(auth.TerminalOptions{
				Timeout: f.PromptTimeout,
			})),
			auth.FlowOptions{
				MaxAttempts: f.MaxAttempts,
				Logger:      lg,
			},
		)

		res, err := flow.Run(ctx, authClient)
		if err != nil {
			return errors.Wrapf(err, "authenticate (%s)", res.Outcome)
		}
		for _, u := range res.Users {
			lg.Info().Msgf("User %s %s authenticated", u.FirstName, u.LastName)
		}

		resolver := peers.NewResolver(client, peers.Options{Logger: lg})
		source, err := resolver.Resolve(ctx, query(cfg.From))
		if err != nil {
			return errors.Wrap(err, "resolve source channel")
		}
		target, err := resolver.Resolve(ctx, query(cfg.To))
		if err != nil {
			return errors.Wrap(err, "resolve target channel")
		}

		native := cfg.NativeCopy.Native(source.NoForwards)
		if cfg.NativeCopy.Auto() {
			mode := "natively"
			if !native {
				mode = "using bypass"
			}
			lg.Info().Bool("noforwards", source.NoForwards).Msgf("Copy mode is auto, copying %s", mode)
		}

		pollerCfg := updates.Config{
			API:      client.API(),
			Source:   source,
			Target:   target,
			Storage:  storage,
			Native:   native,
			Interval: cfg.Interval(),
			Limit:    cfg.Limit,
			Logger:   lg,
		}
		if !native {
			if cfg.BotToken == "" {
				return &config.Error{Field: "BOT_TOKEN", Reason: "required to copy from protected channel"}
			}
			pollerCfg.Bot = botapi.NewClient(cfg.BotToken, botapi.Options{Logger: lg})
		}

		return updates.NewPoller(pollerCfg).Run(ctx)
	})
}

func query(p config.Peer) peers.Query {
	return peers.Query{ID: p.ID, Username: p.Username}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "mirror",
		Short:         "Mirror new posts from one Telegram channel to another",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			lg, err := newLogger(f.LogLevel)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := run(ctx, f, &lg); err != nil {
				lg.Error().Err(err).Msg("Failed")
				return err
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.Config, "config", "config.json", "path to config file (JSON with comments or YAML)")
	fs.StringVar(&f.EnvFile, "env-file", ".env", "path to .env file")
	fs.StringVar(&f.Session, "session", "session.json", "path to credential storage")
	fs.StringVar(&f.LogLevel, "log-level", "info", "log level")
	fs.IntVar(&f.MaxAttempts, "max-attempts", 0, "login attempts limit, 0 is unbounded")
	fs.DurationVar(&f.PromptTimeout, "prompt-timeout", 0, "interactive prompt timeout, 0 is unbounded")
	fs.BoolVar(&f.Logout, "logout", false, "remove stored credentials and exit")
	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}
