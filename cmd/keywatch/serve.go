package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eliseohh/keywatchbot/internal/bot"
	"github.com/eliseohh/keywatchbot/internal/config"
	"github.com/eliseohh/keywatchbot/internal/keychain"
)

func newServeCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), debug)
		},
	}

	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func serve(ctx context.Context, debug bool) error {
	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}
	if err := cfg.ResolveToken(func() (string, error) {
		return keychain.Get(keychain.TokenAccount)
	}); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(os.Stderr, cfg, debug)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	b, err := bot.New(bot.Config{
		Token:       cfg.Token,
		AdminID:     cfg.AdminID,
		Guard:       cfg.Guard,
		Forward:     cfg.Forward,
		PollTimeout: cfg.PollTimeout,
	}, store, logger)
	if err != nil {
		return err
	}

	b.Run(ctx)
	return nil
}
