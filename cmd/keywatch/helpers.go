package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/eliseohh/keywatchbot/internal/config"
	"github.com/eliseohh/keywatchbot/internal/keyword"
	"github.com/eliseohh/keywatchbot/internal/storage"
)

func newLogger(w io.Writer, cfg *config.Config, debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if debug {
		opts.Level = slog.LevelDebug
	}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openStore loads the configured keyword store. Offline commands only need
// the storage settings to be valid.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*keyword.Store, error) {
	if err := cfg.ValidateStorage(); err != nil {
		return nil, err
	}
	backend, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		return nil, err
	}
	store, err := keyword.New(ctx, backend, cfg.KeywordMode(), logger)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return store, nil
}

// offlineLogger keeps maintenance commands quiet unless asked otherwise.
func offlineLogger(cfg *config.Config) *slog.Logger {
	if cfg.SlogLevel() > slog.LevelDebug {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return newLogger(os.Stderr, cfg, true)
}
