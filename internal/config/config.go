// Package config loads keywatch settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/eliseohh/keywatchbot/internal/access"
	"github.com/eliseohh/keywatchbot/internal/keyword"
	"github.com/eliseohh/keywatchbot/internal/storage"
)

// Scope values.
const (
	ScopeGlobal = "global"
	ScopeChat   = "chat"
)

// Error is a missing or malformed setting. The bot must not start with one.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var errMissing = errors.New("not set")

type Config struct {
	Token      string `env:"TELEGRAM_TOKEN"`
	RawAdminID string `env:"ADMIN_ID"`

	// AdminID is RawAdminID parsed by Load. It is both the fixed
	// administrator and the recipient of reports.
	AdminID int64

	Storage     string `env:"KEYWATCH_STORAGE"   envDefault:"sqlite"`
	DBPath      string `env:"KEYWATCH_DB_PATH"   envDefault:"./keywatch.db"`
	DatabaseURL string `env:"DATABASE_URL"`
	JSONPath    string `env:"KEYWATCH_JSON_PATH" envDefault:"./keywords.json"`

	Scope       string        `env:"KEYWATCH_SCOPE"        envDefault:"global"`
	Guard       string        `env:"KEYWATCH_GUARD"        envDefault:"admin"`
	Forward     bool          `env:"KEYWATCH_FORWARD"`
	PollTimeout time.Duration `env:"KEYWATCH_POLL_TIMEOUT" envDefault:"10s"`

	LogLevel  string `env:"KEYWATCH_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"KEYWATCH_LOG_FORMAT" envDefault:"text"`
}

// Load parses environ, or the process environment when environ is nil.
func Load(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, &Error{Field: "environment", Err: err}
	}

	if raw := strings.TrimSpace(cfg.RawAdminID); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, &Error{Field: "ADMIN_ID", Err: fmt.Errorf("not a numeric user id: %q", cfg.RawAdminID)}
		}
		cfg.AdminID = id
	}
	cfg.Token = strings.TrimSpace(cfg.Token)
	cfg.Storage = strings.ToLower(cfg.Storage)
	cfg.Scope = strings.ToLower(cfg.Scope)
	cfg.Guard = strings.ToLower(cfg.Guard)
	return &cfg, nil
}

// ResolveToken fills an empty Token from lookup, typically the OS keychain.
func (c *Config) ResolveToken(lookup func() (string, error)) error {
	if c.Token != "" || lookup == nil {
		return nil
	}
	tok, err := lookup()
	if err != nil {
		return &Error{Field: "TELEGRAM_TOKEN", Err: fmt.Errorf("keychain lookup: %w", err)}
	}
	c.Token = strings.TrimSpace(tok)
	return nil
}

// ValidateStorage checks the settings needed to open the keyword store.
func (c *Config) ValidateStorage() error {
	switch c.Storage {
	case storage.KindSQLite:
		if c.DBPath == "" {
			return &Error{Field: "KEYWATCH_DB_PATH", Err: errMissing}
		}
	case storage.KindPostgres:
		if c.DatabaseURL == "" {
			return &Error{Field: "DATABASE_URL", Err: errMissing}
		}
	case storage.KindJSON:
		if c.JSONPath == "" {
			return &Error{Field: "KEYWATCH_JSON_PATH", Err: errMissing}
		}
	case storage.KindMemory:
	default:
		return &Error{Field: "KEYWATCH_STORAGE", Err: fmt.Errorf("unknown kind %q", c.Storage)}
	}
	switch c.Scope {
	case ScopeGlobal, ScopeChat:
	default:
		return &Error{Field: "KEYWATCH_SCOPE", Err: fmt.Errorf("want %q or %q, got %q", ScopeGlobal, ScopeChat, c.Scope)}
	}
	return nil
}

// Validate checks everything the bot needs to serve.
func (c *Config) Validate() error {
	if c.Token == "" {
		return &Error{Field: "TELEGRAM_TOKEN", Err: errMissing}
	}
	if c.AdminID == 0 {
		return &Error{Field: "ADMIN_ID", Err: errMissing}
	}
	switch c.Guard {
	case access.ModeAdmin:
	case access.ModeChatAdmins:
		// Chat admins may only edit the list of their own chat.
		if c.Scope != ScopeChat {
			return &Error{Field: "KEYWATCH_GUARD", Err: fmt.Errorf("%s needs KEYWATCH_SCOPE=%s", access.ModeChatAdmins, ScopeChat)}
		}
	default:
		return &Error{Field: "KEYWATCH_GUARD", Err: fmt.Errorf("unknown mode %q", c.Guard)}
	}
	if c.PollTimeout <= 0 {
		return &Error{Field: "KEYWATCH_POLL_TIMEOUT", Err: fmt.Errorf("must be positive, got %s", c.PollTimeout)}
	}
	return c.ValidateStorage()
}

func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Kind:        c.Storage,
		SQLitePath:  c.DBPath,
		DatabaseURL: c.DatabaseURL,
		JSONPath:    c.JSONPath,
	}
}

func (c *Config) KeywordMode() keyword.Mode {
	if c.Scope == ScopeChat {
		return keyword.ScopePerChat
	}
	return keyword.ScopeGlobal
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
