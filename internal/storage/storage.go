// Package storage implements keyword.Backend on top of sqlite, postgres,
// a JSON file or plain memory.
package storage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/eliseohh/keywatchbot/internal/keyword"
)

// Kinds accepted by Open.
const (
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
	KindJSON     = "json"
	KindMemory   = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Kind        string
	SQLitePath  string
	DatabaseURL string
	JSONPath    string
}

func Open(ctx context.Context, opts Options) (keyword.Backend, error) {
	switch opts.Kind {
	case KindSQLite, "":
		return NewSQLite(opts.SQLitePath)
	case KindPostgres:
		if opts.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres storage needs DATABASE_URL")
		}
		return NewPostgres(ctx, opts.DatabaseURL)
	case KindJSON:
		return NewJSONFile(opts.JSONPath)
	case KindMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage kind %q", opts.Kind)
	}
}

// Memory is a non-persistent backend for tests and dry runs.
type Memory struct {
	mu   sync.Mutex
	data map[keyword.Scope][]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[keyword.Scope][]string)}
}

func (m *Memory) Load(context.Context) (map[keyword.Scope][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[keyword.Scope][]string, len(m.data))
	for k, v := range m.data {
		out[k] = slices.Clone(v)
	}
	return out, nil
}

func (m *Memory) Insert(_ context.Context, scope keyword.Scope, word string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.data[scope], word) {
		m.data[scope] = append(m.data[scope], word)
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, scope keyword.Scope, word string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[scope] = slices.DeleteFunc(m.data[scope], func(w string) bool { return w == word })
	return nil
}

func (m *Memory) Close() error { return nil }

// ReadLegacy parses a flat keyword file: one keyword per line, blank lines
// and lines starting with '#' ignored. Keywords are normalized and
// deduplicated in file order.
func ReadLegacy(r io.Reader) ([]string, error) {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		w := keyword.Normalize(line)
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read legacy keywords: %w", err)
	}
	return out, nil
}
