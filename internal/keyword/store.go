package keyword

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

// Backend persists keywords. Insert and Delete must be durable when they return.
type Backend interface {
	Load(ctx context.Context) (map[Scope][]string, error)
	Insert(ctx context.Context, scope Scope, word string) error
	Delete(ctx context.Context, scope Scope, word string) error
	Close() error
}

// Mode selects how scopes passed to the Store are interpreted.
type Mode int

const (
	// ScopeGlobal folds every scope into Global.
	ScopeGlobal Mode = iota
	// ScopePerChat keeps a separate set per chat.
	ScopePerChat
)

// PersistenceError reports a failed backend read or write. The in-memory
// set is left untouched when it is returned from Add or Remove.
type PersistenceError struct {
	Op    string
	Scope Scope
	Word  string
	Err   error
}

func (e *PersistenceError) Error() string {
	if e.Word == "" {
		return fmt.Sprintf("keyword %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("keyword %s %q (scope %d): %v", e.Op, e.Word, e.Scope, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

type set struct {
	// mu serializes writers; readers use words.
	mu    sync.Mutex
	words atomic.Pointer[[]string]
}

func (s *set) snapshot() []string {
	p := s.words.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Store is the single source of truth for matching. Mutations go to the
// backend first and are published to readers only after they succeed.
type Store struct {
	backend Backend
	mode    Mode
	logger  *slog.Logger

	mu   sync.RWMutex
	sets map[Scope]*set
}

// New loads the persisted keywords from backend.
func New(ctx context.Context, backend Backend, mode Mode, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loaded, err := backend.Load(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}

	s := &Store{
		backend: backend,
		mode:    mode,
		logger:  logger,
		sets:    make(map[Scope]*set),
	}
	total := 0
	for scope, words := range loaded {
		if s.resolve(scope) != scope {
			logger.Warn("ignoring per-chat keywords in global mode", "scope", scope, "keywords", len(words))
			continue
		}
		norm := make([]string, 0, len(words))
		for _, w := range words {
			if w = Normalize(w); w != "" {
				norm = append(norm, w)
			}
		}
		slices.Sort(norm)
		norm = slices.Compact(norm)
		s.setFor(scope, true).words.Store(&norm)
		total += len(norm)
	}
	logger.Info("keywords loaded", "scopes", len(s.sets), "keywords", total)
	return s, nil
}

// Mode reports whether keywords are shared or kept per chat.
func (s *Store) Mode() Mode { return s.mode }

func (s *Store) resolve(scope Scope) Scope {
	if s.mode == ScopeGlobal {
		return Global
	}
	return scope
}

func (s *Store) setFor(scope Scope, create bool) *set {
	s.mu.RLock()
	st := s.sets[scope]
	s.mu.RUnlock()
	if st != nil || !create {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st = s.sets[scope]; st == nil {
		st = &set{}
		s.sets[scope] = st
	}
	return st
}

// Add inserts word into scope. It reports false without changes when the
// normalized word is already present.
func (s *Store) Add(ctx context.Context, scope Scope, word string) (bool, error) {
	w := Normalize(word)
	if w == "" {
		return false, ErrEmpty
	}
	scope = s.resolve(scope)
	st := s.setFor(scope, true)

	st.mu.Lock()
	defer st.mu.Unlock()

	cur := st.snapshot()
	i, found := slices.BinarySearch(cur, w)
	if found {
		return false, nil
	}
	if err := s.backend.Insert(ctx, scope, w); err != nil {
		return false, &PersistenceError{Op: "insert", Scope: scope, Word: w, Err: err}
	}
	next := slices.Insert(slices.Clone(cur), i, w)
	st.words.Store(&next)

	s.logger.Info("keyword added", "scope", scope, "keyword", w)
	return true, nil
}

// Remove deletes word from scope. It reports false when the word is absent.
func (s *Store) Remove(ctx context.Context, scope Scope, word string) (bool, error) {
	w := Normalize(word)
	if w == "" {
		return false, ErrEmpty
	}
	scope = s.resolve(scope)
	st := s.setFor(scope, false)
	if st == nil {
		return false, nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	cur := st.snapshot()
	i, found := slices.BinarySearch(cur, w)
	if !found {
		return false, nil
	}
	if err := s.backend.Delete(ctx, scope, w); err != nil {
		return false, &PersistenceError{Op: "delete", Scope: scope, Word: w, Err: err}
	}
	next := slices.Delete(slices.Clone(cur), i, i+1)
	st.words.Store(&next)

	s.logger.Info("keyword removed", "scope", scope, "keyword", w)
	return true, nil
}

// List returns the keywords of scope in sorted order. An unknown scope is empty.
func (s *Store) List(scope Scope) []string {
	st := s.setFor(s.resolve(scope), false)
	if st == nil {
		return nil
	}
	return slices.Clone(st.snapshot())
}

// Match returns every keyword of scope found in text, sorted.
func (s *Store) Match(scope Scope, text string) []string {
	st := s.setFor(s.resolve(scope), false)
	if st == nil {
		return nil
	}
	return Match(text, st.snapshot())
}

// Scopes returns the scopes that currently hold at least one keyword.
func (s *Store) Scopes() []Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Scope
	for scope, st := range s.sets {
		if len(st.snapshot()) > 0 {
			out = append(out, scope)
		}
	}
	slices.Sort(out)
	return out
}

func (s *Store) Close() error {
	return s.backend.Close()
}
