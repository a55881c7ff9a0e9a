package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"

	"github.com/eliseohh/keywatchbot/internal/keyword"
)

// JSONFile persists every scope in one JSON document, rewritten atomically
// on each mutation.
type JSONFile struct {
	path string

	mu    sync.Mutex
	state jsonState
}

type jsonState struct {
	// Scopes is keyed by the decimal scope id.
	Scopes map[string][]string `json:"scopes"`
}

func NewJSONFile(path string) (*JSONFile, error) {
	f := &JSONFile{path: path}
	st, err := f.read()
	if err != nil {
		return nil, err
	}
	f.state = st
	return f, nil
}

func (f *JSONFile) read() (jsonState, error) {
	empty := jsonState{Scopes: map[string][]string{}}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return empty, nil
		}
		return jsonState{}, fmt.Errorf("read keywords file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return empty, nil
	}

	var st jsonState
	if err := json.Unmarshal(data, &st); err != nil {
		return jsonState{}, fmt.Errorf("parse keywords file: %w", err)
	}
	if st.Scopes == nil {
		st.Scopes = map[string][]string{}
	}
	return st, nil
}

func (f *JSONFile) Load(context.Context) (map[keyword.Scope][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[keyword.Scope][]string, len(f.state.Scopes))
	for k, words := range f.state.Scopes {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad scope %q in %s: %w", k, f.path, err)
		}
		out[keyword.Scope(id)] = slices.Clone(words)
	}
	return out, nil
}

func (f *JSONFile) Insert(_ context.Context, scope keyword.Scope, word string) error {
	return f.update(scope, func(words []string) []string {
		if slices.Contains(words, word) {
			return words
		}
		words = append(words, word)
		slices.Sort(words)
		return words
	})
}

func (f *JSONFile) Delete(_ context.Context, scope keyword.Scope, word string) error {
	return f.update(scope, func(words []string) []string {
		return slices.DeleteFunc(words, func(w string) bool { return w == word })
	})
}

// update applies fn to a copy of the scope and commits it to memory only
// after the file has been replaced.
func (f *JSONFile) update(scope keyword.Scope, fn func([]string) []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strconv.FormatInt(int64(scope), 10)
	next := jsonState{Scopes: make(map[string][]string, len(f.state.Scopes)+1)}
	for k, v := range f.state.Scopes {
		next.Scopes[k] = v
	}
	words := fn(slices.Clone(f.state.Scopes[key]))
	if len(words) == 0 {
		delete(next.Scopes, key)
	} else {
		next.Scopes[key] = words
	}

	if err := f.save(next); err != nil {
		return err
	}
	f.state = next
	return nil
}

func (f *JSONFile) save(st jsonState) (retErr error) {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create keywords dir: %w", err)
	}

	tmp := f.path + ".tmp"
	defer func() {
		if retErr != nil {
			_ = os.Remove(tmp)
		}
	}()

	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open temp keywords file: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(st); err != nil {
		_ = out.Close()
		return fmt.Errorf("write temp keywords file: %w", err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return fmt.Errorf("fsync temp keywords file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close temp keywords file: %w", err)
	}

	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("rename temp keywords file: %w", err)
	}
	return nil
}

func (f *JSONFile) Close() error { return nil }
