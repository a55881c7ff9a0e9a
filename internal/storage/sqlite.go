package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/eliseohh/keywatchbot/internal/keyword"
)

//go:embed schema.sql
var schema string

// SQLite keeps keywords in a single sqlite table.
type SQLite struct {
	*sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	// WAL + full sync: a returned Insert/Delete is on disk.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	s := &SQLite{db}
	if err := s.InitSchema(schema); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (d *SQLite) InitSchema(schemaContent string) error {
	_, err := d.Exec(schemaContent)
	if err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (d *SQLite) Load(ctx context.Context) (map[keyword.Scope][]string, error) {
	rows, err := d.QueryContext(ctx, "SELECT scope, word FROM keywords ORDER BY scope, word")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[keyword.Scope][]string)
	for rows.Next() {
		var (
			scope int64
			word  string
		)
		if err := rows.Scan(&scope, &word); err != nil {
			return nil, err
		}
		out[keyword.Scope(scope)] = append(out[keyword.Scope(scope)], word)
	}
	return out, rows.Err()
}

func (d *SQLite) Insert(ctx context.Context, scope keyword.Scope, word string) error {
	_, err := d.ExecContext(ctx, "INSERT OR IGNORE INTO keywords (scope, word) VALUES (?, ?)", int64(scope), word)
	return err
}

func (d *SQLite) Delete(ctx context.Context, scope keyword.Scope, word string) error {
	_, err := d.ExecContext(ctx, "DELETE FROM keywords WHERE scope = ? AND word = ?", int64(scope), word)
	return err
}

// Nuke drops every keyword of every scope.
func (d *SQLite) Nuke(ctx context.Context) error {
	_, err := d.ExecContext(ctx, "DELETE FROM keywords")
	return err
}
