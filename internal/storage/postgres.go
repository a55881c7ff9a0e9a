package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eliseohh/keywatchbot/internal/keyword"
)

// Postgres keeps keywords in the same single table as SQLite.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS keywords (
			scope BIGINT NOT NULL,
			word  TEXT   NOT NULL,
			PRIMARY KEY (scope, word)
		);
	`); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Load(ctx context.Context) (map[keyword.Scope][]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT scope, word FROM keywords ORDER BY scope, word;`)
	if err != nil {
		return nil, err
	}

	out := make(map[keyword.Scope][]string)
	var (
		scope int64
		word  string
	)
	_, err = pgx.ForEachRow(rows, []any{&scope, &word}, func() error {
		out[keyword.Scope(scope)] = append(out[keyword.Scope(scope)], word)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Postgres) Insert(ctx context.Context, scope keyword.Scope, word string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO keywords (scope, word) VALUES ($1, $2)
		ON CONFLICT (scope, word) DO NOTHING;
	`, int64(scope), word)
	return err
}

func (p *Postgres) Delete(ctx context.Context, scope keyword.Scope, word string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM keywords WHERE scope = $1 AND word = $2;`, int64(scope), word)
	return err
}

// Nuke drops every keyword of every scope.
func (p *Postgres) Nuke(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM keywords;`)
	return err
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
