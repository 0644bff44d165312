package kv

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

type Postgres struct {
	sqlStore
	pool *pgxpool.Pool
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{sqlStore: sqlStore{db: db, q: postgresQueries}}
}

// NewPostgresFromPool wraps a pgx pool in database/sql so the store and
// goose share one set of connections. Close releases the pool too.
func NewPostgresFromPool(pool *pgxpool.Pool) *Postgres {
	p := NewPostgres(stdlib.OpenDBFromPool(pool))
	p.pool = pool
	return p
}

func (p *Postgres) Migrate(ctx context.Context) error {
	return migrate(ctx, p.db, "postgres", "migrations/postgres")
}

func (p *Postgres) Close() error {
	err := p.db.Close()
	if p.pool != nil {
		p.pool.Close()
	}
	return err
}
