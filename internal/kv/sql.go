package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

type sqlQueries struct {
	get    string
	set    string
	delete string
	keys   string
}

var sqliteQueries = sqlQueries{
	get: `SELECT value FROM kv_slots WHERE key = ?`,
	set: `
		INSERT INTO kv_slots (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`,
	delete: `DELETE FROM kv_slots WHERE key = ?`,
	keys:   `SELECT key FROM kv_slots WHERE key LIKE ? ESCAPE '\' ORDER BY key`,
}

var postgresQueries = sqlQueries{
	get: `SELECT value FROM kv_slots WHERE key = $1`,
	set: `
		INSERT INTO kv_slots (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`,
	delete: `DELETE FROM kv_slots WHERE key = $1`,
	keys:   `SELECT key FROM kv_slots WHERE key LIKE $1 ESCAPE '\' ORDER BY key`,
}

// sqlStore is the database/sql implementation shared by the SQLite and Postgres stores.
type sqlStore struct {
	db *sql.DB
	q  sqlQueries
}

func (s *sqlStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, s.q.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (s *sqlStore) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	if _, err := s.db.ExecContext(ctx, s.q.set, key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *sqlStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.q.delete, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *sqlStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.q.keys, likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		// sqlite LIKE folds ASCII case
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return keys, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
