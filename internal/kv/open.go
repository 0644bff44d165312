package kv

import (
	"context"
	"fmt"

	"baches/internal/cache"
	"baches/internal/config"
	"baches/internal/database"
)

// Open builds the store selected by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.AppConfig) (Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return NewMemory(), nil
	case "sqlite", "":
		return OpenSQLite(ctx, cfg.Store.Path)
	case "redis":
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return &Redis{client: client, owned: true}, nil
	case "postgres":
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		store := NewPostgresFromPool(pool)
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
