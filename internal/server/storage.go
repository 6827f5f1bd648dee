package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/iudanet/authapi/internal/server/storage"
	"github.com/iudanet/authapi/internal/server/storage/postgres"
	"github.com/iudanet/authapi/internal/server/storage/sqlite"
)

// DefaultSQLitePath файл базы, если DATABASE_URL не задан
const DefaultSQLitePath = "/tmp/authapi.db"

// isPostgresDSN URL со схемой postgres:// или postgresql://
func isPostgresDSN(dsn string) bool {
	lower := strings.ToLower(dsn)
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}

// OpenStorage открывает хранилище по DSN и применяет миграции.
// Пустой DSN означает SQLite в DefaultSQLitePath, "sqlite://path" и просто путь тоже SQLite.
func OpenStorage(ctx context.Context, dsn string) (storage.Store, error) {
	if isPostgresDSN(dsn) {
		store, err := postgres.New(ctx, dsn, postgres.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("open postgres storage: %w", err)
		}
		return store, nil
	}

	path := strings.TrimPrefix(dsn, "sqlite://")
	if path == "" {
		path = DefaultSQLitePath
	}

	store, err := sqlite.New(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite storage: %w", err)
	}
	return store, nil
}
