package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/story-editor/internal/config"
	"github.com/jwebster45206/story-editor/pkg/storage"
)

// OpenTables returns the table store selected by STORAGE_BACKEND.
func OpenTables(cfg *config.Config, logger *slog.Logger) (storage.TableStore, error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		return OpenSQLite(cfg.SQLitePath, logger)
	case config.BackendFile, "":
		return NewFileStorage(cfg.DataDir, logger), nil
	}
	return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
}

// OpenDrafts connects the draft store, or returns nil when REDIS_URL is unset.
func OpenDrafts(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.DraftStore, error) {
	if !cfg.DraftsEnabled() {
		return nil, nil
	}
	rs, err := NewRedisStorage(cfg.RedisURL, cfg.DraftTTL, logger)
	if err != nil {
		return nil, err
	}
	if err := rs.WaitForConnection(ctx, 5, 500*time.Millisecond); err != nil {
		_ = rs.Close()
		return nil, err
	}
	return rs, nil
}
