package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/jwebster45206/story-editor/pkg/asset"
	"github.com/jwebster45206/story-editor/pkg/storage"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS content_tables (
	name       TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStorage keeps every table as one row of a single-file database.
type SQLiteStorage struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure SQLiteStorage implements TableStore interface
var (
	_ storage.TableStore  = (*SQLiteStorage)(nil)
	_ storage.Timestamped = (*SQLiteStorage)(nil)
)

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStorage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStorage{db: db, logger: logger}, nil
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	return s.db.PingContext(ctx)
}

// Close closes the SQLite handle.
func (s *SQLiteStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStorage) LoadTable(ctx context.Context, kind asset.Kind) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM content_tables WHERE name = ?`, string(kind)).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", storage.ErrTableNotFound, kind)
		}
		return nil, fmt.Errorf("load table %s: %w", kind, err)
	}
	return body, nil
}

func (s *SQLiteStorage) SaveTable(ctx context.Context, kind asset.Kind, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO content_tables (name, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		string(kind), data, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		s.logger.Error("Failed to save table", "table", kind, "error", err)
		return fmt.Errorf("save table %s: %w", kind, err)
	}
	return nil
}

// UpdatedAt returns when kind was last saved.
func (s *SQLiteStorage) UpdatedAt(ctx context.Context, kind asset.Kind) (time.Time, error) {
	var millis int64
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM content_tables WHERE name = ?`, string(kind)).Scan(&millis)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, fmt.Errorf("%w: %s", storage.ErrTableNotFound, kind)
		}
		return time.Time{}, fmt.Errorf("load table %s: %w", kind, err)
	}
	return time.UnixMilli(millis).UTC(), nil
}
