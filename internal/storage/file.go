package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jwebster45206/story-editor/pkg/asset"
	"github.com/jwebster45206/story-editor/pkg/storage"
)

// FileStorage keeps each table as <dataDir>/<table>.json.
type FileStorage struct {
	dataDir string
	logger  *slog.Logger
}

// Ensure FileStorage implements TableStore interface
var (
	_ storage.TableStore  = (*FileStorage)(nil)
	_ storage.Timestamped = (*FileStorage)(nil)
)

// NewFileStorage creates a file-backed table store.
func NewFileStorage(dataDir string, logger *slog.Logger) *FileStorage {
	if dataDir == "" {
		dataDir = "./data"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStorage{dataDir: dataDir, logger: logger}
}

func (f *FileStorage) path(kind asset.Kind) string {
	return filepath.Join(f.dataDir, string(kind)+".json")
}

// Ping checks that the data directory exists.
func (f *FileStorage) Ping(ctx context.Context) error {
	info, err := os.Stat(f.dataDir)
	if err != nil {
		return fmt.Errorf("data dir unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data dir %s is not a directory", f.dataDir)
	}
	return nil
}

func (f *FileStorage) Close() error {
	return nil
}

func (f *FileStorage) LoadTable(ctx context.Context, kind asset.Kind) ([]byte, error) {
	path := f.path(kind)
	f.logger.Debug("Loading table", "table", kind, "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrTableNotFound, kind)
		}
		return nil, fmt.Errorf("failed to read table file: %w", err)
	}
	return data, nil
}

// SaveTable writes through a temp file so a failed write never truncates
// the previous table.
func (f *FileStorage) SaveTable(ctx context.Context, kind asset.Kind, data []byte) error {
	if err := os.MkdirAll(f.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(f.dataDir, string(kind)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write table %s: %w", kind, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write table %s: %w", kind, err)
	}
	if err := os.Rename(tmp.Name(), f.path(kind)); err != nil {
		f.logger.Error("Failed to replace table file", "table", kind, "error", err)
		return fmt.Errorf("failed to replace table %s: %w", kind, err)
	}
	return nil
}

// UpdatedAt returns the modification time of the table file.
func (f *FileStorage) UpdatedAt(ctx context.Context, kind asset.Kind) (time.Time, error) {
	info, err := os.Stat(f.path(kind))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, fmt.Errorf("%w: %s", storage.ErrTableNotFound, kind)
		}
		return time.Time{}, fmt.Errorf("failed to stat table file: %w", err)
	}
	return info.ModTime(), nil
}
