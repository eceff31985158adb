package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-editor/pkg/asset"
)

// ErrTableNotFound is returned when a table or draft has never been written.
var ErrTableNotFound = errors.New("table not found")

// TableStore persists whole content tables. A table is always read and
// written as one JSON document in its on-disk shape.
type TableStore interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	LoadTable(ctx context.Context, kind asset.Kind) ([]byte, error)
	SaveTable(ctx context.Context, kind asset.Kind, data []byte) error
}

// Timestamped is implemented by table stores that know when a table was
// last written.
type Timestamped interface {
	UpdatedAt(ctx context.Context, kind asset.Kind) (time.Time, error)
}

// DraftStore keeps unsaved tables per editing session so a crashed session
// can be recovered.
type DraftStore interface {
	Ping(ctx context.Context) error
	Close() error

	SaveDraft(ctx context.Context, session uuid.UUID, kind asset.Kind, data []byte) error
	LoadDraft(ctx context.Context, session uuid.UUID, kind asset.Kind) ([]byte, error)
	ListDrafts(ctx context.Context, session uuid.UUID) ([]asset.Kind, error)
	DiscardDrafts(ctx context.Context, session uuid.UUID) error
}
