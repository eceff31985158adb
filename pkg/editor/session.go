// Package editor owns one editing session: the content store plus the
// scanner, rename engine and validator bound to it, and the persistence
// collaborators that load and save whole tables.
//
// A session is driven by one caller issuing one command at a time. Nothing
// in it locks; callers serialize commands.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-editor/internal/logger"
	"github.com/jwebster45206/story-editor/pkg/asset"
	"github.com/jwebster45206/story-editor/pkg/content"
	"github.com/jwebster45206/story-editor/pkg/refs"
	"github.com/jwebster45206/story-editor/pkg/rename"
	"github.com/jwebster45206/story-editor/pkg/ruletree"
	"github.com/jwebster45206/story-editor/pkg/storage"
	"github.com/jwebster45206/story-editor/pkg/validate"
)

// Options configures a session. Drafts may be nil.
type Options struct {
	ID     uuid.UUID
	Tables storage.TableStore
	Drafts storage.DraftStore
	Logger *slog.Logger
}

// Session is one editing session over a content set. Find, rename and
// validation all see the same in-memory store; Save persists it.
type Session struct {
	ID    uuid.UUID
	Store *content.Store

	scanner   *refs.Scanner
	renamer   *rename.Engine
	validator *validate.Validator

	tables storage.TableStore
	drafts storage.DraftStore
	logger *slog.Logger
}

// New creates a session over an empty store. A zero ID gets a fresh one.
func New(opts Options) (*Session, error) {
	if opts.Tables == nil {
		return nil, errors.New("editor: a table store is required")
	}
	id := opts.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Session{
		ID:     id,
		tables: opts.Tables,
		drafts: opts.Drafts,
		logger: logger.WithSession(log, id),
	}
	s.bind(content.NewStore())
	return s, nil
}

func (s *Session) bind(store *content.Store) {
	s.Store = store
	s.scanner = refs.NewScanner(store)
	s.renamer = rename.NewEngine(store, s.scanner, s.logger)
	s.validator = validate.New(store, s.scanner)
}

// Load reads every table into a fresh store. Missing tables load empty. The
// current store is only replaced when every table decoded.
func (s *Session) Load(ctx context.Context) error {
	store := content.NewStore()
	for _, kind := range asset.Tables {
		data, err := s.tables.LoadTable(ctx, kind)
		if err != nil {
			if errors.Is(err, storage.ErrTableNotFound) {
				s.logger.Debug("Table not found, starting empty", "table", kind)
				continue
			}
			return fmt.Errorf("failed to load %s: %w", kind, err)
		}
		if err := store.UnmarshalTable(kind, data); err != nil {
			s.logger.Error("Failed to decode table", "table", kind, "error", err)
			return err
		}
	}
	store.ClearDirty()
	s.bind(store)
	s.logger.Info("Content loaded",
		"dialogues", store.Len(asset.Dialogue),
		"events", store.Len(asset.Event),
		"quests", store.Len(asset.Quest))
	return nil
}

// Save writes every dirty table and returns the tables written. A table
// stays dirty if its write failed. Drafts are discarded once everything is
// saved.
func (s *Session) Save(ctx context.Context) ([]asset.Kind, error) {
	var saved []asset.Kind
	for _, kind := range s.Store.Dirty() {
		data, err := s.Store.MarshalTable(kind)
		if err != nil {
			return saved, err
		}
		if err := s.tables.SaveTable(ctx, kind, data); err != nil {
			s.logger.Error("Failed to save table", "table", kind, "error", err)
			return saved, fmt.Errorf("failed to save %s: %w", kind, err)
		}
		s.Store.ClearDirty(kind)
		saved = append(saved, kind)
	}
	if s.drafts != nil && len(saved) > 0 {
		if err := s.drafts.DiscardDrafts(ctx, s.ID); err != nil {
			s.logger.Warn("Failed to discard drafts", "error", err)
		}
	}
	if len(saved) > 0 {
		s.logger.Info("Content saved", "tables", len(saved))
	}
	return saved, nil
}

// Autosave copies every dirty table to the draft store. Dirty marks are
// kept, since nothing was really saved.
func (s *Session) Autosave(ctx context.Context) ([]asset.Kind, error) {
	if s.drafts == nil {
		return nil, nil
	}
	var written []asset.Kind
	for _, kind := range s.Store.Dirty() {
		data, err := s.Store.MarshalTable(kind)
		if err != nil {
			return written, err
		}
		if err := s.drafts.SaveDraft(ctx, s.ID, kind, data); err != nil {
			return written, err
		}
		written = append(written, kind)
	}
	return written, nil
}

// RecoverDrafts replaces tables with this session's drafts and marks them
// dirty so the next Save persists them.
func (s *Session) RecoverDrafts(ctx context.Context) ([]asset.Kind, error) {
	if s.drafts == nil {
		return nil, nil
	}
	kinds, err := s.drafts.ListDrafts(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	// Every draft must decode before any of them replaces a live table.
	scratch := content.NewStore()
	drafts := make([][]byte, len(kinds))
	for i, kind := range kinds {
		data, err := s.drafts.LoadDraft(ctx, s.ID, kind)
		if err != nil {
			return nil, err
		}
		if err := scratch.UnmarshalTable(kind, data); err != nil {
			s.logger.Warn("Discarding draft recovery", "table", kind, "error", err)
			return nil, err
		}
		drafts[i] = data
	}
	for i, kind := range kinds {
		if err := s.Store.UnmarshalTable(kind, drafts[i]); err != nil {
			return nil, err
		}
		s.Store.MarkDirty(kind)
	}
	if len(kinds) > 0 {
		s.logger.Info("Recovered drafts", "tables", len(kinds))
	}
	return kinds, nil
}

// LastSaved reports when kind was last written to the table store. ok is
// false when the table was never saved or the store keeps no timestamps.
func (s *Session) LastSaved(ctx context.Context, kind asset.Kind) (time.Time, bool) {
	ts, ok := s.tables.(storage.Timestamped)
	if !ok {
		return time.Time{}, false
	}
	at, err := ts.UpdatedAt(ctx, kind)
	if err != nil {
		if !errors.Is(err, storage.ErrTableNotFound) {
			s.logger.Warn("Failed to read table timestamp", "table", kind, "error", err)
		}
		return time.Time{}, false
	}
	return at, true
}

// Find lists every site referring to (kind, id).
func (s *Session) Find(kind asset.Kind, id string) []refs.Hit {
	return s.scanner.Find(kind, id)
}

// Rename renames an asset and retargets its references.
func (s *Session) Rename(kind asset.Kind, oldID, newID string) (*rename.Result, error) {
	return s.renamer.Rename(kind, oldID, newID)
}

// PlanRename previews a rename without changing anything.
func (s *Session) PlanRename(kind asset.Kind, oldID, newID string) (*rename.Result, error) {
	return s.renamer.Plan(kind, oldID, newID)
}

// Validate checks the whole store.
func (s *Session) Validate() *validate.Report {
	return s.validator.Validate()
}

// EditActions runs fn against an event's action tree. fn reports whether it
// changed anything; the event table is marked dirty only when it did.
func (s *Session) EditActions(eventID string, fn func(*ruletree.Tree) (bool, error)) error {
	ev, ok := s.Store.Events.Get(eventID)
	if !ok {
		return fmt.Errorf("%w: event %q", content.ErrNotFound, eventID)
	}
	changed, err := fn(ruletree.New(&ev.Actions))
	if err != nil {
		return err
	}
	if changed {
		s.Store.MarkDirty(asset.Event)
	}
	return nil
}

// Close releases the stores.
func (s *Session) Close() error {
	var errs []error
	if err := s.tables.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.drafts != nil {
		if err := s.drafts.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
