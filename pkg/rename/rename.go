// Package rename renames dialogue, event, cutscene, tutorial and milestone
// ids and retargets every reference to them in one step.
package rename

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/story-editor/pkg/asset"
	"github.com/jwebster45206/story-editor/pkg/content"
	"github.com/jwebster45206/story-editor/pkg/refs"
)

var (
	ErrNotFound      = errors.New("id not found")
	ErrConflict      = errors.New("id already exists")
	ErrNotRenameable = errors.New("kind is find-only")
	ErrInvalidID     = errors.New("invalid id")
)

// Result describes a planned or applied rename.
type Result struct {
	Kind  asset.Kind
	OldID string
	NewID string
	// NoOp is set when the old and new ids are equal.
	NoOp bool
	// Sites lists the references retargeted, in scan order.
	Sites []refs.Hit
	// Tables lists the tables touched, in save order.
	Tables []asset.Kind
}

// Engine renames ids in one store.
type Engine struct {
	store   *content.Store
	scanner *refs.Scanner
	logger  *slog.Logger
}

// NewEngine creates an engine. A nil logger uses slog.Default().
func NewEngine(store *content.Store, scanner *refs.Scanner, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if scanner == nil {
		scanner = refs.NewScanner(store)
	}
	return &Engine{store: store, scanner: scanner, logger: logger}
}

func (e *Engine) check(kind asset.Kind, oldID, newID string) error {
	if !asset.Renameable(kind) {
		return fmt.Errorf("%w: %s", ErrNotRenameable, kind)
	}
	if !e.store.Has(kind, oldID) {
		return fmt.Errorf("%w: %s %q", ErrNotFound, kind, oldID)
	}
	if oldID == newID {
		return nil
	}
	if e.store.Has(kind, newID) {
		return fmt.Errorf("%w: %s %q", ErrConflict, kind, newID)
	}
	if !asset.ValidID(newID) {
		return fmt.Errorf("%w: %q", ErrInvalidID, newID)
	}
	return nil
}

// sites returns the writable sites pointing at (kind, id).
func (e *Engine) sites(kind asset.Kind, id string) []refs.Site {
	var out []refs.Site
	for _, s := range e.scanner.Sites(kind, id) {
		if s.Kind == kind && s.Value == id && !s.ReadOnly() {
			out = append(out, s)
		}
	}
	return out
}

// Plan runs every precondition and reports what Rename would change without
// touching the store.
func (e *Engine) Plan(kind asset.Kind, oldID, newID string) (*Result, error) {
	if err := e.check(kind, oldID, newID); err != nil {
		return nil, err
	}
	res := &Result{Kind: kind, OldID: oldID, NewID: newID}
	if oldID == newID {
		res.NoOp = true
		return res, nil
	}
	touched := map[asset.Kind]bool{kind: true}
	for _, s := range e.sites(kind, oldID) {
		res.Sites = append(res.Sites, refs.Hit{Label: s.Label, Locator: s.Locator})
		touched[s.Locator.Table] = true
	}
	res.Tables = ordered(touched)
	return res, nil
}

// Rename moves the record to newID and rewrites every reference. When a
// precondition fails the store is left exactly as it was.
func (e *Engine) Rename(kind asset.Kind, oldID, newID string) (*Result, error) {
	if err := e.check(kind, oldID, newID); err != nil {
		e.logger.Warn("rename rejected", "kind", kind, "old_id", oldID, "new_id", newID, "error", err)
		return nil, err
	}
	res := &Result{Kind: kind, OldID: oldID, NewID: newID}
	if oldID == newID {
		res.NoOp = true
		return res, nil
	}

	// Sites are collected before the rekey so locators name the old record.
	sites := e.sites(kind, oldID)
	if err := e.store.Rekey(kind, oldID, newID); err != nil {
		return nil, err
	}

	touched := map[asset.Kind]bool{kind: true}
	for _, s := range sites {
		if !s.Rewrite(oldID, newID) {
			continue
		}
		touched[s.Locator.Table] = true
		res.Sites = append(res.Sites, refs.Hit{Label: s.Label, Locator: s.Locator})
		e.logger.Debug("rewrote reference", "kind", kind, "site", s.Locator.String())
	}
	res.Tables = ordered(touched)
	e.store.MarkDirty(res.Tables...)

	e.logger.Info("renamed asset",
		"kind", kind,
		"old_id", oldID,
		"new_id", newID,
		"sites", len(res.Sites),
		"tables", len(res.Tables))
	return res, nil
}

func ordered(set map[asset.Kind]bool) []asset.Kind {
	var out []asset.Kind
	for _, k := range asset.Tables {
		if set[k] {
			out = append(out, k)
		}
	}
	return out
}
