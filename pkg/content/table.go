package content

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jwebster45206/story-editor/pkg/asset"
	"golang.org/x/text/cases"
)

// Table maps ids to records of one kind.
type Table[T Record] struct {
	kind asset.Kind
	rows map[string]T
}

// NewTable creates an empty table.
func NewTable[T Record](kind asset.Kind) *Table[T] {
	return &Table[T]{kind: kind, rows: make(map[string]T)}
}

// Kind returns the kind of records held.
func (t *Table[T]) Kind() asset.Kind { return t.kind }

// Len returns the number of records.
func (t *Table[T]) Len() int { return len(t.rows) }

// Get returns the record with the given id.
func (t *Table[T]) Get(id string) (T, bool) {
	r, ok := t.rows[id]
	return r, ok
}

// Has reports whether id exists. Ids are case-sensitive.
func (t *Table[T]) Has(id string) bool {
	_, ok := t.rows[id]
	return ok
}

// Put inserts or replaces a record under its own id.
func (t *Table[T]) Put(r T) {
	t.rows[r.RecordID()] = r
}

// Remove deletes a record. It reports whether it existed.
func (t *Table[T]) Remove(id string) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	return true
}

// IDs returns every id sorted case-insensitively, ties broken by the exact
// spelling so the order is fully deterministic.
func (t *Table[T]) IDs() []string {
	ids := make([]string, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	SortIDs(ids)
	return ids
}

// All returns the records in IDs order.
func (t *Table[T]) All() []T {
	ids := t.IDs()
	out := make([]T, len(ids))
	for i, id := range ids {
		out[i] = t.rows[id]
	}
	return out
}

func (t *Table[T]) getAny(id string) (Record, bool) {
	r, ok := t.rows[id]
	return r, ok
}

func (t *Table[T]) putAny(r Record) error {
	rec, ok := r.(T)
	if !ok {
		return fmt.Errorf("%w: %T does not belong in the %s table", ErrUnknownKind, r, t.kind)
	}
	t.Put(rec)
	return nil
}

// rekey moves a record to a new id and updates its embedded id.
func (t *Table[T]) rekey(oldID, newID string) error {
	r, ok := t.rows[oldID]
	if !ok {
		return fmt.Errorf("%w: %s %q", ErrNotFound, t.kind, oldID)
	}
	if _, taken := t.rows[newID]; taken {
		return fmt.Errorf("%w: %s %q", ErrExists, t.kind, newID)
	}
	delete(t.rows, oldID)
	r.SetRecordID(newID)
	t.rows[newID] = r
	return nil
}

func (t *Table[T]) marshal() ([]byte, error) {
	return json.MarshalIndent(t.All(), "", "  ")
}

func (t *Table[T]) unmarshal(data []byte) error {
	var list []T
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("failed to decode %s table: %w", t.kind, err)
	}
	rows := make(map[string]T, len(list))
	for _, r := range list {
		if any(r) == nil {
			continue
		}
		id := r.RecordID()
		if _, dup := rows[id]; dup {
			return fmt.Errorf("%w: duplicate %s id %q", ErrExists, t.kind, id)
		}
		rows[id] = r
	}
	t.rows = rows
	return nil
}

// SortIDs sorts ids in place, case-insensitively.
func SortIDs(ids []string) {
	fold := cases.Fold()
	keys := make(map[string]string, len(ids))
	for _, id := range ids {
		keys[id] = fold.String(id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ki, kj := keys[ids[i]], keys[ids[j]]
		if ki != kj {
			return ki < kj
		}
		return ids[i] < ids[j]
	})
}

type table interface {
	Kind() asset.Kind
	Len() int
	Has(id string) bool
	IDs() []string
	Remove(id string) bool
	getAny(id string) (Record, bool)
	putAny(r Record) error
	rekey(oldID, newID string) error
	marshal() ([]byte, error)
	unmarshal(data []byte) error
}
