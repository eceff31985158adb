package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-editor/pkg/asset"
)

// MockStorage is an in-memory TableStore and DraftStore for tests
type MockStorage struct {
	mu        sync.RWMutex
	tables    map[asset.Kind][]byte
	drafts    map[uuid.UUID]map[asset.Kind][]byte
	saves     map[asset.Kind]int
	savedAt   map[asset.Kind]time.Time
	pingError error
	saveError error
}

// Ensure MockStorage implements both interfaces
var (
	_ TableStore  = (*MockStorage)(nil)
	_ DraftStore  = (*MockStorage)(nil)
	_ Timestamped = (*MockStorage)(nil)
)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		tables:  make(map[asset.Kind][]byte),
		drafts:  make(map[uuid.UUID]map[asset.Kind][]byte),
		saves:   make(map[asset.Kind]int),
		savedAt: make(map[asset.Kind]time.Time),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError makes every later SaveTable and SaveDraft fail
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SaveCount returns how many times kind was saved
func (m *MockStorage) SaveCount(kind asset.Kind) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves[kind]
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// LoadTable returns a copy of the stored table
func (m *MockStorage) LoadTable(ctx context.Context, kind asset.Kind) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.tables[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, kind)
	}
	return append([]byte(nil), data...), nil
}

// SaveTable stores a copy of data
func (m *MockStorage) SaveTable(ctx context.Context, kind asset.Kind, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.tables[kind] = append([]byte(nil), data...)
	m.saves[kind]++
	m.savedAt[kind] = time.Now()
	return nil
}

// UpdatedAt returns when kind was last saved
func (m *MockStorage) UpdatedAt(ctx context.Context, kind asset.Kind) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	at, ok := m.savedAt[kind]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s", ErrTableNotFound, kind)
	}
	return at, nil
}

// SaveDraft stores a copy of data under the session
func (m *MockStorage) SaveDraft(ctx context.Context, session uuid.UUID, kind asset.Kind, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	if m.drafts[session] == nil {
		m.drafts[session] = make(map[asset.Kind][]byte)
	}
	m.drafts[session][kind] = append([]byte(nil), data...)
	return nil
}

// LoadDraft returns a copy of a session draft
func (m *MockStorage) LoadDraft(ctx context.Context, session uuid.UUID, kind asset.Kind) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.drafts[session][kind]
	if !ok {
		return nil, fmt.Errorf("%w: draft %s", ErrTableNotFound, kind)
	}
	return append([]byte(nil), data...), nil
}

// ListDrafts returns the drafted tables of a session in save order
func (m *MockStorage) ListDrafts(ctx context.Context, session uuid.UUID) ([]asset.Kind, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []asset.Kind
	for _, k := range asset.Tables {
		if _, ok := m.drafts[session][k]; ok {
			out = append(out, k)
		}
	}
	return out, nil
}

// DiscardDrafts drops every draft of a session
func (m *MockStorage) DiscardDrafts(ctx context.Context, session uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, session)
	return nil
}
