package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-editor/pkg/asset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStorage_Tables(t *testing.T) {
	m := NewMockStorage()
	ctx := context.Background()

	_, err := m.LoadTable(ctx, asset.Dialogue)
	assert.True(t, errors.Is(err, ErrTableNotFound))

	data := []byte(`[{"id":"d1"}]`)
	require.NoError(t, m.SaveTable(ctx, asset.Dialogue, data))
	data[0] = 'X'

	got, err := m.LoadTable(ctx, asset.Dialogue)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"d1"}]`, string(got))
	assert.Equal(t, 1, m.SaveCount(asset.Dialogue))

	at, err := m.UpdatedAt(ctx, asset.Dialogue)
	require.NoError(t, err)
	assert.False(t, at.IsZero())
	_, err = m.UpdatedAt(ctx, asset.Event)
	assert.True(t, errors.Is(err, ErrTableNotFound))

	m.SetSaveError(errors.New("disk full"))
	assert.Error(t, m.SaveTable(ctx, asset.Dialogue, data))
	assert.Equal(t, 1, m.SaveCount(asset.Dialogue))
}

func TestMockStorage_Drafts(t *testing.T) {
	m := NewMockStorage()
	ctx := context.Background()
	session := uuid.New()

	require.NoError(t, m.SaveDraft(ctx, session, asset.Flow, []byte(`{}`)))
	require.NoError(t, m.SaveDraft(ctx, session, asset.Event, []byte(`[]`)))

	kinds, err := m.ListDrafts(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, []asset.Kind{asset.Event, asset.Flow}, kinds)

	other, err := m.ListDrafts(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, m.DiscardDrafts(ctx, session))
	_, err = m.LoadDraft(ctx, session, asset.Flow)
	assert.True(t, errors.Is(err, ErrTableNotFound))
}

func TestMockStorage_Ping(t *testing.T) {
	m := NewMockStorage()
	assert.NoError(t, m.Ping(context.Background()))
	m.SetPingError(errors.New("down"))
	assert.Error(t, m.Ping(context.Background()))
}
