package editor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-editor/pkg/asset"
	"github.com/jwebster45206/story-editor/pkg/conditionals"
	"github.com/jwebster45206/story-editor/pkg/rename"
	"github.com/jwebster45206/story-editor/pkg/ruletree"
	"github.com/jwebster45206/story-editor/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	milestonesJSON = `[{"id":"ms_met_jed","name":"Met Jed","description":"Talked to Jed"}]`
	dialoguesJSON  = `[{"id":"d_jed","speaker":"Jed","text":"Well met.","trigger":"set_milestone:ms_met_jed, give_xp:10"}]`
	eventsJSON     = `[{"id":"ev_greet","description":"greet","trigger":{"type":"talk_to_npc","npc_id":"jed"},
		"conditions":[{"type":"milestone_set","milestone":"ms_met_jed"}],
		"actions":[{"type":"if_milestone","milestone":"ms_met_jed","do":[{"type":"give_xp","amount":5}],"else":[]}],
		"repeatable":false}]`
	npcsJSON = `[{"id":"jed"}]`
)

func seeded(t *testing.T) (*Session, *storage.MockStorage) {
	t.Helper()
	ctx := context.Background()
	mock := storage.NewMockStorage()
	require.NoError(t, mock.SaveTable(ctx, asset.Milestone, []byte(milestonesJSON)))
	require.NoError(t, mock.SaveTable(ctx, asset.Dialogue, []byte(dialoguesJSON)))
	require.NoError(t, mock.SaveTable(ctx, asset.Event, []byte(eventsJSON)))
	require.NoError(t, mock.SaveTable(ctx, asset.NPC, []byte(npcsJSON)))

	s, err := New(Options{Tables: mock, Drafts: mock})
	require.NoError(t, err)
	require.NoError(t, s.Load(ctx))
	return s, mock
}

func TestNewRequiresTables(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	id := uuid.New()
	s, err := New(Options{ID: id, Tables: storage.NewMockStorage()})
	require.NoError(t, err)
	assert.Equal(t, id, s.ID)
}

func TestLoadFindRenameSave(t *testing.T) {
	s, mock := seeded(t)
	ctx := context.Background()

	assert.Empty(t, s.Store.Dirty())
	assert.Len(t, s.Find(asset.Milestone, "ms_met_jed"), 3)
	assert.True(t, s.Validate().Empty(), "%v", s.Validate().Lines())

	res, err := s.Rename(asset.Milestone, "ms_met_jed", "ms_met_jedi")
	require.NoError(t, err)
	assert.Len(t, res.Sites, 3)
	assert.Empty(t, s.Find(asset.Milestone, "ms_met_jed"))

	saved, err := s.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, []asset.Kind{asset.Dialogue, asset.Event, asset.Milestone}, saved)
	assert.Empty(t, s.Store.Dirty())
	assert.Equal(t, 1, mock.SaveCount(asset.NPC), "untouched tables are not rewritten")

	data, err := mock.LoadTable(ctx, asset.Dialogue)
	require.NoError(t, err)
	assert.Contains(t, string(data), "set_milestone:ms_met_jedi, give_xp:10")

	data, err = mock.LoadTable(ctx, asset.Event)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"elseDo": []`)
	assert.NotContains(t, string(data), `"else":`)

	again, err := New(Options{Tables: mock})
	require.NoError(t, err)
	require.NoError(t, again.Load(ctx))
	assert.Len(t, again.Find(asset.Milestone, "ms_met_jedi"), 3)
}

func TestRenameRejectedLeavesSessionClean(t *testing.T) {
	s, _ := seeded(t)

	res, err := s.Rename(asset.Dialogue, "d_jed", "d_jed")
	require.NoError(t, err)
	assert.True(t, res.NoOp)

	_, err = s.Rename(asset.Milestone, "ms_met_jed", "ms met jed")
	assert.True(t, errors.Is(err, rename.ErrInvalidID))

	_, err = s.Rename(asset.NPC, "jed", "jeb")
	assert.True(t, errors.Is(err, rename.ErrNotRenameable))

	assert.Empty(t, s.Store.Dirty())
}

func TestPlanRename(t *testing.T) {
	s, _ := seeded(t)
	plan, err := s.PlanRename(asset.Milestone, "ms_met_jed", "ms_x")
	require.NoError(t, err)
	assert.Len(t, plan.Sites, 3)
	assert.True(t, s.Store.Has(asset.Milestone, "ms_met_jed"))
	assert.Empty(t, s.Store.Dirty())
}

func TestEditActionsMarksDirty(t *testing.T) {
	s, _ := seeded(t)

	err := s.EditActions("ev_greet", func(tree *ruletree.Tree) (bool, error) {
		_, err := tree.Insert(ruletree.MustParsePath("actions[0].elseDo"), 0,
			conditionals.New("show_message", "text", "Not yet."))
		return err == nil, err
	})
	require.NoError(t, err)
	assert.True(t, s.Store.IsDirty(asset.Event))

	ev, _ := s.Store.Events.Get("ev_greet")
	require.Len(t, ev.Actions[0].Branch(conditionals.BranchElseDo), 1)

	s.Store.ClearDirty()
	err = s.EditActions("ev_greet", func(tree *ruletree.Tree) (bool, error) {
		_, err := tree.Insert(ruletree.MustParsePath("actions[5].do"), 0, conditionals.New("give_xp", "amount", "1"))
		return err == nil, err
	})
	assert.True(t, errors.Is(err, ruletree.ErrPathOutOfRange))
	assert.Empty(t, s.Store.Dirty())

	assert.Error(t, s.EditActions("ev_missing", func(*ruletree.Tree) (bool, error) { return true, nil }))
}

func TestEditActionsBoundaryMoveStaysClean(t *testing.T) {
	s, _ := seeded(t)

	var moved bool
	err := s.EditActions("ev_greet", func(tree *ruletree.Tree) (bool, error) {
		var err error
		_, moved, err = tree.Move(ruletree.MustParsePath("actions[0]"), -1)
		return moved, err
	})
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Empty(t, s.Store.Dirty())
}

func TestSaveFailureKeepsDirty(t *testing.T) {
	s, mock := seeded(t)
	s.Store.MarkDirty(asset.Dialogue, asset.Room)
	mock.SetSaveError(errors.New("disk full"))

	saved, err := s.Save(context.Background())
	require.Error(t, err)
	assert.Empty(t, saved)
	assert.Equal(t, []asset.Kind{asset.Dialogue, asset.Room}, s.Store.Dirty())
}

func TestAutosaveAndRecover(t *testing.T) {
	s, mock := seeded(t)
	ctx := context.Background()

	_, err := s.Rename(asset.Milestone, "ms_met_jed", "ms_met_jedi")
	require.NoError(t, err)

	drafted, err := s.Autosave(ctx)
	require.NoError(t, err)
	assert.Equal(t, []asset.Kind{asset.Dialogue, asset.Event, asset.Milestone}, drafted)
	assert.Len(t, s.Store.Dirty(), 3, "autosave does not clear dirty marks")

	// a new session with the same id picks the drafts up over the saved tables
	recovered, err := New(Options{ID: s.ID, Tables: mock, Drafts: mock})
	require.NoError(t, err)
	require.NoError(t, recovered.Load(ctx))
	kinds, err := recovered.RecoverDrafts(ctx)
	require.NoError(t, err)
	assert.Equal(t, drafted, kinds)
	assert.True(t, recovered.Store.Has(asset.Milestone, "ms_met_jedi"))
	assert.Equal(t, drafted, recovered.Store.Dirty())

	_, err = recovered.Save(ctx)
	require.NoError(t, err)
	left, err := mock.ListDrafts(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, left, "drafts are discarded after a full save")
}

func TestRecoverDraftsIsAllOrNothing(t *testing.T) {
	s, mock := seeded(t)
	ctx := context.Background()
	require.NoError(t, mock.SaveDraft(ctx, s.ID, asset.Dialogue, []byte(`[]`)))
	require.NoError(t, mock.SaveDraft(ctx, s.ID, asset.Event, []byte(`{"broken":`)))

	kinds, err := s.RecoverDrafts(ctx)
	require.Error(t, err)
	assert.Nil(t, kinds)
	assert.Equal(t, 1, s.Store.Len(asset.Dialogue), "dialogue table untouched")
	assert.True(t, s.Store.Has(asset.Event, "ev_greet"))
	assert.Empty(t, s.Store.Dirty())
}

func TestLoadKeepsStoreOnDecodeError(t *testing.T) {
	s, mock := seeded(t)
	ctx := context.Background()
	require.NoError(t, mock.SaveTable(ctx, asset.Quest, []byte(`{"broken":`)))

	err := s.Load(ctx)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "quest"))
	assert.True(t, s.Store.Has(asset.Milestone, "ms_met_jed"))
}

func TestAutosaveWithoutDrafts(t *testing.T) {
	s, err := New(Options{Tables: storage.NewMockStorage()})
	require.NoError(t, err)
	s.Store.MarkDirty(asset.Dialogue)
	kinds, err := s.Autosave(context.Background())
	require.NoError(t, err)
	assert.Nil(t, kinds)
	assert.NoError(t, s.Close())
}

func TestLastSaved(t *testing.T) {
	s, _ := seeded(t)
	ctx := context.Background()

	at, ok := s.LastSaved(ctx, asset.Dialogue)
	assert.True(t, ok)
	assert.False(t, at.IsZero())

	_, ok = s.LastSaved(ctx, asset.Cutscene)
	assert.False(t, ok, "never saved")
}
