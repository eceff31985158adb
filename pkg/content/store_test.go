package content

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/jwebster45206/story-editor/pkg/asset"
	"github.com/jwebster45206/story-editor/pkg/conditionals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStore() *Store {
	s := NewStore()
	s.Dialogues.Put(&Dialogue{ID: "d_intro", Speaker: "Jed", Text: "Hello.", Next: "d_two"})
	s.Dialogues.Put(&Dialogue{ID: "d_two", Speaker: "Jed", Text: "Bye."})
	s.Milestones.Put(&Milestone{ID: "ms_met_jed", Name: "Met Jed"})
	s.Quests = []*Quest{{
		ID:    "q_main",
		Title: "Main",
		Stages: []*Stage{
			{ID: "s1", Tasks: []*Task{{ID: "t1"}, {ID: "t2"}}},
			{ID: "s2", Tasks: []*Task{{ID: "t3"}}},
		},
	}}
	return s
}

func TestTableIDsSortedCaseInsensitive(t *testing.T) {
	tbl := NewTable[*Entry](asset.Item)
	for _, id := range []string{"b", "A", "a", "C"} {
		tbl.Put(&Entry{ID: id})
	}
	assert.Equal(t, []string{"A", "a", "b", "C"}, tbl.IDs())
	assert.Equal(t, 4, tbl.Len())
	assert.False(t, tbl.Has("c"), "ids are case-sensitive")
}

func TestStoreHas(t *testing.T) {
	s := sampleStore()

	tests := []struct {
		kind asset.Kind
		id   string
		want bool
	}{
		{asset.Dialogue, "d_intro", true},
		{asset.Dialogue, "D_INTRO", false},
		{asset.Milestone, "ms_met_jed", true},
		{asset.Quest, "q_main", true},
		{asset.Quest, "q_side", false},
		{asset.Stage, "q_main:s2", true},
		{asset.Stage, "q_main:t1", false},
		{asset.Task, "q_main:t3", true},
		{asset.Task, "q_other:t3", false},
		{asset.Task, "t3", false},
		{asset.Flow, "anything", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Has(tt.kind, tt.id), "%s %s", tt.kind, tt.id)
	}
}

func TestStoreAllIDs(t *testing.T) {
	s := sampleStore()
	assert.Equal(t, []string{"d_intro", "d_two"}, s.AllIDs(asset.Dialogue))
	assert.Equal(t, []string{"q_main"}, s.AllIDs(asset.Quest))
	assert.Equal(t, []string{"q_main:s1", "q_main:s2"}, s.AllIDs(asset.Stage))
	assert.Equal(t, []string{"q_main:t1", "q_main:t2", "q_main:t3"}, s.AllIDs(asset.Task))
	assert.Nil(t, s.AllIDs(asset.Flow))
}

func TestStoreGetPutRemove(t *testing.T) {
	s := sampleStore()

	require.NoError(t, s.Put(asset.Room, &Entry{ID: "docks"}))
	assert.True(t, s.Has(asset.Room, "docks"))

	err := s.Put(asset.Room, &Milestone{ID: "wrong"})
	assert.True(t, errors.Is(err, ErrUnknownKind))

	err = s.Put(asset.Stage, &Entry{ID: "x"})
	assert.True(t, errors.Is(err, ErrUnknownKind))

	r, ok := s.Get(asset.Quest, "q_main")
	require.True(t, ok)
	assert.Equal(t, "Main", r.(*Quest).Title)

	require.NoError(t, s.Put(asset.Quest, &Quest{ID: "q_main", Title: "Renamed"}))
	require.Len(t, s.Quests, 1)
	assert.Equal(t, "Renamed", s.Quests[0].Title)

	assert.True(t, s.Remove(asset.Room, "docks"))
	assert.False(t, s.Remove(asset.Room, "docks"))
	assert.True(t, s.Remove(asset.Quest, "q_main"))
	assert.Empty(t, s.Quests)
}

func TestStorePutRemoveMarksDirty(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.Put(asset.Milestone, &Milestone{ID: "ms_a"}))
	assert.Equal(t, []asset.Kind{asset.Milestone}, s.Dirty())

	s.ClearDirty()
	assert.True(t, s.Remove(asset.Milestone, "ms_a"))
	assert.Equal(t, []asset.Kind{asset.Milestone}, s.Dirty())

	s.ClearDirty()
	assert.False(t, s.Remove(asset.Milestone, "ms_a"))
	assert.Empty(t, s.Dirty(), "nothing removed")

	assert.Error(t, s.Put(asset.Room, &Milestone{ID: "wrong"}))
	assert.Empty(t, s.Dirty(), "rejected put")

	s.PutQuest(&Quest{ID: "q"})
	assert.Equal(t, []asset.Kind{asset.Quest}, s.Dirty())

	s.ClearDirty()
	require.NoError(t, s.Put(asset.Quest, &Quest{ID: "q", Title: "Q"}))
	assert.Equal(t, []asset.Kind{asset.Quest}, s.Dirty())

	s.ClearDirty()
	assert.True(t, s.Remove(asset.Quest, "q"))
	assert.Equal(t, []asset.Kind{asset.Quest}, s.Dirty())
}

func TestQuestTableDropsNullEntries(t *testing.T) {
	s := NewStore()
	data := `[null, {"id":"q1","stages":[null,{"id":"s1","tasks":[null,{"id":"t1"}]}]}]`
	require.NoError(t, s.UnmarshalTable(asset.Quest, []byte(data)))

	require.Len(t, s.Quests, 1)
	q := s.Quests[0]
	require.Len(t, q.Stages, 1)
	require.Len(t, q.Stages[0].Tasks, 1)
	assert.True(t, s.Has(asset.Stage, "q1:s1"))
	assert.True(t, s.Has(asset.Task, "q1:t1"))
	assert.False(t, s.Has(asset.Task, "q1:t9"))

	// Stages built in memory may still hold nils.
	q.Stages = append([]*Stage{nil}, q.Stages...)
	q.Stages[1].Tasks = append(q.Stages[1].Tasks, nil)
	_, ok := q.Stage("s1")
	assert.True(t, ok)
	_, _, ok = q.Task("t1")
	assert.True(t, ok)
	_, _, ok = q.Task("missing")
	assert.False(t, ok)
}

func TestStoreRekey(t *testing.T) {
	s := sampleStore()

	require.NoError(t, s.Rekey(asset.Milestone, "ms_met_jed", "ms_met_jedi"))
	m, ok := s.Milestones.Get("ms_met_jedi")
	require.True(t, ok)
	assert.Equal(t, "ms_met_jedi", m.ID)
	assert.False(t, s.Has(asset.Milestone, "ms_met_jed"))
	assert.Equal(t, []asset.Kind{asset.Milestone}, s.Dirty())

	err := s.Rekey(asset.Dialogue, "d_intro", "d_two")
	assert.True(t, errors.Is(err, ErrExists))
	assert.True(t, s.Has(asset.Dialogue, "d_intro"))

	err = s.Rekey(asset.Dialogue, "missing", "d_new")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = s.Rekey(asset.Quest, "q_main", "q_new")
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestDirtyTracking(t *testing.T) {
	s := NewStore()
	assert.Empty(t, s.Dirty())

	s.MarkDirty(asset.Flow, asset.Dialogue, asset.Quest)
	assert.Equal(t, []asset.Kind{asset.Dialogue, asset.Quest, asset.Flow}, s.Dirty())
	assert.True(t, s.IsDirty(asset.Quest))

	s.ClearDirty(asset.Quest)
	assert.False(t, s.IsDirty(asset.Quest))
	assert.Len(t, s.Dirty(), 2)

	s.ClearDirty()
	assert.Empty(t, s.Dirty())
}

func TestForEachQuestStageTask(t *testing.T) {
	s := sampleStore()
	var keys []string
	s.ForEachQuestStageTask(func(r ChildRef) {
		keys = append(keys, string(r.Kind)+" "+r.Key())
	})
	assert.Equal(t, []string{
		"stage q_main:s1",
		"task q_main:t1",
		"task q_main:t2",
		"stage q_main:s2",
		"task q_main:t3",
	}, keys)
}

func TestBeatOps(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.InsertBeat("q", "s", 0, Beat{Type: BeatDialogue, ID: "a"}))
	require.NoError(t, s.InsertBeat("q", "s", 1, Beat{Type: BeatNote, Text: "n"}))
	require.NoError(t, s.InsertBeat("q", "s", 0, Beat{Type: BeatEvent, ID: "e"}))
	assert.True(t, s.IsDirty(asset.Flow))

	beats := s.Beats("q", "s")
	require.Len(t, beats, 3)
	assert.Equal(t, "e", beats[0].ID)
	assert.Equal(t, "a", beats[1].ID)

	assert.Error(t, s.InsertBeat("q", "s", 5, Beat{Type: BeatNote}))

	idx, moved, err := s.MoveBeat("q", "s", 0, 1)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "a", s.Beats("q", "s")[0].ID)

	idx, moved, err = s.MoveBeat("q", "s", 2, 1)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 2, idx)

	require.NoError(t, s.RemoveBeat("q", "s", 0))
	assert.Equal(t, "e", s.Beats("q", "s")[0].ID)
	assert.Error(t, s.RemoveBeat("q", "s", 9))
}

func TestForEachBeatAliasesStorage(t *testing.T) {
	s := NewStore()
	s.SetBeats("q_b", "s1", []Beat{{Type: BeatDialogue, ID: "x"}})
	s.SetBeats("q_a", "s1", []Beat{{Type: BeatEvent, ID: "y"}})

	var order []string
	s.ForEachBeat(func(q, st string, i int, b *Beat) {
		order = append(order, q)
		b.ID += "!"
	})
	assert.Equal(t, []string{"q_a", "q_b"}, order)
	assert.Equal(t, "x!", s.Beats("q_b", "s1")[0].ID)
}

func TestTableRoundTrip(t *testing.T) {
	raw := `[
  {"id": "ev_b", "description": "b", "trigger": {"type": "enter_room", "room_id": "docks"},
   "conditions": [], "actions": [{"type": "play_cutscene", "cutscene_id": "intro", "onComplete": []}], "repeatable": false},
  {"id": "ev_a", "description": "a", "trigger": {"type": "talk_to_npc", "npc_id": "jed"},
   "conditions": [{"type": "milestone_set", "milestone": "ms_x"}], "actions": [], "repeatable": true}
]`
	s := NewStore()
	require.NoError(t, s.UnmarshalTable(asset.Event, []byte(raw)))
	assert.Equal(t, []string{"ev_a", "ev_b"}, s.Events.IDs())

	ev, ok := s.Events.Get("ev_b")
	require.True(t, ok)
	require.Len(t, ev.Actions, 1)
	scene, _ := ev.Actions[0].Str("scene_id")
	assert.Equal(t, "intro", scene)

	out, err := s.MarshalTable(asset.Event)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "ev_a", decoded[0]["id"])
	action := decoded[1]["actions"].([]any)[0].(map[string]any)
	assert.Equal(t, "intro", action["scene_id"])
	assert.Contains(t, action, conditionals.BranchOnComplete)
	assert.NotContains(t, action, "cutscene_id")

	again := NewStore()
	require.NoError(t, again.UnmarshalTable(asset.Event, out))
	out2, err := again.MarshalTable(asset.Event)
	require.NoError(t, err)
	assert.JSONEq(t, string(out), string(out2))
}

func TestUnmarshalTableErrors(t *testing.T) {
	s := NewStore()
	err := s.UnmarshalTable(asset.Dialogue, []byte(`[{"id":"a"},{"id":"a"}]`))
	assert.True(t, errors.Is(err, ErrExists))

	assert.Error(t, s.UnmarshalTable(asset.Milestone, []byte(`{"not":"a list"}`)))

	err = s.UnmarshalTable(asset.Stage, []byte(`[]`))
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestEmptyEventListsMarshalAsArrays(t *testing.T) {
	data, err := json.Marshal(&Event{ID: "ev", Trigger: conditionals.New("enter_room", "room_id", "r")})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"conditions":[]`)
	assert.Contains(t, string(data), `"actions":[]`)
}

func TestQuestAndFlowTables(t *testing.T) {
	s := sampleStore()
	s.SetBeats("q_main", "s1", []Beat{{Type: BeatMilestone, ID: "ms_met_jed", Label: "Met"}})

	quests, err := s.MarshalTable(asset.Quest)
	require.NoError(t, err)
	flow, err := s.MarshalTable(asset.Flow)
	require.NoError(t, err)

	other := NewStore()
	require.NoError(t, other.UnmarshalTable(asset.Quest, quests))
	require.NoError(t, other.UnmarshalTable(asset.Flow, flow))

	assert.True(t, other.Has(asset.Task, "q_main:t2"))
	assert.Equal(t, "ms_met_jed", other.Beats("q_main", "s1")[0].ID)
}
