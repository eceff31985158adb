package rename

import (
	"bytes"
	"errors"
	"testing"

	"github.com/jwebster45206/story-editor/pkg/asset"
	"github.com/jwebster45206/story-editor/pkg/conditionals"
	"github.com/jwebster45206/story-editor/pkg/content"
	"github.com/jwebster45206/story-editor/pkg/refs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(s *content.Store) (*Engine, *refs.Scanner) {
	sc := refs.NewScanner(s)
	return NewEngine(s, sc, nil), sc
}

func scenarioStore() *content.Store {
	s := content.NewStore()
	s.Milestones.Put(&content.Milestone{ID: "ms_met_jed", Name: "Met Jed"})
	s.Dialogues.Put(&content.Dialogue{ID: "d_jed", Speaker: "Jed", Text: "Hi.", Trigger: "set_milestone:ms_met_jed, give_xp:10"})
	s.Events.Put(&content.Event{
		ID:         "ev_greet",
		Trigger:    conditionals.New("talk_to_npc", "npc_id", "jed"),
		Conditions: []*conditionals.Node{conditionals.New("milestone_set", "milestone", "ms_met_jed")},
	})
	return s
}

func fixtureStore() *content.Store {
	s := content.NewStore()
	s.Dialogues.Put(&content.Dialogue{ID: "d_a", Next: "d_b"})
	s.Dialogues.Put(&content.Dialogue{
		ID:      "d_b",
		Trigger: "play_cutscene:intro|docks, start_tutorial:tut_move, fire_event:ev_x, set_milestone:ms_a",
	})
	s.Cutscenes.Put(&content.Cutscene{ID: "intro"})
	s.Tutorials.Put(&content.Tutorial{ID: "tut_move"})
	s.Milestones.Put(&content.Milestone{ID: "ms_a"})

	scene := conditionals.New("play_cutscene", "scene_id", "intro")
	scene.Branches = map[string][]*conditionals.Node{
		conditionals.BranchOnComplete: {conditionals.New("set_milestone", "milestone", "ms_a")},
	}
	s.Events.Put(&content.Event{
		ID:      "ev_x",
		Trigger: conditionals.New("enter_room", "room_id", "docks"),
		Actions: []*conditionals.Node{scene, conditionals.New("start_dialogue", "dialogue_id", "d_b")},
	})
	s.Events.Put(&content.Event{
		ID:      "ev_y",
		Trigger: conditionals.New("cutscene_end", "scene_id", "intro"),
		Actions: []*conditionals.Node{conditionals.New("fire_event", "event_id", "ev_x")},
	})
	s.Quests = []*content.Quest{{ID: "q", Stages: []*content.Stage{{
		ID:    "s",
		Tasks: []*content.Task{{ID: "t", TutorialID: "tut_move"}},
	}}}}
	s.SetBeats("q", "s", []content.Beat{
		{Type: content.BeatDialogue, ID: "d_b"},
		{Type: content.BeatEvent, ID: "ev_x"},
		{Type: content.BeatCutscene, ID: "intro"},
		{Type: content.BeatTutorial, ID: "tut_move"},
		{Type: content.BeatMilestone, ID: "ms_a"},
	})
	return s
}

func snapshot(t *testing.T, s *content.Store) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, k := range asset.Tables {
		data, err := s.MarshalTable(k)
		require.NoError(t, err)
		buf.Write(data)
	}
	return buf.Bytes()
}

func locators(hits []refs.Hit) []string {
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.Locator.String())
	}
	return out
}

func TestRenameScenario(t *testing.T) {
	s := scenarioStore()
	eng, sc := newEngine(s)

	require.Len(t, sc.Find(asset.Milestone, "ms_met_jed"), 2)

	res, err := eng.Rename(asset.Milestone, "ms_met_jed", "ms_met_jedi")
	require.NoError(t, err)
	assert.Len(t, res.Sites, 2)
	assert.Equal(t, []asset.Kind{asset.Dialogue, asset.Event, asset.Milestone}, res.Tables)

	assert.True(t, s.Has(asset.Milestone, "ms_met_jedi"))
	assert.False(t, s.Has(asset.Milestone, "ms_met_jed"))
	m, _ := s.Milestones.Get("ms_met_jedi")
	assert.Equal(t, "ms_met_jedi", m.ID)

	d, _ := s.Dialogues.Get("d_jed")
	assert.Equal(t, "set_milestone:ms_met_jedi, give_xp:10", d.Trigger)
	ev, _ := s.Events.Get("ev_greet")
	v, _ := ev.Conditions[0].Str("milestone")
	assert.Equal(t, "ms_met_jedi", v)

	assert.Empty(t, sc.Find(asset.Milestone, "ms_met_jed"))
	assert.Len(t, sc.Find(asset.Milestone, "ms_met_jedi"), 2)
	assert.ElementsMatch(t, []asset.Kind{asset.Dialogue, asset.Event, asset.Milestone}, s.Dirty())
}

func TestRenamePreservesSites(t *testing.T) {
	cases := []struct {
		kind     asset.Kind
		old, new string
		count    int
	}{
		{asset.Dialogue, "d_b", "d_bee", 3},
		{asset.Event, "ev_x", "ev_ex", 3},
		{asset.Cutscene, "intro", "prologue", 4},
		{asset.Tutorial, "tut_move", "tut_walk", 3},
		{asset.Milestone, "ms_a", "ms_alpha", 3},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			s := fixtureStore()
			eng, sc := newEngine(s)

			before := locators(sc.Find(tc.kind, tc.old))
			require.Len(t, before, tc.count)

			_, err := eng.Rename(tc.kind, tc.old, tc.new)
			require.NoError(t, err)

			assert.Empty(t, sc.Find(tc.kind, tc.old))
			assert.Equal(t, before, locators(sc.Find(tc.kind, tc.new)))
		})
	}
}

func TestRenameKeepsSuffixes(t *testing.T) {
	s := fixtureStore()
	eng, _ := newEngine(s)
	_, err := eng.Rename(asset.Cutscene, "intro", "prologue")
	require.NoError(t, err)

	d, _ := s.Dialogues.Get("d_b")
	assert.Equal(t, "play_cutscene:prologue|docks, start_tutorial:tut_move, fire_event:ev_x, set_milestone:ms_a", d.Trigger)

	// room "docks" shares the suffix text but is a different id space
	ev, _ := s.Events.Get("ev_x")
	room, _ := ev.Trigger.Str("room_id")
	assert.Equal(t, "docks", room)
}

func TestRenameConflictIsNoOp(t *testing.T) {
	s := fixtureStore()
	eng, _ := newEngine(s)
	before := snapshot(t, s)

	_, err := eng.Rename(asset.Dialogue, "d_a", "d_b")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))

	assert.Equal(t, before, snapshot(t, s))
	assert.Empty(t, s.Dirty())
}

func TestRenamePreconditions(t *testing.T) {
	tests := []struct {
		name string
		kind asset.Kind
		old  string
		new  string
		want error
	}{
		{"missing source", asset.Dialogue, "d_zzz", "d_new", ErrNotFound},
		{"missing source renamed to itself", asset.Dialogue, "d_zzz", "d_zzz", ErrNotFound},
		{"find-only kind", asset.Quest, "q", "q2", ErrNotRenameable},
		{"find-only room", asset.Room, "docks", "pier", ErrNotRenameable},
		{"bad new id", asset.Milestone, "ms_a", "ms a", ErrInvalidID},
		{"compound new id", asset.Milestone, "ms_a", "q:ms", ErrInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := fixtureStore()
			eng, _ := newEngine(s)
			before := snapshot(t, s)

			_, err := eng.Rename(tt.kind, tt.old, tt.new)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, before, snapshot(t, s))
		})
	}
}

func TestRenameSameID(t *testing.T) {
	s := fixtureStore()
	eng, _ := newEngine(s)
	res, err := eng.Rename(asset.Milestone, "ms_a", "ms_a")
	require.NoError(t, err)
	assert.True(t, res.NoOp)
	assert.Empty(t, s.Dirty())

	_, err = eng.Plan(asset.Milestone, "ms_gone", "ms_gone")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPlanDoesNotMutate(t *testing.T) {
	s := fixtureStore()
	eng, _ := newEngine(s)
	before := snapshot(t, s)

	plan, err := eng.Plan(asset.Tutorial, "tut_move", "tut_walk")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"flow/q/s[3]",
		"dialogue/d_b/trigger[1]",
		"quest/q/stages[0].tasks[0].tutorial_id",
	}, locators(plan.Sites))
	assert.Equal(t, []asset.Kind{asset.Dialogue, asset.Tutorial, asset.Quest, asset.Flow}, plan.Tables)

	assert.Equal(t, before, snapshot(t, s))

	_, err = eng.Plan(asset.Tutorial, "tut_move", "tut_move")
	require.NoError(t, err)
	_, err = eng.Plan(asset.Tutorial, "nope", "tut_walk")
	assert.True(t, errors.Is(err, ErrNotFound))
}
