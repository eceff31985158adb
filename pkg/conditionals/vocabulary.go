package conditionals

import (
	"github.com/jwebster45206/story-editor/pkg/asset"
	"github.com/jwebster45206/story-editor/pkg/tokens"
)

// Role says which vocabulary a node is drawn from.
type Role int

const (
	RoleTrigger Role = iota
	RoleCondition
	RoleAction
)

func (r Role) String() string {
	switch r {
	case RoleTrigger:
		return "trigger"
	case RoleCondition:
		return "condition"
	default:
		return "action"
	}
}

// FieldSpec describes one attribute of a node type.
// Ref is the kind the value points at ("" for plain data). Pair names the
// field holding the quest id for compound stage/task references.
type FieldSpec struct {
	Name     string
	Ref      asset.Kind
	Required bool
	Pair     string
}

// Spec is the fixed field table of one node type.
type Spec struct {
	Type     string
	Fields   []FieldSpec
	Branches []string
}

func ref(name string, k asset.Kind) FieldSpec {
	return FieldSpec{Name: name, Ref: k, Required: true}
}

func req(name string) FieldSpec {
	return FieldSpec{Name: name, Required: true}
}

func opt(name string) FieldSpec {
	return FieldSpec{Name: name}
}

func questChild(name string, k asset.Kind) FieldSpec {
	return FieldSpec{Name: name, Ref: k, Required: true, Pair: "quest_id"}
}

var (
	quest = ref("quest_id", asset.Quest)
	room  = ref("room_id", asset.Room)
	item  = ref("item_id", asset.Item)
	npc   = ref("npc_id", asset.NPC)
	stage = questChild("stage_id", asset.Stage)
	task  = questChild("task_id", asset.Task)
	scene = ref("scene_id", asset.Cutscene)
	mile  = ref("milestone", asset.Milestone)

	ifBranches  = []string{BranchDo, BranchElseDo}
	endBranches = []string{BranchOnComplete}
)

// Triggers is the closed trigger vocabulary.
var Triggers = []Spec{
	{Type: "enter_room", Fields: []FieldSpec{room}},
	{Type: "exit_room", Fields: []FieldSpec{room}},
	{Type: "talk_to_npc", Fields: []FieldSpec{npc}},
	{Type: "dialogue_end", Fields: []FieldSpec{ref("dialogue_id", asset.Dialogue)}},
	{Type: "item_acquired", Fields: []FieldSpec{item}},
	{Type: "quest_started", Fields: []FieldSpec{quest}},
	{Type: "quest_completed", Fields: []FieldSpec{quest}},
	{Type: "stage_completed", Fields: []FieldSpec{quest, stage}},
	{Type: "task_completed", Fields: []FieldSpec{quest, task}},
	{Type: "player_action", Fields: []FieldSpec{ref("action", asset.PlayerAction)}},
	{Type: "cutscene_end", Fields: []FieldSpec{scene}},
}

// Conditions is the closed condition vocabulary. Conditions never nest.
var Conditions = []Spec{
	{Type: "milestone_set", Fields: []FieldSpec{mile}},
	{Type: "milestone_not_set", Fields: []FieldSpec{mile}},
	{Type: "has_item", Fields: []FieldSpec{item, opt("count")}},
	{Type: "lacks_item", Fields: []FieldSpec{item}},
	{Type: "in_room", Fields: []FieldSpec{room}},
	{Type: "quest_active", Fields: []FieldSpec{quest}},
	{Type: "quest_completed", Fields: []FieldSpec{quest}},
	{Type: "quest_not_started", Fields: []FieldSpec{quest}},
	{Type: "stage_active", Fields: []FieldSpec{quest, stage}},
	{Type: "task_done", Fields: []FieldSpec{quest, task}},
	{Type: "task_not_done", Fields: []FieldSpec{quest, task}},
	{Type: "event_fired", Fields: []FieldSpec{ref("event_id", asset.Event)}},
	{Type: "dialogue_seen", Fields: []FieldSpec{ref("dialogue_id", asset.Dialogue)}},
	{Type: "npc_present", Fields: []FieldSpec{npc}},
	{Type: "tutorial_seen", Fields: []FieldSpec{ref("tutorial_id", asset.Tutorial)}},
	{Type: "flag_set", Fields: []FieldSpec{req("flag")}},
}

// Actions is the closed action vocabulary.
var Actions = []Spec{
	{Type: "set_milestone", Fields: []FieldSpec{mile}},
	{Type: "clear_milestone", Fields: []FieldSpec{mile}},
	{Type: "show_milestone_toast", Fields: []FieldSpec{mile}},
	{Type: "give_item", Fields: []FieldSpec{item, opt("count")}},
	{Type: "take_item", Fields: []FieldSpec{item, opt("count")}},
	{Type: "give_xp", Fields: []FieldSpec{req("amount")}},
	{Type: "start_quest", Fields: []FieldSpec{quest}},
	{Type: "complete_quest", Fields: []FieldSpec{quest}},
	{Type: "fail_quest", Fields: []FieldSpec{quest}},
	{Type: "track_quest", Fields: []FieldSpec{quest}},
	{Type: "untrack_quest"},
	{Type: "set_quest_stage", Fields: []FieldSpec{quest, stage}},
	{Type: "set_quest_task_done", Fields: []FieldSpec{quest, task}},
	{Type: "start_dialogue", Fields: []FieldSpec{ref("dialogue_id", asset.Dialogue)}},
	{Type: "show_message", Fields: []FieldSpec{req("text")}},
	{Type: "teleport_player", Fields: []FieldSpec{room}},
	{Type: "spawn_npc", Fields: []FieldSpec{npc, room}},
	{Type: "despawn_npc", Fields: []FieldSpec{npc}},
	{Type: "move_npc", Fields: []FieldSpec{npc, room}},
	{Type: "unlock_room", Fields: []FieldSpec{room}},
	{Type: "lock_room", Fields: []FieldSpec{room}},
	{Type: "fire_event", Fields: []FieldSpec{ref("event_id", asset.Event)}},
	{Type: "set_flag", Fields: []FieldSpec{req("flag"), opt("value")}},
	{Type: "clear_flag", Fields: []FieldSpec{req("flag")}},
	{Type: "wait", Fields: []FieldSpec{req("seconds")}},
	{Type: "play_sound", Fields: []FieldSpec{req("sound")}},
	{Type: "enable_player_action", Fields: []FieldSpec{ref("action", asset.PlayerAction)}},
	{Type: "disable_player_action", Fields: []FieldSpec{ref("action", asset.PlayerAction)}},
	{Type: "play_cutscene", Fields: []FieldSpec{scene}, Branches: endBranches},
	{Type: "play_cinematic", Fields: []FieldSpec{scene}, Branches: endBranches},
	{Type: "start_tutorial", Fields: []FieldSpec{ref("tutorial_id", asset.Tutorial)}, Branches: endBranches},
	{Type: "if_milestone", Fields: []FieldSpec{mile}, Branches: ifBranches},
	{Type: "if_has_item", Fields: []FieldSpec{item, opt("count")}, Branches: ifBranches},
	{Type: "if_quest_state", Fields: []FieldSpec{quest, req("state")}, Branches: ifBranches},
}

var (
	triggerIndex   = index(Triggers)
	conditionIndex = index(Conditions)
	actionIndex    = index(Actions)
)

func index(specs []Spec) map[string]*Spec {
	m := make(map[string]*Spec, len(specs))
	for i := range specs {
		m[specs[i].Type] = &specs[i]
	}
	return m
}

// Lookup returns the field table for typ in the given vocabulary.
func Lookup(role Role, typ string) (*Spec, bool) {
	var s *Spec
	switch role {
	case RoleTrigger:
		s = triggerIndex[typ]
	case RoleCondition:
		s = conditionIndex[typ]
	default:
		s = actionIndex[typ]
	}
	return s, s != nil
}

// BranchesFor returns the branch names an action type may carry.
func BranchesFor(typ string) []string {
	if s, ok := actionIndex[typ]; ok {
		return s.Branches
	}
	return nil
}

// TokenField names the dialogue field a token lives in.
type TokenField string

const (
	ConditionField TokenField = "condition"
	TriggerField   TokenField = "trigger"
)

// TokenSpec describes one dialogue token type. Ref is "" for plain values.
type TokenSpec struct {
	Type    string
	Ref     asset.Kind
	Mode    tokens.Mode
	ZeroArg bool
}

// NeedsValue reports whether the token must carry a value.
func (t TokenSpec) NeedsValue() bool {
	return !t.ZeroArg
}

// ConditionTokens is the vocabulary of the dialogue `condition` field.
var ConditionTokens = []TokenSpec{
	{Type: "milestone", Ref: asset.Milestone},
	{Type: "not_milestone", Ref: asset.Milestone},
	{Type: "has_item", Ref: asset.Item, Mode: tokens.LeadingSegment},
	{Type: "lacks_item", Ref: asset.Item, Mode: tokens.LeadingSegment},
	{Type: "in_room", Ref: asset.Room},
	{Type: "quest_active", Ref: asset.Quest},
	{Type: "quest_done", Ref: asset.Quest},
	{Type: "stage", Ref: asset.Stage},
	{Type: "task_done", Ref: asset.Task},
	{Type: "task_not_done", Ref: asset.Task},
	{Type: "event_fired", Ref: asset.Event},
	{Type: "seen_dialogue", Ref: asset.Dialogue},
	{Type: "npc_present", Ref: asset.NPC},
	{Type: "tutorial_seen", Ref: asset.Tutorial, Mode: tokens.FirstPipeSegment},
	{Type: "flag"},
	{Type: "min_level"},
}

// TriggerTokens is the vocabulary of the dialogue `trigger` field.
var TriggerTokens = []TokenSpec{
	{Type: "set_milestone", Ref: asset.Milestone},
	{Type: "clear_milestone", Ref: asset.Milestone},
	{Type: "give_item", Ref: asset.Item, Mode: tokens.LeadingSegment},
	{Type: "take_item", Ref: asset.Item, Mode: tokens.LeadingSegment},
	{Type: "give_xp"},
	{Type: "start_quest", Ref: asset.Quest},
	{Type: "complete_quest", Ref: asset.Quest},
	{Type: "track_quest", Ref: asset.Quest},
	{Type: "untrack_quest", ZeroArg: true},
	{Type: "set_stage", Ref: asset.Stage},
	{Type: "complete_task", Ref: asset.Task},
	{Type: "play_cutscene", Ref: asset.Cutscene, Mode: tokens.FirstPipeSegment},
	{Type: "start_tutorial", Ref: asset.Tutorial, Mode: tokens.FirstPipeSegment},
	{Type: "fire_event", Ref: asset.Event},
	{Type: "start_dialogue", Ref: asset.Dialogue},
	{Type: "teleport", Ref: asset.Room},
	{Type: "unlock_action", Ref: asset.PlayerAction},
	{Type: "set_flag"},
	{Type: "end_dialogue", ZeroArg: true},
	{Type: "open_journal", ZeroArg: true},
}

var (
	conditionTokenIndex = tokenIndex(ConditionTokens)
	triggerTokenIndex   = tokenIndex(TriggerTokens)
)

func tokenIndex(specs []TokenSpec) map[string]*TokenSpec {
	m := make(map[string]*TokenSpec, len(specs))
	for i := range specs {
		m[specs[i].Type] = &specs[i]
	}
	return m
}

// LookupToken finds the TokenSpec for a token type in the given dialogue field.
func LookupToken(field TokenField, typ string) (*TokenSpec, bool) {
	var s *TokenSpec
	if field == ConditionField {
		s = conditionTokenIndex[typ]
	} else {
		s = triggerTokenIndex[typ]
	}
	return s, s != nil
}
