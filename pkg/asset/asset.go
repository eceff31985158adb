// Package asset names the kinds of content the editor tracks and the
// compound keys used to address quest stages and tasks.
package asset

import (
	"strings"
	"unicode"
)

// Kind identifies a table (or id space) in the content graph.
type Kind string

const (
	Dialogue     Kind = "dialogue"
	Event        Kind = "event"
	Cutscene     Kind = "cutscene"
	Tutorial     Kind = "tutorial"
	Milestone    Kind = "milestone"
	Item         Kind = "item"
	Room         Kind = "room"
	NPC          Kind = "npc"
	PlayerAction Kind = "player_action"
	Quest        Kind = "quest"
	Stage        Kind = "stage" // compound quest_id:stage_id
	Task         Kind = "task"  // compound quest_id:task_id
	Flow         Kind = "flow"
)

// Tables lists every persisted table in load/save order.
var Tables = []Kind{
	Dialogue, Event, Cutscene, Tutorial, Milestone,
	Item, Room, NPC, PlayerAction, Quest, Flow,
}

// Referenceable lists every kind a reference can point at.
var Referenceable = []Kind{
	Dialogue, Event, Cutscene, Tutorial, Milestone,
	Item, Room, NPC, PlayerAction, Quest, Stage, Task,
}

// Renameable reports whether ids of kind k can be renamed by the rename engine.
// Quest, stage, task and the world id spaces are find-only.
func Renameable(k Kind) bool {
	switch k {
	case Dialogue, Event, Cutscene, Tutorial, Milestone:
		return true
	}
	return false
}

// Compound reports whether ids of kind k are quest_id:child_id pairs.
func Compound(k Kind) bool {
	return k == Stage || k == Task
}

// ParseKind converts user input to a Kind. The bool is false for unknown kinds.
func ParseKind(s string) (Kind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	for _, k := range Referenceable {
		if string(k) == s {
			return k, true
		}
	}
	if s == "flow" {
		return Flow, true
	}
	return "", false
}

// CompoundKey joins a quest id with a stage or task id.
func CompoundKey(questID, childID string) string {
	return questID + ":" + childID
}

// SplitCompound splits a quest_id:child_id key. ok is false when there is
// no separator or either side is empty.
func SplitCompound(key string) (questID, childID string, ok bool) {
	questID, childID, found := strings.Cut(key, ":")
	if !found || questID == "" || childID == "" {
		return "", "", false
	}
	return questID, childID, true
}

// ValidID reports whether id can be stored and embedded in a token string:
// non-empty with no ':', ',' or whitespace.
func ValidID(id string) bool {
	if id == "" {
		return false
	}
	return strings.IndexFunc(id, func(r rune) bool {
		return r == ':' || r == ',' || unicode.IsSpace(r)
	}) < 0
}
