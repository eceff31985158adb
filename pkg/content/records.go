// Package content holds the editing session's in-memory content graph: one
// keyed table per asset kind, the quest list and the quest flow table.
package content

import (
	"encoding/json"

	"github.com/jwebster45206/story-editor/pkg/conditionals"
)

// Record is anything stored in a keyed table.
type Record interface {
	RecordID() string
	SetRecordID(id string)
}

// Dialogue is one spoken line. Condition and Trigger hold token strings.
type Dialogue struct {
	ID        string `json:"id"`
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	Next      string `json:"next,omitempty"`
	Condition string `json:"condition,omitempty"`
	Trigger   string `json:"trigger,omitempty"`
	Emote     string `json:"emote,omitempty"`
}

// Event is a scripted rule: one trigger, AND-ed conditions, an action forest.
type Event struct {
	ID          string               `json:"id"`
	Description string               `json:"description"`
	Trigger     *conditionals.Node   `json:"trigger"`
	Conditions  []*conditionals.Node `json:"conditions"`
	Actions     []*conditionals.Node `json:"actions"`
	Repeatable  bool                 `json:"repeatable"`
	OnMessage   string               `json:"on_message,omitempty"`
	OffMessage  string               `json:"off_message,omitempty"`
}

// MarshalJSON writes empty lists as [] rather than null.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := Alias(e)
	if a.Conditions == nil {
		a.Conditions = []*conditionals.Node{}
	}
	if a.Actions == nil {
		a.Actions = []*conditionals.Node{}
	}
	return json.Marshal(a)
}

// CutsceneStep is one line or beat of a cutscene.
type CutsceneStep struct {
	Type            string   `json:"type"`
	Speaker         string   `json:"speaker,omitempty"`
	Emote           string   `json:"emote,omitempty"`
	Text            string   `json:"text"`
	DurationSeconds *float64 `json:"durationSeconds,omitempty"`
}

// Cutscene is a scripted, non-interactive sequence.
type Cutscene struct {
	ID    string         `json:"id"`
	Title string         `json:"title"`
	Steps []CutsceneStep `json:"steps"`
}

// TutorialStep is one hint in a tutorial script.
type TutorialStep struct {
	Key     string `json:"key,omitempty"`
	Context string `json:"context,omitempty"`
	Message string `json:"message"`
	DelayMS *int   `json:"delay_ms,omitempty"`
}

// Tutorial is an ordered tutorial script.
type Tutorial struct {
	ID    string         `json:"id"`
	Steps []TutorialStep `json:"steps"`
}

// Milestone is a persistent story flag with display text.
type Milestone struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Toast       string `json:"toast,omitempty"`
}

// Entry is a world id (item, room, npc, player action) that rules may point at.
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Task is one objective of a stage. Task ids are unique across the whole quest.
type Task struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	TutorialID string `json:"tutorial_id,omitempty"`
}

// Stage is one step of a quest.
type Stage struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Tasks       []*Task `json:"tasks"`
}

// Quest owns its stages and tasks.
type Quest struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Stages []*Stage `json:"stages"`
}

// Stage returns the stage with the given id.
func (q *Quest) Stage(id string) (*Stage, bool) {
	for _, s := range q.Stages {
		if s != nil && s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// Task returns the task with the given id from any stage.
func (q *Quest) Task(id string) (*Task, *Stage, bool) {
	for _, s := range q.Stages {
		if s == nil {
			continue
		}
		for _, t := range s.Tasks {
			if t != nil && t.ID == id {
				return t, s, true
			}
		}
	}
	return nil, nil, false
}

// BeatType is the kind of content a beat refers to.
type BeatType string

const (
	BeatDialogue  BeatType = "dialogue"
	BeatEvent     BeatType = "event"
	BeatCutscene  BeatType = "cutscene"
	BeatTutorial  BeatType = "tutorial"
	BeatMilestone BeatType = "milestone"
	BeatNote      BeatType = "note"
)

// Beat is one entry of a stage's authored flow.
type Beat struct {
	Type  BeatType `json:"type"`
	ID    string   `json:"id,omitempty"`
	Label string   `json:"label,omitempty"`
	Text  string   `json:"text,omitempty"`
}

func (d *Dialogue) RecordID() string       { return d.ID }
func (d *Dialogue) SetRecordID(id string)  { d.ID = id }
func (e *Event) RecordID() string          { return e.ID }
func (e *Event) SetRecordID(id string)     { e.ID = id }
func (c *Cutscene) RecordID() string       { return c.ID }
func (c *Cutscene) SetRecordID(id string)  { c.ID = id }
func (t *Tutorial) RecordID() string       { return t.ID }
func (t *Tutorial) SetRecordID(id string)  { t.ID = id }
func (m *Milestone) RecordID() string      { return m.ID }
func (m *Milestone) SetRecordID(id string) { m.ID = id }
func (e *Entry) RecordID() string          { return e.ID }
func (e *Entry) SetRecordID(id string)     { e.ID = id }
func (q *Quest) RecordID() string          { return q.ID }
func (q *Quest) SetRecordID(id string)     { q.ID = id }
