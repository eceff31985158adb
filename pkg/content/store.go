package content

import (
	"fmt"

	"github.com/jwebster45206/story-editor/pkg/asset"
)

// Store is the in-memory content graph for one editing session. It is not
// safe for concurrent use; the editor session owns it.
type Store struct {
	Dialogues     *Table[*Dialogue]
	Events        *Table[*Event]
	Cutscenes     *Table[*Cutscene]
	Tutorials     *Table[*Tutorial]
	Milestones    *Table[*Milestone]
	Items         *Table[*Entry]
	Rooms         *Table[*Entry]
	NPCs          *Table[*Entry]
	PlayerActions *Table[*Entry]

	// Quests keeps authored order.
	Quests []*Quest
	// Flow maps quest id to stage id to ordered beats.
	Flow Flow

	dirty map[asset.Kind]bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		Dialogues:     NewTable[*Dialogue](asset.Dialogue),
		Events:        NewTable[*Event](asset.Event),
		Cutscenes:     NewTable[*Cutscene](asset.Cutscene),
		Tutorials:     NewTable[*Tutorial](asset.Tutorial),
		Milestones:    NewTable[*Milestone](asset.Milestone),
		Items:         NewTable[*Entry](asset.Item),
		Rooms:         NewTable[*Entry](asset.Room),
		NPCs:          NewTable[*Entry](asset.NPC),
		PlayerActions: NewTable[*Entry](asset.PlayerAction),
		Flow:          make(Flow),
		dirty:         make(map[asset.Kind]bool),
	}
}

func (s *Store) table(kind asset.Kind) (table, bool) {
	switch kind {
	case asset.Dialogue:
		return s.Dialogues, true
	case asset.Event:
		return s.Events, true
	case asset.Cutscene:
		return s.Cutscenes, true
	case asset.Tutorial:
		return s.Tutorials, true
	case asset.Milestone:
		return s.Milestones, true
	case asset.Item:
		return s.Items, true
	case asset.Room:
		return s.Rooms, true
	case asset.NPC:
		return s.NPCs, true
	case asset.PlayerAction:
		return s.PlayerActions, true
	}
	return nil, false
}

// Get returns the record with id. Quests are returned as *Quest; stage and
// task keys are not records and always miss.
func (s *Store) Get(kind asset.Kind, id string) (Record, bool) {
	if kind == asset.Quest {
		q, ok := s.Quest(id)
		if !ok {
			return nil, false
		}
		return q, true
	}
	t, ok := s.table(kind)
	if !ok {
		return nil, false
	}
	return t.getAny(id)
}

// Put inserts or replaces a record in the table for kind and marks the
// table dirty.
func (s *Store) Put(kind asset.Kind, r Record) error {
	if kind == asset.Quest {
		q, ok := r.(*Quest)
		if !ok {
			return fmt.Errorf("%w: %T is not a quest", ErrUnknownKind, r)
		}
		s.PutQuest(q)
		return nil
	}
	t, ok := s.table(kind)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	if err := t.putAny(r); err != nil {
		return err
	}
	s.MarkDirty(kind)
	return nil
}

// Remove deletes a record. It reports whether anything was removed; the
// table is marked dirty only when something was.
func (s *Store) Remove(kind asset.Kind, id string) bool {
	if kind == asset.Quest {
		for i, q := range s.Quests {
			if q != nil && q.ID == id {
				s.Quests = append(s.Quests[:i], s.Quests[i+1:]...)
				s.MarkDirty(asset.Quest)
				return true
			}
		}
		return false
	}
	t, ok := s.table(kind)
	if !ok || !t.Remove(id) {
		return false
	}
	s.MarkDirty(kind)
	return true
}

// Has reports whether id exists for kind. Stage and task ids are compound
// quest_id:child_id keys.
func (s *Store) Has(kind asset.Kind, id string) bool {
	switch kind {
	case asset.Quest:
		_, ok := s.Quest(id)
		return ok
	case asset.Stage, asset.Task:
		qid, cid, ok := asset.SplitCompound(id)
		if !ok {
			return false
		}
		q, ok := s.Quest(qid)
		if !ok {
			return false
		}
		if kind == asset.Stage {
			_, ok = q.Stage(cid)
			return ok
		}
		_, _, ok = q.Task(cid)
		return ok
	}
	t, ok := s.table(kind)
	if !ok {
		return false
	}
	return t.Has(id)
}

// AllIDs returns the sorted ids of kind. For stages and tasks these are
// compound keys.
func (s *Store) AllIDs(kind asset.Kind) []string {
	var ids []string
	switch kind {
	case asset.Quest:
		for _, q := range s.Quests {
			if q != nil {
				ids = append(ids, q.ID)
			}
		}
	case asset.Stage, asset.Task:
		s.ForEachQuestStageTask(func(ref ChildRef) {
			if ref.Kind == kind {
				ids = append(ids, ref.Key())
			}
		})
	default:
		t, ok := s.table(kind)
		if !ok {
			return nil
		}
		return t.IDs()
	}
	SortIDs(ids)
	return ids
}

// Len returns the number of records of kind.
func (s *Store) Len(kind asset.Kind) int {
	if kind == asset.Quest {
		return len(s.Quests)
	}
	if t, ok := s.table(kind); ok {
		return t.Len()
	}
	return len(s.AllIDs(kind))
}

// Rekey moves a record to a new id within its table, updating the id the
// record carries. References elsewhere are left alone.
func (s *Store) Rekey(kind asset.Kind, oldID, newID string) error {
	t, ok := s.table(kind)
	if !ok {
		return fmt.Errorf("%w: %s cannot be rekeyed", ErrUnknownKind, kind)
	}
	if err := t.rekey(oldID, newID); err != nil {
		return err
	}
	s.MarkDirty(kind)
	return nil
}

// Quest returns the quest with id.
func (s *Store) Quest(id string) (*Quest, bool) {
	for _, q := range s.Quests {
		if q != nil && q.ID == id {
			return q, true
		}
	}
	return nil, false
}

// PutQuest replaces the quest with the same id, or appends it.
func (s *Store) PutQuest(q *Quest) {
	s.MarkDirty(asset.Quest)
	for i, existing := range s.Quests {
		if existing != nil && existing.ID == q.ID {
			s.Quests[i] = q
			return
		}
	}
	s.Quests = append(s.Quests, q)
}

// ChildRef names one stage or task of a quest.
type ChildRef struct {
	Kind    asset.Kind
	QuestID string
	ChildID string
	Stage   *Stage
	Task    *Task
}

// Key returns the compound quest_id:child_id key.
func (r ChildRef) Key() string {
	return asset.CompoundKey(r.QuestID, r.ChildID)
}

// ForEachQuestStageTask visits every stage and task in authored order. A
// stage is visited before its tasks.
func (s *Store) ForEachQuestStageTask(fn func(ChildRef)) {
	for _, q := range s.Quests {
		if q == nil {
			continue
		}
		for _, st := range q.Stages {
			if st == nil {
				continue
			}
			fn(ChildRef{Kind: asset.Stage, QuestID: q.ID, ChildID: st.ID, Stage: st})
			for _, t := range st.Tasks {
				if t == nil {
					continue
				}
				fn(ChildRef{Kind: asset.Task, QuestID: q.ID, ChildID: t.ID, Stage: st, Task: t})
			}
		}
	}
}

// MarkDirty flags tables as changed since the last save.
func (s *Store) MarkDirty(kinds ...asset.Kind) {
	for _, k := range kinds {
		s.dirty[k] = true
	}
}

// IsDirty reports whether kind has unsaved changes.
func (s *Store) IsDirty(kind asset.Kind) bool {
	return s.dirty[kind]
}

// Dirty returns the changed tables in save order.
func (s *Store) Dirty() []asset.Kind {
	var out []asset.Kind
	for _, k := range asset.Tables {
		if s.dirty[k] {
			out = append(out, k)
		}
	}
	return out
}

// ClearDirty resets the flags for kinds, or for every table when none are given.
func (s *Store) ClearDirty(kinds ...asset.Kind) {
	if len(kinds) == 0 {
		s.dirty = make(map[asset.Kind]bool)
		return
	}
	for _, k := range kinds {
		delete(s.dirty, k)
	}
}
