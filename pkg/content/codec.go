package content

import (
	"encoding/json"
	"fmt"

	"github.com/jwebster45206/story-editor/pkg/asset"
)

const flowKind = asset.Flow

// MarshalTable encodes one whole table in its on-disk shape. Keyed tables
// are arrays sorted by id, quests keep authored order and flow is an object.
func (s *Store) MarshalTable(kind asset.Kind) ([]byte, error) {
	switch kind {
	case asset.Quest:
		quests := s.Quests
		if quests == nil {
			quests = []*Quest{}
		}
		return json.MarshalIndent(quests, "", "  ")
	case asset.Flow:
		return json.MarshalIndent(s.Flow, "", "  ")
	}
	t, ok := s.table(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return t.marshal()
}

// UnmarshalTable replaces one table with the decoded data. Legacy rule
// names in events are normalized while decoding, and null quests, stages
// and tasks are dropped.
func (s *Store) UnmarshalTable(kind asset.Kind, data []byte) error {
	switch kind {
	case asset.Quest:
		var quests []*Quest
		if err := json.Unmarshal(data, &quests); err != nil {
			return fmt.Errorf("failed to decode quest table: %w", err)
		}
		kept := quests[:0]
		for _, q := range quests {
			if q != nil {
				q.dropNil()
				kept = append(kept, q)
			}
		}
		s.Quests = kept
		return nil
	case asset.Flow:
		flow := make(Flow)
		if err := json.Unmarshal(data, &flow); err != nil {
			return fmt.Errorf("failed to decode flow table: %w", err)
		}
		s.Flow = flow
		return nil
	}
	t, ok := s.table(kind)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return t.unmarshal(data)
}

func (q *Quest) dropNil() {
	stages := q.Stages[:0]
	for _, st := range q.Stages {
		if st == nil {
			continue
		}
		tasks := st.Tasks[:0]
		for _, t := range st.Tasks {
			if t != nil {
				tasks = append(tasks, t)
			}
		}
		st.Tasks = tasks
		stages = append(stages, st)
	}
	q.Stages = stages
}
