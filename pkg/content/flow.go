package content

import (
	"fmt"

	"github.com/jwebster45206/story-editor/pkg/ruletree"
)

// Flow maps quest id to stage id to the stage's ordered beats.
type Flow map[string]map[string][]Beat

// Beats returns the beats of one stage.
func (s *Store) Beats(questID, stageID string) []Beat {
	return s.Flow[questID][stageID]
}

// SetBeats replaces the beats of one stage.
func (s *Store) SetBeats(questID, stageID string, beats []Beat) {
	stages, ok := s.Flow[questID]
	if !ok {
		stages = make(map[string][]Beat)
		s.Flow[questID] = stages
	}
	stages[stageID] = beats
}

// InsertBeat places b at index of a stage's flow. index may equal the
// current length to append.
func (s *Store) InsertBeat(questID, stageID string, index int, b Beat) error {
	beats := s.Beats(questID, stageID)
	if index < 0 || index > len(beats) {
		return fmt.Errorf("%w: beat %d of %s/%s (len %d)", ruletree.ErrPathOutOfRange, index, questID, stageID, len(beats))
	}
	s.SetBeats(questID, stageID, ruletree.InsertAt(beats, index, b))
	s.MarkDirty(flowKind)
	return nil
}

// RemoveBeat deletes the beat at index.
func (s *Store) RemoveBeat(questID, stageID string, index int) error {
	beats := s.Beats(questID, stageID)
	if index < 0 || index >= len(beats) {
		return fmt.Errorf("%w: beat %d of %s/%s (len %d)", ruletree.ErrPathOutOfRange, index, questID, stageID, len(beats))
	}
	s.SetBeats(questID, stageID, ruletree.RemoveAt(beats, index))
	s.MarkDirty(flowKind)
	return nil
}

// MoveBeat swaps the beat at index with its neighbour. It is a no-op at the
// ends of the list.
func (s *Store) MoveBeat(questID, stageID string, index, delta int) (int, bool, error) {
	beats := s.Beats(questID, stageID)
	if index < 0 || index >= len(beats) {
		return index, false, fmt.Errorf("%w: beat %d of %s/%s (len %d)", ruletree.ErrPathOutOfRange, index, questID, stageID, len(beats))
	}
	if delta != 1 && delta != -1 {
		return index, false, fmt.Errorf("%w: move delta must be 1 or -1, got %d", ruletree.ErrBadPath, delta)
	}
	newIdx, moved := ruletree.SwapNeighbor(beats, index, delta)
	if moved {
		s.MarkDirty(flowKind)
	}
	return newIdx, moved, nil
}

// ForEachBeat visits every beat, quests and stages in sorted id order. The
// beat pointer aliases the stored beat.
func (s *Store) ForEachBeat(fn func(questID, stageID string, index int, b *Beat)) {
	questIDs := make([]string, 0, len(s.Flow))
	for q := range s.Flow {
		questIDs = append(questIDs, q)
	}
	SortIDs(questIDs)
	for _, q := range questIDs {
		stages := s.Flow[q]
		stageIDs := make([]string, 0, len(stages))
		for st := range stages {
			stageIDs = append(stageIDs, st)
		}
		SortIDs(stageIDs)
		for _, st := range stageIDs {
			beats := stages[st]
			for i := range beats {
				fn(q, st, i, &beats[i])
			}
		}
	}
}
