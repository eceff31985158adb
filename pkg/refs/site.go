// Package refs finds every place in the content graph that points at an id.
//
// A single walk enumerates reference sites from flow beats, dialogue next
// pointers, dialogue condition/trigger tokens, event rule nodes and quest
// tasks. Find, rename and validation are all built on that walk so they can
// never disagree about what counts as a reference.
package refs

import (
	"fmt"

	"github.com/jwebster45206/story-editor/pkg/asset"
	"github.com/jwebster45206/story-editor/pkg/tokens"
)

// Locator pins a site to one record field.
type Locator struct {
	Table asset.Kind
	ID    string
	Field string
}

func (l Locator) String() string {
	return fmt.Sprintf("%s/%s/%s", l.Table, l.ID, l.Field)
}

// Site is one reference. Value is the referenced id; for stages and tasks it
// is the compound quest_id:child_id key.
type Site struct {
	Kind    asset.Kind
	Value   string
	Label   string
	Locator Locator
	Mode    tokens.Mode

	// Token is set for sites inside a dialogue token string.
	Token bool
	// Paired is set for structured stage/task fields whose quest id lives in
	// a sibling field that is reported as its own site.
	Paired bool

	rewrite func(oldID, newID string) bool
}

// ReadOnly reports whether the site cannot be rewritten by a rename.
func (s Site) ReadOnly() bool {
	return s.rewrite == nil
}

// Rewrite replaces oldID with newID at the site. It reports whether
// anything changed.
func (s Site) Rewrite(oldID, newID string) bool {
	if s.rewrite == nil {
		return false
	}
	return s.rewrite(oldID, newID)
}

// Matches reports whether the site refers to (kind, id). A quest also
// matches compound token values whose quest segment is id.
func (s Site) Matches(kind asset.Kind, id string) bool {
	if s.Kind == kind && s.Value == id {
		return true
	}
	if kind == asset.Quest && asset.Compound(s.Kind) && !s.Paired {
		q, _, ok := asset.SplitCompound(s.Value)
		return ok && q == id
	}
	return false
}

// Hit is one row of a find result.
type Hit struct {
	Label   string
	Locator Locator
}
