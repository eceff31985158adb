package refs

import (
	"fmt"

	"github.com/jwebster45206/story-editor/pkg/asset"
	"github.com/jwebster45206/story-editor/pkg/conditionals"
	"github.com/jwebster45206/story-editor/pkg/content"
	"github.com/jwebster45206/story-editor/pkg/ruletree"
	"github.com/jwebster45206/story-editor/pkg/tokens"
)

// Scanner walks one store. Sites are borrowed views: they are only valid
// until the next structural edit of the store.
type Scanner struct {
	store *content.Store
}

// NewScanner creates a scanner over store.
func NewScanner(store *content.Store) *Scanner {
	return &Scanner{store: store}
}

// Find returns every site referring to (kind, id), deduplicated by label,
// in walk order.
func (s *Scanner) Find(kind asset.Kind, id string) []Hit {
	seen := make(map[string]bool)
	var hits []Hit
	s.Walk(func(site Site) {
		if !site.Matches(kind, id) || seen[site.Label] {
			return
		}
		seen[site.Label] = true
		hits = append(hits, Hit{Label: site.Label, Locator: site.Locator})
	})
	return hits
}

// Sites returns every individual site referring to (kind, id).
func (s *Scanner) Sites(kind asset.Kind, id string) []Site {
	var out []Site
	s.Walk(func(site Site) {
		if site.Matches(kind, id) {
			out = append(out, site)
		}
	})
	return out
}

// Walk visits every reference site in the store: flow beats, dialogues,
// events, then quest tasks. Empty values are not sites.
func (s *Scanner) Walk(fn func(Site)) {
	s.walkFlow(fn)
	for _, d := range s.store.Dialogues.All() {
		walkDialogue(d, fn)
	}
	for _, ev := range s.store.Events.All() {
		walkEvent(ev, fn)
	}
	s.walkQuests(fn)
}

var beatKinds = map[content.BeatType]asset.Kind{
	content.BeatDialogue:  asset.Dialogue,
	content.BeatEvent:     asset.Event,
	content.BeatCutscene:  asset.Cutscene,
	content.BeatTutorial:  asset.Tutorial,
	content.BeatMilestone: asset.Milestone,
}

func (s *Scanner) walkFlow(fn func(Site)) {
	s.store.ForEachBeat(func(questID, stageID string, i int, b *content.Beat) {
		kind, ok := beatKinds[b.Type]
		if !ok || b.ID == "" {
			return
		}
		loc := Locator{Table: asset.Flow, ID: questID, Field: fmt.Sprintf("%s[%d]", stageID, i)}
		fn(Site{
			Kind:    kind,
			Value:   b.ID,
			Label:   fmt.Sprintf("flow %s/%s beat %d", questID, stageID, i+1),
			Locator: loc,
			rewrite: func(oldID, newID string) bool {
				if b.ID != oldID {
					return false
				}
				b.ID = newID
				return true
			},
		})
	})
}

func walkDialogue(d *content.Dialogue, fn func(Site)) {
	if d.Next != "" {
		fn(Site{
			Kind:    asset.Dialogue,
			Value:   d.Next,
			Label:   fmt.Sprintf("dialogue %s next", d.ID),
			Locator: Locator{Table: asset.Dialogue, ID: d.ID, Field: "next"},
			rewrite: func(oldID, newID string) bool {
				if d.Next != oldID {
					return false
				}
				d.Next = newID
				return true
			},
		})
	}
	walkTokens(d, conditionals.ConditionField, &d.Condition, fn)
	walkTokens(d, conditionals.TriggerField, &d.Trigger, fn)
}

func walkTokens(d *content.Dialogue, field conditionals.TokenField, raw *string, fn func(Site)) {
	for i, tok := range tokens.Parse(*raw) {
		spec, ok := conditionals.LookupToken(field, tok.Type)
		if !ok || spec.Ref == "" || !tok.HasValue {
			continue
		}
		site := Site{
			Kind:    spec.Ref,
			Mode:    spec.Mode,
			Token:   true,
			Label:   fmt.Sprintf("dialogue %s %s %s", d.ID, field, tok.Type),
			Locator: Locator{Table: asset.Dialogue, ID: d.ID, Field: fmt.Sprintf("%s[%d]", field, i)},
		}
		if asset.Compound(spec.Ref) {
			site.Value = tok.Value
		} else {
			site.Value = spec.Mode.Key(tok.Value)
			site.rewrite = tokenRewriter(raw, i, tok.Type, spec.Mode)
		}
		if site.Value == "" {
			continue
		}
		fn(site)
	}
}

// tokenRewriter rewrites token i of the field in place and reformats the
// field. The field is parsed again at rewrite time.
func tokenRewriter(raw *string, i int, typ string, mode tokens.Mode) func(string, string) bool {
	return func(oldID, newID string) bool {
		toks := tokens.Parse(*raw)
		if i >= len(toks) || toks[i].Type != typ {
			return false
		}
		if !tokens.RewriteValue(toks[i:i+1], map[string]bool{typ: true}, oldID, newID, mode) {
			return false
		}
		*raw = tokens.Format(toks)
		return true
	}
}

func walkEvent(ev *content.Event, fn func(Site)) {
	if ev.Trigger != nil {
		walkNode(ev.ID, conditionals.RoleTrigger, "trigger", ev.Trigger, fn)
	}
	for i, c := range ev.Conditions {
		if c != nil {
			walkNode(ev.ID, conditionals.RoleCondition, fmt.Sprintf("conditions[%d]", i), c, fn)
		}
	}
	ruletree.New(&ev.Actions).Walk(func(p ruletree.Path, n *conditionals.Node) {
		walkNode(ev.ID, conditionals.RoleAction, p.String(), n, fn)
	})
}

func walkNode(eventID string, role conditionals.Role, at string, n *conditionals.Node, fn func(Site)) {
	spec, ok := conditionals.Lookup(role, n.Type)
	if !ok {
		return
	}
	for _, f := range spec.Fields {
		if f.Ref == "" {
			continue
		}
		value, ok := n.Str(f.Name)
		if !ok || value == "" {
			continue
		}
		site := Site{
			Kind:    f.Ref,
			Value:   value,
			Label:   fmt.Sprintf("event %s %s %s %s", eventID, at, n.Type, f.Name),
			Locator: Locator{Table: asset.Event, ID: eventID, Field: at + "." + f.Name},
		}
		if f.Pair != "" {
			quest, _ := n.Str(f.Pair)
			site.Value = asset.CompoundKey(quest, value)
			site.Paired = true
		} else {
			site.rewrite = fieldRewriter(n, f.Name)
		}
		fn(site)
	}
}

func fieldRewriter(n *conditionals.Node, name string) func(string, string) bool {
	return func(oldID, newID string) bool {
		if v, _ := n.Str(name); v != oldID {
			return false
		}
		n.Set(name, newID)
		return true
	}
}

func (s *Scanner) walkQuests(fn func(Site)) {
	for _, q := range s.store.Quests {
		if q == nil {
			continue
		}
		for si, st := range q.Stages {
			if st == nil {
				continue
			}
			for ti, t := range st.Tasks {
				if t == nil || t.TutorialID == "" {
					continue
				}
				fn(Site{
					Kind:    asset.Tutorial,
					Value:   t.TutorialID,
					Label:   fmt.Sprintf("quest %s task %s tutorial", q.ID, t.ID),
					Locator: Locator{Table: asset.Quest, ID: q.ID, Field: fmt.Sprintf("stages[%d].tasks[%d].tutorial_id", si, ti)},
					rewrite: func(oldID, newID string) bool {
						if t.TutorialID != oldID {
							return false
						}
						t.TutorialID = newID
						return true
					},
				})
			}
		}
	}
}
