// Package validate checks a content store and reports problems without ever
// failing. Checks run in a fixed order: schema and required fields,
// referential integrity, dialogue chains, then action trees.
package validate

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/story-editor/pkg/asset"
	"github.com/jwebster45206/story-editor/pkg/conditionals"
	"github.com/jwebster45206/story-editor/pkg/content"
	"github.com/jwebster45206/story-editor/pkg/refs"
	"github.com/jwebster45206/story-editor/pkg/ruletree"
	"github.com/jwebster45206/story-editor/pkg/tokens"
)

// MaxChainHops stops a dialogue chain walk that never ends.
const MaxChainHops = 250

// Validator checks one store.
type Validator struct {
	store   *content.Store
	scanner *refs.Scanner
}

// New creates a validator. A nil scanner is created over store.
func New(store *content.Store, scanner *refs.Scanner) *Validator {
	if scanner == nil {
		scanner = refs.NewScanner(store)
	}
	return &Validator{store: store, scanner: scanner}
}

// Validate runs every check and returns the report.
func (v *Validator) Validate() *Report {
	r := &Report{}
	v.validateIDs(r)
	v.validateQuests(r)
	v.validateFlow(r)
	v.validateDialogueTokens(r)
	v.validateEvents(r)
	v.validateReferences(r)
	v.validateChains(r)
	return r
}

func (v *Validator) validateIDs(r *Report) {
	for _, k := range asset.Tables {
		if k == asset.Quest || k == asset.Flow {
			continue
		}
		for _, id := range v.store.AllIDs(k) {
			if !asset.ValidID(id) {
				r.add(GroupSchema, fmt.Sprintf("%s %q", k, id), "id must be non-empty with no ':', ',' or whitespace")
			}
		}
	}
}

func (v *Validator) validateQuests(r *Report) {
	seen := make(map[string]bool)
	for i, q := range v.store.Quests {
		if q == nil {
			continue
		}
		where := fmt.Sprintf("quest %s", q.ID)
		if !asset.ValidID(q.ID) {
			r.add(GroupSchema, fmt.Sprintf("quests[%d]", i), "quest id %q must be non-empty with no ':', ',' or whitespace", q.ID)
		}
		if seen[q.ID] {
			r.add(GroupSchema, where, "duplicate quest id")
		}
		seen[q.ID] = true

		stages := make(map[string]bool)
		tasks := make(map[string]bool)
		for _, st := range q.Stages {
			if st == nil {
				continue
			}
			if !asset.ValidID(st.ID) {
				r.add(GroupSchema, where, "stage id %q must be non-empty with no ':', ',' or whitespace", st.ID)
			}
			if stages[st.ID] {
				r.add(GroupSchema, where, "duplicate stage id %q", st.ID)
			}
			stages[st.ID] = true
			for _, t := range st.Tasks {
				if t == nil {
					continue
				}
				if !asset.ValidID(t.ID) {
					r.add(GroupSchema, where, "task id %q must be non-empty with no ':', ',' or whitespace", t.ID)
				}
				if tasks[t.ID] {
					r.add(GroupSchema, where, "duplicate task id %q (task ids are unique across the quest)", t.ID)
				}
				tasks[t.ID] = true
			}
		}
	}
}

var beatTypes = map[content.BeatType]bool{
	content.BeatDialogue:  true,
	content.BeatEvent:     true,
	content.BeatCutscene:  true,
	content.BeatTutorial:  true,
	content.BeatMilestone: true,
	content.BeatNote:      true,
}

func (v *Validator) validateFlow(r *Report) {
	for _, qid := range sortedKeys(v.store.Flow) {
		q, ok := v.store.Quest(qid)
		if !ok {
			r.add(GroupReference, "flow "+qid, "quest %q not found", qid)
		}
		for _, sid := range sortedKeys(v.store.Flow[qid]) {
			if ok {
				if _, found := q.Stage(sid); !found {
					r.add(GroupReference, fmt.Sprintf("flow %s/%s", qid, sid), "%q is not a stage of quest %q", sid, qid)
				}
			}
			for i, b := range v.store.Flow[qid][sid] {
				where := fmt.Sprintf("flow %s/%s beat %d", qid, sid, i+1)
				switch {
				case !beatTypes[b.Type]:
					r.add(GroupSchema, where, "unknown beat type %q", b.Type)
				case b.Type == content.BeatNote && strings.TrimSpace(b.Text) == "":
					r.add(GroupSchema, where, "note has no text")
				case b.Type != content.BeatNote && b.ID == "":
					r.add(GroupSchema, where, "%s beat has no id", b.Type)
				}
			}
		}
	}
}

func (v *Validator) validateDialogueTokens(r *Report) {
	for _, d := range v.store.Dialogues.All() {
		v.validateTokenField(r, d.ID, conditionals.ConditionField, d.Condition)
		v.validateTokenField(r, d.ID, conditionals.TriggerField, d.Trigger)
	}
}

func (v *Validator) validateTokenField(r *Report, dialogueID string, field conditionals.TokenField, raw string) {
	where := fmt.Sprintf("dialogue %s %s", dialogueID, field)
	for _, tok := range tokens.Parse(raw) {
		if tok.Malformed() {
			r.add(GroupSchema, where, "malformed token %q has no type", tok.String())
			continue
		}
		spec, ok := conditionals.LookupToken(field, tok.Type)
		if !ok {
			r.add(GroupSchema, where, "unknown %s token type %q", field, tok.Type)
			continue
		}
		switch {
		case spec.ZeroArg && tok.HasValue:
			r.add(GroupSchema, where, "%s takes no value", tok.Type)
		case spec.NeedsValue() && tok.Value == "":
			r.add(GroupSchema, where, "%s needs a value", tok.Type)
		}
	}
}

func (v *Validator) validateEvents(r *Report) {
	for _, ev := range v.store.Events.All() {
		prefix := "event " + ev.ID
		if ev.Trigger == nil {
			r.add(GroupSchema, prefix, "event has no trigger")
		} else {
			v.validateNode(r, conditionals.RoleTrigger, prefix+" trigger", ev.Trigger)
		}
		for i, c := range ev.Conditions {
			if c == nil {
				continue
			}
			v.validateNode(r, conditionals.RoleCondition, fmt.Sprintf("%s conditions[%d]", prefix, i), c)
		}
		ruletree.New(&ev.Actions).Walk(func(p ruletree.Path, n *conditionals.Node) {
			where := prefix + " " + p.String()
			v.validateNode(r, conditionals.RoleAction, where, n)
			v.validateBranches(r, where, n)
		})
	}
}

// validateNode covers vocabulary membership and required fields.
func (v *Validator) validateNode(r *Report, role conditionals.Role, where string, n *conditionals.Node) {
	if n.Type == "" {
		r.add(GroupSchema, where, "%s has no type", role)
		return
	}
	spec, ok := conditionals.Lookup(role, n.Type)
	if !ok {
		r.add(GroupSchema, where, "unknown %s type %q", role, n.Type)
		return
	}
	for _, f := range spec.Fields {
		if f.Required && !n.Has(f.Name) {
			r.add(GroupSchema, where, "%s is missing %s", n.Type, f.Name)
			continue
		}
		if f.Pair == "" || !n.Has(f.Name) || !n.Has(f.Pair) {
			continue
		}
		questID, _ := n.Str(f.Pair)
		childID, _ := n.Str(f.Name)
		// An unknown quest is reported by the reference check.
		if !v.store.Has(asset.Quest, questID) {
			continue
		}
		if !v.store.Has(f.Ref, asset.CompoundKey(questID, childID)) {
			r.add(GroupSchema, where, "%s %q is not a declared %s of quest %q", f.Name, childID, f.Ref, questID)
		}
	}
}

// validateBranches checks the branch lists an action carries.
func (v *Validator) validateBranches(r *Report, where string, n *conditionals.Node) {
	allowed := conditionals.BranchesFor(n.Type)
	for _, f := range n.Fields {
		if _, isBranch := conditionals.CanonicalBranch(f.Name); isBranch {
			r.add(GroupTree, where, "%s cannot carry a %q branch", n.Type, f.Name)
		}
	}
	names := sortedKeys(n.Branches)
	for _, name := range names {
		if !contains(allowed, name) {
			r.add(GroupTree, where, "%s cannot carry a %q branch", n.Type, name)
		}
	}
	for _, name := range names {
		for i, child := range n.Branches[name] {
			if child == nil {
				r.add(GroupTree, fmt.Sprintf("%s.%s[%d]", where, name, i), "empty node")
			}
		}
	}
	if strings.HasPrefix(n.Type, "if_") && contains(allowed, conditionals.BranchDo) && len(n.Branch(conditionals.BranchDo)) == 0 {
		r.add(GroupTree, where, "%s has an empty do branch", n.Type)
	}
}

func (v *Validator) validateReferences(r *Report) {
	v.scanner.Walk(func(s refs.Site) {
		// Structured stage/task fields are checked with their quest in
		// validateNode; dialogue next pointers by the chain walk.
		if s.Paired || (s.Locator.Table == asset.Dialogue && s.Locator.Field == "next") {
			return
		}
		where := s.Label
		if !asset.Compound(s.Kind) {
			if !v.store.Has(s.Kind, s.Value) {
				r.add(GroupReference, where, "%s %q not found", s.Kind, s.Value)
			}
			return
		}
		questID, childID, ok := asset.SplitCompound(s.Value)
		switch {
		case !ok:
			r.add(GroupReference, where, "%s reference %q must be quest_id:%s_id", s.Kind, s.Value, s.Kind)
		case !v.store.Has(asset.Quest, questID):
			r.add(GroupReference, where, "quest %q not found", questID)
		case !v.store.Has(s.Kind, s.Value):
			r.add(GroupReference, where, "%q is not a declared %s of quest %q", childID, s.Kind, questID)
		}
	})
}

// validateChains follows next pointers from every chain start, then from
// anything not yet reached so that closed loops are still walked.
func (v *Validator) validateChains(r *Report) {
	ids := v.store.Dialogues.IDs()
	targeted := make(map[string]bool)
	for _, d := range v.store.Dialogues.All() {
		if d.Next != "" {
			targeted[d.Next] = true
		}
	}

	covered := make(map[string]bool)
	for _, id := range ids {
		if !targeted[id] {
			v.walkChain(r, id, covered)
		}
	}
	for _, id := range ids {
		if !covered[id] {
			v.walkChain(r, id, covered)
		}
	}
}

func (v *Validator) walkChain(r *Report, start string, covered map[string]bool) {
	where := "dialogue chain from " + start
	seen := make(map[string]bool)
	cur := start
	for hops := 0; ; hops++ {
		if hops >= MaxChainHops {
			r.add(GroupChain, where, "exceeds %d hops, stopped at %s", MaxChainHops, cur)
			return
		}
		if seen[cur] {
			r.add(GroupChain, where, "loops at %s", cur)
			return
		}
		if covered[cur] {
			return
		}
		seen[cur] = true
		covered[cur] = true

		d, ok := v.store.Dialogues.Get(cur)
		if !ok || d.Next == "" {
			return
		}
		if !v.store.Has(asset.Dialogue, d.Next) {
			r.add(GroupChain, "dialogue "+cur, "next %q not found", d.Next)
			return
		}
		cur = d.Next
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	content.SortIDs(keys)
	return keys
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
