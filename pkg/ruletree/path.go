// Package ruletree addresses and edits the nested action forest of an event.
//
// A path is a dot-separated list of segments, each `actions` (the root) or a
// branch name, optionally indexed: `actions[2].do[0].elseDo[1]`. A path whose
// last segment has no index names a group (a list); with an index it names a
// node. Resolved lists and nodes are borrowed views into the event and must
// not be kept across mutations.
package ruletree

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jwebster45206/story-editor/pkg/conditionals"
)

// RootName is the first segment of every path.
const RootName = "actions"

var (
	ErrBadPath        = errors.New("malformed path")
	ErrPathOutOfRange = errors.New("path out of range")
	ErrNotGroup       = errors.New("path does not name a branch group")
)

var branchSpellings = map[string]string{
	"do":          conditionals.BranchDo,
	"elseDo":      conditionals.BranchElseDo,
	"else":        conditionals.BranchElseDo,
	"on_complete": conditionals.BranchOnComplete,
	"onComplete":  conditionals.BranchOnComplete,
}

// Segment is one step of a path.
type Segment struct {
	Name     string
	Index    int
	HasIndex bool
}

func (s Segment) String() string {
	if !s.HasIndex {
		return s.Name
	}
	return s.Name + "[" + strconv.Itoa(s.Index) + "]"
}

// Path locates a group or a node inside an action forest.
type Path []Segment

// Root is the top-level action group.
var Root = Path{{Name: RootName}}

// ParsePath parses the textual form. Legacy branch spellings are accepted and
// normalized.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrBadPath)
	}
	parts := strings.Split(s, ".")
	p := make(Path, 0, len(parts))
	for i, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadPath, s, err)
		}
		if i == 0 {
			if seg.Name != RootName {
				return nil, fmt.Errorf("%w: %q must start with %s", ErrBadPath, s, RootName)
			}
		} else {
			canonical, ok := branchSpellings[seg.Name]
			if !ok {
				return nil, fmt.Errorf("%w: %q: unknown branch %q", ErrBadPath, s, seg.Name)
			}
			seg.Name = canonical
		}
		if i < len(parts)-1 && !seg.HasIndex {
			return nil, fmt.Errorf("%w: %q: segment %q needs an index", ErrBadPath, s, part)
		}
		p = append(p, seg)
	}
	return p, nil
}

// MustParsePath is ParsePath for literals; it panics on error.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func parseSegment(part string) (Segment, error) {
	open := strings.IndexByte(part, '[')
	if open < 0 {
		if part == "" {
			return Segment{}, errors.New("empty segment")
		}
		return Segment{Name: part}, nil
	}
	if !strings.HasSuffix(part, "]") || open == 0 {
		return Segment{}, fmt.Errorf("bad segment %q", part)
	}
	idx, err := strconv.Atoi(part[open+1 : len(part)-1])
	if err != nil || idx < 0 {
		return Segment{}, fmt.Errorf("bad index in %q", part)
	}
	return Segment{Name: part[:open], Index: idx, HasIndex: true}, nil
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// IsGroup reports whether p names a list rather than a node.
func (p Path) IsGroup() bool {
	return len(p) > 0 && !p[len(p)-1].HasIndex
}

// Index returns the trailing index of a node path.
func (p Path) Index() (int, bool) {
	if len(p) == 0 || !p[len(p)-1].HasIndex {
		return 0, false
	}
	return p[len(p)-1].Index, true
}

// Group returns the list containing the node p names.
func (p Path) Group() Path {
	out := p.clone()
	if len(out) > 0 {
		out[len(out)-1].HasIndex = false
		out[len(out)-1].Index = 0
	}
	return out
}

// At returns the node at index i of the group p.
func (p Path) At(i int) Path {
	out := p.clone()
	if len(out) > 0 {
		out[len(out)-1].Index = i
		out[len(out)-1].HasIndex = true
	}
	return out
}

// Child returns the branch group of the node p names.
func (p Path) Child(branch string) Path {
	out := p.clone()
	return append(out, Segment{Name: branch})
}

// Contains reports whether other lies inside (or is) the node p names.
func (p Path) Contains(other Path) bool {
	if len(other) < len(p) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

func (p Path) clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}
