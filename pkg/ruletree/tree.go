package ruletree

import (
	"fmt"

	"github.com/jwebster45206/story-editor/pkg/conditionals"
)

// Tree edits one event's action forest in place.
type Tree struct {
	root *[]*conditionals.Node
}

// New wraps the action slice of an event. The slice is updated in place.
func New(actions *[]*conditionals.Node) *Tree {
	return &Tree{root: actions}
}

// List is a borrowed view of one group.
type List struct {
	root   *[]*conditionals.Node
	owner  *conditionals.Node
	branch string
}

// Nodes returns the current contents of the group.
func (l *List) Nodes() []*conditionals.Node {
	if l.owner == nil {
		return *l.root
	}
	return l.owner.Branches[l.branch]
}

// Len returns the number of nodes in the group.
func (l *List) Len() int {
	return len(l.Nodes())
}

func (l *List) set(nodes []*conditionals.Node) {
	if l.owner == nil {
		*l.root = nodes
		return
	}
	if l.owner.Branches == nil {
		l.owner.Branches = make(map[string][]*conditionals.Node)
	}
	l.owner.Branches[l.branch] = nodes
}

func (l *List) exists() bool {
	if l.owner == nil {
		return true
	}
	_, ok := l.owner.Branches[l.branch]
	return ok
}

// ResolveNode returns the node at p, or false when p does not name an
// existing node.
func (t *Tree) ResolveNode(p Path) (*conditionals.Node, bool) {
	if len(p) == 0 || !p[len(p)-1].HasIndex || p[0].Name != RootName {
		return nil, false
	}
	list := *t.root
	var node *conditionals.Node
	for i, seg := range p {
		if i > 0 {
			if node == nil {
				return nil, false
			}
			list = node.Branch(seg.Name)
		}
		if !seg.HasIndex || seg.Index >= len(list) {
			return nil, false
		}
		node = list[seg.Index]
	}
	return node, node != nil
}

// locate finds the group at p without creating anything. Groups may only be
// the root or a branch the owning node's type declares; this is the single
// place that rule is enforced, for programmatic edits and drag moves alike.
func (t *Tree) locate(group Path) (*List, error) {
	if !group.IsGroup() {
		return nil, fmt.Errorf("%w: %s", ErrNotGroup, group)
	}
	if len(group) == 1 {
		return &List{root: t.root}, nil
	}
	ownerPath := group[:len(group)-1]
	owner, ok := t.ResolveNode(ownerPath)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPathOutOfRange, ownerPath)
	}
	branch := group[len(group)-1].Name
	if !contains(conditionals.BranchesFor(owner.Type), branch) {
		return nil, fmt.Errorf("%w: %s has no %q branch", ErrNotGroup, owner.Type, branch)
	}
	return &List{root: t.root, owner: owner, branch: branch}, nil
}

// ResolveList returns the group at p. With create, a branch list the owner
// may carry but does not have yet is synthesized empty on the owner.
func (t *Tree) ResolveList(group Path, create bool) (*List, error) {
	l, err := t.locate(group)
	if err != nil {
		return nil, err
	}
	if !l.exists() {
		if !create {
			return nil, fmt.Errorf("%w: %s does not exist", ErrPathOutOfRange, group)
		}
		l.set([]*conditionals.Node{})
	}
	return l, nil
}

// Insert places n at index of group and returns its path.
func (t *Tree) Insert(group Path, index int, n *conditionals.Node) (Path, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: nil node", ErrBadPath)
	}
	l, err := t.locate(group)
	if err != nil {
		return nil, err
	}
	if index < 0 || index > l.Len() {
		return nil, fmt.Errorf("%w: index %d in %s (len %d)", ErrPathOutOfRange, index, group, l.Len())
	}
	l.set(InsertAt(l.Nodes(), index, n))
	return group.At(index), nil
}

// Duplicate deep-clones the node at p and inserts the copy right after it.
func (t *Tree) Duplicate(p Path) (Path, error) {
	node, ok := t.ResolveNode(p)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPathOutOfRange, p)
	}
	idx, _ := p.Index()
	return t.Insert(p.Group(), idx+1, node.Clone())
}

// Delete removes the node at p. The returned path is the selection that
// should follow: the node now at the same index, else the previous one, else
// the (now empty) group itself.
func (t *Tree) Delete(p Path) (Path, error) {
	if _, ok := t.ResolveNode(p); !ok {
		return nil, fmt.Errorf("%w: %s", ErrPathOutOfRange, p)
	}
	group := p.Group()
	l, err := t.locate(group)
	if err != nil {
		return nil, err
	}
	idx, _ := p.Index()
	nodes := RemoveAt(l.Nodes(), idx)
	l.set(nodes)

	switch {
	case len(nodes) == 0:
		return group, nil
	case idx < len(nodes):
		return group.At(idx), nil
	default:
		return group.At(len(nodes) - 1), nil
	}
}

// Move swaps the node at p with its neighbour at index+delta (delta is ±1).
// At a list boundary it is a no-op: the same path comes back with moved false.
func (t *Tree) Move(p Path, delta int) (Path, bool, error) {
	if delta != 1 && delta != -1 {
		return p, false, fmt.Errorf("%w: move delta must be 1 or -1, got %d", ErrBadPath, delta)
	}
	if _, ok := t.ResolveNode(p); !ok {
		return p, false, fmt.Errorf("%w: %s", ErrPathOutOfRange, p)
	}
	l, err := t.locate(p.Group())
	if err != nil {
		return p, false, err
	}
	idx, _ := p.Index()
	newIdx, moved := SwapNeighbor(l.Nodes(), idx, delta)
	if !moved {
		return p, false, nil
	}
	return p.Group().At(newIdx), true, nil
}

// Relocate moves the node at p into group at index, where index counts
// positions after the node has been taken out. The destination goes through
// the same group rule as every other edit, and a node can never be dropped
// inside its own subtree.
func (t *Tree) Relocate(p Path, group Path, index int) (Path, error) {
	node, ok := t.ResolveNode(p)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPathOutOfRange, p)
	}
	if p.Contains(group) {
		return nil, fmt.Errorf("%w: cannot move %s into itself", ErrNotGroup, p)
	}
	src, err := t.locate(p.Group())
	if err != nil {
		return nil, err
	}
	dst, err := t.locate(group)
	if err != nil {
		return nil, err
	}

	srcIdx, _ := p.Index()
	sameList := src.owner == dst.owner && (src.owner == nil || src.branch == dst.branch)
	dstLen := dst.Len()
	if sameList {
		dstLen--
	}
	if index < 0 || index > dstLen {
		return nil, fmt.Errorf("%w: index %d in %s (len %d)", ErrPathOutOfRange, index, group, dstLen)
	}

	src.set(RemoveAt(src.Nodes(), srcIdx))
	dst.set(InsertAt(dst.Nodes(), index, node))

	return shiftAfterRemoval(group, p).At(index), nil
}

// shiftAfterRemoval fixes up group when it runs through the list the node at
// removed was taken out of, past that node.
func shiftAfterRemoval(group, removed Path) Path {
	depth := len(removed) - 1
	if len(group) <= depth+1 {
		return group
	}
	for i := 0; i < depth; i++ {
		if group[i] != removed[i] {
			return group
		}
	}
	if group[depth].Name != removed[depth].Name || group[depth].Index <= removed[depth].Index {
		return group
	}
	out := group.clone()
	out[depth].Index--
	return out
}

// Normalize applies the legacy-name rewrites to every node in the forest.
func (t *Tree) Normalize() {
	for _, n := range *t.root {
		n.Normalize()
	}
}

// Walk visits every node depth-first with its path. Branches are visited in
// serialization order.
func (t *Tree) Walk(fn func(p Path, n *conditionals.Node)) {
	walkList(Root, *t.root, fn)
}

func walkList(group Path, list []*conditionals.Node, fn func(Path, *conditionals.Node)) {
	for i, n := range list {
		if n == nil {
			continue
		}
		p := group.At(i)
		fn(p, n)
		for _, branch := range conditionals.BranchOrder {
			if children, ok := n.Branches[branch]; ok {
				walkList(p.Child(branch), children, fn)
			}
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
