package conditionals

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Branch names written back to disk.
const (
	BranchDo         = "do"
	BranchElseDo     = "elseDo"
	BranchOnComplete = "on_complete"
)

// BranchOrder is the order branches are serialized in.
var BranchOrder = []string{BranchDo, BranchElseDo, BranchOnComplete}

// legacyBranches maps every accepted spelling to the canonical branch name.
var legacyBranches = map[string]string{
	"do":          BranchDo,
	"elseDo":      BranchElseDo,
	"else":        BranchElseDo,
	"on_complete": BranchOnComplete,
	"onComplete":  BranchOnComplete,
}

// legacyFields maps old field spellings to the current name.
var legacyFields = map[string]string{
	"cutscene_id": "scene_id",
}

// Field is one attribute of a rule node. Value is a string, json.Number,
// bool, nil, or json.RawMessage for nested objects and arrays.
type Field struct {
	Name  string
	Value any
}

// Node is a trigger, condition or action. The variant is selected by Type;
// Lookup returns its field table. Unrecognized types keep every attribute
// in Fields so they survive a load/save cycle unchanged.
type Node struct {
	Type     string
	Fields   []Field
	Branches map[string][]*Node
}

// New builds a node from name/value pairs, e.g. New("enter_room", "room_id", "docks").
func New(typ string, kv ...any) *Node {
	n := &Node{Type: typ}
	for i := 0; i+1 < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			continue
		}
		n.Set(name, kv[i+1])
	}
	return n
}

// Get returns the raw value of a field.
func (n *Node) Get(name string) (any, bool) {
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Str returns a field as a string. Numbers are returned in their JSON spelling.
func (n *Node) Str(name string) (string, bool) {
	v, ok := n.Get(name)
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	}
	return "", false
}

// Has reports whether the field is present with a non-empty value.
func (n *Node) Has(name string) bool {
	v, ok := n.Get(name)
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return s != ""
	}
	return true
}

// Set assigns a field, keeping its position if it already exists.
func (n *Node) Set(name string, value any) {
	for i := range n.Fields {
		if n.Fields[i].Name == name {
			n.Fields[i].Value = value
			return
		}
	}
	n.Fields = append(n.Fields, Field{Name: name, Value: value})
}

// Delete removes a field. It reports whether the field existed.
func (n *Node) Delete(name string) bool {
	for i := range n.Fields {
		if n.Fields[i].Name == name {
			n.Fields = append(n.Fields[:i], n.Fields[i+1:]...)
			return true
		}
	}
	return false
}

// Branch returns the named branch list (nil when absent).
func (n *Node) Branch(name string) []*Node {
	if n.Branches == nil {
		return nil
	}
	return n.Branches[name]
}

// Clone returns a deep copy.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Type: n.Type}
	if n.Fields != nil {
		c.Fields = make([]Field, len(n.Fields))
		for i, f := range n.Fields {
			c.Fields[i] = Field{Name: f.Name, Value: cloneValue(f.Value)}
		}
	}
	if n.Branches != nil {
		c.Branches = make(map[string][]*Node, len(n.Branches))
		for name, list := range n.Branches {
			cl := make([]*Node, len(list))
			for i, child := range list {
				cl[i] = child.Clone()
			}
			c.Branches[name] = cl
		}
	}
	return c
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case json.RawMessage:
		return append(json.RawMessage(nil), t...)
	case []*Node:
		out := make([]*Node, len(t))
		for i, child := range t {
			out[i] = child.Clone()
		}
		return out
	}
	return v
}

// Normalize rewrites legacy spellings in place, recursively: `else` becomes
// `elseDo`, `onComplete` becomes `on_complete`, `cutscene_id` becomes
// `scene_id`. Branch keys are lifted out of Fields only for types that own
// that branch; anything else stays a plain field.
func (n *Node) Normalize() {
	if n == nil {
		return
	}
	for legacy, current := range legacyFields {
		v, ok := n.Get(legacy)
		if !ok {
			continue
		}
		n.Delete(legacy)
		if _, exists := n.Get(current); !exists {
			n.Set(current, v)
		}
	}

	allowed := BranchesFor(n.Type)
	if len(allowed) > 0 {
		kept := n.Fields[:0:0]
		for _, f := range n.Fields {
			canonical, isBranch := legacyBranches[f.Name]
			if !isBranch || !contains(allowed, canonical) {
				kept = append(kept, f)
				continue
			}
			list, err := decodeBranch(f.Value)
			if err != nil {
				kept = append(kept, f)
				continue
			}
			if n.Branches == nil {
				n.Branches = make(map[string][]*Node)
			}
			if f.Name == canonical {
				n.Branches[canonical] = append(list, n.Branches[canonical]...)
			} else {
				n.Branches[canonical] = append(n.Branches[canonical], list...)
			}
		}
		n.Fields = kept
	}

	for _, list := range n.Branches {
		for _, child := range list {
			child.Normalize()
		}
	}
}

func decodeBranch(v any) ([]*Node, error) {
	switch t := v.(type) {
	case nil:
		return []*Node{}, nil
	case []*Node:
		return t, nil
	case json.RawMessage:
		var list []*Node
		if err := json.Unmarshal(t, &list); err != nil {
			return nil, err
		}
		if list == nil {
			list = []*Node{}
		}
		return list, nil
	}
	return nil, fmt.Errorf("branch value has unexpected type %T", v)
}

// CanonicalBranch maps any accepted branch spelling to its canonical name.
func CanonicalBranch(name string) (string, bool) {
	c, ok := legacyBranches[name]
	return c, ok
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// UnmarshalJSON decodes a node while keeping the authored field order.
func (n *Node) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("rule node must be a JSON object")
	}

	*n = Node{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}

		if key == "type" {
			if err := json.Unmarshal(raw, &n.Type); err != nil {
				return fmt.Errorf("rule node type must be a string: %w", err)
			}
			continue
		}

		value, err := decodeValue(raw)
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		n.Fields = append(n.Fields, Field{Name: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	n.Normalize()
	return nil
}

func decodeValue(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return append(json.RawMessage(nil), trimmed...), nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// MarshalJSON writes type first, then fields in order, then branches in
// BranchOrder. Branches are only ever written under their canonical names.
func (n Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeKV := func(key string, value any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		buf.Write(v)
		return nil
	}

	if err := writeKV("type", n.Type); err != nil {
		return nil, err
	}
	for _, f := range n.Fields {
		if err := writeKV(f.Name, f.Value); err != nil {
			return nil, err
		}
	}
	for _, name := range BranchOrder {
		list, ok := n.Branches[name]
		if !ok {
			continue
		}
		if list == nil {
			list = []*Node{}
		}
		if err := writeKV(name, list); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
