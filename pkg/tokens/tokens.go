// Package tokens implements the compact condition/trigger grammar stored in
// dialogue records:
//
//	tokens := token (',' ws* token)*
//	token  := type (':' value)?
//
// Parsing is permissive. A token without a type is kept as-is so that the
// validator can report it; nothing here ever rejects input.
package tokens

import (
	"regexp"
	"strings"
)

// Token is one type:value entry.
type Token struct {
	Type     string
	Value    string
	HasValue bool // true when a ':' separator was present, even with an empty value
}

// Malformed reports whether the token has no type.
func (t Token) Malformed() bool {
	return t.Type == ""
}

// String renders the token in its canonical form.
func (t Token) String() string {
	if !t.HasValue {
		return t.Type
	}
	return t.Type + ":" + t.Value
}

// Parse splits raw into tokens. Empty input yields an empty (nil) slice.
func Parse(raw string) []Token {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []Token
	for _, piece := range strings.Split(raw, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		typ, value, found := strings.Cut(piece, ":")
		out = append(out, Token{
			Type:     strings.TrimSpace(typ),
			Value:    strings.TrimSpace(value),
			HasValue: found,
		})
	}
	return out
}

// Format is the inverse of Parse. An empty slice formats to "", which callers
// should treat as "remove the field".
func Format(toks []Token) string {
	parts := make([]string, 0, len(toks))
	for _, t := range toks {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, ", ")
}

// NormalizeWhitespace returns the canonical spelling of raw, equal to
// Format(Parse(raw)) for well-formed input.
func NormalizeWhitespace(raw string) string {
	return Format(Parse(raw))
}

// Mode selects which part of a token value holds the referenced id.
type Mode int

const (
	// Exact compares the whole value.
	Exact Mode = iota
	// LeadingSegment compares the part before a quantity suffix (`*`, `|` or `x<digits>`).
	LeadingSegment
	// FirstPipeSegment compares the part before the first `|` (scene|context composites).
	FirstPipeSegment
)

func (m Mode) String() string {
	switch m {
	case LeadingSegment:
		return "leading-segment"
	case FirstPipeSegment:
		return "first-pipe-segment"
	default:
		return "exact"
	}
}

var quantitySuffix = regexp.MustCompile(`^(.+?)(x\d+)$`)

// Split separates value into the id compared under mode and the untouched rest.
// Key + rest always reassembles value.
func (m Mode) Split(value string) (key, rest string) {
	switch m {
	case LeadingSegment:
		if i := strings.IndexAny(value, "*|"); i >= 0 {
			return value[:i], value[i:]
		}
		if sm := quantitySuffix.FindStringSubmatch(value); sm != nil {
			return strings.TrimRight(sm[1], " "), value[len(strings.TrimRight(sm[1], " ")):]
		}
		return value, ""
	case FirstPipeSegment:
		if i := strings.IndexByte(value, '|'); i >= 0 {
			return value[:i], value[i:]
		}
		return value, ""
	default:
		return value, ""
	}
}

// Key returns the id part of value under mode.
func (m Mode) Key(value string) string {
	key, _ := m.Split(value)
	return key
}

// RewriteValue replaces oldID with newID in every token whose type is in
// types and whose value matches oldID under mode. Suffixes are preserved.
// It reports whether any token changed; toks is modified in place.
func RewriteValue(toks []Token, types map[string]bool, oldID, newID string, mode Mode) bool {
	changed := false
	for i := range toks {
		if !types[toks[i].Type] || !toks[i].HasValue {
			continue
		}
		key, rest := mode.Split(toks[i].Value)
		if key != oldID {
			continue
		}
		toks[i].Value = newID + rest
		changed = true
	}
	return changed
}
