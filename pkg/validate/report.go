package validate

import (
	"fmt"
	"strings"
)

// Group is the subsystem a diagnostic belongs to.
type Group string

const (
	GroupSchema    Group = "schema"
	GroupReference Group = "reference"
	GroupChain     Group = "chain"
	GroupTree      Group = "tree"
)

// Groups lists every group in display order.
var Groups = []Group{GroupSchema, GroupReference, GroupChain, GroupTree}

// Diagnostic is one advisory finding.
type Diagnostic struct {
	Group   Group
	Where   string
	Message string
}

func (d Diagnostic) String() string {
	if d.Where == "" {
		return d.Message
	}
	return d.Where + ": " + d.Message
}

// Report accumulates diagnostics.
type Report struct {
	Diagnostics []Diagnostic
}

func (r *Report) add(g Group, where, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Group:   g,
		Where:   where,
		Message: fmt.Sprintf(format, args...),
	})
}

// Empty reports whether nothing was found.
func (r *Report) Empty() bool {
	return len(r.Diagnostics) == 0
}

// Len returns the number of diagnostics.
func (r *Report) Len() int {
	return len(r.Diagnostics)
}

// ByGroup returns the diagnostics of one group in discovery order.
func (r *Report) ByGroup(g Group) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Group == g {
			out = append(out, d)
		}
	}
	return out
}

// Lines flattens the report for display, grouped in Groups order.
func (r *Report) Lines() []string {
	lines := make([]string, 0, len(r.Diagnostics))
	for _, g := range Groups {
		for _, d := range r.ByGroup(g) {
			lines = append(lines, fmt.Sprintf("[%s] %s", g, d))
		}
	}
	return lines
}

// Summary returns a one-line count per group, e.g. "2 schema, 1 chain".
func (r *Report) Summary() string {
	if r.Empty() {
		return "no problems found"
	}
	var parts []string
	for _, g := range Groups {
		if n := len(r.ByGroup(g)); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, g))
		}
	}
	return strings.Join(parts, ", ")
}
