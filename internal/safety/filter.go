// Package safety screens user input before it reaches the model.
package safety

import (
	"strings"
)

// DefaultDenylist terms that block a query wherever they appear
var DefaultDenylist = []string{"delete", "drop", "update", "remove", "insert", "truncate", "alter"}

// Verdict result of a check. Keyword is the first matching term.
type Verdict struct {
	Blocked bool
	Keyword string
}

// Filter case-insensitive substring denylist. Immutable after construction.
type Filter struct {
	terms []string
}

// NewFilter creates a filter with the default terms plus extra ones
func NewFilter(extra ...string) *Filter {
	seen := make(map[string]bool)
	terms := make([]string, 0, len(DefaultDenylist)+len(extra))
	for _, term := range append(append([]string{}, DefaultDenylist...), extra...) {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		terms = append(terms, term)
	}
	return &Filter{terms: terms}
}

// Check reports whether text contains a denylisted term. This is a coarse
// heuristic: "Deltaupdate" is blocked too.
func (f *Filter) Check(text string) Verdict {
	lower := strings.ToLower(text)
	for _, term := range f.terms {
		if strings.Contains(lower, term) {
			return Verdict{Blocked: true, Keyword: term}
		}
	}
	return Verdict{}
}

// Terms returns a copy of the active denylist
func (f *Filter) Terms() []string {
	return append([]string(nil), f.terms...)
}
