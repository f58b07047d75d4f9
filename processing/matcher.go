// Package processing rewrites queries the remote dialect cannot run into ones it
// can, and adapts the returned payload so it reads as the answer to the
// original query.
package processing

import "github.com/sheetsql/sheets-client-go/ast"

// Matcher recognizes query shapes by structural subset matching against a
// pattern tree. The pattern is never modified.
type Matcher struct {
	pattern ast.Node
}

// NewMatcher returns a Matcher for pattern. ast.Any in the pattern matches any
// value.
func NewMatcher(pattern ast.Node) *Matcher {
	return &Matcher{pattern: pattern}
}

// Match reports whether candidate contains the pattern.
func (m *Matcher) Match(candidate ast.Node) bool {
	return IsSubset(m.pattern, candidate)
}

// IsSubset reports whether pattern is contained in candidate:
//   - a wildcard matches anything;
//   - a map matches a map holding all of its keys with matching values, or a
//     list with at least one matching element;
//   - a list matches a list when every pattern element matches some candidate
//     element, in any order;
//   - any other leaf must be equal to the candidate.
func IsSubset(pattern, candidate ast.Node) bool {
	switch p := pattern.(type) {
	case ast.Wildcard:
		return true
	case ast.Map:
		switch c := candidate.(type) {
		case ast.Map:
			for key, sub := range p {
				value, ok := c[key]
				if !ok || !IsSubset(sub, value) {
					return false
				}
			}
			return true
		case ast.List:
			for _, element := range c {
				if IsSubset(p, element) {
					return true
				}
			}
		}
		return false
	case ast.List:
		c, ok := candidate.(ast.List)
		if !ok {
			return false
		}
		for _, sub := range p {
			if !containsMatch(sub, c) {
				return false
			}
		}
		return true
	case nil:
		return false
	default:
		return candidate != nil && ast.Equal(pattern, candidate)
	}
}

func containsMatch(pattern ast.Node, candidates ast.List) bool {
	for _, c := range candidates {
		if IsSubset(pattern, c) {
			return true
		}
	}
	return false
}
