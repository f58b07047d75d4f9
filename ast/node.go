// Package ast holds the tree form of a parsed query. The tree is a sealed union of
// maps, lists and scalars so that rewrite rules can recognize query shapes by
// pattern instead of walking parser-specific types.
//
// A query is a Map with the keys "select", "from", "where", "groupby", "having",
// "orderby", "limit" and "offset". Select terms are String("*") or
// Map{"value": expr, "name": alias}. Column references are Strings, string
// literals are Map{"literal": s}, and function calls and operators are single-key
// maps from the lowercase name to the argument (one argument) or a List of
// arguments.
package ast

import "sort"

// Node is a sealed interface: only the types in this file implement it.
type Node interface {
	node()
}

// Map is a mapping node.
type Map map[string]Node

// List is a sequence node.
type List []Node

// String is a column reference, an operator argument or any other text leaf.
type String string

// Number is a numeric leaf.
type Number float64

// Bool is a boolean leaf.
type Bool bool

// Null is the SQL NULL leaf.
type Null struct{}

// Wildcard only appears in patterns and matches any value.
type Wildcard struct{}

func (Map) node()      {}
func (List) node()     {}
func (String) node()   {}
func (Number) node()   {}
func (Bool) node()     {}
func (Null) node()     {}
func (Wildcard) node() {}

// Any is the wildcard pattern leaf.
var Any Node = Wildcard{}

// Keys returns the map keys in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With returns a shallow copy of m with key set to value.
func (m Map) With(key string, value Node) Map {
	out := make(Map, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[key] = value
	return out
}

// Equal reports whether two trees are structurally identical.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case Map:
		y, ok := b.(Map)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, v := range x {
			w, ok := y[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	default:
		return a == b
	}
}

// Clone returns a deep copy of n.
func Clone(n Node) Node {
	switch x := n.(type) {
	case Map:
		out := make(Map, len(x))
		for k, v := range x {
			out[k] = Clone(v)
		}
		return out
	case List:
		out := make(List, len(x))
		for i, v := range x {
			out[i] = Clone(v)
		}
		return out
	default:
		return n
	}
}
