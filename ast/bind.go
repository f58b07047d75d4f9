package ast

import "fmt"

// Bind returns a copy of query with its '?' placeholders replaced by params, in
// order. Values are bound as tree nodes, so no parameter can change the shape
// of the query.
func Bind(query Map, params []Node) (Map, error) {
	b := &binder{params: params}
	bound, err := b.bind(query)
	if err != nil {
		return nil, err
	}
	if b.count != len(params) {
		return nil, fmt.Errorf("%w: query has %d placeholders, got %d params", ErrInvalidQuery, b.count, len(params))
	}
	return bound.(Map), nil
}

type binder struct {
	params []Node
	count  int
}

func (b *binder) bind(n Node) (Node, error) {
	switch v := n.(type) {
	case Map:
		if index, ok := v[KeyParam].(Number); ok && len(v) == 1 {
			b.count++
			i := int(index) - 1
			if i < 0 || i >= len(b.params) {
				return nil, fmt.Errorf("%w: no value for placeholder %d", ErrInvalidQuery, int(index))
			}
			return Clone(b.params[i]), nil
		}
		out := make(Map, len(v))
		for k, child := range v {
			bound, err := b.bind(child)
			if err != nil {
				return nil, err
			}
			out[k] = bound
		}
		return out, nil
	case List:
		out := make(List, len(v))
		for i, child := range v {
			bound, err := b.bind(child)
			if err != nil {
				return nil, err
			}
			out[i] = bound
		}
		return out, nil
	default:
		return n, nil
	}
}
