package expr

import (
	"fmt"
	"slices"
)

// Walk calls fn for every node of the tree in a deterministic pre-order:
// the node itself, then its children left to right. If fn returns an error
// the walk stops and returns it. Walk is exhaustive over the sealed node
// set; an unknown node type is an error, never skipped.
func Walk(e Expr, fn func(Expr) error) error {
	if e == nil {
		return fmt.Errorf("expr: walk of nil expression")
	}
	if err := fn(e); err != nil {
		return err
	}
	switch n := e.(type) {
	case Variable, IntLit:
		return nil
	case Sum:
		for _, t := range n.Terms {
			if err := Walk(t, fn); err != nil {
				return err
			}
		}
		return nil
	case Product:
		for _, f := range n.Factors {
			if err := Walk(f, fn); err != nil {
				return err
			}
		}
		return nil
	case Negate:
		return Walk(n.Operand, fn)
	case Subscript:
		for _, ix := range n.Indices {
			if err := Walk(ix, fn); err != nil {
				return err
			}
		}
		return nil
	case LinearSubscript:
		return Walk(n.Index, fn)
	case Reduction:
		return Walk(n.Body, fn)
	case TypeCast:
		return Walk(n.Operand, fn)
	case SubArrayRef:
		return Walk(n.Subscript, fn)
	default:
		return fmt.Errorf("expr: unknown node type %T", e)
	}
}

// Variables returns the names of every Variable node in the tree, sorted
// and deduplicated. Array names of subscripts are not included; they are
// not value reads of the name itself.
func Variables(e Expr) ([]string, error) {
	seen := make(map[string]struct{})
	err := Walk(e, func(n Expr) error {
		if v, ok := n.(Variable); ok {
			seen[v.Name] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	slices.Sort(names)
	return names, nil
}

// ArrayNames returns the names of every array referenced through a
// Subscript, LinearSubscript or SubArrayRef node, sorted and deduplicated.
func ArrayNames(e Expr) ([]string, error) {
	seen := make(map[string]struct{})
	err := Walk(e, func(n Expr) error {
		switch s := n.(type) {
		case Subscript:
			seen[s.Array] = struct{}{}
		case LinearSubscript:
			seen[s.Array] = struct{}{}
		case SubArrayRef:
			seen[s.Subscript.Array] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	slices.Sort(names)
	return names, nil
}
