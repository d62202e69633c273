package implicits

import "github.com/funvibe/lumen/internal/types"

// TermRefSet deduplicates term references by semantic equality: same
// symbol, type-equivalent prefixes. Iteration is insertion-stable so that
// diagnostics stay reproducible.
type TermRefSet struct {
	prefixes map[*types.Symbol][]types.Type
	order    []types.TermRef
}

func NewTermRefSet() *TermRefSet {
	return &TermRefSet{prefixes: make(map[*types.Symbol][]types.Type)}
}

// Add inserts ref unless an equivalent reference is already present.
func (s *TermRefSet) Add(ref types.TermRef) {
	if ref.Sym == nil {
		return
	}
	known := s.prefixes[ref.Sym]
	for _, p := range known {
		if p == ref.Prefix || types.Same(p, ref.Prefix, nil) {
			return
		}
	}
	s.prefixes[ref.Sym] = append(known, ref.Prefix)
	s.order = append(s.order, ref)
}

// Union adds all of other's references.
func (s *TermRefSet) Union(other *TermRefSet) {
	if other == nil {
		return
	}
	for _, ref := range other.order {
		s.Add(ref)
	}
}

// Foreach visits the references in insertion order.
func (s *TermRefSet) Foreach(f func(types.TermRef)) {
	for _, ref := range s.order {
		f(ref)
	}
}

// Refs returns the references in insertion order.
func (s *TermRefSet) Refs() []types.TermRef {
	out := make([]types.TermRef, len(s.order))
	copy(out, s.order)
	return out
}

// Len is the number of distinct references.
func (s *TermRefSet) Len() int { return len(s.order) }

// Contains reports semantic membership.
func (s *TermRefSet) Contains(ref types.TermRef) bool {
	for _, p := range s.prefixes[ref.Sym] {
		if p == ref.Prefix || types.Same(p, ref.Prefix, nil) {
			return true
		}
	}
	return false
}
