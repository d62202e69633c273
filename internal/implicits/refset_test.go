package implicits

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/funvibe/lumen/internal/types"
)

func TestTermRefSetDedup(t *testing.T) {
	obj := &types.TypeSymbol{Name: "Obj"}
	other := &types.TypeSymbol{Name: "Other"}
	x := types.NewSymbol("x", obj, 0, types.NothingType)

	s := NewTermRefSet()
	s.Add(types.TermRef{Prefix: types.NewNamed(obj), Sym: x})
	s.Add(types.TermRef{Prefix: types.NewNamed(obj), Sym: x}) // equivalent prefix
	s.Add(types.TermRef{Prefix: types.NewNamed(other), Sym: x})

	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (same symbol, two distinct prefixes)", s.Len())
	}
	if !s.Contains(types.TermRef{Prefix: types.NewNamed(obj), Sym: x}) {
		t.Errorf("semantic membership failed")
	}
}

func TestTermRefSetOrderStable(t *testing.T) {
	var refs []types.TermRef
	for _, name := range []string{"c", "a", "b"} {
		refs = append(refs, types.TermRef{Prefix: types.NoPrefix, Sym: types.NewSymbol(name, nil, 0, types.NothingType)})
	}

	s := NewTermRefSet()
	for _, r := range refs {
		s.Add(r)
	}
	var got []string
	s.Foreach(func(r types.TermRef) { got = append(got, r.Sym.Name) })
	if diff := cmp.Diff([]string{"c", "a", "b"}, got); diff != "" {
		t.Errorf("iteration order mismatch (-want +got):\n%s", diff)
	}
}

func TestTermRefSetUnionIdempotent(t *testing.T) {
	x := types.NewSymbol("x", nil, 0, types.NothingType)
	y := types.NewSymbol("y", nil, 0, types.NothingType)

	s1 := NewTermRefSet()
	s1.Add(types.TermRef{Prefix: types.NoPrefix, Sym: x})
	s2 := NewTermRefSet()
	s2.Add(types.TermRef{Prefix: types.NoPrefix, Sym: x})
	s2.Add(types.TermRef{Prefix: types.NoPrefix, Sym: y})

	s1.Union(s2)
	s1.Union(s2)
	if s1.Len() != 2 {
		t.Errorf("Len after repeated union = %d, want 2", s1.Len())
	}
	s1.Union(nil)
	if s1.Len() != 2 {
		t.Errorf("union with nil changed the set")
	}
}
