package implicits

import (
	"testing"

	"github.com/funvibe/lumen/internal/types"
)

func candidateFor(sym *types.Symbol) Candidate {
	return Candidate{Ref: ImplicitRef{Ref: types.TermRef{Prefix: types.NoPrefix, Sym: sym}}, Kind: KindValue, Level: 1}
}

func TestDivergenceOnGrowth(t *testing.T) {
	fCls := &types.TypeSymbol{Name: "F", TypeParams: []string{"T"}}
	gCls := &types.TypeSymbol{Name: "G", TypeParams: []string{"T"}}
	aCls := &types.TypeSymbol{Name: "A"}
	fa := types.NewApplied(fCls, types.NewNamed(aCls))
	fga := types.NewApplied(fCls, types.NewApplied(gCls, types.NewNamed(aCls)))
	fgga := types.NewApplied(fCls, types.NewApplied(gCls, types.NewApplied(gCls, types.NewNamed(aCls))))

	cand := candidateFor(implicitDef("f", fa))
	st := types.NewState()
	h := NewSearchHistory().Nest(cand, fa)

	// First step grows the covering set: not yet divergent.
	if h.CheckDivergence(cand, fga, st) {
		t.Errorf("growing the covering set is not divergence")
	}
	h = h.Nest(cand, fga)
	// Second step: equal covering set, strictly larger size.
	if !h.CheckDivergence(cand, fgga, st) {
		t.Errorf("equal covering set with growing size should diverge")
	}
}

func TestDivergenceOnLoop(t *testing.T) {
	fCls := &types.TypeSymbol{Name: "F", TypeParams: []string{"T"}}
	aCls := &types.TypeSymbol{Name: "A"}
	fa := types.NewApplied(fCls, types.NewNamed(aCls))

	cand := candidateFor(implicitDef("f", fa))
	st := types.NewState()
	h := NewSearchHistory().Nest(cand, fa)
	if !h.CheckDivergence(cand, fa, st) {
		t.Errorf("revisiting the same approximated type should diverge")
	}
}

func TestDivergenceIgnoresOtherCandidates(t *testing.T) {
	fCls := &types.TypeSymbol{Name: "F", TypeParams: []string{"T"}}
	aCls := &types.TypeSymbol{Name: "A"}
	fa := types.NewApplied(fCls, types.NewNamed(aCls))

	st := types.NewState()
	h := NewSearchHistory().Nest(candidateFor(implicitDef("f", fa)), fa)
	other := candidateFor(implicitDef("g", fa))
	if h.CheckDivergence(other, fa, st) {
		t.Errorf("frames of other candidates must not trigger divergence")
	}
}

func TestBynameFramePermitsKnot(t *testing.T) {
	showCls := &types.TypeSymbol{Name: "Show", TypeParams: []string{"T"}}
	recCls := &types.TypeSymbol{Name: "Rec"}
	showRec := types.NewApplied(showCls, types.NewNamed(recCls))
	byname := &types.ByName{Elem: showRec}

	cand := candidateFor(implicitDef("recShow", showRec))
	st := types.NewState()
	h := NewSearchHistory().Nest(cand, showRec)

	// The incoming by-name prototype separates the frames: no divergence.
	if h.CheckDivergence(cand, byname, st) {
		t.Errorf("a by-name prototype covered by an active frame ties the knot instead of diverging")
	}
	// Without the by-name crossing, the same shape loops.
	if !h.CheckDivergence(cand, showRec, st) {
		t.Errorf("the plain shape still diverges")
	}
}

func TestRecursiveRefLinksDictionary(t *testing.T) {
	showCls := &types.TypeSymbol{Name: "Show", TypeParams: []string{"T"}}
	recCls := &types.TypeSymbol{Name: "Rec"}
	showRec := types.NewApplied(showCls, types.NewNamed(recCls))
	byname := &types.ByName{Elem: showRec}

	cand := candidateFor(implicitDef("recShow", showRec))
	st := types.NewState()
	h := NewSearchHistory().Nest(cand, showRec)

	ref := h.RecursiveRef(byname, st)
	if !ref.Exists() {
		t.Fatalf("a by-name re-request of an active frame should link a dictionary entry")
	}
	if !types.Same(ref.Sym.Info(), showRec, nil) {
		t.Errorf("the entry is typed at the frame's widened type, got %s", ref.Sym.Info())
	}

	// The link is stable: asking again returns the same reference.
	again := h.RecursiveRef(byname, st)
	if again.Sym != ref.Sym {
		t.Errorf("repeated knots must reuse the entry")
	}
}

func TestRecursiveRefNeedsBynameSeparation(t *testing.T) {
	showCls := &types.TypeSymbol{Name: "Show", TypeParams: []string{"T"}}
	recCls := &types.TypeSymbol{Name: "Rec"}
	showRec := types.NewApplied(showCls, types.NewNamed(recCls))

	cand := candidateFor(implicitDef("recShow", showRec))
	st := types.NewState()
	h := NewSearchHistory().Nest(cand, showRec)

	if h.RecursiveRef(showRec, st).Exists() {
		t.Errorf("without an active by-name prototype there is nothing to tie")
	}
	if !h.Root().Empty() {
		t.Errorf("no entry may be allocated for a refused knot")
	}
}
