package implicits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/lumen/internal/config"
	"github.com/funvibe/lumen/internal/tree"
	"github.com/funvibe/lumen/internal/types"
)

func TestSingleConversionView(t *testing.T) {
	intCls := &types.TypeSymbol{Name: "Int"}
	strCls := &types.TypeSymbol{Name: "String"}
	intTpe, strTpe := types.NewNamed(intCls), types.NewNamed(strCls)

	intToString := implicitDef("intToString", &types.MethodType{
		ParamNames: []string{"x"}, Params: []types.Type{intTpe}, Res: strTpe,
	})
	ctx := nestedScope(testContext(nil), "main", intToString)
	arg := argIdent("x", intTpe)

	res := InferView(ctx, arg, strTpe)
	suc, ok := res.(*Success)
	require.True(t, ok, "expected success, got %s", res)
	assert.Equal(t, "intToString(x)", suc.Tree.String())
	assert.Equal(t, intToString, suc.Ref.Sym)

	// The triviality gate: converting to Any never searches.
	res = InferView(ctx, arg, types.AnyType)
	fail, ok := res.(*Failure)
	require.True(t, ok)
	assert.IsType(t, &NoMatching{}, fail.Reason)
}

func TestAmbiguousValues(t *testing.T) {
	ordCls := &types.TypeSymbol{Name: "Ordering", TypeParams: []string{"T"}}
	xCls := &types.TypeSymbol{Name: "X"}
	ordX := types.NewApplied(ordCls, types.NewNamed(xCls))

	ordA := implicitDef("ordA", ordX)
	ordB := implicitDef("ordB", ordX)
	ctx := nestedScope(testContext(nil), "main", ordA, ordB)

	res := InferImplicit(ctx, ordX, nil)
	fail, ok := res.(*Failure)
	require.True(t, ok, "expected ambiguity, got %s", res)
	amb, ok := fail.Reason.(*Ambiguous)
	require.True(t, ok, "expected Ambiguous, got %s", fail)
	got := []*types.Symbol{amb.Alt1.Ref.Sym, amb.Alt2.Ref.Sym}
	assert.ElementsMatch(t, []*types.Symbol{ordA, ordB}, got)
}

func TestShadowedContextual(t *testing.T) {
	cCls := &types.TypeSymbol{Name: "C"}
	dCls := &types.TypeSymbol{Name: "D"}

	outerC := implicitDef("c", types.NewNamed(cCls))
	innerC := types.NewSymbol("c", nil, 0, types.NewNamed(dCls)) // not implicit
	ctx := nestedScope(testContext(nil), "outer", outerC)
	ctx = nestedScope(ctx, "inner", innerC)

	res := InferImplicit(ctx, types.NewNamed(cCls), nil)
	fail, ok := res.(*Failure)
	require.True(t, ok, "expected shadowing failure, got %s", res)
	sh, ok := fail.Reason.(*Shadowed)
	require.True(t, ok, "expected Shadowed, got %s", fail)
	assert.Equal(t, outerC, sh.Ref.Sym)
	assert.Equal(t, innerC, sh.By)
}

func TestRecursiveBynameTiesKnot(t *testing.T) {
	showCls := &types.TypeSymbol{Name: "Show", TypeParams: []string{"T"}}
	recCls := &types.TypeSymbol{Name: "Rec"}
	showRec := types.NewApplied(showCls, types.NewNamed(recCls))

	recShow := implicitDef("recShow", usingMethod(&types.ByName{Elem: showRec}, showRec))
	ctx := nestedScope(testContext(nil), "main", recShow)

	res := InferImplicit(ctx, showRec, nil)
	suc, ok := res.(*Success)
	require.True(t, ok, "expected success, got %s", res)

	block, ok := suc.Tree.(*tree.Block)
	require.True(t, ok, "expected a dictionary block, got %s", suc.Tree)
	require.Len(t, block.Stats, 2)
	classDef, ok := block.Stats[0].(*tree.ClassDef)
	require.True(t, ok)
	require.Len(t, classDef.Fields, 1)
	assert.True(t, classDef.Fields[0].Lazy)
	// The lazy field ties recShow's by-name argument back to itself.
	assert.Contains(t, classDef.Fields[0].String(), "recShow")
	assert.Contains(t, classDef.Fields[0].String(), classDef.Fields[0].Sym.Name)
}

func TestRecursiveInstancesWithoutKnot(t *testing.T) {
	showCls := &types.TypeSymbol{Name: "Show", TypeParams: []string{"T"}}
	listCls := &types.TypeSymbol{Name: "List", TypeParams: []string{"T"}}
	intCls := &types.TypeSymbol{Name: "Int"}
	intTpe := types.NewNamed(intCls)
	showOf := func(t types.Type) types.Type { return types.NewApplied(showCls, t) }
	listOf := func(t types.Type) types.Type { return types.NewApplied(listCls, t) }

	intShow := implicitDef("intShow", showOf(intTpe))
	listShow := implicitDef("listShow", poly1(usingMethod(
		&types.ByName{Elem: showOf(tvar("T"))},
		showOf(listOf(tvar("T"))),
	)))
	ctx := nestedScope(testContext(nil), "main", intShow, listShow)

	res := InferImplicit(ctx, showOf(listOf(listOf(intTpe))), nil)
	suc, ok := res.(*Success)
	require.True(t, ok, "expected success, got %s", res)
	// Fully structural recursion needs no dictionary: the instances nest.
	_, isBlock := suc.Tree.(*tree.Block)
	assert.False(t, isBlock, "no by-name knot was tied, tree: %s", suc.Tree)
	idents := make(map[*types.Symbol]bool)
	tree.IdentSyms(suc.Tree, idents)
	assert.True(t, idents[intShow])
	assert.True(t, idents[listShow])
}

func TestDivergenceDetected(t *testing.T) {
	fCls := &types.TypeSymbol{Name: "F", TypeParams: []string{"T"}}
	gCls := &types.TypeSymbol{Name: "G", TypeParams: []string{"T"}}
	aCls := &types.TypeSymbol{Name: "A"}

	// bad[T](using F[G[T]]): F[T] grows its own obligation at every step.
	bad := implicitDef("bad", poly1(usingMethod(
		types.NewApplied(fCls, types.NewApplied(gCls, tvar("T"))),
		types.NewApplied(fCls, tvar("T")),
	)))
	ctx := nestedScope(testContext(nil), "main", bad)

	res := InferImplicit(ctx, types.NewApplied(fCls, types.NewNamed(aCls)), nil)
	fail, ok := res.(*Failure)
	require.True(t, ok, "expected divergence, got %s", res)
	div, ok := fail.Reason.(*Diverging)
	require.True(t, ok, "expected Diverging, got %s", fail)
	assert.Equal(t, bad, div.Ref.Sym)
}

func TestDerivedScopeFallback(t *testing.T) {
	ordCls := &types.TypeSymbol{Name: "Ord", TypeParams: []string{"T"}}
	moneyCls := &types.TypeSymbol{Name: "Money"}
	ordMoney := types.NewApplied(ordCls, types.NewNamed(moneyCls))
	companionFor(moneyCls, implicitDef("moneyOrd", ordMoney))

	ctx := nestedScope(testContext(nil), "main")
	res := InferImplicit(ctx, ordMoney, nil)
	suc, ok := res.(*Success)
	require.True(t, ok, "expected companion success, got %s", res)
	assert.Equal(t, "moneyOrd", suc.Ref.Sym.Name)
	assert.Equal(t, 0, suc.Level, "derived candidates sit below every contextual level")
}

func TestContextualBeatsDerived(t *testing.T) {
	ordCls := &types.TypeSymbol{Name: "Ord", TypeParams: []string{"T"}}
	moneyCls := &types.TypeSymbol{Name: "Money"}
	ordMoney := types.NewApplied(ordCls, types.NewNamed(moneyCls))
	companionFor(moneyCls, implicitDef("moneyOrd", ordMoney))

	localOrd := implicitDef("localOrd", ordMoney)
	ctx := nestedScope(testContext(nil), "main", localOrd)
	res := InferImplicit(ctx, ordMoney, nil)
	suc, ok := res.(*Success)
	require.True(t, ok)
	assert.Equal(t, localOrd, suc.Ref.Sym)
}

func TestInnerLevelPreferred(t *testing.T) {
	ordCls := &types.TypeSymbol{Name: "Ord", TypeParams: []string{"T"}}
	xCls := &types.TypeSymbol{Name: "X"}
	ordX := types.NewApplied(ordCls, types.NewNamed(xCls))

	ordOuter := implicitDef("ordOuter", ordX)
	ordInner := implicitDef("ordInner", ordX)
	ctx := nestedScope(testContext(nil), "outer", ordOuter)
	ctx = nestedScope(ctx, "inner", ordInner)

	res := InferImplicit(ctx, ordX, nil)
	suc, ok := res.(*Success)
	require.True(t, ok, "expected inner to win, got %s", res)
	assert.Equal(t, ordInner, suc.Ref.Sym)
}

func TestLowerArityPreferred(t *testing.T) {
	ordCls := &types.TypeSymbol{Name: "Ord", TypeParams: []string{"T"}}
	xCls := &types.TypeSymbol{Name: "X"}
	hCls := &types.TypeSymbol{Name: "H"}
	ordX := types.NewApplied(ordCls, types.NewNamed(xCls))

	viaH := implicitDef("viaH", usingMethod(types.NewNamed(hCls), ordX))
	plain := implicitDef("plain", ordX)
	hInst := implicitDef("hInst", types.NewNamed(hCls))
	ctx := nestedScope(testContext(nil), "main", viaH, plain, hInst)

	res := InferImplicit(ctx, ordX, nil)
	suc, ok := res.(*Success)
	require.True(t, ok, "expected arity tie-break, got %s", res)
	assert.Equal(t, plain, suc.Ref.Sym)
}

func TestNoPartialCommit(t *testing.T) {
	showCls := &types.TypeSymbol{Name: "Show", TypeParams: []string{"T"}}
	listCls := &types.TypeSymbol{Name: "List", TypeParams: []string{"T"}}
	intCls := &types.TypeSymbol{Name: "Int"}
	intTpe := types.NewNamed(intCls)

	// listShow pre-unifies its parameter and then fails: no Show[Int].
	listShow := implicitDef("listShow", poly1(usingMethod(
		&types.ByName{Elem: types.NewApplied(showCls, tvar("T"))},
		types.NewApplied(showCls, types.NewApplied(listCls, tvar("T"))),
	)))
	ctx := nestedScope(testContext(nil), "main", listShow)

	res := InferImplicit(ctx, types.NewApplied(showCls, types.NewApplied(listCls, intTpe)), nil)
	_, ok := res.(*Failure)
	require.True(t, ok, "expected failure, got %s", res)
	assert.Empty(t, ctx.State.Snapshot(), "failed searches must not leak constraints")
}

func TestDeterminism(t *testing.T) {
	ordCls := &types.TypeSymbol{Name: "Ordering", TypeParams: []string{"T"}}
	xCls := &types.TypeSymbol{Name: "X"}
	ordX := types.NewApplied(ordCls, types.NewNamed(xCls))
	build := func() SearchResult {
		ordA := implicitDef("ordA", ordX)
		ordB := implicitDef("ordB", ordX)
		ctx := nestedScope(testContext(nil), "main", ordA, ordB)
		return InferImplicit(ctx, ordX, nil)
	}

	r1, r2 := build(), build()
	assert.Equal(t, r1.String(), r2.String())
	f1 := r1.(*Failure)
	f2 := r2.(*Failure)
	assert.IsType(t, f1.Reason, f2.Reason)
}

func TestSearchDepthLimit(t *testing.T) {
	settings := config.DefaultSettings()
	settings.SearchDepth = 0
	intCls := &types.TypeSymbol{Name: "Int"}
	intShow := implicitDef("i", types.NewNamed(intCls))
	ctx := nestedScope(testContext(settings), "main", intShow)

	res := InferImplicit(ctx, types.NewNamed(intCls), nil)
	fail, ok := res.(*Failure)
	require.True(t, ok)
	assert.IsType(t, &Diverging{}, fail.Reason)
	assert.Empty(t, ctx.State.Snapshot())
}

func TestNotProto(t *testing.T) {
	ordCls := &types.TypeSymbol{Name: "Ord", TypeParams: []string{"T"}}
	xCls := &types.TypeSymbol{Name: "X"}
	ordX := types.NewApplied(ordCls, types.NewNamed(xCls))
	notOrdX := types.NewApplied(types.NotClass, ordX)

	ctx := nestedScope(testContext(nil), "main")
	res := InferImplicit(ctx, notOrdX, nil)
	_, ok := res.(*Success)
	require.True(t, ok, "absence should witness the negation, got %s", res)

	ctx2 := nestedScope(testContext(nil), "main", implicitDef("ordA", ordX))
	res = InferImplicit(ctx2, notOrdX, nil)
	fail, ok := res.(*Failure)
	require.True(t, ok, "presence should refute the negation, got %s", res)
	assert.IsType(t, &NoMatching{}, fail.Reason)
}

func TestCoherentWitnessSkipsDisambiguation(t *testing.T) {
	xCls := &types.TypeSymbol{Name: "X"}
	eqXX := types.NewApplied(types.CanEqualClass, types.NewNamed(xCls), types.NewNamed(xCls))

	e1 := implicitDef("e1", eqXX)
	e2 := implicitDef("e2", eqXX)
	ctx := nestedScope(testContext(nil), "main", e1, e2)

	res := InferImplicit(ctx, eqXX, nil)
	_, ok := res.(*Success)
	assert.True(t, ok, "coherence-tagged searches take the first success, got %s", res)
}

func TestViewExists(t *testing.T) {
	intCls := &types.TypeSymbol{Name: "Int"}
	strCls := &types.TypeSymbol{Name: "String"}
	numCls := &types.TypeSymbol{Name: "Num"}
	intCls.Parents = []types.Type{types.NewNamed(numCls)}
	intTpe, strTpe := types.NewNamed(intCls), types.NewNamed(strCls)

	ctx := nestedScope(testContext(nil), "main", implicitDef("intToString", &types.MethodType{
		ParamNames: []string{"x"}, Params: []types.Type{intTpe}, Res: strTpe,
	}))

	assert.True(t, ViewExists(ctx, intTpe, types.NewNamed(numCls)), "subtyping is a view")
	assert.True(t, ViewExists(ctx, intTpe, strTpe), "conversion is a view")
	assert.False(t, ViewExists(ctx, strTpe, intTpe))
}

func TestAllImplicits(t *testing.T) {
	ordCls := &types.TypeSymbol{Name: "Ord", TypeParams: []string{"T"}}
	moneyCls := &types.TypeSymbol{Name: "Money"}
	ordMoney := types.NewApplied(ordCls, types.NewNamed(moneyCls))
	companionFor(moneyCls, implicitDef("moneyOrd", ordMoney))
	localOrd := implicitDef("localOrd", ordMoney)
	ctx := nestedScope(testContext(nil), "main", localOrd)

	all := AllImplicits(ctx, ordMoney)
	var names []string
	all.Foreach(func(r types.TermRef) { names = append(names, r.Sym.Name) })
	assert.ElementsMatch(t, []string{"localOrd", "moneyOrd"}, names)
}

func TestHealAmbiguousPrefersStrictlyBetter(t *testing.T) {
	intCls := &types.TypeSymbol{Name: "Int"}
	strCls := &types.TypeSymbol{Name: "String"}
	intTpe, strTpe := types.NewNamed(intCls), types.NewNamed(strCls)
	greeterCls := &types.TypeSymbol{Name: "Greeter"}
	greeterCls.Members = []*types.Symbol{
		types.NewSymbol("greet", greeterCls, types.Method, &types.MethodType{
			ParamNames: []string{"x"}, Params: []types.Type{intTpe}, Res: strTpe,
		}),
	}
	greeterTpe := types.NewNamed(greeterCls)

	// both: usable as a conversion to Greeter and as a greet extension.
	bothCls := &types.TypeSymbol{
		Name:    "Both",
		Parents: []types.Type{types.NewApplied(types.ConversionClass, intTpe, greeterTpe)},
	}
	bothCls.Members = []*types.Symbol{
		types.NewSymbol("greet", bothCls, types.Method|types.Extension, &types.MethodType{
			ParamNames: []string{"x"}, Params: []types.Type{intTpe}, Res: strTpe,
		}),
	}
	// plainConv: only a conversion, at a higher level.
	plainCls := &types.TypeSymbol{
		Name:    "Plain",
		Parents: []types.Type{types.NewApplied(types.ConversionClass, intTpe, greeterTpe)},
	}

	both := implicitDef("both", types.NewNamed(bothCls))
	plainConv := implicitDef("plainConv", types.NewNamed(plainCls))

	ctx := nestedScope(testContext(nil), "main")
	proto := &types.ViewProto{Arg: intTpe, Res: &types.SelectionProto{Name: "greet", Member: strTpe}}
	pending := []Candidate{
		{Ref: ImplicitRef{Ref: types.TermRef{Prefix: types.NoPrefix, Sym: both}}, Kind: KindConversion | KindExtension, Level: 1},
		{Ref: ImplicitRef{Ref: types.TermRef{Prefix: types.NoPrefix, Sym: plainConv}}, Kind: KindConversion, Level: 2},
	}

	s := NewSearcher(ctx)
	history := NewSearchHistory()
	res := s.rank(pending, nil, nil, proto, argIdent("x", intTpe), history, ctx.State.Fresh(), true)
	suc, ok := res.(*Success)
	require.True(t, ok, "healing should pick the strictly better candidate, got %s", res)
	assert.Equal(t, plainConv, suc.Ref.Sym)
	// The healed winner is strictly better than both ambiguous readings.
	assert.Greater(t, types.Compare(suc.Ref, pending[0].Ref.Ref, suc.Level, pending[0].Level), 0)
}

func TestLegacyAmbiguityWarns(t *testing.T) {
	// Same shape as above, but under legacy rules the ambiguity is
	// explored past and surfaces as a migration warning.
	intCls := &types.TypeSymbol{Name: "Int"}
	strCls := &types.TypeSymbol{Name: "String"}
	intTpe, strTpe := types.NewNamed(intCls), types.NewNamed(strCls)
	greeterCls := &types.TypeSymbol{Name: "Greeter"}
	greeterCls.Members = []*types.Symbol{
		types.NewSymbol("greet", greeterCls, types.Method, &types.MethodType{
			ParamNames: []string{"x"}, Params: []types.Type{intTpe}, Res: strTpe,
		}),
	}
	greeterTpe := types.NewNamed(greeterCls)

	bothCls := &types.TypeSymbol{
		Name:    "Both",
		Parents: []types.Type{types.NewApplied(types.ConversionClass, intTpe, greeterTpe)},
	}
	bothCls.Members = []*types.Symbol{
		types.NewSymbol("greet", bothCls, types.Method|types.Extension, &types.MethodType{
			ParamNames: []string{"x"}, Params: []types.Type{intTpe}, Res: strTpe,
		}),
	}
	plainCls := &types.TypeSymbol{
		Name:    "Plain",
		Parents: []types.Type{types.NewApplied(types.ConversionClass, intTpe, greeterTpe)},
	}

	both := implicitDef("both", types.NewNamed(bothCls))
	plainConv := implicitDef("plainConv", types.NewNamed(plainCls))

	settings := config.DefaultSettings()
	settings.Legacy = true
	ctx := nestedScope(testContext(settings), "main")
	proto := &types.ViewProto{Arg: intTpe, Res: &types.SelectionProto{Name: "greet", Member: strTpe}}
	pending := []Candidate{
		{Ref: ImplicitRef{Ref: types.TermRef{Prefix: types.NoPrefix, Sym: both}}, Kind: KindConversion | KindExtension, Level: 1},
		{Ref: ImplicitRef{Ref: types.TermRef{Prefix: types.NoPrefix, Sym: plainConv}}, Kind: KindConversion, Level: 2},
	}

	s := NewSearcher(ctx)
	history := NewSearchHistory()
	res := s.rank(pending, nil, nil, proto, argIdent("x", intTpe), history, ctx.State.Fresh(), true)
	suc, ok := res.(*Success)
	require.True(t, ok, "legacy mode continues past the ambiguity, got %s", res)
	assert.Equal(t, plainConv, suc.Ref.Sym)
	require.Len(t, s.Warnings, 1)
	assert.Contains(t, s.Warnings[0], "migration")
}
