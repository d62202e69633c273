package implicits

import (
	"github.com/funvibe/lumen/internal/tree"
	"github.com/funvibe/lumen/internal/types"
)

// typedImplicit adapts a candidate reference to the expected type under a
// trial state. The result shape unifies with the expectation first, so
// that the nested searches for implicit parameters run at instantiated
// types; the parameter lists resolve after. Returns the adapted tree, or
// a failure describing why the candidate cannot serve.
func (s *Searcher) typedImplicit(cand Candidate, pt types.Type, argument tree.Tree, history *SearchHistory, st *types.State) (tree.Tree, *Failure) {
	ref := cand.Ref.Ref
	tpe := ref.Underlying()
	var t tree.Tree = &tree.Ident{Ref: ref, Tpe: tpe}

	// Type binders instantiate to fresh variables of the trial.
	for {
		p, ok := tpe.(*types.PolyType)
		if !ok {
			break
		}
		vars, inst := types.Instantiate(p, st)
		targs := make([]types.Type, len(vars))
		for i, v := range vars {
			targs[i] = v
		}
		t = &tree.TypeApply{Fn: t, Targs: targs, Tpe: inst}
		tpe = inst
	}

	// Pre-unification: bind the fresh variables against the expectation
	// before any nested search sees the parameter types.
	if argument == nil {
		expected := pt
		if bn, ok := pt.(*types.ByName); ok {
			expected = bn.Elem
		}
		if !conforms(finalResult(tpe), expected, st) {
			return t, mismatched(ref, pt, nil, t)
		}
		t, tpe, fail := s.resolveImplicitParams(ref, t, tpe, pt, history, st)
		if fail != nil {
			return nil, fail
		}
		if !conforms(tpe, expected, st) {
			return t, mismatched(ref, pt, nil, t)
		}
		return t, nil
	}

	proto, ok := pt.(*types.ViewProto)
	if !ok {
		return t, mismatched(ref, pt, argument, t)
	}
	if !s.ctx.viewCompatible(tpe, proto, cand.Kind, st) {
		return t, mismatched(ref, proto, argument, t)
	}
	t, tpe, fail := s.resolveImplicitParams(ref, t, tpe, pt, history, st)
	if fail != nil {
		return nil, fail
	}
	return s.typedConversion(cand, t, tpe, proto, argument, st)
}

// resolveImplicitParams serves the implicit parameter lists of a method
// candidate through nested searches. Chosen arguments commit into the
// trial state; a diverging nested search fails the candidate with the
// divergence itself.
func (s *Searcher) resolveImplicitParams(ref types.TermRef, t tree.Tree, tpe types.Type, pt types.Type, history *SearchHistory, st *types.State) (tree.Tree, types.Type, *Failure) {
	for {
		mt, ok := tpe.(*types.MethodType)
		if !ok || !mt.Implicit {
			return t, tpe, nil
		}
		args := make([]tree.Tree, len(mt.Params))
		for i, param := range mt.Params {
			res := s.bestImplicit(types.Instance(param, st), nil, history, st, true)
			switch r := res.(type) {
			case *Success:
				r.State.Commit()
				args[i] = r.Tree
			case *Failure:
				if _, div := r.Reason.(*Diverging); div {
					return nil, nil, r
				}
				return nil, nil, mismatched(ref, pt, nil, t)
			}
		}
		tpe = types.Instance(mt.Res, st)
		t = &tree.Apply{Fn: t, Args: args, Tpe: tpe}
	}
}

// finalResult steps over implicit parameter lists to the eventual result
// shape, without resolving anything.
func finalResult(tpe types.Type) types.Type {
	for {
		mt, ok := tpe.(*types.MethodType)
		if !ok || !mt.Implicit {
			return tpe
		}
		tpe = mt.Res
	}
}

// conforms is the adaptation test of a value candidate: methods needing
// explicit arguments are compared through their function encoding.
func conforms(tpe, pt types.Type, st *types.State) bool {
	if mt, ok := tpe.(*types.MethodType); ok && !mt.Implicit {
		fn := mt.Res
		for i := len(mt.Params) - 1; i >= 0; i-- {
			fn = types.FunctionOf(mt.Params[i], fn)
		}
		tpe = fn
	}
	return types.IsSubType(tpe, pt, st)
}

// typedConversion applies a conversion or extension candidate to the view
// argument. A candidate usable both ways that type-checks cleanly under
// both is an ambiguity between the two interpretations.
func (s *Searcher) typedConversion(cand Candidate, t tree.Tree, tpe types.Type, proto *types.ViewProto, argument tree.Tree, st *types.State) (tree.Tree, *Failure) {
	ref := cand.Ref.Ref

	var extTree, convTree tree.Tree

	if cand.Kind.Is(KindExtension) {
		if sel, ok := proto.Res.(*types.SelectionProto); ok {
			extTree = s.typedExtension(t, tpe, sel, argument, st.Fresh())
		}
	}
	if cand.Kind.Is(KindConversion) {
		convTree = s.typedApplication(t, tpe, proto, argument, st)
	}

	switch {
	case extTree != nil && convTree != nil:
		alt1 := &Success{Tree: extTree, Ref: ref, Level: cand.Level, State: st.Fresh()}
		alt2 := &Success{Tree: convTree, Ref: ref, Level: cand.Level, State: st.Fresh()}
		return nil, ambiguous(alt1, alt2, proto)
	case extTree != nil:
		return extTree, nil
	case convTree != nil:
		return convTree, nil
	}
	return t, mismatched(ref, proto, argument, t)
}

// typedExtension types ref.name(argument) against the selection prototype.
func (s *Searcher) typedExtension(t tree.Tree, tpe types.Type, sel *types.SelectionProto, argument tree.Tree, st *types.State) tree.Tree {
	wide := types.Widen(tpe, st)
	m := types.Member(wide, sel.Name, st)
	if m == nil || !m.Is(types.Extension) {
		return nil
	}
	minfo := m.Info()
	if p, ok := minfo.(*types.PolyType); ok {
		_, minfo = types.Instantiate(p, st)
	}
	mt, ok := minfo.(*types.MethodType)
	if !ok || len(mt.Params) != 1 {
		return nil
	}
	if !types.IsSubType(argument.Type(), mt.Params[0], st) {
		return nil
	}
	res := types.Instance(mt.Res, st)
	if sel.Member != nil && !types.IsSubType(res, sel.Member, st) {
		return nil
	}
	selTree := &tree.Select{Qual: t, Name: sel.Name, Sym: m, Tpe: minfo}
	return &tree.Apply{Fn: selTree, Args: []tree.Tree{argument}, Tpe: res}
}

// typedApplication types ref(argument) as a plain conversion.
func (s *Searcher) typedApplication(t tree.Tree, tpe types.Type, proto *types.ViewProto, argument tree.Tree, st *types.State) tree.Tree {
	if mt, ok := tpe.(*types.MethodType); ok && !mt.Implicit && len(mt.Params) == 1 {
		if !types.IsSubType(argument.Type(), mt.Params[0], st) {
			return nil
		}
		res := types.Instance(mt.Res, st)
		if !types.IsSubType(res, proto.Res, st) {
			return nil
		}
		return &tree.Apply{Fn: t, Args: []tree.Tree{argument}, Tpe: res}
	}

	wide := types.Widen(tpe, st)
	for _, cls := range conversionClasses(s.ctx.Settings.Legacy) {
		base, ok := types.BaseType(wide, cls, st).(*types.Applied)
		if !ok || len(base.Args) != 2 {
			continue
		}
		if cls == types.SubtypeWitnessClass && types.DerivesFrom(wide, types.IdentityWitnessClass, st) {
			continue
		}
		from := types.Instance(base.Args[0], st)
		to := types.Instance(base.Args[1], st)
		if !types.IsSubType(argument.Type(), from, st) || !types.IsSubType(to, proto.Res, st) {
			continue
		}
		applySym := types.Member(wide, "apply", st)
		fn := tree.Tree(t)
		if applySym != nil {
			fn = &tree.Select{Qual: t, Name: "apply", Sym: applySym, Tpe: applySym.Info()}
		}
		return &tree.Apply{Fn: fn, Args: []tree.Tree{argument}, Tpe: to}
	}
	return nil
}
