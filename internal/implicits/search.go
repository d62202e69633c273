package implicits

import (
	"fmt"
	"sort"

	"github.com/funvibe/lumen/internal/tree"
	"github.com/funvibe/lumen/internal/types"
)

// Searcher drives the best-implicit search of one context. Migration
// warnings collected in legacy mode are owned by the searcher; reporting
// them is the caller's business.
type Searcher struct {
	ctx      *Context
	explore  bool
	Warnings []string
}

func NewSearcher(ctx *Context) *Searcher {
	return &Searcher{ctx: ctx}
}

// InferImplicit finds a unique term whose type satisfies pt, converting
// argument when one is given. On top-level completion the dictionary of
// recursive by-name instances is materialized around the result.
func InferImplicit(ctx *Context, pt types.Type, argument tree.Tree) SearchResult {
	return NewSearcher(ctx).Infer(pt, argument)
}

// Infer runs one top-level inference.
func (s *Searcher) Infer(pt types.Type, argument tree.Tree) SearchResult {
	history := NewSearchHistory()
	st := s.ctx.State.Fresh()
	result := s.bestImplicit(pt, argument, history, st, true)
	if suc, ok := result.(*Success); ok {
		suc.Tree = EmitDictionary(history.Root(), suc.Tree)
		if !s.explore {
			suc.State.Commit()
			st.Commit()
		}
	}
	return result
}

// InferView searches a conversion from the given tree to the target type.
// It is defined only for non-trivial endpoints: converting to Any, Object
// or Unit, or from Nothing or Null, never makes progress, and only value
// types convert.
func InferView(ctx *Context, from tree.Tree, to types.Type) SearchResult {
	return NewSearcher(ctx).InferViewFrom(from, to)
}

// InferViewFrom runs the view search on this searcher, keeping its
// collected warnings.
func (s *Searcher) InferViewFrom(from tree.Tree, to types.Type) SearchResult {
	fromTpe := from.Type()
	if types.IsTrivialSource(fromTpe) || !isValueType(fromTpe) || trivialViewTarget(to) {
		return noMatching(to, from, nil)
	}
	res := to
	if sel, ok := to.(*types.SelectionProto); ok {
		// Conversions never gain private-member privilege.
		res = &types.SelectionProto{Name: sel.Name, Member: sel.Member, PrivateOK: false}
	}
	return s.Infer(&types.ViewProto{Arg: types.WidenSingleton(fromTpe, s.ctx.State), Res: res}, from)
}

func trivialViewTarget(to types.Type) bool {
	if _, ok := to.(*types.SelectionProto); ok {
		// A selection demands a member; the target is never trivial.
		return false
	}
	return types.IsTrivialTarget(types.Strip(to))
}

func isValueType(t types.Type) bool {
	switch t.(type) {
	case *types.MethodType, *types.PolyType:
		return false
	}
	return true
}

// ViewExists reports whether from converts to to: by subtyping, or by a
// successful exploratory view search over a placeholder tree.
func ViewExists(ctx *Context, from, to types.Type) bool {
	if types.IsSubType(from, to, ctx.State.Fresh()) {
		return true
	}
	s := NewSearcher(ctx)
	s.explore = true
	placeholder := &tree.Ident{
		Ref: types.TermRef{Prefix: types.NoPrefix, Sym: types.NewSymbol("<placeholder>", nil, types.Synthetic, from)},
		Tpe: from,
	}
	_, ok := s.InferViewFrom(placeholder, to).(*Success)
	return ok
}

// AllImplicits returns every implicit reference that individually
// satisfies pt, from both the contextual chain and the derived scope.
// Used by tooling.
func AllImplicits(ctx *Context, pt types.Type) *TermRefSet {
	s := NewSearcher(ctx)
	s.explore = true
	out := NewTermRefSet()
	try := func(cands []Candidate) {
		for _, cand := range cands {
			history := NewSearchHistory()
			st := ctx.State.Fresh()
			if _, ok := s.tryImplicit(cand, pt, nil, history, st, false).(*Success); ok {
				out.Add(cand.Ref.Ref)
			}
		}
	}
	try(ctx.Implicits().Eligible(pt))
	try(ctx.ImplicitScope(pt).Eligible())
	return out
}

// bestImplicit serves one search request: recursive references first, then
// the contextual pass, then the derived (implicit scope) pass as fallback.
func (s *Searcher) bestImplicit(pt types.Type, argument tree.Tree, history *SearchHistory, st *types.State, contextual bool) SearchResult {
	leave := s.ctx.Tracer.Enter("search %s", pt.String())

	if !history.IsRoot() {
		if ref := history.RecursiveRef(pt, st); ref.Exists() {
			t := &tree.Ident{Ref: ref, Tpe: ref.Sym.Info()}
			res := &Success{Tree: t, Ref: ref, Level: 0, State: st.Fresh()}
			leave("recursive "+ref.String(), true)
			return res
		}
	}

	if na := types.NotArg(pt); na != nil {
		res := s.negated(pt, na, history, st, contextual)
		leave(res.String(), !isFailure(res))
		return res
	}

	result := s.searchPass(pt, argument, history, st, contextual)
	if suc, ok := result.(*Success); ok && contextual {
		suc.Inlineable = true
	}
	if f, ok := result.(*Failure); ok && contextual && f.Recoverable() {
		derived := s.searchPass(pt, argument, history, st, false)
		result = mergeResults(f, derived)
	}

	if suc, ok := result.(*Success); ok {
		wpt := types.Instance(types.Widen(pt, st), st)
		if ref, linked := history.Root().RefByName(wpt); linked {
			history.Root().Define(wpt, suc.Tree)
			suc.Tree = &tree.Ident{Ref: ref, Tpe: ref.Sym.Info()}
		}
	}
	leave(result.String(), !isFailure(result))
	return result
}

func (s *Searcher) searchPass(pt types.Type, argument tree.Tree, history *SearchHistory, st *types.State, contextual bool) SearchResult {
	var eligible []Candidate
	if contextual {
		eligible = s.ctx.Implicits().Eligible(pt)
	} else {
		eligible = s.ctx.ImplicitScope(pt).Eligible()
	}
	return s.searchImplicits(eligible, pt, argument, history, st, contextual)
}

// negated serves a Not[T] expectation: the inner search for T runs under
// a nested explorative state and the outcome flips. An ambiguity still
// means instances for T exist, so the negation fails. The witness gets a
// fresh committable state of its own.
func (s *Searcher) negated(pt, inner types.Type, history *SearchHistory, st *types.State, contextual bool) SearchResult {
	probe := st.Fresh()
	res := s.bestImplicit(inner, nil, history, probe, contextual)
	switch r := res.(type) {
	case *Success:
		return noMatching(pt, nil, probe)
	case *Failure:
		if r.IsAmbiguous() {
			return r
		}
		witness := &tree.Apply{Fn: &tree.New{Tpe: pt}, Args: nil, Tpe: pt}
		return &Success{Tree: witness, Ref: types.TermRef{}, Level: 0, State: st.Fresh()}
	}
	return res
}

// mergeResults combines the contextual failure with the derived-pass
// outcome, keeping the more informative diagnostic on double failure.
func mergeResults(contextualFailure *Failure, derived SearchResult) SearchResult {
	if suc, ok := derived.(*Success); ok {
		return suc
	}
	df := derived.(*Failure)
	if !df.Recoverable() {
		return df
	}
	if df.TreeSize() > contextualFailure.TreeSize() {
		return df
	}
	return contextualFailure
}

// searchImplicits sorts the eligible candidates by preference and ranks
// them. The sort is an optimization: correctness does not depend on it.
func (s *Searcher) searchImplicits(eligible []Candidate, pt types.Type, argument tree.Tree, history *SearchHistory, st *types.State, contextual bool) SearchResult {
	sorted := make([]Candidate, len(eligible))
	copy(sorted, eligible)
	sort.SliceStable(sorted, func(i, j int) bool {
		return types.Compare(sorted[i].Ref.Ref, sorted[j].Ref.Ref, sorted[i].Level, sorted[j].Level) > 0
	})
	return s.rank(sorted, nil, nil, pt, argument, history, st, contextual)
}

// rank is the linear scan over sorted candidates: try each, disambiguate
// successes pairwise, heal ambiguities, and keep the most informative
// failure for the empty outcome.
func (s *Searcher) rank(pending []Candidate, found *Success, failures []*Failure, pt types.Type, argument tree.Tree, history *SearchHistory, st *types.State, contextual bool) SearchResult {
	var pendingAmbiguous *Failure

	for len(pending) > 0 {
		cand := pending[0]
		pending = pending[1:]

		res := s.tryImplicit(cand, pt, argument, history, st, contextual)
		if f, ok := res.(*Failure); ok {
			if f.IsAmbiguous() {
				if s.ctx.Settings.Legacy {
					pendingAmbiguous = f
					continue
				}
				return s.healAmbiguous(pending, f, pt, argument, history, st, contextual)
			}
			failures = append(failures, f)
			continue
		}

		best := res.(*Success)
		if s.explore || types.Coherent(pt) {
			return best
		}
		if pendingAmbiguous != nil {
			amb := pendingAmbiguous.Reason.(*Ambiguous)
			s.Warnings = append(s.Warnings, fmt.Sprintf(
				"migration: ambiguity between %s and %s is resolved to %s under legacy rules",
				amb.Alt1.Ref.String(), amb.Alt2.Ref.String(), best.Ref.String()))
			pendingAmbiguous = nil
		}
		if found == nil {
			found = best
			kept := pending[:0:0]
			for _, c := range pending {
				if types.Compare(found.Ref, c.Ref.Ref, found.Level, c.Level) <= 0 {
					kept = append(kept, c)
				}
			}
			pending = kept
			continue
		}
		diff := types.Compare(found.Ref, best.Ref, found.Level, best.Level)
		// The retention filter removed every strictly-worse candidate, so
		// diff > 0 cannot happen here.
		if diff < 0 {
			found = best
		} else if diff == 0 {
			return ambiguous(found, best, pt)
		}
	}

	if found != nil {
		return found
	}
	return bestFailure(failures, pt, argument, st)
}

func bestFailure(failures []*Failure, pt types.Type, argument tree.Tree, st *types.State) SearchResult {
	if len(failures) == 0 {
		return noMatching(pt, argument, st)
	}
	best := failures[0]
	for _, f := range failures[1:] {
		if f.TreeSize() > best.TreeSize() {
			best = f
		}
	}
	return best
}

// healAmbiguous retries with the candidates strictly better than both
// ambiguous alternatives. If that rank fails too, the original ambiguity
// is the diagnosis.
func (s *Searcher) healAmbiguous(remaining []Candidate, failure *Failure, pt types.Type, argument tree.Tree, history *SearchHistory, st *types.State, contextual bool) SearchResult {
	amb := failure.Reason.(*Ambiguous)
	var better []Candidate
	for _, c := range remaining {
		if types.Compare(c.Ref.Ref, amb.Alt1.Ref, c.Level, amb.Alt1.Level) > 0 &&
			types.Compare(c.Ref.Ref, amb.Alt2.Ref, c.Level, amb.Alt2.Level) > 0 {
			better = append(better, c)
		}
	}
	res := s.rank(better, nil, nil, pt, argument, history, st, contextual)
	if _, ok := res.(*Success); ok {
		return res
	}
	return failure
}

// tryImplicit runs one candidate trial under a fresh explorative state.
// Divergent candidates fail before any typing happens; cyclic-reference
// conditions from the underlying typer are annotated and rethrown.
func (s *Searcher) tryImplicit(cand Candidate, pt types.Type, argument tree.Tree, history *SearchHistory, st *types.State, contextual bool) SearchResult {
	if history.Depth() >= s.ctx.Settings.SearchDepth {
		return diverging(cand.Ref.Ref, pt)
	}
	if history.CheckDivergence(cand, pt, st) {
		return diverging(cand.Ref.Ref, pt)
	}

	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*types.CyclicError); ok {
				ce.InImplicitSearch = true
			}
			panic(r)
		}
	}()

	nested := history.Nest(cand, pt)
	trial := st.Fresh()
	ttree, fail := s.typedImplicit(cand, pt, argument, nested, trial)
	if fail != nil {
		return fail
	}

	if contextual && !s.explore {
		if by := s.shadowingBinding(cand); by != nil {
			return shadowed(cand.Ref.Ref, by, pt)
		}
	}
	return &Success{Tree: ttree, Ref: cand.Ref.Ref, Level: cand.Level, State: trial}
}

// shadowingBinding probes the bare implicit name at the use site. A
// binding that neither denotes the candidate's symbol nor shares a type
// owner with it rebinds the name and shadows the candidate.
func (s *Searcher) shadowingBinding(cand Candidate) *types.Symbol {
	name := cand.Ref.ImplicitName()
	by := s.ctx.LookupName(name)
	if by == nil || by == cand.Ref.Ref.Sym {
		return nil
	}
	if by.Owner != nil && by.Owner == cand.Ref.Ref.Sym.Owner {
		return nil
	}
	return by
}

func isFailure(r SearchResult) bool {
	_, ok := r.(*Failure)
	return ok
}
