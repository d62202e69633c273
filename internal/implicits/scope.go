package implicits

import (
	"github.com/funvibe/lumen/internal/types"
)

// OfTypeImplicits is the precomputed implicit scope of a type: the set of
// companion references reachable from its structural parts. The eligible
// candidate list is computed lazily.
type OfTypeImplicits struct {
	Tp            types.Type
	CompanionRefs *TermRefSet

	ctx          *Context
	eligible     []Candidate
	eligibleDone bool
}

// Eligible filters the companion implicit members against the scope's own
// type.
func (o *OfTypeImplicits) Eligible() []Candidate {
	if !o.eligibleDone {
		o.eligible = o.ctx.filterMatching(o.implicitMembers(), o.Tp, 0)
		o.eligibleDone = true
	}
	return o.eligible
}

// implicitMembers expands the companion references to the implicit term
// members they export.
func (o *OfTypeImplicits) implicitMembers() []ImplicitRef {
	var out []ImplicitRef
	o.CompanionRefs.Foreach(func(ref types.TermRef) {
		moduleCls := types.SymOf(types.Widen(ref.Underlying(), nil))
		if moduleCls == nil {
			return
		}
		prefix := ref.TypeOf()
		for _, m := range moduleCls.Members {
			if m.Is(types.Implicit) {
				out = append(out, ImplicitRef{Ref: types.TermRef{Prefix: prefix, Sym: m}})
			}
		}
	})
	return out
}

// ScopeCache memoizes implicit scopes per compilation run. Entries are
// keyed by the canonical print of the type, which is hash-stable exactly
// when the type is non-provisional.
type ScopeCache struct {
	entries map[string]*OfTypeImplicits
}

func NewScopeCache() *ScopeCache {
	return &ScopeCache{entries: make(map[string]*OfTypeImplicits)}
}

// Reset drops all cached scopes.
func (s *ScopeCache) Reset() {
	s.entries = make(map[string]*OfTypeImplicits)
}

// Len is the number of cached scopes.
func (s *ScopeCache) Len() int { return len(s.entries) }

// ImplicitScope computes the implicit scope of tp: the union of companions
// of every class symbol structurally reachable from tp, with prefixes and
// parents included. Complete sub-traversals are memoized per run; a
// traversal that hits a back edge is marked incomplete and recomputed next
// time. The root type is cached unless it is provisional.
func (ctx *Context) ImplicitScope(tp types.Type) *OfTypeImplicits {
	lifted := liftToClasses(tp, ctx.State)
	key := lifted.String()
	if found, ok := ctx.Scopes.entries[key]; ok {
		return found
	}
	c := &scopeCollector{ctx: ctx, seen: make(map[string]bool)}
	refs, _ := c.collect(lifted)
	scope := &OfTypeImplicits{Tp: tp, CompanionRefs: refs, ctx: ctx}
	if !types.IsProvisional(lifted, ctx.State) {
		ctx.Scopes.entries[key] = scope
	}
	return scope
}

type scopeCollector struct {
	ctx  *Context
	seen map[string]bool
}

// collect gathers the companion references of tp. The second result
// reports incompleteness: the traversal crossed a type that is already on
// the active path, so the result must not be memoized for sub-entries.
func (c *scopeCollector) collect(tp types.Type) (*TermRefSet, bool) {
	key := tp.String()
	if cached, ok := c.ctx.Scopes.entries[key]; ok {
		return cached.CompanionRefs, false
	}
	if c.seen[key] {
		return NewTermRefSet(), true
	}
	c.seen[key] = true
	defer delete(c.seen, key)

	set := NewTermRefSet()
	incomplete := c.collectCompanions(tp, set)
	if !incomplete && !types.IsProvisional(tp, c.ctx.State) {
		c.ctx.Scopes.entries[key] = &OfTypeImplicits{Tp: tp, CompanionRefs: set, ctx: c.ctx}
	}
	return set, incomplete
}

// collectCompanions implements the named-type case: prefix companions,
// the symbol's own companion (the companion itself for opaque aliases,
// the class companions plus parent scopes otherwise), and for all other
// types a recursion into the named type parts.
func (c *scopeCollector) collectCompanions(tp types.Type, into *TermRefSet) bool {
	incomplete := false
	sub := func(t types.Type) {
		refs, inc := c.collect(t)
		into.Union(refs)
		incomplete = incomplete || inc
	}

	switch tt := tp.(type) {
	case *types.Named:
		if tt.Prefix != nil && tt.Prefix != types.NoPrefix {
			sub(tt.Prefix)
		}
		sym := tt.Sym
		if sym.Opaque {
			addCompanion(into, sym)
			return incomplete
		}
		for _, cls := range types.ClassSymbols(tp) {
			addCompanion(into, cls)
			subst := make(types.Subst)
			for _, p := range cls.TypeParams {
				subst[p] = types.AnyType
			}
			for _, parent := range cls.Parents {
				sub(liftToClasses(types.SubstNames(parent, subst), c.ctx.State))
			}
		}
	case *types.Applied:
		sub(tt.Tycon)
		for _, a := range tt.Args {
			sub(liftToClasses(a, c.ctx.State))
		}
	case *types.AndType:
		sub(tt.Left)
		sub(tt.Right)
	default:
		for _, part := range types.StructuralParts(tp) {
			if part == tp {
				continue
			}
			sub(part)
		}
	}
	return incomplete
}

func addCompanion(into *TermRefSet, cls *types.TypeSymbol) {
	if cls.Companion != nil {
		into.Add(types.TermRef{Prefix: types.NoPrefix, Sym: cls.Companion})
	}
}

// liftToClasses reduces cache cardinality: alias references are unwrapped,
// singletons widen, bound variables step to their instance, bounds flatten
// to the conjunction of their endpoints.
func liftToClasses(tp types.Type, st *types.State) types.Type {
	switch tt := types.Resolve(tp, st).(type) {
	case *types.Named:
		if tt.Sym.IsAlias() && !tt.Sym.Opaque {
			return liftToClasses(tt.Sym.Alias, st)
		}
		return tt
	case *types.Applied:
		args := make([]types.Type, len(tt.Args))
		for i, a := range tt.Args {
			args[i] = liftToClasses(a, st)
		}
		return &types.Applied{Tycon: liftToClasses(tt.Tycon, st), Args: args}
	case *types.Ref:
		return liftToClasses(types.Widen(tt, st), st)
	case *types.ByName:
		return liftToClasses(tt.Elem, st)
	case *types.Bounds:
		return types.And(liftToClasses(tt.Lo, st), liftToClasses(tt.Hi, st))
	case *types.AndType:
		return types.And(liftToClasses(tt.Left, st), liftToClasses(tt.Right, st))
	case *types.ViewProto:
		return liftToClasses(types.FunctionOf(tt.Arg, tt.Res), st)
	case *types.SelectionProto:
		return liftToClasses(tt.Member, st)
	default:
		return tt
	}
}
