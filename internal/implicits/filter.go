package implicits

import (
	"github.com/funvibe/lumen/internal/types"
)

// Kind classifies how a reference can satisfy a prototype. Kinds are a
// bitmask: an overloaded reference may be usable several ways and none of
// them can be discarded before trying.
type Kind uint8

const (
	KindNone Kind = 0

	KindValue Kind = 1 << iota
	KindConversion
	KindExtension
)

func (k Kind) Is(other Kind) bool { return k&other != 0 }

// ImplicitRef is a candidate reference, possibly renamed by an import.
// The alias is what shadowing compares; the underlying TermRef drives
// type resolution.
type ImplicitRef struct {
	Ref   types.TermRef
	Alias string
}

// ImplicitName is the name the reference is visible under at the use site.
func (r ImplicitRef) ImplicitName() string {
	if r.Alias != "" {
		return r.Alias
	}
	return r.Ref.Sym.Name
}

// Candidate pairs a classified reference with its nesting level.
// Invariants: Kind is non-empty, Level is non-negative.
type Candidate struct {
	Ref   ImplicitRef
	Kind  Kind
	Level int
}

// filterMatching classifies refs against pt, yielding a candidate for each
// non-None classification. Classification runs under a throwaway nested
// state so that no type-variable effects leak out of the probe.
func (ctx *Context) filterMatching(refs []ImplicitRef, pt types.Type, level int) []Candidate {
	var out []Candidate
	for _, ref := range refs {
		probe := ctx.State.Fresh()
		if kind := ctx.candidateKind(ref.Ref, pt, probe); kind != KindNone {
			out = append(out, Candidate{Ref: ref, Kind: kind, Level: level})
		}
	}
	return out
}

// candidateKind classifies a single reference against the expected type.
func (ctx *Context) candidateKind(ref types.TermRef, pt types.Type, st *types.State) Kind {
	if ref.Sym == nil || !ref.Sym.AccessibleFrom(ref.Prefix, false) {
		return KindNone
	}
	refTpe := ref.Underlying()

	var kind Kind
	switch proto := pt.(type) {
	case *types.ViewProto:
		kind = ctx.viewKind(refTpe, proto, st)
	default:
		kind = ctx.valueKind(refTpe, pt)
	}
	if kind == KindNone {
		return KindNone
	}
	if !ctx.compatible(refTpe, pt, kind, st) {
		return KindNone
	}
	return kind
}

// viewKind decides whether a reference can act as a conversion (applied to
// the view argument) or an extension (providing the selected member).
func (ctx *Context) viewKind(tpe types.Type, proto *types.ViewProto, st *types.State) Kind {
	switch tt := tpe.(type) {
	case *types.MethodType:
		if !tt.Implicit && len(tt.Params) == 1 && relaxedArgConforms(proto.Arg, tt.Params[0], st) {
			return KindConversion
		}
		if tt.Implicit {
			return ctx.viewKind(tt.Res, proto, st)
		}
		return KindNone
	case *types.PolyType:
		_, inst := types.Instantiate(tt, st)
		return ctx.viewKind(inst, proto, st)
	}

	var kind Kind
	wide := types.Widen(tpe, st)
	switch {
	case types.DerivesFrom(wide, types.ConversionClass, st):
		kind |= KindConversion
	case types.DerivesFrom(wide, types.SubtypeWitnessClass, st) &&
		!types.DerivesFrom(wide, types.IdentityWitnessClass, st):
		kind |= KindConversion
	case ctx.Settings.Legacy && types.DerivesFrom(wide, types.Function1Class, st):
		kind |= KindConversion
	}
	if sel, ok := proto.Res.(*types.SelectionProto); ok {
		if m := types.Member(wide, sel.Name, st); m != nil && m.Is(types.Extension) {
			kind |= KindExtension
		}
	}
	return kind
}

// valueKind decides whether a reference can satisfy a value expectation.
func (ctx *Context) valueKind(tpe types.Type, pt types.Type) Kind {
	switch tt := tpe.(type) {
	case *types.PolyType:
		return ctx.valueKind(tt.Res, pt)
	case *types.MethodType:
		if tt.Implicit {
			return KindValue
		}
		// A method needing explicit arguments is a value only when the
		// expectation itself is function-typed.
		if types.DerivesFrom(types.Strip(pt), types.Function1Class, nil) {
			return KindValue
		}
		return KindNone
	}
	return KindValue
}

// relaxedArgConforms is the view-argument test: the argument conforms to
// the widened formal, falling back to its wildcard approximation.
func relaxedArgConforms(arg, formal types.Type, st *types.State) bool {
	wide := types.Widen(formal, st)
	if types.IsSubType(arg, wide, st) {
		return true
	}
	return types.IsSubType(types.WildApprox(arg, st), types.WildApprox(wide, st), st.Fresh())
}

// compatible is the final gate of classification: the normalized reference
// type must conform to the normalized expectation under a no-views
// comparator. For view prototypes, singleton parameters widen first.
func (ctx *Context) compatible(tpe, pt types.Type, kind Kind, st *types.State) bool {
	switch proto := pt.(type) {
	case *types.ViewProto:
		return ctx.viewCompatible(tpe, proto, kind, st)
	case *types.SelectionProto:
		return types.HasMember(tpe, proto.Name, st)
	}
	return ctx.valueCompatible(tpe, types.Strip(pt), st)
}

func (ctx *Context) valueCompatible(tpe, pt types.Type, st *types.State) bool {
	tpe = skipImplicits(tpe, st)
	if mt, ok := tpe.(*types.MethodType); ok && !mt.Implicit {
		fn := mt.Res
		for i := len(mt.Params) - 1; i >= 0; i-- {
			fn = types.FunctionOf(mt.Params[i], fn)
		}
		tpe = fn
	}
	return types.IsSubType(types.Normalize(tpe, st), types.Normalize(pt, st), st)
}

func (ctx *Context) viewCompatible(tpe types.Type, proto *types.ViewProto, kind Kind, st *types.State) bool {
	tpe = skipImplicits(tpe, st)
	if mt, ok := tpe.(*types.MethodType); ok && !mt.Implicit && len(mt.Params) == 1 {
		formal := types.WidenSingleton(mt.Params[0], st)
		return relaxedArgConforms(proto.Arg, formal, st) &&
			types.IsSubType(mt.Res, proto.Res, st)
	}
	wide := types.Widen(tpe, st)
	for _, cls := range conversionClasses(ctx.Settings.Legacy) {
		if base, ok := types.BaseType(wide, cls, st).(*types.Applied); ok && len(base.Args) == 2 {
			if cls == types.SubtypeWitnessClass && types.DerivesFrom(wide, types.IdentityWitnessClass, st) {
				continue
			}
			return types.IsSubType(proto.Arg, base.Args[0], st) &&
				types.IsSubType(base.Args[1], proto.Res, st)
		}
	}
	// Extension-only candidates were already validated by member lookup.
	return kind.Is(KindExtension)
}

func conversionClasses(legacy bool) []*types.TypeSymbol {
	out := []*types.TypeSymbol{types.ConversionClass, types.SubtypeWitnessClass}
	if legacy {
		out = append(out, types.Function1Class)
	}
	return out
}

// skipImplicits instantiates type binders and steps over implicit
// parameter lists; their arguments come from nested searches, not from
// the shape comparison.
func skipImplicits(tpe types.Type, st *types.State) types.Type {
	for {
		switch tt := tpe.(type) {
		case *types.PolyType:
			_, tpe = types.Instantiate(tt, st)
		case *types.MethodType:
			if !tt.Implicit {
				return tpe
			}
			tpe = tt.Res
		default:
			return tpe
		}
	}
}
