package types

// zip pairs type parameters with applied arguments.
func zip(params []string, args []Type) Subst {
	s := make(Subst, len(params))
	for i, p := range params {
		if i < len(args) {
			s[p] = args[i]
		}
	}
	return s
}

// BaseType returns the instance of cls that t inherits, or nil when t does
// not derive from cls. Applied parents are rebound through the argument
// substitution at every step. Cyclic parent graphs terminate via the seen
// set.
func BaseType(t Type, cls *TypeSymbol, st *State) Type {
	return baseType(t, cls, st, make(map[*TypeSymbol]bool))
}

func baseType(t Type, cls *TypeSymbol, st *State, seen map[*TypeSymbol]bool) Type {
	t = dealias(resolve(t, st))
	switch tt := t.(type) {
	case *Named:
		if tt.Sym == cls {
			return tt
		}
		if tt.Sym.Opaque && tt.Sym.Alias != nil {
			return nil
		}
		if seen[tt.Sym] {
			return nil
		}
		seen[tt.Sym] = true
		for _, p := range tt.Sym.Parents {
			if bt := baseType(p, cls, st, seen); bt != nil {
				return bt
			}
		}
	case *Applied:
		sym := symOf(tt.Tycon)
		if sym == nil {
			return nil
		}
		if sym == cls {
			return tt
		}
		if seen[sym] {
			return nil
		}
		seen[sym] = true
		subst := zip(sym.TypeParams, tt.Args)
		for _, p := range sym.Parents {
			if bt := baseType(substNames(p, subst), cls, st, seen); bt != nil {
				return bt
			}
		}
	case *AndType:
		if bt := baseType(tt.Left, cls, st, seen); bt != nil {
			return bt
		}
		return baseType(tt.Right, cls, st, seen)
	case *Ref:
		return baseType(tt.Of.Underlying(), cls, st, seen)
	}
	return nil
}

// DerivesFrom reports whether t is an instance of cls.
func DerivesFrom(t Type, cls *TypeSymbol, st *State) bool {
	return BaseType(t, cls, st) != nil
}

// IsSubType is the conformance test t1 <: t2 under st. Unbound variables
// on either side are instantiated to make the test succeed; the bindings
// land in st and are discarded with it if the trial fails.
func IsSubType(t1, t2 Type, st *State) bool {
	t1 = resolve(t1, st)
	t2 = resolve(t2, st)
	if Same(t1, t2, st) {
		return true
	}

	// Variable instantiation. A variable on the right takes the left side
	// as instance and vice versa. Binding a variable inside its own
	// instance would make resolution non-terminating, hence the occurs
	// check.
	if tv, ok := t2.(*TypeVar); ok {
		if st != nil && !mentions(t1, tv.Name, st) {
			st.bind(tv.Name, Widen(t1, st))
			return true
		}
		return false
	}
	if tv, ok := t1.(*TypeVar); ok {
		if st != nil && !mentions(t2, tv.Name, st) {
			st.bind(tv.Name, t2)
			return true
		}
		return false
	}

	// Poles.
	if symOf(t1) == NothingClass {
		return true
	}
	if symOf(t2) == AnyClass {
		return true
	}
	if symOf(t1) == NullClass {
		return symOf(t2) != NothingClass
	}

	// Wildcards: an unknown confined to bounds.
	if w, ok := t2.(*Wildcard); ok {
		return IsSubType(t1, w.Hi, st)
	}
	if w, ok := t1.(*Wildcard); ok {
		return IsSubType(w.Hi, t2, st)
	}

	// By-name shapes are transparent for conformance.
	if bn, ok := t1.(*ByName); ok {
		return IsSubType(bn.Elem, t2, st)
	}
	if bn, ok := t2.(*ByName); ok {
		return IsSubType(t1, bn.Elem, st)
	}

	// Conjunctions.
	if and, ok := t2.(*AndType); ok {
		return IsSubType(t1, and.Left, st) && IsSubType(t1, and.Right, st)
	}
	if and, ok := t1.(*AndType); ok {
		return IsSubType(and.Left, t2, st) || IsSubType(and.Right, t2, st)
	}

	// Singletons conform via their underlying type.
	if ref, ok := t1.(*Ref); ok {
		return IsSubType(ref.Of.Underlying(), t2, st)
	}
	if _, ok := t2.(*Ref); ok {
		return false
	}

	// Aliases.
	if d1, d2 := dealias(t1), dealias(t2); d1 != t1 || d2 != t2 {
		return IsSubType(d1, d2, st)
	}

	switch want := t2.(type) {
	case *Named:
		return DerivesFrom(t1, want.Sym, st)
	case *Applied:
		sym := symOf(want.Tycon)
		if sym == nil {
			return false
		}
		base, ok := BaseType(t1, sym, st).(*Applied)
		if !ok || len(base.Args) != len(want.Args) {
			return false
		}
		for i := range want.Args {
			if !argConforms(base.Args[i], want.Args[i], st) {
				return false
			}
		}
		return true
	case *MethodType:
		mt, ok := t1.(*MethodType)
		if !ok || len(mt.Params) != len(want.Params) || mt.Implicit != want.Implicit {
			return false
		}
		for i := range mt.Params {
			if !IsSubType(want.Params[i], mt.Params[i], st) {
				return false
			}
		}
		return IsSubType(mt.Res, want.Res, st)
	case *PolyType:
		pt, ok := t1.(*PolyType)
		if !ok || len(pt.Params) != len(want.Params) {
			return false
		}
		return IsSubType(pt.Res, want.Res, st)
	case *ViewProto:
		return IsSubType(t1, FunctionOf(want.Arg, want.Res), st)
	case *SelectionProto:
		return HasMember(t1, want.Name, st)
	}

	if pt, ok := t1.(*PolyType); ok && st != nil {
		_, inst := Instantiate(pt, st)
		return IsSubType(inst, t2, st)
	}
	return false
}

// argConforms compares invariant applied arguments: equal types, or a
// wildcard admitting the other side within bounds.
func argConforms(actual, want Type, st *State) bool {
	actual = resolve(actual, st)
	want = resolve(want, st)
	if w, ok := want.(*Wildcard); ok {
		return IsSubType(w.Lo, actual, st) && IsSubType(actual, w.Hi, st)
	}
	if w, ok := actual.(*Wildcard); ok {
		return IsSubType(w.Lo, want, st) && IsSubType(want, w.Hi, st)
	}
	if _, ok := want.(*TypeVar); ok {
		return IsSubType(actual, want, st)
	}
	if _, ok := actual.(*TypeVar); ok {
		return IsSubType(want, actual, st)
	}
	if b, ok := want.(*Bounds); ok {
		return IsSubType(b.Lo, actual, st) && IsSubType(actual, b.Hi, st)
	}
	return IsSubType(actual, want, st) && IsSubType(want, actual, st)
}

// mentions reports whether the resolved type contains the named variable.
func mentions(t Type, name string, st *State) bool {
	switch tt := resolve(t, st).(type) {
	case *TypeVar:
		return tt.Name == name
	case *Applied:
		if mentions(tt.Tycon, name, st) {
			return true
		}
		for _, a := range tt.Args {
			if mentions(a, name, st) {
				return true
			}
		}
	case *AndType:
		return mentions(tt.Left, name, st) || mentions(tt.Right, name, st)
	case *ByName:
		return mentions(tt.Elem, name, st)
	case *MethodType:
		for _, p := range tt.Params {
			if mentions(p, name, st) {
				return true
			}
		}
		return mentions(tt.Res, name, st)
	}
	return false
}

// HasMember reports whether the widened type declares a term member with
// the given name.
func HasMember(t Type, name string, st *State) bool {
	return Member(t, name, st) != nil
}

// Member resolves a term member on the widened type, walking parents.
func Member(t Type, name string, st *State) *Symbol {
	seen := make(map[*TypeSymbol]bool)
	var look func(Type) *Symbol
	look = func(t Type) *Symbol {
		switch tt := dealias(Widen(t, st)).(type) {
		case *Named:
			return lookInClass(tt.Sym, name, seen, look)
		case *Applied:
			if sym := symOf(tt.Tycon); sym != nil {
				return lookInClass(sym, name, seen, look)
			}
		case *AndType:
			if m := look(tt.Left); m != nil {
				return m
			}
			return look(tt.Right)
		}
		return nil
	}
	return look(t)
}

func lookInClass(cls *TypeSymbol, name string, seen map[*TypeSymbol]bool, look func(Type) *Symbol) *Symbol {
	if cls == nil || seen[cls] {
		return nil
	}
	seen[cls] = true
	if m := cls.Member(name); m != nil {
		return m
	}
	for _, p := range cls.Parents {
		if m := look(p); m != nil {
			return m
		}
	}
	return nil
}
