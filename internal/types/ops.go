package types

// dealias unwraps transparent alias symbols. Opaque aliases keep their
// name; their right-hand side is visible only to their companion.
func dealias(t Type) Type {
	for {
		named, ok := t.(*Named)
		if !ok || named.Sym.Alias == nil || named.Sym.Opaque {
			return t
		}
		t = named.Sym.Alias
	}
}

// Dealias unwraps transparent aliases at the top of t.
func Dealias(t Type) Type { return dealias(t) }

// Widen strips singleton and by-name shapes down to an ordinary value type.
func Widen(t Type, st *State) Type {
	t = resolve(t, st)
	switch tt := t.(type) {
	case *Ref:
		return Widen(tt.Of.Underlying(), st)
	case *ByName:
		return Widen(tt.Elem, st)
	}
	return t
}

// WidenSingleton widens only singleton types, keeping by-name shapes.
func WidenSingleton(t Type, st *State) Type {
	t = resolve(t, st)
	if ref, ok := t.(*Ref); ok {
		return WidenSingleton(ref.Of.Underlying(), st)
	}
	return t
}

// StructuralParts enumerates the named types appearing anywhere in t,
// outermost first.
func StructuralParts(t Type) []Type {
	var out []Type
	var walk func(Type)
	walk = func(t Type) {
		switch tt := t.(type) {
		case *Named:
			out = append(out, tt)
			if tt.Prefix != nil && tt.Prefix != NoPrefix {
				walk(tt.Prefix)
			}
		case *Applied:
			out = append(out, tt)
			walk(tt.Tycon)
			for _, a := range tt.Args {
				walk(a)
			}
		case *AndType:
			walk(tt.Left)
			walk(tt.Right)
		case *ByName:
			walk(tt.Elem)
		case *Bounds:
			walk(tt.Lo)
			walk(tt.Hi)
		case *Ref:
			walk(tt.Of.Underlying())
		case *ViewProto:
			walk(tt.Arg)
			walk(tt.Res)
		case *SelectionProto:
			walk(tt.Member)
		case *MethodType:
			for _, p := range tt.Params {
				walk(p)
			}
			walk(tt.Res)
		case *PolyType:
			walk(tt.Res)
		}
	}
	walk(t)
	return out
}

// ClassSymbols enumerates the class symbols of the top-level conjuncts of
// t, after dealiasing.
func ClassSymbols(t Type) []*TypeSymbol {
	var out []*TypeSymbol
	var walk func(Type)
	walk = func(t Type) {
		switch tt := dealias(t).(type) {
		case *Named:
			if !tt.Sym.IsAlias() {
				out = append(out, tt.Sym)
			}
		case *Applied:
			walk(tt.Tycon)
		case *AndType:
			walk(tt.Left)
			walk(tt.Right)
		case *Ref:
			walk(tt.Of.Underlying())
		}
	}
	walk(t)
	return out
}

// WildApprox replaces bound variables by their instance and free variables
// by an unbounded wildcard, giving a stable shape for divergence
// bookkeeping.
func WildApprox(t Type, st *State) Type {
	switch tt := t.(type) {
	case *TypeVar:
		if st != nil {
			if inst, ok := st.Binding(tt.Name); ok && inst != tt {
				return WildApprox(inst, st)
			}
		}
		return &Wildcard{Lo: NothingType, Hi: AnyType}
	case *Applied:
		args := make([]Type, len(tt.Args))
		for i, a := range tt.Args {
			args[i] = WildApprox(a, st)
		}
		return &Applied{Tycon: WildApprox(tt.Tycon, st), Args: args}
	case *ByName:
		return &ByName{Elem: WildApprox(tt.Elem, st)}
	case *AndType:
		return &AndType{Left: WildApprox(tt.Left, st), Right: WildApprox(tt.Right, st)}
	case *MethodType:
		params := make([]Type, len(tt.Params))
		for i, p := range tt.Params {
			params[i] = WildApprox(p, st)
		}
		return &MethodType{ParamNames: tt.ParamNames, Params: params, Res: WildApprox(tt.Res, st), Implicit: tt.Implicit}
	case *ViewProto:
		return &ViewProto{Arg: WildApprox(tt.Arg, st), Res: WildApprox(tt.Res, st)}
	}
	return t
}

// Normalize prepares a type for the compatibility test: aliases unwrapped,
// view prototypes turned into function types, by-name shapes dropped.
func Normalize(t Type, st *State) Type {
	t = resolve(t, st)
	switch tt := t.(type) {
	case *ViewProto:
		return FunctionOf(Normalize(tt.Arg, st), Normalize(tt.Res, st))
	case *ByName:
		return Normalize(tt.Elem, st)
	case *SelectionProto:
		return Normalize(tt.Member, st)
	}
	return dealias(t)
}

// Erase reduces a type to its runtime shape: applied types drop their
// arguments, singletons and by-name shapes widen, conjunctions erase to
// their first conjunct.
func Erase(t Type, st *State) Type {
	switch tt := dealias(Widen(t, st)).(type) {
	case *Applied:
		return Erase(tt.Tycon, st)
	case *AndType:
		return Erase(tt.Left, st)
	case *Named:
		return tt
	case *TypeVar, *Wildcard:
		return ObjectType
	}
	return dealias(Widen(t, st))
}

// AsSeenFrom rebinds a member type declared in owner to the given prefix:
// the owner's type parameters are replaced by the prefix's applied
// arguments. Prefixes that do not instantiate the owner leave the type
// unchanged.
func AsSeenFrom(info Type, prefix Type, owner *TypeSymbol) Type {
	if owner == nil || len(owner.TypeParams) == 0 {
		return info
	}
	if app, ok := dealias(prefix).(*Applied); ok && symOf(app.Tycon) == owner {
		return substNames(info, zip(owner.TypeParams, app.Args))
	}
	return info
}

// TypeSize is the structural measure used by the divergence check: a
// recursive count of constructors and arguments.
func TypeSize(t Type) int {
	switch tt := t.(type) {
	case *Named:
		return 1
	case *Applied:
		n := TypeSize(tt.Tycon)
		for _, a := range tt.Args {
			n += TypeSize(a)
		}
		return n
	case *AndType:
		return TypeSize(tt.Left) + TypeSize(tt.Right)
	case *ByName:
		return TypeSize(tt.Elem)
	case *Ref:
		return 1
	case *Wildcard, *TypeVar:
		return 1
	case *MethodType:
		n := 1 + TypeSize(tt.Res)
		for _, p := range tt.Params {
			n += TypeSize(p)
		}
		return n
	case *PolyType:
		return 1 + TypeSize(tt.Res)
	case *ViewProto:
		return 1 + TypeSize(tt.Arg) + TypeSize(tt.Res)
	}
	return 1
}

// CoveringSet is the set of class symbols of all named types in t.
func CoveringSet(t Type) map[*TypeSymbol]bool {
	out := make(map[*TypeSymbol]bool)
	for _, part := range StructuralParts(t) {
		if sym := symOf(part); sym != nil {
			out[sym] = true
		}
	}
	return out
}

// SameCoveringSet compares covering sets for equality.
func SameCoveringSet(a, b map[*TypeSymbol]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// IsProvisional reports whether t mentions an uninstantiated variable and
// is therefore not hash-stable enough to cache.
func IsProvisional(t Type, st *State) bool {
	switch tt := t.(type) {
	case *TypeVar:
		if st != nil {
			if inst, ok := st.Binding(tt.Name); ok && inst != tt {
				return IsProvisional(inst, st)
			}
		}
		return true
	case *Wildcard:
		return true
	case *Applied:
		if IsProvisional(tt.Tycon, st) {
			return true
		}
		for _, a := range tt.Args {
			if IsProvisional(a, st) {
				return true
			}
		}
		return false
	case *AndType:
		return IsProvisional(tt.Left, st) || IsProvisional(tt.Right, st)
	case *ByName:
		return IsProvisional(tt.Elem, st)
	case *ViewProto:
		return IsProvisional(tt.Arg, st) || IsProvisional(tt.Res, st)
	case *SelectionProto:
		return IsProvisional(tt.Member, st)
	case *MethodType:
		for _, p := range tt.Params {
			if IsProvisional(p, st) {
				return true
			}
		}
		return IsProvisional(tt.Res, st)
	case *PolyType:
		return IsProvisional(tt.Res, st)
	}
	return false
}

// Same is structural type equivalence, resolving variable bindings in st.
func Same(t1, t2 Type, st *State) bool {
	t1 = resolve(t1, st)
	t2 = resolve(t2, st)
	if t1 == t2 {
		return true
	}
	switch a := t1.(type) {
	case *Named:
		b, ok := t2.(*Named)
		if !ok {
			return false
		}
		if a.Sym != b.Sym {
			return false
		}
		ap, bp := a.Prefix, b.Prefix
		if ap == nil {
			ap = NoPrefix
		}
		if bp == nil {
			bp = NoPrefix
		}
		if ap == NoPrefix || bp == NoPrefix {
			return ap == bp
		}
		return Same(ap, bp, st)
	case *Applied:
		b, ok := t2.(*Applied)
		if !ok || len(a.Args) != len(b.Args) {
			return false
		}
		if !Same(a.Tycon, b.Tycon, st) {
			return false
		}
		for i := range a.Args {
			if !Same(a.Args[i], b.Args[i], st) {
				return false
			}
		}
		return true
	case *TypeVar:
		b, ok := t2.(*TypeVar)
		return ok && a.Name == b.Name
	case *Ref:
		b, ok := t2.(*Ref)
		return ok && a.Of.Equal(b.Of)
	case *ByName:
		b, ok := t2.(*ByName)
		return ok && Same(a.Elem, b.Elem, st)
	case *AndType:
		b, ok := t2.(*AndType)
		return ok && Same(a.Left, b.Left, st) && Same(a.Right, b.Right, st)
	case *Wildcard:
		b, ok := t2.(*Wildcard)
		return ok && Same(a.Lo, b.Lo, st) && Same(a.Hi, b.Hi, st)
	case *MethodType:
		b, ok := t2.(*MethodType)
		if !ok || len(a.Params) != len(b.Params) || a.Implicit != b.Implicit {
			return false
		}
		for i := range a.Params {
			if !Same(a.Params[i], b.Params[i], st) {
				return false
			}
		}
		return Same(a.Res, b.Res, st)
	case *PolyType:
		b, ok := t2.(*PolyType)
		if !ok || len(a.Params) != len(b.Params) {
			return false
		}
		return Same(a.Res, b.Res, st)
	case *ViewProto:
		b, ok := t2.(*ViewProto)
		return ok && Same(a.Arg, b.Arg, st) && Same(a.Res, b.Res, st)
	case *SelectionProto:
		b, ok := t2.(*SelectionProto)
		return ok && a.Name == b.Name && Same(a.Member, b.Member, st)
	}
	return false
}
