package types

// Compare is the structural preference order between two implicit
// references. A positive result prefers ref1, a negative result ref2,
// zero means the two are incomparable and must be disambiguated elsewhere.
//
// Keys, in order: higher nesting level; owner-subtype relation; lower
// first-parameter-list arity. Incomparable owners contribute 0 so that
// arity acts as the next key.
func Compare(ref1, ref2 TermRef, level1, level2 int) int {
	if level1 != level2 {
		if level1 > level2 {
			return 1
		}
		return -1
	}
	if d := compareOwners(ref1.Sym.Owner, ref2.Sym.Owner); d != 0 {
		return d
	}
	a1, a2 := FirstParamArity(ref1.Underlying()), FirstParamArity(ref2.Underlying())
	if a1 != a2 {
		if a1 < a2 {
			return 1
		}
		return -1
	}
	return 0
}

func compareOwners(o1, o2 *TypeSymbol) int {
	if o1 == nil || o2 == nil || o1 == o2 {
		return 0
	}
	d1, d2 := o1.Derives(o2), o2.Derives(o1)
	switch {
	case d1 && !d2:
		return 1
	case d2 && !d1:
		return -1
	}
	return 0
}

// FirstParamArity is the arity of the first parameter list of a method
// type, implicit or not, zero for plain values.
func FirstParamArity(t Type) int {
	switch tt := t.(type) {
	case *PolyType:
		return FirstParamArity(tt.Res)
	case *MethodType:
		return len(tt.Params)
	}
	return 0
}
