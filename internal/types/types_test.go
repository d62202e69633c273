package types

import (
	"testing"
)

func testClasses() (intCls, numCls, strCls, showCls, listCls *TypeSymbol) {
	numCls = &TypeSymbol{Name: "Num"}
	intCls = &TypeSymbol{Name: "Int", Parents: []Type{NewNamed(numCls)}}
	strCls = &TypeSymbol{Name: "String"}
	showCls = &TypeSymbol{Name: "Show", TypeParams: []string{"T"}}
	listCls = &TypeSymbol{Name: "List", TypeParams: []string{"T"}}
	return
}

func TestSubtypeNominal(t *testing.T) {
	intCls, numCls, strCls, showCls, _ := testClasses()
	intTpe := NewNamed(intCls)
	numTpe := NewNamed(numCls)
	strTpe := NewNamed(strCls)

	tests := []struct {
		name string
		t1   Type
		t2   Type
		want bool
	}{
		{"refl", intTpe, intTpe, true},
		{"parent", intTpe, numTpe, true},
		{"reverse parent", numTpe, intTpe, false},
		{"unrelated", intTpe, strTpe, false},
		{"nothing below all", NothingType, strTpe, true},
		{"all below any", strTpe, AnyType, true},
		{"null below classes", NullType, strTpe, true},
		{"null not below nothing", NullType, NothingType, false},
		{"invariant args", NewApplied(showCls, intTpe), NewApplied(showCls, numTpe), false},
		{"equal args", NewApplied(showCls, intTpe), NewApplied(showCls, intTpe), true},
		{"and right", intTpe, &AndType{Left: numTpe, Right: AnyType}, true},
		{"and left", &AndType{Left: intTpe, Right: strTpe}, numTpe, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSubType(tt.t1, tt.t2, NewState()); got != tt.want {
				t.Errorf("IsSubType(%s, %s) = %v, want %v", tt.t1, tt.t2, got, tt.want)
			}
		})
	}
}

func TestSubtypeThroughAppliedParents(t *testing.T) {
	intCls, _, _, _, listCls := testClasses()
	base := &TypeSymbol{Name: "Base", TypeParams: []string{"A"}}
	sub := &TypeSymbol{
		Name:       "Sub",
		TypeParams: []string{"T"},
		Parents: []Type{
			&Applied{Tycon: NewNamed(base), Args: []Type{
				&Applied{Tycon: NewNamed(listCls), Args: []Type{&TypeVar{Name: "T"}}},
			}},
		},
	}
	intTpe := NewNamed(intCls)
	got := IsSubType(NewApplied(sub, intTpe), NewApplied(base, NewApplied(listCls, intTpe)), NewState())
	if !got {
		t.Errorf("Sub[Int] should conform to Base[List[Int]]")
	}
}

func TestTypeVarBinding(t *testing.T) {
	intCls, _, _, showCls, _ := testClasses()
	intTpe := NewNamed(intCls)
	st := NewState()
	tv := st.NewTypeVar()

	if !IsSubType(NewApplied(showCls, intTpe), &Applied{Tycon: NewNamed(showCls), Args: []Type{tv}}, st) {
		t.Fatalf("Show[Int] should unify with Show[%s]", tv.Name)
	}
	bound, ok := st.Binding(tv.Name)
	if !ok {
		t.Fatalf("type variable %s not bound", tv.Name)
	}
	if !Same(bound, intTpe, st) {
		t.Errorf("binding = %s, want Int", bound)
	}
}

func TestStateIsolation(t *testing.T) {
	intCls, _, _, _, _ := testClasses()
	intTpe := NewNamed(intCls)
	st := NewState()
	tv := st.NewTypeVar()

	trial := st.Fresh()
	if !IsSubType(intTpe, tv, trial) {
		t.Fatalf("binding in trial state failed")
	}
	if _, ok := st.Binding(tv.Name); ok {
		t.Errorf("discarded trial leaked a binding into the parent state")
	}

	trial.Commit()
	if _, ok := st.Binding(tv.Name); !ok {
		t.Errorf("committed trial did not fold bindings into the parent")
	}
}

func TestWiden(t *testing.T) {
	intCls, _, _, _, _ := testClasses()
	intTpe := NewNamed(intCls)
	x := NewSymbol("x", nil, 0, intTpe)
	ref := TermRef{Prefix: NoPrefix, Sym: x}

	if got := Widen(ref.TypeOf(), nil); !Same(got, intTpe, nil) {
		t.Errorf("Widen(x.type) = %s, want Int", got)
	}
	if got := Widen(&ByName{Elem: intTpe}, nil); !Same(got, intTpe, nil) {
		t.Errorf("Widen(=> Int) = %s, want Int", got)
	}
	if got := WidenSingleton(&ByName{Elem: intTpe}, nil); !ByNameProto(got) {
		t.Errorf("WidenSingleton should keep by-name shapes, got %s", got)
	}
}

func TestDealias(t *testing.T) {
	intCls, _, _, _, _ := testClasses()
	intTpe := NewNamed(intCls)
	label := &TypeSymbol{Name: "Label", Alias: intTpe}
	opaque := &TypeSymbol{Name: "Opaque", Alias: intTpe, Opaque: true}

	if got := Dealias(NewNamed(label)); !Same(got, intTpe, nil) {
		t.Errorf("transparent alias should unwrap, got %s", got)
	}
	if got := Dealias(NewNamed(opaque)); SymOf(got) != opaque {
		t.Errorf("opaque alias should keep its name, got %s", got)
	}
}

func TestWildApprox(t *testing.T) {
	intCls, _, _, showCls, _ := testClasses()
	intTpe := NewNamed(intCls)
	st := NewState()
	tv1 := st.NewTypeVar()
	tv2 := st.NewTypeVar()

	a1 := WildApprox(&Applied{Tycon: NewNamed(showCls), Args: []Type{tv1}}, st)
	a2 := WildApprox(&Applied{Tycon: NewNamed(showCls), Args: []Type{tv2}}, st)
	if !Same(a1, a2, nil) {
		t.Errorf("approximations of Show over distinct free variables should agree: %s vs %s", a1, a2)
	}

	st.bind(tv1.Name, intTpe)
	a3 := WildApprox(&Applied{Tycon: NewNamed(showCls), Args: []Type{tv1}}, st)
	if !Same(a3, NewApplied(showCls, intTpe), nil) {
		t.Errorf("bound variables approximate to their instance, got %s", a3)
	}
}

func TestTypeSizeAndCoveringSet(t *testing.T) {
	f := &TypeSymbol{Name: "F", TypeParams: []string{"T"}}
	g := &TypeSymbol{Name: "G", TypeParams: []string{"T"}}
	a := &TypeSymbol{Name: "A"}
	fa := NewApplied(f, NewNamed(a))
	fga := NewApplied(f, NewApplied(g, NewNamed(a)))

	if got := TypeSize(fa); got != 2 {
		t.Errorf("TypeSize(F[A]) = %d, want 2", got)
	}
	if got := TypeSize(fga); got != 3 {
		t.Errorf("TypeSize(F[G[A]]) = %d, want 3", got)
	}

	cover := CoveringSet(fga)
	for _, sym := range []*TypeSymbol{f, g, a} {
		if !cover[sym] {
			t.Errorf("covering set of F[G[A]] misses %s", sym)
		}
	}
	if SameCoveringSet(CoveringSet(fa), cover) {
		t.Errorf("covering sets of F[A] and F[G[A]] should differ")
	}
	if !SameCoveringSet(CoveringSet(fga), CoveringSet(NewApplied(g, fa))) {
		t.Errorf("covering sets are order-insensitive over the same symbols")
	}
}

func TestMemberLookup(t *testing.T) {
	intCls, _, strCls, _, _ := testClasses()
	intTpe := NewNamed(intCls)
	strTpe := NewNamed(strCls)

	parent := &TypeSymbol{Name: "Parent"}
	parent.Members = []*Symbol{NewSymbol("greet", parent, Method, &MethodType{ParamNames: []string{"x"}, Params: []Type{intTpe}, Res: strTpe})}
	child := &TypeSymbol{Name: "Child", Parents: []Type{NewNamed(parent)}}

	if m := Member(NewNamed(child), "greet", nil); m == nil || m.Owner != parent {
		t.Errorf("member lookup should walk parents")
	}
	if m := Member(NewNamed(child), "missing", nil); m != nil {
		t.Errorf("unexpected member %s", m)
	}
}

func TestAccessibility(t *testing.T) {
	owner := &TypeSymbol{Name: "Owner"}
	priv := NewSymbol("secret", owner, Private, NothingType)

	if priv.AccessibleFrom(NewNamed(&TypeSymbol{Name: "Other"}), false) {
		t.Errorf("private member should not be accessible from a foreign prefix")
	}
	if !priv.AccessibleFrom(NewNamed(owner), false) {
		t.Errorf("private member should be accessible from its owner")
	}
	if !priv.AccessibleFrom(NewNamed(&TypeSymbol{Name: "Other"}), true) {
		t.Errorf("privateOK should grant access")
	}
}

func TestTermRefSemanticEquality(t *testing.T) {
	intCls, _, _, _, _ := testClasses()
	intTpe := NewNamed(intCls)
	obj := &TypeSymbol{Name: "Obj"}
	x := NewSymbol("x", obj, 0, intTpe)

	r1 := TermRef{Prefix: NewNamed(obj), Sym: x}
	r2 := TermRef{Prefix: NewNamed(obj), Sym: x}
	r3 := TermRef{Prefix: NewNamed(&TypeSymbol{Name: "Obj2"}), Sym: x}

	if !r1.Equal(r2) {
		t.Errorf("references with type-equivalent prefixes should be equal")
	}
	if r1.Equal(r3) {
		t.Errorf("references with distinct prefixes should differ")
	}
}
