package types

import "fmt"

// Subst maps type-variable names to types.
type Subst map[string]Type

// substNames applies a name-keyed substitution. PolyType parameters shadow
// outer names.
func substNames(t Type, s Subst) Type {
	if len(s) == 0 {
		return t
	}
	switch tt := t.(type) {
	case *TypeVar:
		if r, ok := s[tt.Name]; ok {
			return r
		}
		return tt
	case *Applied:
		args := make([]Type, len(tt.Args))
		for i, a := range tt.Args {
			args[i] = substNames(a, s)
		}
		return &Applied{Tycon: substNames(tt.Tycon, s), Args: args}
	case *Named:
		if tt.Prefix == NoPrefix || tt.Prefix == nil {
			return tt
		}
		return &Named{Prefix: substNames(tt.Prefix, s), Sym: tt.Sym}
	case *ByName:
		return &ByName{Elem: substNames(tt.Elem, s)}
	case *MethodType:
		params := make([]Type, len(tt.Params))
		for i, p := range tt.Params {
			params[i] = substNames(p, s)
		}
		return &MethodType{ParamNames: tt.ParamNames, Params: params, Res: substNames(tt.Res, s), Implicit: tt.Implicit}
	case *PolyType:
		inner := make(Subst, len(s))
		for k, v := range s {
			inner[k] = v
		}
		for _, p := range tt.Params {
			delete(inner, p)
		}
		return &PolyType{Params: tt.Params, Res: substNames(tt.Res, inner)}
	case *AndType:
		return &AndType{Left: substNames(tt.Left, s), Right: substNames(tt.Right, s)}
	case *Bounds:
		return &Bounds{Lo: substNames(tt.Lo, s), Hi: substNames(tt.Hi, s)}
	case *Wildcard:
		return tt
	case *ViewProto:
		return &ViewProto{Arg: substNames(tt.Arg, s), Res: substNames(tt.Res, s)}
	case *SelectionProto:
		return &SelectionProto{Name: tt.Name, Member: substNames(tt.Member, s), PrivateOK: tt.PrivateOK}
	}
	return t
}

// SubstNames applies a name-keyed substitution to t.
func SubstNames(t Type, s Subst) Type { return substNames(t, s) }

// State is a typer state: the accumulated type-variable bindings of one
// trial. Fresh children are explorative; discarding one leaks nothing into
// the parent, Commit folds its bindings in.
type State struct {
	parent   *State
	bindings Subst
	counter  *int
}

func NewState() *State {
	n := 0
	return &State{bindings: make(Subst), counter: &n}
}

// Fresh returns an explorative child state sharing the variable counter.
func (st *State) Fresh() *State {
	return &State{parent: st, bindings: make(Subst), counter: st.counter}
}

// Commit folds the state's bindings into its parent. Committing the root
// state is a no-op.
func (st *State) Commit() {
	if st.parent == nil {
		return
	}
	for k, v := range st.bindings {
		st.parent.bindings[k] = v
	}
}

// Binding resolves a type-variable name through the state chain.
func (st *State) Binding(name string) (Type, bool) {
	for s := st; s != nil; s = s.parent {
		if t, ok := s.bindings[name]; ok {
			return t, true
		}
	}
	return nil, false
}

func (st *State) bind(name string, t Type) {
	st.bindings[name] = t
}

// NewTypeVar allocates a fresh provisional variable in this state's run.
func (st *State) NewTypeVar() *TypeVar {
	*st.counter++
	return &TypeVar{Name: fmt.Sprintf("t%d", *st.counter)}
}

// Snapshot flattens the visible bindings, newest shadowing oldest. Used
// for NoMatching constraint diagnostics.
func (st *State) Snapshot() Subst {
	var chain []*State
	for s := st; s != nil; s = s.parent {
		chain = append(chain, s)
	}
	out := make(Subst)
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].bindings {
			out[k] = v
		}
	}
	return out
}

// resolve chases bindings of a type variable to its current instance.
func resolve(t Type, st *State) Type {
	for {
		tv, ok := t.(*TypeVar)
		if !ok || st == nil {
			return t
		}
		inst, ok := st.Binding(tv.Name)
		if !ok || inst == tv {
			return t
		}
		t = inst
	}
}

// Resolve chases type-variable bindings in st.
func Resolve(t Type, st *State) Type { return resolve(t, st) }

// Instantiate replaces the parameters of a PolyType with fresh variables
// allocated in st, returning the variables and the instantiated result.
func Instantiate(p *PolyType, st *State) ([]*TypeVar, Type) {
	vars := make([]*TypeVar, len(p.Params))
	s := make(Subst, len(p.Params))
	for i, name := range p.Params {
		tv := st.NewTypeVar()
		vars[i] = tv
		s[name] = tv
	}
	return vars, substNames(p.Res, s)
}

// Instance returns t with every bound variable replaced by its instance.
func Instance(t Type, st *State) Type {
	if st == nil {
		return t
	}
	switch tt := resolve(t, st).(type) {
	case *TypeVar:
		return tt
	case *Applied:
		args := make([]Type, len(tt.Args))
		for i, a := range tt.Args {
			args[i] = Instance(a, st)
		}
		return &Applied{Tycon: Instance(tt.Tycon, st), Args: args}
	case *ByName:
		return &ByName{Elem: Instance(tt.Elem, st)}
	case *MethodType:
		params := make([]Type, len(tt.Params))
		for i, p := range tt.Params {
			params[i] = Instance(p, st)
		}
		return &MethodType{ParamNames: tt.ParamNames, Params: params, Res: Instance(tt.Res, st), Implicit: tt.Implicit}
	case *AndType:
		return &AndType{Left: Instance(tt.Left, st), Right: Instance(tt.Right, st)}
	case *ViewProto:
		return &ViewProto{Arg: Instance(tt.Arg, st), Res: Instance(tt.Res, st)}
	case *SelectionProto:
		return &SelectionProto{Name: tt.Name, Member: Instance(tt.Member, st), PrivateOK: tt.PrivateOK}
	default:
		return tt
	}
}
