package types

import (
	"fmt"
	"strings"
)

// Type is the interface for all type terms exchanged with the resolution
// engine. Handles are identity-stable: two pointers to the same cacheable
// type may be used as map keys interchangeably with structural equality
// checked by Same.
type Type interface {
	String() string
}

// NoPrefix marks a reference without a prefix (a local or package-level
// binding).
type noPrefix struct{}

func (noPrefix) String() string { return "<noprefix>" }

var NoPrefix Type = noPrefix{}

// Named is a reference to a class, trait or alias symbol, optionally
// qualified by a prefix type.
type Named struct {
	Prefix Type // NoPrefix when unqualified
	Sym    *TypeSymbol
}

func (t *Named) String() string {
	if t.Prefix != NoPrefix && t.Prefix != nil {
		return t.Prefix.String() + "." + t.Sym.Name
	}
	return t.Sym.Name
}

// Applied is a type application Tycon[Args...]. Tycon is a Named (possibly
// an alias); args are invariant.
type Applied struct {
	Tycon Type
	Args  []Type
}

func (t *Applied) String() string {
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s[%s]", t.Tycon.String(), strings.Join(parts, ", "))
}

// TypeVar is a provisional type variable created during a trial. Its
// instance lives in the State that created it, so discarding an
// explorative State discards all its bindings.
type TypeVar struct {
	Name string
}

func (t *TypeVar) String() string { return t.Name }

// Bounds is a type interval lo..hi.
type Bounds struct {
	Lo Type
	Hi Type
}

func (t *Bounds) String() string {
	return fmt.Sprintf(">: %s <: %s", t.Lo.String(), t.Hi.String())
}

// Wildcard is an unknown type confined to bounds. Wildcards appear only in
// approximated types; they compare as "any type within bounds".
type Wildcard struct {
	Lo Type
	Hi Type
}

func (t *Wildcard) String() string { return "?" }

// ByName is the type of a call-by-name parameter `=> T`.
type ByName struct {
	Elem Type
}

func (t *ByName) String() string { return "=> " + t.Elem.String() }

// MethodType is a single parameter list with a result. Implicit marks an
// implicit (contextual) parameter list.
type MethodType struct {
	ParamNames []string
	Params     []Type
	Res        Type
	Implicit   bool
}

func (t *MethodType) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	kw := ""
	if t.Implicit {
		kw = "using "
	}
	return fmt.Sprintf("(%s%s): %s", kw, strings.Join(parts, ", "), t.Res.String())
}

// PolyType is a type-parameterized term type [Params] Res. Parameters are
// referenced inside Res as TypeVars carrying the parameter name;
// instantiation substitutes fresh variables for them.
type PolyType struct {
	Params []string
	Res    Type
}

func (t *PolyType) String() string {
	return fmt.Sprintf("[%s] %s", strings.Join(t.Params, ", "), t.Res.String())
}

// Ref is the singleton type of a term reference.
type Ref struct {
	Of TermRef
}

func (t *Ref) String() string { return t.Of.String() + ".type" }

// AndType is the conjunction A & B.
type AndType struct {
	Left  Type
	Right Type
}

func (t *AndType) String() string {
	return t.Left.String() + " & " + t.Right.String()
}

// NewNamed builds an unqualified reference to sym.
func NewNamed(sym *TypeSymbol) *Named { return &Named{Prefix: NoPrefix, Sym: sym} }

// NewApplied builds sym[args...], or the bare Named when sym takes no
// parameters.
func NewApplied(sym *TypeSymbol, args ...Type) Type {
	if len(args) == 0 {
		return NewNamed(sym)
	}
	return &Applied{Tycon: NewNamed(sym), Args: args}
}

// FunctionOf is the canonical single-argument function type arg => res.
func FunctionOf(arg, res Type) Type {
	return NewApplied(Function1Class, arg, res)
}

// And builds the conjunction of parts, flattening the trivial cases.
func And(parts ...Type) Type {
	var acc Type
	for _, p := range parts {
		if p == nil {
			continue
		}
		if acc == nil {
			acc = p
			continue
		}
		if Same(acc, p, nil) {
			continue
		}
		acc = &AndType{Left: acc, Right: p}
	}
	if acc == nil {
		return AnyType
	}
	return acc
}
