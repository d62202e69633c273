package types

import "fmt"

// ViewProto is the expected-type shape of a conversion search: arg => res.
type ViewProto struct {
	Arg Type
	Res Type
}

func (t *ViewProto) String() string {
	return fmt.Sprintf("%s => %s", t.Arg.String(), t.Res.String())
}

// SelectionProto demands a member with a given name and type. PrivateOK
// grants access to private members of the prefix.
type SelectionProto struct {
	Name      string
	Member    Type
	PrivateOK bool
}

func (t *SelectionProto) String() string {
	return fmt.Sprintf("<sel %s: %s>", t.Name, t.Member.String())
}

// IsProto reports whether t is a prototype rather than a value type.
func IsProto(t Type) bool {
	switch t.(type) {
	case *ViewProto, *SelectionProto:
		return true
	}
	return false
}

// ByNameProto reports whether the expected type is a by-name argument
// shape; such frames permit knot-tying in recursive searches.
func ByNameProto(t Type) bool {
	_, ok := t.(*ByName)
	return ok
}

// NotArg returns the negated type when pt is Not[T], or nil.
func NotArg(pt Type) Type {
	if app, ok := dealias(pt).(*Applied); ok && symOf(app.Tycon) == NotClass && len(app.Args) == 1 {
		return app.Args[0]
	}
	return nil
}

// Coherent reports whether the expected type is a coherence-tagged witness
// for which any success is acceptable.
func Coherent(pt Type) bool {
	sym := SymOf(dealias(Strip(pt)))
	return sym != nil && sym.Coherent
}

// Strip removes by-name and prototype wrappers down to the underlying
// expected value type.
func Strip(pt Type) Type {
	switch tt := pt.(type) {
	case *ByName:
		return Strip(tt.Elem)
	case *ViewProto:
		return tt.Res
	case *SelectionProto:
		return tt.Member
	}
	return pt
}
