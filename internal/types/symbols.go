package types

import "fmt"

type Flags uint16

const (
	Implicit Flags = 1 << iota
	Method
	Module // companion object / module value
	Private
	Synthetic
	Extension
)

// Symbol is a term symbol: a value, method or module definition.
type Symbol struct {
	Name  string
	Owner *TypeSymbol // enclosing class; nil for locals and package members
	Flags Flags
	info  Type
}

func NewSymbol(name string, owner *TypeSymbol, flags Flags, info Type) *Symbol {
	return &Symbol{Name: name, Owner: owner, Flags: flags, info: info}
}

func (s *Symbol) Is(f Flags) bool { return s.Flags&f != 0 }

// Info returns the declared type of the symbol.
func (s *Symbol) Info() Type { return s.info }

// SetInfo rebinds the symbol's type. Used for late-typed synthetic symbols
// (dictionary fields are allocated before their defining search completes).
func (s *Symbol) SetInfo(t Type) { s.info = t }

func (s *Symbol) String() string {
	if s == nil {
		return "<none>"
	}
	if s.Owner != nil {
		return s.Owner.Name + "." + s.Name
	}
	return s.Name
}

// AccessibleFrom reports whether the symbol can be selected on the given
// prefix. Private members are visible only when privateOK is set or the
// prefix is the owner's own type.
func (s *Symbol) AccessibleFrom(prefix Type, privateOK bool) bool {
	if !s.Is(Private) {
		return true
	}
	if privateOK {
		return true
	}
	if s.Owner == nil {
		return true
	}
	if named, ok := prefix.(*Named); ok && named.Sym == s.Owner {
		return true
	}
	return false
}

// TypeSymbol is a class, trait, or (opaque) type alias.
type TypeSymbol struct {
	Name       string
	Owner      *TypeSymbol
	TypeParams []string
	Parents    []Type // expressed over TypeParams as TypeVar names
	Alias      Type   // non-nil for aliases
	Opaque     bool
	Companion  *Symbol   // module holding the companion implicits, or nil
	Members    []*Symbol // term members, for selections and extensions
	Coherent   bool      // coherence-tagged witness class: first success wins
}

func (c *TypeSymbol) String() string {
	if c == nil {
		return "<noclass>"
	}
	return c.Name
}

// IsAlias reports whether the symbol is a (transparent or opaque) alias.
func (c *TypeSymbol) IsAlias() bool { return c.Alias != nil }

// Member returns the term member with the given name, or nil.
func (c *TypeSymbol) Member(name string) *Symbol {
	for _, m := range c.Members {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Derives reports whether the class (not a type) transitively extends other.
func (c *TypeSymbol) Derives(other *TypeSymbol) bool {
	return c.derives(other, make(map[*TypeSymbol]bool))
}

func (c *TypeSymbol) derives(other *TypeSymbol, seen map[*TypeSymbol]bool) bool {
	if c == nil || other == nil || seen[c] {
		return false
	}
	if c == other {
		return true
	}
	seen[c] = true
	for _, p := range c.Parents {
		if sym := symOf(p); sym != nil && sym.derives(other, seen) {
			return true
		}
	}
	return false
}

// TermRef is a reference to a term symbol seen through a prefix type.
type TermRef struct {
	Prefix Type
	Sym    *Symbol
}

func (r TermRef) String() string {
	if r.Prefix != nil && r.Prefix != NoPrefix {
		return r.Prefix.String() + "." + r.Sym.Name
	}
	return r.Sym.Name
}

// Exists reports whether the reference denotes a symbol at all.
func (r TermRef) Exists() bool { return r.Sym != nil }

// Equal is semantic TermRef equality: same symbol and type-equivalent
// prefixes.
func (r TermRef) Equal(other TermRef) bool {
	if r.Sym != other.Sym {
		return false
	}
	if r.Prefix == other.Prefix {
		return true
	}
	return Same(r.Prefix, other.Prefix, nil)
}

// Underlying is the reference's type as seen from its prefix.
func (r TermRef) Underlying() Type {
	if r.Sym == nil {
		return NothingType
	}
	return memberInfo(r.Prefix, r.Sym)
}

// TypeOf is the singleton type of the reference.
func (r TermRef) TypeOf() Type { return &Ref{Of: r} }

// memberInfo rebinds the member's declared type to the prefix it is
// selected through.
func memberInfo(prefix Type, sym *Symbol) Type {
	return AsSeenFrom(sym.Info(), prefix, sym.Owner)
}

func symOf(t Type) *TypeSymbol {
	switch tt := t.(type) {
	case *Named:
		return tt.Sym
	case *Applied:
		return symOf(tt.Tycon)
	}
	return nil
}

// SymOf exposes the head type symbol of a named or applied type, nil
// otherwise.
func SymOf(t Type) *TypeSymbol { return symOf(t) }

// CyclicError is thrown (panicked) by collaborators when a reference cycle
// is hit during typing. The search engine annotates and rethrows it.
type CyclicError struct {
	Sym              *Symbol
	InImplicitSearch bool
}

func (e *CyclicError) Error() string {
	where := ""
	if e.InImplicitSearch {
		where = " (in implicit search)"
	}
	return fmt.Sprintf("cyclic reference involving %s%s", e.Sym, where)
}
