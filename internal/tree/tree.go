// Package tree holds the typed term trees the resolution engine builds:
// references to implicits, their applications, and the synthesized
// dictionary class emitted for recursive by-name instances.
package tree

import (
	"fmt"
	"strings"

	"github.com/funvibe/lumen/internal/types"
)

// Tree is a typed term.
type Tree interface {
	Type() types.Type
	String() string
}

// Ident references a term symbol through a TermRef.
type Ident struct {
	Ref types.TermRef
	Tpe types.Type
}

func (t *Ident) Type() types.Type { return t.Tpe }
func (t *Ident) String() string   { return t.Ref.String() }

// Select is a member selection qual.name.
type Select struct {
	Qual Tree
	Name string
	Sym  *types.Symbol
	Tpe  types.Type
}

func (t *Select) Type() types.Type { return t.Tpe }
func (t *Select) String() string   { return t.Qual.String() + "." + t.Name }

// Apply is a term application fn(args...).
type Apply struct {
	Fn   Tree
	Args []Tree
	Tpe  types.Type
}

func (t *Apply) Type() types.Type { return t.Tpe }
func (t *Apply) String() string {
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", t.Fn.String(), strings.Join(parts, ", "))
}

// TypeApply is a type application fn[targs...].
type TypeApply struct {
	Fn    Tree
	Targs []types.Type
	Tpe   types.Type
}

func (t *TypeApply) Type() types.Type { return t.Tpe }
func (t *TypeApply) String() string {
	parts := make([]string, len(t.Targs))
	for i, a := range t.Targs {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s[%s]", t.Fn.String(), strings.Join(parts, ", "))
}

// New instantiates a class.
type New struct {
	Tpe types.Type
}

func (t *New) Type() types.Type { return t.Tpe }
func (t *New) String() string   { return "new " + t.Tpe.String() }

// ValDef defines a value. Lazy marks late-initialized dictionary fields.
type ValDef struct {
	Sym  *types.Symbol
	Rhs  Tree
	Lazy bool
}

func (t *ValDef) Type() types.Type { return types.UnitType }
func (t *ValDef) String() string {
	kw := "val"
	if t.Lazy {
		kw = "lazy val"
	}
	rhs := "<empty>"
	if t.Rhs != nil {
		rhs = t.Rhs.String()
	}
	return fmt.Sprintf("%s %s = %s", kw, t.Sym.Name, rhs)
}

// ClassDef defines a synthesized class with value fields.
type ClassDef struct {
	Sym     *types.TypeSymbol
	Parents []types.Type
	Fields  []*ValDef
}

func (t *ClassDef) Type() types.Type { return types.UnitType }
func (t *ClassDef) String() string {
	fields := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		fields[i] = f.String()
	}
	return fmt.Sprintf("class %s { %s }", t.Sym.Name, strings.Join(fields, "; "))
}

// Block is a statement sequence ending in an expression.
type Block struct {
	Stats []Tree
	Expr  Tree
}

func (t *Block) Type() types.Type { return t.Expr.Type() }
func (t *Block) String() string {
	parts := make([]string, 0, len(t.Stats)+1)
	for _, s := range t.Stats {
		parts = append(parts, s.String())
	}
	parts = append(parts, t.Expr.String())
	return "{ " + strings.Join(parts, "; ") + " }"
}

// Size counts the nodes of a tree; a Block adds no node of its own, only
// those of its statements and expression. Failure diagnostics keep the
// largest failed tree as the most informative one.
func Size(t Tree) int {
	switch tt := t.(type) {
	case nil:
		return 0
	case *Ident, *New:
		return 1
	case *Select:
		return 1 + Size(tt.Qual)
	case *Apply:
		n := 1 + Size(tt.Fn)
		for _, a := range tt.Args {
			n += Size(a)
		}
		return n
	case *TypeApply:
		return 1 + Size(tt.Fn)
	case *ValDef:
		return 1 + Size(tt.Rhs)
	case *ClassDef:
		n := 1
		for _, f := range tt.Fields {
			n += Size(f)
		}
		return n
	case *Block:
		n := Size(tt.Expr)
		for _, s := range tt.Stats {
			n += Size(s)
		}
		return n
	}
	return 1
}

// IdentSyms collects the symbols of all identifiers in t into the set.
func IdentSyms(t Tree, into map[*types.Symbol]bool) {
	switch tt := t.(type) {
	case nil:
	case *Ident:
		into[tt.Ref.Sym] = true
	case *Select:
		IdentSyms(tt.Qual, into)
	case *Apply:
		IdentSyms(tt.Fn, into)
		for _, a := range tt.Args {
			IdentSyms(a, into)
		}
	case *TypeApply:
		IdentSyms(tt.Fn, into)
	case *ValDef:
		IdentSyms(tt.Rhs, into)
	case *ClassDef:
		for _, f := range tt.Fields {
			IdentSyms(f, into)
		}
	case *Block:
		for _, s := range tt.Stats {
			IdentSyms(s, into)
		}
		IdentSyms(tt.Expr, into)
	}
}

// SubstIdents rewrites identifiers whose symbol appears in repl, rebuilding
// only the spine that changes.
func SubstIdents(t Tree, repl map[*types.Symbol]Tree) Tree {
	switch tt := t.(type) {
	case nil:
		return nil
	case *Ident:
		if r, ok := repl[tt.Ref.Sym]; ok {
			return r
		}
		return tt
	case *Select:
		qual := SubstIdents(tt.Qual, repl)
		if qual == tt.Qual {
			return tt
		}
		return &Select{Qual: qual, Name: tt.Name, Sym: tt.Sym, Tpe: tt.Tpe}
	case *Apply:
		fn := SubstIdents(tt.Fn, repl)
		args := make([]Tree, len(tt.Args))
		changed := fn != tt.Fn
		for i, a := range tt.Args {
			args[i] = SubstIdents(a, repl)
			changed = changed || args[i] != a
		}
		if !changed {
			return tt
		}
		return &Apply{Fn: fn, Args: args, Tpe: tt.Tpe}
	case *TypeApply:
		fn := SubstIdents(tt.Fn, repl)
		if fn == tt.Fn {
			return tt
		}
		return &TypeApply{Fn: fn, Targs: tt.Targs, Tpe: tt.Tpe}
	case *ValDef:
		rhs := SubstIdents(tt.Rhs, repl)
		if rhs == tt.Rhs {
			return tt
		}
		return &ValDef{Sym: tt.Sym, Rhs: rhs, Lazy: tt.Lazy}
	case *Block:
		stats := make([]Tree, len(tt.Stats))
		changed := false
		for i, s := range tt.Stats {
			stats[i] = SubstIdents(s, repl)
			changed = changed || stats[i] != s
		}
		expr := SubstIdents(tt.Expr, repl)
		if !changed && expr == tt.Expr {
			return tt
		}
		return &Block{Stats: stats, Expr: expr}
	}
	return t
}
