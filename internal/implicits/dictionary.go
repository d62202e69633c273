package implicits

import (
	"github.com/funvibe/lumen/internal/config"
	"github.com/funvibe/lumen/internal/tree"
	"github.com/funvibe/lumen/internal/types"
)

// EmitDictionary materializes the recursive by-name implicit instances
// linked during the search as a synthetic class with lazy value fields,
// rewriting the result tree to select them from a single instance.
// Entries not transitively referenced from the result are pruned. With an
// empty dictionary the result passes through unchanged.
func EmitDictionary(root *SearchRoot, result tree.Tree) tree.Tree {
	if root.Empty() {
		return result
	}

	surviving := prune(root, result)
	if len(surviving) == 0 {
		return result
	}

	cls := &types.TypeSymbol{
		Name:    config.DictClassName,
		Parents: []types.Type{types.ObjectType, types.NewNamed(types.SerializableClass)},
	}
	clsTpe := types.NewNamed(cls)
	instSym := types.NewSymbol(config.DictFieldPrefix+"$inst", nil, types.Synthetic, clsTpe)
	instRef := types.TermRef{Prefix: types.NoPrefix, Sym: instSym}

	// Every dictionary identifier, in fields and in the result, becomes a
	// selection on the instance.
	repl := make(map[*types.Symbol]tree.Tree, len(surviving))
	fieldSyms := make(map[*dictEntry]*types.Symbol, len(surviving))
	for _, e := range surviving {
		field := types.NewSymbol(e.ref.Sym.Name, cls, types.Implicit|types.Synthetic, e.tp)
		cls.Members = append(cls.Members, field)
		fieldSyms[e] = field
		repl[e.ref.Sym] = &tree.Select{
			Qual: &tree.Ident{Ref: instRef, Tpe: clsTpe},
			Name: field.Name,
			Sym:  field,
			Tpe:  e.tp,
		}
	}

	fields := make([]*tree.ValDef, 0, len(surviving))
	for _, e := range surviving {
		fields = append(fields, &tree.ValDef{
			Sym:  fieldSyms[e],
			Rhs:  tree.SubstIdents(e.rhs, repl),
			Lazy: true,
		})
	}

	classDef := &tree.ClassDef{Sym: cls, Parents: cls.Parents, Fields: fields}
	instDef := &tree.ValDef{
		Sym: instSym,
		Rhs: &tree.Apply{Fn: &tree.New{Tpe: clsTpe}, Args: nil, Tpe: clsTpe},
	}

	return &tree.Block{
		Stats: []tree.Tree{classDef, instDef},
		Expr:  tree.SubstIdents(result, repl),
	}
}

// prune admits the dictionary entries transitively referenced from the
// result tree, to fixed point. Entries whose defining search never
// completed cannot be materialized and are dropped with their referents.
func prune(root *SearchRoot, result tree.Tree) []*dictEntry {
	referenced := make(map[*types.Symbol]bool)
	tree.IdentSyms(result, referenced)

	admitted := make(map[*dictEntry]bool)
	for changed := true; changed; {
		changed = false
		for _, e := range root.entries {
			if admitted[e] || e.rhs == nil || !referenced[e.ref.Sym] {
				continue
			}
			admitted[e] = true
			tree.IdentSyms(e.rhs, referenced)
			changed = true
		}
	}

	var out []*dictEntry
	for _, e := range root.entries {
		if admitted[e] {
			out = append(out, e)
		}
	}
	return out
}
