package implicits

import (
	"github.com/funvibe/lumen/internal/config"
	"github.com/funvibe/lumen/internal/tree"
	"github.com/funvibe/lumen/internal/types"
)

// Shared fixture helpers for the engine tests. Worlds are built per test;
// nothing here is global.

func testContext(settings *config.Settings) *Context {
	return NewRootContext(settings, NewScopeCache())
}

// implicitDef builds an implicit definition symbol with the flags the
// frontend would set.
func implicitDef(name string, tpe types.Type) *types.Symbol {
	flags := types.Implicit
	switch tpe.(type) {
	case *types.MethodType, *types.PolyType:
		flags |= types.Method
	}
	return types.NewSymbol(name, nil, flags, tpe)
}

// nestedScope opens a child scope with its own owner and bindings.
func nestedScope(ctx *Context, owner string, syms ...*types.Symbol) *Context {
	c := ctx.Fresh(types.NewSymbol(owner, nil, 0, nil))
	c.WithBinding(syms...)
	return c
}

// argIdent is a term of the given type to convert from.
func argIdent(name string, tpe types.Type) *tree.Ident {
	sym := types.NewSymbol(name, nil, 0, tpe)
	return &tree.Ident{Ref: types.TermRef{Prefix: types.NoPrefix, Sym: sym}, Tpe: tpe}
}

// companionFor attaches a companion module with the given implicit members
// to cls.
func companionFor(cls *types.TypeSymbol, members ...*types.Symbol) {
	moduleCls := &types.TypeSymbol{Name: cls.Name + "$"}
	for _, m := range members {
		m.Owner = moduleCls
		moduleCls.Members = append(moduleCls.Members, m)
	}
	cls.Companion = types.NewSymbol(cls.Name, nil, types.Module, types.NewNamed(moduleCls))
}

// usingMethod is a single implicit parameter list over a result.
func usingMethod(param, res types.Type) *types.MethodType {
	return &types.MethodType{ParamNames: []string{"ev"}, Params: []types.Type{param}, Res: res, Implicit: true}
}

// poly1 abstracts over one type parameter T.
func poly1(res types.Type) *types.PolyType {
	return &types.PolyType{Params: []string{"T"}, Res: res}
}

func tvar(name string) *types.TypeVar { return &types.TypeVar{Name: name} }
