package implicits

import (
	"github.com/funvibe/lumen/internal/config"
	"github.com/funvibe/lumen/internal/trace"
	"github.com/funvibe/lumen/internal/types"
)

// ImportInfo records one import site: the imported object and the
// implicit references it introduces, possibly under renamed aliases.
type ImportInfo struct {
	Site types.TermRef
	Refs []ImplicitRef
}

// Context is the engine's view of one lexical scope. Chains link
// innermost-first via Outer. The root context owns the typer state and the
// per-run scope cache.
type Context struct {
	Outer    *Context
	Owner    *types.Symbol
	Bindings []*types.Symbol
	Imports  []*ImportInfo

	Settings *config.Settings
	Scopes   *ScopeCache
	Tracer   *trace.Tracer
	State    *types.State

	implicits *ContextualImplicits
}

// NewRootContext builds the outermost context of a run.
func NewRootContext(settings *config.Settings, scopes *ScopeCache) *Context {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	if scopes == nil {
		scopes = NewScopeCache()
	}
	return &Context{
		Settings: settings,
		Scopes:   scopes,
		State:    types.NewState(),
	}
}

// Fresh opens a nested scope owned by owner. The child shares the run's
// settings, cache and state.
func (ctx *Context) Fresh(owner *types.Symbol) *Context {
	return &Context{
		Outer:    ctx,
		Owner:    owner,
		Settings: ctx.Settings,
		Scopes:   ctx.Scopes,
		Tracer:   ctx.Tracer,
		State:    ctx.State,
	}
}

// WithBinding declares a local term binding in this scope.
func (ctx *Context) WithBinding(syms ...*types.Symbol) *Context {
	ctx.Bindings = append(ctx.Bindings, syms...)
	ctx.implicits = nil
	return ctx
}

// WithImport records an import in this scope.
func (ctx *Context) WithImport(imp *ImportInfo) *Context {
	ctx.Imports = append(ctx.Imports, imp)
	ctx.implicits = nil
	return ctx
}

// Exclude returns a copy of the chain omitting every import whose site's
// term symbol equals rootSym. Used to suppress the root import when a
// wildcard of the same name is re-imported.
func (ctx *Context) Exclude(rootSym *types.Symbol) *Context {
	if ctx == nil {
		return nil
	}
	var imports []*ImportInfo
	changed := false
	for _, imp := range ctx.Imports {
		if imp.Site.Sym == rootSym {
			changed = true
			continue
		}
		imports = append(imports, imp)
	}
	outer := ctx.Outer.Exclude(rootSym)
	if !changed && outer == ctx.Outer {
		return ctx
	}
	cp := *ctx
	cp.Outer = outer
	cp.Imports = imports
	cp.implicits = nil
	return &cp
}

// implicitRefs lifts this scope's implicit bindings and imported implicit
// references, innermost declarations first.
func (ctx *Context) implicitRefs() []ImplicitRef {
	var out []ImplicitRef
	for _, sym := range ctx.Bindings {
		if sym.Is(types.Implicit) {
			out = append(out, ImplicitRef{Ref: types.TermRef{Prefix: types.NoPrefix, Sym: sym}})
		}
	}
	for _, imp := range ctx.Imports {
		out = append(out, imp.Refs...)
	}
	return out
}

// LookupName resolves a bare name at the use site, innermost scope first.
// Imported references participate under their visible (possibly renamed)
// name. This is what the shadowing probe consults.
func (ctx *Context) LookupName(name string) *types.Symbol {
	for c := ctx; c != nil; c = c.Outer {
		for i := len(c.Bindings) - 1; i >= 0; i-- {
			if c.Bindings[i].Name == name {
				return c.Bindings[i]
			}
		}
		for i := len(c.Imports) - 1; i >= 0; i-- {
			for _, ref := range c.Imports[i].Refs {
				if ref.ImplicitName() == name {
					return ref.Ref.Sym
				}
			}
		}
	}
	return nil
}
