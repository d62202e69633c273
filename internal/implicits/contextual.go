package implicits

import (
	"strings"

	"github.com/funvibe/lumen/internal/config"
	"github.com/funvibe/lumen/internal/types"
)

// ContextualImplicits is a linked chain, innermost first, of the implicit
// references visible at a use site. Each link carries a nesting level;
// eligibility per target type is cached on the link.
type ContextualImplicits struct {
	refs  []ImplicitRef
	outer *ContextualImplicits
	level int
	ctx   *Context

	cache map[types.Type][]Candidate
}

// Implicits returns the contextual chain of this context, building and
// memoizing it on first use. Scopes that introduce no implicit references
// share their outer link.
func (ctx *Context) Implicits() *ContextualImplicits {
	if ctx.implicits != nil {
		return ctx.implicits
	}
	var outer *ContextualImplicits
	if ctx.Outer != nil {
		outer = ctx.Outer.Implicits()
	}
	refs := ctx.implicitRefs()
	if len(refs) == 0 && outer != nil {
		ctx.implicits = outer
		return outer
	}
	ctx.implicits = &ContextualImplicits{
		refs:  refs,
		outer: outer,
		level: contextualLevel(ctx, outer, refs),
		ctx:   ctx,
		cache: make(map[types.Type][]Candidate),
	}
	return ctx.implicits
}

// contextualLevel computes the nesting level of a new link. The level is
// inherited when the owner coincides with the outer link's and the head
// reference is not a dictionary field; it increases otherwise. Only the
// owners are compared; the identity of the scopes is not.
// The outermost level is 1.
func contextualLevel(ctx *Context, outer *ContextualImplicits, refs []ImplicitRef) int {
	if outer == nil {
		return 1
	}
	sameOwner := outer.ctx != nil && ctx.Owner == outer.ctx.Owner
	headIsDict := len(refs) > 0 && strings.HasPrefix(refs[0].ImplicitName(), config.DictFieldPrefix)
	if sameOwner && !headIsDict {
		return outer.level
	}
	return outer.level + 1
}

// Level is the nesting level of this link.
func (c *ContextualImplicits) Level() int { return c.level }

// Eligible yields the candidates of the whole chain for tp. Outer
// candidates whose implicit name is shadowed by an own eligible are
// dropped; renamed references shadow under their alias.
func (c *ContextualImplicits) Eligible(tp types.Type) []Candidate {
	if c == nil {
		return nil
	}
	cacheable := !types.IsProvisional(tp, c.ctx.State)
	if cacheable {
		if found, ok := c.cache[tp]; ok {
			return found
		}
	}
	own := c.ctx.filterMatching(c.refs, tp, c.level)
	result := own
	if c.outer != nil {
		ownNames := make(map[string]bool, len(own))
		for _, cand := range own {
			ownNames[cand.Ref.ImplicitName()] = true
		}
		for _, cand := range c.outer.Eligible(tp) {
			if !ownNames[cand.Ref.ImplicitName()] {
				result = append(result, cand)
			}
		}
	}
	if cacheable {
		c.cache[tp] = result
	}
	return result
}
