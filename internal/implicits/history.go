package implicits

import (
	"fmt"

	"github.com/funvibe/lumen/internal/config"
	"github.com/funvibe/lumen/internal/tree"
	"github.com/funvibe/lumen/internal/types"
)

// SearchHistory is a functional stack of the active nested searches. Each
// frame records the candidate under trial and the type it is tried at.
// The root link owns the implicit dictionary shared by all nested frames.
type SearchHistory struct {
	root   *SearchRoot
	outer  *SearchHistory
	ref    types.TermRef
	pt     types.Type
	byName bool
}

// NewSearchHistory starts the history of one top-level inference.
func NewSearchHistory() *SearchHistory {
	return &SearchHistory{root: newSearchRoot()}
}

// Root is the owner of the implicit dictionary.
func (h *SearchHistory) Root() *SearchRoot { return h.root }

// IsRoot reports the sentinel link with no active frame.
func (h *SearchHistory) IsRoot() bool { return h.outer == nil }

// Depth is the number of active frames.
func (h *SearchHistory) Depth() int {
	n := 0
	for f := h; !f.IsRoot(); f = f.outer {
		n++
	}
	return n
}

// Nest pushes a frame for trying cand at pt.
func (h *SearchHistory) Nest(cand Candidate, pt types.Type) *SearchHistory {
	return &SearchHistory{
		root:   h.root,
		outer:  h,
		ref:    cand.Ref.Ref,
		pt:     pt,
		byName: types.ByNameProto(pt),
	}
}

// bynameActive reports whether any by-name prototype is on the stack.
func (h *SearchHistory) bynameActive() bool {
	for f := h; !f.IsRoot(); f = f.outer {
		if f.byName {
			return true
		}
	}
	return false
}

// CheckDivergence decides whether trying cand at pt diverges given the
// active frames. Frames are scanned newest-first; only frames of the same
// candidate reference matter. A frame separated from the top by a by-name
// prototype whose approximated type covers pt's approximation permits the
// knot to be tied instead. Divergence itself is growth (strictly smaller
// frame size with an equal covering set) or a plain loop (equal wildcard
// approximations).
func (h *SearchHistory) CheckDivergence(cand Candidate, pt types.Type, st *types.State) bool {
	ptApprox := types.WildApprox(pt, st)
	ptSize := types.TypeSize(ptApprox)
	ptCover := types.CoveringSet(ptApprox)
	crossedByName := types.ByNameProto(pt)

	for f := h; !f.IsRoot(); f = f.outer {
		if f.ref.Equal(cand.Ref.Ref) {
			frameApprox := types.WildApprox(f.pt, st)
			if crossedByName && types.IsSubType(ptApprox, frameApprox, st.Fresh()) {
				return false
			}
			frameSize := types.TypeSize(frameApprox)
			frameCover := types.CoveringSet(frameApprox)
			if frameSize < ptSize && types.SameCoveringSet(frameCover, ptCover) {
				return true
			}
			if types.Same(frameApprox, ptApprox, nil) {
				return true
			}
		}
		if f.byName {
			crossedByName = true
		}
	}
	return false
}

// RecursiveRef resolves pt against the in-progress searches: either a
// dictionary entry already exists for pt's widened type, or an enclosing
// frame constructs a subtype of it and is separated from the top by at least
// one by-name prototype, in which case a dictionary entry is linked for it
// and its reference returned. The zero TermRef means no recursion applies.
func (h *SearchHistory) RecursiveRef(pt types.Type, st *types.State) types.TermRef {
	wpt := types.Widen(pt, st)
	if ref, ok := h.root.RefByName(wpt); ok {
		return ref
	}
	if !types.ByNameProto(pt) && !h.bynameActive() {
		return types.TermRef{}
	}
	crossedByName := types.ByNameProto(pt)
	for f := h; !f.IsRoot(); f = f.outer {
		wframe := types.Widen(f.pt, st)
		if crossedByName && types.IsSubType(wframe, wpt, st.Fresh()) {
			return h.root.LinkByName(types.Instance(wframe, st))
		}
		if f.byName {
			crossedByName = true
		}
	}
	return types.TermRef{}
}

// SearchRoot owns the implicit dictionary: the mapping from a widened
// target type to the synthetic reference standing in for its in-progress
// construction, and eventually to the defining tree.
type SearchRoot struct {
	entries []*dictEntry
	byKey   map[string]*dictEntry
}

type dictEntry struct {
	tp  types.Type
	ref types.TermRef
	rhs tree.Tree // nil until the defining search succeeds
}

func newSearchRoot() *SearchRoot {
	return &SearchRoot{byKey: make(map[string]*dictEntry)}
}

// RefByName finds the dictionary reference for tp, if linked.
func (r *SearchRoot) RefByName(tp types.Type) (types.TermRef, bool) {
	if e, ok := r.byKey[tp.String()]; ok {
		return e.ref, true
	}
	return types.TermRef{}, false
}

// LinkByName returns a stable reference to the dictionary entry for tp,
// allocating the entry and its synthetic symbol if absent.
func (r *SearchRoot) LinkByName(tp types.Type) types.TermRef {
	key := tp.String()
	if e, ok := r.byKey[key]; ok {
		return e.ref
	}
	sym := types.NewSymbol(
		fmt.Sprintf("%s%d", config.DictFieldPrefix, len(r.entries)),
		nil, types.Implicit|types.Synthetic, tp,
	)
	e := &dictEntry{tp: tp, ref: types.TermRef{Prefix: types.NoPrefix, Sym: sym}}
	r.entries = append(r.entries, e)
	r.byKey[key] = e
	return e.ref
}

// Define records the defining tree of the entry for tp. Entries are
// write-once: a second definition for the same type is ignored.
func (r *SearchRoot) Define(tp types.Type, rhs tree.Tree) {
	if e, ok := r.byKey[tp.String()]; ok && e.rhs == nil {
		e.rhs = rhs
	}
}

// Empty reports whether no entries were linked.
func (r *SearchRoot) Empty() bool { return len(r.entries) == 0 }
