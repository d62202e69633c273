package implicits

import (
	"fmt"

	"github.com/funvibe/lumen/internal/tree"
	"github.com/funvibe/lumen/internal/types"
)

// SearchResult is the outcome of one implicit search: a unique Success or
// a typed Failure. Results are values; nothing here is thrown.
type SearchResult interface {
	isSearchResult()
	String() string
}

// Success holds the resolved tree. Tree.Type() conforms to the searched
// type under State; the state is committed only when the result is chosen.
type Success struct {
	Tree  tree.Tree
	Ref   types.TermRef
	Level int
	State *types.State

	// Inlineable marks results found in the contextual pass; callers may
	// inline the reference at the use site.
	Inlineable bool
}

func (*Success) isSearchResult() {}
func (s *Success) String() string {
	return fmt.Sprintf("Success(%s)", s.Tree.String())
}

// Failure wraps one of the failure reasons below.
type Failure struct {
	Reason FailureReason
}

func (*Failure) isSearchResult() {}
func (f *Failure) String() string { return f.Reason.Message() }

// IsAmbiguous reports an ambiguity failure.
func (f *Failure) IsAmbiguous() bool {
	_, ok := f.Reason.(*Ambiguous)
	return ok
}

// Recoverable reports whether a contextual-pass failure permits the
// derived-scope fallback. Ambiguity, divergence and shadowing are
// definitive diagnoses and suppress the retry.
func (f *Failure) Recoverable() bool {
	switch f.Reason.(type) {
	case *Ambiguous, *Diverging, *Shadowed:
		return false
	}
	return true
}

// TreeSize ranks failures for diagnostics: the failure that got furthest
// (largest failed tree) is the most informative one.
func (f *Failure) TreeSize() int {
	if m, ok := f.Reason.(*Mismatched); ok {
		return tree.Size(m.Tree)
	}
	return 0
}

// FailureReason is the taxonomy of search failures.
type FailureReason interface {
	Message() string
}

// NoMatching: no eligible candidate satisfied the expected type.
type NoMatching struct {
	Pt       types.Type
	Argument tree.Tree
	// Snapshot is the constraint state at failure, for bound clarification.
	Snapshot types.Subst
}

func (r *NoMatching) Message() string {
	return fmt.Sprintf("no implicit found for %s", r.Pt.String())
}

// ClarifiedBounds reads the snapshot back as the type-parameter bounds the
// failed search had accumulated. Only NoMatching can clarify bounds; the
// other failures name a specific culprit instead.
func (r *NoMatching) ClarifiedBounds() map[string]types.Type {
	out := make(map[string]types.Type, len(r.Snapshot))
	for name, inst := range r.Snapshot {
		out[name] = inst
	}
	return out
}

// Mismatched: the candidate type-checked but failed to adapt to pt.
type Mismatched struct {
	Ref      types.TermRef
	Pt       types.Type
	Argument tree.Tree
	Tree     tree.Tree // the partially typed tree, for diagnostics
}

func (r *Mismatched) Message() string {
	return fmt.Sprintf("%s does not conform to %s", r.Ref.String(), r.Pt.String())
}

// Shadowed: the candidate's name resolves to a different binding at the
// use site.
type Shadowed struct {
	Ref types.TermRef
	By  *types.Symbol
	Pt  types.Type
}

func (r *Shadowed) Message() string {
	return fmt.Sprintf("%s is shadowed by %s", r.Ref.String(), r.By.String())
}

// Ambiguous: two successes neither of which is preferred.
type Ambiguous struct {
	Alt1 *Success
	Alt2 *Success
	Pt   types.Type
}

func (r *Ambiguous) Message() string {
	return fmt.Sprintf("ambiguous implicits: both %s and %s match %s",
		r.Alt1.Ref.String(), r.Alt2.Ref.String(), r.Pt.String())
}

// Diverging: the candidate's search grows without bound.
type Diverging struct {
	Ref types.TermRef
	Pt  types.Type
}

func (r *Diverging) Message() string {
	return fmt.Sprintf("diverging implicit expansion of %s for %s", r.Ref.String(), r.Pt.String())
}

func noMatching(pt types.Type, argument tree.Tree, st *types.State) *Failure {
	var snap types.Subst
	if st != nil {
		snap = st.Snapshot()
	}
	return &Failure{Reason: &NoMatching{Pt: pt, Argument: argument, Snapshot: snap}}
}

func mismatched(ref types.TermRef, pt types.Type, argument, partial tree.Tree) *Failure {
	return &Failure{Reason: &Mismatched{Ref: ref, Pt: pt, Argument: argument, Tree: partial}}
}

func shadowed(ref types.TermRef, by *types.Symbol, pt types.Type) *Failure {
	return &Failure{Reason: &Shadowed{Ref: ref, By: by, Pt: pt}}
}

func ambiguous(alt1, alt2 *Success, pt types.Type) *Failure {
	return &Failure{Reason: &Ambiguous{Alt1: alt1, Alt2: alt2, Pt: pt}}
}

func diverging(ref types.TermRef, pt types.Type) *Failure {
	return &Failure{Reason: &Diverging{Ref: ref, Pt: pt}}
}
