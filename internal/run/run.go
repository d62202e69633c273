// Package run ties the per-run state together: each compilation run owns
// its implicit-scope cache and settings; there is no process-wide state.
package run

import (
	"io"

	"github.com/google/uuid"

	"github.com/funvibe/lumen/internal/config"
	"github.com/funvibe/lumen/internal/implicits"
	"github.com/funvibe/lumen/internal/trace"
)

// Run is one compilation run. The scope cache lives and dies with it.
type Run struct {
	ID       uuid.UUID
	Settings *config.Settings
	Scopes   *implicits.ScopeCache

	tracer *trace.Tracer
}

// New starts a run with the given settings (defaults when nil).
func New(settings *config.Settings) *Run {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	return &Run{
		ID:       uuid.New(),
		Settings: settings,
		Scopes:   implicits.NewScopeCache(),
	}
}

// TraceTo routes search tracing to out, depth-limited per the settings.
func (r *Run) TraceTo(out io.Writer) {
	r.tracer = trace.New(out, r.Settings.TraceDepth)
}

// RootContext opens the outermost resolution context of this run.
func (r *Run) RootContext() *implicits.Context {
	ctx := implicits.NewRootContext(r.Settings, r.Scopes)
	ctx.Tracer = r.tracer
	return ctx
}

// Reset invalidates the run's caches. Collaborators call this instead of
// mutating shared state across runs.
func (r *Run) Reset() {
	r.ID = uuid.New()
	r.Scopes.Reset()
}
