// Package trace implements depth-limited, indent-structured tracing of
// implicit searches. Output is colorized when attached to a terminal.
package trace

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const indentStep = "  "

const (
	colorDim   = "\x1b[2m"
	colorGreen = "\x1b[32m"
	colorRed   = "\x1b[31m"
	colorReset = "\x1b[0m"
)

// Tracer writes one line per search event, indented by nesting depth.
// A nil Tracer is valid and silent.
type Tracer struct {
	out      io.Writer
	maxDepth int
	depth    int
	color    bool
}

// New builds a tracer writing to out. maxDepth 0 disables tracing,
// -1 removes the limit.
func New(out io.Writer, maxDepth int) *Tracer {
	if maxDepth == 0 {
		return nil
	}
	color := false
	if f, ok := out.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Tracer{out: out, maxDepth: maxDepth, color: color}
}

// Enter records the start of a nested search and returns the matching
// leave func.
func (t *Tracer) Enter(format string, args ...interface{}) func(outcome string, ok bool) {
	if t == nil {
		return func(string, bool) {}
	}
	t.line(colorDim, "> "+fmt.Sprintf(format, args...))
	t.depth++
	return func(outcome string, ok bool) {
		t.depth--
		c := colorRed
		if ok {
			c = colorGreen
		}
		t.line(c, "< "+outcome)
	}
}

// Note records an event at the current depth.
func (t *Tracer) Note(format string, args ...interface{}) {
	if t == nil {
		return
	}
	t.line("", fmt.Sprintf(format, args...))
}

func (t *Tracer) line(color, s string) {
	if t.maxDepth >= 0 && t.depth >= t.maxDepth {
		return
	}
	indent := strings.Repeat(indentStep, t.depth)
	if t.color && color != "" {
		fmt.Fprintf(t.out, "%s%s%s%s\n", indent, color, s, colorReset)
		return
	}
	fmt.Fprintf(t.out, "%s%s\n", indent, s)
}
