// Package diagnostics defines the structured error taxonomy shared by every
// compiler phase and the VM. Diagnostics never carry a free-form string as
// their primary payload; rendering a human message is a separate concern
// handled by Render.
package diagnostics

import "zinc/internal/source"

// Phase identifies which stage of the pipeline raised a Diagnostic.
type Phase string

const (
	PhaseLexical  Phase = "lexical"
	PhaseSyntax   Phase = "syntax"
	PhaseSemantic Phase = "semantic"
	PhaseRuntime  Phase = "runtime"
)

// Diagnostic is the common interface every phase-specific error satisfies.
// No phase catches another phase's Diagnostic; propagation is pure bubble-up
// to the outermost driver, which calls Render.
type Diagnostic interface {
	error
	Phase() Phase
	Location() source.Location
}

// Render produces the driver's one-line-primary diagnostic message: the
// location, a short category, and the detail payload.
func Render(d Diagnostic) string {
	return d.Location().String() + ": " + string(d.Phase()) + " error: " + d.Error()
}
