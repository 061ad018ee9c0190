package main

import (
	"github.com/fatih/color"

	"github.com/poyrazK/dnscore/internal/trace"
)

// renderTrace renders tr's plain-text form, coloring the whole rendered
// trace cyan when the operator asked for colored output. Color
// is a rendering concern scoped to this binary; internal/trace itself
// stays plain text (see SPEC_FULL.md §9).
func renderTrace(tr *trace.Trace, colorEnabled bool) string {
	s := tr.String()
	if !colorEnabled || tr.IsEmpty() {
		return s
	}
	return color.New(color.FgCyan).Sprint(s)
}
