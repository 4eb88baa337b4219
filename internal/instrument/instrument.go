// Package instrument logs per-call timing and response size when --debug is
// enabled, in the spirit of the analytics Client this codebase originally
// shipped with: a small recorder invoked once per handled request, with no
// effect on the response itself.
package instrument

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
)

// Recorder logs tool-call timing and response size to stderr when enabled.
type Recorder struct {
	enabled bool

	ok   *color.Color
	fail *color.Color
}

// New returns a Recorder. When enabled is false, Record is a no-op.
func New(enabled bool) *Recorder {
	return &Recorder{
		enabled: enabled,
		ok:      color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
	}
}

// Record logs one completed tool call: its name, duration, response size in
// bytes, and outcome.
func (r *Recorder) Record(tool string, start time.Time, responseBytes int, err error) {
	if !r.enabled {
		return
	}

	elapsed := time.Since(start)
	if err != nil {
		r.fail.Fprintf(os.Stderr, "%-24s %8s  FAILED: %v\n", tool, elapsed.Round(time.Microsecond), err)
		return
	}
	r.ok.Fprintf(os.Stderr, "%-24s %8s  %d bytes\n", tool, elapsed.Round(time.Microsecond), responseBytes)
}

// Logf logs a freeform debug line, independent of any single tool call.
func (r *Recorder) Logf(format string, args ...interface{}) {
	if !r.enabled {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
