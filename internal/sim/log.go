package sim

import (
	"fmt"
	"io"
)

// Logger is the capability the simulator uses for host-visible
// messages. The core never writes to a process-global logger; whoever
// constructs the simulator decides where messages go.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// StdLogger writes prefixed lines to a writer. Info lines are dropped
// unless verbose is set; warnings and errors always pass through.
type StdLogger struct {
	W       io.Writer
	Verbose bool
}

// NewStdLogger returns a StdLogger on w.
func NewStdLogger(w io.Writer, verbose bool) *StdLogger {
	return &StdLogger{W: w, Verbose: verbose}
}

func (l *StdLogger) Info(format string, args ...any) {
	if !l.Verbose {
		return
	}
	fmt.Fprintf(l.W, "info: "+format+"\n", args...)
}

func (l *StdLogger) Warn(format string, args ...any) {
	fmt.Fprintf(l.W, "warning: "+format+"\n", args...)
}

func (l *StdLogger) Error(format string, args ...any) {
	fmt.Fprintf(l.W, "error: "+format+"\n", args...)
}

// NopLogger discards everything. Used by tests and as the default when
// no logger is injected.
type NopLogger struct{}

func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
