package engine

import (
	"log/slog"

	"remold-hq/remold/pkg/rules"
)

// Diagnostic reports a recoverable per-field condition: the rule declared
// extract or replace but the source field was missing or empty. Diagnostics
// are informational, never control flow.
type Diagnostic struct {
	Phase  rules.Phase
	Field  string // destination field of the rule
	Source string // resolved source field
	Op     string // "extract" or "replace"
}

// Message renders the condition the way operators expect to read it.
func (d Diagnostic) Message() string {
	return "cannot " + d.Op + ": source field `" + d.Source + "` is missing or empty"
}

// DiagnosticSink receives diagnostics from the evaluator. Implementations
// must not block: they are called inline during evaluation.
type DiagnosticSink interface {
	Emit(d Diagnostic)
}

// SinkFunc adapts a function to a DiagnosticSink.
type SinkFunc func(Diagnostic)

// Emit calls the function.
func (f SinkFunc) Emit(d Diagnostic) { f(d) }

// NewLogSink returns a sink that logs diagnostics at warn level, matching the
// behavior hosts expect when they have no sink of their own.
func NewLogSink(logger *slog.Logger) DiagnosticSink {
	if logger == nil {
		logger = slog.Default()
	}
	return SinkFunc(func(d Diagnostic) {
		logger.Warn(d.Message(),
			"phase", string(d.Phase),
			"field", d.Field,
			"source", d.Source,
			"op", d.Op,
		)
	})
}

// MultiSink fans one diagnostic out to several sinks.
func MultiSink(sinks ...DiagnosticSink) DiagnosticSink {
	return SinkFunc(func(d Diagnostic) {
		for _, s := range sinks {
			if s != nil {
				s.Emit(d)
			}
		}
	})
}
