package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"remold-hq/remold/pkg/rules"
)

// Options configures an Engine. All fields are optional.
type Options struct {
	// Logger for structured logging. Nil falls back to slog.Default.
	Logger *slog.Logger

	// Diagnostics receives missing-source diagnostics. Nil logs them at
	// warn level through Logger.
	Diagnostics DiagnosticSink

	// Observer receives detected field changes (audit, metrics). Nil
	// disables notifications.
	Observer ChangeObserver

	// EntryKeyField names the entry field whose value identifies the entry
	// in change notifications, typically "title". Empty leaves the
	// notifications unlabeled.
	EntryKeyField string
}

// PhaseResult summarizes one phase dispatch.
type PhaseResult struct {
	Phase    rules.Phase
	Entries  int
	Modified int
	Duration time.Duration
}

// Engine holds the compiled job lists for a rule set and dispatches phases
// over host-supplied entries. Compilation happens once per rule load; Reload
// swaps job lists atomically so long-running hosts can hot-reload rules.
type Engine struct {
	mu   sync.RWMutex
	jobs *JobSet

	eval   *Evaluator
	logger *slog.Logger
}

// New compiles the rule list and returns a ready engine. The rule list is
// expected to be boundary-validated; the only possible failure is a pattern
// that does not compile.
func New(rs []rules.Rule, opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	jobs, err := CompileJobs(rs)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		jobs:   jobs,
		eval:   NewEvaluator(logger, opts.Diagnostics, opts.Observer, opts.EntryKeyField),
		logger: logger,
	}

	logger.Debug("engine prepared",
		"jobs", jobs.Len(),
		"collection", len(jobs.Jobs(rules.PhaseCollection)),
		"filtering", len(jobs.Jobs(rules.PhaseFiltering)),
		"modification", len(jobs.Jobs(rules.PhaseModification)),
	)

	return e, nil
}

// Reload recompiles the engine from a new rule list, atomically replacing the
// job lists. On error the previous rules stay active.
func (e *Engine) Reload(rs []rules.Rule) error {
	jobs, err := CompileJobs(rs)
	if err != nil {
		return fmt.Errorf("reload rules: %w", err)
	}

	e.mu.Lock()
	e.jobs = jobs
	e.mu.Unlock()

	e.logger.Info("rules reloaded", "jobs", jobs.Len())
	return nil
}

// JobCount returns the number of compiled jobs for a phase.
func (e *Engine) JobCount(phase rules.Phase) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.jobs.Jobs(phase))
}

// RunPhase applies the phase's job list to every entry, in order, and returns
// the number of entries that were modified. A phase with no jobs returns
// immediately without touching any entry.
func (e *Engine) RunPhase(phase rules.Phase, entries []Entry) int {
	res := e.RunPhaseResult(phase, entries)
	return res.Modified
}

// RunPhaseResult is RunPhase with dispatch statistics for callers that record
// metrics.
func (e *Engine) RunPhaseResult(phase rules.Phase, entries []Entry) PhaseResult {
	e.mu.RLock()
	jobs := e.jobs.Jobs(phase)
	e.mu.RUnlock()

	res := PhaseResult{Phase: phase, Entries: len(entries)}
	if len(jobs) == 0 {
		return res
	}

	start := time.Now()
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		if e.eval.Process(phase, entry, jobs) {
			res.Modified++
		}
	}
	res.Duration = time.Since(start)

	e.logger.Info("phase complete",
		"phase", string(phase),
		"entries", res.Entries,
		"modified", res.Modified,
	)

	return res
}
