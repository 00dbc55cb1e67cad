package engine

import (
	"log/slog"
	"strings"

	"remold-hq/remold/pkg/rules"
)

// Evaluator applies compiled jobs to entries. It holds no per-entry state and
// is safe to share across goroutines that do not share entries.
type Evaluator struct {
	logger   *slog.Logger
	diag     DiagnosticSink
	observer ChangeObserver
	keyField string
}

// NewEvaluator creates a field evaluator. A nil logger falls back to
// slog.Default, a nil sink logs diagnostics through the logger, and a nil
// observer disables change notifications. keyField, when non-empty, names the
// entry field whose value labels change notifications.
func NewEvaluator(logger *slog.Logger, diag DiagnosticSink, observer ChangeObserver, keyField string) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	if diag == nil {
		diag = NewLogSink(logger)
	}
	return &Evaluator{
		logger:   logger,
		diag:     diag,
		observer: observer,
		keyField: keyField,
	}
}

// Process applies every job of one phase to the entry, in declared rule
// order, mutating it in place. It returns true if at least one field was
// removed or reassigned with a detected change. Nothing inside Process is
// fatal: a missing source abandons only that field of that job.
func (ev *Evaluator) Process(phase rules.Phase, entry Entry, jobs []Job) bool {
	modified := false

	// The key is read once, before any job can rewrite it.
	var entryKey string
	if ev.keyField != "" {
		entryKey, _ = entry.Get(ev.keyField)
	}

	for i := range jobs {
		job := &jobs[i]
		source := job.Body.SourceField(job.Field)
		value, present := entry.Get(source)

		ev.logger.Debug("evaluating field",
			"phase", string(phase),
			"field", job.Field,
			"source", source,
			"value", value,
		)

		if job.Body.Remove {
			if old, existed := entry.Get(job.Field); existed {
				entry.Delete(job.Field)
				modified = true
				ev.notify(Change{
					Phase:    phase,
					EntryKey: entryKey,
					Field:    job.Field,
					Source:   source,
					Op:       OpRemove,
					Old:      old,
					HadOld:   true,
				})
			}
			// Remove is terminal for this field.
			continue
		}

		if job.extract != nil {
			if !present || value == "" {
				ev.diag.Emit(Diagnostic{Phase: phase, Field: job.Field, Source: source, Op: "extract"})
				continue
			}

			if m := job.extract.FindStringSubmatchIndex(value); m != nil {
				groups := capturedGroups(value, m)
				value = strings.TrimSpace(strings.Join(groups, job.Body.SeparatorOrDefault()))
				present = true
				ev.logger.Debug("field after extract", "field", job.Field, "value", value)
			}
			// No match leaves the value untouched: extract is a no-op, not a failure.
		}

		if job.replace != nil {
			if !present || value == "" {
				ev.diag.Emit(Diagnostic{Phase: phase, Field: job.Field, Source: source, Op: "replace"})
				continue
			}

			value = strings.TrimSpace(job.replace.ReplaceAllString(value, job.Body.Replace.Format))
			ev.logger.Debug("field after replace", "field", job.Field, "value", value)
		}

		old, existed := entry.Get(job.Field)

		// A rename/copy always counts as a change, and a destination that
		// never existed compares unequal to any computed value.
		changed := source != job.Field || !existed || old != value
		if changed {
			modified = true
			ev.logger.Debug("field modified", "field", job.Field, "value", value)
			ev.notify(Change{
				Phase:    phase,
				EntryKey: entryKey,
				Field:    job.Field,
				Source:   source,
				Op:       OpAssign,
				Old:      old,
				New:      value,
				HadOld:   existed,
			})
		}

		// Assignment is unconditional; idempotent reassignment is expected.
		entry.Set(job.Field, value)
	}

	return modified
}

func (ev *Evaluator) notify(c Change) {
	if ev.observer != nil {
		ev.observer.ObserveChange(c)
	}
}

// capturedGroups collects the non-absent capturing groups of a submatch index
// vector, in order. Groups that did not participate in the match (index -1)
// are skipped; groups that matched the empty string are kept.
func capturedGroups(s string, idx []int) []string {
	groups := make([]string, 0, len(idx)/2-1)
	for i := 2; i+1 < len(idx); i += 2 {
		if idx[i] < 0 {
			continue
		}
		groups = append(groups, s[idx[i]:idx[i+1]])
	}
	return groups
}
