// Package engine applies declarative field-transformation rules to entries.
//
// The engine has two halves:
//
//  1. Job Compiler - partitions the flat rule list into per-phase job lists
//     and pre-compiles every pattern. Pure function of the rule list.
//  2. Field Evaluator - applies one phase's jobs to one entry, mutating it in
//     place and reporting whether any field changed.
//
// # Evaluation order
//
// For every job, in declared rule order:
//
//	resolve source field (from, default destination)
//	remove?   delete destination and stop this field
//	extract?  regex search, join captured groups, trim (no-op on no match)
//	replace?  substitute every match, trim
//	assign    detect change, unconditionally write destination
//
// A missing or empty source for extract/replace abandons that one field with
// a diagnostic; no condition inside the evaluator is fatal and no entry can
// abort processing of another.
//
// # Basic usage
//
//	rs, err := rules.LoadFile("rules.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	eng, err := engine.New(rs, engine.Options{Logger: logger})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	modified := eng.RunPhase(rules.PhaseCollection, entries)
//
// Entries are owned by the host: the engine mutates them in place, performs
// no I/O of its own, and reports diagnostics through an injected sink rather
// than any process-wide logger state.
//
// # Thread safety
//
// RunPhase may be called from multiple goroutines as long as no two calls
// share an entry; Reload swaps the compiled job lists atomically.
package engine
