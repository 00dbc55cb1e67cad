package engine

import "remold-hq/remold/pkg/rules"

// Op names a field mutation kind for observers.
type Op string

const (
	// OpRemove is a destination field deletion.
	OpRemove Op = "remove"
	// OpAssign is a destination field assignment with a detected change.
	OpAssign Op = "assign"
)

// Change describes one detected field mutation. Observers see only mutations
// that counted as modifications: idempotent reassignments are not reported.
type Change struct {
	Phase    rules.Phase
	EntryKey string // identifying value of the entry, per Options.EntryKeyField
	Field    string // destination field
	Source   string // resolved source field
	Op       Op
	Old      string // previous destination value ("" when HadOld is false)
	New      string // assigned value ("" for removals)
	HadOld   bool   // whether the destination existed before
}

// ChangeObserver receives detected field changes. Observers run inline and
// must not block or mutate the entry; they never affect evaluation outcome.
type ChangeObserver interface {
	ObserveChange(c Change)
}

// ObserverFunc adapts a function to a ChangeObserver.
type ObserverFunc func(Change)

// ObserveChange calls the function.
func (f ObserverFunc) ObserveChange(c Change) { f(c) }

// MultiObserver fans one change out to several observers.
func MultiObserver(observers ...ChangeObserver) ChangeObserver {
	return ObserverFunc(func(c Change) {
		for _, o := range observers {
			if o != nil {
				o.ObserveChange(c)
			}
		}
	})
}
