// Package audit defines the durable audit trail of field changes.
//
// Every field the engine removes or reassigns with a detected change can be
// captured as a ChangeRecord and persisted through a Storage backend. The
// trail answers "which rule run rewrote this field, from what to what, and
// when" long after the run's logs are gone.
//
// Subpackages:
//
//   - recorder: asynchronous recorder that turns engine change notifications
//     into stored records without blocking evaluation
//   - storage: SQLite and in-memory Storage backends
//   - retention: age/count-based pruning with an optional cron schedule
package audit
