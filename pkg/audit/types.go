package audit

import (
	"context"
	"time"
)

// ChangeRecord is one persisted field change.
type ChangeRecord struct {
	// ID is a UUID v4 assigned by the recorder.
	ID string `json:"id"`

	// RunID groups all changes of one engine run.
	RunID string `json:"run_id"`

	// Phase is the pipeline phase that produced the change.
	Phase string `json:"phase"`

	// EntryKey identifies the entry within the run, when the host supplies
	// one (for example the entry's title field); may be empty.
	EntryKey string `json:"entry_key"`

	// Field is the destination field that changed.
	Field string `json:"field"`

	// Source is the field the rule read from.
	Source string `json:"source"`

	// Op is the mutation kind: "remove" or "assign".
	Op string `json:"op"`

	// OldValue is the previous destination value; empty when HadOld is false.
	OldValue string `json:"old_value"`

	// NewValue is the assigned value; empty for removals.
	NewValue string `json:"new_value"`

	// HadOld reports whether the destination existed before the change.
	HadOld bool `json:"had_old"`

	// RecordedTime is when the recorder accepted the change.
	RecordedTime time.Time `json:"recorded_time"`
}

// Query filters stored change records.
type Query struct {
	RunID     string
	Phase     string
	Field     string
	Op        string
	StartTime *time.Time
	EndTime   *time.Time

	// Limit caps the result size; zero means the backend default.
	Limit int
	// Offset skips leading results for pagination.
	Offset int
}

// Storage persists change records.
type Storage interface {
	// Store persists one record.
	Store(ctx context.Context, record *ChangeRecord) error

	// Query returns records matching the query, newest first.
	Query(ctx context.Context, q *Query) ([]*ChangeRecord, error)

	// Count returns the total number of stored records.
	Count(ctx context.Context) (int64, error)

	// DeleteBefore removes records recorded before the cutoff and returns
	// how many were deleted.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteOldest removes the oldest n records and returns how many were
	// deleted.
	DeleteOldest(ctx context.Context, n int64) (int64, error)

	// Close releases backend resources.
	Close() error
}
