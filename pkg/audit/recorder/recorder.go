// Package recorder turns engine change notifications into stored audit
// records without blocking evaluation.
package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"remold-hq/remold/pkg/audit"
	"remold-hq/remold/pkg/engine"
)

// Config contains configuration for the change recorder.
type Config struct {
	// Enabled enables recording; a disabled recorder drops all changes.
	Enabled bool

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout bounds a single storage write.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		AsyncBuffer:  1000,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder persists field changes asynchronously. It implements
// engine.ChangeObserver, so it can be injected straight into engine.Options.
type Recorder struct {
	storage    audit.Storage
	config     *Config
	runID      string
	recordChan chan *audit.ChangeRecord
	wg         sync.WaitGroup
	done       chan struct{}
	closeOnce  sync.Once
	logger     *slog.Logger
}

// NewRecorder creates a recorder bound to one run: every record it produces
// carries the same generated run ID.
func NewRecorder(storage audit.Storage, config *Config, logger *slog.Logger) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		storage:    storage,
		config:     config,
		runID:      uuid.NewString(),
		recordChan: make(chan *audit.ChangeRecord, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     logger.With("component", "audit.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Debug("audit recorder started",
		"run_id", r.runID,
		"async_buffer", config.AsyncBuffer,
	)

	return r
}

// RunID returns the run identifier stamped on every record.
func (r *Recorder) RunID() string {
	return r.runID
}

// ObserveChange implements engine.ChangeObserver. It enqueues the change and
// returns immediately; when the buffer is full the change is dropped with a
// log line rather than stalling evaluation.
func (r *Recorder) ObserveChange(c engine.Change) {
	if !r.config.Enabled {
		return
	}

	record := &audit.ChangeRecord{
		ID:           uuid.NewString(),
		RunID:        r.runID,
		Phase:        string(c.Phase),
		EntryKey:     c.EntryKey,
		Field:        c.Field,
		Source:       c.Source,
		Op:           string(c.Op),
		OldValue:     c.Old,
		NewValue:     c.New,
		HadOld:       c.HadOld,
		RecordedTime: time.Now().UTC(),
	}

	select {
	case r.recordChan <- record:
	case <-r.done:
	default:
		r.logger.Error("audit buffer full, dropping change record",
			"record_id", record.ID,
			"field", record.Field,
			"channel_capacity", r.config.AsyncBuffer,
		)
	}
}

// worker drains the channel into storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.store(record)
		case <-r.done:
			// Drain whatever is still buffered before exiting.
			for {
				select {
				case record := <-r.recordChan:
					r.store(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) store(record *audit.ChangeRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store change record",
			"error", audit.NewRecorderError(record.ID, err),
		)
	}
}

// Close flushes buffered records and stops the worker.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
	})
	r.wg.Wait()
	return nil
}
