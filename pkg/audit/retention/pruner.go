// Package retention prunes old audit records, optionally on a cron schedule.
package retention

import (
	"context"
	"log/slog"
	"time"

	"remold-hq/remold/pkg/audit"
)

// Config controls what the pruner deletes.
type Config struct {
	// RetentionDays deletes records older than this many days. Zero disables
	// age-based pruning.
	RetentionDays int

	// MaxRecords caps the total record count; the oldest records beyond the
	// cap are deleted. Zero disables count-based pruning.
	MaxRecords int64

	// PruneSchedule is a standard cron expression for scheduled pruning.
	// Empty disables the scheduler.
	PruneSchedule string
}

// Pruner deletes audit records according to the retention configuration.
type Pruner struct {
	storage audit.Storage
	config  *Config
	logger  *slog.Logger
}

// NewPruner creates a pruner over the given storage.
func NewPruner(storage audit.Storage, config *Config, logger *slog.Logger) *Pruner {
	if config == nil {
		config = &Config{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		storage: storage,
		config:  config,
		logger:  logger.With("component", "audit.pruner"),
	}
}

// Prune runs one pruning cycle and returns the number of deleted records.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var deleted int64

	if p.config.RetentionDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -p.config.RetentionDays)
		n, err := p.storage.DeleteBefore(ctx, cutoff)
		if err != nil {
			return deleted, err
		}
		deleted += n
	}

	if p.config.MaxRecords > 0 {
		count, err := p.storage.Count(ctx)
		if err != nil {
			return deleted, err
		}
		if excess := count - p.config.MaxRecords; excess > 0 {
			n, err := p.storage.DeleteOldest(ctx, excess)
			if err != nil {
				return deleted, err
			}
			deleted += n
		}
	}

	if deleted > 0 {
		p.logger.Info("audit records pruned",
			"deleted_count", deleted,
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	}

	return deleted, nil
}
