package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Validate checks the configuration for inconsistent or malformed values.
func Validate(cfg *Config) error {
	if cfg.Rules.Path == "" {
		return fmt.Errorf("rules.path must not be empty")
	}

	if cfg.Audit.Enabled {
		if cfg.Audit.AsyncBuffer < 0 {
			return fmt.Errorf("audit.async_buffer must not be negative")
		}
		if cfg.Audit.WriteTimeout < 0 {
			return fmt.Errorf("audit.write_timeout must not be negative")
		}
		if cfg.Audit.SQLite.Path == "" {
			return fmt.Errorf("audit.sqlite.path must not be empty when audit is enabled")
		}
		if cfg.Audit.Retention.Days < 0 {
			return fmt.Errorf("audit.retention.days must not be negative")
		}
		if cfg.Audit.Retention.MaxRecords < 0 {
			return fmt.Errorf("audit.retention.max_records must not be negative")
		}
		if sched := cfg.Audit.Retention.PruneSchedule; sched != "" {
			if _, err := cron.ParseStandard(sched); err != nil {
				return fmt.Errorf("audit.retention.prune_schedule: %w", err)
			}
		}
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry.logging.level must be one of debug, info, warn, error (got %q)", cfg.Telemetry.Logging.Level)
	}

	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry.logging.format must be json or text (got %q)", cfg.Telemetry.Logging.Format)
	}

	if cfg.Telemetry.Metrics.Enabled {
		if cfg.Telemetry.Metrics.ListenAddress == "" {
			return fmt.Errorf("telemetry.metrics.listen_address must not be empty when metrics are enabled")
		}
		if cfg.Telemetry.Metrics.Path == "" {
			return fmt.Errorf("telemetry.metrics.path must not be empty when metrics are enabled")
		}
	}

	return nil
}
