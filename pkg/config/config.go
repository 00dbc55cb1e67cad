package config

import "time"

// Config is the root configuration for remold.
type Config struct {
	Rules     RulesConfig     `yaml:"rules"`
	Audit     AuditConfig     `yaml:"audit"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// RulesConfig locates the transformation rules.
type RulesConfig struct {
	// Path is a rule file or a directory of rule files.
	Path string `yaml:"path"`

	// Watch reloads rules when the file changes.
	Watch bool `yaml:"watch"`
}

// AuditConfig controls the field-change audit trail.
type AuditConfig struct {
	Enabled bool `yaml:"enabled"`

	// EntryKeyField names the entry field used to identify entries in
	// audit records.
	EntryKeyField string `yaml:"entry_key_field"`

	// AsyncBuffer is the size of the in-memory record queue.
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds each storage write.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig configures the SQLite audit backend.
type SQLiteConfig struct {
	Path         string        `yaml:"path"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	WALMode      bool          `yaml:"wal_mode"`
	BusyTimeout  time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig controls audit record pruning.
type RetentionConfig struct {
	Days          int    `yaml:"days"`
	MaxRecords    int64  `yaml:"max_records"`
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig groups logging and metrics settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address"`
	Path          string `yaml:"path"`
	Namespace     string `yaml:"namespace"`
	Subsystem     string `yaml:"subsystem"`
}
