// Package storage provides audit Storage backends: SQLite for durable trails
// and an in-memory implementation for tests.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"remold-hq/remold/pkg/audit"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is how long to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/audit.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements audit.Storage on SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens the database, applies pragmas, and creates the
// schema.
func NewSQLiteStorage(config *SQLiteConfig, logger *slog.Logger) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "audit.storage.sqlite")

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite audit storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize applies pragmas and creates the schema.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return audit.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return audit.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return audit.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return audit.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return audit.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return audit.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Store persists one change record.
func (s *SQLiteStorage) Store(ctx context.Context, record *audit.ChangeRecord) error {
	query := `
		INSERT INTO field_changes (
			id, run_id, phase, entry_key, field, source, op,
			old_value, new_value, had_old, recorded_time
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.RunID, record.Phase, record.EntryKey,
		record.Field, record.Source, record.Op,
		record.OldValue, record.NewValue, boolToInt(record.HadOld),
		record.RecordedTime,
	)
	if err != nil {
		return audit.NewStorageError("sqlite", "store", err)
	}

	return nil
}

// Query returns records matching the query, newest first.
func (s *SQLiteStorage) Query(ctx context.Context, q *audit.Query) ([]*audit.ChangeRecord, error) {
	where, args := buildWhereClause(q)

	sqlQuery := `SELECT id, run_id, phase, entry_key, field, source, op,
		old_value, new_value, had_old, recorded_time FROM field_changes`
	if where != "" {
		sqlQuery += " WHERE " + where
	}
	sqlQuery += " ORDER BY recorded_time DESC"

	limit := 100
	if q.Limit > 0 {
		limit = q.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if q.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	var records []*audit.ChangeRecord
	for rows.Next() {
		var rec audit.ChangeRecord
		var hadOld int
		if err := rows.Scan(
			&rec.ID, &rec.RunID, &rec.Phase, &rec.EntryKey,
			&rec.Field, &rec.Source, &rec.Op,
			&rec.OldValue, &rec.NewValue, &hadOld, &rec.RecordedTime,
		); err != nil {
			return nil, audit.NewStorageError("sqlite", "scan", err)
		}
		rec.HadOld = hadOld != 0
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, audit.NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

// Count returns the total number of stored records.
func (s *SQLiteStorage) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM field_changes").Scan(&n)
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "count", err)
	}
	return n, nil
}

// DeleteBefore removes records recorded before the cutoff.
func (s *SQLiteStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM field_changes WHERE recorded_time < ?", cutoff)
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "delete_before", err)
	}
	return res.RowsAffected()
}

// DeleteOldest removes the oldest n records.
func (s *SQLiteStorage) DeleteOldest(ctx context.Context, n int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM field_changes WHERE id IN (
			SELECT id FROM field_changes ORDER BY recorded_time ASC LIMIT ?
		)`, n)
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "delete_oldest", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// buildWhereClause assembles the filter predicates for a query.
func buildWhereClause(q *audit.Query) (string, []interface{}) {
	var preds []string
	var args []interface{}

	if q.RunID != "" {
		preds = append(preds, "run_id = ?")
		args = append(args, q.RunID)
	}
	if q.Phase != "" {
		preds = append(preds, "phase = ?")
		args = append(args, q.Phase)
	}
	if q.Field != "" {
		preds = append(preds, "field = ?")
		args = append(args, q.Field)
	}
	if q.Op != "" {
		preds = append(preds, "op = ?")
		args = append(args, q.Op)
	}
	if q.StartTime != nil {
		preds = append(preds, "recorded_time >= ?")
		args = append(args, *q.StartTime)
	}
	if q.EndTime != nil {
		preds = append(preds, "recorded_time <= ?")
		args = append(args, *q.EndTime)
	}

	return strings.Join(preds, " AND "), args
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
