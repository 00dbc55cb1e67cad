package storage

// SchemaVersion is the current audit database schema version.
const SchemaVersion = 1

// Schema creates the audit tables and indexes.
const Schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS field_changes (
	id            TEXT PRIMARY KEY,
	run_id        TEXT NOT NULL,
	phase         TEXT NOT NULL,
	entry_key     TEXT NOT NULL DEFAULT '',
	field         TEXT NOT NULL,
	source        TEXT NOT NULL,
	op            TEXT NOT NULL,
	old_value     TEXT NOT NULL DEFAULT '',
	new_value     TEXT NOT NULL DEFAULT '',
	had_old       INTEGER NOT NULL DEFAULT 0,
	recorded_time TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_field_changes_run_id ON field_changes (run_id);
CREATE INDEX IF NOT EXISTS idx_field_changes_recorded_time ON field_changes (recorded_time);
CREATE INDEX IF NOT EXISTS idx_field_changes_field ON field_changes (field);
`

// InsertSchemaVersion records the schema version once.
const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`

// GetSchemaVersion reads the stored schema version.
const GetSchemaVersion = `SELECT version FROM schema_version LIMIT 1`
