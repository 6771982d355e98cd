package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 2

// schemaV1 is the initial schema: one row per garden holding the encoded record.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS gardens (
    id TEXT PRIMARY KEY,
    record_version INTEGER NOT NULL,
    payload TEXT NOT NULL,       -- JSON garden record
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// schemaV2 denormalizes summary columns so gardens can be listed without
// decoding payloads.
const schemaV2 = `
ALTER TABLE gardens ADD COLUMN season TEXT NOT NULL DEFAULT 'spring';
ALTER TABLE gardens ADD COLUMN skill_level INTEGER NOT NULL DEFAULT 1;
ALTER TABLE gardens ADD COLUMN plant_count INTEGER NOT NULL DEFAULT 0;
CREATE INDEX IF NOT EXISTS idx_gardens_updated_at ON gardens(updated_at);
`

// migrations run in order; each entry brings the schema to its version.
var migrations = []struct {
	version int
	stmt    string
}{
	{1, schemaV1},
	{2, schemaV2},
}

// InitSchema brings db up to SchemaVersion. A database with no
// schema_version table is treated as version 0.
func InitSchema(ctx context.Context, db *sql.DB) error {
	current, err := getSchemaVersion(ctx, db)
	if err != nil {
		current = 0
	} else if err := ValidateIntegrity(ctx, db); err != nil {
		return fmt.Errorf("database integrity check failed: %w", err)
	}
	if current >= SchemaVersion {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := tx.ExecContext(ctx, m.stmt); err != nil {
			return fmt.Errorf("failed to apply schema v%d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`, m.version); err != nil {
			return fmt.Errorf("failed to record schema version %d: %w", m.version, err)
		}
	}
	return tx.Commit()
}

// getSchemaVersion returns the highest applied schema version. It fails
// when the schema_version table does not exist.
func getSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		return 0, err
	}
	return int(version.Int64), nil
}

// ValidateIntegrity fails unless PRAGMA integrity_check reports "ok".
func ValidateIntegrity(ctx context.Context, db *sql.DB) error {
	var result string
	if err := db.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&result); err != nil {
		return fmt.Errorf("failed to run integrity_check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity_check failed: %s", result)
	}
	return nil
}

// ResetSchema drops the verdant tables and rebuilds them empty. Tests only.
func ResetSchema(ctx context.Context, db *sql.DB) error {
	for _, table := range []string{"gardens", "schema_version"} {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return InitSchema(ctx, db)
}
