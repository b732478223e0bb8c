package database

import (
	"context"
	"fmt"
	"time"
)

type migration struct {
	version    int
	name       string
	statements []string
}

var migrations = []migration{
	{version: 1, name: "nodes and contents", statements: schemaV1},
	{version: 2, name: "version tracking and review", statements: schemaV2},
}

// SchemaVersion is the schema version established by Migrate.
func SchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// Migrate creates or upgrades the schema. Every migration is
// applied in its own transaction and recorded in schema_version.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_version (
    version    INTEGER PRIMARY KEY,
    name       VARCHAR(255) NOT NULL,
    applied_at VARCHAR(32)  NOT NULL
)`); err != nil {
		return fmt.Errorf("ensure schema_version table: %w", err)
	}

	for _, m := range migrations {
		applied, err := d.migrationApplied(ctx, m.version)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.version, err)
		}
		if applied {
			continue
		}
		if err := d.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.version, m.name, err)
		}
		log.Info("applied schema migration {{version}} ({{name}})", "version", m.version, "name", m.name)
	}
	return nil
}

// CurrentSchemaVersion returns the highest applied migration.
func (d *DB) CurrentSchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := d.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	return version, err
}

func (d *DB) migrationApplied(ctx context.Context, version int) (bool, error) {
	var count int
	if err := d.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM schema_version WHERE version = ?",
		version,
	).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (d *DB) applyMigration(ctx context.Context, m migration) error {
	return d.Transaction(ctx, func(tx *Tx) error {
		for _, stmt := range m.statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, ?)",
			m.version, m.name, FormatTime(time.Now()),
		)
		return err
	})
}
