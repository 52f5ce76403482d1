package storage

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version    int
	statements []string
}

// migrations run in order after schema.sql. Version 1 is the base schema.
var migrations = []migration{
	{version: 1},
	{version: 2, statements: []string{
		`CREATE INDEX IF NOT EXISTS idx_items_topology ON items(topology)`,
	}},
}

// migrate applies every migration newer than the recorded schema version
func (ss *SQLiteStore) migrate() error {
	var version sql.NullInt64
	err := ss.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("checking migration version: %w", err)
	}

	for _, m := range migrations {
		if version.Valid && int64(m.version) <= version.Int64 {
			continue
		}
		if err := ss.apply(m); err != nil {
			return fmt.Errorf("migration v%d: %w", m.version, err)
		}
	}
	return nil
}

func (ss *SQLiteStore) apply(m migration) error {
	tx, err := ss.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		return fmt.Errorf("recording version: %w", err)
	}
	return tx.Commit()
}

// SchemaVersion returns the newest applied migration
func (ss *SQLiteStore) SchemaVersion() (int, error) {
	var version sql.NullInt64
	if err := ss.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		return 0, err
	}
	return int(version.Int64), nil
}
