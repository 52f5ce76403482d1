package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLiteStore implements Store with a single SQLite table
type SQLiteStore struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if needed) toposeed.db inside dataDir
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, "toposeed.db")
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ss := &SQLiteStore{
		db:   db,
		path: dbPath,
	}

	if err := ss.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	if err := ss.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return ss, nil
}

func (ss *SQLiteStore) initSchema() error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("reading schema: %w", err)
	}

	_, err = ss.db.Exec(string(schema))
	return err
}

// Path returns the database file path
func (ss *SQLiteStore) Path() string {
	return ss.path
}

// Close closes the database connection
func (ss *SQLiteStore) Close() error {
	return ss.db.Close()
}

// MaxBatchSize returns the per-request item limit
func (ss *SQLiteStore) MaxBatchSize() int {
	return MaxBatchItems
}

// BatchPut upserts records in one transaction. A busy or locked database
// leaves the whole batch unprocessed.
func (ss *SQLiteStore) BatchPut(ctx context.Context, records []Record) ([]Record, error) {
	if err := checkBatch(len(records)); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	for _, r := range records {
		if err := checkKey(r.Key()); err != nil {
			return nil, err
		}
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()

	err := ss.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO items (pk, sk, gsi1pk, gsi1sk, entity_type, topology, data)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(pk, sk) DO UPDATE SET
				gsi1pk = excluded.gsi1pk,
				gsi1sk = excluded.gsi1sk,
				entity_type = excluded.entity_type,
				topology = excluded.topology,
				data = excluded.data
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range records {
			if _, err := stmt.ExecContext(ctx, r.PK, r.SK, nullString(r.GSI1PK), nullString(r.GSI1SK),
				r.EntityType, r.Topology, string(r.Data)); err != nil {
				return err
			}
		}
		return nil
	})
	if isBusy(err) {
		return records, nil
	}
	if err != nil {
		return nil, fmt.Errorf("writing batch: %w", err)
	}
	return nil, nil
}

// BatchDelete removes keys in one transaction. Missing keys are not an error.
func (ss *SQLiteStore) BatchDelete(ctx context.Context, keys []Key) ([]Key, error) {
	if err := checkBatch(len(keys)); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()

	err := ss.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `DELETE FROM items WHERE pk = ? AND sk = ?`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, k := range keys {
			if _, err := stmt.ExecContext(ctx, k.PK, k.SK); err != nil {
				return err
			}
		}
		return nil
	})
	if isBusy(err) {
		return keys, nil
	}
	if err != nil {
		return nil, fmt.Errorf("deleting batch: %w", err)
	}
	return nil, nil
}

// Get retrieves one record
func (ss *SQLiteStore) Get(ctx context.Context, key Key) (Record, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	rows, err := ss.db.QueryContext(ctx, selectItems+` WHERE pk = ? AND sk = ?`, key.PK, key.SK)
	if err != nil {
		return Record{}, fmt.Errorf("querying record: %w", err)
	}
	records, err := scanRecords(rows)
	if err != nil {
		return Record{}, err
	}
	if len(records) == 0 {
		return Record{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return records[0], nil
}

// Put writes a single record
func (ss *SQLiteStore) Put(ctx context.Context, record Record) error {
	unprocessed, err := ss.BatchPut(ctx, []Record{record})
	if err != nil {
		return err
	}
	if len(unprocessed) > 0 {
		return fmt.Errorf("%s: %w", record.Key(), ErrThrottled)
	}
	return nil
}

// Query returns the records of one partition
func (ss *SQLiteStore) Query(ctx context.Context, pk string) ([]Record, error) {
	return ss.list(ctx, selectItems+` WHERE pk = ? ORDER BY sk`, pk)
}

// QueryIndex returns the records of one secondary index partition
func (ss *SQLiteStore) QueryIndex(ctx context.Context, gsi1pk string) ([]Record, error) {
	return ss.list(ctx, selectItems+` WHERE gsi1pk = ? ORDER BY gsi1sk, pk, sk`, gsi1pk)
}

// ScanPrefix returns the records of every partition starting with prefix
func (ss *SQLiteStore) ScanPrefix(ctx context.Context, prefix string) ([]Record, error) {
	return ss.list(ctx, selectItems+` WHERE substr(pk, 1, length(?)) = ? ORDER BY pk, sk`, prefix, prefix)
}

const selectItems = `SELECT pk, sk, gsi1pk, gsi1sk, entity_type, topology, data FROM items`

func (ss *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]Record, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	rows, err := ss.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	return scanRecords(rows)
}

func (ss *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		var gsi1pk, gsi1sk sql.NullString
		var data string
		if err := rows.Scan(&r.PK, &r.SK, &gsi1pk, &gsi1sk, &r.EntityType, &r.Topology, &data); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		r.GSI1PK = gsi1pk.String
		r.GSI1SK = gsi1sk.String
		r.Data = []byte(data)
		records = append(records, r)
	}
	return records, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// isBusy reports whether err is SQLite refusing the write for now
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_LOCKED") || strings.Contains(msg, "database table is locked")
}
