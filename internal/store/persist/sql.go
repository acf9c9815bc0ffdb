package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// The statements below use $n placeholders and ON CONFLICT upserts, which
// both SQLite and PostgreSQL accept.
const (
	createSlotsTable = `CREATE TABLE IF NOT EXISTS kv_slots (
	slot_key   TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`
	selectSlot = `SELECT value FROM kv_slots WHERE slot_key = $1`
	upsertSlot = `INSERT INTO kv_slots (slot_key, value, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (slot_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
)

// SQLSlot keeps documents in a single key/value table.
type SQLSlot struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQL opens a database with one of the supported drivers.
func OpenSQL(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("persist: unsupported sql driver %q", driver)
	}
	if dsn == "" {
		return nil, errors.New("persist: sql dsn is required")
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("persist: open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// NewSQLSlot ensures the slots table exists and returns a slot bound to db.
func NewSQLSlot(ctx context.Context, db *sql.DB) (*SQLSlot, error) {
	if _, err := db.ExecContext(ctx, createSlotsTable); err != nil {
		return nil, fmt.Errorf("persist: create kv_slots: %w", err)
	}
	return &SQLSlot{db: db, now: time.Now}, nil
}

// Load selects the value stored under key.
func (s *SQLSlot) Load(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, selectSlot, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("persist: select %s: %w", key, err)
	}
	return []byte(value), nil
}

// Save upserts the value stored under key.
func (s *SQLSlot) Save(ctx context.Context, key string, data []byte) error {
	updated := s.now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, upsertSlot, key, string(data), updated); err != nil {
		return fmt.Errorf("persist: upsert %s: %w", key, err)
	}
	return nil
}
