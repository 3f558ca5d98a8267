// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// We use modernc.org/sqlite (a pure-Go translation of SQLite) rather than
// the CGo-based mattn/go-sqlite3, so the binary cross-compiles without a C
// toolchain.
//
// SQLite is what makes the claim guard trivial to get right: a single
// conditional UPDATE is atomic, and the claim transaction in gift.go gets
// real multi-statement transactions for free. The whole registry is one
// file on disk (or ":memory:" in tests).
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection and hands out the per-entity repositories.
// It owns the connection lifecycle: New opens and migrates, Close releases.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/registry.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests; lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite allows a single writer. Capping the pool at one connection
	// sidesteps SQLITE_BUSY under concurrent writes and keeps ":memory:"
	// databases coherent (each pooled connection would otherwise get its
	// own empty in-memory database).
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Referential integrity between gifts.claimed_by / users.chosen_gift.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Gifts returns the gift repository backed by this database.
func (db *DB) Gifts() *GiftDB {
	return &GiftDB{conn: db.conn}
}

// Users returns the user repository backed by this database.
func (db *DB) Users() *UserDB {
	return &UserDB{conn: db.conn}
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it
// idempotent, so it's safe to run on every start.
//
// The tables reference each other (gifts.claimed_by → users.id,
// users.chosen_gift → gifts.id). SQLite resolves foreign keys at DML
// time, so the creation order doesn't matter as long as both tables
// exist before the first write.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			google_id       TEXT NOT NULL UNIQUE,
			email           TEXT NOT NULL UNIQUE,
			name            TEXT NOT NULL,
			photo_url       TEXT NOT NULL DEFAULT '',
			is_admin        INTEGER NOT NULL DEFAULT 0,
			has_chosen_gift INTEGER NOT NULL DEFAULT 0,
			chosen_gift     TEXT REFERENCES gifts(id),
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS gifts (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			available   INTEGER NOT NULL DEFAULT 1,
			claimed_by  TEXT REFERENCES users(id),
			claimed_at  DATETIME,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_gifts_available ON gifts(available);
		CREATE INDEX IF NOT EXISTS idx_gifts_claimed_by ON gifts(claimed_by);
		CREATE INDEX IF NOT EXISTS idx_gifts_created_at ON gifts(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating gifts table: %w", err)
	}

	return nil
}
