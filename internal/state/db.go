// Package state provides SQLite-based persistence for parley transcripts.
// The database lives at .parley/state.db under the project root unless a
// path is configured.
package state

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// connPragmas are applied by the driver to every pooled connection.
// foreign_keys has to be on for each connection or deleting a conversation
// would leave its results behind.
var connPragmas = []string{
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"busy_timeout(5000)",
}

// schema lists the migrations in order; entry i is schema version i+1.
// Applied versions are never edited, only appended to.
var schema = []string{
	// 1: one row per conversation. turns doubles as the last result seq.
	`CREATE TABLE conversations (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		last_activity TEXT NOT NULL,
		turns INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX idx_conversations_last_activity ON conversations(last_activity);`,

	// 2: pipeline results. payload is the JSON encoded PipelineResult; the
	// other columns are copies for listing without decoding it.
	`CREATE TABLE results (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		input_text TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		success INTEGER NOT NULL,
		error TEXT,
		state TEXT NOT NULL,
		feedback TEXT,
		payload TEXT NOT NULL,
		processing_us INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		UNIQUE (conversation_id, seq)
	);
	CREATE INDEX idx_results_category ON results(category);`,
}

// SchemaVersion is the version Migrate brings a database to.
var SchemaVersion = len(schema)

// DB is the SQLite transcript store. Writes are serialised; reads share
// the connection pool.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// ProjectDBPath returns the path to the project-local database.
func ProjectDBPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".parley", "state.db")
}

// Open opens the transcript database at path, creating parent directories
// as needed. Call Migrate before using it.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sql.Open is lazy; Ping surfaces a bad path or pragma here.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	return &DB{conn: conn, path: path}, nil
}

func dsn(path string) string {
	q := url.Values{}
	for _, p := range connPragmas {
		q.Add("_pragma", p)
	}
	return path + "?" + q.Encode()
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Close()
}

// Path returns the path to the database file.
func (db *DB) Path() string {
	return db.path
}

// Migrate brings the schema up to SchemaVersion. Each version is applied
// in its own transaction together with its schema_version row.
func (db *DB) Migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.conn.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var current int
	if err := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}
	if current > len(schema) {
		return fmt.Errorf("database schema v%d is newer than supported v%d", current, len(schema))
	}

	for i := current; i < len(schema); i++ {
		version := i + 1
		err := db.inTxLocked(func(tx *sql.Tx) error {
			if _, err := tx.Exec(schema[i]); err != nil {
				return err
			}
			_, err := tx.Exec("INSERT INTO schema_version (version, applied_at) VALUES (?, ?)",
				version, formatTime(time.Now()))
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration v%d: %w", version, err)
		}
	}
	return nil
}

func (db *DB) query(query string, args ...any) (*sql.Rows, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.conn.Query(query, args...)
}

func (db *DB) queryRow(query string, args ...any) *sql.Row {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.conn.QueryRow(query, args...)
}

// inTx runs fn in a write transaction, rolling back when fn fails.
func (db *DB) inTx(fn func(tx *sql.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.inTxLocked(fn)
}

func (db *DB) inTxLocked(fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Timestamps are stored as RFC 3339 UTC strings so they sort as text.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// PurgeOlderThan deletes conversations inactive for longer than olderThan.
// Their results go with them through the foreign key cascade. It returns
// the number of conversations deleted.
func (db *DB) PurgeOlderThan(olderThan time.Duration) (int64, error) {
	cutoff := formatTime(time.Now().Add(-olderThan))

	var count int64
	err := db.inTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM conversations WHERE last_activity < ?`, cutoff)
		if err != nil {
			return fmt.Errorf("purge conversations: %w", err)
		}
		count, err = res.RowsAffected()
		return err
	})
	return count, err
}
