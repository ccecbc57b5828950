// Package index provides the SQLite-backed task index with optional FTS5
// full-text search over task titles, tags, and work logs.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS docs (
	path       TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL DEFAULT '',
	sections   INTEGER NOT NULL DEFAULT 0,
	tasks      INTEGER NOT NULL DEFAULT 0,
	done       INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tasks (
	path    TEXT NOT NULL,
	section TEXT NOT NULL DEFAULT '',
	title   TEXT NOT NULL DEFAULT '',
	tags    TEXT NOT NULL DEFAULT '[]',
	state   TEXT NOT NULL DEFAULT 'active',
	checked INTEGER NOT NULL DEFAULT 0,
	due     TEXT NOT NULL DEFAULT '',
	anchor  TEXT NOT NULL DEFAULT '',
	logs    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS refs (
	path   TEXT NOT NULL,
	anchor TEXT NOT NULL,
	title  TEXT NOT NULL DEFAULT '',
	UNIQUE(path, anchor)
);

CREATE INDEX IF NOT EXISTS idx_tasks_path ON tasks(path);
CREATE INDEX IF NOT EXISTS idx_tasks_anchor ON tasks(anchor);
CREATE INDEX IF NOT EXISTS idx_refs_anchor ON refs(anchor);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
