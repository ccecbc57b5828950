//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS tasks_fts USING fts5(
			path UNINDEXED,
			section,
			title,
			tags,
			logs,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

// ftsReplace swaps all FTS rows for a document.
func ftsReplace(tx *sql.Tx, path string, tasks []TaskRow) error {
	_, _ = tx.Exec(`DELETE FROM tasks_fts WHERE path = ?`, path)
	for _, t := range tasks {
		_, err := tx.Exec(`INSERT INTO tasks_fts (path, section, title, tags, logs) VALUES (?, ?, ?, ?, ?)`,
			t.Path, t.Section, t.Title, strings.Join(t.Tags, " "), t.Logs)
		if err != nil {
			return fmt.Errorf("index: upsert fts: %w", err)
		}
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM tasks_fts WHERE path = ?`, path)
}

// Search performs an FTS5 full-text search over tasks and returns matching
// results with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT f.path,
		       f.section,
		       f.title,
		       COALESCE((SELECT state FROM tasks t WHERE t.path = f.path AND t.title = f.title LIMIT 1), 'active'),
		       snippet(tasks_fts, 4, '<b>', '</b>', '...', 48)
		FROM tasks_fts f
		WHERE tasks_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Section, &r.Title, &r.State, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
