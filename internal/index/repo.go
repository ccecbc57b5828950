package index

import (
	"encoding/json"
	"fmt"
	"time"
)

// DocRow represents a row in the docs table.
type DocRow struct {
	Path      string
	Checksum  string
	Sections  int
	Tasks     int
	Done      int
	UpdatedAt time.Time
}

// TaskRow represents one indexed task. Node ids are not serialized in the
// document format, so task rows carry no identity and are rebuilt wholesale
// whenever their document changes.
type TaskRow struct {
	Path    string
	Section string
	Title   string
	Tags    []string
	State   string
	Checked bool
	Due     string
	Anchor  string
	Logs    string
}

// RefRow is one reference-node occurrence: the document at Path mirrors the
// node carrying Anchor.
type RefRow struct {
	Path   string
	Anchor string
	Title  string
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Section string `json:"section"`
	Title   string `json:"title"`
	State   string `json:"state"`
	Snippet string `json:"snippet"`
}

// GraphNode is a document participating in the reference graph.
type GraphNode struct {
	Path  string `json:"path"`
	Tasks int    `json:"tasks"`
}

// GraphLink is a directed reference edge between documents: Source contains
// a reference node whose anchor lives in Target.
type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Anchor string `json:"anchor"`
}

// UpsertDoc replaces a document's row plus all of its task and reference
// rows within one transaction.
func (db *DB) UpsertDoc(d DocRow, tasks []TaskRow, refs []RefRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO docs (path, checksum, sections, tasks, done, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			sections   = excluded.sections,
			tasks      = excluded.tasks,
			done       = excluded.done,
			updated_at = excluded.updated_at
	`, d.Path, d.Checksum, d.Sections, d.Tasks, d.Done, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert doc: %w", err)
	}

	_, _ = tx.Exec(`DELETE FROM tasks WHERE path = ?`, d.Path)
	if len(tasks) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO tasks (path, section, title, tags, state, checked, due, anchor, logs)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare task insert: %w", err)
		}
		defer stmt.Close()
		for _, t := range tasks {
			tagsJSON, _ := json.Marshal(t.Tags)
			if _, err := stmt.Exec(t.Path, t.Section, t.Title, string(tagsJSON), t.State, t.Checked, t.Due, t.Anchor, t.Logs); err != nil {
				return fmt.Errorf("index: insert task: %w", err)
			}
		}
	}

	_, _ = tx.Exec(`DELETE FROM refs WHERE path = ?`, d.Path)
	if len(refs) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO refs (path, anchor, title) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare ref insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range refs {
			if _, err := stmt.Exec(r.Path, r.Anchor, r.Title); err != nil {
				return fmt.Errorf("index: insert ref: %w", err)
			}
		}
	}

	if err := ftsReplace(tx, d.Path, tasks); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteDoc removes a document with its task, reference, and FTS rows.
func (db *DB) DeleteDoc(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM tasks WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM refs WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM docs WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a document, or empty string
// if it is not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM docs WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns path -> checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM docs`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListDocs returns paginated documents, optionally filtered to those
// containing a task with the given tag.
func (db *DB) ListDocs(limit, offset int, tag, sort string) ([]DocRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	order := "updated_at DESC"
	switch sort {
	case "path":
		order = "path ASC"
	case "tasks":
		order = "tasks DESC"
	}

	where := ""
	args := []any{}
	if tag != "" {
		where = `WHERE path IN (SELECT DISTINCT path FROM tasks WHERE tags LIKE ?)`
		args = append(args, `%"`+tag+`"%`)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM docs `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count docs: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := db.conn.Query(`
		SELECT path, checksum, sections, tasks, done, updated_at
		FROM docs `+where+`
		ORDER BY `+order+`
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list docs: %w", err)
	}
	defer rows.Close()

	var out []DocRow
	for rows.Next() {
		var d DocRow
		if err := rows.Scan(&d.Path, &d.Checksum, &d.Sections, &d.Tasks, &d.Done, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// Graph returns the document-level reference graph.
func (db *DB) Graph() ([]GraphNode, []GraphLink, error) {
	nodeRows, err := db.conn.Query(`SELECT path, tasks FROM docs ORDER BY path`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph nodes: %w", err)
	}
	defer nodeRows.Close()

	var nodes []GraphNode
	for nodeRows.Next() {
		var n GraphNode
		if err := nodeRows.Scan(&n.Path, &n.Tasks); err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, n)
	}
	if err := nodeRows.Err(); err != nil {
		return nil, nil, err
	}

	linkRows, err := db.conn.Query(`
		SELECT r.path, t.path, r.anchor
		FROM refs r
		JOIN tasks t ON t.anchor = r.anchor AND t.anchor != ''
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph links: %w", err)
	}
	defer linkRows.Close()

	var links []GraphLink
	for linkRows.Next() {
		var l GraphLink
		if err := linkRows.Scan(&l.Source, &l.Target, &l.Anchor); err != nil {
			return nil, nil, err
		}
		links = append(links, l)
	}
	return nodes, links, linkRows.Err()
}

// Referencers returns the paths of documents holding a reference to the
// given anchor.
func (db *DB) Referencers(anchor string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT path FROM refs WHERE anchor = ?`, anchor)
	if err != nil {
		return nil, fmt.Errorf("index: referencers: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
