package index

import (
	"log/slog"
	"strings"
	"time"

	"github.com/taskdown/taskdown/internal/checksum"
	"github.com/taskdown/taskdown/internal/models"
	"github.com/taskdown/taskdown/internal/outline"
	"github.com/taskdown/taskdown/internal/parser"
	"github.com/taskdown/taskdown/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed documents are parsed and upserted
//   - documents removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	infos, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		disk[info.Path] = struct{}{}

		if checksums[info.Path] == info.Checksum {
			continue
		}

		data, err := store.Read(info.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", info.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, info.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", info.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", info.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDoc(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexFile parses raw document content and upserts it. References are
// normalized before indexing so derived states match what a reader of the
// document would see.
func IndexFile(db *DB, path string, data []byte) error {
	doc := parser.Parse(string(data))
	outline.Normalize(doc)
	return IndexDocument(db, path, checksum.Sum(data), doc)
}

// IndexDocument upserts an already-parsed document.
func IndexDocument(db *DB, path, cs string, doc *models.Document) error {
	row := DocRow{
		Path:      path,
		Checksum:  cs,
		Sections:  len(doc.Sections),
		UpdatedAt: time.Now(),
	}

	var tasks []TaskRow
	var refs []RefRow
	for _, s := range doc.Sections {
		for _, root := range s.Nodes {
			root.Walk(func(n *models.EventNode) bool {
				row.Tasks++
				if n.IsChecked {
					row.Done++
				}
				if n.IsReference() {
					refs = append(refs, RefRow{Path: path, Anchor: n.ReferenceID, Title: n.Title})
				}

				var logs []string
				for _, l := range n.Logs {
					logs = append(logs, l.Content)
				}
				tasks = append(tasks, TaskRow{
					Path:    path,
					Section: s.Name,
					Title:   n.Title,
					Tags:    n.Tags,
					State:   string(n.State()),
					Checked: n.IsChecked,
					Due:     n.Metadata["due"],
					Anchor:  n.AnchorID,
					Logs:    strings.Join(logs, "\n"),
				})
				return true
			})
		}
	}

	return db.UpsertDoc(row, tasks, refs)
}
