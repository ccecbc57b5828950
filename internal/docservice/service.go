// Package docservice coordinates the outline core with storage and the
// index. It owns the in-memory document cache: node ids are generated at
// parse time and stay valid only for one revision of a document, so every
// mutating call carries the checksum the caller last saw and fails with a
// conflict when the document moved underneath it.
//
// All mutating calls are serialized by a single mutex; the core tree is not
// safe for concurrent mutation and does not try to be.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/taskdown/taskdown/internal/apperr"
	"github.com/taskdown/taskdown/internal/checksum"
	"github.com/taskdown/taskdown/internal/index"
	"github.com/taskdown/taskdown/internal/models"
	"github.com/taskdown/taskdown/internal/outline"
	"github.com/taskdown/taskdown/internal/parser"
	"github.com/taskdown/taskdown/internal/storage"
)

// now is swapped out in tests for stable completion timestamps.
var now = time.Now

// Service coordinates storage, parsing, reference normalization, and
// indexing for outline documents.
type Service struct {
	store storage.Provider
	db    *index.DB

	mu   sync.Mutex
	docs map[string]*cached
}

type cached struct {
	doc      *models.Document
	checksum string
}

// NewService creates a new document service.
func NewService(store storage.Provider, db *index.DB) *Service {
	return &Service{
		store: store,
		db:    db,
		docs:  make(map[string]*cached),
	}
}

// Reload drops the cached tree for path. The watcher calls this on external
// change: the next read re-parses from disk, last-reader-wins.
func (s *Service) Reload(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, path)
}

// load returns the cached document for path, re-parsing whenever the bytes
// on disk no longer match the cached checksum. Callers hold s.mu.
func (s *Service) load(path string) (*cached, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	cs := checksum.Sum(data)
	if c, ok := s.docs[path]; ok && c.checksum == cs {
		return c, nil
	}

	doc := parser.Parse(string(data))
	outline.Normalize(doc)
	c := &cached{doc: doc, checksum: cs}
	s.docs[path] = c
	return c, nil
}

// persist serializes the (already normalized) document, writes it
// atomically, refreshes the cache entry and the index, and returns the new
// checksum. Callers hold s.mu.
func (s *Service) persist(path string, doc *models.Document) (string, error) {
	text := parser.Serialize(doc)
	if err := s.store.Write(path, []byte(text)); err != nil {
		// The tree already carries the failed mutation; drop it so the next
		// read re-parses whatever actually made it to disk.
		delete(s.docs, path)
		return "", err
	}
	cs := checksum.Sum([]byte(text))
	s.docs[path] = &cached{doc: doc, checksum: cs}
	if err := index.IndexDocument(s.db, path, cs, doc); err != nil {
		delete(s.docs, path)
		return "", err
	}
	return cs, nil
}

// RawDocument is the raw content view of a stored document.
type RawDocument struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Checksum string `json:"checksum"`
}

// GetRaw returns the stored bytes of a document.
func (s *Service) GetRaw(_ context.Context, path string) (*RawDocument, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &RawDocument{Path: path, Content: string(data), Checksum: checksum.Sum(data)}, nil
}

// Create writes a new document. Content is canonicalized (parsed,
// reference-normalized, re-serialized) before it first hits disk, so a
// freshly created document always round-trips byte-identically.
func (s *Service) Create(_ context.Context, path, content string) (*RawDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	doc := parser.Parse(content)
	outline.Normalize(doc)
	cs, err := s.persist(path, doc)
	if err != nil {
		return nil, err
	}
	return &RawDocument{Path: path, Content: parser.Serialize(doc), Checksum: cs}, nil
}

// Update replaces a document's content with optimistic concurrency and
// canonicalization.
func (s *Service) Update(_ context.Context, path, content, ifMatch string) (*RawDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}

	doc := parser.Parse(content)
	outline.Normalize(doc)
	cs, err := s.persist(path, doc)
	if err != nil {
		return nil, err
	}
	return &RawDocument{Path: path, Content: parser.Serialize(doc), Checksum: cs}, nil
}

// Delete removes a document from storage, cache, and index.
func (s *Service) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	delete(s.docs, path)
	return s.db.DeleteDoc(path)
}

// List returns paginated document rows from the index.
func (s *Service) List(_ context.Context, limit, offset int, tag, sort string) ([]index.DocRow, int, error) {
	return s.db.ListDocs(limit, offset, tag, sort)
}

// Search delegates full-text task search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Graph returns the document-level reference graph.
func (s *Service) Graph(_ context.Context) ([]index.GraphNode, []index.GraphLink, error) {
	return s.db.Graph()
}

// Outline returns the parsed, state-annotated view of a document together
// with the checksum the node ids are valid against.
func (s *Service) Outline(_ context.Context, path string) (*OutlineView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(path)
	if err != nil {
		return nil, err
	}
	return buildOutlineView(path, c), nil
}

// Format rewrites a document into its canonical serialized form. It returns
// the new checksum and whether anything changed.
func (s *Service) Format(_ context.Context, path string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, apperr.ErrNotFound
		}
		return "", false, err
	}
	doc := parser.Parse(string(data))
	outline.Normalize(doc)
	text := parser.Serialize(doc)
	if text == string(data) {
		return checksum.Sum(data), false, nil
	}
	cs, err := s.persist(path, doc)
	if err != nil {
		return "", false, err
	}
	return cs, true, nil
}

// Apply runs one mutating outline operation against a document. The
// caller's ifMatch checksum guards against applying node ids from a stale
// revision; every successful mutation re-normalizes references, persists,
// and reindexes before returning the fresh checksum.
func (s *Service) Apply(_ context.Context, path string, op Op, ifMatch string) (*OpResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load(path)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != c.checksum {
		return nil, apperr.ErrConflict
	}

	nodeID, err := applyOp(c.doc, op)
	if err != nil {
		return nil, err
	}

	outline.Normalize(c.doc)
	cs, err := s.persist(path, c.doc)
	if err != nil {
		return nil, err
	}
	return &OpResult{Checksum: cs, NodeID: nodeID}, nil
}

// applyOp dispatches a single operation on the in-memory tree. It returns
// the id of the node the operation created or touched, when there is one.
func applyOp(doc *models.Document, op Op) (string, error) {
	switch op.Kind {
	case OpAddTask:
		sectionID := op.SectionID
		if sectionID == "" {
			sectionID = doc.Sections[0].ID
		}
		n := outline.AddNode(doc, sectionID, op.Text)
		if n == nil {
			return "", fmt.Errorf("%w: add task", apperr.ErrInvalidOp)
		}
		stampCreated(n)
		return n.ID, nil

	case OpAddChild:
		n := outline.AddChild(doc, op.ParentID, op.Text)
		if n == nil {
			return "", fmt.Errorf("%w: add child", apperr.ErrInvalidOp)
		}
		stampCreated(n)
		return n.ID, nil

	case OpSetChecked:
		if !outline.Mutate(doc, op.NodeID, func(n *models.EventNode) {
			n.SetChecked(op.Checked, now())
		}) {
			return "", fmt.Errorf("%w: set checked", apperr.ErrNotFound)
		}
		return op.NodeID, nil

	case OpSetTitle:
		n := outline.Find(doc, op.NodeID)
		if n == nil {
			return "", fmt.Errorf("%w: set title", apperr.ErrNotFound)
		}
		title, tags := models.ExtractTags(op.Text)
		if title == "" {
			return "", fmt.Errorf("%w: empty title", apperr.ErrInvalidOp)
		}
		n.Title = title
		for _, t := range tags {
			n.AddTag(t)
		}
		return n.ID, nil

	case OpSetType:
		t := models.EventType(op.Text)
		switch t {
		case models.EventTypeTask, models.EventTypeMilestone, models.EventTypeEvent:
		default:
			return "", fmt.Errorf("%w: event type %q", apperr.ErrInvalidOp, op.Text)
		}
		if !outline.Mutate(doc, op.NodeID, func(n *models.EventNode) { n.Type = t }) {
			return "", fmt.Errorf("%w: set type", apperr.ErrNotFound)
		}
		return op.NodeID, nil

	case OpSetDue:
		n := outline.Find(doc, op.NodeID)
		if n == nil {
			return "", fmt.Errorf("%w: set due", apperr.ErrNotFound)
		}
		if op.Text == "" {
			delete(n.Metadata, "due")
			return n.ID, nil
		}
		if !validStamp(op.Text) {
			return "", fmt.Errorf("%w: due %q", apperr.ErrInvalidOp, op.Text)
		}
		if n.Metadata == nil {
			n.Metadata = make(map[string]string)
		}
		n.Metadata["due"] = op.Text
		return n.ID, nil

	case OpAddTag:
		n := outline.Find(doc, op.NodeID)
		if n == nil {
			return "", fmt.Errorf("%w: add tag", apperr.ErrNotFound)
		}
		if n.IsReference() || !n.AddTag(op.Text) {
			return "", fmt.Errorf("%w: tag %q", apperr.ErrInvalidOp, op.Text)
		}
		return n.ID, nil

	case OpRemoveTag:
		n := outline.Find(doc, op.NodeID)
		if n == nil {
			return "", fmt.Errorf("%w: remove tag", apperr.ErrNotFound)
		}
		if !n.RemoveTag(op.Text) {
			return "", fmt.Errorf("%w: tag %q", apperr.ErrInvalidOp, op.Text)
		}
		return n.ID, nil

	case OpAddLog:
		n := outline.Find(doc, op.NodeID)
		if n == nil {
			return "", fmt.Errorf("%w: add log", apperr.ErrNotFound)
		}
		if op.Text == "" {
			return "", fmt.Errorf("%w: empty log", apperr.ErrInvalidOp)
		}
		entry := models.NewLogEntry(now(), op.Text)
		n.Logs = append(n.Logs, entry)
		return n.ID, nil

	case OpEditLog:
		n := outline.Find(doc, op.NodeID)
		if n == nil {
			return "", fmt.Errorf("%w: edit log", apperr.ErrNotFound)
		}
		for i := range n.Logs {
			if n.Logs[i].ID == op.LogID {
				n.Logs[i].Content = op.Text
				return n.ID, nil
			}
		}
		return "", fmt.Errorf("%w: log id", apperr.ErrNotFound)

	case OpRemoveLog:
		n := outline.Find(doc, op.NodeID)
		if n == nil {
			return "", fmt.Errorf("%w: remove log", apperr.ErrNotFound)
		}
		for i := range n.Logs {
			if n.Logs[i].ID == op.LogID {
				n.Logs = append(n.Logs[:i], n.Logs[i+1:]...)
				return n.ID, nil
			}
		}
		return "", fmt.Errorf("%w: log id", apperr.ErrNotFound)

	case OpIndent:
		if !outline.Indent(doc, op.NodeID) {
			return "", fmt.Errorf("%w: indent", apperr.ErrInvalidOp)
		}
		return op.NodeID, nil

	case OpOutdent:
		if !outline.Outdent(doc, op.NodeID) {
			return "", fmt.Errorf("%w: outdent", apperr.ErrInvalidOp)
		}
		return op.NodeID, nil

	case OpRemove:
		if outline.Remove(doc, op.NodeID) == nil {
			return "", fmt.Errorf("%w: remove", apperr.ErrNotFound)
		}
		return op.NodeID, nil

	case OpRelocate:
		if !outline.Relocate(doc, op.NodeID, op.ParentID) {
			return "", fmt.Errorf("%w: relocate", apperr.ErrInvalidOp)
		}
		return op.NodeID, nil

	case OpAddReference:
		ref := outline.AddReference(doc, op.ParentID, op.TargetID)
		if ref == nil {
			return "", fmt.Errorf("%w: add reference", apperr.ErrInvalidOp)
		}
		return ref.ID, nil

	case OpAddSection:
		sec := outline.AddSection(doc, op.Text)
		return sec.ID, nil

	case OpRenameSection:
		if !outline.RenameSection(doc, op.SectionID, op.Text) {
			return "", fmt.Errorf("%w: rename section", apperr.ErrNotFound)
		}
		return op.SectionID, nil

	case OpRemoveSection:
		if len(doc.Sections) <= 1 {
			return "", apperr.ErrLastSection
		}
		if !outline.RemoveSection(doc, op.SectionID) {
			return "", fmt.Errorf("%w: remove section", apperr.ErrNotFound)
		}
		return op.SectionID, nil
	}

	return "", fmt.Errorf("%w: unknown op %q", apperr.ErrInvalidOp, op.Kind)
}

func stampCreated(n *models.EventNode) {
	ts := now().Truncate(time.Minute)
	n.CreatedAt = &ts
}

func validStamp(value string) bool {
	if _, err := time.Parse(models.TimeLayout, value); err == nil {
		return true
	}
	_, err := time.Parse(models.DateLayout, value)
	return err == nil
}
