package api

import (
	"time"

	"github.com/taskdown/taskdown/internal/docservice"
)

// CreateDocumentRequest is the request body for creating a document.
// Content may be empty; it is canonicalized before being stored.
type CreateDocumentRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// UpdateDocumentRequest is the request body for replacing a document.
type UpdateDocumentRequest struct {
	Content string `json:"content"`
}

// RawDocument is the raw content response type (aliased from the domain layer).
type RawDocument = docservice.RawDocument

// OutlineView is the parsed outline response type (aliased from the domain layer).
type OutlineView = docservice.OutlineView

// DocumentListItem is a lightweight item in a list response.
type DocumentListItem struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Sections  int       `json:"sections"`
	Tasks     int       `json:"tasks"`
	Done      int       `json:"done"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []DocumentListItem `json:"documents"`
	Total     int                `json:"total"`
}
