package docservice

import (
	"time"

	"github.com/taskdown/taskdown/internal/models"
)

// OutlineView is the parsed, state-annotated representation of a document.
// The node ids it carries are valid only against Checksum.
type OutlineView struct {
	Path     string        `json:"path"`
	Checksum string        `json:"checksum"`
	Sections []SectionView `json:"sections"`
}

// SectionView is one named partition of the outline.
type SectionView struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Nodes []NodeView `json:"nodes"`
}

// NodeView is a node with its derived display state attached.
type NodeView struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	State       string            `json:"state"`
	Checked     bool              `json:"checked"`
	Tags        []string          `json:"tags"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Type        string            `json:"type"`
	CreatedAt   *time.Time        `json:"createdAt,omitempty"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
	AnchorID    string            `json:"anchorId,omitempty"`
	ReferenceID string            `json:"referenceId,omitempty"`
	Progress    *float64          `json:"progress,omitempty"`
	Logs        []LogView         `json:"logs,omitempty"`
	Children    []NodeView        `json:"children,omitempty"`
}

// LogView is one work-log line.
type LogView struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
}

func buildOutlineView(path string, c *cached) *OutlineView {
	view := &OutlineView{
		Path:     path,
		Checksum: c.checksum,
		Sections: make([]SectionView, 0, len(c.doc.Sections)),
	}
	for _, s := range c.doc.Sections {
		sv := SectionView{ID: s.ID, Name: s.Name, Nodes: make([]NodeView, 0, len(s.Nodes))}
		for _, n := range s.Nodes {
			sv.Nodes = append(sv.Nodes, buildNodeView(n))
		}
		view.Sections = append(view.Sections, sv)
	}
	return view
}

func buildNodeView(n *models.EventNode) NodeView {
	v := NodeView{
		ID:          n.ID,
		Title:       n.Title,
		State:       string(n.State()),
		Checked:     n.IsChecked,
		Tags:        nonNilSlice(n.Tags),
		Metadata:    n.Metadata,
		Type:        string(n.Type),
		CreatedAt:   n.CreatedAt,
		CompletedAt: n.CompletedAt,
		AnchorID:    n.AnchorID,
		ReferenceID: n.ReferenceID,
	}
	if progress, ok := n.ChildProgress(); ok {
		v.Progress = &progress
	}
	for _, l := range n.Logs {
		v.Logs = append(v.Logs, LogView(l))
	}
	for _, c := range n.Children {
		v.Children = append(v.Children, buildNodeView(c))
	}
	return v
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
