package outline

import (
	"github.com/taskdown/taskdown/internal/models"
)

// AddNode appends a new task node parsed from text at the root of the given
// section. Inline #tags are extracted into the node's tag list.
func AddNode(doc *models.Document, sectionID, text string) *models.EventNode {
	for _, s := range doc.Sections {
		if s.ID == sectionID {
			n := models.NewNode(text)
			if n.Title == "" {
				return nil
			}
			s.Nodes = append(s.Nodes, n)
			return n
		}
	}
	return nil
}

// AddChild appends a new task node as the last child of the given parent.
func AddChild(doc *models.Document, parentID, text string) *models.EventNode {
	parent := Find(doc, parentID)
	if parent == nil || parent.IsReference() {
		return nil
	}
	n := models.NewNode(text)
	if n.Title == "" {
		return nil
	}
	parent.Children = append(parent.Children, n)
	return n
}

// AddSection appends a new named section.
func AddSection(doc *models.Document, name string) *models.Section {
	s := models.NewSection(name)
	doc.Sections = append(doc.Sections, s)
	return s
}

// RenameSection changes a section's name.
func RenameSection(doc *models.Document, sectionID, name string) bool {
	for _, s := range doc.Sections {
		if s.ID == sectionID {
			s.Name = name
			return true
		}
	}
	return false
}

// RemoveSection deletes a section and its nodes. Deleting the last section
// is refused: a document always contains at least one.
func RemoveSection(doc *models.Document, sectionID string) bool {
	if len(doc.Sections) <= 1 {
		return false
	}
	for i, s := range doc.Sections {
		if s.ID == sectionID {
			doc.Sections = append(doc.Sections[:i], doc.Sections[i+1:]...)
			return true
		}
	}
	return false
}
