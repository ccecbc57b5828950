// Package outline provides the tree mutation primitives and the reference
// engine that operate on a parsed document. All lookups are depth-first,
// parent-before-children, first-match-wins; every invalid request is a
// boolean no-op rather than an error.
package outline

import (
	"github.com/taskdown/taskdown/internal/models"
)

// Find returns the node with the given id, or nil.
func Find(doc *models.Document, id string) *models.EventNode {
	var found *models.EventNode
	doc.Walk(func(n *models.EventNode) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Mutate applies transform to the node with the given id in place.
func Mutate(doc *models.Document, id string, transform func(*models.EventNode)) bool {
	n := Find(doc, id)
	if n == nil {
		return false
	}
	transform(n)
	return true
}

// Location describes where a node sits in the document.
type Location struct {
	SectionID string
	// ParentID is empty when the node is at a section's root level.
	ParentID string
	Index    int
}

// Locate returns the position of the node with the given id. It is
// recomputed on demand; the tree stores no parent back-pointers.
func Locate(doc *models.Document, id string) (Location, bool) {
	for _, s := range doc.Sections {
		if loc, ok := locateIn(s.Nodes, id); ok {
			loc.SectionID = s.ID
			return loc, true
		}
	}
	return Location{}, false
}

func locateIn(nodes []*models.EventNode, id string) (Location, bool) {
	for i, n := range nodes {
		if n.ID == id {
			return Location{Index: i}, true
		}
	}
	for _, n := range nodes {
		if loc, ok := locateIn(n.Children, id); ok {
			if loc.ParentID == "" {
				loc.ParentID = n.ID
			}
			return loc, true
		}
	}
	return Location{}, false
}

// siblings returns a pointer to the child list holding the node with the
// given id, plus its index in that list.
func siblings(doc *models.Document, id string) (*[]*models.EventNode, int) {
	loc, ok := Locate(doc, id)
	if !ok {
		return nil, -1
	}
	if loc.ParentID == "" {
		for _, s := range doc.Sections {
			if s.ID == loc.SectionID {
				return &s.Nodes, loc.Index
			}
		}
		return nil, -1
	}
	parent := Find(doc, loc.ParentID)
	return &parent.Children, loc.Index
}

// Remove detaches the node with the given id and returns the removed
// subtree, or nil when the id is unknown.
func Remove(doc *models.Document, id string) *models.EventNode {
	list, i := siblings(doc, id)
	if list == nil {
		return nil
	}
	n := (*list)[i]
	*list = append((*list)[:i], (*list)[i+1:]...)
	return n
}

// Indent moves the node under its immediately previous sibling, as that
// sibling's last child. A node that is first among its siblings stays put.
func Indent(doc *models.Document, id string) bool {
	list, i := siblings(doc, id)
	if list == nil || i == 0 {
		return false
	}
	n := (*list)[i]
	prev := (*list)[i-1]
	*list = append((*list)[:i], (*list)[i+1:]...)
	prev.Children = append(prev.Children, n)
	return true
}

// Outdent moves the node out of its parent, becoming the sibling
// immediately after it in the grandparent's list. A root-level node stays put.
func Outdent(doc *models.Document, id string) bool {
	loc, ok := Locate(doc, id)
	if !ok || loc.ParentID == "" {
		return false
	}
	parentList, pi := siblings(doc, loc.ParentID)
	if parentList == nil {
		return false
	}
	parent := (*parentList)[pi]
	n := parent.Children[loc.Index]
	parent.Children = append(parent.Children[:loc.Index], parent.Children[loc.Index+1:]...)

	*parentList = append(*parentList, nil)
	copy((*parentList)[pi+2:], (*parentList)[pi+1:])
	(*parentList)[pi+1] = n
	return true
}

// Relocate detaches the node and reattaches it as the last child of the
// given parent (or at the root of the parent section when newParentID names
// a section). It refuses moves that would make a node its own ancestor.
func Relocate(doc *models.Document, id, newParentID string) bool {
	n := Find(doc, id)
	if n == nil || id == newParentID {
		return false
	}
	// Reject cycles: the destination must not live inside the moving subtree.
	inside := false
	n.Walk(func(d *models.EventNode) bool {
		if d.ID == newParentID {
			inside = true
			return false
		}
		return true
	})
	if inside {
		return false
	}

	if parent := Find(doc, newParentID); parent != nil {
		Remove(doc, id)
		parent.Children = append(parent.Children, n)
		return true
	}
	for _, s := range doc.Sections {
		if s.ID == newParentID {
			Remove(doc, id)
			s.Nodes = append(s.Nodes, n)
			return true
		}
	}
	return false
}
