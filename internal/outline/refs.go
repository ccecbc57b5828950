package outline

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskdown/taskdown/internal/models"
)

// now is swapped out in tests to get deterministic anchor suffixes.
var now = time.Now

// Normalize brings the whole document back to the reference invariant:
// a concrete node carries an anchor iff at least one reference node points
// at it, and every surviving reference node mirrors its target exactly.
//
// The pass is global and runs in three steps:
//
//  1. collect anchorID -> concrete node across all sections;
//  2. for every reference node, prune it when its target is gone, otherwise
//     overwrite its mirrored fields from the target and mark the anchor used;
//  3. clear anchors that no reference used (garbage collection).
//
// It returns true when anything changed.
func Normalize(doc *models.Document) bool {
	anchors := make(map[string]*models.EventNode)
	doc.Walk(func(n *models.EventNode) bool {
		if !n.IsReference() && n.AnchorID != "" {
			anchors[n.AnchorID] = n
		}
		return true
	})

	used := make(map[string]struct{})
	changed := false
	for _, s := range doc.Sections {
		s.Nodes = syncRefs(s.Nodes, anchors, used, &changed)
	}

	for anchor, n := range anchors {
		if _, ok := used[anchor]; !ok {
			n.AnchorID = ""
			changed = true
		}
	}
	return changed
}

// syncRefs rewrites one child list: dangling references are dropped, live
// ones are re-mirrored from their targets. A reference node never owns
// children; any it acquired (a hand-edited file, a buggy caller) are pruned
// rather than synced, so nested references cannot pin an anchor the sync
// walk never visited.
func syncRefs(nodes []*models.EventNode, anchors map[string]*models.EventNode, used map[string]struct{}, changed *bool) []*models.EventNode {
	out := nodes[:0]
	for _, n := range nodes {
		if n.IsReference() {
			target, ok := anchors[n.ReferenceID]
			if !ok {
				*changed = true
				continue
			}
			used[n.ReferenceID] = struct{}{}
			if n.Title != target.Title || n.IsChecked != target.IsChecked ||
				len(n.Tags) != 1 || n.Tags[0] != models.TagRef ||
				len(n.Metadata) != 0 || n.AnchorID != "" || len(n.Children) != 0 {
				*changed = true
			}
			n.Title = target.Title
			n.IsChecked = target.IsChecked
			n.Tags = []string{models.TagRef}
			n.Metadata = nil
			n.AnchorID = ""
			n.Children = nil
			out = append(out, n)
			continue
		}
		n.Children = syncRefs(n.Children, anchors, used, changed)
		out = append(out, n)
	}
	return out
}

// AddReference appends a mirror of the target node as the last child of the
// given parent, allocating an anchor on the target when it has none. The
// request is refused when either node is unknown, when the target is itself
// a reference (no references to references), or when the parent is one.
func AddReference(doc *models.Document, parentID, targetID string) *models.EventNode {
	target := Find(doc, targetID)
	if target == nil || target.IsReference() {
		return nil
	}
	parent := Find(doc, parentID)
	if parent == nil || parent.IsReference() || parent == target {
		return nil
	}

	if target.AnchorID == "" {
		target.AnchorID = newAnchorID(target.Title)
	}

	ref := &models.EventNode{
		ID:          uuid.NewString(),
		Title:       target.Title,
		IsChecked:   target.IsChecked,
		Tags:        []string{models.TagRef},
		Type:        models.EventTypeTask,
		ReferenceID: target.AnchorID,
	}
	parent.Children = append(parent.Children, ref)

	Normalize(doc)
	return ref
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// newAnchorID derives an anchor from a slugified title plus a timestamp
// suffix. The suffix disambiguates repeated titles; full uniqueness is not
// required because generation is scoped to currently anchor-less targets.
func newAnchorID(title string) string {
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(slug) > 40 {
		slug = strings.Trim(slug[:40], "-")
	}
	if slug == "" {
		slug = "node"
	}
	return slug + "-" + now().Format("20060102150405")
}
