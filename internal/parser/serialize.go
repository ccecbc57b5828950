package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/taskdown/taskdown/internal/models"
)

// Serialize renders the document back to its canonical text form, the exact
// structural inverse of Parse. Output is deterministic (metadata sorted by
// key) and always ends with exactly one trailing newline.
func Serialize(doc *models.Document) string {
	var b strings.Builder

	for _, s := range doc.Sections {
		if s.Name != "" {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString("## " + s.Name + "\n\n")
		}
		for _, n := range s.Nodes {
			writeNode(&b, n, 0)
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// writeNode renders one node line, then its logs at depth+1, then its
// children at depth+1, depth-first pre-order.
func writeNode(b *strings.Builder, n *models.EventNode, depth int) {
	indent := strings.Repeat("    ", depth)
	box := " "
	if n.IsChecked {
		box = "x"
	}

	if n.IsReference() {
		// A reference renders only its mirrored title link and the ref
		// tag. Any stray in-memory fields are deliberately not leaked.
		fmt.Fprintf(b, "%s- [%s] [%s](#%s) #%s\n", indent, box, n.Title, n.ReferenceID, models.TagRef)
	} else {
		parts := []string{n.Title}
		if marker := n.Type.Marker(); marker != "" {
			parts = append(parts, marker)
		}
		if n.AnchorID != "" {
			parts = append(parts, fmt.Sprintf(`<a id="%s"></a>`, n.AnchorID))
		}
		for _, tag := range n.Tags {
			parts = append(parts, "#"+tag)
		}
		if n.CreatedAt != nil {
			parts = append(parts, fmt.Sprintf("[created: %s]", n.CreatedAt.Format(models.TimeLayout)))
		}
		if n.CompletedAt != nil {
			parts = append(parts, fmt.Sprintf("[done: %s]", n.CompletedAt.Format(models.TimeLayout)))
		}
		keys := make([]string, 0, len(n.Metadata))
		for k := range n.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("[%s: %s]", k, n.Metadata[k]))
		}
		fmt.Fprintf(b, "%s- [%s] %s\n", indent, box, strings.Join(parts, " "))
	}

	logIndent := strings.Repeat("    ", depth+1)
	for _, log := range n.Logs {
		fmt.Fprintf(b, "%s> [created: %s] %s\n", logIndent, log.Timestamp.Format(models.TimeLayout), log.Content)
	}

	for _, c := range n.Children {
		writeNode(b, c, depth+1)
	}
}
