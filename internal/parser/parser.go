// Package parser converts between the stored Markdown dialect and the
// in-memory document tree. Parsing is permissive: lines that do not match
// the grammar are skipped, never reported as errors.
package parser

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskdown/taskdown/internal/models"
)

var (
	headingRe  = regexp.MustCompile(`^##\s+(.*?)\s*$`)
	nodeLineRe = regexp.MustCompile(`^(?:[-*]\s*)?\[([ xX])\]\s*(.*)$`)
	logLineRe  = regexp.MustCompile(`^>\s*\[created:\s*([^\]]+)\]\s*(.*)$`)

	bracketMetaRe = regexp.MustCompile(`\[([A-Za-z][A-Za-z0-9_-]*):\s*([^\]]*)\]`)
	anchorRe      = regexp.MustCompile(`<a\s+(?:id|name)="([^"]*)"[^>]*>(?:</a>)?`)
	legacyMetaRe  = regexp.MustCompile(`(^|\s)(created|done|due):(\d{4}-\d{2}-\d{2})\b`)
	refLinkRe     = regexp.MustCompile(`^\[([^\]]*)\]\(#([^)]+)\)`)
)

// Parse converts raw document text into a section forest. Lines are split
// on "## Heading" delimiters; everything before the first heading belongs
// to the unnamed default section. Parse never fails: malformed lines are
// dropped and an empty input yields a document with one empty section.
func Parse(raw string) *models.Document {
	doc := &models.Document{}

	defaultSection := models.NewSection("")
	current := defaultSection
	var body []string

	flush := func() {
		current.Nodes = parseSection(body)
		body = body[:0]
	}

	for _, line := range strings.Split(raw, "\n") {
		if m := headingRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			flush()
			if current != defaultSection || len(current.Nodes) > 0 {
				doc.Sections = append(doc.Sections, current)
			}
			current = models.NewSection(m[1])
			continue
		}
		body = append(body, line)
	}
	flush()
	if current != defaultSection || len(current.Nodes) > 0 || len(doc.Sections) == 0 {
		doc.Sections = append(doc.Sections, current)
	}

	return doc
}

// parseSection runs the two-pass parse over one section body: classify each
// physical line, then assemble the level/item sequence into a forest with a
// single forward scan.
func parseSection(lines []string) []*models.EventNode {
	var roots []*models.EventNode
	var stack []*models.EventNode // last node seen at each level
	var last *models.EventNode    // receiver for subsequent log lines

	for _, line := range lines {
		expanded := strings.ReplaceAll(line, "\t", "    ")
		trimmed := strings.TrimSpace(expanded)
		if trimmed == "" {
			continue
		}
		level := indentLevel(expanded)

		if m := nodeLineRe.FindStringSubmatch(trimmed); m != nil {
			n := parsePayload(m[2])
			if n == nil {
				last = nil
				continue
			}
			n.IsChecked = m[1] == "x" || m[1] == "X"

			switch {
			case level == 0:
				roots = append(roots, n)
				stack = append(stack[:0], n)
			case level <= len(stack):
				parent := stack[level-1]
				if parent.IsReference() {
					// References mirror a target and never own children;
					// a deeper line under one has no plausible parent.
					last = nil
					continue
				}
				parent.Children = append(parent.Children, n)
				stack = append(stack[:level], n)
			default:
				// Level gap greater than +1: the line has no plausible
				// parent and is dropped, not reparented.
				last = nil
				continue
			}
			last = n
			continue
		}

		if m := logLineRe.FindStringSubmatch(trimmed); m != nil {
			if last == nil {
				continue
			}
			ts, err := time.Parse(models.TimeLayout, strings.TrimSpace(m[1]))
			if err != nil {
				continue
			}
			last.Logs = append(last.Logs, models.LogEntry{
				ID:        uuid.NewString(),
				Timestamp: ts,
				Content:   m[2],
			})
			continue
		}

		// Unrecognized line: skipped by design.
	}

	return roots
}

// indentLevel maps leading spaces to a tree level, rounding half away from
// zero so that 2-5 spaces read as level 1 and 6-9 as level 2, tolerating
// minor human formatting drift.
func indentLevel(line string) int {
	spaces := 0
	for _, r := range line {
		if r != ' ' {
			break
		}
		spaces++
	}
	return int(math.Round(float64(spaces) / 4.0))
}

// parsePayload extracts the structured parts of a node line: bracketed and
// legacy metadata, the HTML anchor, inline tags, a leading reference link,
// and the trailing event-type marker. Whatever text remains, trimmed, is
// the title; an empty title discards the line.
func parsePayload(payload string) *models.EventNode {
	n := &models.EventNode{
		ID:   uuid.NewString(),
		Type: models.EventTypeTask,
	}

	rest := bracketMetaRe.ReplaceAllStringFunc(payload, func(m string) string {
		sub := bracketMetaRe.FindStringSubmatch(m)
		applyMeta(n, strings.ToLower(sub[1]), strings.TrimSpace(sub[2]), false)
		return ""
	})

	if m := anchorRe.FindStringSubmatch(rest); m != nil {
		n.AnchorID = m[1]
		rest = anchorRe.ReplaceAllString(rest, "")
	}

	rest = legacyMetaRe.ReplaceAllStringFunc(rest, func(m string) string {
		sub := legacyMetaRe.FindStringSubmatch(m)
		applyMeta(n, sub[2], sub[3], true)
		return sub[1]
	})

	var tags []string
	rest, tags = models.ExtractTags(rest)
	n.Tags = tags

	if m := refLinkRe.FindStringSubmatch(rest); m != nil {
		n.ReferenceID = m[2]
		rest = strings.TrimSpace(m[1]) + rest[len(m[0]):]
	}

	rest = strings.TrimSpace(rest)
	for _, marker := range []string{"🏁", "📅"} {
		if strings.HasSuffix(rest, marker) {
			t, _ := models.EventTypeForMarker(marker)
			n.Type = t
			rest = strings.TrimSpace(strings.TrimSuffix(rest, marker))
			break
		}
	}

	n.Title = rest
	if n.Title == "" {
		return nil
	}

	if n.IsReference() {
		// A reference node carries only the ref tag and no metadata or
		// anchor of its own, whatever the source line claimed.
		n.Tags = []string{models.TagRef}
		n.Metadata = nil
		n.AnchorID = ""
	}
	return n
}

// applyMeta routes one metadata key/value onto the node. Legacy unbracketed
// values only apply when the bracketed form has not already set the key.
func applyMeta(n *models.EventNode, key, value string, legacy bool) {
	switch key {
	case "created":
		if legacy && n.CreatedAt != nil {
			return
		}
		if ts, ok := parseStamp(value); ok {
			n.CreatedAt = &ts
		}
	case "done":
		if legacy && n.CompletedAt != nil {
			return
		}
		if ts, ok := parseStamp(value); ok {
			n.CompletedAt = &ts
		}
	default:
		if legacy && n.Metadata[key] != "" {
			return
		}
		if n.Metadata == nil {
			n.Metadata = make(map[string]string)
		}
		n.Metadata[key] = value
	}
}

// parseStamp accepts the unified timestamp format, falling back to the
// date-only form.
func parseStamp(value string) (time.Time, bool) {
	if ts, err := time.Parse(models.TimeLayout, value); err == nil {
		return ts, true
	}
	if ts, err := time.Parse(models.DateLayout, value); err == nil {
		return ts, true
	}
	return time.Time{}, false
}
