// Package models defines the domain types for taskdown: the event tree, its
// sections, work logs, and the derived display state.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Timestamp layouts used throughout the document format.
const (
	// TimeLayout is the unified timestamp format for created/done/due values.
	TimeLayout = "2006-01-02 15:04"
	// DateLayout is the date-only format accepted for due values.
	DateLayout = "2006-01-02"
)

// TagRef is the reserved tag carried by reference nodes. It is never
// accepted as a user tag on a concrete node.
const TagRef = "ref"

// TagWait marks a node as an explicit blocker.
const TagWait = "wait"

// EventType classifies a node. Each type carries a trailing marker used only
// at the tail of the rendered title for round-tripping.
type EventType string

const (
	EventTypeTask      EventType = "task"
	EventTypeMilestone EventType = "milestone"
	EventTypeEvent     EventType = "event"
)

// Marker returns the trailing emoji for the event type ("" for plain tasks).
func (t EventType) Marker() string {
	switch t {
	case EventTypeMilestone:
		return "🏁"
	case EventTypeEvent:
		return "📅"
	default:
		return ""
	}
}

// EventTypeForMarker maps a trailing marker back to its event type.
func EventTypeForMarker(marker string) (EventType, bool) {
	switch marker {
	case "🏁":
		return EventTypeMilestone, true
	case "📅":
		return EventTypeEvent, true
	}
	return EventTypeTask, false
}

// LogEntry is a timestamped work-log line owned by exactly one node.
// Ordering is insertion order and is significant.
type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
}

// NewLogEntry creates a log entry with a fresh id. The timestamp is
// truncated to minute precision, matching the stored format.
func NewLogEntry(ts time.Time, content string) LogEntry {
	return LogEntry{
		ID:        uuid.NewString(),
		Timestamp: ts.Truncate(time.Minute),
		Content:   content,
	}
}

// EventNode is the tree unit. Children and logs are exclusively owned: a
// child belongs to exactly one parent and the tree is a strict forest.
//
// A node with a non-empty ReferenceID is a reference node: it mirrors the
// title/checked flag of the concrete node carrying the matching AnchorID,
// its only tag is "ref", its metadata is empty, and it never has an anchor
// of its own. AnchorID is non-empty only while at least one reference node
// somewhere in the document points at it.
type EventNode struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	IsChecked   bool              `json:"isChecked"`
	Tags        []string          `json:"tags,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   *time.Time        `json:"createdAt,omitempty"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
	Children    []*EventNode      `json:"children,omitempty"`
	Logs        []LogEntry        `json:"logs,omitempty"`
	Type        EventType         `json:"type"`
	AnchorID    string            `json:"anchorId,omitempty"`
	ReferenceID string            `json:"referenceId,omitempty"`
}

// NewNode creates an active, unchecked task node. Inline #tags in the given
// text are extracted into Tags and stripped from the stored title.
func NewNode(text string) *EventNode {
	title, tags := ExtractTags(text)
	return &EventNode{
		ID:    uuid.NewString(),
		Title: title,
		Tags:  tags,
		Type:  EventTypeTask,
	}
}

// IsReference reports whether the node mirrors another node.
func (n *EventNode) IsReference() bool { return n.ReferenceID != "" }

// HasTag reports whether the node carries the given (lowercase) tag.
func (n *EventNode) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag appends a tag if it is not already present. The reserved "ref" tag
// is rejected on concrete nodes.
func (n *EventNode) AddTag(tag string) bool {
	tag = NormalizeTag(tag)
	if tag == "" || n.HasTag(tag) {
		return false
	}
	if tag == TagRef && !n.IsReference() {
		return false
	}
	n.Tags = append(n.Tags, tag)
	return true
}

// RemoveTag deletes a tag; returns false when the node did not carry it.
func (n *EventNode) RemoveTag(tag string) bool {
	tag = NormalizeTag(tag)
	for i, t := range n.Tags {
		if t == tag {
			n.Tags = append(n.Tags[:i], n.Tags[i+1:]...)
			return true
		}
	}
	return false
}

// SetChecked toggles completion. Checking stamps CompletedAt; unchecking
// clears it.
func (n *EventNode) SetChecked(checked bool, now time.Time) {
	n.IsChecked = checked
	if checked {
		ts := now.Truncate(time.Minute)
		n.CompletedAt = &ts
	} else {
		n.CompletedAt = nil
	}
}

// Walk visits the node and every descendant depth-first, parent before
// children. The walk stops early when fn returns false.
func (n *EventNode) Walk(fn func(*EventNode) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Section is a named partition of the root-level node list. The empty name
// denotes the default (unnamed) section, which is stored without a heading.
type Section struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Nodes []*EventNode `json:"nodes"`
}

// NewSection creates an empty section with a fresh id.
func NewSection(name string) *Section {
	return &Section{ID: uuid.NewString(), Name: name}
}

// Document is an ordered list of sections. A document always contains at
// least one section; the reference graph spans all of them.
type Document struct {
	Sections []*Section `json:"sections"`
}

// NewDocument returns a document holding a single default section.
func NewDocument() *Document {
	return &Document{Sections: []*Section{NewSection("")}}
}

// Walk visits every node in every section depth-first, parent before
// children, in document order.
func (d *Document) Walk(fn func(*EventNode) bool) {
	for _, s := range d.Sections {
		for _, n := range s.Nodes {
			if !n.Walk(fn) {
				return
			}
		}
	}
}
