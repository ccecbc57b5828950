package models

// EventState is the derived display state of a node. It is computed on
// demand and never stored.
type EventState string

const (
	StateActive    EventState = "active"
	StateWaiting   EventState = "waiting"
	StateBlocked   EventState = "blocked"
	StateCompleted EventState = "completed"
)

// SortPriority orders states for display: active < waiting < blocked < completed.
func (s EventState) SortPriority() int {
	switch s {
	case StateActive:
		return 0
	case StateWaiting:
		return 1
	case StateBlocked:
		return 2
	case StateCompleted:
		return 3
	}
	return 0
}

// State derives the node's display state:
//
//  1. a checked node is completed, overriding everything else;
//  2. a node tagged #wait is waiting;
//  3. a reference node is waiting until its mirrored checked flag resolves it;
//  4. a node with any waiting or blocked child (recursively) is blocked;
//  5. otherwise the node is active.
//
// The recursion makes waiting bubble up: a waiting grandchild blocks every
// unchecked ancestor up to the root.
func (n *EventNode) State() EventState {
	if n.IsChecked {
		return StateCompleted
	}
	if n.HasTag(TagWait) {
		return StateWaiting
	}
	if n.IsReference() {
		return StateWaiting
	}
	for _, c := range n.Children {
		switch c.State() {
		case StateWaiting, StateBlocked:
			return StateBlocked
		}
	}
	return StateActive
}

// IsWaiting reports whether the node carries the explicit #wait tag.
func (n *EventNode) IsWaiting() bool { return n.HasTag(TagWait) }

// ChildProgress returns the fraction of direct children that are checked.
// ok is false when the node has no children.
func (n *EventNode) ChildProgress() (progress float64, ok bool) {
	if len(n.Children) == 0 {
		return 0, false
	}
	checked := 0
	for _, c := range n.Children {
		if c.IsChecked {
			checked++
		}
	}
	return float64(checked) / float64(len(n.Children)), true
}
