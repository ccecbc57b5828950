package docservice

// Op kinds accepted by Service.Apply.
const (
	OpAddTask       = "add_task"
	OpAddChild      = "add_child"
	OpSetChecked    = "set_checked"
	OpSetTitle      = "set_title"
	OpSetType       = "set_type"
	OpSetDue        = "set_due"
	OpAddTag        = "add_tag"
	OpRemoveTag     = "remove_tag"
	OpAddLog        = "add_log"
	OpEditLog       = "edit_log"
	OpRemoveLog     = "remove_log"
	OpIndent        = "indent"
	OpOutdent       = "outdent"
	OpRemove        = "remove"
	OpRelocate      = "relocate"
	OpAddReference  = "add_reference"
	OpAddSection    = "add_section"
	OpRenameSection = "rename_section"
	OpRemoveSection = "remove_section"
)

// Op is a single mutating outline operation. Which fields matter depends on
// Kind; unused fields are ignored.
type Op struct {
	Kind      string `json:"kind"`
	SectionID string `json:"sectionId,omitempty"`
	NodeID    string `json:"nodeId,omitempty"`
	ParentID  string `json:"parentId,omitempty"`
	TargetID  string `json:"targetId,omitempty"`
	LogID     string `json:"logId,omitempty"`
	Text      string `json:"text,omitempty"`
	Checked   bool   `json:"checked,omitempty"`
}

// OpResult reports the outcome of a successful operation.
type OpResult struct {
	// Checksum identifies the new document revision; node ids in any
	// previously fetched outline are only valid against it.
	Checksum string `json:"checksum"`
	// NodeID is the node the operation created or touched, when relevant.
	NodeID string `json:"nodeId,omitempty"`
}
