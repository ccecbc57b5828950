package parser

import (
	"testing"

	"github.com/taskdown/taskdown/internal/models"
)

func TestParse_EmptyInputYieldsDefaultSection(t *testing.T) {
	doc := Parse("")
	if len(doc.Sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(doc.Sections))
	}
	if doc.Sections[0].Name != "" || len(doc.Sections[0].Nodes) != 0 {
		t.Errorf("default section = %+v", doc.Sections[0])
	}
}

func TestParse_SectionsAndDefaultSection(t *testing.T) {
	doc := Parse("- [ ] Loose task\n\n## Work\n- [ ] Task A\n\n## Home\n- [ ] Task B\n")
	if len(doc.Sections) != 3 {
		t.Fatalf("sections = %d, want 3", len(doc.Sections))
	}
	if doc.Sections[0].Name != "" || doc.Sections[0].Nodes[0].Title != "Loose task" {
		t.Errorf("default section = %+v", doc.Sections[0])
	}
	if doc.Sections[1].Name != "Work" || doc.Sections[2].Name != "Home" {
		t.Errorf("section names = %q, %q", doc.Sections[1].Name, doc.Sections[2].Name)
	}
}

func TestParse_EmptyDefaultSectionDroppedWhenOthersExist(t *testing.T) {
	doc := Parse("## Work\n- [ ] Task A\n")
	if len(doc.Sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(doc.Sections))
	}
	if doc.Sections[0].Name != "Work" {
		t.Errorf("section = %q", doc.Sections[0].Name)
	}
}

func TestParse_IndentLevels(t *testing.T) {
	// 2 and 5 leading spaces both round to level 1; 6 rounds to level 2.
	input := "- [ ] Root\n  - [ ] Child A\n     - [ ] Child B\n      - [ ] Grandchild\n"
	doc := Parse(input)

	root := doc.Sections[0].Nodes[0]
	if len(root.Children) != 2 {
		t.Fatalf("root children = %d, want 2", len(root.Children))
	}
	if root.Children[0].Title != "Child A" || root.Children[1].Title != "Child B" {
		t.Errorf("children = %q, %q", root.Children[0].Title, root.Children[1].Title)
	}
	if len(root.Children[1].Children) != 1 || root.Children[1].Children[0].Title != "Grandchild" {
		t.Errorf("grandchildren = %+v", root.Children[1].Children)
	}
}

func TestParse_TabsCountAsFourSpaces(t *testing.T) {
	doc := Parse("- [ ] Root\n\t- [ ] Child\n")
	root := doc.Sections[0].Nodes[0]
	if len(root.Children) != 1 || root.Children[0].Title != "Child" {
		t.Errorf("children = %+v", root.Children)
	}
}

func TestParse_LevelGapDropsLine(t *testing.T) {
	doc := Parse("- [ ] Root\n        - [ ] Orphan\n- [ ] Next\n")
	nodes := doc.Sections[0].Nodes
	if len(nodes) != 2 {
		t.Fatalf("roots = %d, want 2", len(nodes))
	}
	if len(nodes[0].Children) != 0 {
		t.Errorf("orphan should be dropped, got %+v", nodes[0].Children)
	}
}

func TestParse_MalformedLinesSkipped(t *testing.T) {
	doc := Parse("some prose\n- [ ] Real task\n- [ ]\n- [?] bad box\n")
	nodes := doc.Sections[0].Nodes
	if len(nodes) != 1 || nodes[0].Title != "Real task" {
		t.Errorf("nodes = %+v", nodes)
	}
}

func TestParse_CheckedBox(t *testing.T) {
	doc := Parse("- [x] Done\n- [X] Also done\n- [ ] Open\n")
	nodes := doc.Sections[0].Nodes
	if !nodes[0].IsChecked || !nodes[1].IsChecked || nodes[2].IsChecked {
		t.Errorf("checked flags = %v %v %v", nodes[0].IsChecked, nodes[1].IsChecked, nodes[2].IsChecked)
	}
}

func TestParse_InlineTags(t *testing.T) {
	doc := Parse("- [ ] Fix login #urgent #backend\n")
	n := doc.Sections[0].Nodes[0]
	if n.Title != "Fix login" {
		t.Errorf("title = %q", n.Title)
	}
	if len(n.Tags) != 2 || n.Tags[0] != "urgent" || n.Tags[1] != "backend" {
		t.Errorf("tags = %v", n.Tags)
	}
}

func TestParse_BracketedMetadata(t *testing.T) {
	doc := Parse("- [x] Pay rent [created: 2024-05-01 09:00] [done: 2024-05-02 10:30] [due: 2024-06-01] #money\n")
	n := doc.Sections[0].Nodes[0]
	if n.Title != "Pay rent" {
		t.Errorf("title = %q", n.Title)
	}
	if n.CreatedAt == nil || n.CreatedAt.Format(models.TimeLayout) != "2024-05-01 09:00" {
		t.Errorf("createdAt = %v", n.CreatedAt)
	}
	if n.CompletedAt == nil || n.CompletedAt.Format(models.TimeLayout) != "2024-05-02 10:30" {
		t.Errorf("completedAt = %v", n.CompletedAt)
	}
	if n.Metadata["due"] != "2024-06-01" {
		t.Errorf("due = %q", n.Metadata["due"])
	}
	if len(n.Tags) != 1 || n.Tags[0] != "money" {
		t.Errorf("tags = %v", n.Tags)
	}
}

func TestParse_LegacyMetadataYieldsToBracketed(t *testing.T) {
	doc := Parse("- [ ] Old style created:2024-01-15 [created: 2024-02-01 08:00]\n")
	n := doc.Sections[0].Nodes[0]
	if n.Title != "Old style" {
		t.Errorf("title = %q", n.Title)
	}
	if n.CreatedAt == nil || n.CreatedAt.Format(models.TimeLayout) != "2024-02-01 08:00" {
		t.Errorf("bracketed form should win: %v", n.CreatedAt)
	}
}

func TestParse_LegacyMetadataAlone(t *testing.T) {
	doc := Parse("- [ ] Old style created:2024-01-15 due:2024-03-01\n")
	n := doc.Sections[0].Nodes[0]
	if n.CreatedAt == nil || n.CreatedAt.Format(models.DateLayout) != "2024-01-15" {
		t.Errorf("createdAt = %v", n.CreatedAt)
	}
	if n.Metadata["due"] != "2024-03-01" {
		t.Errorf("due = %q", n.Metadata["due"])
	}
}

func TestParse_Anchor(t *testing.T) {
	doc := Parse(`- [ ] Deploy server <a id="deploy-20240101120000"></a>` + "\n")
	n := doc.Sections[0].Nodes[0]
	if n.Title != "Deploy server" {
		t.Errorf("title = %q", n.Title)
	}
	if n.AnchorID != "deploy-20240101120000" {
		t.Errorf("anchor = %q", n.AnchorID)
	}
}

func TestParse_ReferenceNode(t *testing.T) {
	doc := Parse("- [x] [Deploy server](#deploy-20240101120000) #ref\n")
	n := doc.Sections[0].Nodes[0]
	if !n.IsReference() || n.ReferenceID != "deploy-20240101120000" {
		t.Fatalf("node = %+v", n)
	}
	if n.Title != "Deploy server" || !n.IsChecked {
		t.Errorf("title = %q checked = %v", n.Title, n.IsChecked)
	}
	if len(n.Tags) != 1 || n.Tags[0] != models.TagRef {
		t.Errorf("tags = %v", n.Tags)
	}
}

func TestParse_ReferenceNeverOwnsChildren(t *testing.T) {
	input := `- [ ] Target <a id="x-1"></a>
- [ ] [Target](#x-1) #ref
    - [ ] Dropped child
    - [ ] [Target](#x-1) #ref
- [ ] After
`
	doc := Parse(input)
	nodes := doc.Sections[0].Nodes
	if len(nodes) != 3 {
		t.Fatalf("roots = %d, want 3", len(nodes))
	}
	ref := nodes[1]
	if !ref.IsReference() {
		t.Fatalf("node = %+v", ref)
	}
	if len(ref.Children) != 0 {
		t.Errorf("reference children = %v", ref.Children)
	}
	if nodes[2].Title != "After" {
		t.Errorf("trailing root = %q", nodes[2].Title)
	}
}

func TestParse_ReferenceStripsForeignFields(t *testing.T) {
	doc := Parse(`- [ ] [Mirror](#target-1) #ref #extra [due: 2024-06-01] <a id="own"></a>` + "\n")
	n := doc.Sections[0].Nodes[0]
	if !n.IsReference() {
		t.Fatal("expected a reference node")
	}
	if len(n.Tags) != 1 || n.Metadata != nil || n.AnchorID != "" {
		t.Errorf("reference carries foreign fields: %+v", n)
	}
}

func TestParse_EventTypeMarkers(t *testing.T) {
	doc := Parse("- [ ] Launch v2 🏁\n- [ ] Standup 📅\n- [ ] Plain\n")
	nodes := doc.Sections[0].Nodes
	if nodes[0].Type != models.EventTypeMilestone || nodes[0].Title != "Launch v2" {
		t.Errorf("milestone = %+v", nodes[0])
	}
	if nodes[1].Type != models.EventTypeEvent {
		t.Errorf("event = %+v", nodes[1])
	}
	if nodes[2].Type != models.EventTypeTask {
		t.Errorf("task = %+v", nodes[2])
	}
}

func TestParse_LogLines(t *testing.T) {
	input := "- [ ] Task A\n    > [created: 2024-01-02 09:30] started work\n    > [created: 2024-01-02 11:00] hit a snag\n- [ ] Task B\n"
	doc := Parse(input)
	a := doc.Sections[0].Nodes[0]
	if len(a.Logs) != 2 {
		t.Fatalf("logs = %d, want 2", len(a.Logs))
	}
	if a.Logs[0].Content != "started work" || a.Logs[1].Content != "hit a snag" {
		t.Errorf("log contents = %q, %q", a.Logs[0].Content, a.Logs[1].Content)
	}
	if a.Logs[0].Timestamp.Format(models.TimeLayout) != "2024-01-02 09:30" {
		t.Errorf("timestamp = %v", a.Logs[0].Timestamp)
	}
	if len(doc.Sections[0].Nodes[1].Logs) != 0 {
		t.Error("logs must attach to the most recent node line only")
	}
}

func TestParse_LogLineWithBadTimestampDropped(t *testing.T) {
	doc := Parse("- [ ] Task\n    > [created: yesterday] note\n")
	if len(doc.Sections[0].Nodes[0].Logs) != 0 {
		t.Error("unparseable log timestamp should drop the line")
	}
}

func TestParse_OrphanLogLineDropped(t *testing.T) {
	doc := Parse("> [created: 2024-01-02 09:30] floating\n- [ ] Task\n")
	if len(doc.Sections[0].Nodes) != 1 || len(doc.Sections[0].Nodes[0].Logs) != 0 {
		t.Errorf("doc = %+v", doc.Sections[0].Nodes)
	}
}

func TestParse_StarBulletAndBareBox(t *testing.T) {
	doc := Parse("* [ ] Star bullet\n[ ] Bare box\n")
	nodes := doc.Sections[0].Nodes
	if len(nodes) != 2 || nodes[0].Title != "Star bullet" || nodes[1].Title != "Bare box" {
		t.Errorf("nodes = %+v", nodes)
	}
}
