package outline

import (
	"strings"
	"testing"
	"time"

	"github.com/taskdown/taskdown/internal/models"
)

func fixedNow(t *testing.T) {
	t.Helper()
	orig := now
	now = func() time.Time {
		return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	t.Cleanup(func() { now = orig })
}

func TestAddReference_AllocatesAnchor(t *testing.T) {
	fixedNow(t)
	doc, nodes := buildDoc()

	ref := AddReference(doc, nodes["a"].ID, nodes["b"].ID)
	if ref == nil {
		t.Fatal("AddReference failed")
	}
	if nodes["b"].AnchorID == "" {
		t.Fatal("target should get an anchor")
	}
	if want := "b-20240101120000"; nodes["b"].AnchorID != want {
		t.Errorf("anchor = %q, want %q", nodes["b"].AnchorID, want)
	}
	if ref.ReferenceID != nodes["b"].AnchorID {
		t.Errorf("reference points at %q", ref.ReferenceID)
	}
	if ref.Title != "b" || len(ref.Tags) != 1 || ref.Tags[0] != models.TagRef {
		t.Errorf("reference = %+v", ref)
	}
	// Second reference reuses the existing anchor.
	ref2 := AddReference(doc, nodes["a1"].ID, nodes["b"].ID)
	if ref2 == nil || ref2.ReferenceID != ref.ReferenceID {
		t.Error("existing anchor should be reused")
	}
}

func TestAddReference_Refusals(t *testing.T) {
	doc, nodes := buildDoc()
	ref := AddReference(doc, nodes["a"].ID, nodes["b"].ID)
	if ref == nil {
		t.Fatal("setup reference failed")
	}

	if AddReference(doc, nodes["a"].ID, ref.ID) != nil {
		t.Error("references to references must be refused")
	}
	if AddReference(doc, ref.ID, nodes["a1"].ID) != nil {
		t.Error("reference parents must be refused")
	}
	if AddReference(doc, nodes["b"].ID, nodes["b"].ID) != nil {
		t.Error("self-reference must be refused")
	}
	if AddReference(doc, "missing", nodes["b"].ID) != nil {
		t.Error("unknown parent must be refused")
	}
	if AddReference(doc, nodes["a"].ID, "missing") != nil {
		t.Error("unknown target must be refused")
	}
}

func TestNormalize_MirrorsTitleAndChecked(t *testing.T) {
	doc, nodes := buildDoc()
	ref := AddReference(doc, nodes["a"].ID, nodes["b"].ID)

	nodes["b"].Title = "b renamed"
	nodes["b"].IsChecked = true
	if !Normalize(doc) {
		t.Fatal("expected normalize to report a change")
	}
	if ref.Title != "b renamed" || !ref.IsChecked {
		t.Errorf("reference not re-mirrored: %+v", ref)
	}
	// A clean second pass reports no change.
	if Normalize(doc) {
		t.Error("normalize on a clean document should report false")
	}
}

func TestNormalize_PrunesDanglingReferences(t *testing.T) {
	doc, nodes := buildDoc()
	ref := AddReference(doc, nodes["a"].ID, nodes["b"].ID)
	if ref == nil {
		t.Fatal("setup reference failed")
	}

	Remove(doc, nodes["b"].ID)
	if !Normalize(doc) {
		t.Fatal("expected normalize to report a change")
	}
	if Find(doc, ref.ID) != nil {
		t.Error("dangling reference should be pruned")
	}
}

func TestNormalize_CollectsUnusedAnchors(t *testing.T) {
	doc, nodes := buildDoc()
	ref := AddReference(doc, nodes["a"].ID, nodes["b"].ID)
	if ref == nil {
		t.Fatal("setup reference failed")
	}

	// Deleting the only reference leaves the anchor orphaned.
	Remove(doc, ref.ID)
	if !Normalize(doc) {
		t.Fatal("expected normalize to report a change")
	}
	if nodes["b"].AnchorID != "" {
		t.Errorf("orphaned anchor should be cleared, got %q", nodes["b"].AnchorID)
	}
}

func TestNormalize_PrunesChildrenOfReferences(t *testing.T) {
	doc, nodes := buildDoc()
	outer := AddReference(doc, nodes["a"].ID, nodes["b"].ID)
	if outer == nil {
		t.Fatal("setup reference failed")
	}

	// A hand-edited file can nest a reference under another one. The nested
	// reference must not keep its target's anchor alive.
	nodes["a2"].AnchorID = "a2-anchor"
	nested := &models.EventNode{
		ID:          "nested",
		Title:       nodes["a2"].Title,
		Tags:        []string{models.TagRef},
		Type:        models.EventTypeTask,
		ReferenceID: "a2-anchor",
	}
	outer.Children = append(outer.Children, nested)

	if !Normalize(doc) {
		t.Fatal("expected normalize to report a change")
	}
	if len(outer.Children) != 0 {
		t.Error("reference children should be pruned")
	}
	if Find(doc, "nested") != nil {
		t.Error("nested reference should be removed")
	}
	if nodes["a2"].AnchorID != "" {
		t.Errorf("anchor without a surviving referencer should be cleared, got %q", nodes["a2"].AnchorID)
	}
	if nodes["b"].AnchorID == "" {
		t.Error("anchor of the outer reference's target must survive")
	}
}

func TestNormalize_StripsAnchorAndMetadataFromReference(t *testing.T) {
	doc, nodes := buildDoc()
	ref := AddReference(doc, nodes["a"].ID, nodes["b"].ID)

	// Corrupt the reference the way a hand edit might.
	ref.AnchorID = "bogus"
	ref.Metadata = map[string]string{"due": "2024-06-01"}
	ref.Tags = []string{"ref", "extra"}

	if !Normalize(doc) {
		t.Fatal("expected normalize to repair the reference")
	}
	if ref.AnchorID != "" || ref.Metadata != nil || len(ref.Tags) != 1 {
		t.Errorf("reference not repaired: %+v", ref)
	}
}

func TestNewAnchorID_SlugRules(t *testing.T) {
	fixedNow(t)

	got := newAnchorID("Deploy the NEW server!")
	if want := "deploy-the-new-server-20240101120000"; got != want {
		t.Errorf("anchor = %q, want %q", got, want)
	}

	got = newAnchorID("")
	if !strings.HasPrefix(got, "node-") {
		t.Errorf("empty title anchor = %q", got)
	}

	long := newAnchorID(strings.Repeat("word ", 20))
	slug := strings.TrimSuffix(long, "-20240101120000")
	if len(slug) > 40 {
		t.Errorf("slug too long: %q", slug)
	}
}
