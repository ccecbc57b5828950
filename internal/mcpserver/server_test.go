package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/taskdown/taskdown/internal/docservice"
	"github.com/taskdown/taskdown/internal/testutil"
)

func testServer(t *testing.T) (*Server, *docservice.Service) {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)

	svc := docservice.NewService(store, db)
	srv := New(svc)
	return srv, svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handlers are
	// invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_documents":
		result, err = srv.listDocuments(ctx, req)
	case "read_outline":
		result, err = srv.readOutline(ctx, req)
	case "search_tasks":
		result, err = srv.searchTasks(ctx, req)
	case "add_task":
		result, err = srv.addTask(ctx, req)
	case "complete_task":
		result, err = srv.completeTask(ctx, req)
	case "add_log":
		result, err = srv.addLog(ctx, req)
	case "add_reference":
		result, err = srv.addReference(ctx, req)
	case "get_outline_contract":
		result, err = srv.getOutlineContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// firstNode reads the outline through the tool and returns the first root
// node id plus the revision checksum.
func firstNode(t *testing.T, srv *Server, path string) (string, string) {
	t.Helper()
	r := callTool(t, srv, "read_outline", map[string]interface{}{"path": path})
	if r.IsError {
		t.Fatalf("read_outline error: %s", resultText(r))
	}
	var view docservice.OutlineView
	if err := json.Unmarshal([]byte(resultText(r)), &view); err != nil {
		t.Fatalf("unmarshal outline: %v", err)
	}
	return view.Sections[0].Nodes[0].ID, view.Checksum
}

func seedDoc(t *testing.T, svc *docservice.Service, path, content string) {
	t.Helper()
	if _, err := svc.Create(context.Background(), path, content); err != nil {
		t.Fatalf("seed %s: %v", path, err)
	}
}

func TestListDocuments(t *testing.T) {
	srv, svc := testServer(t)

	r := callTool(t, srv, "list_documents", map[string]interface{}{})
	if resultText(r) != "no documents" {
		t.Errorf("empty vault result = %q", resultText(r))
	}

	seedDoc(t, svc, "work.md", "- [x] Done\n- [ ] Open\n")
	r = callTool(t, srv, "list_documents", map[string]interface{}{})
	if !strings.Contains(resultText(r), "work.md (1/2 done)") {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestReadOutline(t *testing.T) {
	srv, svc := testServer(t)
	seedDoc(t, svc, "o.md", "- [ ] Release\n    - [ ] Signoff #wait\n")

	r := callTool(t, srv, "read_outline", map[string]interface{}{"path": "o.md"})
	text := resultText(r)
	if !strings.Contains(text, `"state": "blocked"`) || !strings.Contains(text, `"state": "waiting"`) {
		t.Errorf("outline = %s", text)
	}

	r = callTool(t, srv, "read_outline", map[string]interface{}{"path": "missing.md"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
}

func TestSearchTasks(t *testing.T) {
	srv, svc := testServer(t)
	seedDoc(t, svc, "s.md", "- [ ] Deploy the server\n- [ ] Water plants\n")

	r := callTool(t, srv, "search_tasks", map[string]interface{}{"query": "deploy"})
	text := resultText(r)
	if !strings.Contains(text, "Deploy the server") {
		t.Errorf("search result = %q", text)
	}
	if strings.Contains(text, "Water plants") {
		t.Errorf("unexpected hit in %q", text)
	}
}

func TestAddTaskAndCompleteTask(t *testing.T) {
	srv, svc := testServer(t)
	seedDoc(t, svc, "t.md", "- [ ] Existing\n")

	_, checksum := firstNode(t, srv, "t.md")
	r := callTool(t, srv, "add_task", map[string]interface{}{
		"path":     "t.md",
		"text":     "New task #urgent",
		"checksum": checksum,
	})
	if r.IsError {
		t.Fatalf("add_task error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "added node ") {
		t.Errorf("result = %q", resultText(r))
	}

	id, checksum := firstNode(t, srv, "t.md")
	r = callTool(t, srv, "complete_task", map[string]interface{}{
		"path":     "t.md",
		"node_id":  id,
		"checksum": checksum,
	})
	if r.IsError {
		t.Fatalf("complete_task error: %s", resultText(r))
	}

	raw, _ := svc.GetRaw(context.Background(), "t.md")
	if !strings.Contains(raw.Content, "- [x] Existing") {
		t.Errorf("content = %q", raw.Content)
	}
}

func TestCompleteTask_UncheckedFlag(t *testing.T) {
	srv, svc := testServer(t)
	seedDoc(t, svc, "u.md", "- [x] Was done\n")

	id, checksum := firstNode(t, srv, "u.md")
	r := callTool(t, srv, "complete_task", map[string]interface{}{
		"path":     "u.md",
		"node_id":  id,
		"checked":  "false",
		"checksum": checksum,
	})
	if r.IsError {
		t.Fatalf("complete_task error: %s", resultText(r))
	}
	raw, _ := svc.GetRaw(context.Background(), "u.md")
	if !strings.Contains(raw.Content, "- [ ] Was done") {
		t.Errorf("content = %q", raw.Content)
	}
}

func TestCompleteTask_StaleChecksum(t *testing.T) {
	srv, svc := testServer(t)
	seedDoc(t, svc, "c.md", "- [ ] Task\n")

	id, _ := firstNode(t, srv, "c.md")
	r := callTool(t, srv, "complete_task", map[string]interface{}{
		"path":     "c.md",
		"node_id":  id,
		"checksum": "stale",
	})
	if !r.IsError {
		t.Error("expected error for stale checksum")
	}
}

func TestAddLog(t *testing.T) {
	srv, svc := testServer(t)
	seedDoc(t, svc, "l.md", "- [ ] Task\n")

	id, checksum := firstNode(t, srv, "l.md")
	r := callTool(t, srv, "add_log", map[string]interface{}{
		"path":     "l.md",
		"node_id":  id,
		"text":     "made progress",
		"checksum": checksum,
	})
	if r.IsError {
		t.Fatalf("add_log error: %s", resultText(r))
	}
	raw, _ := svc.GetRaw(context.Background(), "l.md")
	if !strings.Contains(raw.Content, "made progress") {
		t.Errorf("content = %q", raw.Content)
	}
}

func TestAddReference(t *testing.T) {
	srv, svc := testServer(t)
	seedDoc(t, svc, "r.md", "- [ ] Target\n- [ ] Parent\n")

	r := callTool(t, srv, "read_outline", map[string]interface{}{"path": "r.md"})
	var view docservice.OutlineView
	if err := json.Unmarshal([]byte(resultText(r)), &view); err != nil {
		t.Fatal(err)
	}
	target := view.Sections[0].Nodes[0].ID
	parent := view.Sections[0].Nodes[1].ID

	res := callTool(t, srv, "add_reference", map[string]interface{}{
		"path":      "r.md",
		"parent_id": parent,
		"target_id": target,
		"checksum":  view.Checksum,
	})
	if res.IsError {
		t.Fatalf("add_reference error: %s", resultText(res))
	}
	raw, _ := svc.GetRaw(context.Background(), "r.md")
	if !strings.Contains(raw.Content, "#ref") || !strings.Contains(raw.Content, "<a id=") {
		t.Errorf("content = %q", raw.Content)
	}
}

func TestGetOutlineContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_outline_contract", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "## ") || !strings.Contains(text, "#ref") {
		t.Errorf("contract = %q", text)
	}
}
