// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes taskdown outline tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/taskdown/taskdown/internal/docservice"
)

// Server wraps the MCP server with taskdown tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all taskdown tools registered.
func New(svc *docservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Taskdown",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List all outline documents in the vault with task counts."),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("read_outline",
		mcp.WithDescription("Read a document as a parsed outline: sections, tasks with derived "+
			"states (active/waiting/blocked/completed), node ids, and the revision checksum. "+
			"The node ids are required by every mutating tool and are only valid against "+
			"the returned checksum."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative document path (e.g. projects/home.md)")),
	), s.readOutline)

	s.mcp.AddTool(mcp.NewTool("search_tasks",
		mcp.WithDescription("Full-text search across task titles, tags, and work logs."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchTasks)

	s.mcp.AddTool(mcp.NewTool("add_task",
		mcp.WithDescription("Add a task to a document. Inline #tags in the text are extracted. "+
			"Give parent_id to add a child, section_id to target a named section; with "+
			"neither the task lands at the root of the first section."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Document path")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Task text, may contain inline #tags")),
		mcp.WithString("parent_id", mcp.Description("Optional parent node id")),
		mcp.WithString("section_id", mcp.Description("Optional section id")),
		mcp.WithString("checksum", mcp.Description("Revision checksum from read_outline")),
	), s.addTask)

	s.mcp.AddTool(mcp.NewTool("complete_task",
		mcp.WithDescription("Mark a task checked (or unchecked). Completion overrides every "+
			"other state and is mirrored to any reference nodes pointing at the task."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Document path")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node id from read_outline")),
		mcp.WithString("checked", mcp.Description("\"true\" or \"false\", defaults to true")),
		mcp.WithString("checksum", mcp.Description("Revision checksum from read_outline")),
	), s.completeTask)

	s.mcp.AddTool(mcp.NewTool("add_log",
		mcp.WithDescription("Append a timestamped work-log line to a task."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Document path")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node id from read_outline")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Log content")),
		mcp.WithString("checksum", mcp.Description("Revision checksum from read_outline")),
	), s.addLog)

	s.mcp.AddTool(mcp.NewTool("add_reference",
		mcp.WithDescription("Mirror a task under another parent. The target gets a stable "+
			"anchor and the parent gains a reference child that tracks the target's "+
			"title and checked state. References to references are rejected."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Document path")),
		mcp.WithString("parent_id", mcp.Required(), mcp.Description("Node id receiving the reference child")),
		mcp.WithString("target_id", mcp.Required(), mcp.Description("Node id being mirrored")),
		mcp.WithString("checksum", mcp.Description("Revision checksum from read_outline")),
	), s.addReference)

	s.mcp.AddTool(mcp.NewTool("get_outline_contract",
		mcp.WithDescription("Returns the canonical taskdown outline format contract. "+
			"Call this before creating or editing documents by content."),
	), s.getOutlineContract)

	// Resource: outline format contract.
	s.mcp.AddResource(
		mcp.NewResource("taskdown://outline-format", "Outline Format Contract",
			mcp.WithResourceDescription("Canonical outline document format that all documents follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readOutlineFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, _, err := s.svc.List(ctx, 500, 0, "", "path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var lines []string
	for _, d := range docs {
		lines = append(lines, fmt.Sprintf("%s (%d/%d done)", d.Path, d.Done, d.Tasks))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no documents"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readOutline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view, err := s.svc.Outline(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	out, _ := json.MarshalIndent(view, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) addTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	op := docservice.Op{Kind: docservice.OpAddTask, Text: text}
	if parent := optString(req, "parent_id"); parent != "" {
		op = docservice.Op{Kind: docservice.OpAddChild, ParentID: parent, Text: text}
	} else if section := optString(req, "section_id"); section != "" {
		op.SectionID = section
	}

	res, err := s.svc.Apply(ctx, path, op, optString(req, "checksum"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added node %s, revision %s", res.NodeID, res.Checksum)), nil
}

func (s *Server) completeTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	nodeID, err := req.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	checked := true
	if v := optString(req, "checked"); v != "" {
		if parsed, pErr := strconv.ParseBool(v); pErr == nil {
			checked = parsed
		}
	}

	op := docservice.Op{
		Kind:    docservice.OpSetChecked,
		NodeID:  nodeID,
		Checked: checked,
	}
	res, err := s.svc.Apply(ctx, path, op, optString(req, "checksum"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("ok, revision %s", res.Checksum)), nil
}

func (s *Server) addLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	nodeID, err := req.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	op := docservice.Op{Kind: docservice.OpAddLog, NodeID: nodeID, Text: text}
	res, err := s.svc.Apply(ctx, path, op, optString(req, "checksum"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("ok, revision %s", res.Checksum)), nil
}

func (s *Server) addReference(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	parentID, err := req.RequireString("parent_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	targetID, err := req.RequireString("target_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	op := docservice.Op{Kind: docservice.OpAddReference, ParentID: parentID, TargetID: targetID}
	res, err := s.svc.Apply(ctx, path, op, optString(req, "checksum"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added reference %s, revision %s", res.NodeID, res.Checksum)), nil
}

func (s *Server) getOutlineContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(OutlineFormatContract), nil
}

func (s *Server) readOutlineFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "taskdown://outline-format",
			MIMEType: "text/markdown",
			Text:     OutlineFormatContract,
		},
	}, nil
}

// optString returns the string argument for key, or "" when absent.
func optString(req mcp.CallToolRequest, key string) string {
	v, err := req.RequireString(key)
	if err != nil {
		return ""
	}
	return v
}
