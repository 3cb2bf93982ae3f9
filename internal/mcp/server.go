package mcpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"whiteboard/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server is the MCP server for the whiteboard app.
// It exposes tools, resources, and prompts so AI agents can draw on sketches.
type Server struct {
	mcp      *server.MCPServer
	emitter  EventEmitter
	approval *ApprovalQueue

	// Services (injected from app layer)
	sketches *service.SketchService
	database *service.DatabaseService
	importer *service.ImportService
	settings *service.SettingsService

	// Active sketch context (set by set_active_sketch tool)
	activeSketchID string
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Emitter    EventEmitter
	Sketches   *service.SketchService
	Database   *service.DatabaseService
	Importer   *service.ImportService
	Settings   *service.SettingsService
	ApprovalDB *sql.DB // When set, use SQLite-based approval (standalone mode)
}

// New creates and configures a new MCP server with all tools and resources.
func New(ctx context.Context, deps Deps) *Server {
	approval := NewApprovalQueue(ctx, deps.Emitter)
	if deps.ApprovalDB != nil {
		approval.SetDB(deps.ApprovalDB)
	}
	s := &Server{
		emitter:  deps.Emitter,
		approval: approval,
		sketches: deps.Sketches,
		database: deps.Database,
		importer: deps.Importer,
		settings: deps.Settings,
	}

	s.mcp = server.NewMCPServer(
		"whiteboard-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerSketchTools()
	s.registerElementTools()
	s.registerImportTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// Approve forwards a user approval to the approval queue.
func (s *Server) Approve(actionID string) {
	s.approval.Approve(actionID)
}

// Reject forwards a user rejection to the approval queue.
func (s *Server) Reject(actionID string) {
	s.approval.Reject(actionID)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// resolveSketchID returns the sketchId from tool args, falling back to the
// active sketch set in this session, then to the one the desktop app has
// open.
func (s *Server) resolveSketchID(args map[string]any) (string, error) {
	if id, ok := args["sketchId"].(string); ok && id != "" {
		return id, nil
	}
	if s.activeSketchID != "" {
		return s.activeSketchID, nil
	}
	if s.settings != nil {
		if id := s.settings.ActiveSketch(); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("no sketchId provided and no active sketch set (use set_active_sketch first)")
}
