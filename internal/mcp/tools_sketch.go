package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSketchTools() {
	// ── list_sketches ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_sketches",
		mcp.WithDescription("List all sketches with their IDs and names"),
	), s.handleListSketches)

	// ── create_sketch ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_sketch",
		mcp.WithDescription("Create a new sketch and make it the active one"),
		mcp.WithString("name",
			mcp.Description("Name of the new sketch"),
			mcp.Required(),
		),
	), s.handleCreateSketch)

	// ── rename_sketch ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("rename_sketch",
		mcp.WithDescription("Rename a sketch"),
		mcp.WithString("sketchId", mcp.Description("Sketch ID"), mcp.Required()),
		mcp.WithString("name", mcp.Description("New name"), mcp.Required()),
	), s.handleRenameSketch)

	// ── set_active_sketch ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_active_sketch",
		mcp.WithDescription("Set the active sketch for subsequent tool calls. Tools that accept sketchId will default to this."),
		mcp.WithString("sketchId",
			mcp.Description("ID of the sketch to make active"),
			mcp.Required(),
		),
	), s.handleSetActiveSketch)

	// ── delete_sketch ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_sketch",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a sketch and all its elements. Requires user approval."),
		mcp.WithString("sketchId", mcp.Description("Sketch ID to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteSketch)
}

func (s *Server) handleListSketches(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sketches, err := s.sketches.ListSketches()
	if err != nil {
		return nil, fmt.Errorf("list sketches: %w", err)
	}
	return jsonResult(sketches)
}

func (s *Server) handleCreateSketch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	sk, err := s.sketches.CreateSketch(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create sketch: %w", err)
	}
	// Auto-set as active sketch
	s.activeSketchID = sk.ID
	return jsonResult(sk)
}

func (s *Server) handleRenameSketch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sketchID := req.GetString("sketchId", "")
	name := req.GetString("name", "")
	if sketchID == "" || name == "" {
		return nil, fmt.Errorf("sketchId and name are required")
	}
	if err := s.sketches.RenameSketch(sketchID, name); err != nil {
		return nil, fmt.Errorf("rename sketch: %w", err)
	}
	return textResult(fmt.Sprintf("Sketch %s renamed to %q", sketchID, name)), nil
}

func (s *Server) handleSetActiveSketch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sketchID := req.GetString("sketchId", "")
	if sketchID == "" {
		return nil, fmt.Errorf("sketchId is required")
	}
	if _, err := s.sketches.GetSketch(sketchID); err != nil {
		return nil, fmt.Errorf("sketch not found: %s", sketchID)
	}
	s.activeSketchID = sketchID
	return textResult(fmt.Sprintf("Active sketch set to %s", sketchID)), nil
}

func (s *Server) handleDeleteSketch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sketchID := req.GetString("sketchId", "")
	if sketchID == "" {
		return nil, fmt.Errorf("sketchId is required")
	}
	sk, err := s.sketches.GetSketch(sketchID)
	if err != nil {
		return nil, fmt.Errorf("sketch not found: %s", sketchID)
	}

	approved, err := s.approval.Request("delete_sketch", fmt.Sprintf("Delete sketch %q and everything on it", sk.Name))
	if err != nil || !approved {
		return textResult("Action rejected by user"), nil
	}

	if err := s.sketches.DeleteSketch(ctx, sketchID); err != nil {
		return nil, fmt.Errorf("delete sketch: %w", err)
	}
	if s.activeSketchID == sketchID {
		s.activeSketchID = ""
	}
	return textResult(fmt.Sprintf("Sketch %s deleted", sketchID)), nil
}
