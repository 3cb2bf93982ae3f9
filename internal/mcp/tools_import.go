package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerImportTools() {
	s.mcp.AddTool(mcp.NewTool("list_db_connections",
		mcp.WithDescription("List saved external database connections available for schema import"),
	), s.handleListDBConnections)

	s.mcp.AddTool(mcp.NewTool("test_db_connection",
		mcp.WithDescription("Test that a saved database connection is reachable"),
		mcp.WithString("connectionId", mcp.Description("Connection ID"), mcp.Required()),
	), s.handleTestDBConnection)

	s.mcp.AddTool(mcp.NewTool("import_schema",
		mcp.WithDescription("Introspect an external database and draw its schema on a sketch: one box per table, one connector per foreign key"),
		mcp.WithString("sketchId", mcp.Description("Sketch ID (optional, defaults to active sketch)")),
		mcp.WithString("connectionId", mcp.Description("Saved connection ID"), mcp.Required()),
	), s.handleImportSchema)
}

func (s *Server) handleListDBConnections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conns, err := s.database.ListConnections()
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	return jsonResult(conns)
}

func (s *Server) handleTestDBConnection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	connectionID := req.GetString("connectionId", "")
	if connectionID == "" {
		return nil, fmt.Errorf("connectionId is required")
	}
	if err := s.database.TestConnection(ctx, connectionID); err != nil {
		return textResult(fmt.Sprintf("Connection failed: %v", err)), nil
	}
	return textResult("Connection OK"), nil
}

func (s *Server) handleImportSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sketchID, err := s.resolveSketchID(args)
	if err != nil {
		return nil, err
	}
	connectionID, _ := args["connectionId"].(string)
	if connectionID == "" {
		return nil, fmt.Errorf("connectionId is required")
	}

	count, err := s.importer.ImportSchema(ctx, sketchID, connectionID)
	if err != nil {
		return nil, fmt.Errorf("import schema: %w", err)
	}
	if count == 0 {
		return textResult("Schema is empty, nothing to draw"), nil
	}
	return textResult(fmt.Sprintf("Imported %d elements onto sketch %s", count, sketchID)), nil
}
