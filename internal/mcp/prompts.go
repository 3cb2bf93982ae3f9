package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("system_diagram",
		mcp.WithPromptDescription("Create a system architecture diagram from boxes and connectors"),
		mcp.WithArgument("systemName",
			mcp.ArgumentDescription("Name of the system to diagram"),
			mcp.RequiredArgument(),
		),
	), s.handleSystemDiagramPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("schema_overview",
		mcp.WithPromptDescription("Import a database schema and annotate the resulting diagram"),
		mcp.WithArgument("connectionId",
			mcp.ArgumentDescription("Saved database connection to import"),
			mcp.RequiredArgument(),
		),
	), s.handleSchemaOverviewPrompt)
}

func (s *Server) handleSystemDiagramPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	systemName := req.Params.Arguments["systemName"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Create a system diagram for: %s", systemName),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Create a system architecture diagram for "%s" on the active sketch. Follow these steps:

1. Identify the main components of the system
2. Use batch_add_elements to create a labeled box for each component (omit x/y so they auto-place without overlapping)
3. Use connect_elements to link related components; put the relationship on the connector label (e.g. "calls", "reads", "publishes")
4. Use add_relative_element when a component belongs visually next to another one (e.g. a cache to the right of its service)
5. Check the result with list_elements and move_element anything that reads poorly

Use consistent colors: #3b82f6 for primary components, #10b981 for databases, #f59e0b for external services.`, systemName),
				},
			},
		},
	}, nil
}

func (s *Server) handleSchemaOverviewPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	connectionID := req.Params.Arguments["connectionId"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Import and annotate schema from connection %s", connectionID),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Import the database schema from connection "%s" and turn it into an annotated overview. Follow these steps:

1. Run test_db_connection first to make sure the database is reachable
2. Run import_schema to draw one box per table and one connector per foreign key
3. Use list_elements to see what was imported
4. Add a label element above the diagram naming the database
5. Recolor the most central tables (most foreign keys pointing at them) with update_element so they stand out

Do not delete or move the imported boxes unless two of them overlap.`, connectionID),
				},
			},
		},
	}, nil
}
