package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"whiteboard/internal/domain"
	"whiteboard/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerElementTools() {
	s.mcp.AddTool(mcp.NewTool("list_elements",
		mcp.WithDescription("List all elements on a sketch with their IDs, kinds, positions, and connector endpoints"),
		mcp.WithString("sketchId", mcp.Description("Sketch ID (optional, defaults to active sketch)")),
	), s.handleListElements)

	s.mcp.AddTool(mcp.NewTool("add_element",
		mcp.WithDescription("Add a box or label to a sketch. Omit x/y to auto-place it in free space."),
		mcp.WithString("sketchId", mcp.Description("Sketch ID (optional, defaults to active sketch)")),
		mcp.WithString("kind", mcp.Description("Element kind: box or label"), mcp.Required()),
		mcp.WithString("label", mcp.Description("Text shown on the element (optional)")),
		mcp.WithNumber("x", mcp.Description("X position (optional, auto-placed when omitted)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional)")),
		mcp.WithNumber("width", mcp.Description("Width (optional, defaults apply)")),
		mcp.WithNumber("height", mcp.Description("Height (optional)")),
		mcp.WithString("strokeColor", mcp.Description("Stroke color hex (optional, e.g. #3b82f6)")),
		mcp.WithString("backgroundColor", mcp.Description("Fill color hex (optional)")),
	), s.handleAddElement)

	s.mcp.AddTool(mcp.NewTool("batch_add_elements",
		mcp.WithDescription("Add multiple elements at once. Pass a JSON array of element objects (each with kind and optional label, x, y, width, height, strokeColor, backgroundColor, autoPlace)."),
		mcp.WithString("sketchId", mcp.Description("Sketch ID (optional, defaults to active sketch)")),
		mcp.WithString("elements", mcp.Description("JSON array of element objects [{kind, label?, x?, y?, width?, height?, strokeColor?, backgroundColor?, autoPlace?}, ...]"), mcp.Required()),
	), s.handleBatchAddElements)

	s.mcp.AddTool(mcp.NewTool("add_relative_element",
		mcp.WithDescription("Add a box placed relative to an existing one (right-of, below, top-left, ...)"),
		mcp.WithString("sketchId", mcp.Description("Sketch ID (optional, defaults to active sketch)")),
		mcp.WithString("anchorId", mcp.Description("ID of the element to place next to"), mcp.Required()),
		mcp.WithString("direction", mcp.Description("Compass direction: right, left, above, below, top-left, top-right, bottom-left, bottom-right"), mcp.Required()),
		mcp.WithNumber("spacing", mcp.Description("Gap in pixels between the anchor and the new element (optional)")),
		mcp.WithString("kind", mcp.Description("Element kind: box or label"), mcp.Required()),
		mcp.WithString("label", mcp.Description("Text shown on the element (optional)")),
		mcp.WithNumber("width", mcp.Description("Width (optional)")),
		mcp.WithNumber("height", mcp.Description("Height (optional)")),
	), s.handleAddRelativeElement)

	s.mcp.AddTool(mcp.NewTool("connect_elements",
		mcp.WithDescription("Draw a connector between two boxes. Endpoints bind to the boxes and the line is routed orthogonally around obstacles."),
		mcp.WithString("sketchId", mcp.Description("Sketch ID (optional, defaults to active sketch)")),
		mcp.WithString("fromId", mcp.Description("Source box ID"), mcp.Required()),
		mcp.WithString("toId", mcp.Description("Target box ID"), mcp.Required()),
		mcp.WithString("label", mcp.Description("Connector label text (optional)")),
	), s.handleConnectElements)

	s.mcp.AddTool(mcp.NewTool("update_element",
		mcp.WithDescription("Update an element's label or colors"),
		mcp.WithString("sketchId", mcp.Description("Sketch ID (optional, defaults to active sketch)")),
		mcp.WithString("elementId", mcp.Description("Element ID to update"), mcp.Required()),
		mcp.WithString("label", mcp.Description("New label text (optional)")),
		mcp.WithString("strokeColor", mcp.Description("New stroke color hex (optional)")),
		mcp.WithString("backgroundColor", mcp.Description("New fill color hex (optional)")),
	), s.handleUpdateElement)

	s.mcp.AddTool(mcp.NewTool("move_element",
		mcp.WithDescription("Move an element to new coordinates. Connectors bound to a moved box re-snap automatically."),
		mcp.WithString("sketchId", mcp.Description("Sketch ID (optional, defaults to active sketch)")),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New X position"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New Y position"), mcp.Required()),
	), s.handleMoveElement)

	s.mcp.AddTool(mcp.NewTool("resize_element",
		mcp.WithDescription("Resize an element. Connectors bound to a resized box re-snap automatically."),
		mcp.WithString("sketchId", mcp.Description("Sketch ID (optional, defaults to active sketch)")),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("New width"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("New height"), mcp.Required()),
	), s.handleResizeElement)

	s.mcp.AddTool(mcp.NewTool("delete_element",
		mcp.WithDescription("🛑 DESTRUCTIVE: Remove an element by ID. Requires user approval."),
		mcp.WithString("sketchId", mcp.Description("Sketch ID (optional, defaults to active sketch)")),
		mcp.WithString("elementId", mcp.Description("Element ID to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteElement)

	s.mcp.AddTool(mcp.NewTool("batch_delete_elements",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete multiple elements at once with a single approval. Requires user approval."),
		mcp.WithString("sketchId", mcp.Description("Sketch ID (optional, defaults to active sketch)")),
		mcp.WithString("elementIds", mcp.Description("Comma-separated element IDs to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleBatchDeleteElements)

	s.mcp.AddTool(mcp.NewTool("clear_sketch",
		mcp.WithDescription("🛑 DESTRUCTIVE: Remove every element from a sketch. Requires user approval."),
		mcp.WithString("sketchId", mcp.Description("Sketch ID (optional, defaults to active sketch)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleClearSketch)
}

// elementInputFromArgs builds the service input from tool args. When no
// position was given the element is auto-placed.
func elementInputFromArgs(args map[string]any) service.AddElementInput {
	in := service.AddElementInput{}
	in.Kind, _ = args["kind"].(string)
	in.Label, _ = args["label"].(string)
	in.StrokeColor, _ = args["strokeColor"].(string)
	in.BackgroundColor, _ = args["backgroundColor"].(string)
	if w, ok := args["width"].(float64); ok {
		in.Width = w
	}
	if h, ok := args["height"].(float64); ok {
		in.Height = h
	}
	x, hasX := args["x"].(float64)
	y, hasY := args["y"].(float64)
	if hasX || hasY {
		in.X, in.Y = x, y
	} else {
		in.AutoPlace = true
	}
	return in
}

// ── Handlers ────────────────────────────────────────────────

func (s *Server) handleListElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sketchID, err := s.resolveSketchID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	summaries, err := s.sketches.Projection(sketchID)
	if err != nil {
		return nil, fmt.Errorf("list elements: %w", err)
	}

	type bounds struct {
		MinX float64 `json:"minX"`
		MinY float64 `json:"minY"`
		MaxX float64 `json:"maxX"`
		MaxY float64 `json:"maxY"`
	}
	out := struct {
		Elements []domain.ElementSummary `json:"elements"`
		Bounds   *bounds                 `json:"bounds,omitempty"`
	}{Elements: summaries}

	for i, e := range summaries {
		if i == 0 {
			out.Bounds = &bounds{MinX: e.X, MinY: e.Y, MaxX: e.X + e.Width, MaxY: e.Y + e.Height}
			continue
		}
		b := out.Bounds
		if e.X < b.MinX {
			b.MinX = e.X
		}
		if e.Y < b.MinY {
			b.MinY = e.Y
		}
		if e.X+e.Width > b.MaxX {
			b.MaxX = e.X + e.Width
		}
		if e.Y+e.Height > b.MaxY {
			b.MaxY = e.Y + e.Height
		}
	}
	return jsonResult(out)
}

func (s *Server) handleAddElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sketchID, err := s.resolveSketchID(args)
	if err != nil {
		return nil, err
	}
	in := elementInputFromArgs(args)
	if in.Kind == "" {
		return nil, fmt.Errorf("kind is required")
	}
	e, err := s.sketches.AddElement(ctx, sketchID, in)
	if err != nil {
		return nil, fmt.Errorf("add element: %w", err)
	}
	return jsonResult(e)
}

func (s *Server) handleBatchAddElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sketchID, err := s.resolveSketchID(args)
	if err != nil {
		return nil, err
	}
	raw, _ := args["elements"].(string)
	if raw == "" {
		return nil, fmt.Errorf("elements is required")
	}
	var inputs []service.AddElementInput
	if err := parseJSON(raw, &inputs); err != nil {
		return nil, fmt.Errorf("parse elements: %w", err)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("elements array is empty")
	}
	for i := range inputs {
		if inputs[i].Kind == "" {
			return nil, fmt.Errorf("element %d: kind is required", i)
		}
		// Unpositioned batch entries get auto-placed
		if inputs[i].X == 0 && inputs[i].Y == 0 && !inputs[i].AutoPlace {
			inputs[i].AutoPlace = true
		}
	}
	created, err := s.sketches.AddElements(ctx, sketchID, inputs)
	if err != nil {
		return nil, fmt.Errorf("batch add: %w", err)
	}
	return jsonResult(created)
}

func (s *Server) handleAddRelativeElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sketchID, err := s.resolveSketchID(args)
	if err != nil {
		return nil, err
	}
	anchorID, _ := args["anchorId"].(string)
	direction, _ := args["direction"].(string)
	if anchorID == "" || direction == "" {
		return nil, fmt.Errorf("anchorId and direction are required")
	}
	spacing, _ := args["spacing"].(float64)

	in := elementInputFromArgs(args)
	in.AutoPlace = false
	if in.Kind == "" {
		return nil, fmt.Errorf("kind is required")
	}
	e, err := s.sketches.AddRelativeElement(ctx, sketchID, anchorID, strings.ToLower(direction), spacing, in)
	if err != nil {
		return nil, fmt.Errorf("add relative element: %w", err)
	}
	return jsonResult(e)
}

func (s *Server) handleConnectElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sketchID, err := s.resolveSketchID(args)
	if err != nil {
		return nil, err
	}
	fromID, _ := args["fromId"].(string)
	toID, _ := args["toId"].(string)
	if fromID == "" || toID == "" {
		return nil, fmt.Errorf("fromId and toId are required")
	}
	label, _ := args["label"].(string)

	conn, err := s.sketches.ConnectElements(ctx, sketchID, fromID, toID, label)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return jsonResult(conn)
}

func (s *Server) handleUpdateElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sketchID, err := s.resolveSketchID(args)
	if err != nil {
		return nil, err
	}
	elementID, _ := args["elementId"].(string)
	if elementID == "" {
		return nil, fmt.Errorf("elementId is required")
	}

	var in service.UpdateElementInput
	if v, ok := args["label"].(string); ok {
		in.Label = &v
	}
	if v, ok := args["strokeColor"].(string); ok {
		in.StrokeColor = &v
	}
	if v, ok := args["backgroundColor"].(string); ok {
		in.BackgroundColor = &v
	}
	if in.Label == nil && in.StrokeColor == nil && in.BackgroundColor == nil {
		return nil, fmt.Errorf("nothing to update: pass label, strokeColor, or backgroundColor")
	}

	if err := s.sketches.UpdateElement(ctx, sketchID, elementID, in); err != nil {
		return nil, fmt.Errorf("update element: %w", err)
	}
	return textResult(fmt.Sprintf("Element %s updated", elementID)), nil
}

func (s *Server) handleMoveElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sketchID, err := s.resolveSketchID(args)
	if err != nil {
		return nil, err
	}
	elementID, _ := args["elementId"].(string)
	if elementID == "" {
		return nil, fmt.Errorf("elementId is required")
	}
	x, _ := args["x"].(float64)
	y, _ := args["y"].(float64)

	if err := s.sketches.MoveElement(ctx, sketchID, elementID, x, y); err != nil {
		return nil, fmt.Errorf("move element: %w", err)
	}
	return textResult(fmt.Sprintf("Element %s moved to (%.0f, %.0f)", elementID, x, y)), nil
}

func (s *Server) handleResizeElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sketchID, err := s.resolveSketchID(args)
	if err != nil {
		return nil, err
	}
	elementID, _ := args["elementId"].(string)
	if elementID == "" {
		return nil, fmt.Errorf("elementId is required")
	}
	width, _ := args["width"].(float64)
	height, _ := args["height"].(float64)

	if err := s.sketches.ResizeElement(ctx, sketchID, elementID, width, height); err != nil {
		return nil, fmt.Errorf("resize element: %w", err)
	}
	return textResult(fmt.Sprintf("Element %s resized to %.0fx%.0f", elementID, width, height)), nil
}

func (s *Server) handleDeleteElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sketchID, err := s.resolveSketchID(args)
	if err != nil {
		return nil, err
	}
	elementID, _ := args["elementId"].(string)
	if elementID == "" {
		return nil, fmt.Errorf("elementId is required")
	}

	approved, err := s.approval.Request("delete_element", fmt.Sprintf("Delete element %s from the sketch", elementID))
	if err != nil || !approved {
		return textResult("Action rejected by user"), nil
	}

	if err := s.sketches.DeleteElement(ctx, sketchID, elementID); err != nil {
		return nil, fmt.Errorf("delete element: %w", err)
	}
	return textResult(fmt.Sprintf("Element %s deleted", elementID)), nil
}

func (s *Server) handleBatchDeleteElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sketchID, err := s.resolveSketchID(args)
	if err != nil {
		return nil, err
	}
	raw, _ := args["elementIds"].(string)
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("elementIds is required")
	}

	approved, err := s.approval.Request("batch_delete_elements", fmt.Sprintf("Delete %d elements from the sketch", len(ids)))
	if err != nil || !approved {
		return textResult("Action rejected by user"), nil
	}

	deleted := 0
	for _, id := range ids {
		if err := s.sketches.DeleteElement(ctx, sketchID, id); err == nil {
			deleted++
		}
	}
	return textResult(fmt.Sprintf("Deleted %d of %d elements", deleted, len(ids))), nil
}

func (s *Server) handleClearSketch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sketchID, err := s.resolveSketchID(args)
	if err != nil {
		return nil, err
	}

	approved, err := s.approval.Request("clear_sketch", "Remove every element from the sketch")
	if err != nil || !approved {
		return textResult("Action rejected by user"), nil
	}

	if err := s.sketches.ClearSketch(ctx, sketchID); err != nil {
		return nil, fmt.Errorf("clear sketch: %w", err)
	}
	return textResult("Sketch cleared"), nil
}
