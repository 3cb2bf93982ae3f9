package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerResources() {
	// ── whiteboard://sketches ──────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"whiteboard://sketches",
		"All Sketches",
		mcp.WithMIMEType("application/json"),
	), s.handleSketchesResource)

	// ── whiteboard://sketch/{sketchId}/elements ────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"whiteboard://sketch/{sketchId}/elements",
			"Elements on a Sketch",
		),
		s.handleSketchElementsResource,
	)
}

func (s *Server) handleSketchesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	sketches, err := s.sketches.ListSketches()
	if err != nil {
		return nil, err
	}

	type sketchSummary struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	var summaries []sketchSummary
	for _, sk := range sketches {
		summaries = append(summaries, sketchSummary{ID: sk.ID, Name: sk.Name})
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "whiteboard://sketches",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleSketchElementsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	sketchID := extractSketchIDFromURI(uri)
	if sketchID == "" {
		return nil, fmt.Errorf("could not extract sketchId from URI: %s", uri)
	}

	summaries, err := s.sketches.Projection(sketchID)
	if err != nil {
		return nil, err
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// extractSketchIDFromURI extracts the id from "whiteboard://sketch/{id}/elements"
func extractSketchIDFromURI(uri string) string {
	const prefix = "whiteboard://sketch/"
	const suffix = "/elements"
	if len(uri) > len(prefix)+len(suffix) {
		middle := uri[len(prefix):]
		if idx := indexOf(middle, '/'); idx > 0 {
			return middle[:idx]
		}
	}
	return ""
}

func indexOf(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}
