package domain

import "time"

// Sketch is one whiteboard: a named canvas with viewport state and a
// serialized element collection.
type Sketch struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ViewportX    float64   `json:"viewportX"`
	ViewportY    float64   `json:"viewportY"`
	ViewportZoom float64   `json:"viewportZoom"`
	Elements     string    `json:"elements"` // JSON array of Element
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ElementSummary is the read-only projection of one element handed to the
// agent layer: enough to reason about the diagram, nothing it can corrupt.
type ElementSummary struct {
	ID     string      `json:"id"`
	Kind   ElementKind `json:"kind"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Label  string      `json:"label,omitempty"`
	Start  string      `json:"startTargetId,omitempty"`
	End    string      `json:"endTargetId,omitempty"`
}
