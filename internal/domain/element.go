package domain

// ElementKind identifies what a canvas element is.
type ElementKind string

const (
	KindBox       ElementKind = "box"
	KindConnector ElementKind = "connector"
	KindLabel     ElementKind = "label"
	KindFreeLine  ElementKind = "freeline"
)

// Default geometry applied when the surface or an agent omits dimensions.
const (
	DefaultWidth  = 200.0
	DefaultHeight = 100.0
)

// Point is an offset relative to an element's (x, y) origin.
// Connectors and free lines carry at least two.
type Point struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// Binding attaches one connector endpoint to a box. Focus describes where
// along the attachment edge the connector meets the box, as a fraction of
// the edge in [-0.5, 0.5], so the attachment tracks the box through moves
// and resizes without recomputation from raw coordinates.
type Binding struct {
	TargetID string  `json:"targetId"`
	Focus    float64 `json:"focus"`
	Gap      float64 `json:"gap"`
}

// Element is one item on the canvas: a box, connector, label, or free line.
type Element struct {
	ID     string      `json:"id"`
	Kind   ElementKind `json:"kind"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Angle  float64     `json:"angle,omitempty"`

	Points []Point `json:"points,omitempty"`

	// Connector endpoint bindings.
	Start *Binding `json:"start,omitempty"`
	End   *Binding `json:"end,omitempty"`

	// BoundBy lists connector ids that reference this element as a binding
	// target. It is a non-owning back-reference: it never keeps a deleted
	// element alive and is pruned explicitly on delete/unbind.
	BoundBy []string `json:"boundBy,omitempty"`

	GroupID string `json:"groupId,omitempty"`
	Label   string `json:"label,omitempty"`

	StrokeColor     string `json:"strokeColor,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`

	// Version increases on every mutation of this element; never resets.
	Version int `json:"version"`

	// Deleted marks a tombstone retained transiently for back-reference
	// cleanup before the element is purged from the collection.
	Deleted bool `json:"isDeleted,omitempty"`
}

// CenterX returns the x coordinate of the element's bounding-box center.
func (e *Element) CenterX() float64 { return e.X + e.Width/2 }

// CenterY returns the y coordinate of the element's bounding-box center.
func (e *Element) CenterY() float64 { return e.Y + e.Height/2 }

// Contains reports whether the world point (px, py) falls within the
// element's axis-aligned bounds, inclusive.
func (e *Element) Contains(px, py float64) bool {
	return px >= e.X && px <= e.X+e.Width && py >= e.Y && py <= e.Y+e.Height
}

// Clone returns a deep copy; slices and binding pointers are not shared.
func (e Element) Clone() Element {
	if e.Points != nil {
		pts := make([]Point, len(e.Points))
		copy(pts, e.Points)
		e.Points = pts
	}
	if e.BoundBy != nil {
		refs := make([]string, len(e.BoundBy))
		copy(refs, e.BoundBy)
		e.BoundBy = refs
	}
	if e.Start != nil {
		s := *e.Start
		e.Start = &s
	}
	if e.End != nil {
		end := *e.End
		e.End = &end
	}
	return e
}

// Normalize repairs a malformed element in place rather than dropping it:
// missing dimensions get defaults, connectors and free lines get a minimal
// two-point path, and unknown kinds become boxes.
func (e *Element) Normalize() {
	switch e.Kind {
	case KindBox, KindConnector, KindLabel, KindFreeLine:
	default:
		e.Kind = KindBox
	}
	if e.Kind == KindConnector || e.Kind == KindFreeLine {
		if len(e.Points) < 2 {
			e.Points = []Point{{0, 0}, {e.Width, e.Height}}
		}
		return
	}
	if e.Width <= 0 {
		e.Width = DefaultWidth
	}
	if e.Height <= 0 {
		e.Height = DefaultHeight
	}
}

// IsBindable reports whether the element can anchor connector endpoints.
func (e *Element) IsBindable() bool {
	return e.Kind == KindBox && !e.Deleted
}
