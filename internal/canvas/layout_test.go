package canvas

import (
	"testing"

	"whiteboard/internal/domain"
)

func TestNextPosition_EmptyCanvasStartsAtOrigin(t *testing.T) {
	le := NewLayoutEngine()
	x, y := le.NextPosition(NewCollection(nil), 200, 100)
	if x != 0 || y != 0 {
		t.Errorf("expected origin, got (%v, %v)", x, y)
	}
}

func TestNextPosition_AvoidsOccupiedSpace(t *testing.T) {
	le := NewLayoutEngine()
	c := NewCollection([]domain.Element{box("a", 0, 0, 200, 100)})

	x, y := le.NextPosition(c, 200, 100)
	candidate := rect{x, y, 200, 100}
	padded := rect{0 - Padding, 0 - Padding, 200 + Padding*2, 100 + Padding*2}
	if candidate.intersects(padded) {
		t.Errorf("placement (%v, %v) overlaps padded occupied space", x, y)
	}
	// Snapped to the grid.
	if le.snap(x) != x || le.snap(y) != y {
		t.Errorf("placement (%v, %v) not grid aligned", x, y)
	}
}

func TestNextPosition_IgnoresConnectors(t *testing.T) {
	le := NewLayoutEngine()
	c := NewCollection([]domain.Element{connector("c1", 0, 0, 400, 400)})
	x, y := le.NextPosition(c, 200, 100)
	if x != 0 || y != 0 {
		t.Errorf("connectors should not occupy layout space, got (%v, %v)", x, y)
	}
}

func TestArrangeGrid_WrapsRows(t *testing.T) {
	le := NewLayoutEngine()
	elements := make([]domain.Element, 12)
	for i := range elements {
		elements[i] = box("", 0, 0, 300, 100)
	}

	out := le.ArrangeGrid(elements, 0, 0)

	if out[0].X != 0 || out[0].Y != 0 {
		t.Errorf("first element not at start: (%v, %v)", out[0].X, out[0].Y)
	}
	// Every element stays within the row width and rows actually wrap.
	wrapped := false
	for i, e := range out {
		if e.X+e.Width > MaxRowW {
			t.Errorf("element %d spills past max row width: x=%v", i, e.X)
		}
		if e.Y > 0 {
			wrapped = true
		}
	}
	if !wrapped {
		t.Error("12 wide boxes never wrapped to a second row")
	}
	// Later rows sit below earlier ones.
	for i := 1; i < len(out); i++ {
		if out[i].Y < out[i-1].Y {
			t.Errorf("element %d moved up: y=%v after y=%v", i, out[i].Y, out[i-1].Y)
		}
	}
}

// Anchor at (100, 100) sized 200x150, direction "right", spacing 50: the new
// element lands at (350, 100) with its top aligned to the anchor's.
func TestRelativePosition_Right(t *testing.T) {
	anchor := box("a", 100, 100, 200, 150)
	x, y, ok := RelativePosition(anchor, "right", 50, 200, 100)
	if !ok {
		t.Fatal("direction not recognized")
	}
	if x != 350 || y != 100 {
		t.Errorf("expected (350, 100), got (%v, %v)", x, y)
	}
}

func TestRelativePosition_AllDirections(t *testing.T) {
	anchor := box("a", 100, 100, 200, 150)
	const spacing, w, h = 50.0, 80.0, 40.0

	tests := []struct {
		direction string
		x, y      float64
	}{
		{"right", 350, 100},
		{"left", -30, 100}, // 100 - 50 - 80
		{"below", 100, 300},
		{"bottom", 100, 300},
		{"above", 100, 10}, // 100 - 50 - 40
		{"top", 100, 10},
		{"top-right", 350, 10},
		{"top-left", -30, 10},
		{"bottom-right", 350, 300},
		{"bottom-left", -30, 300},
	}
	for _, tt := range tests {
		x, y, ok := RelativePosition(anchor, tt.direction, spacing, w, h)
		if !ok {
			t.Errorf("%s: not recognized", tt.direction)
			continue
		}
		if x != tt.x || y != tt.y {
			t.Errorf("%s: expected (%v, %v), got (%v, %v)", tt.direction, tt.x, tt.y, x, y)
		}
	}
}

func TestRelativePosition_UnknownDirection(t *testing.T) {
	if _, _, ok := RelativePosition(box("a", 0, 0, 10, 10), "sideways", 10, 10, 10); ok {
		t.Error("unknown direction should not resolve")
	}
}
