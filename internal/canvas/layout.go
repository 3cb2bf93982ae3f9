package canvas

import (
	"math"

	"whiteboard/internal/domain"
)

const (
	GridSize = 20.0 // matches the frontend snap grid
	Padding  = 60.0 // breathing room between auto-placed boxes
	MaxRowW  = 1800.0
)

// LayoutEngine handles automatic placement of elements on the canvas so
// agent-created and imported boxes don't overlap existing ones.
type LayoutEngine struct {
	gridSize float64
	padding  float64
	maxRowW  float64
}

func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{
		gridSize: GridSize,
		padding:  Padding,
		maxRowW:  MaxRowW,
	}
}

// snap rounds v to the nearest grid point.
func (le *LayoutEngine) snap(v float64) float64 {
	return math.Round(v/le.gridSize) * le.gridSize
}

type rect struct {
	x, y, w, h float64
}

func (a rect) intersects(b rect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x &&
		a.y < b.y+b.h && a.y+a.h > b.y
}

// NextPosition finds the next non-overlapping grid position for an element
// of size (newW, newH) given the existing elements in the collection.
// Connectors and free lines don't occupy layout space.
func (le *LayoutEngine) NextPosition(c Collection, newW, newH float64) (float64, float64) {
	var occupied []rect
	for _, e := range c.Elements() {
		if e.Kind == domain.KindConnector || e.Kind == domain.KindFreeLine || e.Deleted {
			continue
		}
		occupied = append(occupied, rect{e.X, e.Y, e.Width, e.Height})
	}
	if len(occupied) == 0 {
		return 0, 0
	}

	candidate := rect{w: newW, h: newH}
	for y := 0.0; y < 100000; y += le.gridSize {
		for x := 0.0; x < le.maxRowW; x += le.gridSize {
			candidate.x = le.snap(x)
			candidate.y = le.snap(y)

			overlaps := false
			for _, occ := range occupied {
				padded := rect{
					x: occ.x - le.padding,
					y: occ.y - le.padding,
					w: occ.w + le.padding*2,
					h: occ.h + le.padding*2,
				}
				if candidate.intersects(padded) {
					overlaps = true
					break
				}
			}
			if !overlaps {
				return candidate.x, candidate.y
			}
		}
	}

	// Fallback: place below everything.
	maxY := 0.0
	for _, occ := range occupied {
		if occ.y+occ.h > maxY {
			maxY = occ.y + occ.h
		}
	}
	return 0, le.snap(maxY + le.padding)
}

// ArrangeGrid places elements in rows starting from (startX, startY),
// wrapping when a row exceeds the maximum width. Positions are modified
// in place and the slice is returned for chaining.
func (le *LayoutEngine) ArrangeGrid(elements []domain.Element, startX, startY float64) []domain.Element {
	x := le.snap(startX)
	y := le.snap(startY)
	rowHeight := 0.0

	for i := range elements {
		elements[i].X = x
		elements[i].Y = y

		if elements[i].Height > rowHeight {
			rowHeight = elements[i].Height
		}

		x += le.snap(elements[i].Width + le.padding)

		if x+elements[i].Width > le.maxRowW {
			x = le.snap(startX)
			y += le.snap(rowHeight + le.padding)
			rowHeight = 0
		}
	}

	return elements
}

// RelativePosition computes the position of a new (w, h) element placed in
// one of eight compass directions from an anchor box, separated by spacing.
// Horizontal directions align tops; vertical directions align lefts;
// diagonals combine both edge rules.
func RelativePosition(anchor domain.Element, direction string, spacing, w, h float64) (float64, float64, bool) {
	right := anchor.X + anchor.Width + spacing
	left := anchor.X - spacing - w
	below := anchor.Y + anchor.Height + spacing
	above := anchor.Y - spacing - h

	switch direction {
	case "right":
		return right, anchor.Y, true
	case "left":
		return left, anchor.Y, true
	case "top", "above":
		return anchor.X, above, true
	case "bottom", "below":
		return anchor.X, below, true
	case "top-right":
		return right, above, true
	case "top-left":
		return left, above, true
	case "bottom-right":
		return right, below, true
	case "bottom-left":
		return left, below, true
	}
	return 0, 0, false
}
