package canvas

import (
	"math"

	"whiteboard/internal/domain"
)

// DefaultBindingGap is the visual gap left between a connector endpoint and
// the box edge it is bound to.
const DefaultBindingGap = 4.0

// BindingEngine attaches connector endpoints to boxes: nearest-shape lookup,
// shortest attachment-edge selection, focus offsets, boundBy back-reference
// maintenance, and duplicate-connector elimination. Every operation is
// idempotent — re-running it on an already-correct collection produces no
// changes and no version bumps.
type BindingEngine struct {
	gap float64
}

// NewBindingEngine creates a BindingEngine with the default endpoint gap.
func NewBindingEngine() *BindingEngine {
	return &BindingEngine{gap: DefaultBindingGap}
}

type point struct {
	x, y float64
}

func (p point) distTo(q point) float64 {
	return math.Hypot(p.x-q.x, p.y-q.y)
}

// NearestBox returns the non-deleted box whose center is closest to the
// world point (px, py). Ties resolve to the first box in collection order.
func NearestBox(c Collection, px, py float64) (domain.Element, bool) {
	var best domain.Element
	bestDist := math.Inf(1)
	found := false
	for _, e := range c.Elements() {
		if !e.IsBindable() {
			continue
		}
		d := math.Hypot(px-e.CenterX(), py-e.CenterY())
		if d < bestDist {
			best, bestDist, found = e, d, true
		}
	}
	return best, found
}

// targetFor picks the binding target for an endpoint at (px, py): a box the
// point sits inside wins (the endpoint was spawned directly over it),
// otherwise the nearest box by center distance.
func targetFor(c Collection, px, py float64) (domain.Element, bool) {
	for _, e := range c.Elements() {
		if e.IsBindable() && e.Contains(px, py) {
			return e, true
		}
	}
	return NearestBox(c, px, py)
}

// edgeMidpoints returns the four cardinal edge midpoints of a box in world
// coordinates, in the fixed order left, right, top, bottom.
func edgeMidpoints(e domain.Element) [4]point {
	return [4]point{
		{e.X, e.Y + e.Height/2},
		{e.X + e.Width, e.Y + e.Height/2},
		{e.X + e.Width/2, e.Y},
		{e.X + e.Width/2, e.Y + e.Height},
	}
}

// shortestEdgePair evaluates all 16 midpoint pairings between two boxes and
// returns the pair with minimum Euclidean distance; ties keep the earliest
// pairing in left/right/top/bottom order.
func shortestEdgePair(a, b domain.Element) (point, point) {
	am := edgeMidpoints(a)
	bm := edgeMidpoints(b)
	best := math.Inf(1)
	var pa, pb point
	for _, p := range am {
		for _, q := range bm {
			if d := p.distTo(q); d < best {
				best, pa, pb = d, p, q
			}
		}
	}
	return pa, pb
}

// Focus computes the resolution-independent attachment offset of the
// external point (px, py) on a box edge, clamped to [-0.5, 0.5]. If the
// point lies more horizontal than vertical relative to the box aspect, the
// attachment is on a vertical edge and focus runs along y; otherwise along x.
func Focus(b domain.Element, px, py float64) float64 {
	dx := px - b.CenterX()
	dy := py - b.CenterY()
	var f float64
	if b.Width > 0 && b.Height > 0 && math.Abs(dx)/b.Width > math.Abs(dy)/b.Height {
		f = dy / b.Height
	} else if b.Width > 0 {
		f = dx / b.Width
	}
	return clamp(f, -0.5, 0.5)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// boxFromBinding resolves an existing binding to its target box, if that
// box still exists and can anchor endpoints.
func boxFromBinding(c Collection, b *domain.Binding) (domain.Element, bool) {
	if b == nil {
		return domain.Element{}, false
	}
	e, ok := c.Get(b.TargetID)
	if !ok || !e.IsBindable() {
		return domain.Element{}, false
	}
	return e, true
}

// Bind resolves the given connector's endpoint bindings against the
// collection and returns the updated collection. An endpoint that is
// already bound stays with its target; the attachment tracks the box
// through moves and resizes (detaching is the surface clearing the
// binding). Unbound endpoints spawned over a box bind to it; otherwise
// they bind to the nearest box. When both ends resolve to distinct boxes
// the connector is snapped to the shortest attachment-edge pair. A
// connector whose endpoint resolves to nothing (or whose ends resolve to
// the same box) keeps that binding unset and is otherwise left alone.
func (be *BindingEngine) Bind(c Collection, connectorID string) Collection {
	conn, ok := c.Get(connectorID)
	if !ok || conn.Kind != domain.KindConnector || len(conn.Points) < 2 {
		return c
	}

	first := conn.Points[0]
	last := conn.Points[len(conn.Points)-1]
	sx, sy := conn.X+first.DX, conn.Y+first.DY
	ex, ey := conn.X+last.DX, conn.Y+last.DY

	startBox, hasStart := boxFromBinding(c, conn.Start)
	if !hasStart {
		startBox, hasStart = targetFor(c, sx, sy)
	}
	endBox, hasEnd := boxFromBinding(c, conn.End)
	if !hasEnd {
		endBox, hasEnd = targetFor(c, ex, ey)
	}
	if hasStart && hasEnd && startBox.ID == endBox.ID {
		// Self-loops are not auto-bound; keep the endpoint drawn over the box.
		if startBox.Contains(sx, sy) {
			hasEnd = false
		} else {
			hasStart = false
		}
	}

	var start, end *domain.Binding
	p1 := point{sx, sy}
	p2 := point{ex, ey}
	if hasStart && hasEnd {
		p1, p2 = shortestEdgePair(startBox, endBox)
	}
	if hasStart {
		start = &domain.Binding{TargetID: startBox.ID, Focus: Focus(startBox, p2.x, p2.y), Gap: be.gap}
	}
	if hasEnd {
		end = &domain.Binding{TargetID: endBox.ID, Focus: Focus(endBox, p1.x, p1.y), Gap: be.gap}
	}

	prevStart, prevEnd := conn.Start, conn.End
	c = c.Update(connectorID, func(e *domain.Element) bool {
		changed := false
		if !sameBinding(e.Start, start) {
			e.Start = start
			changed = true
		}
		if !sameBinding(e.End, end) {
			e.End = end
			changed = true
		}
		if hasStart && hasEnd {
			if moveEndpoints(e, p1, p2) {
				changed = true
			}
		}
		return changed
	})

	c = be.relink(c, connectorID, prevStart, start)
	c = be.relink(c, connectorID, prevEnd, end)
	return c
}

// moveEndpoints snaps the connector's first and last points to the given
// world positions, keeping any intermediate waypoints where they are.
// Reports whether anything moved.
func moveEndpoints(e *domain.Element, p1, p2 point) bool {
	world := make([]point, len(e.Points))
	for i, pt := range e.Points {
		world[i] = point{e.X + pt.DX, e.Y + pt.DY}
	}
	if world[0] == p1 && world[len(world)-1] == p2 {
		return false
	}
	world[0] = p1
	world[len(world)-1] = p2
	e.X, e.Y = p1.x, p1.y
	for i, w := range world {
		e.Points[i] = domain.Point{DX: w.x - p1.x, DY: w.y - p1.y}
	}
	return true
}

// relink maintains the bidirectional boundBy back-references when a
// connector's binding moves from prev to next. Adds and removals are both
// idempotent.
func (be *BindingEngine) relink(c Collection, connectorID string, prev, next *domain.Binding) Collection {
	if prev != nil && (next == nil || prev.TargetID != next.TargetID) {
		c = c.Update(prev.TargetID, func(e *domain.Element) bool {
			return removeRef(&e.BoundBy, connectorID)
		})
	}
	if next != nil {
		c = c.Update(next.TargetID, func(e *domain.Element) bool {
			return addRef(&e.BoundBy, connectorID)
		})
	}
	return c
}

// Unbind clears both bindings of a connector and prunes the back-references.
func (be *BindingEngine) Unbind(c Collection, connectorID string) Collection {
	conn, ok := c.Get(connectorID)
	if !ok {
		return c
	}
	prevStart, prevEnd := conn.Start, conn.End
	c = c.Update(connectorID, func(e *domain.Element) bool {
		if e.Start == nil && e.End == nil {
			return false
		}
		e.Start, e.End = nil, nil
		return true
	})
	c = be.relink(c, connectorID, prevStart, nil)
	c = be.relink(c, connectorID, prevEnd, nil)
	return c
}

// ResolveOverlaps removes duplicate connectors: for every unordered pair of
// box ids, only the first fully bound connector in collection order
// survives; later ones are deleted and unlinked. Connectors with a missing
// or single-sided binding are never treated as duplicates.
func (be *BindingEngine) ResolveOverlaps(c Collection) Collection {
	seen := make(map[[2]string]bool)
	var doomed []string
	for _, e := range c.Elements() {
		if e.Kind != domain.KindConnector || e.Start == nil || e.End == nil {
			continue
		}
		key := pairKey(e.Start.TargetID, e.End.TargetID)
		if seen[key] {
			doomed = append(doomed, e.ID)
			continue
		}
		seen[key] = true
	}
	for _, id := range doomed {
		c = c.Delete(id)
	}
	return c
}

// BindAll runs the binding pass over every connector in the collection and
// then prunes duplicates. This is the geometry pass the reconciler applies
// after accepting a snapshot that touches connectors.
func (be *BindingEngine) BindAll(c Collection) Collection {
	for _, e := range c.Elements() {
		if e.Kind == domain.KindConnector {
			c = be.Bind(c, e.ID)
		}
	}
	return be.ResolveOverlaps(c)
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func sameBinding(a, b *domain.Binding) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
