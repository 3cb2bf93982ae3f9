package canvas

import (
	"math"
	"testing"

	"whiteboard/internal/domain"
)

func TestNearestBox_TieKeepsCollectionOrder(t *testing.T) {
	c := NewCollection([]domain.Element{
		box("first", 0, 0, 100, 100),   // center (50, 50)
		box("second", 100, 0, 100, 100), // center (150, 50), same distance from (100, 50)
	})
	got, ok := NearestBox(c, 100, 50)
	if !ok || got.ID != "first" {
		t.Fatalf("expected tie to resolve to first box, got %v ok=%v", got.ID, ok)
	}
}

func TestNearestBox_SkipsNonBoxes(t *testing.T) {
	c := NewCollection([]domain.Element{
		{ID: "lbl", Kind: domain.KindLabel, X: 0, Y: 0, Width: 10, Height: 10},
		box("b", 500, 500, 100, 100),
	})
	got, ok := NearestBox(c, 0, 0)
	if !ok || got.ID != "b" {
		t.Fatalf("expected the only box, got %v ok=%v", got.ID, ok)
	}
}

func TestContains_InclusiveBounds(t *testing.T) {
	b := box("a", 10, 10, 100, 50)
	for _, p := range [][2]float64{{10, 10}, {110, 60}, {60, 35}} {
		if !b.Contains(p[0], p[1]) {
			t.Errorf("expected (%v, %v) inside", p[0], p[1])
		}
	}
	if b.Contains(9.9, 10) || b.Contains(60, 60.1) {
		t.Error("point outside bounds reported as contained")
	}
}

// Two boxes side by side: the right edge of A and the left edge of B are the
// closest midpoint pair.
func TestShortestEdgePair_HorizontalNeighbors(t *testing.T) {
	a := box("a", 0, 0, 100, 100)
	b := box("b", 300, 0, 100, 100)
	pa, pb := shortestEdgePair(a, b)
	if pa != (point{100, 50}) {
		t.Errorf("expected A attachment (100,50), got (%v,%v)", pa.x, pa.y)
	}
	if pb != (point{300, 50}) {
		t.Errorf("expected B attachment (300,50), got (%v,%v)", pb.x, pb.y)
	}
}

// Brute-force check: the selected pair is the true minimum over all 16
// candidate pairings for a handful of layouts.
func TestShortestEdgePair_MatchesBruteForce(t *testing.T) {
	layouts := []struct {
		name string
		a, b domain.Element
	}{
		{"diagonal", box("a", 0, 0, 120, 80), box("b", 400, 300, 60, 200)},
		{"stacked", box("a", 50, 0, 100, 40), box("b", 50, 500, 100, 40)},
		{"offset", box("a", 0, 0, 10, 10), box("b", 25, 90, 300, 20)},
	}
	for _, tt := range layouts {
		pa, pb := shortestEdgePair(tt.a, tt.b)
		got := pa.distTo(pb)

		best := math.Inf(1)
		for _, p := range edgeMidpoints(tt.a) {
			for _, q := range edgeMidpoints(tt.b) {
				if d := p.distTo(q); d < best {
					best = d
				}
			}
		}
		if math.Abs(got-best) > 1e-9 {
			t.Errorf("%s: selected pair distance %.4f, true minimum %.4f", tt.name, got, best)
		}
	}
}

func TestFocus_ClampedAndEdgeSelection(t *testing.T) {
	b := box("a", 0, 0, 100, 100) // center (50, 50)

	// Point far to the right, slightly above center: vertical edge, focus = dy/height.
	if f := Focus(b, 500, 40); math.Abs(f-(-0.1)) > 1e-9 {
		t.Errorf("expected focus -0.1, got %v", f)
	}
	// Point below, slightly right of center: horizontal edge, focus = dx/width.
	if f := Focus(b, 60, 500); math.Abs(f-0.1) > 1e-9 {
		t.Errorf("expected focus 0.1, got %v", f)
	}
	// Extreme offsets along the selected axis clamp to the edge ends.
	// Vertical edge wins (|dx|/w = 99.5), dy/height = -1.5 clamps low.
	if f := Focus(b, 10000, -100); f != -0.5 {
		t.Errorf("expected clamp to -0.5, got %v", f)
	}
	// Horizontal edge wins (huge dy), dx/width = 1.5 clamps high.
	if f := Focus(b, 200, 1e9); f != 0.5 {
		t.Errorf("expected clamp to 0.5, got %v", f)
	}
}

// Scenario from the drawing surface: Box A at (0,0,100,100), Box B at
// (300,0,100,100), connector drawn between them snaps to (100,50)-(300,50).
func TestBind_SnapsToShortestEdges(t *testing.T) {
	be := NewBindingEngine()
	c := NewCollection([]domain.Element{
		box("a", 0, 0, 100, 100),
		box("b", 300, 0, 100, 100),
		connector("c1", 50, 50, 350, 50),
	})
	c = be.Bind(c, "c1")

	conn, _ := c.Get("c1")
	if conn.X != 100 || conn.Y != 50 {
		t.Errorf("expected origin (100,50), got (%v,%v)", conn.X, conn.Y)
	}
	last := conn.Points[len(conn.Points)-1]
	if conn.X+last.DX != 300 || conn.Y+last.DY != 50 {
		t.Errorf("expected endpoint (300,50), got (%v,%v)", conn.X+last.DX, conn.Y+last.DY)
	}
	if conn.Start == nil || conn.Start.TargetID != "a" {
		t.Fatalf("start not bound to a: %+v", conn.Start)
	}
	if conn.End == nil || conn.End.TargetID != "b" {
		t.Fatalf("end not bound to b: %+v", conn.End)
	}
}

func TestBind_MaintainsBoundBySymmetry(t *testing.T) {
	be := NewBindingEngine()
	c := NewCollection([]domain.Element{
		box("a", 0, 0, 100, 100),
		box("b", 300, 0, 100, 100),
		connector("c1", 50, 50, 350, 50),
	})
	c = be.Bind(c, "c1")

	for _, id := range []string{"a", "b"} {
		e, _ := c.Get(id)
		if len(e.BoundBy) != 1 || e.BoundBy[0] != "c1" {
			t.Errorf("box %s boundBy = %v, want [c1]", id, e.BoundBy)
		}
	}

	// Unbind removes the back-references again.
	c = be.Unbind(c, "c1")
	for _, id := range []string{"a", "b"} {
		e, _ := c.Get(id)
		if len(e.BoundBy) != 0 {
			t.Errorf("box %s boundBy not pruned: %v", id, e.BoundBy)
		}
	}
}

func TestBind_NoBoxesLeavesConnectorAlone(t *testing.T) {
	be := NewBindingEngine()
	orig := NewCollection([]domain.Element{connector("c1", 0, 0, 100, 100)})
	c := be.Bind(orig, "c1")
	if c.Fingerprint() != orig.Fingerprint() {
		t.Error("binding with no candidate boxes mutated the connector")
	}
	conn, _ := c.Get("c1")
	if conn.Start != nil || conn.End != nil {
		t.Error("expected bindings to stay unset")
	}
}

func TestBind_Idempotent(t *testing.T) {
	be := NewBindingEngine()
	c := NewCollection([]domain.Element{
		box("a", 0, 0, 100, 100),
		box("b", 300, 200, 150, 60),
		connector("c1", 50, 50, 360, 230),
	})
	once := be.Bind(c, "c1")
	twice := be.Bind(once, "c1")
	if once.Fingerprint() != twice.Fingerprint() {
		t.Error("second bind changed the collection")
	}
	e1, _ := once.Get("c1")
	e2, _ := twice.Get("c1")
	if e2.Version != e1.Version {
		t.Errorf("second bind bumped version %d -> %d", e1.Version, e2.Version)
	}
}

// A bound endpoint stays with its target when the box moves away, even if
// another box is now geometrically closer.
func TestBind_ExistingBindingTracksMovedBox(t *testing.T) {
	be := NewBindingEngine()
	c := NewCollection([]domain.Element{
		box("a", 0, 0, 100, 100),
		box("b", 300, 0, 100, 100),
		connector("c1", 50, 50, 350, 50),
	})
	c = be.Bind(c, "c1")

	// Move b far away; a is now nearest to the stale endpoint position.
	c = c.Update("b", func(e *domain.Element) bool {
		e.X, e.Y = 300, 500
		return true
	})
	c = be.Bind(c, "c1")

	conn, _ := c.Get("c1")
	if conn.End == nil || conn.End.TargetID != "b" {
		t.Fatalf("binding did not track the moved box: %+v", conn.End)
	}
	last := conn.Points[len(conn.Points)-1]
	endX, endY := conn.X+last.DX, conn.Y+last.DY
	if endX < 300 || endX > 400 || endY < 500 || endY > 600 {
		t.Errorf("endpoint (%v, %v) not snapped to the moved box", endX, endY)
	}
}

func TestResolveOverlaps_KeepsFirstOfEachPair(t *testing.T) {
	be := NewBindingEngine()
	elements := []domain.Element{
		box("a", 0, 0, 100, 100),
		box("b", 300, 0, 100, 100),
	}
	// Five connectors all between the same unordered pair, some reversed.
	for i, ends := range [][4]float64{
		{50, 50, 350, 50},
		{60, 60, 340, 40},
		{350, 50, 50, 50}, // reversed direction, same pair
		{10, 90, 390, 10},
		{50, 10, 310, 80},
	} {
		conn := connector(string(rune('u'+i)), ends[0], ends[1], ends[2], ends[3])
		elements = append(elements, conn)
	}
	c := NewCollection(elements)
	for _, e := range c.Elements() {
		if e.Kind == domain.KindConnector {
			c = be.Bind(c, e.ID)
		}
	}
	c = be.ResolveOverlaps(c)

	var survivors []string
	for _, e := range c.Elements() {
		if e.Kind == domain.KindConnector {
			survivors = append(survivors, e.ID)
		}
	}
	if len(survivors) != 1 {
		t.Fatalf("expected exactly 1 surviving connector, got %v", survivors)
	}
	if survivors[0] != "u" {
		t.Errorf("expected first connector to survive, got %s", survivors[0])
	}

	// Back-references only mention the survivor.
	for _, id := range []string{"a", "b"} {
		e, _ := c.Get(id)
		if len(e.BoundBy) != 1 || e.BoundBy[0] != "u" {
			t.Errorf("box %s boundBy = %v, want [u]", id, e.BoundBy)
		}
	}

	// Running it again changes nothing.
	again := be.ResolveOverlaps(c)
	if again.Fingerprint() != c.Fingerprint() {
		t.Error("resolveOverlaps is not idempotent")
	}
}

func TestResolveOverlaps_IgnoresPartialBindings(t *testing.T) {
	be := NewBindingEngine()
	half := connector("h1", 0, 0, 10, 10)
	half.Start = &domain.Binding{TargetID: "a"}
	half2 := connector("h2", 0, 0, 10, 10)
	half2.Start = &domain.Binding{TargetID: "a"}
	c := NewCollection([]domain.Element{box("a", 0, 0, 100, 100), half, half2})

	c = be.ResolveOverlaps(c)
	if !c.Has("h1") || !c.Has("h2") {
		t.Error("single-sided connectors must never be deduplicated")
	}
}
