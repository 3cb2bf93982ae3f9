package canvas

import (
	"testing"

	"whiteboard/internal/domain"
)

func TestSegmentCrossesRect(t *testing.T) {
	r := rect{100, 100, 200, 100}

	// Horizontal segment through the interior.
	if !segmentCrossesRect(point{0, 150}, point{500, 150}, r) {
		t.Error("horizontal segment through center not detected")
	}
	// Grazing the top edge is not a crossing.
	if segmentCrossesRect(point{0, 100}, point{500, 100}, r) {
		t.Error("segment along the edge should not count")
	}
	// Vertical segment through the interior.
	if !segmentCrossesRect(point{200, 0}, point{200, 500}, r) {
		t.Error("vertical segment through center not detected")
	}
	// Vertical segment entirely left of the rect.
	if segmentCrossesRect(point{50, 0}, point{50, 500}, r) {
		t.Error("segment beside the rect should not count")
	}
}

func TestSideOf(t *testing.T) {
	b := box("a", 0, 0, 100, 100)
	tests := []struct {
		p    point
		side string
	}{
		{point{0, 50}, "left"},
		{point{100, 50}, "right"},
		{point{50, 0}, "top"},
		{point{50, 100}, "bottom"},
	}
	for _, tt := range tests {
		if got := sideOf(b, tt.p); got != tt.side {
			t.Errorf("sideOf(%v) = %q, want %q", tt.p, got, tt.side)
		}
	}
}

func TestOrthoWaypoints_ZBendBetweenHorizontalSides(t *testing.T) {
	src := point{100, 50}
	dst := point{400, 350}
	route := orthoWaypoints(src, dst, "right", "left", nil)

	want := []point{{100, 50}, {250, 50}, {250, 350}, {400, 350}}
	if len(route) != len(want) {
		t.Fatalf("route %v, want %v", route, want)
	}
	for i := range want {
		if route[i] != want[i] {
			t.Fatalf("waypoint %d = %v, want %v", i, route[i], want[i])
		}
	}
}

func TestOrthoWaypoints_LBendBetweenMixedSides(t *testing.T) {
	route := orthoWaypoints(point{100, 50}, point{300, 400}, "right", "top", nil)
	want := []point{{100, 50}, {300, 50}, {300, 400}}
	if len(route) != len(want) {
		t.Fatalf("route %v, want %v", route, want)
	}
	for i := range want {
		if route[i] != want[i] {
			t.Fatalf("waypoint %d = %v, want %v", i, route[i], want[i])
		}
	}
}

func TestOrthoWaypoints_DetoursAroundObstacle(t *testing.T) {
	src := point{100, 50}
	dst := point{400, 350}
	blocking := rect{230, 120, 100, 150} // sits on the default midline x=250

	route := orthoWaypoints(src, dst, "right", "left", []rect{blocking})
	for i := 1; i < len(route); i++ {
		if segmentCrossesRect(route[i-1], route[i], blocking) {
			t.Fatalf("segment %v -> %v still crosses the obstacle", route[i-1], route[i])
		}
	}
}

func TestSimplifyRoute_DropsCollinearPoints(t *testing.T) {
	route := simplifyRoute([]point{{0, 0}, {50, 0}, {100, 0}, {100, 100}})
	want := []point{{0, 0}, {100, 0}, {100, 100}}
	if len(route) != len(want) {
		t.Fatalf("route %v, want %v", route, want)
	}
	for i := range want {
		if route[i] != want[i] {
			t.Fatalf("waypoint %d = %v, want %v", i, route[i], want[i])
		}
	}
}

func TestRouteElbow_IdempotentAndBoundOnly(t *testing.T) {
	be := NewBindingEngine()
	c := NewCollection([]domain.Element{
		box("a", 0, 0, 100, 100),
		box("b", 400, 300, 100, 100),
		connector("c1", 50, 50, 450, 350),
	})
	c = be.Bind(c, "c1")

	routed := be.RouteElbow(c, "c1")
	conn, _ := routed.Get("c1")
	if len(conn.Points) < 2 {
		t.Fatalf("routing destroyed the path: %d points", len(conn.Points))
	}
	// Every leg is axis aligned.
	for i := 1; i < len(conn.Points); i++ {
		dx := conn.Points[i].DX - conn.Points[i-1].DX
		dy := conn.Points[i].DY - conn.Points[i-1].DY
		if dx != 0 && dy != 0 {
			t.Fatalf("leg %d is diagonal: d=(%v, %v)", i, dx, dy)
		}
	}

	again := be.RouteElbow(routed, "c1")
	if again.Fingerprint() != routed.Fingerprint() {
		t.Error("second routing pass changed the collection")
	}

	// Unbound connectors are never touched.
	free := NewCollection([]domain.Element{connector("loose", 0, 0, 300, 300)})
	if got := be.RouteElbow(free, "loose"); got.Fingerprint() != free.Fingerprint() {
		t.Error("routing modified an unbound connector")
	}
}
