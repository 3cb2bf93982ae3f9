package canvas

import (
	"math"

	"whiteboard/internal/domain"
)

// Orthogonal connector routing: elbow waypoints between the two bound
// attachment points, detoured around boxes that sit in the way.

const routeMargin = 30.0

func midBetweenX(a, b point) float64 { return (a.x + b.x) / 2 }

// segmentCrossesRect reports whether an axis-aligned segment passes through
// a rect interior.
func segmentCrossesRect(a, b point, r rect) bool {
	if math.Abs(a.y-b.y) < 0.5 {
		y := a.y
		if y <= r.y || y >= r.y+r.h {
			return false
		}
		minX := math.Min(a.x, b.x)
		maxX := math.Max(a.x, b.x)
		return minX < r.x+r.w && maxX > r.x
	}
	if math.Abs(a.x-b.x) < 0.5 {
		x := a.x
		if x <= r.x || x >= r.x+r.w {
			return false
		}
		minY := math.Min(a.y, b.y)
		maxY := math.Max(a.y, b.y)
		return minY < r.y+r.h && maxY > r.y
	}
	return false
}

// sideOf names the box edge a world point sits on, by nearest edge.
func sideOf(b domain.Element, p point) string {
	dLeft := math.Abs(p.x - b.X)
	dRight := math.Abs(p.x - (b.X + b.Width))
	dTop := math.Abs(p.y - b.Y)
	dBottom := math.Abs(p.y - (b.Y + b.Height))
	min := dLeft
	side := "left"
	if dRight < min {
		min, side = dRight, "right"
	}
	if dTop < min {
		min, side = dTop, "top"
	}
	if dBottom < min {
		side = "bottom"
	}
	return side
}

func horizontal(side string) bool { return side == "left" || side == "right" }

// orthoWaypoints computes an elbow path from src to dst leaving src's box on
// srcSide and entering dst's box on dstSide. The route prefers a single
// midpoint Z-bend; when a box blocks a segment the bend is pushed outside
// the blocking rect.
func orthoWaypoints(src, dst point, srcSide, dstSide string, obstacles []rect) []point {
	var route []point
	switch {
	case horizontal(srcSide) && horizontal(dstSide):
		midX := midBetweenX(src, dst)
		midX = nudgeVertical(midX, src, dst, obstacles)
		route = []point{src, {midX, src.y}, {midX, dst.y}, dst}
	case !horizontal(srcSide) && !horizontal(dstSide):
		midY := (src.y + dst.y) / 2
		midY = nudgeHorizontal(midY, src, dst, obstacles)
		route = []point{src, {src.x, midY}, {dst.x, midY}, dst}
	case horizontal(srcSide):
		// One bend: run horizontal out of src, vertical into dst.
		route = []point{src, {dst.x, src.y}, dst}
	default:
		route = []point{src, {src.x, dst.y}, dst}
	}
	return simplifyRoute(route)
}

// nudgeVertical moves a vertical bend line at x out of any obstacle it
// crosses between the two horizontal runs.
func nudgeVertical(x float64, src, dst point, obstacles []rect) float64 {
	for _, r := range obstacles {
		bend := point{x, math.Min(src.y, dst.y)}
		bendEnd := point{x, math.Max(src.y, dst.y)}
		if segmentCrossesRect(bend, bendEnd, r) {
			if src.x < dst.x {
				x = r.x + r.w + routeMargin
			} else {
				x = r.x - routeMargin
			}
		}
	}
	return x
}

// nudgeHorizontal is the transposed variant for horizontal bend lines at y.
func nudgeHorizontal(y float64, src, dst point, obstacles []rect) float64 {
	for _, r := range obstacles {
		bend := point{math.Min(src.x, dst.x), y}
		bendEnd := point{math.Max(src.x, dst.x), y}
		if segmentCrossesRect(bend, bendEnd, r) {
			if src.y < dst.y {
				y = r.y + r.h + routeMargin
			} else {
				y = r.y - routeMargin
			}
		}
	}
	return y
}

// simplifyRoute drops collinear and duplicate waypoints.
func simplifyRoute(pts []point) []point {
	if len(pts) < 3 {
		return pts
	}
	out := []point{pts[0]}
	for i := 1; i < len(pts)-1; i++ {
		prev := out[len(out)-1]
		next := pts[i+1]
		cur := pts[i]
		if cur == prev {
			continue
		}
		sameX := math.Abs(prev.x-cur.x) < 0.5 && math.Abs(cur.x-next.x) < 0.5
		sameY := math.Abs(prev.y-cur.y) < 0.5 && math.Abs(cur.y-next.y) < 0.5
		if sameX || sameY {
			continue
		}
		out = append(out, cur)
	}
	if last := pts[len(pts)-1]; out[len(out)-1] != last {
		out = append(out, last)
	}
	return out
}

// RouteElbow replaces a bound connector's straight segment with orthogonal
// waypoints around intervening boxes. Unbound connectors are left alone.
func (be *BindingEngine) RouteElbow(c Collection, connectorID string) Collection {
	conn, ok := c.Get(connectorID)
	if !ok || conn.Kind != domain.KindConnector || conn.Start == nil || conn.End == nil || len(conn.Points) < 2 {
		return c
	}
	startBox, okA := c.Get(conn.Start.TargetID)
	endBox, okB := c.Get(conn.End.TargetID)
	if !okA || !okB {
		return c
	}

	src := point{conn.X + conn.Points[0].DX, conn.Y + conn.Points[0].DY}
	dst := point{conn.X + conn.Points[len(conn.Points)-1].DX, conn.Y + conn.Points[len(conn.Points)-1].DY}

	var obstacles []rect
	for _, e := range c.Elements() {
		if !e.IsBindable() || e.ID == startBox.ID || e.ID == endBox.ID {
			continue
		}
		obstacles = append(obstacles, rect{e.X, e.Y, e.Width, e.Height})
	}

	route := orthoWaypoints(src, dst, sideOf(startBox, src), sideOf(endBox, dst), obstacles)
	pts := make([]domain.Point, len(route))
	for i, p := range route {
		pts[i] = domain.Point{DX: p.x - src.x, DY: p.y - src.y}
	}

	return c.Update(connectorID, func(e *domain.Element) bool {
		if samePoints(e.Points, pts) && e.X == src.x && e.Y == src.y {
			return false
		}
		e.X, e.Y = src.x, src.y
		e.Points = pts
		return true
	})
}

func samePoints(a, b []domain.Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
