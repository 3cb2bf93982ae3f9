package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"whiteboard/internal/domain"
	"whiteboard/internal/service"
	"whiteboard/internal/storage"
)

func newSketchService(t *testing.T) (*service.SketchService, *service.MockEmitter, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "whiteboard.db"), filepath.Join(dir, "data"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	emitter := &service.MockEmitter{}
	svc := service.NewSketchService(storage.NewSketchStore(db), emitter)

	sk, err := svc.CreateSketch(context.Background(), "test")
	if err != nil {
		t.Fatalf("create sketch: %v", err)
	}
	return svc, emitter, sk.ID
}

func TestSketchService_AddElementAutoPlace(t *testing.T) {
	svc, emitter, sketchID := newSketchService(t)
	ctx := context.Background()

	first, err := svc.AddElement(ctx, sketchID, service.AddElementInput{
		Kind: "box", Label: "api", AutoPlace: true,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if first.Width != domain.DefaultWidth || first.Height != domain.DefaultHeight {
		t.Errorf("dimensions not defaulted: %vx%v", first.Width, first.Height)
	}

	second, err := svc.AddElement(ctx, sketchID, service.AddElementInput{
		Kind: "box", Label: "db", AutoPlace: true,
	})
	if err != nil {
		t.Fatalf("add second: %v", err)
	}
	if second.X == first.X && second.Y == first.Y {
		t.Error("auto-placed elements stacked at the same position")
	}

	// Every mutation notifies the app.
	last := emitter.Events[len(emitter.Events)-1]
	if last.Event != service.EventElementsChanged {
		t.Errorf("expected %s event, got %s", service.EventElementsChanged, last.Event)
	}
}

func TestSketchService_AddElementsBatchDoesNotStack(t *testing.T) {
	svc, _, sketchID := newSketchService(t)

	inputs := make([]service.AddElementInput, 4)
	for i := range inputs {
		inputs[i] = service.AddElementInput{Kind: "box", AutoPlace: true}
	}
	created, err := svc.AddElements(context.Background(), sketchID, inputs)
	if err != nil {
		t.Fatalf("batch add: %v", err)
	}
	seen := map[[2]float64]bool{}
	for _, e := range created {
		key := [2]float64{e.X, e.Y}
		if seen[key] {
			t.Fatalf("two batch elements share position (%v, %v)", e.X, e.Y)
		}
		seen[key] = true
	}
}

func TestSketchService_AddRelativeElement(t *testing.T) {
	svc, _, sketchID := newSketchService(t)
	ctx := context.Background()

	anchor, err := svc.AddElement(ctx, sketchID, service.AddElementInput{
		Kind: "box", X: 100, Y: 100, Width: 200, Height: 150,
	})
	if err != nil {
		t.Fatal(err)
	}

	e, err := svc.AddRelativeElement(ctx, sketchID, anchor.ID, "right", 50, service.AddElementInput{
		Kind: "box", Width: 200, Height: 100,
	})
	if err != nil {
		t.Fatalf("add relative: %v", err)
	}
	if e.X != 350 || e.Y != 100 {
		t.Errorf("expected (350, 100), got (%v, %v)", e.X, e.Y)
	}

	// Unknown anchor falls back to auto placement instead of failing.
	if _, err := svc.AddRelativeElement(ctx, sketchID, "missing", "right", 50, service.AddElementInput{Kind: "box"}); err != nil {
		t.Errorf("unknown anchor should fall back, got %v", err)
	}
}

func TestSketchService_ConnectElements(t *testing.T) {
	svc, _, sketchID := newSketchService(t)
	ctx := context.Background()

	a, _ := svc.AddElement(ctx, sketchID, service.AddElementInput{Kind: "box", X: 0, Y: 0, Width: 100, Height: 100})
	b, _ := svc.AddElement(ctx, sketchID, service.AddElementInput{Kind: "box", X: 300, Y: 0, Width: 100, Height: 100})

	conn, err := svc.ConnectElements(ctx, sketchID, a.ID, b.ID, "calls")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if conn.Start == nil || conn.Start.TargetID != a.ID {
		t.Errorf("start not bound: %+v", conn.Start)
	}
	if conn.End == nil || conn.End.TargetID != b.ID {
		t.Errorf("end not bound: %+v", conn.End)
	}

	elements, _ := svc.Elements(sketchID)
	for _, e := range elements {
		if e.ID == a.ID || e.ID == b.ID {
			if len(e.BoundBy) != 1 || e.BoundBy[0] != conn.ID {
				t.Errorf("box %s boundBy = %v", e.ID, e.BoundBy)
			}
		}
	}

	// A second connector between the same pair is deduplicated away.
	if _, err := svc.ConnectElements(ctx, sketchID, b.ID, a.ID, ""); err == nil {
		t.Error("duplicate connection should report the existing one")
	}
	elements, _ = svc.Elements(sketchID)
	connectors := 0
	for _, e := range elements {
		if e.Kind == domain.KindConnector {
			connectors++
		}
	}
	if connectors != 1 {
		t.Errorf("expected 1 connector after duplicate connect, got %d", connectors)
	}
}

func TestSketchService_MoveReSnapsBoundConnectors(t *testing.T) {
	svc, _, sketchID := newSketchService(t)
	ctx := context.Background()

	a, _ := svc.AddElement(ctx, sketchID, service.AddElementInput{Kind: "box", X: 0, Y: 0, Width: 100, Height: 100})
	b, _ := svc.AddElement(ctx, sketchID, service.AddElementInput{Kind: "box", X: 300, Y: 0, Width: 100, Height: 100})
	conn, err := svc.ConnectElements(ctx, sketchID, a.ID, b.ID, "")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.MoveElement(ctx, sketchID, b.ID, 300, 500); err != nil {
		t.Fatalf("move: %v", err)
	}

	elements, _ := svc.Elements(sketchID)
	for _, e := range elements {
		if e.ID != conn.ID {
			continue
		}
		last := e.Points[len(e.Points)-1]
		endX, endY := e.X+last.DX, e.Y+last.DY
		// The endpoint must sit on the moved box's boundary.
		if endX < 300 || endX > 400 || endY < 500 || endY > 600 {
			t.Errorf("connector endpoint (%v, %v) not on moved box", endX, endY)
		}
		if e.End == nil || e.End.TargetID != b.ID {
			t.Errorf("binding lost after move: %+v", e.End)
		}
	}
}

func TestSketchService_DeleteElementCleansReferences(t *testing.T) {
	svc, _, sketchID := newSketchService(t)
	ctx := context.Background()

	a, _ := svc.AddElement(ctx, sketchID, service.AddElementInput{Kind: "box", X: 0, Y: 0, Width: 100, Height: 100})
	b, _ := svc.AddElement(ctx, sketchID, service.AddElementInput{Kind: "box", X: 300, Y: 0, Width: 100, Height: 100})
	if _, err := svc.ConnectElements(ctx, sketchID, a.ID, b.ID, ""); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteElement(ctx, sketchID, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	elements, _ := svc.Elements(sketchID)
	for _, e := range elements {
		if e.Kind == domain.KindConnector {
			if e.End != nil {
				t.Errorf("connector still bound to deleted box: %+v", e.End)
			}
		}
		if e.ID == b.ID {
			t.Error("deleted box still present")
		}
	}
}

func TestSketchService_Projection(t *testing.T) {
	svc, _, sketchID := newSketchService(t)
	ctx := context.Background()

	a, _ := svc.AddElement(ctx, sketchID, service.AddElementInput{Kind: "box", Label: "api", X: 0, Y: 0, Width: 100, Height: 100})
	b, _ := svc.AddElement(ctx, sketchID, service.AddElementInput{Kind: "box", Label: "db", X: 300, Y: 0, Width: 100, Height: 100})
	if _, err := svc.ConnectElements(ctx, sketchID, a.ID, b.ID, ""); err != nil {
		t.Fatal(err)
	}

	summaries, err := svc.Projection(sketchID)
	if err != nil {
		t.Fatalf("projection: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(summaries))
	}
	var sawConnector bool
	for _, s := range summaries {
		if s.Kind == domain.KindConnector {
			sawConnector = true
			if s.Start != a.ID || s.End != b.ID {
				t.Errorf("summary endpoints %s -> %s", s.Start, s.End)
			}
		}
	}
	if !sawConnector {
		t.Error("connector missing from projection")
	}
}

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "test:event", map[string]string{"foo": "bar"})
	m.Emit(ctx, "test:event2", nil)

	if len(m.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(m.Events))
	}
	if m.Events[0].Event != "test:event" {
		t.Errorf("expected 'test:event', got %q", m.Events[0].Event)
	}
}
