package storage

import (
	"path/filepath"
	"testing"
	"time"

	"whiteboard/internal/domain"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := New(filepath.Join(dir, "whiteboard.db"), filepath.Join(dir, "data"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSketchStore_RoundTrip(t *testing.T) {
	s := NewSketchStore(testDB(t))

	sk := &domain.Sketch{ID: "s1", Name: "architecture"}
	if err := s.CreateSketch(sk); err != nil {
		t.Fatalf("create: %v", err)
	}
	if sk.Elements != "[]" {
		t.Errorf("new sketch elements not defaulted: %q", sk.Elements)
	}
	if sk.ViewportZoom != 1.0 {
		t.Errorf("new sketch zoom not defaulted: %v", sk.ViewportZoom)
	}

	got, err := s.GetSketch("s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "architecture" || got.Elements != "[]" {
		t.Errorf("round trip mismatch: %+v", got)
	}

	if err := s.UpdateElements("s1", `[{"id":"a"}]`); err != nil {
		t.Fatalf("update elements: %v", err)
	}
	got, _ = s.GetSketch("s1")
	if got.Elements != `[{"id":"a"}]` {
		t.Errorf("elements not persisted: %q", got.Elements)
	}
}

func TestSketchStore_ElementUpdateBumpsTimestamp(t *testing.T) {
	s := NewSketchStore(testDB(t))
	if err := s.CreateSketch(&domain.Sketch{ID: "s1", Name: "n"}); err != nil {
		t.Fatal(err)
	}

	before, err := s.LastUpdated("s1")
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond) // stored timestamps must differ
	if err := s.UpdateElements("s1", `[{"id":"a"}]`); err != nil {
		t.Fatal(err)
	}
	after, _ := s.LastUpdated("s1")
	if !after.After(before) {
		t.Errorf("updated_at did not advance: %v -> %v", before, after)
	}

	// Viewport saves are invisible to the watcher.
	if err := s.UpdateViewport("s1", 100, 200, 2.0); err != nil {
		t.Fatal(err)
	}
	still, _ := s.LastUpdated("s1")
	if !still.Equal(after) {
		t.Errorf("viewport save moved updated_at: %v -> %v", after, still)
	}
}

func TestSketchStore_ListOmitsPayload(t *testing.T) {
	s := NewSketchStore(testDB(t))
	sk := &domain.Sketch{ID: "s1", Name: "big", Elements: `[{"id":"a"}]`}
	if err := s.CreateSketch(sk); err != nil {
		t.Fatal(err)
	}

	list, err := s.ListSketches()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Elements != "" {
		t.Errorf("list should skip the element payload: %+v", list)
	}
}

func TestSketchStore_DeleteCascadesUndoHistory(t *testing.T) {
	db := testDB(t)
	sketches := NewSketchStore(db)
	undo := NewUndoStore(db)

	if err := sketches.CreateSketch(&domain.Sketch{ID: "s1", Name: "n"}); err != nil {
		t.Fatal(err)
	}
	if _, err := undo.PushNode("s1", "n1", "", "initial", "[]"); err != nil {
		t.Fatal(err)
	}

	if err := sketches.DeleteSketch("s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	tree, err := undo.LoadTree("s1")
	if err != nil {
		t.Fatal(err)
	}
	if tree != nil {
		t.Errorf("undo history survived sketch deletion: %+v", tree)
	}
}

func TestUndoStore_PushAndNavigate(t *testing.T) {
	db := testDB(t)
	sketches := NewSketchStore(db)
	undo := NewUndoStore(db)

	if err := sketches.CreateSketch(&domain.Sketch{ID: "s1", Name: "n"}); err != nil {
		t.Fatal(err)
	}
	if _, err := undo.PushNode("s1", "root", "", "initial", "[]"); err != nil {
		t.Fatal(err)
	}
	if _, err := undo.PushNode("s1", "n2", "root", "add box", `[{"id":"a"}]`); err != nil {
		t.Fatal(err)
	}

	tree, err := undo.LoadTree("s1")
	if err != nil {
		t.Fatal(err)
	}
	if tree.RootID != "root" || tree.CurrentID != "n2" || len(tree.Nodes) != 2 {
		t.Fatalf("unexpected tree: root=%s current=%s nodes=%d", tree.RootID, tree.CurrentID, len(tree.Nodes))
	}

	if err := undo.GoTo("s1", "root"); err != nil {
		t.Fatal(err)
	}
	tree, _ = undo.LoadTree("s1")
	if tree.CurrentID != "root" {
		t.Errorf("goto did not move the pointer: %s", tree.CurrentID)
	}

	snap, err := undo.GetSnapshot("n2")
	if err != nil {
		t.Fatal(err)
	}
	if snap != `[{"id":"a"}]` {
		t.Errorf("wrong snapshot: %q", snap)
	}
}
