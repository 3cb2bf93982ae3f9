package canvas

import (
	"testing"

	"whiteboard/internal/domain"
)

func box(id string, x, y, w, h float64) domain.Element {
	return domain.Element{ID: id, Kind: domain.KindBox, X: x, Y: y, Width: w, Height: h}
}

func connector(id string, x, y, ex, ey float64) domain.Element {
	return domain.Element{
		ID: id, Kind: domain.KindConnector, X: x, Y: y,
		Points: []domain.Point{{DX: 0, DY: 0}, {DX: ex - x, DY: ey - y}},
	}
}

func TestNewCollection_DuplicateIDsCollapse(t *testing.T) {
	c := NewCollection([]domain.Element{
		box("a", 0, 0, 100, 100),
		box("b", 200, 0, 100, 100),
		box("a", 50, 50, 100, 100), // replaces the first "a" in place
	})
	if c.Len() != 2 {
		t.Fatalf("expected 2 elements, got %d", c.Len())
	}
	a, _ := c.Get("a")
	if a.X != 50 {
		t.Errorf("expected later duplicate to win, got x=%.0f", a.X)
	}
	// Order preserved: "a" stays first.
	if c.Elements()[0].ID != "a" {
		t.Errorf("expected 'a' to keep its slot, got %q", c.Elements()[0].ID)
	}
}

func TestCollection_CopyOnWrite(t *testing.T) {
	c1 := NewCollection([]domain.Element{box("a", 0, 0, 100, 100)})
	c2 := c1.Update("a", func(e *domain.Element) bool {
		e.X = 500
		return true
	})

	a1, _ := c1.Get("a")
	a2, _ := c2.Get("a")
	if a1.X != 0 {
		t.Errorf("original collection mutated: x=%.0f", a1.X)
	}
	if a2.X != 500 {
		t.Errorf("updated collection missing change: x=%.0f", a2.X)
	}
	if a2.Version != a1.Version+1 {
		t.Errorf("expected version bump, got %d -> %d", a1.Version, a2.Version)
	}
}

func TestCollection_UpdateNoChangeNoBump(t *testing.T) {
	c := NewCollection([]domain.Element{box("a", 0, 0, 100, 100)})
	c2 := c.Update("a", func(e *domain.Element) bool { return false })
	a, _ := c2.Get("a")
	if a.Version != 0 {
		t.Errorf("no-op update bumped version to %d", a.Version)
	}
	if c2.Fingerprint() != c.Fingerprint() {
		t.Error("no-op update changed fingerprint")
	}
}

func TestCollection_DeletePrunesBackReferences(t *testing.T) {
	a := box("a", 0, 0, 100, 100)
	b := box("b", 300, 0, 100, 100)
	conn := connector("c1", 50, 50, 350, 50)
	conn.Start = &domain.Binding{TargetID: "a"}
	conn.End = &domain.Binding{TargetID: "b"}
	a.BoundBy = []string{"c1"}
	b.BoundBy = []string{"c1"}

	c := NewCollection([]domain.Element{a, b, conn})

	// Deleting the connector removes it from both boundBy sets.
	c2 := c.Delete("c1")
	for _, id := range []string{"a", "b"} {
		e, _ := c2.Get(id)
		if len(e.BoundBy) != 0 {
			t.Errorf("box %s still lists deleted connector: %v", id, e.BoundBy)
		}
	}

	// Deleting a target box clears the connector's binding to it.
	c3 := c.Delete("a")
	got, _ := c3.Get("c1")
	if got.Start != nil {
		t.Errorf("connector still bound to deleted box: %+v", got.Start)
	}
	if got.End == nil || got.End.TargetID != "b" {
		t.Error("unrelated binding was dropped")
	}
}

func TestCollection_FingerprintTracksStructure(t *testing.T) {
	c := NewCollection([]domain.Element{box("a", 0, 0, 100, 100)})
	same := NewCollection([]domain.Element{box("a", 0, 0, 100, 100)})
	if c.Fingerprint() != same.Fingerprint() {
		t.Error("identical collections have different fingerprints")
	}

	moved := c.Update("a", func(e *domain.Element) bool {
		e.X = 10
		return true
	})
	if moved.Fingerprint() == c.Fingerprint() {
		t.Error("moving an element did not change the fingerprint")
	}

	if NewCollection(nil).Fingerprint() != NewCollection(nil).Fingerprint() {
		t.Error("empty collections must share a fingerprint")
	}
}

func TestCollection_NormalizeRepairsMalformed(t *testing.T) {
	c := NewCollection([]domain.Element{
		{ID: "bad", Kind: domain.KindBox}, // no geometry at all
		{ID: "line", Kind: domain.KindConnector},
	})
	b, _ := c.Get("bad")
	if b.Width != domain.DefaultWidth || b.Height != domain.DefaultHeight {
		t.Errorf("missing geometry not defaulted: %vx%v", b.Width, b.Height)
	}
	l, _ := c.Get("line")
	if len(l.Points) < 2 {
		t.Errorf("connector not given a minimal path: %d points", len(l.Points))
	}
}

func TestCollection_Clear(t *testing.T) {
	c := NewCollection([]domain.Element{box("a", 0, 0, 100, 100), box("b", 0, 0, 50, 50)})
	if got := c.Clear().Len(); got != 0 {
		t.Fatalf("expected empty collection, got %d", got)
	}
	if c.Len() != 2 {
		t.Error("clear mutated the receiver")
	}
}
