package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"whiteboard/internal/canvas"
	"whiteboard/internal/domain"
	"whiteboard/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Sketch Service — business logic for sketches and elements
// ─────────────────────────────────────────────────────────────

// Events emitted when host-side code mutates a sketch. The desktop app
// listens and feeds the new state through the reconciler to the surface.
const (
	EventSketchCreated   = "sketch:created"
	EventSketchDeleted   = "sketch:deleted"
	EventElementsChanged = "agent:elements-changed"
)

// SketchService manages sketches and applies element mutations on behalf of
// the agent layer and the app. Every mutation loads the stored collection,
// transforms it, and writes it back; geometry invariants (binding, overlap
// dedup) are restored before saving.
type SketchService struct {
	sketches *storage.SketchStore
	layout   *canvas.LayoutEngine
	binder   *canvas.BindingEngine
	emitter  EventEmitter
}

func NewSketchService(sketches *storage.SketchStore, emitter EventEmitter) *SketchService {
	return &SketchService{
		sketches: sketches,
		layout:   canvas.NewLayoutEngine(),
		binder:   canvas.NewBindingEngine(),
		emitter:  emitter,
	}
}

// ── Sketch CRUD ────────────────────────────────────────────

func (s *SketchService) CreateSketch(ctx context.Context, name string) (*domain.Sketch, error) {
	if name == "" {
		name = "Untitled"
	}
	sk := &domain.Sketch{ID: uuid.NewString(), Name: name}
	if err := s.sketches.CreateSketch(sk); err != nil {
		return nil, fmt.Errorf("create sketch: %w", err)
	}
	s.emitter.Emit(ctx, EventSketchCreated, sk)
	return sk, nil
}

func (s *SketchService) GetSketch(id string) (*domain.Sketch, error) {
	return s.sketches.GetSketch(id)
}

func (s *SketchService) ListSketches() ([]domain.Sketch, error) {
	return s.sketches.ListSketches()
}

func (s *SketchService) RenameSketch(id, name string) error {
	sk, err := s.sketches.GetSketch(id)
	if err != nil {
		return err
	}
	sk.Name = name
	return s.sketches.UpdateSketch(sk)
}

func (s *SketchService) DeleteSketch(ctx context.Context, id string) error {
	if err := s.sketches.DeleteSketch(id); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventSketchDeleted, map[string]string{"sketchId": id})
	return nil
}

// ── Element mutations ──────────────────────────────────────

// AddElementInput describes one element to create. When AutoPlace is set
// the layout engine picks a free spot and X/Y are ignored.
type AddElementInput struct {
	Kind            string  `json:"kind"`
	Label           string  `json:"label"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	StrokeColor     string  `json:"strokeColor"`
	BackgroundColor string  `json:"backgroundColor"`
	AutoPlace       bool    `json:"autoPlace"`
}

func (in AddElementInput) element() domain.Element {
	e := domain.Element{
		ID:              uuid.NewString(),
		Kind:            domain.ElementKind(in.Kind),
		X:               in.X,
		Y:               in.Y,
		Width:           in.Width,
		Height:          in.Height,
		Label:           in.Label,
		StrokeColor:     in.StrokeColor,
		BackgroundColor: in.BackgroundColor,
	}
	e.Normalize()
	return e
}

// AddElement creates a single element.
func (s *SketchService) AddElement(ctx context.Context, sketchID string, input AddElementInput) (*domain.Element, error) {
	c, err := s.loadCollection(sketchID)
	if err != nil {
		return nil, err
	}

	e := input.element()
	if input.AutoPlace {
		e.X, e.Y = s.layout.NextPosition(c, e.Width, e.Height)
	}
	c = c.Put(e)

	if err := s.saveCollection(ctx, sketchID, c); err != nil {
		return nil, err
	}
	return &e, nil
}

// AddElements creates a batch of elements in one store write. Auto-placed
// elements are laid out one after another so they never stack.
func (s *SketchService) AddElements(ctx context.Context, sketchID string, inputs []AddElementInput) ([]domain.Element, error) {
	c, err := s.loadCollection(sketchID)
	if err != nil {
		return nil, err
	}

	var created []domain.Element
	for _, in := range inputs {
		e := in.element()
		if in.AutoPlace {
			e.X, e.Y = s.layout.NextPosition(c, e.Width, e.Height)
		}
		c = c.Put(e)
		created = append(created, e)
	}

	if err := s.saveCollection(ctx, sketchID, c); err != nil {
		return nil, err
	}
	return created, nil
}

// AddRelativeElement places a new element in a compass direction from an
// anchor box. An unknown anchor or direction falls back to auto placement
// rather than failing the whole call.
func (s *SketchService) AddRelativeElement(ctx context.Context, sketchID, anchorID, direction string, spacing float64, input AddElementInput) (*domain.Element, error) {
	c, err := s.loadCollection(sketchID)
	if err != nil {
		return nil, err
	}
	if spacing <= 0 {
		spacing = canvas.Padding
	}

	e := input.element()
	placed := false
	if anchor, ok := c.Get(anchorID); ok && anchor.IsBindable() {
		if x, y, ok := canvas.RelativePosition(anchor, direction, spacing, e.Width, e.Height); ok {
			e.X, e.Y = x, y
			placed = true
		}
	}
	if !placed {
		e.X, e.Y = s.layout.NextPosition(c, e.Width, e.Height)
	}
	c = c.Put(e)

	if err := s.saveCollection(ctx, sketchID, c); err != nil {
		return nil, err
	}
	return &e, nil
}

// ConnectElements draws a connector between two boxes. The endpoints snap
// to the closest edge midpoints, get bound, and the segment is routed
// orthogonally around anything in between.
func (s *SketchService) ConnectElements(ctx context.Context, sketchID, fromID, toID, label string) (*domain.Element, error) {
	c, err := s.loadCollection(sketchID)
	if err != nil {
		return nil, err
	}

	from, ok := c.Get(fromID)
	if !ok || !from.IsBindable() {
		return nil, fmt.Errorf("connect: source %s is not a box", fromID)
	}
	to, ok := c.Get(toID)
	if !ok || !to.IsBindable() {
		return nil, fmt.Errorf("connect: target %s is not a box", toID)
	}

	conn := domain.Element{
		ID:    uuid.NewString(),
		Kind:  domain.KindConnector,
		X:     from.CenterX(),
		Y:     from.CenterY(),
		Label: label,
		Points: []domain.Point{
			{DX: 0, DY: 0},
			{DX: to.CenterX() - from.CenterX(), DY: to.CenterY() - from.CenterY()},
		},
	}
	c = c.Put(conn)
	c = s.binder.Bind(c, conn.ID)
	c = s.binder.ResolveOverlaps(c)
	if c.Has(conn.ID) {
		c = s.binder.RouteElbow(c, conn.ID)
	}

	if err := s.saveCollection(ctx, sketchID, c); err != nil {
		return nil, err
	}
	if created, ok := c.Get(conn.ID); ok {
		return &created, nil
	}
	// Deduplicated against an existing connector between the same boxes.
	return nil, fmt.Errorf("connect: %s and %s are already connected", fromID, toID)
}

// UpdateElementInput carries the settable element attributes; nil fields
// stay untouched.
type UpdateElementInput struct {
	Label           *string `json:"label"`
	StrokeColor     *string `json:"strokeColor"`
	BackgroundColor *string `json:"backgroundColor"`
}

func (s *SketchService) UpdateElement(ctx context.Context, sketchID, elementID string, input UpdateElementInput) error {
	c, err := s.loadCollection(sketchID)
	if err != nil {
		return err
	}
	if !c.Has(elementID) {
		return fmt.Errorf("element not found: %s", elementID)
	}

	c = c.Update(elementID, func(e *domain.Element) bool {
		changed := false
		if input.Label != nil && e.Label != *input.Label {
			e.Label = *input.Label
			changed = true
		}
		if input.StrokeColor != nil && e.StrokeColor != *input.StrokeColor {
			e.StrokeColor = *input.StrokeColor
			changed = true
		}
		if input.BackgroundColor != nil && e.BackgroundColor != *input.BackgroundColor {
			e.BackgroundColor = *input.BackgroundColor
			changed = true
		}
		return changed
	})

	return s.saveCollection(ctx, sketchID, c)
}

// MoveElement repositions an element; connectors bound to a moved box are
// re-snapped afterwards.
func (s *SketchService) MoveElement(ctx context.Context, sketchID, elementID string, x, y float64) error {
	c, err := s.loadCollection(sketchID)
	if err != nil {
		return err
	}
	if !c.Has(elementID) {
		return fmt.Errorf("element not found: %s", elementID)
	}

	c = c.Update(elementID, func(e *domain.Element) bool {
		if e.X == x && e.Y == y {
			return false
		}
		e.X, e.Y = x, y
		return true
	})
	c = s.binder.BindAll(c)

	return s.saveCollection(ctx, sketchID, c)
}

// ResizeElement changes an element's dimensions and re-snaps bound
// connectors.
func (s *SketchService) ResizeElement(ctx context.Context, sketchID, elementID string, width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("resize: dimensions must be positive")
	}
	c, err := s.loadCollection(sketchID)
	if err != nil {
		return err
	}
	if !c.Has(elementID) {
		return fmt.Errorf("element not found: %s", elementID)
	}

	c = c.Update(elementID, func(e *domain.Element) bool {
		if e.Width == width && e.Height == height {
			return false
		}
		e.Width, e.Height = width, height
		return true
	})
	c = s.binder.BindAll(c)

	return s.saveCollection(ctx, sketchID, c)
}

// DeleteElement removes one element; bindings and back-references pointing
// at it are cleaned up by the collection.
func (s *SketchService) DeleteElement(ctx context.Context, sketchID, elementID string) error {
	c, err := s.loadCollection(sketchID)
	if err != nil {
		return err
	}
	if !c.Has(elementID) {
		return fmt.Errorf("element not found: %s", elementID)
	}
	return s.saveCollection(ctx, sketchID, c.Delete(elementID))
}

// ClearSketch removes every element.
func (s *SketchService) ClearSketch(ctx context.Context, sketchID string) error {
	c, err := s.loadCollection(sketchID)
	if err != nil {
		return err
	}
	return s.saveCollection(ctx, sketchID, c.Clear())
}

// ── Read access ────────────────────────────────────────────

// Elements returns the full element list of a sketch.
func (s *SketchService) Elements(sketchID string) ([]domain.Element, error) {
	c, err := s.loadCollection(sketchID)
	if err != nil {
		return nil, err
	}
	return c.Elements(), nil
}

// Projection returns the agent-facing summary of a sketch's elements.
func (s *SketchService) Projection(sketchID string) ([]domain.ElementSummary, error) {
	c, err := s.loadCollection(sketchID)
	if err != nil {
		return nil, err
	}

	var out []domain.ElementSummary
	for _, e := range c.Elements() {
		sum := domain.ElementSummary{
			ID:     e.ID,
			Kind:   e.Kind,
			X:      e.X,
			Y:      e.Y,
			Width:  e.Width,
			Height: e.Height,
			Label:  e.Label,
		}
		if e.Start != nil {
			sum.Start = e.Start.TargetID
		}
		if e.End != nil {
			sum.End = e.End.TargetID
		}
		out = append(out, sum)
	}
	return out, nil
}

// ── helpers ────────────────────────────────────────────────

func (s *SketchService) loadCollection(sketchID string) (canvas.Collection, error) {
	sk, err := s.sketches.GetSketch(sketchID)
	if err != nil {
		return canvas.Collection{}, err
	}
	elems, err := canvas.ParseElements(sk.Elements)
	if err != nil {
		return canvas.Collection{}, fmt.Errorf("parse sketch %s: %w", sketchID, err)
	}
	return canvas.NewCollection(elems), nil
}

func (s *SketchService) saveCollection(ctx context.Context, sketchID string, c canvas.Collection) error {
	encoded, err := canvas.EncodeElements(c)
	if err != nil {
		return fmt.Errorf("encode sketch %s: %w", sketchID, err)
	}
	if err := s.sketches.UpdateElements(sketchID, encoded); err != nil {
		return fmt.Errorf("save sketch %s: %w", sketchID, err)
	}
	s.emitter.Emit(ctx, EventElementsChanged, map[string]string{"sketchId": sketchID})
	return nil
}
