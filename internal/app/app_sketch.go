package app

import (
	"fmt"

	"whiteboard/internal/canvas"
	"whiteboard/internal/domain"
)

// ============================================================
// Sketches
// ============================================================

func (a *App) ListSketches() ([]domain.Sketch, error) {
	return a.sketchSvc.ListSketches()
}

func (a *App) CreateSketch(name string) (*domain.Sketch, error) {
	return a.sketchSvc.CreateSketch(a.ctx, name)
}

func (a *App) RenameSketch(id, name string) error {
	return a.sketchSvc.RenameSketch(id, name)
}

func (a *App) DeleteSketch(id string) error {
	if a.bridge != nil {
		a.bridge.StopWatching(id)
	}
	if err := a.sketchSvc.DeleteSketch(a.ctx, id); err != nil {
		return err
	}
	if a.activeSketchID == id {
		a.activeSketchID = ""
		a.reconciler.Reset()
		a.watcher.SetSketch("")
	}
	return nil
}

// OpenSketch makes a sketch the active one: the reconciler is reseeded from
// the store and the surface receives the initial push.
func (a *App) OpenSketch(id string) (*domain.Sketch, error) {
	sk, err := a.sketchSvc.GetSketch(id)
	if err != nil {
		return nil, fmt.Errorf("open sketch: %w", err)
	}

	elements, err := canvas.ParseElements(sk.Elements)
	if err != nil {
		return nil, fmt.Errorf("open sketch %s: %w", id, err)
	}

	a.activeSketchID = id
	a.reconciler.Reset()
	a.reconciler.Seed(canvas.NewCollection(elements))
	a.watcher.SetSketch(id)
	a.settingsSvc.SetActiveSketch(id)

	return sk, nil
}

// UpdateViewport saves the pan/zoom state. Deliberately not a sketch
// mutation: it must not wake the change watcher or the reconciler.
func (a *App) UpdateViewport(id string, x, y, zoom float64) error {
	return a.sketches.UpdateViewport(id, x, y, zoom)
}
