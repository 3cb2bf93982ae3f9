package app

import (
	"fmt"

	"whiteboard/internal/canvas"
)

// ============================================================
// Canvas synchronization
// ============================================================

// SnapshotResult tells the surface what happened to its snapshot.
type SnapshotResult struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// OnCanvasSnapshot receives the drawing surface's full-state emission for
// the active sketch. Accepted snapshots become the new truth and are
// persisted; rejected ones are dropped and the surface will be re-pushed
// the canonical state if it drifted.
func (a *App) OnCanvasSnapshot(sketchID, elementsJSON string) (*SnapshotResult, error) {
	if sketchID != a.activeSketchID {
		// Stale emission from a sketch the user already navigated away from.
		return &SnapshotResult{Accepted: false, Reason: "inactive-sketch"}, nil
	}

	elements, err := canvas.ParseElements(elementsJSON)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}

	decision := a.reconciler.OfferSurface(elements)
	if decision.Accepted {
		encoded, err := canvas.EncodeElements(decision.Collection)
		if err != nil {
			return nil, fmt.Errorf("encode snapshot: %w", err)
		}
		if err := a.sketches.UpdateElements(sketchID, encoded); err != nil {
			return nil, fmt.Errorf("persist snapshot: %w", err)
		}
	}
	return &SnapshotResult{Accepted: decision.Accepted, Reason: decision.Reason}, nil
}

// applyHostElements installs host-originated elements (agent writes, file
// edits, undo restores) as the new truth for the active sketch and persists
// the result of the geometry pass.
func (a *App) applyHostElements(sketchID, elementsJSON string, agentBatch bool) error {
	elements, err := canvas.ParseElements(elementsJSON)
	if err != nil {
		return fmt.Errorf("parse elements: %w", err)
	}

	applied := a.reconciler.ApplyHost(elements, agentBatch)
	encoded, err := canvas.EncodeElements(applied)
	if err != nil {
		return fmt.Errorf("encode elements: %w", err)
	}
	return a.sketches.UpdateElements(sketchID, encoded)
}
