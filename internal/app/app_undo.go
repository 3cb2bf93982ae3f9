package app

import (
	"fmt"

	"whiteboard/internal/storage"
)

// ============================================================
// Undo Tree
// ============================================================

func (a *App) LoadUndoTree(sketchID string) (*storage.UndoTree, error) {
	return a.undos.LoadTree(sketchID)
}

func (a *App) PushUndoNode(sketchID, nodeID, parentID, label, snapshotJSON string) (*storage.UndoNode, error) {
	return a.undos.PushNode(sketchID, nodeID, parentID, label, snapshotJSON)
}

func (a *App) GoToUndoNode(sketchID, nodeID string) error {
	return a.undos.GoTo(sketchID, nodeID)
}

// RestoreUndoSnapshot moves the undo cursor to a node and installs its
// snapshot as the sketch's current state.
func (a *App) RestoreUndoSnapshot(sketchID, nodeID string) error {
	if sketchID != a.activeSketchID {
		return fmt.Errorf("restore: sketch %s is not open", sketchID)
	}
	snapshot, err := a.undos.GetSnapshot(nodeID)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if err := a.undos.GoTo(sketchID, nodeID); err != nil {
		return err
	}
	return a.applyHostElements(sketchID, snapshot, false)
}
