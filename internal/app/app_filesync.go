package app

import (
	"fmt"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"whiteboard/internal/canvas"
)

// ============================================================
// File bridge (JSON export / external edit round-trip)
// ============================================================

// ExportSketch writes the sketch's elements to its JSON export file and
// returns the path.
func (a *App) ExportSketch(sketchID string) (string, error) {
	if a.bridge == nil {
		return "", fmt.Errorf("file bridge unavailable")
	}
	sk, err := a.sketchSvc.GetSketch(sketchID)
	if err != nil {
		return "", err
	}
	return a.bridge.Export(sk.ID, sk.Name, sk.Elements)
}

// WatchSketchFile starts feeding external edits of the sketch's export file
// back into the app. Exports the current state first so there is always a
// file to watch.
func (a *App) WatchSketchFile(sketchID string) (string, error) {
	path, err := a.ExportSketch(sketchID)
	if err != nil {
		return "", err
	}
	sk, err := a.sketchSvc.GetSketch(sketchID)
	if err != nil {
		return "", err
	}
	if err := a.bridge.Watch(sk.ID, sk.Name); err != nil {
		return "", err
	}
	return path, nil
}

// StopWatchingSketchFile stops the round-trip for one sketch.
func (a *App) StopWatchingSketchFile(sketchID string) {
	if a.bridge != nil {
		a.bridge.StopWatching(sketchID)
	}
}

// onExportFileChanged handles an external edit of an exported sketch file.
// The content is treated as a host write: it replaces the sketch state and,
// when the sketch is open, flows through the reconciler to the surface.
func (a *App) onExportFileChanged(sketchID, content string) {
	if content == "" {
		content = "[]"
	}
	if sketchID == a.activeSketchID {
		if err := a.applyHostElements(sketchID, content, false); err != nil {
			wailsRuntime.LogErrorf(a.ctx, "[filesync] apply %s: %v", sketchID, err)
		}
		return
	}

	// Background sketch: normalize and save without involving the reconciler.
	elements, err := canvas.ParseElements(content)
	if err != nil {
		wailsRuntime.LogErrorf(a.ctx, "[filesync] parse %s: %v", sketchID, err)
		return
	}
	encoded, err := canvas.EncodeElements(canvas.NewCollection(elements))
	if err != nil {
		wailsRuntime.LogErrorf(a.ctx, "[filesync] encode %s: %v", sketchID, err)
		return
	}
	if err := a.sketches.UpdateElements(sketchID, encoded); err != nil {
		wailsRuntime.LogErrorf(a.ctx, "[filesync] save %s: %v", sketchID, err)
	}
}
