package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"whiteboard/internal/canvas"
)

// sketchWatcher polls the database for changes to the active sketch,
// detecting external modifications (from the standalone agent process
// sharing the SQLite file) and feeding them through the reconciler so the
// surface auto-refreshes.
type sketchWatcher struct {
	ctx context.Context
	app *App
	mu  sync.Mutex
	// Active sketch tracking
	sketchID    string
	lastUpdated string // sketch updated_at fingerprint
	// Sketch list tracking (sidebar refresh)
	lastList string // count + max updated_at
	stopCh   chan struct{}
	// Track emitted approval IDs to avoid infinite re-emission
	emittedApprovals map[string]bool
}

func newSketchWatcher(ctx context.Context, app *App) *sketchWatcher {
	return &sketchWatcher{ctx: ctx, app: app, emittedApprovals: map[string]bool{}}
}

// SetSketch updates the watched sketch ID. Called when the user opens a
// sketch.
func (w *sketchWatcher) SetSketch(sketchID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sketchID = sketchID
	w.lastUpdated = ""
	w.lastList = ""
}

// Start begins the polling loop. Should be called once on app startup.
func (w *sketchWatcher) Start() {
	w.stopCh = make(chan struct{})
	go w.pollLoop()
}

// Stop terminates the polling loop.
func (w *sketchWatcher) Stop() {
	if w.stopCh != nil {
		close(w.stopCh)
	}
}

func (w *sketchWatcher) pollLoop() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-w.stopCh:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *sketchWatcher) check() {
	w.mu.Lock()
	sketchID := w.sketchID
	w.mu.Unlock()

	if sketchID != "" {
		w.checkActiveSketch(sketchID)
	}
	w.checkSketchList()
	w.checkApprovals()
}

// checkActiveSketch compares the stored sketch against the reconciler's
// truth. A store state the reconciler has not seen means another process
// wrote it; it is applied as a host mutation and pushed to the surface.
func (w *sketchWatcher) checkActiveSketch(sketchID string) {
	updated, err := w.app.sketches.LastUpdated(sketchID)
	if err != nil {
		return
	}
	fingerprint := updated.UTC().Format(time.RFC3339Nano)

	w.mu.Lock()
	changed := w.lastUpdated != "" && w.lastUpdated != fingerprint
	w.lastUpdated = fingerprint
	w.mu.Unlock()
	if !changed {
		return
	}

	sk, err := w.app.sketches.GetSketch(sketchID)
	if err != nil {
		return
	}
	elements, err := canvas.ParseElements(sk.Elements)
	if err != nil {
		wailsRuntime.LogErrorf(w.ctx, "[watcher] parse sketch %s: %v", sketchID, err)
		return
	}

	current := w.app.reconciler.Current()
	incoming := canvas.NewCollection(elements)
	if incoming.Fingerprint() == current.Fingerprint() {
		// Our own persist; nothing external happened.
		return
	}

	// Multi-element jumps are agent batches as far as the regression
	// policy is concerned.
	delta := incoming.Len() - current.Len()
	if delta < 0 {
		delta = -delta
	}
	w.app.reconciler.ApplyHost(elements, delta > 1)

	wailsRuntime.EventsEmit(w.ctx, "agent:elements-changed", map[string]string{
		"sketchId": sketchID,
	})
}

func (w *sketchWatcher) checkSketchList() {
	var count int
	var maxUpdated string
	err := w.app.db.Conn().QueryRow(
		`SELECT COUNT(*), COALESCE(MAX(updated_at), '') FROM sketches`,
	).Scan(&count, &maxUpdated)
	if err != nil {
		return
	}
	fingerprint := fmt.Sprintf("%d:%s", count, maxUpdated)

	w.mu.Lock()
	changed := w.lastList != "" && w.lastList != fingerprint
	w.lastList = fingerprint
	w.mu.Unlock()

	if changed {
		wailsRuntime.EventsEmit(w.ctx, "sketches-changed", nil)
	}
}

// checkApprovals surfaces pending approval requests written by the
// standalone agent (cross-process IPC via the agent_approvals table).
func (w *sketchWatcher) checkApprovals() {
	db := w.app.db.Conn()
	rows, err := db.Query(`SELECT id, tool, summary, created_at FROM agent_approvals WHERE status = 'pending'`)
	if err != nil {
		return
	}
	for rows.Next() {
		var id, tool, summary, createdAt string
		if rows.Scan(&id, &tool, &summary, &createdAt) != nil {
			continue
		}
		w.mu.Lock()
		alreadySent := w.emittedApprovals[id]
		if !alreadySent {
			w.emittedApprovals[id] = true
		}
		w.mu.Unlock()
		if !alreadySent {
			wailsRuntime.EventsEmit(w.ctx, "agent:approval-required", map[string]string{
				"id":        id,
				"tool":      tool,
				"summary":   summary,
				"createdAt": createdAt,
			})
		}
	}
	rows.Close()

	// Clean up tracking for resolved approvals (the agent deletes rows
	// after reading the verdict).
	w.mu.Lock()
	for id := range w.emittedApprovals {
		var count int
		if db.QueryRow(`SELECT COUNT(*) FROM agent_approvals WHERE id = ? AND status = 'pending'`, id).Scan(&count) == nil && count == 0 {
			delete(w.emittedApprovals, id)
		}
	}
	w.mu.Unlock()
}
