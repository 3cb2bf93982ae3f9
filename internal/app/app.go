package app

import (
	"context"
	"os"
	"path/filepath"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"whiteboard/internal/canvas"
	"whiteboard/internal/filesync"
	"whiteboard/internal/secret"
	"whiteboard/internal/service"
	"whiteboard/internal/storage"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx context.Context

	db       *storage.DB
	sketches *storage.SketchStore
	undos    *storage.UndoStore

	sketchSvc   *service.SketchService
	databaseSvc *service.DatabaseService
	importSvc   *service.ImportService
	backupSvc   *service.BackupService
	settingsSvc *service.SettingsService

	reconciler *canvas.Reconciler
	bridge     *filesync.Bridge
	watcher    *sketchWatcher

	// Sketch the drawing surface currently has open
	activeSketchID string
}

// New creates a new App.
func New() *App {
	return &App{}
}

// wailsEmitter adapts wailsRuntime.EventsEmit to the service.EventEmitter
// interface so services never import the runtime.
type wailsEmitter struct{}

func (wailsEmitter) Emit(ctx context.Context, event string, data any) {
	wailsRuntime.EventsEmit(ctx, event, data)
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "whiteboard")
	dbPath := filepath.Join(dataDir, "whiteboard.db")

	db, err := storage.New(dbPath, dataDir)
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to open database: %v", err)
		return
	}

	a.db = db
	a.sketches = storage.NewSketchStore(db)
	a.undos = storage.NewUndoStore(db)

	emitter := wailsEmitter{}
	a.sketchSvc = service.NewSketchService(a.sketches, emitter)
	a.databaseSvc = service.NewDatabaseService(storage.NewDBConnectionStore(db), secret.NewKeychainStore())
	a.importSvc = service.NewImportService(a.sketchSvc, a.databaseSvc)
	a.settingsSvc = service.NewSettingsService(db)

	a.backupSvc = service.NewBackupService(a.sketches, dataDir, emitter)
	if err := a.backupSvc.Start(service.DefaultBackupSpec); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to start backup schedule: %v", err)
	}

	// The reconciler owns the canonical element collection for the open
	// sketch. Accepted surface snapshots are persisted; outbound pushes go
	// to the surface as one event carrying the full element array.
	a.reconciler = canvas.NewReconciler(
		canvas.DefaultPolicy(),
		func(c canvas.Collection) {
			encoded, err := canvas.EncodeElements(c)
			if err != nil {
				wailsRuntime.LogErrorf(ctx, "Failed to encode push: %v", err)
				return
			}
			wailsRuntime.EventsEmit(ctx, "canvas:sync", map[string]string{
				"sketchId": a.activeSketchID,
				"elements": encoded,
			})
		},
		func(reason string, incoming, kept int) {
			wailsRuntime.LogInfof(ctx, "[sync] rejected surface snapshot (%s): incoming=%d kept=%d", reason, incoming, kept)
			wailsRuntime.EventsEmit(ctx, "sync:rejected", map[string]any{
				"reason":   reason,
				"incoming": incoming,
				"kept":     kept,
			})
		},
	)

	// File bridge: sketches exported as plain JSON, edits flow back in as
	// host-side mutations.
	bridge, err := filesync.New(filepath.Join(dataDir, "exports"), a.onExportFileChanged)
	if err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to start file bridge: %v", err)
	}
	a.bridge = bridge

	// Poll for writes from the standalone agent process sharing the SQLite
	// file, and for its pending approval requests.
	a.watcher = newSketchWatcher(ctx, a)
	a.watcher.Start()

	size := a.settingsSvc.LoadWindowSize()
	wailsRuntime.WindowSetSize(ctx, size.Width, size.Height)
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.reconciler != nil {
		a.reconciler.Flush()
	}
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.bridge != nil {
		a.bridge.Close()
	}
	if a.backupSvc != nil {
		a.backupSvc.Stop()
	}
	if a.databaseSvc != nil {
		a.databaseSvc.Close()
	}

	if a.settingsSvc != nil {
		w, h := wailsRuntime.WindowGetSize(ctx)
		a.settingsSvc.SaveWindowSize(w, h)
	}

	if a.db != nil {
		a.db.Close()
	}
}

// RespondToApproval records the user's verdict on a pending agent action.
// The standalone agent process polls the table and unblocks.
func (a *App) RespondToApproval(actionID string, approved bool) error {
	status := "rejected"
	if approved {
		status = "approved"
	}
	_, err := a.db.Conn().Exec(
		`UPDATE agent_approvals SET status = ?, decided_at = CURRENT_TIMESTAMP WHERE id = ? AND status = 'pending'`,
		status, actionID,
	)
	return err
}

// RunBackupNow triggers an immediate backup outside the cron schedule.
func (a *App) RunBackupNow() (string, error) {
	return a.backupSvc.RunBackup(a.ctx)
}
