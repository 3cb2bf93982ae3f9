package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	mcpserver "whiteboard/internal/mcp"
	"whiteboard/internal/secret"
	"whiteboard/internal/service"
	"whiteboard/internal/storage"
)

// noopEmitter is a no-op EventEmitter used in MCP-only mode (no Wails frontend).
type noopEmitter struct{}

func (noopEmitter) Emit(_ context.Context, _ string, _ any) {}

// ServeMCP runs the app as a standalone MCP server on stdin/stdout with no
// GUI. It shares the SQLite file with the desktop app; the desktop app's
// watcher picks up every write, and approvals round-trip through the
// agent_approvals table.
func ServeMCP() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "whiteboard")
	dbPath := filepath.Join(dataDir, "whiteboard.db")

	db, err := storage.New(dbPath, dataDir)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	emitter := noopEmitter{}

	sketchSvc := service.NewSketchService(storage.NewSketchStore(db), emitter)
	databaseSvc := service.NewDatabaseService(storage.NewDBConnectionStore(db), secret.NewKeychainStore())
	defer databaseSvc.Close()
	importSvc := service.NewImportService(sketchSvc, databaseSvc)
	settingsSvc := service.NewSettingsService(db)

	mcpSrv := mcpserver.New(ctx, mcpserver.Deps{
		Emitter:    emitter,
		Sketches:   sketchSvc,
		Database:   databaseSvc,
		Importer:   importSvc,
		Settings:   settingsSvc,
		ApprovalDB: db.Conn(), // Enable SQLite-based approval IPC
	})

	log.Println("[MCP] Starting standalone stdio server...")
	if err := mcpSrv.ServeStdio(); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
