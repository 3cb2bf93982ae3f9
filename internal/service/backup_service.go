package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/robfig/cron/v3"

	"whiteboard/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Backup Service — scheduled sketch snapshots on disk
// ─────────────────────────────────────────────────────────────

// DefaultBackupSpec runs a backup every night at 03:00.
const DefaultBackupSpec = "0 3 * * *"

// maxBackupSets is how many timestamped backup directories are retained.
const maxBackupSets = 14

// BackupService periodically dumps every sketch to a timestamped JSON
// directory under the data dir, so a corrupted database never takes the
// diagrams with it.
type BackupService struct {
	sketches *storage.SketchStore
	dir      string
	sched    *cron.Cron
	emitter  EventEmitter
}

func NewBackupService(sketches *storage.SketchStore, dataDir string, emitter EventEmitter) *BackupService {
	return &BackupService{
		sketches: sketches,
		dir:      filepath.Join(dataDir, "backups"),
		emitter:  emitter,
	}
}

// Start schedules backups with the given cron spec; an empty spec uses the
// default nightly schedule.
func (s *BackupService) Start(spec string) error {
	if spec == "" {
		spec = DefaultBackupSpec
	}
	s.sched = cron.New()
	_, err := s.sched.AddFunc(spec, func() {
		if _, err := s.RunBackup(context.Background()); err != nil {
			log.Printf("backup: scheduled run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule backup: %w", err)
	}
	s.sched.Start()
	return nil
}

// Stop halts the scheduler, letting a running backup finish.
func (s *BackupService) Stop() {
	if s.sched != nil {
		<-s.sched.Stop().Done()
	}
}

// RunBackup writes one backup set and prunes old ones. Returns the
// directory it wrote.
func (s *BackupService) RunBackup(ctx context.Context) (string, error) {
	sketches, err := s.sketches.ListSketches()
	if err != nil {
		return "", fmt.Errorf("backup: list sketches: %w", err)
	}

	setDir := filepath.Join(s.dir, time.Now().Format("2006-01-02T15-04-05"))
	if err := os.MkdirAll(setDir, 0755); err != nil {
		return "", fmt.Errorf("backup: create dir: %w", err)
	}

	for _, meta := range sketches {
		sk, err := s.sketches.GetSketch(meta.ID)
		if err != nil {
			log.Printf("backup: skip sketch %s: %v", meta.ID, err)
			continue
		}
		payload, err := json.MarshalIndent(sk, "", "  ")
		if err != nil {
			log.Printf("backup: skip sketch %s: %v", meta.ID, err)
			continue
		}
		path := filepath.Join(setDir, sk.ID+".json")
		if err := os.WriteFile(path, payload, 0644); err != nil {
			return "", fmt.Errorf("backup: write %s: %w", path, err)
		}
	}

	s.prune()
	s.emitter.Emit(ctx, "backup:completed", map[string]any{
		"dir":      setDir,
		"sketches": len(sketches),
	})
	return setDir, nil
}

// prune removes the oldest backup sets beyond the retention limit.
func (s *BackupService) prune() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}
	var sets []string
	for _, e := range entries {
		if e.IsDir() {
			sets = append(sets, e.Name())
		}
	}
	if len(sets) <= maxBackupSets {
		return
	}
	sort.Strings(sets) // timestamped names sort chronologically
	for _, name := range sets[:len(sets)-maxBackupSets] {
		if err := os.RemoveAll(filepath.Join(s.dir, name)); err != nil {
			log.Printf("backup: prune %s: %v", name, err)
		}
	}
}
