package filesync

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// SketchChangedHandler is called when a watched export file changes on disk.
// content is the raw JSON element array.
type SketchChangedHandler func(sketchID string, content string)

// Bridge round-trips sketches through plain JSON files so external editors
// and scripts can modify a diagram. Export writes the file; when anything
// saves it, the watcher fires and hands the new content back to the app.
type Bridge struct {
	watcher  *fsnotify.Watcher
	onChange SketchChangedHandler
	dir      string
	mu       sync.RWMutex
	watching map[string]string // filePath -> sketchID
	// suppress holds paths whose next write event is our own Export.
	suppress map[string]bool
}

// New creates a bridge that exports into dir.
func New(dir string, onChange SketchChangedHandler) (*Bridge, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	b := &Bridge{
		watcher:  watcher,
		onChange: onChange,
		dir:      dir,
		watching: make(map[string]string),
		suppress: make(map[string]bool),
	}

	go b.watchLoop()

	return b, nil
}

// ExportPath returns the file a sketch exports to.
func (b *Bridge) ExportPath(sketchName string) string {
	return filepath.Join(b.dir, sanitizeName(sketchName)+".json")
}

// Export writes the sketch's element JSON to its export file. The write is
// marked so the watcher does not feed it straight back.
func (b *Bridge) Export(sketchID, sketchName, elementsJSON string) (string, error) {
	path := b.ExportPath(sketchName)
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	if _, watched := b.watching[absPath]; watched {
		b.suppress[absPath] = true
	}
	b.mu.Unlock()

	if err := os.WriteFile(absPath, []byte(elementsJSON), 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return absPath, nil
}

// Watch starts feeding external edits of a sketch's export file back to the
// handler. The file must have been exported first.
func (b *Bridge) Watch(sketchID, sketchName string) error {
	absPath, err := filepath.Abs(b.ExportPath(sketchName))
	if err != nil {
		return err
	}
	if _, err := os.Stat(absPath); err != nil {
		return fmt.Errorf("watch export: %w", err)
	}

	b.mu.Lock()
	b.watching[absPath] = sketchID
	b.mu.Unlock()

	// fsnotify watches directories for file events
	return b.watcher.Add(filepath.Dir(absPath))
}

// StopWatching stops feeding edits for one sketch.
func (b *Bridge) StopWatching(sketchID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for path, id := range b.watching {
		if id == sketchID {
			delete(b.watching, path)
			delete(b.suppress, path)
			break
		}
	}
}

// Close stops the watcher.
func (b *Bridge) Close() error {
	return b.watcher.Close()
}

func (b *Bridge) watchLoop() {
	for {
		select {
		case event, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) {
				continue
			}
			absPath, _ := filepath.Abs(event.Name)

			b.mu.Lock()
			sketchID, watched := b.watching[absPath]
			skip := b.suppress[absPath]
			delete(b.suppress, absPath)
			b.mu.Unlock()

			if !watched || skip {
				continue
			}

			content, err := os.ReadFile(absPath)
			if err != nil {
				log.Printf("filesync: read %s: %v", absPath, err)
				continue
			}
			if b.onChange != nil {
				b.onChange(sketchID, strings.TrimSpace(string(content)))
			}
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("filesync: watcher error: %v", err)
		}
	}
}

// sanitizeName makes a sketch name safe as a file name.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "untitled"
	}
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "_")
	return replacer.Replace(name)
}
