// Package library keeps the catalog of finished recordings and announces new
// ones to the rest of the app.
package library

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sperrystudios/screenrecorder/internal/logging"
)

// Recording is one file in the output directory.
type Recording struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Path        string    `json:"-"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"modTime"`
}

type ChangeKind int

const (
	Added    ChangeKind = iota // a finished recording was indexed
	Reloaded                   // the directory changed outside the app
)

type Change struct {
	Kind      ChangeKind
	Recording Recording // set for Added
}

var namePattern = regexp.MustCompile(`^ScreenRecord_(\d{4}-\d{2}-\d{2})_(\d{2})-(\d{2})-(\d{2})(?:_(\d+))?\.mp4$`)

// Index is the in-memory catalog of the output directory.
type Index struct {
	dir           string
	rescanCommand string

	mu    sync.RWMutex
	items map[string]Recording
	subs  []func(Change)
}

// NewIndex creates an index of dir. rescanCommand, when set, is run after
// every new recording with {path} replaced by the file path.
func NewIndex(dir, rescanCommand string) *Index {
	return &Index{
		dir:           dir,
		rescanCommand: rescanCommand,
		items:         make(map[string]Recording),
	}
}

func (i *Index) Dir() string {
	return i.dir
}

// Subscribe registers fn for every later change. fn runs on the goroutine
// that caused the change and must not block.
func (i *Index) Subscribe(fn func(Change)) {
	i.mu.Lock()
	i.subs = append(i.subs, fn)
	i.mu.Unlock()
}

// Load replaces the catalog with the mp4 files currently in the directory.
func (i *Index) Load() error {
	entries, err := os.ReadDir(i.dir)
	if err != nil {
		if os.IsNotExist(err) {
			i.mu.Lock()
			i.items = make(map[string]Recording)
			i.mu.Unlock()
			return nil
		}
		return fmt.Errorf("failed to read recordings directory: %w", err)
	}

	items := make(map[string]Recording)
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".mp4") {
			continue
		}
		rec, err := stat(filepath.Join(i.dir, e.Name()))
		if err != nil {
			logging.WarningLogger.Printf("Skipping %s: %v", e.Name(), err)
			continue
		}
		items[rec.Name] = rec
	}

	i.mu.Lock()
	i.items = items
	i.mu.Unlock()
	logging.Trace("Library loaded %d recordings from %s", len(items), i.dir)
	return nil
}

// Rescan indexes a newly finished recording. Failures are logged only.
func (i *Index) Rescan(path string) {
	rec, err := stat(path)
	if err != nil {
		logging.ErrorLogger.Printf("Rescan of %s failed: %v", path, err)
		return
	}

	i.mu.Lock()
	i.items[rec.Name] = rec
	i.mu.Unlock()
	logging.InfoLogger.Printf("Indexed %s (%d bytes)", rec.Name, rec.Size)

	i.notify(Change{Kind: Added, Recording: rec})

	if i.rescanCommand != "" {
		i.runRescanCommand(path)
	}
}

// List returns the recordings, newest first.
func (i *Index) List() []Recording {
	i.mu.RLock()
	list := make([]Recording, 0, len(i.items))
	for _, rec := range i.items {
		list = append(list, rec)
	}
	i.mu.RUnlock()

	sort.Slice(list, func(a, b int) bool {
		if !list[a].ModTime.Equal(list[b].ModTime) {
			return list[a].ModTime.After(list[b].ModTime)
		}
		return list[a].Name > list[b].Name
	})
	return list
}

// Watch reloads the catalog whenever files are created, removed or renamed
// in the directory. It returns when ctx is done.
func (i *Index) Watch(ctx context.Context) error {
	if err := os.MkdirAll(i.dir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create recordings directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("library watcher failed: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(i.dir); err != nil {
		return fmt.Errorf("library watch of %s failed: %w", i.dir, err)
	}
	logging.InfoLogger.Printf("Watching %s for changes", i.dir)

	for {
		select {
		case <-ctx.Done():
			logging.InfoLogger.Println("Library watch has ended")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := i.Load(); err != nil {
				logging.ErrorLogger.Printf("%v", err)
				continue
			}
			i.notify(Change{Kind: Reloaded})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.WarningLogger.Printf("Library watcher error: %v", err)
		}
	}
}

func (i *Index) notify(c Change) {
	i.mu.RLock()
	subs := append(([]func(Change))(nil), i.subs...)
	i.mu.RUnlock()
	for _, fn := range subs {
		fn(c)
	}
}

func (i *Index) runRescanCommand(path string) {
	fields := strings.Fields(i.rescanCommand)
	for n, f := range fields {
		fields[n] = strings.ReplaceAll(f, "{path}", path)
	}

	cmd := exec.Command(fields[0], fields[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		logging.WarningLogger.Printf("Rescan command %q failed: %v: %s", cmd.String(), err, strings.TrimSpace(string(out)))
		return
	}
	logging.Trace("Rescan command done: %s", cmd.String())
}

func stat(path string) (Recording, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Recording{}, err
	}
	if info.IsDir() {
		return Recording{}, fmt.Errorf("%s is a directory", path)
	}
	name := filepath.Base(path)
	return Recording{
		Name:        name,
		DisplayName: DisplayName(name),
		Path:        path,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
	}, nil
}

// DisplayName turns ScreenRecord_2024-05-01_14-03-22.mp4 into
// "2024-05-01 14:03:22", and ScreenRecord_2024-05-01_14-03-22_1.mp4 into
// "2024-05-01 14:03:22 (2)". Other names are returned unchanged.
func DisplayName(name string) string {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return name
	}
	display := fmt.Sprintf("%s %s:%s:%s", m[1], m[2], m[3], m[4])
	if m[5] != "" {
		n, _ := strconv.Atoi(m[5])
		display = fmt.Sprintf("%s (%d)", display, n+1)
	}
	return display
}
