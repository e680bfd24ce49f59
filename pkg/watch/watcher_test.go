package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"counsel/pkg/config"
	"github.com/fsnotify/fsnotify"
)

func TestNew_DefaultsDebounce(t *testing.T) {
	w, err := New(t.TempDir(), nil, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Stop()

	if w.debounce != DefaultDebounce {
		t.Errorf("debounce = %v, want %v", w.debounce, DefaultDebounce)
	}
	if w.config == nil {
		t.Error("config should default")
	}
}

func TestHandleEvent_FiltersUnsupported(t *testing.T) {
	w, err := New(t.TempDir(), config.Default(), time.Second)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Stop()

	w.handleEvent(fsnotify.Event{Name: "notes.txt", Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: filepath.Join("vendor", "dep.go"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: "main.go", Op: fsnotify.Chmod})

	if len(w.pending) != 0 {
		t.Errorf("pending = %v, want empty", w.pending)
	}

	w.handleEvent(fsnotify.Event{Name: "main.go", Op: fsnotify.Write})
	if len(w.pending) != 1 {
		t.Errorf("pending = %v, want one entry", w.pending)
	}
}

func TestFlushStable_RespectsDebounce(t *testing.T) {
	w, err := New(t.TempDir(), config.Default(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Stop()

	var mu sync.Mutex
	var fired []string
	w.SetCallback(func(path string) {
		mu.Lock()
		fired = append(fired, path)
		mu.Unlock()
	})

	w.mu.Lock()
	w.pending["fresh.go"] = time.Now()
	w.pending["stale.go"] = time.Now().Add(-time.Second)
	w.mu.Unlock()

	w.flushStable()

	// announce runs in a goroutine; wait for it
	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := len(fired)
		mu.Unlock()
		if n == 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 1 || fired[0] != "stale.go" {
		t.Errorf("fired = %v, want [stale.go]", fired)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.pending["fresh.go"]; !ok {
		t.Error("fresh.go should still be pending")
	}
}

func TestHandleEvent_AddsCreatedDirectories(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, config.Default(), time.Second)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Stop()

	newDir := filepath.Join(root, "feature")
	if err := os.MkdirAll(newDir, 0o755); err != nil {
		t.Fatal(err)
	}
	excludedDir := filepath.Join(root, "vendor")
	if err := os.MkdirAll(excludedDir, 0o755); err != nil {
		t.Fatal(err)
	}

	w.handleEvent(fsnotify.Event{Name: newDir, Op: fsnotify.Create})
	w.handleEvent(fsnotify.Event{Name: excludedDir, Op: fsnotify.Create})

	foundNew := false
	for _, p := range w.WatchedPaths() {
		switch filepath.Base(p) {
		case "feature":
			foundNew = true
		case "vendor":
			t.Error("excluded directory should not be watched")
		}
	}
	if !foundNew {
		t.Errorf("created directory should be watched, got %v", w.WatchedPaths())
	}
	if len(w.pending) != 0 {
		t.Errorf("directory create should not queue analysis, pending = %v", w.pending)
	}
}

func TestStart_WatchesDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "pkg"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "vendor"), 0o755); err != nil {
		t.Fatal(err)
	}

	w, err := New(dir, config.Default(), time.Second)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Stop()

	// Walk the tree the same way Start does, without entering the event loop.
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}
		for _, excluded := range w.config.Exclude.Dirs {
			if info.Name() == excluded {
				return filepath.SkipDir
			}
		}
		return w.fsWatcher.Add(path)
	})
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	watched := w.WatchedPaths()
	foundPkg := false
	for _, p := range watched {
		if filepath.Base(p) == "vendor" {
			t.Error("vendor should be excluded from watching")
		}
		if filepath.Base(p) == "pkg" {
			foundPkg = true
		}
	}
	if !foundPkg {
		t.Errorf("pkg directory should be watched, got %v", watched)
	}
}
