package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestIsDataMarker(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"data symlink", "/etc/pgbouncer/..data", true},
		{"timestamped data dir", "/etc/pgbouncer/..data_tmp", true},
		{"regular config file", "/etc/pgbouncer/pgbouncer.ini", false},
		{"userlist", "/etc/userlist/userlist.txt", false},
		{"timestamp dir", "/etc/pgbouncer/..2024_01_01", false},
		{"data marker in nested dir", "/etc/pgbouncer/nested/..data", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDataMarker(tt.path); got != tt.expected {
				t.Errorf("isDataMarker(%q) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}

// startWatcher runs w.Run in the background and returns a cancel func
// the test can defer.
func startWatcher(t *testing.T, w *Watcher) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		w.Close()
		<-done
	})
	return cancel
}

func TestWatcher_ReloadOnDataMarker(t *testing.T) {
	dir := t.TempDir()
	fired := make(chan struct{}, 1)

	w, err := New([]string{dir}, 50*time.Millisecond, func(ctx context.Context) {
		fired <- struct{}{}
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	startWatcher(t, w)

	if err := os.WriteFile(filepath.Join(dir, "..data"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("reload callback not fired after data marker create")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	var fired atomic.Int32

	w, err := New([]string{dir}, 50*time.Millisecond, func(ctx context.Context) {
		fired.Add(1)
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	startWatcher(t, w)

	if err := os.WriteFile(filepath.Join(dir, "pgbouncer.ini"), []byte("[databases]"), 0644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	if n := fired.Load(); n != 0 {
		t.Errorf("reload fired %d times for non-marker file, want 0", n)
	}
}

func TestWatcher_CollapsesBurst(t *testing.T) {
	dir := t.TempDir()
	var fired atomic.Int32

	w, err := New([]string{dir}, 100*time.Millisecond, func(ctx context.Context) {
		fired.Add(1)
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	startWatcher(t, w)

	for i := 0; i < 3; i++ {
		name := filepath.Join(dir, "..data_tmp"+string(rune('a'+i)))
		if err := os.WriteFile(name, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	// One debounce window after the last event, plus slack.
	time.Sleep(500 * time.Millisecond)
	if n := fired.Load(); n != 1 {
		t.Errorf("reload fired %d times for event burst, want 1", n)
	}
}

func TestWatcher_WatchesMovedInTree(t *testing.T) {
	dir := t.TempDir()

	// A populated tree assembled elsewhere and renamed into the watched
	// directory, the way an installer or mount refresh would.
	staging := filepath.Join(t.TempDir(), "conf")
	nested := filepath.Join(staging, "inner", "deep")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	fired := make(chan struct{}, 1)
	w, err := New([]string{dir}, 50*time.Millisecond, func(ctx context.Context) {
		fired <- struct{}{}
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	startWatcher(t, w)

	if err := os.Rename(staging, filepath.Join(dir, "conf")); err != nil {
		t.Fatal(err)
	}

	// Give the event loop time to walk the new tree before the marker
	// lands in its deepest directory.
	time.Sleep(300 * time.Millisecond)

	marker := filepath.Join(dir, "conf", "inner", "deep", "..data")
	if err := os.WriteFile(marker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("reload callback not fired for marker in moved-in subdirectory")
	}
}

func TestWatcher_SkipsMissingPaths(t *testing.T) {
	dir := t.TempDir()

	w, err := New([]string{filepath.Join(dir, "missing"), dir}, time.Second, func(ctx context.Context) {})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	if got := w.Watched(); got != 1 {
		t.Errorf("Watched() = %d, want 1", got)
	}
}

func TestWatcher_WatchesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}

	fired := make(chan struct{}, 1)
	w, err := New([]string{dir}, 50*time.Millisecond, func(ctx context.Context) {
		fired <- struct{}{}
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := w.Watched(); got != 2 {
		t.Errorf("Watched() = %d, want 2", got)
	}
	startWatcher(t, w)

	if err := os.WriteFile(filepath.Join(sub, "..data"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("reload callback not fired for marker in subdirectory")
	}
}
