// Package watcher watches PgBouncer configuration directories and fires
// a reload callback when Kubernetes swaps in updated ConfigMap contents.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wallarm/pgbouncer-config-reload/internal/logger"
	"github.com/wallarm/pgbouncer-config-reload/internal/metrics"
)

// dataMarkerPrefix is the name Kubernetes gives the symlink it swaps in
// when a mounted ConfigMap or Secret is updated. Its creation is the
// one reliable signal that every projected file is in its final state.
const dataMarkerPrefix = "..data"

// Watcher watches directories for ConfigMap updates and debounces them
// into reload callbacks.
type Watcher struct {
	fsw      *fsnotify.Watcher
	delay    time.Duration
	onReload func(context.Context)
	watched  int
}

// New creates a watcher over the given directories. Paths that do not
// exist or are not directories are logged and skipped, matching the
// daemon's long-standing tolerance for partially mounted volumes.
func New(paths []string, delay time.Duration, onReload func(context.Context)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		delay:    delay,
		onReload: onReload,
	}

	for _, path := range paths {
		fi, err := os.Stat(path)
		if err != nil || !fi.IsDir() {
			logger.Warn("Path is not a directory or does not exist, skipping", "path", path)
			continue
		}
		w.addRecursive(path)
	}

	metrics.WatchedDirectories.Set(float64(w.watched))
	return w, nil
}

// addRecursive adds dir and every subdirectory to the watch set.
func (w *Watcher) addRecursive(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Failed to walk path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			logger.Warn("Failed to watch directory", "path", path, "error", err)
			return nil
		}
		logger.Info("Watching path", "path", path)
		w.watched++
		return nil
	})
}

// Watched reports how many directories are under watch.
func (w *Watcher) Watched() int {
	return w.watched
}

// Run processes filesystem events until ctx is canceled. A create event
// for a data marker arms the debounce timer; further events inside the
// window reset it, so an update burst collapses into one reload.
func (w *Watcher) Run(ctx context.Context) error {
	timer := time.NewTimer(w.delay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	logger.Info("Entering event loop")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event, timer)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("Watch error", "error", err)

		case <-timer.C:
			w.onReload(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event, timer *time.Timer) {
	if !event.Has(fsnotify.Create) {
		return
	}

	logger.Debug("CREATE event", "path", event.Name)

	// New subdirectories join the watch set so nested ConfigMap mounts
	// stay covered. A tree moved into place arrives as one create event
	// for its root, so the whole tree is walked. Lstat keeps the ..data
	// symlink itself out of this.
	if fi, err := os.Lstat(event.Name); err == nil && fi.IsDir() {
		w.addRecursive(event.Name)
		metrics.WatchedDirectories.Set(float64(w.watched))
		return
	}

	if !isDataMarker(event.Name) {
		return
	}

	logger.Info("Configuration updated, scheduling reload", "path", event.Name, "delay", w.delay)
	metrics.ConfigEvents.Inc()

	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(w.delay)
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// isDataMarker reports whether path names a Kubernetes ConfigMap data
// marker.
func isDataMarker(path string) bool {
	return strings.HasPrefix(filepath.Base(path), dataMarkerPrefix)
}
