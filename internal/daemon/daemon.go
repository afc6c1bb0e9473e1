// Package daemon wires the watcher, the admin client, and the ops
// listener into the pgbouncer-config-reload process.
package daemon

import (
	"context"
	"time"

	"github.com/wallarm/pgbouncer-config-reload/internal/admin"
	"github.com/wallarm/pgbouncer-config-reload/internal/config"
	"github.com/wallarm/pgbouncer-config-reload/internal/logger"
	"github.com/wallarm/pgbouncer-config-reload/internal/metrics"
	"github.com/wallarm/pgbouncer-config-reload/internal/watcher"
)

// reloadTimeout bounds a single connect-and-RELOAD round trip.
const reloadTimeout = 30 * time.Second

// Daemon is the config-reload sidecar.
type Daemon struct {
	cfg     *config.Config
	client  *admin.Client
	watcher *watcher.Watcher
	ops     *metrics.Server
}

// New assembles a daemon from validated configuration.
func New(cfg *config.Config) (*Daemon, error) {
	d := &Daemon{
		cfg:    cfg,
		client: admin.NewClient(cfg.Connection),
	}

	w, err := watcher.New(cfg.WatchPaths(), cfg.ReloadDelay(), d.reload)
	if err != nil {
		return nil, err
	}
	d.watcher = w

	if cfg.MetricsAddr != "" {
		d.ops = metrics.NewServer(cfg.MetricsAddr)
	}

	return d, nil
}

// Run blocks until ctx is canceled, then shuts down cleanly.
func (d *Daemon) Run(ctx context.Context) error {
	if d.ops != nil {
		go d.ops.Start()
	}

	// Initial console contact decides starting readiness. A failure is
	// not fatal; PgBouncer may simply not be up yet.
	pingCtx, cancel := context.WithTimeout(ctx, reloadTimeout)
	if err := d.client.Ping(pingCtx); err != nil {
		logger.Warn("PgBouncer admin console not reachable yet", "error", err)
		d.setReady(false)
	} else {
		d.setReady(true)
	}
	cancel()

	err := d.watcher.Run(ctx)

	d.watcher.Close()
	if d.ops != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := d.ops.Shutdown(shutdownCtx); serr != nil {
			logger.Warn("Ops listener shutdown failed", "error", serr)
		}
	}

	return err
}

// reload issues RELOAD once the watcher's debounce window closes.
// Failures are logged and counted but never stop the event loop; the
// next config change gets another chance.
func (d *Daemon) reload(ctx context.Context) {
	reloadCtx, cancel := context.WithTimeout(ctx, reloadTimeout)
	defer cancel()

	if err := d.client.Reload(reloadCtx); err != nil {
		logger.Error("Failed to RELOAD pgbouncer", "error", err)
		metrics.ReloadFailures.Inc()
		d.setReady(false)
		return
	}

	metrics.Reloads.Inc()
	metrics.LastReloadTimestamp.SetToCurrentTime()
	d.setReady(true)
}

func (d *Daemon) setReady(ready bool) {
	if d.ops != nil {
		d.ops.SetReady(ready)
	}
}
