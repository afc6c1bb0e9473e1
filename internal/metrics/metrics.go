// Package metrics exposes prometheus instrumentation for the reload daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConfigEvents counts filesystem events that matched the ConfigMap
	// update marker and armed a reload.
	ConfigEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pgbouncer_config_reload_events_total",
		Help: "Configuration change events that triggered a reload timer.",
	})

	// Reloads counts successful RELOAD commands.
	Reloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pgbouncer_config_reload_reloads_total",
		Help: "Successful RELOAD commands issued to PgBouncer.",
	})

	// ReloadFailures counts RELOAD commands that returned an error.
	ReloadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pgbouncer_config_reload_failures_total",
		Help: "RELOAD commands that failed.",
	})

	// LastReloadTimestamp is the unix time of the last successful reload.
	LastReloadTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pgbouncer_config_reload_last_reload_timestamp_seconds",
		Help: "Unix timestamp of the last successful reload.",
	})

	// WatchedDirectories is the number of directories under watch.
	WatchedDirectories = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pgbouncer_config_reload_watched_directories",
		Help: "Number of directories currently being watched.",
	})
)
