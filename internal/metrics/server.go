package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wallarm/pgbouncer-config-reload/internal/logger"
)

// Server serves /metrics and the Kubernetes health probes.
type Server struct {
	httpServer *http.Server
	ready      atomic.Bool
	startTime  time.Time
}

// NewServer creates the ops listener on addr.
func NewServer(addr string) *Server {
	s := &Server{startTime: time.Now()}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// SetReady marks the daemon ready (admin console reachable). Readiness
// drops on reload failure and recovers on the next success.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Ready reports the current readiness state.
func (s *Server) Ready() bool {
	return s.ready.Load()
}

// Start runs the listener until Shutdown is called.
func (s *Server) Start() {
	logger.Info("Ops listener starting", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Ops listener failed", "error", err)
	}
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handleHealthz is the liveness probe: the process is up and the event
// loop has not deadlocked.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "pass",
		"uptime": time.Since(s.startTime).String(),
	})
}

// handleReadyz is the readiness probe: the PgBouncer admin console was
// reachable on the last contact.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "fail",
			"message": "pgbouncer admin console unreachable",
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "pass",
		"uptime": time.Since(s.startTime).String(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}
