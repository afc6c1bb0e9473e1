package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHealthz(t *testing.T) {
	s := NewServer(":0")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.handleHealthz(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"pass"`) {
		t.Errorf("healthz body = %s", rec.Body.String())
	}
}

func TestReadyz(t *testing.T) {
	s := NewServer(":0")

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	s.handleReadyz(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz before ready status = %d, want 503", rec.Code)
	}

	s.SetReady(true)
	rec = httptest.NewRecorder()
	s.handleReadyz(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("readyz after ready status = %d, want 200", rec.Code)
	}

	s.SetReady(false)
	rec = httptest.NewRecorder()
	s.handleReadyz(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz after failure status = %d, want 503", rec.Code)
	}
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(Reloads)
	Reloads.Inc()
	if got := testutil.ToFloat64(Reloads); got != before+1 {
		t.Errorf("reloads counter = %v, want %v", got, before+1)
	}

	before = testutil.ToFloat64(ReloadFailures)
	ReloadFailures.Inc()
	if got := testutil.ToFloat64(ReloadFailures); got != before+1 {
		t.Errorf("failures counter = %v, want %v", got, before+1)
	}
}
