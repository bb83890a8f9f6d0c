package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
	healthStatusNoToken      = "no token"
)

// HealthChecker serves the liveness and readiness probes of the HTTP
// transport. The server is ready while it is marked ready, its context is
// not shut down and an OAuth token is available to the Gmail tools.
type HealthChecker struct {
	ready     atomic.Bool
	sc        *ServerContext
	startTime time.Time
	version   string
}

// NewHealthChecker returns a checker that starts out ready. A nil sc passes
// the shutdown and token checks.
func NewHealthChecker(sc *ServerContext, version string) *HealthChecker {
	h := &HealthChecker{sc: sc, startTime: time.Now(), version: version}
	h.ready.Store(true)
	return h
}

// SetReady marks the server ready or draining.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

func (h *HealthChecker) hasToken() bool {
	return h.sc == nil || h.sc.HasToken()
}

func (h *HealthChecker) shuttingDown() bool {
	return h.sc != nil && h.sc.IsShutdown()
}

// readiness evaluates every check. ok is false when any check failed.
func (h *HealthChecker) readiness() (checks map[string]string, ok bool) {
	checks = map[string]string{
		"ready":       healthStatusOK,
		"shutdown":    healthStatusOK,
		"gmail_token": healthStatusOK,
	}
	ok = true
	if !h.ready.Load() {
		checks["ready"], ok = healthStatusNotReady, false
	}
	if h.shuttingDown() {
		checks["shutdown"], ok = healthStatusShuttingDown, false
	}
	if !h.hasToken() {
		checks["gmail_token"], ok = healthStatusNoToken, false
	}
	return checks, ok
}

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse is the body of /healthz/detailed.
type DetailedHealthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Version  string `json:"version,omitempty"`
	HasToken bool   `json:"has_token"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// LivenessHandler answers 200 for as long as the process serves requests.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler answers 200 when every readiness check passes and 503
// otherwise. The body lists each check.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks, ok := h.readiness()
		if !ok {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: healthStatusNotReady, Checks: checks})
			return
		}
		writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK, Checks: checks})
	})
}

// DetailedHealthHandler reports uptime, version and token presence. A
// missing token is reported but does not fail the request.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := DetailedHealthResponse{
			Status:   healthStatusOK,
			Uptime:   time.Since(h.startTime).Truncate(time.Second).String(),
			Version:  h.version,
			HasToken: h.hasToken(),
		}
		status := http.StatusOK
		switch {
		case !h.ready.Load():
			resp.Status, status = healthStatusNotReady, http.StatusServiceUnavailable
		case h.shuttingDown():
			resp.Status, status = healthStatusShuttingDown, http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	})
}

// RegisterHealthEndpoints mounts /healthz, /readyz and /healthz/detailed.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}
