package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"merlin-playlist/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Ready    bool   `json:"ready"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Playlist summary
	Directories int `json:"directories"`
	Sounds      int `json:"sounds"`
	Favorites   int `json:"favorites"`
	Snapshots   int `json:"snapshots"`

	LastExport *time.Time `json:"lastExport,omitempty"`
}

// checkDatabase pings the snapshot store with a short timeout.
func (h *Handlers) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return errNoDatabase
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return h.db.Ping(ctx)
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	stats := h.session.GetStats()

	response := HealthResponse{
		Status:       statusHealthy,
		Ready:        true,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Database:     "ok",
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
		Directories:  stats.Directories,
		Sounds:       stats.Sounds,
		Favorites:    stats.Favorites,
		Snapshots:    stats.Snapshots,
	}

	// The playlist stays editable without the store, so this only degrades.
	if err := h.checkDatabase(r.Context()); err != nil {
		response.Status = statusDegraded
		response.Database = err.Error()
	} else if t, err := h.db.GetLastExport(r.Context()); err == nil && !t.IsZero() {
		response.LastExport = &t
	}

	writeJSONStatusCode(w, response, http.StatusOK)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the snapshot store answers
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.checkDatabase(r.Context()); err != nil {
		writeJSONStatusCode(w, map[string]string{
			"status": "not_ready",
			"error":  err.Error(),
		}, http.StatusServiceUnavailable)
		return
	}
	writeJSONStatusCode(w, map[string]string{"status": "ready"}, http.StatusOK)
}
