package handlers

import (
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler reports service liveness and which persistence backend the
// server is running on.
type HealthHandler struct {
	logger    *slog.Logger
	storeMode string
	started   time.Time
}

// NewHealthHandler creates a health handler. storeMode names the active
// persistence backend ("postgres" or "memory").
func NewHealthHandler(logger *slog.Logger, storeMode string) *HealthHandler {
	return &HealthHandler{
		logger:    logger,
		storeMode: storeMode,
		started:   time.Now(),
	}
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Store     string    `json:"store"`
	Uptime    string    `json:"uptime"`
}

// ServeHTTP handles health check requests
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Store:     h.storeMode,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	})
}
