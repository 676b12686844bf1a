// Package v1 holds the HTTP surface shared by all three processes:
// a single GET /health endpoint, per spec.md §4.6.
package v1

import (
	"encoding/json"
	"net/http"

	"priceflow/internal/core/port"
)

// HealthHandler serves a process's liveness snapshot as JSON.
type HealthHandler struct {
	provider port.HealthProvider
}

func NewHealthHandler(provider port.HealthProvider) *HealthHandler {
	return &HealthHandler{provider: provider}
}

// Register mounts the handler at GET /health on mux.
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handle)
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	status := h.provider.Health()

	statusCode := http.StatusOK
	if !status.Healthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
