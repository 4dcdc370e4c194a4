package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/openclear/clearing-backend/internal/api/dto"
)

// HealthHandler answers liveness probes for the results API.
type HealthHandler struct{}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// ServeHTTP reports the service as alive. No storage access here; the
// endpoint must stay cheap for load balancer probes.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dto.NewHealthResponse())
}
