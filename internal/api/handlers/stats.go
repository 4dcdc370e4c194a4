package handlers

import (
	"net/http"
	"time"

	"github.com/openclear/clearing-backend/internal/api/dto"
	"github.com/openclear/clearing-backend/internal/infrastructure/storage"
)

// StatsHandler handles stats-related HTTP requests.
type StatsHandler struct {
	*Base
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(repo storage.Repository) *StatsHandler {
	return &StatsHandler{
		Base: NewBase(repo),
	}
}

// Get handles GET /api/stats - returns aggregate run-history statistics.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.GetStats()
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.StatsResponse{
		TotalRuns:         stats.TotalRuns,
		CompletedRuns:     stats.CompletedRuns,
		FailedRuns:        stats.FailedRuns,
		TotalItemsMatched: stats.TotalItemsMatched,
		TotalItemsPosted:  stats.TotalItemsPosted,
	}
	if !stats.LastRunAt.IsZero() {
		response.LastRunAt = stats.LastRunAt.UTC().Format(time.RFC3339)
	}

	h.WriteJSON(w, http.StatusOK, response)
}
