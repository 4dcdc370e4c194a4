package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openclear/clearing-backend/internal/api/dto"
	"github.com/openclear/clearing-backend/internal/infrastructure/storage"
)

// RunsHandler handles clearing run-related HTTP requests.
type RunsHandler struct {
	*Base
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(repo storage.Repository) *RunsHandler {
	return &RunsHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/runs - returns recent clearing runs, newest first.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := ParseIntParam(r, "limit", 20)

	runs, err := h.repo.ListRuns(limit)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.RunListResponse{
		Runs:  make([]dto.RunResponse, 0, len(runs)),
		Count: len(runs),
	}

	for _, run := range runs {
		response.Runs = append(response.Runs, toRunResponse(run))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/runs/{id} - returns a single clearing run by ID.
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("run ID is required"))
		return
	}

	run, err := h.repo.GetRun(id)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	if run == nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("clearing run"))
		return
	}

	h.WriteJSON(w, http.StatusOK, toRunResponse(run))
}

// ListEntityResults handles GET /api/runs/{id}/entities - returns the
// per-entity outcomes of one clearing run.
func (h *RunsHandler) ListEntityResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("run ID is required"))
		return
	}

	run, err := h.repo.GetRun(id)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	if run == nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("clearing run"))
		return
	}

	results, err := h.repo.ListEntityResults(id)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.EntityResultListResponse{
		RunID:   id,
		Results: make([]dto.EntityResultResponse, 0, len(results)),
		Count:   len(results),
	}

	for _, res := range results {
		response.Results = append(response.Results, dto.EntityResultResponse{
			Entity:        res.Entity,
			Country:       res.Country,
			Exported:      res.Exported,
			Cleared:       res.Cleared,
			NoOpenItems:   res.NoOpenItems,
			ItemCount:     res.ItemCount,
			MatchedCount:  res.MatchedCount,
			ExcludedCount: res.ExcludedCount,
			PostedCount:   res.PostedCount,
			FailedCount:   res.FailedCount,
			Message:       res.Message,
		})
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// toRunResponse converts a storage ClearingRun to an API response.
func toRunResponse(run *storage.ClearingRun) dto.RunResponse {
	resp := dto.RunResponse{
		ID:           run.ID,
		StartedAt:    run.StartedAt.UTC().Format(time.RFC3339),
		Status:       run.Status,
		DryRun:       run.DryRun,
		EntityCount:  run.EntityCount,
		ItemCount:    run.ItemCount,
		MatchedCount: run.MatchedCount,
		PostedCount:  run.PostedCount,
		FailedCount:  run.FailedCount,
	}
	if !run.FinishedAt.IsZero() {
		resp.FinishedAt = run.FinishedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
