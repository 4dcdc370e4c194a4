package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclear/clearing-backend/internal/api/dto"
	"github.com/openclear/clearing-backend/internal/api/handlers"
	"github.com/openclear/clearing-backend/internal/infrastructure/storage"
)

func seedRun(t *testing.T, repo *storage.MockRepository, id string, startedAt time.Time) *storage.ClearingRun {
	t.Helper()
	run := &storage.ClearingRun{
		ID:           id,
		StartedAt:    startedAt,
		FinishedAt:   startedAt.Add(2 * time.Minute),
		Status:       storage.RunStatusCompleted,
		EntityCount:  3,
		ItemCount:    120,
		MatchedCount: 80,
		PostedCount:  78,
		FailedCount:  2,
	}
	require.NoError(t, repo.SaveRun(run))
	return run
}

func requestWithID(method, target, id string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestRunsHandler_List(t *testing.T) {
	t.Run("returns empty list when no runs", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewRunsHandler(repo)

		req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.RunListResponse
		err := json.NewDecoder(rec.Body).Decode(&response)
		require.NoError(t, err)

		assert.Empty(t, response.Runs)
		assert.Equal(t, 0, response.Count)
	})

	t.Run("returns runs newest first", func(t *testing.T) {
		repo := storage.NewMockRepository()
		base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		seedRun(t, repo, "run-old", base)
		seedRun(t, repo, "run-new", base.Add(time.Hour))

		handler := handlers.NewRunsHandler(repo)

		req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.RunListResponse
		err := json.NewDecoder(rec.Body).Decode(&response)
		require.NoError(t, err)

		require.Equal(t, 2, response.Count)
		assert.Equal(t, "run-new", response.Runs[0].ID)
		assert.Equal(t, "run-old", response.Runs[1].ID)
	})

	t.Run("respects limit parameter", func(t *testing.T) {
		repo := storage.NewMockRepository()
		base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		seedRun(t, repo, "run-a", base)
		seedRun(t, repo, "run-b", base.Add(time.Hour))
		seedRun(t, repo, "run-c", base.Add(2*time.Hour))

		handler := handlers.NewRunsHandler(repo)

		req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=2", nil)
		rec := httptest.NewRecorder()

		handler.List(rec, req)

		var response dto.RunListResponse
		err := json.NewDecoder(rec.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, 2, response.Count)
		assert.Equal(t, "run-c", response.Runs[0].ID)
	})
}

func TestRunsHandler_Get(t *testing.T) {
	t.Run("returns run by ID", func(t *testing.T) {
		repo := storage.NewMockRepository()
		started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		seedRun(t, repo, "run-1", started)

		handler := handlers.NewRunsHandler(repo)

		req := requestWithID(http.MethodGet, "/api/runs/run-1", "run-1")
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.RunResponse
		err := json.NewDecoder(rec.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, "run-1", response.ID)
		assert.Equal(t, "completed", response.Status)
		assert.Equal(t, "2026-03-02T09:00:00Z", response.StartedAt)
		assert.Equal(t, "2026-03-02T09:02:00Z", response.FinishedAt)
		assert.Equal(t, 80, response.MatchedCount)
	})

	t.Run("returns 404 for unknown run", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewRunsHandler(repo)

		req := requestWithID(http.MethodGet, "/api/runs/missing", "missing")
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)

		var apiErr dto.APIError
		err := json.NewDecoder(rec.Body).Decode(&apiErr)
		require.NoError(t, err)
		assert.Equal(t, dto.ErrCodeNotFound, apiErr.Code)
	})

	t.Run("returns 400 for empty ID", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewRunsHandler(repo)

		req := requestWithID(http.MethodGet, "/api/runs/", "")
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRunsHandler_ListEntityResults(t *testing.T) {
	t.Run("returns entity outcomes ordered by entity", func(t *testing.T) {
		repo := storage.NewMockRepository()
		started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		seedRun(t, repo, "run-1", started)

		require.NoError(t, repo.SaveEntityResult(&storage.EntityResult{
			RunID: "run-1", Entity: "1052", Country: "DE",
			Exported: true, Cleared: true,
			ItemCount: 40, MatchedCount: 30, PostedCount: 30,
		}))
		require.NoError(t, repo.SaveEntityResult(&storage.EntityResult{
			RunID: "run-1", Entity: "0073", Country: "CH",
			NoOpenItems: true, Message: "no open items",
		}))

		handler := handlers.NewRunsHandler(repo)

		req := requestWithID(http.MethodGet, "/api/runs/run-1/entities", "run-1")
		rec := httptest.NewRecorder()

		handler.ListEntityResults(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.EntityResultListResponse
		err := json.NewDecoder(rec.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, "run-1", response.RunID)
		require.Equal(t, 2, response.Count)
		assert.Equal(t, "0073", response.Results[0].Entity)
		assert.True(t, response.Results[0].NoOpenItems)
		assert.Equal(t, "1052", response.Results[1].Entity)
		assert.Equal(t, 30, response.Results[1].PostedCount)
	})

	t.Run("returns 404 when run does not exist", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewRunsHandler(repo)

		req := requestWithID(http.MethodGet, "/api/runs/missing/entities", "missing")
		rec := httptest.NewRecorder()

		handler.ListEntityResults(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("returns empty result list for run without outcomes", func(t *testing.T) {
		repo := storage.NewMockRepository()
		seedRun(t, repo, "run-1", time.Now())

		handler := handlers.NewRunsHandler(repo)

		req := requestWithID(http.MethodGet, "/api/runs/run-1/entities", "run-1")
		rec := httptest.NewRecorder()

		handler.ListEntityResults(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.EntityResultListResponse
		err := json.NewDecoder(rec.Body).Decode(&response)
		require.NoError(t, err)
		assert.Equal(t, 0, response.Count)
	})
}

func TestStatsHandler_Get(t *testing.T) {
	t.Run("aggregates run history", func(t *testing.T) {
		repo := storage.NewMockRepository()
		base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		seedRun(t, repo, "run-a", base)
		seedRun(t, repo, "run-b", base.Add(time.Hour))

		handler := handlers.NewStatsHandler(repo)

		req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.StatsResponse
		err := json.NewDecoder(rec.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, 2, response.TotalRuns)
		assert.Equal(t, 2, response.CompletedRuns)
		assert.Equal(t, 160, response.TotalItemsMatched)
		assert.Equal(t, 156, response.TotalItemsPosted)
		assert.Equal(t, "2026-03-02T10:00:00Z", response.LastRunAt)
	})

	t.Run("returns zeroes for empty history", func(t *testing.T) {
		repo := storage.NewMockRepository()
		handler := handlers.NewStatsHandler(repo)

		req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.StatsResponse
		err := json.NewDecoder(rec.Body).Decode(&response)
		require.NoError(t, err)

		assert.Equal(t, 0, response.TotalRuns)
		assert.Empty(t, response.LastRunAt)
	})
}
