package api_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclear/clearing-backend/internal/api"
	"github.com/openclear/clearing-backend/internal/api/dto"
	"github.com/openclear/clearing-backend/internal/infrastructure/storage"
)

func newTestServer(t *testing.T) (*api.Server, *storage.MockRepository) {
	t.Helper()
	repo := storage.NewMockRepository()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	server := api.NewServer(api.DefaultConfig(), repo, logger)
	return server, repo
}

func seedRun(t *testing.T, repo *storage.MockRepository, id string) {
	t.Helper()
	require.NoError(t, repo.SaveRun(&storage.ClearingRun{
		ID:           id,
		StartedAt:    time.Now().UTC(),
		FinishedAt:   time.Now().UTC().Add(time.Minute),
		Status:       storage.RunStatusCompleted,
		EntityCount:  2,
		ItemCount:    50,
		MatchedCount: 40,
		PostedCount:  38,
		FailedCount:  2,
	}))
}

func TestServer_HealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.HealthResponse
	err := json.NewDecoder(rec.Body).Decode(&response)
	require.NoError(t, err)
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "clearing-results-api", response.Service)
}

func TestServer_RunsEndpoints(t *testing.T) {
	t.Run("GET /api/runs lists runs", func(t *testing.T) {
		server, repo := newTestServer(t)
		seedRun(t, repo, "run-1")
		seedRun(t, repo, "run-2")

		req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.RunListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 2, response.Count)
	})

	t.Run("GET /api/runs/{id} returns one run", func(t *testing.T) {
		server, repo := newTestServer(t)
		seedRun(t, repo, "run-1")

		req := httptest.NewRequest(http.MethodGet, "/api/runs/run-1", nil)
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.RunResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "run-1", response.ID)
		assert.Equal(t, 38, response.PostedCount)
	})

	t.Run("GET /api/runs/{id} unknown run is 404", func(t *testing.T) {
		server, _ := newTestServer(t)

		req := httptest.NewRequest(http.MethodGet, "/api/runs/ghost", nil)
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("GET /api/runs/{id}/entities returns outcomes", func(t *testing.T) {
		server, repo := newTestServer(t)
		seedRun(t, repo, "run-1")
		require.NoError(t, repo.SaveEntityResult(&storage.EntityResult{
			RunID: "run-1", Entity: "1052", Country: "DE", Exported: true, Cleared: true, PostedCount: 20,
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/runs/run-1/entities", nil)
		rec := httptest.NewRecorder()

		server.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dto.EntityResultListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, 1, response.Count)
		assert.Equal(t, "1052", response.Results[0].Entity)
	})
}

func TestServer_StatsEndpoint(t *testing.T) {
	server, repo := newTestServer(t)
	seedRun(t, repo, "run-1")

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.StatsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, 1, response.TotalRuns)
	assert.Equal(t, 40, response.TotalItemsMatched)
}

func TestServer_UnknownRouteIs404(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	rec := httptest.NewRecorder()

	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
