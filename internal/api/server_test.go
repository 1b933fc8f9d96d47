package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bernlabs/pulse/internal/config"
	"github.com/bernlabs/pulse/internal/logging"
	"github.com/bernlabs/pulse/internal/predict"
	"github.com/bernlabs/pulse/internal/roster"
	"github.com/bernlabs/pulse/internal/store"
	"github.com/bernlabs/pulse/internal/workspace"
)

func testAPI(t *testing.T, seed bool) (*httptest.Server, *workspace.Workspace) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Model.Trees = 20

	ws, err := workspace.Open(context.Background(), t.TempDir(), cfg, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	if seed {
		_, _, err := ws.Generate(context.Background(), 300, 21, "api")
		require.NoError(t, err)
	}

	s, err := New(ws)
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, ws
}

func get(t *testing.T, srv *httptest.Server, path string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	srv, _ := testAPI(t, false)

	status, body := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "sqlite", body["backend"])
}

func TestEmptyWorkspace(t *testing.T) {
	srv, _ := testAPI(t, false)

	status, body := get(t, srv, "/api/v1/snapshots")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["count"])

	status, body = get(t, srv, "/api/v1/high-risk")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body["error"], "pulse generate")
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := testAPI(t, true)

	status, body := get(t, srv, "/api/v1/metrics/departments?filter=department=Sales")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "departments", body["table"])
	rows := body["rows"].([]any)
	require.Len(t, rows, 1)

	status, body = get(t, srv, "/api/v1/metrics/employees?density=sparse")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["rows"], 10)

	status, body = get(t, srv, "/api/v1/metrics/departmens")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "departments")

	status, _ = get(t, srv, "/api/v1/metrics/departments?density=everything")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = get(t, srv, "/api/v1/high-risk?threshold=high")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPredictionEndpoints(t *testing.T) {
	srv, ws := testAPI(t, true)

	status, body := get(t, srv, "/api/v1/predictions?limit=3&filter=department=Sales")
	require.Equal(t, http.StatusOK, status)
	scores := body["scores"].(map[string]any)
	for _, row := range scores["rows"].([]any) {
		assert.Equal(t, "Sales", row.(map[string]any)["department"])
	}
	assert.LessOrEqual(t, len(scores["rows"].([]any)), 3)

	status, body = get(t, srv, "/api/v1/model")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "evaluation")

	assert.Equal(t, int64(1), ws.Session.Stats().Trained)
}

func TestStoredTables(t *testing.T) {
	srv, ws := testAPI(t, true)

	snaps, err := ws.Store.ListSnapshots(context.Background())
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	id := snaps[0].ID

	status, body := get(t, srv, "/api/v1/snapshots/"+id+"/tables")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["tables"], "high_risk")

	status, body = get(t, srv, "/api/v1/snapshots/"+id+"/tables/departments")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "departments", body["table"])

	status, _ = get(t, srv, "/api/v1/snapshots/"+id+"/tables/nope")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = get(t, srv, "/api/v1/snapshots/missing/tables")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPrometheusMetrics(t *testing.T) {
	srv, _ := testAPI(t, true)

	status, _ := get(t, srv, "/api/v1/impact")
	require.Equal(t, http.StatusOK, status)
	status, _ = get(t, srv, "/api/v1/model")
	require.Equal(t, http.StatusOK, status)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `pulse_api_requests_total{endpoint="impact",result="2xx"} 1`)
	assert.Contains(t, text, "pulse_models_trained_total 1")
	assert.Contains(t, text, "pulse_models_loaded 1")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{workspace.ErrNoSnapshots, http.StatusNotFound},
		{fmt.Errorf("load: %w", store.ErrSnapshotNotFound), http.StatusNotFound},
		{store.ErrTableNotFound, http.StatusNotFound},
		{roster.ErrUnknownField, http.StatusBadRequest},
		{predict.ErrSingleClass, http.StatusUnprocessableEntity},
		{context.Canceled, http.StatusServiceUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestToolArgs(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x?filter=department=Sales&filter=level=Senior&threshold=55&snapshot=abc", nil)
	args, err := toolArgs(r)
	require.NoError(t, err)
	assert.Equal(t, "department=Sales,level=Senior", args["filter"])
	assert.Equal(t, 55.0, args["threshold"])
	assert.Equal(t, "abc", args["snapshot"])

	r = httptest.NewRequest(http.MethodGet, "/x?limit=many", nil)
	_, err = toolArgs(r)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "limit"))
}
