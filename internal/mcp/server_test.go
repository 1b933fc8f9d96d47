package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bernlabs/pulse/internal/config"
	"github.com/bernlabs/pulse/internal/logging"
	"github.com/bernlabs/pulse/internal/roster"
	"github.com/bernlabs/pulse/internal/workspace"
)

func testServer(t *testing.T, tools ...string) (*Server, *workspace.Workspace) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Model.Trees = 20

	ws, err := workspace.Open(context.Background(), t.TempDir(), cfg, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	s, err := New(ws, Config{Tools: tools})
	require.NoError(t, err)
	return s, ws
}

func seeded(t *testing.T, ws *workspace.Workspace) {
	t.Helper()
	_, _, err := ws.Generate(context.Background(), 300, 11, "test")
	require.NoError(t, err)
}

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &out), s)
	return out
}

func TestNew_UnknownTool(t *testing.T) {
	ws, err := workspace.Open(context.Background(), t.TempDir(), config.DefaultConfig(), logging.Nop())
	require.NoError(t, err)
	defer ws.Close()

	_, err = New(ws, Config{Tools: []string{"pulse_nope"}})
	assert.ErrorContains(t, err, "unknown tool")
}

func TestListTools(t *testing.T) {
	s, _ := testServer(t)
	assert.Equal(t, AllTools, s.ListTools())
	assert.Len(t, s.GetToolSchemas(), len(AllTools))

	subset, _ := testServer(t, "pulse_impact", "pulse_metrics")
	assert.Equal(t, []string{"pulse_metrics", "pulse_impact"}, subset.ListTools())

	_, err := subset.CallTool(context.Background(), "pulse_predict", nil)
	assert.ErrorContains(t, err, "unknown tool")
}

func TestCallTool_EmptyWorkspace(t *testing.T) {
	s, _ := testServer(t)

	out, err := s.CallTool(context.Background(), "pulse_snapshots", nil)
	require.NoError(t, err)
	assert.Equal(t, float64(0), decode(t, out)["count"])

	_, err = s.CallTool(context.Background(), "pulse_high_risk", nil)
	assert.ErrorIs(t, err, workspace.ErrNoSnapshots)
}

func TestCallTool_Metrics(t *testing.T) {
	ctx := context.Background()
	s, ws := testServer(t)
	seeded(t, ws)

	_, err := s.CallTool(ctx, "pulse_metrics", map[string]any{})
	assert.ErrorContains(t, err, "table parameter is required")

	out, err := s.CallTool(ctx, "pulse_metrics", map[string]any{"table": "departments"})
	require.NoError(t, err)
	got := decode(t, out)
	assert.Equal(t, "departments", got["table"])
	assert.NotEmpty(t, got["rows"])

	out, err = s.CallTool(ctx, "pulse_metrics", map[string]any{"table": "summary"})
	require.NoError(t, err)
	assert.NotEmpty(t, decode(t, out)["summary"])

	out, err = s.CallTool(ctx, "pulse_metrics", map[string]any{"table": "insights"})
	require.NoError(t, err)
	assert.Contains(t, decode(t, out), "kpis")

	_, err = s.CallTool(ctx, "pulse_metrics", map[string]any{"table": "departmens"})
	require.ErrorIs(t, err, roster.ErrUnknownField)
	assert.Contains(t, err.Error(), `"departments"`)

	_, err = s.CallTool(ctx, "pulse_metrics", map[string]any{"table": "departments", "density": "huge"})
	assert.Error(t, err)
}

func TestCallTool_Density(t *testing.T) {
	ctx := context.Background()
	s, ws := testServer(t)
	seeded(t, ws)

	out, err := s.CallTool(ctx, "pulse_metrics", map[string]any{"table": "employees", "density": "sparse"})
	require.NoError(t, err)
	got := decode(t, out)
	assert.Len(t, got["rows"], 10)
	assert.Equal(t, float64(300), got["total"])
	assert.Equal(t, float64(290), got["omitted"])

	out, err = s.CallTool(ctx, "pulse_metrics", map[string]any{"table": "employees", "density": "dense"})
	require.NoError(t, err)
	assert.Len(t, decode(t, out)["rows"], 300)
}

func TestCallTool_HighRiskFilter(t *testing.T) {
	ctx := context.Background()
	s, ws := testServer(t)
	seeded(t, ws)

	out, err := s.CallTool(ctx, "pulse_high_risk", map[string]any{
		"threshold": 0.0,
		"filter":    "department=Sales",
		"density":   "dense",
	})
	require.NoError(t, err)
	rows, _ := decode(t, out)["rows"].([]any)
	require.NotEmpty(t, rows)
	for _, row := range rows {
		assert.Equal(t, "Sales", row.(map[string]any)["department"])
	}

	_, err = s.CallTool(ctx, "pulse_high_risk", map[string]any{"filter": "dept=Sales"})
	assert.ErrorIs(t, err, roster.ErrUnknownField)
}

func TestCallTool_PredictAndModel(t *testing.T) {
	ctx := context.Background()
	s, ws := testServer(t)
	seeded(t, ws)

	out, err := s.CallTool(ctx, "pulse_predict", map[string]any{"limit": 5.0})
	require.NoError(t, err)
	got := decode(t, out)
	scores := got["scores"].(map[string]any)
	assert.Len(t, scores["rows"], 5)
	assert.Contains(t, got["evaluation"], "auc")

	out, err = s.CallTool(ctx, "pulse_model", nil)
	require.NoError(t, err)
	model := decode(t, out)
	assert.NotEmpty(t, model["fingerprint"])
	assert.Contains(t, model, "feature_importance")

	assert.Equal(t, int64(1), ws.Session.Stats().Trained, "model is trained once per roster")
}

func TestCallTool_RecommendAndImpact(t *testing.T) {
	ctx := context.Background()
	s, ws := testServer(t)
	seeded(t, ws)

	out, err := s.CallTool(ctx, "pulse_recommend", map[string]any{"threshold": 0.0})
	require.NoError(t, err)
	assert.NotEmpty(t, decode(t, out)["rows"])

	out, err = s.CallTool(ctx, "pulse_impact", map[string]any{"success_rate": 0.5, "cost_multiplier": 2.0})
	require.NoError(t, err)
	got := decode(t, out)
	assumptions := got["premissas"].(map[string]any)
	assert.Contains(t, got, "impacto")
	assert.Contains(t, got, "exibicao")
	assert.Equal(t, 0.5, assumptions["success_rate"])
	assert.Equal(t, 2.0, assumptions["cost_multiplier"])
	assert.Equal(t, ws.Threshold(), assumptions["threshold"])
}
