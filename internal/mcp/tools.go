package mcp

import (
	"context"
	"fmt"

	"github.com/bernlabs/pulse/internal/export"
	"github.com/bernlabs/pulse/internal/metrics"
	"github.com/bernlabs/pulse/internal/output"
	"github.com/bernlabs/pulse/internal/predict"
	"github.com/bernlabs/pulse/internal/roster"
	"github.com/bernlabs/pulse/internal/store"
	"github.com/bernlabs/pulse/internal/workspace"
)

// query holds the arguments shared by the roster tools.
type query struct {
	snapshot  string
	filters   []string
	threshold float64
	density   output.Density
}

// snapshotsResult lists stored snapshots.
type snapshotsResult struct {
	Snapshots []store.Snapshot `json:"snapshots"`
	Count     int              `json:"count"`
}

// predictResult pairs the scored employees with the model's held-out quality.
type predictResult struct {
	Snapshot   string              `json:"snapshot"`
	Evaluation predict.Evaluation  `json:"evaluation"`
	Scores     *output.TableOutput `json:"scores"`
}

// modelResult describes a trained model.
type modelResult struct {
	Snapshot    string              `json:"snapshot"`
	Fingerprint string              `json:"fingerprint"`
	Evaluation  predict.Evaluation  `json:"evaluation"`
	Importance  *output.TableOutput `json:"feature_importance"`
}

func render(v any, density output.Density) (string, error) {
	return output.NewJSONFormatter().Format(v, density)
}

func (s *Server) executeSnapshots(ctx context.Context) (string, error) {
	snaps, err := s.ws.Store.ListSnapshots(ctx)
	if err != nil {
		return "", err
	}
	if snaps == nil {
		snaps = []store.Snapshot{}
	}
	return render(snapshotsResult{Snapshots: snaps, Count: len(snaps)}, output.DensityDense)
}

func (s *Server) executeMetrics(ctx context.Context, table string, q query) (string, error) {
	r, _, err := s.ws.Filtered(ctx, q.snapshot, q.filters)
	if err != nil {
		return "", err
	}

	switch table {
	case "insights":
		return render(metrics.BuildInsights(r, q.threshold), q.density)
	case "summary":
		return render(output.NewSummaryOutput(metrics.ExecutiveSummary(r, q.threshold)), q.density)
	}

	impact := workspace.ImpactConfig(s.ws.Config)
	impact.Threshold = q.threshold
	sheet, err := export.Find(export.Report(r, q.threshold, impact), table)
	if err != nil {
		return "", fmt.Errorf("table %q: %w", table, err)
	}
	return render(output.NewTableOutput(sheet.Name, sheet.Table), q.density)
}

func (s *Server) executeHighRisk(ctx context.Context, q query) (string, error) {
	r, _, err := s.ws.Filtered(ctx, q.snapshot, q.filters)
	if err != nil {
		return "", err
	}
	return render(output.NewTableOutput("high_risk", metrics.HighRisk(r, q.threshold)), q.density)
}

func (s *Server) executePredict(ctx context.Context, q query, limit int) (string, error) {
	filters, err := roster.ParseFilters(q.filters)
	if err != nil {
		return "", err
	}
	r, snap, err := s.ws.Roster(ctx, q.snapshot)
	if err != nil {
		return "", err
	}
	p, err := s.ws.Session.Predictor(ctx, r)
	if err != nil {
		return "", err
	}

	scores, err := p.Score(r.Filter(filters...).Active())
	if err != nil {
		return "", err
	}
	if limit > 0 {
		scores = scores.Top(limit)
	}
	eval, err := p.Evaluation()
	if err != nil {
		return "", err
	}

	scoresOut := output.NewTableOutput("predictions", scores).Truncate(q.density.RowLimit())
	return render(predictResult{Snapshot: snap.ID, Evaluation: eval, Scores: scoresOut}, q.density)
}

func (s *Server) executeModel(ctx context.Context, q query) (string, error) {
	r, snap, err := s.ws.Roster(ctx, q.snapshot)
	if err != nil {
		return "", err
	}
	p, err := s.ws.Session.Predictor(ctx, r)
	if err != nil {
		return "", err
	}
	eval, err := p.Evaluation()
	if err != nil {
		return "", err
	}
	importance, err := p.FeatureImportance()
	if err != nil {
		return "", err
	}

	return render(modelResult{
		Snapshot:    snap.ID,
		Fingerprint: r.Fingerprint(),
		Evaluation:  eval,
		Importance:  output.NewTableOutput("feature_importance", importance),
	}, output.DensityDense)
}

func (s *Server) executeRecommend(ctx context.Context, q query) (string, error) {
	r, _, err := s.ws.Filtered(ctx, q.snapshot, q.filters)
	if err != nil {
		return "", err
	}
	recs := predict.RecommendRetention(r.HighRisk(q.threshold))
	return render(output.NewTableOutput("recommendations", recs), output.DensityDense)
}

func (s *Server) executeImpact(ctx context.Context, q query, cfg predict.ImpactConfig) (string, error) {
	r, _, err := s.ws.Filtered(ctx, q.snapshot, q.filters)
	if err != nil {
		return "", err
	}
	impact := predict.EstimateRetentionImpact(r, cfg)
	return render(output.NewImpactOutput(impact, cfg, s.ws.Config.Impact.Currency), q.density)
}
