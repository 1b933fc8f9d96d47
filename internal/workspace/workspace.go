// Package workspace ties a .pulse directory to its configuration, snapshot
// store, model cache and training session. The CLI, the MCP server and the
// HTTP API all work through a Workspace.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/sirupsen/logrus"

	"github.com/bernlabs/pulse/internal/cache"
	"github.com/bernlabs/pulse/internal/config"
	"github.com/bernlabs/pulse/internal/export"
	"github.com/bernlabs/pulse/internal/generator"
	"github.com/bernlabs/pulse/internal/predict"
	"github.com/bernlabs/pulse/internal/roster"
	"github.com/bernlabs/pulse/internal/session"
	"github.com/bernlabs/pulse/internal/store"
)

// ErrNoSnapshots is returned when a roster is requested from an empty store.
var ErrNoSnapshots = errors.New("no roster snapshots: run 'pulse generate' or 'pulse import' first")

// Workspace is an open .pulse directory.
type Workspace struct {
	Dir     string
	Config  *config.Config
	Store   *store.Store
	Cache   *cache.Cache
	Session *session.Session
	Log     logrus.FieldLogger
}

// Open opens the store and model cache of dir using cfg.
func Open(ctx context.Context, dir string, cfg *config.Config, log logrus.FieldLogger) (*Workspace, error) {
	st, err := store.OpenConfig(ctx, cfg.Storage, dir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	c, err := cache.Open(dir)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open model cache: %w", err)
	}
	log.WithFields(logrus.Fields{"dir": dir, "backend": st.Backend()}).Debug("workspace opened")

	return &Workspace{
		Dir:     dir,
		Config:  cfg,
		Store:   st,
		Cache:   c,
		Session: session.New(ModelConfig(cfg), session.WithCache(c), session.WithLogger(log)),
		Log:     log,
	}, nil
}

// Close closes the cache and the store.
func (w *Workspace) Close() error {
	return errors.Join(w.Cache.Close(), w.Store.Close())
}

// ModelConfig converts the model section of cfg to training parameters.
func ModelConfig(cfg *config.Config) predict.Config {
	m := cfg.Model
	return predict.Config{
		TestFraction:    m.TestFraction,
		SplitSeed:       m.SplitSeed,
		Trees:           m.Trees,
		MaxDepth:        m.MaxDepth,
		MinSamplesSplit: m.MinSamplesSplit,
		ForestSeed:      m.ForestSeed,
	}
}

// ImpactConfig converts the risk and impact sections of cfg.
func ImpactConfig(cfg *config.Config) predict.ImpactConfig {
	return predict.ImpactConfig{
		Threshold:      cfg.Risk.HighRiskThreshold,
		CostMultiplier: cfg.Impact.CostMultiplier,
		SuccessRate:    cfg.Impact.SuccessRate,
	}
}

// Threshold returns the configured high-risk cut-off.
func (w *Workspace) Threshold() float64 {
	return w.Config.Risk.HighRiskThreshold
}

// Generate creates a synthetic roster and saves it as a snapshot together
// with its derived tables. A zero seed draws a random one; the seed used
// is recorded on the snapshot.
func (w *Workspace) Generate(ctx context.Context, count int, seed uint64, label string) (store.Snapshot, roster.Roster, error) {
	if seed == 0 {
		seed = rand.Uint64()
		w.Log.WithField("seed", seed).Info("using random seed")
	}
	r, err := generator.New(seed, generator.WithLogger(w.Log)).Generate(count)
	if err != nil {
		return store.Snapshot{}, nil, err
	}
	snap, err := w.Save(ctx, r, label, seed)
	if err != nil {
		return store.Snapshot{}, nil, err
	}
	return snap, r, nil
}

// Save stores r as a new snapshot and materializes its derived tables.
func (w *Workspace) Save(ctx context.Context, r roster.Roster, label string, seed uint64) (store.Snapshot, error) {
	snap, err := w.Store.SaveSnapshot(ctx, r, label, seed)
	if err != nil {
		return store.Snapshot{}, err
	}

	tables := make(map[string]store.Table)
	for _, s := range export.Report(r, w.Threshold(), ImpactConfig(w.Config)) {
		if s.Name == "employees" {
			continue
		}
		tables[s.Name] = s.Table
	}
	if err := w.Store.SaveTables(ctx, snap.ID, tables); err != nil {
		return store.Snapshot{}, fmt.Errorf("save derived tables: %w", err)
	}

	w.Log.WithFields(logrus.Fields{
		"snapshot":  snap.ID,
		"employees": snap.Employees,
		"tables":    len(tables),
	}).Info("saved snapshot")
	return snap, nil
}

// Roster loads the roster of snapshotID, or of the newest snapshot when
// snapshotID is empty.
func (w *Workspace) Roster(ctx context.Context, snapshotID string) (roster.Roster, store.Snapshot, error) {
	var (
		snap store.Snapshot
		err  error
	)
	if snapshotID == "" {
		snap, err = w.Store.LatestSnapshot(ctx)
		if errors.Is(err, store.ErrSnapshotNotFound) {
			return nil, store.Snapshot{}, ErrNoSnapshots
		}
	} else {
		snap, err = w.Store.GetSnapshot(ctx, snapshotID)
	}
	if err != nil {
		return nil, store.Snapshot{}, err
	}

	r, err := w.Store.LoadRoster(ctx, snap.ID)
	if err != nil {
		return nil, store.Snapshot{}, err
	}
	return r, snap, nil
}

// Filtered loads a roster like Roster and keeps the records matching every
// filter expression ("department=Sales").
func (w *Workspace) Filtered(ctx context.Context, snapshotID string, exprs []string) (roster.Roster, store.Snapshot, error) {
	filters, err := roster.ParseFilters(exprs)
	if err != nil {
		return nil, store.Snapshot{}, err
	}
	r, snap, err := w.Roster(ctx, snapshotID)
	if err != nil {
		return nil, store.Snapshot{}, err
	}
	return r.Filter(filters...), snap, nil
}

// Predictor returns the trained predictor for the roster of snapshotID.
// Models are always trained on the full roster; filters apply to scoring.
func (w *Workspace) Predictor(ctx context.Context, snapshotID string) (*predict.Predictor, roster.Roster, error) {
	r, _, err := w.Roster(ctx, snapshotID)
	if err != nil {
		return nil, nil, err
	}
	p, err := w.Session.Predictor(ctx, r)
	if err != nil {
		return nil, nil, err
	}
	return p, r, nil
}
