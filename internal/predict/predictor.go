// Package predict trains and serves the turnover model: label encoding,
// standard scaling, a bagged CART ensemble with balanced class weights,
// held-out evaluation, feature importance, and the retention
// recommendation and impact estimates built on high-risk rosters.
package predict

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/bernlabs/pulse/internal/roster"
)

var (
	// ErrEmptyRoster is returned when no usable rows remain for training.
	ErrEmptyRoster = errors.New("no rows with complete features")
	// ErrSingleClass is returned when the target holds only one class.
	ErrSingleClass = errors.New("target has a single class")
	// ErrTooFewPerClass is returned when a class is too small to split.
	ErrTooFewPerClass = errors.New("too few rows per class for a stratified split")
	// ErrNotTrained is returned when inference is requested before training.
	ErrNotTrained = errors.New("model not trained")
)

// Config holds model training parameters.
type Config struct {
	TestFraction    float64 `yaml:"test_fraction" json:"test_fraction"`
	SplitSeed       uint64  `yaml:"split_seed" json:"split_seed"`
	Trees           int     `yaml:"trees" json:"trees"`
	MaxDepth        int     `yaml:"max_depth" json:"max_depth"`
	MinSamplesSplit int     `yaml:"min_samples_split" json:"min_samples_split"`
	ForestSeed      uint64  `yaml:"forest_seed" json:"forest_seed"`
}

// DefaultConfig returns the default training configuration.
func DefaultConfig() Config {
	return Config{
		TestFraction:    0.2,
		SplitSeed:       42,
		Trees:           100,
		MaxDepth:        10,
		MinSamplesSplit: 2,
		ForestSeed:      42,
	}
}

// FeatureScore is the importance of one model input.
type FeatureScore struct {
	Feature    string  `json:"feature" yaml:"feature"`
	Importance float64 `json:"importance" yaml:"importance"`
}

// ImportanceTable is ordered by importance descending.
type ImportanceTable []FeatureScore

func (t ImportanceTable) Header() []string {
	return []string{"feature", "importance"}
}

func (t ImportanceTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, s := range t {
		rows[i] = []string{s.Feature, fmt2(s.Importance)}
	}
	return rows
}

// model is the fitted state of a trained predictor.
type model struct {
	Department  *Encoder        `json:"department"`
	Level       *Encoder        `json:"level"`
	Generation  *Encoder        `json:"generation"`
	Scaler      *Scaler         `json:"scaler"`
	Forest      *forest         `json:"forest"`
	Importance  ImportanceTable `json:"importance"`
	Evaluation  Evaluation      `json:"evaluation"`
	Fingerprint string          `json:"fingerprint"`
}

// Predictor moves from untrained to trained once Train succeeds.
// A trained Predictor is read-only and safe for concurrent Predict calls.
type Predictor struct {
	cfg   Config
	log   logrus.FieldLogger
	model *model
}

// New creates an untrained predictor.
func New(cfg Config, log logrus.FieldLogger) *Predictor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Predictor{cfg: cfg, log: log}
}

// Trained reports whether the predictor has a fitted model.
func (p *Predictor) Trained() bool {
	return p.model != nil
}

// Fingerprint returns the fingerprint of the roster the model was trained on.
func (p *Predictor) Fingerprint() string {
	if p.model == nil {
		return ""
	}
	return p.model.Fingerprint
}

// Evaluation returns the held-out evaluation of the trained model.
func (p *Predictor) Evaluation() (Evaluation, error) {
	if p.model == nil {
		return Evaluation{}, ErrNotTrained
	}
	return p.model.Evaluation, nil
}

// Train fits the model on r and evaluates it on a stratified held-out split.
// Rows with missing feature values are dropped first.
func (p *Predictor) Train(r roster.Roster) (*Evaluation, error) {
	var feats []Features
	var labels []int
	for _, e := range r {
		f := FeaturesOf(e)
		if !f.Complete() {
			continue
		}
		feats = append(feats, f)
		label := 0
		if e.Status == roster.Separated {
			label = 1
		}
		labels = append(labels, label)
	}
	dropped := len(r) - len(feats)
	if len(feats) == 0 {
		return nil, fmt.Errorf("train on %d rows: %w", len(r), ErrEmptyRoster)
	}
	if !hasBothClasses(labels) {
		return nil, fmt.Errorf("train on %d rows: %w", len(feats), ErrSingleClass)
	}

	train, test, err := stratifiedSplit(labels, p.cfg.TestFraction, p.cfg.SplitSeed)
	if err != nil {
		return nil, fmt.Errorf("splitting training rows: %w", err)
	}

	m := &model{
		Department:  FitEncoder(column(feats, func(f Features) string { return f.Department })),
		Level:       FitEncoder(column(feats, func(f Features) string { return f.Level })),
		Generation:  FitEncoder(column(feats, func(f Features) string { return f.Generation })),
		Fingerprint: r.Fingerprint(),
	}

	trainNumeric := make([][]float64, len(train))
	for i, idx := range train {
		trainNumeric[i] = feats[idx].numeric()
	}
	m.Scaler = FitScaler(trainNumeric)

	xTrain, yTrain := m.matrix(feats, labels, train)
	xTest, yTest := m.matrix(feats, labels, test)

	ensemble, importance := fitForest(xTrain, yTrain, forestParams{
		trees:           p.cfg.Trees,
		maxDepth:        p.cfg.MaxDepth,
		minSamplesSplit: p.cfg.MinSamplesSplit,
		seed:            p.cfg.ForestSeed,
	})
	m.Forest = ensemble

	for i, name := range FeatureNames {
		m.Importance = append(m.Importance, FeatureScore{Feature: name, Importance: importance[i]})
	}
	slices.SortStableFunc(m.Importance, func(a, b FeatureScore) int {
		return cmp.Compare(b.Importance, a.Importance)
	})

	probs := make([]float64, len(xTest))
	for i, row := range xTest {
		probs[i] = ensemble.predict(row)
	}
	auc, err := AUC(probs, yTest)
	if err != nil {
		return nil, fmt.Errorf("evaluating held-out rows: %w", err)
	}

	eval := Evaluation{
		AUC:         auc,
		TrainRows:   len(train),
		TestRows:    len(test),
		DroppedRows: dropped,
	}
	var perClass [2]ClassMetrics
	eval.Accuracy, perClass, eval.MacroAvg, eval.WeightedAvg = classificationReport(probs, yTest)
	eval.Retained, eval.Separated = perClass[0], perClass[1]
	m.Evaluation = eval

	p.model = m
	p.log.WithFields(logrus.Fields{
		"rows":    len(feats),
		"dropped": dropped,
		"train":   len(train),
		"test":    len(test),
		"auc":     fmt2(auc),
	}).Info("trained turnover model")

	return &eval, nil
}

// Predict returns the probability of separation for each record.
// Unseen categories fall back to the most frequent training category;
// missing numeric values are imputed with the training mean.
func (p *Predictor) Predict(records roster.Roster) ([]float64, error) {
	if p.model == nil {
		return nil, ErrNotTrained
	}
	out := make([]float64, len(records))
	for i, e := range records {
		row, unseen := p.model.row(FeaturesOf(e))
		if len(unseen) > 0 {
			p.log.WithFields(logrus.Fields{"id": e.ID, "unseen": unseen}).Debug("unseen category, using fallback")
		}
		out[i] = p.model.Forest.predict(row)
	}
	return out, nil
}

// FeatureImportance returns impurity-based importance, highest first.
func (p *Predictor) FeatureImportance() (ImportanceTable, error) {
	if p.model == nil {
		return nil, ErrNotTrained
	}
	return slices.Clone(p.model.Importance), nil
}

// Encoder returns the fitted encoder for a categorical feature name.
func (p *Predictor) Encoder(feature string) (*Encoder, error) {
	if p.model == nil {
		return nil, ErrNotTrained
	}
	switch feature {
	case "department":
		return p.model.Department, nil
	case "level":
		return p.model.Level, nil
	case "generation":
		return p.model.Generation, nil
	default:
		return nil, roster.UnknownName(feature, []string{"department", "level", "generation"})
	}
}

// matrix builds scaled rows and labels for the given indices.
func (m *model) matrix(feats []Features, labels []int, idx []int) ([][]float64, []int) {
	x := make([][]float64, len(idx))
	y := make([]int, len(idx))
	for i, j := range idx {
		x[i], _ = m.row(feats[j])
		y[i] = labels[j]
	}
	return x, y
}

// row encodes and scales one feature vector, returning the names of
// categorical features whose value was not seen in training.
func (m *model) row(f Features) ([]float64, []string) {
	numeric := f.numeric()
	for j, v := range numeric {
		if math.IsNaN(v) {
			numeric[j] = m.Scaler.Mean[j]
		}
	}
	row := append(m.Scaler.Transform(numeric), make([]float64, len(FeatureNames)-numericFeatures)...)

	var unseen []string
	encoders := []*Encoder{m.Department, m.Level, m.Generation}
	for j, label := range f.categorical() {
		code, ok := encoders[j].Encode(label)
		if !ok {
			unseen = append(unseen, FeatureNames[numericFeatures+j])
		}
		row[numericFeatures+j] = float64(code)
	}
	return row, unseen
}

func hasBothClasses(labels []int) bool {
	var seen [2]bool
	for _, l := range labels {
		seen[l] = true
	}
	return seen[0] && seen[1]
}

func column(feats []Features, get func(Features) string) []string {
	out := make([]string, len(feats))
	for i, f := range feats {
		out[i] = get(f)
	}
	return out
}
