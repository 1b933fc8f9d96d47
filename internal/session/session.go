// Package session hands out trained turnover predictors, one per roster
// fingerprint and training configuration. A predictor is trained at most
// once at a time per key; trained models are kept in memory and, when a
// cache is attached, persisted so later runs restore instead of retrain.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/bernlabs/pulse/internal/cache"
	"github.com/bernlabs/pulse/internal/predict"
	"github.com/bernlabs/pulse/internal/roster"
)

// ModelCache is the persistent model store used by a Session.
type ModelCache interface {
	GetModel(key cache.Key) ([]byte, error)
	PutModel(key cache.Key, model []byte, auc float64) error
}

// Stats counts how predictors were obtained.
type Stats struct {
	Trained  int64 `json:"trained" yaml:"trained"`
	Restored int64 `json:"restored" yaml:"restored"`
	Hits     int64 `json:"hits" yaml:"hits"`
}

// Session maps rosters to trained predictors.
type Session struct {
	cfg   predict.Config
	cache ModelCache
	log   logrus.FieldLogger

	group singleflight.Group

	mu     sync.RWMutex
	models map[cache.Key]*predict.Predictor

	trained  atomic.Int64
	restored atomic.Int64
	hits     atomic.Int64
}

// Option configures a Session.
type Option func(*Session)

// WithCache persists trained models in c.
func WithCache(c ModelCache) Option {
	return func(s *Session) { s.cache = c }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Session) { s.log = log }
}

// New creates a session that trains with cfg.
func New(cfg predict.Config, opts ...Option) *Session {
	s := &Session{
		cfg:    cfg,
		log:    logrus.StandardLogger(),
		models: make(map[cache.Key]*predict.Predictor),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Params renders cfg as the parameter half of a cache key.
func Params(cfg predict.Config) string {
	return strings.Join([]string{
		"test_fraction=" + strconv.FormatFloat(cfg.TestFraction, 'g', -1, 64),
		"split_seed=" + strconv.FormatUint(cfg.SplitSeed, 10),
		"trees=" + strconv.Itoa(cfg.Trees),
		"max_depth=" + strconv.Itoa(cfg.MaxDepth),
		"min_samples_split=" + strconv.Itoa(cfg.MinSamplesSplit),
		"forest_seed=" + strconv.FormatUint(cfg.ForestSeed, 10),
	}, ",")
}

// Key returns the cache key of r under the session configuration.
func (s *Session) Key(r roster.Roster) cache.Key {
	return cache.Key{Fingerprint: r.Fingerprint(), Params: Params(s.cfg)}
}

// Predictor returns a trained predictor for r. Concurrent calls for the
// same roster share one training run; callers that give up through ctx
// leave the run going for the others.
func (s *Session) Predictor(ctx context.Context, r roster.Roster) (*predict.Predictor, error) {
	key := s.Key(r)
	if p, ok := s.lookup(key); ok {
		s.hits.Add(1)
		return p, nil
	}

	ch := s.group.DoChan(key.Fingerprint+"|"+key.Params, func() (any, error) {
		if p, ok := s.lookup(key); ok {
			s.hits.Add(1)
			return p, nil
		}
		p, err := s.materialize(key, r)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.models[key] = p
		s.mu.Unlock()
		return p, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*predict.Predictor), nil
	}
}

func (s *Session) lookup(key cache.Key) (*predict.Predictor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.models[key]
	return p, ok
}

// materialize restores the model from the cache or trains it.
func (s *Session) materialize(key cache.Key, r roster.Roster) (*predict.Predictor, error) {
	log := s.log.WithField("fingerprint", key.Fingerprint)

	if s.cache != nil {
		p, err := s.restore(key)
		switch {
		case err == nil:
			s.restored.Add(1)
			log.Debug("restored model from cache")
			return p, nil
		case !errors.Is(err, sql.ErrNoRows):
			log.WithError(err).Warn("ignoring unreadable cached model")
		}
	}

	start := time.Now()
	p := predict.New(s.cfg, s.log)
	eval, err := p.Train(r)
	if err != nil {
		return nil, fmt.Errorf("train model: %w", err)
	}
	s.trained.Add(1)
	log.WithFields(logrus.Fields{
		"auc":     eval.AUC,
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("trained model")

	if s.cache != nil {
		if err := s.store(key, p, eval.AUC); err != nil {
			log.WithError(err).Warn("model not cached")
		}
	}
	return p, nil
}

func (s *Session) restore(key cache.Key) (*predict.Predictor, error) {
	data, err := s.cache.GetModel(key)
	if err != nil {
		return nil, err
	}
	p := predict.New(s.cfg, s.log)
	if err := p.Restore(data); err != nil {
		return nil, err
	}
	if p.Fingerprint() != key.Fingerprint {
		return nil, fmt.Errorf("cached model fingerprint %s does not match roster", p.Fingerprint())
	}
	return p, nil
}

func (s *Session) store(key cache.Key, p *predict.Predictor, auc float64) error {
	data, err := p.Snapshot()
	if err != nil {
		return err
	}
	return s.cache.PutModel(key, data, auc)
}

// Forget drops every in-memory predictor trained on fingerprint.
func (s *Session) Forget(fingerprint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.models {
		if key.Fingerprint == fingerprint {
			delete(s.models, key)
		}
	}
}

// Len returns the number of predictors held in memory.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.models)
}

// Stats returns the counters accumulated so far.
func (s *Session) Stats() Stats {
	return Stats{
		Trained:  s.trained.Load(),
		Restored: s.restored.Load(),
		Hits:     s.hits.Load(),
	}
}
