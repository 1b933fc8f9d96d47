package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/bernlabs/pulse/internal/session"
)

type apiMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newAPIMetrics(reg *prometheus.Registry, sess *session.Session) *apiMetrics {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "models",
		Name:      "trained_total",
		Help:      "Turnover models trained since start.",
	}, func() float64 { return float64(sess.Stats().Trained) })

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "models",
		Name:      "restored_total",
		Help:      "Turnover models restored from the model cache.",
	}, func() float64 { return float64(sess.Stats().Restored) })

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "models",
		Name:      "hits_total",
		Help:      "Predictor requests served from memory.",
	}, func() float64 { return float64(sess.Stats().Hits) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "pulse",
		Subsystem: "models",
		Name:      "loaded",
		Help:      "Predictors held in memory.",
	}, func() float64 { return float64(sess.Len()) })

	return &apiMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pulse",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by endpoint and result class.",
		}, []string{"endpoint", "result"}),

		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pulse",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "API request latency by endpoint and result class.",
			Buckets: []float64{
				0.001, 0.005, 0.01, 0.05,
				0.1, 0.5, 1, 2, 5, 10, 30,
			},
		}, []string{"endpoint", "result"}),
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func resultClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}

func (s *Server) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		result := resultClass(rec.status)
		s.metrics.requests.WithLabelValues(endpoint, result).Inc()
		s.metrics.latency.WithLabelValues(endpoint, result).Observe(time.Since(start).Seconds())
		s.log.WithFields(logrus.Fields{
			"endpoint": endpoint,
			"status":   rec.status,
			"elapsed":  time.Since(start).Round(time.Millisecond),
		}).Debug("api request")
	}
}
