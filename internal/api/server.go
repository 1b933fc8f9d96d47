// Package api serves the pulse analytics over HTTP as JSON, with Prometheus
// metrics on /metrics. Every analytics endpoint answers the same query as
// the MCP tool of the same name.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/bernlabs/pulse/internal/mcp"
	"github.com/bernlabs/pulse/internal/output"
	"github.com/bernlabs/pulse/internal/predict"
	"github.com/bernlabs/pulse/internal/roster"
	"github.com/bernlabs/pulse/internal/store"
	"github.com/bernlabs/pulse/internal/workspace"
)

const basePath = "/api/v1"

// Server routes HTTP requests to the workspace.
type Server struct {
	ws       *workspace.Workspace
	tools    *mcp.Server
	router   *mux.Router
	registry *prometheus.Registry
	metrics  *apiMetrics
	log      logrus.FieldLogger
}

// New builds the router over an open workspace. The caller keeps ownership
// of ws.
func New(ws *workspace.Workspace) (*Server, error) {
	tools, err := mcp.New(ws, mcp.Config{Tools: mcp.AllTools})
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		ws:       ws,
		tools:    tools,
		router:   mux.NewRouter(),
		registry: registry,
		metrics:  newAPIMetrics(registry, ws.Session),
		log:      ws.Log,
	}
	s.register()
	return s, nil
}

func (s *Server) register() {
	s.router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := s.router.PathPrefix(basePath).Subrouter()
	api.HandleFunc("/snapshots", s.instrument("snapshots", s.tool("pulse_snapshots"))).Methods(http.MethodGet)
	api.HandleFunc("/snapshots/{id}/tables", s.instrument("tables", s.listTables)).Methods(http.MethodGet)
	api.HandleFunc("/snapshots/{id}/tables/{table}", s.instrument("table", s.storedTable)).Methods(http.MethodGet)
	api.HandleFunc("/metrics/{table}", s.instrument("metrics", s.tool("pulse_metrics"))).Methods(http.MethodGet)
	api.HandleFunc("/high-risk", s.instrument("high_risk", s.tool("pulse_high_risk"))).Methods(http.MethodGet)
	api.HandleFunc("/predictions", s.instrument("predictions", s.tool("pulse_predict"))).Methods(http.MethodGet)
	api.HandleFunc("/model", s.instrument("model", s.tool("pulse_model"))).Methods(http.MethodGet)
	api.HandleFunc("/recommendations", s.instrument("recommendations", s.tool("pulse_recommend"))).Methods(http.MethodGet)
	api.HandleFunc("/impact", s.instrument("impact", s.tool("pulse_impact"))).Methods(http.MethodGet)
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("http api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"backend": s.ws.Store.Backend(),
		"models":  s.ws.Session.Len(),
	})
}

// tool answers a request with the MCP tool of the same query.
func (s *Server) tool(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		args, err := toolArgs(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if table, ok := mux.Vars(r)["table"]; ok {
			args["table"] = table
		}

		result, err := s.tools.CallTool(r.Context(), name, args)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(result))
	}
}

func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.ws.Store.GetSnapshot(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	names, err := s.ws.Store.ListTables(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshot": id, "tables": names})
}

// storedTable returns a derived table as materialized when the snapshot
// was saved.
func (s *Server) storedTable(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	density := output.DefaultDensity
	if d := r.URL.Query().Get("density"); d != "" {
		parsed, err := output.ParseDensity(d)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		density = parsed
	}

	t, err := s.ws.Store.LoadTable(r.Context(), vars["id"], vars["table"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, output.NewTableOutput(t.Name, t).Truncate(density.RowLimit()))
}

// toolArgs converts query parameters into MCP tool arguments. Repeated
// filter parameters are joined.
func toolArgs(r *http.Request) (map[string]any, error) {
	q := r.URL.Query()
	args := make(map[string]any)

	for _, name := range []string{"snapshot", "density"} {
		if v := q.Get(name); v != "" {
			args[name] = v
		}
	}
	if d, ok := args["density"].(string); ok {
		if _, err := output.ParseDensity(d); err != nil {
			return nil, err
		}
	}
	if filters := q["filter"]; len(filters) > 0 {
		args["filter"] = strings.Join(filters, ",")
	}

	for _, name := range []string{"threshold", "limit", "cost_multiplier", "success_rate"} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %q is not a number", name, v)
		}
		args[name] = f
	}
	return args, nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, workspace.ErrNoSnapshots),
		errors.Is(err, store.ErrSnapshotNotFound),
		errors.Is(err, store.ErrTableNotFound):
		return http.StatusNotFound
	case errors.Is(err, roster.ErrUnknownField),
		errors.Is(err, roster.ErrInvalidRecord):
		return http.StatusBadRequest
	case errors.Is(err, predict.ErrEmptyRoster),
		errors.Is(err, predict.ErrSingleClass),
		errors.Is(err, predict.ErrTooFewPerClass):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}
	writeError(w, status, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{
		"error":  err.Error(),
		"status": status,
	})
}
