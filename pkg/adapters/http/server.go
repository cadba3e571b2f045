// Package http serves the chatter backend: widget interactions, lead submissions, rule
// editing and the analytics summary under /api/v1, plus health, info and Prometheus metrics.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/chatter"
	"github.com/aretw0/chatter/internal/logging"
	"github.com/aretw0/chatter/pkg/adapters/api"
	"github.com/aretw0/chatter/pkg/domain"
	"github.com/aretw0/chatter/pkg/editor"
	"github.com/aretw0/chatter/pkg/observability"
	"github.com/aretw0/chatter/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the collaborators behind the HTTP routes.
type Server struct {
	resolver    ports.Resolver
	editor      *editor.Editor
	submissions ports.SubmissionStore

	metrics  *observability.Metrics
	gatherer prometheus.Gatherer
	hooks    domain.LifecycleHooks
	streams  *StreamManager
	policy   *bluemonday.Policy
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics uses m for counters and the summary, and serves g on /metrics.
func WithMetrics(m *observability.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithHooks adds lifecycle hooks fired for every interaction and submission.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Server) {
		s.hooks = s.hooks.Merge(hooks)
	}
}

// WithClock overrides the clock used for timestamps and "today" in the summary.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New creates a Server. The editor should already be loaded.
func New(resolver ports.Resolver, ed *editor.Editor, subs ports.SubmissionStore, opts ...Option) *Server {
	s := &Server{
		resolver:    resolver,
		editor:      ed,
		submissions: subs,
		streams:     NewStreamManager(),
		policy:      bluemonday.UGCPolicy(),
		logger:      logging.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		reg := prometheus.NewRegistry()
		s.metrics = observability.NewMetrics(reg)
		s.gatherer = reg
	}
	s.hooks = s.metrics.Hooks().Merge(s.streams.Hooks()).Merge(s.hooks)
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.With(requireTenant).Post("/interact/", s.interact)

		r.Get("/rules/", s.listRules)
		r.Post("/rules/", s.createRule)
		r.Get("/rules/{nodeID}/", s.getRule)
		r.Put("/rules/{nodeID}/", s.updateRule)
		r.Delete("/rules/{nodeID}/", s.deleteRule)

		r.Get("/submissions/", s.listSubmissions)
		r.With(requireTenant).Post("/submissions/", s.createSubmission)

		r.Get("/analytics/summary/", s.summary)
		r.Get("/events/", s.subscribeEvents)
	})

	return enableCORS(r)
}

// NewHandler is shorthand for New(...).Handler().
func NewHandler(resolver ports.Resolver, ed *editor.Editor, subs ports.SubmissionStore, opts ...Option) http.Handler {
	return New(resolver, ed, subs, opts...).Handler()
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+api.ClientIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireTenant rejects widget calls without the X-Client-ID header.
func requireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimSpace(r.Header.Get(api.ClientIDHeader)) == "" {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing " + api.ClientIDHeader + " header"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tenant(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(api.ClientIDHeader))
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "chatter-http",
		"version":     strings.TrimSpace(chatter.Version),
		"api_version": "v1",
	})
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.metrics.Summary(r.Context(), s.submissions, s.now())
	if err != nil {
		s.logger.Error("Summary failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "summary unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

type errorBody struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "err", err)
	}
}
