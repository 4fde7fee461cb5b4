// Package api exposes the comparison and scoring engines over HTTP.
//
// All endpoints speak JSON. Request validation failures produce 400 responses
// with a single error field; an unavailable history store produces 503 so
// clients can retry after the circuit breaker closes.
package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/minhngo-dev/readalign/internal/compare"
	"github.com/minhngo-dev/readalign/internal/health"
	"github.com/minhngo-dev/readalign/internal/history"
	"github.com/minhngo-dev/readalign/internal/observe"
	"github.com/minhngo-dev/readalign/internal/scoring"
)

// Option is a functional option for configuring a [Server].
type Option func(*Server)

// WithMetrics overrides the metrics instruments, mainly for tests that want
// an isolated meter provider.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithHealth installs a health handler with dependency checkers. Without it
// the server reports ready as long as the process is up.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) {
		s.health = h
	}
}

// Server wires the engines and the history store into an HTTP handler. It is
// read-only after construction and safe for concurrent use.
type Server struct {
	comparer *compare.Comparer
	scorer   *scoring.Scorer
	store    history.Store
	metrics  *observe.Metrics
	health   *health.Handler
}

// NewServer returns a [Server] over the given engines and store.
func NewServer(comparer *compare.Comparer, scorer *scoring.Scorer, store history.Store, opts ...Option) *Server {
	s := &Server{
		comparer: comparer,
		scorer:   scorer,
		store:    store,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.health == nil {
		s.health = health.New()
	}
	return s
}

// Handler builds the full route table, wrapped in the tracing and metrics
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/compare", s.handleCompare)
	mux.HandleFunc("POST /v1/score", s.handleScore)
	mux.HandleFunc("POST /v1/score/comprehensive", s.handleComprehensiveScore)
	mux.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /v1/users/{id}/trend", s.handleTrend)
	mux.Handle("GET /metrics", promhttp.Handler())
	s.health.Register(mux)

	return observe.Middleware(s.metrics)(mux)
}
