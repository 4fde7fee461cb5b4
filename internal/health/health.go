// Package health serves the liveness and readiness probes.
//
// The comparison and scoring engines are pure computation, so liveness is
// simply "the process answers HTTP". Readiness covers the dependencies that
// can actually fail at runtime, which for this service means the history
// store behind its circuit breaker. Each registered [Checker] contributes
// one entry to the /readyz response with its outcome and probe latency.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// checkTimeout bounds each readiness probe. The history store fails fast
// once its breaker is open, so a probe that takes longer than this is itself
// a bad sign.
const checkTimeout = 2 * time.Second

// Checker is a named readiness probe for one dependency.
type Checker struct {
	// Name keys the check's entry in the /readyz response (e.g. "history").
	Name string

	// Check probes the dependency. It must respect context cancellation.
	Check func(ctx context.Context) error
}

// checkResult is one dependency's outcome in the readiness response.
type checkResult struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// response is the JSON body for both probe endpoints.
type response struct {
	Status string                 `json:"status"`
	Checks map[string]checkResult `json:"checks,omitempty"`
}

// Handler serves the /healthz and /readyz endpoints. It is safe for
// concurrent use; the checker list is fixed at construction time.
type Handler struct {
	checkers []Checker
}

// New creates a [Handler] that evaluates the given checkers on each /readyz
// request.
func New(checkers ...Checker) *Handler {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &Handler{checkers: c}
}

// Healthz is the liveness probe. A process that can serve this request is
// alive; it never inspects dependencies.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, response{Status: "ok"})
}

// Readyz runs every checker concurrently, each under its own [checkTimeout],
// and returns 200 only when all of them pass. A single slow dependency
// therefore delays the probe by at most one timeout, not the sum.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	results := make([]checkResult, len(h.checkers))

	g, ctx := errgroup.WithContext(r.Context())
	for i, c := range h.checkers {
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()

			start := time.Now()
			err := c.Check(probeCtx)

			res := checkResult{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}
			if err != nil {
				res.Status = "fail"
				res.Error = err.Error()
			}
			results[i] = res
			return nil
		})
	}
	// The probes report failures through results, never through the group.
	_ = g.Wait()

	res := response{Status: "ok", Checks: make(map[string]checkResult, len(h.checkers))}
	status := http.StatusOK
	for i, c := range h.checkers {
		res.Checks[c.Name] = results[i]
		if results[i].Status != "ok" {
			res.Status = "fail"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, res)
}

// Register adds the /healthz and /readyz routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// writeJSON encodes v as JSON and writes it with the given status code. On
// encoding failure it falls back to a plain-text 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
