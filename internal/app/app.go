// Package app wires the readalign subsystems into a running server.
//
// The App struct owns the full lifecycle: New connects the history store and
// builds the engines, Run serves HTTP until the context is cancelled, and
// Shutdown tears everything down in order.
//
// For testing, inject an in-memory store via [WithStore]; New then skips the
// database connection entirely.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/minhngo-dev/readalign/internal/api"
	"github.com/minhngo-dev/readalign/internal/compare"
	"github.com/minhngo-dev/readalign/internal/compare/phonetic"
	"github.com/minhngo-dev/readalign/internal/config"
	"github.com/minhngo-dev/readalign/internal/health"
	"github.com/minhngo-dev/readalign/internal/history"
	"github.com/minhngo-dev/readalign/internal/resilience"
	"github.com/minhngo-dev/readalign/internal/scoring"
)

// shutdownGrace bounds how long Run waits for in-flight requests after the
// context is cancelled.
const shutdownGrace = 10 * time.Second

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects a history store instead of connecting one from config.
func WithStore(s history.Store) Option {
	return func(a *App) {
		a.store = s
	}
}

// App owns all subsystem lifetimes.
type App struct {
	cfg    *config.Config
	store  history.Store
	server *http.Server

	// addr holds the bound listen address once Run has opened the listener,
	// so tests using ":0" can find the port.
	addrMu sync.Mutex
	addr   string

	// closers are called in order during Shutdown.
	closers []func(context.Context) error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// New builds the application from cfg. The history store is a Postgres pool
// behind a circuit breaker when a DSN is configured, otherwise an in-memory
// store that loses data on restart.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}

	if a.store == nil {
		if dsn := cfg.History.PostgresDSN; dsn != "" {
			pg, err := history.Connect(ctx, dsn)
			if err != nil {
				return nil, fmt.Errorf("app: connect history store: %w", err)
			}
			a.store = resilience.NewGuardedStore(pg, resilience.CircuitBreakerConfig{Name: "history"})
			slog.Info("history store connected")
		} else {
			a.store = history.NewMemStore()
			slog.Warn("no postgres_dsn configured, session history is in-memory only")
		}
	}
	a.closers = append(a.closers, a.store.Close)

	comparer := newComparer(cfg.Comparison)
	scorer := scoring.New()

	srv := api.NewServer(comparer, scorer, a.store,
		api.WithHealth(health.New(a.storeChecker())))

	a.server = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// newComparer builds the comparison engine with the configured phonetic
// matcher overrides on top of the built-in Vietnamese confusion table.
func newComparer(cfg config.ComparisonConfig) *compare.Comparer {
	var opts []phonetic.Option
	if cfg.MaxEditDistance != nil {
		opts = append(opts, phonetic.WithMaxEditDistance(*cfg.MaxEditDistance))
	}
	if cfg.SimilarityThreshold != nil {
		opts = append(opts, phonetic.WithSimilarityThreshold(*cfg.SimilarityThreshold))
	}
	if len(cfg.ConfusionPairs) > 0 {
		pairs := make([]phonetic.Pair, len(cfg.ConfusionPairs))
		for i, p := range cfg.ConfusionPairs {
			pairs[i] = phonetic.Pair{A: p.A, B: p.B}
		}
		opts = append(opts, phonetic.WithConfusionPairs(pairs...))
	}
	return compare.New(compare.WithPhoneticMatcher(phonetic.New(opts...)))
}

// storeChecker reports the history store unhealthy while its circuit breaker
// is open. Stores without a breaker are always considered healthy.
func (a *App) storeChecker() health.Checker {
	return health.Checker{
		Name: "history",
		Check: func(ctx context.Context) error {
			if gs, ok := a.store.(*resilience.GuardedStore); ok {
				if state := gs.State(); state == resilience.StateOpen {
					return fmt.Errorf("history store circuit breaker is %s", state)
				}
			}
			return nil
		},
	}
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
// It returns nil on a clean shutdown.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("app: listen on %s: %w", a.server.Addr, err)
	}
	a.addrMu.Lock()
	a.addr = ln.Addr().String()
	a.addrMu.Unlock()

	slog.Info("server listening", "addr", ln.Addr().String(), "tls", a.cfg.Server.TLS != nil)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = a.server.ServeTLS(ln, tls.CertFile, tls.KeyFile)
		} else {
			err = a.server.Serve(ln)
		}
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return a.server.Shutdown(drainCtx)
	})

	return g.Wait()
}

// Addr returns the bound listen address, or the configured address if Run has
// not opened the listener yet.
func (a *App) Addr() string {
	a.addrMu.Lock()
	defer a.addrMu.Unlock()
	if a.addr != "" {
		return a.addr
	}
	return a.server.Addr
}

// Shutdown closes the history store and any other resources. Safe to call
// more than once.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(ctx); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}
