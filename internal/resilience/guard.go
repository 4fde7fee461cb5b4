package resilience

import (
	"context"
	"errors"
	"fmt"

	"github.com/minhngo-dev/readalign/internal/history"
	"github.com/minhngo-dev/readalign/pkg/types"
)

// GuardedStore wraps a [history.Store] with a [CircuitBreaker]. When the
// underlying store fails repeatedly the breaker opens and subsequent calls
// fail fast with [history.ErrUnavailable] instead of waiting on connection
// timeouts.
type GuardedStore struct {
	inner   history.Store
	breaker *CircuitBreaker
}

var _ history.Store = (*GuardedStore)(nil)

// NewGuardedStore wraps inner with a breaker configured by cfg.
func NewGuardedStore(inner history.Store, cfg CircuitBreakerConfig) *GuardedStore {
	if cfg.Name == "" {
		cfg.Name = "history"
	}
	return &GuardedStore{
		inner:   inner,
		breaker: NewCircuitBreaker(cfg),
	}
}

// RecordSession persists a session through the breaker.
func (g *GuardedStore) RecordSession(ctx context.Context, session *types.PracticeSession) error {
	err := g.breaker.Execute(func() error {
		return g.inner.RecordSession(ctx, session)
	})
	return guardErr(err)
}

// RecentSessions fetches recent sessions through the breaker.
func (g *GuardedStore) RecentSessions(ctx context.Context, userID string, limit int) ([]types.PracticeSession, error) {
	var sessions []types.PracticeSession
	err := g.breaker.Execute(func() error {
		var innerErr error
		sessions, innerErr = g.inner.RecentSessions(ctx, userID, limit)
		return innerErr
	})
	if err != nil {
		return nil, guardErr(err)
	}
	return sessions, nil
}

// Close closes the underlying store. The breaker is bypassed so shutdown
// always reaches the store.
func (g *GuardedStore) Close(ctx context.Context) error {
	return g.inner.Close(ctx)
}

// State reports the breaker state, used by readiness checks.
func (g *GuardedStore) State() State {
	return g.breaker.State()
}

// guardErr maps an open breaker onto the store's unavailability sentinel so
// callers only need to check for [history.ErrUnavailable].
func guardErr(err error) error {
	if errors.Is(err, ErrCircuitOpen) {
		return fmt.Errorf("%w: %w", history.ErrUnavailable, err)
	}
	return err
}
