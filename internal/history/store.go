// Package history persists practice-session summaries and serves the recent
// windows that trend analysis reads. Two implementations exist: a
// PostgreSQL-backed [PostgresStore] for deployments and a process-local
// [MemStore] for tests and DSN-less development setups.
package history

import (
	"context"
	"errors"

	"github.com/minhngo-dev/readalign/pkg/types"
)

// ErrUnavailable is returned when the store cannot reach its backing
// database. Callers should degrade gracefully — a reading session must never
// fail because history could not be written.
var ErrUnavailable = errors.New("history: store unavailable")

// Store persists completed practice sessions.
// Implementations must be safe for concurrent use.
type Store interface {
	// RecordSession inserts one completed session and fills in its ID.
	RecordSession(ctx context.Context, session *types.PracticeSession) error

	// RecentSessions returns up to limit sessions for the user, newest
	// first. An unknown user yields an empty slice, not an error.
	RecentSessions(ctx context.Context, userID string, limit int) ([]types.PracticeSession, error)

	// Close releases the store's resources.
	Close(ctx context.Context) error
}
