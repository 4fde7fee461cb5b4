package history

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/minhngo-dev/readalign/pkg/types"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store]. It backs
// DSN-less development setups and tests; nothing survives a restart.
type MemStore struct {
	mu     sync.RWMutex
	nextID int64
	byUser map[string][]types.PracticeSession
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		nextID: 1,
		byUser: make(map[string][]types.PracticeSession),
	}
}

// RecordSession appends one session for its user and assigns the next ID.
func (s *MemStore) RecordSession(_ context.Context, session *types.PracticeSession) error {
	if session.UserID == "" {
		return fmt.Errorf("history: record session: user_id must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session.ID = s.nextID
	s.nextID++
	s.byUser[session.UserID] = append(s.byUser[session.UserID], *session)
	return nil
}

// RecentSessions returns up to limit sessions for the user, newest first.
func (s *MemStore) RecentSessions(_ context.Context, userID string, limit int) ([]types.PracticeSession, error) {
	if limit <= 0 {
		limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.byUser[userID]
	out := make([]types.PracticeSession, len(stored))
	copy(out, stored)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemStore) Close(_ context.Context) error {
	return nil
}
