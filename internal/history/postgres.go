package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhngo-dev/readalign/pkg/types"
)

// Schema is the SQL DDL for the practice_sessions table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS practice_sessions (
    id            BIGSERIAL PRIMARY KEY,
    user_id       TEXT NOT NULL,
    accuracy      DOUBLE PRECISION NOT NULL,
    score         INTEGER NOT NULL,
    difficulty    TEXT NOT NULL,
    attempts      INTEGER NOT NULL DEFAULT 1,
    duration_ms   BIGINT NOT NULL DEFAULT 0,
    completed_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_practice_sessions_user_time
    ON practice_sessions(user_id, completed_at DESC);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
type PostgresStore struct {
	db DB

	// pool is non-nil only when the store owns its connection pool (created
	// via [Connect]); Close shuts it down.
	pool *pgxpool.Pool
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a [PostgresStore] on an existing connection or
// pool. The caller is responsible for calling [PostgresStore.Migrate] to
// ensure the schema exists before issuing queries, and for closing the
// connection it supplied.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Connect opens a pgx connection pool for dsn, verifies it with a ping, and
// returns a migrated [PostgresStore] that owns the pool.
func Connect(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("history: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}

	s := &PostgresStore{db: pool, pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate executes the [Schema] DDL against the database, creating the
// practice_sessions table and index if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("history: migrate: %w", err)
	}
	return nil
}

// RecordSession inserts one completed session and fills in the generated ID.
func (s *PostgresStore) RecordSession(ctx context.Context, session *types.PracticeSession) error {
	if session.UserID == "" {
		return fmt.Errorf("history: record session: user_id must not be empty")
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO practice_sessions
			(user_id, accuracy, score, difficulty, attempts, duration_ms, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		session.UserID,
		session.Accuracy,
		session.Score,
		string(session.Difficulty),
		session.Attempts,
		session.Duration.Milliseconds(),
		session.CompletedAt,
	).Scan(&session.ID)
	if err != nil {
		return fmt.Errorf("history: record session: %w", err)
	}
	return nil
}

// RecentSessions returns up to limit sessions for the user, newest first.
func (s *PostgresStore) RecentSessions(ctx context.Context, userID string, limit int) ([]types.PracticeSession, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, accuracy, score, difficulty, attempts, duration_ms, completed_at
		FROM practice_sessions
		WHERE user_id = $1
		ORDER BY completed_at DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: recent sessions: %w", err)
	}
	defer rows.Close()

	var sessions []types.PracticeSession
	for rows.Next() {
		var (
			sess       types.PracticeSession
			difficulty string
			durationMS int64
		)
		if err := rows.Scan(
			&sess.ID, &sess.UserID, &sess.Accuracy, &sess.Score,
			&difficulty, &sess.Attempts, &durationMS, &sess.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("history: scan session: %w", err)
		}
		sess.Difficulty = types.DifficultyLevel(difficulty)
		sess.Duration = durationFromMillis(durationMS)
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: recent sessions: %w", err)
	}
	return sessions, nil
}

// durationFromMillis converts a stored millisecond count back to a Duration.
func durationFromMillis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// Close shuts down the connection pool when the store owns one.
func (s *PostgresStore) Close(_ context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
