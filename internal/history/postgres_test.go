package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/minhngo-dev/readalign/pkg/types"
)

// ---------------------------------------------------------------------------
// Test helpers — mock DB types
// ---------------------------------------------------------------------------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

// mockRows implements pgx.Rows for testing.
type mockRows struct {
	data   [][]any
	idx    int
	err    error
	closed bool
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return r.err }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

func (r *mockRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *mockRows) Scan(dest ...any) error {
	row := r.data[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: expected %d columns, got %d destinations", len(row), len(dest))
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *int64:
			*d = v.(int64)
		case *int:
			*d = v.(int)
		case *float64:
			*d = v.(float64)
		case *string:
			*d = v.(string)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return fmt.Errorf("scan: unsupported type at index %d: %T", i, dest[i])
		}
	}
	return nil
}

func (r *mockRows) Values() ([]any, error) { return nil, nil }

// mockDB implements the DB interface for testing.
type mockDB struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (db *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return db.queryRowFunc(ctx, sql, args...)
}

func (db *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return db.queryFunc(ctx, sql, args...)
}

func (db *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return db.execFunc(ctx, sql, args...)
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestPostgresStore_Migrate(t *testing.T) {
	t.Parallel()

	var gotSQL string
	db := &mockDB{
		execFunc: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
			gotSQL = sql
			return pgconn.CommandTag{}, nil
		},
	}

	s := NewPostgresStore(db)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !strings.Contains(gotSQL, "practice_sessions") {
		t.Errorf("Migrate executed %q, want the practice_sessions DDL", gotSQL)
	}
}

func TestPostgresStore_RecordSession(t *testing.T) {
	t.Parallel()

	var gotArgs []any
	db := &mockDB{
		queryRowFunc: func(_ context.Context, sql string, args ...any) pgx.Row {
			if !strings.Contains(sql, "INSERT INTO practice_sessions") {
				t.Errorf("unexpected SQL: %q", sql)
			}
			gotArgs = args
			return &mockRow{scanFunc: func(dest ...any) error {
				*(dest[0].(*int64)) = 42
				return nil
			}}
		},
	}

	s := NewPostgresStore(db)
	sess := &types.PracticeSession{
		UserID:      "u1",
		Accuracy:    0.85,
		Score:       190,
		Difficulty:  types.Grade2,
		Attempts:    1,
		Duration:    72 * time.Second,
		CompletedAt: time.Date(2026, time.April, 2, 10, 0, 0, 0, time.UTC),
	}
	if err := s.RecordSession(context.Background(), sess); err != nil {
		t.Fatalf("RecordSession() error = %v", err)
	}
	if sess.ID != 42 {
		t.Errorf("ID = %d, want 42 from RETURNING", sess.ID)
	}
	if len(gotArgs) != 7 {
		t.Fatalf("len(args) = %d, want 7", len(gotArgs))
	}
	if gotArgs[0] != "u1" || gotArgs[3] != "grade2" {
		t.Errorf("args = %v, want user u1 at [0] and grade2 at [3]", gotArgs)
	}
	if gotArgs[5] != int64(72000) {
		t.Errorf("duration arg = %v, want 72000 milliseconds", gotArgs[5])
	}
}

func TestPostgresStore_RecordSession_EmptyUser(t *testing.T) {
	t.Parallel()

	s := NewPostgresStore(&mockDB{})
	if err := s.RecordSession(context.Background(), &types.PracticeSession{}); err == nil {
		t.Fatal("RecordSession with empty user: error = nil, want error")
	}
}

func TestPostgresStore_RecentSessions(t *testing.T) {
	t.Parallel()

	completed := time.Date(2026, time.April, 2, 10, 0, 0, 0, time.UTC)
	rows := &mockRows{data: [][]any{
		{int64(2), "u1", 0.9, 240, "grade3", 1, int64(65000), completed},
		{int64(1), "u1", 0.8, 160, "grade2", 2, int64(90000), completed.Add(-time.Hour)},
	}}

	db := &mockDB{
		queryFunc: func(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
			if !strings.Contains(sql, "ORDER BY completed_at DESC") {
				t.Errorf("query must order newest first, got %q", sql)
			}
			if args[0] != "u1" || args[1] != 10 {
				t.Errorf("args = %v, want [u1 10]", args)
			}
			return rows, nil
		},
	}

	s := NewPostgresStore(db)
	got, err := s.RecentSessions(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("RecentSessions() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != 2 || got[0].Difficulty != types.Grade3 {
		t.Errorf("first session = %+v, want ID 2 at grade3", got[0])
	}
	if got[1].Duration != 90*time.Second {
		t.Errorf("Duration = %v, want 90s from 90000ms", got[1].Duration)
	}
	if !rows.closed {
		t.Error("rows were not closed")
	}
}

func TestPostgresStore_RecentSessions_DefaultLimit(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		queryFunc: func(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
			if args[1] != 20 {
				t.Errorf("limit arg = %v, want default 20", args[1])
			}
			return &mockRows{}, nil
		},
	}

	s := NewPostgresStore(db)
	if _, err := s.RecentSessions(context.Background(), "u1", 0); err != nil {
		t.Fatalf("RecentSessions() error = %v", err)
	}
}

func TestPostgresStore_QueryError(t *testing.T) {
	t.Parallel()

	dbErr := errors.New("connection reset")
	db := &mockDB{
		queryFunc: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
			return nil, dbErr
		},
	}

	s := NewPostgresStore(db)
	if _, err := s.RecentSessions(context.Background(), "u1", 5); !errors.Is(err, dbErr) {
		t.Errorf("RecentSessions() error = %v, want wrapped %v", err, dbErr)
	}
}
