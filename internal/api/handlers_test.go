package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/minhngo-dev/readalign/internal/compare"
	"github.com/minhngo-dev/readalign/internal/compare/phonetic"
	"github.com/minhngo-dev/readalign/internal/history"
	"github.com/minhngo-dev/readalign/internal/observe"
	"github.com/minhngo-dev/readalign/internal/scoring"
	"github.com/minhngo-dev/readalign/pkg/types"
)

func newTestServer(t *testing.T, store history.Store) http.Handler {
	t.Helper()

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	metrics, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	comparer := compare.New(compare.WithPhoneticMatcher(phonetic.New()))
	srv := NewServer(comparer, scoring.New(), store, WithMetrics(metrics))
	return srv.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return v
}

func TestCompareEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, history.NewMemStore())

	t.Run("perfect match", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/v1/compare", compareRequest{
			OriginalText: "Con mèo ngồi trên thảm",
			SpokenText:   "con mèo ngồi trên thảm",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
		}
		resp := decodeBody[compareResponse](t, rec)
		if resp.Accuracy != 1.0 {
			t.Errorf("Accuracy = %v, want 1.0", resp.Accuracy)
		}
		if len(resp.Mistakes) != 0 {
			t.Errorf("Mistakes = %v, want none", resp.Mistakes)
		}
		if resp.Category != types.CategoryExcellent {
			t.Errorf("Category = %v, want %v", resp.Category, types.CategoryExcellent)
		}
	})

	t.Run("substitution", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/v1/compare", compareRequest{
			OriginalText: "con mèo ngồi trên thảm",
			SpokenText:   "con mèo ngồi trên ghế",
		})
		resp := decodeBody[compareResponse](t, rec)
		if resp.Accuracy != 0.8 {
			t.Errorf("Accuracy = %v, want 0.8", resp.Accuracy)
		}
		if len(resp.Mistakes) != 1 || resp.Mistakes[0].Type != types.MistakeSubstitution {
			t.Errorf("Mistakes = %+v, want one substitution", resp.Mistakes)
		}
		if len(resp.MistakeDetails) != 1 || resp.MistakeDetails[0].Description == "" {
			t.Errorf("MistakeDetails = %+v, want one populated entry", resp.MistakeDetails)
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/compare",
			strings.NewReader(`{"original_text":"a","bogus":true}`))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/compare", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})
}

func TestScoreEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, history.NewMemStore())

	t.Run("first attempt perfect", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/v1/score", scoreRequest{
			Accuracy:   1.0,
			Attempts:   1,
			Difficulty: "grade1",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
		}
		resp := decodeBody[scoreResponse](t, rec)
		if resp.Score != 100 {
			t.Errorf("Score = %d, want 100", resp.Score)
		}
		if resp.Category != types.CategoryExcellent {
			t.Errorf("Category = %v, want %v", resp.Category, types.CategoryExcellent)
		}
	})

	t.Run("invalid difficulty", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/v1/score", scoreRequest{
			Accuracy:   0.9,
			Attempts:   1,
			Difficulty: "grade9",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("accuracy out of range", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/v1/score", scoreRequest{
			Accuracy:   1.2,
			Attempts:   1,
			Difficulty: "grade1",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestComprehensiveScoreEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, history.NewMemStore())

	t.Run("perfect fast grade2 with streak", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/v1/score/comprehensive", comprehensiveScoreRequest{
			Accuracy:              1.0,
			Attempts:              1,
			Difficulty:            "grade2",
			CompletionTimeSeconds: 45,
			CurrentStreak:         5,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
		}
		b := decodeBody[scoring.Breakdown](t, rec)
		if b.AccuracyScore != 150 {
			t.Errorf("AccuracyScore = %d, want 150", b.AccuracyScore)
		}
		if b.PerfectBonus != 100 {
			t.Errorf("PerfectBonus = %d, want 100", b.PerfectBonus)
		}
		if b.TimeBonus == nil || b.TimeBonus.Points != 10 {
			t.Errorf("TimeBonus = %+v, want 10 points", b.TimeBonus)
		}
		if b.StreakBonus == nil || *b.StreakBonus != 50 {
			t.Errorf("StreakBonus = %v, want 50", b.StreakBonus)
		}
		if want := 150 + 25 + 100 + 10 + 50; b.FinalScore != want {
			t.Errorf("FinalScore = %d, want %d", b.FinalScore, want)
		}
	})

	t.Run("missing completion time", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/v1/score/comprehensive", comprehensiveScoreRequest{
			Accuracy:   0.9,
			Attempts:   1,
			Difficulty: "grade1",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestCreateSessionEndpoint(t *testing.T) {
	t.Parallel()

	store := history.NewMemStore()
	h := newTestServer(t, store)

	rec := doJSON(t, h, http.MethodPost, "/v1/sessions", createSessionRequest{
		UserID:                "user-1",
		OriginalText:          "con mèo ngồi trên thảm",
		SpokenText:            "con mèo ngồi trên thảm",
		Difficulty:            "grade2",
		Attempts:              1,
		CompletionTimeSeconds: 45,
		CurrentStreak:         2,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body)
	}
	resp := decodeBody[createSessionResponse](t, rec)
	if resp.Session.ID == 0 {
		t.Error("Session.ID = 0, want assigned")
	}
	if resp.Session.Score != resp.Breakdown.FinalScore {
		t.Errorf("Session.Score = %d, want breakdown final %d",
			resp.Session.Score, resp.Breakdown.FinalScore)
	}
	if resp.Comparison.Accuracy != 1.0 {
		t.Errorf("Comparison.Accuracy = %v, want 1.0", resp.Comparison.Accuracy)
	}

	stored, err := store.RecentSessions(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("RecentSessions() error = %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored sessions = %d, want 1", len(stored))
	}

	t.Run("missing user", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/v1/sessions", createSessionRequest{
			OriginalText:          "a",
			SpokenText:            "a",
			Difficulty:            "grade1",
			Attempts:              1,
			CompletionTimeSeconds: 30,
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

// downStore always reports the history backend as unavailable.
type downStore struct{}

func (downStore) RecordSession(context.Context, *types.PracticeSession) error {
	return history.ErrUnavailable
}

func (downStore) RecentSessions(context.Context, string, int) ([]types.PracticeSession, error) {
	return nil, history.ErrUnavailable
}

func (downStore) Close(context.Context) error { return nil }

func TestStoreUnavailable(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, downStore{})

	rec := doJSON(t, h, http.MethodPost, "/v1/sessions", createSessionRequest{
		UserID:                "user-1",
		OriginalText:          "a",
		SpokenText:            "a",
		Difficulty:            "grade1",
		Attempts:              1,
		CompletionTimeSeconds: 30,
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("POST /v1/sessions status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/users/user-1/trend", nil)
	out := httptest.NewRecorder()
	h.ServeHTTP(out, req)
	if out.Code != http.StatusServiceUnavailable {
		t.Errorf("GET trend status = %d, want %d", out.Code, http.StatusServiceUnavailable)
	}
}

func TestTrendEndpoint(t *testing.T) {
	t.Parallel()

	store := history.NewMemStore()
	h := newTestServer(t, store)

	for _, body := range []createSessionRequest{
		{UserID: "reader", OriginalText: "một hai ba bốn năm", SpokenText: "một hai ba bún nam",
			Difficulty: "grade1", Attempts: 1, CompletionTimeSeconds: 50},
		{UserID: "reader", OriginalText: "một hai ba bốn năm", SpokenText: "một hai ba bốn năm",
			Difficulty: "grade1", Attempts: 1, CompletionTimeSeconds: 40},
	} {
		if rec := doJSON(t, h, http.MethodPost, "/v1/sessions", body); rec.Code != http.StatusCreated {
			t.Fatalf("seeding session: status = %d (body %s)", rec.Code, rec.Body)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/users/reader/trend", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
	}
	resp := decodeBody[trendResponse](t, rec)
	if resp.Sessions != 2 {
		t.Errorf("Sessions = %d, want 2", resp.Sessions)
	}
	if resp.Trend.Direction != scoring.TrendImproving {
		t.Errorf("Trend.Direction = %v, want %v", resp.Trend.Direction, scoring.TrendImproving)
	}

	t.Run("bad limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/users/reader/trend?limit=zero", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, history.NewMemStore())

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, rec.Code, http.StatusOK)
		}
	}
}
