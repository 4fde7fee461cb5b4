package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/minhngo-dev/readalign/internal/compare"
	"github.com/minhngo-dev/readalign/internal/history"
	"github.com/minhngo-dev/readalign/internal/observe"
	"github.com/minhngo-dev/readalign/internal/scoring"
	"github.com/minhngo-dev/readalign/pkg/types"
)

// maxBodyBytes caps request bodies. Reading passages are a few sentences, so
// anything near this limit is malformed or hostile.
const maxBodyBytes = 1 << 20

type compareRequest struct {
	OriginalText string `json:"original_text"`
	SpokenText   string `json:"spoken_text"`
}

type compareResponse struct {
	compare.Result
	Category types.PerformanceCategory `json:"category"`

	// MistakeDetails carries per-mistake explanations and remediation hints,
	// index-aligned with the result's mistakes.
	MistakeDetails []mistakeDetail `json:"mistake_details,omitempty"`
}

type mistakeDetail struct {
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	start := time.Now()
	result := s.comparer.Compare(req.OriginalText, req.SpokenText)
	s.metrics.RecordComparison(r.Context(), time.Since(start).Seconds(),
		string(result.Category()), mistakeTypes(result.Mistakes))

	details := make([]mistakeDetail, len(result.Mistakes))
	for i, m := range result.Mistakes {
		details[i] = mistakeDetail{
			Description: compare.Describe(m),
			Suggestion:  compare.Suggest(m),
		}
	}

	writeJSON(w, http.StatusOK, compareResponse{
		Result:         result,
		Category:       result.Category(),
		MistakeDetails: details,
	})
}

type scoreRequest struct {
	Accuracy   float64 `json:"accuracy"`
	Attempts   int     `json:"attempts"`
	Difficulty string  `json:"difficulty"`
}

type scoreResponse struct {
	Score    int                       `json:"score"`
	Category types.PerformanceCategory `json:"category"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	difficulty := types.DifficultyLevel(req.Difficulty)
	if err := s.scorer.ValidateParameters(req.Accuracy, req.Attempts, difficulty, 0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	score := s.scorer.Score(req.Accuracy, req.Attempts, difficulty)
	category := types.CategoryForAccuracy(req.Accuracy)
	s.metrics.RecordScore(r.Context(), string(difficulty), string(category))

	writeJSON(w, http.StatusOK, scoreResponse{Score: score, Category: category})
}

type comprehensiveScoreRequest struct {
	Accuracy              float64         `json:"accuracy"`
	Attempts              int             `json:"attempts"`
	Difficulty            string          `json:"difficulty"`
	CompletionTimeSeconds float64         `json:"completion_time_seconds"`
	CurrentStreak         int             `json:"current_streak"`
	Mistakes              []types.Mistake `json:"mistakes"`
}

func (s *Server) handleComprehensiveScore(w http.ResponseWriter, r *http.Request) {
	var req comprehensiveScoreRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	difficulty := types.DifficultyLevel(req.Difficulty)
	completion := secondsToDuration(req.CompletionTimeSeconds)
	if completion <= 0 {
		writeError(w, http.StatusBadRequest, "completion_time_seconds must be positive")
		return
	}
	if err := s.scorer.ValidateParameters(req.Accuracy, req.Attempts, difficulty, completion); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	breakdown := s.scorer.ComprehensiveScore(req.Accuracy, req.Attempts, difficulty,
		completion, req.CurrentStreak, req.Mistakes)
	s.metrics.RecordScore(r.Context(), string(difficulty), string(breakdown.Category))

	writeJSON(w, http.StatusOK, breakdown)
}

type createSessionRequest struct {
	UserID                string  `json:"user_id"`
	OriginalText          string  `json:"original_text"`
	SpokenText            string  `json:"spoken_text"`
	Difficulty            string  `json:"difficulty"`
	Attempts              int     `json:"attempts"`
	CompletionTimeSeconds float64 `json:"completion_time_seconds"`
	CurrentStreak         int     `json:"current_streak"`
}

type createSessionResponse struct {
	Session    types.PracticeSession     `json:"session"`
	Comparison compare.Result            `json:"comparison"`
	Category   types.PerformanceCategory `json:"category"`
	Breakdown  scoring.Breakdown         `json:"breakdown"`
}

// handleCreateSession runs the full pipeline for one finished reading:
// compare the transcript, score it, and persist the session for trend
// analysis.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	difficulty := types.DifficultyLevel(req.Difficulty)
	completion := secondsToDuration(req.CompletionTimeSeconds)
	if completion <= 0 {
		writeError(w, http.StatusBadRequest, "completion_time_seconds must be positive")
		return
	}

	start := time.Now()
	result := s.comparer.Compare(req.OriginalText, req.SpokenText)
	s.metrics.RecordComparison(r.Context(), time.Since(start).Seconds(),
		string(result.Category()), mistakeTypes(result.Mistakes))

	if err := s.scorer.ValidateParameters(result.Accuracy, req.Attempts, difficulty, completion); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	breakdown := s.scorer.ComprehensiveScore(result.Accuracy, req.Attempts, difficulty,
		completion, req.CurrentStreak, result.Mistakes)
	s.metrics.RecordScore(r.Context(), string(difficulty), string(breakdown.Category))

	session := &types.PracticeSession{
		UserID:      req.UserID,
		Accuracy:    result.Accuracy,
		Score:       breakdown.FinalScore,
		Difficulty:  difficulty,
		Attempts:    req.Attempts,
		Duration:    completion,
		CompletedAt: time.Now().UTC(),
	}
	if err := s.store.RecordSession(r.Context(), session); err != nil {
		s.metrics.RecordStoreError(r.Context(), "record_session")
		observe.Logger(r.Context()).Error("recording practice session failed",
			"user_id", req.UserID, "err", err)
		writeError(w, storeStatus(err), "recording session failed")
		return
	}
	s.metrics.SessionsRecorded.Add(r.Context(), 1)

	writeJSON(w, http.StatusCreated, createSessionResponse{
		Session:    *session,
		Comparison: result,
		Category:   result.Category(),
		Breakdown:  breakdown,
	})
}

type trendResponse struct {
	UserID   string        `json:"user_id"`
	Sessions int           `json:"sessions"`
	Trend    scoring.Trend `json:"trend"`
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	sessions, err := s.store.RecentSessions(r.Context(), userID, limit)
	if err != nil {
		s.metrics.RecordStoreError(r.Context(), "recent_sessions")
		observe.Logger(r.Context()).Error("loading session history failed", "user_id", userID, "err", err)
		writeError(w, storeStatus(err), "loading session history failed")
		return
	}

	writeJSON(w, http.StatusOK, trendResponse{
		UserID:   userID,
		Sessions: len(sessions),
		Trend:    s.scorer.PerformanceTrend(sessions),
	})
}

// decodeRequest parses a JSON body into v, writing a 400 response and
// returning false on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// secondsToDuration converts a fractional seconds value from a request body.
func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// storeStatus maps a history store error to an HTTP status.
func storeStatus(err error) int {
	if errors.Is(err, history.ErrUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func mistakeTypes(mistakes []types.Mistake) []string {
	if len(mistakes) == 0 {
		return nil
	}
	out := make([]string, len(mistakes))
	for i, m := range mistakes {
		out[i] = string(m.Type)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
