// Package types defines the shared value types used across all readalign packages.
//
// These types form the lingua franca between the comparison engine, the scoring
// engine, the history store, and the HTTP API. They are intentionally minimal —
// each package defines its own domain types, but cross-cutting data structures
// live here to avoid circular imports.
package types

import (
	"fmt"
	"math"
	"time"
)

// DifficultyLevel is an ordinal reading difficulty tier. Higher tiers carry
// higher base point ceilings and multipliers.
type DifficultyLevel string

const (
	Grade1 DifficultyLevel = "grade1"
	Grade2 DifficultyLevel = "grade2"
	Grade3 DifficultyLevel = "grade3"
	Grade4 DifficultyLevel = "grade4"
	Grade5 DifficultyLevel = "grade5"
)

// Difficulties lists all difficulty levels in ascending order.
var Difficulties = []DifficultyLevel{Grade1, Grade2, Grade3, Grade4, Grade5}

// IsValid reports whether d is a recognised difficulty level.
func (d DifficultyLevel) IsValid() bool {
	switch d {
	case Grade1, Grade2, Grade3, Grade4, Grade5:
		return true
	}
	return false
}

// Tier returns the 1-based ordinal of the difficulty level (grade1 → 1,
// grade5 → 5). Returns 0 for an unrecognised level.
func (d DifficultyLevel) Tier() int {
	switch d {
	case Grade1:
		return 1
	case Grade2:
		return 2
	case Grade3:
		return 3
	case Grade4:
		return 4
	case Grade5:
		return 5
	}
	return 0
}

// BasePoints returns the maximum points awardable for a perfect reading at
// this difficulty. The table is strictly increasing with the tier.
func (d DifficultyLevel) BasePoints() int {
	switch d {
	case Grade1:
		return 100
	case Grade2:
		return 150
	case Grade3:
		return 200
	case Grade4:
		return 250
	case Grade5:
		return 300
	}
	return 0
}

// ParseDifficulty converts s into a [DifficultyLevel], returning an error for
// unrecognised values.
func ParseDifficulty(s string) (DifficultyLevel, error) {
	d := DifficultyLevel(s)
	if !d.IsValid() {
		return "", fmt.Errorf("types: unknown difficulty level %q", s)
	}
	return d, nil
}

// PerformanceCategory is the qualitative tier assigned to an accuracy value.
// Both the comparison engine and the scoring engine derive categories through
// [CategoryForAccuracy] so the two can never disagree on the same accuracy.
type PerformanceCategory string

const (
	CategoryExcellent        PerformanceCategory = "excellent"
	CategoryGood             PerformanceCategory = "good"
	CategoryFair             PerformanceCategory = "fair"
	CategoryNeedsImprovement PerformanceCategory = "needs_improvement"
)

// Category accuracy thresholds (inclusive lower bounds). These constants are
// the single source of truth for tiering; do not duplicate them elsewhere.
const (
	ExcellentThreshold = 0.95
	GoodThreshold      = 0.85
	FairThreshold      = 0.60
)

// CategoryForAccuracy maps an accuracy ratio in [0, 1] to its qualitative
// tier. Values outside the domain are clamped by the threshold comparison.
func CategoryForAccuracy(accuracy float64) PerformanceCategory {
	switch {
	case accuracy >= ExcellentThreshold:
		return CategoryExcellent
	case accuracy >= GoodThreshold:
		return CategoryGood
	case accuracy >= FairThreshold:
		return CategoryFair
	}
	return CategoryNeedsImprovement
}

// MistakeType classifies one divergence between the expected and the spoken
// word sequence.
type MistakeType string

const (
	// MistakeSubstitution: a different, phonetically unrelated word was spoken.
	MistakeSubstitution MistakeType = "substitution"

	// MistakeOmission: an expected word was not spoken at all.
	MistakeOmission MistakeType = "omission"

	// MistakeInsertion: an extra word was spoken that the text does not contain.
	MistakeInsertion MistakeType = "insertion"

	// MistakeMispronunciation: a phonetically close variant of the expected
	// word was spoken.
	MistakeMispronunciation MistakeType = "mispronunciation"
)

// IsValid reports whether t is a recognised mistake type.
func (t MistakeType) IsValid() bool {
	switch t {
	case MistakeSubstitution, MistakeOmission, MistakeInsertion, MistakeMispronunciation:
		return true
	}
	return false
}

// Severity is the ordinal cost classification of a mistake. It drives the
// per-mistake penalty in the scoring engine.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
)

// IsValid reports whether s is a recognised severity.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityMinor, SeverityModerate, SeverityMajor:
		return true
	}
	return false
}

// PenaltyPoints returns the score penalty charged for one mistake of this
// severity. Callers assert exact sums, so the table is part of the contract:
// minor=5, moderate=15, major=30.
func (s Severity) PenaltyPoints() int {
	switch s {
	case SeverityMinor:
		return 5
	case SeverityModerate:
		return 15
	case SeverityMajor:
		return 30
	}
	return 0
}

// Mistake is one detected divergence between the expected and actual word
// sequences. Values are immutable once constructed.
type Mistake struct {
	// Position is the 0-based index into the expected word sequence. For an
	// insertion it is the index of the expected word the extra word precedes
	// (len(expected words) when the insertion trails the text).
	Position int `json:"position"`

	// Expected is the expected word. Empty for insertions — nothing was
	// expected at this point.
	Expected string `json:"expected"`

	// Actual is the word that was spoken. Empty for omissions — nothing was
	// said where a word was expected.
	Actual string `json:"actual"`

	// Type classifies the divergence.
	Type MistakeType `json:"type"`

	// Severity is the penalty weight of the mistake.
	Severity Severity `json:"severity"`
}

// PracticeSession is a summary record of one completed reading-practice
// attempt. It is what the history store persists and what trend analysis
// consumes; full comparison output is not retained.
type PracticeSession struct {
	// ID is assigned by the store on insert; zero until then.
	ID int64 `json:"id"`

	// UserID identifies the reader.
	UserID string `json:"user_id"`

	// Accuracy is the comparison accuracy in [0, 1].
	Accuracy float64 `json:"accuracy"`

	// Score is the final score awarded for the session.
	Score int `json:"score"`

	// Difficulty is the tier of the practised text.
	Difficulty DifficultyLevel `json:"difficulty"`

	// Attempts is how many tries the reader needed, starting at 1.
	Attempts int `json:"attempts"`

	// Duration is how long the reading took.
	Duration time.Duration `json:"duration"`

	// CompletedAt marks when the session finished.
	CompletedAt time.Time `json:"completed_at"`
}

// RoundPoints converts a fractional point value to whole points using
// half-away-from-zero rounding, the rounding mode used throughout scoring.
func RoundPoints(v float64) int {
	return int(math.Round(v))
}
