package scoring

import (
	"sort"

	"github.com/minhngo-dev/readalign/pkg/types"
)

// trendNoiseThreshold is the accuracy change, in percentage points, below
// which session-to-session variation is treated as noise.
const trendNoiseThreshold = 3.0

// TrendDirection classifies how a reader's accuracy is developing.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// Trend summarises the accuracy development over a window of recent
// sessions.
type Trend struct {
	// Direction is the classification of the change.
	Direction TrendDirection `json:"direction"`

	// ChangePercentage is the signed accuracy change between the early and
	// late halves of the window, in percentage points.
	ChangePercentage float64 `json:"change_percentage"`
}

// PerformanceTrend compares the average accuracy of the earlier half of the
// sessions with the later half, ordered chronologically, and classifies the
// change. Fewer than two sessions is always stable. A change within ±3
// percentage points counts as noise.
func (s *Scorer) PerformanceTrend(sessions []types.PracticeSession) Trend {
	if len(sessions) < 2 {
		return Trend{Direction: TrendStable}
	}

	ordered := make([]types.PracticeSession, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CompletedAt.Before(ordered[j].CompletedAt)
	})

	half := len(ordered) / 2
	early := averageAccuracy(ordered[:half])
	late := averageAccuracy(ordered[half:])

	change := (late - early) * 100

	direction := TrendStable
	switch {
	case change > trendNoiseThreshold:
		direction = TrendImproving
	case change < -trendNoiseThreshold:
		direction = TrendDeclining
	}

	return Trend{Direction: direction, ChangePercentage: change}
}

func averageAccuracy(sessions []types.PracticeSession) float64 {
	if len(sessions) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range sessions {
		total += s.Accuracy
	}
	return total / float64(len(sessions))
}
