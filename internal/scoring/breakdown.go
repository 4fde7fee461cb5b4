package scoring

import (
	"time"

	"github.com/minhngo-dev/readalign/pkg/types"
)

// TimeBonus is the reward for finishing a reading faster than its target
// time. A nil *TimeBonus means no bonus applies — absence is meaningful and
// distinct from a zero-point bonus, which never occurs.
type TimeBonus struct {
	// Points is the bonus awarded, always > 0.
	Points int `json:"points"`

	// CompletionTime is how long the reading actually took.
	CompletionTime time.Duration `json:"completion_time"`

	// TargetTime is the target the reading was measured against.
	TargetTime time.Duration `json:"target_time"`
}

// Breakdown is the transparent decomposition of one scoring call. Every
// positive and negative component is reported separately so callers can show
// the child exactly where the points came from.
type Breakdown struct {
	// BaseScore is the point ceiling for the difficulty tier, before any
	// accuracy scaling.
	BaseScore int `json:"base_score"`

	// AccuracyScore is BaseScore scaled by the achieved accuracy.
	AccuracyScore int `json:"accuracy_score"`

	// DifficultyBonus rewards attempting harder content: zero for grade1,
	// rising with the tier.
	DifficultyBonus int `json:"difficulty_bonus"`

	// TimeBonus is nil when the reading was not faster than target.
	TimeBonus *TimeBonus `json:"time_bonus,omitempty"`

	// StreakBonus is nil when the streak does not qualify (below two
	// consecutive successes). Callers branch on presence, not on zero.
	StreakBonus *int `json:"streak_bonus,omitempty"`

	// PerfectBonus is awarded only for a flawless reading (accuracy 1.0).
	PerfectBonus int `json:"perfect_bonus"`

	// AttemptPenalty is deducted when more than one attempt was needed.
	AttemptPenalty int `json:"attempt_penalty"`

	// MistakePenalty is the summed per-severity cost of every mistake.
	MistakePenalty int `json:"mistake_penalty"`

	// FinalScore is all bonuses minus all penalties, floored at zero.
	FinalScore int `json:"final_score"`

	// Category is the qualitative tier for the accuracy, from the same
	// threshold table the comparison engine uses.
	Category types.PerformanceCategory `json:"category"`
}
