// Package scoring converts comparison accuracy into points: base score per
// difficulty tier, time/streak/perfect bonuses, attempt and mistake-severity
// penalties, and a transparent per-component breakdown.
//
// The scorer trusts the accuracy it is handed — it never re-runs alignment.
// All methods are pure and a single Scorer can be shared by any number of
// concurrent sessions without synchronisation.
package scoring

import (
	"errors"
	"math"
	"time"

	"github.com/minhngo-dev/readalign/pkg/types"
)

const (
	// perfectBonusPoints is the flat reward for a flawless reading.
	perfectBonusPoints = 100

	// streakPointsPerSession is multiplied by the streak length once the
	// streak reaches streakMinimum.
	streakPointsPerSession = 10
	streakMinimum          = 2

	// maxTimeBonusPoints caps the reward for reading faster than target.
	maxTimeBonusPoints = 20

	// firstRetryPenaltyRate is the score fraction deducted on the second
	// attempt. Each further attempt adds retryPenaltyStep, capped at
	// maxPenaltyRate.
	firstRetryPenaltyRate = 0.15
	retryPenaltyStep      = 0.10
	maxPenaltyRate        = 0.50

	// difficultyBonusStep is the flat per-tier reward for attempting content
	// above grade1.
	difficultyBonusStep = 25

	// maxValidScore bounds sane stored or displayed scores.
	maxValidScore = 1000
)

// Scorer is the scoring engine. It carries no state; the zero value is ready
// to use and safe for concurrent use.
type Scorer struct{}

// New returns a ready [Scorer].
func New() *Scorer {
	return &Scorer{}
}

// Score converts an accuracy ratio into points for one reading: the
// difficulty's base points scaled by accuracy, minus the retry penalty when
// more than one attempt was needed.
//
// The penalty is 15% of the accuracy-scaled score on the second attempt and
// grows by 10 percentage points per further attempt, capped at 50%. Only the
// two-attempt case is anchored by product behaviour; the ladder beyond it is
// this package's documented extrapolation.
func (s *Scorer) Score(accuracy float64, attempts int, difficulty types.DifficultyLevel) int {
	base := types.RoundPoints(accuracy * float64(difficulty.BasePoints()))
	return base - s.attemptPenalty(base, attempts)
}

// attemptPenalty returns the points deducted from score for the given number
// of attempts. Zero for the first attempt.
func (s *Scorer) attemptPenalty(score, attempts int) int {
	if attempts <= 1 {
		return 0
	}
	rate := firstRetryPenaltyRate + retryPenaltyStep*float64(attempts-2)
	rate = math.Min(rate, maxPenaltyRate)
	return types.RoundPoints(float64(score) * rate)
}

// DifficultyMultiplier returns the multiplier for the detailed scoring path:
// 1.0 for grade1, rising by 0.2 per tier to 1.8 for grade5. It deliberately
// coexists with the base-points table — one scales raw points, the other
// scales already-computed points in aggregate views.
func (s *Scorer) DifficultyMultiplier(difficulty types.DifficultyLevel) float64 {
	tier := difficulty.Tier()
	if tier == 0 {
		return 0
	}
	return 1.0 + 0.2*float64(tier-1)
}

// BonusPoints sums the applicable bonuses: a flat 100 for a perfect reading,
// streak × 10 once the streak reaches two consecutive successes (a streak of
// one earns nothing yet), and the time bonus when present.
func (s *Scorer) BonusPoints(streak int, perfect bool, timeBonus *TimeBonus) int {
	total := 0
	if perfect {
		total += perfectBonusPoints
	}
	if streak >= streakMinimum {
		total += streak * streakPointsPerSession
	}
	if timeBonus != nil {
		total += timeBonus.Points
	}
	return total
}

// CalculateTimeBonus returns the reward for finishing strictly faster than
// target, or nil when no bonus applies (at or over target, a non-positive
// target, or a saving too small to round to a whole point). The bonus is
// proportional to the fraction of time saved, capped at 20 points.
func (s *Scorer) CalculateTimeBonus(completion, target time.Duration) *TimeBonus {
	if target <= 0 || completion >= target {
		return nil
	}
	saved := float64(target-completion) / float64(target)
	points := types.RoundPoints(math.Min(maxTimeBonusPoints, saved*maxTimeBonusPoints))
	if points <= 0 {
		return nil
	}
	return &TimeBonus{
		Points:         points,
		CompletionTime: completion,
		TargetTime:     target,
	}
}

// TargetTime returns the expected reading duration for a difficulty tier,
// used by [Scorer.ComprehensiveScore] to evaluate the time bonus: 60 seconds
// at grade1, plus 30 seconds per tier above it.
func (s *Scorer) TargetTime(difficulty types.DifficultyLevel) time.Duration {
	tier := difficulty.Tier()
	if tier == 0 {
		return 0
	}
	return 60*time.Second + 30*time.Second*time.Duration(tier-1)
}

// ComprehensiveScore assembles the full per-component [Breakdown] for one
// session. BaseScore is the raw tier ceiling; AccuracyScore is that ceiling
// scaled by accuracy. The optional bonuses keep their absence distinct from
// zero, and FinalScore is floored at zero however large the penalties grow.
func (s *Scorer) ComprehensiveScore(
	accuracy float64,
	attempts int,
	difficulty types.DifficultyLevel,
	completionTime time.Duration,
	streak int,
	mistakes []types.Mistake,
) Breakdown {
	base := difficulty.BasePoints()
	accuracyScore := types.RoundPoints(accuracy * float64(base))

	difficultyBonus := 0
	if tier := difficulty.Tier(); tier > 1 {
		difficultyBonus = difficultyBonusStep * (tier - 1)
	}

	b := Breakdown{
		BaseScore:       base,
		AccuracyScore:   accuracyScore,
		DifficultyBonus: difficultyBonus,
		TimeBonus:       s.CalculateTimeBonus(completionTime, s.TargetTime(difficulty)),
		AttemptPenalty:  s.attemptPenalty(accuracyScore, attempts),
		MistakePenalty:  severityPenalty(mistakes),
		Category:        types.CategoryForAccuracy(accuracy),
	}
	if streak >= streakMinimum {
		sb := streak * streakPointsPerSession
		b.StreakBonus = &sb
	}
	if accuracy == 1.0 {
		b.PerfectBonus = perfectBonusPoints
	}

	final := b.AccuracyScore + b.DifficultyBonus + b.PerfectBonus
	if b.TimeBonus != nil {
		final += b.TimeBonus.Points
	}
	if b.StreakBonus != nil {
		final += *b.StreakBonus
	}
	final -= b.AttemptPenalty + b.MistakePenalty
	b.FinalScore = max(final, 0)

	return b
}

// ScoreWithMistakeSeverity is [Scorer.Score] minus the summed per-severity
// mistake penalties, floored at zero.
func (s *Scorer) ScoreWithMistakeSeverity(
	accuracy float64,
	mistakes []types.Mistake,
	difficulty types.DifficultyLevel,
	attempts int,
) int {
	return max(s.Score(accuracy, attempts, difficulty)-severityPenalty(mistakes), 0)
}

// AdaptiveScore rewards improvement over the reader's own average: at or
// below the average it returns [Scorer.Score] unchanged, above it the score
// is strictly higher — the bonus is proportional to the improvement but
// never rounds away to nothing.
func (s *Scorer) AdaptiveScore(
	accuracy float64,
	attempts int,
	difficulty types.DifficultyLevel,
	userAverageAccuracy float64,
) int {
	score := s.Score(accuracy, attempts, difficulty)
	if accuracy <= userAverageAccuracy {
		return score
	}
	bonus := types.RoundPoints(float64(score) * (accuracy - userAverageAccuracy))
	if bonus < 1 {
		bonus = 1
	}
	return score + bonus
}

// ValidateParameters checks inputs arriving from an untrusted boundary
// before the scoring calls run. All violations are reported at once via a
// joined error; test individual causes with [errors.Is] against the package
// sentinel errors.
func (s *Scorer) ValidateParameters(
	accuracy float64,
	attempts int,
	difficulty types.DifficultyLevel,
	completionTime time.Duration,
) error {
	var errs []error
	if accuracy < 0 || accuracy > 1 {
		errs = append(errs, ErrInvalidAccuracy)
	}
	if attempts < 1 {
		errs = append(errs, ErrInvalidAttempts)
	}
	if completionTime < 0 {
		errs = append(errs, ErrInvalidCompletionTime)
	}
	if !difficulty.IsValid() {
		errs = append(errs, ErrInvalidDifficulty)
	}
	return errors.Join(errs...)
}

// IsValidScore reports whether score lies in the sane display range [0, 1000].
func (s *Scorer) IsValidScore(score int) bool {
	return score >= 0 && score <= maxValidScore
}

// severityPenalty sums the per-severity cost of every mistake.
func severityPenalty(mistakes []types.Mistake) int {
	total := 0
	for _, m := range mistakes {
		total += m.Severity.PenaltyPoints()
	}
	return total
}
