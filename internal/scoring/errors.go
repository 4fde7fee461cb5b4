package scoring

import "errors"

// Validation sentinel errors returned by [Scorer.ValidateParameters]. Test
// with [errors.Is]; the scoring functions themselves never return these —
// they are total over their documented domains.
var (
	// ErrInvalidAccuracy: accuracy outside [0, 1].
	ErrInvalidAccuracy = errors.New("scoring: accuracy must be within [0, 1]")

	// ErrInvalidAttempts: attempts below 1.
	ErrInvalidAttempts = errors.New("scoring: attempts must be at least 1")

	// ErrInvalidCompletionTime: negative completion time.
	ErrInvalidCompletionTime = errors.New("scoring: completion time must not be negative")

	// ErrInvalidDifficulty: unrecognised difficulty level.
	ErrInvalidDifficulty = errors.New("scoring: unknown difficulty level")
)
