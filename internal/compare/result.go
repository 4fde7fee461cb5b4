package compare

import "github.com/minhngo-dev/readalign/pkg/types"

// Feedback tier messages. One deterministic message per tier so that a given
// accuracy always produces the same feedback.
const (
	feedbackExcellent        = "Excellent reading! You got almost every word right."
	feedbackGood             = "Great job! Just a few words to polish."
	feedbackFair             = "Good effort — keep practising the tricky words."
	feedbackNeedsImprovement = "Let's try that one again together."
)

// Result is the full output of one comparison. It is an immutable value:
// construct it through [Comparer.Compare] and treat every field as read-only.
type Result struct {
	// OriginalText and SpokenText are the two inputs verbatim, before any
	// normalization, kept for display and audit.
	OriginalText string `json:"original_text"`
	SpokenText   string `json:"spoken_text"`

	// Accuracy is the ratio of matched words to total expected words,
	// in [0, 1]. Two empty texts score 1.0.
	Accuracy float64 `json:"accuracy"`

	// Mistakes holds every detected divergence in ascending position order.
	Mistakes []types.Mistake `json:"mistakes"`

	// MatchedWords lists the normalized expected words that were read
	// correctly, in text order.
	MatchedWords []string `json:"matched_words"`

	// Feedback is the tier-selected encouragement message for Accuracy.
	Feedback string `json:"feedback"`

	// TotalWords is the word count of the normalized original text.
	TotalWords int `json:"total_words"`
}

// CorrectWords returns the number of expected words read correctly:
// TotalWords minus every mistake that counts against an expected position.
// Insertions are extra words, not wrong ones, and do not reduce the count.
func (r Result) CorrectWords() int {
	n := r.TotalWords
	for _, m := range r.Mistakes {
		if m.Type != types.MistakeInsertion {
			n--
		}
	}
	return n
}

// IsPerfect reports whether the reading matched the text exactly: full
// accuracy and not a single recorded mistake (a 1.0 accuracy with trailing
// insertions is not perfect).
func (r Result) IsPerfect() bool {
	return r.Accuracy == 1.0 && len(r.Mistakes) == 0
}

// Category returns the qualitative performance tier for the result's
// accuracy, using the shared threshold table in [types.CategoryForAccuracy].
func (r Result) Category() types.PerformanceCategory {
	return types.CategoryForAccuracy(r.Accuracy)
}

// Feedback returns the tier message for an already-built [Result]. It is the
// same selection [Comparer.Compare] applies, exposed for callers that
// synthesise results.
func Feedback(r Result) string {
	return feedbackForAccuracy(r.Accuracy)
}

// feedbackForAccuracy selects the encouragement message for an accuracy
// ratio. Tier bounds are inclusive and mirror the category thresholds, with
// an extra cut at the fair boundary.
func feedbackForAccuracy(accuracy float64) string {
	switch {
	case accuracy >= types.ExcellentThreshold:
		return feedbackExcellent
	case accuracy >= types.GoodThreshold:
		return feedbackGood
	case accuracy >= types.FairThreshold:
		return feedbackFair
	}
	return feedbackNeedsImprovement
}
