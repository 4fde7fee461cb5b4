// Package compare implements the word-level text comparison engine: it
// normalizes an expected text and a spoken rendering of it, aligns the two
// word sequences, classifies every divergence as a substitution, omission,
// insertion, or mispronunciation, and derives an accuracy ratio with a
// feedback tier.
//
// The engine is pure: Compare and Accuracy are total functions over their two
// string inputs with no hidden state, so a single Comparer can be shared by
// any number of concurrent sessions without synchronisation.
package compare

import (
	"strings"
	"unicode"

	"github.com/minhngo-dev/readalign/internal/compare/phonetic"
	"github.com/minhngo-dev/readalign/pkg/types"
)

// Option is a functional option for configuring a [Comparer].
type Option func(*Comparer)

// WithPhoneticMatcher replaces the default phonetic matcher used to separate
// mispronunciations from substitutions.
func WithPhoneticMatcher(m *phonetic.Matcher) Option {
	return func(c *Comparer) {
		c.phonetic = m
	}
}

// Comparer is the text comparison engine. It is read-only after construction
// and safe for concurrent use.
type Comparer struct {
	phonetic *phonetic.Matcher
}

// New returns a [Comparer] configured with the supplied options. Without
// options the comparer uses [phonetic.New] with its default rule set.
func New(opts ...Option) *Comparer {
	c := &Comparer{}
	for _, o := range opts {
		o(c)
	}
	if c.phonetic == nil {
		c.phonetic = phonetic.New()
	}
	return c
}

// Compare aligns original against spoken and returns the full comparison
// result. It never fails: empty inputs are legal, and two empty texts are
// defined as a perfect match.
//
// Both texts are normalized first (case-folded, boundary punctuation
// stripped, whitespace collapsed). The word sequences are then aligned with
// a minimum-edit-distance alignment so that a single omitted or inserted
// word shifts the rest of the sentence without cascading into spurious
// substitutions. Each divergence is classified:
//
//   - expected word unmatched → omission (moderate)
//   - extra spoken word → insertion (minor)
//   - different word, phonetically close → mispronunciation (minor)
//   - different word otherwise → substitution (moderate)
//
// Accuracy is matched words over total expected words; insertions are
// recorded but never reduce accuracy.
func (c *Comparer) Compare(original, spoken string) Result {
	expected := normalize(original)
	actual := normalize(spoken)

	matched, mistakes := c.align(expected, actual)

	accuracy := 1.0
	if len(expected) > 0 {
		accuracy = float64(len(matched)) / float64(len(expected))
	}

	return Result{
		OriginalText: original,
		SpokenText:   spoken,
		Accuracy:     accuracy,
		Mistakes:     mistakes,
		MatchedWords: matched,
		Feedback:     feedbackForAccuracy(accuracy),
		TotalWords:   len(expected),
	}
}

// Accuracy returns only the accuracy ratio for the pair. It runs the same
// alignment as [Comparer.Compare], so the two can never disagree for the
// same inputs.
func (c *Comparer) Accuracy(original, spoken string) float64 {
	return c.Compare(original, spoken).Accuracy
}

// align pairs the expected and actual word sequences using a word-level
// Levenshtein alignment and classifies every divergence. It returns the
// matched expected words in order and the mistakes in ascending position
// order.
func (c *Comparer) align(expected, actual []string) (matched []string, mistakes []types.Mistake) {
	n, m := len(expected), len(actual)

	// Edit-distance table: d[i][j] is the cost of aligning the first i
	// expected words with the first j actual words.
	d := make([][]int, n+1)
	for i := range d {
		d[i] = make([]int, m+1)
		d[i][0] = i
	}
	for j := 0; j <= m; j++ {
		d[0][j] = j
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if expected[i-1] == actual[j-1] {
				d[i][j] = d[i-1][j-1]
				continue
			}
			d[i][j] = min(d[i-1][j-1], min(d[i-1][j], d[i][j-1])) + 1
		}
	}

	// Backtrace. The preference order (match, substitution, omission,
	// insertion) is the deterministic tie-break: equal-cost alignments always
	// resolve the same way.
	i, j := n, m
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && expected[i-1] == actual[j-1] && d[i][j] == d[i-1][j-1]:
			matched = append(matched, expected[i-1])
			i--
			j--
		case i > 0 && j > 0 && d[i][j] == d[i-1][j-1]+1:
			mistakes = append(mistakes, c.classifyPair(i-1, expected[i-1], actual[j-1]))
			i--
			j--
		case i > 0 && d[i][j] == d[i-1][j]+1:
			mistakes = append(mistakes, types.Mistake{
				Position: i - 1,
				Expected: expected[i-1],
				Type:     types.MistakeOmission,
				Severity: types.SeverityModerate,
			})
			i--
		default:
			mistakes = append(mistakes, types.Mistake{
				Position: i,
				Actual:   actual[j-1],
				Type:     types.MistakeInsertion,
				Severity: types.SeverityMinor,
			})
			j--
		}
	}

	reverse(matched)
	reverse(mistakes)
	return matched, mistakes
}

// classifyPair decides whether a differing word pair is a mispronunciation
// or a substitution.
func (c *Comparer) classifyPair(pos int, expected, actual string) types.Mistake {
	mt := types.MistakeSubstitution
	sev := types.SeverityModerate
	if c.phonetic.Close(expected, actual) {
		mt = types.MistakeMispronunciation
		sev = types.SeverityMinor
	}
	return types.Mistake{
		Position: pos,
		Expected: expected,
		Actual:   actual,
		Type:     mt,
		Severity: sev,
	}
}

// normalize lowercases text, strips punctuation from word boundaries, and
// splits on whitespace. Word-internal characters (including diacritics and
// hyphens) are left untouched. Tokens that are pure punctuation disappear.
func normalize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

func reverse[S ~[]E, E any](s S) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
