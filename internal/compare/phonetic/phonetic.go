// Package phonetic decides whether two differing words are close enough in
// sound to count as a mispronunciation rather than an outright substitution.
//
// The decision combines three rules, any one of which marks a pair as close:
//
//  1. Confusable-cluster substitution: the two words differ only in a leading
//     consonant cluster drawn from a table of commonly confused pairs. The
//     built-in table targets Vietnamese early readers (d↔gi, tr↔ch, s↔x,
//     c↔k, th↔t) and can be extended per deployment.
//
//  2. Edit distance: rune-level Levenshtein distance of at most one, applied
//     only to words of three or more runes so that short function words are
//     not collapsed into each other.
//
//  3. String similarity: Jaro-Winkler similarity above a configurable
//     threshold (default 0.92), which catches diacritic slips and transposed
//     letters that cost more than one edit.
//
// The result is a deterministic boolean: the same pair of words always
// produces the same answer. A Matcher is read-only after construction and
// safe for concurrent use.
package phonetic

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultMaxEditDistance     = 1
	defaultSimilarityThreshold = 0.92

	// minEditDistanceLen is the minimum rune length for the edit-distance
	// rule. Below it a single edit rewrites too much of the word.
	minEditDistanceLen = 3
)

// Pair is one confusable cluster pair. Order is irrelevant — a pair covers
// both substitution directions.
type Pair struct {
	A string
	B string
}

// defaultPairs is the seed table of leading clusters Vietnamese readers
// commonly swap or drop.
var defaultPairs = []Pair{
	{A: "d", B: "gi"},
	{A: "tr", B: "ch"},
	{A: "s", B: "x"},
	{A: "c", B: "k"},
	{A: "th", B: "t"},
	{A: "l", B: "n"},
	{A: "r", B: "d"},
}

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithConfusionPairs appends extra confusable cluster pairs to the built-in
// table. The built-in pairs are always retained.
func WithConfusionPairs(pairs ...Pair) Option {
	return func(m *Matcher) {
		m.pairs = append(m.pairs, pairs...)
	}
}

// WithMaxEditDistance sets the maximum Levenshtein distance for rule 2.
// Default: 1. A value of 0 disables the rule.
func WithMaxEditDistance(d int) Option {
	return func(m *Matcher) {
		m.maxEditDistance = d
	}
}

// WithSimilarityThreshold sets the minimum Jaro-Winkler similarity for
// rule 3. Default: 0.92. A threshold above 1 disables the rule.
func WithSimilarityThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.similarityThreshold = threshold
	}
}

// Matcher reports phonetic closeness between word pairs. All methods are
// safe for concurrent use — the Matcher is read-only after construction.
type Matcher struct {
	pairs               []Pair
	maxEditDistance     int
	similarityThreshold float64
}

// New returns a [Matcher] configured with the supplied options. Without
// options the matcher uses the built-in Vietnamese cluster table, an edit
// distance limit of 1, and a similarity threshold of 0.92.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		pairs:               append([]Pair(nil), defaultPairs...),
		maxEditDistance:     defaultMaxEditDistance,
		similarityThreshold: defaultSimilarityThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Close reports whether actual is a phonetically plausible rendering of
// expected. Both arguments are compared case-insensitively; identical words
// are trivially close.
func (m *Matcher) Close(expected, actual string) bool {
	e := strings.ToLower(strings.TrimSpace(expected))
	a := strings.ToLower(strings.TrimSpace(actual))
	if e == "" || a == "" {
		return false
	}
	if e == a {
		return true
	}

	if m.clusterSwap(e, a) {
		return true
	}

	if m.maxEditDistance > 0 &&
		len([]rune(e)) >= minEditDistanceLen && len([]rune(a)) >= minEditDistanceLen {
		if matchr.Levenshtein(e, a) <= m.maxEditDistance {
			return true
		}
	}

	if m.similarityThreshold <= 1 {
		if matchr.JaroWinkler(e, a, false) >= m.similarityThreshold {
			return true
		}
	}

	return false
}

// clusterSwap reports whether e and a differ only by one confusable leading
// cluster: stripping one member of a known pair from each word leaves equal
// remainders.
func (m *Matcher) clusterSwap(e, a string) bool {
	for _, p := range m.pairs {
		if swapMatches(e, a, p.A, p.B) || swapMatches(e, a, p.B, p.A) {
			return true
		}
	}
	return false
}

// swapMatches reports whether e starts with cluster ce, a starts with cluster
// ca, and the remainders after the clusters are identical.
func swapMatches(e, a, ce, ca string) bool {
	if !strings.HasPrefix(e, ce) || !strings.HasPrefix(a, ca) {
		return false
	}
	return e[len(ce):] == a[len(ca):]
}
