package compare

import (
	"fmt"

	"github.com/minhngo-dev/readalign/pkg/types"
)

// Describe returns a human-readable explanation of a mistake, generated on
// demand from the mistake type. The caller localises for display; these
// templates are the canonical generation rule.
func Describe(m types.Mistake) string {
	switch m.Type {
	case types.MistakeOmission:
		return fmt.Sprintf("The word %q was skipped.", m.Expected)
	case types.MistakeInsertion:
		return fmt.Sprintf("The extra word %q was added.", m.Actual)
	case types.MistakeMispronunciation:
		return fmt.Sprintf("The word %q was pronounced like %q.", m.Expected, m.Actual)
	case types.MistakeSubstitution:
		return fmt.Sprintf("The word %q was read as %q.", m.Expected, m.Actual)
	}
	return ""
}

// Suggest returns a remediation hint for a mistake, keyed on the mistake
// type like [Describe].
func Suggest(m types.Mistake) string {
	switch m.Type {
	case types.MistakeOmission:
		return fmt.Sprintf("Point at each word while reading so %q is not missed.", m.Expected)
	case types.MistakeInsertion:
		return "Read only the words on the page, slowly and one at a time."
	case types.MistakeMispronunciation:
		return fmt.Sprintf("Listen to %q again and repeat it syllable by syllable.", m.Expected)
	case types.MistakeSubstitution:
		return fmt.Sprintf("Look carefully at %q — it is a different word than %q.", m.Expected, m.Actual)
	}
	return ""
}
