package evaluation

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxFuzzyRunes bounds the quadratic edit-distance computation.
const maxFuzzyRunes = 2000

// FuzzyRatio is 1 - levenshtein(a, b) / max(len(a), len(b)) over lowercase runes.
func FuzzyRatio(a, b string) float64 {
	ra := []rune(strings.ToLower(strings.TrimSpace(a)))
	rb := []rune(strings.ToLower(strings.TrimSpace(b)))
	if len(ra) > maxFuzzyRunes {
		ra = ra[:maxFuzzyRunes]
	}
	if len(rb) > maxFuzzyRunes {
		rb = rb[:maxFuzzyRunes]
	}

	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	dist := levenshtein.ComputeDistance(string(ra), string(rb))
	return clampFloat(1-float64(dist)/float64(longest), 0, 1)
}
