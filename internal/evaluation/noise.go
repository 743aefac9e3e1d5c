package evaluation

import (
	"math"

	"github.com/cespare/xxhash/v2"
)

const seedSeparator = "||"

func seed(parts ...string) uint64 {
	h := xxhash.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = h.WriteString(seedSeparator)
		}
		_, _ = h.WriteString(p)
	}
	return h.Sum64()
}

// Noise maps parts to a stable value in [-amplitude, amplitude].
// Identical inputs always yield the same value.
func Noise(amplitude float64, parts ...string) float64 {
	if amplitude <= 0 {
		return 0
	}
	u := float64(seed(parts...)>>11) / float64(uint64(1)<<53)
	return (2*u - 1) * amplitude
}

// Pick maps parts to a stable index in [0, n).
func Pick(n int, parts ...string) int {
	if n <= 0 {
		return 0
	}
	return int(seed(parts...) % uint64(n))
}

func roundScore(v float64) int {
	return int(math.Round(clampFloat(v, 0, 100)))
}
