package evaluation

import "math"

const (
	maxOverlapWords      = 50
	missingScanSentences = 5
	maxMissingPoints     = 3
	missingThreshold     = 0.2
	maxSentenceMatches   = 6
)

// Compare reports shared vocabulary, reference sentences the candidate does
// not cover and the closest candidate sentence per reference sentence.
func Compare(candidate, reference string) Comparison {
	cmp := Comparison{
		OverlapWords:       []string{},
		MissingModelPoints: []string{},
		SentenceMatches:    []SentenceMatch{},
	}

	candTokens := tokenSet(candidate)
	refTokens := tokenSet(reference)

	overlap := sharedTokens(candTokens, refTokens)
	if len(overlap) > maxOverlapWords {
		overlap = overlap[:maxOverlapWords]
	}
	cmp.OverlapWords = overlap

	refSentences := splitSentences(reference)
	for i, sentence := range refSentences {
		if i >= missingScanSentences || len(cmp.MissingModelPoints) >= maxMissingPoints {
			break
		}
		words := tokenSet(sentence)
		if len(words) == 0 {
			continue
		}
		covered := float64(len(sharedTokens(words, candTokens))) / float64(len(words))
		if covered < missingThreshold {
			cmp.MissingModelPoints = append(cmp.MissingModelPoints, sentence)
		}
	}

	candSentences := splitSentences(candidate)
	if len(candSentences) == 0 {
		return cmp
	}
	for i, ref := range refSentences {
		if i >= maxSentenceMatches {
			break
		}
		best, bestRatio := "", -1.0
		for _, cand := range candSentences {
			if r := FuzzyRatio(ref, cand); r > bestRatio {
				best, bestRatio = cand, r
			}
		}
		cmp.SentenceMatches = append(cmp.SentenceMatches, SentenceMatch{
			Reference: ref,
			Candidate: best,
			Ratio:     math.Round(bestRatio*1000) / 1000,
		})
	}

	return cmp
}
