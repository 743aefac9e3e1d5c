package evaluation

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

var (
	structureMarkers = []string{"i would", "my approach", "approach", "steps", "first", "summary"}
	exampleMarkers   = []string{"example", "project", "launched", "led", "implemented", "we did", "for instance"}
	metricMarkers    = []string{"%", "percent", "nps", "kpi", "metric", "metrics", "retention", "growth"}
)

const structureWordThreshold = 40

// Signals are the cheap lexical features of an answer.
type Signals struct {
	OverlapRatio float64
	HasStructure bool
	HasExample   bool
	HasMetric    bool
	LengthScore  float64
	WordCount    int
}

// ExtractSignals computes Signals of candidate against reference with the
// default length normalizer.
func ExtractSignals(candidate, reference string) Signals {
	return extractSignals(candidate, reference, DefaultWeights().LengthNormalizer)
}

func extractSignals(candidate, reference string, normalizer int) Signals {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return Signals{}
	}
	if normalizer <= 0 {
		normalizer = 1
	}

	lower := strings.ToLower(candidate)
	words := strings.Fields(lower)
	candTokens := tokenSet(candidate)

	return Signals{
		OverlapRatio: overlapRatio(candTokens, tokenSet(reference)),
		HasStructure: containsAny(lower, candTokens, structureMarkers) || len(words) > structureWordThreshold,
		HasExample:   containsAny(lower, candTokens, exampleMarkers) || containsDigit(candidate),
		HasMetric:    containsAny(lower, candTokens, metricMarkers) || hasNumericToken(words),
		LengthScore:  minFloat(1, float64(len(words))/float64(normalizer)),
		WordCount:    len(words),
	}
}

// tokenize lowercases text, splits on whitespace and trims surrounding punctuation.
func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if tok := trimToken(f); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func trimToken(tok string) string {
	return strings.TrimFunc(tok, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '%'
	})
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range tokenize(text) {
		set[tok] = struct{}{}
	}
	return set
}

// overlapRatio is |a ∩ b| / max(1, |b|); an empty b yields 0.
func overlapRatio(a, b map[string]struct{}) float64 {
	if len(b) == 0 {
		return 0
	}
	shared := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(b))
}

func sharedTokens(a, b map[string]struct{}) []string {
	out := make([]string, 0)
	for tok := range a {
		if _, ok := b[tok]; ok {
			out = append(out, tok)
		}
	}
	sort.Strings(out)
	return out
}

// containsMarker matches single-word markers against whole tokens and
// phrases or symbols as substrings.
func containsMarker(lower string, tokens map[string]struct{}, marker string) bool {
	if isWord(marker) {
		_, ok := tokens[marker]
		return ok
	}
	return strings.Contains(lower, marker)
}

func containsAny(lower string, tokens map[string]struct{}, markers []string) bool {
	for _, m := range markers {
		if containsMarker(lower, tokens, m) {
			return true
		}
	}
	return false
}

func countMarkers(lower string, tokens map[string]struct{}, markers []string) int {
	n := 0
	for _, m := range markers {
		if containsMarker(lower, tokens, strings.ToLower(m)) {
			n++
		}
	}
	return n
}

func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func hasNumericToken(words []string) bool {
	for _, w := range words {
		w = strings.TrimLeft(w, "$€£+-~(")
		w = strings.TrimRight(w, "%.,;:!?)")
		w = strings.ReplaceAll(w, ",", "")
		if w == "" || !containsDigit(w) {
			continue
		}
		if _, err := strconv.ParseFloat(w, 64); err == nil {
			return true
		}
	}
	return false
}

// splitSentences splits text after '.', '?' or '!' followed by whitespace.
func splitSentences(text string) []string {
	var (
		out   []string
		start int
	)
	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		if (runes[i] == '.' || runes[i] == '?' || runes[i] == '!') && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
