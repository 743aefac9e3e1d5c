package evaluation

import (
	"reflect"
	"testing"
)

const compactReference = "Summary: I would track activation and retention for the new onboarding flow. " +
	"Approach: measure the funnel first. Example: we launched a guided setup. Metrics: activation rate, retention."

func TestCompare(t *testing.T) {
	t.Parallel()

	cmp := Compare("I would track activation rate, for example we increased it by 8% after launch.", compactReference)

	wantOverlap := []string{"activation", "example", "for", "i", "rate", "track", "we", "would"}
	if !reflect.DeepEqual(cmp.OverlapWords, wantOverlap) {
		t.Fatalf("expected overlap %v, got %v", wantOverlap, cmp.OverlapWords)
	}

	wantMissing := []string{"Approach: measure the funnel first."}
	if !reflect.DeepEqual(cmp.MissingModelPoints, wantMissing) {
		t.Fatalf("expected missing %v, got %v", wantMissing, cmp.MissingModelPoints)
	}

	if len(cmp.SentenceMatches) != 4 {
		t.Fatalf("expected one match per reference sentence, got %d", len(cmp.SentenceMatches))
	}
	for _, m := range cmp.SentenceMatches {
		if m.Ratio < 0 || m.Ratio > 1 || m.Candidate == "" {
			t.Fatalf("unexpected match %+v", m)
		}
	}
}

func TestCompareIdentical(t *testing.T) {
	t.Parallel()

	cmp := Compare(compactReference, compactReference)
	if len(cmp.MissingModelPoints) != 0 {
		t.Fatalf("expected no missing points, got %v", cmp.MissingModelPoints)
	}
	for _, m := range cmp.SentenceMatches {
		if m.Ratio != 1 {
			t.Fatalf("expected exact matches, got %+v", m)
		}
	}
}

func TestCompareCaps(t *testing.T) {
	t.Parallel()

	reference := "Alpha one. Beta two. Gamma three. Delta four. Epsilon five. Zeta six. Eta seven."
	cmp := Compare("unrelated words only.", reference)
	if len(cmp.MissingModelPoints) != 3 {
		t.Fatalf("expected missing points capped at 3, got %v", cmp.MissingModelPoints)
	}
	if len(cmp.SentenceMatches) != 6 {
		t.Fatalf("expected sentence matches capped at 6, got %d", len(cmp.SentenceMatches))
	}
}

func TestCompareEmptyInputs(t *testing.T) {
	t.Parallel()

	cmp := Compare("", "")
	if cmp.OverlapWords == nil || cmp.MissingModelPoints == nil || cmp.SentenceMatches == nil {
		t.Fatalf("expected non-nil empty slices, got %+v", cmp)
	}
	if len(cmp.OverlapWords)+len(cmp.MissingModelPoints)+len(cmp.SentenceMatches) != 0 {
		t.Fatalf("expected empty comparison, got %+v", cmp)
	}
}
