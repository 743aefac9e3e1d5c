package evaluation

import (
	"reflect"
	"strings"
	"testing"
)

func TestLabelFor(t *testing.T) {
	t.Parallel()

	tests := map[int]Label{
		0: LabelPoor, 29: LabelPoor, 30: LabelNeedsWork, 49: LabelNeedsWork,
		50: LabelAverage, 69: LabelAverage, 70: LabelStrong, 84: LabelStrong,
		85: LabelExcellent, 100: LabelExcellent,
	}
	for score, want := range tests {
		if got := LabelFor(score); got != want {
			t.Fatalf("LabelFor(%d) = %q, want %q", score, got, want)
		}
	}
}

func TestLabelMonotonicity(t *testing.T) {
	t.Parallel()

	for s1 := 0; s1 <= 100; s1++ {
		for s2 := s1 + 1; s2 <= 100; s2++ {
			if LabelFor(s1).Rank() > LabelFor(s2).Rank() {
				t.Fatalf("label(%d)=%q ranks above label(%d)=%q", s1, LabelFor(s1), s2, LabelFor(s2))
			}
		}
	}
}

func TestSignalFeedbackNeverClaimsMissingSignals(t *testing.T) {
	t.Parallel()

	strengths, weaknesses, steps := signalFeedback(Signals{HasMetric: true}, false)
	if !reflect.DeepEqual(strengths, []string{strengthMetric}) {
		t.Fatalf("unexpected strengths: %v", strengths)
	}
	if !reflect.DeepEqual(weaknesses, []string{weaknessExample, weaknessStructure}) {
		t.Fatalf("unexpected weaknesses: %v", weaknesses)
	}
	if len(steps) != 2 {
		t.Fatalf("expected a next step per weakness, got %v", steps)
	}

	strengths, weaknesses, _ = signalFeedback(Signals{}, true)
	if len(strengths) != 0 || len(weaknesses) != 4 {
		t.Fatalf("expected all weaknesses for empty answer, got %v / %v", strengths, weaknesses)
	}
}

func TestPriorityActions(t *testing.T) {
	t.Parallel()

	got := PriorityActions([]string{
		weaknessMetric,
		weaknessExample,
		"Missing baseline for the target",
		"No experiment design (A/B)",
		"Unclear customer segment",
	})

	if len(got) != 3 {
		t.Fatalf("expected 3 deduplicated actions from first 4 weaknesses, got %v", got)
	}
	if !strings.Contains(got[0], "baseline") || !strings.Contains(got[1], "STAR") || !strings.Contains(got[2], "control vs variant") {
		t.Fatalf("unexpected actions: %v", got)
	}

	if got := PriorityActions([]string{weaknessStructure}); !reflect.DeepEqual(got, []string{defaultAction}) {
		t.Fatalf("expected default action, got %v", got)
	}
	if got := PriorityActions(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil actions, got %v", got)
	}
}

func TestRecommendedSnippet(t *testing.T) {
	t.Parallel()

	if got := RecommendedSnippet("too short"); got != defaultSnippet {
		t.Fatalf("expected default snippet, got %q", got)
	}

	ref := "One sentence here. Two sentence here. Three sentence here. Four sentence here. Five sentence here."
	if got := RecommendedSnippet(ref); got != "One sentence here. Two sentence here. Three sentence here. Four sentence here." {
		t.Fatalf("expected first four sentences, got %q", got)
	}

	long := strings.Repeat("activation ", 100)
	got := RecommendedSnippet(long)
	if !strings.HasSuffix(got, "...") || len([]rune(got)) > snippetMaxRunes+3 {
		t.Fatalf("expected truncated snippet, got %d runes", len([]rune(got)))
	}
}

func TestComposeFeedback(t *testing.T) {
	t.Parallel()

	got := composeFeedback(72, LabelStrong, []string{"s1"}, nil, []string{"n1"}, []string{"m1"}, "tip")
	want := "Score: 72/100 (Strong)\nWhat you did well:\n- s1\nConcrete next steps:\n- n1\n" +
		"Points from the ideal answer you may have missed:\n- m1\nTip: tip"
	if got != want {
		t.Fatalf("unexpected feedback:\n%s", got)
	}
}
