package evaluation

import "testing"

func TestNoiseIsDeterministicAndBounded(t *testing.T) {
	t.Parallel()

	inputs := [][]string{
		{"q", "a"},
		{"How would you grow retention?", "I would run experiments."},
		{"", ""},
		{"q", "a", "growth"},
	}

	for _, parts := range inputs {
		first := Noise(5, parts...)
		if first != Noise(5, parts...) {
			t.Fatalf("noise for %q is not stable", parts)
		}
		if first < -5 || first > 5 {
			t.Fatalf("noise %v out of range for %q", first, parts)
		}
	}

	if Noise(0, "q", "a") != 0 {
		t.Fatalf("expected zero amplitude to give zero noise")
	}
}

func TestNoiseSeparatesParts(t *testing.T) {
	t.Parallel()

	if Noise(6, "ab", "c") == Noise(6, "a", "bc") {
		t.Fatalf("expected part boundaries to affect the seed")
	}
	if Noise(6, "q", "a", "growth") == Noise(6, "q", "a", "execution") {
		t.Fatalf("expected per-skill noise to differ")
	}
}

func TestPick(t *testing.T) {
	t.Parallel()

	for i := 0; i < 50; i++ {
		idx := Pick(4, "q", string(rune('a'+i)))
		if idx < 0 || idx >= 4 {
			t.Fatalf("index %d out of range", idx)
		}
	}
	if Pick(0, "q") != 0 {
		t.Fatalf("expected 0 for empty range")
	}
}

func TestFuzzyRatio(t *testing.T) {
	t.Parallel()

	if got := FuzzyRatio("Activation", "activation"); got != 1 {
		t.Fatalf("expected case-insensitive identity, got %v", got)
	}
	if got := FuzzyRatio("", ""); got != 1 {
		t.Fatalf("expected empty strings to match, got %v", got)
	}
	if got := FuzzyRatio("abc", ""); got != 0 {
		t.Fatalf("expected 0 against empty, got %v", got)
	}
	if got := FuzzyRatio("kitten", "sitting"); got <= 0.5 || got >= 0.6 {
		t.Fatalf("expected ratio 1-3/7, got %v", got)
	}
}
