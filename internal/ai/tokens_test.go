package ai

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestApproxCounter(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"":          0,
		"abc":       1,
		"abcd":      1,
		"abcde":     2,
		"активация": 3,
	}
	for text, want := range cases {
		if got := (ApproxCounter{}).Count(text); got != want {
			t.Fatalf("Count(%q) = %d, want %d", text, got, want)
		}
	}
}

func TestTiktokenCounterFallsBackOnUnknownEncoding(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	c := NewTiktokenCounter("no-such-encoding", zap.New(core))

	if got := c.Count("abcdefgh"); got != 2 {
		t.Fatalf("expected approximate count 2, got %d", got)
	}
	_ = c.Count("again")

	if logs.Len() != 1 {
		t.Fatalf("expected a single warning, got %d", logs.Len())
	}
}
