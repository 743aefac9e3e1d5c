package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{
			name:   "returns empty when limit non-positive",
			input:  "hello world",
			limit:  0,
			expect: "",
		},
		{
			name:   "shorter than limit",
			input:  "hello",
			limit:  10,
			expect: "hello",
		},
		{
			name:   "truncates and adds ellipsis",
			input:  "hello world",
			limit:  5,
			expect: "hello...",
		},
		{
			name:   "trims surrounding whitespace",
			input:  "  spaced  ",
			limit:  5,
			expect: "space...",
		},
		{
			name:   "counts runes not bytes",
			input:  "активация",
			limit:  3,
			expect: "акт...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	got := Dedupe([]string{"b", " a ", "", "b", "a", "c"})
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	if empty := Dedupe(nil); len(empty) != 0 {
		t.Fatalf("expected empty result, got %v", empty)
	}
}

func TestWaitForHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWaitForNonPositiveDuration(t *testing.T) {
	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestBoundedWorkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		configured, n, want int
	}{
		{configured: 0, n: 10, want: DefaultWorkers},
		{configured: 20, n: 100, want: MaxWorkers},
		{configured: 6, n: 3, want: 3},
		{configured: 4, n: 0, want: 1},
		{configured: -1, n: 2, want: 2},
	}
	for _, tt := range tests {
		if got := BoundedWorkers(tt.configured, tt.n); got != tt.want {
			t.Fatalf("BoundedWorkers(%d, %d) = %d, want %d", tt.configured, tt.n, got, tt.want)
		}
	}
}
