package ai

import (
	"context"
	"errors"
	"testing"
)

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, string) (string, error) { return "ok", nil }
func (stubGenerator) Provider() string                                 { return "stub" }
func (stubGenerator) Model() string                                    { return "stub-1" }

func TestAvailable(t *testing.T) {
	t.Parallel()

	if Available(nil) {
		t.Fatalf("nil generator must not be available")
	}
	if Available(Disabled{}) {
		t.Fatalf("disabled generator must not be available")
	}
	if !Available(stubGenerator{}) {
		t.Fatalf("stub generator must be available")
	}
}

func TestDisabledReturnsUnavailable(t *testing.T) {
	t.Parallel()

	if _, err := (Disabled{}).Generate(context.Background(), "p"); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if _, err := (Disabled{}).Embed(context.Background(), "p"); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}
