package evaluation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
)

type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   map[string]int
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[text]++
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func TestCosine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "zero norm", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
		{name: "length mismatch", a: []float32{1}, b: []float32{1, 0}, want: 0},
		{name: "empty", want: 0},
	}

	for _, tt := range tests {
		got := Cosine(tt.a, tt.b)
		if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestEmbeddingSimilarity(t *testing.T) {
	t.Parallel()

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"track activation":            {1, 1, 0},
		"activation and retention":    {1, 0, 0},
		"opposite":                    {-1, 0, 0},
		"growth activation retention": {0, 1, 0},
	}}
	sim := NewEmbeddingSimilarity(embedder, nil, zap.NewNop())

	if !sim.Available() {
		t.Fatalf("expected provider to be available")
	}

	got, ok := sim.Similarity(context.Background(), "track activation", "activation and retention")
	if !ok || got < 0.70 || got > 0.71 {
		t.Fatalf("expected ~0.707, got %v (%v)", got, ok)
	}

	if got, ok := sim.Similarity(context.Background(), "opposite", "activation and retention"); !ok || got != 0 {
		t.Fatalf("expected negative cosine to clamp to 0, got %v", got)
	}

	if got, ok := sim.Similarity(context.Background(), "track activation", "  "); !ok || got != 0 {
		t.Fatalf("expected empty text to score 0, got %v (%v)", got, ok)
	}

	if got, ok := sim.SkillAffinity(context.Background(), "track activation", []string{"growth", "activation", "retention"}); !ok || got < 0.70 || got > 0.71 {
		t.Fatalf("expected skill affinity ~0.707, got %v", got)
	}

	if embedder.calls["track activation"] != 1 {
		t.Fatalf("expected vectors to be cached, got %d calls", embedder.calls["track activation"])
	}
}

func TestEmbeddingSimilarityErrorFallsBack(t *testing.T) {
	t.Parallel()

	sim := NewEmbeddingSimilarity(&fakeEmbedder{err: errors.New("backend down")}, nil, zap.NewNop())
	if _, ok := sim.Similarity(context.Background(), "a", "b"); ok {
		t.Fatalf("expected ok=false on embedding error")
	}
}

func TestDisabledSimilarity(t *testing.T) {
	t.Parallel()

	var sim SimilarityProvider = DisabledSimilarity{}
	if sim.Available() {
		t.Fatalf("disabled provider must not be available")
	}
	if _, ok := sim.Similarity(context.Background(), "a", "a"); ok {
		t.Fatalf("disabled provider must not return similarity")
	}
	if _, ok := sim.SkillAffinity(context.Background(), "a", []string{"a"}); ok {
		t.Fatalf("disabled provider must not return affinity")
	}
}
