package evaluation

import (
	"context"
	"math"
	"strings"

	"github.com/spigell/pm-coach/internal/ai"
	"github.com/spigell/pm-coach/internal/cache"
	"go.uber.org/zap"
)

// SimilarityProvider scores semantic closeness in [0,1]. When Available is
// false, or a call returns ok=false, callers use lexical signals instead.
type SimilarityProvider interface {
	Available() bool
	Similarity(ctx context.Context, a, b string) (float64, bool)
	SkillAffinity(ctx context.Context, text string, keywords []string) (float64, bool)
}

// DisabledSimilarity is the provider used when no embedding backend is configured.
type DisabledSimilarity struct{}

func (DisabledSimilarity) Available() bool { return false }

func (DisabledSimilarity) Similarity(context.Context, string, string) (float64, bool) {
	return 0, false
}

func (DisabledSimilarity) SkillAffinity(context.Context, string, []string) (float64, bool) {
	return 0, false
}

// EmbeddingSimilarity compares texts by the cosine of their embeddings.
type EmbeddingSimilarity struct {
	embedder ai.Embedder
	vectors  *cache.Memory[[]float32]
	logger   *zap.Logger
}

const defaultVectorCacheSize = 512

func NewEmbeddingSimilarity(embedder ai.Embedder, vectors *cache.Memory[[]float32], logger *zap.Logger) *EmbeddingSimilarity {
	if vectors == nil {
		vectors = cache.NewMemory[[]float32](defaultVectorCacheSize)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmbeddingSimilarity{embedder: embedder, vectors: vectors, logger: logger}
}

func (s *EmbeddingSimilarity) Available() bool {
	return s != nil && s.embedder != nil
}

func (s *EmbeddingSimilarity) Similarity(ctx context.Context, a, b string) (float64, bool) {
	if !s.Available() {
		return 0, false
	}
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0, true
	}

	va, ok := s.embed(ctx, a)
	if !ok {
		return 0, false
	}
	vb, ok := s.embed(ctx, b)
	if !ok {
		return 0, false
	}
	return clampFloat(Cosine(va, vb), 0, 1), true
}

func (s *EmbeddingSimilarity) SkillAffinity(ctx context.Context, text string, keywords []string) (float64, bool) {
	return s.Similarity(ctx, text, strings.Join(keywords, " "))
}

func (s *EmbeddingSimilarity) embed(ctx context.Context, text string) ([]float32, bool) {
	key := strings.TrimSpace(text)
	if v, ok := s.vectors.Get(key); ok {
		return v, true
	}

	v, err := s.embedder.Embed(ctx, key)
	if err != nil {
		s.logger.Warn("embedding failed, using lexical signals", zap.Error(err))
		return nil, false
	}
	s.vectors.Put(key, v)
	return v, true
}

// Cosine returns the cosine similarity of a and b. Zero-norm or
// mismatched vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}

	c := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if math.IsNaN(c) {
		return 0
	}
	return c
}
