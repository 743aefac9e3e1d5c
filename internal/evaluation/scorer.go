package evaluation

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"
)

// Scorer is the local scoring engine. It is safe for concurrent use.
type Scorer struct {
	weights    Weights
	skills     SkillProfile
	similarity SimilarityProvider
	logger     *zap.Logger
}

// NewScorer builds a Scorer. Nil arguments fall back to defaults.
func NewScorer(weights Weights, skills SkillProfile, similarity SimilarityProvider, logger *zap.Logger) *Scorer {
	if weights.LengthNormalizer <= 0 {
		weights.LengthNormalizer = DefaultWeights().LengthNormalizer
	}
	if skills == nil {
		skills = DefaultSkillProfile()
	}
	if similarity == nil {
		similarity = DisabledSimilarity{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{weights: weights, skills: skills, similarity: similarity, logger: logger}
}

// Similarity exposes the provider the scorer was built with.
func (s *Scorer) Similarity() SimilarityProvider {
	return s.similarity
}

// Evaluate scores req.Answer against req.Reference. It never fails: empty
// answers score 0 and a missing reference zeroes the overlap signals.
func (s *Scorer) Evaluate(ctx context.Context, req Request) Result {
	answer := strings.TrimSpace(req.Answer)
	reference := strings.TrimSpace(req.Reference)
	empty := answer == ""

	sig := extractSignals(answer, reference, s.weights.LengthNormalizer)

	var (
		score    int
		semantic float64
	)
	if !empty {
		var raw float64
		raw, semantic = s.content(ctx, answer, reference, sig)
		raw += s.bonus(sig)
		raw += Noise(s.weights.Noise, req.Question, req.Answer)
		score = roundScore(raw)
	}

	label := LabelFor(score)
	strengths, weaknesses, steps := signalFeedback(sig, empty)
	comparison := Compare(answer, reference)
	tip := tipBank[Pick(len(tipBank), req.Question, req.Answer)]

	result := Result{
		Score:              score,
		Label:              label,
		Strengths:          strengths,
		Weaknesses:         weaknesses,
		Feedback:           composeFeedback(score, label, strengths, weaknesses, steps, comparison.MissingModelPoints, tip),
		SkillBreakdown:     s.skillBreakdown(ctx, Request{Question: req.Question, Answer: answer, Skills: req.Skills}, sig, empty),
		Comparison:         comparison,
		SimilarityScore:    math.Round(semantic*1000) / 1000,
		PriorityActions:    PriorityActions(weaknesses),
		RecommendedSnippet: RecommendedSnippet(reference),
		ReferenceAnswer:    reference,
		Source:             SourceHeuristic,
	}
	if result.Strengths == nil {
		result.Strengths = []string{}
	}

	s.logger.Debug("heuristic evaluation",
		zap.Int("score", score),
		zap.String("label", string(label)),
		zap.Float64("overlap", sig.OverlapRatio),
		zap.Float64("semantic", semantic),
		zap.Int("words", sig.WordCount),
	)

	return result
}

// Details fills the locally computed parts of a result produced elsewhere:
// skill breakdown, comparison, label, actions and snippet.
func (s *Scorer) Details(ctx context.Context, req Request, result Result) Result {
	answer := strings.TrimSpace(req.Answer)
	reference := strings.TrimSpace(req.Reference)
	sig := extractSignals(answer, reference, s.weights.LengthNormalizer)

	result.Score = roundScore(float64(result.Score))
	result.Label = LabelFor(result.Score)
	result.SkillBreakdown = s.skillBreakdown(ctx, Request{Question: req.Question, Answer: answer, Skills: req.Skills}, sig, answer == "")
	result.Comparison = Compare(answer, reference)
	result.PriorityActions = PriorityActions(result.Weaknesses)
	result.RecommendedSnippet = RecommendedSnippet(reference)
	result.ReferenceAnswer = reference
	if result.Strengths == nil {
		result.Strengths = []string{}
	}
	if result.Weaknesses == nil {
		result.Weaknesses = []string{}
	}
	return result
}

// content is the weighted sum of overlap, similarity and length in [0,100].
// It also returns the similarity used (semantic or fuzzy).
func (s *Scorer) content(ctx context.Context, answer, reference string, sig Signals) (float64, float64) {
	w := s.weights
	if reference == "" {
		return 100 * w.LexicalLength * sig.LengthScore, 0
	}

	if s.similarity.Available() {
		if sem, ok := s.similarity.Similarity(ctx, answer, reference); ok {
			sem = clampFloat(sem, 0, 1)
			return 100 * (w.SemanticOverlap*minFloat(1, sig.OverlapRatio) +
				w.SemanticSimilarity*sem +
				w.SemanticLength*sig.LengthScore), sem
		}
	}

	fuzzy := FuzzyRatio(answer, reference)
	return 100 * (w.LexicalOverlap*minFloat(1, sig.OverlapRatio) +
		w.LexicalFuzzy*fuzzy +
		w.LexicalLength*sig.LengthScore), fuzzy
}

func (s *Scorer) bonus(sig Signals) float64 {
	var b float64
	if sig.HasStructure {
		b += s.weights.StructureBonus
	}
	if sig.HasExample {
		b += s.weights.ExampleBonus
	}
	if sig.HasMetric {
		b += s.weights.MetricBonus
	}
	return b
}
