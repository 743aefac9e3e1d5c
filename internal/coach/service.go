// Package coach is the entry point callers use to generate reference answers
// and evaluate candidate answers. It runs the generative backend when one is
// configured and degrades to the local scoring engine when the backend is
// absent, slow or returns output that cannot be parsed.
package coach

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/spigell/pm-coach/internal/ai"
	"github.com/spigell/pm-coach/internal/evaluation"
	"github.com/spigell/pm-coach/internal/logger"
	"github.com/spigell/pm-coach/internal/metrics"
	"github.com/spigell/pm-coach/internal/reference"
	"github.com/spigell/pm-coach/internal/utils"
	"go.uber.org/zap"
)

//go:embed prompts/evaluate.md
var evaluatePrompt string

//go:embed prompts/retry.md
var retryPrompt string

//go:embed prompts/batch.md
var batchPrompt string

const (
	defaultTimeout      = 60 * time.Second
	defaultBatchTimeout = 180 * time.Second
	defaultPromptTokens = 6000
	defaultMaxLogLength = 200

	// retryTextLimit bounds the reference and answer quoted in the retry prompt.
	retryTextLimit = 1500
)

// Config tunes the Service.
type Config struct {
	// Mandatory replaces the local fallback with an explicit unavailable result.
	Mandatory       bool
	Timeout         time.Duration
	BatchTimeout    time.Duration
	Workers         int
	SingleShot      bool
	MaxPromptTokens int
	MaxLogLength    int
	Tokens          ai.TokenCounter
	Metrics         *metrics.Metrics
}

// Service exposes the four coaching operations. It is safe for concurrent use.
type Service struct {
	backend    ai.Generator
	scorer     *evaluation.Scorer
	references *reference.Generator
	cfg        Config
	logger     *zap.Logger
}

func NewService(backend ai.Generator, scorer *evaluation.Scorer, references *reference.Generator, cfg Config, log *zap.Logger) *Service {
	if backend == nil {
		backend = ai.Disabled{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = defaultBatchTimeout
	}
	if cfg.MaxPromptTokens <= 0 {
		cfg.MaxPromptTokens = defaultPromptTokens
	}
	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLength
	}
	if cfg.Tokens == nil {
		cfg.Tokens = ai.ApproxCounter{}
	}
	if scorer == nil {
		scorer = evaluation.NewScorer(evaluation.DefaultWeights(), evaluation.DefaultSkillProfile(), evaluation.DisabledSimilarity{}, log)
	}
	if references == nil {
		references = reference.NewGenerator(backend, nil, reference.Config{
			Timeout:    cfg.Timeout,
			Workers:    cfg.Workers,
			SingleShot: cfg.SingleShot,
			Metrics:    cfg.Metrics,
		}, log)
	}

	return &Service{
		backend:    backend,
		scorer:     scorer,
		references: references,
		cfg:        cfg,
		logger:     logger.WithCommonFields(log, backend.Provider(), backend.Model()),
	}
}

// GenerateAnswer returns the reference answer for question.
func (s *Service) GenerateAnswer(ctx context.Context, question string, skills []string) string {
	return s.references.Generate(ctx, question, skills)
}

// GenerateAnswersBatch returns one reference answer per question, in order.
func (s *Service) GenerateAnswersBatch(ctx context.Context, questions []reference.Question) []string {
	return s.references.GenerateBatch(ctx, questions)
}

// EvaluateAnswer scores one answer. It always returns a bounded result.
func (s *Service) EvaluateAnswer(ctx context.Context, req evaluation.Request) evaluation.Result {
	reqLog := logger.WithRequest(s.logger, uuid.NewString(), "")
	req = s.withReference(ctx, req)
	return s.evaluate(ctx, req, reqLog)
}

func (s *Service) evaluate(ctx context.Context, req evaluation.Request, log *zap.Logger) evaluation.Result {
	var result evaluation.Result
	if strings.TrimSpace(req.Answer) == "" {
		result = s.scorer.Evaluate(ctx, req)
	} else {
		result = newLadder(s, req, log).run(ctx)
	}

	s.cfg.Metrics.ObserveEvaluation(string(result.Source), result.Score)
	log.Debug("answer evaluated",
		zap.Int("score", result.Score),
		zap.String("source", string(result.Source)),
		zap.Bool("degraded", result.Degraded),
	)
	return result
}

func (s *Service) withReference(ctx context.Context, req evaluation.Request) evaluation.Request {
	if strings.TrimSpace(req.Reference) == "" {
		req.Reference = s.references.Generate(ctx, req.Question, req.Skills)
	}
	return req
}

// call runs one bounded backend request.
func (s *Service) call(ctx context.Context, operation string, timeout time.Duration, prompt string, log *zap.Logger) (string, error) {
	log.Debug("backend request",
		zap.String("operation", operation),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.cfg.MaxLogLength)),
	)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.backend.Generate(ctx, prompt)
	s.cfg.Metrics.ObserveBackend(s.backend.Provider(), operation, start, err)
	if err != nil {
		return "", fmt.Errorf("%s: %w", operation, err)
	}

	log.Debug("backend response",
		zap.String("operation", operation),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.cfg.MaxLogLength)),
	)
	return raw, nil
}

func buildPrompt(template string, req evaluation.Request, limit int) string {
	reference := strings.TrimSpace(req.Reference)
	answer := strings.TrimSpace(req.Answer)
	if limit > 0 {
		reference = utils.TruncateForLog(reference, limit)
		answer = utils.TruncateForLog(answer, limit)
	}

	prompt := strings.ReplaceAll(template, "{{QUESTION}}", strings.TrimSpace(req.Question))
	prompt = strings.ReplaceAll(prompt, "{{SKILLS}}", skillsText(req.Skills))
	prompt = strings.ReplaceAll(prompt, "{{REFERENCE}}", reference)
	return strings.ReplaceAll(prompt, "{{ANSWER}}", answer)
}

func skillsText(skills []string) string {
	cleaned := utils.Dedupe(skills)
	if len(cleaned) == 0 {
		cleaned = evaluation.DefaultSkills
	}
	return strings.Join(cleaned, ", ")
}
