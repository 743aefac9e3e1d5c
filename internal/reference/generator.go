// Package reference produces the ideal answer a candidate's answer is scored
// against.
package reference

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/spigell/pm-coach/internal/ai"
	"github.com/spigell/pm-coach/internal/cache"
	"github.com/spigell/pm-coach/internal/llmjson"
	"github.com/spigell/pm-coach/internal/logger"
	"github.com/spigell/pm-coach/internal/metrics"
	"github.com/spigell/pm-coach/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:embed prompts/answer.md
var answerPrompt string

//go:embed prompts/batch.md
var batchPrompt string

const (
	// MinCacheableRunes keeps short error strings out of the cache.
	MinCacheableRunes = 40

	defaultTimeout      = 60 * time.Second
	defaultBatchTimeout = 180 * time.Second
	defaultPromptTokens = 6000
	maxLogLength        = 200
)

// ErrBatchRejected is logged when a single-shot batch response is not usable.
var ErrBatchRejected = errors.New("batch reference response rejected")

// Question is one item of a batch.
type Question struct {
	Text   string   `json:"question" mapstructure:"question"`
	Skills []string `json:"skills,omitempty" mapstructure:"skills"`
}

// Config tunes the Generator.
type Config struct {
	Timeout         time.Duration
	BatchTimeout    time.Duration
	Workers         int
	SingleShot      bool
	MaxPromptTokens int
	Tokens          ai.TokenCounter
	Metrics         *metrics.Metrics
}

// Generator returns cached, generated or templated reference answers.
// It never fails and never returns an empty answer.
type Generator struct {
	backend ai.Generator
	store   cache.Store
	cfg     Config
	logger  *zap.Logger
}

func NewGenerator(backend ai.Generator, store cache.Store, cfg Config, log *zap.Logger) *Generator {
	if backend == nil {
		backend = ai.Disabled{}
	}
	if store == nil {
		store = cache.NewMemoryStore(0)
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
	if cfg.Tokens == nil {
		cfg.Tokens = ai.ApproxCounter{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Generator{
		backend: backend,
		store:   store,
		cfg:     cfg,
		logger:  logger.WithCommonFields(log, backend.Provider(), backend.Model()),
	}
}

// Generate returns the reference answer for question.
func (g *Generator) Generate(ctx context.Context, question string, skills []string) string {
	key := strings.TrimSpace(question)
	if key == "" {
		return Template(question, skills)
	}

	if cached, ok := g.lookup(ctx, key); ok {
		return cached
	}

	if ai.Available(g.backend) {
		answer, err := g.call(ctx, "reference", g.cfg.Timeout, BuildPrompt(key, skills))
		if err == nil && utf8.RuneCountInString(answer) > MinCacheableRunes {
			g.save(ctx, key, answer)
			return answer
		}
		if err == nil {
			err = fmt.Errorf("answer of %d runes: %w", utf8.RuneCountInString(answer), ai.ErrEmptyResponse)
		}
		g.logger.Warn("reference generation failed, using template", zap.Error(err))
	}

	answer := Template(key, skills)
	g.save(ctx, key, answer)
	return answer
}

// GenerateBatch returns one reference answer per question, in order.
// A single backend call is tried first and accepted only when it returns
// exactly one non-blank answer per question; otherwise every question is
// generated independently with bounded concurrency.
func (g *Generator) GenerateBatch(ctx context.Context, questions []Question) []string {
	out := make([]string, len(questions))
	if len(questions) == 0 {
		return out
	}

	batchLog := logger.WithRequest(g.logger, "", uuid.NewString())

	answers, err := g.singleShot(ctx, questions)
	if err == nil {
		g.cfg.Metrics.ObserveBatch("generate", "single_shot")
		batchLog.Debug("batch reference answers accepted", zap.Int("items", len(questions)))
		for i, q := range questions {
			if key := strings.TrimSpace(q.Text); key != "" && utf8.RuneCountInString(answers[i]) > MinCacheableRunes {
				g.save(ctx, key, answers[i])
			}
		}
		copy(out, answers)
		return out
	}
	if !errors.Is(err, errSkipped) {
		batchLog.Warn("batch reference generation rejected, fanning out", zap.Error(err))
	}

	g.cfg.Metrics.ObserveBatch("generate", "fanout")

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(utils.BoundedWorkers(g.cfg.Workers, len(questions)))
	for i, q := range questions {
		i, q := i, q
		group.Go(func() error {
			out[i] = g.Generate(gctx, q.Text, q.Skills)
			return nil
		})
	}
	_ = group.Wait()

	return out
}

var errSkipped = errors.New("single-shot batch skipped")

func (g *Generator) singleShot(ctx context.Context, questions []Question) ([]string, error) {
	if !g.cfg.SingleShot || !ai.Available(g.backend) {
		return nil, errSkipped
	}

	prompt := BuildBatchPrompt(questions)
	if tokens := g.cfg.Tokens.Count(prompt); tokens > g.cfg.MaxPromptTokens {
		g.logger.Debug("batch prompt over token budget",
			zap.Int("tokens", tokens),
			zap.Int("budget", g.cfg.MaxPromptTokens),
		)
		return nil, errSkipped
	}

	raw, err := g.call(ctx, "reference_batch", g.cfg.BatchTimeout, prompt)
	if err != nil {
		return nil, err
	}

	answers, stage, err := llmjson.StringArray(raw, len(questions))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBatchRejected, err)
	}
	g.cfg.Metrics.ObserveParse(string(stage))
	return answers, nil
}

func (g *Generator) call(ctx context.Context, operation string, timeout time.Duration, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	out, err := g.backend.Generate(ctx, prompt)
	g.cfg.Metrics.ObserveBackend(g.backend.Provider(), operation, start, err)
	if err != nil {
		return "", fmt.Errorf("%s: %w", operation, err)
	}

	g.logger.Debug("reference backend response",
		zap.String("operation", operation),
		zap.String("response_preview", utils.TruncateForLog(out, maxLogLength)),
	)
	return strings.TrimSpace(out), nil
}

func (g *Generator) lookup(ctx context.Context, key string) (string, bool) {
	v, ok, err := g.store.Get(ctx, key)
	if err != nil {
		g.logger.Warn("reference cache read failed", zap.Error(err))
		return "", false
	}
	hit := ok && strings.TrimSpace(v) != ""
	g.cfg.Metrics.ObserveCache(hit)
	return v, hit
}

func (g *Generator) save(ctx context.Context, key, answer string) {
	if err := g.store.Set(ctx, key, answer); err != nil {
		g.logger.Warn("reference cache write failed", zap.Error(err))
	}
}

// BuildPrompt renders the single-question prompt.
func BuildPrompt(question string, skills []string) string {
	prompt := strings.ReplaceAll(answerPrompt, "{{QUESTION}}", strings.TrimSpace(question))
	return strings.ReplaceAll(prompt, "{{SKILLS}}", skillsText(skills))
}

// BuildBatchPrompt renders the numbered multi-question prompt.
func BuildBatchPrompt(questions []Question) string {
	var b strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&b, "Q%d: %s", i+1, strings.TrimSpace(q.Text))
		if text := skillsText(q.Skills); text != defaultSkillsText {
			fmt.Fprintf(&b, "\nSkills: %s", text)
		}
		b.WriteString("\n")
	}

	prompt := strings.ReplaceAll(batchPrompt, "{{COUNT}}", fmt.Sprint(len(questions)))
	return strings.ReplaceAll(prompt, "{{QUESTIONS}}", strings.TrimRight(b.String(), "\n"))
}
