package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spigell/pm-coach/internal/ai"
	"github.com/spigell/pm-coach/internal/evaluation"
	"github.com/spigell/pm-coach/internal/llmjson"
	"github.com/spigell/pm-coach/internal/logger"
	"github.com/spigell/pm-coach/internal/reference"
	"github.com/spigell/pm-coach/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrBatchMismatch is logged when a single-shot batch response is rejected.
var ErrBatchMismatch = errors.New("batch evaluation response does not match the request")

var errSkipped = errors.New("single-shot batch skipped")

// EvaluateAnswersBatch evaluates every request and returns the results in
// input order. A single backend call is tried first; it is accepted only when
// it holds one valid evaluation per request. Otherwise each request goes
// through EvaluateAnswer's ladder with bounded concurrency.
func (s *Service) EvaluateAnswersBatch(ctx context.Context, reqs []evaluation.Request) []evaluation.Result {
	out := make([]evaluation.Result, len(reqs))
	if len(reqs) == 0 {
		return out
	}

	batchID := uuid.NewString()
	batchLog := logger.WithRequest(s.logger, "", batchID)
	reqs = s.withReferences(ctx, reqs)

	results, err := s.singleShot(ctx, reqs, batchLog)
	if err == nil {
		s.cfg.Metrics.ObserveBatch("evaluate", "single_shot")
		for i, result := range results {
			s.cfg.Metrics.ObserveEvaluation(string(result.Source), result.Score)
			out[i] = result
		}
		batchLog.Debug("batch evaluation accepted", zap.Int("items", len(reqs)))
		return out
	}
	if !errors.Is(err, errSkipped) {
		batchLog.Warn("batch evaluation rejected, fanning out", zap.Error(err))
	}

	s.cfg.Metrics.ObserveBatch("evaluate", "fanout")

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(utils.BoundedWorkers(s.cfg.Workers, len(reqs)))
	for i, req := range reqs {
		i, req := i, req
		group.Go(func() error {
			out[i] = s.evaluate(gctx, req, logger.WithRequest(s.logger, uuid.NewString(), batchID))
			return nil
		})
	}
	_ = group.Wait()

	return out
}

// withReferences fills missing reference answers with one batch generation.
func (s *Service) withReferences(ctx context.Context, reqs []evaluation.Request) []evaluation.Request {
	filled := make([]evaluation.Request, len(reqs))
	copy(filled, reqs)

	var (
		missing   []int
		questions []reference.Question
	)
	for i, req := range filled {
		if strings.TrimSpace(req.Reference) == "" {
			missing = append(missing, i)
			questions = append(questions, reference.Question{Text: req.Question, Skills: req.Skills})
		}
	}
	if len(missing) == 0 {
		return filled
	}

	answers := s.references.GenerateBatch(ctx, questions)
	for j, i := range missing {
		filled[i].Reference = answers[j]
	}
	return filled
}

func (s *Service) singleShot(ctx context.Context, reqs []evaluation.Request, log *zap.Logger) ([]evaluation.Result, error) {
	if !s.cfg.SingleShot || !ai.Available(s.backend) {
		return nil, errSkipped
	}

	prompt := buildBatchPrompt(reqs)
	if tokens := s.cfg.Tokens.Count(prompt); tokens > s.cfg.MaxPromptTokens {
		log.Debug("batch prompt over token budget",
			zap.Int("tokens", tokens),
			zap.Int("budget", s.cfg.MaxPromptTokens),
		)
		return nil, errSkipped
	}

	raw, err := s.call(ctx, "evaluate_batch", s.cfg.BatchTimeout, prompt, log)
	if err != nil {
		return nil, err
	}

	items, stage, err := llmjson.ParseArray(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBatchMismatch, err)
	}
	if len(items) != len(reqs) {
		return nil, fmt.Errorf("%w: %w: got %d, want %d", ErrBatchMismatch, llmjson.ErrLengthMismatch, len(items), len(reqs))
	}

	results := make([]evaluation.Result, len(items))
	for i, item := range items {
		data, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrBatchMismatch, i)
		}
		result, err := structuredResult(data)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %w", ErrBatchMismatch, i, err)
		}
		results[i] = result
	}
	s.cfg.Metrics.ObserveParse(string(stage))

	for i, req := range reqs {
		if strings.TrimSpace(req.Answer) == "" {
			results[i] = s.scorer.Evaluate(ctx, req)
			continue
		}
		results[i] = s.scorer.Details(ctx, req, results[i])
	}
	return results, nil
}

func buildBatchPrompt(reqs []evaluation.Request) string {
	var b strings.Builder
	for i, req := range reqs {
		fmt.Fprintf(&b, "Item %d:\nQuestion: %s\nSkills: %s\nIdeal answer: %s\nCandidate answer: %s\n\n",
			i+1,
			strings.TrimSpace(req.Question),
			skillsText(req.Skills),
			strings.TrimSpace(req.Reference),
			strings.TrimSpace(req.Answer),
		)
	}

	prompt := strings.ReplaceAll(batchPrompt, "{{COUNT}}", fmt.Sprint(len(reqs)))
	return strings.ReplaceAll(prompt, "{{ITEMS}}", strings.TrimRight(b.String(), "\n"))
}
