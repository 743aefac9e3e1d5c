package coach

import (
	"context"
	"fmt"
	"math"

	"github.com/spigell/pm-coach/internal/ai"
	"github.com/spigell/pm-coach/internal/evaluation"
	"github.com/spigell/pm-coach/internal/llmjson"
	"go.uber.org/zap"
)

// state is one step of the degradation ladder.
type state int

const (
	stateAttempt state = iota
	stateParseStrict
	stateParseLenient
	stateRetry
	stateFallback
	stateUnavailable
	stateDone
)

func (s state) String() string {
	switch s {
	case stateAttempt:
		return "attempt"
	case stateParseStrict:
		return "parse_strict"
	case stateParseLenient:
		return "parse_lenient"
	case stateRetry:
		return "retry"
	case stateFallback:
		return "fallback"
	case stateUnavailable:
		return "unavailable"
	case stateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// requiredFields must be present in a structured evaluation.
var requiredFields = []string{"score", "strengths", "improvements|weaknesses", "feedback"}

// ladder evaluates one request: generative attempt, strict parse, lenient
// parse, a single retry with a shorter prompt, then the local fallback.
type ladder struct {
	svc     *Service
	req     evaluation.Request
	logger  *zap.Logger
	state   state
	retried bool
	raw     string
	err     error
	result  evaluation.Result
	trace   []state
}

func newLadder(svc *Service, req evaluation.Request, log *zap.Logger) *ladder {
	return &ladder{svc: svc, req: req, logger: log, state: stateAttempt}
}

func (l *ladder) run(ctx context.Context) evaluation.Result {
	for l.state != stateDone {
		l.trace = append(l.trace, l.state)
		l.state = l.step(ctx)
	}
	return l.result
}

func (l *ladder) step(ctx context.Context) state {
	switch l.state {
	case stateAttempt:
		return l.attempt(ctx)
	case stateParseStrict:
		return l.parseStrict(ctx)
	case stateParseLenient:
		return l.parseLenient(ctx)
	case stateRetry:
		l.retried = true
		return stateAttempt
	case stateFallback:
		return l.fallback(ctx)
	case stateUnavailable:
		return l.unavailable(ctx)
	default:
		return stateDone
	}
}

func (l *ladder) attempt(ctx context.Context) state {
	if !ai.Available(l.svc.backend) {
		l.err = ai.ErrBackendUnavailable
		return l.exhausted()
	}

	operation, prompt := "evaluate", buildPrompt(evaluatePrompt, l.req, 0)
	if l.retried {
		operation, prompt = "evaluate_retry", buildPrompt(retryPrompt, l.req, retryTextLimit)
	}

	raw, err := l.svc.call(ctx, operation, l.svc.cfg.Timeout, prompt, l.logger)
	if err != nil {
		l.err = err
		l.logger.Warn("generative evaluation failed", zap.String("operation", operation), zap.Error(err))
		return l.afterFailure()
	}

	l.raw = raw
	return stateParseStrict
}

func (l *ladder) parseStrict(ctx context.Context) state {
	data, err := llmjson.StrictObject(l.raw)
	if err == nil {
		err = l.accept(ctx, data, llmjson.StageStrict)
	}
	if err != nil {
		l.err = err
		return stateParseLenient
	}
	return stateDone
}

func (l *ladder) parseLenient(ctx context.Context) state {
	data, err := llmjson.LenientObject(l.raw)
	if err == nil {
		err = l.accept(ctx, data, llmjson.StageLenient)
	}
	if err != nil {
		l.err = err
		l.logger.Warn("malformed evaluation response",
			zap.Bool("retried", l.retried),
			zap.Error(err),
		)
		return l.afterFailure()
	}
	return stateDone
}

func (l *ladder) accept(ctx context.Context, data map[string]any, stage llmjson.Stage) error {
	result, err := structuredResult(data)
	if err != nil {
		return err
	}
	l.svc.cfg.Metrics.ObserveParse(string(stage))
	l.result = l.svc.scorer.Details(ctx, l.req, result)
	return nil
}

func (l *ladder) afterFailure() state {
	if !l.retried {
		return stateRetry
	}
	return l.exhausted()
}

func (l *ladder) exhausted() state {
	if l.svc.cfg.Mandatory {
		return stateUnavailable
	}
	return stateFallback
}

func (l *ladder) fallback(ctx context.Context) state {
	l.result = l.svc.scorer.Evaluate(ctx, l.req)
	l.result.Degraded = ai.Available(l.svc.backend)
	return stateDone
}

func (l *ladder) unavailable(ctx context.Context) state {
	l.logger.Error("mandatory backend evaluation unavailable", zap.Error(l.err))
	l.result = l.svc.scorer.Details(ctx, l.req, evaluation.Result{
		Score:      0,
		Strengths:  []string{},
		Weaknesses: []string{evaluation.WeaknessUnavailable},
		Feedback:   evaluation.WeaknessUnavailable,
		Source:     evaluation.SourceUnavailable,
		Degraded:   true,
	})
	return stateDone
}

// structuredResult converts a backend JSON object into a Result. Details are
// filled in by the scorer.
func structuredResult(data map[string]any) (evaluation.Result, error) {
	if err := llmjson.Require(data, requiredFields...); err != nil {
		return evaluation.Result{}, err
	}

	score, ok := llmjson.Float(data["score"])
	if !ok {
		return evaluation.Result{}, fmt.Errorf("score %v is not a number: %w", data["score"], llmjson.ErrMissingField)
	}
	strengths, ok := llmjson.Strings(data["strengths"])
	if !ok {
		return evaluation.Result{}, fmt.Errorf("strengths is not a list: %w", llmjson.ErrMissingField)
	}
	rawWeaknesses, _ := llmjson.Lookup(data, "improvements", "weaknesses")
	weaknesses, ok := llmjson.Strings(rawWeaknesses)
	if !ok {
		return evaluation.Result{}, fmt.Errorf("improvements is not a list: %w", llmjson.ErrMissingField)
	}

	result := evaluation.Result{
		Score:      int(math.Round(math.Max(0, math.Min(100, score)))),
		Strengths:  strengths,
		Weaknesses: weaknesses,
		Feedback:   llmjson.String(data["feedback"]),
		Source:     evaluation.SourceGenerative,
	}
	if similarity, ok := llmjson.Float(data["similarity_score"]); ok {
		result.SimilarityScore = math.Round(math.Max(0, math.Min(1, similarity))*1000) / 1000
	}
	return result, nil
}
