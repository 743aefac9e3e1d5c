package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spigell/pm-coach/internal/ai"
	"github.com/spigell/pm-coach/internal/logger"
	"github.com/spigell/pm-coach/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	ProviderName = "gemini"

	defaultModel       = "gemini-2.5-flash"
	defaultEmbedModel  = "text-embedding-004"
	defaultMaxRetries  = 2
	defaultRetryDelay  = 2 * time.Second
	maxAcceptableDelay = 20 * time.Second
	maxLogLength       = 200

	defaultSystemInstruction = "You are an experienced product management interviewer. " +
		"Follow the requested output format exactly."
)

// wait pauses between retries; replaced in tests.
var wait = utils.WaitFor

var retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) ([0-9]+(?:\.[0-9]+)?)\s*(s|sec|secs|seconds?)\b`)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type embedContenter interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

type genaiChats struct {
	chats *genai.Chats
}

func (g genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	chat, err := g.chats.Create(ctx, model, config, history)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// Config describes the Gemini backend.
type Config struct {
	APIKey            string
	Model             string
	EmbedModel        string
	MaxRetries        int
	SystemInstruction string
}

// Generator talks to the Gemini API. It implements ai.Generator and ai.Embedder.
type Generator struct {
	chats      chatCreator
	embeds     embedContenter
	model      string
	embedModel string
	system     string
	maxRetries int
	logger     *zap.Logger
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, cfg Config, log *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required: %w", ai.ErrBackendUnavailable)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	embedModel := strings.TrimSpace(cfg.EmbedModel)
	if embedModel == "" {
		embedModel = defaultEmbedModel
	}
	system := strings.TrimSpace(cfg.SystemInstruction)
	if system == "" {
		system = defaultSystemInstruction
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Generator{
		chats:      genaiChats{chats: client.Chats},
		embeds:     client.Models,
		model:      model,
		embedModel: embedModel,
		system:     system,
		maxRetries: retries,
		logger:     logger.WithCommonFields(log, ProviderName, model),
	}, nil
}

// Generate sends prompt with the configured system instruction.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g == nil {
		return "", ai.ErrBackendUnavailable
	}
	return g.GenerateContent(ctx, g.system, prompt)
}

// GenerateContent opens a fresh chat with system as its instruction and sends message,
// retrying temporary API failures.
func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	if g == nil || g.chats == nil {
		return "", fmt.Errorf("gemini generator is not initialized: %w", ai.ErrBackendUnavailable)
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{}
	if system = strings.TrimSpace(system); system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	attempts := g.maxRetries
	if attempts <= 0 {
		attempts = 1
	}

	g.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(message)),
		zap.String("prompt_preview", utils.TruncateForLog(message, maxLogLength)),
	)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		output, err := g.send(ctx, config, message)
		if err == nil {
			g.logger.Debug("gemini generate content response",
				zap.Int("attempt", attempt),
				zap.Int("response_length", utf8.RuneCountInString(output)),
				zap.String("response_preview", utils.TruncateForLog(output, maxLogLength)),
			)
			return output, nil
		}
		lastErr = err

		delay, retry := retryDelay(err)
		if !retry || attempt == attempts {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		g.logger.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := wait(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", lastErr
}

func (g *Generator) send(ctx context.Context, config *genai.GenerateContentConfig, message string) (string, error) {
	chat, err := g.chats.Create(ctx, g.model, config, nil)
	if err != nil {
		return "", fmt.Errorf("create chat: %w", err)
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}

	output := responseText(resp)
	if output == "" {
		return "", fmt.Errorf("gemini: %w", ai.ErrEmptyResponse)
	}
	return output, nil
}

// Embed returns the embedding of text.
func (g *Generator) Embed(ctx context.Context, text string) ([]float32, error) {
	if g == nil || g.embeds == nil {
		return nil, fmt.Errorf("gemini embedder is not initialized: %w", ai.ErrBackendUnavailable)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("embedding text must not be empty")
	}

	result, err := g.embeds.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if result == nil || len(result.Embeddings) == 0 || result.Embeddings[0] == nil || len(result.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini embeddings: %w", ai.ErrEmptyResponse)
	}

	return result.Embeddings[0].Values, nil
}

func (g *Generator) Provider() string { return ProviderName }

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

// retryDelay classifies err. Server errors and short quota waits are retried;
// client errors and quota waits longer than maxAcceptableDelay are not.
func retryDelay(err error) (time.Duration, bool) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	if errors.Is(err, ai.ErrEmptyResponse) {
		return defaultRetryDelay, true
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		delay := quotaDelay(apiErr)
		if delay > maxAcceptableDelay {
			return 0, false
		}
		return delay, true
	case apiErr.Code >= http.StatusInternalServerError:
		return defaultRetryDelay, true
	default:
		return 0, false
	}
}

func quotaDelay(apiErr genai.APIError) time.Duration {
	for _, detail := range apiErr.Details {
		raw, ok := detail["retryDelay"].(string)
		if !ok {
			continue
		}
		if d, err := time.ParseDuration(raw); err == nil {
			return d
		}
	}

	if match := retryAfterPattern.FindStringSubmatch(apiErr.Message); len(match) > 1 {
		if seconds, err := strconv.ParseFloat(match[1], 64); err == nil {
			return time.Duration(seconds * float64(time.Second))
		}
	}

	return defaultRetryDelay
}
