// Package ollama implements ai.Generator and ai.Embedder over the Ollama HTTP API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/spigell/pm-coach/internal/ai"
	"github.com/spigell/pm-coach/internal/logger"
	"github.com/spigell/pm-coach/internal/utils"
	"go.uber.org/zap"
)

const (
	ProviderName = "ollama"

	DefaultBaseURL    = "http://localhost:11434"
	defaultModel      = "llama3"
	preferredFamily   = "llama3"
	discoveryTimeout  = 5 * time.Second
	defaultMaxRetries = 2
	maxLogLength      = 200
	maxErrorBody      = 512
)

// Config describes the Ollama backend.
type Config struct {
	BaseURL     string
	Model       string
	EmbedModel  string
	System      string
	Temperature float64
	MaxRetries  int
	HTTPClient  *http.Client
}

// Client calls /api/generate and /api/embed.
type Client struct {
	baseURL     string
	model       string
	embedModel  string
	system      string
	temperature float64
	maxRetries  uint64
	http        *http.Client
	logger      *zap.Logger

	newBackOff func() backoff.BackOff
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// New builds a Client. When cfg.Model is empty the model is discovered from /api/tags.
func New(ctx context.Context, cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	c := &Client{
		baseURL:     baseURL,
		model:       strings.TrimSpace(cfg.Model),
		embedModel:  strings.TrimSpace(cfg.EmbedModel),
		system:      strings.TrimSpace(cfg.System),
		temperature: cfg.Temperature,
		maxRetries:  uint64(retries),
		http:        httpClient,
		newBackOff: func() backoff.BackOff {
			expo := backoff.NewExponentialBackOff()
			expo.InitialInterval = 500 * time.Millisecond
			expo.MaxInterval = 5 * time.Second
			return expo
		},
	}

	if c.model == "" {
		c.model = c.discoverModel(ctx, log)
	}
	if c.embedModel == "" {
		c.embedModel = c.model
	}
	c.logger = logger.WithCommonFields(log, ProviderName, c.model)

	return c
}

// discoverModel prefers an installed llama3 variant, then the first installed model.
func (c *Client) discoverModel(ctx context.Context, log *zap.Logger) string {
	ctx, cancel := context.WithTimeout(ctx, discoveryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return defaultModel
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug("ollama model discovery failed", zap.Error(err))
		return defaultModel
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return defaultModel
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil || len(tags.Models) == 0 {
		return defaultModel
	}

	for _, m := range tags.Models {
		if strings.Contains(m.Name, preferredFamily) {
			return m.Name
		}
	}
	return tags.Models[0].Name
}

// Generate posts a non-streaming completion request.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil {
		return "", ai.ErrBackendUnavailable
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	body := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		System: c.system,
		Stream: false,
	}
	if c.temperature > 0 {
		body.Options = map[string]any{"temperature": c.temperature}
	}

	c.logger.Debug("ollama generate request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, maxLogLength)),
	)

	var out generateResponse
	if err := c.post(ctx, "/api/generate", body, &out); err != nil {
		return "", err
	}

	text := strings.TrimSpace(out.Response)
	if text == "" {
		return "", fmt.Errorf("ollama: %w", ai.ErrEmptyResponse)
	}

	c.logger.Debug("ollama generate response",
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", utils.TruncateForLog(text, maxLogLength)),
	)
	return text, nil
}

// Embed posts to /api/embed and returns the first embedding.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if c == nil {
		return nil, ai.ErrBackendUnavailable
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("embedding text must not be empty")
	}

	var out embedResponse
	if err := c.post(ctx, "/api/embed", embedRequest{Model: c.embedModel, Input: text}, &out); err != nil {
		return nil, err
	}
	if len(out.Embeddings) == 0 || len(out.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("ollama embeddings: %w", ai.ErrEmptyResponse)
	}
	return out.Embeddings[0], nil
}

func (c *Client) Provider() string { return ProviderName }

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// post sends body as JSON and decodes the reply into out. 5xx and transport
// errors are retried within ctx; 4xx responses are permanent.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("%s: %w", path, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(fmt.Errorf("%s status %d: %s", path, resp.StatusCode, readSnippet(resp.Body)))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("%s status %d: %s", path, resp.StatusCode, readSnippet(resp.Body))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode %s response: %w", path, err))
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("ollama request failed, retrying",
			zap.String("path", path),
			zap.Duration("delay", wait),
			zap.Error(err),
		)
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	if err := backoff.RetryNotify(op, bo, notify); err != nil {
		return fmt.Errorf("ollama %s: %w", path, err)
	}
	return nil
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(b))
}
