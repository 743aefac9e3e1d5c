package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spigell/pm-coach/internal/ai"
	"github.com/spigell/pm-coach/internal/ai/gemini"
	"github.com/spigell/pm-coach/internal/ai/ollama"
	"github.com/spigell/pm-coach/internal/cache"
	"github.com/spigell/pm-coach/internal/coach"
	"github.com/spigell/pm-coach/internal/evaluation"
	"github.com/spigell/pm-coach/internal/metrics"
	"github.com/spigell/pm-coach/internal/reference"
	"github.com/spigell/pm-coach/internal/secrets"
	"go.uber.org/zap"
)

const redisPingTimeout = 3 * time.Second

// application holds the services a command needs. It is built once per run.
type application struct {
	coach       *coach.Service
	registry    *prometheus.Registry
	metricsFile string
	closers     []func() error
	logger      *zap.Logger
}

func newApplication(ctx context.Context, config *Config, logger *zap.Logger) (*application, error) {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	backend, err := newBackend(ctx, config.Backend, logger)
	if err != nil {
		if config.Backend.Mandatory {
			return nil, fmt.Errorf("building mandatory backend: %w", err)
		}
		logger.Warn("generative backend disabled, using local scoring", zap.Error(err))
		backend = ai.Disabled{}
	}

	similarity := newSimilarity(ctx, config, backend, logger)
	scorer := evaluation.NewScorer(*config.Scoring, config.skillProfile(), similarity, logger)

	a := &application{
		registry:    registry,
		metricsFile: config.MetricsFile,
		logger:      logger,
	}

	store := a.newStore(ctx, config.Cache, logger)
	tokens := ai.NewTiktokenCounter(config.Batch.Encoding, logger)

	references := reference.NewGenerator(backend, store, reference.Config{
		Timeout:         config.Backend.Timeout,
		BatchTimeout:    config.Backend.BatchTimeout,
		Workers:         config.Batch.Workers,
		SingleShot:      config.Batch.SingleShot,
		MaxPromptTokens: config.Batch.MaxPromptTokens,
		Tokens:          tokens,
		Metrics:         m,
	}, logger)

	a.coach = coach.NewService(backend, scorer, references, coach.Config{
		Mandatory:       config.Backend.Mandatory,
		Timeout:         config.Backend.Timeout,
		BatchTimeout:    config.Backend.BatchTimeout,
		Workers:         config.Batch.Workers,
		SingleShot:      config.Batch.SingleShot,
		MaxPromptTokens: config.Batch.MaxPromptTokens,
		MaxLogLength:    config.Backend.MaxLogLength,
		Tokens:          tokens,
		Metrics:         m,
	}, logger)

	logger.Debug("application ready",
		zap.String("provider", backend.Provider()),
		zap.String("model", backend.Model()),
		zap.Bool("similarity", similarity.Available()),
		zap.Bool("mandatory", config.Backend.Mandatory),
	)
	return a, nil
}

// Close writes metrics when requested and releases external connections.
func (a *application) Close() {
	if a.metricsFile != "" {
		if err := prometheus.WriteToTextfile(a.metricsFile, a.registry); err != nil {
			a.logger.Warn("writing metrics file", zap.String("filename", a.metricsFile), zap.Error(err))
		} else {
			a.logger.Debug("metrics written", zap.String("filename", a.metricsFile))
		}
	}
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			a.logger.Warn("closing resource", zap.Error(err))
		}
	}
}

func newBackend(ctx context.Context, cfg *BackendConfig, logger *zap.Logger) (ai.Generator, error) {
	switch cfg.Provider {
	case "", "none":
		return ai.Disabled{}, nil
	case gemini.ProviderName:
		g, err := newGemini(ctx, cfg.Gemini, logger)
		if err != nil {
			return nil, err
		}
		return g, nil
	case ollama.ProviderName:
		return newOllama(ctx, cfg.Ollama, logger), nil
	default:
		return nil, fmt.Errorf("unsupported backend provider: %s", cfg.Provider)
	}
}

func newGemini(ctx context.Context, cfg *GeminiConfig, logger *zap.Logger) (*gemini.Generator, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set backend.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	return gemini.NewGenerator(ctx, gemini.Config{
		APIKey:     apiKey,
		Model:      cfg.Model,
		EmbedModel: cfg.EmbedModel,
		MaxRetries: cfg.MaxRetries,
	}, logger)
}

func newOllama(ctx context.Context, cfg *OllamaConfig, logger *zap.Logger) *ollama.Client {
	return ollama.New(ctx, ollama.Config{
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		EmbedModel:  cfg.EmbedModel,
		Temperature: cfg.Temperature,
		MaxRetries:  cfg.MaxRetries,
	}, logger)
}

// newSimilarity picks the similarity capability once. The generative backend
// is reused as the embedder when it is the configured provider.
func newSimilarity(ctx context.Context, config *Config, backend ai.Generator, logger *zap.Logger) evaluation.SimilarityProvider {
	if !config.Similarity.Enabled {
		return evaluation.DisabledSimilarity{}
	}

	provider := config.Similarity.Provider
	if provider == "" {
		provider = backend.Provider()
	}

	var embedder ai.Embedder
	switch {
	case provider == backend.Provider() && ai.Available(backend):
		embedder, _ = backend.(ai.Embedder)
	case provider == ollama.ProviderName:
		embedder = newOllama(ctx, config.Backend.Ollama, logger)
	case provider == gemini.ProviderName:
		g, err := newGemini(ctx, config.Backend.Gemini, logger)
		if err != nil {
			logger.Warn("semantic similarity disabled", zap.Error(err))
			return evaluation.DisabledSimilarity{}
		}
		embedder = g
	}
	if embedder == nil {
		logger.Warn("semantic similarity disabled", zap.String("provider", provider))
		return evaluation.DisabledSimilarity{}
	}

	return evaluation.NewEmbeddingSimilarity(embedder, cache.NewMemory[[]float32](config.Similarity.CacheSize), logger)
}

func (a *application) newStore(ctx context.Context, cfg *CacheConfig, logger *zap.Logger) cache.Store {
	if cfg.Backend != "redis" {
		return cache.NewMemoryStore(cfg.Capacity)
	}

	var password string
	if cfg.Redis.Password != "" || cfg.Redis.PasswordFile != "" {
		loaded, err := secrets.Load(secrets.Source{
			Name:  "redis password",
			Value: cfg.Redis.Password,
			File:  cfg.Redis.PasswordFile,
		})
		if err != nil {
			logger.Warn("redis password not loaded", zap.Error(err))
		}
		password = loaded
	}

	store := cache.NewRedis(cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
		TTL:      cfg.Redis.TTL,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		logger.Warn("redis cache unreachable, using memory cache", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		_ = store.Close()
		return cache.NewMemoryStore(cfg.Capacity)
	}

	a.closers = append(a.closers, store.Close)
	return store
}
