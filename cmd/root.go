package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/spigell/pm-coach/internal/evaluation"
)

const (
	app       = "pm-coach"
	envPrefix = "PMCOACH"
)

type Config struct {
	Backend     *BackendConfig      `mapstructure:"backend" validate:"required"`
	Similarity  *SimilarityConfig   `mapstructure:"similarity" validate:"required"`
	Cache       *CacheConfig        `mapstructure:"cache" validate:"required"`
	Batch       *BatchConfig        `mapstructure:"batch" validate:"required"`
	Scoring     *evaluation.Weights `mapstructure:"scoring" validate:"required"`
	Skills      map[string][]string `mapstructure:"skills"`
	MetricsFile string              `mapstructure:"metrics-file"`
}

type BackendConfig struct {
	Provider     string        `mapstructure:"provider" validate:"omitempty,oneof=gemini ollama none"`
	Mandatory    bool          `mapstructure:"mandatory"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gte=0"`
	BatchTimeout time.Duration `mapstructure:"batch-timeout" validate:"gte=0"`
	MaxLogLength int           `mapstructure:"max-log-length" validate:"gte=0"`
	Gemini       *GeminiConfig `mapstructure:"gemini" validate:"required"`
	Ollama       *OllamaConfig `mapstructure:"ollama" validate:"required"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	EmbedModel string `mapstructure:"embed-model"`
	MaxRetries int    `mapstructure:"max-retries" validate:"gte=0,lte=10"`
}

type OllamaConfig struct {
	BaseURL     string  `mapstructure:"base-url" validate:"omitempty,url"`
	Model       string  `mapstructure:"model"`
	EmbedModel  string  `mapstructure:"embed-model"`
	Temperature float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxRetries  int     `mapstructure:"max-retries" validate:"gte=0,lte=10"`
}

type SimilarityConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Provider  string `mapstructure:"provider" validate:"omitempty,oneof=gemini ollama"`
	CacheSize int    `mapstructure:"cache-size" validate:"gte=0"`
}

type CacheConfig struct {
	Backend  string       `mapstructure:"backend" validate:"omitempty,oneof=memory redis"`
	Capacity int          `mapstructure:"capacity" validate:"gte=0"`
	Redis    *RedisConfig `mapstructure:"redis" validate:"required"`
}

type RedisConfig struct {
	Addr         string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password     string        `mapstructure:"password"`
	PasswordFile string        `mapstructure:"password-file"`
	DB           int           `mapstructure:"db" validate:"gte=0"`
	Prefix       string        `mapstructure:"prefix"`
	TTL          time.Duration `mapstructure:"ttl" validate:"gte=0"`
	Enabled      bool          `mapstructure:"-"`
}

type BatchConfig struct {
	Workers         int    `mapstructure:"workers" validate:"gte=0,lte=8"`
	SingleShot      bool   `mapstructure:"single-shot"`
	MaxPromptTokens int    `mapstructure:"max-prompt-tokens" validate:"gte=0"`
	Encoding        string `mapstructure:"encoding"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "pm-coach generates model answers to product management interview questions and scores your answers against them",
	}

	validate = validator.New(validator.WithRequiredStructEnabled())
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is pm-coach.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("metrics-file", "", "write prometheus metrics to this file after the command")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("metrics-file", rootCmd.PersistentFlags().Lookup("metrics-file"))
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("loading .env file: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindEnv("backend.gemini.api-key", "PMCOACH_GEMINI_API_KEY", "GEMINI_API_KEY")
	bindEnv("backend.provider", "PMCOACH_BACKEND_PROVIDER")
	bindEnv("backend.ollama.base-url", "PMCOACH_OLLAMA_BASE_URL")
	bindEnv("cache.redis.addr", "PMCOACH_REDIS_ADDR")
	bindEnv("cache.redis.password", "PMCOACH_REDIS_PASSWORD")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional; defaults cover a backend-less run.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func bindEnv(key string, envs ...string) {
	if err := viper.BindEnv(append([]string{key}, envs...)...); err != nil {
		log.Fatalf("binding %s environment variables: %v", key, err)
	}
}

func defaultConfig() *Config {
	weights := evaluation.DefaultWeights()
	return &Config{
		Backend: &BackendConfig{
			Provider:     "none",
			Timeout:      60 * time.Second,
			BatchTimeout: 180 * time.Second,
			MaxLogLength: 200,
			Gemini:       &GeminiConfig{MaxRetries: 2},
			Ollama:       &OllamaConfig{MaxRetries: 2, Temperature: 0.2},
		},
		Similarity: &SimilarityConfig{CacheSize: 512},
		Cache: &CacheConfig{
			Backend:  "memory",
			Capacity: 1024,
			Redis:    &RedisConfig{Addr: "localhost:6379"},
		},
		Batch: &BatchConfig{
			Workers:         4,
			SingleShot:      true,
			MaxPromptTokens: 6000,
		},
		Scoring: &weights,
	}
}

func getConfig() (*Config, error) {
	config := defaultConfig()
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	config.Backend.Provider = strings.ToLower(strings.TrimSpace(config.Backend.Provider))
	config.Similarity.Provider = strings.ToLower(strings.TrimSpace(config.Similarity.Provider))
	config.Cache.Backend = strings.ToLower(strings.TrimSpace(config.Cache.Backend))
	config.Cache.Redis.Enabled = config.Cache.Backend == "redis"

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// skillProfile merges configured skill keywords over the built-in table.
func (c *Config) skillProfile() evaluation.SkillProfile {
	profile := evaluation.DefaultSkillProfile()
	for skill, keywords := range c.Skills {
		profile[strings.ToLower(strings.TrimSpace(skill))] = keywords
	}
	return profile
}
