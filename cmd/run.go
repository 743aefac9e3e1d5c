package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"reflect"
	"syscall"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/spigell/pm-coach/internal/evaluation"
	"github.com/spigell/pm-coach/internal/logger"
	"github.com/spigell/pm-coach/internal/reference"
	"go.uber.org/zap"
)

// run builds the logger, config and services and then hands them to action.
func run(action func(ctx context.Context, app *application) error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Debug("starting the pm-coach", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	app, err := newApplication(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the application", zap.Error(err))
	}

	err = action(ctx, app)
	app.Close()
	if err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}
}

func redacted(config *Config) Config {
	out := *config
	gemini := *config.Backend.Gemini
	if gemini.APIKey != "" {
		gemini.APIKey = "***"
	}
	redis := *config.Cache.Redis
	if redis.Password != "" {
		redis.Password = "***"
	}
	backend := *config.Backend
	backend.Gemini = &gemini
	cacheCfg := *config.Cache
	cacheCfg.Redis = &redis
	out.Backend = &backend
	out.Cache = &cacheCfg
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// inputFile is the document read by the batch and practice commands.
type inputFile struct {
	Items     []evaluation.Request `mapstructure:"items"`
	Questions []reference.Question `mapstructure:"questions"`
}

// readInput loads a YAML or JSON items file. Question entries may be plain
// strings or objects with question and skills keys.
func readInput(path string) (*inputFile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading input file %q: %w", path, err)
	}

	var input inputFile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       stringToQuestionHook,
		WeaklyTypedInput: true,
		Result:           &input,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decoding input file %q: %w", path, err)
	}
	return &input, nil
}

func stringToQuestionHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() == reflect.String && to == reflect.TypeOf(reference.Question{}) {
		return map[string]any{"question": data}, nil
	}
	return data, nil
}

// questions returns the practice questions of the file, falling back to the
// questions of its items.
func (f *inputFile) questions() []reference.Question {
	if len(f.Questions) > 0 {
		return f.Questions
	}
	out := make([]reference.Question, 0, len(f.Items))
	for _, item := range f.Items {
		out = append(out, reference.Question{Text: item.Question, Skills: item.Skills})
	}
	return out
}
