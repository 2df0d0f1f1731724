package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"quiz-doc/internal/config"
	"quiz-doc/internal/domain"
	"quiz-doc/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// LangchainGenerator implements domain.TextGenerator on top of any
// langchaingo model.
type LangchainGenerator struct {
	model       llms.Model
	modelName   string
	temperature float64
}

// NewLangchainGenerator wraps an already constructed model.
func NewLangchainGenerator(model llms.Model, modelName string, temperature float64) *LangchainGenerator {
	return &LangchainGenerator{
		model:       model,
		modelName:   modelName,
		temperature: temperature,
	}
}

// NewOpenAIGenerator builds a generator backed by the OpenAI chat API.
func NewOpenAIGenerator(cfg config.LLMConfig) (*LangchainGenerator, error) {
	if cfg.APIKey == "" {
		return nil, domain.NewInvalidInputError("openai API key cannot be empty (set llm.api_key or OPENAI_API_KEY)")
	}
	if cfg.Model == "" {
		return nil, domain.NewInvalidInputError("llm.model cannot be empty")
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo OpenAI client: %w", err)
	}
	return NewLangchainGenerator(model, cfg.Model, cfg.Temperature), nil
}

// NewOllamaGenerator builds a generator backed by a local Ollama server.
func NewOllamaGenerator(cfg config.LLMConfig) (*LangchainGenerator, error) {
	if cfg.ServerURL == "" {
		return nil, domain.NewInvalidInputError("ollama server URL cannot be empty")
	}
	if cfg.Model == "" {
		return nil, domain.NewInvalidInputError("llm.model cannot be empty")
	}

	model, err := ollama.New(
		ollama.WithServerURL(cfg.ServerURL),
		ollama.WithModel(cfg.Model),
		ollama.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo Ollama client: %w", err)
	}
	return NewLangchainGenerator(model, cfg.Model, cfg.Temperature), nil
}

// NewGenerator picks the backend named by cfg.Provider.
func NewGenerator(cfg config.LLMConfig) (*LangchainGenerator, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllamaGenerator(cfg)
	case "openai", "":
		return NewOpenAIGenerator(cfg)
	default:
		return nil, domain.NewInvalidInputError(fmt.Sprintf("unsupported llm provider: %q", cfg.Provider))
	}
}

func (g *LangchainGenerator) Model() string {
	return g.modelName
}

func (g *LangchainGenerator) Temperature() float64 {
	return g.temperature
}

// Generate sends prompt as a single human message. Transport failures are
// reported as LLM_SERVICE_ERROR.
func (g *LangchainGenerator) Generate(ctx context.Context, prompt string, format domain.ResponseFormat) (string, error) {
	l := logger.Get()

	opts := []llms.CallOption{llms.WithTemperature(g.temperature)}
	if format == domain.ResponseFormatJSON {
		opts = append(opts, llms.WithJSONMode())
	}

	start := time.Now()
	response, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt, opts...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			l.Error("LLM request timed out", zap.String("model", g.modelName), zap.Error(err))
			return "", domain.NewLLMServiceError(fmt.Errorf("LLM request timed out: %w", err))
		}
		l.Error("Failed to get response from LLM", zap.String("model", g.modelName), zap.Error(err))
		return "", domain.NewLLMServiceError(fmt.Errorf("LLM call failed: %w", err))
	}

	l.Debug("LLM response received",
		zap.String("model", g.modelName),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("response_chars", len(response)),
		zap.Duration("elapsed", time.Since(start)))
	return response, nil
}

var _ domain.TextGenerator = (*LangchainGenerator)(nil)
