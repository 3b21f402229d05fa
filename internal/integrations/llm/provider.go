// Package llm streams text from hosted language models and speaks the
// event-stream format the assistant endpoint exposes.
package llm

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"scrumtrack/internal/config"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"
const defaultOpenAIModel = "gpt-4o-mini"

// Streamer generates a completion and hands each text delta to fn as it
// arrives. A non-nil error from fn aborts the stream.
type Streamer interface {
	Stream(ctx context.Context, system, prompt string, fn func(string) error) error
}

// New returns the provider selected by cfg.LLMProvider.
func New(cfg config.Config, client *http.Client, log *zap.Logger) (Streamer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai_api_key is required for llm_provider=openai")
		}
		model := cfg.LLMModel
		if model == "" {
			model = defaultOpenAIModel
		}
		return &OpenAI{
			APIKey:    cfg.OpenAIAPIKey,
			BaseURL:   cfg.OpenAIBaseURL,
			Model:     model,
			MaxTokens: cfg.LLMMaxTokens,
			Client:    client,
			Log:       log,
		}, nil
	case "anthropic", "":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic_api_key is required for llm_provider=anthropic")
		}
		model := cfg.LLMModel
		if model == "" {
			model = defaultAnthropicModel
		}
		return NewAnthropic(cfg.AnthropicAPIKey, model, cfg.LLMMaxTokens, client, log), nil
	default:
		return nil, fmt.Errorf("unknown llm_provider %q", cfg.LLMProvider)
	}
}
