package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int
	log       *zap.Logger
}

// NewAnthropic builds a streaming client. Extra options (for example a base
// URL) are applied after the defaults. Retries are disabled.
func NewAnthropic(apiKey, model string, maxTokens int, httpClient *http.Client, log *zap.Logger, opts ...option.RequestOption) *Anthropic {
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		base = append(base, option.WithHTTPClient(httpClient))
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Anthropic{
		client:    anthropic.NewClient(append(base, opts...)...),
		model:     model,
		maxTokens: maxTokens,
		log:       log,
	}
}

func (a *Anthropic) Stream(ctx context.Context, system, prompt string, fn func(string) error) error {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(a.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	stream := a.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	chars := 0
	for stream.Next() {
		event := stream.Current()
		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				chars += len(delta.Text)
				if err := fn(delta.Text); err != nil {
					return err
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		a.log.Warn("llm anthropic stream error", zap.String("model", a.model), zap.Error(err))
		return fmt.Errorf("Anthropic API error: %w", err)
	}
	a.log.Debug("llm anthropic stream finished", zap.String("model", a.model), zap.Int("chars", chars))
	return nil
}
