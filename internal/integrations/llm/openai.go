package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// OpenAI talks to any chat-completions compatible endpoint.
type OpenAI struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Client    *http.Client
	Log       *zap.Logger
}

type openAIRequest struct {
	Model     string          `json:"model"`
	Messages  []openAIMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
	Stream    bool            `json:"stream"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (o *OpenAI) Stream(ctx context.Context, system, prompt string, fn func(string) error) error {
	reqBody := openAIRequest{
		Model:     o.Model,
		MaxTokens: o.MaxTokens,
		Stream:    true,
	}
	if system != "" {
		reqBody.Messages = append(reqBody.Messages, openAIMessage{Role: "system", Content: system})
	}
	reqBody.Messages = append(reqBody.Messages, openAIMessage{Role: "user", Content: prompt})

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimSuffix(o.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		o.log().Warn("llm openai error", zap.Error(err))
		return fmt.Errorf("OpenAI API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		o.log().Warn("llm openai api error", zap.Int("status", resp.StatusCode), zap.String("body", string(body)))
		return fmt.Errorf("OpenAI API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	chars := 0
	err = ReadStream(resp.Body, func(delta string) error {
		chars += len(delta)
		return fn(delta)
	})
	if err != nil {
		return fmt.Errorf("OpenAI stream: %w", err)
	}
	o.log().Debug("llm openai stream finished", zap.String("model", o.Model), zap.Int("chars", chars))
	return nil
}

func (o *OpenAI) log() *zap.Logger {
	if o.Log == nil {
		return zap.NewNop()
	}
	return o.Log
}
