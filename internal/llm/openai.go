package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/kaikei/internal/common"
)

// DefaultOpenAIBaseURL points at a local Ollama server's OpenAI-compatible API.
const DefaultOpenAIBaseURL = "http://127.0.0.1:11434/v1"

// openAIClient talks to any OpenAI-compatible chat completions endpoint.
type openAIClient struct {
	api       endpoint
	model     string
	maxTokens int
}

func newOpenAIClient(cfg Config) (Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: reasoning model name", common.ErrMissingConfig)
	}

	api := newEndpoint("chat completions", cfg, DefaultOpenAIBaseURL)
	if cfg.APIKey != "" {
		api.headers.Set("Authorization", "Bearer "+cfg.APIKey)
	}
	return &openAIClient{api: api, model: cfg.Model, maxTokens: cfg.maxTokens()}, nil
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []Message         `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatReply struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

func (c *openAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	var reply chatReply
	err := c.api.post(ctx, "/chat/completions", chatRequest{
		Model:          c.model,
		Messages:       messages,
		MaxTokens:      c.maxTokens,
		ResponseFormat: map[string]string{"type": "json_object"},
	}, &reply)
	if err != nil {
		return "", err
	}
	if len(reply.Choices) == 0 {
		return "", errors.New("chat completions: empty choices")
	}
	return reply.Choices[0].Message.Content, nil
}
