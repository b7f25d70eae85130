package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/kaikei/internal/common"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion        = "2023-06-01"
)

// anthropicClient implements Client for the Anthropic messages API.
type anthropicClient struct {
	api       endpoint
	model     string
	maxTokens int
}

func newAnthropicClient(cfg Config) (Client, error) {
	switch {
	case cfg.APIKey == "":
		return nil, fmt.Errorf("%w: anthropic API key", common.ErrMissingConfig)
	case cfg.Model == "":
		return nil, fmt.Errorf("%w: reasoning model name", common.ErrMissingConfig)
	}

	api := newEndpoint("anthropic", cfg, defaultAnthropicBaseURL)
	api.headers.Set("x-api-key", cfg.APIKey)
	api.headers.Set("anthropic-version", anthropicVersion)
	return &anthropicClient{api: api, model: cfg.Model, maxTokens: cfg.maxTokens()}, nil
}

type messagesRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type messagesReply struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete hoists system turns into the top-level system field; the
// messages API accepts only user and assistant roles.
func (c *anthropicClient) Complete(ctx context.Context, messages []Message) (string, error) {
	req := messagesRequest{Model: c.model, MaxTokens: c.maxTokens}
	var system []string
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
		} else {
			req.Messages = append(req.Messages, m)
		}
	}
	req.System = strings.Join(system, "\n\n")

	var reply messagesReply
	if err := c.api.post(ctx, "/messages", req, &reply); err != nil {
		return "", err
	}
	for _, block := range reply.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errors.New("anthropic: no text block in reply")
}
