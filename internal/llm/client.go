package llm

import (
	"context"
	"time"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client sends a conversation to a provider and returns the raw reply text.
// Every provider requests deterministic output (temperature 0) and JSON.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider  string
	BaseURL   string
	APIKey    string
	Model     string
	Timeout   time.Duration
	CacheTTL  time.Duration
	RateLimit int // requests per minute
	MaxTokens int
}

const (
	defaultTimeout   = 30 * time.Second
	defaultMaxTokens = 300
)

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultTimeout
	}
	return c.Timeout
}

func (c Config) maxTokens() int {
	if c.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return c.MaxTokens
}
