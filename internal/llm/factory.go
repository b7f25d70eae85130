package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/kaikei/internal/common"
)

// Provider names accepted in configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// NewClient creates a provider client from configuration.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI, "ollama":
		return newOpenAIClient(cfg)
	case ProviderAnthropic:
		return newAnthropicClient(cfg)
	case ProviderGemini:
		return newGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported reasoning provider %q", common.ErrInvalidConfig, cfg.Provider)
	}
}
