package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/service"
)

// Classifier is the reasoning-service strategy. It never returns an error:
// transport failures, timeouts and unparseable replies all become a neutral
// suggestion, which the autopost gate then routes to review.
type Classifier struct {
	client      Client
	examples    service.ExampleStore
	cache       *suggestionCache
	rateLimiter *rateLimiter
	logger      *slog.Logger
	timeout     time.Duration
}

var _ service.Classifier = (*Classifier)(nil)

// NewClassifier wraps client. examples may be nil, in which case prompts carry no few-shot context.
func NewClassifier(client Client, examples service.ExampleStore, cfg Config, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}

	return &Classifier{
		client:      client,
		examples:    examples,
		cache:       newSuggestionCache(cfg.CacheTTL),
		rateLimiter: newRateLimiter(cfg.RateLimit),
		logger:      logger,
		timeout:     cfg.timeout(),
	}
}

// Classify implements service.Classifier.
func (c *Classifier) Classify(ctx context.Context, tenant model.Tenant, txn model.Transaction) model.Suggestion {
	neutral := model.Neutral(model.StrategyReasoning)

	var examples []model.Example
	if c.examples != nil {
		var err error
		examples, err = c.examples.Examples(ctx, tenant.Code)
		if err != nil {
			c.logger.Warn("Failed to load examples, prompting without them",
				"tenant", tenant.Code,
				"error", err)
		}
	}

	messages := buildMessages(txn, examples)
	key := promptKey(tenant.Code, messages)

	if cached, ok := c.cache.get(key); ok {
		c.logger.Debug("Reasoning cache hit", "tenant", tenant.Code, "summary", txn.Summary)
		return cached
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.rateLimiter.wait(callCtx); err != nil {
		c.logger.Warn("Reasoning call skipped", "tenant", tenant.Code, "error", err)
		return neutral
	}

	raw, err := c.client.Complete(callCtx, messages)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, context.DeadlineExceeded) {
			level = slog.LevelError
		}
		c.logger.Log(ctx, level, "Reasoning service call failed",
			"tenant", tenant.Code,
			"summary", txn.Summary,
			"error", err)
		return neutral
	}

	suggestion, err := parseSuggestion(raw)
	if err != nil {
		c.logger.Warn("Unusable reasoning reply",
			"tenant", tenant.Code,
			"summary", txn.Summary,
			"error", err)
		return neutral
	}

	c.cache.set(key, suggestion)

	c.logger.Info("Transaction classified",
		"tenant", tenant.Code,
		"summary", txn.Summary,
		"debit", suggestion.DebitAccount,
		"credit", suggestion.CreditAccount,
		"confidence", suggestion.Confidence)

	return suggestion
}

// Close drops cached replies.
func (c *Classifier) Close() {
	c.cache.clear()
}
