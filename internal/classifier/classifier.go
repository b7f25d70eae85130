// Package classifier builds the configured classification strategy.
package classifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/kaikei/internal/bayes"
	"github.com/Veraticus/kaikei/internal/common"
	"github.com/Veraticus/kaikei/internal/llm"
	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/pattern"
	"github.com/Veraticus/kaikei/internal/service"
)

// Options selects and configures one strategy.
type Options struct {
	Examples       service.ExampleStore
	Logger         *slog.Logger
	Strategy       model.Strategy
	RulesFile      string
	ModelPath      string
	VectorizerPath string
	Reasoning      llm.Config
}

// Strategy is a classifier that may hold background resources.
type Strategy interface {
	service.Classifier
	Close() error
}

// New returns the strategy named by opts.Strategy.
func New(ctx context.Context, opts Options) (Strategy, error) {
	switch opts.Strategy {
	case model.StrategyRule:
		rules, err := pattern.LoadRules(opts.RulesFile)
		if err != nil {
			return nil, err
		}
		slog.Info("Using keyword rules", "rules", len(rules), "file", opts.RulesFile)
		return nopCloser{pattern.NewMatcher(rules)}, nil

	case model.StrategyLocal:
		c, err := bayes.NewClassifier(opts.ModelPath, opts.VectorizerPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load local model: %w", err)
		}
		return nopCloser{c}, nil

	case model.StrategyReasoning:
		client, err := llm.NewClient(ctx, opts.Reasoning)
		if err != nil {
			return nil, err
		}
		slog.Info("Using reasoning service",
			"provider", opts.Reasoning.Provider,
			"model", opts.Reasoning.Model)
		return reasoning{llm.NewClassifier(client, opts.Examples, opts.Reasoning, opts.Logger)}, nil

	default:
		return nil, fmt.Errorf("%w: unknown classifier strategy %q", common.ErrInvalidConfig, opts.Strategy)
	}
}

type nopCloser struct {
	service.Classifier
}

func (nopCloser) Close() error { return nil }

type reasoning struct {
	*llm.Classifier
}

func (r reasoning) Close() error {
	r.Classifier.Close()
	return nil
}
