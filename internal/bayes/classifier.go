package bayes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/kaikei/internal/common"
	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/service"
)

// Classifier serves predictions from the model on disk. Without a model it
// answers every request with a neutral suggestion.
type Classifier struct {
	model          *Model
	modelPath      string
	vectorizerPath string
	mu             sync.RWMutex
}

var _ service.Classifier = (*Classifier)(nil)

// NewClassifier loads the model if present. A missing model is not an error.
func NewClassifier(modelPath, vectorizerPath string) (*Classifier, error) {
	c := &Classifier{modelPath: modelPath, vectorizerPath: vectorizerPath}
	if err := c.Reload(); err != nil && !errors.Is(err, common.ErrModelUnavailable) {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the model files, e.g. after training.
func (c *Classifier) Reload() error {
	m, err := Load(c.modelPath, c.vectorizerPath)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.model = nil
		if errors.Is(err, common.ErrModelUnavailable) {
			slog.Warn("Local model not available, suggestions will be neutral", "model", c.modelPath)
		}
		return err
	}

	c.model = m
	slog.Info("Loaded local model", "model", c.modelPath, "classes", m.Classes())
	return nil
}

// Loaded reports whether a model is in memory.
func (c *Classifier) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model != nil
}

// Classify implements service.Classifier. The posterior probability of the
// winning pair is reported as the confidence.
func (c *Classifier) Classify(_ context.Context, _ model.Tenant, txn model.Transaction) model.Suggestion {
	c.mu.RLock()
	m := c.model
	c.mu.RUnlock()

	if m == nil {
		return model.Neutral(model.StrategyLocal)
	}

	pred, ok := m.Predict(txn.Summary)
	if !ok {
		return model.Neutral(model.StrategyLocal)
	}

	return model.Suggestion{
		DebitAccount:  pred.Debit,
		CreditAccount: pred.Credit,
		Confidence:    pred.Probability,
		Reason:        fmt.Sprintf("local model (p=%.2f)", pred.Probability),
		Source:        model.StrategyLocal,
	}
}
