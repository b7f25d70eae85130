// Package bayes is the local-model classifier: a naive Bayes model over
// summary terms, trained from reviewed journal entries and stored on disk.
package bayes

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jbrukh/bayesian"

	"github.com/Veraticus/kaikei/internal/common"
)

// classSep joins a debit/credit pair into one class label.
const classSep = "\x1f"

// ErrTooFewClasses is returned when training data covers fewer than two account pairs.
var ErrTooFewClasses = errors.New("training needs at least two distinct account pairs")

// Sample is one labeled training example.
type Sample struct {
	Summary string
	Debit   string
	Credit  string
}

// Prediction is the model's best guess for a summary.
type Prediction struct {
	Debit       string
	Credit      string
	Probability float64
}

// Model couples a trained classifier with the vectorizer it was trained with.
type Model struct {
	classifier *bayesian.Classifier
	vectorizer Vectorizer
}

// Train builds a model from samples.
func Train(samples []Sample, vectorizer Vectorizer) (*Model, error) {
	var classes []bayesian.Class
	seen := make(map[bayesian.Class]bool)
	for _, s := range samples {
		if s.Debit == "" || s.Credit == "" {
			continue
		}
		class := bayesian.Class(s.Debit + classSep + s.Credit)
		if !seen[class] {
			seen[class] = true
			classes = append(classes, class)
		}
	}
	if len(classes) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewClasses, len(classes))
	}

	classifier := bayesian.NewClassifier(classes...)
	for _, s := range samples {
		if s.Debit == "" || s.Credit == "" {
			continue
		}
		terms := vectorizer.Terms(s.Summary)
		if len(terms) == 0 {
			continue
		}
		classifier.Learn(terms, bayesian.Class(s.Debit+classSep+s.Credit))
	}

	return &Model{classifier: classifier, vectorizer: vectorizer}, nil
}

// Load reads a model and its vectorizer. Both files must exist.
func Load(modelPath, vectorizerPath string) (*Model, error) {
	if modelPath == "" || vectorizerPath == "" {
		return nil, fmt.Errorf("%w: model paths not configured", common.ErrModelUnavailable)
	}

	vectorizer, err := loadVectorizer(vectorizerPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrModelUnavailable, vectorizerPath)
		}
		return nil, err
	}

	classifier, err := bayesian.NewClassifierFromFile(modelPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrModelUnavailable, modelPath)
		}
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	return &Model{classifier: classifier, vectorizer: vectorizer}, nil
}

// Save writes the model and vectorizer, creating parent directories.
func (m *Model) Save(modelPath, vectorizerPath string) error {
	for _, p := range []string{modelPath, vectorizerPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			return fmt.Errorf("failed to create model directory: %w", err)
		}
	}

	if err := m.classifier.WriteToFile(modelPath); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	return m.vectorizer.save(vectorizerPath)
}

// Classes returns the number of account pairs the model knows.
func (m *Model) Classes() int {
	return len(m.classifier.Classes)
}

// Predict scores summary. ok is false when the summary has no usable terms
// or the top classes tie.
func (m *Model) Predict(summary string) (Prediction, bool) {
	terms := m.vectorizer.Terms(summary)
	if len(terms) == 0 {
		return Prediction{}, false
	}

	logScores, best, strict := m.classifier.LogScores(terms)
	if !strict || best < 0 || best >= len(logScores) {
		return Prediction{}, false
	}
	p := posterior(logScores, best)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return Prediction{}, false
	}

	debit, credit, found := strings.Cut(string(m.classifier.Classes[best]), classSep)
	if !found {
		return Prediction{}, false
	}

	return Prediction{Debit: debit, Credit: credit, Probability: p}, true
}

// posterior normalizes log scores into the probability of class best.
// Working relative to the best score keeps long summaries, whose raw
// probabilities underflow, in range.
func posterior(logScores []float64, best int) float64 {
	var sum float64
	for _, s := range logScores {
		sum += math.Exp(s - logScores[best])
	}
	return min(1, max(0, 1/sum))
}
