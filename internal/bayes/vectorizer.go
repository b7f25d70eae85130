package bayes

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Vectorizer turns a summary into the bag of terms the model is trained on.
// Words are split on whitespace and punctuation; each word also contributes
// its character n-grams so unsegmented Japanese text yields useful terms.
type Vectorizer struct {
	NGram     int  `json:"ngram"`
	Lowercase bool `json:"lowercase"`
}

// DefaultVectorizer uses character bigrams and case folding.
var DefaultVectorizer = Vectorizer{NGram: 2, Lowercase: true}

// Terms returns the feature terms for summary. Digits are dropped because
// amounts embedded in summaries carry no account signal.
func (v Vectorizer) Terms(summary string) []string {
	if v.Lowercase {
		summary = strings.ToLower(summary)
	}

	words := strings.FieldsFunc(summary, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsDigit(r)
	})

	var terms []string
	for _, word := range words {
		runes := []rune(word)
		terms = append(terms, word)
		if v.NGram < 2 || len(runes) <= v.NGram {
			continue
		}
		for i := 0; i+v.NGram <= len(runes); i++ {
			terms = append(terms, string(runes[i:i+v.NGram]))
		}
	}
	return terms
}

func loadVectorizer(path string) (Vectorizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vectorizer{}, err
	}

	var v Vectorizer
	if err := json.Unmarshal(data, &v); err != nil {
		return Vectorizer{}, fmt.Errorf("failed to decode vectorizer: %w", err)
	}
	return v, nil
}

func (v Vectorizer) save(path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode vectorizer: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
