package model

// Strategy names a classifier implementation.
type Strategy string

// Classifier strategies.
const (
	StrategyRule      Strategy = "rule"
	StrategyLocal     Strategy = "local"
	StrategyReasoning Strategy = "reasoning"
)

// Valid reports whether s names a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyRule, StrategyLocal, StrategyReasoning:
		return true
	}
	return false
}

// Suggestion is the transient output of a classifier.
// An empty account name means the classifier had no answer for that side.
type Suggestion struct {
	DebitAccount  string
	CreditAccount string
	Reason        string
	Source        Strategy
	Confidence    float64
}

// Neutral returns the "unknown" suggestion every strategy degrades to.
func Neutral(source Strategy) Suggestion {
	return Suggestion{Source: source}
}

// HasAccounts reports whether both sides of the pair are present.
func (s Suggestion) HasAccounts() bool {
	return s.DebitAccount != "" && s.CreditAccount != ""
}
