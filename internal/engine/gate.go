// Package engine drives transactions through classification, the autopost
// gate and the correction feedback loop.
package engine

import "github.com/Veraticus/kaikei/internal/model"

// DefaultThreshold is the minimum confidence for automatic posting.
const DefaultThreshold = 0.7

// Decision is the autopost gate's verdict.
type Decision int

// Gate outcomes.
const (
	Pending Decision = iota
	Committed
)

func (d Decision) String() string {
	if d == Committed {
		return "committed"
	}
	return "pending"
}

// Decide commits s iff both accounts are present and its confidence is at
// least threshold.
func Decide(s model.Suggestion, threshold float64) Decision {
	if s.HasAccounts() && s.Confidence >= threshold {
		return Committed
	}
	return Pending
}
