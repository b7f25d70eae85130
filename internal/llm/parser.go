package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/kaikei/internal/common"
	"github.com/Veraticus/kaikei/internal/model"
)

// reply is the JSON object the service is asked to produce.
type reply struct {
	DebitAccount  *string  `json:"debit_account"`
	CreditAccount *string  `json:"credit_account"`
	Confidence    *float64 `json:"confidence"`
	Reason        string   `json:"reason"`
}

// parseSuggestion decodes a reply. Missing account or confidence fields are
// an error so the caller can fall back to a neutral suggestion.
func parseSuggestion(raw string) (model.Suggestion, error) {
	var r reply
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &r); err != nil {
		return model.Suggestion{}, fmt.Errorf("%w: %w", common.ErrBadResponse, err)
	}

	if r.DebitAccount == nil || r.CreditAccount == nil || r.Confidence == nil {
		return model.Suggestion{}, fmt.Errorf("%w: missing debit_account, credit_account or confidence", common.ErrBadResponse)
	}

	return model.Suggestion{
		DebitAccount:  strings.TrimSpace(*r.DebitAccount),
		CreditAccount: strings.TrimSpace(*r.CreditAccount),
		Confidence:    clamp(*r.Confidence),
		Reason:        r.Reason,
		Source:        model.StrategyReasoning,
	}, nil
}

// cleanJSON strips markdown fences and surrounding chatter some models add
// even when asked for bare JSON.
func cleanJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
