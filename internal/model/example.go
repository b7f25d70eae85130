package model

// MaxExamples is the capacity of a tenant's example list.
const MaxExamples = 50

// Example is a few-shot hint derived from a reviewer correction.
// CorrectedTo holds the [debit, credit] pair.
type Example struct {
	Summary        string    `json:"summary"`
	ReviewerReason string    `json:"reviewer_reason"`
	CorrectedTo    [2]string `json:"corrected_to"`
}

// Debit returns the corrected debit account.
func (e Example) Debit() string { return e.CorrectedTo[0] }

// Credit returns the corrected credit account.
func (e Example) Credit() string { return e.CorrectedTo[1] }

// PrependExample puts ex at the front of list and keeps at most MaxExamples items.
func PrependExample(list []Example, ex Example) []Example {
	out := make([]Example, 0, min(len(list)+1, MaxExamples))
	out = append(out, ex)
	for _, e := range list {
		if len(out) == MaxExamples {
			break
		}
		out = append(out, e)
	}
	return out
}
