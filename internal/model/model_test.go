package model

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrependExample(t *testing.T) {
	tests := []struct {
		name     string
		existing int
		wantLen  int
	}{
		{name: "empty list", existing: 0, wantLen: 1},
		{name: "below capacity", existing: 10, wantLen: 11},
		{name: "one below capacity", existing: MaxExamples - 1, wantLen: MaxExamples},
		{name: "at capacity", existing: MaxExamples, wantLen: MaxExamples},
		{name: "over capacity", existing: MaxExamples + 7, wantLen: MaxExamples},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := make([]Example, tt.existing)
			for i := range list {
				list[i] = Example{Summary: fmt.Sprintf("old-%d", i)}
			}

			got := PrependExample(list, Example{Summary: "new"})

			assert.Len(t, got, tt.wantLen)
			assert.Equal(t, "new", got[0].Summary)
			if tt.existing > 0 {
				assert.Equal(t, "old-0", got[1].Summary)
			}
		})
	}
}

func TestPrependExample_DoesNotMutateInput(t *testing.T) {
	list := []Example{{Summary: "a"}, {Summary: "b"}}
	_ = PrependExample(list, Example{Summary: "c"})
	assert.Equal(t, "a", list[0].Summary)
	assert.Equal(t, "b", list[1].Summary)
}

func TestSuggestion_HasAccounts(t *testing.T) {
	assert.True(t, Suggestion{DebitAccount: "消耗品費", CreditAccount: "現金"}.HasAccounts())
	assert.False(t, Suggestion{DebitAccount: "消耗品費"}.HasAccounts())
	assert.False(t, Neutral(StrategyRule).HasAccounts())
	assert.Equal(t, StrategyRule, Neutral(StrategyRule).Source)
}

func TestStrategy_Valid(t *testing.T) {
	assert.True(t, StrategyRule.Valid())
	assert.True(t, StrategyLocal.Valid())
	assert.True(t, StrategyReasoning.Valid())
	assert.False(t, Strategy("magic").Valid())
}

func TestTransaction_Fingerprint(t *testing.T) {
	date := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	a := Transaction{Date: date, Summary: "JR東日本", Amount: -420}
	b := Transaction{Date: date, Summary: "JR東日本", Amount: -420, SourcePath: "/tmp/x.xml"}
	c := Transaction{Date: date, Summary: "JR東日本", Amount: -430}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
