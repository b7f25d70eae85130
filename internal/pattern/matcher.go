// Package pattern implements the keyword rule classifier.
package pattern

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/service"
)

// Matcher scans rules in insertion order and returns the first one whose
// keyword appears in the summary, ignoring case.
type Matcher struct {
	rules    []model.Rule
	keywords []string // lower-cased keywords, index-aligned with rules
}

var _ service.Classifier = (*Matcher)(nil)

// NewMatcher creates a matcher. Rules with a blank keyword are dropped.
func NewMatcher(rules []model.Rule) *Matcher {
	m := &Matcher{}
	for _, rule := range rules {
		kw := strings.ToLower(strings.TrimSpace(rule.Keyword))
		if kw == "" {
			continue
		}
		m.rules = append(m.rules, rule)
		m.keywords = append(m.keywords, kw)
	}
	return m
}

// Rules returns the active rules in match order.
func (m *Matcher) Rules() []model.Rule {
	return append([]model.Rule(nil), m.rules...)
}

// Match returns the first matching rule.
func (m *Matcher) Match(summary string) (model.Rule, bool) {
	lower := strings.ToLower(summary)
	for i, kw := range m.keywords {
		if strings.Contains(lower, kw) {
			return m.rules[i], true
		}
	}
	return model.Rule{}, false
}

// Classify implements service.Classifier. A match is always fully confident.
func (m *Matcher) Classify(_ context.Context, _ model.Tenant, txn model.Transaction) model.Suggestion {
	rule, ok := m.Match(txn.Summary)
	if !ok {
		return model.Neutral(model.StrategyRule)
	}

	return model.Suggestion{
		DebitAccount:  rule.DebitAccount,
		CreditAccount: rule.CreditAccount,
		Confidence:    1.0,
		Reason:        fmt.Sprintf("keyword %q", rule.Keyword),
		Source:        model.StrategyRule,
	}
}
