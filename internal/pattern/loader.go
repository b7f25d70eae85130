package pattern

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/kaikei/internal/common"
	"github.com/Veraticus/kaikei/internal/model"
)

// RuleFile is the on-disk layout of a rules file:
//
//	rules:
//	  - keyword: タクシー
//	    debit: 旅費交通費
//	    credit: 現金
type RuleFile struct {
	Rules []model.Rule `yaml:"rules"`
}

// DefaultRules is used when no rules file is configured.
var DefaultRules = []model.Rule{
	{Keyword: "タクシー", DebitAccount: "旅費交通費", CreditAccount: "現金"},
	{Keyword: "JR", DebitAccount: "旅費交通費", CreditAccount: "現金"},
	{Keyword: "Suica", DebitAccount: "旅費交通費", CreditAccount: "現金"},
	{Keyword: "セブンイレブン", DebitAccount: "消耗品費", CreditAccount: "現金"},
	{Keyword: "ローソン", DebitAccount: "消耗品費", CreditAccount: "現金"},
	{Keyword: "ファミリーマート", DebitAccount: "消耗品費", CreditAccount: "現金"},
	{Keyword: "電気", DebitAccount: "水道光熱費", CreditAccount: "普通預金"},
	{Keyword: "ガス", DebitAccount: "水道光熱費", CreditAccount: "普通預金"},
	{Keyword: "振込手数料", DebitAccount: "支払手数料", CreditAccount: "普通預金"},
}

// LoadRules reads rules from path. An empty path yields DefaultRules.
func LoadRules(path string) ([]model.Rule, error) {
	if path == "" {
		return DefaultRules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: rules file %s does not exist", common.ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	return ParseRules(data)
}

// ParseRules decodes a rules file and checks every rule is complete.
func ParseRules(data []byte) ([]model.Rule, error) {
	var file RuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: rules file: %w", common.ErrInvalidConfig, err)
	}

	for i, rule := range file.Rules {
		if rule.Keyword == "" || rule.DebitAccount == "" || rule.CreditAccount == "" {
			return nil, fmt.Errorf("%w: rule %d needs keyword, debit and credit", common.ErrInvalidConfig, i+1)
		}
	}

	return file.Rules, nil
}
