package model

// Rule maps a summary keyword to a fixed account pair.
type Rule struct {
	Keyword       string `yaml:"keyword" json:"keyword"`
	DebitAccount  string `yaml:"debit" json:"debit"`
	CreditAccount string `yaml:"credit" json:"credit"`
}
