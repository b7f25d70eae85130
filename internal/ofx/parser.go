// Package ofx reads OFX/QFX bank and credit-card statements into feed rows.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/kaikei/internal/normalize"
)

// Statement holds the rows of one OFX file, split by feed type.
type Statement struct {
	Bank []normalize.BankRow
	Card []normalize.CardRow
}

// Len returns the total number of rows.
func (s Statement) Len() int {
	return len(s.Bank) + len(s.Card)
}

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

var (
	severityPattern = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	openTagPattern  = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocess fixes formatting issues some banks ship in their exports.
func (p *Parser) preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityPattern.ReplaceAllStringFunc(content, strings.ToUpper)
	return openTagPattern.ReplaceAllString(content, "$1>")
}

// ParseFile parses an OFX/QFX document.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) (Statement, error) {
	if err := ctx.Err(); err != nil {
		return Statement{}, err
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return Statement{}, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocess(string(content))))
	if err != nil {
		return Statement{}, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var stmt Statement

	for _, msg := range resp.Bank {
		bank, ok := msg.(*ofxgo.StatementResponse)
		if !ok || bank.BankTranList == nil {
			continue
		}
		for _, txn := range bank.BankTranList.Transactions {
			stmt.Bank = append(stmt.Bank, normalize.BankRow{
				Date:        txn.DtPosted.Time.Format("2006-01-02"),
				Description: description(txn),
				Amount:      amount(txn),
				ID:          rowID(txn),
			})
		}
	}

	for _, msg := range resp.CreditCard {
		card, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || card.BankTranList == nil {
			continue
		}
		for _, txn := range card.BankTranList.Transactions {
			stmt.Card = append(stmt.Card, normalize.CardRow{
				Date:     txn.DtPosted.Time.Format("2006-01-02"),
				Merchant: description(txn),
				Amount:   amount(txn),
				ID:       rowID(txn),
			})
		}
	}

	slog.Info("Parsed OFX file",
		"bank_rows", len(stmt.Bank),
		"card_rows", len(stmt.Card))

	return stmt, nil
}

// amount keeps the OFX sign: negative for money leaving the account.
func amount(txn ofxgo.Transaction) string {
	f, _ := txn.TrnAmt.Float64()
	return normalize.FormatAmount(f)
}

func rowID(txn ofxgo.Transaction) string {
	if txn.FiTID == "" {
		return ""
	}
	return "ofx:" + string(txn.FiTID)
}

var cardPrefixes = []string{
	"POS PURCHASE ",
	"DEBIT CARD PURCHASE ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
}

// description picks the most useful free text for classification.
func description(txn ofxgo.Transaction) string {
	if txn.Payee != nil && txn.Payee.Name != "" {
		return strings.TrimSpace(string(txn.Payee.Name))
	}

	name := strings.TrimSpace(string(txn.Name))
	if name == "" || isGeneric(name) {
		if memo := strings.TrimSpace(string(txn.Memo)); memo != "" {
			name = memo
		}
	}

	upper := strings.ToUpper(name)
	for _, prefix := range cardPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return strings.TrimSpace(name[len(prefix):])
		}
	}
	return name
}

func isGeneric(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}
