// Package normalize turns heterogeneous source records into model.Transaction values.
// Nothing here returns an error for bad field values: dates fall back to the
// current day and amounts fall back to zero.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/kaikei/internal/model"
)

// Clock returns the current time. Tests replace it.
type Clock func() time.Time

// Normalizer converts source records. The zero value uses time.Now.
type Normalizer struct {
	Now Clock
}

// BankRow is a row from a bank feed.
type BankRow struct {
	Date        string
	Description string
	Amount      string
	ID          string // Feed-assigned transaction id, if any
}

// CardRow is a row from a card feed.
type CardRow struct {
	Date     string
	Merchant string
	Amount   string
	ID       string
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"20060102",
}

var amountNoise = strings.NewReplacer(",", "", "¥", "", "￥", "", "円", "", " ", "", "　", "")

// Bank normalizes a bank feed row.
func (n Normalizer) Bank(row BankRow) model.Transaction {
	return model.Transaction{
		Date:      n.Date(row.Date),
		Summary:   strings.TrimSpace(row.Description),
		Amount:    Amount(row.Amount),
		SourceKey: row.ID,
	}
}

// Card normalizes a card feed row.
func (n Normalizer) Card(row CardRow) model.Transaction {
	return model.Transaction{
		Date:      n.Date(row.Date),
		Summary:   strings.TrimSpace(row.Merchant),
		Amount:    Amount(row.Amount),
		SourceKey: row.ID,
	}
}

// Scan normalizes a scanned document. TaxIncluded and Confidence are not
// carried over; the document's own confidence is unrelated to classification.
func (n Normalizer) Scan(doc ScanDocument) model.Transaction {
	return model.Transaction{
		Date:    n.Date(doc.Date),
		Summary: strings.TrimSpace(doc.Vendor),
		Amount:  Amount(doc.Amount),
	}
}

// Date parses an ISO-like date. "/" separators are accepted. Missing or
// malformed input yields today's date.
func (n Normalizer) Date(raw string) time.Time {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), "/", "-")
	if raw != "" {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
	}

	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	y, m, d := now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Amount parses a signed amount. Thousands separators and yen marks are
// ignored. Anything else that does not parse as a finite number yields 0.
func Amount(raw string) float64 {
	cleaned := amountNoise.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// FormatAmount renders an amount the way feeds usually deliver it.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
