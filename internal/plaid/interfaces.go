package plaid

import (
	"context"
	"time"

	"github.com/Veraticus/kaikei/internal/normalize"
)

// RowFetcher returns bank feed rows for a date range.
type RowFetcher interface {
	FetchRows(ctx context.Context, startDate, endDate time.Time) ([]normalize.BankRow, error)
}
