package plaid

import (
	"context"
	"time"

	"github.com/Veraticus/kaikei/internal/normalize"
)

// MockClient is a RowFetcher for tests and dry runs.
type MockClient struct {
	FetchRowsFn func(ctx context.Context, startDate, endDate time.Time) ([]normalize.BankRow, error)
	Calls       []FetchCall
}

// FetchCall records the parameters of a FetchRows call.
type FetchCall struct {
	StartDate time.Time
	EndDate   time.Time
}

// FetchRows implements RowFetcher.
func (m *MockClient) FetchRows(ctx context.Context, startDate, endDate time.Time) ([]normalize.BankRow, error) {
	m.Calls = append(m.Calls, FetchCall{StartDate: startDate, EndDate: endDate})
	if m.FetchRowsFn != nil {
		return m.FetchRowsFn(ctx, startDate, endDate)
	}
	return nil, nil
}

var _ RowFetcher = (*MockClient)(nil)
