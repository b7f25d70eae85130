// Package plaid pulls bank feed rows from the Plaid API.
package plaid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/plaid/plaid-go/v20/plaid"

	"github.com/Veraticus/kaikei/internal/common"
	"github.com/Veraticus/kaikei/internal/normalize"
	"github.com/Veraticus/kaikei/internal/service"
)

// KeyPrefix marks processed-set keys that came from Plaid.
const KeyPrefix = "plaid:"

const (
	pageSize   = 500
	dateLayout = "2006-01-02"
)

var environments = map[string]plaid.Environment{
	"sandbox":    plaid.Sandbox,
	"production": plaid.Production,
}

// Config holds Plaid API credentials for one linked bank account.
type Config struct {
	ClientID    string
	Secret      string
	Environment string
	AccessToken string
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"plaid client ID", c.ClientID},
		{"plaid secret", c.Secret},
		{"plaid access token", c.AccessToken},
	} {
		if f.value == "" {
			return fmt.Errorf("%w: %s", common.ErrMissingConfig, f.name)
		}
	}
	if _, ok := environments[c.Environment]; !ok {
		return fmt.Errorf("%w: plaid environment must be sandbox or production, got %q", common.ErrInvalidConfig, c.Environment)
	}
	return nil
}

// Client implements RowFetcher against the transactions/get endpoint.
type Client struct {
	api         *plaid.PlaidApiService
	logger      *slog.Logger
	accessToken string
	retry       service.RetryOptions
}

var _ RowFetcher = (*Client)(nil)

// NewClient creates a Plaid client.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	conf := plaid.NewConfiguration()
	conf.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	conf.AddDefaultHeader("PLAID-SECRET", cfg.Secret)
	conf.UseEnvironment(environments[cfg.Environment])

	return &Client{
		api:         plaid.NewAPIClient(conf).PlaidApi,
		accessToken: cfg.AccessToken,
		logger:      slog.Default().With("component", "plaid"),
		retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2,
		},
	}, nil
}

// FetchRows returns every transaction posted between from and to inclusive.
func (c *Client) FetchRows(ctx context.Context, from, to time.Time) ([]normalize.BankRow, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: context cannot be nil", common.ErrInvalidInput)
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: start date must be before end date", common.ErrInvalidInput)
	}

	var rows []normalize.BankRow
	for offset := 0; ; offset += pageSize {
		page, err := c.fetchPage(ctx, from, to, offset)
		if err != nil {
			return nil, err
		}
		for _, pt := range page {
			rows = append(rows, toRow(pt))
		}
		if len(page) < pageSize {
			break
		}
	}

	c.logger.Info("Plaid fetch complete",
		"from", from.Format(dateLayout),
		"to", to.Format(dateLayout),
		"rows", len(rows))
	return rows, nil
}

// fetchPage reads one page, retrying only when Plaid throttles us.
func (c *Client) fetchPage(ctx context.Context, from, to time.Time, offset int) ([]plaid.Transaction, error) {
	req := plaid.NewTransactionsGetRequest(c.accessToken, from.Format(dateLayout), to.Format(dateLayout))
	req.SetOptions(plaid.TransactionsGetRequestOptions{
		Count:  plaid.PtrInt32(pageSize),
		Offset: plaid.PtrInt32(int32(offset)),
	})

	var page []plaid.Transaction
	err := common.WithRetry(ctx, func() error {
		resp, _, err := c.api.TransactionsGet(ctx).TransactionsGetRequest(*req).Execute()
		if err != nil {
			return classifyError(err)
		}
		page = resp.GetTransactions()
		c.logger.Debug("Plaid page", "offset", offset, "count", len(page), "total", resp.GetTotalTransactions())
		return nil
	}, c.retry)
	return page, err
}

// classifyError maps a Plaid SDK error onto the common sentinels.
func classifyError(err error) error {
	apiErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return fmt.Errorf("%w: %w", common.ErrPlaidConnection, err)
	}
	if apiErr.ErrorCode == "RATE_LIMIT_EXCEEDED" {
		return &common.RetryableError{
			Err:       fmt.Errorf("%w: %s", common.ErrPlaidRateLimit, apiErr.ErrorMessage),
			Retryable: true,
		}
	}
	return &common.RetryableError{
		Err: fmt.Errorf("plaid %s: %s", apiErr.ErrorCode, apiErr.ErrorMessage),
	}
}

// toRow converts a Plaid transaction. Plaid reports outflows as positive
// amounts; bank rows carry them as negative.
func toRow(pt plaid.Transaction) normalize.BankRow {
	name := pt.GetMerchantName()
	if strings.TrimSpace(name) == "" {
		name = pt.GetName()
	}
	return normalize.BankRow{
		Date:        pt.GetDate(),
		Description: cleanDescription(name),
		Amount:      strconv.FormatFloat(-pt.GetAmount(), 'f', -1, 64),
		ID:          KeyPrefix + pt.GetTransactionId(),
	}
}

// cleanDescription collapses whitespace and drops a trailing reference
// number of six or more digits.
func cleanDescription(name string) string {
	words := strings.Fields(name)
	if n := len(words); n > 1 && len(words[n-1]) > 5 &&
		strings.IndexFunc(words[n-1], func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		words = words[:n-1]
	}
	return strings.Join(words, " ")
}

// IsRateLimited reports whether err came from Plaid throttling.
func IsRateLimited(err error) bool {
	return errors.Is(err, common.ErrPlaidRateLimit)
}
