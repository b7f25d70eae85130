package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/kaikei/internal/common"
	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/service"
)

var header = []any{"ID", "Date", "Summary", "Amount", "Debit", "Credit", "Confidence", "Reviewed", "Reason", "Source"}

// Writer mirrors a tenant's journal into a spreadsheet range.
type Writer struct {
	values *sheets.SpreadsheetsValuesService
	logger *slog.Logger
	config Config
}

// NewWriter creates a writer authenticated with the configured credentials.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	ts, err := tokenSource(ctx, config)
	if err != nil {
		return nil, err
	}
	srv, err := sheets.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newWriter(srv, config, logger), nil
}

func newWriter(srv *sheets.Service, config Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{values: srv.Spreadsheets.Values, config: config, logger: logger.With("spreadsheet", config.SpreadsheetID)}
}

// tokenSource prefers a service account key and falls back to an OAuth2
// refresh token.
func tokenSource(ctx context.Context, config Config) (oauth2.TokenSource, error) {
	if config.ServiceAccountPath == "" {
		oc := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}
		return oc.TokenSource(ctx, &oauth2.Token{RefreshToken: config.RefreshToken}), nil
	}

	key, err := os.ReadFile(config.ServiceAccountPath) // #nosec G304 -- operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("read service account key: %w", err)
	}
	jwt, err := google.JWTConfigFromJSON(key, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	return jwt.TokenSource(ctx), nil
}

func (w *Writer) retry(ctx context.Context, fn func() error) error {
	return common.WithRetry(ctx, fn, service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
	})
}

// ExportJournal replaces the sheet's contents with entries in the order
// given and returns the number of data rows written.
func (w *Writer) ExportJournal(ctx context.Context, tenantCode string, entries []model.JournalEntry) (int, error) {
	sheet, startRow, err := splitRange(w.config.rangeOrDefault())
	if err != nil {
		return 0, err
	}
	id := w.config.SpreadsheetID

	clearRange := fmt.Sprintf("%s!A%d:J", sheet, startRow)
	if err := w.retry(ctx, func() error {
		_, err := w.values.Clear(id, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do()
		return err
	}); err != nil {
		return 0, fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rows := journalValues(entries)
	batch := w.config.BatchSize
	if batch <= 0 {
		batch = len(rows)
	}

	row := startRow
	for chunk := range slices.Chunk(rows, batch) {
		target := fmt.Sprintf("%s!A%d", sheet, row)
		if err := w.retry(ctx, func() error {
			_, err := w.values.Update(id, target, &sheets.ValueRange{Values: chunk}).
				ValueInputOption("USER_ENTERED").
				Context(ctx).
				Do()
			return err
		}); err != nil {
			return 0, fmt.Errorf("write %s: %w", target, err)
		}
		w.logger.Debug("Wrote rows", "range", target, "rows", len(chunk))
		row += len(chunk)
	}

	w.logger.Info("Journal exported", "tenant", tenantCode, "rows", len(entries))
	return len(entries), nil
}

func journalValues(entries []model.JournalEntry) [][]any {
	out := [][]any{header}
	for _, e := range entries {
		out = append(out, []any{
			e.ID,
			e.Date.Format(time.DateOnly),
			e.Summary,
			e.Amount,
			e.DebitAccount,
			e.CreditAccount,
			fmt.Sprintf("%.2f", e.Confidence),
			e.Reviewed,
			e.Reason,
			e.SourcePath,
		})
	}
	return out
}
