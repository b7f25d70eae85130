// Package sheets exports a tenant's journal to a Google Sheet.
package sheets

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/kaikei/internal/common"
)

// DefaultRange is where the journal table starts.
const DefaultRange = "Journal!A1"

// Config holds the configuration for the journal exporter.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	Range              string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Range:         DefaultRange,
		BatchSize:     1000,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}
}

// Validate checks that exactly one authentication method is configured.
func (c *Config) Validate() error {
	hasOAuth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
	hasServiceAccount := c.ServiceAccountPath != ""

	switch {
	case !hasOAuth && !hasServiceAccount:
		return fmt.Errorf("%w: google sheets needs a refresh token or a service account file", common.ErrMissingConfig)
	case hasOAuth && hasServiceAccount:
		return fmt.Errorf("%w: use either OAuth2 or a service account, not both", common.ErrInvalidConfig)
	case c.SpreadsheetID == "":
		return fmt.Errorf("%w: spreadsheet id", common.ErrMissingConfig)
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive", common.ErrInvalidConfig)
	case c.RetryAttempts < 0:
		return fmt.Errorf("%w: retry attempts cannot be negative", common.ErrInvalidConfig)
	}

	if _, _, err := splitRange(c.rangeOrDefault()); err != nil {
		return err
	}
	return nil
}

func (c *Config) rangeOrDefault() string {
	if c.Range == "" {
		return DefaultRange
	}
	return c.Range
}

// splitRange splits "Sheet!A1" into the sheet name and the starting row.
func splitRange(r string) (sheet string, row int, err error) {
	sheet, cell, ok := strings.Cut(r, "!")
	if !ok || sheet == "" {
		return "", 0, fmt.Errorf("%w: range %q must look like Sheet!A1", common.ErrInvalidConfig, r)
	}

	digits := strings.TrimLeft(strings.ToUpper(cell), "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	if digits == "" {
		return sheet, 1, nil
	}
	if _, err := fmt.Sscanf(digits, "%d", &row); err != nil || row < 1 {
		return "", 0, fmt.Errorf("%w: range %q has no valid row", common.ErrInvalidConfig, r)
	}
	return sheet, row, nil
}
