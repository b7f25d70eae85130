// Package storage provides the per-tenant ledgers and the tenant directory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/kaikei/internal/common"
	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/service"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidEntry     = errors.New("invalid journal entry")
	ErrInvalidTenant    = errors.New("invalid tenant")
	ErrInvalidReference = errors.New("invalid entry reference")
)

// Tenant codes become file names, so they are restricted to a portable alphabet.
var tenantCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %w: %s", common.ErrInvalidInput, ErrEmptyString, paramName)
	}
	return nil
}

// ValidateTenantCode reports whether code is usable as a tenant code.
func ValidateTenantCode(code string) error {
	if !tenantCodePattern.MatchString(code) {
		return fmt.Errorf("%w: %w: code %q must match %s", common.ErrInvalidInput, ErrInvalidTenant, code, tenantCodePattern)
	}
	return nil
}

func validateEntry(entry *model.JournalEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: %w: entry", common.ErrInvalidInput, ErrNilParameter)
	}
	if entry.Date.IsZero() {
		return fmt.Errorf("%w: %w: missing date", common.ErrInvalidInput, ErrInvalidEntry)
	}
	if strings.TrimSpace(entry.DebitAccount) == "" || strings.TrimSpace(entry.CreditAccount) == "" {
		return fmt.Errorf("%w: %w: both accounts are required", common.ErrInvalidInput, ErrInvalidEntry)
	}
	if entry.Confidence < 0 || entry.Confidence > 1 {
		return fmt.Errorf("%w: %w: confidence %.2f outside [0,1]", common.ErrInvalidInput, ErrInvalidEntry, entry.Confidence)
	}
	return nil
}

func validateCorrection(req service.CorrectionRequest) error {
	if req.EntryID <= 0 {
		return fmt.Errorf("entry %d: %w: %w", req.EntryID, ErrInvalidReference, common.ErrNotFound)
	}
	if err := validateString(req.NewDebit, "new_debit"); err != nil {
		return err
	}
	return validateString(req.NewCredit, "new_credit")
}

func validateAccount(account *model.Account) error {
	if account == nil {
		return fmt.Errorf("%w: %w: account", common.ErrInvalidInput, ErrNilParameter)
	}
	return validateString(account.Name, "name")
}
