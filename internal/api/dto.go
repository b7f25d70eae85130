package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Veraticus/kaikei/internal/engine"
	"github.com/Veraticus/kaikei/internal/model"
)

// RegisterClientRequest registers a tenant.
type RegisterClientRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Code       string `json:"code" validate:"required,max=64"`
	BaseFolder string `json:"base_folder"`
}

// RegisterClientResponse carries the access key, which is shown only once.
type RegisterClientResponse struct {
	model.Tenant
	AccessKey string `json:"access_key"`
}

// TransactionRequest is a raw transaction. Date and amount go through the
// normalizer, so "2024/04/01" and "¥1,200" are accepted.
type TransactionRequest struct {
	Date    string      `json:"date"`
	Summary string      `json:"summary" validate:"required"`
	Amount  amountField `json:"amount"`
}

// ManualEntryRequest creates a journal entry directly.
type ManualEntryRequest struct {
	Date          string      `json:"date"`
	Summary       string      `json:"summary" validate:"required"`
	Amount        amountField `json:"amount"`
	DebitAccount  string      `json:"debit_account" validate:"required"`
	CreditAccount string      `json:"credit_account" validate:"required"`
	Reason        string      `json:"reason"`
}

// CorrectionRequest overrides an entry's accounts.
type CorrectionRequest struct {
	EntryID   int64  `json:"entry_id" validate:"required,gt=0"`
	NewDebit  string `json:"new_debit" validate:"required"`
	NewCredit string `json:"new_credit" validate:"required"`
	Reason    string `json:"reason"`
	Reviewer  string `json:"reviewer"`
}

// AccountRequest adds or updates a chart-of-accounts row.
type AccountRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Category string `json:"category" validate:"omitempty,oneof=asset liability equity revenue expense"`
	Code     string `json:"code" validate:"omitempty,max=20"`
}

// SuggestionResponse is a classifier suggestion with the gate's verdict.
type SuggestionResponse struct {
	DebitAccount  string  `json:"debit_account"`
	CreditAccount string  `json:"credit_account"`
	Reason        string  `json:"reason"`
	Source        string  `json:"source"`
	Decision      string  `json:"decision"`
	Confidence    float64 `json:"confidence"`
}

// OutcomeResponse is the result of running the pipeline.
type OutcomeResponse struct {
	Entry      *model.JournalEntry `json:"entry,omitempty"`
	Suggestion SuggestionResponse  `json:"suggestion"`
	Committed  bool                `json:"committed"`
}

func newSuggestionResponse(s model.Suggestion, threshold float64) SuggestionResponse {
	return SuggestionResponse{
		DebitAccount:  s.DebitAccount,
		CreditAccount: s.CreditAccount,
		Reason:        s.Reason,
		Source:        string(s.Source),
		Confidence:    s.Confidence,
		Decision:      engine.Decide(s, threshold).String(),
	}
}

// amountField accepts a JSON number or string and keeps the raw text.
type amountField string

func (a *amountField) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*a = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	*a = amountField(raw)
	return nil
}

const maxBodyBytes = 1 << 20

// decode reads and validates a JSON body. It writes the error reply itself
// and reports whether the handler should continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("Invalid JSON body: %v", err))
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
