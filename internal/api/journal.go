package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/normalize"
	"github.com/Veraticus/kaikei/internal/service"
)

const defaultJournalLimit = 100

// listJournal handles GET /api/journal?limit=N.
func (s *Server) listJournal(w http.ResponseWriter, r *http.Request) {
	limit := defaultJournalLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit")
			return
		}
		limit = n
	}

	ledger, ok := s.ledger(w, r)
	if !ok {
		return
	}

	entries, err := ledger.ListEntries(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []model.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// createJournal handles POST /api/journal. Manual entries start unreviewed.
func (s *Server) createJournal(w http.ResponseWriter, r *http.Request) {
	var req ManualEntryRequest
	if !s.decode(w, r, &req) {
		return
	}

	ledger, ok := s.ledger(w, r)
	if !ok {
		return
	}

	entry := &model.JournalEntry{
		Date:          s.deps.Normalizer.Date(req.Date),
		Summary:       req.Summary,
		Amount:        normalize.Amount(string(req.Amount)),
		DebitAccount:  req.DebitAccount,
		CreditAccount: req.CreditAccount,
		Reason:        req.Reason,
		Confidence:    1.0,
		TenantCode:    tenantFrom(r.Context()).Code,
	}
	if err := ledger.CreateEntry(r.Context(), entry); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// deleteJournal handles DELETE /api/journal/{id}.
func (s *Server) deleteJournal(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	ledger, ok := s.ledger(w, r)
	if !ok {
		return
	}

	if err := ledger.DeleteEntry(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listCorrections handles GET /api/journal/{id}/corrections.
func (s *Server) listCorrections(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	ledger, ok := s.ledger(w, r)
	if !ok {
		return
	}

	corrections, err := ledger.GetCorrections(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if corrections == nil {
		corrections = []model.Correction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"corrections": corrections})
}

// correctJournal handles POST /api/journal/correct. An unknown entry
// changes nothing and gets 404.
func (s *Server) correctJournal(w http.ResponseWriter, r *http.Request) {
	var req CorrectionRequest
	if !s.decode(w, r, &req) {
		return
	}

	correction, err := s.deps.Pipeline.RecordCorrection(r.Context(), tenantFrom(r.Context()), service.CorrectionRequest{
		EntryID:   req.EntryID,
		NewDebit:  req.NewDebit,
		NewCredit: req.NewCredit,
		Reason:    req.Reason,
		Reviewer:  req.Reviewer,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if correction == nil {
		writeJSONError(w, http.StatusNotFound, "not_found", "Journal entry not found")
		return
	}
	writeJSON(w, http.StatusOK, correction)
}

func (s *Server) ledger(w http.ResponseWriter, r *http.Request) (service.LedgerStore, bool) {
	ledger, err := s.deps.Ledgers.Ledger(r.Context(), tenantFrom(r.Context()).Code)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return ledger, true
}

func entryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid journal entry ID")
		return 0, false
	}
	return id, true
}
