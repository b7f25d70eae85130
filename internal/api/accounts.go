package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/Veraticus/kaikei/internal/model"
)

// listAccounts handles GET /api/accounts.
func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	ledger, ok := s.ledger(w, r)
	if !ok {
		return
	}

	accounts, err := ledger.ListAccounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if accounts == nil {
		accounts = []model.Account{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

// saveAccount handles POST /api/accounts. Existing names are updated.
func (s *Server) saveAccount(w http.ResponseWriter, r *http.Request) {
	var req AccountRequest
	if !s.decode(w, r, &req) {
		return
	}

	ledger, ok := s.ledger(w, r)
	if !ok {
		return
	}

	account := &model.Account{Name: req.Name, Category: req.Category, Code: req.Code}
	if err := ledger.SaveAccount(r.Context(), account); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// deleteAccount handles DELETE /api/accounts/{name}.
func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	ledger, ok := s.ledger(w, r)
	if !ok {
		return
	}

	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid account name")
		return
	}

	if err := ledger.DeleteAccount(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listExamples handles GET /api/examples.
func (s *Server) listExamples(w http.ResponseWriter, r *http.Request) {
	examples, err := s.deps.Examples.Examples(r.Context(), tenantFrom(r.Context()).Code)
	if err != nil {
		writeError(w, err)
		return
	}
	if examples == nil {
		examples = []model.Example{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"examples": examples})
}
