package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// registerClient handles POST /api/clients.
func (s *Server) registerClient(w http.ResponseWriter, r *http.Request) {
	var req RegisterClientRequest
	if !s.decode(w, r, &req) {
		return
	}

	tenant, err := s.deps.Tenants.Register(r.Context(), req.Name, req.Code, req.BaseFolder)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterClientResponse{Tenant: *tenant, AccessKey: tenant.AccessKey})
}

// listClients handles GET /api/clients.
func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	tenants, err := s.deps.Tenants.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": tenants})
}

// deleteClient handles DELETE /api/clients/{code}.
func (s *Server) deleteClient(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.DeleteTenant(r.Context(), chi.URLParam(r, "code")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
