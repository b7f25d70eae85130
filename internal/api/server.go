// Package api serves the bookkeeping HTTP API.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/Veraticus/kaikei/internal/engine"
	"github.com/Veraticus/kaikei/internal/normalize"
	"github.com/Veraticus/kaikei/internal/service"
)

// Deps are the collaborators the handlers need.
type Deps struct {
	Tenants  service.TenantDirectory
	Ledgers  service.LedgerProvider
	Examples service.ExampleStore
	Pipeline *engine.Pipeline

	// DeleteTenant overrides Tenants.Delete, e.g. to also drop tenant state.
	DeleteTenant func(ctx context.Context, code string) error

	// AdminToken guards tenant listing and deletion when set.
	AdminToken string
	// UploadDir receives scanned documents posted to /api/scan/import.
	UploadDir string

	Normalizer normalize.Normalizer
}

// Server holds the handlers and their dependencies.
type Server struct {
	deps     Deps
	validate *validator.Validate
}

// NewServer creates a server.
func NewServer(deps Deps) *Server {
	if deps.DeleteTenant == nil {
		deps.DeleteTenant = deps.Tenants.Delete
	}
	return &Server{deps: deps, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/clients", func(r chi.Router) {
			r.Post("/", s.registerClient)
			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/", s.listClients)
				r.Delete("/{code}", s.deleteClient)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireClient)

			r.Get("/journal", s.listJournal)
			r.Post("/journal", s.createJournal)
			r.Post("/journal/correct", s.correctJournal)
			r.Delete("/journal/{id}", s.deleteJournal)
			r.Get("/journal/{id}/corrections", s.listCorrections)

			r.Post("/auto_journal", s.autoJournal)
			r.Post("/transactions", s.processTransaction)
			r.Post("/scan/import", s.importScan)

			r.Get("/accounts", s.listAccounts)
			r.Post("/accounts", s.saveAccount)
			r.Delete("/accounts/{name}", s.deleteAccount)

			r.Get("/examples", s.listExamples)
		})
	})

	return r
}

// NewHTTPServer wraps the router with server timeouts.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
