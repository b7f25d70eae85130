package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Veraticus/kaikei/internal/common"
	"github.com/Veraticus/kaikei/internal/model"
)

// Header names.
const (
	HeaderClientKey  = "X-Client-Key"
	HeaderAdminToken = "X-Admin-Token"
)

type contextKey struct{}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// requireClient resolves X-Client-Key to a tenant. Missing or unknown keys get 401.
func (s *Server) requireClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(HeaderClientKey)
		if key == "" {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing "+HeaderClientKey+" header")
			return
		}

		tenant, err := s.deps.Tenants.ByAccessKey(r.Context(), key)
		if err != nil {
			if errors.Is(err, common.ErrUnauthorized) {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Unknown client key")
				return
			}
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), contextKey{}, *tenant)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin checks X-Admin-Token when an admin token is configured.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.deps.AdminToken != "" {
			got := r.Header.Get(HeaderAdminToken)
			if subtle.ConstantTimeCompare([]byte(got), []byte(s.deps.AdminToken)) != 1 {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid admin token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func tenantFrom(ctx context.Context) model.Tenant {
	tenant, _ := ctx.Value(contextKey{}).(model.Tenant)
	return tenant
}

// requestLogger logs one line per request through slog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{Error: code, ErrorDescription: description})
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
	case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrUnknownTenant):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, common.ErrDuplicateEntry):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, common.ErrUnauthorized):
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	default:
		slog.Error("Request failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Internal server error")
	}
}
