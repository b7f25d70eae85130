package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Veraticus/kaikei/internal/model"
	"github.com/Veraticus/kaikei/internal/normalize"
)

const maxUploadBytes = 10 << 20

func (s *Server) transaction(req TransactionRequest) model.Transaction {
	return s.deps.Normalizer.Bank(normalize.BankRow{
		Date:        req.Date,
		Description: req.Summary,
		Amount:      string(req.Amount),
	})
}

// autoJournal handles POST /api/auto_journal. It only suggests; nothing is written.
func (s *Server) autoJournal(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if !s.decode(w, r, &req) {
		return
	}

	suggestion := s.deps.Pipeline.Suggest(r.Context(), tenantFrom(r.Context()), s.transaction(req))
	writeJSON(w, http.StatusOK, newSuggestionResponse(suggestion, s.deps.Pipeline.Threshold()))
}

// processTransaction handles POST /api/transactions.
func (s *Server) processTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.process(w, r, s.transaction(req))
}

// importScan handles POST /api/scan/import with a multipart "file" field
// holding a scan XML document.
func (s *Server) importScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Expected multipart form with a file field")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to read upload")
		return
	}

	doc, err := normalize.ParseScanXML(bytes.NewReader(data))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_document", err.Error())
		return
	}

	txn := s.deps.Normalizer.Scan(doc)
	if path, err := s.saveUpload(tenantFrom(r.Context()).Code, data); err != nil {
		writeError(w, err)
		return
	} else if path != "" {
		txn.SourcePath = path
	}

	s.process(w, r, txn)
}

func (s *Server) process(w http.ResponseWriter, r *http.Request, txn model.Transaction) {
	outcome, err := s.deps.Pipeline.Process(r.Context(), tenantFrom(r.Context()), txn)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if outcome.Committed {
		status = http.StatusCreated
	}
	writeJSON(w, status, OutcomeResponse{
		Committed:  outcome.Committed,
		Entry:      outcome.Entry,
		Suggestion: newSuggestionResponse(outcome.Suggestion, s.deps.Pipeline.Threshold()),
	})
}

// saveUpload keeps the uploaded document so entries can point at it.
func (s *Server) saveUpload(tenantCode string, data []byte) (string, error) {
	if s.deps.UploadDir == "" {
		return "", nil
	}

	dir := filepath.Join(s.deps.UploadDir, tenantCode)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(dir, uuid.NewString()+".xml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	return path, nil
}
