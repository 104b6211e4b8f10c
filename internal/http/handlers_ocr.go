package http

import (
	"net/http"

	"finsync/internal/core"
	"finsync/internal/http/respond"
	"finsync/internal/ocr"
)

const maxUploadBytes = 5 << 20 // 5 MiB upload cap

// handleOCRScan accepts extracted statement text as a multipart upload and
// returns the transaction candidates found in it.
func (s *Server) handleOCRScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respond.Validation(w, map[string]string{"file": "malformed multipart upload"})
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.Validation(w, map[string]string{"file": "missing file field"})
		return
	}
	defer file.Close()

	result, err := ocr.Scan(file)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "scan completed", result)
}

// handleOCRImport bulk-inserts candidates the user confirmed after a scan.
func (s *Server) handleOCRImport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Transactions []core.Transaction `json:"transactions"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		respond.Validation(w, map[string]string{"body": "malformed JSON body"})
		return
	}
	if len(body.Transactions) == 0 {
		respond.Validation(w, map[string]string{"transactions": "at least one transaction is required"})
		return
	}

	saved, err := s.transactions.Import(r.Context(), currentUser(r).ID, body.Transactions)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "transactions imported", map[string]any{
		"imported":     len(saved),
		"transactions": saved,
	})
}
