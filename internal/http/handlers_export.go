package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"finsync/internal/core"
	"finsync/internal/export"
	"finsync/internal/http/respond"
	"finsync/internal/storage"
)

// exportSet loads the date-filtered transactions for a download, newest first.
func (s *Server) exportSet(w http.ResponseWriter, r *http.Request) ([]core.Transaction, bool) {
	from, err := queryDate(r, "startDate")
	if err != nil {
		respond.Validation(w, map[string]string{"startDate": err.Error()})
		return nil, false
	}
	to, err := queryDate(r, "endDate")
	if err != nil {
		respond.Validation(w, map[string]string{"endDate": err.Error()})
		return nil, false
	}

	txs, _, err := s.transactions.List(r.Context(), currentUser(r).ID, storage.TransactionFilter{
		From:  from,
		To:    to,
		Limit: 10000,
	})
	if err != nil {
		s.failure(w, r, err)
		return nil, false
	}
	return txs, true
}

func exportFilename(ext string) string {
	return fmt.Sprintf("transactions-%s.%s", time.Now().UTC().Format("2006-01-02"), ext)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	txs, ok := s.exportSet(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename("csv")+`"`)
	if err := export.WriteCSV(w, txs); err != nil {
		slog.ErrorContext(r.Context(), "CSV export failed", "error", err)
	}
}

func (s *Server) handleExportExcel(w http.ResponseWriter, r *http.Request) {
	txs, ok := s.exportSet(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename("xlsx")+`"`)
	if err := export.WriteExcel(w, txs); err != nil {
		slog.ErrorContext(r.Context(), "Excel export failed", "error", err)
	}
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	txs, ok := s.exportSet(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename("pdf")+`"`)
	if err := export.WritePDF(w, currentUser(r), txs); err != nil {
		slog.ErrorContext(r.Context(), "PDF export failed", "error", err)
	}
}
