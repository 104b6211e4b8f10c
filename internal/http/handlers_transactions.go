package http

import (
	"net/http"

	"finsync/internal/core"
	"finsync/internal/http/respond"
	"finsync/internal/storage"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "startDate")
	if err != nil {
		respond.Validation(w, map[string]string{"startDate": err.Error()})
		return
	}
	to, err := queryDate(r, "endDate")
	if err != nil {
		respond.Validation(w, map[string]string{"endDate": err.Error()})
		return
	}

	filter := storage.TransactionFilter{
		Kind:     core.TransactionKind(r.URL.Query().Get("type")),
		Category: r.URL.Query().Get("category"),
		From:     from,
		To:       to,
		Search:   r.URL.Query().Get("search"),
		Page:     queryInt(r, "page"),
		Limit:    queryInt(r, "limit"),
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		respond.Validation(w, map[string]string{"type": "must be income or expense"})
		return
	}

	txs, total, err := s.transactions.List(r.Context(), currentUser(r).ID, filter)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "transactions retrieved", map[string]any{
		"transactions": txs,
		"total":        total,
	})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.transactions.Get(r.Context(), currentUser(r).ID, r.PathValue("id"))
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "transaction retrieved", t)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var t core.Transaction
	if err := decodeJSON(w, r, &t); err != nil {
		respond.Validation(w, map[string]string{"body": "malformed JSON body"})
		return
	}
	t.ID = ""
	t.OwnerID = currentUser(r).ID
	t.Imported = false

	saved, err := s.transactions.Create(r.Context(), t)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "transaction created", saved)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var t core.Transaction
	if err := decodeJSON(w, r, &t); err != nil {
		respond.Validation(w, map[string]string{"body": "malformed JSON body"})
		return
	}
	t.ID = r.PathValue("id")
	t.OwnerID = currentUser(r).ID

	saved, err := s.transactions.Update(r.Context(), t)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "transaction updated", saved)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.transactions.Delete(r.Context(), currentUser(r).ID, r.PathValue("id")); err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "transaction deleted", nil)
}
