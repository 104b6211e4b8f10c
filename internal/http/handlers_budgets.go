package http

import (
	"net/http"

	"finsync/internal/core"
	"finsync/internal/http/respond"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.budgets.List(r.Context(), currentUser(r).ID, queryInt(r, "month"), queryInt(r, "year"))
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "budgets retrieved", budgets)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.budgets.Get(r.Context(), currentUser(r).ID, r.PathValue("id"))
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "budget retrieved", b)
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	var b core.Budget
	if err := decodeJSON(w, r, &b); err != nil {
		respond.Validation(w, map[string]string{"body": "malformed JSON body"})
		return
	}
	b.ID = ""
	b.OwnerID = currentUser(r).ID

	saved, err := s.budgets.Upsert(r.Context(), b)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "budget saved", saved)
}

func (s *Server) handleUpdateBudgetLimit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MonthlyLimit float64 `json:"monthlyLimit"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		respond.Validation(w, map[string]string{"body": "malformed JSON body"})
		return
	}

	saved, err := s.budgets.UpdateLimit(r.Context(), currentUser(r).ID, r.PathValue("id"), body.MonthlyLimit)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "budget updated", saved)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.budgets.Delete(r.Context(), currentUser(r).ID, r.PathValue("id")); err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "budget deleted", nil)
}
