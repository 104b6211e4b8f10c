package http

import (
	"net/http"

	"finsync/internal/core"
	"finsync/internal/http/respond"
)

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	invType := r.URL.Query().Get("type")
	if invType != "" && !core.ValidInvestmentType(invType) {
		respond.Validation(w, map[string]string{"type": "unknown investment type"})
		return
	}

	portfolio, err := s.investments.List(r.Context(), currentUser(r).ID, invType)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "portfolio retrieved", portfolio)
}

func (s *Server) handleGetInvestment(w http.ResponseWriter, r *http.Request) {
	inv, err := s.investments.Get(r.Context(), currentUser(r).ID, r.PathValue("id"))
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "investment retrieved", inv)
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var inv core.Investment
	if err := decodeJSON(w, r, &inv); err != nil {
		respond.Validation(w, map[string]string{"body": "malformed JSON body"})
		return
	}
	inv.ID = ""
	inv.OwnerID = currentUser(r).ID

	saved, err := s.investments.Create(r.Context(), inv)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "investment created", saved)
}

func (s *Server) handleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	var inv core.Investment
	if err := decodeJSON(w, r, &inv); err != nil {
		respond.Validation(w, map[string]string{"body": "malformed JSON body"})
		return
	}
	inv.ID = r.PathValue("id")
	inv.OwnerID = currentUser(r).ID

	saved, err := s.investments.Update(r.Context(), inv)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "investment updated", saved)
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	if err := s.investments.Delete(r.Context(), currentUser(r).ID, r.PathValue("id")); err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "investment deleted", nil)
}
