package http

import (
	"net/http"

	"finsync/internal/core"
	"finsync/internal/http/respond"
)

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	status := core.GoalStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		respond.Validation(w, map[string]string{"status": "must be active, paused or completed"})
		return
	}

	goals, err := s.goals.List(r.Context(), currentUser(r).ID, status)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "goals retrieved", goals)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.goals.Get(r.Context(), currentUser(r).ID, r.PathValue("id"))
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "goal retrieved", g)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var g core.Goal
	if err := decodeJSON(w, r, &g); err != nil {
		respond.Validation(w, map[string]string{"body": "malformed JSON body"})
		return
	}
	g.ID = ""
	g.OwnerID = currentUser(r).ID

	saved, err := s.goals.Create(r.Context(), g)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "goal created", saved)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var g core.Goal
	if err := decodeJSON(w, r, &g); err != nil {
		respond.Validation(w, map[string]string{"body": "malformed JSON body"})
		return
	}
	g.ID = r.PathValue("id")
	g.OwnerID = currentUser(r).ID

	saved, err := s.goals.Update(r.Context(), g)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "goal updated", saved)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.goals.Delete(r.Context(), currentUser(r).ID, r.PathValue("id")); err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "goal deleted", nil)
}
