package http

import (
	"net/http"
	"strings"

	"finsync/internal/core"
	"finsync/internal/http/respond"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, "profile retrieved", currentUser(r))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string           `json:"name"`
		Preferences core.Preferences `json:"preferences"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		respond.Validation(w, map[string]string{"body": "malformed JSON body"})
		return
	}

	updated, err := s.users.UpdateProfile(r.Context(), currentUser(r).ID, body.Name, body.Preferences)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "profile updated", updated)
}

func (s *Server) handleProfileStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.users.Stats(r.Context(), currentUser(r).ID)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "stats retrieved", counts)
}

// handleProfileReset wipes all financial records owned by the caller.
func (s *Server) handleProfileReset(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Reset(r.Context(), currentUser(r).ID); err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "data reset completed", nil)
}

// handleCategorize suggests a category from a free-text description.
func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Description string `json:"description"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		respond.Validation(w, map[string]string{"body": "malformed JSON body"})
		return
	}
	if strings.TrimSpace(body.Description) == "" {
		respond.Validation(w, map[string]string{"description": "description cannot be empty"})
		return
	}

	respond.JSON(w, http.StatusOK, "category suggested", map[string]string{
		"category": core.CategorizeDescription(body.Description),
	})
}
