package http

import (
	"net/http"

	"finsync/internal/core"
	"finsync/internal/http/respond"
)

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.admin.ListUsers(r.Context())
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "users retrieved", users)
}

func (s *Server) handleAdminListFraudAlerts(w http.ResponseWriter, r *http.Request) {
	status := core.AlertStatus(r.URL.Query().Get("status"))
	alerts, err := s.admin.ListFraudAlerts(r.Context(), status)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "fraud alerts retrieved", alerts)
}

func (s *Server) handleAdminReviewFraudAlert(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status core.AlertStatus `json:"status"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		respond.Validation(w, map[string]string{"body": "malformed JSON body"})
		return
	}

	alert, err := s.admin.ReviewFraudAlert(r.Context(), r.PathValue("id"), body.Status, currentUser(r).ID)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "fraud alert reviewed", alert)
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.admin.Stats(r.Context())
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "system stats retrieved", stats)
}
