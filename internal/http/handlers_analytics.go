package http

import (
	"net/http"
	"time"

	"finsync/internal/http/respond"
)

func (s *Server) handleIncomeVsExpenses(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		respond.Validation(w, map[string]string{"date": err.Error()})
		return
	}

	result, err := s.analytics.IncomeVsExpenses(r.Context(), currentUser(r).ID, from, to)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "income vs expenses retrieved", result)
}

func (s *Server) handleSpendingByCategory(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		respond.Validation(w, map[string]string{"date": err.Error()})
		return
	}

	breakdown, err := s.analytics.SpendingByCategory(r.Context(), currentUser(r).ID, from, to)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "spending by category retrieved", breakdown)
}

func (s *Server) handleMonthlyTrends(w http.ResponseWriter, r *http.Request) {
	months := queryInt(r, "months")
	if months <= 0 {
		months = s.trendMonths
	}

	trends, err := s.analytics.MonthlyTrends(r.Context(), currentUser(r).ID, months, time.Now().UTC())
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "monthly trends retrieved", trends)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := s.analytics.Dashboard(r.Context(), currentUser(r).ID, time.Now().UTC())
	if err != nil {
		s.failure(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "dashboard retrieved", summary)
}
