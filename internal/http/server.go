// Package http exposes the REST and websocket API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finsync/internal/auth"
	"finsync/internal/realtime"
	"finsync/internal/services"
	"finsync/internal/storage"
)

// Services bundles the application services the API dispatches to.
type Services struct {
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Goals        *services.GoalService
	Investments  *services.InvestmentService
	Analytics    *services.AnalyticsService
	Users        *services.UserService
	Admin        *services.AdminService
}

type Server struct {
	http.Server

	repo   *storage.Repository
	tokens *auth.TokenManager
	hub    *realtime.Hub

	transactions *services.TransactionService
	budgets      *services.BudgetService
	goals        *services.GoalService
	investments  *services.InvestmentService
	analytics    *services.AnalyticsService
	users        *services.UserService
	admin        *services.AdminService

	rateLimiter    *rateLimiter
	metrics        *securityMetrics
	allowedOrigins []string
	trendMonths    int

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, repo *storage.Repository, tokens *auth.TokenManager, hub *realtime.Hub, svcs Services, allowedOrigins []string, trendMonths int) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		repo:           repo,
		tokens:         tokens,
		hub:            hub,
		transactions:   svcs.Transactions,
		budgets:        svcs.Budgets,
		goals:          svcs.Goals,
		investments:    svcs.Investments,
		analytics:      svcs.Analytics,
		users:          svcs.Users,
		admin:          svcs.Admin,
		rateLimiter:    newRateLimiter(),
		metrics:        &securityMetrics{},
		allowedOrigins: allowedOrigins,
		trendMonths:    trendMonths,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.withAuth(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withAuth(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.withAuth(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withAuth(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withAuth(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/budgets", s.withAuth(s.handleListBudgets))
	mux.HandleFunc("POST /api/budgets", s.withAuth(s.handleUpsertBudget))
	mux.HandleFunc("GET /api/budgets/{id}", s.withAuth(s.handleGetBudget))
	mux.HandleFunc("PUT /api/budgets/{id}", s.withAuth(s.handleUpdateBudgetLimit))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.withAuth(s.handleDeleteBudget))

	mux.HandleFunc("GET /api/goals", s.withAuth(s.handleListGoals))
	mux.HandleFunc("POST /api/goals", s.withAuth(s.handleCreateGoal))
	mux.HandleFunc("GET /api/goals/{id}", s.withAuth(s.handleGetGoal))
	mux.HandleFunc("PUT /api/goals/{id}", s.withAuth(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /api/goals/{id}", s.withAuth(s.handleDeleteGoal))

	mux.HandleFunc("GET /api/investments", s.withAuth(s.handleListInvestments))
	mux.HandleFunc("POST /api/investments", s.withAuth(s.handleCreateInvestment))
	mux.HandleFunc("GET /api/investments/{id}", s.withAuth(s.handleGetInvestment))
	mux.HandleFunc("PUT /api/investments/{id}", s.withAuth(s.handleUpdateInvestment))
	mux.HandleFunc("DELETE /api/investments/{id}", s.withAuth(s.handleDeleteInvestment))

	mux.HandleFunc("GET /api/analytics/income-vs-expenses", s.withAuth(s.handleIncomeVsExpenses))
	mux.HandleFunc("GET /api/analytics/spending-by-category", s.withAuth(s.handleSpendingByCategory))
	mux.HandleFunc("GET /api/analytics/monthly-trends", s.withAuth(s.handleMonthlyTrends))
	mux.HandleFunc("GET /api/analytics/dashboard", s.withAuth(s.handleDashboard))

	mux.HandleFunc("POST /api/ocr/scan", s.withAuth(s.handleOCRScan))
	mux.HandleFunc("POST /api/ocr/import", s.withAuth(s.handleOCRImport))

	mux.HandleFunc("GET /api/export/csv", s.withAuth(s.handleExportCSV))
	mux.HandleFunc("GET /api/export/excel", s.withAuth(s.handleExportExcel))
	mux.HandleFunc("GET /api/export/pdf", s.withAuth(s.handleExportPDF))

	mux.HandleFunc("GET /api/profile", s.withAuth(s.handleGetProfile))
	mux.HandleFunc("PUT /api/profile", s.withAuth(s.handleUpdateProfile))
	mux.HandleFunc("GET /api/profile/stats", s.withAuth(s.handleProfileStats))
	mux.HandleFunc("POST /api/profile/reset", s.withAuth(s.handleProfileReset))

	mux.HandleFunc("POST /api/ai/categorize", s.withAuth(s.handleCategorize))

	mux.HandleFunc("GET /api/admin/users", s.withAdmin(s.handleAdminListUsers))
	mux.HandleFunc("GET /api/admin/fraud-alerts", s.withAdmin(s.handleAdminListFraudAlerts))
	mux.HandleFunc("PUT /api/admin/fraud-alerts/{id}", s.withAdmin(s.handleAdminReviewFraudAlert))
	mux.HandleFunc("GET /api/admin/stats", s.withAdmin(s.handleAdminStats))

	mux.HandleFunc("GET /api/realtime", s.withAuth(s.handleRealtime))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports readiness; it fails when the database is unreachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.repo.Ping(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("database unreachable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
