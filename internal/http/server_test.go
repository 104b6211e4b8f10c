package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finsync/internal/auth"
	"finsync/internal/core"
	"finsync/internal/realtime"
	"finsync/internal/services"
	"finsync/internal/storage"
)

type testAPI struct {
	server *Server
	tokens *auth.TokenManager
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	repo, err := storage.NewRepository(t.TempDir() + "/api_test.db")
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	hub := realtime.NewHub()
	tokens := auth.NewTokenManager("test-secret", "finsync", time.Hour)

	svcs := Services{
		Transactions: services.NewTransactionService(repo, nil, hub, nil),
		Budgets:      services.NewBudgetService(repo, hub),
		Goals:        services.NewGoalService(repo, hub),
		Investments:  services.NewInvestmentService(repo, hub),
		Analytics:    services.NewAnalyticsService(repo),
		Users:        services.NewUserService(repo, hub),
		Admin:        services.NewAdminService(repo),
	}

	s := NewServer(":0", repo, tokens, hub, svcs, []string{"*"}, 6)
	t.Cleanup(func() { s.rateLimiter.stop() })

	return &testAPI{server: s, tokens: tokens}
}

func (api *testAPI) token(t *testing.T, subject string, role core.Role) string {
	t.Helper()
	token, err := api.tokens.Generate(auth.Identity{
		Subject: subject,
		Email:   subject + "@example.com",
		Name:    "Test User",
		Role:    role,
	})
	if err != nil {
		t.Fatalf("Generate token: %v", err)
	}
	return token
}

func (api *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	api.server.Handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestAuthRequired(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/transactions", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	env := decodeEnvelope(t, rec)
	require.Equal(t, http.StatusUnauthorized, env.Code)
	require.Contains(t, env.Message, "bearer token")
}

func TestInvalidTokenRejected(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/transactions", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTransactionLifecycle(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, "auth0|user1", core.RoleUser)

	rec := api.do(t, http.MethodPost, "/api/transactions", token, map[string]any{
		"type":        "expense",
		"amount":      450.0,
		"category":    "Food",
		"description": "Lunch",
		"date":        "2026-08-10T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created core.Transaction
	env := decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotEmpty(t, created.ID)
	require.Equal(t, core.Expense, created.Kind)
	require.Equal(t, "UPI", created.PaymentMethod)

	rec = api.do(t, http.MethodGet, "/api/transactions/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/transactions?category=Food", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env = decodeEnvelope(t, rec)
	var listing struct {
		Transactions []core.Transaction `json:"transactions"`
		Total        int                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listing))
	require.Equal(t, 1, listing.Total)

	rec = api.do(t, http.MethodPut, "/api/transactions/"+created.ID, token, map[string]any{
		"type":        "expense",
		"amount":      500.0,
		"category":    "Travel",
		"description": "Cab ride",
		"date":        "2026-08-10T00:00:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodDelete, "/api/transactions/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/transactions/"+created.ID, token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOwnerScoping(t *testing.T) {
	api := newTestAPI(t)
	alice := api.token(t, "auth0|alice", core.RoleUser)
	bob := api.token(t, "auth0|bob", core.RoleUser)

	rec := api.do(t, http.MethodPost, "/api/transactions", alice, map[string]any{
		"type":     "expense",
		"amount":   100.0,
		"category": "Food",
		"date":     "2026-08-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created core.Transaction
	env := decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &created))

	rec = api.do(t, http.MethodGet, "/api/transactions/"+created.ID, bob, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidationErrorsAreFieldKeyed(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, "auth0|user1", core.RoleUser)

	rec := api.do(t, http.MethodPost, "/api/transactions", token, map[string]any{
		"type":     "expense",
		"amount":   10.0,
		"category": "NotACategory",
		"date":     "2026-08-01T00:00:00Z",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	env := decodeEnvelope(t, rec)
	var data struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Contains(t, data.Errors, "category")
}

func TestBudgetEndpoints(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, "auth0|user1", core.RoleUser)

	rec := api.do(t, http.MethodPost, "/api/budgets", token, map[string]any{
		"category":     "Food",
		"monthlyLimit": 5000.0,
		"month":        8,
		"year":         2026,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var budget core.Budget
	env := decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &budget))
	require.Equal(t, 5000.0, budget.MonthlyLimit)

	rec = api.do(t, http.MethodPut, "/api/budgets/"+budget.ID, token, map[string]any{
		"monthlyLimit": 6000.0,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/budgets?month=8&year=2026", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env = decodeEnvelope(t, rec)
	var budgets []core.Budget
	require.NoError(t, json.Unmarshal(env.Data, &budgets))
	require.Len(t, budgets, 1)
	require.Equal(t, 6000.0, budgets[0].MonthlyLimit)
}

func TestAdminGate(t *testing.T) {
	api := newTestAPI(t)
	user := api.token(t, "auth0|user1", core.RoleUser)
	admin := api.token(t, "auth0|admin1", core.RoleAdmin)

	rec := api.do(t, http.MethodGet, "/api/admin/stats", user, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestFraudAlertReviewFlow(t *testing.T) {
	api := newTestAPI(t)
	user := api.token(t, "auth0|user1", core.RoleUser)
	admin := api.token(t, "auth0|admin1", core.RoleAdmin)

	rec := api.do(t, http.MethodPost, "/api/transactions", user, map[string]any{
		"type":        "expense",
		"amount":      25000.0,
		"category":    "Shopping",
		"description": "Television",
		"date":        "2026-08-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/admin/fraud-alerts?status=pending", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var alerts []core.FraudAlert
	env := decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &alerts))
	require.Len(t, alerts, 1)
	require.Equal(t, core.SeverityMedium, alerts[0].Severity)

	rec = api.do(t, http.MethodPut, "/api/admin/fraud-alerts/"+alerts[0].ID, admin, map[string]any{
		"status": "resolved",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var reviewed core.FraudAlert
	env = decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &reviewed))
	require.Equal(t, core.AlertResolved, reviewed.Status)
	require.NotEmpty(t, reviewed.ReviewedBy)
}

func TestCategorizeEndpoint(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, "auth0|user1", core.RoleUser)

	cases := []struct {
		description string
		want        string
	}{
		{"Swiggy order", "Food Delivery"},
		{"Uber to airport", "Travel"},
		{"Something unrecognizable", "Other"},
	}
	for _, tc := range cases {
		rec := api.do(t, http.MethodPost, "/api/ai/categorize", token, map[string]any{
			"description": tc.description,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var data struct {
			Category string `json:"category"`
		}
		env := decodeEnvelope(t, rec)
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.Equal(t, tc.want, data.Category, "description %q", tc.description)
	}
}

func TestExportCSV(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, "auth0|user1", core.RoleUser)

	rec := api.do(t, http.MethodPost, "/api/transactions", token, map[string]any{
		"type":        "expense",
		"amount":      120.0,
		"category":    "Food",
		"description": "Groceries",
		"date":        "2026-08-05T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/export/csv?startDate=2026-08-01&endDate=2026-09-01", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	require.Contains(t, rec.Body.String(), "Groceries")
}

func TestOCRScanAndImport(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, "auth0|user1", core.RoleUser)

	var buf bytes.Buffer
	boundary := "testboundary"
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Disposition: form-data; name=\"file\"; filename=\"receipt.txt\"\r\n")
	fmt.Fprintf(&buf, "Content-Type: text/plain\r\n\r\n")
	fmt.Fprintf(&buf, "Pizza Palace 12/08/2026 Rs. 1,249.50\r\n")
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	req := httptest.NewRequest(http.MethodPost, "/api/ocr/scan", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	rec := httptest.NewRecorder()
	api.server.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Candidates []struct {
			Amount float64 `json:"amount"`
		} `json:"candidates"`
	}
	env := decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.Len(t, result.Candidates, 1)
	require.Equal(t, 1249.50, result.Candidates[0].Amount)

	importRec := api.do(t, http.MethodPost, "/api/ocr/import", token, map[string]any{
		"transactions": []map[string]any{{
			"type":        "expense",
			"amount":      1249.50,
			"category":    "Food",
			"description": "Pizza Palace",
			"date":        "2026-08-12T00:00:00Z",
		}},
	})
	require.Equal(t, http.StatusCreated, importRec.Code)

	listRec := api.do(t, http.MethodGet, "/api/transactions?startDate=2026-08-01&endDate=2026-09-01", token, nil)
	env = decodeEnvelope(t, listRec)
	var listing struct {
		Transactions []core.Transaction `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listing))
	require.Len(t, listing.Transactions, 1)
	require.True(t, listing.Transactions[0].Imported)
}

func TestProfileEndpoints(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, "auth0|user1", core.RoleUser)

	rec := api.do(t, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var user core.User
	env := decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &user))
	require.Equal(t, "INR", user.Prefs.Currency)

	rec = api.do(t, http.MethodPut, "/api/profile", token, map[string]any{
		"name": "Renamed",
		"preferences": map[string]any{
			"currency":     "EUR",
			"theme":        "dark",
			"budgetAlerts": true,
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	env = decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &user))
	require.Equal(t, "EUR", user.Prefs.Currency)

	rec = api.do(t, http.MethodPut, "/api/profile", token, map[string]any{
		"preferences": map[string]any{"currency": "XYZ"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileReset(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, "auth0|user1", core.RoleUser)

	rec := api.do(t, http.MethodPost, "/api/transactions", token, map[string]any{
		"type":     "expense",
		"amount":   10.0,
		"category": "Food",
		"date":     "2026-08-01T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/profile/reset", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/profile/stats", token, nil)
	env := decodeEnvelope(t, rec)
	var counts storage.OwnerCounts
	require.NoError(t, json.Unmarshal(env.Data, &counts))
	require.Equal(t, 0, counts.Total)
}

func TestAnalyticsDashboard(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, "auth0|user1", core.RoleUser)

	rec := api.do(t, http.MethodGet, "/api/analytics/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	var summary struct {
		BudgetPercentage   float64           `json:"budgetPercentage"`
		RecentTransactions []json.RawMessage `json:"recentTransactions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	require.Equal(t, 0.0, summary.BudgetPercentage)
	require.NotNil(t, summary.RecentTransactions)
}

func TestIncomeVsExpensesFullHistory(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, "auth0|user1", core.RoleUser)

	for _, body := range []map[string]any{
		{"type": "income", "amount": 1000, "category": "Salary", "description": "july pay",
			"date": "2026-07-01T00:00:00Z"},
		{"type": "income", "amount": 200, "category": "Freelance", "description": "august gig",
			"date": "2026-08-10T00:00:00Z"},
	} {
		rec := api.do(t, http.MethodPost, "/api/transactions", token, body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	// Without date parameters the totals span every month on record.
	rec := api.do(t, http.MethodGet, "/api/analytics/income-vs-expenses", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	var result struct {
		Income float64 `json:"income"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.Equal(t, 1200.0, result.Income)

	rec = api.do(t, http.MethodGet,
		"/api/analytics/income-vs-expenses?startDate=2026-08-01", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env = decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.Equal(t, 200.0, result.Income)
}

func TestHealthEndpoints(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ready", rec.Body.String())
}

func TestRateLimitOnMutations(t *testing.T) {
	api := newTestAPI(t)
	token := api.token(t, "auth0|user1", core.RoleUser)

	var last int
	for i := 0; i < 61; i++ {
		rec := api.do(t, http.MethodPost, "/api/ai/categorize", token, map[string]any{
			"description": "pizza",
		})
		last = rec.Code
	}
	require.Equal(t, http.StatusTooManyRequests, last)

	// Reads are not rate limited.
	rec := api.do(t, http.MethodGet, "/api/transactions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDBUnavailableOnlyForConnectivityErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"locked", errors.New("list transactions: database is locked (5)"), true},
		{"unopenable", errors.New("open repository: unable to open database file"), true},
		{"missing table is a schema bug", errors.New("no such table: transactions"), false},
		{"plain failure", errors.New("constraint failed"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, dbUnavailable(tc.err))
		})
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		realIP     string
		want       string
	}{
		{"direct connection", "203.0.113.9:41000", "", "", "203.0.113.9"},
		{"trusted proxy honors forwarded", "127.0.0.1:41000", "203.0.113.9", "", "203.0.113.9"},
		{"trusted proxy honors real ip", "10.0.0.5:41000", "", "203.0.113.9", "203.0.113.9"},
		{"untrusted peer ignores forwarded", "203.0.113.20:41000", "198.51.100.7", "", "203.0.113.20"},
		{"garbage forwarded falls back", "127.0.0.1:41000", "not-an-ip", "", "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", strings.NewReader(""))
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := extractClientIP(req); got != tt.want {
				t.Errorf("extractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name   string
		target string
		method string
		want   bool
	}{
		{"clean request", "/api/transactions", http.MethodGet, false},
		{"path traversal", "/api/../../../etc/passwd", http.MethodGet, true},
		{"dotfile probe in query", "/api/transactions?file=.env", http.MethodGet, true},
		{"unusual method", "/api/transactions", "TRACE", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := &securityMetrics{}
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(""))
			if got := detectSuspiciousRequest(req, metrics); got != tt.want {
				t.Errorf("detectSuspiciousRequest() = %v, want %v", got, tt.want)
			}
		})
	}
}
