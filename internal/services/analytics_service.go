package services

import (
	"context"
	"fmt"
	"time"

	"finsync/internal/core"
	"finsync/internal/storage"
)

// AnalyticsService computes reporting aggregates straight from SQL on every
// request.
type AnalyticsService struct {
	storage *storage.Repository
}

func NewAnalyticsService(st *storage.Repository) *AnalyticsService {
	return &AnalyticsService{storage: st}
}

// IncomeVsExpenses is the income/expense/savings split over a window.
type IncomeVsExpenses struct {
	Income         float64 `json:"income"`
	Expenses       float64 `json:"expenses"`
	Savings        float64 `json:"savings"`
	ExpensePercent float64 `json:"expensePercentage"`
}

// CategoryBreakdown is one category's share of total expenses.
type CategoryBreakdown struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Percent  float64 `json:"percentage"`
}

// MonthTrend is one month's totals in a trailing trend.
type MonthTrend struct {
	Month    string  `json:"month"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Savings  float64 `json:"savings"`
}

// DashboardSummary is the landing-page snapshot for the current month.
type DashboardSummary struct {
	Income             float64            `json:"income"`
	Expenses           float64            `json:"expenses"`
	Savings            float64            `json:"savings"`
	BudgetLimit        float64            `json:"budgetLimit"`
	BudgetSpent        float64            `json:"budgetSpent"`
	BudgetPercentage   float64            `json:"budgetPercentage"`
	RecentTransactions []core.Transaction `json:"recentTransactions"`
}

func (s *AnalyticsService) IncomeVsExpenses(ctx context.Context, ownerID string, from, to time.Time) (IncomeVsExpenses, error) {
	totals, err := s.storage.KindTotalsBetween(ctx, ownerID, from, to)
	if err != nil {
		return IncomeVsExpenses{}, err
	}

	result := IncomeVsExpenses{
		Income:   totals.Income,
		Expenses: totals.Expense,
		Savings:  totals.Income - totals.Expense,
	}
	if totals.Income > 0 {
		result.ExpensePercent = totals.Expense / totals.Income * 100
	}
	return result, nil
}

// SpendingByCategory returns per-category expense totals, largest first,
// each with its share of the total spend.
func (s *AnalyticsService) SpendingByCategory(ctx context.Context, ownerID string, from, to time.Time) ([]CategoryBreakdown, error) {
	spends, err := s.storage.SpendingByCategory(ctx, ownerID, from, to)
	if err != nil {
		return nil, err
	}

	var total float64
	for _, sp := range spends {
		total += sp.Total
	}

	breakdown := make([]CategoryBreakdown, 0, len(spends))
	for _, sp := range spends {
		b := CategoryBreakdown{Category: sp.Category, Total: sp.Total}
		if total > 0 {
			b.Percent = sp.Total / total * 100
		}
		breakdown = append(breakdown, b)
	}
	return breakdown, nil
}

// MonthlyTrends returns totals for the trailing months window, oldest first,
// including the current month.
func (s *AnalyticsService) MonthlyTrends(ctx context.Context, ownerID string, months int, now time.Time) ([]MonthTrend, error) {
	if months <= 0 {
		months = 6
	}

	trends := make([]MonthTrend, 0, months)
	for i := months - 1; i >= 0; i-- {
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)

		totals, err := s.storage.KindTotalsBetween(ctx, ownerID, start, end)
		if err != nil {
			return nil, fmt.Errorf("trend for %s: %w", start.Format("2006-01"), err)
		}
		trends = append(trends, MonthTrend{
			Month:    start.Format("2006-01"),
			Income:   totals.Income,
			Expenses: totals.Expense,
			Savings:  totals.Income - totals.Expense,
		})
	}
	return trends, nil
}

// Dashboard assembles the current-month snapshot. The budget percentage is
// zero when no budgets exist rather than dividing by zero.
func (s *AnalyticsService) Dashboard(ctx context.Context, ownerID string, now time.Time) (DashboardSummary, error) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	totals, err := s.storage.KindTotalsBetween(ctx, ownerID, start, end)
	if err != nil {
		return DashboardSummary{}, err
	}

	budgets, err := s.storage.BudgetTotalsFor(ctx, ownerID, int(now.Month()), now.Year())
	if err != nil {
		return DashboardSummary{}, err
	}

	recent, err := s.storage.RecentTransactions(ctx, ownerID, 5)
	if err != nil {
		return DashboardSummary{}, err
	}
	if recent == nil {
		recent = []core.Transaction{}
	}

	summary := DashboardSummary{
		Income:             totals.Income,
		Expenses:           totals.Expense,
		Savings:            totals.Income - totals.Expense,
		BudgetLimit:        budgets.Limit,
		BudgetSpent:        budgets.Spent,
		RecentTransactions: recent,
	}
	if budgets.Limit > 0 {
		summary.BudgetPercentage = budgets.Spent / budgets.Limit * 100
	}
	return summary, nil
}
