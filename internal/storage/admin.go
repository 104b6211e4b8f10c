package storage

import (
	"context"
	"fmt"
)

// SystemStats is the admin-facing snapshot of the whole store.
type SystemStats struct {
	Users         int     `json:"users"`
	Transactions  int     `json:"transactions"`
	Budgets       int     `json:"budgets"`
	Goals         int     `json:"goals"`
	Investments   int     `json:"investments"`
	PendingAlerts int     `json:"pendingAlerts"`
	TotalIncome   float64 `json:"totalIncome"`
	TotalExpenses float64 `json:"totalExpenses"`
}

// GetSystemStats gathers system-wide counts and totals in one round trip.
func (r *Repository) GetSystemStats(ctx context.Context) (SystemStats, error) {
	var s SystemStats
	err := r.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM transactions),
		(SELECT COUNT(*) FROM budgets),
		(SELECT COUNT(*) FROM goals),
		(SELECT COUNT(*) FROM investments),
		(SELECT COUNT(*) FROM fraud_alerts WHERE status = 'pending'),
		(SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE kind = 'income'),
		(SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE kind = 'expense')`).
		Scan(&s.Users, &s.Transactions, &s.Budgets, &s.Goals, &s.Investments,
			&s.PendingAlerts, &s.TotalIncome, &s.TotalExpenses)
	if err != nil {
		return SystemStats{}, fmt.Errorf("system stats: %w", err)
	}
	return s, nil
}
