package storage

import (
	"context"
	"fmt"
	"time"

	"finsync/internal/core"
)

// KindTotals is the income/expense split over a date window.
type KindTotals struct {
	Income  float64
	Expense float64
}

// CategorySpend is one category's expense total within a window.
type CategorySpend struct {
	Category string
	Total    float64
}

// BudgetTotals aggregates all of an owner's budgets for one month.
type BudgetTotals struct {
	Limit float64
	Spent float64
}

// dateBounds appends date predicates for whichever bounds are set. Zero
// bounds mean unbounded, so an unfiltered call aggregates full history.
func dateBounds(query string, args []any, from, to time.Time) (string, []any) {
	if !from.IsZero() {
		query += ` AND date >= ?`
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		query += ` AND date < ?`
		args = append(args, to.UTC())
	}
	return query, args
}

// KindTotalsBetween sums income and expense amounts in [from, to); zero
// bounds are open-ended.
func (r *Repository) KindTotalsBetween(ctx context.Context, ownerID string, from, to time.Time) (KindTotals, error) {
	query := `SELECT
		COALESCE(SUM(CASE WHEN kind = 'income' THEN amount ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN kind = 'expense' THEN amount ELSE 0 END), 0)
		FROM transactions WHERE owner_id = ?`
	args := []any{ownerID}
	query, args = dateBounds(query, args, from, to)

	var t KindTotals
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&t.Income, &t.Expense); err != nil {
		return KindTotals{}, fmt.Errorf("kind totals: %w", err)
	}
	return t, nil
}

// SpendingByCategory totals expenses per category in [from, to), largest
// first; zero bounds are open-ended.
func (r *Repository) SpendingByCategory(ctx context.Context, ownerID string, from, to time.Time) ([]CategorySpend, error) {
	query := `SELECT category, SUM(amount)
		FROM transactions
		WHERE owner_id = ? AND kind = 'expense'`
	args := []any{ownerID}
	query, args = dateBounds(query, args, from, to)
	query += ` GROUP BY category ORDER BY SUM(amount) DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("spending by category: %w", err)
	}
	defer rows.Close()

	var spends []CategorySpend
	for rows.Next() {
		var s CategorySpend
		if err := rows.Scan(&s.Category, &s.Total); err != nil {
			return nil, fmt.Errorf("scan category spend: %w", err)
		}
		spends = append(spends, s)
	}
	return spends, rows.Err()
}

// RecentTransactions returns the owner's latest transactions by date.
func (r *Repository) RecentTransactions(ctx context.Context, ownerID string, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE owner_id = ? ORDER BY date DESC LIMIT ?`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// BudgetTotalsFor sums limits and running totals across an owner's budgets
// for one month.
func (r *Repository) BudgetTotalsFor(ctx context.Context, ownerID string, month, year int) (BudgetTotals, error) {
	var t BudgetTotals
	err := r.db.QueryRowContext(ctx, `SELECT
		COALESCE(SUM(monthly_limit), 0), COALESCE(SUM(current_spent), 0)
		FROM budgets WHERE owner_id = ? AND month = ? AND year = ?`,
		ownerID, month, year).Scan(&t.Limit, &t.Spent)
	if err != nil {
		return BudgetTotals{}, fmt.Errorf("budget totals: %w", err)
	}
	return t, nil
}
