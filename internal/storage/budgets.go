package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"finsync/internal/core"
)

const budgetColumns = `id, owner_id, category, monthly_limit, current_spent,
	month, year, threshold80, threshold100, created_at, updated_at`

func scanBudget(row interface{ Scan(...any) error }) (core.Budget, error) {
	var b core.Budget
	err := row.Scan(&b.ID, &b.OwnerID, &b.Category, &b.MonthlyLimit, &b.CurrentSpent,
		&b.Month, &b.Year, &b.Threshold80, &b.Threshold100, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	return b, nil
}

// SumExpenses totals expense transactions for one owner, category and month.
// Recreating a budget seeds its running total from this.
func (r *Repository) SumExpenses(ctx context.Context, ownerID, category string, month, year int) (float64, error) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	var total float64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE owner_id = ? AND kind = 'expense' AND category = ? AND date >= ? AND date < ?`,
		ownerID, category, from, to).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

// UpsertBudget creates a budget or, when one already exists for the same
// (owner, category, month, year) window, replaces its limit. The running
// total is recomputed from transaction history. Threshold flags are sticky
// for the period, so an existing row keeps them.
func (r *Repository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	spent, err := r.SumExpenses(ctx, b.OwnerID, b.Category, b.Month, b.Year)
	if err != nil {
		return core.Budget{}, err
	}

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	row := r.db.QueryRowContext(ctx, `INSERT INTO budgets
		(id, owner_id, category, monthly_limit, current_spent, month, year, threshold80, threshold100, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)
		ON CONFLICT (owner_id, category, month, year) DO UPDATE SET
			monthly_limit = excluded.monthly_limit,
			current_spent = excluded.current_spent,
			updated_at = excluded.updated_at
		RETURNING `+budgetColumns,
		b.ID, b.OwnerID, b.Category, b.MonthlyLimit, spent, b.Month, b.Year, now, now)

	stored, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget stored",
		"id", stored.ID, "category", stored.Category,
		"month", stored.Month, "year", stored.Year, "limit", stored.MonthlyLimit)
	return stored, nil
}

func (r *Repository) GetBudget(ctx context.Context, ownerID, id string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanBudget(row)
}

// ListBudgets returns an owner's budgets, optionally narrowed to one month.
func (r *Repository) ListBudgets(ctx context.Context, ownerID string, month, year int) ([]core.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE owner_id = ?`
	args := []any{ownerID}
	if month > 0 && year > 0 {
		query += ` AND month = ? AND year = ?`
		args = append(args, month, year)
	}
	query += ` ORDER BY year DESC, month DESC, category`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// UpdateBudgetLimit changes only the monthly limit. Already-raised threshold
// flags stay raised; alerts are one-shot per period.
func (r *Repository) UpdateBudgetLimit(ctx context.Context, ownerID, id string, limit float64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `UPDATE budgets
		SET monthly_limit = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
		RETURNING `+budgetColumns,
		limit, time.Now().UTC(), id, ownerID)
	return scanBudget(row)
}

func (r *Repository) DeleteBudget(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyExpense adds an expense amount to the matching budget's running total
// in a single statement and returns the updated row. ErrNotFound means no
// budget covers that category and month, which is not an error for callers.
func (r *Repository) ApplyExpense(ctx context.Context, ownerID, category string, month, year int, amount float64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `UPDATE budgets
		SET current_spent = current_spent + ?, updated_at = ?
		WHERE owner_id = ? AND category = ? AND month = ? AND year = ?
		RETURNING `+budgetColumns,
		amount, time.Now().UTC(), ownerID, category, month, year)
	return scanBudget(row)
}

// ReverseExpense subtracts a deleted or re-categorized expense from the
// running total, floored at zero so stale history cannot drive it negative.
func (r *Repository) ReverseExpense(ctx context.Context, ownerID, category string, month, year int, amount float64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `UPDATE budgets
		SET current_spent = MAX(0, current_spent - ?), updated_at = ?
		WHERE owner_id = ? AND category = ? AND month = ? AND year = ?
		RETURNING `+budgetColumns,
		amount, time.Now().UTC(), ownerID, category, month, year)
	return scanBudget(row)
}

// MarkThreshold80 flips the 80% flag if it is still unset. It reports true
// exactly once per budget window, which is what gates the alert.
func (r *Repository) MarkThreshold80(ctx context.Context, budgetID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET threshold80 = 1 WHERE id = ? AND threshold80 = 0`, budgetID)
	if err != nil {
		return false, fmt.Errorf("mark threshold 80: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark threshold 80: %w", err)
	}
	return n == 1, nil
}

// MarkThreshold100 flips the 100% flag if it is still unset, reporting true
// only for the call that won.
func (r *Repository) MarkThreshold100(ctx context.Context, budgetID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET threshold100 = 1 WHERE id = ? AND threshold100 = 0`, budgetID)
	if err != nil {
		return false, fmt.Errorf("mark threshold 100: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark threshold 100: %w", err)
	}
	return n == 1, nil
}
