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

const goalColumns = `id, owner_id, title, description, target_amount,
	current_amount, target_date, status, created_at, updated_at`

func scanGoal(row interface{ Scan(...any) error }) (core.Goal, error) {
	var g core.Goal
	err := row.Scan(&g.ID, &g.OwnerID, &g.Title, &g.Description, &g.TargetAmount,
		&g.CurrentAmount, &g.TargetDate, &g.Status, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("scan goal: %w", err)
	}
	return g, nil
}

func (r *Repository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Status == "" {
		g.Status = core.GoalActive
	}
	now := time.Now().UTC()
	g.CreatedAt, g.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `INSERT INTO goals
		(id, owner_id, title, description, target_amount, current_amount, target_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.OwnerID, g.Title, g.Description, g.TargetAmount, g.CurrentAmount,
		g.TargetDate.UTC(), g.Status, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}

	slog.InfoContext(ctx, "Goal saved", "id", g.ID, "title", g.Title, "target", g.TargetAmount)
	return g, nil
}

func (r *Repository) GetGoal(ctx context.Context, ownerID, id string) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanGoal(row)
}

// ListGoals returns an owner's goals, optionally filtered by status.
func (r *Repository) ListGoals(ctx context.Context, ownerID string, status core.GoalStatus) ([]core.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE owner_id = ?`
	args := []any{ownerID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY target_date`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *Repository) UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx, `UPDATE goals SET
		title = ?, description = ?, target_amount = ?, current_amount = ?,
		target_date = ?, status = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
		RETURNING `+goalColumns,
		g.Title, g.Description, g.TargetAmount, g.CurrentAmount,
		g.TargetDate.UTC(), g.Status, time.Now().UTC(), g.ID, g.OwnerID)
	return scanGoal(row)
}

func (r *Repository) DeleteGoal(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
