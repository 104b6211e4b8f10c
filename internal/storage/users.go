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

const userColumns = `id, subject_id, email, name, role, currency, theme,
	email_alerts, push_alerts, budget_alerts, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (core.User, error) {
	var u core.User
	err := row.Scan(&u.ID, &u.SubjectID, &u.Email, &u.Name, &u.Role,
		&u.Prefs.Currency, &u.Prefs.Theme,
		&u.Prefs.EmailAlerts, &u.Prefs.PushAlerts, &u.Prefs.BudgetAlerts,
		&u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// GetOrCreateUser resolves the local mirror of an identity-provider account,
// creating it on first sight. Every authenticated request goes through here
// exactly once, in the auth middleware.
func (r *Repository) GetOrCreateUser(ctx context.Context, subjectID, email, name string, role core.Role) (core.User, error) {
	u, err := r.GetUserBySubject(ctx, subjectID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return core.User{}, err
	}

	if role != core.RoleAdmin {
		role = core.RoleUser
	}
	now := time.Now().UTC()
	u = core.User{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		Email:     email,
		Name:      name,
		Role:      role,
		Prefs: core.Preferences{
			Currency:     "INR",
			Theme:        "dark",
			EmailAlerts:  true,
			PushAlerts:   true,
			BudgetAlerts: true,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO users
		(id, subject_id, email, name, role, currency, theme, email_alerts, push_alerts, budget_alerts, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.SubjectID, u.Email, u.Name, u.Role,
		u.Prefs.Currency, u.Prefs.Theme,
		u.Prefs.EmailAlerts, u.Prefs.PushAlerts, u.Prefs.BudgetAlerts,
		u.CreatedAt, u.UpdatedAt)
	if err != nil {
		// Lost a create race with a concurrent first request; the row exists now.
		if existing, lookupErr := r.GetUserBySubject(ctx, subjectID); lookupErr == nil {
			return existing, nil
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "Created user mirror", "user_id", u.ID, "email", u.Email, "role", u.Role)
	return u, nil
}

func (r *Repository) GetUserBySubject(ctx context.Context, subjectID string) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE subject_id = ?`, subjectID)
	return scanUser(row)
}

func (r *Repository) GetUser(ctx context.Context, id string) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// UpdateUserProfile replaces name and preferences for a user.
func (r *Repository) UpdateUserProfile(ctx context.Context, id, name string, prefs core.Preferences) (core.User, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET
		name = ?, currency = ?, theme = ?, email_alerts = ?, push_alerts = ?, budget_alerts = ?, updated_at = ?
		WHERE id = ?`,
		name, prefs.Currency, prefs.Theme,
		prefs.EmailAlerts, prefs.PushAlerts, prefs.BudgetAlerts,
		time.Now().UTC(), id)
	if err != nil {
		return core.User{}, fmt.Errorf("update user profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.User{}, ErrNotFound
	}
	return r.GetUser(ctx, id)
}

func (r *Repository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// OwnerCounts is the per-collection record tally for one user.
type OwnerCounts struct {
	Transactions int `json:"transactions"`
	Budgets      int `json:"budgets"`
	Goals        int `json:"goals"`
	Investments  int `json:"investments"`
	Total        int `json:"total"`
}

func (r *Repository) CountOwnerRecords(ctx context.Context, ownerID string) (OwnerCounts, error) {
	var c OwnerCounts
	row := r.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM transactions WHERE owner_id = ?),
		(SELECT COUNT(*) FROM budgets WHERE owner_id = ?),
		(SELECT COUNT(*) FROM goals WHERE owner_id = ?),
		(SELECT COUNT(*) FROM investments WHERE owner_id = ?)`,
		ownerID, ownerID, ownerID, ownerID)
	if err := row.Scan(&c.Transactions, &c.Budgets, &c.Goals, &c.Investments); err != nil {
		return c, fmt.Errorf("count owner records: %w", err)
	}
	c.Total = c.Transactions + c.Budgets + c.Goals + c.Investments
	return c, nil
}

// ResetOwnerData deletes every record owned by the user across all
// collections, in one transaction.
func (r *Repository) ResetOwnerData(ctx context.Context, ownerID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"transactions", "budgets", "goals", "investments"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE owner_id = ?`, ownerID); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}

	slog.InfoContext(ctx, "Reset all data for user", "owner_id", ownerID)
	return nil
}
