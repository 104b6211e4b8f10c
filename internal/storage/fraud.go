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

const fraudColumns = `id, owner_id, transaction_id, alert_type, severity,
	description, amount, status, reviewed_by, reviewed_at, created_at`

func scanFraudAlert(row interface{ Scan(...any) error }) (core.FraudAlert, error) {
	var a core.FraudAlert
	var reviewedAt sql.NullTime
	err := row.Scan(&a.ID, &a.OwnerID, &a.TransactionID, &a.AlertType, &a.Severity,
		&a.Description, &a.Amount, &a.Status, &a.ReviewedBy, &reviewedAt, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.FraudAlert{}, ErrNotFound
	}
	if err != nil {
		return core.FraudAlert{}, fmt.Errorf("scan fraud alert: %w", err)
	}
	if reviewedAt.Valid {
		a.ReviewedAt = reviewedAt.Time
	}
	return a, nil
}

func (r *Repository) CreateFraudAlert(ctx context.Context, a core.FraudAlert) (core.FraudAlert, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = core.AlertPending
	}
	a.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `INSERT INTO fraud_alerts
		(id, owner_id, transaction_id, alert_type, severity, description, amount, status, reviewed_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, '', ?)`,
		a.ID, a.OwnerID, a.TransactionID, a.AlertType, a.Severity,
		a.Description, a.Amount, a.Status, a.CreatedAt)
	if err != nil {
		return core.FraudAlert{}, fmt.Errorf("create fraud alert: %w", err)
	}

	slog.WarnContext(ctx, "Fraud alert raised",
		"id", a.ID, "transaction", a.TransactionID, "severity", a.Severity, "amount", a.Amount)
	return a, nil
}

// ListFraudAlerts returns alerts newest first, optionally filtered by status.
// An empty ownerID lists across all users, which is the admin view.
func (r *Repository) ListFraudAlerts(ctx context.Context, ownerID string, status core.AlertStatus) ([]core.FraudAlert, error) {
	query := `SELECT ` + fraudColumns + ` FROM fraud_alerts WHERE 1 = 1`
	var args []any
	if ownerID != "" {
		query += ` AND owner_id = ?`
		args = append(args, ownerID)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list fraud alerts: %w", err)
	}
	defer rows.Close()

	var alerts []core.FraudAlert
	for rows.Next() {
		a, err := scanFraudAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (r *Repository) GetFraudAlert(ctx context.Context, id string) (core.FraudAlert, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+fraudColumns+` FROM fraud_alerts WHERE id = ?`, id)
	return scanFraudAlert(row)
}

// ReviewFraudAlert moves a pending alert to its final status. The pending
// guard in the WHERE clause makes the transition single-shot even under
// concurrent reviews; a lost race surfaces as ErrNotFound.
func (r *Repository) ReviewFraudAlert(ctx context.Context, id string, status core.AlertStatus, reviewerID string) (core.FraudAlert, error) {
	row := r.db.QueryRowContext(ctx, `UPDATE fraud_alerts
		SET status = ?, reviewed_by = ?, reviewed_at = ?
		WHERE id = ? AND status = 'pending'
		RETURNING `+fraudColumns,
		status, reviewerID, time.Now().UTC(), id)
	return scanFraudAlert(row)
}
