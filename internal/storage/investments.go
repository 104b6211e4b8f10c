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

const investmentColumns = `id, owner_id, type, name, symbol, invested_amount,
	current_value, purchase_date, quantity, purchase_price, current_price,
	profit_loss, profit_loss_pct, notes, created_at, updated_at`

func scanInvestment(row interface{ Scan(...any) error }) (core.Investment, error) {
	var inv core.Investment
	err := row.Scan(&inv.ID, &inv.OwnerID, &inv.Type, &inv.Name, &inv.Symbol,
		&inv.InvestedAmount, &inv.CurrentValue, &inv.PurchaseDate, &inv.Quantity,
		&inv.PurchasePrice, &inv.CurrentPrice, &inv.ProfitLoss,
		&inv.ProfitLossPercentage, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Investment{}, ErrNotFound
	}
	if err != nil {
		return core.Investment{}, fmt.Errorf("scan investment: %w", err)
	}
	return inv, nil
}

func (r *Repository) CreateInvestment(ctx context.Context, inv core.Investment) (core.Investment, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	inv.CreatedAt, inv.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `INSERT INTO investments
		(id, owner_id, type, name, symbol, invested_amount, current_value, purchase_date,
		 quantity, purchase_price, current_price, profit_loss, profit_loss_pct, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.OwnerID, inv.Type, inv.Name, inv.Symbol, inv.InvestedAmount,
		inv.CurrentValue, inv.PurchaseDate.UTC(), inv.Quantity, inv.PurchasePrice,
		inv.CurrentPrice, inv.ProfitLoss, inv.ProfitLossPercentage, inv.Notes,
		inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return core.Investment{}, fmt.Errorf("create investment: %w", err)
	}

	slog.InfoContext(ctx, "Investment saved", "id", inv.ID, "type", inv.Type, "name", inv.Name)
	return inv, nil
}

func (r *Repository) GetInvestment(ctx context.Context, ownerID, id string) (core.Investment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+investmentColumns+` FROM investments WHERE id = ? AND owner_id = ?`, id, ownerID)
	return scanInvestment(row)
}

// ListInvestments returns an owner's holdings, optionally filtered by type.
func (r *Repository) ListInvestments(ctx context.Context, ownerID, invType string) ([]core.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE owner_id = ?`
	args := []any{ownerID}
	if invType != "" {
		query += ` AND type = ?`
		args = append(args, invType)
	}
	query += ` ORDER BY purchase_date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	defer rows.Close()

	var investments []core.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		investments = append(investments, inv)
	}
	return investments, rows.Err()
}

func (r *Repository) UpdateInvestment(ctx context.Context, inv core.Investment) (core.Investment, error) {
	row := r.db.QueryRowContext(ctx, `UPDATE investments SET
		type = ?, name = ?, symbol = ?, invested_amount = ?, current_value = ?,
		purchase_date = ?, quantity = ?, purchase_price = ?, current_price = ?,
		profit_loss = ?, profit_loss_pct = ?, notes = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
		RETURNING `+investmentColumns,
		inv.Type, inv.Name, inv.Symbol, inv.InvestedAmount, inv.CurrentValue,
		inv.PurchaseDate.UTC(), inv.Quantity, inv.PurchasePrice, inv.CurrentPrice,
		inv.ProfitLoss, inv.ProfitLossPercentage, inv.Notes, time.Now().UTC(),
		inv.ID, inv.OwnerID)
	return scanInvestment(row)
}

func (r *Repository) DeleteInvestment(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM investments WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete investment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
