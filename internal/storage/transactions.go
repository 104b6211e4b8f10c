package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"finsync/internal/core"
)

const transactionColumns = `id, owner_id, kind, amount, category, description,
	notes, date, payment_method, tags, imported, created_at, updated_at`

// TransactionFilter narrows a transaction listing. Zero fields are ignored.
type TransactionFilter struct {
	Kind     core.TransactionKind
	Category string
	From     time.Time
	To       time.Time
	Search   string
	Page     int
	Limit    int
}

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var t core.Transaction
	var tags string
	err := row.Scan(&t.ID, &t.OwnerID, &t.Kind, &t.Amount, &t.Category,
		&t.Description, &t.Notes, &t.Date, &t.PaymentMethod, &tags,
		&t.Imported, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	if tags != "" && tags != "[]" {
		if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
			return core.Transaction{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	return t, nil
}

func encodeTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(raw), nil
}

// CreateTransaction inserts a record, assigning an ID when absent.
func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	t.Date = t.Date.UTC()
	if t.PaymentMethod == "" {
		t.PaymentMethod = core.DefaultPaymentMethod
	}

	tags, err := encodeTags(t.Tags)
	if err != nil {
		return core.Transaction{}, err
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO transactions
		(id, owner_id, kind, amount, category, description, notes, date, payment_method, tags, imported, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.Kind, t.Amount, t.Category, t.Description, t.Notes,
		t.Date, t.PaymentMethod, tags, t.Imported, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID, "kind", t.Kind, "amount", t.Amount, "category", t.Category)
	return t, nil
}

// BulkCreateTransactions inserts a batch atomically. Used by the OCR import.
func (r *Repository) BulkCreateTransactions(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk insert: %w", err)
	}
	defer dbTx.Rollback()

	now := time.Now().UTC()
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.CreatedAt, t.UpdatedAt = now, now
		t.Date = t.Date.UTC()
		if t.PaymentMethod == "" {
			t.PaymentMethod = core.DefaultPaymentMethod
		}
		tags, err := encodeTags(t.Tags)
		if err != nil {
			return nil, err
		}
		_, err = dbTx.ExecContext(ctx, `INSERT INTO transactions
			(id, owner_id, kind, amount, category, description, notes, date, payment_method, tags, imported, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.OwnerID, t.Kind, t.Amount, t.Category, t.Description, t.Notes,
			t.Date, t.PaymentMethod, tags, t.Imported, t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("bulk insert transaction: %w", err)
		}
		out = append(out, t)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk insert: %w", err)
	}
	return out, nil
}

func (r *Repository) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND owner_id = ?`,
		id, ownerID)
	return scanTransaction(row)
}

// ListTransactions returns a filtered page ordered most recent first, plus
// the total match count for pagination.
func (r *Repository) ListTransactions(ctx context.Context, ownerID string, f TransactionFilter) ([]core.Transaction, int, error) {
	where := []string{"owner_id = ?"}
	args := []any{ownerID}

	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, f.To.UTC())
	}
	if f.Search != "" {
		where = append(where, "(description LIKE ? OR notes LIKE ? OR category LIKE ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE `+cond+
			` ORDER BY date DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, t)
	}
	return txs, total, rows.Err()
}

// UpdateTransaction replaces the mutable fields of an owned record and
// returns the stored result.
func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return core.Transaction{}, err
	}

	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET
		kind = ?, amount = ?, category = ?, description = ?, notes = ?, date = ?,
		payment_method = ?, tags = ?, synced = 0, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		t.Kind, t.Amount, t.Category, t.Description, t.Notes, t.Date.UTC(),
		t.PaymentMethod, tags, time.Now().UTC(), t.ID, t.OwnerID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Transaction{}, ErrNotFound
	}
	return r.GetTransaction(ctx, t.OwnerID, t.ID)
}

// DeleteTransaction removes an owned record and returns what was deleted so
// the caller can reverse its budget effect.
func (r *Repository) DeleteTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	t, err := r.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Transaction{}, ErrNotFound
	}
	return t, nil
}

// PendingSyncTransaction is the minimal row handed to the sheet-sync queue.
type PendingSyncTransaction struct {
	ID        string
	CreatedAt time.Time
}

// ListPendingSync returns transactions not yet mirrored to the spreadsheet.
func (r *Repository) ListPendingSync(ctx context.Context, limit int) ([]PendingSyncTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, created_at FROM transactions
		WHERE synced = 0 AND sync_error = 0 ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncTransaction
	for rows.Next() {
		var p PendingSyncTransaction
		if err := rows.Scan(&p.ID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending sync: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// GetTransactionAnyOwner loads a record without owner scoping. Only the sync
// worker uses it; API paths always scope by owner.
func (r *Repository) GetTransactionAnyOwner(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	return scanTransaction(row)
}

func (r *Repository) MarkTransactionSynced(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET synced = 1, sync_error = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	return nil
}

func (r *Repository) MarkTransactionSyncError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_error = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}
