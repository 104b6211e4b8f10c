package worker

import (
	"context"
	"fmt"
	"log/slog"

	"finsync/internal/amqp"
	"finsync/internal/sheets"
	"finsync/internal/storage"
)

// SyncWorker mirrors stored transactions to a spreadsheet, driven by the
// AMQP queue with a pending-row sweep as backup.
type SyncWorker struct {
	storage   *storage.Repository
	sheets    sheets.TransactionWriter
	batchSize int
}

func NewSyncWorker(storage *storage.Repository, sheets sheets.TransactionWriter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		sheets:    sheets,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single sync message from the queue.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID, "version", msg.Version)

	tx, err := w.storage.GetTransactionAnyOwner(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if err := w.syncToSheet(ctx, tx.ID); err != nil {
		return fmt.Errorf("sync transaction to sheet: %w", err)
	}
	return nil
}

// ProcessPendingTransactions sweeps rows that never made it to the sheet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingTransactions(ctx context.Context) error {
	pending, err := w.storage.ListPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, p := range pending {
		if err := w.syncToSheet(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "id", p.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupSyncCheck drains the pending backlog once at worker startup so a
// period of downtime does not leave rows behind.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.ListPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	synced, failed := 0, 0
	for _, p := range pending {
		if err := w.syncToSheet(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction during startup",
				"id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending), "synced", synced, "errors", failed)
	return nil
}

func (w *SyncWorker) syncToSheet(ctx context.Context, id string) error {
	tx, err := w.storage.GetTransactionAnyOwner(ctx, id)
	if err != nil {
		if markErr := w.storage.MarkTransactionSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("load transaction: %w", err)
	}

	ref, err := w.sheets.Append(ctx, tx)
	if err != nil {
		if markErr := w.storage.MarkTransactionSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.storage.MarkTransactionSynced(ctx, id); err != nil {
		// The append succeeded; the sweep will retry the flag later.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Synced transaction",
		"id", id, "sheet_ref", ref, "amount", tx.Amount)
	return nil
}
