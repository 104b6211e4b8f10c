package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finsync/internal/core"
	"finsync/internal/realtime"
	"finsync/internal/storage"
)

// TransactionService orchestrates transaction writes: the record itself,
// the budget ledger, fraud evaluation, the sync queue and realtime events.
type TransactionService struct {
	storage   *storage.Repository
	publisher SyncPublisher
	events    EventPublisher
	notifier  FraudNotifier
}

func NewTransactionService(st *storage.Repository, publisher SyncPublisher, events EventPublisher, notifier FraudNotifier) *TransactionService {
	return &TransactionService{
		storage:   st,
		publisher: publisher,
		events:    events,
		notifier:  notifier,
	}
}

// Create stores a transaction and runs the full post-commit pipeline.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.applyToLedger(ctx, saved)
	s.evaluateFraud(ctx, saved)
	s.publishSync(ctx, saved.ID, 1)
	s.publishToUser(saved.OwnerID, realtime.EventTransactionAdded, saved)

	return saved, nil
}

// Update reverses the old record's budget effect, stores the new values,
// and applies the new effect. Recategorized or re-dated expenses move
// between budget windows correctly this way.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	old, err := s.storage.GetTransaction(ctx, t.OwnerID, t.ID)
	if err != nil {
		return core.Transaction{}, err
	}

	s.reverseFromLedger(ctx, old)

	updated, err := s.storage.UpdateTransaction(ctx, t)
	if err != nil {
		// Put the old amount back so the ledger is not left short.
		s.applyToLedger(ctx, old)
		return core.Transaction{}, err
	}

	s.applyToLedger(ctx, updated)
	s.publishSync(ctx, updated.ID, 2)
	s.publishToUser(updated.OwnerID, realtime.EventTransactionUpdated, updated)

	return updated, nil
}

// Delete removes a transaction and reverses its budget effect.
func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	deleted, err := s.storage.DeleteTransaction(ctx, ownerID, id)
	if err != nil {
		return err
	}

	s.reverseFromLedger(ctx, deleted)
	s.publishToUser(ownerID, realtime.EventTransactionDeleted, map[string]string{"id": id})
	return nil
}

func (s *TransactionService) Get(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, ownerID, id)
}

func (s *TransactionService) List(ctx context.Context, ownerID string, f storage.TransactionFilter) ([]core.Transaction, int, error) {
	return s.storage.ListTransactions(ctx, ownerID, f)
}

// Import bulk-inserts reviewed statement candidates. Imported rows skip the
// budget ledger; they are historical records, not live spending.
func (s *TransactionService) Import(ctx context.Context, ownerID string, txs []core.Transaction) ([]core.Transaction, error) {
	for i := range txs {
		txs[i].OwnerID = ownerID
		txs[i].Imported = true
		if err := txs[i].Validate(); err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}
	}

	saved, err := s.storage.BulkCreateTransactions(ctx, txs)
	if err != nil {
		return nil, fmt.Errorf("import transactions: %w", err)
	}

	for _, t := range saved {
		s.publishSync(ctx, t.ID, 1)
	}
	s.publishToUser(ownerID, realtime.EventTransactionsImport, map[string]int{"count": len(saved)})

	slog.InfoContext(ctx, "Imported transactions", "owner", ownerID, "count", len(saved))
	return saved, nil
}

// applyToLedger adds an expense to its budget window and raises threshold
// alerts. The 100% check runs first; each flag fires at most once per window.
func (s *TransactionService) applyToLedger(ctx context.Context, t core.Transaction) {
	if t.Kind != core.Expense {
		return
	}
	month, year := int(t.Date.Month()), t.Date.Year()

	b, err := s.storage.ApplyExpense(ctx, t.OwnerID, t.Category, month, year, t.Amount)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.ErrorContext(ctx, "Failed to apply expense to budget",
				"transaction", t.ID, "error", err)
		}
		return
	}

	pct := b.Percent()
	switch {
	case pct >= 100 && !b.Threshold100:
		fired, err := s.storage.MarkThreshold100(ctx, b.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to mark 100% threshold", "budget", b.ID, "error", err)
			return
		}
		if fired {
			s.publishToUser(t.OwnerID, realtime.EventBudgetAlert, map[string]any{
				"type":       "exceeded",
				"category":   b.Category,
				"percentage": 100,
			})
		}
	case pct >= 80 && !b.Threshold80:
		fired, err := s.storage.MarkThreshold80(ctx, b.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to mark 80% threshold", "budget", b.ID, "error", err)
			return
		}
		if fired {
			s.publishToUser(t.OwnerID, realtime.EventBudgetAlert, map[string]any{
				"type":       "warning",
				"category":   b.Category,
				"percentage": 80,
			})
		}
	}
}

func (s *TransactionService) reverseFromLedger(ctx context.Context, t core.Transaction) {
	if t.Kind != core.Expense {
		return
	}
	month, year := int(t.Date.Month()), t.Date.Year()
	if _, err := s.storage.ReverseExpense(ctx, t.OwnerID, t.Category, month, year, t.Amount); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.ErrorContext(ctx, "Failed to reverse expense from budget",
				"transaction", t.ID, "error", err)
		}
	}
}

func (s *TransactionService) evaluateFraud(ctx context.Context, t core.Transaction) {
	alert, flagged := core.EvaluateFraud(t)
	if !flagged {
		return
	}

	saved, err := s.storage.CreateFraudAlert(ctx, alert)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to create fraud alert",
			"transaction", t.ID, "error", err)
		return
	}

	if s.events != nil {
		s.events.PublishToAdmins(realtime.NewEvent(realtime.EventFraudAlert, map[string]any{
			"userId":        saved.OwnerID,
			"transactionId": saved.TransactionID,
			"amount":        saved.Amount,
			"severity":      saved.Severity,
		}))
	}
	if s.notifier != nil {
		s.notifier.NotifyFraudAlert(ctx, saved)
	}
}

// publishSync is non-fatal: a broker outage must not fail the write.
func (s *TransactionService) publishSync(ctx context.Context, id string, version int64) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Sync publisher not available, skipping sync message")
		return
	}
	if err := s.publisher.PublishTransactionSync(ctx, id, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}

func (s *TransactionService) publishToUser(userID, name string, payload any) {
	if s.events == nil {
		return
	}
	s.events.PublishToUser(userID, realtime.NewEvent(name, payload))
}
