package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"finsync/internal/core"
	"finsync/internal/realtime"
	"finsync/internal/storage"
)

type capturedEvent struct {
	room  string
	event realtime.Event
}

// stubEvents records published events instead of pushing them to sockets.
type stubEvents struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (s *stubEvents) PublishToUser(userID string, e realtime.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, capturedEvent{room: realtime.UserRoom(userID), event: e})
}

func (s *stubEvents) PublishToAdmins(e realtime.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, capturedEvent{room: realtime.AdminRoom, event: e})
}

func (s *stubEvents) named(name string) []capturedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []capturedEvent
	for _, ce := range s.events {
		if ce.event.Name == name {
			out = append(out, ce)
		}
	}
	return out
}

// stubPublisher records sync messages.
type stubPublisher struct {
	mu  sync.Mutex
	ids []string
}

func (s *stubPublisher) PublishTransactionSync(_ context.Context, id string, _ int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, id)
	return nil
}

func newTestStack(t *testing.T) (*storage.Repository, *stubEvents, *stubPublisher, core.User) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "services.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	u, err := repo.GetOrCreateUser(context.Background(), "auth0|svc", "svc@example.com", "Svc", core.RoleUser)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return repo, &stubEvents{}, &stubPublisher{}, u
}

func augExpense(ownerID string, amount float64, category string) core.Transaction {
	return core.Transaction{
		OwnerID:  ownerID,
		Kind:     core.Expense,
		Amount:   amount,
		Category: category,
		Date:     time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateUpdatesBudgetAndFiresWarning(t *testing.T) {
	repo, events, pub, u := newTestStack(t)
	ctx := context.Background()
	svc := NewTransactionService(repo, pub, events, nil)
	budgets := NewBudgetService(repo, events)

	if _, err := budgets.Upsert(ctx, core.Budget{
		OwnerID: u.ID, Category: "Food", MonthlyLimit: 1000, Month: 8, Year: 2026,
	}); err != nil {
		t.Fatalf("budget: %v", err)
	}

	if _, err := svc.Create(ctx, augExpense(u.ID, 850, "Food")); err != nil {
		t.Fatalf("create: %v", err)
	}

	alerts := events.named(realtime.EventBudgetAlert)
	if len(alerts) != 1 {
		t.Fatalf("budget alerts = %d, want 1", len(alerts))
	}
	payload := alerts[0].event.Payload.(map[string]any)
	if payload["type"] != "warning" || payload["percentage"] != 80 {
		t.Fatalf("unexpected alert payload: %+v", payload)
	}

	// Second small expense keeps percentage over 80 but must not re-alert.
	if _, err := svc.Create(ctx, augExpense(u.ID, 10, "Food")); err != nil {
		t.Fatalf("create second: %v", err)
	}
	if got := len(events.named(realtime.EventBudgetAlert)); got != 1 {
		t.Fatalf("alerts after second expense = %d, want still 1", got)
	}
}

func TestCreateFiresExceededAlertAtFullLimit(t *testing.T) {
	repo, events, pub, u := newTestStack(t)
	ctx := context.Background()
	svc := NewTransactionService(repo, pub, events, nil)
	budgets := NewBudgetService(repo, events)

	if _, err := budgets.Upsert(ctx, core.Budget{
		OwnerID: u.ID, Category: "Travel", MonthlyLimit: 500, Month: 8, Year: 2026,
	}); err != nil {
		t.Fatalf("budget: %v", err)
	}

	if _, err := svc.Create(ctx, augExpense(u.ID, 600, "Travel")); err != nil {
		t.Fatalf("create: %v", err)
	}

	alerts := events.named(realtime.EventBudgetAlert)
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(alerts))
	}
	payload := alerts[0].event.Payload.(map[string]any)
	if payload["type"] != "exceeded" || payload["percentage"] != 100 {
		t.Fatalf("unexpected alert payload: %+v", payload)
	}
}

func TestCreateLargeTransactionRaisesFraudAlert(t *testing.T) {
	repo, events, pub, u := newTestStack(t)
	ctx := context.Background()
	svc := NewTransactionService(repo, pub, events, nil)

	if _, err := svc.Create(ctx, augExpense(u.ID, 25000, "Shopping")); err != nil {
		t.Fatalf("create: %v", err)
	}

	alerts, err := repo.ListFraudAlerts(ctx, u.ID, "")
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("fraud alerts = %d, want 1", len(alerts))
	}
	if alerts[0].Severity != core.SeverityMedium {
		t.Fatalf("severity = %q, want medium", alerts[0].Severity)
	}

	adminEvents := events.named(realtime.EventFraudAlert)
	if len(adminEvents) != 1 || adminEvents[0].room != realtime.AdminRoom {
		t.Fatalf("admin events = %+v, want one in admin room", adminEvents)
	}
}

func TestSmallTransactionDoesNotRaiseFraudAlert(t *testing.T) {
	repo, events, pub, u := newTestStack(t)
	ctx := context.Background()
	svc := NewTransactionService(repo, pub, events, nil)

	if _, err := svc.Create(ctx, augExpense(u.ID, 15000, "Shopping")); err != nil {
		t.Fatalf("create: %v", err)
	}

	alerts, err := repo.ListFraudAlerts(ctx, u.ID, "")
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("fraud alerts = %d, want 0", len(alerts))
	}
}

func TestUpdateMovesSpendBetweenCategories(t *testing.T) {
	repo, events, pub, u := newTestStack(t)
	ctx := context.Background()
	svc := NewTransactionService(repo, pub, events, nil)
	budgets := NewBudgetService(repo, events)

	foodBudget, err := budgets.Upsert(ctx, core.Budget{
		OwnerID: u.ID, Category: "Food", MonthlyLimit: 1000, Month: 8, Year: 2026,
	})
	if err != nil {
		t.Fatalf("food budget: %v", err)
	}
	travelBudget, err := budgets.Upsert(ctx, core.Budget{
		OwnerID: u.ID, Category: "Travel", MonthlyLimit: 1000, Month: 8, Year: 2026,
	})
	if err != nil {
		t.Fatalf("travel budget: %v", err)
	}

	tx, err := svc.Create(ctx, augExpense(u.ID, 400, "Food"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tx.Category = "Travel"
	if _, err := svc.Update(ctx, tx); err != nil {
		t.Fatalf("update: %v", err)
	}

	food, err := repo.GetBudget(ctx, u.ID, foodBudget.ID)
	if err != nil {
		t.Fatalf("get food: %v", err)
	}
	travel, err := repo.GetBudget(ctx, u.ID, travelBudget.ID)
	if err != nil {
		t.Fatalf("get travel: %v", err)
	}
	if food.CurrentSpent != 0 {
		t.Errorf("food spent = %v, want 0 after move", food.CurrentSpent)
	}
	if travel.CurrentSpent != 400 {
		t.Errorf("travel spent = %v, want 400 after move", travel.CurrentSpent)
	}
}

func TestDeleteReversesLedgerAndSurvivingSumHolds(t *testing.T) {
	repo, events, pub, u := newTestStack(t)
	ctx := context.Background()
	svc := NewTransactionService(repo, pub, events, nil)
	budgets := NewBudgetService(repo, events)

	b, err := budgets.Upsert(ctx, core.Budget{
		OwnerID: u.ID, Category: "Food", MonthlyLimit: 5000, Month: 8, Year: 2026,
	})
	if err != nil {
		t.Fatalf("budget: %v", err)
	}

	first, err := svc.Create(ctx, augExpense(u.ID, 1200, "Food"))
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if _, err := svc.Create(ctx, augExpense(u.ID, 300, "Food")); err != nil {
		t.Fatalf("create second: %v", err)
	}

	if err := svc.Delete(ctx, u.ID, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := repo.GetBudget(ctx, u.ID, b.ID)
	if err != nil {
		t.Fatalf("get budget: %v", err)
	}
	if got.CurrentSpent != 300 {
		t.Fatalf("currentSpent = %v, want surviving sum 300", got.CurrentSpent)
	}
}

func TestCreatePublishesSyncAndRealtimeEvents(t *testing.T) {
	repo, events, pub, u := newTestStack(t)
	ctx := context.Background()
	svc := NewTransactionService(repo, pub, events, nil)

	tx, err := svc.Create(ctx, augExpense(u.ID, 100, "Food"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if len(pub.ids) != 1 || pub.ids[0] != tx.ID {
		t.Fatalf("sync ids = %v, want [%s]", pub.ids, tx.ID)
	}
	added := events.named(realtime.EventTransactionAdded)
	if len(added) != 1 || added[0].room != realtime.UserRoom(u.ID) {
		t.Fatalf("added events = %+v, want one in user room", added)
	}
}

func TestImportSkipsLedger(t *testing.T) {
	repo, events, pub, u := newTestStack(t)
	ctx := context.Background()
	svc := NewTransactionService(repo, pub, events, nil)
	budgets := NewBudgetService(repo, events)

	b, err := budgets.Upsert(ctx, core.Budget{
		OwnerID: u.ID, Category: "Other", MonthlyLimit: 1000, Month: 8, Year: 2026,
	})
	if err != nil {
		t.Fatalf("budget: %v", err)
	}

	imported, err := svc.Import(ctx, u.ID, []core.Transaction{
		augExpense("", 700, "Other"),
		augExpense("", 200, "Other"),
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(imported) != 2 {
		t.Fatalf("imported = %d, want 2", len(imported))
	}
	if !imported[0].Imported {
		t.Error("imported flag not set")
	}

	got, err := repo.GetBudget(ctx, u.ID, b.ID)
	if err != nil {
		t.Fatalf("get budget: %v", err)
	}
	if got.CurrentSpent != 0 {
		t.Fatalf("currentSpent = %v, want 0 for imported history", got.CurrentSpent)
	}

	if got := len(events.named(realtime.EventTransactionsImport)); got != 1 {
		t.Fatalf("import events = %d, want 1", got)
	}
}
