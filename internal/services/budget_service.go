package services

import (
	"context"
	"fmt"

	"finsync/internal/core"
	"finsync/internal/realtime"
	"finsync/internal/storage"
)

// BudgetService manages monthly budget windows.
type BudgetService struct {
	storage *storage.Repository
	events  EventPublisher
}

func NewBudgetService(st *storage.Repository, events EventPublisher) *BudgetService {
	return &BudgetService{storage: st, events: events}
}

// Upsert creates or replaces the budget for a (category, month, year)
// window. The running total is seeded from existing transaction history.
func (s *BudgetService) Upsert(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	saved, err := s.storage.UpsertBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}

	s.publish(saved.OwnerID, realtime.EventBudgetUpdated, saved)
	return saved, nil
}

// UpdateLimit changes an existing budget's monthly limit.
func (s *BudgetService) UpdateLimit(ctx context.Context, ownerID, id string, limit float64) (core.Budget, error) {
	if limit < 0 {
		return core.Budget{}, core.ErrInvalidAmount
	}

	saved, err := s.storage.UpdateBudgetLimit(ctx, ownerID, id, limit)
	if err != nil {
		return core.Budget{}, err
	}

	s.publish(saved.OwnerID, realtime.EventBudgetUpdated, saved)
	return saved, nil
}

func (s *BudgetService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.storage.DeleteBudget(ctx, ownerID, id); err != nil {
		return err
	}
	s.publish(ownerID, realtime.EventBudgetDeleted, map[string]string{"id": id})
	return nil
}

func (s *BudgetService) Get(ctx context.Context, ownerID, id string) (core.Budget, error) {
	return s.storage.GetBudget(ctx, ownerID, id)
}

func (s *BudgetService) List(ctx context.Context, ownerID string, month, year int) ([]core.Budget, error) {
	return s.storage.ListBudgets(ctx, ownerID, month, year)
}

func (s *BudgetService) publish(userID, name string, payload any) {
	if s.events == nil {
		return
	}
	s.events.PublishToUser(userID, realtime.NewEvent(name, payload))
}
