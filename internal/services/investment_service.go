package services

import (
	"context"
	"fmt"

	"finsync/internal/core"
	"finsync/internal/realtime"
	"finsync/internal/storage"
)

// InvestmentService manages portfolio holdings. Derived profit figures are
// recomputed on every write, never trusted from the caller.
type InvestmentService struct {
	storage *storage.Repository
	events  EventPublisher
}

func NewInvestmentService(st *storage.Repository, events EventPublisher) *InvestmentService {
	return &InvestmentService{storage: st, events: events}
}

// Portfolio is an owner's holdings plus their aggregate summary.
type Portfolio struct {
	Investments []core.Investment     `json:"investments"`
	Summary     core.PortfolioSummary `json:"summary"`
}

func (s *InvestmentService) Create(ctx context.Context, inv core.Investment) (core.Investment, error) {
	if err := inv.Validate(); err != nil {
		return core.Investment{}, err
	}
	inv.Recalculate()

	saved, err := s.storage.CreateInvestment(ctx, inv)
	if err != nil {
		return core.Investment{}, fmt.Errorf("create investment: %w", err)
	}

	s.publish(saved.OwnerID, realtime.EventInvestmentAdded, saved)
	return saved, nil
}

func (s *InvestmentService) Update(ctx context.Context, inv core.Investment) (core.Investment, error) {
	if err := inv.Validate(); err != nil {
		return core.Investment{}, err
	}
	inv.Recalculate()

	saved, err := s.storage.UpdateInvestment(ctx, inv)
	if err != nil {
		return core.Investment{}, err
	}

	s.publish(saved.OwnerID, realtime.EventInvestmentUpdated, saved)
	return saved, nil
}

func (s *InvestmentService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.storage.DeleteInvestment(ctx, ownerID, id); err != nil {
		return err
	}
	s.publish(ownerID, realtime.EventInvestmentDeleted, map[string]string{"id": id})
	return nil
}

func (s *InvestmentService) Get(ctx context.Context, ownerID, id string) (core.Investment, error) {
	return s.storage.GetInvestment(ctx, ownerID, id)
}

// List returns the holdings (optionally one type) with the portfolio summary.
func (s *InvestmentService) List(ctx context.Context, ownerID, invType string) (Portfolio, error) {
	investments, err := s.storage.ListInvestments(ctx, ownerID, invType)
	if err != nil {
		return Portfolio{}, err
	}
	return Portfolio{
		Investments: investments,
		Summary:     core.SummarizePortfolio(investments),
	}, nil
}

func (s *InvestmentService) publish(userID, name string, payload any) {
	if s.events == nil {
		return
	}
	s.events.PublishToUser(userID, realtime.NewEvent(name, payload))
}
