package services

import (
	"context"
	"fmt"

	"finsync/internal/core"
	"finsync/internal/storage"
)

// AdminService backs the role-gated admin surface.
type AdminService struct {
	storage *storage.Repository
}

func NewAdminService(st *storage.Repository) *AdminService {
	return &AdminService{storage: st}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]core.User, error) {
	return s.storage.ListUsers(ctx)
}

// ListFraudAlerts returns alerts across all users, optionally one status.
func (s *AdminService) ListFraudAlerts(ctx context.Context, status core.AlertStatus) ([]core.FraudAlert, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("unknown alert status %q", status)
	}
	return s.storage.ListFraudAlerts(ctx, "", status)
}

// ReviewFraudAlert finalizes a pending alert as resolved or false_positive.
func (s *AdminService) ReviewFraudAlert(ctx context.Context, id string, status core.AlertStatus, reviewerID string) (core.FraudAlert, error) {
	existing, err := s.storage.GetFraudAlert(ctx, id)
	if err != nil {
		return core.FraudAlert{}, err
	}
	if !existing.ReviewableAs(status) {
		return core.FraudAlert{}, fmt.Errorf("alert %s cannot move from %s to %s", id, existing.Status, status)
	}
	return s.storage.ReviewFraudAlert(ctx, id, status, reviewerID)
}

func (s *AdminService) Stats(ctx context.Context) (storage.SystemStats, error) {
	return s.storage.GetSystemStats(ctx)
}
