package services

import (
	"context"
	"fmt"

	"finsync/internal/auth"
	"finsync/internal/core"
	"finsync/internal/realtime"
	"finsync/internal/storage"
)

// UserService maintains the local mirror of identity-provider accounts and
// the user-facing profile operations.
type UserService struct {
	storage *storage.Repository
	events  EventPublisher
}

func NewUserService(st *storage.Repository, events EventPublisher) *UserService {
	return &UserService{storage: st, events: events}
}

// Resolve maps a verified token identity onto the local user record,
// creating it lazily on first sight.
func (s *UserService) Resolve(ctx context.Context, id auth.Identity) (core.User, error) {
	u, err := s.storage.GetOrCreateUser(ctx, id.Subject, id.Email, id.Name, id.Role)
	if err != nil {
		return core.User{}, fmt.Errorf("resolve user: %w", err)
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (core.User, error) {
	return s.storage.GetUser(ctx, id)
}

// UpdateProfile stores the display name and preferences.
func (s *UserService) UpdateProfile(ctx context.Context, id, name string, prefs core.Preferences) (core.User, error) {
	valid := false
	for _, c := range core.Currencies {
		if prefs.Currency == c {
			valid = true
			break
		}
	}
	if !valid {
		return core.User{}, fmt.Errorf("unknown currency %q", prefs.Currency)
	}
	return s.storage.UpdateUserProfile(ctx, id, name, prefs)
}

// Stats returns the user's per-collection record counts.
func (s *UserService) Stats(ctx context.Context, id string) (storage.OwnerCounts, error) {
	return s.storage.CountOwnerRecords(ctx, id)
}

// Reset wipes every record the user owns and notifies their open sessions.
func (s *UserService) Reset(ctx context.Context, id string) error {
	if err := s.storage.ResetOwnerData(ctx, id); err != nil {
		return err
	}
	if s.events != nil {
		s.events.PublishToUser(id, realtime.NewEvent(realtime.EventDataReset, nil))
	}
	return nil
}
