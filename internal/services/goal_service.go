package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finsync/internal/core"
	"finsync/internal/realtime"
	"finsync/internal/storage"
)

// GoalService manages savings goals, including the automatic transition to
// completed when the target is reached.
type GoalService struct {
	storage *storage.Repository
	events  EventPublisher
}

func NewGoalService(st *storage.Repository, events EventPublisher) *GoalService {
	return &GoalService{storage: st, events: events}
}

// GoalView decorates a goal with its derived progress figures.
type GoalView struct {
	core.Goal
	Progress        float64 `json:"progress"`
	SuggestedWeekly float64 `json:"suggestedWeeklySaving"`
}

func viewOf(g core.Goal, now time.Time) GoalView {
	v := GoalView{Goal: g, SuggestedWeekly: g.SuggestedWeekly(now)}
	if g.TargetAmount > 0 {
		v.Progress = g.CurrentAmount / g.TargetAmount * 100
	}
	return v
}

func (s *GoalService) Create(ctx context.Context, g core.Goal) (GoalView, error) {
	if err := g.Validate(); err != nil {
		return GoalView{}, err
	}

	saved, err := s.storage.CreateGoal(ctx, g)
	if err != nil {
		return GoalView{}, fmt.Errorf("create goal: %w", err)
	}

	view := viewOf(saved, time.Now())
	s.publish(saved.OwnerID, realtime.EventGoalCreated, view)
	return view, nil
}

// Update stores new goal values. An active goal whose current amount now
// covers its target is completed automatically.
func (s *GoalService) Update(ctx context.Context, g core.Goal) (GoalView, error) {
	if err := g.Validate(); err != nil {
		return GoalView{}, err
	}

	existing, err := s.storage.GetGoal(ctx, g.OwnerID, g.ID)
	if err != nil {
		return GoalView{}, err
	}
	if g.Status == "" {
		g.Status = existing.Status
	}

	completed := false
	if g.Status == core.GoalActive && g.Reached() {
		g.Status = core.GoalCompleted
		completed = true
	}

	saved, err := s.storage.UpdateGoal(ctx, g)
	if err != nil {
		return GoalView{}, err
	}

	view := viewOf(saved, time.Now())
	if completed {
		slog.InfoContext(ctx, "Goal completed", "id", saved.ID, "title", saved.Title)
		s.publish(saved.OwnerID, realtime.EventGoalCompleted, view)
	} else {
		s.publish(saved.OwnerID, realtime.EventGoalUpdated, view)
	}
	return view, nil
}

func (s *GoalService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.storage.DeleteGoal(ctx, ownerID, id); err != nil {
		return err
	}
	s.publish(ownerID, realtime.EventGoalDeleted, map[string]string{"id": id})
	return nil
}

func (s *GoalService) Get(ctx context.Context, ownerID, id string) (GoalView, error) {
	g, err := s.storage.GetGoal(ctx, ownerID, id)
	if err != nil {
		return GoalView{}, err
	}
	return viewOf(g, time.Now()), nil
}

func (s *GoalService) List(ctx context.Context, ownerID string, status core.GoalStatus) ([]GoalView, error) {
	goals, err := s.storage.ListGoals(ctx, ownerID, status)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	views := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, viewOf(g, now))
	}
	return views, nil
}

func (s *GoalService) publish(userID, name string, payload any) {
	if s.events == nil {
		return
	}
	s.events.PublishToUser(userID, realtime.NewEvent(name, payload))
}
