package service

import (
	"context"
	"time"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/dafibh/qfin/qfin-backend/internal/lock"
	"github.com/dafibh/qfin/qfin-backend/internal/util"
	"github.com/dafibh/qfin/qfin-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// GoalService tracks savings goals. The state machine itself lives on
// domain.Goal; the service loads, locks, persists and announces.
type GoalService struct {
	goalRepo       domain.GoalRepository
	locks          *lock.KeyedMutex[int32]
	eventPublisher websocket.EventPublisher
}

// NewGoalService creates a new GoalService
func NewGoalService(goalRepo domain.GoalRepository) *GoalService {
	return &GoalService{
		goalRepo: goalRepo,
		locks:    lock.NewKeyedMutex[int32](),
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *GoalService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *GoalService) publishEvent(ownerID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(ownerID, event)
	}
}

// GoalInput holds the editable fields of a goal
type GoalInput struct {
	Name          string
	Description   string
	Type          domain.GoalType
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	TargetDate    time.Time
}

// CreateGoal creates an IN_PROGRESS goal. Auto-completion is first evaluated
// by the next AddAmount or UpdateGoal.
func (s *GoalService) CreateGoal(ctx context.Context, ownerID int32, input GoalInput) (*domain.Goal, error) {
	goal, err := domain.NewGoal(ownerID, goalUpdate(input))
	if err != nil {
		return nil, err
	}

	created, err := s.goalRepo.Create(ctx, goal)
	if err != nil {
		return nil, domain.NewStorageError("create goal", err)
	}

	log.Info().Int32("owner_id", ownerID).Int32("goal_id", created.ID).Str("status", string(created.Status)).Msg("Goal created")
	s.publishEvent(ownerID, websocket.GoalCreated(created))
	return created, nil
}

// GetGoal returns a goal of the owner
func (s *GoalService) GetGoal(ctx context.Context, ownerID int32, id int32) (*domain.Goal, error) {
	goal, err := s.goalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewStorageError("get goal", err)
	}
	if err := domain.CheckOwner("goal", goal, ownerID); err != nil {
		return nil, err
	}
	return goal, nil
}

// ListGoals returns every goal of the owner
func (s *GoalService) ListGoals(ctx context.Context, ownerID int32) ([]*domain.Goal, error) {
	goals, err := s.goalRepo.GetAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.NewStorageError("list goals", err)
	}
	return goals, nil
}

// UpdateGoal replaces the editable fields of a goal. Finished goals accept
// edits that keep the current amount.
func (s *GoalService) UpdateGoal(ctx context.Context, ownerID int32, id int32, input GoalInput) (*domain.Goal, error) {
	return s.transition(ctx, ownerID, id, func(g *domain.Goal) error {
		return g.ApplyUpdate(goalUpdate(input))
	})
}

// AddAmount adds a contribution to an IN_PROGRESS goal
func (s *GoalService) AddAmount(ctx context.Context, ownerID int32, id int32, amount decimal.Decimal) (*domain.Goal, error) {
	return s.transition(ctx, ownerID, id, func(g *domain.Goal) error {
		return g.AddAmount(amount)
	})
}

// CompleteGoal marks a goal COMPLETED regardless of its amounts
func (s *GoalService) CompleteGoal(ctx context.Context, ownerID int32, id int32) (*domain.Goal, error) {
	return s.transition(ctx, ownerID, id, func(g *domain.Goal) error {
		return g.Complete()
	})
}

// CancelGoal marks a goal CANCELLED from any state
func (s *GoalService) CancelGoal(ctx context.Context, ownerID int32, id int32) (*domain.Goal, error) {
	return s.transition(ctx, ownerID, id, func(g *domain.Goal) error {
		g.Cancel()
		return nil
	})
}

// DeleteGoal removes a goal
func (s *GoalService) DeleteGoal(ctx context.Context, ownerID int32, id int32) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.GetGoal(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.goalRepo.Delete(ctx, id); err != nil {
		return domain.NewStorageError("delete goal", err)
	}

	s.publishEvent(ownerID, websocket.GoalDeleted(id))
	return nil
}

// transition runs one read-modify-write of a goal under its lock
func (s *GoalService) transition(ctx context.Context, ownerID int32, id int32, apply func(*domain.Goal) error) (*domain.Goal, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	goal, err := s.GetGoal(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	before := goal.Status

	if err := apply(goal); err != nil {
		return nil, err
	}

	updated, err := s.goalRepo.Update(ctx, goal)
	if err != nil {
		return nil, domain.NewStorageError("update goal", err)
	}

	switch {
	case updated.Status == before:
		s.publishEvent(ownerID, websocket.GoalUpdated(updated))
	case updated.Status == domain.GoalStatusCompleted:
		log.Info().Int32("owner_id", ownerID).Int32("goal_id", id).Msg("Goal completed")
		s.publishEvent(ownerID, websocket.GoalCompleted(updated))
	case updated.Status == domain.GoalStatusCancelled:
		log.Info().Int32("owner_id", ownerID).Int32("goal_id", id).Msg("Goal cancelled")
		s.publishEvent(ownerID, websocket.GoalCancelled(updated))
	}
	return updated, nil
}

func goalUpdate(input GoalInput) domain.GoalUpdate {
	return domain.GoalUpdate{
		Name:          input.Name,
		Description:   input.Description,
		Type:          input.Type,
		TargetAmount:  input.TargetAmount,
		CurrentAmount: input.CurrentAmount,
		TargetDate:    util.DateOnly(input.TargetDate),
	}
}
