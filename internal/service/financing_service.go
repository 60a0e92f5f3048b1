package service

import (
	"context"
	"strings"
	"time"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/dafibh/qfin/qfin-backend/internal/lock"
	"github.com/dafibh/qfin/qfin-backend/internal/util"
	"github.com/dafibh/qfin/qfin-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// FinancingService handles financing CRUD. Writes take the same per-financing
// lock as the payment ledger so an edit never interleaves with a payment.
type FinancingService struct {
	financingRepo  domain.FinancingRepository
	locks          *lock.KeyedMutex[int32]
	eventPublisher websocket.EventPublisher
}

// NewFinancingService creates a new FinancingService. locks must be the registry
// shared with the PaymentService.
func NewFinancingService(financingRepo domain.FinancingRepository, locks *lock.KeyedMutex[int32]) *FinancingService {
	return &FinancingService{
		financingRepo: financingRepo,
		locks:         locks,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *FinancingService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *FinancingService) publishEvent(ownerID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(ownerID, event)
	}
}

// FinancingInput holds the editable fields of a financing.
// RemainingAmount defaults to TotalAmount on create and is kept on update when nil.
type FinancingInput struct {
	Name            string
	TotalAmount     decimal.Decimal
	RemainingAmount *decimal.Decimal
	MonthlyPayment  decimal.Decimal
	Type            domain.FinancingType
	EndDate         time.Time
}

// CreateFinancing creates a financing for the owner
func (s *FinancingService) CreateFinancing(ctx context.Context, ownerID int32, input FinancingInput) (*domain.Financing, error) {
	remaining := input.TotalAmount
	if input.RemainingAmount != nil {
		remaining = *input.RemainingAmount
	}

	financing := &domain.Financing{
		OwnerID:         ownerID,
		Name:            strings.TrimSpace(input.Name),
		TotalAmount:     input.TotalAmount,
		RemainingAmount: remaining,
		MonthlyPayment:  input.MonthlyPayment,
		Type:            input.Type,
		EndDate:         util.DateOnly(input.EndDate),
	}
	if err := financing.Validate(); err != nil {
		return nil, err
	}

	created, err := s.financingRepo.Create(ctx, financing)
	if err != nil {
		return nil, domain.NewStorageError("create financing", err)
	}

	log.Info().Int32("owner_id", ownerID).Int32("financing_id", created.ID).Msg("Financing created")
	s.publishEvent(ownerID, websocket.FinancingCreated(created))
	return created, nil
}

// GetFinancing returns a financing of the owner
func (s *FinancingService) GetFinancing(ctx context.Context, ownerID int32, id int32) (*domain.Financing, error) {
	financing, err := s.financingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewStorageError("get financing", err)
	}
	if err := domain.CheckOwner("financing", financing, ownerID); err != nil {
		return nil, err
	}
	return financing, nil
}

// ListFinancings returns every financing of the owner
func (s *FinancingService) ListFinancings(ctx context.Context, ownerID int32) ([]*domain.Financing, error) {
	financings, err := s.financingRepo.GetAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.NewStorageError("list financings", err)
	}
	return financings, nil
}

// GetTotals sums the owner's financings
func (s *FinancingService) GetTotals(ctx context.Context, ownerID int32) (domain.FinancingTotals, error) {
	financings, err := s.ListFinancings(ctx, ownerID)
	if err != nil {
		return domain.FinancingTotals{}, err
	}
	return domain.SumFinancings(financings), nil
}

// UpdateFinancing replaces the editable fields and re-checks the balance invariant
func (s *FinancingService) UpdateFinancing(ctx context.Context, ownerID int32, id int32, input FinancingInput) (*domain.Financing, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	financing, err := s.GetFinancing(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	financing.Name = strings.TrimSpace(input.Name)
	financing.TotalAmount = input.TotalAmount
	if input.RemainingAmount != nil {
		financing.RemainingAmount = *input.RemainingAmount
	}
	financing.MonthlyPayment = input.MonthlyPayment
	financing.Type = input.Type
	financing.EndDate = util.DateOnly(input.EndDate)
	if err := financing.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.financingRepo.Update(ctx, financing)
	if err != nil {
		return nil, domain.NewStorageError("update financing", err)
	}

	s.publishEvent(ownerID, websocket.FinancingUpdated(updated))
	return updated, nil
}

// DeleteFinancing removes a financing and its payments
func (s *FinancingService) DeleteFinancing(ctx context.Context, ownerID int32, id int32) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.GetFinancing(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.financingRepo.Delete(ctx, id); err != nil {
		return domain.NewStorageError("delete financing", err)
	}

	log.Info().Int32("owner_id", ownerID).Int32("financing_id", id).Msg("Financing deleted")
	s.publishEvent(ownerID, websocket.FinancingDeleted(id))
	return nil
}
