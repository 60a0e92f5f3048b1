package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/dafibh/qfin/qfin-backend/internal/lock"
	"github.com/dafibh/qfin/qfin-backend/internal/util"
	"github.com/dafibh/qfin/qfin-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// PaymentService is the financing ledger: it applies and reverses payments
// while keeping the financing's remaining amount in step.
//
// Every balance change runs under the financing's lock and is written together
// with the payment row by a version-checked repository call, so concurrent
// payments on one financing never lose an update.
type PaymentService struct {
	financingRepo  domain.FinancingRepository
	paymentRepo    domain.PaymentRepository
	locks          *lock.KeyedMutex[int32]
	eventPublisher websocket.EventPublisher
	now            func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(financingRepo domain.FinancingRepository, paymentRepo domain.PaymentRepository, locks *lock.KeyedMutex[int32]) *PaymentService {
	return &PaymentService{
		financingRepo: financingRepo,
		paymentRepo:   paymentRepo,
		locks:         locks,
		now:           time.Now,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *PaymentService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock replaces the clock used to default payment dates
func (s *PaymentService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *PaymentService) publishEvent(ownerID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(ownerID, event)
	}
}

// ApplyPaymentInput holds the input for applying a payment.
// PaymentDate defaults to today when nil.
type ApplyPaymentInput struct {
	Amount      decimal.Decimal
	PaymentDate *time.Time
	Description string
}

// ApplyPayment records a payment and lowers the financing's remaining amount,
// clamping at zero
func (s *PaymentService) ApplyPayment(ctx context.Context, ownerID int32, financingID int32, input ApplyPaymentInput) (*domain.Payment, error) {
	unlock := s.locks.Lock(financingID)
	defer unlock()

	financing, err := s.ownedFinancing(ctx, ownerID, financingID)
	if err != nil {
		return nil, err
	}

	paymentDate := util.DateOnly(s.now())
	if input.PaymentDate != nil {
		paymentDate = util.DateOnly(*input.PaymentDate)
	}
	payment := &domain.Payment{
		FinancingID: financingID,
		Amount:      input.Amount,
		PaymentDate: paymentDate,
		Description: strings.TrimSpace(input.Description),
	}
	if err := payment.Validate(); err != nil {
		return nil, err
	}

	financing.RemainingAmount = financing.BalanceAfterPayment(payment.Amount)

	created, err := s.paymentRepo.CreateWithBalance(ctx, financing, payment)
	if err != nil {
		return nil, domain.NewStorageError("apply payment", err)
	}

	log.Info().
		Int32("owner_id", ownerID).
		Int32("financing_id", financingID).
		Int32("payment_id", created.ID).
		Str("amount", created.Amount.StringFixed(2)).
		Str("remaining", financing.RemainingAmount.StringFixed(2)).
		Msg("Payment applied")
	s.publishEvent(ownerID, websocket.FinancingPaymentApplied(financing, created))
	return created, nil
}

// ReversePayment deletes a payment and restores its amount to the financing,
// clamping at the total amount
func (s *PaymentService) ReversePayment(ctx context.Context, ownerID int32, paymentID int32) error {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return domain.NewStorageError("get payment", err)
	}
	return s.reverse(ctx, ownerID, payment)
}

// ReverseFinancingPayment is ReversePayment for a payment addressed through its
// financing. A payment of another financing is reported as not found.
func (s *PaymentService) ReverseFinancingPayment(ctx context.Context, ownerID int32, financingID int32, paymentID int32) error {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return domain.NewStorageError("get payment", err)
	}
	if payment.FinancingID != financingID {
		return domain.ErrPaymentNotFound
	}
	return s.reverse(ctx, ownerID, payment)
}

func (s *PaymentService) reverse(ctx context.Context, ownerID int32, payment *domain.Payment) error {
	unlock := s.locks.Lock(payment.FinancingID)
	defer unlock()

	financing, err := s.ownedFinancing(ctx, ownerID, payment.FinancingID)
	if err != nil {
		return err
	}

	financing.RemainingAmount = financing.BalanceAfterReversal(payment.Amount)

	// The payment may have been reversed while we waited for the lock; the
	// repository then reports it missing and nothing is written.
	if err := s.paymentRepo.DeleteWithBalance(ctx, financing, payment.ID); err != nil {
		return domain.NewStorageError("reverse payment", err)
	}

	log.Info().
		Int32("owner_id", ownerID).
		Int32("financing_id", financing.ID).
		Int32("payment_id", payment.ID).
		Str("amount", payment.Amount.StringFixed(2)).
		Str("remaining", financing.RemainingAmount.StringFixed(2)).
		Msg("Payment reversed")
	s.publishEvent(ownerID, websocket.FinancingPaymentReversed(financing, payment))
	return nil
}

// ListPayments returns the payments of a financing, newest first. A financing
// that does not exist or belongs to someone else yields an empty list.
func (s *PaymentService) ListPayments(ctx context.Context, ownerID int32, financingID int32) ([]*domain.Payment, error) {
	if _, err := s.ownedFinancing(ctx, ownerID, financingID); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrForbidden) {
			return []*domain.Payment{}, nil
		}
		return nil, err
	}

	payments, err := s.paymentRepo.GetByFinancingID(ctx, financingID)
	if err != nil {
		return nil, domain.NewStorageError("list payments", err)
	}
	return payments, nil
}

func (s *PaymentService) ownedFinancing(ctx context.Context, ownerID int32, financingID int32) (*domain.Financing, error) {
	financing, err := s.financingRepo.GetByID(ctx, financingID)
	if err != nil {
		return nil, domain.NewStorageError("get financing", err)
	}
	if err := domain.CheckOwner("financing", financing, ownerID); err != nil {
		return nil, err
	}
	return financing, nil
}
