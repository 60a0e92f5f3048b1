package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/dafibh/qfin/qfin-backend/internal/util"
	"github.com/dafibh/qfin/qfin-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// TransactionService handles transaction-related business logic
type TransactionService struct {
	transactionRepo domain.TransactionRepository
	eventPublisher  websocket.EventPublisher
	now             func() time.Time
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(transactionRepo domain.TransactionRepository) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		now:             time.Now,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *TransactionService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock replaces the clock used to default transaction dates
func (s *TransactionService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *TransactionService) publishEvent(ownerID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(ownerID, event)
	}
}

// CreateTransactionInput holds the input for creating a transaction
type CreateTransactionInput struct {
	Type        domain.TransactionType
	Amount      decimal.Decimal
	Category    string
	Description string
	Date        *time.Time
}

// UpdateTransactionInput holds the input for updating a transaction.
// The type is fixed at creation.
type UpdateTransactionInput struct {
	Amount      decimal.Decimal
	Category    string
	Description string
	Date        time.Time
}

// CreateTransaction creates a new transaction with validation
func (s *TransactionService) CreateTransaction(ctx context.Context, ownerID int32, input CreateTransactionInput) (*domain.Transaction, error) {
	// Default date to today if not provided
	date := util.DateOnly(s.now())
	if input.Date != nil {
		date = util.DateOnly(*input.Date)
	}

	transaction := &domain.Transaction{
		OwnerID:     ownerID,
		Type:        input.Type,
		Amount:      input.Amount,
		Category:    strings.TrimSpace(input.Category),
		Description: strings.TrimSpace(input.Description),
		Date:        date,
	}
	if err := transaction.Validate(); err != nil {
		return nil, err
	}

	created, err := s.transactionRepo.Create(ctx, transaction)
	if err != nil {
		return nil, domain.NewStorageError("create transaction", err)
	}

	s.publishEvent(ownerID, websocket.TransactionCreated(created))
	return created, nil
}

// GetTransaction retrieves a transaction of the owner
func (s *TransactionService) GetTransaction(ctx context.Context, ownerID int32, id int32) (*domain.Transaction, error) {
	transaction, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewStorageError("get transaction", err)
	}
	if err := domain.CheckOwner("transaction", transaction, ownerID); err != nil {
		return nil, err
	}
	return transaction, nil
}

// ListTransactions returns the owner's transactions, newest first
func (s *TransactionService) ListTransactions(ctx context.Context, ownerID int32) ([]*domain.Transaction, error) {
	transactions, err := s.transactionRepo.GetAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.NewStorageError("list transactions", err)
	}
	SortTransactions(transactions)
	return transactions, nil
}

// UpdateTransaction replaces the editable fields of a transaction
func (s *TransactionService) UpdateTransaction(ctx context.Context, ownerID int32, id int32, input UpdateTransactionInput) (*domain.Transaction, error) {
	transaction, err := s.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	transaction.Amount = input.Amount
	transaction.Category = strings.TrimSpace(input.Category)
	transaction.Description = strings.TrimSpace(input.Description)
	transaction.Date = util.DateOnly(input.Date)
	if err := transaction.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.transactionRepo.Update(ctx, transaction)
	if err != nil {
		return nil, domain.NewStorageError("update transaction", err)
	}

	s.publishEvent(ownerID, websocket.TransactionUpdated(updated))
	return updated, nil
}

// DeleteTransaction removes a transaction of the owner
func (s *TransactionService) DeleteTransaction(ctx context.Context, ownerID int32, id int32) error {
	if _, err := s.GetTransaction(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.transactionRepo.Delete(ctx, id); err != nil {
		return domain.NewStorageError("delete transaction", err)
	}

	s.publishEvent(ownerID, websocket.TransactionDeleted(id))
	return nil
}

// SortTransactions orders transactions by date descending, then ID descending
func SortTransactions(transactions []*domain.Transaction) {
	sort.SliceStable(transactions, func(i, j int) bool {
		a, b := transactions[i], transactions[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.ID > b.ID
	})
}
