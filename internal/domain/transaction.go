package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrTransactionNotFound    = NotFound("transaction")
	ErrTransactionTypeInvalid = invalidField("type", "must be INCOME or EXPENSE")
	ErrTransactionAmount      = invalidField("amount", "must be greater than 0")
	ErrTransactionCategory    = invalidField("category", "is required")
	ErrTransactionDescription = invalidField("description", "is required")
	ErrTransactionDate        = invalidField("date", "is required")
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// Valid reports whether t is one of the known transaction types
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense:
		return true
	}
	return false
}

// ParseTransactionType parses a transaction type, case-insensitively
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrTransactionTypeInvalid
	}
	return t, nil
}

type Transaction struct {
	ID          int32           `json:"id"`
	OwnerID     int32           `json:"ownerId"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (t *Transaction) Owner() int32 {
	return t.OwnerID
}

func (t *Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrTransactionTypeInvalid
	}
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrTransactionAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrTransactionCategory
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrTransactionDescription
	}
	if len(t.Description) > MaxDescriptionLength {
		return invalidField("description", "exceeds maximum length")
	}
	if t.Date.IsZero() {
		return ErrTransactionDate
	}
	return nil
}

type TransactionRepository interface {
	Create(ctx context.Context, transaction *Transaction) (*Transaction, error)
	GetByID(ctx context.Context, id int32) (*Transaction, error)
	GetAllByOwner(ctx context.Context, ownerID int32) ([]*Transaction, error)
	// GetByOwnerAndDateRange returns the owner's transactions dated within
	// [start, end], both bounds inclusive at day precision.
	GetByOwnerAndDateRange(ctx context.Context, ownerID int32, start, end time.Time) ([]*Transaction, error)
	Update(ctx context.Context, transaction *Transaction) (*Transaction, error)
	Delete(ctx context.Context, id int32) error
}
