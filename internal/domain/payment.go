package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrPaymentNotFound      = NotFound("payment")
	ErrPaymentAmountInvalid = invalidField("amount", "must be greater than 0")
	ErrPaymentDescTooLong   = invalidField("description", "exceeds maximum length")
)

// Payment is an installment paid against a financing
type Payment struct {
	ID          int32           `json:"id"`
	FinancingID int32           `json:"financingId"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"paymentDate"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (p *Payment) Validate() error {
	if p.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrPaymentAmountInvalid
	}
	if len(p.Description) > MaxDescriptionLength {
		return ErrPaymentDescTooLong
	}
	return nil
}

type PaymentRepository interface {
	GetByID(ctx context.Context, id int32) (*Payment, error)
	GetByFinancingID(ctx context.Context, financingID int32) ([]*Payment, error)
	// CreateWithBalance inserts payment and writes financing.RemainingAmount in a
	// single unit of work. The financing write only succeeds when the stored
	// version equals financing.Version; otherwise nothing is written and
	// ErrConcurrentUpdate is returned. On success financing.Version and
	// financing.UpdatedAt reflect the stored row.
	CreateWithBalance(ctx context.Context, financing *Financing, payment *Payment) (*Payment, error)
	// DeleteWithBalance deletes the payment and writes financing.RemainingAmount
	// under the same version check as CreateWithBalance.
	DeleteWithBalance(ctx context.Context, financing *Financing, paymentID int32) error
}
