package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrFinancingNotFound         = NotFound("financing")
	ErrFinancingNameEmpty        = invalidField("name", "is required")
	ErrFinancingNameTooLong      = invalidField("name", "must be 200 characters or less")
	ErrFinancingTotalInvalid     = invalidField("totalAmount", "must be greater than 0")
	ErrFinancingRemainingInvalid = invalidField("remainingAmount", "must be between 0 and totalAmount")
	ErrFinancingMonthlyInvalid   = invalidField("monthlyPayment", "must be greater than 0")
	ErrFinancingTypeInvalid      = invalidField("type", "is not a known financing type")
	ErrFinancingEndDateRequired  = invalidField("endDate", "is required")
)

type FinancingType string

const (
	FinancingTypeLoan         FinancingType = "LOAN"
	FinancingTypeMortgage     FinancingType = "MORTGAGE"
	FinancingTypeCar          FinancingType = "CAR_FINANCING"
	FinancingTypePersonalLoan FinancingType = "PERSONAL_LOAN"
	FinancingTypeStudentLoan  FinancingType = "STUDENT_LOAN"
	FinancingTypeOther        FinancingType = "OTHER"
)

func (t FinancingType) Valid() bool {
	switch t {
	case FinancingTypeLoan, FinancingTypeMortgage, FinancingTypeCar,
		FinancingTypePersonalLoan, FinancingTypeStudentLoan, FinancingTypeOther:
		return true
	}
	return false
}

// Financing is an installment debt. RemainingAmount is materialized at write
// time: every payment insert or delete updates it in the same unit of work.
type Financing struct {
	ID              int32           `json:"id"`
	OwnerID         int32           `json:"ownerId"`
	Name            string          `json:"name"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
	MonthlyPayment  decimal.Decimal `json:"monthlyPayment"`
	Type            FinancingType   `json:"type"`
	EndDate         time.Time       `json:"endDate"`
	Version         int32           `json:"-"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (f *Financing) Owner() int32 {
	return f.OwnerID
}

func (f *Financing) Validate() error {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return ErrFinancingNameEmpty
	}
	if len(name) > MaxNameLength {
		return ErrFinancingNameTooLong
	}
	if f.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return ErrFinancingTotalInvalid
	}
	if f.RemainingAmount.IsNegative() || f.RemainingAmount.GreaterThan(f.TotalAmount) {
		return ErrFinancingRemainingInvalid
	}
	if f.MonthlyPayment.LessThanOrEqual(decimal.Zero) {
		return ErrFinancingMonthlyInvalid
	}
	if !f.Type.Valid() {
		return ErrFinancingTypeInvalid
	}
	if f.EndDate.IsZero() {
		return ErrFinancingEndDateRequired
	}
	return nil
}

// BalanceAfterPayment returns the remaining amount once amount is paid,
// clamped at zero. Overpayment is silently truncated.
func (f *Financing) BalanceAfterPayment(amount decimal.Decimal) decimal.Decimal {
	remaining := f.RemainingAmount.Sub(amount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// BalanceAfterReversal returns the remaining amount once a payment of amount is
// undone, clamped at TotalAmount. After an overpayment was clamped on apply,
// the reversal restores less than was originally owed.
func (f *Financing) BalanceAfterReversal(amount decimal.Decimal) decimal.Decimal {
	remaining := f.RemainingAmount.Add(amount)
	if remaining.GreaterThan(f.TotalAmount) {
		return f.TotalAmount
	}
	return remaining
}

// PaidAmount returns how much of the total has been paid off
func (f *Financing) PaidAmount() decimal.Decimal {
	return f.TotalAmount.Sub(f.RemainingAmount)
}

// IsPaidOff returns true once nothing remains to be paid
func (f *Financing) IsPaidOff() bool {
	return f.RemainingAmount.IsZero()
}

// FinancingTotals aggregates an owner's financings for reports
type FinancingTotals struct {
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
	MonthlyPayments decimal.Decimal `json:"monthlyPayments"`
	Count           int             `json:"count"`
}

// SumFinancings totals the given financings
func SumFinancings(financings []*Financing) FinancingTotals {
	totals := FinancingTotals{
		TotalAmount:     decimal.Zero,
		RemainingAmount: decimal.Zero,
		MonthlyPayments: decimal.Zero,
	}
	for _, f := range financings {
		totals.TotalAmount = totals.TotalAmount.Add(f.TotalAmount)
		totals.RemainingAmount = totals.RemainingAmount.Add(f.RemainingAmount)
		totals.MonthlyPayments = totals.MonthlyPayments.Add(f.MonthlyPayment)
		totals.Count++
	}
	return totals
}

type FinancingRepository interface {
	Create(ctx context.Context, financing *Financing) (*Financing, error)
	GetByID(ctx context.Context, id int32) (*Financing, error)
	GetAllByOwner(ctx context.Context, ownerID int32) ([]*Financing, error)
	// Update persists financing if its stored version still equals
	// financing.Version, otherwise it fails with ErrConcurrentUpdate.
	Update(ctx context.Context, financing *Financing) (*Financing, error)
	// Delete removes the financing together with its payments
	Delete(ctx context.Context, id int32) error
}
