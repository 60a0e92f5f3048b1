package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestFinancingBalanceAfterPayment(t *testing.T) {
	tests := []struct {
		name      string
		remaining string
		amount    string
		want      string
	}{
		{"partial payment", "1000", "250", "750"},
		{"exact payoff", "100", "100", "0"},
		{"overpayment clamps at zero", "100", "150", "0"},
		{"cents", "10.10", "0.15", "9.95"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Financing{TotalAmount: d("1000"), RemainingAmount: d(tt.remaining)}
			got := f.BalanceAfterPayment(d(tt.amount))
			assert.True(t, got.Equal(d(tt.want)), "got %s want %s", got, tt.want)
			assert.True(t, f.RemainingAmount.Equal(d(tt.remaining)), "receiver must not change")
		})
	}
}

func TestFinancingBalanceAfterReversal(t *testing.T) {
	tests := []struct {
		name      string
		remaining string
		amount    string
		want      string
	}{
		{"restores amount", "750", "250", "1000"},
		{"clamps at total", "950", "200", "1000"},
		{"after clamped overpayment", "0", "150", "150"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Financing{TotalAmount: d("1000"), RemainingAmount: d(tt.remaining)}
			got := f.BalanceAfterReversal(d(tt.amount))
			assert.True(t, got.Equal(d(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestFinancingPaidAmount(t *testing.T) {
	f := &Financing{TotalAmount: d("1000"), RemainingAmount: d("400")}
	assert.True(t, f.PaidAmount().Equal(d("600")))
	assert.False(t, f.IsPaidOff())

	f.RemainingAmount = decimal.Zero
	assert.True(t, f.IsPaidOff())
}

func TestFinancingTypeValid(t *testing.T) {
	for _, ft := range []FinancingType{
		FinancingTypeLoan, FinancingTypeMortgage, FinancingTypeCar,
		FinancingTypePersonalLoan, FinancingTypeStudentLoan, FinancingTypeOther,
	} {
		assert.True(t, ft.Valid(), string(ft))
	}
	assert.False(t, FinancingType("LEASE").Valid())
	assert.False(t, FinancingType("loan").Valid())
}

func TestSumFinancings(t *testing.T) {
	totals := SumFinancings([]*Financing{
		{TotalAmount: d("1000"), RemainingAmount: d("400"), MonthlyPayment: d("50")},
		{TotalAmount: d("250.50"), RemainingAmount: d("250.50"), MonthlyPayment: d("25.25")},
	})

	assert.Equal(t, 2, totals.Count)
	assert.True(t, totals.TotalAmount.Equal(d("1250.50")))
	assert.True(t, totals.RemainingAmount.Equal(d("650.50")))
	assert.True(t, totals.MonthlyPayments.Equal(d("75.25")))

	empty := SumFinancings(nil)
	assert.Equal(t, 0, empty.Count)
	assert.True(t, empty.TotalAmount.IsZero())
}

func TestPaymentValidate(t *testing.T) {
	assert.ErrorIs(t, (&Payment{Amount: decimal.Zero}).Validate(), ErrPaymentAmountInvalid)
	assert.ErrorIs(t, (&Payment{Amount: d("-1")}).Validate(), ErrInvalidInput)
	assert.NoError(t, (&Payment{Amount: d("0.01")}).Validate())
}
