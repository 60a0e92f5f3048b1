package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrReportRangeInvalid = invalidField("endDate", "must not be before startDate")

// ReportFilter selects transactions for reports. Nil fields mean "no filter";
// nil dates are defaulted by the report service from its clock.
type ReportFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Type      *TransactionType
	Category  *string
}

// ParseTypeFilter parses the type filter of a report request. Empty and "ALL"
// both mean no type filter.
func ParseTypeFilter(s string) (*TransactionType, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "ALL") {
		return nil, nil
	}
	t, err := ParseTransactionType(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Matches reports whether t passes the type and category parts of the filter
func (f ReportFilter) Matches(t *Transaction) bool {
	if f.Type != nil && t.Type != *f.Type {
		return false
	}
	if f.Category != nil && t.Category != *f.Category {
		return false
	}
	return true
}

// CategorySummary is one row of a report's category breakdown
type CategorySummary struct {
	Category         string          `json:"category"`
	Type             TransactionType `json:"type"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	TransactionCount int64           `json:"transactionCount"`
}

// ReportSummary holds the aggregates of a report. Totals cover the whole date
// range; TransactionCount and CategoryBreakdown honor every filter.
type ReportSummary struct {
	StartDate         time.Time         `json:"startDate"`
	EndDate           time.Time         `json:"endDate"`
	TotalIncome       decimal.Decimal   `json:"totalIncome"`
	TotalExpense      decimal.Decimal   `json:"totalExpense"`
	Balance           decimal.Decimal   `json:"balance"`
	TransactionCount  int64             `json:"transactionCount"`
	CategoryBreakdown []CategorySummary `json:"categoryBreakdown"`
}

// GoalProgress is a goal row in the rendered report
type GoalProgress struct {
	Name          string          `json:"name"`
	Status        GoalStatus      `json:"status"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	Percentage    float64         `json:"percentage"`
	TargetDate    time.Time       `json:"targetDate"`
}

// ReportDocument is everything the rendered report view presents
type ReportDocument struct {
	GeneratedAt     time.Time
	Summary         *ReportSummary
	Transactions    []*Transaction
	Financings      []*Financing
	FinancingTotals FinancingTotals
	Goals           []GoalProgress
}
