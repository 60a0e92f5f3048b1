package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/dafibh/qfin/qfin-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reportFixture struct {
	transactions *testutil.MockTransactionRepository
	financings   *testutil.MockFinancingRepository
	goals        *testutil.MockGoalRepository
	service      *ReportService
}

var reportToday = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func setupReports() *reportFixture {
	f := &reportFixture{
		transactions: testutil.NewMockTransactionRepository(),
		financings:   testutil.NewMockFinancingRepository(),
		goals:        testutil.NewMockGoalRepository(),
	}
	f.service = NewReportService(f.transactions, f.financings, f.goals)
	f.service.SetClock(fixedClock(reportToday))
	return f
}

func (f *reportFixture) add(ownerID int32, txType domain.TransactionType, amount, category string, date time.Time) *domain.Transaction {
	return f.transactions.AddTransaction(&domain.Transaction{
		OwnerID:     ownerID,
		Type:        txType,
		Amount:      dec(amount),
		Category:    category,
		Description: category + " entry",
		Date:        date,
	})
}

func june(day int) time.Time {
	return time.Date(2024, 6, day, 0, 0, 0, 0, time.UTC)
}

func datePtr(t time.Time) *time.Time {
	return &t
}

func TestSummarize_IncomeExpenseBalance(t *testing.T) {
	f := setupReports()
	f.add(1, domain.TransactionTypeIncome, "100", "Salary", june(1))
	f.add(1, domain.TransactionTypeExpense, "40", "Food", june(2))

	summary, err := f.service.Summarize(context.Background(), 1, domain.ReportFilter{
		StartDate: datePtr(june(1)),
		EndDate:   datePtr(june(30)),
	})
	require.NoError(t, err)

	assert.True(t, summary.TotalIncome.Equal(dec("100")))
	assert.True(t, summary.TotalExpense.Equal(dec("40")))
	assert.True(t, summary.Balance.Equal(dec("60")))
	assert.Equal(t, int64(2), summary.TransactionCount)
	require.Len(t, summary.CategoryBreakdown, 2)
	assert.Equal(t, "Salary", summary.CategoryBreakdown[0].Category)
	assert.Equal(t, "Food", summary.CategoryBreakdown[1].Category)
}

func TestSummarize_FiltersApplyToCountAndBreakdownOnly(t *testing.T) {
	f := setupReports()
	f.add(1, domain.TransactionTypeIncome, "100", "Salary", june(1))
	f.add(1, domain.TransactionTypeExpense, "40", "Food", june(2))
	f.add(1, domain.TransactionTypeExpense, "10", "Food", june(3))
	f.add(1, domain.TransactionTypeIncome, "5", "Food", june(4))

	food := "Food"
	summary, err := f.service.Summarize(context.Background(), 1, domain.ReportFilter{
		StartDate: datePtr(june(1)),
		EndDate:   datePtr(june(30)),
		Category:  &food,
	})
	require.NoError(t, err)

	// Totals are computed over the full date range
	assert.True(t, summary.TotalIncome.Equal(dec("105")))
	assert.True(t, summary.TotalExpense.Equal(dec("50")))
	assert.True(t, summary.Balance.Equal(dec("55")))

	assert.Equal(t, int64(3), summary.TransactionCount)
	require.Len(t, summary.CategoryBreakdown, 2, "Food appears once per type")
	assert.Equal(t, domain.TransactionTypeExpense, summary.CategoryBreakdown[0].Type)
	assert.True(t, summary.CategoryBreakdown[0].TotalAmount.Equal(dec("50")))
	assert.Equal(t, int64(2), summary.CategoryBreakdown[0].TransactionCount)
	assert.Equal(t, domain.TransactionTypeIncome, summary.CategoryBreakdown[1].Type)
}

func TestSummarize_TypeFilter(t *testing.T) {
	f := setupReports()
	f.add(1, domain.TransactionTypeIncome, "100", "Salary", june(1))
	f.add(1, domain.TransactionTypeExpense, "40", "Food", june(2))

	expense := domain.TransactionTypeExpense
	summary, err := f.service.Summarize(context.Background(), 1, domain.ReportFilter{Type: &expense})
	require.NoError(t, err)

	assert.Equal(t, int64(1), summary.TransactionCount)
	require.Len(t, summary.CategoryBreakdown, 1)
	assert.Equal(t, "Food", summary.CategoryBreakdown[0].Category)
}

func TestSummarize_DefaultRange(t *testing.T) {
	f := setupReports()
	f.add(1, domain.TransactionTypeIncome, "1", "Salary", time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC))
	f.add(1, domain.TransactionTypeIncome, "2", "Salary", time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC))
	f.add(1, domain.TransactionTypeIncome, "4", "Salary", june(15))
	f.add(1, domain.TransactionTypeIncome, "8", "Salary", june(16))

	summary, err := f.service.Summarize(context.Background(), 1, domain.ReportFilter{})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), summary.StartDate)
	assert.Equal(t, june(15), summary.EndDate)
	assert.True(t, summary.TotalIncome.Equal(dec("6")), "both bounds are inclusive")
	assert.Equal(t, int64(2), summary.TransactionCount)
}

func TestSummarize_DefaultRangeAtMonthEnd(t *testing.T) {
	f := setupReports()
	f.service.SetClock(fixedClock(time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)))
	f.add(1, domain.TransactionTypeExpense, "5", "Food", time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC))
	f.add(1, domain.TransactionTypeExpense, "10", "Food", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))
	f.add(1, domain.TransactionTypeExpense, "20", "Food", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	summary, err := f.service.Summarize(context.Background(), 1, domain.ReportFilter{})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), summary.StartDate)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), summary.EndDate)
	assert.Equal(t, int64(2), summary.TransactionCount)
	assert.True(t, summary.TotalExpense.Equal(dec("30")), "got %s", summary.TotalExpense)
}

func TestSummarize_EmptyRange(t *testing.T) {
	f := setupReports()

	summary, err := f.service.Summarize(context.Background(), 1, domain.ReportFilter{})
	require.NoError(t, err)
	assert.True(t, summary.Balance.IsZero())
	assert.Equal(t, int64(0), summary.TransactionCount)
	assert.NotNil(t, summary.CategoryBreakdown)
	assert.Empty(t, summary.CategoryBreakdown)
}

func TestSummarize_InvalidRange(t *testing.T) {
	f := setupReports()

	_, err := f.service.Summarize(context.Background(), 1, domain.ReportFilter{
		StartDate: datePtr(june(10)),
		EndDate:   datePtr(june(9)),
	})
	assert.ErrorIs(t, err, domain.ErrReportRangeInvalid)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSummarize_OwnerIsolation(t *testing.T) {
	f := setupReports()
	f.add(1, domain.TransactionTypeIncome, "100", "Salary", june(1))
	f.add(2, domain.TransactionTypeIncome, "999", "Salary", june(1))

	summary, err := f.service.Summarize(context.Background(), 1, domain.ReportFilter{StartDate: datePtr(june(1))})
	require.NoError(t, err)
	assert.True(t, summary.TotalIncome.Equal(dec("100")))
}

func TestSummarize_StorageFailure(t *testing.T) {
	f := setupReports()
	f.transactions.DateRangeFn = func(int32, time.Time, time.Time) ([]*domain.Transaction, error) {
		return nil, errors.New("timeout")
	}

	_, err := f.service.Summarize(context.Background(), 1, domain.ReportFilter{})
	var storageErr *domain.StorageError
	assert.ErrorAs(t, err, &storageErr)
}

func TestBreakdown_Ordering(t *testing.T) {
	rows := breakdown([]*domain.Transaction{
		{Type: domain.TransactionTypeExpense, Category: "B", Amount: dec("10")},
		{Type: domain.TransactionTypeExpense, Category: "A", Amount: dec("10")},
		{Type: domain.TransactionTypeIncome, Category: "A", Amount: dec("10")},
		{Type: domain.TransactionTypeExpense, Category: "C", Amount: dec("30")},
	})

	require.Len(t, rows, 4)
	assert.Equal(t, "C", rows[0].Category)
	assert.Equal(t, "A", rows[1].Category)
	assert.Equal(t, domain.TransactionTypeExpense, rows[1].Type)
	assert.Equal(t, "A", rows[2].Category)
	assert.Equal(t, domain.TransactionTypeIncome, rows[2].Type)
	assert.Equal(t, "B", rows[3].Category)
}

func TestFilterTransactions_NewestFirst(t *testing.T) {
	f := setupReports()
	a := f.add(1, domain.TransactionTypeExpense, "1", "Food", june(2))
	b := f.add(1, domain.TransactionTypeExpense, "2", "Food", june(5))
	c := f.add(1, domain.TransactionTypeExpense, "3", "Food", june(2))
	f.add(1, domain.TransactionTypeExpense, "4", "Rent", june(3))

	food := "Food"
	transactions, err := f.service.FilterTransactions(context.Background(), 1, domain.ReportFilter{Category: &food})
	require.NoError(t, err)

	require.Len(t, transactions, 3)
	assert.Equal(t, []int32{b.ID, c.ID, a.ID}, []int32{transactions[0].ID, transactions[1].ID, transactions[2].ID})
}

func TestExportTransactionsCSV(t *testing.T) {
	f := setupReports()
	f.add(1, domain.TransactionTypeIncome, "100", "Salary", june(1))
	f.add(1, domain.TransactionTypeExpense, "40.5", "Food", june(2))

	file, err := f.service.ExportTransactionsCSV(context.Background(), 1, domain.ReportFilter{})
	require.NoError(t, err)

	assert.Equal(t, domain.ExportKindTransactions, file.Kind)
	assert.Equal(t, "transactions-2024-06-15.csv", file.Filename)
	lines := strings.Split(strings.TrimSpace(string(file.Content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Type,Category,Description,Amount", lines[0])
	assert.Equal(t, "2024-06-02,EXPENSE,Food,Food entry,40.50", lines[1])
}

func TestExportFinancingsCSV(t *testing.T) {
	f := setupReports()
	f.financings.AddFinancing(&domain.Financing{
		OwnerID:         1,
		Name:            "Car",
		TotalAmount:     dec("10000"),
		RemainingAmount: dec("2500"),
		MonthlyPayment:  dec("300"),
		Type:            domain.FinancingTypeCar,
		EndDate:         time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	})

	file, err := f.service.Export(context.Background(), 1, domain.ExportKindFinancings, domain.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, "financings-2024-06-15.csv", file.Filename)
	assert.Contains(t, string(file.Content), "Car,CAR_FINANCING,10000.00,2500.00,300.00,2026-01-31")
}

func TestBuildDocument(t *testing.T) {
	f := setupReports()
	f.add(1, domain.TransactionTypeIncome, "100", "Salary", june(1))
	f.financings.AddFinancing(&domain.Financing{OwnerID: 1, TotalAmount: dec("1000"), RemainingAmount: dec("400"), MonthlyPayment: dec("50")})
	f.goals.AddGoal(&domain.Goal{OwnerID: 1, Name: "Trip", TargetAmount: dec("1000"), CurrentAmount: dec("250"), Status: domain.GoalStatusInProgress})
	f.goals.AddGoal(&domain.Goal{OwnerID: 2, Name: "Other owner", TargetAmount: dec("1"), CurrentAmount: dec("1")})

	report, err := f.service.BuildDocument(context.Background(), 1, domain.ReportFilter{})
	require.NoError(t, err)

	assert.Equal(t, reportToday, report.GeneratedAt)
	assert.Len(t, report.Transactions, 1)
	assert.Equal(t, 1, report.FinancingTotals.Count)
	assert.True(t, report.FinancingTotals.RemainingAmount.Equal(dec("400")))
	require.Len(t, report.Goals, 1)
	assert.Equal(t, "Trip", report.Goals[0].Name)
	assert.InDelta(t, 25.0, report.Goals[0].Percentage, 0.001)

	file, err := f.service.Export(context.Background(), 1, domain.ExportKindDocument, domain.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, "document-2024-06-15.xhtml", file.Filename)
	assert.Contains(t, string(file.Content), "Financial Report")
}

func TestExport_UnknownKind(t *testing.T) {
	f := setupReports()

	_, err := f.service.Export(context.Background(), 1, domain.ExportKind("pdf"), domain.ReportFilter{})
	assert.ErrorIs(t, err, domain.ErrExportKindInvalid)
}
