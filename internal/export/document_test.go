package export

import (
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *domain.ReportDocument {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)

	financings := []*domain.Financing{
		{
			Name:            "Mortgage",
			Type:            domain.FinancingTypeMortgage,
			TotalAmount:     decimal.NewFromInt(100000),
			RemainingAmount: decimal.NewFromInt(80000),
			MonthlyPayment:  decimal.NewFromInt(900),
			EndDate:         time.Date(2040, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	return &domain.ReportDocument{
		GeneratedAt: end,
		Summary: &domain.ReportSummary{
			StartDate:        start,
			EndDate:          end,
			TotalIncome:      decimal.NewFromInt(100),
			TotalExpense:     decimal.NewFromInt(40),
			Balance:          decimal.NewFromInt(60),
			TransactionCount: 2,
			CategoryBreakdown: []domain.CategorySummary{
				{Category: "Salary", Type: domain.TransactionTypeIncome, TotalAmount: decimal.NewFromInt(100), TransactionCount: 1},
				{Category: "Food", Type: domain.TransactionTypeExpense, TotalAmount: decimal.NewFromInt(40), TransactionCount: 1},
			},
		},
		Transactions: []*domain.Transaction{
			{Type: domain.TransactionTypeIncome, Amount: decimal.NewFromInt(100), Category: "Salary", Description: "Pay", Date: end},
			{Type: domain.TransactionTypeExpense, Amount: decimal.NewFromInt(40), Category: "Food", Description: "Fish & chips <large>", Date: start},
		},
		Financings:      financings,
		FinancingTotals: domain.SumFinancings(financings),
		Goals: []domain.GoalProgress{
			{
				Name:          "Holiday",
				Status:        domain.GoalStatusInProgress,
				TargetAmount:  decimal.NewFromInt(1000),
				CurrentAmount: decimal.NewFromInt(400),
				Percentage:    40,
				TargetDate:    time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
			},
		},
	}
}

func parseDocument(t *testing.T, data []byte) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(data))
	return doc
}

func TestDocument_Sections(t *testing.T) {
	data, err := Document(sampleReport())
	require.NoError(t, err)

	doc := parseDocument(t, data)

	title := doc.FindElement("//head/title")
	require.NotNil(t, title)
	assert.Equal(t, "Financial Report 2024-05-01 to 2024-05-31", title.Text())

	summary := doc.FindElements("//section[@id='summary']//td")
	require.Len(t, summary, 4)
	assert.Equal(t, "100.00", summary[0].Text())
	assert.Equal(t, "40.00", summary[1].Text())
	assert.Equal(t, "60.00", summary[2].Text())
	assert.Equal(t, "2", summary[3].Text())

	assert.Len(t, doc.FindElements("//section[@id='categories']//tbody/tr"), 2)
	assert.Len(t, doc.FindElements("//section[@id='transactions']//tbody/tr"), 2)
	assert.Len(t, doc.FindElements("//section[@id='financings']//tbody/tr"), 1)

	goalCells := doc.FindElements("//section[@id='goals']//tbody/tr/td")
	require.Len(t, goalCells, 6)
	assert.Equal(t, "40.0%", goalCells[4].Text())
}

func TestDocument_EscapesText(t *testing.T) {
	data, err := Document(sampleReport())
	require.NoError(t, err)

	doc := parseDocument(t, data)
	cells := doc.FindElements("//section[@id='transactions']//tbody/tr[2]/td")
	require.Len(t, cells, 5)
	assert.Equal(t, "Fish & chips <large>", cells[3].Text())
}

func TestDocument_FinancingTotals(t *testing.T) {
	data, err := Document(sampleReport())
	require.NoError(t, err)

	doc := parseDocument(t, data)
	footer := doc.FindElements("//section[@id='financings']//tfoot/tr/td")
	require.Len(t, footer, 6)
	assert.Equal(t, "Total", footer[0].Text())
	assert.Equal(t, "1", footer[1].Text())
	assert.Equal(t, "100000.00", footer[2].Text())
	assert.Equal(t, "80000.00", footer[3].Text())
}

func TestDocument_EmptySections(t *testing.T) {
	report := sampleReport()
	report.Transactions = nil
	report.Financings = nil
	report.Goals = nil
	report.Summary.CategoryBreakdown = nil

	data, err := Document(report)
	require.NoError(t, err)

	doc := parseDocument(t, data)
	assert.Len(t, doc.FindElements("//p[@class='empty']"), 4)
	assert.Empty(t, doc.FindElements("//tbody"))
}

func TestDocument_RequiresSummary(t *testing.T) {
	_, err := Document(&domain.ReportDocument{})
	assert.Error(t, err)
}
