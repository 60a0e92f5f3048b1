package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/dafibh/qfin/qfin-backend/internal/service"
	"github.com/dafibh/qfin/qfin-backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

var reportNow = time.Date(2026, 5, 15, 9, 0, 0, 0, time.UTC)

type reportFixture struct {
	handler      *ReportHandler
	transactions *testutil.MockTransactionRepository
	financings   *testutil.MockFinancingRepository
	store        *testutil.MockExportStore
}

func newReportFixture(withStore bool) reportFixture {
	transactions := testutil.NewMockTransactionRepository()
	financings := testutil.NewMockFinancingRepository()
	goals := testutil.NewMockGoalRepository()

	reports := service.NewReportService(transactions, financings, goals)
	reports.SetClock(func() time.Time { return reportNow })

	f := reportFixture{transactions: transactions, financings: financings}
	var archive *service.ArchiveService
	if withStore {
		f.store = testutil.NewMockExportStore()
		archive = service.NewArchiveService(reports, f.store, 10*time.Minute)
	} else {
		archive = service.NewArchiveService(reports, nil, 0)
	}
	f.handler = NewReportHandler(reports, archive)
	return f
}

func (f reportFixture) addTransaction(ownerID int32, txType domain.TransactionType, amount int64, category string, date time.Time) {
	f.transactions.AddTransaction(&domain.Transaction{
		OwnerID:     ownerID,
		Type:        txType,
		Amount:      decimal.NewFromInt(amount),
		Category:    category,
		Description: category + " entry",
		Date:        date,
	})
}

func TestGetSummary_DefaultsToLastMonth(t *testing.T) {
	e := echo.New()
	f := newReportFixture(false)
	f.addTransaction(1, domain.TransactionTypeIncome, 100, "Salary", time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	f.addTransaction(1, domain.TransactionTypeExpense, 40, "Food", time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC))
	f.addTransaction(1, domain.TransactionTypeExpense, 999, "Food", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	f.addTransaction(2, domain.TransactionTypeExpense, 5, "Food", time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC))

	c, rec := newOwnerContext(e, http.MethodPost, "/api/v1/reports/summary", "", 1)
	if err := f.handler.GetSummary(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var summary ReportSummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if summary.StartDate != "2026-04-15" || summary.EndDate != "2026-05-15" {
		t.Errorf("Expected period 2026-04-15..2026-05-15, got %s..%s", summary.StartDate, summary.EndDate)
	}
	if summary.TotalIncome != "100.00" || summary.TotalExpense != "40.00" || summary.Balance != "60.00" {
		t.Errorf("Unexpected totals: %+v", summary)
	}
	if summary.TransactionCount != 2 || len(summary.CategoryBreakdown) != 2 {
		t.Errorf("Expected 2 transactions in 2 groups, got %d in %d", summary.TransactionCount, len(summary.CategoryBreakdown))
	}
	if summary.CategoryBreakdown[0].Category != "Salary" {
		t.Errorf("Expected largest group first, got %s", summary.CategoryBreakdown[0].Category)
	}
}

func TestGetSummary_InvalidRange(t *testing.T) {
	e := echo.New()
	f := newReportFixture(false)

	body := `{"startDate": "2026-05-10", "endDate": "2026-05-01"}`
	c, rec := newOwnerContext(e, http.MethodPost, "/api/v1/reports/summary", body, 1)
	if err := f.handler.GetSummary(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestGetTransactions_InvalidType(t *testing.T) {
	e := echo.New()
	f := newReportFixture(false)

	c, rec := newOwnerContext(e, http.MethodPost, "/api/v1/reports/transactions", `{"type": "TRANSFER"}`, 1)
	if err := f.handler.GetTransactions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}
	problem := decodeProblem(t, rec)
	if len(problem.Errors) != 1 || problem.Errors[0].Field != "type" {
		t.Errorf("Expected type field error, got %v", problem.Errors)
	}
}

func TestGetTransactions_CategoryFilterAcrossTypes(t *testing.T) {
	e := echo.New()
	f := newReportFixture(false)
	day := time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)
	f.addTransaction(1, domain.TransactionTypeExpense, 20, "Food", day)
	f.addTransaction(1, domain.TransactionTypeIncome, 15, "Food", day)
	f.addTransaction(1, domain.TransactionTypeExpense, 30, "Transport", day)

	c, rec := newOwnerContext(e, http.MethodPost, "/api/v1/reports/transactions", `{"type": "ALL", "category": "Food"}`, 1)
	if err := f.handler.GetTransactions(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var transactions []TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &transactions); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(transactions) != 2 {
		t.Fatalf("Expected 2 Food transactions, got %d", len(transactions))
	}
	for _, tx := range transactions {
		if tx.Category != "Food" {
			t.Errorf("Unexpected category %s", tx.Category)
		}
	}
}

func TestExportTransactionsCSV_Attachment(t *testing.T) {
	e := echo.New()
	f := newReportFixture(false)
	f.addTransaction(1, domain.TransactionTypeExpense, 20, "Food", time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC))

	c, rec := newOwnerContext(e, http.MethodPost, "/api/v1/reports/export/transactions/csv", "", 1)
	if err := f.handler.ExportTransactionsCSV(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Expected text/csv, got %s", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); cd != `attachment; filename="transactions-2026-05-15.csv"` {
		t.Errorf("Unexpected Content-Disposition %q", cd)
	}

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header and one row, got %d lines", len(lines))
	}
	if lines[0] != "Date,Type,Category,Description,Amount" {
		t.Errorf("Unexpected header %q", lines[0])
	}
	if lines[1] != "2026-05-03,EXPENSE,Food,Food entry,20.00" {
		t.Errorf("Unexpected row %q", lines[1])
	}
}

func TestExportFinancingsCSV(t *testing.T) {
	e := echo.New()
	f := newReportFixture(false)
	addCarLoan(f.financings, 1)

	c, rec := newOwnerContext(e, http.MethodGet, "/api/v1/reports/export/financings/csv", "", 1)
	if err := f.handler.ExportFinancingsCSV(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(rec.Body.String(), "Car Loan,CAR_FINANCING,10000.00,7500.00,500.00,2027-06-01") {
		t.Errorf("Expected financing row, got %q", rec.Body.String())
	}
}

func TestExportDocument_XHTML(t *testing.T) {
	e := echo.New()
	f := newReportFixture(false)

	c, rec := newOwnerContext(e, http.MethodPost, "/api/v1/reports/export/document", "", 1)
	if err := f.handler.ExportDocument(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "application/xhtml+xml") {
		t.Errorf("Expected application/xhtml+xml, got %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "<html") {
		t.Error("Expected an html document")
	}
}

func TestArchiveExport_Success(t *testing.T) {
	e := echo.New()
	f := newReportFixture(true)

	c, rec := newOwnerContext(e, http.MethodPost, "/api/v1/reports/export/transactions/archive", "", 1)
	setPathParams(c, "kind", "transactions")

	if err := f.handler.ArchiveExport(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response ArchiveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if !strings.HasPrefix(response.Key, "exports/1/transactions/") {
		t.Errorf("Unexpected key %s", response.Key)
	}
	if response.URL != "https://exports.test/"+response.Key+"?expires=600" {
		t.Errorf("Unexpected url %s", response.URL)
	}
	if response.ExpiresAt != "2026-05-15T09:10:00Z" {
		t.Errorf("Unexpected expiry %s", response.ExpiresAt)
	}
	if keys := f.store.Keys(); len(keys) != 1 || keys[0] != response.Key {
		t.Errorf("Expected stored key %s, got %v", response.Key, keys)
	}
}

func TestArchiveExport_Disabled(t *testing.T) {
	e := echo.New()
	f := newReportFixture(false)

	c, rec := newOwnerContext(e, http.MethodPost, "/api/v1/reports/export/document/archive", "", 1)
	setPathParams(c, "kind", "document")

	if err := f.handler.ArchiveExport(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rec.Code)
	}
}

func TestArchiveExport_UnknownKind(t *testing.T) {
	e := echo.New()
	f := newReportFixture(true)

	c, rec := newOwnerContext(e, http.MethodPost, "/api/v1/reports/export/pdf/archive", "", 1)
	setPathParams(c, "kind", "pdf")

	if err := f.handler.ArchiveExport(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}
