package service

import (
	"context"
	"sort"
	"time"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/dafibh/qfin/qfin-backend/internal/export"
	"github.com/dafibh/qfin/qfin-backend/internal/util"
	"github.com/shopspring/decimal"
)

// ReportService aggregates an owner's ledger into reports and exports. It is
// read-only and takes no locks; each call works on one snapshot read.
type ReportService struct {
	transactionRepo domain.TransactionRepository
	financingRepo   domain.FinancingRepository
	goalRepo        domain.GoalRepository
	now             func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(transactionRepo domain.TransactionRepository, financingRepo domain.FinancingRepository, goalRepo domain.GoalRepository) *ReportService {
	return &ReportService{
		transactionRepo: transactionRepo,
		financingRepo:   financingRepo,
		goalRepo:        goalRepo,
		now:             time.Now,
	}
}

// SetClock replaces the clock used to default the report period
func (s *ReportService) SetClock(now func() time.Time) {
	s.now = now
}

// Now returns the current time of the service clock
func (s *ReportService) Now() time.Time {
	return s.now()
}

// resolveRange fills in the default period: one month back from today
func (s *ReportService) resolveRange(filter domain.ReportFilter) (time.Time, time.Time, error) {
	today := util.DateOnly(s.now())

	end := today
	if filter.EndDate != nil {
		end = util.DateOnly(*filter.EndDate)
	}
	start := util.MonthBefore(today)
	if filter.StartDate != nil {
		start = util.DateOnly(*filter.StartDate)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, domain.ErrReportRangeInvalid
	}
	return start, end, nil
}

// rangeSet loads every transaction of the owner within the period
func (s *ReportService) rangeSet(ctx context.Context, ownerID int32, filter domain.ReportFilter) ([]*domain.Transaction, time.Time, time.Time, error) {
	start, end, err := s.resolveRange(filter)
	if err != nil {
		return nil, start, end, err
	}
	transactions, err := s.transactionRepo.GetByOwnerAndDateRange(ctx, ownerID, start, end)
	if err != nil {
		return nil, start, end, domain.NewStorageError("load report transactions", err)
	}
	return transactions, start, end, nil
}

func applyFilter(transactions []*domain.Transaction, filter domain.ReportFilter) []*domain.Transaction {
	out := make([]*domain.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	SortTransactions(out)
	return out
}

// FilterTransactions returns the owner's transactions matching the filter,
// newest first
func (s *ReportService) FilterTransactions(ctx context.Context, ownerID int32, filter domain.ReportFilter) ([]*domain.Transaction, error) {
	transactions, _, _, err := s.rangeSet(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}
	return applyFilter(transactions, filter), nil
}

// Summarize computes the report summary. Income, expense and balance cover
// every transaction in the period; the count and the category breakdown only
// the transactions that pass the type and category filters.
func (s *ReportService) Summarize(ctx context.Context, ownerID int32, filter domain.ReportFilter) (*domain.ReportSummary, error) {
	transactions, start, end, err := s.rangeSet(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}
	return summarize(transactions, applyFilter(transactions, filter), start, end), nil
}

func summarize(rangeSet, filtered []*domain.Transaction, start, end time.Time) *domain.ReportSummary {
	income := decimal.Zero
	expense := decimal.Zero
	for _, t := range rangeSet {
		switch t.Type {
		case domain.TransactionTypeIncome:
			income = income.Add(t.Amount)
		case domain.TransactionTypeExpense:
			expense = expense.Add(t.Amount)
		}
	}

	return &domain.ReportSummary{
		StartDate:         start,
		EndDate:           end,
		TotalIncome:       income,
		TotalExpense:      expense,
		Balance:           income.Sub(expense),
		TransactionCount:  int64(len(filtered)),
		CategoryBreakdown: breakdown(filtered),
	}
}

type breakdownKey struct {
	category string
	txType   domain.TransactionType
}

// breakdown groups by (category, type), largest total first
func breakdown(transactions []*domain.Transaction) []domain.CategorySummary {
	index := make(map[breakdownKey]int)
	rows := make([]domain.CategorySummary, 0)
	for _, t := range transactions {
		key := breakdownKey{category: t.Category, txType: t.Type}
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, domain.CategorySummary{
				Category:    t.Category,
				Type:        t.Type,
				TotalAmount: decimal.Zero,
			})
		}
		rows[i].TotalAmount = rows[i].TotalAmount.Add(t.Amount)
		rows[i].TransactionCount++
	}

	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].TotalAmount.Cmp(rows[j].TotalAmount); c != 0 {
			return c > 0
		}
		if rows[i].Category != rows[j].Category {
			return rows[i].Category < rows[j].Category
		}
		return rows[i].Type < rows[j].Type
	})
	return rows
}

// ExportTransactionsCSV renders the filtered transactions as CSV
func (s *ReportService) ExportTransactionsCSV(ctx context.Context, ownerID int32, filter domain.ReportFilter) (*domain.ExportFile, error) {
	transactions, err := s.FilterTransactions(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}
	content, err := export.TransactionsCSV(transactions)
	if err != nil {
		return nil, err
	}
	return s.file(domain.ExportKindTransactions, content), nil
}

// ExportFinancingsCSV renders every financing of the owner as CSV. Financings
// are not date filtered.
func (s *ReportService) ExportFinancingsCSV(ctx context.Context, ownerID int32) (*domain.ExportFile, error) {
	financings, err := s.financingRepo.GetAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.NewStorageError("load financings", err)
	}
	content, err := export.FinancingsCSV(financings)
	if err != nil {
		return nil, err
	}
	return s.file(domain.ExportKindFinancings, content), nil
}

// BuildDocument gathers everything the rendered report shows
func (s *ReportService) BuildDocument(ctx context.Context, ownerID int32, filter domain.ReportFilter) (*domain.ReportDocument, error) {
	transactions, start, end, err := s.rangeSet(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}
	filtered := applyFilter(transactions, filter)

	financings, err := s.financingRepo.GetAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.NewStorageError("load financings", err)
	}
	goals, err := s.goalRepo.GetAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.NewStorageError("load goals", err)
	}

	progress := make([]domain.GoalProgress, 0, len(goals))
	for _, g := range goals {
		progress = append(progress, domain.GoalProgress{
			Name:          g.Name,
			Status:        g.Status,
			TargetAmount:  g.TargetAmount,
			CurrentAmount: g.CurrentAmount,
			Percentage:    g.ProgressPercentage(),
			TargetDate:    g.TargetDate,
		})
	}

	return &domain.ReportDocument{
		GeneratedAt:     s.now(),
		Summary:         summarize(transactions, filtered, start, end),
		Transactions:    filtered,
		Financings:      financings,
		FinancingTotals: domain.SumFinancings(financings),
		Goals:           progress,
	}, nil
}

// ExportDocument renders the report as an XHTML document
func (s *ReportService) ExportDocument(ctx context.Context, ownerID int32, filter domain.ReportFilter) (*domain.ExportFile, error) {
	report, err := s.BuildDocument(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}
	content, err := export.Document(report)
	if err != nil {
		return nil, err
	}
	return s.file(domain.ExportKindDocument, content), nil
}

// Export renders any export kind
func (s *ReportService) Export(ctx context.Context, ownerID int32, kind domain.ExportKind, filter domain.ReportFilter) (*domain.ExportFile, error) {
	switch kind {
	case domain.ExportKindTransactions:
		return s.ExportTransactionsCSV(ctx, ownerID, filter)
	case domain.ExportKindFinancings:
		return s.ExportFinancingsCSV(ctx, ownerID)
	case domain.ExportKindDocument:
		return s.ExportDocument(ctx, ownerID, filter)
	}
	return nil, domain.ErrExportKindInvalid
}

func (s *ReportService) file(kind domain.ExportKind, content []byte) *domain.ExportFile {
	return &domain.ExportFile{
		Kind:     kind,
		Filename: export.Filename(kind, s.now()),
		Content:  content,
	}
}
