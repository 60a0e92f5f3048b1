// Package export renders report data into downloadable files.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/dafibh/qfin/qfin-backend/internal/util"
)

var (
	transactionHeader = []string{"Date", "Type", "Category", "Description", "Amount"}
	financingHeader   = []string{"Name", "Type", "Total Amount", "Remaining Amount", "Monthly Payment", "End Date"}
)

// TransactionsCSV renders transactions in the order given
func TransactionsCSV(transactions []*domain.Transaction) ([]byte, error) {
	rows := make([][]string, 0, len(transactions))
	for _, t := range transactions {
		rows = append(rows, []string{
			util.FormatDate(t.Date),
			string(t.Type),
			t.Category,
			t.Description,
			t.Amount.StringFixed(2),
		})
	}
	return writeCSV(transactionHeader, rows)
}

// FinancingsCSV renders financings in the order given
func FinancingsCSV(financings []*domain.Financing) ([]byte, error) {
	rows := make([][]string, 0, len(financings))
	for _, f := range financings {
		rows = append(rows, []string{
			f.Name,
			string(f.Type),
			f.TotalAmount.StringFixed(2),
			f.RemainingAmount.StringFixed(2),
			f.MonthlyPayment.StringFixed(2),
			util.FormatDate(f.EndDate),
		})
	}
	return writeCSV(financingHeader, rows)
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename names an export generated on the given day, e.g.
// "transactions-2024-05-31.csv"
func Filename(kind domain.ExportKind, on time.Time) string {
	return fmt.Sprintf("%s-%s.%s", kind, util.FormatDate(on), kind.Extension())
}
