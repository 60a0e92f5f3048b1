package export

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/dafibh/qfin/qfin-backend/internal/util"
)

const xhtmlNamespace = "http://www.w3.org/1999/xhtml"

// Document renders the report as a standalone XHTML page
func Document(report *domain.ReportDocument) ([]byte, error) {
	if report == nil || report.Summary == nil {
		return nil, fmt.Errorf("render document: summary is required")
	}
	summary := report.Summary
	period := fmt.Sprintf("%s to %s", util.FormatDate(summary.StartDate), util.FormatDate(summary.EndDate))

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	html := doc.CreateElement("html")
	html.CreateAttr("xmlns", xhtmlNamespace)

	head := html.CreateElement("head")
	head.CreateElement("meta").CreateAttr("charset", "UTF-8")
	head.CreateElement("title").SetText("Financial Report " + period)

	body := html.CreateElement("body")
	body.CreateElement("h1").SetText("Financial Report")
	paragraph(body, "period", "Period: "+period)
	paragraph(body, "generated", "Generated: "+report.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))

	summarySection(body, summary)
	breakdownSection(body, summary.CategoryBreakdown)
	transactionSection(body, report.Transactions)
	financingSection(body, report.Financings, report.FinancingTotals)
	goalSection(body, report.Goals)

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	return out, nil
}

func summarySection(body *etree.Element, s *domain.ReportSummary) {
	sec := section(body, "summary", "Summary")
	table := sec.CreateElement("table")
	for _, row := range [][2]string{
		{"Total Income", s.TotalIncome.StringFixed(2)},
		{"Total Expense", s.TotalExpense.StringFixed(2)},
		{"Balance", s.Balance.StringFixed(2)},
		{"Transactions", strconv.FormatInt(s.TransactionCount, 10)},
	} {
		tr := table.CreateElement("tr")
		tr.CreateElement("th").SetText(row[0])
		tr.CreateElement("td").SetText(row[1])
	}
}

func breakdownSection(body *etree.Element, rows []domain.CategorySummary) {
	sec := section(body, "categories", "Category Breakdown")
	if len(rows) == 0 {
		paragraph(sec, "empty", "No categories in this period")
		return
	}
	tbody := table(sec, "Category", "Type", "Transactions", "Total")
	for _, r := range rows {
		cells(tbody, r.Category, string(r.Type), strconv.FormatInt(r.TransactionCount, 10), r.TotalAmount.StringFixed(2))
	}
}

func transactionSection(body *etree.Element, transactions []*domain.Transaction) {
	sec := section(body, "transactions", "Transactions")
	if len(transactions) == 0 {
		paragraph(sec, "empty", "No transactions in this period")
		return
	}
	tbody := table(sec, transactionHeader...)
	for _, t := range transactions {
		cells(tbody, util.FormatDate(t.Date), string(t.Type), t.Category, t.Description, t.Amount.StringFixed(2))
	}
}

func financingSection(body *etree.Element, financings []*domain.Financing, totals domain.FinancingTotals) {
	sec := section(body, "financings", "Financings")
	if len(financings) == 0 {
		paragraph(sec, "empty", "No financings")
		return
	}
	tbody := table(sec, financingHeader...)
	for _, f := range financings {
		cells(tbody,
			f.Name,
			string(f.Type),
			f.TotalAmount.StringFixed(2),
			f.RemainingAmount.StringFixed(2),
			f.MonthlyPayment.StringFixed(2),
			util.FormatDate(f.EndDate),
		)
	}

	tfoot := tbody.Parent().CreateElement("tfoot")
	cells(tfoot,
		"Total",
		strconv.Itoa(totals.Count),
		totals.TotalAmount.StringFixed(2),
		totals.RemainingAmount.StringFixed(2),
		totals.MonthlyPayments.StringFixed(2),
		"",
	)
}

func goalSection(body *etree.Element, goals []domain.GoalProgress) {
	sec := section(body, "goals", "Goals")
	if len(goals) == 0 {
		paragraph(sec, "empty", "No goals")
		return
	}
	tbody := table(sec, "Name", "Status", "Target Amount", "Current Amount", "Progress", "Target Date")
	for _, g := range goals {
		cells(tbody,
			g.Name,
			string(g.Status),
			g.TargetAmount.StringFixed(2),
			g.CurrentAmount.StringFixed(2),
			strconv.FormatFloat(g.Percentage, 'f', 1, 64)+"%",
			util.FormatDate(g.TargetDate),
		)
	}
}

func section(parent *etree.Element, id, title string) *etree.Element {
	sec := parent.CreateElement("section")
	sec.CreateAttr("id", id)
	sec.CreateElement("h2").SetText(title)
	return sec
}

func paragraph(parent *etree.Element, class, text string) {
	p := parent.CreateElement("p")
	p.CreateAttr("class", class)
	p.SetText(text)
}

// table creates a table with a header row and returns its tbody
func table(parent *etree.Element, headers ...string) *etree.Element {
	t := parent.CreateElement("table")
	tr := t.CreateElement("thead").CreateElement("tr")
	for _, h := range headers {
		tr.CreateElement("th").SetText(h)
	}
	return t.CreateElement("tbody")
}

func cells(parent *etree.Element, values ...string) {
	tr := parent.CreateElement("tr")
	for _, v := range values {
		tr.CreateElement("td").SetText(v)
	}
}
