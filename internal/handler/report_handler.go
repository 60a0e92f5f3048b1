package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/dafibh/qfin/qfin-backend/internal/middleware"
	"github.com/dafibh/qfin/qfin-backend/internal/service"
	"github.com/dafibh/qfin/qfin-backend/internal/util"
	"github.com/labstack/echo/v4"
)

// ReportHandler serves reports and exports
type ReportHandler struct {
	reportService  *service.ReportService
	archiveService *service.ArchiveService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *service.ReportService, archiveService *service.ArchiveService) *ReportHandler {
	return &ReportHandler{
		reportService:  reportService,
		archiveService: archiveService,
	}
}

// ReportRequest represents the report filter body. Every field is optional;
// dates default to the last month and a type of "ALL" means no type filter.
type ReportRequest struct {
	StartDate *string `json:"startDate,omitempty"`
	EndDate   *string `json:"endDate,omitempty"`
	Type      *string `json:"type,omitempty"`
	Category  *string `json:"category,omitempty"`
}

// CategorySummaryResponse is one row of the category breakdown
type CategorySummaryResponse struct {
	Category         string `json:"category"`
	Type             string `json:"type"`
	TotalAmount      string `json:"totalAmount"`
	TransactionCount int64  `json:"transactionCount"`
}

// ReportSummaryResponse represents a report summary in API responses
type ReportSummaryResponse struct {
	StartDate         string                    `json:"startDate"`
	EndDate           string                    `json:"endDate"`
	TotalIncome       string                    `json:"totalIncome"`
	TotalExpense      string                    `json:"totalExpense"`
	Balance           string                    `json:"balance"`
	TransactionCount  int64                     `json:"transactionCount"`
	CategoryBreakdown []CategorySummaryResponse `json:"categoryBreakdown"`
}

// ArchiveResponse points at an archived export
type ArchiveResponse struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	ExpiresAt string `json:"expiresAt"`
}

func (req ReportRequest) toFilter() (domain.ReportFilter, []ValidationError) {
	start, startErr := parseOptionalDate("startDate", req.StartDate)
	end, endErr := parseOptionalDate("endDate", req.EndDate)
	errs := collect(startErr, endErr)

	filter := domain.ReportFilter{StartDate: start, EndDate: end}

	if req.Type != nil {
		t, err := domain.ParseTypeFilter(*req.Type)
		if err != nil {
			errs = append(errs, ValidationError{Field: "type", Message: "Must be one of: INCOME, EXPENSE, ALL"})
		}
		filter.Type = t
	}
	if req.Category != nil && strings.TrimSpace(*req.Category) != "" {
		category := strings.TrimSpace(*req.Category)
		filter.Category = &category
	}

	if len(errs) > 0 {
		return domain.ReportFilter{}, errs
	}
	return filter, nil
}

// bindFilter reads the filter body. echo skips binding an empty body, so
// every field may be omitted.
func bindFilter(c echo.Context) (domain.ReportFilter, []ValidationError, error) {
	var req ReportRequest
	if err := c.Bind(&req); err != nil {
		return domain.ReportFilter{}, nil, err
	}
	filter, errs := req.toFilter()
	return filter, errs, nil
}

// GetTransactions handles POST /api/v1/reports/transactions
func (h *ReportHandler) GetTransactions(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	filter, errs, err := bindFilter(c)
	if err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if errs != nil {
		return NewValidationError(c, "Validation failed", errs)
	}

	transactions, err := h.reportService.FilterTransactions(c.Request().Context(), ownerID, filter)
	if err != nil {
		return handleServiceError(c, err, "filter transactions")
	}
	return c.JSON(http.StatusOK, toTransactionResponses(transactions))
}

// GetSummary handles POST /api/v1/reports/summary
func (h *ReportHandler) GetSummary(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	filter, errs, err := bindFilter(c)
	if err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if errs != nil {
		return NewValidationError(c, "Validation failed", errs)
	}

	summary, err := h.reportService.Summarize(c.Request().Context(), ownerID, filter)
	if err != nil {
		return handleServiceError(c, err, "summarize transactions")
	}
	return c.JSON(http.StatusOK, toReportSummaryResponse(summary))
}

// ExportTransactionsCSV handles POST /api/v1/reports/export/transactions/csv
func (h *ReportHandler) ExportTransactionsCSV(c echo.Context) error {
	return h.export(c, domain.ExportKindTransactions)
}

// ExportFinancingsCSV handles GET /api/v1/reports/export/financings/csv
func (h *ReportHandler) ExportFinancingsCSV(c echo.Context) error {
	return h.export(c, domain.ExportKindFinancings)
}

// ExportDocument handles POST /api/v1/reports/export/document
func (h *ReportHandler) ExportDocument(c echo.Context) error {
	return h.export(c, domain.ExportKindDocument)
}

func (h *ReportHandler) export(c echo.Context, kind domain.ExportKind) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	filter, errs, err := bindFilter(c)
	if err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if errs != nil {
		return NewValidationError(c, "Validation failed", errs)
	}

	file, err := h.reportService.Export(c.Request().Context(), ownerID, kind, filter)
	if err != nil {
		return handleServiceError(c, err, "export "+string(kind))
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Filename))
	return c.Blob(http.StatusOK, kind.ContentType(), file.Content)
}

// ArchiveExport handles POST /api/v1/reports/export/:kind/archive
func (h *ReportHandler) ArchiveExport(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	kind, err := domain.ParseExportKind(c.Param("kind"))
	if err != nil {
		return handleServiceError(c, err, "archive export")
	}

	filter, errs, err := bindFilter(c)
	if err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if errs != nil {
		return NewValidationError(c, "Validation failed", errs)
	}

	archived, err := h.archiveService.Archive(c.Request().Context(), ownerID, kind, filter)
	if err != nil {
		return handleServiceError(c, err, "archive export")
	}

	return c.JSON(http.StatusCreated, ArchiveResponse{
		Key:       archived.Key,
		URL:       archived.URL,
		ExpiresAt: formatTimestamp(archived.ExpiresAt),
	})
}

func toReportSummaryResponse(s *domain.ReportSummary) ReportSummaryResponse {
	breakdown := make([]CategorySummaryResponse, len(s.CategoryBreakdown))
	for i, row := range s.CategoryBreakdown {
		breakdown[i] = CategorySummaryResponse{
			Category:         row.Category,
			Type:             string(row.Type),
			TotalAmount:      row.TotalAmount.StringFixed(2),
			TransactionCount: row.TransactionCount,
		}
	}

	return ReportSummaryResponse{
		StartDate:         util.FormatDate(s.StartDate),
		EndDate:           util.FormatDate(s.EndDate),
		TotalIncome:       s.TotalIncome.StringFixed(2),
		TotalExpense:      s.TotalExpense.StringFixed(2),
		Balance:           s.Balance.StringFixed(2),
		TransactionCount:  s.TransactionCount,
		CategoryBreakdown: breakdown,
	}
}
