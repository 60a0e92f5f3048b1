package handler

import (
	"net/http"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/dafibh/qfin/qfin-backend/internal/middleware"
	"github.com/dafibh/qfin/qfin-backend/internal/service"
	"github.com/dafibh/qfin/qfin-backend/internal/util"
	"github.com/labstack/echo/v4"
)

// FinancingHandler handles financing-related HTTP requests
type FinancingHandler struct {
	financingService *service.FinancingService
}

// NewFinancingHandler creates a new FinancingHandler
func NewFinancingHandler(financingService *service.FinancingService) *FinancingHandler {
	return &FinancingHandler{financingService: financingService}
}

// FinancingRequest represents the create and update financing request body.
// RemainingAmount defaults to TotalAmount on create and is left alone on update
// when omitted.
type FinancingRequest struct {
	Name            string  `json:"name"`
	TotalAmount     string  `json:"totalAmount"`
	RemainingAmount *string `json:"remainingAmount,omitempty"`
	MonthlyPayment  string  `json:"monthlyPayment"`
	Type            string  `json:"type"`
	EndDate         string  `json:"endDate"`
}

// FinancingResponse represents a financing in API responses
type FinancingResponse struct {
	ID              int32  `json:"id"`
	Name            string `json:"name"`
	TotalAmount     string `json:"totalAmount"`
	RemainingAmount string `json:"remainingAmount"`
	PaidAmount      string `json:"paidAmount"`
	MonthlyPayment  string `json:"monthlyPayment"`
	Type            string `json:"type"`
	EndDate         string `json:"endDate"`
	IsPaidOff       bool   `json:"isPaidOff"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

// FinancingTotalsResponse represents the sums over an owner's financings
type FinancingTotalsResponse struct {
	TotalAmount     string `json:"totalAmount"`
	RemainingAmount string `json:"remainingAmount"`
	MonthlyPayments string `json:"monthlyPayments"`
	Count           int    `json:"count"`
}

func (req FinancingRequest) toInput() (service.FinancingInput, []ValidationError) {
	total, totalErr := parseMoney("totalAmount", req.TotalAmount)
	remaining, remainingErr := parseOptionalMoney("remainingAmount", req.RemainingAmount)
	monthly, monthlyErr := parseMoney("monthlyPayment", req.MonthlyPayment)
	endDate, endDateErr := parseDate("endDate", req.EndDate)

	if errs := collect(totalErr, remainingErr, monthlyErr, endDateErr); len(errs) > 0 {
		return service.FinancingInput{}, errs
	}

	return service.FinancingInput{
		Name:            req.Name,
		TotalAmount:     total,
		RemainingAmount: remaining,
		MonthlyPayment:  monthly,
		Type:            domain.FinancingType(req.Type),
		EndDate:         endDate,
	}, nil
}

// CreateFinancing handles POST /api/v1/financings
func (h *FinancingHandler) CreateFinancing(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	var req FinancingRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, errs := req.toInput()
	if errs != nil {
		return NewValidationError(c, "Validation failed", errs)
	}

	financing, err := h.financingService.CreateFinancing(c.Request().Context(), ownerID, input)
	if err != nil {
		return handleServiceError(c, err, "create financing")
	}

	return c.JSON(http.StatusCreated, toFinancingResponse(financing))
}

// GetFinancings handles GET /api/v1/financings
func (h *FinancingHandler) GetFinancings(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	financings, err := h.financingService.ListFinancings(c.Request().Context(), ownerID)
	if err != nil {
		return handleServiceError(c, err, "list financings")
	}

	response := make([]FinancingResponse, len(financings))
	for i, f := range financings {
		response[i] = toFinancingResponse(f)
	}
	return c.JSON(http.StatusOK, response)
}

// GetTotals handles GET /api/v1/financings/totals
func (h *FinancingHandler) GetTotals(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	totals, err := h.financingService.GetTotals(c.Request().Context(), ownerID)
	if err != nil {
		return handleServiceError(c, err, "sum financings")
	}

	return c.JSON(http.StatusOK, FinancingTotalsResponse{
		TotalAmount:     totals.TotalAmount.StringFixed(2),
		RemainingAmount: totals.RemainingAmount.StringFixed(2),
		MonthlyPayments: totals.MonthlyPayments.StringFixed(2),
		Count:           totals.Count,
	})
}

// GetFinancing handles GET /api/v1/financings/:id
func (h *FinancingHandler) GetFinancing(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid financing ID", nil)
	}

	financing, err := h.financingService.GetFinancing(c.Request().Context(), ownerID, id)
	if err != nil {
		return handleServiceError(c, err, "get financing")
	}

	return c.JSON(http.StatusOK, toFinancingResponse(financing))
}

// UpdateFinancing handles PUT /api/v1/financings/:id
func (h *FinancingHandler) UpdateFinancing(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid financing ID", nil)
	}

	var req FinancingRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, errs := req.toInput()
	if errs != nil {
		return NewValidationError(c, "Validation failed", errs)
	}

	financing, err := h.financingService.UpdateFinancing(c.Request().Context(), ownerID, id, input)
	if err != nil {
		return handleServiceError(c, err, "update financing")
	}

	return c.JSON(http.StatusOK, toFinancingResponse(financing))
}

// DeleteFinancing handles DELETE /api/v1/financings/:id
func (h *FinancingHandler) DeleteFinancing(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid financing ID", nil)
	}

	if err := h.financingService.DeleteFinancing(c.Request().Context(), ownerID, id); err != nil {
		return handleServiceError(c, err, "delete financing")
	}

	return c.NoContent(http.StatusNoContent)
}

func toFinancingResponse(f *domain.Financing) FinancingResponse {
	return FinancingResponse{
		ID:              f.ID,
		Name:            f.Name,
		TotalAmount:     f.TotalAmount.StringFixed(2),
		RemainingAmount: f.RemainingAmount.StringFixed(2),
		PaidAmount:      f.PaidAmount().StringFixed(2),
		MonthlyPayment:  f.MonthlyPayment.StringFixed(2),
		Type:            string(f.Type),
		EndDate:         util.FormatDate(f.EndDate),
		IsPaidOff:       f.IsPaidOff(),
		CreatedAt:       formatTimestamp(f.CreatedAt),
		UpdatedAt:       formatTimestamp(f.UpdatedAt),
	}
}
