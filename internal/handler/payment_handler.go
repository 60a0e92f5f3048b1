package handler

import (
	"net/http"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/dafibh/qfin/qfin-backend/internal/middleware"
	"github.com/dafibh/qfin/qfin-backend/internal/service"
	"github.com/dafibh/qfin/qfin-backend/internal/util"
	"github.com/labstack/echo/v4"
)

// PaymentHandler handles the payments of a financing
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// ApplyPaymentRequest represents the apply payment request body
type ApplyPaymentRequest struct {
	Amount      string  `json:"amount"`
	PaymentDate *string `json:"paymentDate,omitempty"`
	Description string  `json:"description"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID          int32  `json:"id"`
	FinancingID int32  `json:"financingId"`
	Amount      string `json:"amount"`
	PaymentDate string `json:"paymentDate"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

// GetPayments handles GET /api/v1/financings/:id/payments
func (h *PaymentHandler) GetPayments(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	financingID, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid financing ID", nil)
	}

	payments, err := h.paymentService.ListPayments(c.Request().Context(), ownerID, financingID)
	if err != nil {
		return handleServiceError(c, err, "list payments")
	}

	response := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		response[i] = toPaymentResponse(p)
	}
	return c.JSON(http.StatusOK, response)
}

// ApplyPayment handles POST /api/v1/financings/:id/payments
func (h *PaymentHandler) ApplyPayment(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	financingID, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid financing ID", nil)
	}

	var req ApplyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, amountErr := parseMoney("amount", req.Amount)
	paymentDate, dateErr := parseOptionalDate("paymentDate", req.PaymentDate)
	if errs := collect(amountErr, dateErr); len(errs) > 0 {
		return NewValidationError(c, "Validation failed", errs)
	}

	payment, err := h.paymentService.ApplyPayment(c.Request().Context(), ownerID, financingID, service.ApplyPaymentInput{
		Amount:      amount,
		PaymentDate: paymentDate,
		Description: req.Description,
	})
	if err != nil {
		return handleServiceError(c, err, "apply payment")
	}

	return c.JSON(http.StatusCreated, toPaymentResponse(payment))
}

// ReversePayment handles DELETE /api/v1/financings/:id/payments/:paymentId
func (h *PaymentHandler) ReversePayment(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	financingID, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid financing ID", nil)
	}
	paymentID, ok := parseID(c, "paymentId")
	if !ok {
		return NewValidationError(c, "Invalid payment ID", nil)
	}

	if err := h.paymentService.ReverseFinancingPayment(c.Request().Context(), ownerID, financingID, paymentID); err != nil {
		return handleServiceError(c, err, "reverse payment")
	}

	return c.NoContent(http.StatusNoContent)
}

func toPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          p.ID,
		FinancingID: p.FinancingID,
		Amount:      p.Amount.StringFixed(2),
		PaymentDate: util.FormatDate(p.PaymentDate),
		Description: p.Description,
		CreatedAt:   formatTimestamp(p.CreatedAt),
	}
}
