package handler

import (
	"context"
	"net/http"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/dafibh/qfin/qfin-backend/internal/middleware"
	"github.com/dafibh/qfin/qfin-backend/internal/service"
	"github.com/dafibh/qfin/qfin-backend/internal/util"
	"github.com/labstack/echo/v4"
)

// GoalHandler handles savings goal HTTP requests
type GoalHandler struct {
	goalService *service.GoalService
}

// NewGoalHandler creates a new GoalHandler
func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

// GoalRequest represents the create and update goal request body
type GoalRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Type          string  `json:"type"`
	TargetAmount  string  `json:"targetAmount"`
	CurrentAmount *string `json:"currentAmount,omitempty"`
	TargetDate    string  `json:"targetDate"`
}

// AddAmountRequest represents the add contribution request body
type AddAmountRequest struct {
	Amount string `json:"amount"`
}

// GoalResponse represents a goal in API responses
type GoalResponse struct {
	ID                 int32   `json:"id"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	Type               string  `json:"type"`
	Status             string  `json:"status"`
	TargetAmount       string  `json:"targetAmount"`
	CurrentAmount      string  `json:"currentAmount"`
	ProgressPercentage float64 `json:"progressPercentage"`
	TargetDate         string  `json:"targetDate"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

func (req GoalRequest) toInput() (service.GoalInput, []ValidationError) {
	target, targetErr := parseMoney("targetAmount", req.TargetAmount)
	current, currentErr := parseOptionalMoney("currentAmount", req.CurrentAmount)
	targetDate, dateErr := parseDate("targetDate", req.TargetDate)

	if errs := collect(targetErr, currentErr, dateErr); len(errs) > 0 {
		return service.GoalInput{}, errs
	}

	input := service.GoalInput{
		Name:         req.Name,
		Description:  req.Description,
		Type:         domain.GoalType(req.Type),
		TargetAmount: target,
		TargetDate:   targetDate,
	}
	if current != nil {
		input.CurrentAmount = *current
	}
	return input, nil
}

// CreateGoal handles POST /api/v1/goals
func (h *GoalHandler) CreateGoal(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	var req GoalRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, errs := req.toInput()
	if errs != nil {
		return NewValidationError(c, "Validation failed", errs)
	}

	goal, err := h.goalService.CreateGoal(c.Request().Context(), ownerID, input)
	if err != nil {
		return handleServiceError(c, err, "create goal")
	}

	return c.JSON(http.StatusCreated, toGoalResponse(goal))
}

// GetGoals handles GET /api/v1/goals
func (h *GoalHandler) GetGoals(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	goals, err := h.goalService.ListGoals(c.Request().Context(), ownerID)
	if err != nil {
		return handleServiceError(c, err, "list goals")
	}

	response := make([]GoalResponse, len(goals))
	for i, g := range goals {
		response[i] = toGoalResponse(g)
	}
	return c.JSON(http.StatusOK, response)
}

// GetGoal handles GET /api/v1/goals/:id
func (h *GoalHandler) GetGoal(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid goal ID", nil)
	}

	goal, err := h.goalService.GetGoal(c.Request().Context(), ownerID, id)
	if err != nil {
		return handleServiceError(c, err, "get goal")
	}

	return c.JSON(http.StatusOK, toGoalResponse(goal))
}

// UpdateGoal handles PUT /api/v1/goals/:id
func (h *GoalHandler) UpdateGoal(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid goal ID", nil)
	}

	var req GoalRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	input, errs := req.toInput()
	if errs != nil {
		return NewValidationError(c, "Validation failed", errs)
	}

	goal, err := h.goalService.UpdateGoal(c.Request().Context(), ownerID, id, input)
	if err != nil {
		return handleServiceError(c, err, "update goal")
	}

	return c.JSON(http.StatusOK, toGoalResponse(goal))
}

// AddAmount handles PATCH /api/v1/goals/:id/add
func (h *GoalHandler) AddAmount(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid goal ID", nil)
	}

	var req AddAmountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	amount, verr := parseMoney("amount", req.Amount)
	if verr != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{*verr})
	}
	if !amount.IsPositive() {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be positive"},
		})
	}

	goal, err := h.goalService.AddAmount(c.Request().Context(), ownerID, id, amount)
	if err != nil {
		return handleServiceError(c, err, "add to goal")
	}

	return c.JSON(http.StatusOK, toGoalResponse(goal))
}

// CompleteGoal handles PATCH /api/v1/goals/:id/complete
func (h *GoalHandler) CompleteGoal(c echo.Context) error {
	return h.transition(c, "complete goal", h.goalService.CompleteGoal)
}

// CancelGoal handles PATCH /api/v1/goals/:id/cancel
func (h *GoalHandler) CancelGoal(c echo.Context) error {
	return h.transition(c, "cancel goal", h.goalService.CancelGoal)
}

func (h *GoalHandler) transition(c echo.Context, operation string, apply func(ctx context.Context, ownerID, id int32) (*domain.Goal, error)) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid goal ID", nil)
	}

	goal, err := apply(c.Request().Context(), ownerID, id)
	if err != nil {
		return handleServiceError(c, err, operation)
	}

	return c.JSON(http.StatusOK, toGoalResponse(goal))
}

// DeleteGoal handles DELETE /api/v1/goals/:id
func (h *GoalHandler) DeleteGoal(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid goal ID", nil)
	}

	if err := h.goalService.DeleteGoal(c.Request().Context(), ownerID, id); err != nil {
		return handleServiceError(c, err, "delete goal")
	}

	return c.NoContent(http.StatusNoContent)
}

func toGoalResponse(g *domain.Goal) GoalResponse {
	return GoalResponse{
		ID:                 g.ID,
		Name:               g.Name,
		Description:        g.Description,
		Type:               string(g.Type),
		Status:             string(g.Status),
		TargetAmount:       g.TargetAmount.StringFixed(2),
		CurrentAmount:      g.CurrentAmount.StringFixed(2),
		ProgressPercentage: g.ProgressPercentage(),
		TargetDate:         util.FormatDate(g.TargetDate),
		CreatedAt:          formatTimestamp(g.CreatedAt),
		UpdatedAt:          formatTimestamp(g.UpdatedAt),
	}
}
