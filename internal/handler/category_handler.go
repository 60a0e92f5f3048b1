package handler

import (
	"net/http"
	"strings"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/dafibh/qfin/qfin-backend/internal/middleware"
	"github.com/dafibh/qfin/qfin-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CreateCategoryRequest represents the create category request body.
// Omit parentId to create a main category.
type CreateCategoryRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID *int32 `json:"parentId,omitempty"`
}

// UpdateCategoryRequest represents the update category request body.
// Omitting parentId turns the category into a main category.
type UpdateCategoryRequest struct {
	Name     string `json:"name"`
	ParentID *int32 `json:"parentId,omitempty"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID        int32  `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	ParentID  *int32 `json:"parentId,omitempty"`
	IsDefault bool   `json:"isDefault"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// CreateCategory handles POST /api/v1/categories
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	var req CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.categoryService.CreateCategory(c.Request().Context(), ownerID, service.CreateCategoryInput{
		Name:     req.Name,
		Type:     parseCategoryType(req.Type),
		ParentID: req.ParentID,
	})
	if err != nil {
		return handleServiceError(c, err, "create category")
	}

	return c.JSON(http.StatusCreated, toCategoryResponse(category))
}

// GetCategories handles GET /api/v1/categories
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	categories, err := h.categoryService.ListCategories(c.Request().Context(), ownerID)
	if err != nil {
		return handleServiceError(c, err, "list categories")
	}
	return c.JSON(http.StatusOK, toCategoryResponses(categories))
}

// GetMainCategories handles GET /api/v1/categories/main
func (h *CategoryHandler) GetMainCategories(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	categories, err := h.categoryService.ListMainCategories(c.Request().Context(), ownerID)
	if err != nil {
		return handleServiceError(c, err, "list main categories")
	}
	return c.JSON(http.StatusOK, toCategoryResponses(categories))
}

// GetCategoriesByType handles GET /api/v1/categories/type/:type
func (h *CategoryHandler) GetCategoriesByType(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	categories, err := h.categoryService.ListCategoriesByType(c.Request().Context(), ownerID, parseCategoryType(c.Param("type")))
	if err != nil {
		return handleServiceError(c, err, "list categories by type")
	}
	return c.JSON(http.StatusOK, toCategoryResponses(categories))
}

// GetSubcategories handles GET /api/v1/categories/:id/subcategories
func (h *CategoryHandler) GetSubcategories(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	categories, err := h.categoryService.ListSubcategories(c.Request().Context(), ownerID, id)
	if err != nil {
		return handleServiceError(c, err, "list subcategories")
	}
	return c.JSON(http.StatusOK, toCategoryResponses(categories))
}

// GetCategory handles GET /api/v1/categories/:id
func (h *CategoryHandler) GetCategory(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	category, err := h.categoryService.GetCategory(c.Request().Context(), ownerID, id)
	if err != nil {
		return handleServiceError(c, err, "get category")
	}
	return c.JSON(http.StatusOK, toCategoryResponse(category))
}

// UpdateCategory handles PUT /api/v1/categories/:id
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	var req UpdateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.categoryService.UpdateCategory(c.Request().Context(), ownerID, id, service.UpdateCategoryInput{
		Name:     req.Name,
		ParentID: req.ParentID,
	})
	if err != nil {
		return handleServiceError(c, err, "update category")
	}
	return c.JSON(http.StatusOK, toCategoryResponse(category))
}

// DeleteCategory handles DELETE /api/v1/categories/:id
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	if err := h.categoryService.DeleteCategory(c.Request().Context(), ownerID, id); err != nil {
		return handleServiceError(c, err, "delete category")
	}
	return c.NoContent(http.StatusNoContent)
}

// InitializeDefaults handles POST /api/v1/categories/initialize
func (h *CategoryHandler) InitializeDefaults(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == 0 {
		return NewUnauthorizedError(c, "Owner required")
	}

	created, err := h.categoryService.InitializeDefaults(c.Request().Context(), ownerID)
	if err != nil {
		return handleServiceError(c, err, "initialize categories")
	}

	status := http.StatusCreated
	if len(created) == 0 {
		status = http.StatusOK
	}
	return c.JSON(status, toCategoryResponses(created))
}

func parseCategoryType(s string) domain.CategoryType {
	return domain.CategoryType(strings.ToUpper(strings.TrimSpace(s)))
}

func toCategoryResponse(category *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:        category.ID,
		Name:      category.Name,
		Type:      string(category.Type),
		ParentID:  category.ParentID,
		IsDefault: category.IsDefault,
		CreatedAt: formatTimestamp(category.CreatedAt),
		UpdatedAt: formatTimestamp(category.UpdatedAt),
	}
}

func toCategoryResponses(categories []*domain.Category) []CategoryResponse {
	response := make([]CategoryResponse, len(categories))
	for i, category := range categories {
		response[i] = toCategoryResponse(category)
	}
	return response
}
