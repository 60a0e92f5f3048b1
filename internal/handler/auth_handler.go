package handler

import (
	"context"
	"net/http"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/dafibh/qfin/qfin-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// OwnerLookup resolves the owner record of an Auth0 subject
type OwnerLookup interface {
	GetOwner(ctx context.Context, auth0ID string) (*domain.Owner, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	owners OwnerLookup
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(owners OwnerLookup) *AuthHandler {
	return &AuthHandler{
		owners: owners,
	}
}

// MeResponse represents the authenticated owner in API responses
type MeResponse struct {
	ID        int32  `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// Me returns the current authenticated owner
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	auth0ID := middleware.GetAuth0ID(c)
	if auth0ID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	owner, err := h.owners.GetOwner(c.Request().Context(), auth0ID)
	if err != nil {
		return handleServiceError(c, err, "get owner")
	}

	response := MeResponse{
		ID:        owner.ID,
		Email:     owner.Email,
		CreatedAt: formatTimestamp(owner.CreatedAt),
	}
	if claims := middleware.GetCustomClaims(c); claims != nil {
		response.Name = claims.Name
		if response.Email == "" {
			response.Email = claims.Email
		}
	}

	return c.JSON(http.StatusOK, response)
}
