package handler

import (
	"errors"
	"strings"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/dafibh/qfin/qfin-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Problem types. There is no forbidden type: a foreign resource is reported as
// not found.
const (
	ErrorTypeValidation   = "https://qfin.app/errors/validation"
	ErrorTypeNotFound     = "https://qfin.app/errors/not-found"
	ErrorTypeUnauthorized = "https://qfin.app/errors/unauthorized"
	ErrorTypeConflict     = "https://qfin.app/errors/conflict"
	ErrorTypeInternal     = "https://qfin.app/errors/internal"
)

// handleServiceError maps service errors to problem details. A resource owned
// by someone else is reported exactly like a missing one.
func handleServiceError(c echo.Context, err error, operation string) error {
	var fieldErr *domain.FieldError
	var resourceErr *domain.ResourceError

	switch {
	case errors.As(err, &fieldErr):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: fieldErr.Field, Message: fieldErr.Message},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, err.Error(), nil)
	case errors.As(err, &resourceErr):
		return NewNotFoundError(c, capitalize(resourceErr.Resource)+" not found")
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrForbidden):
		return NewNotFoundError(c, "Resource not found")
	case errors.Is(err, domain.ErrConcurrentUpdate):
		return NewConflictError(c, "Resource was modified concurrently, please retry")
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrAlreadyExists):
		return NewConflictError(c, capitalize(err.Error()))
	case errors.Is(err, domain.ErrUnauthorized):
		return NewUnauthorizedError(c, "Unauthorized")
	}

	log.Error().
		Err(err).
		Int32("owner_id", middleware.GetOwnerID(c)).
		Str("operation", operation).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("Request failed")
	return NewInternalError(c, "Failed to "+operation)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
