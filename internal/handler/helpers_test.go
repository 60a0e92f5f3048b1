package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/dafibh/qfin/qfin-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// newOwnerContext builds an echo context for a request made by ownerID
func newOwnerContext(e *echo.Echo, method, target, body string, ownerID int32) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if ownerID != 0 {
		req = req.WithContext(context.WithValue(req.Context(), middleware.OwnerIDKey, ownerID))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// setPathParams sets the route parameters of c
func setPathParams(c echo.Context, pairs ...string) {
	names := make([]string, 0, len(pairs)/2)
	values := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		names = append(names, pairs[i])
		values = append(values, pairs[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
}

// setupAuthContext adds the Auth0 subject and custom claims to the request
func setupAuthContext(c echo.Context, auth0ID, email, name string) {
	ctx := context.WithValue(c.Request().Context(), middleware.Auth0IDKey, auth0ID)
	ctx = context.WithValue(ctx, middleware.ClaimsKey, &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{Subject: auth0ID},
		CustomClaims:     &middleware.CustomClaims{Email: email, Name: name},
	})
	c.SetRequest(c.Request().WithContext(ctx))
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal problem: %v", err)
	}
	return problem
}
