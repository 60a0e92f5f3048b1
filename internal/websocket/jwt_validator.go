package websocket

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

// ErrInvalidToken is returned when JWT validation fails
var ErrInvalidToken = errors.New("invalid token")

// ErrOwnerNotResolved is returned when the token subject cannot be mapped to an owner
var ErrOwnerNotResolved = errors.New("owner not resolved")

// OwnerResolver maps an Auth0 subject to the owner ID its records are stored under
type OwnerResolver interface {
	ResolveOwner(ctx context.Context, auth0ID, email string) (int32, error)
}

// CustomClaims contains the custom claims from Auth0 JWT
type CustomClaims struct {
	Email string `json:"email"`
}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// Auth0JWTValidator validates the token a WebSocket client passes on connect.
// Browsers cannot set headers on the upgrade request, so the token arrives as
// a query parameter and is checked here instead of by the HTTP middleware.
type Auth0JWTValidator struct {
	validator *validator.Validator
	owners    OwnerResolver
}

func NewAuth0JWTValidator(domain, audience string, owners OwnerResolver) (*Auth0JWTValidator, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return &Auth0JWTValidator{
		validator: jwtValidator,
		owners:    owners,
	}, nil
}

// ValidateToken validates a JWT and returns the owner it belongs to
func (v *Auth0JWTValidator) ValidateToken(ctx context.Context, token string) (int32, error) {
	claims, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return 0, ErrInvalidToken
	}

	validated, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	var email string
	if custom, ok := validated.CustomClaims.(*CustomClaims); ok {
		email = custom.Email
	}

	ownerID, err := v.owners.ResolveOwner(ctx, validated.RegisteredClaims.Subject, email)
	if err != nil {
		return 0, ErrOwnerNotResolved
	}
	return ownerID, nil
}
