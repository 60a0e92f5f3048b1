package service

import (
	"context"
	"strings"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// AuthService maps identity provider subjects to owners
type AuthService struct {
	ownerRepo domain.OwnerRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(ownerRepo domain.OwnerRepository) *AuthService {
	return &AuthService{ownerRepo: ownerRepo}
}

// ResolveOwner returns the owner ID of an Auth0 subject, creating the owner on
// first sight
func (s *AuthService) ResolveOwner(ctx context.Context, auth0ID, email string) (int32, error) {
	auth0ID = strings.TrimSpace(auth0ID)
	if auth0ID == "" {
		return 0, domain.ErrUnauthorized
	}

	owner, err := s.ownerRepo.GetOrCreateByAuth0ID(ctx, auth0ID, email)
	if err != nil {
		log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Failed to resolve owner")
		return 0, domain.NewStorageError("resolve owner", err)
	}
	return owner.ID, nil
}

// GetOwner returns the owner of an Auth0 subject
func (s *AuthService) GetOwner(ctx context.Context, auth0ID string) (*domain.Owner, error) {
	owner, err := s.ownerRepo.GetByAuth0ID(ctx, auth0ID)
	if err != nil {
		return nil, domain.NewStorageError("get owner", err)
	}
	return owner, nil
}
