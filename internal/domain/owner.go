package domain

import (
	"context"
	"time"
)

var ErrOwnerNotFound = NotFound("owner")

// Owner is the identity every ledger record belongs to. It is resolved from the
// Auth0 subject of the caller's token.
type Owner struct {
	ID        int32     `json:"id"`
	Auth0ID   string    `json:"auth0Id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Owned is implemented by every record scoped to an owner
type Owned interface {
	Owner() int32
}

// CheckOwner is the single authorization predicate applied before any read of a
// single record or any mutation. It returns a *ResourceError of kind ErrForbidden
// when the record belongs to someone else.
func CheckOwner(resource string, entity Owned, callerID int32) error {
	if entity.Owner() != callerID {
		return &ResourceError{Resource: resource, Kind: ErrForbidden}
	}
	return nil
}

type OwnerRepository interface {
	GetOrCreateByAuth0ID(ctx context.Context, auth0ID, email string) (*Owner, error)
	GetByAuth0ID(ctx context.Context, auth0ID string) (*Owner, error)
	GetAllIDs(ctx context.Context) ([]int32, error)
}
