package postgres

import (
	"context"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OwnerRepository implements domain.OwnerRepository using PostgreSQL
type OwnerRepository struct {
	pool *pgxpool.Pool
}

// NewOwnerRepository creates a new OwnerRepository
func NewOwnerRepository(pool *pgxpool.Pool) *OwnerRepository {
	return &OwnerRepository{pool: pool}
}

const ownerColumns = `id, auth0_id, email, created_at`

// GetOrCreateByAuth0ID upserts the owner of an Auth0 subject. A non-empty email
// refreshes the stored one.
func (r *OwnerRepository) GetOrCreateByAuth0ID(ctx context.Context, auth0ID, email string) (*domain.Owner, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO owners (auth0_id, email)
		VALUES ($1, $2)
		ON CONFLICT (auth0_id) DO UPDATE
			SET email = COALESCE(NULLIF(EXCLUDED.email, ''), owners.email)
		RETURNING `+ownerColumns,
		auth0ID, email)
	return scanOwner(row)
}

// GetByAuth0ID retrieves an owner by Auth0 subject
func (r *OwnerRepository) GetByAuth0ID(ctx context.Context, auth0ID string) (*domain.Owner, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+ownerColumns+` FROM owners WHERE auth0_id = $1`, auth0ID)
	owner, err := scanOwner(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrOwnerNotFound
		}
		return nil, err
	}
	return owner, nil
}

// GetAllIDs returns every owner ID in ascending order
func (r *OwnerRepository) GetAllIDs(ctx context.Context) ([]int32, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM owners ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int32, 0)
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanOwner(row rowScanner) (*domain.Owner, error) {
	var o domain.Owner
	if err := row.Scan(&o.ID, &o.Auth0ID, &o.Email, &o.CreatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}
