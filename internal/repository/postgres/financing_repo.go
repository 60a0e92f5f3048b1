package postgres

import (
	"context"
	"fmt"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FinancingRepository implements domain.FinancingRepository using PostgreSQL
type FinancingRepository struct {
	pool *pgxpool.Pool
}

// NewFinancingRepository creates a new FinancingRepository
func NewFinancingRepository(pool *pgxpool.Pool) *FinancingRepository {
	return &FinancingRepository{pool: pool}
}

const financingColumns = `id, owner_id, name, total_amount, remaining_amount, monthly_payment, type, end_date, version, created_at, updated_at`

// Create creates a new financing at version 1
func (r *FinancingRepository) Create(ctx context.Context, financing *domain.Financing) (*domain.Financing, error) {
	amounts, err := numerics(financing.TotalAmount, financing.RemainingAmount, financing.MonthlyPayment)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO financings (owner_id, name, total_amount, remaining_amount, monthly_payment, type, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+financingColumns,
		financing.OwnerID,
		financing.Name,
		amounts[0],
		amounts[1],
		amounts[2],
		string(financing.Type),
		timeToPgDate(financing.EndDate),
	)
	return scanFinancing(row)
}

// GetByID retrieves a financing by its ID
func (r *FinancingRepository) GetByID(ctx context.Context, id int32) (*domain.Financing, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+financingColumns+` FROM financings WHERE id = $1`, id)
	financing, err := scanFinancing(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrFinancingNotFound
		}
		return nil, err
	}
	return financing, nil
}

// GetAllByOwner retrieves every financing of an owner
func (r *FinancingRepository) GetAllByOwner(ctx context.Context, ownerID int32) ([]*domain.Financing, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+financingColumns+` FROM financings WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.Financing, 0)
	for rows.Next() {
		f, err := scanFinancing(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

// Update writes every editable column if the stored version still matches
func (r *FinancingRepository) Update(ctx context.Context, financing *domain.Financing) (*domain.Financing, error) {
	amounts, err := numerics(financing.TotalAmount, financing.RemainingAmount, financing.MonthlyPayment)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE financings
		SET name = $3, total_amount = $4, remaining_amount = $5, monthly_payment = $6,
			type = $7, end_date = $8, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING `+financingColumns,
		financing.ID,
		financing.Version,
		financing.Name,
		amounts[0],
		amounts[1],
		amounts[2],
		string(financing.Type),
		timeToPgDate(financing.EndDate),
	)
	updated, err := scanFinancing(row)
	if err != nil {
		if isNoRows(err) {
			return nil, financingMissingOrStale(ctx, r.pool, financing.ID)
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a financing; its payments go with it by cascade
func (r *FinancingRepository) Delete(ctx context.Context, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM financings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFinancingNotFound
	}
	return nil
}

// querier is the subset of pgxpool.Pool and pgx.Tx the repositories share
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// financingMissingOrStale tells a deleted financing from a version mismatch
// after a compare-and-swap matched no row
func financingMissingOrStale(ctx context.Context, q querier, id int32) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM financings WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrFinancingNotFound
	}
	return domain.ErrConcurrentUpdate
}

// Helper functions

func scanFinancing(row rowScanner) (*domain.Financing, error) {
	var (
		f                         domain.Financing
		financingType             string
		total, remaining, monthly pgtype.Numeric
		endDate                   pgtype.Date
	)
	err := row.Scan(&f.ID, &f.OwnerID, &f.Name, &total, &remaining, &monthly, &financingType, &endDate, &f.Version, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	f.TotalAmount = pgNumericToDecimal(total)
	f.RemainingAmount = pgNumericToDecimal(remaining)
	f.MonthlyPayment = pgNumericToDecimal(monthly)
	f.Type = domain.FinancingType(financingType)
	f.EndDate = pgDateToTime(endDate)
	return &f, nil
}
