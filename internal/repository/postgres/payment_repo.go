package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaymentRepository implements domain.PaymentRepository using PostgreSQL.
// Every write pairs the payment row with the financing balance in one
// database transaction.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const paymentColumns = `id, financing_id, amount, payment_date, description, created_at`

// GetByID retrieves a payment by its ID
func (r *PaymentRepository) GetByID(ctx context.Context, id int32) (*domain.Payment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	payment, err := scanPayment(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// GetByFinancingID retrieves the payments of a financing, newest first
func (r *PaymentRepository) GetByFinancingID(ctx context.Context, financingID int32) ([]*domain.Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE financing_id = $1
		ORDER BY payment_date DESC, id DESC`,
		financingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// CreateWithBalance inserts the payment and writes the financing balance
func (r *PaymentRepository) CreateWithBalance(ctx context.Context, financing *domain.Financing, payment *domain.Payment) (*domain.Payment, error) {
	amount, err := decimalToPgNumeric(payment.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	var (
		created *domain.Payment
		stamp   versionStamp
	)
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		if stamp, err = swapBalance(ctx, tx, financing); err != nil {
			return err
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO payments (financing_id, amount, payment_date, description)
			VALUES ($1, $2, $3, $4)
			RETURNING `+paymentColumns,
			financing.ID,
			amount,
			timeToPgDate(payment.PaymentDate),
			payment.Description,
		)
		created, err = scanPayment(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	stamp.apply(financing)
	return created, nil
}

// DeleteWithBalance deletes the payment and writes the financing balance
func (r *PaymentRepository) DeleteWithBalance(ctx context.Context, financing *domain.Financing, paymentID int32) error {
	var stamp versionStamp
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM payments WHERE id = $1 AND financing_id = $2`, paymentID, financing.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrPaymentNotFound
		}
		stamp, err = swapBalance(ctx, tx, financing)
		return err
	})
	if err != nil {
		return err
	}
	stamp.apply(financing)
	return nil
}

// versionStamp is what a successful balance swap leaves on the row
type versionStamp struct {
	version   int32
	updatedAt time.Time
}

func (s versionStamp) apply(financing *domain.Financing) {
	financing.Version = s.version
	financing.UpdatedAt = s.updatedAt
}

// swapBalance writes financing.RemainingAmount if the stored version still
// matches
func swapBalance(ctx context.Context, tx pgx.Tx, financing *domain.Financing) (versionStamp, error) {
	var stamp versionStamp
	remaining, err := decimalToPgNumeric(financing.RemainingAmount)
	if err != nil {
		return stamp, fmt.Errorf("invalid remaining amount: %w", err)
	}

	err = tx.QueryRow(ctx, `
		UPDATE financings
		SET remaining_amount = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at`,
		financing.ID, financing.Version, remaining,
	).Scan(&stamp.version, &stamp.updatedAt)
	if isNoRows(err) {
		return stamp, financingMissingOrStale(ctx, tx, financing.ID)
	}
	return stamp, err
}

// Helper functions

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var (
		p      domain.Payment
		amount pgtype.Numeric
		date   pgtype.Date
	)
	if err := row.Scan(&p.ID, &p.FinancingID, &amount, &date, &p.Description, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Amount = pgNumericToDecimal(amount)
	p.PaymentDate = pgDateToTime(date)
	return &p, nil
}
