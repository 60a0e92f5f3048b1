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

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, owner_id, type, amount, category, description, date, created_at, updated_at`

// Create creates a new transaction
func (r *TransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO transactions (owner_id, type, amount, category, description, date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+transactionColumns,
		transaction.OwnerID,
		string(transaction.Type),
		amount,
		transaction.Category,
		transaction.Description,
		timeToPgDate(transaction.Date),
	)
	return scanTransaction(row)
}

// GetByID retrieves a transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id int32) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	transaction, err := scanTransaction(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// GetAllByOwner retrieves every transaction of an owner, newest first
func (r *TransactionRepository) GetAllByOwner(ctx context.Context, ownerID int32) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE owner_id = $1
		ORDER BY date DESC, id DESC`,
		ownerID)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

// GetByOwnerAndDateRange retrieves the owner's transactions with start <= date <= end
func (r *TransactionRepository) GetByOwnerAndDateRange(ctx context.Context, ownerID int32, start, end time.Time) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE owner_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date DESC, id DESC`,
		ownerID, timeToPgDate(start), timeToPgDate(end))
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

// Update updates the editable fields of a transaction
func (r *TransactionRepository) Update(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE transactions
		SET amount = $2, category = $3, description = $4, date = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+transactionColumns,
		transaction.ID,
		amount,
		transaction.Category,
		transaction.Description,
		timeToPgDate(transaction.Date),
	)
	updated, err := scanTransaction(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a transaction
func (r *TransactionRepository) Delete(ctx context.Context, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// Helper functions

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		t      domain.Transaction
		txType string
		amount pgtype.Numeric
		date   pgtype.Date
	)
	err := row.Scan(&t.ID, &t.OwnerID, &txType, &amount, &t.Category, &t.Description, &date, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Type = domain.TransactionType(txType)
	t.Amount = pgNumericToDecimal(amount)
	t.Date = pgDateToTime(date)
	return &t, nil
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	defer rows.Close()

	result := make([]*domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
