package postgres

import (
	"context"
	"fmt"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GoalRepository implements domain.GoalRepository using PostgreSQL
type GoalRepository struct {
	pool *pgxpool.Pool
}

// NewGoalRepository creates a new GoalRepository
func NewGoalRepository(pool *pgxpool.Pool) *GoalRepository {
	return &GoalRepository{pool: pool}
}

const goalColumns = `id, owner_id, name, description, target_amount, current_amount, target_date, type, status, version, created_at, updated_at`

// Create creates a new goal at version 1
func (r *GoalRepository) Create(ctx context.Context, goal *domain.Goal) (*domain.Goal, error) {
	amounts, err := numerics(goal.TargetAmount, goal.CurrentAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO goals (owner_id, name, description, target_amount, current_amount, target_date, type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+goalColumns,
		goal.OwnerID,
		goal.Name,
		goal.Description,
		amounts[0],
		amounts[1],
		timeToPgDate(goal.TargetDate),
		string(goal.Type),
		string(goal.Status),
	)
	return scanGoal(row)
}

// GetByID retrieves a goal by its ID
func (r *GoalRepository) GetByID(ctx context.Context, id int32) (*domain.Goal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = $1`, id)
	goal, err := scanGoal(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrGoalNotFound
		}
		return nil, err
	}
	return goal, nil
}

// GetAllByOwner retrieves every goal of an owner
func (r *GoalRepository) GetAllByOwner(ctx context.Context, ownerID int32) ([]*domain.Goal, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+goalColumns+` FROM goals WHERE owner_id = $1 ORDER BY target_date, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

// Update writes the goal if the stored version still matches
func (r *GoalRepository) Update(ctx context.Context, goal *domain.Goal) (*domain.Goal, error) {
	amounts, err := numerics(goal.TargetAmount, goal.CurrentAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE goals
		SET name = $3, description = $4, target_amount = $5, current_amount = $6,
			target_date = $7, type = $8, status = $9, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING `+goalColumns,
		goal.ID,
		goal.Version,
		goal.Name,
		goal.Description,
		amounts[0],
		amounts[1],
		timeToPgDate(goal.TargetDate),
		string(goal.Type),
		string(goal.Status),
	)
	updated, err := scanGoal(row)
	if err == nil {
		return updated, nil
	}
	if !isNoRows(err) {
		return nil, err
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM goals WHERE id = $1)`, goal.ID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrGoalNotFound
	}
	return nil, domain.ErrConcurrentUpdate
}

// Delete removes a goal
func (r *GoalRepository) Delete(ctx context.Context, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM goals WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGoalNotFound
	}
	return nil
}

// Helper functions

func scanGoal(row rowScanner) (*domain.Goal, error) {
	var (
		g               domain.Goal
		target, current pgtype.Numeric
		targetDate      pgtype.Date
		goalType        string
		status          string
	)
	err := row.Scan(&g.ID, &g.OwnerID, &g.Name, &g.Description, &target, &current, &targetDate, &goalType, &status, &g.Version, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.TargetAmount = pgNumericToDecimal(target)
	g.CurrentAmount = pgNumericToDecimal(current)
	g.TargetDate = pgDateToTime(targetDate)
	g.Type = domain.GoalType(goalType)
	g.Status = domain.GoalStatus(status)
	return &g, nil
}
