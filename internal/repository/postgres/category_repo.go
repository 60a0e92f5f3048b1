package postgres

import (
	"context"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

const (
	categoryColumns = `id, owner_id, name, type, parent_id, is_default, created_at, updated_at`
	categoryOrder   = ` ORDER BY type, name, id`
)

// Create creates a new category. A name already used for the type maps to
// ErrCategoryNameExists.
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO categories (owner_id, name, type, parent_id, is_default)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+categoryColumns,
		category.OwnerID,
		category.Name,
		string(category.Type),
		ptrToPgInt4(category.ParentID),
		category.IsDefault,
	)
	created, err := scanCategory(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrCategoryNameExists
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a category by its ID
func (r *CategoryRepository) GetByID(ctx context.Context, id int32) (*domain.Category, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	category, err := scanCategory(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// GetAllByOwner retrieves every category of an owner
func (r *CategoryRepository) GetAllByOwner(ctx context.Context, ownerID int32) ([]*domain.Category, error) {
	return r.list(ctx, `WHERE owner_id = $1`, ownerID)
}

// GetByOwnerAndType retrieves the owner's categories of one type
func (r *CategoryRepository) GetByOwnerAndType(ctx context.Context, ownerID int32, categoryType domain.CategoryType) ([]*domain.Category, error) {
	return r.list(ctx, `WHERE owner_id = $1 AND type = $2`, ownerID, string(categoryType))
}

// GetMainByOwner retrieves the owner's top-level categories
func (r *CategoryRepository) GetMainByOwner(ctx context.Context, ownerID int32) ([]*domain.Category, error) {
	return r.list(ctx, `WHERE owner_id = $1 AND parent_id IS NULL`, ownerID)
}

// GetChildren retrieves the subcategories of a category
func (r *CategoryRepository) GetChildren(ctx context.Context, ownerID int32, parentID int32) ([]*domain.Category, error) {
	return r.list(ctx, `WHERE owner_id = $1 AND parent_id = $2`, ownerID, parentID)
}

// GetByName retrieves a category by its unique (owner, name, type) key
func (r *CategoryRepository) GetByName(ctx context.Context, ownerID int32, name string, categoryType domain.CategoryType) (*domain.Category, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE owner_id = $1 AND name = $2 AND type = $3`,
		ownerID, name, string(categoryType))
	category, err := scanCategory(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// Update renames or moves a category
func (r *CategoryRepository) Update(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE categories
		SET name = $2, parent_id = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+categoryColumns,
		category.ID,
		category.Name,
		ptrToPgInt4(category.ParentID),
	)
	updated, err := scanCategory(row)
	if err != nil {
		switch {
		case isNoRows(err):
			return nil, domain.ErrCategoryNotFound
		case isUniqueViolation(err):
			return nil, domain.ErrCategoryNameExists
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a category
func (r *CategoryRepository) Delete(ctx context.Context, id int32) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) list(ctx context.Context, where string, args ...any) ([]*domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories `+where+categoryOrder, args...)
	if err != nil {
		return nil, err
	}
	return collectCategories(rows)
}

// Helper functions

func scanCategory(row rowScanner) (*domain.Category, error) {
	var (
		c            domain.Category
		categoryType string
		parentID     pgtype.Int4
	)
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &categoryType, &parentID, &c.IsDefault, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Type = domain.CategoryType(categoryType)
	c.ParentID = pgInt4ToPtr(parentID)
	return &c, nil
}

func collectCategories(rows pgx.Rows) ([]*domain.Category, error) {
	defer rows.Close()

	result := make([]*domain.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
