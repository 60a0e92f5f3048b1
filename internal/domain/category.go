package domain

import (
	"context"
	"strings"
	"time"
)

type CategoryType = TransactionType

var (
	ErrCategoryNotFound       = NotFound("category")
	ErrCategoryNameEmpty      = invalidField("name", "is required")
	ErrCategoryNameTooLong    = invalidField("name", "must be 100 characters or less")
	ErrCategoryTypeInvalid    = invalidField("type", "must be INCOME or EXPENSE")
	ErrCategoryParentNotFound = invalidField("parentId", "parent category not found")
	ErrCategoryParentType     = invalidField("parentId", "parent category must be of the same type")
	ErrCategoryParentSelf     = invalidField("parentId", "category cannot be its own parent")
	ErrCategoryParentNested   = invalidField("parentId", "parent category must be a main category")

	ErrCategoryNameExists  = &kindError{msg: "category with this name already exists", kind: ErrAlreadyExists}
	ErrCategoryIsDefault   = &StateError{Message: "default categories cannot be modified"}
	ErrCategoryHasChildren = &StateError{Message: "category has subcategories"}
)

const MaxCategoryNameLength = 100

// Category groups transactions. Categories form a two-level tree: main
// categories have no parent, subcategories point to a main category of the
// same owner and type.
type Category struct {
	ID        int32        `json:"id"`
	OwnerID   int32        `json:"ownerId"`
	Name      string       `json:"name"`
	Type      CategoryType `json:"type"`
	ParentID  *int32       `json:"parentId,omitempty"`
	IsDefault bool         `json:"isDefault"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func (c *Category) Owner() int32 {
	return c.OwnerID
}

// IsMain returns true for top-level categories
func (c *Category) IsMain() bool {
	return c.ParentID == nil
}

// ValidateCategoryName trims and checks a category name
func ValidateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrCategoryNameEmpty
	}
	if len(name) > MaxCategoryNameLength {
		return "", ErrCategoryNameTooLong
	}
	return name, nil
}

// DefaultCategory is a seed entry created for every new owner
type DefaultCategory struct {
	Name string
	Type CategoryType
}

// DefaultCategories are seeded by CategoryService.InitializeDefaults
var DefaultCategories = []DefaultCategory{
	{Name: "Salary", Type: TransactionTypeIncome},
	{Name: "Freelance", Type: TransactionTypeIncome},
	{Name: "Investments", Type: TransactionTypeIncome},
	{Name: "Rent", Type: TransactionTypeIncome},
	{Name: "Other", Type: TransactionTypeIncome},
	{Name: "Food", Type: TransactionTypeExpense},
	{Name: "Transport", Type: TransactionTypeExpense},
	{Name: "Housing", Type: TransactionTypeExpense},
	{Name: "Health", Type: TransactionTypeExpense},
	{Name: "Education", Type: TransactionTypeExpense},
	{Name: "Leisure", Type: TransactionTypeExpense},
	{Name: "Shopping", Type: TransactionTypeExpense},
	{Name: "Other", Type: TransactionTypeExpense},
}

type CategoryRepository interface {
	Create(ctx context.Context, category *Category) (*Category, error)
	GetByID(ctx context.Context, id int32) (*Category, error)
	GetAllByOwner(ctx context.Context, ownerID int32) ([]*Category, error)
	GetByOwnerAndType(ctx context.Context, ownerID int32, categoryType CategoryType) ([]*Category, error)
	GetMainByOwner(ctx context.Context, ownerID int32) ([]*Category, error)
	GetChildren(ctx context.Context, ownerID int32, parentID int32) ([]*Category, error)
	// GetByName returns ErrCategoryNotFound when no category matches
	GetByName(ctx context.Context, ownerID int32, name string, categoryType CategoryType) (*Category, error)
	Update(ctx context.Context, category *Category) (*Category, error)
	Delete(ctx context.Context, id int32) error
}
