package service

import (
	"context"
	"errors"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/dafibh/qfin/qfin-backend/internal/websocket"
	"github.com/rs/zerolog/log"
)

// CategoryService handles the two-level category tree of an owner
type CategoryService struct {
	categoryRepo   domain.CategoryRepository
	eventPublisher websocket.EventPublisher
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo domain.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *CategoryService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *CategoryService) publishEvent(ownerID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(ownerID, event)
	}
}

// CreateCategoryInput holds the input for creating a category.
// A nil ParentID creates a main category.
type CreateCategoryInput struct {
	Name     string
	Type     domain.CategoryType
	ParentID *int32
}

// UpdateCategoryInput holds the input for renaming or moving a category.
// The type of a category never changes.
type UpdateCategoryInput struct {
	Name     string
	ParentID *int32
}

// CreateCategory creates a category
func (s *CategoryService) CreateCategory(ctx context.Context, ownerID int32, input CreateCategoryInput) (*domain.Category, error) {
	name, err := domain.ValidateCategoryName(input.Name)
	if err != nil {
		return nil, err
	}
	if !input.Type.Valid() {
		return nil, domain.ErrCategoryTypeInvalid
	}
	if err := s.checkNameFree(ctx, ownerID, name, input.Type, 0); err != nil {
		return nil, err
	}
	if input.ParentID != nil {
		if err := s.checkParent(ctx, ownerID, *input.ParentID, input.Type); err != nil {
			return nil, err
		}
	}

	created, err := s.categoryRepo.Create(ctx, &domain.Category{
		OwnerID:  ownerID,
		Name:     name,
		Type:     input.Type,
		ParentID: input.ParentID,
	})
	if err != nil {
		return nil, domain.NewStorageError("create category", err)
	}

	s.publishEvent(ownerID, websocket.CategoryCreated(created))
	return created, nil
}

// GetCategory retrieves a category of the owner
func (s *CategoryService) GetCategory(ctx context.Context, ownerID int32, id int32) (*domain.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewStorageError("get category", err)
	}
	if err := domain.CheckOwner("category", category, ownerID); err != nil {
		return nil, err
	}
	return category, nil
}

// ListCategories returns every category of the owner
func (s *CategoryService) ListCategories(ctx context.Context, ownerID int32) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.GetAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.NewStorageError("list categories", err)
	}
	return categories, nil
}

// ListMainCategories returns the owner's top-level categories
func (s *CategoryService) ListMainCategories(ctx context.Context, ownerID int32) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.GetMainByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.NewStorageError("list main categories", err)
	}
	return categories, nil
}

// ListCategoriesByType returns the owner's categories of one type
func (s *CategoryService) ListCategoriesByType(ctx context.Context, ownerID int32, categoryType domain.CategoryType) ([]*domain.Category, error) {
	if !categoryType.Valid() {
		return nil, domain.ErrCategoryTypeInvalid
	}
	categories, err := s.categoryRepo.GetByOwnerAndType(ctx, ownerID, categoryType)
	if err != nil {
		return nil, domain.NewStorageError("list categories by type", err)
	}
	return categories, nil
}

// ListSubcategories returns the children of one of the owner's categories
func (s *CategoryService) ListSubcategories(ctx context.Context, ownerID int32, parentID int32) ([]*domain.Category, error) {
	if _, err := s.GetCategory(ctx, ownerID, parentID); err != nil {
		return nil, err
	}
	children, err := s.categoryRepo.GetChildren(ctx, ownerID, parentID)
	if err != nil {
		return nil, domain.NewStorageError("list subcategories", err)
	}
	return children, nil
}

// UpdateCategory renames or moves a category. Default categories are immutable.
func (s *CategoryService) UpdateCategory(ctx context.Context, ownerID int32, id int32, input UpdateCategoryInput) (*domain.Category, error) {
	category, err := s.GetCategory(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if category.IsDefault {
		return nil, domain.ErrCategoryIsDefault
	}

	name, err := domain.ValidateCategoryName(input.Name)
	if err != nil {
		return nil, err
	}
	if err := s.checkNameFree(ctx, ownerID, name, category.Type, category.ID); err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		if *input.ParentID == category.ID {
			return nil, domain.ErrCategoryParentSelf
		}
		if err := s.checkParent(ctx, ownerID, *input.ParentID, category.Type); err != nil {
			return nil, err
		}
		// A main category with children cannot become a subcategory
		children, err := s.categoryRepo.GetChildren(ctx, ownerID, category.ID)
		if err != nil {
			return nil, domain.NewStorageError("list subcategories", err)
		}
		if len(children) > 0 {
			return nil, domain.ErrCategoryHasChildren
		}
	}

	category.Name = name
	category.ParentID = input.ParentID

	updated, err := s.categoryRepo.Update(ctx, category)
	if err != nil {
		return nil, domain.NewStorageError("update category", err)
	}

	s.publishEvent(ownerID, websocket.CategoryUpdated(updated))
	return updated, nil
}

// DeleteCategory removes a category without children. Default categories
// cannot be deleted.
func (s *CategoryService) DeleteCategory(ctx context.Context, ownerID int32, id int32) error {
	category, err := s.GetCategory(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if category.IsDefault {
		return domain.ErrCategoryIsDefault
	}

	children, err := s.categoryRepo.GetChildren(ctx, ownerID, id)
	if err != nil {
		return domain.NewStorageError("list subcategories", err)
	}
	if len(children) > 0 {
		return domain.ErrCategoryHasChildren
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return domain.NewStorageError("delete category", err)
	}

	s.publishEvent(ownerID, websocket.CategoryDeleted(id))
	return nil
}

// InitializeDefaults seeds the default categories for an owner without any
// categories. It returns the created categories, or none when the owner
// already has some.
func (s *CategoryService) InitializeDefaults(ctx context.Context, ownerID int32) ([]*domain.Category, error) {
	existing, err := s.categoryRepo.GetAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.NewStorageError("list categories", err)
	}
	if len(existing) > 0 {
		return []*domain.Category{}, nil
	}

	created := make([]*domain.Category, 0, len(domain.DefaultCategories))
	for _, d := range domain.DefaultCategories {
		category, err := s.categoryRepo.Create(ctx, &domain.Category{
			OwnerID:   ownerID,
			Name:      d.Name,
			Type:      d.Type,
			IsDefault: true,
		})
		if err != nil {
			return nil, domain.NewStorageError("create default category", err)
		}
		created = append(created, category)
	}

	log.Info().Int32("owner_id", ownerID).Int("count", len(created)).Msg("Default categories initialized")
	s.publishEvent(ownerID, websocket.CategoriesInitialized(created))
	return created, nil
}

// checkNameFree fails when another category of the owner already uses name for
// the type. exceptID excludes the category being renamed.
func (s *CategoryService) checkNameFree(ctx context.Context, ownerID int32, name string, categoryType domain.CategoryType, exceptID int32) error {
	existing, err := s.categoryRepo.GetByName(ctx, ownerID, name, categoryType)
	if errors.Is(err, domain.ErrCategoryNotFound) {
		return nil
	}
	if err != nil {
		return domain.NewStorageError("get category by name", err)
	}
	if existing.ID != exceptID {
		return domain.ErrCategoryNameExists
	}
	return nil
}

// checkParent verifies that parentID names a main category of the owner with
// the given type. A parent of another owner is reported as missing.
func (s *CategoryService) checkParent(ctx context.Context, ownerID int32, parentID int32, categoryType domain.CategoryType) error {
	parent, err := s.categoryRepo.GetByID(ctx, parentID)
	if errors.Is(err, domain.ErrCategoryNotFound) {
		return domain.ErrCategoryParentNotFound
	}
	if err != nil {
		return domain.NewStorageError("get parent category", err)
	}
	if parent.OwnerID != ownerID {
		return domain.ErrCategoryParentNotFound
	}
	if parent.Type != categoryType {
		return domain.ErrCategoryParentType
	}
	if !parent.IsMain() {
		return domain.ErrCategoryParentNested
	}
	return nil
}
