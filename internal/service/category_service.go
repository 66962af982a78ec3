package service

import (
	"context"
	"errors"
	"strings"

	"home-budget/internal/domain"
	"home-budget/internal/repository"
)

// ErrDuplicateCategory is returned when a user already has a category with
// the requested name.
var ErrDuplicateCategory = errors.New("category with this name already exists")

// CategoryService coordinates category operations scoped to one user.
type CategoryService interface {
	Create(ctx context.Context, userID int64, name string) (*domain.Category, error)
	List(ctx context.Context, userID int64) ([]domain.Category, error)
	Update(ctx context.Context, userID, id int64, name string) (*domain.Category, error)
	Delete(ctx context.Context, userID, id int64) error
}

type categoryService struct {
	categories repository.CategoryRepository
}

func NewCategoryService(categories repository.CategoryRepository) CategoryService {
	return &categoryService{categories: categories}
}

func (s *categoryService) Create(ctx context.Context, userID int64, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ValidationError("category name is required")
	}

	category := &domain.Category{
		UserID: userID,
		Name:   name,
	}
	if _, err := s.categories.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateCategory
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryService) List(ctx context.Context, userID int64) ([]domain.Category, error) {
	return s.categories.ListByUser(ctx, userID)
}

func (s *categoryService) Update(ctx context.Context, userID, id int64, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ValidationError("category name is required")
	}

	category, err := s.categories.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	category.Name = name
	if err := s.categories.Update(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateCategory
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, userID, id int64) error {
	return s.categories.Delete(ctx, userID, id)
}
