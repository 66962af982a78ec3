package repository

import (
	"context"

	"home-budget/internal/domain"
)

// CategoryRepository defines persistence operations for Category entities.
// Every read and write is scoped by the owning user id; a category belonging
// to another user behaves as if it did not exist.
type CategoryRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, category *domain.Category) (int64, error)
	GetByID(ctx context.Context, userID, id int64) (*domain.Category, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Category, error)
	Update(ctx context.Context, category *domain.Category) error
	// Delete removes the category and all expenses referencing it in one
	// transaction, keeping the no-orphaned-expense invariant explicit.
	Delete(ctx context.Context, userID, id int64) error
}
