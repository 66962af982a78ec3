package repository

import (
	"context"
	"errors"

	"home-budget/internal/domain"
)

var (
	// ErrNotFound is returned when a row is absent or not owned by the
	// requesting user. The two cases are indistinguishable on purpose.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned on a uniqueness violation.
	ErrDuplicate = errors.New("already exists")
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// Delete removes the user together with all owned categories and
	// expenses in one transaction.
	Delete(ctx context.Context, id int64) error
}
