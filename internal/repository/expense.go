package repository

import (
	"context"

	"home-budget/internal/domain"
)

// ExpenseFilter narrows an expense listing. Nil fields are ignored; set
// fields combine with AND.
type ExpenseFilter struct {
	CategoryID *int64
	AmountMin  *domain.Amount
	AmountMax  *domain.Amount
	DateFrom   *domain.Date
	DateTo     *domain.Date
	Search     string
}

// CategoryTotal is one row of a period summary: the summed expense amount
// for a single category.
type CategoryTotal struct {
	CategoryID int64
	Name       string
	Total      domain.Amount
}

// ExpenseRepository defines persistence operations for Expense entities,
// all scoped by the owning user id.
type ExpenseRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, expense *domain.Expense) (int64, error)
	GetByID(ctx context.Context, userID, id int64) (*domain.Expense, error)
	Update(ctx context.Context, expense *domain.Expense) error
	Delete(ctx context.Context, userID, id int64) error
	// ListByUser returns expenses ordered by date descending, id descending.
	ListByUser(ctx context.Context, userID int64, filter ExpenseFilter) ([]domain.Expense, error)
	// SumByUser returns the total of all expenses for the user, zero if none.
	SumByUser(ctx context.Context, userID int64) (domain.Amount, error)
	// TotalsByCategory groups expenses with date in [start, end] inclusive
	// by category, ordered by total descending then category id ascending.
	// Categories without matching expenses produce no row.
	TotalsByCategory(ctx context.Context, userID int64, start, end domain.Date) ([]CategoryTotal, error)
}
