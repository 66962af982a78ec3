package service

import (
	"context"
	"errors"
	"strings"

	"home-budget/internal/domain"
	"home-budget/internal/repository"
)

// ErrInvalidCategory is returned when an expense references a category that
// does not exist or belongs to another user. The two cases are not
// distinguished.
var ErrInvalidCategory = errors.New("invalid category")

// ExpenseInput carries the writable fields of an expense.
type ExpenseInput struct {
	Description string
	Amount      domain.Amount
	Date        domain.Date
	CategoryID  int64
}

// ExpenseService coordinates expense operations scoped to one user.
type ExpenseService interface {
	Create(ctx context.Context, userID int64, in ExpenseInput) (*domain.Expense, error)
	Get(ctx context.Context, userID, id int64) (*domain.Expense, error)
	Update(ctx context.Context, userID, id int64, in ExpenseInput) (*domain.Expense, error)
	Delete(ctx context.Context, userID, id int64) error
	List(ctx context.Context, userID int64, filter repository.ExpenseFilter) ([]domain.Expense, error)
}

type expenseService struct {
	expenses   repository.ExpenseRepository
	categories repository.CategoryRepository
}

func NewExpenseService(expenses repository.ExpenseRepository, categories repository.CategoryRepository) ExpenseService {
	return &expenseService{
		expenses:   expenses,
		categories: categories,
	}
}

func (s *expenseService) validate(ctx context.Context, userID int64, in ExpenseInput) error {
	if strings.TrimSpace(in.Description) == "" {
		return ValidationError("description is required")
	}
	if in.Amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if in.Date.IsZero() {
		return ValidationError("date is required")
	}

	// The category must exist and belong to the same user; the write-time
	// check is the only thing enforcing this, there is no schema constraint.
	if _, err := s.categories.GetByID(ctx, userID, in.CategoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCategory
		}
		return err
	}
	return nil
}

func (s *expenseService) Create(ctx context.Context, userID int64, in ExpenseInput) (*domain.Expense, error) {
	if err := s.validate(ctx, userID, in); err != nil {
		return nil, err
	}

	expense := &domain.Expense{
		UserID:      userID,
		CategoryID:  in.CategoryID,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Date:        in.Date,
	}
	if _, err := s.expenses.Create(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *expenseService) Get(ctx context.Context, userID, id int64) (*domain.Expense, error) {
	return s.expenses.GetByID(ctx, userID, id)
}

func (s *expenseService) Update(ctx context.Context, userID, id int64, in ExpenseInput) (*domain.Expense, error) {
	expense, err := s.expenses.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := s.validate(ctx, userID, in); err != nil {
		return nil, err
	}

	expense.Description = strings.TrimSpace(in.Description)
	expense.Amount = in.Amount
	expense.Date = in.Date
	expense.CategoryID = in.CategoryID

	if err := s.expenses.Update(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *expenseService) Delete(ctx context.Context, userID, id int64) error {
	return s.expenses.Delete(ctx, userID, id)
}

func (s *expenseService) List(ctx context.Context, userID int64, filter repository.ExpenseFilter) ([]domain.Expense, error) {
	return s.expenses.ListByUser(ctx, userID, filter)
}
