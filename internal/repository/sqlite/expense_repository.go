package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"home-budget/internal/domain"
	"home-budget/internal/repository"
)

const createExpensesTable = `
CREATE TABLE IF NOT EXISTS expenses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	category_id INTEGER NOT NULL,
	description TEXT NOT NULL,
	amount_cents INTEGER NOT NULL,
	date TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`

type ExpenseRepository struct {
	db *sql.DB
}

func NewExpenseRepository(db *sql.DB) repository.ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createExpensesTable); err != nil {
		return fmt.Errorf("create expenses table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses (user_id, date)`); err != nil {
		return fmt.Errorf("create expenses index: %w", err)
	}
	return nil
}

func (r *ExpenseRepository) Create(ctx context.Context, expense *domain.Expense) (int64, error) {
	expense.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO expenses (user_id, category_id, description, amount_cents, date, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		expense.UserID,
		expense.CategoryID,
		expense.Description,
		expense.Amount.Cents(),
		expense.Date,
		expense.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense last insert id: %w", err)
	}
	expense.ID = id
	return id, nil
}

func (r *ExpenseRepository) GetByID(ctx context.Context, userID, id int64) (*domain.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, category_id, description, amount_cents, date, created_at
FROM expenses
WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	return scanExpense(row)
}

func (r *ExpenseRepository) Update(ctx context.Context, expense *domain.Expense) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE expenses
SET category_id = ?, description = ?, amount_cents = ?, date = ?
WHERE id = ? AND user_id = ?`,
		expense.CategoryID,
		expense.Description,
		expense.Amount.Cents(),
		expense.Date,
		expense.ID,
		expense.UserID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expense rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ExpenseRepository) ListByUser(ctx context.Context, userID int64, filter repository.ExpenseFilter) ([]domain.Expense, error) {
	var sb strings.Builder
	sb.WriteString(`
SELECT id, user_id, category_id, description, amount_cents, date, created_at
FROM expenses
WHERE user_id = ?`)
	args := []any{userID}

	if filter.CategoryID != nil {
		sb.WriteString(" AND category_id = ?")
		args = append(args, *filter.CategoryID)
	}
	if filter.AmountMin != nil {
		sb.WriteString(" AND amount_cents >= ?")
		args = append(args, filter.AmountMin.Cents())
	}
	if filter.AmountMax != nil {
		sb.WriteString(" AND amount_cents <= ?")
		args = append(args, filter.AmountMax.Cents())
	}
	if filter.DateFrom != nil {
		sb.WriteString(" AND date >= ?")
		args = append(args, filter.DateFrom.String())
	}
	if filter.DateTo != nil {
		sb.WriteString(" AND date <= ?")
		args = append(args, filter.DateTo.String())
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		// sqlite LIKE is case-insensitive for ASCII, matching the intent
		// of a substring search on descriptions.
		sb.WriteString(" AND description LIKE ?")
		args = append(args, "%"+q+"%")
	}

	sb.WriteString(" ORDER BY date DESC, id DESC")

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

func (r *ExpenseRepository) SumByUser(ctx context.Context, userID int64) (domain.Amount, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(amount_cents), 0)
FROM expenses
WHERE user_id = ?`,
		userID,
	).Scan(&cents)
	if err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return domain.Amount(cents), nil
}

func (r *ExpenseRepository) TotalsByCategory(ctx context.Context, userID int64, start, end domain.Date) ([]repository.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT c.id, c.name, SUM(e.amount_cents) AS total
FROM expenses e
JOIN categories c ON c.id = e.category_id
WHERE e.user_id = ? AND e.date >= ? AND e.date <= ?
GROUP BY c.id, c.name
ORDER BY total DESC, c.id ASC`,
		userID, start.String(), end.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	var totals []repository.CategoryTotal
	for rows.Next() {
		var t repository.CategoryTotal
		var cents int64
		if err := rows.Scan(&t.CategoryID, &t.Name, &cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		t.Total = domain.Amount(cents)
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category totals: %w", err)
	}
	return totals, nil
}

func scanExpense(row interface {
	Scan(dest ...any) error
}) (*domain.Expense, error) {
	var (
		e     domain.Expense
		cents int64
	)
	if err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.CategoryID,
		&e.Description,
		&cents,
		&e.Date,
		&e.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan expense: %w", err)
	}
	e.Amount = domain.Amount(cents)
	return &e, nil
}
