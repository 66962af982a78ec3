package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"home-budget/internal/domain"
	"home-budget/internal/repository"
)

const createCategoriesTable = `
CREATE TABLE IF NOT EXISTS categories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	UNIQUE (user_id, name)
);
`

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) repository.CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCategoriesTable); err != nil {
		return fmt.Errorf("create categories table: %w", err)
	}
	return nil
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) (int64, error) {
	category.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO categories (user_id, name, created_at)
VALUES (?, ?, ?)`,
		category.UserID,
		category.Name,
		category.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("category %s: %w", category.Name, repository.ErrDuplicate)
		}
		return 0, fmt.Errorf("insert category: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("category last insert id: %w", err)
	}
	category.ID = id
	return id, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, userID, id int64) (*domain.Category, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, name, created_at
FROM categories
WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	return scanCategory(row)
}

func (r *CategoryRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, name, created_at
FROM categories
WHERE user_id = ?
ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE categories
SET name = ?
WHERE id = ? AND user_id = ?`,
		category.Name,
		category.ID,
		category.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("category %s: %w", category.Name, repository.ErrDuplicate)
		}
		return fmt.Errorf("update category: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update category rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the category and its expenses in one transaction. Without
// the explicit child delete, expenses would silently keep a dangling
// category_id.
func (r *CategoryRepository) Delete(ctx context.Context, userID, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete category: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE category_id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("delete category expenses: %w", err)
	}

	return tx.Commit()
}

func scanCategory(row interface {
	Scan(dest ...any) error
}) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}
	return &c, nil
}
