package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"home-budget/internal/domain"
	"home-budget/internal/repository"
	"home-budget/internal/storage"
)

type memoryStore struct {
	objects map[string]string
}

func (m *memoryStore) Upload(_ context.Context, bucket, key string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if m.objects == nil {
		m.objects = map[string]string{}
	}
	m.objects[key] = string(data)
	return "s3://" + bucket + "/" + key, nil
}

func (m *memoryStore) ListObjects(_ context.Context, _ string, prefix string) ([]storage.ObjectInfo, error) {
	var objects []storage.ObjectInfo
	for key, data := range m.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		objects = append(objects, storage.ObjectInfo{Key: key, Size: int64(len(data))})
	}
	return objects, nil
}

func TestExportExpensesWritesCSV(t *testing.T) {
	f := newServiceFixture(t)
	alice := f.register(t, "alice@example.com")
	food, err := f.categories.Create(f.ctx, alice.ID, "Food")
	require.NoError(t, err)

	_, err = f.expenses.Create(f.ctx, alice.ID, ExpenseInput{
		Description: "groceries",
		Amount:      domain.Amount(4250),
		Date:        domain.NewDate(2024, time.March, 1),
		CategoryID:  food.ID,
	})
	require.NoError(t, err)

	store := &memoryStore{}
	exports := NewExportService(f.expenseRepo, f.categoryRepo, store, "budget-test", "exports")

	location, err := exports.ExportExpenses(f.ctx, alice, repository.ExpenseFilter{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(location, "s3://budget-test/exports/alice@example.com/"), "location %s", location)
	assert.True(t, strings.HasSuffix(location, ".csv"))

	require.Len(t, store.objects, 1)
	for _, content := range store.objects {
		lines := strings.Split(strings.TrimSpace(content), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "id,date,description,category,amount", lines[0])
		assert.Contains(t, lines[1], "2024-03-01,groceries,Food,42.50")
	}
}

func TestListExportsScopedToUser(t *testing.T) {
	f := newServiceFixture(t)
	alice := f.register(t, "alice@example.com")
	bob := f.register(t, "bob@example.com")
	food, err := f.categories.Create(f.ctx, alice.ID, "Food")
	require.NoError(t, err)

	_, err = f.expenses.Create(f.ctx, alice.ID, ExpenseInput{
		Description: "groceries",
		Amount:      domain.Amount(4250),
		Date:        domain.NewDate(2024, time.March, 1),
		CategoryID:  food.ID,
	})
	require.NoError(t, err)

	store := &memoryStore{}
	exports := NewExportService(f.expenseRepo, f.categoryRepo, store, "budget-test", "exports")

	_, err = exports.ExportExpenses(f.ctx, alice, repository.ExpenseFilter{})
	require.NoError(t, err)
	_, err = exports.ExportExpenses(f.ctx, alice, repository.ExpenseFilter{})
	require.NoError(t, err)
	_, err = exports.ExportExpenses(f.ctx, bob, repository.ExpenseFilter{})
	require.NoError(t, err)

	objects, err := exports.ListExports(f.ctx, alice)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	for _, obj := range objects {
		assert.True(t, strings.HasPrefix(obj.Key, "exports/alice@example.com/"), "key %s", obj.Key)
		assert.Positive(t, obj.Size)
	}

	objects, err = exports.ListExports(f.ctx, bob)
	require.NoError(t, err)
	assert.Len(t, objects, 1)
}

func TestExportWithoutBucket(t *testing.T) {
	f := newServiceFixture(t)
	alice := f.register(t, "alice@example.com")

	exports := NewExportService(f.expenseRepo, f.categoryRepo, nil, "", "exports")
	_, err := exports.ExportExpenses(f.ctx, alice, repository.ExpenseFilter{})
	assert.ErrorIs(t, err, ErrExportNotConfigured)

	_, err = exports.ListExports(f.ctx, alice)
	assert.ErrorIs(t, err, ErrExportNotConfigured)
}
