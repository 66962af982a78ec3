package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"home-budget/internal/domain"
	"home-budget/internal/repository"
	"home-budget/internal/storage"
)

// ErrExportNotConfigured is returned when no storage bucket is set.
var ErrExportNotConfigured = errors.New("export storage is not configured")

// ExportService renders a user's expenses to CSV and uploads the file to
// object storage. Each user's exports live under their own key prefix, so
// listing returns only the caller's files.
type ExportService interface {
	ExportExpenses(ctx context.Context, user *domain.User, filter repository.ExpenseFilter) (string, error)
	ListExports(ctx context.Context, user *domain.User) ([]storage.ObjectInfo, error)
}

type exportService struct {
	expenses   repository.ExpenseRepository
	categories repository.CategoryRepository
	store      storage.Service
	bucket     string
	keyPrefix  string
}

// NewExportService builds an ExportService. store may be nil when exports
// are disabled.
func NewExportService(expenses repository.ExpenseRepository, categories repository.CategoryRepository, store storage.Service, bucket, keyPrefix string) ExportService {
	return &exportService{
		expenses:   expenses,
		categories: categories,
		store:      store,
		bucket:     bucket,
		keyPrefix:  strings.Trim(keyPrefix, "/"),
	}
}

func (s *exportService) ExportExpenses(ctx context.Context, user *domain.User, filter repository.ExpenseFilter) (string, error) {
	if s.store == nil || s.bucket == "" {
		return "", ErrExportNotConfigured
	}

	expenses, err := s.expenses.ListByUser(ctx, user.ID, filter)
	if err != nil {
		return "", err
	}

	categories, err := s.categories.ListByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "date", "description", "category", "amount"}); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range expenses {
		record := []string{
			fmt.Sprintf("%d", e.ID),
			e.Date.String(),
			e.Description,
			names[e.CategoryID],
			e.Amount.String(),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}

	key := fmt.Sprintf("%s/%s/%s.csv", s.keyPrefix, user.Email, uuid.NewString())
	location, err := s.store.Upload(ctx, s.bucket, key, &buf)
	if err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}
	return location, nil
}

func (s *exportService) ListExports(ctx context.Context, user *domain.User) ([]storage.ObjectInfo, error) {
	if s.store == nil || s.bucket == "" {
		return nil, ErrExportNotConfigured
	}

	prefix := fmt.Sprintf("%s/%s/", s.keyPrefix, user.Email)
	objects, err := s.store.ListObjects(ctx, s.bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	return objects, nil
}
