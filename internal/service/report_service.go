package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"home-budget/internal/domain"
	"home-budget/internal/repository"
)

// ErrInvalidPeriod indicates a malformed period specification.
var ErrInvalidPeriod = errors.New("invalid period")

// PeriodSpec selects a calendar window for a summary. Month is required for
// kind "month", Quarter for kind "quarter".
type PeriodSpec struct {
	Kind    string
	Year    int
	Month   *int
	Quarter *int
}

// BalanceReport is the running balance breakdown for a user.
type BalanceReport struct {
	StartingBalance domain.Amount
	TotalExpenses   domain.Amount
	Balance         domain.Amount
}

// SummaryReport is the per-category expense breakdown for one period.
type SummaryReport struct {
	Period         string
	Start          domain.Date
	End            domain.Date
	TotalExpenses  domain.Amount
	CategoryTotals []repository.CategoryTotal
}

// PeriodRange resolves a period spec to its inclusive [start, end] calendar
// range.
func PeriodRange(spec PeriodSpec) (domain.Date, domain.Date, error) {
	switch spec.Kind {
	case "month":
		if spec.Month == nil || *spec.Month < 1 || *spec.Month > 12 {
			return domain.Date{}, domain.Date{}, fmt.Errorf("%w: month (1-12) is required when period=month", ErrInvalidPeriod)
		}
		m := time.Month(*spec.Month)
		return domain.NewDate(spec.Year, m, 1), lastDayOfMonth(spec.Year, m), nil

	case "quarter":
		if spec.Quarter == nil || *spec.Quarter < 1 || *spec.Quarter > 4 {
			return domain.Date{}, domain.Date{}, fmt.Errorf("%w: quarter must be 1-4 when period=quarter", ErrInvalidPeriod)
		}
		startMonth := time.Month((*spec.Quarter-1)*3 + 1)
		return domain.NewDate(spec.Year, startMonth, 1), lastDayOfMonth(spec.Year, startMonth+2), nil

	case "year":
		return domain.NewDate(spec.Year, time.January, 1), domain.NewDate(spec.Year, time.December, 31), nil
	}

	return domain.Date{}, domain.Date{}, fmt.Errorf("%w: period must be one of month, quarter, year", ErrInvalidPeriod)
}

// lastDayOfMonth relies on time.Date normalizing day zero of the following
// month.
func lastDayOfMonth(year int, month time.Month) domain.Date {
	t := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	return domain.NewDate(t.Year(), t.Month(), t.Day())
}

// ReportService computes balances and period summaries.
type ReportService interface {
	Balance(ctx context.Context, user *domain.User) (*BalanceReport, error)
	Summary(ctx context.Context, userID int64, spec PeriodSpec) (*SummaryReport, error)
}

type reportService struct {
	expenses repository.ExpenseRepository
}

func NewReportService(expenses repository.ExpenseRepository) ReportService {
	return &reportService{expenses: expenses}
}

func (s *reportService) Balance(ctx context.Context, user *domain.User) (*BalanceReport, error) {
	total, err := s.expenses.SumByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	starting := domain.AmountFromUnits(user.StartingBalance)
	return &BalanceReport{
		StartingBalance: starting,
		TotalExpenses:   total,
		Balance:         starting - total,
	}, nil
}

func (s *reportService) Summary(ctx context.Context, userID int64, spec PeriodSpec) (*SummaryReport, error) {
	start, end, err := PeriodRange(spec)
	if err != nil {
		return nil, err
	}

	totals, err := s.expenses.TotalsByCategory(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	var periodTotal domain.Amount
	for _, t := range totals {
		periodTotal += t.Total
	}

	return &SummaryReport{
		Period:         spec.Kind,
		Start:          start,
		End:            end,
		TotalExpenses:  periodTotal,
		CategoryTotals: totals,
	}, nil
}
