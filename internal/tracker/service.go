package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/spendly/internal/budget"
	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/money"
)

//go:generate mockgen -source=service.go -destination=source_mock.go -package=tracker
type ExpenseSource interface {
	List(ctx context.Context, userID uuid.UUID, filter expense.ListFilter) ([]*expense.Expense, error)
}

type BudgetSource interface {
	List(ctx context.Context, userID uuid.UUID) ([]*budget.Budget, error)
}

// RecentLimit is how many expenses the dashboard shows.
const RecentLimit = 5

// Service fetches a user's records and runs them through the aggregator.
type Service struct {
	expenses ExpenseSource
	budgets  BudgetSource
}

func NewService(expenses ExpenseSource, budgets BudgetSource) *Service {
	return &Service{expenses: expenses, budgets: budgets}
}

func (s *Service) Monthly(ctx context.Context, userID uuid.UUID) (*Report, error) {
	expenses, err := s.expenses.List(ctx, userID, expense.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("fetching expenses: %w", err)
	}

	budgets, err := s.budgets.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching budgets: %w", err)
	}

	return ComputeMonthlySummaries(expenses, budgets)
}

// Current returns the summary for the month containing now. A month with no
// budget and no expenses yields a zero NORMAL summary.
func (s *Service) Current(ctx context.Context, userID uuid.UUID, now time.Time) (PeriodSummary, error) {
	report, err := s.Monthly(ctx, userID)
	if err != nil {
		return PeriodSummary{}, err
	}

	period := budget.PeriodOf(now)

	summary, ok := report.Summaries[period]
	if !ok {
		return PeriodSummary{Period: period, Status: StatusNormal}, nil
	}

	return summary, nil
}

// Categories breaks down spending by category for one period, or across all
// time when period is zero.
func (s *Service) Categories(ctx context.Context, userID uuid.UUID, period budget.Period) ([]CategoryShare, error) {
	filter := expense.ListFilter{}
	if !period.IsZero() {
		start, end := period.Start(), period.End()
		filter.StartDate = &start
		filter.EndDate = &end
	}

	expenses, err := s.expenses.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("fetching expenses: %w", err)
	}

	totals, err := SummarizeByCategory(expenses)
	if err != nil {
		return nil, err
	}

	return Breakdown(totals), nil
}

type Dashboard struct {
	Total     int64              `json:"total"`
	Breakdown []CategoryShare    `json:"breakdown"`
	Recent    []*expense.Expense `json:"recent"`
}

func (s *Service) Dashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	expenses, err := s.expenses.List(ctx, userID, expense.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("fetching expenses: %w", err)
	}

	totals, err := SummarizeByCategory(expenses)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{Breakdown: Breakdown(totals)}
	for _, amount := range totals {
		if d.Total, err = money.Add(d.Total, amount); err != nil {
			return nil, fmt.Errorf("totalling dashboard: %w", err)
		}
	}

	// Expenses arrive newest first.
	d.Recent = expenses[:min(len(expenses), RecentLimit)]

	return d, nil
}
