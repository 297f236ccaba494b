package tracker

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/spendly/internal/budget"
	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/money"
)

var ErrMissingPeriod = errors.New("missing period")

// Status is the threshold classification of a period's spending.
type Status string

const (
	StatusNormal   Status = "NORMAL"
	StatusWarning  Status = "WARNING"
	StatusExceeded Status = "EXCEEDED"
)

// Threshold percentages, inclusive on the higher-severity side.
const (
	WarningPercent  = 80
	ExceededPercent = 100
)

type PeriodSummary struct {
	Period       budget.Period `json:"period"`
	BudgetAmount int64         `json:"budget_amount"`
	TotalSpent   int64         `json:"total_spent"`
	Remaining    int64         `json:"remaining"`
	Status       Status        `json:"status"`
}

// Report is the result of one aggregation run. Skipped holds one error per
// record left out for lacking a period.
type Report struct {
	Summaries map[budget.Period]PeriodSummary
	Skipped   []error
}

// Sorted returns the summaries ordered by period, oldest first.
func (r *Report) Sorted() []PeriodSummary {
	out := make([]PeriodSummary, 0, len(r.Summaries))
	for _, s := range r.Summaries {
		out = append(out, s)
	}

	slices.SortFunc(out, func(a, b PeriodSummary) int {
		switch {
		case a.Period.Before(b.Period):
			return -1
		case b.Period.Before(a.Period):
			return 1
		default:
			return 0
		}
	})

	return out
}

// ComputeMonthlySummaries groups expenses into calendar months and compares
// each month against its effective budget. It fails on the first non-positive
// amount and returns no report in that case.
func ComputeMonthlySummaries(expenses []*expense.Expense, budgets []*budget.Budget) (*Report, error) {
	report := &Report{Summaries: make(map[budget.Period]PeriodSummary)}

	effective := make(map[budget.Period]*budget.Budget)

	for _, b := range budgets {
		if b == nil {
			continue
		}

		if b.Amount <= 0 {
			return nil, fmt.Errorf("budget %s for %s: %w", b.ID, b.Period, money.ErrInvalidAmount)
		}

		if b.Period.IsZero() {
			report.Skipped = append(report.Skipped, fmt.Errorf("budget %s: %w", b.ID, ErrMissingPeriod))
			continue
		}

		current, ok := effective[b.Period]
		if !ok || budget.Supersedes(b, current) {
			effective[b.Period] = b
		}
	}

	for period, b := range effective {
		report.Summaries[period] = PeriodSummary{Period: period, BudgetAmount: b.Amount}
	}

	for _, e := range expenses {
		if e == nil {
			continue
		}

		if e.Amount <= 0 {
			return nil, fmt.Errorf("expense %s: %w", e.ID, money.ErrInvalidAmount)
		}

		period, ok := periodOf(e)
		if !ok {
			report.Skipped = append(report.Skipped, fmt.Errorf("expense %s: %w", e.ID, ErrMissingPeriod))
			continue
		}

		summary := report.Summaries[period]
		summary.Period = period

		total, err := money.Add(summary.TotalSpent, e.Amount)
		if err != nil {
			return nil, fmt.Errorf("totalling %s: %w", period, err)
		}

		summary.TotalSpent = total
		report.Summaries[period] = summary
	}

	for period, summary := range report.Summaries {
		summary.Remaining = summary.BudgetAmount - summary.TotalSpent
		summary.Status = Classify(summary.TotalSpent, summary.BudgetAmount)
		report.Summaries[period] = summary
	}

	return report, nil
}

// periodOf buckets by Date, falling back to CreatedAt.
func periodOf(e *expense.Expense) (budget.Period, bool) {
	var t time.Time

	switch {
	case !e.Date.IsZero():
		t = e.Date
	case !e.CreatedAt.IsZero():
		t = e.CreatedAt
	default:
		return budget.Period{}, false
	}

	return budget.PeriodOf(t), true
}

// Classify maps spending against a ceiling to a threshold status. A
// non-positive budget can never be exceeded.
func Classify(totalSpent, budgetAmount int64) Status {
	if budgetAmount <= 0 {
		return StatusNormal
	}

	spent := decimal.NewFromInt(totalSpent).Mul(decimal.NewFromInt(100))
	ceiling := decimal.NewFromInt(budgetAmount)

	switch {
	case spent.GreaterThanOrEqual(ceiling.Mul(decimal.NewFromInt(ExceededPercent))):
		return StatusExceeded
	case spent.GreaterThanOrEqual(ceiling.Mul(decimal.NewFromInt(WarningPercent))):
		return StatusWarning
	default:
		return StatusNormal
	}
}

// PercentUsed is spent as a percentage of budget, rounded to the nearest
// whole number. Zero when no budget is set.
func PercentUsed(totalSpent, budgetAmount int64) int64 {
	if budgetAmount <= 0 {
		return 0
	}

	return decimal.NewFromInt(totalSpent).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(budgetAmount)).
		Round(0).
		IntPart()
}

// SummarizeByCategory totals amounts per category. Categories without
// expenses are absent from the result.
func SummarizeByCategory(expenses []*expense.Expense) (map[expense.Category]int64, error) {
	totals := make(map[expense.Category]int64)

	for _, e := range expenses {
		if e == nil {
			continue
		}

		if e.Amount <= 0 {
			return nil, fmt.Errorf("expense %s: %w", e.ID, money.ErrInvalidAmount)
		}

		total, err := money.Add(totals[e.Category], e.Amount)
		if err != nil {
			return nil, fmt.Errorf("totalling %s: %w", e.Category, err)
		}

		totals[e.Category] = total
	}

	return totals, nil
}

type CategoryShare struct {
	Category expense.Category `json:"category"`
	Amount   int64            `json:"amount"`
	Percent  float64          `json:"percent"`
}

// Breakdown orders category totals by amount, largest first, ties by name.
func Breakdown(totals map[expense.Category]int64) []CategoryShare {
	sum := decimal.Zero
	for _, amount := range totals {
		sum = sum.Add(decimal.NewFromInt(amount))
	}

	shares := make([]CategoryShare, 0, len(totals))

	for category, amount := range totals {
		share := CategoryShare{Category: category, Amount: amount}
		if sum.IsPositive() {
			share.Percent, _ = decimal.NewFromInt(amount).
				Mul(decimal.NewFromInt(100)).
				DivRound(sum, 1).
				Float64()
		}

		shares = append(shares, share)
	}

	slices.SortFunc(shares, func(a, b CategoryShare) int {
		if c := cmp.Compare(b.Amount, a.Amount); c != 0 {
			return c
		}

		return cmp.Compare(a.Category, b.Category)
	})

	return shares
}
