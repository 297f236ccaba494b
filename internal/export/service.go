// Package export writes a user's expenses back out as Spendly CSV and renders
// plain-text monthly reports.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/spendly/internal/budget"
	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/importer"
	"github.com/MrJamesThe3rd/spendly/internal/money"
	"github.com/MrJamesThe3rd/spendly/internal/tracker"
)

const dateLayout = "2006-01-02"

type ExpenseLister interface {
	List(ctx context.Context, userID uuid.UUID, filter expense.ListFilter) ([]*expense.Expense, error)
}

type ReportSource interface {
	Monthly(ctx context.Context, userID uuid.UUID) (*tracker.Report, error)
}

// Service handles exporting expenses and reports.
type Service struct {
	expenses ExpenseLister
	reports  ReportSource
}

func NewService(expenses ExpenseLister, reports ReportSource) *Service {
	return &Service{expenses: expenses, reports: reports}
}

// ExpensesCSV writes the user's expenses matching filter to w. The output
// re-imports through importer.Parse.
func (s *Service) ExpensesCSV(ctx context.Context, userID uuid.UUID, filter expense.ListFilter, w io.Writer) (int, error) {
	expenses, err := s.expenses.List(ctx, userID, filter)
	if err != nil {
		return 0, fmt.Errorf("listing expenses: %w", err)
	}

	if err := WriteCSV(w, expenses); err != nil {
		return 0, err
	}

	return len(expenses), nil
}

// WriteCSV writes expenses in the Spendly CSV format, dated by Date or, when
// that is missing, by CreatedAt.
func WriteCSV(w io.Writer, expenses []*expense.Expense) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(importer.Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, e := range expenses {
		date := e.Date
		if date.IsZero() {
			date = e.CreatedAt
		}

		record := []string{
			date.Format(dateLayout),
			e.Label,
			e.Category.String(),
			money.Format(e.Amount),
			e.Note,
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing expense %s: %w", e.ID, err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	return nil
}

// Report renders the user's monthly summaries, optionally limited to one period.
func (s *Service) Report(ctx context.Context, userID uuid.UUID, period budget.Period) (string, error) {
	report, err := s.reports.Monthly(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("computing summaries: %w", err)
	}

	summaries := report.Sorted()
	if !period.IsZero() {
		summaries = nil

		if summary, ok := report.Summaries[period]; ok {
			summaries = append(summaries, summary)
		}
	}

	return GenerateReport(summaries, len(report.Skipped)), nil
}

// GenerateReport formats summaries as an aligned text table followed by any
// alerts. skipped is the number of expenses left out for having no date.
func GenerateReport(summaries []tracker.PeriodSummary, skipped int) string {
	var sb strings.Builder

	if len(summaries) == 0 {
		sb.WriteString("No spending or budgets recorded.\n")
	} else {
		tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "Period\tBudget\tSpent\tRemaining\tStatus\t")

		for _, s := range summaries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
				s.Period, money.Format(s.BudgetAmount), money.Format(s.TotalSpent), money.Format(s.Remaining), s.Status)
		}

		_ = tw.Flush()
	}

	for _, s := range summaries {
		if alert := tracker.AlertFor(s); alert != nil {
			fmt.Fprintf(&sb, "\n[%s] %s %s: %s", alert.Level, s.Period, alert.Title, alert.Message)
		}
	}

	if skipped > 0 {
		fmt.Fprintf(&sb, "\n%d expense(s) without a date were left out.", skipped)
	}

	if !strings.HasSuffix(sb.String(), "\n") {
		sb.WriteString("\n")
	}

	return sb.String()
}
