package view

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/money"
	"github.com/MrJamesThe3rd/spendly/internal/tracker"
)

const dbTimeout = 5 * time.Second

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	panelStyle   = lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63"))
)

// FormatAmount formats an amount stored as cents into a human-readable string.
func FormatAmount(cents int64) string {
	return "$" + money.Format(cents)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

// validateAmount backs every amount input: non-numeric, zero and negative
// values are rejected before anything is built from them.
func validateAmount(s string) error {
	if _, err := money.ParseAmount(s); err != nil {
		return fmt.Errorf("enter a positive amount, e.g. 12.50")
	}

	return nil
}

func validateDate(s string) error {
	if _, err := time.Parse(time.DateOnly, strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("use YYYY-MM-DD")
	}

	return nil
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}

		return nil
	}
}

func statusStyle(s tracker.Status) lipgloss.Style {
	switch s {
	case tracker.StatusExceeded:
		return errorStyle
	case tracker.StatusWarning:
		return warnStyle
	default:
		return successStyle
	}
}

// RenderAlert draws WARNING as an informational box and EXCEEDED as an error box.
func RenderAlert(a *tracker.Alert) string {
	if a == nil {
		return ""
	}

	color := lipgloss.Color("39")
	if a.Level == tracker.AlertError {
		color = lipgloss.Color("196")
	}

	return lipgloss.NewStyle().
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Render(lipgloss.NewStyle().Bold(true).Foreground(color).Render(a.Title) + "\n" + a.Message)
}

// categoryColors gives each category a stable chart color.
var categoryColors = map[expense.Category]lipgloss.Color{
	expense.CategoryFood:          "#f5a623",
	expense.CategoryTransport:     "#4a90e2",
	expense.CategoryHousing:       "#7ed321",
	expense.CategoryHealth:        "#d0021b",
	expense.CategoryEntertainment: "#bd10e0",
	expense.CategoryUtilities:     "#50e3c2",
	expense.CategoryOther:         "#9b9b9b",
}

// renderBreakdown draws one horizontal bar per category.
func renderBreakdown(shares []tracker.CategoryShare, width int) string {
	if len(shares) == 0 {
		return faintStyle.Render("No expenses yet.")
	}

	var sb strings.Builder

	for _, s := range shares {
		bar := max(int(s.Percent*float64(width)/100), 1)
		fmt.Fprintf(&sb, "%-14s %s %s %s\n",
			s.Category,
			lipgloss.NewStyle().Foreground(categoryColors[s.Category]).Render(strings.Repeat("█", bar)),
			FormatAmount(s.Amount),
			faintStyle.Render(fmt.Sprintf("(%.1f%%)", s.Percent)),
		)
	}

	return strings.TrimRight(sb.String(), "\n")
}

func categoryOptions() []string {
	out := make([]string, len(expense.Categories))
	for i, c := range expense.Categories {
		out[i] = c.String()
	}

	return out
}
