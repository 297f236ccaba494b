package tracker

import (
	"fmt"

	"github.com/MrJamesThe3rd/spendly/internal/money"
)

type AlertLevel string

const (
	AlertInfo  AlertLevel = "info"
	AlertError AlertLevel = "error"
)

type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// AlertFor returns the user-facing alert for a summary, or nil when spending
// is within the normal range.
func AlertFor(s PeriodSummary) *Alert {
	switch s.Status {
	case StatusExceeded:
		return &Alert{
			Level:   AlertError,
			Title:   "Budget Exceeded!",
			Message: fmt.Sprintf("You spent $%s of $%s.", money.Format(s.TotalSpent), money.Format(s.BudgetAmount)),
		}
	case StatusWarning:
		return &Alert{
			Level:   AlertInfo,
			Title:   "Warning",
			Message: fmt.Sprintf("You've used %d%% of your monthly budget.", PercentUsed(s.TotalSpent, s.BudgetAmount)),
		}
	default:
		return nil
	}
}
