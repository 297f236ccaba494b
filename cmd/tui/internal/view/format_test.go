package view_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/spendly/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/spendly/internal/tracker"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$12.50", view.FormatAmount(1250))
	assert.Equal(t, "$0.05", view.FormatAmount(5))
	assert.Equal(t, "$-25.00", view.FormatAmount(-2500))
}

func TestRenderAlert(t *testing.T) {
	assert.Empty(t, view.RenderAlert(nil))

	got := view.RenderAlert(tracker.AlertFor(tracker.PeriodSummary{
		BudgetAmount: 10000,
		TotalSpent:   12000,
		Status:       tracker.StatusExceeded,
	}))

	assert.Contains(t, got, "Budget Exceeded!")
	assert.Contains(t, got, "You spent $120.00 of $100.00.")
}
