package view

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/spendly/internal/budget"
	"github.com/MrJamesThe3rd/spendly/internal/tracker"
)

// SummariesModel pages through every month that has spending or a budget,
// newest first, with that month's category breakdown.
type SummariesModel struct {
	CommonModel
	svc Services

	summaries []tracker.PeriodSummary
	skipped   int
	cursor    int
	shares    []tracker.CategoryShare

	loading bool
	err     error
}

func NewSummariesModel(svc Services) SummariesModel {
	return SummariesModel{svc: svc, loading: true}
}

func (m SummariesModel) Title() string     { return "Monthly Tracker" }
func (m SummariesModel) ShortHelp() string { return "←/→: month | Esc: back | r: refresh" }

func (m SummariesModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m SummariesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadSummariesMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}

		m.summaries = msg.summaries
		m.skipped = msg.skipped
		m.cursor = min(m.cursor, max(len(m.summaries)-1, 0))
		return m, m.sharesCmd()

	case loadSharesMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if p, ok := m.period(); ok && p == msg.period {
			m.shares = msg.shares
		}
		return m, nil

	case ChangedMsg:
		return m, m.loadCmd()

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "left", "h":
			if m.cursor < len(m.summaries)-1 {
				m.cursor++
				m.shares = nil
				return m, m.sharesCmd()
			}
		case "right", "l":
			if m.cursor > 0 {
				m.cursor--
				m.shares = nil
				return m, m.sharesCmd()
			}
		}
	}

	return m, nil
}

func (m SummariesModel) period() (budget.Period, bool) {
	if len(m.summaries) == 0 {
		return budget.Period{}, false
	}

	return m.summaries[m.cursor].Period, true
}

func (m SummariesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading summaries...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	if len(m.summaries) == 0 {
		return lipgloss.NewStyle().Padding(2).Render("No spending or budgets recorded yet.")
	}

	current := m.summaries[m.cursor]

	var right strings.Builder
	right.WriteString(titleStyle.Render("By category") + "\n\n")
	right.WriteString(renderBreakdown(m.shares, chartWidth))

	left := summaryCard(current)
	if alert := tracker.AlertFor(current); alert != nil {
		left += "\n" + RenderAlert(alert)
	}

	footer := faintStyle.Render(fmt.Sprintf("Month %d of %d", len(m.summaries)-m.cursor, len(m.summaries)))
	if m.skipped > 0 {
		footer += "\n" + warnStyle.Render(fmt.Sprintf("%d expense(s) without a date are not counted.", m.skipped))
	}

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, left, "    ", right.String()),
		"",
		footer,
	))
}

type loadSummariesMsg struct {
	summaries []tracker.PeriodSummary
	skipped   int
	err       error
}

func (m SummariesModel) loadCmd() tea.Cmd {
	svc := m.svc

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		report, err := svc.Tracker.Monthly(ctx, svc.UserID())
		if err != nil {
			return loadSummariesMsg{err: err}
		}

		sorted := report.Sorted()
		slices.Reverse(sorted)

		return loadSummariesMsg{summaries: sorted, skipped: len(report.Skipped)}
	}
}

type loadSharesMsg struct {
	period budget.Period
	shares []tracker.CategoryShare
	err    error
}

func (m SummariesModel) sharesCmd() tea.Cmd {
	p, ok := m.period()
	if !ok {
		return nil
	}

	svc := m.svc

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		shares, err := svc.Tracker.Categories(ctx, svc.UserID(), p)
		return loadSharesMsg{period: p, shares: shares, err: err}
	}
}
