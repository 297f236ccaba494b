package view

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/spendly/internal/tracker"
)

const chartWidth = 30

// DashboardModel shows all-time totals, the category breakdown, the most
// recent expenses and the state of the current month's budget.
type DashboardModel struct {
	CommonModel
	svc Services

	data    *tracker.Dashboard
	current tracker.PeriodSummary
	loading bool
	err     error
}

func NewDashboardModel(svc Services) DashboardModel {
	return DashboardModel{svc: svc, loading: true}
}

func (m DashboardModel) Title() string     { return "Dashboard" }
func (m DashboardModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m DashboardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadDashboardMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
		m.current = msg.current
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
		}
	}

	return m, nil
}

func (m DashboardModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading dashboard...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	var sb strings.Builder

	if u, ok := m.svc.Session.Current(); ok {
		sb.WriteString(faintStyle.Render("Logged in as "+u.Email) + "\n\n")
	}

	sb.WriteString(titleStyle.Render("Total spent: "+FormatAmount(m.data.Total)) + "\n\n")
	sb.WriteString(renderBreakdown(m.data.Breakdown, chartWidth) + "\n\n")

	sb.WriteString(titleStyle.Render("Recent") + "\n")
	if len(m.data.Recent) == 0 {
		sb.WriteString(faintStyle.Render("Nothing recorded yet.") + "\n")
	}

	for _, e := range m.data.Recent {
		fmt.Fprintf(&sb, "%s  %-12s %10s  %s\n", FormatDate(e.Date), e.Category, FormatAmount(e.Amount), e.Label)
	}

	left := sb.String()
	right := summaryCard(m.current)

	if alert := tracker.AlertFor(m.current); alert != nil {
		right += "\n" + RenderAlert(alert)
	}

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinHorizontal(lipgloss.Top, left, "    ", right),
	)
}

// summaryCard renders one month's budget, spending and remaining amount.
func summaryCard(s tracker.PeriodSummary) string {
	remaining := FormatAmount(s.Remaining)
	if s.Remaining < 0 {
		remaining = errorStyle.Render(remaining)
	}

	budgetLine := FormatAmount(s.BudgetAmount)
	if s.BudgetAmount == 0 {
		budgetLine = faintStyle.Render("not set")
	}

	body := fmt.Sprintf("%s\n\nBudget:    %s\nSpent:     %s\nRemaining: %s\nStatus:    %s",
		titleStyle.Render(s.Period.String()),
		budgetLine,
		FormatAmount(s.TotalSpent),
		remaining,
		statusStyle(s.Status).Render(string(s.Status)),
	)

	return panelStyle.Width(34).Render(body)
}

type loadDashboardMsg struct {
	data    *tracker.Dashboard
	current tracker.PeriodSummary
	err     error
}

func (m DashboardModel) loadCmd() tea.Cmd {
	svc := m.svc

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		data, err := svc.Tracker.Dashboard(ctx, svc.UserID())
		if err != nil {
			return loadDashboardMsg{err: err}
		}

		current, err := svc.Tracker.Current(ctx, svc.UserID(), time.Now())
		if err != nil {
			return loadDashboardMsg{err: err}
		}

		return loadDashboardMsg{data: data, current: current}
	}
}
