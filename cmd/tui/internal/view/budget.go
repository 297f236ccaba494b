package view

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/spendly/internal/budget"
	"github.com/MrJamesThe3rd/spendly/internal/money"
)

const budgetHistoryLimit = 12

type budgetFields struct {
	Amount string
	Period string
}

// BudgetModel shows the effective budget per month and records new ones.
// Budgets are never edited: setting one for a month supersedes the last.
type BudgetModel struct {
	CommonModel
	svc Services

	budgets []*budget.Budget
	current *budget.Budget

	fields *budgetFields
	form   *huh.Form

	loading bool
	status  string
	err     error
}

func NewBudgetModel(svc Services) BudgetModel {
	return BudgetModel{svc: svc, loading: true}
}

func (m BudgetModel) Title() string { return "Budget" }
func (m BudgetModel) ShortHelp() string {
	if m.form != nil {
		return "Navigate form | Esc: cancel"
	}
	return "Esc: back | s: set budget | r: refresh"
}

func (m BudgetModel) Init() tea.Cmd {
	return m.loadCmd()
}

func newBudgetForm(f *budgetFields) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("period").
				Title("Month").
				Placeholder("YYYY-MM").
				Value(&f.Period).
				Validate(func(s string) error {
					if _, err := budget.ParsePeriod(strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("use YYYY-MM")
					}
					return nil
				}),

			huh.NewInput().
				Key("amount").
				Title("Monthly budget").
				Placeholder("1500.00").
				Value(&f.Amount).
				Validate(validateAmount),
		),
	).WithWidth(40).WithShowHelp(false)
}

func (m BudgetModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadBudgetsMsg:
		m.loading = false
		m.err = msg.err
		m.budgets = msg.budgets
		m.current = msg.current
		return m, nil

	case budgetSavedMsg:
		m.form = nil
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Error: %v", msg.err))
			return m, nil
		}
		m.status = successStyle.Render(fmt.Sprintf("Budget for %s set to %s", msg.budget.Period, FormatAmount(msg.budget.Amount)))
		return m, m.loadCmd()

	case ChangedMsg:
		if m.form == nil {
			return m, m.loadCmd()
		}
		return m, nil
	}

	if m.form != nil {
		return m.updateForm(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "s":
			m.fields = &budgetFields{Period: budget.PeriodOf(time.Now()).String()}
			if m.current != nil {
				m.fields.Amount = money.Format(m.current.Amount)
			}
			m.form = newBudgetForm(m.fields)
			m.status = ""
			return m, m.form.Init()
		}
	}

	return m, nil
}

func (m BudgetModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.form = nil
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd()
}

func (m BudgetModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading budgets...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	var sb strings.Builder

	now := budget.PeriodOf(time.Now())
	if m.current != nil {
		sb.WriteString(titleStyle.Render(fmt.Sprintf("%s budget: %s", now, FormatAmount(m.current.Amount))) + "\n\n")
	} else {
		sb.WriteString(titleStyle.Render(fmt.Sprintf("No budget set for %s", now)) + "\n\n")
	}

	sb.WriteString("History (newest month first):\n")
	if len(m.budgets) == 0 {
		sb.WriteString(faintStyle.Render("  none") + "\n")
	}

	for _, b := range m.budgets[:min(len(m.budgets), budgetHistoryLimit)] {
		fmt.Fprintf(&sb, "  %s  %12s  %s\n", b.Period, FormatAmount(b.Amount),
			faintStyle.Render("set "+b.CreatedAt.Format(time.DateTime)))
	}

	content := sb.String()

	if m.form != nil {
		panel := panelStyle.Width(44).Render(titleStyle.Render("Set Budget") + "\n\n" + m.form.View())
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, "  ", panel)
	}

	if m.status != "" {
		content = m.status + "\n\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

type loadBudgetsMsg struct {
	budgets []*budget.Budget
	current *budget.Budget
	err     error
}

func (m BudgetModel) loadCmd() tea.Cmd {
	svc := m.svc

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		budgets, err := svc.Budgets.List(ctx, svc.UserID())
		if err != nil {
			return loadBudgetsMsg{err: err}
		}

		slices.Reverse(budgets)

		current, err := svc.Budgets.Effective(ctx, svc.UserID(), budget.PeriodOf(time.Now()))
		if err != nil && !errors.Is(err, budget.ErrNotFound) {
			return loadBudgetsMsg{err: err}
		}

		return loadBudgetsMsg{budgets: budgets, current: current}
	}
}

type budgetSavedMsg struct {
	budget *budget.Budget
	err    error
}

func (m BudgetModel) saveCmd() tea.Cmd {
	fields := *m.fields
	svc := m.svc

	return func() tea.Msg {
		amount, err := money.ParseAmount(fields.Amount)
		if err != nil {
			return budgetSavedMsg{err: err}
		}

		period, err := budget.ParsePeriod(strings.TrimSpace(fields.Period))
		if err != nil {
			return budgetSavedMsg{err: err}
		}

		ctx, cancel := DbCtx()
		defer cancel()

		b, err := svc.Budgets.Set(ctx, svc.UserID(), budget.SetParams{Amount: amount, Period: period})
		return budgetSavedMsg{budget: b, err: err}
	}
}
