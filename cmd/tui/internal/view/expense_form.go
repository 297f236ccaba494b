package view

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/money"
	"github.com/MrJamesThe3rd/spendly/internal/tracker"
)

// expenseFields are the form bindings shared by the add and edit flows.
type expenseFields struct {
	Label    string
	Amount   string
	Category string
	Date     string
	Note     string
}

func newExpenseFields(now time.Time) *expenseFields {
	return &expenseFields{
		Category: expense.CategoryOther.String(),
		Date:     FormatDate(now),
	}
}

func fieldsOf(e *expense.Expense) *expenseFields {
	return &expenseFields{
		Label:    e.Label,
		Amount:   money.Format(e.Amount),
		Category: e.Category.String(),
		Date:     FormatDate(e.Date),
		Note:     e.Note,
	}
}

// Params converts the bindings, enforcing the same rules as the inputs.
func (f *expenseFields) Params() (expense.CreateParams, error) {
	amount, err := money.ParseAmount(f.Amount)
	if err != nil {
		return expense.CreateParams{}, err
	}

	category, err := expense.ParseCategory(f.Category)
	if err != nil {
		return expense.CreateParams{}, err
	}

	date, err := time.Parse(time.DateOnly, strings.TrimSpace(f.Date))
	if err != nil {
		return expense.CreateParams{}, fmt.Errorf("%w: invalid date", expense.ErrInvalidParams)
	}

	return expense.CreateParams{
		Amount:   amount,
		Category: category,
		Label:    strings.TrimSpace(f.Label),
		Note:     strings.TrimSpace(f.Note),
		Date:     date,
	}, nil
}

func newExpenseForm(f *expenseFields) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("label").
				Title("Label").
				Value(&f.Label).
				Validate(validateRequired("label")),

			huh.NewInput().
				Key("amount").
				Title("Amount").
				Placeholder("12.50").
				Value(&f.Amount).
				Validate(validateAmount),

			huh.NewSelect[string]().
				Key("category").
				Title("Category").
				Options(huh.NewOptions(categoryOptions()...)...).
				Value(&f.Category),

			huh.NewInput().
				Key("date").
				Title("Date").
				Placeholder("YYYY-MM-DD").
				Value(&f.Date).
				Validate(validateDate),

			huh.NewText().
				Key("note").
				Title("Note").
				Lines(2).
				Value(&f.Note),
		),
	).WithWidth(45).WithShowHelp(false)
}

// savedExpenseMsg reports a stored expense together with the alert for the
// current month, if spending crossed a threshold.
type savedExpenseMsg struct {
	expense *expense.Expense
	alert   *tracker.Alert
	err     error
}

func currentAlert(ctx context.Context, svc Services) *tracker.Alert {
	summary, err := svc.Tracker.Current(ctx, svc.UserID(), time.Now())
	if err != nil {
		return nil
	}

	return tracker.AlertFor(summary)
}

// AddExpenseModel records a new expense.
type AddExpenseModel struct {
	CommonModel
	svc Services

	fields *expenseFields
	form   *huh.Form

	saved  *expense.Expense
	alert  *tracker.Alert
	err    error
	saving bool
}

func NewAddExpenseModel(svc Services) AddExpenseModel {
	fields := newExpenseFields(time.Now())

	return AddExpenseModel{
		svc:    svc,
		fields: fields,
		form:   newExpenseForm(fields),
	}
}

func (m AddExpenseModel) Title() string { return "Add Expense" }
func (m AddExpenseModel) ShortHelp() string {
	if m.saved != nil {
		return "Enter: add another | Esc: back"
	}
	return "Navigate form | Esc: back"
}

func (m AddExpenseModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m AddExpenseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case savedExpenseMsg:
		m.saving = false
		if msg.err != nil {
			m.err = msg.err
			m.form = newExpenseForm(m.fields)
			return m, m.form.Init()
		}

		m.saved = msg.expense
		m.alert = msg.alert
		m.err = nil
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}

		if m.saved != nil {
			if msg.Type == tea.KeyEnter {
				next := NewAddExpenseModel(m.svc)
				next.CommonModel = m.CommonModel
				return next, next.Init()
			}
			return m, nil
		}
	}

	if m.saving || m.saved != nil {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.saving = true
	return m, m.saveCmd()
}

func (m AddExpenseModel) saveCmd() tea.Cmd {
	fields := *m.fields
	svc := m.svc

	return func() tea.Msg {
		params, err := fields.Params()
		if err != nil {
			return savedExpenseMsg{err: err}
		}

		ctx, cancel := DbCtx()
		defer cancel()

		e, err := svc.Expenses.Create(ctx, svc.UserID(), params)
		if err != nil {
			return savedExpenseMsg{err: err}
		}

		return savedExpenseMsg{expense: e, alert: currentAlert(ctx, svc)}
	}
}

func (m AddExpenseModel) View() string {
	if m.saving {
		return lipgloss.NewStyle().Padding(2).Render("Saving expense...")
	}

	if m.saved != nil {
		content := successStyle.Render(fmt.Sprintf("Saved %s (%s, %s)",
			m.saved.Label, FormatAmount(m.saved.Amount), m.saved.Category))

		if m.alert != nil {
			content += "\n\n" + RenderAlert(m.alert)
		}

		return lipgloss.NewStyle().Padding(2).Render(content)
	}

	content := m.form.View()
	if m.err != nil {
		content = errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n" + content
	}

	return panelStyle.Width(50).Render(titleStyle.Render("New Expense") + "\n\n" + content)
}
