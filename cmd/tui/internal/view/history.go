package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/tracker"
)

type historyState int

const (
	historyStateBrowse historyState = iota
	historyStateEdit
	historyStateDelete
)

var historyDateFilters = []Timeframe{TimeframeAll, TimeframeThisMonth, TimeframeLastMonth, TimeframeThisYear}

// HistoryModel lists expenses newest first with category and date filters.
type HistoryModel struct {
	CommonModel
	svc Services

	state    historyState
	table    table.Model
	expenses []*expense.Expense
	form     *huh.Form

	// Filter cycling. categoryIdx 0 means every category.
	categoryIdx   int
	dateFilterIdx int

	filter  expense.ListFilter
	loading bool
	err     error
	status  string
	alert   *tracker.Alert

	fields  *expenseFields
	confirm bool
}

func NewHistoryModel(svc Services) HistoryModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Category", Width: 14},
		{Title: "Amount", Width: 12},
		{Title: "Label", Width: 30},
		{Title: "Note", Width: 30},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return HistoryModel{
		svc:     svc,
		table:   t,
		loading: true,
	}
}

func (m HistoryModel) Title() string { return "Expense History" }
func (m HistoryModel) ShortHelp() string {
	switch m.state {
	case historyStateEdit:
		return "Navigate form | Esc: cancel"
	case historyStateDelete:
		return "Confirm deletion | Esc: cancel"
	}
	return "Esc: back | e: edit | x: delete | c: category | d: date | r: refresh"
}

func (m HistoryModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadHistoryMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.expenses = msg.expenses
		m.refreshTable()
		return m, nil

	case historySaveMsg:
		m.status = msg.status
		m.alert = msg.alert
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		}
		m.state = historyStateBrowse
		m.form = nil
		m.table.Focus()
		return m, m.loadCmd()

	case ChangedMsg:
		if m.state == historyStateBrowse {
			return m, m.loadCmd()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-12, 5))
		return m, nil
	}

	switch m.state {
	case historyStateBrowse:
		return m.updateBrowse(msg)
	case historyStateEdit, historyStateDelete:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m HistoryModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "e":
			return m.enterEdit()
		case "x":
			return m.enterDelete()
		case "c":
			m.categoryIdx = (m.categoryIdx + 1) % (len(expense.Categories) + 1)
			m.applyFilter()
			return m, m.loadCmd()
		case "d":
			m.dateFilterIdx = (m.dateFilterIdx + 1) % len(historyDateFilters)
			m.applyFilter()
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m HistoryModel) selected() *expense.Expense {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.expenses) {
		return nil
	}

	return m.expenses[idx]
}

func (m HistoryModel) enterEdit() (tea.Model, tea.Cmd) {
	e := m.selected()
	if e == nil {
		return m, nil
	}

	m.fields = fieldsOf(e)
	m.form = newExpenseForm(m.fields)
	m.state = historyStateEdit
	m.table.Blur()

	return m, m.form.Init()
}

func (m HistoryModel) enterDelete() (tea.Model, tea.Cmd) {
	e := m.selected()
	if e == nil {
		return m, nil
	}

	m.confirm = false
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q (%s)?", e.Label, FormatAmount(e.Amount))).
				Affirmative("Delete").
				Negative("Keep").
				Value(&m.confirm),
		),
	).WithWidth(45).WithShowHelp(false)
	m.state = historyStateDelete
	m.table.Blur()

	return m, m.form.Init()
}

func (m HistoryModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = historyStateBrowse
		m.form = nil
		m.table.Focus()
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.state == historyStateDelete {
		if !m.confirm {
			m.state = historyStateBrowse
			m.form = nil
			m.table.Focus()
			return m, nil
		}
		return m, m.deleteCmd()
	}

	return m, m.saveCmd()
}

func (m HistoryModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading expenses...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	category := "All"
	if m.categoryIdx > 0 {
		category = expense.Categories[m.categoryIdx-1].String()
	}

	header := fmt.Sprintf(
		"Filter: [c] Category: %s | [d] Date: %s",
		activeStyle(category),
		activeStyle(historyDateFilters[m.dateFilterIdx].String()),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if len(m.expenses) == 0 {
		content += "\n" + faintStyle.Render("No expenses match the current filters.")
	}

	if m.state != historyStateBrowse && m.form != nil {
		heading := "Edit Expense"
		if m.state == historyStateDelete {
			heading = "Delete Expense"
		}

		panel := panelStyle.Width(48).Render(titleStyle.Render(heading) + "\n\n" + m.form.View())
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.alert != nil {
		content = RenderAlert(m.alert) + "\n" + content
	}

	if m.status != "" {
		content = faintStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func (m *HistoryModel) applyFilter() {
	m.filter.Category = nil
	if m.categoryIdx > 0 {
		m.filter.Category = new(expense.Categories[m.categoryIdx-1])
	}

	m.filter.StartDate, m.filter.EndDate = nil, nil

	if tf := historyDateFilters[m.dateFilterIdx]; tf != TimeframeAll {
		start, end := tf.Range(time.Now())
		m.filter.StartDate = &start
		m.filter.EndDate = &end
	}
}

func (m *HistoryModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.expenses))
	for _, e := range m.expenses {
		rows = append(rows, table.Row{
			FormatDate(e.Date),
			e.Category.String(),
			FormatAmount(e.Amount),
			e.Label,
			e.Note,
		})
	}
	m.table.SetRows(rows)
}

// Messages

type loadHistoryMsg struct {
	expenses []*expense.Expense
	err      error
}

func (m HistoryModel) loadCmd() tea.Cmd {
	svc, filter := m.svc, m.filter

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		expenses, err := svc.Expenses.List(ctx, svc.UserID(), filter)
		return loadHistoryMsg{expenses: expenses, err: err}
	}
}

type historySaveMsg struct {
	status string
	alert  *tracker.Alert
	err    error
}

func (m HistoryModel) saveCmd() tea.Cmd {
	e := m.selected()
	if e == nil {
		return nil
	}

	updated := *e
	fields := *m.fields
	svc := m.svc

	return func() tea.Msg {
		params, err := fields.Params()
		if err != nil {
			return historySaveMsg{err: err}
		}

		updated.Amount = params.Amount
		updated.Category = params.Category
		updated.Label = params.Label
		updated.Note = params.Note
		updated.Date = params.Date

		ctx, cancel := DbCtx()
		defer cancel()

		if err := svc.Expenses.Update(ctx, &updated); err != nil {
			return historySaveMsg{err: err}
		}

		if updated.Category != e.Category {
			if err := svc.Matching.Learn(ctx, svc.UserID(), updated.Label, updated.Category); err != nil {
				return historySaveMsg{status: "Saved, but the category mapping was not learned"}
			}
		}

		return historySaveMsg{status: "Saved " + updated.Label, alert: currentAlert(ctx, svc)}
	}
}

func (m HistoryModel) deleteCmd() tea.Cmd {
	e := m.selected()
	if e == nil {
		return nil
	}

	svc := m.svc

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if err := svc.Expenses.Delete(ctx, svc.UserID(), e.ID); err != nil {
			return historySaveMsg{err: err}
		}

		return historySaveMsg{status: "Deleted " + e.Label}
	}
}
