package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
)

type categorizeState int

const (
	categorizeStateTimeframe categorizeState = iota
	categorizeStateReviewing
)

// CategorizeModel walks through the expenses still filed under Other and
// offers the learned category for each label. Saving a choice also teaches
// the matcher.
type CategorizeModel struct {
	CommonModel
	svc Services

	state  categorizeState
	picker TimeframePicker

	queue      []*expense.Expense
	current    *expense.Expense
	suggested  bool
	cursor     int
	totalCount int

	status  string
	loading bool
}

func NewCategorizeModel(svc Services) CategorizeModel {
	return CategorizeModel{
		svc:    svc,
		picker: NewTimeframePicker(),
	}
}

func (m CategorizeModel) Title() string { return "Categorize" }
func (m CategorizeModel) ShortHelp() string {
	if m.state == categorizeStateReviewing {
		return "↑/↓: category | Enter: save & next | s: skip | Esc: back"
	}
	return "Select a timeframe | Esc: back"
}

func (m CategorizeModel) Init() tea.Cmd {
	return nil
}

func (m CategorizeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.state = categorizeStateReviewing
		m.loading = true
		return m, m.loadCmd(msg.Filter())

	case loadUncategorizedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error loading expenses: %v", msg.err)
			return m, nil
		}

		m.queue = msg.expenses
		m.totalCount = len(m.queue)
		cmd := m.next()
		return m, cmd

	case suggestionMsg:
		if m.current != nil && msg.id == m.current.ID && msg.ok {
			m.suggested = true
			m.cursor = categoryIndex(msg.category)
		}
		return m, nil

	case categorizeSaveMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
			return m, nil
		}
		cmd := m.next()
		return m, cmd

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		if m.state == categorizeStateTimeframe {
			if msg.Type == tea.KeyEsc && m.picker.IsSelecting() {
				return m, Back
			}

			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			return m, cmd
		}

		return m.updateReviewing(msg)
	}

	if m.state == categorizeStateTimeframe {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m CategorizeModel) updateReviewing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = categorizeStateTimeframe
		m.picker.Reset()
		m.current = nil
		m.status = ""
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(expense.Categories)-1 {
			m.cursor++
		}
	case "s":
		if m.current != nil {
			cmd := m.next()
			return m, cmd
		}
	case "enter":
		if m.current != nil {
			return m, m.saveAndNextCmd(expense.Categories[m.cursor])
		}
	}

	return m, nil
}

func (m *CategorizeModel) next() tea.Cmd {
	if len(m.queue) == 0 {
		m.current = nil
		m.status = "All done! Nothing left in Other."
		return nil
	}

	m.current = m.queue[0]
	m.queue = m.queue[1:]
	m.suggested = false
	m.cursor = categoryIndex(expense.CategoryOther)
	m.status = fmt.Sprintf("Reviewing %d/%d", m.totalCount-len(m.queue), m.totalCount)

	return m.suggestCmd(m.current)
}

func categoryIndex(c expense.Category) int {
	for i, candidate := range expense.Categories {
		if candidate == c {
			return i
		}
	}

	return 0
}

func (m CategorizeModel) View() string {
	if m.state == categorizeStateTimeframe {
		return lipgloss.NewStyle().Padding(2).Render(m.picker.View())
	}

	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading expenses...")
	}

	if m.current == nil {
		return lipgloss.NewStyle().Padding(2).Render(m.status + "\n\n(Esc to back)")
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "%s\n\nDate:   %s\nAmount: %s\nLabel:  %s\n",
		m.status, FormatDate(m.current.Date), FormatAmount(m.current.Amount), m.current.Label)

	if m.current.Note != "" {
		fmt.Fprintf(&sb, "Note:   %s\n", m.current.Note)
	}

	sb.WriteString("\nCategory:\n")

	for i, c := range expense.Categories {
		cursor := "  "
		line := c.String()

		if i == m.cursor {
			cursor = "> "
			line = activeStyle(line)
		}

		if m.suggested && i == m.cursor {
			line += faintStyle.Render(" (suggested)")
		}

		sb.WriteString(cursor + line + "\n")
	}

	return lipgloss.NewStyle().Padding(2).Render(sb.String())
}

// Messages

type loadUncategorizedMsg struct {
	expenses []*expense.Expense
	err      error
}

func (m CategorizeModel) loadCmd(filter expense.ListFilter) tea.Cmd {
	svc := m.svc
	filter.Category = new(expense.CategoryOther)

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		expenses, err := svc.Expenses.List(ctx, svc.UserID(), filter)
		return loadUncategorizedMsg{expenses: expenses, err: err}
	}
}

type suggestionMsg struct {
	id       uuid.UUID
	category expense.Category
	ok       bool
}

func (m CategorizeModel) suggestCmd(e *expense.Expense) tea.Cmd {
	svc := m.svc

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		category, ok, err := svc.Matching.Suggest(ctx, svc.UserID(), e.Label)
		if err != nil {
			return suggestionMsg{id: e.ID}
		}

		return suggestionMsg{id: e.ID, category: category, ok: ok}
	}
}

type categorizeSaveMsg struct {
	err error
}

func (m CategorizeModel) saveAndNextCmd(category expense.Category) tea.Cmd {
	updated := *m.current
	svc := m.svc

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if err := svc.Matching.Learn(ctx, svc.UserID(), updated.Label, category); err != nil {
			return categorizeSaveMsg{err: err}
		}

		if category == updated.Category {
			return categorizeSaveMsg{}
		}

		updated.Category = category

		return categorizeSaveMsg{err: svc.Expenses.Update(ctx, &updated)}
	}
}
