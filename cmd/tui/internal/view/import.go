package view

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/importer"
)

const importTimeout = 2 * time.Minute

type importStep int

const (
	importPickFile importStep = iota
	importParsing
	importPreview
	importSaving
	importConflicts
	importDone
)

// ImportModel reads a CSV file, previews the detected rows and stores them.
// Rows that duplicate stored expenses are held back until the user picks
// which of them to keep.
type ImportModel struct {
	CommonModel
	svc Services

	step    importStep
	picker  filepicker.Model
	preview table.Model
	parsed  *importer.Result
	path    string

	pending    []expense.CreateParams
	duplicates []expense.Conflict
	keep       map[int]bool
	dupList    list.Model

	message string
	failed  bool
}

func NewImportModel(svc Services) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".CSV", ".txt"}
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	preview := table.New(
		table.WithColumns([]table.Column{
			{Title: "Date", Width: 12},
			{Title: "Category", Width: 14},
			{Title: "Amount", Width: 12},
			{Title: "Label", Width: 36},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	return ImportModel{
		svc:     svc,
		picker:  fp,
		preview: preview,
		keep:    make(map[int]bool),
	}
}

func (m ImportModel) Title() string { return "Import Expenses" }

func (m ImportModel) ShortHelp() string {
	switch m.step {
	case importPreview:
		return "Enter: import these rows | Esc: pick another file"
	case importConflicts:
		return "Space: keep/drop | a: keep all | n: drop all | Enter: confirm | Esc: cancel"
	case importDone:
		return "Esc: import another file"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return m.picker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case parsedFileMsg:
		return m.onParsed(msg)
	case batchResultMsg:
		return m.onBatch(msg)
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.onEsc()
		}
	}

	switch m.step {
	case importPickFile:
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)

		if ok, path := m.picker.DidSelectFile(msg); ok {
			m.step = importParsing
			m.path = path
			return m, m.parseCmd(path)
		}

		return m, cmd

	case importPreview:
		if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEnter {
			m.step = importSaving
			return m, m.importCmd(m.parsed.Params)
		}

		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd

	case importConflicts:
		if k, ok := msg.(tea.KeyMsg); ok {
			return m.onConflictKey(k)
		}
	}

	return m, nil
}

func (m ImportModel) onEsc() (tea.Model, tea.Cmd) {
	if m.step == importPickFile {
		return m, Back
	}

	if m.step == importParsing || m.step == importSaving {
		return m, nil
	}

	next := NewImportModel(m.svc)
	next.CommonModel = m.CommonModel
	next.picker.CurrentDirectory = m.picker.CurrentDirectory

	return next, next.Init()
}

func (m ImportModel) onParsed(msg parsedFileMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m.finish(fmt.Sprintf("Could not read %s: %v", m.path, msg.err), true), nil
	}

	if len(msg.result.Params) == 0 {
		return m.finish("The file contains no expenses to import.", false), nil
	}

	m.parsed = msg.result
	m.step = importPreview

	rows := make([]table.Row, len(m.parsed.Params))
	for i, p := range m.parsed.Params {
		rows[i] = table.Row{FormatDate(p.Date), p.Category.String(), FormatAmount(p.Amount), p.Label}
	}
	m.preview.SetRows(rows)

	return m, nil
}

func (m ImportModel) onBatch(msg batchResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m.finish(fmt.Sprintf("Error: %v", msg.err), true), nil
	}

	if len(msg.conflicts) == 0 {
		return m.finish(fmt.Sprintf("Imported %d expenses.", msg.stored), false), nil
	}

	m.pending = msg.fresh
	m.duplicates = msg.conflicts
	m.keep = make(map[int]bool)
	m.step = importConflicts

	items := make([]list.Item, len(m.duplicates))
	for i, c := range m.duplicates {
		items[i] = conflictItem{conflict: c, index: i}
	}

	m.dupList = list.New(items, conflictDelegate{keep: m.keep}, 90, 20)
	m.dupList.Title = fmt.Sprintf("%d row(s) look like expenses you already have. %d new row(s) will be imported.",
		len(m.duplicates), len(m.pending))
	m.dupList.SetShowStatusBar(false)
	m.dupList.SetFilteringEnabled(false)
	m.dupList.SetShowHelp(false)

	return m, nil
}

func (m ImportModel) onConflictKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case " ":
		i := m.dupList.Index()
		m.keep[i] = !m.keep[i]
	case "a", "n":
		for i := range m.duplicates {
			m.keep[i] = k.String() == "a"
		}
	case "enter":
		m.step = importSaving
		return m, m.confirmCmd()
	default:
		var cmd tea.Cmd
		m.dupList, cmd = m.dupList.Update(k)
		return m, cmd
	}

	return m, nil
}

func (m ImportModel) finish(message string, failed bool) ImportModel {
	m.step = importDone
	m.message = message
	m.failed = failed

	return m
}

func (m ImportModel) detected() string {
	if m.parsed == nil {
		return ""
	}

	s := fmt.Sprintf("%s format, %s encoding, %d row(s)", m.parsed.Format, m.parsed.Charset, len(m.parsed.Params))
	if m.parsed.Skipped > 0 {
		s += fmt.Sprintf(", %d credit or zero row(s) ignored", m.parsed.Skipped)
	}

	return s
}

func (m ImportModel) View() string {
	pad := lipgloss.NewStyle().Padding(1)

	switch m.step {
	case importPickFile:
		return pad.Render("Pick a Spendly export or a bank statement (CSV):\n\n" + m.picker.View())
	case importParsing:
		return pad.Render("Reading " + m.path + "...")
	case importPreview:
		return pad.Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(m.path),
			faintStyle.Render(m.detected()),
			"",
			m.preview.View(),
		))
	case importSaving:
		return pad.Render("Saving expenses...")
	case importConflicts:
		return pad.Render(m.dupList.View())
	case importDone:
		style := successStyle
		if m.failed {
			style = errorStyle
		}

		content := style.Render(m.message)
		if d := m.detected(); d != "" && !m.failed {
			content += "\n" + faintStyle.Render(d)
		}

		return pad.Render(content + "\n\n(Esc to import another file)")
	}

	return ""
}

// Messages

type parsedFileMsg struct {
	result *importer.Result
	err    error
}

type batchResultMsg struct {
	stored    int
	fresh     []expense.CreateParams
	conflicts []expense.Conflict
	err       error
}

func (m ImportModel) parseCmd(path string) tea.Cmd {
	svc := m.svc

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return parsedFileMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := DbCtx()
		defer cancel()

		result, err := svc.Importer.Import(ctx, svc.UserID(), f)
		return parsedFileMsg{result: result, err: err}
	}
}

func (m ImportModel) importCmd(params []expense.CreateParams) tea.Cmd {
	svc := m.svc

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		result, err := svc.Expenses.ImportBatch(ctx, svc.UserID(), params)
		if err != nil {
			return batchResultMsg{err: err}
		}

		return batchResultMsg{stored: len(result.Imported), fresh: result.New, conflicts: result.Conflicts}
	}
}

// confirmCmd stores the non-conflicting rows plus the duplicates the user
// chose to keep.
func (m ImportModel) confirmCmd() tea.Cmd {
	rows := append([]expense.CreateParams(nil), m.pending...)
	for i, c := range m.duplicates {
		if m.keep[i] {
			rows = append(rows, c.Incoming)
		}
	}

	svc := m.svc

	return func() tea.Msg {
		if len(rows) == 0 {
			return batchResultMsg{}
		}

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		created, err := svc.Expenses.CreateBatch(ctx, svc.UserID(), rows)
		return batchResultMsg{stored: len(created), err: err}
	}
}

type conflictItem struct {
	conflict expense.Conflict
	index    int
}

func (i conflictItem) FilterValue() string { return i.conflict.Incoming.Label }

// conflictDelegate draws each duplicate as the incoming row over the stored
// one. keep is shared with the model.
type conflictDelegate struct {
	keep map[int]bool
}

func (d conflictDelegate) Height() int                         { return 3 }
func (d conflictDelegate) Spacing() int                        { return 0 }
func (d conflictDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d conflictDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ci, ok := item.(conflictItem)
	if !ok {
		return
	}

	mark := "[ ] drop"
	if d.keep[ci.index] {
		mark = "[x] keep"
	}

	cursor := "  "
	if index == m.Index() {
		cursor = "> "
	}

	in, old := ci.conflict.Incoming, ci.conflict.Existing

	fmt.Fprintf(w, "%s%s  %s  %10s  %s [%s]\n", cursor, mark, FormatDate(in.Date), FormatAmount(in.Amount), in.Label, in.Category)
	fmt.Fprintf(w, "           stored: %s  %10s  %s [%s]\n", FormatDate(old.Date), FormatAmount(old.Amount), old.Label, old.Category)
}
