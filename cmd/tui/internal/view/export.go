package view

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/spendly/internal/budget"
)

const exportTimeout = 2 * time.Minute

const (
	exportCSV    = "csv"
	exportReport = "report"
	exportBoth   = "both"
)

type exportStep int

const (
	exportPickRange exportStep = iota
	exportOptions
	exportRunning
	exportDone
)

type exportOptionsFields struct {
	Dir  string
	What string
}

// ExportModel writes the expenses in a date range as a CSV file that the
// importer reads back, and/or a plain-text monthly report.
type ExportModel struct {
	CommonModel
	svc Services

	step      exportStep
	picker    TimeframePicker
	selection TimeframeSelectedMsg

	opts    *exportOptionsFields
	form    *huh.Form
	spinner spinner.Model

	outcome exportOutcome
}

type exportOutcome struct {
	files  []string
	count  int
	report string
	err    error
}

func NewExportModel(svc Services) ExportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ExportModel{
		svc:     svc,
		picker:  NewTimeframePicker(),
		opts:    &exportOptionsFields{Dir: "./exports", What: exportBoth},
		spinner: s,
	}
}

func (m ExportModel) Title() string { return "Export Expenses" }

func (m ExportModel) ShortHelp() string {
	switch m.step {
	case exportDone:
		return "Esc: back to menu"
	case exportRunning:
		return "Exporting..."
	}
	return "Esc: back | Enter: confirm"
}

func (m ExportModel) Init() tea.Cmd {
	return nil
}

func newExportForm(o *exportOptionsFields) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Write").
				Options(
					huh.NewOption("Expenses CSV and report", exportBoth),
					huh.NewOption("Expenses CSV only", exportCSV),
					huh.NewOption("Report only", exportReport),
				).
				Value(&o.What),

			huh.NewInput().
				Title("Output directory").
				Description("Created if it doesn't exist").
				Placeholder("./exports").
				Value(&o.Dir).
				Validate(validateRequired("directory")),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.selection = msg
		m.form = newExportForm(m.opts)
		m.step = exportOptions
		return m, m.form.Init()

	case exportOutcome:
		m.step = exportDone
		m.outcome = msg
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			switch m.step {
			case exportPickRange:
				if m.picker.IsSelecting() {
					return m, Back
				}
			case exportOptions:
				m.step = exportPickRange
				m.picker.Reset()
				return m, nil
			case exportDone:
				return m, Back
			}
		}
	}

	switch m.step {
	case exportPickRange:
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd

	case exportOptions:
		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}

		if m.form.State != huh.StateCompleted {
			return m, cmd
		}

		m.step = exportRunning
		return m, tea.Batch(m.spinner.Tick, m.runCmd(m.selection, *m.opts))

	case exportRunning:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m ExportModel) View() string {
	pad := lipgloss.NewStyle().Padding(1)

	switch m.step {
	case exportPickRange:
		return pad.Render(m.picker.View())
	case exportOptions:
		return pad.Render(faintStyle.Render(m.selection.Label()) + "\n\n" + m.form.View())
	case exportRunning:
		return pad.Render(m.spinner.View() + " Exporting " + m.selection.Label() + "...")
	case exportDone:
		return pad.Render(m.viewOutcome())
	}

	return ""
}

func (m ExportModel) viewOutcome() string {
	if m.outcome.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.outcome.err))
	}

	lines := []string{lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46")).Render("Export Complete!"), ""}

	if m.opts.What != exportReport {
		lines = append(lines, fmt.Sprintf("%d expense(s) exported.", m.outcome.count))
	}

	for _, f := range m.outcome.files {
		lines = append(lines, faintStyle.Render("  "+f))
	}

	lines = append(lines, "", m.outcome.report)

	return strings.Join(lines, "\n")
}

// reportPeriod narrows the report to one month when the selection covers
// exactly one calendar month.
func reportPeriod(sel TimeframeSelectedMsg) budget.Period {
	if sel.All {
		return budget.Period{}
	}

	p := budget.PeriodOf(sel.Start)
	if sel.Start.Equal(p.Start()) && budget.PeriodOf(sel.End) == p && sel.End.Day() == p.End().Day() {
		return p
	}

	return budget.Period{}
}

func (m ExportModel) runCmd(sel TimeframeSelectedMsg, opts exportOptionsFields) tea.Cmd {
	svc := m.svc

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		dir := strings.TrimSpace(opts.Dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return exportOutcome{err: fmt.Errorf("creating directory: %w", err)}
		}

		stamp := time.Now().Format("20060102_150405")

		var out exportOutcome

		report, err := svc.Export.Report(ctx, svc.UserID(), reportPeriod(sel))
		if err != nil {
			return exportOutcome{err: err}
		}
		out.report = report

		if opts.What != exportReport {
			name := filepath.Join(dir, "spendly_"+stamp+".csv")

			out.count, err = writeExpensesFile(ctx, svc, sel, name)
			if err != nil {
				return exportOutcome{err: err}
			}
			out.files = append(out.files, name)
		}

		if opts.What != exportCSV {
			name := filepath.Join(dir, "spendly_report_"+stamp+".txt")
			if err := os.WriteFile(name, []byte(report), 0o644); err != nil {
				return exportOutcome{err: fmt.Errorf("writing report: %w", err)}
			}
			out.files = append(out.files, name)
		}

		return out
	}
}

func writeExpensesFile(ctx context.Context, svc Services, sel TimeframeSelectedMsg, name string) (int, error) {
	f, err := os.Create(name)
	if err != nil {
		return 0, fmt.Errorf("creating file: %w", err)
	}

	count, err := svc.Export.ExpensesCSV(ctx, svc.UserID(), sel.Filter(), f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(name)
		return 0, err
	}

	return count, nil
}
