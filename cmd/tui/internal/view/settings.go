package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/spendly/internal/auth"
)

const (
	settingsEmail    = "email"
	settingsPassword = "password"
	settingsSignOut  = "signout"
)

type settingsFields struct {
	Action   string
	Email    string
	Password string
	Confirm  string
}

// SettingsModel changes the account email or password, or signs out.
type SettingsModel struct {
	CommonModel
	svc Services

	fields *settingsFields
	form   *huh.Form

	status string
	err    error
}

func NewSettingsModel(svc Services) SettingsModel {
	m := SettingsModel{svc: svc}
	m.reset()

	return m
}

func (m *SettingsModel) reset() {
	m.fields = &settingsFields{Action: settingsEmail}
	if u, ok := m.svc.Session.Current(); ok {
		m.fields.Email = u.Email
	}
	m.form = newSettingsForm(m.fields)
}

func newSettingsForm(f *settingsFields) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Account").
				Options(
					huh.NewOption("Change email", settingsEmail),
					huh.NewOption("Change password", settingsPassword),
					huh.NewOption("Sign out", settingsSignOut),
				).
				Value(&f.Action),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("New email").
				Value(&f.Email).
				Validate(validateRequired("email")),
		).WithHideFunc(func() bool { return f.Action != settingsEmail }),
		huh.NewGroup(
			huh.NewInput().
				Title("New password").
				EchoMode(huh.EchoModePassword).
				Value(&f.Password).
				Validate(func(s string) error {
					if len(s) < auth.MinPasswordLength {
						return fmt.Errorf("use at least %d characters", auth.MinPasswordLength)
					}
					return nil
				}),
			huh.NewInput().
				Title("Repeat password").
				EchoMode(huh.EchoModePassword).
				Value(&f.Confirm).
				Validate(func(s string) error {
					if s != f.Password {
						return fmt.Errorf("passwords do not match")
					}
					return nil
				}),
		).WithHideFunc(func() bool { return f.Action != settingsPassword }),
	).WithWidth(45).WithShowHelp(false)
}

func (m SettingsModel) Title() string     { return "Settings" }
func (m SettingsModel) ShortHelp() string { return "Navigate form | Esc: back" }

func (m SettingsModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m SettingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case settingsSavedMsg:
		m.err = msg.err
		m.status = msg.status
		m.reset()
		return m, m.form.Init()

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.fields.Action == settingsSignOut {
		m.svc.Session.SignOut()
		return m, func() tea.Msg { return SignedOutMsg{} }
	}

	return m, m.saveCmd()
}

type settingsSavedMsg struct {
	status string
	err    error
}

func (m SettingsModel) saveCmd() tea.Cmd {
	fields := *m.fields
	svc := m.svc

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if fields.Action == settingsPassword {
			if err := svc.Auth.UpdatePassword(ctx, svc.UserID(), fields.Password); err != nil {
				return settingsSavedMsg{err: err}
			}
			return settingsSavedMsg{status: "Password updated."}
		}

		if err := svc.Auth.UpdateEmail(ctx, svc.UserID(), strings.TrimSpace(fields.Email)); err != nil {
			return settingsSavedMsg{err: err}
		}

		if err := svc.Session.Refresh(ctx); err != nil {
			return settingsSavedMsg{err: err}
		}

		return settingsSavedMsg{status: "Email updated."}
	}
}

func (m SettingsModel) View() string {
	content := m.form.View()

	switch {
	case m.err != nil:
		content = errorStyle.Render(authErrorText(m.err)) + "\n\n" + content
	case m.status != "":
		content = successStyle.Render(m.status) + "\n\n" + content
	}

	if u, ok := m.svc.Session.Current(); ok {
		content = faintStyle.Render("Logged in as "+u.Email) + "\n\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(panelStyle.Width(50).Render(content))
}
