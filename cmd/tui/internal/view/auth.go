package view

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/spendly/internal/auth"
)

const (
	authModeLogin  = "login"
	authModeSignUp = "signup"
)

type authCredentials struct {
	Mode     string
	Email    string
	Password string
}

// AuthModel signs an existing user in or creates an account. Signing up
// leaves the new user signed in.
type AuthModel struct {
	CommonModel
	svc Services

	creds *authCredentials
	form  *huh.Form

	busy bool
	err  error
}

func NewAuthModel(svc Services) AuthModel {
	creds := &authCredentials{Mode: authModeLogin}

	return AuthModel{
		svc:   svc,
		creds: creds,
		form:  newAuthForm(creds),
	}
}

func newAuthForm(c *authCredentials) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("mode").
				Title("Welcome to Spendly").
				Options(
					huh.NewOption("Log in", authModeLogin),
					huh.NewOption("Create an account", authModeSignUp),
				).
				Value(&c.Mode),

			huh.NewInput().
				Key("email").
				Title("Email").
				Value(&c.Email).
				Validate(validateRequired("email")),

			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&c.Password).
				Validate(func(s string) error {
					if c.Mode == authModeSignUp && len(s) < auth.MinPasswordLength {
						return fmt.Errorf("use at least %d characters", auth.MinPasswordLength)
					}
					return validateRequired("password")(s)
				}),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m AuthModel) Title() string     { return "Sign In" }
func (m AuthModel) ShortHelp() string { return "Tab: next field | Enter: submit | Ctrl+C: quit" }

func (m AuthModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m AuthModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.Width, m.Height = size.Width, size.Height
	}

	if res, ok := msg.(authResultMsg); ok {
		m.busy = false
		if res.err != nil {
			m.err = res.err
			m.creds.Password = ""
			m.form = newAuthForm(m.creds)
			return m, m.form.Init()
		}

		return m, func() tea.Msg { return SignedInMsg{User: res.user} }
	}

	if m.busy {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.busy = true
	m.err = nil
	return m, m.submitCmd()
}

type authResultMsg struct {
	user *auth.User
	err  error
}

func (m AuthModel) submitCmd() tea.Cmd {
	creds := *m.creds
	session := m.svc.Session

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		email := strings.TrimSpace(creds.Email)

		var (
			user *auth.User
			err  error
		)

		if creds.Mode == authModeSignUp {
			user, err = session.SignUp(ctx, email, creds.Password)
		} else {
			user, err = session.SignIn(ctx, email, creds.Password)
		}

		return authResultMsg{user: user, err: err}
	}
}

func authErrorText(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Wrong email or password."
	case errors.Is(err, auth.ErrEmailTaken):
		return "An account with this email already exists."
	default:
		return err.Error()
	}
}

func (m AuthModel) View() string {
	if m.busy {
		return lipgloss.NewStyle().Padding(2).Render("Signing in...")
	}

	content := m.form.View()
	if m.err != nil {
		content = errorStyle.Render(authErrorText(m.err)) + "\n\n" + content
	}

	return lipgloss.Place(max(m.Width, 50), max(m.Height-4, 20), lipgloss.Center, lipgloss.Center,
		panelStyle.Width(50).Render(content))
}
