package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/spendly/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/spendly/internal/auth"
	authStore "github.com/MrJamesThe3rd/spendly/internal/auth/store"
	"github.com/MrJamesThe3rd/spendly/internal/budget"
	budgetStore "github.com/MrJamesThe3rd/spendly/internal/budget/store"
	"github.com/MrJamesThe3rd/spendly/internal/config"
	"github.com/MrJamesThe3rd/spendly/internal/database"
	"github.com/MrJamesThe3rd/spendly/internal/expense"
	expenseStore "github.com/MrJamesThe3rd/spendly/internal/expense/store"
	"github.com/MrJamesThe3rd/spendly/internal/export"
	"github.com/MrJamesThe3rd/spendly/internal/feed"
	"github.com/MrJamesThe3rd/spendly/internal/importer"
	"github.com/MrJamesThe3rd/spendly/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/spendly/internal/matching/store"
	"github.com/MrJamesThe3rd/spendly/internal/tracker"
)

type menuEntry struct {
	key   string
	label string
	open  func(view.Services) view.View
}

var menu = []menuEntry{
	{"1", "Dashboard", func(s view.Services) view.View { return view.NewDashboardModel(s) }},
	{"2", "Add Expense", func(s view.Services) view.View { return view.NewAddExpenseModel(s) }},
	{"3", "Expense History", func(s view.Services) view.View { return view.NewHistoryModel(s) }},
	{"4", "Budget", func(s view.Services) view.View { return view.NewBudgetModel(s) }},
	{"5", "Monthly Tracker", func(s view.Services) view.View { return view.NewSummariesModel(s) }},
	{"6", "Categorize", func(s view.Services) view.View { return view.NewCategorizeModel(s) }},
	{"7", "Import Expenses", func(s view.Services) view.View { return view.NewImportModel(s) }},
	{"8", "Export Expenses", func(s view.Services) view.View { return view.NewExportModel(s) }},
	{"9", "Settings", func(s view.Services) view.View { return view.NewSettingsModel(s) }},
}

type model struct {
	services view.Services
	hub      *feed.Hub
	sub      *feed.Subscription

	// current is nil while the menu is shown.
	current view.View
	width   int
	height  int
}

func newModel(services view.Services, hub *feed.Hub) model {
	return model{
		services: services,
		hub:      hub,
		current:  view.NewAuthModel(services),
	}
}

func (m model) Init() tea.Cmd {
	return m.current.Init()
}

// waitForChange blocks on the user's feed subscription and delivers the next
// event as a view.ChangedMsg.
func waitForChange(sub *feed.Subscription) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub.Events()
		if !ok {
			return nil
		}

		return view.ChangedMsg{Sub: sub.ID(), Event: event}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.unsubscribe()
			return m, tea.Quit
		}

		if m.current == nil {
			return m.updateMenu(msg)
		}

	case view.SignedInMsg:
		slog.Debug("signed in", "user_id", msg.User.ID)
		m.unsubscribe()
		m.sub = m.hub.Subscribe(msg.User.ID)
		m.current = nil
		return m, waitForChange(m.sub)

	case view.SignedOutMsg:
		m.unsubscribe()
		m.current = view.NewAuthModel(m.services)
		size := tea.WindowSizeMsg{Width: m.width, Height: m.height}

		return m, tea.Batch(m.current.Init(), func() tea.Msg { return size })

	case view.BackMsg:
		m.current = nil
		return m, nil

	case view.ChangedMsg:
		// Left over from a closed subscription; the current one has its own waiter.
		if m.sub == nil || msg.Sub != m.sub.ID() {
			return m, nil
		}

		slog.Debug("change received", "event_type", msg.Event.Type)

		next := waitForChange(m.sub)

		if m.current == nil {
			return m, next
		}

		cmd := m.forward(msg)

		return m, tea.Batch(next, cmd)
	}

	if m.current == nil {
		return m, nil
	}

	cmd := m.forward(msg)

	return m, cmd
}

func (m *model) forward(msg tea.Msg) tea.Cmd {
	updated, cmd := m.current.Update(msg)
	if v, ok := updated.(view.View); ok {
		m.current = v
	}

	return cmd
}

func (m *model) unsubscribe() {
	if m.sub != nil {
		_ = m.sub.Close()
		m.sub = nil
	}
}

func (m model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "q" {
		m.unsubscribe()
		return m, tea.Quit
	}

	for _, entry := range menu {
		if msg.String() != entry.key {
			continue
		}

		v := entry.open(m.services)
		m.current = v

		size := tea.WindowSizeMsg{Width: m.width, Height: m.height}

		return m, tea.Batch(v.Init(), func() tea.Msg { return size })
	}

	return m, nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).PaddingLeft(2)
	helpStyle   = lipgloss.NewStyle().Faint(true).PaddingLeft(2)
)

func (m model) View() string {
	if m.current != nil {
		return headerStyle.Render(m.current.Title()) + "\n" +
			m.current.View() + "\n" +
			helpStyle.Render(m.current.ShortHelp())
	}

	var sb strings.Builder
	sb.WriteString("Spendly\n\n")

	if u, ok := m.services.Session.Current(); ok {
		sb.WriteString(lipgloss.NewStyle().Faint(true).Render("Logged in as "+u.Email) + "\n\n")
	}

	for _, entry := range menu {
		fmt.Fprintf(&sb, "%s. %s\n", entry.key, entry.label)
	}

	sb.WriteString("\nq. Quit")

	return lipgloss.NewStyle().Padding(2).Render(sb.String())
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The terminal belongs to bubbletea, so logs go to a file in debug mode
	// and are discarded otherwise.
	if cfg.App.Debug {
		f, err := tea.LogToFile("spendly-debug.log", "spendly")
		if err != nil {
			return fmt.Errorf("opening debug log: %w", err)
		}
		defer f.Close()

		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		slog.SetDefault(slog.New(slog.DiscardHandler))
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if cfg.DB.Migrate {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := feed.NewHub()

	var publisher feed.Publisher = hub

	// With a broker the TUI also sees changes made through the API.
	if cfg.AMQP.URL != "" {
		relay, err := feed.NewRelay(cfg.AMQP.URL, cfg.AMQP.Exchange, hub)
		if err != nil {
			return fmt.Errorf("starting feed relay: %w", err)
		}
		defer relay.Close()

		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("feed relay stopped, delivering change events locally", "error", err)
			}
		}()

		publisher = relay
	}

	authService := auth.NewService(authStore.New(db), auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL))
	expenseService := expense.NewService(expenseStore.New(db), publisher)
	budgetService := budget.NewService(budgetStore.New(db), publisher)
	trackerService := tracker.NewService(expenseService, budgetService)
	matchingService := matching.NewService(matchingStore.New(db))

	services := view.Services{
		Session:  auth.NewSession(authService),
		Auth:     authService,
		Expenses: expenseService,
		Budgets:  budgetService,
		Tracker:  trackerService,
		Matching: matchingService,
		Importer: importer.NewService(matchingService),
		Export:   export.NewService(expenseService, trackerService),
	}

	p := tea.NewProgram(newModel(services, hub), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("spendly tui failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
