package view

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/spendly/internal/auth"
	"github.com/MrJamesThe3rd/spendly/internal/budget"
	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/export"
	"github.com/MrJamesThe3rd/spendly/internal/feed"
	"github.com/MrJamesThe3rd/spendly/internal/importer"
	"github.com/MrJamesThe3rd/spendly/internal/matching"
	"github.com/MrJamesThe3rd/spendly/internal/tracker"
)

// View is the interface that all TUI screens implement.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

// CommonModel is embedded by all views.
type CommonModel struct {
	Width  int
	Height int
}

// Services are the collaborators every screen reads from and writes through.
type Services struct {
	Session  auth.SessionProvider
	Auth     *auth.Service
	Expenses *expense.Service
	Budgets  *budget.Service
	Tracker  *tracker.Service
	Matching *matching.Service
	Importer *importer.Service
	Export   *export.Service
}

// UserID is the signed-in user, or uuid.Nil.
func (s Services) UserID() uuid.UUID {
	u, ok := s.Session.Current()
	if !ok {
		return uuid.Nil
	}

	return u.ID
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// SignedInMsg is emitted once the session holds a user.
type SignedInMsg struct {
	User *auth.User
}

type SignedOutMsg struct{}

// ChangedMsg carries a change-feed event for the signed-in user. Screens
// showing derived data re-fetch when they receive it.
type ChangedMsg struct {
	// Subscription the event was read from.
	Sub   string
	Event feed.Event
}
