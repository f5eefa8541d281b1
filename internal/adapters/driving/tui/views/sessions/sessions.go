// Package sessions provides the list of earlier conversations for the TUI.
package sessions

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// View lists the user's sessions, newest first.
type View struct {
	styles   *styles.Styles
	history  driving.HistoryService
	ctx      context.Context
	userID   string
	sessions []domain.SessionHistory
	selected int
	loading  bool
	err      error
	width    int
	height   int
}

// NewView creates a sessions view. history may be nil, in which case the
// view only offers a new session.
func NewView(s *styles.Styles, history driving.HistoryService, userID string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles:  s,
		history: history,
		ctx:     context.Background(),
		userID:  userID,
		width:   80,
		height:  24,
	}
}

// WithContext sets the context used for history calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the sessions.
func (v *View) Init() tea.Cmd {
	if v.history == nil {
		return nil
	}
	v.loading = true
	history, ctx, userID := v.history, v.ctx, v.userID
	return func() tea.Msg {
		sessions, err := history.UserSessions(ctx, userID)
		return messages.SessionsLoaded{Sessions: sessions, Err: err}
	}
}

// Update handles messages for the sessions view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SessionsLoaded:
		v.loading = false
		v.err = msg.Err
		v.sessions = newestFirst(msg.Sessions)
		v.selected = 0
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
			return v, nil

		case "down", "j":
			if v.selected < len(v.sessions)-1 {
				v.selected++
			}
			return v, nil

		case "enter":
			if len(v.sessions) == 0 {
				return v, nil
			}
			session := v.sessions[v.selected]
			return v, func() tea.Msg {
				return messages.SessionSelected{Session: session}
			}

		case "ctrl+n":
			return v, func() tea.Msg { return messages.NewSession{} }

		case "esc":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewChat}
			}
		}
	}

	return v, nil
}

// newestFirst reverses the session order; the history service returns
// sessions in the order they started.
func newestFirst(in []domain.SessionHistory) []domain.SessionHistory {
	out := make([]domain.SessionHistory, len(in))
	for i := range in {
		out[len(in)-1-i] = in[i]
	}
	return out
}

// View renders the session list.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Sessions"))
	b.WriteString("\n\n")

	switch {
	case v.history == nil:
		b.WriteString(v.styles.Muted.Render("History is not available."))
		b.WriteString("\n")
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
		b.WriteString("\n")
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Could not load sessions."))
		b.WriteString("\n")
	case len(v.sessions) == 0:
		b.WriteString(v.styles.Muted.Render("No earlier sessions."))
		b.WriteString("\n")
	}

	for i, s := range v.sessions {
		cursor := "  "
		style := v.styles.Normal
		if i == v.selected {
			cursor = "> "
			style = v.styles.Selected
		}
		b.WriteString(cursor + style.Render(sessionLabel(s, v.width-4)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render("[j/k] Navigate  [Enter] Open  [Ctrl+N] New session  [Esc] Back")
	b.WriteString(footer)

	return b.String()
}

// sessionLabel is the first question of a session with its turn count.
func sessionLabel(s domain.SessionHistory, width int) string {
	if len(s.Turns) == 0 {
		return s.SessionID
	}
	first := s.Turns[0]
	label := fmt.Sprintf("%s  %s (%d)",
		first.CreatedAt.Local().Format("Jan 2 15:04"), first.Question, len(s.Turns))
	if width > 10 && lipgloss.Width(label) > width {
		r := []rune(label)
		if len(r) > width-3 {
			label = string(r[:width-3]) + "..."
		}
	}
	return label
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Sessions returns the loaded sessions, newest first.
func (v *View) Sessions() []domain.SessionHistory {
	return v.sessions
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}
