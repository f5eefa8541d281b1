package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/views/sessions"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	chatView     *chat.View
	sessionsView *sessions.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// newSessionID generates ids for fresh sessions.
	newSessionID func() string

	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a chat TUI for userID. An empty sessionID starts a new
// session.
func NewApp(ports *Ports, userID, sessionID string) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if userID == "" {
		return nil, fmt.Errorf("creating app: %w", ErrMissingUser)
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		keymap:       km,
		chatView:     chat.NewView(s, km, ports.Chat, userID, sessionID),
		sessionsView: sessions.NewView(s, ports.History, userID),
		currentView:  messages.ViewChat,
		newSessionID: uuid.NewString,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	a.sessionsView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("docchat"),
		a.chatView.Init(),
		a.loadStats(),
	)
}

func (a *App) loadStats() tea.Cmd {
	if a.ports.Index == nil {
		return nil
	}
	index, ctx := a.ports.Index, a.ctx
	return func() tea.Msg {
		stats, err := index.Stats(ctx)
		return messages.StatsLoaded{Stats: stats, Err: err}
	}
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.chatView.SetDimensions(msg.Width, msg.Height)
		a.sessionsView.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.SessionsLoaded:
		a.sessionsView, cmd = a.sessionsView.Update(msg)
		return a, cmd

	case messages.SessionSelected:
		a.chatView.LoadSession(msg.Session)
		return a, a.switchTo(messages.ViewChat)

	case messages.NewSession:
		a.chatView.StartSession(a.newSessionID())
		return a, a.switchTo(messages.ViewChat)

	// Chat results arrive even while another view is shown.
	case messages.AnswerReceived, messages.StatsLoaded, spinner.TickMsg:
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()

	switch {
	case keymap.Matches(k, a.keymap.Quit):
		return a, tea.Quit

	case keymap.Matches(k, a.keymap.Help):
		if a.currentView == messages.ViewHelp {
			return a, a.switchTo(messages.ViewChat)
		}
		return a, a.switchTo(messages.ViewHelp)

	case keymap.Matches(k, a.keymap.NewSession):
		return a, func() tea.Msg { return messages.NewSession{} }
	}

	switch a.currentView {
	case messages.ViewHelp:
		if keymap.Matches(k, a.keymap.Back) {
			return a, a.switchTo(messages.ViewChat)
		}
		return a, nil

	case messages.ViewChat:
		if keymap.Matches(k, a.keymap.Sessions) {
			return a, a.switchTo(messages.ViewSessions)
		}
	case messages.ViewSessions:
	}

	return a, a.forward(msg)
}

// forward passes msg to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewSessions:
		a.sessionsView, cmd = a.sessionsView.Update(msg)
	case messages.ViewHelp:
		// Help view is static
	}
	return cmd
}

func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	a.currentView = view
	switch view {
	case messages.ViewSessions:
		return a.sessionsView.Init()
	case messages.ViewChat:
		return a.chatView.Focus()
	case messages.ViewHelp:
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewSessions:
		return a.sessionsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewChat:
	}
	return a.chatView.View()
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Chat:
  (type)      Enter a question
  enter       Send
  ↑/↓         Scroll one line
  pgup/pgdn   Scroll one page
  ctrl+o      Earlier sessions
  ctrl+n      New session

Sessions:
  j/k, ↑/↓    Navigate
  enter       Continue the selected session
  esc         Back to chat

  f1          Toggle help
  ctrl+c      Quit

[esc] back to chat`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// SessionID returns the active session.
func (a *App) SessionID() string {
	return a.chatView.SessionID()
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions (for testing).
func (a *App) SetDimensions(width, height int) {
	a.Update(tea.WindowSizeMsg{Width: width, Height: height})
}
