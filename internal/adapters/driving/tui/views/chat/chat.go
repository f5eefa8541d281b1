// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/core/services"
	"github.com/custodia-labs/docchat/internal/logger"
)

// FailureMessage is shown when a turn cannot be answered.
const FailureMessage = "could not process request"

// chromeHeight is the number of lines used by title, input and status bar.
const chromeHeight = 7

// View shows the transcript of one session and the question input.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	transcript viewport.Model
	spinner    spinner.Model
	statusbar  *status.Bar

	chat driving.ChatService
	ctx  context.Context

	userID    string
	sessionID string
	turns     []domain.ConversationTurn
	pending   string
	thinking  bool
	err       error

	width  int
	height int
}

// NewView creates a chat view for userID in sessionID.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	chat driving.ChatService,
	userID, sessionID string,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Muted

	bar := status.NewBar(s, km)
	bar.SetSession(sessionID)

	v := &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		transcript: viewport.New(80, 24-chromeHeight),
		spinner:    sp,
		statusbar:  bar,
		chat:       chat,
		ctx:        context.Background(),
		userID:     userID,
		sessionID:  sessionID,
		width:      80,
		height:     24,
	}
	v.refresh()
	return v
}

// WithContext sets the context used for chat calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the input cursor.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.StatsLoaded:
		if msg.Err == nil && msg.Stats != nil {
			v.statusbar.SetChunks(msg.Stats.Chunks)
		}
		return v, nil

	case spinner.TickMsg:
		if !v.thinking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		v.refresh()
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), v.keymap.Up):
		if msg.String() == "pgup" {
			v.transcript.ViewUp()
		} else {
			v.transcript.LineUp(1)
		}
		return v, nil

	case keymap.Matches(msg.String(), v.keymap.Down):
		if msg.String() == "pgdown" {
			v.transcript.ViewDown()
		} else {
			v.transcript.LineDown(1)
		}
		return v, nil

	case keymap.Matches(msg.String(), v.keymap.Send):
		return v, v.submit()
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the current input as a question. Only one question is in
// flight at a time.
func (v *View) submit() tea.Cmd {
	if v.thinking {
		return nil
	}
	question := strings.TrimSpace(v.input.Value())
	if question == "" {
		return nil
	}

	v.input.Reset()
	v.pending = question
	v.thinking = true
	v.err = nil
	v.statusbar.SetState(status.StateThinking)
	v.refresh()

	return tea.Batch(v.spinner.Tick, v.ask(question))
}

func (v *View) ask(question string) tea.Cmd {
	chat := v.chat
	ctx := v.ctx
	req := domain.AskRequest{
		UserID:    v.userID,
		SessionID: v.sessionID,
		Message:   question,
	}
	return func() tea.Msg {
		turn, err := chat.Ask(ctx, req)
		return messages.AnswerReceived{Turn: turn, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.thinking = false

	if msg.Err != nil {
		logger.Error("chat turn failed (%s): %v", domain.ErrorKind(msg.Err), msg.Err)
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(FailureMessage)
		// Give the question back so it can be retried.
		v.input.SetValue(v.pending)
		v.pending = ""
		v.refresh()
		return
	}

	v.pending = ""
	v.statusbar.Clear()
	if msg.Turn != nil {
		v.turns = append(v.turns, *msg.Turn)
	}
	v.refresh()
}

// refresh re-renders the transcript and keeps the newest line visible.
func (v *View) refresh() {
	v.transcript.SetContent(v.renderTranscript())
	v.transcript.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.turns) == 0 && v.pending == "" {
		return v.styles.Muted.Render("No questions yet. Type one below and press enter.")
	}

	wrap := lipgloss.NewStyle().Width(v.transcript.Width)
	blocks := make([]string, 0, len(v.turns)+1)
	for i := range v.turns {
		t := &v.turns[i]
		blocks = append(blocks, strings.Join([]string{
			v.styles.Timestamp.Render(services.FormatTimestamp(t.CreatedAt.Local())),
			wrap.Render(v.styles.Question.Render("You: ") + t.Question),
			wrap.Render(v.styles.Answer.Render(t.Answer)),
		}, "\n"))
	}
	if v.pending != "" {
		blocks = append(blocks, strings.Join([]string{
			wrap.Render(v.styles.Question.Render("You: ") + v.pending),
			v.styles.Answer.Render(v.spinner.View() + " thinking"),
		}, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// View renders the chat view.
func (v *View) View() string {
	title := v.styles.Title.Render("docchat")
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		v.transcript.View(),
		"",
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions resizes the transcript, input and status bar.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height

	v.transcript.Width = width
	v.transcript.Height = height - chromeHeight
	if v.transcript.Height < 3 {
		v.transcript.Height = 3
	}
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.refresh()
}

// LoadSession replaces the transcript with an earlier session. New
// questions continue that session.
func (v *View) LoadSession(session domain.SessionHistory) {
	v.sessionID = session.SessionID
	v.turns = append([]domain.ConversationTurn(nil), session.Turns...)
	v.pending = ""
	v.thinking = false
	v.statusbar.Clear()
	v.statusbar.SetSession(session.SessionID)
	v.refresh()
}

// StartSession clears the transcript and starts sessionID.
func (v *View) StartSession(sessionID string) {
	v.LoadSession(domain.SessionHistory{SessionID: sessionID})
}

// Focus focuses the question input.
func (v *View) Focus() tea.Cmd {
	return v.input.Focus()
}

// SessionID returns the active session.
func (v *View) SessionID() string {
	return v.sessionID
}

// Turns returns the turns shown in the transcript.
func (v *View) Turns() []domain.ConversationTurn {
	return v.turns
}

// Thinking reports whether a question is in flight.
func (v *View) Thinking() bool {
	return v.thinking
}

// Input returns the current input value.
func (v *View) Input() string {
	return v.input.Value()
}

// Err returns the last chat error.
func (v *View) Err() error {
	return v.err
}
