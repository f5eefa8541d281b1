package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui"
	"github.com/custodia-labs/docchat/internal/logger"
)

var errNotTerminal = errors.New("chat needs an interactive terminal; use 'docchat ask' instead")

var (
	chatUser    string
	chatSession string
)

// isTerminal reports whether stdin and stdout are attached to a terminal.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Launch the interactive chat",
	Long: `Launch the interactive terminal chat.

Questions are answered from the indexed documents and recorded under the
current session. Earlier sessions can be reopened from the session list.
Log output goes to ~/.docchat/chat.log while the chat is open.

Controls:
  Enter    - Send question
  ↑/↓      - Scroll transcript
  Ctrl+O   - Sessions
  Ctrl+N   - New session
  F1       - Toggle help
  Ctrl+C   - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "", "user id (default: current OS user)")
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "resume a session (default: new session)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) (err error) {
	if !isTerminal() {
		return errNotTerminal
	}

	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in chat: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("chat panicked: %v", r)
		}
	}()

	if err := ensureChat(cmd.Context()); err != nil {
		return err
	}

	restore, err := redirectLogs()
	if err != nil {
		return err
	}
	defer restore()

	app, err := newChatApp()
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && cmd.Context().Err() != nil {
			return nil
		}
		return fmt.Errorf("chat error: %w", err)
	}
	return nil
}

func newChatApp() (*tui.App, error) {
	user := chatUser
	if user == "" {
		user = defaultUserID()
	}
	return tui.NewApp(tui.NewPorts(chatService, historyService, indexService), user, chatSession)
}

// redirectLogs sends log output to chat.log in the config directory so it
// does not draw over the full-screen interface.
func redirectLogs() (func(), error) {
	dir, err := file.DefaultDir()
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		dir = filepath.Dir(configPath)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, "chat.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening chat log: %w", err)
	}

	logger.SetOutput(f)
	logger.SetTimestamps(true)
	return func() {
		logger.SetTimestamps(false)
		logger.SetOutput(io.Writer(os.Stderr))
		_ = f.Close()
	}, nil
}
