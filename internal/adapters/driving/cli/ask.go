package cli

import (
	"os/user"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

var (
	askUser    string
	askSession string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question",
	Long: `Answer a single question from the indexed documents.

The turn is recorded under --user and --session. Reuse the same session id
to continue a conversation; the user's recent turns are always included as
context.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askUser, "user", "u", "", "user id (default: current OS user)")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session id (default: new session)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := ensureChat(cmd.Context()); err != nil {
		return err
	}

	req := domain.AskRequest{
		UserID:    askUser,
		SessionID: askSession,
		Message:   strings.Join(args, " "),
	}
	if req.UserID == "" {
		req.UserID = defaultUserID()
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	turn, err := chatService.Ask(cmd.Context(), req)
	if err != nil {
		return err
	}

	cmd.Println(turn.Answer)
	if askSession == "" {
		cmd.PrintErrf("\nsession: %s\n", turn.SessionID)
	}
	return nil
}

// defaultUserID names the local caller.
func defaultUserID() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "local"
}
