package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

var (
	historySession string
	historyUser    string
	historyJSON    bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded conversations",
	Long: `Show recorded question/answer turns.

With --session, print one session transcript. With --user, print that
user's turns grouped by session. With neither, list the first turn of every
session.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historySession, "session", "s", "", "show one session")
	historyCmd.Flags().StringVarP(&historyUser, "user", "u", "", "show a user's sessions")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
	historyCmd.MarkFlagsMutuallyExclusive("session", "user")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := ensureHistory(ctx); err != nil {
		return err
	}

	switch {
	case historySession != "":
		turns, err := historyService.Session(ctx, historySession)
		if err != nil {
			return fmt.Errorf("reading session: %w", err)
		}
		if len(turns) == 0 {
			return fmt.Errorf("session %s: %w", historySession, domain.ErrNotFound)
		}
		if historyJSON {
			return printJSON(cmd, turns)
		}
		printTurns(cmd, turns)

	case historyUser != "":
		sessions, err := historyService.UserSessions(ctx, historyUser)
		if err != nil {
			return fmt.Errorf("reading user history: %w", err)
		}
		if historyJSON {
			return printJSON(cmd, sessions)
		}
		if len(sessions) == 0 {
			cmd.Println("No conversations found.")
			return nil
		}
		for _, s := range sessions {
			cmd.Printf("Session %s\n", s.SessionID)
			printTurns(cmd, s.Turns)
		}

	default:
		starts, err := historyService.SessionStarts(ctx)
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		if historyJSON {
			return printJSON(cmd, starts)
		}
		if len(starts) == 0 {
			cmd.Println("No conversations found.")
			return nil
		}
		for i := range starts {
			cmd.Printf("  %s  %-12s  %s  %s\n",
				starts[i].CreatedAt.Local().Format(time.DateTime),
				starts[i].UserID,
				starts[i].SessionID,
				truncate(starts[i].Question, 60))
		}
	}
	return nil
}

func printTurns(cmd *cobra.Command, turns []domain.ConversationTurn) {
	for i := range turns {
		cmd.Printf("  [%s] Q: %s\n", turns[i].CreatedAt.Local().Format(time.DateTime), turns[i].Question)
		cmd.Printf("  A: %s\n\n", turns[i].Answer)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
