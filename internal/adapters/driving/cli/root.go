// Package cli provides the docchat command line interface.
package cli

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docchat/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// envFiles are loaded from the working directory before any command runs.
// Variables already set in the environment win.
var envFiles = []string{"key.env", ".env"}

var (
	configPath string
	verbose    bool
	ephemeral  bool
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Chat with your documents",
	Long: `docchat answers questions about a fixed set of documents.

Documents are split into overlapping chunks, embedded once and stored in a
local vector index. Each question is answered by a chat model using the most
similar chunk and the caller's recent conversation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return loadEnvFiles()
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return shutdown()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default ~/.docchat/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false,
		"keep the index, history and settings changes in memory only")
}

// Execute runs the root command. Command output goes to stdout; logs and
// errors go to stderr.
func Execute() error {
	rootCmd.SetOut(os.Stdout)
	err := rootCmd.Execute()
	if cerr := shutdown(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

func loadEnvFiles() error {
	for _, name := range envFiles {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		logger.Debug("loaded environment from %s", name)
	}
	return nil
}
