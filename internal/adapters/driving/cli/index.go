package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var indexJSON bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the document index and show its stats",
	Long: `Load, chunk and embed the configured documents into the vector index.

If the collection already holds chunks they are reused and no embedding
calls are made. Delete the data directory to force a rebuild.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "output stats as JSON")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if err := ensureChat(cmd.Context()); err != nil {
		return err
	}

	stats, err := indexService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading index stats: %w", err)
	}

	if indexJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Collection: %s\n", stats.Collection)
	cmd.Printf("Chunks:     %d\n", stats.Chunks)
	cmd.Printf("Dimensions: %d\n", stats.Dimensions)
	cmd.Printf("Model:      %s\n", stats.Model)
	return nil
}
