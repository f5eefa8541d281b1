package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docchat/internal/adapters/driven/watcher"
	"github.com/custodia-labs/docchat/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/docchat/internal/adapters/driving/mcp"
	"github.com/custodia-labs/docchat/internal/logger"
)

var (
	serveAddr    string
	serveMCPPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Build the document index and serve the chat API over HTTP.

Endpoints:
  POST /get-value             ask a question ({"msg": "..."})
  GET  /history               the caller's turns grouped by session
  GET  /sessions              first turn of every session
  GET  /sessions/{id}         one session transcript
  GET  /question-answer/{id}  one turn
  GET  /healthz               index stats

The caller is identified by the X-User-ID header. Use --mcp-port to also
serve the MCP endpoint from the same process. Changes to the configured
documents are logged as warnings; the index is not rebuilt while serving.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default from server.addr)")
	serveCmd.Flags().IntVar(&serveMCPPort, "mcp-port", 0, "also serve MCP over HTTP on this port (0 = off)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.SetTimestamps(true)
	defer logger.SetTimestamps(false)

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if err := ensureChat(ctx); err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = settings.Server.Addr
	}

	api, err := httpapi.NewServer(&httpapi.Ports{
		Chat:    chatService,
		History: historyService,
		Index:   indexService,
	}, httpapi.WithRequestTimeout(settings.Server.RequestTimeout))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cmd.Printf("docchat listening on %s\n", addr)
		return api.Run(gctx, addr)
	})

	if serveMCPPort > 0 {
		server, err := newMCPServer()
		if err != nil {
			return err
		}
		mcpAddr := fmt.Sprintf(":%d", serveMCPPort)
		g.Go(func() error {
			cmd.Printf("MCP server listening on http://localhost%s\n", mcpAddr)
			return server.RunHTTP(gctx, mcpAddr)
		})
	}

	if w, err := watcher.New(settings.Documents.Paths); err != nil {
		logger.Warn("not watching documents: %v", err)
	} else {
		defer func() { _ = w.Close() }()
		g.Go(func() error {
			return w.Run(gctx, func(c watcher.Change) {
				logger.Warn("document %s was %s; the index still holds the old text", c.Path, c.Kind)
			})
		})
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func newMCPServer() (*mcp.Server, error) {
	return mcp.NewServer(&mcp.Ports{
		Chat:      chatService,
		Retriever: retrieverService,
		History:   historyService,
		Index:     indexService,
	})
}
