package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/trendscope/trendscope/internal/mcp"
	"github.com/trendscope/trendscope/internal/output"
)

var mcpDataDir string

// mcpCmd starts the Model Context Protocol server.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start Model Context Protocol (MCP) server",
	Long: `Starts a JSON-RPC server implementing the Model Context Protocol (MCP).
This lets AI agents (e.g. Claude Desktop, Cursor) query the current trend
ranking, inspect keyword histories and trigger discovery cycles.

Communication happens over standard input/output (stdio).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := mcp.NewServer(version, dataDirOrEnv(mcpDataDir), output.NewLogger(false))
		return srv.Start(ctx)
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpDataDir, "data-dir", "", "Data directory (default: data)")
}
