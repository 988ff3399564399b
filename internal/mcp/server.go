// Package mcp exposes the trend discovery pipeline over the Model
// Context Protocol, so AI agents can query the latest ranking, inspect
// keyword histories and trigger fresh discovery cycles over stdio.
package mcp

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/trendscope/trendscope/internal/model"
	"github.com/trendscope/trendscope/internal/orchestrator"
)

// Server wraps the MCP server instance and the data directory it serves.
type Server struct {
	mcpServer *server.MCPServer
	dataDir   string
	log       zerolog.Logger

	// discover is swapped in tests.
	discover func(ctx context.Context, opts orchestrator.Options) (*model.TrendsArtifact, error)
}

// NewServer creates an MCP server with all trend tools registered.
// dataDir is where trends.json and the keyword history live.
func NewServer(version, dataDir string, log zerolog.Logger) *Server {
	s := &Server{
		dataDir:  dataDir,
		log:      log.With().Str("component", "mcp").Logger(),
		discover: runDiscovery,
	}

	m := server.NewMCPServer("trendscope", version, server.WithLogging())
	s.registerTools(m)
	s.mcpServer = m
	return s
}

// Start runs the server in stdio mode (blocking).
func (s *Server) Start(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.mcpServer)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// registerTools adds all supported tools to the server.
func (s *Server) registerTools(m *server.MCPServer) {
	trendsTool := mcp.NewTool("get_trends",
		mcp.WithDescription("Current trend ranking from the latest discovery cycle. Returns keyword, heat score (0-100), frequency, burst flag, MACD signal, direction and platforms."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of trends to return (default 10)"),
		),
		mcp.WithString("category",
			mcp.Description("Filter by category: 财经, 政治, 科技, 国际, 时事"),
		),
	)
	m.AddTool(trendsTool, s.handleGetTrends)

	historyTool := mcp.NewTool("get_keyword_history",
		mcp.WithDescription("Time series for one tracked keyword: per-cycle counts, platforms, engagement, peak info and a sparkline."),
		mcp.WithString("keyword",
			mcp.Required(),
			mcp.Description("The exact keyword as it appears in get_trends"),
		),
	)
	m.AddTool(historyTool, s.handleKeywordHistory)

	discoverTool := mcp.NewTool("discover_trends",
		mcp.WithDescription("Run a full discovery cycle now: crawl the platforms, analyze and rewrite trends.json. Takes up to a few minutes."),
		mcp.WithString("platforms",
			mcp.Description("Comma-separated platforms to crawl (default: bilibili,baidu,xiaohongshu). Use list_platforms for the full set."),
		),
		mcp.WithNumber("keywords",
			mcp.Description("Number of seed keywords to search (default 10)"),
		),
		mcp.WithNumber("topk",
			mcp.Description("How many trends to keep in the ranking (default 50)"),
		),
	)
	m.AddTool(discoverTool, s.handleDiscoverTrends)

	platformsTool := mcp.NewTool("list_platforms",
		mcp.WithDescription("List the supported crawl platforms and which are enabled by default."),
	)
	m.AddTool(platformsTool, s.handleListPlatforms)

	briefingTool := mcp.NewTool("trend_briefing",
		mcp.WithDescription("Markdown digest of the current trends, ready to paste into a conversation."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of trends in the digest (default 10)"),
		),
	)
	m.AddTool(briefingTool, s.handleTrendBriefing)
}

func runDiscovery(ctx context.Context, opts orchestrator.Options) (*model.TrendsArtifact, error) {
	o, err := orchestrator.New(opts, zerolog.Nop())
	if err != nil {
		return nil, err
	}
	return o.RunCycle(ctx)
}
