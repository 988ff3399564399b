package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/trendscope/trendscope/internal/crawler"
	"github.com/trendscope/trendscope/internal/model"
	"github.com/trendscope/trendscope/internal/orchestrator"
	"github.com/trendscope/trendscope/internal/output"
	"github.com/trendscope/trendscope/internal/timeseries"
)

// discoverTimeout caps a full crawl-and-analyze cycle triggered over MCP.
const discoverTimeout = 5 * time.Minute

const defaultLimit = 10

func (s *Server) trendsPath() string {
	return filepath.Join(s.dataDir, "trends.json")
}

func (s *Server) historyPath() string {
	return filepath.Join(s.dataDir, "keyword_history.json")
}

func (s *Server) loadArtifact() (*model.TrendsArtifact, error) {
	var a model.TrendsArtifact
	if err := output.ReadJSON(s.trendsPath(), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// handleGetTrends returns the latest ranking, optionally filtered by
// category and truncated to a limit.
func (s *Server) handleGetTrends(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	artifact, err := s.loadArtifact()
	if err != nil {
		return errResult("no trends available yet, run discover_trends first"), nil
	}

	args := getArgs(request)
	limit := intArg(args, "limit", defaultLimit)
	category := stringArg(args, "category", "")

	trends := artifact.Trends
	if category != "" {
		filtered := make([]model.TrendTopic, 0, len(trends))
		for _, t := range trends {
			if t.Category == category {
				filtered = append(filtered, t)
			}
		}
		trends = filtered
	}
	if limit < len(trends) {
		trends = trends[:limit]
	}

	summary := map[string]interface{}{
		"update_time":  artifact.UpdateTime,
		"total_trends": artifact.TotalTrends,
		"burst_count":  artifact.BurstCount,
		"trends":       trends,
	}
	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(jsonData)), nil
}

// handleKeywordHistory returns the stored time series for one keyword.
func (s *Server) handleKeywordHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	keyword := stringArg(args, "keyword", "")
	if keyword == "" {
		return errResult("keyword is required"), nil
	}

	store := timeseries.Open(s.historyPath(), s.log)
	history, ok := store.History(keyword)
	if !ok {
		return errResult(fmt.Sprintf("keyword %q is not tracked, see get_trends for current keywords", keyword)), nil
	}

	summary := map[string]interface{}{
		"keyword":    keyword,
		"first_seen": history.FirstSeen,
		"peak_count": history.PeakCount,
		"peak_time":  history.PeakTime,
		"windows":    history.Windows,
		"sparkline":  output.Sparkline(store.Counts(keyword)),
	}
	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(jsonData)), nil
}

// handleDiscoverTrends runs one full discovery cycle.
func (s *Server) handleDiscoverTrends(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, discoverTimeout)
	defer cancel()

	args := getArgs(request)

	opts := orchestrator.DefaultOptions()
	opts.DataDir = s.dataDir
	if platforms := stringArg(args, "platforms", ""); platforms != "" {
		opts.Platforms = nil
		for _, p := range strings.Split(platforms, ",") {
			if p = strings.TrimSpace(p); p != "" {
				opts.Platforms = append(opts.Platforms, p)
			}
		}
	}
	opts.SeedCount = intArg(args, "keywords", opts.SeedCount)
	opts.TopK = intArg(args, "topk", opts.TopK)

	artifact, err := s.discover(ctx, opts)
	if err != nil {
		return errResult(fmt.Sprintf("discovery failed: %v", err)), nil
	}
	if artifact == nil {
		return newTextResult("discovery finished but no content was collected; the trend ranking is unchanged"), nil
	}

	summary := map[string]interface{}{
		"update_time":  artifact.UpdateTime,
		"total_trends": artifact.TotalTrends,
		"burst_count":  artifact.BurstCount,
		"message":      "Cycle complete. Use get_trends for the full ranking.",
	}
	if n := len(artifact.Trends); n > 0 {
		top := make([]string, 0, defaultLimit)
		for _, t := range artifact.Trends {
			top = append(top, fmt.Sprintf("%s %s (%.1f)", t.TrendDirection, t.Keyword, t.HeatScore))
			if len(top) == defaultLimit {
				break
			}
		}
		summary["top"] = top
	}
	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(jsonData)), nil
}

// handleListPlatforms lists the supported platforms.
func (s *Server) handleListPlatforms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type entry struct {
		Platform string `json:"platform"`
		Host     string `json:"host"`
		Default  bool   `json:"default"`
	}

	defaults := make(map[string]bool)
	for _, p := range orchestrator.DefaultOptions().Platforms {
		defaults[p] = true
	}

	entries := make([]entry, 0, len(crawler.Hosts))
	for platform, host := range crawler.Hosts {
		entries = append(entries, entry{Platform: platform, Host: host, Default: defaults[platform]})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Platform < entries[j].Platform })

	jsonData, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(jsonData)), nil
}

// handleTrendBriefing renders the markdown digest.
func (s *Server) handleTrendBriefing(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	artifact, err := s.loadArtifact()
	if err != nil {
		return errResult("no trends available yet, run discover_trends first"), nil
	}

	limit := intArg(getArgs(request), "limit", defaultLimit)
	return newTextResult(output.Briefing(artifact, limit)), nil
}

// getArgs safely extracts the arguments map from a CallToolRequest.
// Returns an empty map if Arguments is nil or not a map.
func getArgs(request mcp.CallToolRequest) map[string]interface{} {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return args
}

// stringArg extracts a string argument with a default value.
func stringArg(args map[string]interface{}, key, defaultVal string) string {
	val, ok := args[key]
	if !ok || val == nil {
		return defaultVal
	}
	s, ok := val.(string)
	if !ok || s == "" {
		return defaultVal
	}
	return s
}

// intArg extracts a positive integer argument. JSON numbers arrive as
// float64.
func intArg(args map[string]interface{}, key string, defaultVal int) int {
	val, ok := args[key]
	if !ok || val == nil {
		return defaultVal
	}
	f, ok := val.(float64)
	if !ok || f <= 0 {
		return defaultVal
	}
	return int(f)
}

// newTextResult creates a successful MCP tool result with text content.
func newTextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

// errResult creates an MCP tool error result (IsError=true).
// This is returned as a tool-level error, not a transport-level JSON-RPC error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: msg,
			},
		},
	}
}
