// trendscope — real-time trend discovery across Chinese content platforms.
//
// Crawls Douyin, Xiaohongshu, Weibo, Bilibili, Zhihu and Baidu, extracts
// keywords with Chinese NLP, detects bursts via Z-Score and MACD, and
// writes a ranked trends.json for downstream consumers.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	diffpkg "github.com/trendscope/trendscope/internal/diff"
	"github.com/trendscope/trendscope/internal/orchestrator"
	"github.com/trendscope/trendscope/internal/output"
)

var version = "0.1.0"

func main() {
	// Optional .env holds TRENDSCOPE_PROXY and friends.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "trendscope",
		Short: "Real-time trend discovery for Chinese content platforms",
		Long: `trendscope — single Go binary for multi-platform trend discovery.

Crawls content platforms (Douyin, Xiaohongshu, Weibo, Bilibili, Zhihu,
Baidu), extracts keywords with Chinese NLP, keeps a per-keyword time
series, detects bursts (Z-Score + MACD golden cross) and scores heat
with Newtonian decay. Results land in data/trends.json and are merged
into data/news.json for feed consumers.`,
		Version: version,
	}

	// --- discover command ---
	var (
		discoverLoop      int
		discoverPlatforms string
		discoverKeywords  int
		discoverTopK      int
		discoverProxy     string
		discoverDataDir   string
		discoverWithNews  bool
		discoverNewsCmd   string
		discoverVerbose   bool
	)

	discoverCmd := &cobra.Command{
		Use:   "discover",
		Short: "Run trend discovery (single cycle or loop)",
		Long:  "Crawl the configured platforms, analyze trends and write trends.json.",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := output.NewLogger(discoverVerbose)
			opts := buildOptions(discoverPlatforms, discoverKeywords, discoverTopK,
				discoverProxy, discoverDataDir, discoverNewsCmd, discoverWithNews)

			orch, err := orchestrator.New(opts, log)
			if err != nil {
				return err
			}

			ctx := context.Background()
			if discoverLoop > 0 {
				return orch.RunLoop(ctx, time.Duration(discoverLoop)*time.Minute)
			}

			artifact, err := orch.Run(ctx)
			if err != nil {
				return err
			}
			if artifact == nil {
				fmt.Fprintln(os.Stderr, "no content collected; nothing to analyze")
				return nil
			}
			fmt.Print(output.Briefing(artifact, 10))
			return nil
		},
	}

	discoverCmd.Flags().IntVar(&discoverLoop, "loop", 0, "Run every N minutes (0 = single run)")
	discoverCmd.Flags().StringVar(&discoverPlatforms, "platforms", "", "Platforms to crawl, comma-separated (default: bilibili,baidu,xiaohongshu)")
	discoverCmd.Flags().IntVar(&discoverKeywords, "keywords", 10, "Number of seed keywords to search")
	discoverCmd.Flags().IntVar(&discoverTopK, "topk", 50, "Trends to keep in the ranking")
	discoverCmd.Flags().StringVar(&discoverProxy, "proxy", "", "HTTP proxy, e.g. http://127.0.0.1:7890 (or TRENDSCOPE_PROXY)")
	discoverCmd.Flags().StringVar(&discoverDataDir, "data-dir", "", "Data directory (default: data, or TRENDSCOPE_DATA_DIR)")
	discoverCmd.Flags().BoolVar(&discoverWithNews, "with-news", false, "Also run the external news fetcher after each cycle")
	discoverCmd.Flags().StringVar(&discoverNewsCmd, "news-cmd", "", "News fetcher command (default: python3 scripts/fetch_news.py)")
	discoverCmd.Flags().BoolVarP(&discoverVerbose, "verbose", "v", false, "Enable debug logging")

	// --- briefing command ---
	var (
		briefingDataDir string
		briefingLimit   int
	)

	briefingCmd := &cobra.Command{
		Use:   "briefing",
		Short: "Print a markdown digest of the current trends",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := dataDirOrEnv(briefingDataDir)
			artifact, err := diffpkg.LoadArtifact(filepath.Join(dir, "trends.json"))
			if err != nil {
				return err
			}
			fmt.Print(output.Briefing(artifact, briefingLimit))
			return nil
		},
	}
	briefingCmd.Flags().StringVar(&briefingDataDir, "data-dir", "", "Data directory (default: data)")
	briefingCmd.Flags().IntVar(&briefingLimit, "limit", 10, "Trends to include")

	// --- diff command ---
	var diffOutput string

	diffCmd := &cobra.Command{
		Use:   "diff <baseline.json> <current.json>",
		Short: "Compare two trends.json snapshots",
		Long:  "Show which keywords heated up, cooled down, entered or left between two cycles.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(args[0], args[1], diffOutput)
		},
	}
	diffCmd.Flags().StringVarP(&diffOutput, "output", "o", "-", "Output diff file path (- for human-readable stdout)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the trendscope version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("trendscope %s\n", version)
		},
	}

	rootCmd.AddCommand(discoverCmd, briefingCmd, diffCmd, mcpCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildOptions merges flags and environment into orchestrator options.
func buildOptions(platformsCSV string, keywords, topk int, proxy, dataDir, newsCmd string, withNews bool) orchestrator.Options {
	opts := orchestrator.DefaultOptions()
	if platformsCSV != "" {
		opts.Platforms = splitCSV(platformsCSV)
	}
	if keywords > 0 {
		opts.SeedCount = keywords
	}
	if topk > 0 {
		opts.TopK = topk
	}
	if proxy == "" {
		proxy = os.Getenv("TRENDSCOPE_PROXY")
	}
	opts.Proxy = proxy
	opts.DataDir = dataDirOrEnv(dataDir)
	opts.WithNews = withNews
	opts.NewsCmd = newsCmd
	return opts
}

func dataDirOrEnv(dir string) string {
	if dir != "" {
		return dir
	}
	if env := os.Getenv("TRENDSCOPE_DATA_DIR"); env != "" {
		return env
	}
	return "data"
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// runDiff handles the `diff` command.
func runDiff(baselinePath, currentPath, outputPath string) error {
	baseline, err := diffpkg.LoadArtifact(baselinePath)
	if err != nil {
		return fmt.Errorf("load baseline: %w", err)
	}
	current, err := diffpkg.LoadArtifact(currentPath)
	if err != nil {
		return fmt.Errorf("load current: %w", err)
	}

	result := diffpkg.Compare(baseline, current)

	if outputPath == "-" {
		fmt.Print(diffpkg.FormatDiff(result))
		return nil
	}
	return output.WriteJSON(result, outputPath, true)
}
