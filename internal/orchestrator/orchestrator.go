// Package orchestrator wires the discovery pipeline end to end: seed
// selection, the multi-platform crawl, the news.json supplement, trend
// analysis and artifact output. It owns the single-cycle and loop
// entry points used by the CLI and the MCP server.
package orchestrator

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/trendscope/trendscope/internal/crawler"
	"github.com/trendscope/trendscope/internal/engine"
	"github.com/trendscope/trendscope/internal/fetch"
	"github.com/trendscope/trendscope/internal/model"
	"github.com/trendscope/trendscope/internal/news"
	"github.com/trendscope/trendscope/internal/nlp"
	"github.com/trendscope/trendscope/internal/timeseries"
)

const (
	trendsFile  = "trends.json"
	newsFile    = "news.json"
	historyFile = "keyword_history.json"
	rawDirName  = "raw_feeds"

	// failureBackoff is how long loop mode sleeps after a cycle error
	// before trying again.
	failureBackoff = time.Minute
)

// Options configures a discovery run.
type Options struct {
	Platforms []string
	SeedCount int
	TopK      int
	Proxy     string
	DataDir   string
	WithNews  bool
	NewsCmd   string
}

// DefaultOptions returns the stock configuration: the login-free
// platforms only, ten seed keywords and the top 50 trends.
func DefaultOptions() Options {
	return Options{
		Platforms: []string{"bilibili", "baidu", "xiaohongshu"},
		SeedCount: 10,
		TopK:      50,
		DataDir:   "data",
	}
}

// Orchestrator holds the long-lived pipeline components. The store and
// the NLP dictionary persist across cycles in loop mode, so bursts and
// discovered words carry over.
type Orchestrator struct {
	opts   Options
	fleet  *crawler.Fleet
	engine *engine.Engine
	store  *timeseries.Store
	runner *news.Runner
	rng    *rand.Rand
	log    zerolog.Logger

	// crawl and fetchNews are swapped in tests.
	crawl     func(ctx context.Context, seeds []string) (*model.RawSnapshot, error)
	fetchNews func(ctx context.Context) error
}

// New builds the pipeline. Zero-value option fields fall back to
// DefaultOptions.
func New(opts Options, log zerolog.Logger) (*Orchestrator, error) {
	def := DefaultOptions()
	if len(opts.Platforms) == 0 {
		opts.Platforms = def.Platforms
	}
	if opts.SeedCount <= 0 {
		opts.SeedCount = def.SeedCount
	}
	if opts.TopK <= 0 {
		opts.TopK = def.TopK
	}
	if opts.DataDir == "" {
		opts.DataDir = def.DataDir
	}

	limiter := fetch.NewLimiter(fetch.DefaultBaseInterval, fetch.DefaultJitter)
	fleet, err := crawler.NewFleet(opts.Platforms, opts.Proxy, filepath.Join(opts.DataDir, rawDirName), limiter, log)
	if err != nil {
		return nil, fmt.Errorf("building crawler fleet: %w", err)
	}
	pipeline, err := nlp.New(log)
	if err != nil {
		return nil, fmt.Errorf("loading nlp pipeline: %w", err)
	}
	store := timeseries.Open(filepath.Join(opts.DataDir, historyFile), log)

	cfg := engine.DefaultConfig()
	cfg.TopK = opts.TopK

	o := &Orchestrator{
		opts:   opts,
		fleet:  fleet,
		engine: engine.New(pipeline, store, cfg, log),
		store:  store,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		log:    log.With().Str("component", "orchestrator").Logger(),
	}
	o.crawl = fleet.Crawl
	if opts.WithNews {
		o.runner = news.NewRunner(opts.NewsCmd, log)
		o.fetchNews = o.runner.Run
	}
	return o, nil
}

// TrendsPath is where the cycle artifact lands.
func (o *Orchestrator) TrendsPath() string {
	return filepath.Join(o.opts.DataDir, trendsFile)
}

// NewsPath is the shared news.json read as supplement and rewritten by
// the trend merge.
func (o *Orchestrator) NewsPath() string {
	return filepath.Join(o.opts.DataDir, newsFile)
}

// Store exposes the keyword history for read-only consumers.
func (o *Orchestrator) Store() *timeseries.Store { return o.store }

// RunCycle executes one full discovery pass and returns the artifact.
// When neither the crawl nor news.json yields any items the cycle is a
// no-op: nothing is analyzed and trends.json is left untouched.
func (o *Orchestrator) RunCycle(ctx context.Context) (*model.TrendsArtifact, error) {
	start := time.Now()
	seeds := crawler.SelectSeeds(o.opts.SeedCount, o.rng)
	o.log.Info().
		Strs("platforms", o.opts.Platforms).
		Int("seeds", len(seeds)).
		Msg("starting discovery cycle")

	snapshot, err := o.crawl(ctx, seeds)
	if err != nil {
		return nil, fmt.Errorf("crawl: %w", err)
	}
	items := snapshot.Items

	supplement := news.LoadAsRaw(o.NewsPath(), o.log)
	if len(supplement) > 0 {
		o.log.Info().
			Int("crawled", len(items)).
			Int("news", len(supplement)).
			Msg("supplementing crawl with news items")
		items = append(items, supplement...)
	}

	if len(items) == 0 {
		o.log.Warn().Msg("no content collected, run the news fetcher first or widen platforms")
		return nil, nil
	}
	cycle := model.Summarize(items)
	o.log.Debug().
		Interface("by_platform", cycle.ByPlatform).
		Float64("engagement", cycle.Engagement).
		Str("top_title", cycle.TopTitle).
		Msg("cycle input profile")

	artifact, err := o.engine.ProcessCycle(items)
	if err != nil {
		return nil, fmt.Errorf("trend analysis: %w", err)
	}
	if artifact == nil {
		return nil, nil
	}

	if err := o.engine.WriteTrends(artifact, o.TrendsPath()); err != nil {
		return nil, fmt.Errorf("writing trends: %w", err)
	}
	if err := news.MergeTrends(o.NewsPath(), artifact.Trends, news.DefaultMergeLimit, news.DefaultMinHeat, o.log); err != nil {
		o.log.Error().Err(err).Msg("merging trends into news failed")
	}

	o.log.Info().
		Int("items", len(items)).
		Int("trends", artifact.TotalTrends).
		Int("bursts", artifact.BurstCount).
		Dur("elapsed", time.Since(start)).
		Msg("discovery cycle finished")
	return artifact, nil
}

// Run executes one cycle, optionally followed by the external news
// fetcher. This is the single-shot CLI entry point.
func (o *Orchestrator) Run(ctx context.Context) (*model.TrendsArtifact, error) {
	artifact, err := o.RunCycle(ctx)
	if err != nil {
		return nil, err
	}
	if o.fetchNews != nil {
		if err := o.fetchNews(ctx); err != nil {
			o.log.Error().Err(err).Msg("news fetch failed")
		}
	}
	return artifact, nil
}

// RunLoop repeats cycles at the given interval until the context is
// canceled or an interrupt arrives. A failed cycle is logged and
// retried after a short back-off rather than killing the loop.
func (o *Orchestrator) RunLoop(ctx context.Context, interval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			o.log.Info().Str("signal", sig.String()).Msg("shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	o.log.Info().Dur("interval", interval).Msg("loop mode started")
	for {
		pause := interval
		if _, err := o.Run(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			o.log.Error().Err(err).Msg("cycle failed")
			pause = failureBackoff
		}

		next := time.Now().Add(pause)
		o.log.Info().Str("next_run", next.Format("15:04:05")).Msg("sleeping until next cycle")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(pause):
		}
	}
}
