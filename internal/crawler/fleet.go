package crawler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/trendscope/trendscope/internal/fetch"
	"github.com/trendscope/trendscope/internal/model"
	"github.com/trendscope/trendscope/internal/output"
)

const (
	rawFilePrefix  = "raw_"
	rawStampLayout = "20060102_150405"
	rawRetention   = 7 * 24 * time.Hour
)

// Fleet fans one crawl out across platforms. Every crawler gets its own
// client (cookie jar, UA rotation) over the one shared limiter, so
// cross-crawler pacing per host still holds.
type Fleet struct {
	crawlers []Crawler
	limiter  *fetch.Limiter
	stats    *Stats
	rawDir   string
	log      zerolog.Logger

	now func() time.Time
}

// NewFleet builds crawlers for the requested platforms. rawDir is where
// per-cycle snapshots land; empty disables persistence.
func NewFleet(platforms []string, proxy, rawDir string, limiter *fetch.Limiter, log zerolog.Logger) (*Fleet, error) {
	f := &Fleet{
		limiter: limiter,
		stats:   NewStats(),
		rawDir:  rawDir,
		log:     log.With().Str("component", "crawler").Logger(),
		now:     time.Now,
	}
	for _, platform := range platforms {
		cfg := fetch.DefaultConfig()
		cfg.ProxyURL = proxy
		if platform == "douyin" || platform == "zhihu" {
			cfg.Headers = map[string]string{"Referer": "https://www." + platform + ".com/"}
		}
		client, err := fetch.NewClient(cfg, limiter, f.log)
		if err != nil {
			return nil, fmt.Errorf("client for %s: %w", platform, err)
		}
		c, err := New(platform, client, f.stats, f.log)
		if err != nil {
			return nil, err
		}
		f.crawlers = append(f.crawlers, c)
	}
	return f, nil
}

// Stats exposes the shared per-run registry.
func (f *Fleet) Stats() *Stats { return f.stats }

// Crawl runs all platforms concurrently, deduplicates the union and
// persists the snapshot. A failing platform is logged and skipped; only
// context cancellation aborts the whole crawl.
func (f *Fleet) Crawl(ctx context.Context, seeds []string) (*model.RawSnapshot, error) {
	start := f.now()

	var mu sync.Mutex
	var collected []model.RawContent

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(f.crawlers))
	for _, c := range f.crawlers {
		c := c
		g.Go(func() error {
			if reason, blocked := f.limiter.Blocked(c.Host()); blocked {
				f.log.Warn().Str("platform", c.Name()).Str("reason", reason).Msg("host blocked, skipping platform")
				return nil
			}
			items, err := c.CrawlAll(gctx, seeds)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				f.stats.Error(c.Name())
				f.log.Error().Err(err).Str("platform", c.Name()).Msg("platform crawl failed")
			}
			mu.Lock()
			collected = append(collected, items...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	unique := Dedupe(collected)
	f.log.Info().
		Int("total", len(collected)).
		Int("unique", len(unique)).
		Dur("elapsed", f.now().Sub(start)).
		Msg("crawl finished")

	snapshot := &model.RawSnapshot{
		CrawlTime: f.now().UTC().Format(time.RFC3339),
		RunID:     uuid.NewString(),
		Total:     len(unique),
		Stats:     f.stats.Snapshot(f.now().Sub(start)),
		Items:     unique,
	}
	if f.rawDir != "" {
		if err := f.saveRaw(snapshot); err != nil {
			f.log.Error().Err(err).Msg("saving raw snapshot failed")
		}
	}
	return snapshot, nil
}

// Dedupe drops items whose titles collapse to the same key: the first 30
// runes, lowercased, spaces removed. Cross-platform reposts of the same
// headline count once.
func Dedupe(items []model.RawContent) []model.RawContent {
	seen := make(map[string]struct{}, len(items))
	unique := make([]model.RawContent, 0, len(items))
	for _, item := range items {
		key := strings.ReplaceAll(strings.ToLower(truncateRunes(item.Title, 30)), " ", "")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, item)
	}
	return unique
}

func (f *Fleet) saveRaw(snapshot *model.RawSnapshot) error {
	name := rawFilePrefix + f.now().UTC().Format(rawStampLayout) + ".json"
	path := filepath.Join(f.rawDir, name)
	if err := output.WriteJSONAtomic(snapshot, path, true); err != nil {
		return err
	}
	f.log.Info().Str("file", name).Msg("raw snapshot saved")

	f.pruneRaw()
	return nil
}

// pruneRaw removes snapshots older than the retention window, judged by
// the timestamp in the filename.
func (f *Fleet) pruneRaw() {
	entries, err := os.ReadDir(f.rawDir)
	if err != nil {
		return
	}
	cutoff := f.now().UTC().Add(-rawRetention)
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, rawFilePrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, rawFilePrefix), ".json")
		ts, err := time.Parse(rawStampLayout, stamp)
		if err != nil {
			continue
		}
		if ts.Before(cutoff) {
			if err := os.Remove(filepath.Join(f.rawDir, name)); err == nil {
				f.log.Debug().Str("file", name).Msg("pruned old snapshot")
			}
		}
	}
}
