// Package engine turns a cycle's raw crawl items into ranked trend
// topics: keyword aggregation, time-series update, burst detection, heat
// scoring and the trends.json artifact.
package engine

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/trendscope/trendscope/internal/burst"
	"github.com/trendscope/trendscope/internal/model"
	"github.com/trendscope/trendscope/internal/nlp"
	"github.com/trendscope/trendscope/internal/output"
	"github.com/trendscope/trendscope/internal/timeseries"
)

const (
	burstMultiplier   = 1.5
	bullishMultiplier = 1.2
	sparklineWindows  = 20
)

// Config carries the engine's tunables.
type Config struct {
	TopK          int
	BatchKeywords int
	MinFrequency  int
	Weights       model.HeatWeights
	Params        burst.Params
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		TopK:          50,
		BatchKeywords: 100,
		MinFrequency:  2,
		Weights:       DefaultWeights(),
		Params:        burst.DefaultParams(),
	}
}

// Engine chains the NLP pipeline, time-series store and burst detector.
type Engine struct {
	nlp   *nlp.Pipeline
	store *timeseries.Store
	cfg   Config
	log   zerolog.Logger

	now func() time.Time // swapped in tests
}

// New builds an engine over an existing pipeline and store.
func New(pipeline *nlp.Pipeline, store *timeseries.Store, cfg Config, log zerolog.Logger) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = 50
	}
	if cfg.BatchKeywords <= 0 {
		cfg.BatchKeywords = 100
	}
	if cfg.MinFrequency <= 0 {
		cfg.MinFrequency = 2
	}
	return &Engine{
		nlp:   pipeline,
		store: store,
		cfg:   cfg,
		log:   log.With().Str("component", "engine").Logger(),
		now:   time.Now,
	}
}

// keywordStats is the per-keyword evidence after frequency filtering.
type keywordStats struct {
	frequency  int
	platforms  []string
	engagement float64
	titles     []string
}

// ProcessCycle runs the full analysis over one cycle's raw items and
// persists the updated keyword history. It returns nil without touching
// any artifact when there is nothing to analyze.
func (e *Engine) ProcessCycle(items []model.RawContent) (*model.TrendsArtifact, error) {
	if len(items) == 0 {
		e.log.Warn().Msg("no raw items, skipping cycle")
		return nil, nil
	}
	now := e.now().UTC()

	titles := make([]string, 0, len(items))
	for _, item := range items {
		titles = append(titles, item.Title)
	}

	// New words discovered this cycle improve segmentation of the next.
	discovered := e.nlp.DiscoverNewWords(titles, nlp.DefaultMinFreq, nlp.DefaultMaxGramLen)
	for _, nw := range discovered {
		e.nlp.AddWord(nw.Word)
	}

	raw := e.nlp.Aggregate(items, e.cfg.BatchKeywords)

	maxEngagement := 1.0
	for _, ks := range raw {
		if ks.Engagement > maxEngagement {
			maxEngagement = ks.Engagement
		}
	}

	stats := make(map[string]*keywordStats, len(raw))
	for keyword, ks := range raw {
		freq := int(ks.Weight)
		if freq < e.cfg.MinFrequency {
			continue
		}
		engagement := ks.Engagement / maxEngagement
		if engagement > 1 {
			engagement = 1
		}
		stats[keyword] = &keywordStats{
			frequency:  freq,
			platforms:  ks.Platforms,
			engagement: engagement,
			titles:     ks.Titles,
		}
	}

	for keyword, s := range stats {
		e.store.Record(keyword, s.frequency, s.platforms, s.engagement, now)
	}

	trends := e.scoreAndRank(stats, now)

	removed := e.store.Cleanup(timeseries.DefaultMaxAge, now)
	if err := e.store.Save(); err != nil {
		return nil, err
	}

	burstCount := 0
	for _, t := range trends {
		if t.IsBurst {
			burstCount++
		}
	}
	e.log.Info().
		Int("keywords", len(stats)).
		Int("trends", len(trends)).
		Int("bursts", burstCount).
		Int("new_words", len(discovered)).
		Int("expired", removed).
		Msg("cycle analyzed")

	return &model.TrendsArtifact{
		UpdateTime:  now.Format(time.RFC3339),
		TotalTrends: len(trends),
		BurstCount:  burstCount,
		Algorithm: model.Algorithm{
			HeatWeights:        e.cfg.Weights,
			DecayHalfLifeHours: e.cfg.Params.HalfLifeHours,
			BurstZThreshold:    e.cfg.Params.ZThreshold,
			MACDPeriods: model.MACDPeriods{
				Short:  e.cfg.Params.ShortPeriod,
				Long:   e.cfg.Params.LongPeriod,
				Signal: e.cfg.Params.SignalPeriod,
			},
		},
		Trends: trends,
	}, nil
}

func (e *Engine) scoreAndRank(stats map[string]*keywordStats, now time.Time) []model.TrendTopic {
	p := e.cfg.Params

	trends := make([]model.TrendTopic, 0, len(stats))
	for keyword, s := range stats {
		counts := e.store.Counts(keyword)

		z, isBurst := p.ZScore(counts)
		macdValue, macdSignal := p.MACD(counts)
		accel := burst.Acceleration(counts)
		direction := Direction(counts)

		sparkline := counts
		if len(sparkline) > sparklineWindows {
			sparkline = sparkline[len(sparkline)-sparklineWindows:]
		}

		hist, _ := e.store.History(keyword)
		hoursSincePeak := 0.0
		if hist.PeakTime != "" {
			if peak, err := time.Parse(time.RFC3339, hist.PeakTime); err == nil {
				hoursSincePeak = now.Sub(peak).Hours()
			}
		}

		heat := ComputeHeat(e.cfg.Weights, p, s.frequency, accel,
			len(s.platforms), s.engagement, hoursSincePeak)
		if isBurst {
			heat *= burstMultiplier
		}
		if macdSignal == model.SignalBullish {
			heat *= bullishMultiplier
		}
		if heat > 100 {
			heat = 100
		}

		trends = append(trends, model.TrendTopic{
			Keyword:         keyword,
			HeatScore:       round2(heat),
			Frequency:       s.frequency,
			Acceleration:    round2(accel),
			SourceDiversity: len(s.platforms),
			Engagement:      round2(s.engagement),
			IsBurst:         isBurst,
			BurstZScore:     round2(z),
			MACDSignal:      macdSignal,
			MACDValue:       round2(macdValue),
			TrendDirection:  direction,
			Platforms:       s.platforms,
			RelatedTitles:   s.titles,
			Category:        Classify(keyword),
			Sparkline:       sparkline,
			FirstSeen:       hist.FirstSeen,
			PeakTime:        hist.PeakTime,
		})
	}

	sort.Slice(trends, func(i, j int) bool {
		if trends[i].HeatScore != trends[j].HeatScore {
			return trends[i].HeatScore > trends[j].HeatScore
		}
		return trends[i].Keyword < trends[j].Keyword
	})
	if len(trends) > e.cfg.TopK {
		trends = trends[:e.cfg.TopK]
	}
	return trends
}

// WriteTrends writes the artifact atomically with two-space indentation.
func (e *Engine) WriteTrends(a *model.TrendsArtifact, path string) error {
	return output.WriteJSONAtomic(a, path, true)
}
