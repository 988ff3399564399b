// Package timeseries maintains the per-keyword sliding window history
// backing burst detection: a FIFO-capped ring of observation windows per
// keyword with first-seen and peak tracking, persisted as one JSON file.
package timeseries

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/trendscope/trendscope/internal/model"
	"github.com/trendscope/trendscope/internal/output"
)

// DefaultHorizon is the retained window count: 144 windows of 10 minutes
// cover 24 hours.
const DefaultHorizon = 144

// DefaultMaxAge is the cleanup cutoff for stale keywords.
const DefaultMaxAge = 48 * time.Hour

// Store holds keyword histories. It is single-writer: the engine owns it
// for the duration of a cycle, so no locking is needed.
type Store struct {
	path    string
	horizon int
	data    map[string]*model.KeywordHistory
	log     zerolog.Logger
}

// Open loads prior state from path. A missing file starts empty; a
// corrupt file is logged and discarded rather than crashing the cycle
// (the next Save overwrites it).
func Open(path string, log zerolog.Logger) *Store {
	s := &Store{
		path:    path,
		horizon: DefaultHorizon,
		data:    make(map[string]*model.KeywordHistory),
		log:     log,
	}

	if _, err := os.Stat(path); err != nil {
		return s
	}
	if err := output.ReadJSON(path, &s.data); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("history corrupt, starting empty")
		s.data = make(map[string]*model.KeywordHistory)
		return s
	}
	log.Debug().Int("keywords", len(s.data)).Msg("keyword history loaded")
	return s
}

// SetHorizon overrides the window cap. Values below 1 are ignored.
func (s *Store) SetHorizon(h int) {
	if h >= 1 {
		s.horizon = h
	}
}

// Record appends one observation window for the keyword, initializes
// first_seen on the first record, advances the peak when exceeded, and
// evicts the oldest windows beyond the horizon.
func (s *Store) Record(keyword string, count int, platforms []string, engagement float64, at time.Time) {
	ts := at.UTC().Format(time.RFC3339)

	hist, ok := s.data[keyword]
	if !ok {
		hist = &model.KeywordHistory{
			FirstSeen: ts,
			PeakTime:  ts,
		}
		s.data[keyword] = hist
	}

	hist.Windows = append(hist.Windows, model.KeywordWindow{
		Time:       ts,
		Count:      count,
		Platforms:  platforms,
		Engagement: engagement,
	})

	if count > hist.PeakCount {
		hist.PeakCount = count
		hist.PeakTime = ts
	}

	if over := len(hist.Windows) - s.horizon; over > 0 {
		hist.Windows = hist.Windows[over:]
	}
}

// History returns the keyword's history and whether it exists.
func (s *Store) History(keyword string) (model.KeywordHistory, bool) {
	hist, ok := s.data[keyword]
	if !ok {
		return model.KeywordHistory{}, false
	}
	return *hist, true
}

// Series returns the keyword's windows, oldest first. Nil when unknown.
func (s *Store) Series(keyword string) []model.KeywordWindow {
	hist, ok := s.data[keyword]
	if !ok {
		return nil
	}
	return hist.Windows
}

// Counts returns just the count series for the keyword, oldest first.
func (s *Store) Counts(keyword string) []int {
	windows := s.Series(keyword)
	if windows == nil {
		return nil
	}
	counts := make([]int, len(windows))
	for i, w := range windows {
		counts[i] = w.Count
	}
	return counts
}

// Len returns the number of tracked keywords.
func (s *Store) Len() int {
	return len(s.data)
}

// Keywords returns all tracked keywords, sorted.
func (s *Store) Keywords() []string {
	out := make([]string, 0, len(s.data))
	for k := range s.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Cleanup removes keywords whose newest window is older than maxAge
// relative to now, and keywords with no windows at all. Returns the
// number removed.
func (s *Store) Cleanup(maxAge time.Duration, now time.Time) int {
	cutoff := now.Add(-maxAge)

	var stale []string
	for keyword, hist := range s.data {
		if len(hist.Windows) == 0 {
			stale = append(stale, keyword)
			continue
		}
		newest, err := time.Parse(time.RFC3339, hist.Windows[len(hist.Windows)-1].Time)
		if err != nil || newest.Before(cutoff) {
			stale = append(stale, keyword)
		}
	}
	for _, keyword := range stale {
		delete(s.data, keyword)
	}

	if len(stale) > 0 {
		s.log.Debug().Int("removed", len(stale)).Msg("pruned stale keywords")
	}
	return len(stale)
}

// Save atomically rewrites the backing file.
func (s *Store) Save() error {
	if err := output.WriteJSONAtomic(s.data, s.path, false); err != nil {
		return fmt.Errorf("save keyword history: %w", err)
	}
	return nil
}
