package crawler

import (
	"sync"
	"time"

	"github.com/trendscope/trendscope/internal/model"
)

// Stats is the thread-safe per-run request/item/error registry shared by
// all crawlers of one crawl.
type Stats struct {
	mu        sync.Mutex
	platforms map[string]*model.PlatformStats
}

func NewStats() *Stats {
	return &Stats{platforms: make(map[string]*model.PlatformStats)}
}

func (s *Stats) get(platform string) *model.PlatformStats {
	ps, ok := s.platforms[platform]
	if !ok {
		ps = &model.PlatformStats{}
		s.platforms[platform] = ps
	}
	return ps
}

// Request counts one outgoing request for a platform.
func (s *Stats) Request(platform string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(platform).Requests++
}

// Items counts n sampled items for a platform.
func (s *Stats) Items(platform string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(platform).Items += n
}

// Error counts one failed request or crawl step for a platform.
func (s *Stats) Error(platform string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(platform).Errors++
}

// Snapshot copies the registry into the serializable form.
func (s *Stats) Snapshot(elapsed time.Duration) *model.CrawlStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := &model.CrawlStats{
		Platforms: make(map[string]model.PlatformStats, len(s.platforms)),
		Duration:  elapsed.Round(100 * time.Millisecond).String(),
	}
	for name, ps := range s.platforms {
		out.Platforms[name] = *ps
	}
	return out
}
