// Package model defines the data types shared across the trendscope
// pipeline. All of them serialize to the JSON artifacts consumed by the
// front-end and by MCP clients.
package model

// --- Raw content: crawler output ---

// Content types produced by the platform crawlers.
const (
	TypeVideo    = "video"
	TypeNote     = "note"
	TypeArticle  = "article"
	TypeAnswer   = "answer"
	TypeQuestion = "question"
	TypeTopic    = "topic"
	TypeSearch   = "search"
	TypeStatus   = "status"
)

// RawContent is one piece of content sampled from a platform. A crawler
// creates it, the engine consumes it; it is never mutated afterwards.
type RawContent struct {
	Platform    string                 `json:"platform"`
	ContentID   string                 `json:"content_id"`
	Title       string                 `json:"title"`
	Text        string                 `json:"text,omitempty"`
	Author      string                 `json:"author,omitempty"`
	Likes       int64                  `json:"likes"`
	Comments    int64                  `json:"comments"`
	Shares      int64                  `json:"shares"`
	Views       int64                  `json:"views"`
	Tags        []string               `json:"tags,omitempty"`
	URL         string                 `json:"url,omitempty"`
	PubTime     string                 `json:"pub_time,omitempty"`
	CrawlTime   string                 `json:"crawl_time"`
	ContentType string                 `json:"content_type"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

// EngagementScore weighs interactions by intent: comments and shares
// signal more than likes, views are heavily discounted.
func (r RawContent) EngagementScore() float64 {
	return float64(r.Likes) + 3*float64(r.Comments) + 5*float64(r.Shares) + 0.01*float64(r.Views)
}

// RawSnapshot is the per-cycle data/raw_feeds/raw_<ts>.json artifact.
type RawSnapshot struct {
	CrawlTime string       `json:"crawl_time"`
	RunID     string       `json:"run_id,omitempty"`
	Total     int          `json:"total"`
	Stats     *CrawlStats  `json:"stats,omitempty"`
	Items     []RawContent `json:"items"`
}

// --- Crawl statistics ---

// PlatformStats counts one platform's activity within a run.
type PlatformStats struct {
	Requests int `json:"requests"`
	Items    int `json:"items"`
	Errors   int `json:"errors"`
}

// CrawlStats summarizes a crawl run across platforms.
type CrawlStats struct {
	Platforms map[string]PlatformStats `json:"platforms"`
	Duration  string                   `json:"duration,omitempty"`
}

// --- Keyword time series ---

// KeywordWindow is one observation window for a keyword.
type KeywordWindow struct {
	Time       string   `json:"time"`
	Count      int      `json:"count"`
	Platforms  []string `json:"platforms"`
	Engagement float64  `json:"engagement"`
}

// KeywordHistory is the retained series for one keyword, oldest window
// first, capped by FIFO eviction at the store's horizon.
type KeywordHistory struct {
	Windows   []KeywordWindow `json:"windows"`
	FirstSeen string          `json:"first_seen"`
	PeakCount int             `json:"peak_count"`
	PeakTime  string          `json:"peak_time"`
}

// --- Trends: engine output ---

// MACD signal values.
const (
	SignalBullish = "bullish"
	SignalBearish = "bearish"
	SignalNeutral = "neutral"
)

// Trend direction arrows, steepest rise first.
const (
	DirectionSurge = "↑"
	DirectionRise  = "↗"
	DirectionFlat  = "→"
	DirectionEase  = "↘"
	DirectionFall  = "↓"
)

// TrendTopic is one ranked trend derived for the current cycle.
type TrendTopic struct {
	Keyword         string   `json:"keyword"`
	HeatScore       float64  `json:"heat_score"`
	Frequency       int      `json:"frequency"`
	Acceleration    float64  `json:"acceleration"`
	SourceDiversity int      `json:"source_diversity"`
	Engagement      float64  `json:"engagement"`
	IsBurst         bool     `json:"is_burst"`
	BurstZScore     float64  `json:"burst_z_score"`
	MACDSignal      string   `json:"macd_signal"`
	MACDValue       float64  `json:"macd_value"`
	TrendDirection  string   `json:"trend_direction"`
	Platforms       []string `json:"platforms"`
	RelatedTitles   []string `json:"related_titles"`
	Category        string   `json:"category"`
	Sparkline       []int    `json:"sparkline"`
	FirstSeen       string   `json:"first_seen,omitempty"`
	PeakTime        string   `json:"peak_time,omitempty"`
}

// HeatWeights are the linear blend coefficients of the heat formula.
type HeatWeights struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
	Delta float64 `json:"delta"`
}

// MACDPeriods are the EMA spans used by the MACD detector.
type MACDPeriods struct {
	Short  int `json:"short"`
	Long   int `json:"long"`
	Signal int `json:"signal"`
}

// Algorithm records the scoring parameters that produced an artifact so
// consumers can interpret scores across versions.
type Algorithm struct {
	HeatWeights        HeatWeights `json:"heat_weights"`
	DecayHalfLifeHours float64     `json:"decay_half_life_hours"`
	BurstZThreshold    float64     `json:"burst_z_threshold"`
	MACDPeriods        MACDPeriods `json:"macd_periods"`
}

// TrendsArtifact is the data/trends.json document.
type TrendsArtifact struct {
	UpdateTime  string       `json:"update_time"`
	TotalTrends int          `json:"total_trends"`
	BurstCount  int          `json:"burst_count"`
	Algorithm   Algorithm    `json:"algorithm"`
	Trends      []TrendTopic `json:"trends"`
}

// --- News artifact (shared with the external aggregator) ---

// TrendData is the sub-object attached to discovered-trend news items.
type TrendData struct {
	HeatScore    float64  `json:"heat_score"`
	Frequency    int      `json:"frequency"`
	Acceleration float64  `json:"acceleration"`
	IsBurst      bool     `json:"is_burst"`
	ZScore       float64  `json:"z_score"`
	MACDSignal   string   `json:"macd_signal"`
	Direction    string   `json:"direction"`
	Platforms    []string `json:"platforms"`
	Sparkline    []int    `json:"sparkline"`
}

// NewsItem is the item layout the merge step writes into data/news.json.
// Regular items come from the external aggregator and are carried through
// verbatim; only discovered trends use this struct directly.
type NewsItem struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Summary           string     `json:"summary"`
	Link              string     `json:"link"`
	Source            string     `json:"source"`
	SourceIcon        string     `json:"source_icon"`
	Category          string     `json:"category"`
	Lang              string     `json:"lang"`
	Image             string     `json:"image"`
	PubDate           string     `json:"pub_date"`
	FetchTime         string     `json:"fetch_time"`
	Importance        int        `json:"importance"`
	Regions           []string   `json:"regions"`
	Priority          int        `json:"priority"`
	HotValue          int64      `json:"hot_value"`
	IsDiscoveredTrend bool       `json:"is_discovered_trend"`
	TrendData         *TrendData `json:"trend_data,omitempty"`
}
