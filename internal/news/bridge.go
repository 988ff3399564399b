// Package news bridges the trend pipeline with the news.json document
// shared with the external aggregator: existing news feed the analysis as
// extra raw content, and discovered trends are merged back as synthetic
// news items.
package news

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/trendscope/trendscope/internal/model"
	"github.com/trendscope/trendscope/internal/output"
)

// TrendSource marks synthetic news items produced from discovered trends.
const TrendSource = "🔬 热点发现"

const (
	trendSourceIcon = "🔬"
	minTitleRunes   = 4

	// MergeTrends defaults
	DefaultMergeLimit = 30
	DefaultMinHeat    = 10.0
)

// sourcePlatforms maps aggregator source names to crawler platform names,
// checked in order by substring.
var sourcePlatforms = []struct {
	match    string
	platform string
}{
	{"抖音热搜", "douyin"},
	{"小红书热门", "xiaohongshu"},
	{"今日头条", "toutiao"},
	{"36氪快讯", "36kr"},
	{"新浪财经", "sina"},
}

// document is the news.json envelope. Items stay loosely typed so fields
// the aggregator writes and we do not model survive a rewrite.
type document struct {
	LastUpdate string        `json:"last_update"`
	Total      int           `json:"total"`
	Sources    int           `json:"sources"`
	Items      []interface{} `json:"items"`
}

// LoadAsRaw converts existing news items into raw content for the trend
// analysis, so a cycle with failing crawlers still has signal. Previously
// discovered trends are skipped to avoid feeding the output back in.
func LoadAsRaw(path string, log zerolog.Logger) []model.RawContent {
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	var doc struct {
		Items []struct {
			ID                string `json:"id"`
			Title             string `json:"title"`
			Summary           string `json:"summary"`
			Link              string `json:"link"`
			Source            string `json:"source"`
			Category          string `json:"category"`
			Lang              string `json:"lang"`
			PubDate           string `json:"pub_date"`
			FetchTime         string `json:"fetch_time"`
			HotValue          int64  `json:"hot_value"`
			IsDiscoveredTrend bool   `json:"is_discovered_trend"`
		} `json:"items"`
	}
	if err := output.ReadJSON(path, &doc); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("news document unreadable, skipping")
		return nil
	}

	var items []model.RawContent
	for _, n := range doc.Items {
		if n.IsDiscoveredTrend {
			continue
		}
		if len([]rune(n.Title)) < minTitleRunes {
			continue
		}

		platform := "news"
		for _, sp := range sourcePlatforms {
			if strings.Contains(n.Source, sp.match) {
				platform = sp.platform
				break
			}
		}

		text := n.Summary
		if text == "" {
			text = n.Title
		}
		var tags []string
		if n.Category != "" {
			tags = []string{n.Category}
		}

		items = append(items, model.RawContent{
			Platform:    platform,
			ContentID:   "news_" + n.ID,
			Title:       n.Title,
			Text:        text,
			Views:       n.HotValue,
			Tags:        tags,
			URL:         n.Link,
			PubTime:     n.PubDate,
			CrawlTime:   n.FetchTime,
			ContentType: model.TypeArticle,
			Extra:       map[string]interface{}{"source": n.Source, "lang": n.Lang},
		})
	}

	log.Info().Int("items", len(items)).Msg("loaded news as raw content")
	return items
}

// MergeTrends rewrites news.json with the qualifying trends prepended as
// synthetic news items, replacing whatever trends a previous cycle left.
// Regular news items pass through untouched.
func MergeTrends(path string, trends []model.TrendTopic, limit int, minHeat float64, log zerolog.Logger) error {
	if len(trends) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultMergeLimit
	}

	var existing struct {
		Items []map[string]interface{} `json:"items"`
	}
	if _, err := os.Stat(path); err == nil {
		if err := output.ReadJSON(path, &existing); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("news document unreadable, starting fresh")
		}
	}

	var carried []interface{}
	for _, item := range existing.Items {
		if src, _ := item["source"].(string); src == TrendSource {
			continue
		}
		if disc, _ := item["is_discovered_trend"].(bool); disc {
			continue
		}
		carried = append(carried, item)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if len(trends) > limit {
		trends = trends[:limit]
	}

	var merged []interface{}
	for _, trend := range trends {
		if trend.HeatScore < minHeat {
			continue
		}
		merged = append(merged, trendNewsItem(trend, now))
	}
	merged = append(merged, carried...)

	sources := make(map[string]struct{})
	for _, item := range merged {
		switch v := item.(type) {
		case model.NewsItem:
			sources[v.Source] = struct{}{}
		case map[string]interface{}:
			src, _ := v["source"].(string)
			sources[src] = struct{}{}
		}
	}

	doc := document{
		LastUpdate: now,
		Total:      len(merged),
		Sources:    len(sources),
		Items:      merged,
	}
	if err := output.WriteJSONAtomic(doc, path, true); err != nil {
		return err
	}
	log.Info().Int("trends", len(merged)-len(carried)).Int("total", len(merged)).Msg("trends merged into news")
	return nil
}

func trendNewsItem(trend model.TrendTopic, now string) model.NewsItem {
	var parts []string
	if trend.IsBurst {
		parts = append(parts, "⚡ 突发热点")
	}
	parts = append(parts,
		fmt.Sprintf("🔥 热力值: %.0f", trend.HeatScore),
		fmt.Sprintf("📊 频率: %d", trend.Frequency),
	)
	if len(trend.Platforms) > 0 {
		platforms := trend.Platforms
		if len(platforms) > 3 {
			platforms = platforms[:3]
		}
		parts = append(parts, "📱 "+strings.Join(platforms, ","))
	}
	if trend.MACDSignal == model.SignalBullish {
		parts = append(parts, "📈 趋势上升")
	}
	if len(trend.RelatedTitles) > 0 {
		title := []rune(trend.RelatedTitles[0])
		if len(title) > 50 {
			title = title[:50]
		}
		parts = append(parts, "相关: "+string(title))
	}

	importance := 3
	switch {
	case trend.IsBurst:
		importance = 5
	case trend.HeatScore >= 60:
		importance = 4
	}

	category := trend.Category
	if category == "" {
		category = "时事"
	}
	pubDate := trend.PeakTime
	if pubDate == "" {
		pubDate = now
	}

	sparkline := trend.Sparkline
	if len(sparkline) > 20 {
		sparkline = sparkline[len(sparkline)-20:]
	}

	sum := md5.Sum([]byte(trend.Keyword))
	return model.NewsItem{
		ID:         "trend_" + hex.EncodeToString(sum[:])[:10],
		Title:      trend.TrendDirection + " " + trend.Keyword,
		Summary:    strings.Join(parts, " · "),
		Source:     TrendSource,
		SourceIcon: trendSourceIcon,
		Category:   category,
		Lang:       "zh",
		PubDate:    pubDate,
		FetchTime:  now,
		Importance: importance,
		Regions:    []string{},
		Priority:   0,
		HotValue:   int64(trend.HeatScore * 1000),

		IsDiscoveredTrend: true,
		TrendData: &model.TrendData{
			HeatScore:    trend.HeatScore,
			Frequency:    trend.Frequency,
			Acceleration: trend.Acceleration,
			IsBurst:      trend.IsBurst,
			ZScore:       trend.BurstZScore,
			MACDSignal:   trend.MACDSignal,
			Direction:    trend.TrendDirection,
			Platforms:    trend.Platforms,
			Sparkline:    sparkline,
		},
	}
}
