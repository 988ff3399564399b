package crawler

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/trendscope/trendscope/internal/fetch"
	"github.com/trendscope/trendscope/internal/model"
)

// Zhihu reads the public hot list. Seeds are ignored.
type Zhihu struct {
	client *fetch.Client
	stats  *Stats
	log    zerolog.Logger

	hotURL string
}

func newZhihu(client *fetch.Client, stats *Stats, log zerolog.Logger) *Zhihu {
	return &Zhihu{
		client: client,
		stats:  stats,
		log:    log,
		hotURL: "https://www.zhihu.com/api/v3/feed/topstory/hot-lists/total?limit=50",
	}
}

func (z *Zhihu) Name() string { return "zhihu" }
func (z *Zhihu) Host() string { return Hosts["zhihu"] }

func (z *Zhihu) CrawlAll(ctx context.Context, _ []string) ([]model.RawContent, error) {
	z.stats.Request(z.Name())
	resp, err := z.client.Get(ctx, z.hotURL, nil, nil)
	if err != nil {
		z.stats.Error(z.Name())
		return nil, err
	}

	var payload struct {
		Data []struct {
			DetailText string `json:"detail_text"`
			Target     struct {
				ID      interface{} `json:"id"`
				Title   string      `json:"title"`
				Excerpt string      `json:"excerpt"`
			} `json:"target"`
		} `json:"data"`
	}
	if err := resp.JSON(&payload); err != nil {
		return nil, err
	}

	entries := payload.Data
	if len(entries) > 30 {
		entries = entries[:30]
	}

	var items []model.RawContent
	for _, entry := range entries {
		title := entry.Target.Title
		if title == "" {
			continue
		}
		text := entry.Target.Excerpt
		if text == "" {
			text = title
		}
		id := fmt.Sprintf("%v", entry.Target.ID)

		items = append(items, model.RawContent{
			Platform:    "zhihu",
			ContentID:   "zh_" + id,
			Title:       title,
			Text:        text,
			Views:       parseHotText(entry.DetailText),
			URL:         "https://www.zhihu.com/question/" + id,
			CrawlTime:   nowStamp(),
			ContentType: model.TypeQuestion,
			Extra:       map[string]interface{}{"hot_text": entry.DetailText},
		})
	}

	z.stats.Items(z.Name(), len(items))
	z.log.Info().Int("items", len(items)).Msg("crawl done")
	return items, nil
}

// parseHotText reads the hot list detail text, "1234万热度" style.
func parseHotText(s string) int64 {
	return ParseCompactNumber(strings.ReplaceAll(s, "热度", ""))
}
