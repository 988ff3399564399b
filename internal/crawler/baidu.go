package crawler

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/trendscope/trendscope/internal/fetch"
	"github.com/trendscope/trendscope/internal/model"
)

// Baidu reads the realtime hot board from its server-rendered state
// comment. The page wants a desktop UA and no brotli.
type Baidu struct {
	client *fetch.Client
	stats  *Stats
	log    zerolog.Logger

	boardURL string
}

func newBaidu(client *fetch.Client, stats *Stats, log zerolog.Logger) *Baidu {
	return &Baidu{
		client:   client,
		stats:    stats,
		log:      log,
		boardURL: "https://top.baidu.com/board?tab=realtime",
	}
}

func (b *Baidu) Name() string { return "baidu" }
func (b *Baidu) Host() string { return Hosts["baidu"] }

func (b *Baidu) CrawlAll(ctx context.Context, _ []string) ([]model.RawContent, error) {
	b.stats.Request(b.Name())
	resp, err := b.client.Get(ctx, b.boardURL, nil, map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Encoding": "gzip, deflate",
		"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	})
	if err != nil {
		b.stats.Error(b.Name())
		return nil, err
	}

	state, ok := SData(resp.Text())
	if !ok {
		return nil, errors.New("hot board has no state blob")
	}

	var items []model.RawContent
	for _, card := range asList(dig(state, "data", "cards")) {
		content := asList(dig(card, "content"))
		if len(content) > 30 {
			content = content[:30]
		}
		for _, raw := range content {
			entry := asMap(raw)
			if entry == nil {
				continue
			}
			title := asString(entry["word"])
			if title == "" {
				continue
			}
			text := asString(entry["desc"])
			if text == "" {
				text = title
			}
			items = append(items, model.RawContent{
				Platform:    "baidu",
				ContentID:   "bd_" + shortHash(title),
				Title:       title,
				Text:        text,
				Views:       asInt(entry["hotScore"]),
				URL:         asString(entry["url"]),
				CrawlTime:   nowStamp(),
				ContentType: model.TypeSearch,
			})
		}
	}

	b.stats.Items(b.Name(), len(items))
	b.log.Info().Int("items", len(items)).Msg("crawl done")
	return items, nil
}
