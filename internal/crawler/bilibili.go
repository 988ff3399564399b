package crawler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/trendscope/trendscope/internal/fetch"
	"github.com/trendscope/trendscope/internal/model"
)

// Bilibili reads the public popular-video list. Seeds are ignored; the
// list itself is the sample.
type Bilibili struct {
	client *fetch.Client
	stats  *Stats
	log    zerolog.Logger

	popularURL string
}

func newBilibili(client *fetch.Client, stats *Stats, log zerolog.Logger) *Bilibili {
	return &Bilibili{
		client:     client,
		stats:      stats,
		log:        log,
		popularURL: "https://api.bilibili.com/x/web-interface/popular?ps=50&pn=1",
	}
}

func (b *Bilibili) Name() string { return "bilibili" }
func (b *Bilibili) Host() string { return Hosts["bilibili"] }

func (b *Bilibili) CrawlAll(ctx context.Context, _ []string) ([]model.RawContent, error) {
	b.stats.Request(b.Name())
	resp, err := b.client.Get(ctx, b.popularURL, nil, nil)
	if err != nil {
		b.stats.Error(b.Name())
		return nil, err
	}

	var payload struct {
		Data struct {
			List []struct {
				BVID  string `json:"bvid"`
				Title string `json:"title"`
				Desc  string `json:"desc"`
				Owner struct {
					Name string `json:"name"`
				} `json:"owner"`
				Stat struct {
					Like  int64 `json:"like"`
					Reply int64 `json:"reply"`
					Share int64 `json:"share"`
					View  int64 `json:"view"`
				} `json:"stat"`
			} `json:"list"`
		} `json:"data"`
	}
	if err := resp.JSON(&payload); err != nil {
		return nil, err
	}

	list := payload.Data.List
	if len(list) > 30 {
		list = list[:30]
	}

	var items []model.RawContent
	for _, entry := range list {
		if entry.Title == "" {
			continue
		}
		text := entry.Desc
		if text == "" {
			text = entry.Title
		}
		items = append(items, model.RawContent{
			Platform:    "bilibili",
			ContentID:   "bl_" + entry.BVID,
			Title:       entry.Title,
			Text:        text,
			Author:      entry.Owner.Name,
			Likes:       entry.Stat.Like,
			Comments:    entry.Stat.Reply,
			Shares:      entry.Stat.Share,
			Views:       entry.Stat.View,
			URL:         "https://www.bilibili.com/video/" + entry.BVID,
			CrawlTime:   nowStamp(),
			ContentType: model.TypeVideo,
		})
	}

	b.stats.Items(b.Name(), len(items))
	b.log.Info().Int("items", len(items)).Msg("crawl done")
	return items, nil
}
