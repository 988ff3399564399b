package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/trendscope/trendscope/internal/fetch"
	"github.com/trendscope/trendscope/internal/model"
)

// topic feeds are fetched for this many seeds at most
const weiboTopicSeeds = 5

// Weibo reads the open AJAX side endpoints: the realtime hot search list
// and per-topic status feeds. Both answer plain GET requests.
type Weibo struct {
	client *fetch.Client
	stats  *Stats
	log    zerolog.Logger

	hotSearchURL string
	topicURL     string
}

func newWeibo(client *fetch.Client, stats *Stats, log zerolog.Logger) *Weibo {
	return &Weibo{
		client:       client,
		stats:        stats,
		log:          log,
		hotSearchURL: "https://weibo.com/ajax/side/hotSearch",
		topicURL:     "https://weibo.com/ajax/statuses/topic",
	}
}

func (w *Weibo) Name() string { return "weibo" }
func (w *Weibo) Host() string { return Hosts["weibo"] }

// HotSearch reads the realtime hot search board. Promoted entries
// (is_fei) are dropped.
func (w *Weibo) HotSearch(ctx context.Context) ([]model.RawContent, error) {
	w.stats.Request(w.Name())
	resp, err := w.client.Get(ctx, w.hotSearchURL, nil, nil)
	if err != nil {
		w.stats.Error(w.Name())
		return nil, err
	}

	var payload struct {
		Data struct {
			Realtime []struct {
				Word      string      `json:"word"`
				LabelName string      `json:"label_name"`
				Category  string      `json:"category"`
				RawHot    int64       `json:"raw_hot"`
				IsHot     int         `json:"is_hot"`
				IsNew     int         `json:"is_new"`
				IsFei     interface{} `json:"is_fei"`
			} `json:"realtime"`
		} `json:"data"`
	}
	if err := resp.JSON(&payload); err != nil {
		return nil, err
	}

	realtime := payload.Data.Realtime
	if len(realtime) > 30 {
		realtime = realtime[:30]
	}

	var items []model.RawContent
	for _, entry := range realtime {
		if entry.Word == "" || asInt(entry.IsFei) == 1 {
			continue
		}

		var tags []string
		if entry.LabelName != "" {
			tags = append(tags, entry.LabelName)
		}
		if entry.Category != "" {
			tags = append(tags, entry.Category)
		}

		items = append(items, model.RawContent{
			Platform:    "weibo",
			ContentID:   "wb_" + shortHash(entry.Word),
			Title:       entry.Word,
			Text:        entry.LabelName + " " + entry.Word,
			Views:       entry.RawHot,
			Tags:        tags,
			URL:         "https://s.weibo.com/weibo?q=" + url.QueryEscape(entry.Word),
			CrawlTime:   nowStamp(),
			ContentType: model.TypeTopic,
			Extra: map[string]interface{}{
				"is_hot":   entry.IsHot,
				"is_new":   entry.IsNew,
				"category": entry.Category,
				"raw_hot":  entry.RawHot,
			},
		})
	}
	return items, nil
}

// TopicFeed reads the latest statuses for one topic.
func (w *Weibo) TopicFeed(ctx context.Context, topic string) ([]model.RawContent, error) {
	w.stats.Request(w.Name())
	resp, err := w.client.Get(ctx, w.topicURL, url.Values{
		"q":     {topic},
		"count": {"20"},
	}, nil)
	if err != nil {
		w.stats.Error(w.Name())
		return nil, err
	}

	var payload struct {
		Data struct {
			Statuses []struct {
				ID       interface{} `json:"id"`
				TextRaw  string      `json:"text_raw"`
				Text     string      `json:"text"`
				Attitude int64       `json:"attitudes_count"`
				Comments int64       `json:"comments_count"`
				Reposts  int64       `json:"reposts_count"`
				User     struct {
					ScreenName string `json:"screen_name"`
				} `json:"user"`
			} `json:"statuses"`
		} `json:"data"`
	}
	if err := resp.JSON(&payload); err != nil {
		return nil, err
	}

	statuses := payload.Data.Statuses
	if len(statuses) > 15 {
		statuses = statuses[:15]
	}

	var items []model.RawContent
	for _, status := range statuses {
		text := status.TextRaw
		if text == "" {
			text = status.Text
		}
		if text == "" {
			continue
		}
		items = append(items, model.RawContent{
			Platform:    "weibo",
			ContentID:   fmt.Sprintf("wb_t_%v", status.ID),
			Title:       truncateRunes(text, 100),
			Text:        text,
			Author:      status.User.ScreenName,
			Likes:       status.Attitude,
			Comments:    status.Comments,
			Shares:      status.Reposts,
			Tags:        []string{topic},
			CrawlTime:   nowStamp(),
			ContentType: model.TypeStatus,
		})
	}
	return items, nil
}

// CrawlAll reads the hot search board and then topic feeds for the first
// few seeds.
func (w *Weibo) CrawlAll(ctx context.Context, seeds []string) ([]model.RawContent, error) {
	items, err := w.HotSearch(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		w.log.Debug().Err(err).Msg("hot search failed")
	}

	if len(seeds) > weiboTopicSeeds {
		seeds = seeds[:weiboTopicSeeds]
	}
	for _, seed := range seeds {
		if _, blocked := w.client.Limiter().Blocked(w.Host()); blocked {
			w.log.Warn().Msg("host blocked, skipping topic feeds")
			break
		}
		found, err := w.TopicFeed(ctx, seed)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return items, err
			}
			w.log.Debug().Err(err).Str("topic", seed).Msg("topic feed failed")
			continue
		}
		items = append(items, found...)
	}

	w.stats.Items(w.Name(), len(items))
	w.log.Info().Int("items", len(items)).Msg("crawl done")
	return items, nil
}
