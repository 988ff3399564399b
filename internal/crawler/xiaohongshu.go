package crawler

import (
	"context"
	"errors"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/trendscope/trendscope/internal/fetch"
	"github.com/trendscope/trendscope/internal/model"
)

// consecutive empty search results before giving up on remaining seeds
const xhsEmptyLimit = 3

// Xiaohongshu samples the explore feed and search result pages, both
// server-rendered into window.__INITIAL_STATE__. The signed note APIs
// are not used.
type Xiaohongshu struct {
	client *fetch.Client
	stats  *Stats
	log    zerolog.Logger

	exploreURL string
	searchURL  string
}

func newXiaohongshu(client *fetch.Client, stats *Stats, log zerolog.Logger) *Xiaohongshu {
	return &Xiaohongshu{
		client:     client,
		stats:      stats,
		log:        log,
		exploreURL: "https://www.xiaohongshu.com/explore",
		searchURL:  "https://www.xiaohongshu.com/search_result",
	}
}

func (x *Xiaohongshu) Name() string { return "xiaohongshu" }
func (x *Xiaohongshu) Host() string { return Hosts["xiaohongshu"] }

// Explore samples the recommendation feed on the explore page.
func (x *Xiaohongshu) Explore(ctx context.Context) ([]model.RawContent, error) {
	x.stats.Request(x.Name())
	resp, err := x.client.Get(ctx, x.exploreURL, nil, nil)
	if err != nil {
		x.stats.Error(x.Name())
		return nil, err
	}

	state, ok := InitialState(resp.Text())
	if !ok {
		return nil, errors.New("explore page has no state blob")
	}

	feeds := asList(dig(state, "feed", "feeds"))
	if len(feeds) > 30 {
		feeds = feeds[:30]
	}

	var items []model.RawContent
	for _, raw := range feeds {
		entry := asMap(raw)
		if entry == nil {
			continue
		}
		note := asMap(entry["noteCard"])
		if note == nil {
			note = entry
		}
		title := asString(note["displayTitle"])
		if title == "" {
			continue
		}

		noteID := asString(entry["id"])
		noteURL := ""
		if noteID != "" {
			noteURL = "https://www.xiaohongshu.com/explore/" + noteID
		}
		contentType := model.TypeNote
		if asString(note["type"]) == "video" {
			contentType = model.TypeVideo
		}

		var tags []string
		for _, t := range asList(note["tagList"]) {
			if name := asString(dig(t, "name")); name != "" {
				tags = append(tags, name)
			}
		}

		items = append(items, model.RawContent{
			Platform:    "xiaohongshu",
			ContentID:   "xhs_" + noteID,
			Title:       title,
			Text:        title,
			Author:      asString(dig(note["user"], "nickname")),
			Likes:       asInt(dig(note["interactInfo"], "likedCount")),
			Tags:        tags,
			URL:         noteURL,
			CrawlTime:   nowStamp(),
			ContentType: contentType,
		})
	}
	return items, nil
}

// Search parses a search_result page, falling back to anchor titles.
func (x *Xiaohongshu) Search(ctx context.Context, keyword string) ([]model.RawContent, error) {
	x.stats.Request(x.Name())
	resp, err := x.client.Get(ctx,
		x.searchURL+"?keyword="+url.QueryEscape(keyword)+"&source=web_search_result_notes",
		nil, map[string]string{"Accept": "text/html"})
	if err != nil {
		x.stats.Error(x.Name())
		return nil, err
	}

	var items []model.RawContent
	if state, ok := InitialState(resp.Text()); ok {
		notes := asList(dig(state, "search", "notes", "items"))
		if len(notes) == 0 {
			notes = asList(dig(state, "search", "feeds"))
		}
		if len(notes) > 20 {
			notes = notes[:20]
		}

		for _, raw := range notes {
			entry := asMap(raw)
			if entry == nil {
				continue
			}
			note := asMap(entry["noteCard"])
			if note == nil {
				note = entry
			}
			title := asString(note["displayTitle"])
			if title == "" {
				continue
			}

			noteID := asString(entry["id"])
			noteURL := ""
			if noteID != "" {
				noteURL = "https://www.xiaohongshu.com/explore/" + noteID
			}

			items = append(items, model.RawContent{
				Platform:    "xiaohongshu",
				ContentID:   "xhs_s_" + shortHash(title),
				Title:       title,
				Text:        title,
				Author:      asString(dig(note["user"], "nickname")),
				Likes:       asInt(dig(note["interactInfo"], "likedCount")),
				Tags:        []string{keyword},
				URL:         noteURL,
				CrawlTime:   nowStamp(),
				ContentType: model.TypeNote,
				Extra:       map[string]interface{}{"search_keyword": keyword},
			})
		}
	}

	if len(items) == 0 {
		for _, title := range AnchorTitles(resp.Text(), 15) {
			items = append(items, model.RawContent{
				Platform:    "xiaohongshu",
				ContentID:   "xhs_h_" + shortHash(title),
				Title:       title,
				Text:        title,
				Tags:        []string{keyword},
				CrawlTime:   nowStamp(),
				ContentType: model.TypeNote,
				Extra:       map[string]interface{}{"search_keyword": keyword, "parse_method": "html"},
			})
		}
	}
	return items, nil
}

// CrawlAll samples explore plus a search per seed, stopping after three
// consecutive empty results since that means search is walled off for
// this session.
func (x *Xiaohongshu) CrawlAll(ctx context.Context, seeds []string) ([]model.RawContent, error) {
	var items []model.RawContent

	explore, err := x.Explore(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		x.log.Debug().Err(err).Msg("explore failed")
	}
	items = append(items, explore...)

	empty := 0
	for _, seed := range seeds {
		if _, blocked := x.client.Limiter().Blocked(x.Host()); blocked {
			x.log.Warn().Msg("host blocked, stopping search")
			break
		}
		if empty >= xhsEmptyLimit {
			x.log.Info().Msg("consecutive empty search results, skipping remaining seeds")
			break
		}

		found, err := x.Search(ctx, seed)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return items, err
			}
			x.log.Debug().Err(err).Str("seed", seed).Msg("search failed")
			empty++
			continue
		}
		if len(found) == 0 {
			empty++
		} else {
			empty = 0
		}
		items = append(items, found...)
	}

	x.stats.Items(x.Name(), len(items))
	x.log.Info().Int("items", len(items)).Msg("crawl done")
	return items, nil
}
