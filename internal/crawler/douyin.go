package crawler

import (
	"context"
	"errors"
	"math/rand"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/trendscope/trendscope/internal/fetch"
	"github.com/trendscope/trendscope/internal/model"
)

// Douyin samples search suggestions and server-rendered search pages.
// The hot-board APIs are signed (a_bogus), so the crawler sticks to what
// plain HTTP can reach: the suggest endpoint reflects what users are
// searching right now, and search pages carry an SSR blob with aweme
// metadata.
type Douyin struct {
	client *fetch.Client
	stats  *Stats
	log    zerolog.Logger
	rng    *rand.Rand

	maxSuggestions   int
	maxSecondarySeed int

	sugURL    string
	searchURL string
}

func newDouyin(client *fetch.Client, stats *Stats, log zerolog.Logger) *Douyin {
	return &Douyin{
		client:           client,
		stats:            stats,
		log:              log,
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
		maxSuggestions:   5,
		maxSecondarySeed: 3,
		sugURL:           "https://www.douyin.com/aweme/v1/web/search/sug/",
		searchURL:        "https://www.douyin.com/search/",
	}
}

func (d *Douyin) Name() string { return "douyin" }
func (d *Douyin) Host() string { return Hosts["douyin"] }

// Suggest queries the unsigned search-suggest endpoint. The returned
// words are live user search trends around the seed.
func (d *Douyin) Suggest(ctx context.Context, keyword string) ([]string, error) {
	d.stats.Request(d.Name())
	resp, err := d.client.Get(ctx, d.sugURL, url.Values{
		"keyword":       {keyword},
		"source":        {"normal_search"},
		"is_need_query": {"1"},
	}, nil)
	if err != nil {
		d.stats.Error(d.Name())
		return nil, err
	}

	var payload struct {
		Data []struct {
			Content string `json:"content"`
		} `json:"data"`
	}
	if err := resp.JSON(&payload); err != nil {
		return nil, err
	}

	var words []string
	for _, entry := range payload.Data {
		if entry.Content != "" && entry.Content != keyword {
			words = append(words, entry.Content)
		}
	}
	return words, nil
}

// Search fetches a search result page and parses its RENDER_DATA blob,
// falling back to anchor titles when the blob is absent.
func (d *Douyin) Search(ctx context.Context, keyword string) ([]model.RawContent, error) {
	d.stats.Request(d.Name())
	resp, err := d.client.Get(ctx, d.searchURL+url.PathEscape(keyword),
		nil, map[string]string{"Accept": "text/html"})
	if err != nil {
		d.stats.Error(d.Name())
		return nil, err
	}

	var items []model.RawContent
	if data, ok := RenderData(resp.Text()); ok {
		awemes := FindList(data, "awemeList", "aweme_list")
		if len(awemes) > 20 {
			awemes = awemes[:20]
		}
		for _, raw := range awemes {
			if item, ok := parseAweme(asMap(raw), keyword); ok {
				items = append(items, item)
			}
		}
	}
	if len(items) == 0 {
		items = d.fromAnchors(resp.Text(), keyword)
	}
	return items, nil
}

func parseAweme(aweme map[string]interface{}, keyword string) (model.RawContent, bool) {
	if aweme == nil {
		return model.RawContent{}, false
	}
	desc := asString(aweme["desc"])
	if desc == "" {
		return model.RawContent{}, false
	}

	stats := asMap(aweme["statistics"])
	if stats == nil {
		stats = asMap(aweme["stats"])
	}

	var tags []string
	for _, te := range asList(aweme["text_extra"]) {
		if ht := asString(dig(te, "hashtag_name")); ht != "" {
			tags = append(tags, ht)
		}
	}

	awemeID := asString(aweme["aweme_id"])
	if awemeID == "" {
		awemeID = asString(aweme["id"])
	}
	videoURL := ""
	if awemeID != "" {
		videoURL = "https://www.douyin.com/video/" + awemeID
	}

	return model.RawContent{
		Platform:    "douyin",
		ContentID:   "dy_" + awemeID,
		Title:       truncateRunes(desc, 100),
		Text:        desc,
		Author:      asString(dig(aweme["author"], "nickname")),
		Likes:       asInt(stats["digg_count"]),
		Comments:    asInt(stats["comment_count"]),
		Shares:      asInt(stats["share_count"]),
		Views:       asInt(stats["play_count"]),
		Tags:        tags,
		URL:         videoURL,
		PubTime:     nowStamp(),
		CrawlTime:   nowStamp(),
		ContentType: model.TypeVideo,
		Extra:       map[string]interface{}{"search_keyword": keyword},
	}, true
}

func (d *Douyin) fromAnchors(html, keyword string) []model.RawContent {
	var items []model.RawContent
	for _, title := range AnchorTitles(html, 15) {
		if title == "搜索" || title == "首页" {
			continue
		}
		items = append(items, model.RawContent{
			Platform:    "douyin",
			ContentID:   "dy_html_" + shortHash(title),
			Title:       title,
			Text:        title,
			Tags:        []string{keyword},
			CrawlTime:   nowStamp(),
			ContentType: model.TypeVideo,
			Extra:       map[string]interface{}{"search_keyword": keyword, "parse_method": "html"},
		})
	}
	return items
}

// CrawlAll runs suggest + search for each seed, then a secondary search
// pass over a sample of the discovered suggestion words.
func (d *Douyin) CrawlAll(ctx context.Context, seeds []string) ([]model.RawContent, error) {
	var items []model.RawContent
	var discovered []string

	for _, seed := range seeds {
		if _, blocked := d.client.Limiter().Blocked(d.Host()); blocked {
			d.log.Warn().Msg("host blocked, stopping crawl")
			break
		}

		suggestions, err := d.Suggest(ctx, seed)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return items, err
			}
			d.log.Debug().Err(err).Str("seed", seed).Msg("suggest failed")
		}
		if len(suggestions) > d.maxSuggestions {
			suggestions = suggestions[:d.maxSuggestions]
		}
		for _, word := range suggestions {
			items = append(items, model.RawContent{
				Platform:    "douyin",
				ContentID:   "dy_sug_" + shortHash(word),
				Title:       word,
				Text:        word,
				Tags:        []string{seed},
				CrawlTime:   nowStamp(),
				ContentType: model.TypeSearch,
				Extra:       map[string]interface{}{"seed": seed},
			})
		}
		discovered = append(discovered, suggestions...)

		found, err := d.Search(ctx, seed)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return items, err
			}
			d.log.Debug().Err(err).Str("seed", seed).Msg("search failed")
			continue
		}
		items = append(items, found...)
	}

	// Second-level pass over freshly discovered search trends.
	if len(discovered) > 0 {
		n := d.maxSecondarySeed
		if n > len(discovered) {
			n = len(discovered)
		}
		for _, idx := range d.rng.Perm(len(discovered))[:n] {
			if _, blocked := d.client.Limiter().Blocked(d.Host()); blocked {
				break
			}
			found, err := d.Search(ctx, discovered[idx])
			if err != nil {
				d.log.Debug().Err(err).Str("seed", discovered[idx]).Msg("secondary search failed")
				continue
			}
			items = append(items, found...)
		}
	}

	d.stats.Items(d.Name(), len(items))
	d.log.Info().Int("items", len(items)).Int("discovered", len(discovered)).Msg("crawl done")
	return items, nil
}
