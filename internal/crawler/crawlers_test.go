package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/trendscope/trendscope/internal/fetch"
	"github.com/trendscope/trendscope/internal/model"
)

func testClient(t *testing.T) *fetch.Client {
	t.Helper()
	client, err := fetch.NewClient(fetch.DefaultConfig(),
		fetch.NewLimiter(time.Millisecond, 0), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestDouyinCrawlAll(t *testing.T) {
	var searchCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/sug", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("source") != "normal_search" {
			t.Errorf("missing source param: %v", r.URL.Query())
		}
		fmt.Fprint(w, `{"data":[{"content":"A股行情"},{"content":"A股"}]}`)
	})
	mux.HandleFunc("/search/", func(w http.ResponseWriter, r *http.Request) {
		searchCalls++
		blob := url.QueryEscape(`{"app":{"awemeList":[{"aweme_id":"123","desc":"A股今天放量上涨","statistics":{"digg_count":10,"comment_count":2,"share_count":1,"play_count":900},"author":{"nickname":"财经君"},"text_extra":[{"hashtag_name":"A股"}]}]}}`)
		fmt.Fprint(w, `<html><script id="RENDER_DATA" type="application/json">`+blob+`</script></html>`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	d := newDouyin(testClient(t), NewStats(), zerolog.Nop())
	d.sugURL = ts.URL + "/sug"
	d.searchURL = ts.URL + "/search/"

	items, err := d.CrawlAll(context.Background(), []string{"A股"})
	if err != nil {
		t.Fatalf("CrawlAll: %v", err)
	}

	// one suggestion item, plus the seed search and the secondary search
	if searchCalls != 2 {
		t.Errorf("search calls = %d, want 2", searchCalls)
	}

	var sug, aweme *model.RawContent
	for i := range items {
		switch items[i].ContentType {
		case model.TypeSearch:
			sug = &items[i]
		case model.TypeVideo:
			if aweme == nil {
				aweme = &items[i]
			}
		}
	}
	if sug == nil || sug.Title != "A股行情" {
		t.Fatalf("suggestion item missing: %+v", items)
	}
	if aweme == nil {
		t.Fatal("aweme item missing")
	}
	if aweme.ContentID != "dy_123" || aweme.Likes != 10 || aweme.Comments != 2 {
		t.Errorf("aweme = %+v", aweme)
	}
	if len(aweme.Tags) != 1 || aweme.Tags[0] != "A股" {
		t.Errorf("tags = %v", aweme.Tags)
	}
}

func TestDouyinSearchAnchorFallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><a title="没有渲染数据时的长标题">x</a></html>`)
	}))
	defer ts.Close()

	d := newDouyin(testClient(t), NewStats(), zerolog.Nop())
	d.searchURL = ts.URL + "/search/"

	items, err := d.Search(context.Background(), "测试")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %+v", items)
	}
	if items[0].ContentID != "dy_html_"+shortHash("没有渲染数据时的长标题") {
		t.Errorf("content_id = %q", items[0].ContentID)
	}
}

func TestXiaohongshuCrawlAll(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/explore", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<script>window.__INITIAL_STATE__={"feed":{"feeds":[{"id":"n1","noteCard":{"displayTitle":"秋季穿搭合集","type":"video","user":{"nickname":"小红"},"interactInfo":{"likedCount":"1.2万"},"tagList":[{"name":"穿搭"}]}}]}};</script>`)
	})
	var searchCalls int
	mux.HandleFunc("/search_result", func(w http.ResponseWriter, r *http.Request) {
		searchCalls++
		fmt.Fprint(w, `<script>window.__INITIAL_STATE__={"search":{"notes":{"items":[]}}};</script>`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	x := newXiaohongshu(testClient(t), NewStats(), zerolog.Nop())
	x.exploreURL = ts.URL + "/explore"
	x.searchURL = ts.URL + "/search_result"

	items, err := x.CrawlAll(context.Background(), []string{"a", "b", "c", "d", "e"})
	if err != nil {
		t.Fatalf("CrawlAll: %v", err)
	}

	// empty search results stop the seed loop after three attempts
	if searchCalls != xhsEmptyLimit {
		t.Errorf("search calls = %d, want %d", searchCalls, xhsEmptyLimit)
	}

	if len(items) != 1 {
		t.Fatalf("items = %+v", items)
	}
	note := items[0]
	if note.ContentID != "xhs_n1" || note.ContentType != model.TypeVideo {
		t.Errorf("note = %+v", note)
	}
	if note.Likes != 12000 {
		t.Errorf("likes = %d, want 12000", note.Likes)
	}
	if note.Author != "小红" {
		t.Errorf("author = %q", note.Author)
	}
}

func TestWeiboCrawlAll(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ajax/side/hotSearch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"realtime":[
			{"word":"热搜第一","label_name":"爆","raw_hot":5000000,"is_hot":1},
			{"word":"广告位","is_fei":1,"raw_hot":100},
			{"word":""}
		]}}`)
	})
	mux.HandleFunc("/ajax/statuses/topic", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			t.Error("missing topic query")
		}
		fmt.Fprint(w, `{"data":{"statuses":[{"id":777,"text_raw":"这是一条话题微博","attitudes_count":12,"comments_count":3,"reposts_count":1,"user":{"screen_name":"博主"}}]}}`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	w := newWeibo(testClient(t), NewStats(), zerolog.Nop())
	w.hotSearchURL = ts.URL + "/ajax/side/hotSearch"
	w.topicURL = ts.URL + "/ajax/statuses/topic"

	items, err := w.CrawlAll(context.Background(), []string{"话题"})
	if err != nil {
		t.Fatalf("CrawlAll: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %+v", items)
	}

	hot := items[0]
	if hot.ContentID != "wb_"+shortHash("热搜第一") || hot.Views != 5000000 {
		t.Errorf("hot = %+v", hot)
	}
	if hot.ContentType != model.TypeTopic {
		t.Errorf("content_type = %q", hot.ContentType)
	}

	status := items[1]
	if status.ContentID != "wb_t_777" || status.Likes != 12 || status.Author != "博主" {
		t.Errorf("status = %+v", status)
	}
}

func TestBilibiliCrawlAll(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"list":[{"bvid":"BV1xx","title":"硬核科普视频","desc":"介绍","owner":{"name":"up主"},"stat":{"like":100,"reply":20,"share":5,"view":10000}}]}}`)
	}))
	defer ts.Close()

	b := newBilibili(testClient(t), NewStats(), zerolog.Nop())
	b.popularURL = ts.URL

	items, err := b.CrawlAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("CrawlAll: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %+v", items)
	}
	v := items[0]
	if v.ContentID != "bl_BV1xx" || v.Views != 10000 || v.URL != "https://www.bilibili.com/video/BV1xx" {
		t.Errorf("video = %+v", v)
	}
}

func TestZhihuCrawlAll(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"detail_text":"321万热度","target":{"id":123456,"title":"如何评价这件事","excerpt":"摘要"}}]}`)
	}))
	defer ts.Close()

	z := newZhihu(testClient(t), NewStats(), zerolog.Nop())
	z.hotURL = ts.URL

	items, err := z.CrawlAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("CrawlAll: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %+v", items)
	}
	q := items[0]
	if q.ContentID != "zh_123456" || q.ContentType != model.TypeQuestion {
		t.Errorf("question = %+v", q)
	}
	if q.Views != 3210000 {
		t.Errorf("views = %d, want 3210000", q.Views)
	}
}

func TestBaiduCrawlAll(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept-Encoding") == "br" {
			t.Error("brotli requested")
		}
		fmt.Fprint(w, `<html><!--s-data:{"data":{"cards":[{"content":[{"word":"热搜词条","desc":"说明","hotScore":7654321,"url":"https://example.com"}]}]}}--></html>`)
	}))
	defer ts.Close()

	b := newBaidu(testClient(t), NewStats(), zerolog.Nop())
	b.boardURL = ts.URL

	items, err := b.CrawlAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("CrawlAll: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %+v", items)
	}
	s := items[0]
	if s.ContentID != "bd_"+shortHash("热搜词条") || s.Views != 7654321 || s.ContentType != model.TypeSearch {
		t.Errorf("item = %+v", s)
	}
}

func TestCrawlAllStopsWhenBlocked(t *testing.T) {
	client := testClient(t)
	client.Limiter().Block(Hosts["douyin"], "403 拒绝访问(需要Cookie/签名)")

	d := newDouyin(client, NewStats(), zerolog.Nop())
	items, err := d.CrawlAll(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("CrawlAll: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("blocked crawl produced items: %+v", items)
	}
}
