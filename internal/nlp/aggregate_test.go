package nlp

import (
	"fmt"
	"testing"

	"github.com/trendscope/trendscope/internal/model"
)

func TestAggregateTagsAndTokens(t *testing.T) {
	p := pipeline(t)

	items := []model.RawContent{
		{Platform: "weibo", Title: "央行宣布降息，市场迎来利好", Tags: []string{"降息"}, Likes: 100},
		{Platform: "bilibili", Title: "降息之后买什么？央行政策解读", Likes: 50, Comments: 10},
		{Platform: "zhihu", Title: "如何看待央行本次降息？", Likes: 20},
	}

	stats := p.Aggregate(items, 50)
	if len(stats) == 0 {
		t.Fatal("Aggregate returned nothing")
	}

	ks, ok := stats["降息"]
	if !ok {
		t.Fatalf("keyword 降息 missing from stats, got %v", keys(stats))
	}

	// Three title occurrences plus one tag at double weight, plus the
	// scaled batch weight: strictly more than 5.
	if ks.Weight < 5 {
		t.Errorf("降息 weight = %v, want >= 5", ks.Weight)
	}
	if len(ks.Platforms) != 3 {
		t.Errorf("降息 platforms = %v, want all three", ks.Platforms)
	}
	if len(ks.Titles) == 0 || len(ks.Titles) > maxRelatedTitles {
		t.Errorf("降息 titles = %d entries, want 1..%d", len(ks.Titles), maxRelatedTitles)
	}
	if ks.Engagement <= 0 {
		t.Errorf("降息 engagement = %v, want > 0", ks.Engagement)
	}
}

func TestAggregatePlatformSetSemantics(t *testing.T) {
	p := pipeline(t)

	// Same platform repeated must count once in Platforms.
	items := []model.RawContent{
		{Platform: "weibo", Title: "比特币突破新高", Tags: []string{"比特币"}},
		{Platform: "weibo", Title: "比特币行情分析", Tags: []string{"比特币"}},
	}
	stats := p.Aggregate(items, 50)
	ks, ok := stats["比特币"]
	if !ok {
		t.Fatal("keyword 比特币 missing")
	}
	if len(ks.Platforms) != 1 || ks.Platforms[0] != "weibo" {
		t.Errorf("Platforms = %v, want [weibo]", ks.Platforms)
	}
}

func TestAggregateRelatedTitlesCap(t *testing.T) {
	p := pipeline(t)

	var items []model.RawContent
	for i := 0; i < 10; i++ {
		items = append(items, model.RawContent{
			Platform: "baidu",
			Title:    fmt.Sprintf("比特币大涨第%d天", i),
			Tags:     []string{"比特币"},
		})
	}
	stats := p.Aggregate(items, 50)
	ks, ok := stats["比特币"]
	if !ok {
		t.Fatal("keyword 比特币 missing")
	}
	if len(ks.Titles) != maxRelatedTitles {
		t.Errorf("Titles = %d entries, want capped at %d", len(ks.Titles), maxRelatedTitles)
	}
}

func TestAggregateFiltersStopwordTags(t *testing.T) {
	p := pipeline(t)

	items := []model.RawContent{
		{Platform: "weibo", Title: "某公司发布公告", Tags: []string{"新闻", "热搜", ""}},
	}
	stats := p.Aggregate(items, 50)
	for _, bad := range []string{"新闻", "热搜"} {
		if _, ok := stats[bad]; ok {
			t.Errorf("stopword tag %q aggregated as keyword", bad)
		}
	}
}

func TestAggregateEmpty(t *testing.T) {
	p := pipeline(t)
	if stats := p.Aggregate(nil, 50); stats != nil {
		t.Errorf("Aggregate(nil) = %v, want nil", stats)
	}
}

func keys(m map[string]*KeywordStats) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
