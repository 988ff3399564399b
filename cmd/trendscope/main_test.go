package main

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/trendscope/trendscope/internal/model"
	"github.com/trendscope/trendscope/internal/output"
)

func TestSplitCSV(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"weibo,zhihu", []string{"weibo", "zhihu"}},
		{" weibo , zhihu ", []string{"weibo", "zhihu"}},
		{"bilibili", []string{"bilibili"}},
		{"a,,b,", []string{"a", "b"}},
	}
	for _, tt := range tests {
		if got := splitCSV(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitCSV(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBuildOptionsDefaults(t *testing.T) {
	opts := buildOptions("", 0, 0, "", "", "", false)
	if !reflect.DeepEqual(opts.Platforms, []string{"bilibili", "baidu", "xiaohongshu"}) {
		t.Errorf("platforms = %v", opts.Platforms)
	}
	if opts.SeedCount != 10 || opts.TopK != 50 || opts.DataDir != "data" {
		t.Errorf("defaults = %+v", opts)
	}
}

func TestBuildOptionsFlags(t *testing.T) {
	opts := buildOptions("weibo,zhihu", 20, 15, "http://127.0.0.1:7890", "/tmp/ts", "echo ok", true)
	if !reflect.DeepEqual(opts.Platforms, []string{"weibo", "zhihu"}) {
		t.Errorf("platforms = %v", opts.Platforms)
	}
	if opts.SeedCount != 20 || opts.TopK != 15 {
		t.Errorf("seed/topk = %d/%d", opts.SeedCount, opts.TopK)
	}
	if opts.Proxy != "http://127.0.0.1:7890" || opts.DataDir != "/tmp/ts" {
		t.Errorf("proxy/dir = %q/%q", opts.Proxy, opts.DataDir)
	}
	if !opts.WithNews || opts.NewsCmd != "echo ok" {
		t.Errorf("news = %v/%q", opts.WithNews, opts.NewsCmd)
	}
}

func TestBuildOptionsEnvFallback(t *testing.T) {
	t.Setenv("TRENDSCOPE_PROXY", "http://proxy.local:8080")
	t.Setenv("TRENDSCOPE_DATA_DIR", "/srv/trendscope")

	opts := buildOptions("", 0, 0, "", "", "", false)
	if opts.Proxy != "http://proxy.local:8080" {
		t.Errorf("proxy = %q", opts.Proxy)
	}
	if opts.DataDir != "/srv/trendscope" {
		t.Errorf("data dir = %q", opts.DataDir)
	}

	// Explicit flags beat the environment.
	opts = buildOptions("", 0, 0, "http://other:1", "/tmp/x", "", false)
	if opts.Proxy != "http://other:1" || opts.DataDir != "/tmp/x" {
		t.Errorf("flag override lost: %+v", opts)
	}
}

func TestRunDiff(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, trends ...model.TrendTopic) string {
		t.Helper()
		path := filepath.Join(dir, name)
		a := &model.TrendsArtifact{UpdateTime: name, TotalTrends: len(trends), Trends: trends}
		if err := output.WriteJSON(a, path, true); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
		return path
	}

	baseline := write("old.json", model.TrendTopic{Keyword: "人工智能", HeatScore: 50})
	current := write("new.json", model.TrendTopic{Keyword: "人工智能", HeatScore: 80})

	out := filepath.Join(dir, "diff.json")
	if err := runDiff(baseline, current, out); err != nil {
		t.Fatalf("runDiff: %v", err)
	}

	var report struct {
		Changes []struct {
			Keyword  string  `json:"keyword"`
			DeltaPct float64 `json:"delta_pct"`
		} `json:"changes"`
	}
	if err := output.ReadJSON(out, &report); err != nil {
		t.Fatalf("reading diff: %v", err)
	}
	if len(report.Changes) != 1 || report.Changes[0].Keyword != "人工智能" {
		t.Fatalf("changes = %+v", report.Changes)
	}

	if err := runDiff(filepath.Join(dir, "missing.json"), current, "-"); err == nil {
		t.Error("expected error for missing baseline")
	} else if !strings.Contains(err.Error(), "baseline") {
		t.Errorf("err = %v", err)
	}
}
