package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/trendscope/trendscope/internal/model"
)

func TestWriteJSONAtomicRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "trends.json")

	artifact := &model.TrendsArtifact{
		UpdateTime:  "2025-06-01T00:00:00Z",
		TotalTrends: 1,
		Trends: []model.TrendTopic{
			{Keyword: "新能源", HeatScore: 55.5, Category: "财经"},
		},
	}
	if err := WriteJSONAtomic(artifact, path, true); err != nil {
		t.Fatalf("WriteJSONAtomic() error: %v", err)
	}

	var back model.TrendsArtifact
	if err := ReadJSON(path, &back); err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	if back.Trends[0].Keyword != "新能源" || back.Trends[0].HeatScore != 55.5 {
		t.Errorf("round-trip mismatch: %+v", back.Trends[0])
	}

	// No temp residue after a successful rename.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the artifact in %s, found %d entries", filepath.Dir(path), len(entries))
	}
}

func TestWriteJSONNoHTMLEscape(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	if err := WriteJSON(map[string]string{"title": "中美<贸易>"}, path, false); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "u003c") {
		t.Errorf("angle brackets were escaped: %s", data)
	}
	if !strings.Contains(string(data), "中美<贸易>") {
		t.Errorf("expected literal text in output, got %s", data)
	}
}

func TestWriteJSONIndent(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "plain.json")
	pretty := filepath.Join(dir, "pretty.json")

	v := map[string]int{"a": 1, "b": 2}
	if err := WriteJSON(v, plain, false); err != nil {
		t.Fatal(err)
	}
	if err := WriteJSON(v, pretty, true); err != nil {
		t.Fatal(err)
	}

	plainData, _ := os.ReadFile(plain)
	prettyData, _ := os.ReadFile(pretty)
	if strings.Contains(string(plainData), "\n  ") {
		t.Errorf("plain output is indented: %q", plainData)
	}
	if !strings.Contains(string(prettyData), "\n  ") {
		t.Errorf("pretty output is not indented: %q", prettyData)
	}
}

func TestReadJSONMissingFile(t *testing.T) {
	var v map[string]int
	if err := ReadJSON(filepath.Join(t.TempDir(), "absent.json"), &v); err == nil {
		t.Error("ReadJSON() on a missing file succeeded, want error")
	}
}

func TestSparkline(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
		want   string
	}{
		{"empty", nil, ""},
		{"all zero", []int{0, 0, 0}, "▁▁▁"},
		{"single peak", []int{0, 8}, "▁█"},
		{"ramp", []int{1, 2, 4, 8}, "▁▂▄█"},
		{"negative clamped", []int{-3, 8}, "▁█"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sparkline(tt.counts); got != tt.want {
				t.Errorf("Sparkline(%v) = %q, want %q", tt.counts, got, tt.want)
			}
		})
	}
}

func TestBriefing(t *testing.T) {
	artifact := &model.TrendsArtifact{
		UpdateTime:  "2025-06-01T00:00:00Z",
		TotalTrends: 2,
		BurstCount:  1,
		Trends: []model.TrendTopic{
			{
				Keyword:        "量子计算",
				HeatScore:      91.2,
				IsBurst:        true,
				BurstZScore:    3.4,
				MACDSignal:     model.SignalBullish,
				MACDValue:      0.42,
				TrendDirection: model.DirectionSurge,
				Category:       "科技",
				Frequency:      18,
				Platforms:      []string{"weibo", "zhihu"},
				Sparkline:      []int{1, 3, 9},
				RelatedTitles:  []string{"量子计算新突破"},
			},
			{Keyword: "房价", HeatScore: 20, MACDSignal: model.SignalNeutral, Category: "财经"},
		},
	}

	got := Briefing(artifact, 1)
	for _, want := range []string{"量子计算", "91.2", "⚡ 突发", "bullish", "▁▃█", "相关: 量子计算新突破"} {
		if !strings.Contains(got, want) {
			t.Errorf("Briefing() missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "房价") {
		t.Errorf("Briefing() ignored the limit:\n%s", got)
	}

	empty := Briefing(&model.TrendsArtifact{}, 0)
	if !strings.Contains(empty, "未发现趋势") {
		t.Errorf("empty Briefing() = %q", empty)
	}
}
