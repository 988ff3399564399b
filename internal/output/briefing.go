package output

import (
	"fmt"
	"strings"

	"github.com/trendscope/trendscope/internal/model"
)

// Briefing renders a markdown digest of a trends artifact, compact enough
// to paste into a chat or feed to an agent. Limit caps the listed trends;
// limit <= 0 lists everything.
func Briefing(a *model.TrendsArtifact, limit int) string {
	var sb strings.Builder

	sb.WriteString("# 热点趋势简报\n\n")
	sb.WriteString(fmt.Sprintf("更新时间: %s\n", a.UpdateTime))
	sb.WriteString(fmt.Sprintf("趋势总数: %d, 突发热点: %d\n\n", a.TotalTrends, a.BurstCount))

	if len(a.Trends) == 0 {
		sb.WriteString("本周期未发现趋势。\n")
		return sb.String()
	}

	n := len(a.Trends)
	if limit > 0 && limit < n {
		n = limit
	}

	for i, t := range a.Trends[:n] {
		sb.WriteString(fmt.Sprintf("## %d. %s %s\n", i+1, t.TrendDirection, t.Keyword))
		sb.WriteString(fmt.Sprintf("- 热力值: %.2f / 100", t.HeatScore))
		if t.IsBurst {
			sb.WriteString(fmt.Sprintf(" (⚡ 突发, z=%.2f)", t.BurstZScore))
		}
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("- 分类: %s, 频率: %d, 平台: %s\n",
			t.Category, t.Frequency, strings.Join(t.Platforms, ",")))
		if t.MACDSignal != model.SignalNeutral {
			sb.WriteString(fmt.Sprintf("- MACD: %s (%.3f)\n", t.MACDSignal, t.MACDValue))
		}
		if len(t.Sparkline) > 0 {
			sb.WriteString(fmt.Sprintf("- 走势: %s\n", Sparkline(t.Sparkline)))
		}
		if len(t.RelatedTitles) > 0 {
			sb.WriteString(fmt.Sprintf("- 相关: %s\n", t.RelatedTitles[0]))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
