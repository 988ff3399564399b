package output

import "strings"

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders a count series as a unicode block graph, scaled to
// the series maximum. Empty input renders empty.
func Sparkline(counts []int) string {
	if len(counts) == 0 {
		return ""
	}

	max := counts[0]
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	if max <= 0 {
		return strings.Repeat(string(sparkTicks[0]), len(counts))
	}

	var sb strings.Builder
	for _, c := range counts {
		if c < 0 {
			c = 0
		}
		idx := c * (len(sparkTicks) - 1) / max
		sb.WriteRune(sparkTicks[idx])
	}
	return sb.String()
}
