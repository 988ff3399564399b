package crawler

import (
	"strconv"
	"strings"
)

// ParseCompactNumber reads the compact Chinese count notation platforms
// render for engagement figures: "3.2万" → 32000, "1.5亿" → 150000000,
// a trailing "+" is dropped, anything unparseable → 0.
func ParseCompactNumber(s string) int64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "+", "")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}

	mult := 1.0
	switch {
	case strings.Contains(s, "亿"):
		mult = 1e8
		s = strings.ReplaceAll(s, "亿", "")
	case strings.Contains(s, "万"):
		mult = 1e4
		s = strings.ReplaceAll(s, "万", "")
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return int64(v * mult)
}
