package model

// CycleSummary aggregates one crawl cycle for logging and inspection.
type CycleSummary struct {
	Total         int            `json:"total"`
	ByPlatform    map[string]int `json:"by_platform"`
	ByContentType map[string]int `json:"by_content_type"`
	Engagement    float64        `json:"engagement_total"`
	TopTitle      string         `json:"top_title,omitempty"`
	TopEngagement float64        `json:"top_engagement,omitempty"`
}

// Summarize computes per-platform and per-type counts plus the highest
// engagement item of a cycle.
func Summarize(items []RawContent) CycleSummary {
	s := CycleSummary{
		Total:         len(items),
		ByPlatform:    make(map[string]int),
		ByContentType: make(map[string]int),
	}
	for _, item := range items {
		s.ByPlatform[item.Platform]++
		s.ByContentType[item.ContentType]++
		e := item.EngagementScore()
		s.Engagement += e
		if e > s.TopEngagement {
			s.TopEngagement = e
			s.TopTitle = item.Title
		}
	}
	return s
}
