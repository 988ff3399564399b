package nlp

import (
	"github.com/trendscope/trendscope/internal/model"
)

// tagWeight is the per-occurrence weight of an explicit platform tag,
// twice a title token: authors label topics more deliberately than they
// phrase titles.
const tagWeight = 2.0

// batchWeightScale folds the fused batch score (small floats) into the
// same scale as per-item occurrence counts.
const batchWeightScale = 10.0

// maxRelatedTitles caps the sample titles carried per keyword.
const maxRelatedTitles = 5

// KeywordStats accumulates one cycle's evidence for a keyword.
type KeywordStats struct {
	Weight     float64
	Platforms  []string
	Titles     []string
	Engagement float64

	platformSet map[string]struct{}
}

func (ks *KeywordStats) addPlatform(platform string) {
	if platform == "" {
		return
	}
	if _, ok := ks.platformSet[platform]; ok {
		return
	}
	ks.platformSet[platform] = struct{}{}
	ks.Platforms = append(ks.Platforms, platform)
}

func (ks *KeywordStats) addTitle(title string) {
	if len(ks.Titles) < maxRelatedTitles {
		ks.Titles = append(ks.Titles, title)
	}
}

// Aggregate extracts the cycle's keyword statistics from raw items. Title
// tokens count when they appear in the fused batch-keyword set or are at
// least three runes and not stopwords; tags always count at double
// weight. Batch weights are merged in scaled by ×10.
func (p *Pipeline) Aggregate(items []model.RawContent, batchK int) map[string]*KeywordStats {
	if len(items) == 0 {
		return nil
	}

	titles := make([]string, 0, len(items))
	for _, item := range items {
		titles = append(titles, item.Title)
	}
	batch := p.BatchExtract(titles, batchK)
	batchSet := make(map[string]struct{}, len(batch))
	for _, kw := range batch {
		batchSet[kw.Word] = struct{}{}
	}

	stats := make(map[string]*KeywordStats)
	get := func(word string) *KeywordStats {
		ks, ok := stats[word]
		if !ok {
			ks = &KeywordStats{platformSet: make(map[string]struct{})}
			stats[word] = ks
		}
		return ks
	}

	for _, item := range items {
		engagement := item.EngagementScore()

		for _, word := range p.Tokenize(item.Title, 2) {
			if _, inBatch := batchSet[word]; !inBatch && len([]rune(word)) < 3 {
				continue
			}
			ks := get(word)
			ks.Weight++
			ks.addPlatform(item.Platform)
			ks.addTitle(item.Title)
			ks.Engagement += engagement
		}

		for _, tag := range item.Tags {
			if len([]rune(tag)) < 2 || IsStopword(tag) {
				continue
			}
			ks := get(tag)
			ks.Weight += tagWeight
			ks.addPlatform(item.Platform)
			ks.addTitle(item.Title)
			ks.Engagement += engagement
		}
	}

	for _, kw := range batch {
		if ks, ok := stats[kw.Word]; ok {
			ks.Weight += kw.Weight * batchWeightScale
		}
	}

	return stats
}
