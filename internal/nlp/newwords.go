package nlp

import (
	"math"
	"sort"
)

// New-word discovery parameters. PMI above pmiThreshold means the gram's
// characters co-occur far more often than chance, i.e. it behaves like a
// word the dictionary does not know yet.
const (
	DefaultMinFreq    = 3
	DefaultMaxGramLen = 6

	pmiThreshold = 2.0
	pmiEpsilon   = 1e-10
	maxNewWords  = 50
)

// NewWord is a discovered candidate word with its corpus frequency.
type NewWord struct {
	Word string
	Freq int
}

// DiscoverNewWords finds multi-character candidates the dictionary does
// not cut as a single token: counts CJK character n-grams of length
// 2..maxLen, keeps those with frequency ≥ minFreq, and scores them by
// pointwise mutual information against the independent character
// frequencies. Returns at most 50, most frequent first.
func (p *Pipeline) DiscoverNewWords(texts []string, minFreq, maxLen int) []NewWord {
	if minFreq <= 0 {
		minFreq = DefaultMinFreq
	}
	if maxLen < 2 {
		maxLen = DefaultMaxGramLen
	}

	gramFreq := make(map[string]int)
	charFreq := make(map[rune]int)

	for _, text := range texts {
		var chars []rune
		for _, r := range Clean(text) {
			if r >= 0x4e00 && r <= 0x9fff {
				chars = append(chars, r)
			}
		}
		for _, c := range chars {
			charFreq[c]++
		}
		for n := 2; n <= maxLen; n++ {
			for i := 0; i+n <= len(chars); i++ {
				gramFreq[string(chars[i:i+n])]++
			}
		}
	}

	totalChars := 0
	for _, c := range charFreq {
		totalChars += c
	}
	if totalChars == 0 {
		return nil
	}

	var out []NewWord
	for gram, freq := range gramFreq {
		if freq < minFreq {
			continue
		}
		if p.isKnownWord(gram) {
			continue
		}

		charProb := 1.0
		for _, c := range gram {
			n := charFreq[c]
			if n == 0 {
				n = 1
			}
			charProb *= float64(n) / float64(totalChars)
		}
		if charProb <= 0 {
			continue
		}
		jointProb := float64(freq) / float64(totalChars)
		pmi := math.Log(jointProb/charProb + pmiEpsilon)
		if pmi > pmiThreshold {
			out = append(out, NewWord{Word: gram, Freq: freq})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Freq != out[j].Freq {
			return out[i].Freq > out[j].Freq
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > maxNewWords {
		out = out[:maxNewWords]
	}
	return out
}

// isKnownWord reports whether the segmenter already cuts gram as one token.
func (p *Pipeline) isKnownWord(gram string) bool {
	cut := p.seg.Cut(gram, false)
	return len(cut) == 1 && cut[0] == gram
}
