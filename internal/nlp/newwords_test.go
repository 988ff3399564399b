package nlp

import (
	"strings"
	"testing"
)

func TestDiscoverNewWords(t *testing.T) {
	p := pipeline(t)

	// A made-up brand name repeated across texts: not in the dictionary,
	// its characters rarely co-occur elsewhere, so PMI is high.
	texts := []string{
		"魔塔星辰今日上线新品",
		"网友热议魔塔星辰的定价",
		"魔塔星辰回应争议",
		"魔塔星辰股价大涨",
	}

	words := p.DiscoverNewWords(texts, 3, 6)
	found := false
	for _, w := range words {
		if strings.Contains(w.Word, "魔塔") {
			found = true
			if w.Freq < 3 {
				t.Errorf("discovered word %q freq = %d, want >= 3", w.Word, w.Freq)
			}
		}
	}
	if !found {
		t.Errorf("DiscoverNewWords = %v, want a 魔塔* candidate", words)
	}

	// Frequency-descending order.
	for i := 1; i < len(words); i++ {
		if words[i].Freq > words[i-1].Freq {
			t.Errorf("not sorted by frequency: %v before %v", words[i-1], words[i])
		}
	}
}

func TestDiscoverNewWordsMinFreq(t *testing.T) {
	p := pipeline(t)

	// Two occurrences, below the default threshold of three.
	texts := []string{"魔塔星辰上线", "魔塔星辰回应"}
	for _, w := range p.DiscoverNewWords(texts, 3, 6) {
		if strings.Contains(w.Word, "魔塔") {
			t.Errorf("low-frequency gram %q passed min_freq filter", w.Word)
		}
	}
}

func TestDiscoverNewWordsSkipsKnownWords(t *testing.T) {
	p := pipeline(t)

	// 人工智能 is a lexicon term; the discoverer must not re-report it.
	texts := []string{
		"人工智能发展",
		"人工智能应用",
		"人工智能监管",
		"人工智能竞赛",
	}
	for _, w := range p.DiscoverNewWords(texts, 3, 6) {
		if w.Word == "人工智能" {
			t.Error("dictionary word 人工智能 reported as new")
		}
	}
}

func TestDiscoverNewWordsEmpty(t *testing.T) {
	p := pipeline(t)
	if words := p.DiscoverNewWords(nil, 3, 6); len(words) != 0 {
		t.Errorf("DiscoverNewWords(nil) = %v, want empty", words)
	}
	if words := p.DiscoverNewWords([]string{"abc def"}, 3, 6); len(words) != 0 {
		t.Errorf("DiscoverNewWords(latin only) = %v, want empty", words)
	}
}

func TestAddWordAffectsSegmentation(t *testing.T) {
	p := pipeline(t)

	gram := "烎焱燚"
	if p.isKnownWord(gram) {
		t.Skipf("%q unexpectedly already in dictionary", gram)
	}
	p.AddWord(gram)
	if !p.isKnownWord(gram) {
		t.Errorf("AddWord(%q) did not register it in the dictionary", gram)
	}
}
