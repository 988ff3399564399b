// Package nlp is the Chinese keyword extraction pipeline: text cleaning,
// gse segmentation with a domain lexicon, TF-IDF and TextRank extraction
// with score fusion, rule-based entity lookup, and PMI-based new-word
// discovery.
package nlp

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-ego/gse"
	"github.com/go-ego/gse/hmm/extracker"
	"github.com/rs/zerolog"
)

// lexicon holds domain terms the segmenter must not split: tickers, named
// entities, policy jargon. Registered with a high frequency so they win
// over the dictionary's default segmentation.
var lexicon = []string{
	"A股", "港股", "美股", "比特币", "数字货币", "区块链", "元宇宙",
	"人工智能", "大模型", "自动驾驶", "量子计算", "半导体", "芯片",
	"特朗普", "拜登", "普京", "习近平", "马斯克",
	"ChatGPT", "DeepSeek", "OpenAI", "Kimi", "GPT4",
	"一带一路", "中美关系", "台海", "南海", "北约",
	"新能源", "光伏", "锂电池", "新质生产力",
	"降息", "加息", "央行", "美联储", "GDP", "CPI", "PMI",
	"内卷", "躺平", "考公", "考研", "就业率",
}

const lexiconFreq = 10000

// Keyword is one extracted keyword with its weight under an algorithm
// (or the fused weight for BatchExtract).
type Keyword struct {
	Word   string
	Weight float64
}

// Pipeline wraps a gse segmenter plus the TF-IDF and TextRank extractors.
// Construction is expensive (dictionary load); build once and share. The
// segmenter's user dictionary is mutable: AddWord feeds discovered words
// back in across cycles.
type Pipeline struct {
	seg  gse.Segmenter
	tag  extracker.TagExtracter
	rank extracker.TextRanker
	log  zerolog.Logger
}

// New builds the pipeline with the default Chinese dictionary and the
// domain lexicon registered.
func New(log zerolog.Logger) (*Pipeline, error) {
	seg, err := gse.New()
	if err != nil {
		return nil, fmt.Errorf("load segmenter dictionary: %w", err)
	}
	for _, w := range lexicon {
		if err := seg.AddToken(w, lexiconFreq); err != nil {
			return nil, fmt.Errorf("register lexicon term %q: %w", w, err)
		}
	}

	p := &Pipeline{seg: seg, log: log}
	p.tag.WithGse(seg)
	if err := p.tag.LoadIdf(); err != nil {
		return nil, fmt.Errorf("load idf table: %w", err)
	}
	p.rank.WithGse(seg)

	log.Debug().Int("lexicon", len(lexicon)).Msg("nlp pipeline ready")
	return p, nil
}

// AddWord registers a word in the user dictionary so subsequent cuts keep
// it whole. Used by new-word discovery.
func (p *Pipeline) AddWord(word string) {
	if word == "" {
		return
	}
	_ = p.seg.AddToken(word, lexiconFreq)
}

var (
	htmlTagRe = regexp.MustCompile(`<[^>]+>`)
	urlRe     = regexp.MustCompile(`https?://\S+`)
	mentionRe = regexp.MustCompile(`@\w+`)
	entityRe  = regexp.MustCompile(`&\w+;`)
	// Everything outside CJK ideographs, CJK punctuation, Latin, digits,
	// whitespace, and the Chinese punctuation whitelist becomes a space.
	dropRe   = regexp.MustCompile(`[^\x{4e00}-\x{9fff}\x{3000}-\x{303f}A-Za-z0-9\s，。！？、；：“”‘’（）《》【】·%‰℃]`)
	spacesRe = regexp.MustCompile(`\s+`)
	digitsRe = regexp.MustCompile(`^[\d\s]+$`)
)

// Clean strips markup and noise from raw platform text: HTML tags, URLs,
// @mentions, HTML entities, emoji and symbols, then collapses whitespace.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = htmlTagRe.ReplaceAllString(text, "")
	text = urlRe.ReplaceAllString(text, "")
	text = mentionRe.ReplaceAllString(text, "")
	text = entityRe.ReplaceAllString(text, " ")
	text = dropRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(spacesRe.ReplaceAllString(text, " "))
}

// Tokenize cuts the cleaned text in precise mode and filters out short
// tokens, stopwords, and purely numeric tokens.
func (p *Pipeline) Tokenize(text string, minLen int) []string {
	text = Clean(text)
	if text == "" {
		return nil
	}

	var out []string
	for _, word := range p.seg.Cut(text, true) {
		word = strings.TrimSpace(word)
		if len([]rune(word)) < minLen {
			continue
		}
		if IsStopword(word) {
			continue
		}
		if digitsRe.MatchString(word) {
			continue
		}
		out = append(out, word)
	}
	return out
}

// ExtractTFIDF returns the top-k keywords by TF-IDF weight, filtered
// against the stopword set and a two-rune minimum. Zero-weight segments
// the extractor occasionally emits are dropped.
func (p *Pipeline) ExtractTFIDF(text string, k int) []Keyword {
	text = Clean(text)
	if text == "" {
		return nil
	}
	var out []Keyword
	for _, s := range p.tag.ExtractTags(text, k) {
		if keepKeyword(s.Text) && s.Weight > 0 {
			out = append(out, Keyword{Word: s.Text, Weight: s.Weight})
		}
	}
	return out
}

// ExtractTextRank returns the top-k keywords under TextRank, with the
// same filtering as ExtractTFIDF.
func (p *Pipeline) ExtractTextRank(text string, k int) []Keyword {
	text = Clean(text)
	if text == "" {
		return nil
	}
	var out []Keyword
	for _, s := range p.rank.TextRank(text, k) {
		if keepKeyword(s.Text) && s.Weight > 0 {
			out = append(out, Keyword{Word: s.Text, Weight: s.Weight})
		}
	}
	return out
}

func keepKeyword(word string) bool {
	return len([]rune(word)) >= 2 && !IsStopword(word)
}

// BatchExtract concatenates the cleaned texts, runs TF-IDF and TextRank
// at 2k each, and fuses: score = tfidf + textrank, boosted ×1.5 for words
// both algorithms agree on. Returns the top-k by fused score, ties broken
// by word so runs are deterministic.
func (p *Pipeline) BatchExtract(texts []string, k int) []Keyword {
	if len(texts) == 0 {
		return nil
	}

	var parts []string
	for _, t := range texts {
		if c := Clean(t); c != "" {
			parts = append(parts, c)
		}
	}
	combined := strings.Join(parts, " ")
	if combined == "" {
		return nil
	}

	tfidf := make(map[string]float64)
	for _, kw := range p.ExtractTFIDF(combined, k*2) {
		tfidf[kw.Word] = kw.Weight
	}
	textrank := make(map[string]float64)
	for _, kw := range p.ExtractTextRank(combined, k*2) {
		textrank[kw.Word] = kw.Weight
	}

	fused := make(map[string]float64, len(tfidf)+len(textrank))
	for w, s := range tfidf {
		fused[w] = s
	}
	for w, s := range textrank {
		fused[w] += s
	}
	for w := range fused {
		_, inTF := tfidf[w]
		_, inTR := textrank[w]
		if inTF && inTR {
			fused[w] *= 1.5
		}
	}

	out := make([]Keyword, 0, len(fused))
	for w, s := range fused {
		out = append(out, Keyword{Word: w, Weight: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}
