// Package diff compares two trends.json snapshots and highlights what
// heated up, cooled down, entered or dropped out between cycles.
package diff

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/trendscope/trendscope/internal/model"
	"github.com/trendscope/trendscope/internal/output"
)

// Report contains the comparison between two trend snapshots.
type Report struct {
	Baseline    string          `json:"baseline"`
	Current     string          `json:"current"`
	Changes     []KeywordChange `json:"changes"`
	Entered     []Entry         `json:"entered"`
	Left        []Entry         `json:"left"`
	NewBursts   []string        `json:"new_bursts"`
	EndedBursts []string        `json:"ended_bursts"`
	Risers      int             `json:"risers"`
	Fallers     int             `json:"fallers"`
}

// Entry is a keyword present in only one of the two snapshots.
type Entry struct {
	Keyword   string  `json:"keyword"`
	HeatScore float64 `json:"heat_score"`
	Rank      int     `json:"rank"`
}

// KeywordChange is a single keyword's movement between snapshots.
type KeywordChange struct {
	Keyword      string  `json:"keyword"`
	Category     string  `json:"category"`
	OldHeat      float64 `json:"old_heat"`
	NewHeat      float64 `json:"new_heat"`
	Delta        float64 `json:"delta"`
	DeltaPct     float64 `json:"delta_pct"`
	OldRank      int     `json:"old_rank"`
	NewRank      int     `json:"new_rank"`
	Direction    string  `json:"direction"`    // "rising", "falling", "steady"
	Significance string  `json:"significance"` // "high", "medium", "low"
	BurstStarted bool    `json:"burst_started,omitempty"`
	BurstEnded   bool    `json:"burst_ended,omitempty"`
	OldSignal    string  `json:"old_signal,omitempty"`
	NewSignal    string  `json:"new_signal,omitempty"`
}

// LoadArtifact reads and parses a trends.json file.
func LoadArtifact(path string) (*model.TrendsArtifact, error) {
	var a model.TrendsArtifact
	if err := output.ReadJSON(path, &a); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return &a, nil
}

// Compare computes keyword-level movement between two snapshots.
func Compare(baseline, current *model.TrendsArtifact) *Report {
	r := &Report{
		Baseline: baseline.UpdateTime,
		Current:  current.UpdateTime,
	}

	oldIdx := index(baseline.Trends)
	newIdx := index(current.Trends)

	for i, t := range current.Trends {
		old, ok := oldIdx[t.Keyword]
		if !ok {
			r.Entered = append(r.Entered, Entry{Keyword: t.Keyword, HeatScore: t.HeatScore, Rank: i + 1})
			if t.IsBurst {
				r.NewBursts = append(r.NewBursts, t.Keyword)
			}
			continue
		}
		if t.IsBurst && !old.topic.IsBurst {
			r.NewBursts = append(r.NewBursts, t.Keyword)
		}
		if !t.IsBurst && old.topic.IsBurst {
			r.EndedBursts = append(r.EndedBursts, t.Keyword)
		}
		addChange(r, old, t, i+1)
	}
	for i, t := range baseline.Trends {
		if _, ok := newIdx[t.Keyword]; !ok {
			r.Left = append(r.Left, Entry{Keyword: t.Keyword, HeatScore: t.HeatScore, Rank: i + 1})
			if t.IsBurst {
				r.EndedBursts = append(r.EndedBursts, t.Keyword)
			}
		}
	}

	for _, c := range r.Changes {
		switch c.Direction {
		case "rising":
			r.Risers++
		case "falling":
			r.Fallers++
		}
	}

	// Biggest movers first; entered/left keep their snapshot rank order.
	sort.SliceStable(r.Changes, func(i, j int) bool {
		return math.Abs(r.Changes[i].Delta) > math.Abs(r.Changes[j].Delta)
	})
	return r
}

type ranked struct {
	topic model.TrendTopic
	rank  int
}

func index(trends []model.TrendTopic) map[string]ranked {
	idx := make(map[string]ranked, len(trends))
	for i, t := range trends {
		idx[t.Keyword] = ranked{topic: t, rank: i + 1}
	}
	return idx
}

func addChange(r *Report, old ranked, cur model.TrendTopic, newRank int) {
	delta := cur.HeatScore - old.topic.HeatScore
	deltaPct := 0.0
	if old.topic.HeatScore != 0 {
		deltaPct = delta / math.Abs(old.topic.HeatScore) * 100
	}

	// Skip negligible moves unless the burst or MACD state flipped.
	stateFlip := cur.IsBurst != old.topic.IsBurst || cur.MACDSignal != old.topic.MACDSignal
	if math.Abs(deltaPct) < 1.0 && math.Abs(delta) < 0.1 && !stateFlip {
		return
	}

	direction := "steady"
	if deltaPct > 5 {
		direction = "rising"
	} else if deltaPct < -5 {
		direction = "falling"
	}

	significance := "low"
	switch absPct := math.Abs(deltaPct); {
	case absPct >= 50:
		significance = "high"
	case absPct >= 20:
		significance = "medium"
	}

	c := KeywordChange{
		Keyword:      cur.Keyword,
		Category:     cur.Category,
		OldHeat:      old.topic.HeatScore,
		NewHeat:      cur.HeatScore,
		Delta:        delta,
		DeltaPct:     deltaPct,
		OldRank:      old.rank,
		NewRank:      newRank,
		Direction:    direction,
		Significance: significance,
		BurstStarted: cur.IsBurst && !old.topic.IsBurst,
		BurstEnded:   !cur.IsBurst && old.topic.IsBurst,
	}
	if cur.MACDSignal != old.topic.MACDSignal {
		c.OldSignal = old.topic.MACDSignal
		c.NewSignal = cur.MACDSignal
	}
	r.Changes = append(r.Changes, c)
}

// FormatDiff returns a human-readable diff summary.
func FormatDiff(r *Report) string {
	var sb strings.Builder

	sb.WriteString("=== Trend Diff ===\n")
	sb.WriteString(fmt.Sprintf("Baseline: %s\n", r.Baseline))
	sb.WriteString(fmt.Sprintf("Current:  %s\n\n", r.Current))
	sb.WriteString(fmt.Sprintf("Rising: %d, Falling: %d, Entered: %d, Left: %d\n\n",
		r.Risers, r.Fallers, len(r.Entered), len(r.Left)))

	if len(r.NewBursts) > 0 {
		sb.WriteString(fmt.Sprintf("🔴 New bursts: %s\n\n", strings.Join(r.NewBursts, ", ")))
	}
	if len(r.EndedBursts) > 0 {
		sb.WriteString(fmt.Sprintf("⚪ Ended bursts: %s\n\n", strings.Join(r.EndedBursts, ", ")))
	}

	if len(r.Changes) > 0 {
		sb.WriteString("Movement:\n")
		for _, c := range r.Changes {
			arrow := "→"
			if c.Direction == "rising" {
				arrow = "↑"
			} else if c.Direction == "falling" {
				arrow = "↓"
			}
			sb.WriteString(fmt.Sprintf("  [%s] %s %s: %.1f → %.1f (%+.1f%%) rank %d→%d\n",
				strings.ToUpper(c.Significance), arrow, c.Keyword,
				c.OldHeat, c.NewHeat, c.DeltaPct, c.OldRank, c.NewRank))
			if c.OldSignal != "" {
				sb.WriteString(fmt.Sprintf("        macd %s → %s\n", c.OldSignal, c.NewSignal))
			}
		}
		sb.WriteString("\n")
	}

	if len(r.Entered) > 0 {
		sb.WriteString("✦ Entered:\n")
		for _, e := range r.Entered {
			sb.WriteString(fmt.Sprintf("  #%d %s (%.1f)\n", e.Rank, e.Keyword, e.HeatScore))
		}
		sb.WriteString("\n")
	}
	if len(r.Left) > 0 {
		sb.WriteString("✧ Left:\n")
		for _, e := range r.Left {
			sb.WriteString(fmt.Sprintf("  was #%d %s (%.1f)\n", e.Rank, e.Keyword, e.HeatScore))
		}
	}

	return sb.String()
}
