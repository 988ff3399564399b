package engine

import (
	"math"

	"github.com/trendscope/trendscope/internal/burst"
	"github.com/trendscope/trendscope/internal/model"
)

// DefaultWeights returns the heat blend coefficients: frequency dominates,
// then acceleration, source diversity, engagement.
func DefaultWeights() model.HeatWeights {
	return model.HeatWeights{Alpha: 0.4, Beta: 0.3, Gamma: 0.2, Delta: 0.1}
}

// ComputeHeat blends a keyword's window frequency (Newton-cooled from its
// peak), acceleration, platform diversity and normalized engagement into
// a 0-100 score:
//
//	H = α·F·e^{-λΔt} + β·max(0,A) + γ·S + δ·E, scaled ×15 and capped.
//
// Components are normalized to comparable ranges first: frequency /10
// capped at 10, acceleration /5 clamped to ±5, diversity /3 (three
// platforms = 1.0), engagement capped at 1.
func ComputeHeat(w model.HeatWeights, p burst.Params, freq int, accel float64,
	sources int, engagement, hoursSincePeak float64) float64 {

	decayed := p.NewtonCooling(float64(freq), hoursSincePeak)

	fNorm := math.Min(decayed/10, 10)
	aNorm := math.Max(math.Min(accel/5, 5), -5)
	sNorm := float64(sources) / 3
	eNorm := math.Min(engagement, 1)

	raw := w.Alpha*fNorm + w.Beta*math.Max(0, aNorm) + w.Gamma*sNorm + w.Delta*eNorm
	return math.Min(100, raw*15)
}

// Direction maps the latest window-over-window change rate to an arrow.
// The previous count is floored at 1 to keep newly appearing keywords
// finite.
func Direction(counts []int) string {
	if len(counts) < 2 {
		return model.DirectionFlat
	}

	current := float64(counts[len(counts)-1])
	previous := float64(counts[len(counts)-2])
	if previous <= 0 {
		previous = 1
	}
	rate := (current - previous) / previous

	switch {
	case rate > 0.5:
		return model.DirectionSurge
	case rate > 0.1:
		return model.DirectionRise
	case rate > -0.1:
		return model.DirectionFlat
	case rate > -0.5:
		return model.DirectionEase
	default:
		return model.DirectionFall
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
