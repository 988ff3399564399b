// Package burst detects abnormal activity in keyword count series using
// z-score deviation, MACD momentum crosses, Newton cooling decay, and
// discrete acceleration. All functions are pure over an oldest-first
// series.
package burst

import (
	"math"

	"github.com/trendscope/trendscope/internal/model"
)

// Params are the detector thresholds and spans.
type Params struct {
	ZThreshold    float64 `json:"z_threshold"`
	ShortPeriod   int     `json:"short_period"`
	LongPeriod    int     `json:"long_period"`
	SignalPeriod  int     `json:"signal_period"`
	HalfLifeHours float64 `json:"half_life_hours"`
}

// DefaultParams returns the standard configuration: z > 2.5 flags a
// burst (≈99.4% one-sided confidence), MACD 12/26/9, 4 h heat half-life.
func DefaultParams() Params {
	return Params{
		ZThreshold:    2.5,
		ShortPeriod:   12,
		LongPeriod:    26,
		SignalPeriod:  9,
		HalfLifeHours: 4,
	}
}

// Lambda is the Newton cooling decay constant, ln2 / half-life.
func (p Params) Lambda() float64 {
	return math.Ln2 / p.HalfLifeHours
}

// ZScore measures how far the latest count deviates from the mean of the
// prior windows, in units of their population standard deviation (floored
// at 1 so near-constant series don't explode). Series shorter than 3
// cannot establish a baseline and never burst.
func (p Params) ZScore(counts []int) (float64, bool) {
	n := len(counts)
	if n < 3 {
		return 0, false
	}

	current := float64(counts[n-1])
	prior := counts[:n-1]

	var sum float64
	for _, c := range prior {
		sum += float64(c)
	}
	mean := sum / float64(len(prior))

	var variance float64
	for _, c := range prior {
		d := float64(c) - mean
		variance += d * d
	}
	variance /= float64(len(prior))

	std := math.Sqrt(variance)
	if std < 1 {
		std = 1
	}

	z := (current - mean) / std
	return z, z > p.ZThreshold
}

// EMA computes the exponential moving average with smoothing 2/(period+1),
// seeded with the first value.
func EMA(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	k := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = (values[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// MACD computes the trend momentum signal: the short/long EMA difference
// against its own EMA. A golden cross (the difference turning positive)
// is bullish, a death cross bearish; without a cross, the sign of the
// current difference decides. Series shorter than the long period are
// neutral.
func (p Params) MACD(counts []int) (float64, string) {
	if len(counts) < p.LongPeriod {
		return 0, model.SignalNeutral
	}

	values := make([]float64, len(counts))
	for i, c := range counts {
		values[i] = float64(c)
	}

	short := EMA(values, p.ShortPeriod)
	long := EMA(values, p.LongPeriod)

	macd := make([]float64, len(values))
	for i := range values {
		macd[i] = short[i] - long[i]
	}
	signal := EMA(macd, p.SignalPeriod)

	n := len(macd)
	current := macd[n-1]

	prevDiff := macd[n-2] - signal[n-2]
	currDiff := current - signal[n-1]
	switch {
	case prevDiff <= 0 && currDiff > 0:
		return current, model.SignalBullish
	case prevDiff >= 0 && currDiff < 0:
		return current, model.SignalBearish
	}

	switch {
	case current > signal[n-1]:
		return current, model.SignalBullish
	case current < signal[n-1]:
		return current, model.SignalBearish
	}
	return current, model.SignalNeutral
}

// NewtonCooling decays a peak value exponentially with the configured
// half-life. Negative elapsed time is treated as zero.
func (p Params) NewtonCooling(peak, hoursSincePeak float64) float64 {
	return peak * math.Exp(-p.Lambda()*math.Max(0, hoursSincePeak))
}

// Acceleration blends the latest first difference (velocity) with the
// second difference: 0.6·v + 0.4·a. With only two windows it is the bare
// velocity; fewer, zero.
func Acceleration(counts []int) float64 {
	n := len(counts)
	switch {
	case n < 2:
		return 0
	case n == 2:
		return float64(counts[1] - counts[0])
	}

	v := float64(counts[n-1] - counts[n-2])
	a := v - float64(counts[n-2]-counts[n-3])
	return 0.6*v + 0.4*a
}
