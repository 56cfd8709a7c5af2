// Package performance scores running form over a sliding window of frames.
package performance

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/cadence.report/internal/pose"
)

// Score weights for the overall score.
const (
	weightStability   = 0.3
	weightForm        = 0.3
	weightEfficiency  = 0.2
	weightConsistency = 0.2
)

// Normalisation scales.
const (
	oscillationStdScale = 0.05
	strideStdScale      = 0.1
	speedRefMps         = 3.0
	cadenceRefSPM       = 180.0
	speedStdScale       = 0.5
	cadenceStdScale     = 10.0
)

// Level names.
const (
	LevelNovice       = "novice"
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Sample is one frame's input to the analyzer.
type Sample struct {
	Speed               float64
	Cadence             float64
	StrideLength        float64
	VerticalOscillation float64
	// Wrist vertical deltas for this frame, when both wrists moved.
	LeftWristDY  float64
	RightWristDY float64
	HasWrists    bool
}

// Scores are the window's form scores, each in [0, 1], plus trends.
type Scores struct {
	Stability    float64 `json:"stability"`
	Form         float64 `json:"form"`
	Efficiency   float64 `json:"efficiency"`
	Consistency  float64 `json:"consistency"`
	Overall      float64 `json:"overall"`
	SpeedTrend   float64 `json:"speed_trend"`
	CadenceTrend float64 `json:"cadence_trend"`
	Fatigue      float64 `json:"fatigue"`
	Level        string  `json:"level"`
	Samples      int     `json:"samples"`
}

// Analyzer keeps the most recent window of samples.
type Analyzer struct {
	window *pose.Ring[Sample]
}

// NewAnalyzer returns an analyzer over the last window samples.
func NewAnalyzer(window int) *Analyzer {
	return &Analyzer{window: pose.NewRing[Sample](window)}
}

// Add pushes a sample, evicting the oldest when the window is full.
func (a *Analyzer) Add(s Sample) { a.window.Push(s) }

// Len returns the number of samples held.
func (a *Analyzer) Len() int { return a.window.Len() }

// Reset clears the window.
func (a *Analyzer) Reset() { a.window.Reset() }

// Scores computes the current scores. An empty window yields zero scores.
func (a *Analyzer) Scores() Scores {
	samples := a.window.Values()
	if len(samples) == 0 {
		return Scores{Level: LevelNovice}
	}
	full := len(samples) >= a.window.Cap()

	speed := column(samples, func(s Sample) float64 { return s.Speed })
	cadence := column(samples, func(s Sample) float64 { return s.Cadence })
	stride := column(samples, func(s Sample) float64 { return s.StrideLength })
	osc := column(samples, func(s Sample) float64 { return s.VerticalOscillation })

	sc := Scores{Samples: len(samples)}
	if len(samples) >= 2 {
		sc.Stability = inverseSpread(osc, oscillationStdScale)
	}
	sc.Form = formScore(samples, stride)
	sc.Efficiency = (math.Min(1, stat.Mean(speed, nil)/speedRefMps) +
		math.Min(1, stat.Mean(cadence, nil)/cadenceRefSPM)) / 2
	if full {
		sc.Consistency = (inverseSpread(speed, speedStdScale) + inverseSpread(cadence, cadenceStdScale)) / 2
		sc.Fatigue = fatigue(samples)
	}
	sc.Overall = weightStability*sc.Stability + weightForm*sc.Form +
		weightEfficiency*sc.Efficiency + weightConsistency*sc.Consistency
	if len(samples) >= 2 {
		sc.SpeedTrend = slope(speed)
		sc.CadenceTrend = slope(cadence)
	}
	sc.Level = Level(stat.Mean(speed, nil))
	return sc
}

// Level classifies a runner by average speed in m/s.
func Level(speed float64) string {
	switch {
	case speed > 3.0:
		return LevelAdvanced
	case speed > 2.2:
		return LevelIntermediate
	case speed > 0.5:
		return LevelBeginner
	}
	return LevelNovice
}

func column(samples []Sample, f func(Sample) float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = f(s)
	}
	return out
}

// inverseSpread maps population std-dev to a [0, 1] score, 1 meaning no
// spread at all.
func inverseSpread(xs []float64, scale float64) float64 {
	return math.Max(0, 1-math.Min(1, stat.PopStdDev(xs, nil)/scale))
}

// formScore averages stride consistency with arm counter-swing. Runners swing
// their arms in opposition, so strongly negative wrist correlation scores 1.
func formScore(samples []Sample, stride []float64) float64 {
	strideScore := inverseSpread(stride, strideStdScale)

	var left, right []float64
	for _, s := range samples {
		if s.HasWrists {
			left = append(left, s.LeftWristDY)
			right = append(right, s.RightWristDY)
		}
	}
	if len(left) < 3 || stat.PopStdDev(left, nil) == 0 || stat.PopStdDev(right, nil) == 0 {
		return strideScore
	}
	r := stat.Correlation(left, right, nil)
	if math.IsNaN(r) {
		return strideScore
	}
	return (strideScore + (1-r)/2) / 2
}

// slope is the least-squares gradient of xs against sample index.
func slope(ys []float64) float64 {
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(beta) {
		return 0
	}
	return beta
}

// fatigue is the relative drop in metres-per-step between the older and
// recent halves of the window. Frames without cadence are skipped.
func fatigue(samples []Sample) float64 {
	half := len(samples) / 2
	older := efficiency(samples[:half])
	recent := efficiency(samples[len(samples)-half:])
	if older <= 0 {
		return 0
	}
	return math.Max(0, (older-recent)/older)
}

func efficiency(samples []Sample) float64 {
	var ratios []float64
	for _, s := range samples {
		if s.Cadence > 0 {
			ratios = append(ratios, s.Speed/s.Cadence)
		}
	}
	if len(ratios) == 0 {
		return 0
	}
	return stat.Mean(ratios, nil)
}
