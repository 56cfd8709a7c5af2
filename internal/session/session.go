// Package session accumulates a running session's totals and per-frame
// metrics, and produces the end-of-session summary.
package session

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/cadence.report/internal/config"
	"github.com/banshee-data/cadence.report/internal/performance"
)

// minMovingSpeedMps is the speed above which a frame counts towards distance,
// max speed and calories.
const minMovingSpeedMps = 0.1

// FrameMetrics is the immutable per-frame output of the estimators.
type FrameMetrics struct {
	Timestamp           time.Time `json:"timestamp"`
	Speed               float64   `json:"speed"`
	StrideLength        float64   `json:"stride_length"`
	Cadence             float64   `json:"cadence"`
	VerticalOscillation float64   `json:"vertical_oscillation"`
	ArmMovement         float64   `json:"arm_movement"`
	LegMovement         float64   `json:"leg_movement"`
}

// Limits are the sanity bounds applied while accumulating.
type Limits struct {
	MaxDistanceStepM  float64
	MaxSpeedSanityMps float64
}

// LimitsFromTuning reads the accumulator bounds from tuning.
func LimitsFromTuning(cfg *config.TuningConfig) Limits {
	return Limits{
		MaxDistanceStepM:  cfg.GetMaxDistanceStepM(),
		MaxSpeedSanityMps: cfg.GetMaxSpeedSanityMps(),
	}
}

// Session is the mutable aggregate for one run. It is owned by a single
// tracker and is not safe for concurrent use.
type Session struct {
	ID             string
	StartTime      time.Time
	TotalDistance  float64
	CaloriesBurned float64
	StepsCount     int
	MaxSpeed       float64

	limits  Limits
	metrics []FrameMetrics
}

// New starts an empty session.
func New(id string, start time.Time, limits Limits) *Session {
	return &Session{ID: id, StartTime: start, limits: limits}
}

// AddStep increments the step count.
func (s *Session) AddStep() { s.StepsCount++ }

// Record appends m and, for moving frames, integrates distance, max speed and
// calories. dt is the frame interval in seconds.
func (s *Session) Record(m FrameMetrics, dt, calories float64) {
	if m.Speed > minMovingSpeedMps && dt > 0 {
		if inc := m.Speed * dt; inc <= s.limits.MaxDistanceStepM {
			s.TotalDistance += inc
		}
		if m.Speed < s.limits.MaxSpeedSanityMps {
			s.MaxSpeed = math.Max(s.MaxSpeed, m.Speed)
		}
		if calories > 0 {
			s.CaloriesBurned += calories
		}
	}
	s.metrics = append(s.metrics, m)
}

// Metrics returns a copy of the per-frame sequence.
func (s *Session) Metrics() []FrameMetrics {
	out := make([]FrameMetrics, len(s.metrics))
	copy(out, s.metrics)
	return out
}

// Latest returns the most recent frame metrics.
func (s *Session) Latest() (FrameMetrics, bool) {
	if len(s.metrics) == 0 {
		return FrameMetrics{}, false
	}
	return s.metrics[len(s.metrics)-1], true
}

// Len returns the number of recorded frames.
func (s *Session) Len() int { return len(s.metrics) }

// Averages are the per-metric means over a session.
type Averages struct {
	Speed               float64 `json:"speed"`
	StrideLength        float64 `json:"stride_length"`
	Cadence             float64 `json:"cadence"`
	VerticalOscillation float64 `json:"vertical_oscillation"`
	ArmMovement         float64 `json:"arm_movement"`
	LegMovement         float64 `json:"leg_movement"`
}

// Summary is the end-of-session report handed to downstream analytics.
type Summary struct {
	ID              string              `json:"session_id"`
	StartTime       time.Time           `json:"start_time"`
	EndTime         time.Time           `json:"end_time"`
	DurationSeconds float64             `json:"duration_s"`
	TotalDistance   float64             `json:"total_distance"`
	CaloriesBurned  float64             `json:"calories_burned"`
	StepsCount      int                 `json:"steps_count"`
	MaxSpeed        float64             `json:"max_speed"`
	FrameCount      int                 `json:"frame_count"`
	AverageMetrics  Averages            `json:"average_metrics"`
	Performance     *performance.Scores `json:"performance,omitempty"`
}

// IsZero reports whether s is the empty summary.
func (s Summary) IsZero() bool { return s.ID == "" && s.StartTime.IsZero() }

// Duration returns the session duration.
func (s Summary) Duration() time.Duration {
	return time.Duration(s.DurationSeconds * float64(time.Second))
}

// Summarize computes the summary as of end.
func (s *Session) Summarize(end time.Time) Summary {
	dur := end.Sub(s.StartTime).Seconds()
	if dur < 0 {
		dur = 0
	}
	return Summary{
		ID:              s.ID,
		StartTime:       s.StartTime,
		EndTime:         end,
		DurationSeconds: dur,
		TotalDistance:   s.TotalDistance,
		CaloriesBurned:  s.CaloriesBurned,
		StepsCount:      s.StepsCount,
		MaxSpeed:        s.MaxSpeed,
		FrameCount:      len(s.metrics),
		AverageMetrics:  Average(s.metrics),
	}
}

// Average returns the arithmetic mean of each metric. Cadence ignores frames
// where it was not yet known.
func Average(ms []FrameMetrics) Averages {
	if len(ms) == 0 {
		return Averages{}
	}
	var (
		speed, stride, osc, arm, leg []float64
		cadence                      []float64
	)
	for _, m := range ms {
		speed = append(speed, m.Speed)
		stride = append(stride, m.StrideLength)
		osc = append(osc, m.VerticalOscillation)
		arm = append(arm, m.ArmMovement)
		leg = append(leg, m.LegMovement)
		if m.Cadence > 0 {
			cadence = append(cadence, m.Cadence)
		}
	}
	a := Averages{
		Speed:               stat.Mean(speed, nil),
		StrideLength:        stat.Mean(stride, nil),
		VerticalOscillation: stat.Mean(osc, nil),
		ArmMovement:         stat.Mean(arm, nil),
		LegMovement:         stat.Mean(leg, nil),
	}
	if len(cadence) > 0 {
		a.Cadence = stat.Mean(cadence, nil)
	}
	return a
}
