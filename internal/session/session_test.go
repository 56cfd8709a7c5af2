package session

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cadence.report/internal/config"
)

var t0 = time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)

func newSession() *Session {
	return New("s-1", t0, LimitsFromTuning(config.EmptyTuningConfig()))
}

func TestRecord(t *testing.T) {
	t.Parallel()

	t.Run("moving frame integrates", func(t *testing.T) {
		t.Parallel()
		s := newSession()
		s.Record(FrameMetrics{Speed: 2.5}, 0.1, 0.014)
		assert.InDelta(t, 0.25, s.TotalDistance, 1e-12)
		assert.Equal(t, 2.5, s.MaxSpeed)
		assert.InDelta(t, 0.014, s.CaloriesBurned, 1e-12)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("standing frame only appends", func(t *testing.T) {
		t.Parallel()
		s := newSession()
		s.Record(FrameMetrics{Speed: 0.05}, 0.1, 0.01)
		assert.Equal(t, 0.0, s.TotalDistance)
		assert.Equal(t, 0.0, s.MaxSpeed)
		assert.Equal(t, 0.0, s.CaloriesBurned)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("distance outlier rejected", func(t *testing.T) {
		t.Parallel()
		s := newSession()
		s.Record(FrameMetrics{Speed: 4}, 3, 0.05)
		assert.Equal(t, 0.0, s.TotalDistance)
		assert.Equal(t, 4.0, s.MaxSpeed)
	})

	t.Run("implausible max speed ignored", func(t *testing.T) {
		t.Parallel()
		s := newSession()
		s.Record(FrameMetrics{Speed: 3}, 0.1, 0)
		s.Record(FrameMetrics{Speed: 12}, 0.1, 0)
		assert.Equal(t, 3.0, s.MaxSpeed)
		assert.InDelta(t, 1.5, s.TotalDistance, 1e-12)
	})

	t.Run("distance never decreases", func(t *testing.T) {
		t.Parallel()
		s := newSession()
		prev := 0.0
		for i, v := range []float64{0, 1.2, 0.3, 15, 2.8, 0.09, 4.4, 0} {
			s.Record(FrameMetrics{Speed: v}, 0.05+0.1*float64(i%3), 0)
			require.GreaterOrEqual(t, s.TotalDistance, prev)
			prev = s.TotalDistance
		}
	})
}

func TestLatestAndMetrics(t *testing.T) {
	t.Parallel()

	s := newSession()
	_, ok := s.Latest()
	assert.False(t, ok)

	s.Record(FrameMetrics{Speed: 1}, 0.1, 0)
	s.Record(FrameMetrics{Speed: 2}, 0.1, 0)
	m, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, 2.0, m.Speed)

	ms := s.Metrics()
	ms[0].Speed = 99
	assert.Equal(t, 1.0, s.Metrics()[0].Speed)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	s := newSession()
	s.AddStep()
	s.AddStep()
	s.Record(FrameMetrics{Speed: 2, StrideLength: 1.0, Cadence: 0, VerticalOscillation: 0.04, ArmMovement: 1, LegMovement: 2}, 0.1, 0.01)
	s.Record(FrameMetrics{Speed: 3, StrideLength: 1.2, Cadence: 160, VerticalOscillation: 0.06, ArmMovement: 2, LegMovement: 3}, 0.1, 0.01)
	s.Record(FrameMetrics{Speed: 4, StrideLength: 1.4, Cadence: 170, VerticalOscillation: 0.08, ArmMovement: 3, LegMovement: 4}, 0.1, 0.01)

	got := s.Summarize(t0.Add(90 * time.Second))
	want := Summary{
		ID:              "s-1",
		StartTime:       t0,
		EndTime:         t0.Add(90 * time.Second),
		DurationSeconds: 90,
		TotalDistance:   0.9,
		CaloriesBurned:  0.03,
		StepsCount:      2,
		MaxSpeed:        4,
		FrameCount:      3,
		AverageMetrics: Averages{
			Speed:               3,
			StrideLength:        1.2,
			Cadence:             165,
			VerticalOscillation: 0.06,
			ArmMovement:         2,
			LegMovement:         3,
		},
	}
	approx := cmp.Comparer(func(a, b float64) bool { return a-b < 1e-9 && b-a < 1e-9 })
	if diff := cmp.Diff(got, want, approx); diff != "" {
		t.Errorf("Summarize() mismatch (-got +want):\n%s", diff)
	}
	assert.Equal(t, 90*time.Second, got.Duration())
	assert.False(t, got.IsZero())
}

func TestAverageEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Averages{}, Average(nil))
	assert.Equal(t, 0.0, Average([]FrameMetrics{{Speed: 1}}).Cadence)
	assert.True(t, Summary{}.IsZero())
}
