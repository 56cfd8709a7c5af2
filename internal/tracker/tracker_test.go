package tracker

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cadence.report/internal/config"
	"github.com/banshee-data/cadence.report/internal/pose"
	"github.com/banshee-data/cadence.report/internal/profile"
	"github.com/banshee-data/cadence.report/internal/testutil"
	"github.com/banshee-data/cadence.report/internal/timeutil"
)

var t0 = time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)

const frameDT = 100 * time.Millisecond

func newTestTracker() (*Tracker, *timeutil.MockClock) {
	clock := timeutil.NewMockClock(t0)
	return New(config.EmptyTuningConfig(), profile.Default(), clock), clock
}

// feed advances the clock by one frame interval and processes kp.
func feed(tr *Tracker, clock *timeutil.MockClock, kp pose.Keypoints) Result {
	clock.Advance(frameDT)
	return tr.UpdateMetrics(testutil.Frame(kp))
}

func TestNoSession(t *testing.T) {
	tr, clock := newTestTracker()

	res := feed(tr, clock, testutil.Standing())
	assert.True(t, res.IsZero())

	sum, ok := tr.EndSession()
	assert.False(t, ok)
	assert.True(t, sum.IsZero())

	_, ok = tr.Snapshot()
	assert.False(t, ok)
	assert.Nil(t, tr.Metrics())
	assert.False(t, tr.Active())
	assert.Empty(t, tr.SessionID())
}

func TestNoPersonDetected(t *testing.T) {
	tr, clock := newTestTracker()
	tr.StartSession()

	for i := 0; i < 3; i++ {
		res := feed(tr, clock, nil)
		assert.Equal(t, StatusNoPerson, res.Status)
		assert.Nil(t, res.Metrics)
	}
	snap, ok := tr.Snapshot()
	require.True(t, ok)
	assert.Equal(t, 0, snap.StepsCount)
	assert.Equal(t, 0, snap.Frames)
}

func TestEmptyFramesDoNotAdvanceTiming(t *testing.T) {
	tr, clock := newTestTracker()
	tr.StartSession()

	for i := 0; i < 3; i++ {
		clock.Advance(400 * time.Millisecond)
		assert.Equal(t, StatusNoPerson, tr.UpdateMetrics(testutil.Frame(pose.Keypoints{})).Status)
	}
	// 1.3s since the last processed instant.
	res := feed(tr, clock, testutil.Standing())
	assert.Equal(t, StatusCalibrating, res.Status)
}

func TestKeyPartsNotVisible(t *testing.T) {
	tr, clock := newTestTracker()
	tr.StartSession()

	res := feed(tr, clock, testutil.Only(testutil.Standing(), pose.LeftHip, pose.RightHip))
	assert.Equal(t, StatusNotVisible, res.Status)
}

func TestTimingGate(t *testing.T) {
	tr, clock := newTestTracker()
	tr.StartSession()

	t.Run("zero interval", func(t *testing.T) {
		res := tr.UpdateMetrics(testutil.Frame(testutil.Standing()))
		assert.Equal(t, StatusCalibrating, res.Status)
	})

	t.Run("stall", func(t *testing.T) {
		clock.Advance(2 * time.Second)
		res := tr.UpdateMetrics(testutil.Frame(testutil.Standing()))
		assert.Equal(t, StatusCalibrating, res.Status)
	})

	t.Run("clock stepped backwards", func(t *testing.T) {
		clock.Advance(-time.Second)
		res := tr.UpdateMetrics(testutil.Frame(testutil.Standing()))
		assert.Equal(t, StatusCalibrating, res.Status)
	})

	t.Run("resynced after glitch", func(t *testing.T) {
		res := feed(tr, clock, testutil.Standing())
		assert.Equal(t, StatusInsufficient, res.Status)
	})

	snap, _ := tr.Snapshot()
	assert.Equal(t, 0, snap.Frames)
}

func TestStationaryIsStandingStill(t *testing.T) {
	tr, clock := newTestTracker()
	tr.StartSession()

	for i := 0; i < 4; i++ {
		assert.Equal(t, StatusInsufficient, feed(tr, clock, testutil.Standing()).Status)
	}
	for i := 0; i < 10; i++ {
		res := feed(tr, clock, testutil.Standing())
		require.Equal(t, StatusStandingStill, res.Status, "frame %d", i)
		require.NotNil(t, res.Metrics)
		assert.Equal(t, 0.0, res.Metrics.Speed)
		assert.Equal(t, 0, res.Steps)
		assert.Nil(t, res.Feedback)
	}
	snap, _ := tr.Snapshot()
	assert.Equal(t, 0, snap.StepsCount)
	assert.Equal(t, 10, snap.Frames)
	assert.Equal(t, 0.0, snap.TotalDistance)
	assert.Equal(t, 0.0, snap.CaloriesBurned)
}

func TestSubPixelJitterIsNoise(t *testing.T) {
	tr, clock := newTestTracker()
	tr.StartSession()

	for i := 0; i < 10; i++ {
		res := feed(tr, clock, testutil.Shift(testutil.Standing(), float64(i), float64(i)))
		if i < 4 {
			continue
		}
		require.NotNil(t, res.Metrics)
		assert.Equal(t, 0.0, res.Metrics.Speed)
		assert.Equal(t, 0.0, res.Metrics.ArmMovement)
		assert.Equal(t, 0.0, res.Metrics.LegMovement)
		assert.Equal(t, StatusStandingStill, res.Status)
	}
	snap, _ := tr.Snapshot()
	assert.Equal(t, 0, snap.StepsCount)
}

func TestSingleAnkleStep(t *testing.T) {
	tr, clock := newTestTracker()
	tr.StartSession()

	steps := 0
	var last Result
	for _, y := range []float64{100, 105, 110, 105, 100} {
		last = feed(tr, clock, pose.Keypoints{pose.RightAnkle: {X: 320, Y: y}})
		steps += last.Steps
	}
	assert.Equal(t, 1, steps)
	assert.Equal(t, "ankle", last.StepSource)
	require.NotNil(t, last.Metrics)
	assert.Equal(t, 0.0, last.Metrics.Cadence)
	assert.NotNil(t, last.Feedback)

	snap, _ := tr.Snapshot()
	assert.Equal(t, 1, snap.StepsCount)
	assert.Equal(t, 0.0, snap.Cadence)
}

func TestAnklesLeavingFrame(t *testing.T) {
	tr, clock := newTestTracker()
	tr.StartSession()

	wrists := pose.Keypoints{
		pose.LeftWrist:  {X: 280, Y: 250},
		pose.RightWrist: {X: 360, Y: 250},
	}
	for _, y := range []float64{100, 105, 110, 105, 100} {
		kp := pose.Keypoints{pose.RightAnkle: {X: 320, Y: y}}
		for j, p := range wrists {
			kp[j] = p
		}
		feed(tr, clock, kp)
	}
	before, _ := tr.Snapshot()
	require.Equal(t, 1, before.StepsCount)

	for i := 0; i < 60; i++ {
		res := feed(tr, clock, wrists)
		require.Equal(t, StatusStandingStill, res.Status, "frame %d", i)
		require.NotNil(t, res.Metrics)
		assert.Equal(t, 0, res.Steps)
		assert.Equal(t, 0.0, res.Metrics.Speed)
		assert.Equal(t, 0.0, res.Metrics.LegMovement)
	}
	after, _ := tr.Snapshot()
	assert.Equal(t, before.StepsCount, after.StepsCount)
	assert.Equal(t, before.TotalDistance, after.TotalDistance)
	assert.Equal(t, before.CaloriesBurned, after.CaloriesBurned)
}

func TestRunningSession(t *testing.T) {
	tr, clock := newTestTracker()
	tr.StartSession()
	lo, hi := tr.Profile().StrideBounds()

	prevDistance := 0.0
	lastStep := -1
	totalSteps := 0
	for i := 0; i < 150; i++ {
		res := feed(tr, clock, testutil.Running(i, testutil.DefaultGait))
		snap, _ := tr.Snapshot()
		require.GreaterOrEqual(t, snap.TotalDistance, prevDistance, "frame %d", i)
		prevDistance = snap.TotalDistance

		if res.Steps > 0 {
			if lastStep >= 0 {
				assert.Greater(t, i-lastStep, 8, "steps at frames %d and %d", lastStep, i)
			}
			lastStep = i
			totalSteps += res.Steps
		}
		if res.Metrics != nil && res.Metrics.Cadence > 0 {
			assert.GreaterOrEqual(t, res.Metrics.StrideLength, lo)
			assert.LessOrEqual(t, res.Metrics.StrideLength, hi)
		}
	}

	snap, _ := tr.Snapshot()
	assert.Equal(t, totalSteps, snap.StepsCount)
	assert.Greater(t, snap.StepsCount, 4)
	assert.Greater(t, snap.Cadence, 0.0)
	assert.Greater(t, snap.TotalDistance, 0.0)
	assert.Greater(t, snap.CaloriesBurned, 0.0)
	require.NotNil(t, snap.Latest)
	assert.Greater(t, snap.Performance.Samples, 0)

	sum, ok := tr.EndSession()
	require.True(t, ok)
	assert.Equal(t, snap.SessionID, sum.ID)
	assert.Empty(t, tr.SessionID())
	assert.Equal(t, 15.0, sum.DurationSeconds)
	assert.Equal(t, snap.StepsCount, sum.StepsCount)
	assert.Equal(t, 146, sum.FrameCount)
	require.NotNil(t, sum.Performance)

	again, ok := tr.EndSession()
	assert.False(t, ok)
	assert.True(t, again.IsZero())
}

func TestStartSessionClearsState(t *testing.T) {
	tr, clock := newTestTracker()
	first, _ := tr.StartSession()
	for i := 0; i < 40; i++ {
		feed(tr, clock, testutil.Running(i, testutil.DefaultGait))
	}
	snap, _ := tr.Snapshot()
	require.Greater(t, snap.StepsCount, 0)

	second, start := tr.StartSession()
	assert.NotEqual(t, first, second)
	assert.Equal(t, clock.Now(), start)

	snap, ok := tr.Snapshot()
	require.True(t, ok)
	assert.Equal(t, 0, snap.StepsCount)
	assert.Equal(t, 0, snap.Frames)
	assert.Equal(t, 0.0, snap.TotalDistance)
	assert.Equal(t, 0.0, snap.Cadence)
	assert.Empty(t, tr.Metrics())

	// Histories are empty again, so the step window must refill.
	for i := 0; i < 4; i++ {
		assert.Equal(t, StatusInsufficient, feed(tr, clock, testutil.Running(i, testutil.DefaultGait)).Status)
	}
}

func TestSetProfile(t *testing.T) {
	tr, clock := newTestTracker()
	tr.StartSession()

	var res Result
	for i := 0; i < 5; i++ {
		res = feed(tr, clock, testutil.Standing())
	}
	require.NotNil(t, res.Metrics)
	assert.InDelta(t, profile.Default().StrideLength(), res.Metrics.StrideLength, 1e-9)

	tall := profile.Default()
	tall.HeightCm = 190
	tr.SetProfile(tall)
	res = feed(tr, clock, testutil.Standing())
	require.NotNil(t, res.Metrics)
	assert.InDelta(t, tall.StrideLength(), res.Metrics.StrideLength, 1e-9)
	assert.Equal(t, 190.0, tr.Profile().HeightCm)
}

func TestSessionLogging(t *testing.T) {
	var ops, trace bytes.Buffer
	SetLogWriters(&ops, nil, &trace)
	defer SetLogWriters(nil, nil, nil)

	tr, clock := newTestTracker()
	tr.StartSession()
	for _, y := range []float64{100, 105, 110, 105, 100} {
		feed(tr, clock, pose.Keypoints{pose.LeftAnkle: {X: 300, Y: y}})
	}
	tr.EndSession()

	assert.True(t, strings.Contains(ops.String(), "started"))
	assert.True(t, strings.Contains(ops.String(), "ended"))
	assert.True(t, strings.Contains(trace.String(), "step via ankle"))
}
