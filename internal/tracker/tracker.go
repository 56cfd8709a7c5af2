// Package tracker drives the gait estimators once per frame and owns the
// active running session.
//
// A Tracker is not safe for concurrent use. Callers that feed frames from one
// goroutine and read state from another must serialise every call.
package tracker

import (
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/cadence.report/internal/coach"
	"github.com/banshee-data/cadence.report/internal/config"
	"github.com/banshee-data/cadence.report/internal/gait"
	"github.com/banshee-data/cadence.report/internal/performance"
	"github.com/banshee-data/cadence.report/internal/pose"
	"github.com/banshee-data/cadence.report/internal/profile"
	"github.com/banshee-data/cadence.report/internal/session"
	"github.com/banshee-data/cadence.report/internal/timeutil"
)

// Status sentinels reported instead of feedback when a frame yields no
// usable metrics.
const (
	StatusNoPerson      = "No person detected"
	StatusNotVisible    = "Person detected but key body parts not visible"
	StatusInsufficient  = "Insufficient keypoints for tracking"
	StatusCalibrating   = "Calibrating timing..."
	StatusStandingStill = "Standing still"
)

// Result is the per-frame outcome. Exactly one of Status or Feedback is set
// on an active session; both are empty when no session is active.
type Result struct {
	Status     string                `json:"status,omitempty"`
	Feedback   map[string]string     `json:"feedback,omitempty"`
	Metrics    *session.FrameMetrics `json:"metrics,omitempty"`
	Steps      int                   `json:"steps"`
	StepSource string                `json:"step_source,omitempty"`
}

// IsZero reports whether r is the empty result.
func (r Result) IsZero() bool {
	return r.Status == "" && r.Feedback == nil && r.Metrics == nil && r.Steps == 0
}

// Snapshot is the live view of the active session polled by dashboards.
type Snapshot struct {
	SessionID      string                `json:"session_id"`
	StartTime      time.Time             `json:"start_time"`
	ElapsedSeconds float64               `json:"elapsed_s"`
	TotalDistance  float64               `json:"total_distance"`
	CaloriesBurned float64               `json:"calories_burned"`
	StepsCount     int                   `json:"steps_count"`
	MaxSpeed       float64               `json:"max_speed"`
	Cadence        float64               `json:"cadence"`
	Frames         int                   `json:"frames"`
	Latest         *session.FrameMetrics `json:"latest,omitempty"`
	Performance    performance.Scores    `json:"performance"`
}

// Tracker turns keypoint frames into running metrics.
type Tracker struct {
	tuning      *config.TuningConfig
	cfg         gait.Config
	limits      session.Limits
	clock       timeutil.Clock
	profile     profile.UserProfile
	targets     coach.Targets
	maxFrameGap time.Duration
	newID       func() string

	history  *pose.History
	calib    *gait.Calibration
	speed    *gait.SpeedEstimator
	steps    *gait.StepDetector
	cadence  *gait.CadenceEstimator
	osc      *gait.OscillationEstimator
	analyzer *performance.Analyzer

	sess     *session.Session
	lastTime time.Time
}

// New returns a tracker with no active session. A nil tuning config uses the
// compiled-in defaults and a nil clock uses the wall clock.
func New(tuning *config.TuningConfig, p profile.UserProfile, clock timeutil.Clock) *Tracker {
	if tuning == nil {
		tuning = config.EmptyTuningConfig()
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	cfg := gait.ConfigFromTuning(tuning)
	return &Tracker{
		tuning:      tuning,
		cfg:         cfg,
		limits:      session.LimitsFromTuning(tuning),
		clock:       clock,
		profile:     p,
		targets:     coach.TargetsFor(tuning, p),
		maxFrameGap: tuning.GetMaxFrameGap(),
		newID:       uuid.NewString,
		history:     pose.NewHistory(cfg.HistoryCapacity),
		calib:       gait.NewCalibration(cfg.FrameFillRatio),
		speed:       gait.NewSpeedEstimator(cfg),
		steps:       gait.NewStepDetector(cfg),
		cadence:     gait.NewCadenceEstimator(cfg),
		osc:         gait.NewOscillationEstimator(cfg),
		analyzer:    performance.NewAnalyzer(tuning.GetPerformanceWindow()),
	}
}

// Tuning returns the tuning configuration the tracker was built from.
func (t *Tracker) Tuning() *config.TuningConfig { return t.tuning }

// Profile returns the runner profile in use.
func (t *Tracker) Profile() profile.UserProfile { return t.profile }

// SetProfile replaces the runner profile. It takes effect from the next frame.
func (t *Tracker) SetProfile(p profile.UserProfile) {
	t.profile = p
	t.targets = coach.TargetsFor(t.tuning, p)
}

// Active reports whether a session is in progress.
func (t *Tracker) Active() bool { return t.sess != nil }

// SessionID returns the active session's ID, or "" with none.
func (t *Tracker) SessionID() string {
	if t.sess == nil {
		return ""
	}
	return t.sess.ID
}

// StartSession discards any active session, clears every history, and begins
// a new session now. It returns the new session's ID and start time.
func (t *Tracker) StartSession() (string, time.Time) {
	if t.sess != nil {
		opsf("discarding active session %s", t.sess.ID)
	}
	now := t.clock.Now()
	t.reset()
	t.sess = session.New(t.newID(), now, t.limits)
	t.lastTime = now
	opsf("session %s started", t.sess.ID)
	return t.sess.ID, now
}

func (t *Tracker) reset() {
	t.history.Reset()
	t.calib.Reset()
	t.steps.Reset()
	t.cadence.Reset()
	t.osc.Reset()
	t.analyzer.Reset()
}

// EndSession detaches the active session and returns its summary. With no
// active session it returns the empty summary and false.
func (t *Tracker) EndSession() (session.Summary, bool) {
	if t.sess == nil {
		return session.Summary{}, false
	}
	sum := t.sess.Summarize(t.clock.Now())
	scores := t.analyzer.Scores()
	sum.Performance = &scores
	opsf("session %s ended: %.1fs %.1fm %d steps", sum.ID, sum.DurationSeconds, sum.TotalDistance, sum.StepsCount)
	t.sess = nil
	return sum, true
}

// Snapshot returns the live session state, or false with no active session.
func (t *Tracker) Snapshot() (Snapshot, bool) {
	if t.sess == nil {
		return Snapshot{}, false
	}
	now := t.clock.Now()
	s := Snapshot{
		SessionID:      t.sess.ID,
		StartTime:      t.sess.StartTime,
		ElapsedSeconds: now.Sub(t.sess.StartTime).Seconds(),
		TotalDistance:  t.sess.TotalDistance,
		CaloriesBurned: t.sess.CaloriesBurned,
		StepsCount:     t.sess.StepsCount,
		MaxSpeed:       t.sess.MaxSpeed,
		Cadence:        t.cadence.Cadence(now),
		Frames:         t.sess.Len(),
		Performance:    t.analyzer.Scores(),
	}
	if m, ok := t.sess.Latest(); ok {
		s.Latest = &m
	}
	return s, true
}

// Metrics returns a copy of the active session's per-frame metrics.
func (t *Tracker) Metrics() []session.FrameMetrics {
	if t.sess == nil {
		return nil
	}
	return t.sess.Metrics()
}

// UpdateMetrics processes one frame. Frames arriving with no active session
// are ignored and yield the empty result.
func (t *Tracker) UpdateMetrics(f pose.Frame) Result {
	if t.sess == nil {
		return Result{}
	}
	if len(f.Keypoints) == 0 {
		return Result{Status: StatusNoPerson}
	}
	if !f.Keypoints.HasAny(pose.Limbs...) {
		return Result{Status: StatusNotVisible}
	}

	now := t.clock.Now()
	gap := now.Sub(t.lastTime)
	if gap <= 0 || gap > t.maxFrameGap {
		diagf("frame skipped: interval %v outside (0, %v]", gap, t.maxFrameGap)
		t.lastTime = now
		return Result{Status: StatusCalibrating}
	}
	t.lastTime = now
	dt := gap.Seconds()

	t.calib.SetRatio(f.Height, t.profile.HeightCm)
	ratio := t.calib.PixelsToMeters()
	prevLeft, prevRight := t.wristY()
	t.history.AppendAll(f.Keypoints)

	if !t.trackable() {
		return Result{Status: StatusInsufficient}
	}

	res := Result{}
	if det, ok := t.steps.Update(t.history); ok {
		t.cadence.Record(now)
		t.sess.AddStep()
		res.Steps = 1
		res.StepSource = det.Group
		tracef("step via %s (%s), cooldown %d", det.Group, det.Joint, det.Cooldown)
	}
	cadence := t.cadence.Cadence(now)

	mv := t.speed.Movement(t.history, dt, ratio)
	osc := t.osc.Estimate(t.history, ratio)
	speed := gait.FuseSpeed(mv.Arm, mv.Leg, cadence)
	stride := gait.StrideLength(speed, cadence, t.profile)

	m := session.FrameMetrics{
		Timestamp:           now,
		Speed:               speed,
		StrideLength:        stride,
		Cadence:             cadence,
		VerticalOscillation: osc,
		ArmMovement:         mv.Arm,
		LegMovement:         mv.Leg,
	}
	kcal := gait.Calories(speed, t.profile.WeightKg, dt, t.cfg.MaxCaloriesPerFrame)
	t.sess.Record(m, dt, kcal)
	t.analyzer.Add(sample(m, f.Keypoints, prevLeft, prevRight))
	tracef("dt=%.3fs ratio=%.5f arm=%.2f leg=%.2f(%s) speed=%.2f cadence=%.1f", dt, ratio, mv.Arm, mv.Leg, mv.LegSource, speed, cadence)

	res.Metrics = &m
	if speed == 0 && res.Steps == 0 {
		res.Status = StatusStandingStill
		return res
	}
	res.Feedback = coach.Generate(coach.Metrics{
		Speed:               speed,
		Cadence:             cadence,
		StrideLength:        stride,
		VerticalOscillation: osc,
	}, t.targets)
	return res
}

// trackable reports whether any limb group in view has a full step window.
func (t *Tracker) trackable() bool {
	for _, g := range pose.Limbs {
		if t.history.Tracking(g, t.cfg.StepWindow) {
			return true
		}
	}
	return false
}

type wristSample struct {
	y  float64
	ok bool
}

func (t *Tracker) wristY() (left, right wristSample) {
	if ys := t.history.LastY(pose.LeftWrist, 1); len(ys) == 1 {
		left = wristSample{ys[0], true}
	}
	if ys := t.history.LastY(pose.RightWrist, 1); len(ys) == 1 {
		right = wristSample{ys[0], true}
	}
	return left, right
}

// sample builds the analyzer input. Wrist deltas are only set when both
// wrists appear in this frame and have earlier history.
func sample(m session.FrameMetrics, kp pose.Keypoints, prevLeft, prevRight wristSample) performance.Sample {
	s := performance.Sample{
		Speed:               m.Speed,
		Cadence:             m.Cadence,
		StrideLength:        m.StrideLength,
		VerticalOscillation: m.VerticalOscillation,
	}
	left, lok := kp[pose.LeftWrist]
	right, rok := kp[pose.RightWrist]
	if !lok || !rok || !prevLeft.ok || !prevRight.ok {
		return s
	}
	s.LeftWristDY = left.Y - prevLeft.y
	s.RightWristDY = right.Y - prevRight.y
	s.HasWrists = true
	return s
}
