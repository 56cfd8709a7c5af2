package gait

import (
	"math"

	"github.com/banshee-data/cadence.report/internal/pose"
)

// minMonotonicRun is the number of consecutive samples a one-directional
// swing must span.
const minMonotonicRun = 3

// Detection describes a step found this frame.
type Detection struct {
	Group    string
	Joint    pose.Joint
	Cooldown int
}

// stepSource is one rung of the detection cascade: a precondition on the
// history plus the pattern matcher run when it holds.
type stepSource struct {
	group    pose.Group
	cooldown int
	ready    func(h *pose.History) bool
	detect   func(h *pose.History) (pose.Joint, bool)
}

// StepDetector is a two-state machine (armed, cooling down) shared across all
// joint groups. While armed it runs the cascade ankles, knees, wrists and
// stops at the first group that yields a step.
type StepDetector struct {
	cfg      Config
	sources  []stepSource
	cooldown int
}

// NewStepDetector returns an armed detector.
func NewStepDetector(cfg Config) *StepDetector {
	d := &StepDetector{cfg: cfg}
	d.sources = []stepSource{
		d.source(pose.Ankles, cfg.CooldownAnkle),
		d.source(pose.Knees, cfg.CooldownKnee),
		d.source(pose.Wrists, cfg.CooldownWrist),
	}
	return d
}

func (d *StepDetector) source(g pose.Group, cooldown int) stepSource {
	return stepSource{
		group:    g,
		cooldown: cooldown,
		ready: func(h *pose.History) bool {
			return h.Tracking(g, d.cfg.StepWindow)
		},
		detect: func(h *pose.History) (pose.Joint, bool) {
			for _, j := range []pose.Joint{g.Left, g.Right} {
				if !h.Current(j) || h.Len(j) < d.cfg.StepWindow {
					continue
				}
				if d.matches(h.LastY(j, d.cfg.StepWindow)) {
					return j, true
				}
			}
			return 0, false
		},
	}
}

// Update advances the state machine by one frame. It reports a detection at
// most once per frame.
func (d *StepDetector) Update(h *pose.History) (Detection, bool) {
	if d.cooldown > 0 {
		d.cooldown--
		return Detection{}, false
	}
	for _, s := range d.sources {
		if !s.ready(h) {
			continue
		}
		if j, ok := s.detect(h); ok {
			d.cooldown = s.cooldown
			return Detection{Group: s.group.Name, Joint: j, Cooldown: s.cooldown}, true
		}
	}
	return Detection{}, false
}

// Cooldown returns the frames left before the detector re-arms.
func (d *StepDetector) Cooldown() int { return d.cooldown }

// Reset re-arms the detector.
func (d *StepDetector) Reset() { d.cooldown = 0 }

func (d *StepDetector) matches(ys []float64) bool {
	return monotonicSwing(ys, minMonotonicRun, d.cfg.StepDeltaPx) ||
		reversals(ys, d.cfg.NoiseFloorPx) >= d.cfg.StepMinReversals
}

// monotonicSwing reports whether ys contains a strictly monotonic run of at
// least minRun samples whose endpoints differ by more than minDelta.
func monotonicSwing(ys []float64, minRun int, minDelta float64) bool {
	start, dir := 0, 0
	closeRun := func(end int) bool {
		return dir != 0 && end-start+1 >= minRun && math.Abs(ys[end]-ys[start]) > minDelta
	}
	for i := 1; i < len(ys); i++ {
		s := sign(ys[i] - ys[i-1])
		if s == dir && s != 0 {
			continue
		}
		if closeRun(i - 1) {
			return true
		}
		if s == 0 {
			start, dir = i, 0
		} else {
			start, dir = i-1, s
		}
	}
	return len(ys) > 0 && closeRun(len(ys)-1)
}

// reversals counts direction changes in ys. Both deltas around a turning
// point must reach floor so jitter does not register.
func reversals(ys []float64, floor float64) int {
	n := 0
	for i := 1; i+1 < len(ys); i++ {
		d1 := ys[i] - ys[i-1]
		d2 := ys[i+1] - ys[i]
		if math.Abs(d1) < floor || math.Abs(d2) < floor {
			continue
		}
		if sign(d1) != sign(d2) {
			n++
		}
	}
	return n
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
