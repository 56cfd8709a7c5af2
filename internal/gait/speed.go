package gait

import (
	"math"

	"github.com/banshee-data/cadence.report/internal/pose"
)

// SpeedEstimator derives per-joint speeds from the keypoint history.
type SpeedEstimator struct {
	cfg Config
}

// NewSpeedEstimator returns an estimator using cfg's gates and caps.
func NewSpeedEstimator(cfg Config) *SpeedEstimator {
	return &SpeedEstimator{cfg: cfg}
}

// JointSpeed is the speed breakdown for one joint.
type JointSpeed struct {
	Immediate    float64
	HasImmediate bool
	Windowed     float64
	HasWindowed  bool
	Fused        float64
}

// Movement is the weighted arm and leg speed for one frame.
type Movement struct {
	Arm float64
	Leg float64
	// LegSource names the group that fed Leg ("ankle", "knee" or "").
	LegSource string
}

// Joint estimates j's speed over the last SpeedWindow samples. dt is the
// current frame interval in seconds and ratio the pixels-to-metres scale.
// A joint missing from the latest frame has no speed.
func (e *SpeedEstimator) Joint(h *pose.History, j pose.Joint, dt, ratio float64) JointSpeed {
	var out JointSpeed
	if dt <= 0 || !h.Current(j) {
		return out
	}
	pts := h.Last(j, e.cfg.SpeedWindow)
	if len(pts) < 2 {
		return out
	}

	var (
		sum        float64
		validCount int
	)
	for i := 1; i < len(pts); i++ {
		d, ok := e.displacement(pts[i-1], pts[i])
		if !ok {
			continue
		}
		m := d * ratio
		sum += m
		validCount++
		if i == len(pts)-1 {
			out.Immediate = math.Min(m/dt, e.cfg.MaxImmediateSpeedMps)
			out.HasImmediate = true
		}
	}
	if validCount >= 2 {
		out.Windowed = sum / (float64(validCount) * dt)
		out.HasWindowed = true
	}

	switch {
	case out.HasImmediate && out.HasWindowed:
		out.Fused = 0.3*out.Immediate + 0.7*out.Windowed
	case out.HasImmediate:
		out.Fused = out.Immediate
	case out.HasWindowed:
		out.Fused = out.Windowed
	}
	out.Fused = clamp(out.Fused, 0, e.cfg.MaxJointSpeedMps)
	return out
}

// displacement returns the pixel distance between a and b, or false when the
// move is below the noise floor or a teleport.
func (e *SpeedEstimator) displacement(a, b pose.Point) (float64, bool) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	if math.Abs(dx) < e.cfg.NoiseFloorPx && math.Abs(dy) < e.cfg.NoiseFloorPx {
		return 0, false
	}
	d := math.Hypot(dx, dy)
	if d > e.cfg.TeleportPx {
		return 0, false
	}
	return d, true
}

// Group returns the faster side of g.
func (e *SpeedEstimator) Group(h *pose.History, g pose.Group, dt, ratio float64) float64 {
	l := e.Joint(h, g.Left, dt, ratio).Fused
	r := e.Joint(h, g.Right, dt, ratio).Fused
	return math.Max(l, r)
}

// Movement combines wrist speed into the arm signal and ankle speed into the
// leg signal. Knees stand in for the legs when neither ankle is being tracked.
func (e *SpeedEstimator) Movement(h *pose.History, dt, ratio float64) Movement {
	m := Movement{
		Arm: e.Group(h, pose.Wrists, dt, ratio) * e.cfg.ArmSpeedWeight,
	}
	switch {
	case h.Tracking(pose.Ankles, 2):
		m.Leg = e.Group(h, pose.Ankles, dt, ratio) * e.cfg.LegSpeedWeight
		m.LegSource = pose.Ankles.Name
	case h.Tracking(pose.Knees, 2):
		m.Leg = e.Group(h, pose.Knees, dt, ratio) * e.cfg.LegSpeedWeight
		m.LegSource = pose.Knees.Name
	}
	return m
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
