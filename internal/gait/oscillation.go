package gait

import (
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/cadence.report/internal/pose"
)

// OscillationEstimator approximates vertical torso bob from the spread of
// mean hip height.
type OscillationEstimator struct {
	cfg    Config
	smooth *pose.Ring[float64]
}

// NewOscillationEstimator returns an estimator with an empty smoothing ring.
func NewOscillationEstimator(cfg Config) *OscillationEstimator {
	return &OscillationEstimator{
		cfg:    cfg,
		smooth: pose.NewRing[float64](cfg.OscillationSmoothing),
	}
}

// Estimate returns the raw oscillation in metres when both hips are in view
// with enough history, otherwise the smoothed value or the default.
func (o *OscillationEstimator) Estimate(h *pose.History, ratio float64) float64 {
	if !h.Current(pose.LeftHip) || !h.Current(pose.RightHip) {
		return o.Smoothed()
	}
	nl, nr := h.Len(pose.LeftHip), h.Len(pose.RightHip)
	if nl < o.cfg.OscillationMinFrames || nr < o.cfg.OscillationMinFrames {
		return o.Smoothed()
	}
	n := min(nl, nr, o.cfg.OscillationSamples)
	left := h.LastY(pose.LeftHip, n)
	right := h.LastY(pose.RightHip, n)
	mid := make([]float64, n)
	for i := range mid {
		mid[i] = (left[i] + right[i]) / 2
	}
	v := stat.PopStdDev(mid, nil) * ratio
	o.smooth.Push(v)
	return v
}

// Smoothed returns the mean of the smoothing ring, or the default when it is
// empty.
func (o *OscillationEstimator) Smoothed() float64 {
	if o.smooth.Len() == 0 {
		return o.cfg.DefaultOscillationM
	}
	return stat.Mean(o.smooth.Values(), nil)
}

// Reset empties the smoothing ring.
func (o *OscillationEstimator) Reset() { o.smooth.Reset() }
