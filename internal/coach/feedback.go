// Package coach turns the latest frame metrics into short coaching cues.
package coach

import (
	"github.com/banshee-data/cadence.report/internal/config"
	"github.com/banshee-data/cadence.report/internal/profile"
)

// Feedback categories.
const (
	CategorySpeed       = "speed"
	CategoryCadence     = "cadence"
	CategoryStride      = "stride"
	CategoryOscillation = "oscillation"
)

// Coaching messages.
const (
	MsgWalkingPace    = "Walking pace detected"
	MsgIncreasePace   = "Try to increase your pace"
	MsgGreatPace      = "Great pace! Maintain it if comfortable"
	MsgQuickerSteps   = "Try taking quicker steps"
	MsgLongerStrides  = "Consider slightly longer strides with fewer steps"
	MsgLengthenStride = "Try to lengthen your stride slightly"
	MsgReduceBounce   = "Reduce vertical bouncing to save energy"
)

// walkingSpeedMps is the speed below which the runner is considered walking.
const walkingSpeedMps = 1.5

// Targets are the thresholds feedback is measured against.
type Targets struct {
	SpeedMps        float64
	CadenceLow      float64
	CadenceHigh     float64
	StrideM         float64
	MaxOscillationM float64
}

// TargetsFor derives targets from tuning and the runner's profile.
func TargetsFor(cfg *config.TuningConfig, p profile.UserProfile) Targets {
	return Targets{
		SpeedMps:        cfg.GetTargetSpeedMps(),
		CadenceLow:      cfg.GetCadenceLow(),
		CadenceHigh:     cfg.GetCadenceHigh(),
		StrideM:         p.StrideLength(),
		MaxOscillationM: cfg.GetMaxOscillationM(),
	}
}

// Metrics is the subset of a frame's metrics feedback looks at.
type Metrics struct {
	Speed               float64
	Cadence             float64
	StrideLength        float64
	VerticalOscillation float64
}

// Generate returns every cue that applies, keyed by category. It never
// returns nil.
func Generate(m Metrics, t Targets) map[string]string {
	fb := make(map[string]string)

	switch {
	case m.Speed < walkingSpeedMps:
		fb[CategorySpeed] = MsgWalkingPace
	case m.Speed < 0.8*t.SpeedMps:
		fb[CategorySpeed] = MsgIncreasePace
	case m.Speed > 1.5*t.SpeedMps:
		fb[CategorySpeed] = MsgGreatPace
	}

	if m.Cadence > 0 {
		switch {
		case m.Cadence < t.CadenceLow:
			fb[CategoryCadence] = MsgQuickerSteps
		case m.Cadence > t.CadenceHigh:
			fb[CategoryCadence] = MsgLongerStrides
		}
	}

	if m.StrideLength > 0 && m.StrideLength < 0.8*t.StrideM {
		fb[CategoryStride] = MsgLengthenStride
	}

	if m.VerticalOscillation > t.MaxOscillationM {
		fb[CategoryOscillation] = MsgReduceBounce
	}
	return fb
}
