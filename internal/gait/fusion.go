package gait

import (
	"math"

	"github.com/banshee-data/cadence.report/internal/profile"
)

// Fusion limits, in m/s unless noted.
const (
	minMotionMps      = 0.1
	maxCadenceSPM     = 200
	referenceCadence  = 160
	lowSpeedCeiling   = 0.5
	boostFloor        = 0.5
	boostCeiling      = 1.2
	dampThreshold     = 4.0
	dampFactor        = 0.7
	maxRunningSpeed   = 5.0
	legWeight         = 0.6
	armWeightWithLegs = 0.2
	armWeightAlone    = 0.5
)

// FuseSpeed combines the weighted arm and leg speed with cadence into one
// bounded running speed.
func FuseSpeed(arm, leg, cadence float64) float64 {
	if arm < minMotionMps && leg < minMotionMps {
		return 0
	}

	var base float64
	if leg > 0 {
		base = leg*legWeight + arm*armWeightWithLegs
	} else {
		base = arm * armWeightAlone
	}
	if cadence > 0 && cadence < maxCadenceSPM {
		base = base*0.7 + (cadence/referenceCadence*base)*0.3
	}

	switch {
	case base < minMotionMps:
		return 0
	case base < lowSpeedCeiling:
		return clamp(2*base, boostFloor, boostCeiling)
	case base > dampThreshold:
		return math.Min(dampThreshold, dampFactor*base)
	}
	return clamp(base, 0, maxRunningSpeed)
}

// StrideLength estimates metres per stride. Without cadence it falls back to
// the profile's anatomical default.
func StrideLength(speed, cadence float64, p profile.UserProfile) float64 {
	if cadence <= 0 {
		return p.StrideLength()
	}
	lo, hi := p.StrideBounds()
	return clamp((speed*60)/(cadence*0.5), lo, hi)
}
