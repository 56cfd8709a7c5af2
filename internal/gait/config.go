// Package gait implements the per-frame running estimators: pixel-to-metre
// calibration, per-joint speed, the step detector cascade, cadence, vertical
// oscillation, speed/stride fusion and calorie integration.
package gait

import (
	"time"

	"github.com/banshee-data/cadence.report/internal/config"
)

// Config holds the behavioral constants of the estimators.
type Config struct {
	HistoryCapacity      int
	OscillationSmoothing int

	FrameFillRatio float64

	NoiseFloorPx         float64
	TeleportPx           float64
	SpeedWindow          int
	MaxImmediateSpeedMps float64
	MaxJointSpeedMps     float64
	ArmSpeedWeight       float64
	LegSpeedWeight       float64

	StepWindow       int
	StepDeltaPx      float64
	StepMinReversals int
	CooldownAnkle    int
	CooldownKnee     int
	CooldownWrist    int

	CadenceWindow   time.Duration
	CadenceMinSteps int

	OscillationSamples   int
	OscillationMinFrames int
	DefaultOscillationM  float64

	MaxCaloriesPerFrame float64
}

// ConfigFromTuning builds a Config from the tuning file, falling back to the
// compiled-in defaults for any unset field.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		HistoryCapacity:      cfg.GetHistoryCapacity(),
		OscillationSmoothing: cfg.GetOscillationSmoothing(),
		FrameFillRatio:       cfg.GetFrameFillRatio(),
		NoiseFloorPx:         cfg.GetNoiseFloorPx(),
		TeleportPx:           cfg.GetTeleportPx(),
		SpeedWindow:          cfg.GetSpeedWindow(),
		MaxImmediateSpeedMps: cfg.GetMaxImmediateSpeedMps(),
		MaxJointSpeedMps:     cfg.GetMaxJointSpeedMps(),
		ArmSpeedWeight:       cfg.GetArmSpeedWeight(),
		LegSpeedWeight:       cfg.GetLegSpeedWeight(),
		StepWindow:           cfg.GetStepWindow(),
		StepDeltaPx:          cfg.GetStepDeltaPx(),
		StepMinReversals:     cfg.GetStepMinReversals(),
		CooldownAnkle:        cfg.GetCooldownAnkle(),
		CooldownKnee:         cfg.GetCooldownKnee(),
		CooldownWrist:        cfg.GetCooldownWrist(),
		CadenceWindow:        cfg.GetCadenceWindow(),
		CadenceMinSteps:      cfg.GetCadenceMinSteps(),
		OscillationSamples:   cfg.GetOscillationSamples(),
		OscillationMinFrames: cfg.GetOscillationMinFrames(),
		DefaultOscillationM:  cfg.GetDefaultOscillationM(),
		MaxCaloriesPerFrame:  cfg.GetMaxCaloriesPerFrame(),
	}
}

// DefaultConfig returns the compiled-in defaults.
func DefaultConfig() Config {
	return ConfigFromTuning(config.EmptyTuningConfig())
}
