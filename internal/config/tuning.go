package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for the gait estimators.
// Every field is optional: the Get* accessors fall back to the compiled-in
// defaults, so partial files (and the zero value) are always usable. The
// schema matches the /api/config endpoint.
type TuningConfig struct {
	// Keypoint history
	HistoryCapacity      *int `json:"history_capacity,omitempty"`
	OscillationSmoothing *int `json:"oscillation_smoothing,omitempty"`

	// Calibration
	FrameFillRatio *float64 `json:"frame_fill_ratio,omitempty"`

	// Speed estimator
	NoiseFloorPx         *float64 `json:"noise_floor_px,omitempty"`
	TeleportPx           *float64 `json:"teleport_px,omitempty"`
	SpeedWindow          *int     `json:"speed_window,omitempty"`
	MaxImmediateSpeedMps *float64 `json:"max_immediate_speed_mps,omitempty"`
	MaxJointSpeedMps     *float64 `json:"max_joint_speed_mps,omitempty"`
	ArmSpeedWeight       *float64 `json:"arm_speed_weight,omitempty"`
	LegSpeedWeight       *float64 `json:"leg_speed_weight,omitempty"`

	// Step detector
	StepWindow       *int     `json:"step_window,omitempty"`
	StepDeltaPx      *float64 `json:"step_delta_px,omitempty"`
	StepMinReversals *int     `json:"step_min_reversals,omitempty"`
	CooldownAnkle    *int     `json:"cooldown_ankle,omitempty"`
	CooldownKnee     *int     `json:"cooldown_knee,omitempty"`
	CooldownWrist    *int     `json:"cooldown_wrist,omitempty"`

	// Cadence
	CadenceWindow   *string `json:"cadence_window,omitempty"` // duration string like "10s"
	CadenceMinSteps *int    `json:"cadence_min_steps,omitempty"`

	// Vertical oscillation
	OscillationSamples   *int     `json:"oscillation_samples,omitempty"`
	DefaultOscillationM  *float64 `json:"default_oscillation_m,omitempty"`
	MaxOscillationM      *float64 `json:"max_oscillation_m,omitempty"`
	OscillationMinFrames *int     `json:"oscillation_min_frames,omitempty"`

	// Frame timing
	MaxFrameGap *string `json:"max_frame_gap,omitempty"` // duration string like "1s"

	// Detector collaborator (informational; filtering happens upstream)
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`

	// Coaching targets
	TargetSpeedMps *float64 `json:"target_speed_mps,omitempty"`
	CadenceLow     *float64 `json:"cadence_low,omitempty"`
	CadenceHigh    *float64 `json:"cadence_high,omitempty"`

	// Session sanity bounds
	MaxDistanceStepM    *float64 `json:"max_distance_step_m,omitempty"`
	MaxSpeedSanityMps   *float64 `json:"max_speed_sanity_mps,omitempty"`
	MaxCaloriesPerFrame *float64 `json:"max_calories_per_frame,omitempty"`

	// Performance analyzer
	PerformanceWindow *int `json:"performance_window,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted from
// the file keep their defaults.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath,
// searching the current directory and its parents up to the repository root.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/tools/replay/
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	positiveInts := []struct {
		name string
		v    *int
	}{
		{"history_capacity", c.HistoryCapacity},
		{"oscillation_smoothing", c.OscillationSmoothing},
		{"speed_window", c.SpeedWindow},
		{"step_window", c.StepWindow},
		{"cadence_min_steps", c.CadenceMinSteps},
		{"oscillation_samples", c.OscillationSamples},
		{"oscillation_min_frames", c.OscillationMinFrames},
		{"performance_window", c.PerformanceWindow},
	}
	for _, p := range positiveInts {
		if p.v != nil && *p.v < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", p.name, *p.v)
		}
	}

	if c.SpeedWindow != nil && *c.SpeedWindow < 2 {
		return fmt.Errorf("speed_window must be at least 2, got %d", *c.SpeedWindow)
	}
	if c.StepWindow != nil && *c.StepWindow < 3 {
		return fmt.Errorf("step_window must be at least 3, got %d", *c.StepWindow)
	}
	if c.HistoryCapacity != nil {
		window := c.GetSpeedWindow()
		if w := c.GetStepWindow(); w > window {
			window = w
		}
		if *c.HistoryCapacity < window {
			return fmt.Errorf("history_capacity (%d) must hold the largest detection window (%d)", *c.HistoryCapacity, window)
		}
	}

	for name, v := range map[string]*int{
		"cooldown_ankle":     c.CooldownAnkle,
		"cooldown_knee":      c.CooldownKnee,
		"cooldown_wrist":     c.CooldownWrist,
		"step_min_reversals": c.StepMinReversals,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", name, *v)
		}
	}

	if c.FrameFillRatio != nil {
		if *c.FrameFillRatio <= 0 || *c.FrameFillRatio > 1 {
			return fmt.Errorf("frame_fill_ratio must be in (0, 1], got %f", *c.FrameFillRatio)
		}
	}

	if c.ConfidenceThreshold != nil {
		if *c.ConfidenceThreshold < 0 || *c.ConfidenceThreshold > 1 {
			return fmt.Errorf("confidence_threshold must be between 0 and 1, got %f", *c.ConfidenceThreshold)
		}
	}

	for name, v := range map[string]*float64{
		"noise_floor_px":          c.NoiseFloorPx,
		"step_delta_px":           c.StepDeltaPx,
		"default_oscillation_m":   c.DefaultOscillationM,
		"max_oscillation_m":       c.MaxOscillationM,
		"target_speed_mps":        c.TargetSpeedMps,
		"cadence_low":             c.CadenceLow,
		"max_calories_per_frame":  c.MaxCaloriesPerFrame,
		"arm_speed_weight":        c.ArmSpeedWeight,
		"leg_speed_weight":        c.LegSpeedWeight,
		"max_distance_step_m":     c.MaxDistanceStepM,
		"max_speed_sanity_mps":    c.MaxSpeedSanityMps,
		"teleport_px":             c.TeleportPx,
		"max_immediate_speed_mps": c.MaxImmediateSpeedMps,
		"max_joint_speed_mps":     c.MaxJointSpeedMps,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", name, *v)
		}
	}

	if c.TeleportPx != nil && *c.TeleportPx <= c.GetNoiseFloorPx() {
		return fmt.Errorf("teleport_px (%f) must exceed noise_floor_px (%f)", *c.TeleportPx, c.GetNoiseFloorPx())
	}

	if c.CadenceLow != nil || c.CadenceHigh != nil {
		if c.GetCadenceHigh() <= c.GetCadenceLow() {
			return fmt.Errorf("cadence_high (%f) must exceed cadence_low (%f)", c.GetCadenceHigh(), c.GetCadenceLow())
		}
	}

	if c.CadenceWindow != nil && *c.CadenceWindow != "" {
		d, err := time.ParseDuration(*c.CadenceWindow)
		if err != nil {
			return fmt.Errorf("invalid cadence_window '%s': %w", *c.CadenceWindow, err)
		}
		if d <= 0 {
			return fmt.Errorf("cadence_window must be positive, got %s", d)
		}
	}

	if c.MaxFrameGap != nil && *c.MaxFrameGap != "" {
		d, err := time.ParseDuration(*c.MaxFrameGap)
		if err != nil {
			return fmt.Errorf("invalid max_frame_gap '%s': %w", *c.MaxFrameGap, err)
		}
		if d <= 0 {
			return fmt.Errorf("max_frame_gap must be positive, got %s", d)
		}
	}

	return nil
}

// GetHistoryCapacity returns the per-joint history capacity or the default.
func (c *TuningConfig) GetHistoryCapacity() int {
	if c.HistoryCapacity == nil {
		return 30
	}
	return *c.HistoryCapacity
}

// GetOscillationSmoothing returns the oscillation smoothing buffer size or the default.
func (c *TuningConfig) GetOscillationSmoothing() int {
	if c.OscillationSmoothing == nil {
		return 60
	}
	return *c.OscillationSmoothing
}

// GetFrameFillRatio returns the fraction of frame height the subject occupies.
func (c *TuningConfig) GetFrameFillRatio() float64 {
	if c.FrameFillRatio == nil {
		return 0.9
	}
	return *c.FrameFillRatio
}

// GetNoiseFloorPx returns the noise_floor_px value or the default.
func (c *TuningConfig) GetNoiseFloorPx() float64 {
	if c.NoiseFloorPx == nil {
		return 2.0
	}
	return *c.NoiseFloorPx
}

// GetTeleportPx returns the teleport_px value or the default.
func (c *TuningConfig) GetTeleportPx() float64 {
	if c.TeleportPx == nil {
		return 100.0
	}
	return *c.TeleportPx
}

// GetSpeedWindow returns the speed_window value or the default.
func (c *TuningConfig) GetSpeedWindow() int {
	if c.SpeedWindow == nil {
		return 5
	}
	return *c.SpeedWindow
}

// GetMaxImmediateSpeedMps returns the max_immediate_speed_mps value or the default.
func (c *TuningConfig) GetMaxImmediateSpeedMps() float64 {
	if c.MaxImmediateSpeedMps == nil {
		return 8.0
	}
	return *c.MaxImmediateSpeedMps
}

// GetMaxJointSpeedMps returns the max_joint_speed_mps value or the default.
func (c *TuningConfig) GetMaxJointSpeedMps() float64 {
	if c.MaxJointSpeedMps == nil {
		return 6.0
	}
	return *c.MaxJointSpeedMps
}

// GetArmSpeedWeight returns the arm_speed_weight value or the default.
func (c *TuningConfig) GetArmSpeedWeight() float64 {
	if c.ArmSpeedWeight == nil {
		return 0.8
	}
	return *c.ArmSpeedWeight
}

// GetLegSpeedWeight returns the leg_speed_weight value or the default.
func (c *TuningConfig) GetLegSpeedWeight() float64 {
	if c.LegSpeedWeight == nil {
		return 1.2
	}
	return *c.LegSpeedWeight
}

// GetStepWindow returns the step_window value or the default.
func (c *TuningConfig) GetStepWindow() int {
	if c.StepWindow == nil {
		return 5
	}
	return *c.StepWindow
}

// GetStepDeltaPx returns the step_delta_px value or the default.
func (c *TuningConfig) GetStepDeltaPx() float64 {
	if c.StepDeltaPx == nil {
		return 5.0
	}
	return *c.StepDeltaPx
}

// GetStepMinReversals returns the step_min_reversals value or the default.
func (c *TuningConfig) GetStepMinReversals() int {
	if c.StepMinReversals == nil {
		return 2
	}
	return *c.StepMinReversals
}

// GetCooldownAnkle returns the cooldown_ankle value or the default.
func (c *TuningConfig) GetCooldownAnkle() int {
	if c.CooldownAnkle == nil {
		return 10
	}
	return *c.CooldownAnkle
}

// GetCooldownKnee returns the cooldown_knee value or the default.
func (c *TuningConfig) GetCooldownKnee() int {
	if c.CooldownKnee == nil {
		return 9
	}
	return *c.CooldownKnee
}

// GetCooldownWrist returns the cooldown_wrist value or the default.
func (c *TuningConfig) GetCooldownWrist() int {
	if c.CooldownWrist == nil {
		return 8
	}
	return *c.CooldownWrist
}

// GetCadenceWindow parses and returns the CadenceWindow as a time.Duration.
func (c *TuningConfig) GetCadenceWindow() time.Duration {
	if c.CadenceWindow == nil || *c.CadenceWindow == "" {
		return 10 * time.Second
	}
	d, err := time.ParseDuration(*c.CadenceWindow)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetCadenceMinSteps returns the cadence_min_steps value or the default.
func (c *TuningConfig) GetCadenceMinSteps() int {
	if c.CadenceMinSteps == nil {
		return 4
	}
	return *c.CadenceMinSteps
}

// GetOscillationSamples returns the oscillation_samples value or the default.
func (c *TuningConfig) GetOscillationSamples() int {
	if c.OscillationSamples == nil {
		return 10
	}
	return *c.OscillationSamples
}

// GetOscillationMinFrames returns the oscillation_min_frames value or the default.
func (c *TuningConfig) GetOscillationMinFrames() int {
	if c.OscillationMinFrames == nil {
		return 5
	}
	return *c.OscillationMinFrames
}

// GetDefaultOscillationM returns the default_oscillation_m value or the default.
func (c *TuningConfig) GetDefaultOscillationM() float64 {
	if c.DefaultOscillationM == nil {
		return 0.05
	}
	return *c.DefaultOscillationM
}

// GetMaxOscillationM returns the max_oscillation_m value or the default.
func (c *TuningConfig) GetMaxOscillationM() float64 {
	if c.MaxOscillationM == nil {
		return 0.10
	}
	return *c.MaxOscillationM
}

// GetMaxFrameGap parses and returns the MaxFrameGap as a time.Duration.
func (c *TuningConfig) GetMaxFrameGap() time.Duration {
	if c.MaxFrameGap == nil || *c.MaxFrameGap == "" {
		return time.Second
	}
	d, err := time.ParseDuration(*c.MaxFrameGap)
	if err != nil {
		return time.Second
	}
	return d
}

// GetConfidenceThreshold returns the confidence_threshold value or the default.
func (c *TuningConfig) GetConfidenceThreshold() float64 {
	if c.ConfidenceThreshold == nil {
		return 0.5
	}
	return *c.ConfidenceThreshold
}

// GetTargetSpeedMps returns the target_speed_mps value or the default.
func (c *TuningConfig) GetTargetSpeedMps() float64 {
	if c.TargetSpeedMps == nil {
		return 2.5
	}
	return *c.TargetSpeedMps
}

// GetCadenceLow returns the cadence_low value or the default.
func (c *TuningConfig) GetCadenceLow() float64 {
	if c.CadenceLow == nil {
		return 150
	}
	return *c.CadenceLow
}

// GetCadenceHigh returns the cadence_high value or the default.
func (c *TuningConfig) GetCadenceHigh() float64 {
	if c.CadenceHigh == nil {
		return 190
	}
	return *c.CadenceHigh
}

// GetMaxDistanceStepM returns the max_distance_step_m value or the default.
func (c *TuningConfig) GetMaxDistanceStepM() float64 {
	if c.MaxDistanceStepM == nil {
		return 10.0
	}
	return *c.MaxDistanceStepM
}

// GetMaxSpeedSanityMps returns the max_speed_sanity_mps value or the default.
func (c *TuningConfig) GetMaxSpeedSanityMps() float64 {
	if c.MaxSpeedSanityMps == nil {
		return 10.0
	}
	return *c.MaxSpeedSanityMps
}

// GetMaxCaloriesPerFrame returns the max_calories_per_frame value or the default.
func (c *TuningConfig) GetMaxCaloriesPerFrame() float64 {
	if c.MaxCaloriesPerFrame == nil {
		return 0.1
	}
	return *c.MaxCaloriesPerFrame
}

// GetPerformanceWindow returns the performance_window value or the default.
func (c *TuningConfig) GetPerformanceWindow() int {
	if c.PerformanceWindow == nil {
		return 30
	}
	return *c.PerformanceWindow
}
