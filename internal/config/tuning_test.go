package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "noise_floor_px": 3.0,
  "teleport_px": 80,
  "cooldown_ankle": 12,
  "cadence_window": "8s",
  "max_frame_gap": "500ms",
  "target_speed_mps": 3.1
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.NoiseFloorPx == nil || *cfg.NoiseFloorPx != 3.0 {
		t.Errorf("Expected NoiseFloorPx 3.0, got %v", cfg.NoiseFloorPx)
	}
	if cfg.GetTeleportPx() != 80 {
		t.Errorf("Expected TeleportPx 80, got %f", cfg.GetTeleportPx())
	}
	if cfg.GetCooldownAnkle() != 12 {
		t.Errorf("Expected CooldownAnkle 12, got %d", cfg.GetCooldownAnkle())
	}
	if cfg.GetCadenceWindow() != 8*time.Second {
		t.Errorf("Expected CadenceWindow 8s, got %v", cfg.GetCadenceWindow())
	}
	if cfg.GetMaxFrameGap() != 500*time.Millisecond {
		t.Errorf("Expected MaxFrameGap 500ms, got %v", cfg.GetMaxFrameGap())
	}
	if cfg.GetTargetSpeedMps() != 3.1 {
		t.Errorf("Expected TargetSpeedMps 3.1, got %f", cfg.GetTargetSpeedMps())
	}
}

func TestLoadTuningConfigMissing(t *testing.T) {
	_, err := LoadTuningConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadTuningConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.json")

	invalidJSON := `{
  "noise_floor_px": "invalid"
`
	if err := os.WriteFile(configPath, []byte(invalidJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TuningConfig
		wantErr bool
	}{
		{
			name:    "empty config is valid",
			cfg:     &TuningConfig{},
			wantErr: false,
		},
		{
			name:    "frame fill ratio zero",
			cfg:     &TuningConfig{FrameFillRatio: ptrFloat64(0)},
			wantErr: true,
		},
		{
			name:    "frame fill ratio above one",
			cfg:     &TuningConfig{FrameFillRatio: ptrFloat64(1.2)},
			wantErr: true,
		},
		{
			name:    "teleport below noise floor",
			cfg:     &TuningConfig{NoiseFloorPx: ptrFloat64(5), TeleportPx: ptrFloat64(4)},
			wantErr: true,
		},
		{
			name:    "negative cooldown",
			cfg:     &TuningConfig{CooldownKnee: ptrInt(-1)},
			wantErr: true,
		},
		{
			name:    "step window too short",
			cfg:     &TuningConfig{StepWindow: ptrInt(2)},
			wantErr: true,
		},
		{
			name:    "history smaller than window",
			cfg:     &TuningConfig{HistoryCapacity: ptrInt(4)},
			wantErr: true,
		},
		{
			name:    "cadence bounds inverted",
			cfg:     &TuningConfig{CadenceLow: ptrFloat64(200)},
			wantErr: true,
		},
		{
			name:    "invalid cadence window",
			cfg:     &TuningConfig{CadenceWindow: ptrString("soon")},
			wantErr: true,
		},
		{
			name:    "negative frame gap",
			cfg:     &TuningConfig{MaxFrameGap: ptrString("-1s")},
			wantErr: true,
		},
		{
			name:    "confidence threshold out of range",
			cfg:     &TuningConfig{ConfidenceThreshold: ptrFloat64(1.5)},
			wantErr: true,
		},
		{
			name:    "negative target speed",
			cfg:     &TuningConfig{TargetSpeedMps: ptrFloat64(-2)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetCadenceWindow(t *testing.T) {
	tests := []struct {
		name string
		cfg  *TuningConfig
		want time.Duration
	}{
		{"explicit", &TuningConfig{CadenceWindow: ptrString("15s")}, 15 * time.Second},
		{"nil pointer returns default", &TuningConfig{}, 10 * time.Second},
		{"empty string returns default", &TuningConfig{CadenceWindow: ptrString("")}, 10 * time.Second},
		{"invalid duration returns default", &TuningConfig{CadenceWindow: ptrString("invalid")}, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.GetCadenceWindow(); got != tt.want {
				t.Errorf("GetCadenceWindow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadDefaultConfigFile(t *testing.T) {
	cfg, err := LoadTuningConfig("../../config/tuning.defaults.json")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}

	// The defaults file and the compiled-in getters must agree.
	empty := EmptyTuningConfig()
	if cfg.GetNoiseFloorPx() != empty.GetNoiseFloorPx() {
		t.Errorf("noise floor mismatch: file %f, code %f", cfg.GetNoiseFloorPx(), empty.GetNoiseFloorPx())
	}
	if cfg.GetCooldownAnkle() != empty.GetCooldownAnkle() ||
		cfg.GetCooldownKnee() != empty.GetCooldownKnee() ||
		cfg.GetCooldownWrist() != empty.GetCooldownWrist() {
		t.Error("cooldown defaults differ between file and code")
	}
	if cfg.GetCadenceWindow() != empty.GetCadenceWindow() {
		t.Errorf("cadence window mismatch: file %v, code %v", cfg.GetCadenceWindow(), empty.GetCadenceWindow())
	}
	if cfg.GetHistoryCapacity() != empty.GetHistoryCapacity() {
		t.Errorf("history capacity mismatch: file %d, code %d", cfg.GetHistoryCapacity(), empty.GetHistoryCapacity())
	}
	if cfg.GetMaxCaloriesPerFrame() != empty.GetMaxCaloriesPerFrame() {
		t.Errorf("calorie cap mismatch: file %f, code %f", cfg.GetMaxCaloriesPerFrame(), empty.GetMaxCaloriesPerFrame())
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if cfg.GetStepWindow() != 5 {
		t.Errorf("GetStepWindow() = %d, want 5", cfg.GetStepWindow())
	}
}

func TestLoadTuningConfigRejectsNonJSON(t *testing.T) {
	_, err := LoadTuningConfig("/some/path/config.yaml")
	if err == nil {
		t.Error("Expected error for non-.json extension, got nil")
	}
}

func TestLoadTuningConfigRejectsLargeFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "large.json")

	largeData := make([]byte, 2*1024*1024) // 2MB
	if err := os.WriteFile(configPath, largeData, 0644); err != nil {
		t.Fatalf("Failed to write large file: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected error for file size > 1MB, got nil")
	}
}

func TestGetterDefaults(t *testing.T) {
	cfg := &TuningConfig{}

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"FrameFillRatio", cfg.GetFrameFillRatio(), 0.9},
		{"NoiseFloorPx", cfg.GetNoiseFloorPx(), 2},
		{"TeleportPx", cfg.GetTeleportPx(), 100},
		{"MaxImmediateSpeedMps", cfg.GetMaxImmediateSpeedMps(), 8},
		{"MaxJointSpeedMps", cfg.GetMaxJointSpeedMps(), 6},
		{"ArmSpeedWeight", cfg.GetArmSpeedWeight(), 0.8},
		{"LegSpeedWeight", cfg.GetLegSpeedWeight(), 1.2},
		{"StepDeltaPx", cfg.GetStepDeltaPx(), 5},
		{"DefaultOscillationM", cfg.GetDefaultOscillationM(), 0.05},
		{"MaxOscillationM", cfg.GetMaxOscillationM(), 0.10},
		{"ConfidenceThreshold", cfg.GetConfidenceThreshold(), 0.5},
		{"TargetSpeedMps", cfg.GetTargetSpeedMps(), 2.5},
		{"CadenceLow", cfg.GetCadenceLow(), 150},
		{"CadenceHigh", cfg.GetCadenceHigh(), 190},
		{"MaxDistanceStepM", cfg.GetMaxDistanceStepM(), 10},
		{"MaxSpeedSanityMps", cfg.GetMaxSpeedSanityMps(), 10},
		{"MaxCaloriesPerFrame", cfg.GetMaxCaloriesPerFrame(), 0.1},
		{"HistoryCapacity", float64(cfg.GetHistoryCapacity()), 30},
		{"OscillationSmoothing", float64(cfg.GetOscillationSmoothing()), 60},
		{"SpeedWindow", float64(cfg.GetSpeedWindow()), 5},
		{"StepMinReversals", float64(cfg.GetStepMinReversals()), 2},
		{"CadenceMinSteps", float64(cfg.GetCadenceMinSteps()), 4},
		{"OscillationSamples", float64(cfg.GetOscillationSamples()), 10},
		{"OscillationMinFrames", float64(cfg.GetOscillationMinFrames()), 5},
		{"PerformanceWindow", float64(cfg.GetPerformanceWindow()), 30},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if cfg.GetMaxFrameGap() != time.Second {
		t.Errorf("GetMaxFrameGap() = %v, want 1s", cfg.GetMaxFrameGap())
	}
}
