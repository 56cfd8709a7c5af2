// Package profile holds the runner's physical profile. The tracker only
// reads it: for calibration, calorie scaling and anatomical stride bounds.
package profile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidProfile is returned when a profile fails validation.
var ErrInvalidProfile = errors.New("invalid user profile")

// Gender values understood by BMR. Anything else is treated as GenderOther.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Stride bounds as a fraction of standing height in centimetres, giving metres.
const (
	minStrideFactor = 0.003
	maxStrideFactor = 0.013
)

// maxProfileSize caps profile files read from disk.
const maxProfileSize = 64 * 1024

// UserProfile describes the runner.
type UserProfile struct {
	Name             string  `json:"name,omitempty" yaml:"name,omitempty"`
	HeightCm         float64 `json:"height_cm" yaml:"height_cm"`
	WeightKg         float64 `json:"weight_kg" yaml:"weight_kg"`
	Age              int     `json:"age" yaml:"age"`
	Gender           string  `json:"gender" yaml:"gender"`
	StrideMultiplier float64 `json:"stride_multiplier" yaml:"stride_multiplier"`
}

// Default returns the profile used when none is supplied.
func Default() UserProfile {
	return UserProfile{
		HeightCm:         170,
		WeightKg:         70,
		Age:              30,
		Gender:           GenderOther,
		StrideMultiplier: 0.415,
	}
}

// Validate checks that every field is physically plausible.
func (p UserProfile) Validate() error {
	switch {
	case p.HeightCm < 50 || p.HeightCm > 250:
		return fmt.Errorf("%w: height %.1f cm out of range [50, 250]", ErrInvalidProfile, p.HeightCm)
	case p.WeightKg < 20 || p.WeightKg > 300:
		return fmt.Errorf("%w: weight %.1f kg out of range [20, 300]", ErrInvalidProfile, p.WeightKg)
	case p.Age < 5 || p.Age > 120:
		return fmt.Errorf("%w: age %d out of range [5, 120]", ErrInvalidProfile, p.Age)
	case p.StrideMultiplier <= 0 || p.StrideMultiplier > 1:
		return fmt.Errorf("%w: stride multiplier %.3f out of range (0, 1]", ErrInvalidProfile, p.StrideMultiplier)
	}
	switch strings.ToLower(p.Gender) {
	case GenderMale, GenderFemale, GenderOther, "":
	default:
		return fmt.Errorf("%w: unknown gender %q", ErrInvalidProfile, p.Gender)
	}
	return nil
}

// StrideLength is the anatomical default stride in metres.
func (p UserProfile) StrideLength() float64 {
	return p.HeightCm * p.StrideMultiplier / 100
}

// StrideBounds returns the plausible stride range in metres.
func (p UserProfile) StrideBounds() (lo, hi float64) {
	return minStrideFactor * p.HeightCm, maxStrideFactor * p.HeightCm
}

// BMR returns the Mifflin-St Jeor basal metabolic rate in kcal/day.
func (p UserProfile) BMR() float64 {
	base := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.Age)
	switch strings.ToLower(p.Gender) {
	case GenderMale:
		return base + 5
	case GenderFemale:
		return base - 161
	default:
		return base - 78
	}
}

// withDefaults fills zero fields from Default.
func (p UserProfile) withDefaults() UserProfile {
	d := Default()
	if p.HeightCm == 0 {
		p.HeightCm = d.HeightCm
	}
	if p.WeightKg == 0 {
		p.WeightKg = d.WeightKg
	}
	if p.Age == 0 {
		p.Age = d.Age
	}
	if p.Gender == "" {
		p.Gender = d.Gender
	}
	if p.StrideMultiplier == 0 {
		p.StrideMultiplier = d.StrideMultiplier
	}
	p.Gender = strings.ToLower(p.Gender)
	return p
}

// Parse decodes a YAML profile. Missing fields take their defaults.
func Parse(data []byte) (UserProfile, error) {
	var p UserProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return UserProfile{}, fmt.Errorf("failed to parse profile: %w", err)
	}
	p = p.withDefaults()
	if err := p.Validate(); err != nil {
		return UserProfile{}, err
	}
	return p, nil
}

// Normalize fills defaults and validates a profile supplied over the API.
func Normalize(p UserProfile) (UserProfile, error) {
	p = p.withDefaults()
	if err := p.Validate(); err != nil {
		return UserProfile{}, err
	}
	return p, nil
}

// Load reads a YAML profile file.
func Load(path string) (UserProfile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return UserProfile{}, fmt.Errorf("failed to stat profile: %w", err)
	}
	if info.Size() > maxProfileSize {
		return UserProfile{}, fmt.Errorf("profile file too large: %d bytes (max %d)", info.Size(), maxProfileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return UserProfile{}, fmt.Errorf("failed to read profile: %w", err)
	}
	return Parse(data)
}
