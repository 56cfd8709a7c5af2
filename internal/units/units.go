// Package units converts running speeds and distances for display.
// Everything is computed in metres and metres per second.
package units

import (
	"fmt"
	"math"
	"strings"
)

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ConvertSpeed converts a speed from metres per second to the target units.
// Unknown units leave the value in m/s.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * 2.2369362920544
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// SpeedLabel returns the display suffix for a unit.
func SpeedLabel(unit string) string {
	switch unit {
	case MPH:
		return "mph"
	case KMPH, KPH:
		return "km/h"
	default:
		return "m/s"
	}
}

// Pace formats a speed as minutes per kilometre, e.g. "5:33 min/km".
// Speeds too slow to be running pace render as "--:-- min/km".
func Pace(speedMPS float64) string {
	if speedMPS <= 0.1 || math.IsNaN(speedMPS) || math.IsInf(speedMPS, 0) {
		return "--:-- min/km"
	}
	secPerKm := int(math.Round(1000 / speedMPS))
	return fmt.Sprintf("%d:%02d min/km", secPerKm/60, secPerKm%60)
}

// Distance formats metres as "850 m" below a kilometre and "2.35 km" above.
func Distance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.2f km", meters/1000)
}
