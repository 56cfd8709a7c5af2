package gait

import "math"

// Body weight bounds used for calorie scaling, kg.
const (
	minCalorieWeightKg = 40
	maxCalorieWeightKg = 150
)

// metBrackets maps upper speed bounds (m/s) to MET values.
var metBrackets = []struct {
	below float64
	met   float64
}{
	{0.5, 1.5},
	{1.0, 2.0},
	{1.7, 2.8},
	{2.2, 4.3},
	{3.0, 7.0},
	{4.2, 9.8},
}

const maxMET = 11.8

// MET returns the metabolic equivalent for a speed.
func MET(speed float64) float64 {
	for _, b := range metBrackets {
		if speed < b.below {
			return b.met
		}
	}
	return maxMET
}

// Calories returns the kcal burned over dt seconds at speed, capped at
// maxPerFrame.
func Calories(speed, weightKg, dt, maxPerFrame float64) float64 {
	if speed <= 0 || dt <= 0 {
		return 0
	}
	w := clamp(weightKg, minCalorieWeightKg, maxCalorieWeightKg)
	kcal := MET(speed) * 3.5 * w / (200 * 60) * math.Min(1, dt)
	return math.Min(kcal, maxPerFrame)
}
