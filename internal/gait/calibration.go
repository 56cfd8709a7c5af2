package gait

import "math"

// initialPixelsToMeters is the ratio in effect before the first frame height
// is seen.
const initialPixelsToMeters = 0.01

// Calibration converts pixel distances to metres from the frame height and
// the subject's standing height.
type Calibration struct {
	fillRatio float64
	ratio     float64
}

// NewCalibration returns a calibration that assumes the subject spans
// fillRatio of the frame height.
func NewCalibration(fillRatio float64) *Calibration {
	if fillRatio <= 0 || fillRatio > 1 {
		fillRatio = 0.9
	}
	return &Calibration{fillRatio: fillRatio, ratio: initialPixelsToMeters}
}

// SetRatio recomputes the ratio. Degenerate inputs leave it unchanged so the
// ratio is always positive and finite.
func (c *Calibration) SetRatio(frameHeight int, subjectHeightCm float64) {
	if frameHeight <= 0 || subjectHeightCm <= 0 {
		return
	}
	r := (subjectHeightCm / 100) / (float64(frameHeight) * c.fillRatio)
	if r <= 0 || math.IsInf(r, 0) || math.IsNaN(r) {
		return
	}
	c.ratio = r
}

// PixelsToMeters returns the current ratio.
func (c *Calibration) PixelsToMeters() float64 { return c.ratio }

// Meters converts a pixel distance.
func (c *Calibration) Meters(px float64) float64 { return px * c.ratio }

// Reset restores the initial ratio.
func (c *Calibration) Reset() { c.ratio = initialPixelsToMeters }
