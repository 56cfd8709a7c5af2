package gait

import "time"

// CadenceEstimator derives steps per minute from a trailing window of step
// timestamps.
type CadenceEstimator struct {
	window   time.Duration
	minSteps int
	steps    []time.Time
}

// NewCadenceEstimator returns an estimator over the configured window.
func NewCadenceEstimator(cfg Config) *CadenceEstimator {
	return &CadenceEstimator{window: cfg.CadenceWindow, minSteps: cfg.CadenceMinSteps}
}

// Record logs a step at t.
func (c *CadenceEstimator) Record(t time.Time) {
	c.steps = append(c.steps, t)
}

// Cadence prunes timestamps older than the window and returns the step rate
// over the observed span, or 0 with too few steps.
func (c *CadenceEstimator) Cadence(now time.Time) float64 {
	c.prune(now)
	if len(c.steps) < c.minSteps {
		return 0
	}
	span := c.steps[len(c.steps)-1].Sub(c.steps[0]).Seconds()
	if span <= 0 {
		return 0
	}
	return float64(len(c.steps)) / span * 60
}

// InWindow returns the number of retained timestamps.
func (c *CadenceEstimator) InWindow() int { return len(c.steps) }

func (c *CadenceEstimator) prune(now time.Time) {
	cutoff := now.Add(-c.window)
	i := 0
	for i < len(c.steps) && c.steps[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		c.steps = append(c.steps[:0], c.steps[i:]...)
	}
}

// Reset drops every timestamp.
func (c *CadenceEstimator) Reset() { c.steps = c.steps[:0] }
