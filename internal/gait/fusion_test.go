package gait

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/cadence.report/internal/profile"
)

func TestFuseSpeed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		arm     float64
		leg     float64
		cadence float64
		want    float64
	}{
		{"no motion", 0.05, 0.09, 170, 0},
		{"arms only", 2.0, 0, 0, 1.0},
		{"legs and arms", 1.0, 2.0, 0, 1.4},
		{"reference cadence is neutral", 1.0, 2.0, 160, 1.4},
		{"low cadence pulls down", 1.0, 2.0, 80, 1.19},
		{"implausible cadence ignored", 1.0, 2.0, 240, 1.4},
		{"tiny result drops to zero", 0.15, 0, 0, 0},
		{"slow result boosted to floor", 0.5, 0, 0, 0.5},
		{"slow result doubled", 0.9, 0, 0, 0.9},
		{"fast result damped", 4.0, 6.0, 0, 3.08},
		{"very fast result damped", 4.8, 7.2, 0, 3.696},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, FuseSpeed(tt.arm, tt.leg, tt.cadence), 1e-9)
		})
	}
}

func TestFuseSpeedBounded(t *testing.T) {
	t.Parallel()

	for arm := 0.0; arm <= 6; arm += 0.25 {
		for leg := 0.0; leg <= 7.2; leg += 0.3 {
			for _, cad := range []float64{0, 90, 160, 199, 260} {
				v := FuseSpeed(arm, leg, cad)
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 5.0)
			}
		}
	}
}

func TestStrideLength(t *testing.T) {
	t.Parallel()
	p := profile.Default()

	t.Run("no cadence uses anatomical default", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 0.7055, StrideLength(3, 0, p), 1e-9)
	})

	t.Run("speed over half cadence", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 2.0, StrideLength(3, 180, p), 1e-9)
	})

	t.Run("clamped to anatomical bounds", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 0.013*170, StrideLength(6, 120, p), 1e-9)
		assert.InDelta(t, 0.003*170, StrideLength(0, 150, p), 1e-9)
	})

	t.Run("always within bounds when cadence is positive", func(t *testing.T) {
		t.Parallel()
		lo, hi := p.StrideBounds()
		for speed := 0.0; speed <= 5; speed += 0.1 {
			for cad := 1.0; cad < 260; cad += 7 {
				s := StrideLength(speed, cad, p)
				assert.GreaterOrEqual(t, s, lo)
				assert.LessOrEqual(t, s, hi)
			}
		}
	})
}
