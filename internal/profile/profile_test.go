package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	p := Default()
	require.NoError(t, p.Validate())
	assert.InDelta(t, 0.7055, p.StrideLength(), 1e-9)
	lo, hi := p.StrideBounds()
	assert.InDelta(t, 0.51, lo, 1e-9)
	assert.InDelta(t, 2.21, hi, 1e-9)
}

func TestBMR(t *testing.T) {
	t.Parallel()

	base := 10*70.0 + 6.25*170 - 5*30
	tests := []struct {
		gender string
		want   float64
	}{
		{GenderMale, base + 5},
		{GenderFemale, base - 161},
		{GenderOther, base - 78},
		{"Female", base - 161},
	}
	for _, tt := range tests {
		p := Default()
		p.Gender = tt.gender
		assert.InDelta(t, tt.want, p.BMR(), 1e-9, tt.gender)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(p *UserProfile)
	}{
		{"height too small", func(p *UserProfile) { p.HeightCm = 20 }},
		{"weight too large", func(p *UserProfile) { p.WeightKg = 500 }},
		{"age negative", func(p *UserProfile) { p.Age = -1 }},
		{"stride multiplier zero", func(p *UserProfile) { p.StrideMultiplier = 0 }},
		{"unknown gender", func(p *UserProfile) { p.Gender = "robot" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := Default()
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidProfile))
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("partial file takes defaults", func(t *testing.T) {
		t.Parallel()
		p, err := Parse([]byte("name: sam\nheight_cm: 182\ngender: MALE\n"))
		require.NoError(t, err)
		want := Default()
		want.Name = "sam"
		want.HeightCm = 182
		want.Gender = GenderMale
		if diff := cmp.Diff(p, want); diff != "" {
			t.Errorf("Parse() mismatch (-got +want):\n%s", diff)
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()
		_, err := Parse([]byte("height_cm: [1, 2"))
		assert.Error(t, err)
	})

	t.Run("implausible values", func(t *testing.T) {
		t.Parallel()
		_, err := Parse([]byte("weight_kg: 5\n"))
		assert.ErrorIs(t, err, ErrInvalidProfile)
	})
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	p, err := Normalize(UserProfile{WeightKg: 62})
	require.NoError(t, err)
	assert.Equal(t, 62.0, p.WeightKg)
	assert.Equal(t, 170.0, p.HeightCm)

	_, err = Normalize(UserProfile{HeightCm: 400})
	assert.ErrorIs(t, err, ErrInvalidProfile)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "runner.yaml")
	require.NoError(t, os.WriteFile(path, []byte("height_cm: 165\nweight_kg: 58\nage: 41\ngender: female\nstride_multiplier: 0.413\n"), 0644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, UserProfile{HeightCm: 165, WeightKg: 58, Age: 41, Gender: GenderFemale, StrideMultiplier: 0.413}, p)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	big := filepath.Join(dir, "big.yaml")
	require.NoError(t, os.WriteFile(big, make([]byte, maxProfileSize+1), 0644))
	_, err = Load(big)
	assert.Error(t, err)
}
