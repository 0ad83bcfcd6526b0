package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validParams returns a runnable parameter set for a 10x10 world.
func validParams() Params {
	p := DefaultParams()
	p.MaxCoverage = 0.5
	return p
}

func TestParamsValidateAcceptsDefaults(t *testing.T) {
	p := validParams()
	assert.NoError(t, p.Validate(NewMap(10, 10)))
}

func TestParamsValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Params)
	}{
		{"NoStopCondition", func(p *Params) { p.MaxCoverage = 0 }},
		{"CellNotSmallerThanDiameter", func(p *Params) { p.CellSize = 0.3 }},
		{"ZeroVelocity", func(p *Params) { p.Velocity = 0 }},
		{"ZeroRadius", func(p *Params) { p.Radius = 0 }},
		{"StepLargerThanCell", func(p *Params) { p.StepSize = 0.2 }},
		{"BladeTooLong", func(p *Params) {
			p.CutterKind = CutterBlade
			p.BladeLength = 0.2
		}},
		{"BladeZeroLength", func(p *Params) {
			p.CutterKind = CutterBlade
			p.BladeLength = 0
		}},
		{"PerturbPercentOver100", func(p *Params) { p.PerturbSegmentPercent = 150 }},
		{"CoverageOverOne", func(p *Params) { p.MaxCoverage = 1.5 }},
		{"StartOutsideMargin", func(p *Params) {
			p.StartSet = true
			p.StartX, p.StartY = 0.05, 5
		}},
		{"SlippageInvertedRange", func(p *Params) {
			p.SlippageEnabled = true
			p.SlippageMinRadius, p.SlippageMaxRadius = 3, 1
		}},
		{"ImbalanceZeroStep", func(p *Params) {
			p.ImbalanceEnabled = true
			p.ImbalanceAdjustmentStep = 0
		}},
		{"NegativeBattery", func(p *Params) { p.BatteryRunTime = -1 }},
		{"CutterLargerThanWorld", func(p *Params) { p.Radius = 6; p.CellSize = 1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.mutate(&p)
			err := p.Validate(NewMap(10, 10))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestStepSizeDefaultsToCellFraction(t *testing.T) {
	p := validParams()
	assert.InDelta(t, 0.06, p.stepSize(), 1e-12)
	p.StepSize = 0.05
	assert.InDelta(t, 0.05, p.stepSize(), 1e-12)
}

func TestRandomSeedHandling(t *testing.T) {
	r := NewRandom(42)
	assert.EqualValues(t, 42, r.Seed())

	// Seed 0 draws a nonzero seed from the OS.
	r = NewRandom(0)
	assert.NotZero(t, r.Seed())

	// Same seed, same stream.
	a := NewRandom(7)
	b := NewRandom(7)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestRandomHelpers(t *testing.T) {
	r := NewRandom(1)
	for i := 0; i < 1000; i++ {
		u := r.Uniform(2, 5)
		assert.GreaterOrEqual(t, u, 2.0)
		assert.Less(t, u, 5.0)

		a := r.Angle(0.5)
		assert.LessOrEqual(t, a, 0.5)
		assert.GreaterOrEqual(t, a, -0.5)

		s := r.Sign()
		assert.True(t, s == 1 || s == -1)
	}
	assert.False(t, r.Chance(0))
	assert.True(t, r.Chance(1))
}
