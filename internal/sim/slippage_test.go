package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mowerlab/gridcover/internal/geom"
)

func TestImbalanceBendsHeadingSteadily(t *testing.T) {
	p := DefaultParams()
	p.ImbalanceEnabled = true
	p.ImbalanceMinRadius = 10
	p.ImbalanceMaxRadius = 10 // pin the radius; only the sign is random
	p.ImbalanceAdjustmentStep = 0.05

	rng := NewRandom(3)
	w := newWheelState(&p, rng)
	require.InDelta(t, 10, w.imbRadius, 1e-12)

	// One unit of travel in 0.05 chunks: total turn = 1/R = 0.1 rad.
	dir := geom.Vec{X: 1}
	for i := 0; i < 20; i++ {
		dir = w.apply(&p, rng, dir, 0.05)
	}
	turned := math.Atan2(dir.Y, dir.X)
	assert.InDelta(t, 0.1, math.Abs(turned), 1e-9)
	assert.InDelta(t, 1.0, dir.Len(), 1e-9)
}

func TestSlippageEntersAndExits(t *testing.T) {
	p := DefaultParams()
	p.SlippageEnabled = true
	p.SlippageActivationDistance = 1
	p.SlippageProb = 1 // always slip at the activation check
	p.SlippageMinDistance = 2
	p.SlippageMaxDistance = 2
	p.SlippageMinRadius = 1
	p.SlippageMaxRadius = 1
	p.SlippageAdjustmentStep = 0.1

	rng := NewRandom(1)
	w := newWheelState(&p, rng)

	dir := geom.Vec{X: 1}
	// Travel up to the activation distance: slipping starts.
	for i := 0; i < 10; i++ {
		dir = w.apply(&p, rng, dir, 0.1)
	}
	assert.True(t, w.slipping)

	// The slip budget is 2 units; consume it.
	for i := 0; i < 20; i++ {
		dir = w.apply(&p, rng, dir, 0.1)
	}
	assert.False(t, w.slipping)

	// During the slip the heading turned by distance/radius = 2 rad.
	angle := math.Atan2(dir.Y, dir.X)
	assert.InDelta(t, 2.0, math.Abs(angle), 0.2)
}

func TestSlippageDisabledLeavesHeading(t *testing.T) {
	p := DefaultParams()
	rng := NewRandom(1)
	w := newWheelState(&p, rng)
	dir := geom.Vec{X: 1}
	for i := 0; i < 100; i++ {
		dir = w.apply(&p, rng, dir, 0.06)
	}
	assert.Equal(t, geom.Vec{X: 1}, dir)
}
