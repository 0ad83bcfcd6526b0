package sim

import "github.com/mowerlab/gridcover/internal/geom"

// Wheel slippage and imbalance. Both act on the heading before the
// collision check of each step. Slippage is an intermittent sub-state
// entered by chance every activation distance; imbalance is a permanent
// constant-radius bias whose constants are drawn once per simulation.

// wheelState carries the slippage and imbalance bookkeeping across
// steps.
type wheelState struct {
	// Slippage.
	sinceActivation float64 // distance since the last entry check
	slipping        bool
	slipRemaining   float64 // distance budget left in the current slip
	slipRadius      float64 // arc radius of the current slip
	slipSign        float64 // turn direction, fixed at entry
	slipAccum       float64 // distance since the last slip adjustment

	// Imbalance.
	imbRadius float64
	imbSign   float64
	imbAccum  float64
}

// newWheelState draws the per-simulation imbalance constants. These
// are the first draws from the stream, before start pose sampling.
func newWheelState(p *Params, rng *Random) *wheelState {
	w := &wheelState{}
	if p.ImbalanceEnabled {
		w.imbRadius = rng.Uniform(p.ImbalanceMinRadius, p.ImbalanceMaxRadius)
		w.imbSign = rng.Sign()
	}
	return w
}

// apply rotates the heading for ds of travel and returns the adjusted
// direction. Slippage entry, slip-arc adjustments and the imbalance
// bias all land here.
func (w *wheelState) apply(p *Params, rng *Random, dir geom.Vec, ds float64) geom.Vec {
	if p.SlippageEnabled {
		if !w.slipping {
			w.sinceActivation += ds
			// The epsilon absorbs float drift from summing step lengths
			// (ten steps of 0.1 sum to just under 1).
			for w.sinceActivation >= p.SlippageActivationDistance-geom.Epsilon {
				w.sinceActivation -= p.SlippageActivationDistance
				if rng.Chance(p.SlippageProb) {
					w.slipping = true
					w.slipRemaining = rng.Uniform(p.SlippageMinDistance, p.SlippageMaxDistance)
					w.slipRadius = rng.Uniform(p.SlippageMinRadius, p.SlippageMaxRadius)
					w.slipSign = rng.Sign()
					w.slipAccum = 0
					w.sinceActivation = 0
					break
				}
			}
		}
		if w.slipping {
			w.slipAccum += ds
			for w.slipAccum >= p.SlippageAdjustmentStep {
				w.slipAccum -= p.SlippageAdjustmentStep
				dir = dir.Rotate(w.slipSign * p.SlippageAdjustmentStep / w.slipRadius)
			}
			w.slipRemaining -= ds
			if w.slipRemaining <= 0 {
				w.slipping = false
				w.slipAccum = 0
			}
		}
	}

	if p.ImbalanceEnabled && w.imbRadius > 0 {
		w.imbAccum += ds
		for w.imbAccum >= p.ImbalanceAdjustmentStep {
			w.imbAccum -= p.ImbalanceAdjustmentStep
			dir = dir.Rotate(w.imbSign * p.ImbalanceAdjustmentStep / w.imbRadius)
		}
	}

	return dir.Norm()
}
