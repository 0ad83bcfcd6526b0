package sim

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand"
)

// Random is the single deterministic stream behind every stochastic
// decision in a run: start pose sampling, perturbation angles, slippage
// entry and magnitude, the imbalance constants and charging penalties.
// All consumers draw from this one stream in a fixed order, so a seed
// fully determines a run.
type Random struct {
	seed int64
	rng  *rand.Rand
}

// NewRandom builds a stream from seed. Seed 0 requests a fresh nonzero
// seed from the OS; the seed actually used is available via Seed so it
// can be logged and reported.
func NewRandom(seed int64) *Random {
	if seed == 0 {
		seed = osSeed()
	}
	return &Random{
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)), // #nosec G404 -- reproducibility is the point
	}
}

// osSeed draws a nonzero int63 from the OS entropy source.
func osSeed() int64 {
	var b [8]byte
	for {
		if _, err := cryptorand.Read(b[:]); err != nil {
			// Entropy read failures are effectively impossible on the
			// supported platforms; fall back to a fixed odd constant
			// rather than aborting a simulation over it.
			return 0x5eed5eed
		}
		s := int64(binary.LittleEndian.Uint64(b[:]) >> 1)
		if s != 0 {
			return s
		}
	}
}

// Seed returns the seed in effect for this stream.
func (r *Random) Seed() int64 { return r.seed }

// Float64 returns a uniform sample in [0,1).
func (r *Random) Float64() float64 { return r.rng.Float64() }

// Uniform returns a uniform sample in [lo,hi).
func (r *Random) Uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*r.rng.Float64()
}

// Angle returns a uniform sample in [-max,+max].
func (r *Random) Angle(max float64) float64 {
	return (2*r.rng.Float64() - 1) * max
}

// Sign returns -1 or +1 with equal probability.
func (r *Random) Sign() float64 {
	if r.rng.Intn(2) == 0 {
		return -1
	}
	return 1
}

// Chance returns true with probability p.
func (r *Random) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.rng.Float64() < p
}
