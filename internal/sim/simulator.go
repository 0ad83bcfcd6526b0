package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/mowerlab/gridcover/internal/geom"
)

// startSampleLimit bounds rejection sampling for the start pose. A
// world this crowded is a configuration problem, not bad luck.
const startSampleLimit = 10000

// Simulator owns everything for one run: the map, the grid, the
// spatial index, the cutter and all counters. It is single-threaded;
// a seed fully determines the outcome.
type Simulator struct {
	params Params
	world  *Map
	grid   *Grid
	qt     *QuadTree // nil when brute-force collision is selected
	coll   collider
	cutter Cutter
	wheel  *wheelState
	rng    *Random
	log    Logger
	stops  stopLimits

	stepLen float64 // effective step length, world units
	dt      float64 // seconds per step

	steps      int
	bounces    int
	distance   float64
	simSeconds float64
	reason     StopReason

	startPos     geom.Vec
	startHeading float64 // radians

	track    []geom.Vec
	queryBuf []int

	wallStart time.Time
}

// New validates the parameters, builds the grid and spatial index,
// draws the per-run random constants and places the cutter. A nil
// logger is replaced by NopLogger.
func New(world *Map, p Params, log Logger) (*Simulator, error) {
	if log == nil {
		log = NopLogger{}
	}
	if err := p.Validate(world); err != nil {
		return nil, err
	}

	grid, err := NewGrid(world, p.CellSize)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		params:  p,
		world:   world,
		grid:    grid,
		rng:     NewRandom(p.Seed),
		log:     log,
		stops:   p.limits(),
		stepLen: p.stepSize(),
	}
	s.dt = s.stepLen / p.Velocity

	if p.UseQuadTree {
		minSide := math.Max(p.MinNodeFactor*p.Radius, p.CellSize)
		s.qt = NewQuadTree(world, minSide)
		s.coll = s.qt
	} else {
		s.coll = bruteCollider{n: len(world.Obstacles)}
	}

	if s.rng.Seed() != p.Seed {
		s.log.Info("seed 0 requested, using OS seed %d", s.rng.Seed())
	}

	// Fixed draw order: imbalance constants first, then start pose.
	s.wheel = newWheelState(&p, s.rng)
	if err := s.placeCutter(); err != nil {
		return nil, err
	}
	return s, nil
}

// placeCutter sets the initial pose, sampling position and heading
// when they were not given explicitly.
func (s *Simulator) placeCutter() error {
	p := &s.params
	s.cutter = Cutter{
		Vel:         p.Velocity,
		Kind:        p.CutterKind,
		Radius:      p.Radius,
		BladeLength: p.BladeLength,
		RunTime:     p.BatteryRunTime,
		Remaining:   p.BatteryRunTime,
	}

	if p.StartSet && p.HeadingSet {
		pos := geom.Vec{X: p.StartX, Y: p.StartY}
		if !s.validStart(pos) {
			return fmt.Errorf("%w: start position (%g,%g) overlaps an obstacle", ErrConfig, p.StartX, p.StartY)
		}
		s.cutter.Pos = pos
		s.startHeading = p.HeadingDeg * math.Pi / 180
		s.cutter.Dir = geom.Vec{X: 1}.Rotate(s.startHeading)
		s.startPos = pos
		return nil
	}

	// Sampled pose: x, y, heading are re-drawn together on rejection so
	// the draw order stays documented and fixed.
	for tries := 0; tries < startSampleLimit; tries++ {
		x := s.rng.Uniform(p.Radius, s.world.Width-p.Radius)
		y := s.rng.Uniform(p.Radius, s.world.Height-p.Radius)
		heading := s.rng.Uniform(0, 2*math.Pi)
		if p.StartSet {
			x, y = p.StartX, p.StartY
		}
		if p.HeadingSet {
			heading = p.HeadingDeg * math.Pi / 180
		}
		pos := geom.Vec{X: x, Y: y}
		if !s.validStart(pos) {
			if p.StartSet {
				return fmt.Errorf("%w: start position (%g,%g) overlaps an obstacle", ErrConfig, x, y)
			}
			continue
		}
		s.cutter.Pos = pos
		s.cutter.Dir = geom.Vec{X: 1}.Rotate(heading)
		s.startPos = pos
		s.startHeading = heading
		return nil
	}
	return fmt.Errorf("%w: no valid start position found in %d samples", ErrConfig, startSampleLimit)
}

// validStart reports whether the cutter disc at pos stays clear of
// every obstacle and sits over a non-blocked cell.
func (s *Simulator) validStart(pos geom.Vec) bool {
	for i := range s.world.Obstacles {
		if s.world.Obstacles[i].OverlapsDisc(pos, s.params.Radius) {
			return false
		}
	}
	ci := int(pos.X / s.grid.CellSize)
	cj := int(pos.Y / s.grid.CellSize)
	return !s.grid.IsBlocked(ci, cj)
}

// Step advances the simulation by one tick and reports whether it is
// still running. The sequence is fixed: charge check, segment
// perturbation, wheel effects, collision, move, coverage, clock,
// stopping predicates.
func (s *Simulator) Step() bool {
	if s.reason != StopNone {
		return false
	}

	c := &s.cutter

	// Battery: an empty cutter charges instead of moving. Simulated
	// time advances by the charge time plus the teleport penalty; no
	// coverage or bounce bookkeeping happens during the charge.
	if c.BatteryEnabled() && c.Remaining <= 0 {
		penalty := s.rng.Uniform(chargePenaltyMin, chargePenaltyMax)
		s.simSeconds += s.params.BatteryChargeTime + penalty
		c.Remaining = c.RunTime
		c.ChargeCount++
		s.log.Info("charge %d at t=%.0fs (penalty %.0fs)", c.ChargeCount, s.simSeconds, penalty)
		s.evaluateStop()
		return s.reason == StopNone
	}

	ds := s.stepLen

	// Mid-segment perturbation, scaled to probability per cell so the
	// behaviour is independent of step size.
	pSeg := s.params.PerturbSegmentPercent / 100 * (ds / s.params.CellSize)
	if pSeg > 0 && s.rng.Chance(pSeg) {
		c.Dir = c.Dir.Rotate(s.rng.Angle(s.params.SegmentAngleRad)).Norm()
	}

	// Wheel slippage and imbalance act before the collision check.
	c.Dir = s.wheel.apply(&s.params, s.rng, c.Dir, ds)

	actual := ds
	if hit, ok := s.firstContact(c.Pos, c.Dir, ds); ok {
		t := hit.t - 1e-9
		if t < 0 {
			t = 0
		}
		c.Pos = c.Pos.Add(c.Dir.Scale(t * ds))
		s.bounce(hit.n)
		actual = t * ds // the remainder of the step is forfeited
	} else {
		c.Pos = c.Pos.Add(c.Dir.Scale(ds))
	}
	s.clampToWorld()

	if c.Kind == CutterBlade {
		// Blade angle bookkeeping only; coverage uses the swept annulus
		// and nothing else reads the angle.
		c.Phase = math.Mod(c.Phase+actual/s.params.Radius*8, 2*math.Pi)
	}

	applyCoverage(s.grid, c)

	s.steps++
	s.distance += actual
	s.simSeconds += s.dt
	if c.BatteryEnabled() {
		c.Remaining -= s.dt
	}
	if s.params.RecordTrack {
		s.track = append(s.track, c.Pos)
	}

	if err := s.checkInvariants(); err != nil {
		// Invariant breakage is unrecoverable; panic with the
		// ErrInternal error, which carries the step and seed.
		panic(err)
	}

	s.evaluateStop()
	return s.reason == StopNone
}

// clampToWorld pins the centre inside the radius-inset rectangle,
// absorbing the float drift left over from reflections.
func (s *Simulator) clampToWorld() {
	r := s.params.Radius
	s.cutter.Pos.X = clamp(s.cutter.Pos.X, r, s.world.Width-r)
	s.cutter.Pos.Y = clamp(s.cutter.Pos.Y, r, s.world.Height-r)
}

// checkInvariants guards the structural invariants after each step.
func (s *Simulator) checkInvariants() error {
	g := s.grid
	if g.CoveredCells()+g.BlockedCells() > g.TotalCells() {
		return fmt.Errorf("%w: covered %d + blocked %d exceeds %d cells (step %d, seed %d)",
			ErrInternal, g.CoveredCells(), g.BlockedCells(), g.TotalCells(), s.steps, s.rng.Seed())
	}
	p := s.cutter.Pos
	if math.IsNaN(p.X) || math.IsNaN(p.Y) {
		return fmt.Errorf("%w: cutter position is NaN (step %d, seed %d)", ErrInternal, s.steps, s.rng.Seed())
	}
	return nil
}

// evaluateStop runs the ordered termination predicates.
func (s *Simulator) evaluateStop() {
	s.reason = s.stops.evaluate(s.bounces, s.simSeconds, s.grid.CoveredFraction(), s.steps, s.distance)
}

// Run drives Step until a stopping condition fires or ctx is
// cancelled. Cancellation is only observed between steps; the partial
// state remains valid and reportable. onStep, when non-nil, is invoked
// after every step (the animation sampler and progress line hang off
// it).
func (s *Simulator) Run(ctx context.Context, onStep func(*Simulator)) (*Result, error) {
	s.wallStart = time.Now()
	for {
		select {
		case <-ctx.Done():
			s.reason = StopInterrupted
			s.log.Warn("interrupted after %d steps", s.steps)
			return s.Result(), nil
		default:
		}
		running := s.Step()
		if onStep != nil {
			onStep(s)
		}
		if !running {
			break
		}
	}
	s.log.Info("stopped: %s after %d steps, %.1f covered%%",
		s.reason, s.steps, 100*s.grid.CoveredFraction())
	return s.Result(), nil
}

// Accessors for the renderer and the report. The simulator keeps
// ownership; callers treat the views as read-only.

func (s *Simulator) Grid() *Grid          { return s.grid }
func (s *Simulator) World() *Map          { return s.world }
func (s *Simulator) Cutter() *Cutter      { return &s.cutter }
func (s *Simulator) QuadTree() *QuadTree  { return s.qt }
func (s *Simulator) Track() []geom.Vec    { return s.track }
func (s *Simulator) Steps() int           { return s.steps }
func (s *Simulator) Bounces() int         { return s.bounces }
func (s *Simulator) Distance() float64    { return s.distance }
func (s *Simulator) SimSeconds() float64  { return s.simSeconds }
func (s *Simulator) Seed() int64          { return s.rng.Seed() }
func (s *Simulator) Reason() StopReason   { return s.reason }
func (s *Simulator) StepSeconds() float64 { return s.dt }
