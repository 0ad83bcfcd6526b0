package sim

import (
	"math"

	"github.com/mowerlab/gridcover/internal/geom"
)

// collider enumerates candidate obstacle indices for a query box. The
// quad-tree is the normal implementation; bruteCollider backs the
// --no-qt escape hatch and the equivalence tests.
type collider interface {
	Query(box geom.AABB, out []int) []int
}

// bruteCollider returns every obstacle for every query.
type bruteCollider struct {
	n int
}

func (b bruteCollider) Query(_ geom.AABB, out []int) []int {
	out = out[:0]
	for i := 0; i < b.n; i++ {
		out = append(out, i)
	}
	return out
}

// contact is the earliest collision found along a step.
type contact struct {
	t float64  // fraction of the step, [0,1]; 0 when already touching
	n geom.Vec // outward surface normal at the hit
}

// sweepObstacle returns the first contact of the cutter's disc (radius
// r) moving ds along the unit direction dir against one obstacle. The
// disc-vs-shape sweep reduces to circle sweeps against points and
// segments: circles inflate by r, rectangle and polygon edges are swept
// with radius r (endpoint caps give the rounded corners), and a thick
// line is its centreline swept with radius r plus the half-width.
func sweepObstacle(o *Obstacle, p, dir geom.Vec, ds, r float64) (contact, bool) {
	switch o.Kind {
	case ObstacleCircle:
		if t, n, ok := geom.SweepCirclePoint(p, dir, ds, geom.Vec{X: o.CX, Y: o.CY}, o.R+r); ok {
			return contact{t, n}, true
		}
		return contact{}, false

	case ObstacleRect:
		corners := [4]geom.Vec{
			{X: o.X, Y: o.Y},
			{X: o.X + o.W, Y: o.Y},
			{X: o.X + o.W, Y: o.Y + o.H},
			{X: o.X, Y: o.Y + o.H},
		}
		return sweepEdges(corners[:], p, dir, ds, r)

	case ObstaclePolygon:
		return sweepEdges(o.Points, p, dir, ds, r)

	case ObstacleThickLine:
		if t, n, ok := geom.SweepCircleSegment(p, dir, ds, o.P1, o.P2, r+o.Width/2); ok {
			return contact{t, n}, true
		}
		return contact{}, false

	default:
		return contact{}, false
	}
}

// sweepEdges sweeps the disc against every edge of a closed vertex
// loop and keeps the earliest contact.
func sweepEdges(pts []geom.Vec, p, dir geom.Vec, ds, r float64) (contact, bool) {
	best := contact{t: math.Inf(1)}
	found := false
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		if t, n, ok := geom.SweepCircleSegment(p, dir, ds, a, b, r); ok && t < best.t {
			best = contact{t, n}
			found = true
		}
	}
	return best, found
}

// sweepBoundary returns the first contact against the four world
// half-planes, each offset inward by r so the cutter's rim never
// leaves the world.
func sweepBoundary(p, dir geom.Vec, ds, r, w, h float64) (contact, bool) {
	best := contact{t: math.Inf(1)}
	found := false

	// A cutter already on (or numerically past) a plane and moving
	// inward contacts at t=0, so a tangent start reflects immediately.
	consider := func(s float64, n geom.Vec) {
		if s > ds {
			return
		}
		if s < 0 {
			s = 0
		}
		if s/ds < best.t {
			best = contact{t: s / ds, n: n}
			found = true
		}
	}

	if dir.X < 0 {
		consider((r-p.X)/dir.X, geom.Vec{X: 1})
	} else if dir.X > 0 {
		consider((w-r-p.X)/dir.X, geom.Vec{X: -1})
	}
	if dir.Y < 0 {
		consider((r-p.Y)/dir.Y, geom.Vec{Y: 1})
	} else if dir.Y > 0 {
		consider((h-r-p.Y)/dir.Y, geom.Vec{Y: -1})
	}
	return best, found
}

// firstContact finds the earliest hit along the step: world boundary
// and every candidate obstacle from the collider. Candidates arrive in
// ascending insertion order and strictly-smaller t wins, so equal-t
// ties fall to the earliest-inserted obstacle.
func (s *Simulator) firstContact(p, dir geom.Vec, ds float64) (contact, bool) {
	best := contact{t: math.Inf(1)}
	found := false

	if c, ok := sweepBoundary(p, dir, ds, s.cutter.Radius, s.world.Width, s.world.Height); ok {
		best = c
		found = true
	}

	r := s.cutter.Radius
	end := p.Add(dir.Scale(ds))
	sweep := geom.NewAABB(p, end).Expand(r)
	s.queryBuf = s.coll.Query(sweep, s.queryBuf)
	for _, idx := range s.queryBuf {
		o := &s.world.Obstacles[idx]
		// Broad phase: slab-test the centre segment against the
		// obstacle's r-inflated box. Any real contact keeps the centre
		// within r of the geometry, so the box test never rejects a
		// true hit.
		if _, ok := geom.RayAABB(p, end, o.AABB().Expand(r)); !ok {
			continue
		}
		if c, ok := sweepObstacle(o, p, dir, ds, r); ok && c.t < best.t {
			best = c
			found = true
		}
	}
	return best, found
}

// bounce reflects the heading about the contact normal and, when
// enabled, perturbs it by a random angle, rejecting samples that point
// back into the surface.
func (s *Simulator) bounce(n geom.Vec) {
	d := geom.Reflect(s.cutter.Dir, n)
	if s.params.PerturbOnBounce && s.params.BounceAngleRad > 0 {
		for tries := 0; tries < 16; tries++ {
			cand := d.Rotate(s.rng.Angle(s.params.BounceAngleRad))
			if cand.Dot(n) > geom.Epsilon {
				d = cand
				break
			}
		}
	}
	s.cutter.Dir = d.Norm()
	s.bounces++
}
