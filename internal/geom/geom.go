// Package geom holds the 2D primitives shared by the simulator:
// vectors, axis-aligned boxes, containment predicates and the swept
// collision tests the motion step is built on. All math is float64.
package geom

import "math"

// Epsilon is the grazing tolerance. Contacts shallower than this are
// treated as misses so the cutter cannot oscillate on exact tangencies.
const Epsilon = 1e-9

// Vec is a 2D vector or point.
type Vec struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

// Scale returns v scaled by k.
func (v Vec) Scale(k float64) Vec { return Vec{v.X * k, v.Y * k} }

// Dot returns the dot product v·o.
func (v Vec) Dot(o Vec) float64 { return v.X*o.X + v.Y*o.Y }

// Len returns the Euclidean length of v.
func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// Norm returns v scaled to unit length. The zero vector maps to (1,0)
// so callers always get a usable heading.
func (v Vec) Norm() Vec {
	l := v.Len()
	if l < Epsilon {
		return Vec{1, 0}
	}
	return Vec{v.X / l, v.Y / l}
}

// Perp returns v rotated 90° counter-clockwise.
func (v Vec) Perp() Vec { return Vec{-v.Y, v.X} }

// Rotate returns v rotated by angle radians counter-clockwise.
func (v Vec) Rotate(angle float64) Vec {
	s, c := math.Sincos(angle)
	return Vec{v.X*c - v.Y*s, v.X*s + v.Y*c}
}

// Reflect mirrors a direction about the plane with unit normal n:
// d - 2(d·n)n.
func Reflect(d, n Vec) Vec {
	k := 2 * d.Dot(n)
	return Vec{d.X - k*n.X, d.Y - k*n.Y}
}

// AABB is an axis-aligned bounding box with inclusive edges.
type AABB struct {
	MinX, MinY, MaxX, MaxY float64
}

// NewAABB builds a box from two opposite corners in any order.
func NewAABB(a, b Vec) AABB {
	return AABB{
		MinX: math.Min(a.X, b.X),
		MinY: math.Min(a.Y, b.Y),
		MaxX: math.Max(a.X, b.X),
		MaxY: math.Max(a.Y, b.Y),
	}
}

// Expand grows the box by m on every side.
func (a AABB) Expand(m float64) AABB {
	return AABB{a.MinX - m, a.MinY - m, a.MaxX + m, a.MaxY + m}
}

// Intersects reports whether two boxes overlap or touch.
func (a AABB) Intersects(b AABB) bool {
	return a.MinX <= b.MaxX && a.MaxX >= b.MinX &&
		a.MinY <= b.MaxY && a.MaxY >= b.MinY
}

// ContainsPoint reports whether p lies inside or on the box.
func (a AABB) ContainsPoint(p Vec) bool {
	return p.X >= a.MinX && p.X <= a.MaxX && p.Y >= a.MinY && p.Y <= a.MaxY
}

// Width returns the horizontal extent of the box.
func (a AABB) Width() float64 { return a.MaxX - a.MinX }

// Height returns the vertical extent of the box.
func (a AABB) Height() float64 { return a.MaxY - a.MinY }

// RayAABB returns the first segment parameter t in [0,1] where the line
// from o to e enters the box. Uses the slab method; ok is false when the
// segment misses entirely. The collision step runs this against each
// candidate obstacle's r-inflated box before paying for the exact
// sweep.
func RayAABB(o, e Vec, box AABB) (float64, bool) {
	dx := e.X - o.X
	dy := e.Y - o.Y

	tMin := 0.0
	tMax := 1.0

	if math.Abs(dx) < 1e-12 {
		if o.X < box.MinX || o.X > box.MaxX {
			return 0, false
		}
	} else {
		invD := 1.0 / dx
		t1 := (box.MinX - o.X) * invD
		t2 := (box.MaxX - o.X) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}

	if math.Abs(dy) < 1e-12 {
		if o.Y < box.MinY || o.Y > box.MaxY {
			return 0, false
		}
	} else {
		invD := 1.0 / dy
		t1 := (box.MinY - o.Y) * invD
		t2 := (box.MaxY - o.Y) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}

	if tMax < 0 || tMin > 1 {
		return 0, false
	}
	if tMin < 0 {
		tMin = 0
	}
	return tMin, true
}

// DistPointSegment returns the distance from p to the closed segment ab.
func DistPointSegment(p, a, b Vec) float64 {
	e := b.Sub(a)
	l2 := e.Dot(e)
	if l2 < Epsilon {
		return p.Sub(a).Len()
	}
	t := p.Sub(a).Dot(e) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := a.Add(e.Scale(t))
	return p.Sub(closest).Len()
}

// PointInPolygon reports whether p lies inside the polygon, using
// ray-casting with the odd-even rule. The polygon is treated as closed
// (last point connects back to the first).
func PointInPolygon(p Vec, pts []Vec) bool {
	if len(pts) < 3 {
		return false
	}
	inside := false
	j := len(pts) - 1
	for i := 0; i < len(pts); i++ {
		pi, pj := pts[i], pts[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) {
			x := pj.X + (p.Y-pj.Y)/(pi.Y-pj.Y)*(pi.X-pj.X)
			if p.X < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// SweepCirclePoint advances a circle of radius r from p along the unit
// direction dir for distance ds and returns the fraction t in (0,1] at
// which it first touches the point c, together with the outward contact
// normal. A circle already overlapping c reports a hit at t=0 only when
// it is moving inward; otherwise it is allowed to escape.
func SweepCirclePoint(p, dir Vec, ds float64, c Vec, r float64) (t float64, n Vec, ok bool) {
	m := p.Sub(c)
	c2 := m.Dot(m) - r*r
	if c2 <= Epsilon {
		// Already inside the inflated point.
		n = m.Norm()
		if dir.Dot(n) < 0 {
			return 0, n, true
		}
		return 0, Vec{}, false
	}
	b := m.Dot(dir)
	if b >= 0 {
		return 0, Vec{}, false // moving away
	}
	disc := b*b - c2
	if disc <= Epsilon {
		return 0, Vec{}, false // grazing counts as a miss
	}
	s := -b - math.Sqrt(disc)
	if s <= Epsilon || s > ds {
		return 0, Vec{}, false
	}
	contact := p.Add(dir.Scale(s))
	return s / ds, contact.Sub(c).Norm(), true
}

// SweepCircleSegment advances a circle of radius r from p along the unit
// direction dir for distance ds and returns the first contact fraction
// against the closed segment ab, with the outward normal at the contact.
// Edge-body and endpoint-cap contacts are both considered.
func SweepCircleSegment(p, dir Vec, ds float64, a, b Vec, r float64) (t float64, n Vec, ok bool) {
	best := math.Inf(1)
	var bestN Vec

	e := b.Sub(a)
	el := e.Len()
	if el > Epsilon {
		en := e.Scale(1 / el)
		nrm := en.Perp()
		d0 := p.Sub(a).Dot(nrm)
		side := 1.0
		if d0 < 0 {
			side = -1.0
		}
		vn := dir.Dot(nrm)
		if side*vn < 0 { // moving toward the line
			s := (side*r - d0) / vn
			if s > Epsilon && s <= ds {
				foot := p.Add(dir.Scale(s)).Sub(a).Dot(en)
				if foot >= 0 && foot <= el {
					best = s
					bestN = nrm.Scale(side)
				}
			}
		}
		if math.Abs(d0) <= r+Epsilon && side*vn < 0 {
			// Starting in contact with the edge body: block inward motion.
			foot := p.Sub(a).Dot(en)
			if foot >= 0 && foot <= el && math.Abs(d0) >= r-1e-6 {
				return 0, nrm.Scale(side), true
			}
		}
	}

	for _, end := range [2]Vec{a, b} {
		if s, cn, hit := SweepCirclePoint(p, dir, ds, end, r); hit {
			if s*ds < best {
				best = s * ds
				bestN = cn
			}
		}
	}

	if math.IsInf(best, 1) {
		return 0, Vec{}, false
	}
	return best / ds, bestN, true
}
