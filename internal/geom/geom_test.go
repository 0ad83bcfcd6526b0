package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVecBasics(t *testing.T) {
	v := Vec{3, 4}
	assert.InDelta(t, 5.0, v.Len(), 1e-12)
	assert.Equal(t, Vec{4, 6}, v.Add(Vec{1, 2}))
	assert.Equal(t, Vec{2, 2}, v.Sub(Vec{1, 2}))
	assert.InDelta(t, 1.0, v.Norm().Len(), 1e-12)

	// Zero vector normalises to a usable default heading.
	assert.Equal(t, Vec{1, 0}, Vec{}.Norm())
}

func TestRotate(t *testing.T) {
	r := Vec{1, 0}.Rotate(math.Pi / 2)
	assert.InDelta(t, 0, r.X, 1e-12)
	assert.InDelta(t, 1, r.Y, 1e-12)
}

func TestReflect(t *testing.T) {
	// 45° incoming ray off a floor with upward normal.
	d := Vec{1, -1}.Norm()
	out := Reflect(d, Vec{0, 1})
	assert.InDelta(t, d.X, out.X, 1e-12)
	assert.InDelta(t, -d.Y, out.Y, 1e-12)
	assert.InDelta(t, 1.0, out.Len(), 1e-12)
}

func TestRayAABB(t *testing.T) {
	box := AABB{1, 1, 2, 2}

	tHit, ok := RayAABB(Vec{0, 1.5}, Vec{3, 1.5}, box)
	require.True(t, ok)
	assert.InDelta(t, 1.0/3.0, tHit, 1e-9)

	_, ok = RayAABB(Vec{0, 3}, Vec{3, 3}, box)
	assert.False(t, ok)

	// Starting inside reports entry at t=0.
	tHit, ok = RayAABB(Vec{1.5, 1.5}, Vec{3, 1.5}, box)
	require.True(t, ok)
	assert.Equal(t, 0.0, tHit)
}

func TestAABB(t *testing.T) {
	a := NewAABB(Vec{2, 3}, Vec{0, 1})
	assert.Equal(t, AABB{0, 1, 2, 3}, a)
	assert.True(t, a.Intersects(AABB{1, 2, 5, 5}))
	assert.False(t, a.Intersects(AABB{3, 4, 5, 5}))
	assert.True(t, a.Expand(1).ContainsPoint(Vec{-0.5, 0.5}))
}

func TestPointInPolygon(t *testing.T) {
	square := []Vec{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	assert.True(t, PointInPolygon(Vec{1, 1}, square))
	assert.False(t, PointInPolygon(Vec{3, 1}, square))
	assert.False(t, PointInPolygon(Vec{1, 1}, square[:2]))

	// Concave: an L-shape whose notch is outside.
	ell := []Vec{{0, 0}, {3, 0}, {3, 1}, {1, 1}, {1, 3}, {0, 3}}
	assert.True(t, PointInPolygon(Vec{0.5, 2}, ell))
	assert.False(t, PointInPolygon(Vec{2, 2}, ell))
}

func TestDistPointSegment(t *testing.T) {
	a, b := Vec{0, 0}, Vec{2, 0}
	assert.InDelta(t, 1.0, DistPointSegment(Vec{1, 1}, a, b), 1e-12)
	assert.InDelta(t, 1.0, DistPointSegment(Vec{3, 0}, a, b), 1e-12)
	assert.InDelta(t, math.Sqrt2, DistPointSegment(Vec{-1, 1}, a, b), 1e-12)
	// Degenerate segment collapses to a point.
	assert.InDelta(t, 1.0, DistPointSegment(Vec{1, 0}, a, a), 1e-12)
}

func TestSweepCirclePoint(t *testing.T) {
	// Circle radius 1 moving right toward a point 5 units away: contact
	// when centre is 1 away, i.e. after 4 units of a 10-unit sweep.
	tc, n, ok := SweepCirclePoint(Vec{0, 0}, Vec{1, 0}, 10, Vec{5, 0}, 1)
	require.True(t, ok)
	assert.InDelta(t, 0.4, tc, 1e-9)
	assert.InDelta(t, -1.0, n.X, 1e-9)

	// Moving away: no hit.
	_, _, ok = SweepCirclePoint(Vec{0, 0}, Vec{-1, 0}, 10, Vec{5, 0}, 1)
	assert.False(t, ok)

	// Grazing exactly at distance r passes by.
	_, _, ok = SweepCirclePoint(Vec{0, 1}, Vec{1, 0}, 10, Vec{5, 0}, 1)
	assert.False(t, ok)
}

func TestSweepCircleSegment(t *testing.T) {
	a, b := Vec{3, -5}, Vec{3, 5}

	// Perpendicular approach hits the edge body.
	tc, n, ok := SweepCircleSegment(Vec{0, 0}, Vec{1, 0}, 10, a, b, 0.5)
	require.True(t, ok)
	assert.InDelta(t, 0.25, tc, 1e-9)
	assert.InDelta(t, -1.0, n.X, 1e-9)
	assert.InDelta(t, 0.0, n.Y, 1e-9)

	// Passing beyond the endpoint caps misses.
	_, _, ok = SweepCircleSegment(Vec{0, 7}, Vec{1, 0}, 10, a, b, 0.5)
	assert.False(t, ok)

	// Head-on at an endpoint hits the cap with a diagonal-free normal.
	tc, n, ok = SweepCircleSegment(Vec{3, 8}, Vec{0, -1}, 10, a, b, 0.5)
	require.True(t, ok)
	assert.InDelta(t, 0.25, tc, 1e-9)
	assert.InDelta(t, 1.0, n.Y, 1e-9)
}
