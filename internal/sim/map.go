package sim

import (
	"fmt"

	"github.com/mowerlab/gridcover/internal/geom"
)

// ObstacleKind identifies the shape of an obstacle.
type ObstacleKind uint8

const (
	ObstacleRect      ObstacleKind = iota // axis-aligned rectangle
	ObstacleCircle                        // disc
	ObstaclePolygon                       // closed polygon, ≥3 points
	ObstacleThickLine                     // segment with width (capsule)
	obstacleKindCount                     // sentinel
)

// KindName returns the document-facing name of an obstacle kind.
func (k ObstacleKind) KindName() string {
	switch k {
	case ObstacleRect:
		return "rectangle"
	case ObstacleCircle:
		return "circle"
	case ObstaclePolygon:
		return "polygon"
	case ObstacleThickLine:
		return "line"
	default:
		return "unknown"
	}
}

// Obstacle is a static blocked region in world coordinates. It is a
// tagged variant: Kind selects which field group is meaningful.
type Obstacle struct {
	Kind ObstacleKind
	Name string

	// Rectangle: origin + extent.
	X, Y, W, H float64
	// Circle: centre + radius.
	CX, CY, R float64
	// Polygon: vertices, treated as closed.
	Points []geom.Vec
	// Thick line: endpoints + full width.
	P1, P2 geom.Vec
	Width  float64
}

// AABB returns the bounding box of the obstacle's geometry.
func (o *Obstacle) AABB() geom.AABB {
	switch o.Kind {
	case ObstacleRect:
		return geom.AABB{MinX: o.X, MinY: o.Y, MaxX: o.X + o.W, MaxY: o.Y + o.H}
	case ObstacleCircle:
		return geom.AABB{MinX: o.CX - o.R, MinY: o.CY - o.R, MaxX: o.CX + o.R, MaxY: o.CY + o.R}
	case ObstaclePolygon:
		box := geom.NewAABB(o.Points[0], o.Points[0])
		for _, p := range o.Points[1:] {
			if p.X < box.MinX {
				box.MinX = p.X
			}
			if p.X > box.MaxX {
				box.MaxX = p.X
			}
			if p.Y < box.MinY {
				box.MinY = p.Y
			}
			if p.Y > box.MaxY {
				box.MaxY = p.Y
			}
		}
		return box
	case ObstacleThickLine:
		return geom.NewAABB(o.P1, o.P2).Expand(o.Width / 2)
	default:
		return geom.AABB{}
	}
}

// Contains reports whether the world point p lies inside the obstacle.
func (o *Obstacle) Contains(p geom.Vec) bool {
	switch o.Kind {
	case ObstacleRect:
		return p.X >= o.X && p.X <= o.X+o.W && p.Y >= o.Y && p.Y <= o.Y+o.H
	case ObstacleCircle:
		dx := p.X - o.CX
		dy := p.Y - o.CY
		return dx*dx+dy*dy <= o.R*o.R
	case ObstaclePolygon:
		return geom.PointInPolygon(p, o.Points)
	case ObstacleThickLine:
		return geom.DistPointSegment(p, o.P1, o.P2) <= o.Width/2
	default:
		return false
	}
}

// OverlapsDisc reports whether a disc of radius r centred at p
// intersects the obstacle. Used for start pose validation.
func (o *Obstacle) OverlapsDisc(p geom.Vec, r float64) bool {
	switch o.Kind {
	case ObstacleRect:
		cx := clamp(p.X, o.X, o.X+o.W)
		cy := clamp(p.Y, o.Y, o.Y+o.H)
		dx := p.X - cx
		dy := p.Y - cy
		return dx*dx+dy*dy <= r*r
	case ObstacleCircle:
		dx := p.X - o.CX
		dy := p.Y - o.CY
		rr := o.R + r
		return dx*dx+dy*dy <= rr*rr
	case ObstaclePolygon:
		if geom.PointInPolygon(p, o.Points) {
			return true
		}
		for i := range o.Points {
			a := o.Points[i]
			b := o.Points[(i+1)%len(o.Points)]
			if geom.DistPointSegment(p, a, b) <= r {
				return true
			}
		}
		return false
	case ObstacleThickLine:
		return geom.DistPointSegment(p, o.P1, o.P2) <= o.Width/2+r
	default:
		return false
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// label returns a human-readable identifier for error messages.
func (o *Obstacle) label(index int) string {
	if o.Name != "" {
		return fmt.Sprintf("%s %q", o.Kind.KindName(), o.Name)
	}
	return fmt.Sprintf("%s #%d", o.Kind.KindName(), index)
}

// Map is the simulated world: bounds plus the ordered obstacle list.
// The map owns the obstacle records; the quad-tree and the collision
// path refer to them by index only.
type Map struct {
	Name        string
	Description string
	Width       float64
	Height      float64
	Obstacles   []Obstacle
}

// NewMap returns an empty map of the given dimensions.
func NewMap(width, height float64) *Map {
	return &Map{Width: width, Height: height}
}

// Bounds returns the world rectangle [0,W]×[0,H].
func (m *Map) Bounds() geom.AABB {
	return geom.AABB{MinX: 0, MinY: 0, MaxX: m.Width, MaxY: m.Height}
}

// Validate checks dimensions and each obstacle against the world
// rectangle. All failures are configuration errors.
func (m *Map) Validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("%w: world dimensions must be positive, got %gx%g", ErrConfig, m.Width, m.Height)
	}
	for i := range m.Obstacles {
		o := &m.Obstacles[i]
		switch o.Kind {
		case ObstacleRect:
			if o.W <= 0 || o.H <= 0 {
				return fmt.Errorf("%w: %s has non-positive extent", ErrConfig, o.label(i))
			}
		case ObstacleCircle:
			if o.R <= 0 {
				return fmt.Errorf("%w: %s has non-positive radius", ErrConfig, o.label(i))
			}
		case ObstaclePolygon:
			if len(o.Points) < 3 {
				return fmt.Errorf("%w: %s has %d points, need at least 3", ErrConfig, o.label(i), len(o.Points))
			}
		case ObstacleThickLine:
			if o.Width <= 0 {
				return fmt.Errorf("%w: %s has non-positive width", ErrConfig, o.label(i))
			}
		default:
			return fmt.Errorf("%w: obstacle #%d has unknown kind %d", ErrConfig, i, o.Kind)
		}
		box := o.AABB()
		if box.MinX < -geom.Epsilon || box.MinY < -geom.Epsilon ||
			box.MaxX > m.Width+geom.Epsilon || box.MaxY > m.Height+geom.Epsilon {
			return fmt.Errorf("%w: %s extends outside the %gx%g world", ErrConfig, o.label(i), m.Width, m.Height)
		}
	}
	return nil
}
