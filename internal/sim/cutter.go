package sim

import (
	"fmt"

	"github.com/mowerlab/gridcover/internal/geom"
)

// CutterKind selects the cutting geometry.
type CutterKind uint8

const (
	// CutterDisc cuts everything under a solid disc of radius r.
	CutterDisc CutterKind = iota
	// CutterBlade cuts with a thin blade of length l mounted at the
	// disc perimeter. Within one step the spinning blade sweeps the
	// full annulus [r-l, r].
	CutterBlade
)

// KindName returns the flag-facing name of the cutter kind.
func (k CutterKind) KindName() string {
	switch k {
	case CutterDisc:
		return "disc"
	case CutterBlade:
		return "blade"
	default:
		return "unknown"
	}
}

// ParseCutterKind maps a flag value to a kind.
func ParseCutterKind(s string) (CutterKind, error) {
	switch s {
	case "disc":
		return CutterDisc, nil
	case "blade":
		return CutterBlade, nil
	default:
		return 0, fmt.Errorf("%w: unknown cutter type %q (want disc or blade)", ErrConfig, s)
	}
}

// Cutter is the moving agent: pose, kinematics, geometry and battery.
type Cutter struct {
	Pos geom.Vec // centre, world coordinates
	Dir geom.Vec // unit heading
	Vel float64  // length units per second

	Kind        CutterKind
	Radius      float64 // bounding disc radius, both geometries
	BladeLength float64 // blade geometry only
	Phase       float64 // blade angle; advanced per step, not read by coverage or rendering

	// Battery. RunTime 0 disables charging entirely.
	RunTime     float64 // seconds of cutting per charge
	Remaining   float64 // seconds left on the current charge
	ChargeCount int
}

// BatteryEnabled reports whether the battery model is active.
func (c *Cutter) BatteryEnabled() bool { return c.RunTime > 0 }

// BatteryFraction returns remaining charge in [0,1], or 1 when the
// battery model is disabled.
func (c *Cutter) BatteryFraction() float64 {
	if !c.BatteryEnabled() {
		return 1
	}
	return c.Remaining / c.RunTime
}

// coverageBox returns the cell index range under the cutter's outer
// disc at its current position, clamped to the grid.
func (c *Cutter) coverageBox(g *Grid) (i0, j0, i1, j1 int) {
	i0 = int((c.Pos.X - c.Radius) / g.CellSize)
	j0 = int((c.Pos.Y - c.Radius) / g.CellSize)
	i1 = int((c.Pos.X + c.Radius) / g.CellSize)
	j1 = int((c.Pos.Y + c.Radius) / g.CellSize)
	if i0 < 0 {
		i0 = 0
	}
	if j0 < 0 {
		j0 = 0
	}
	if i1 >= g.Nx {
		i1 = g.Nx - 1
	}
	if j1 >= g.Ny {
		j1 = g.Ny - 1
	}
	return i0, j0, i1, j1
}
