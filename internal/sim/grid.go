package sim

import (
	"fmt"
	"math"

	"github.com/mowerlab/gridcover/internal/geom"
)

// maxGridCells bounds the cell array so absurd world/cell-size
// combinations fail at allocation time instead of thrashing the host.
const maxGridCells = 1 << 28

// Grid tracks per-cell visit counts over the tiled world. Cells are
// atomic: a cell is covered once its visit count is ≥1 and stays
// covered. Cells whose centre lies inside an obstacle are blocked and
// excluded from both the covered set and the coverage denominator.
type Grid struct {
	Nx, Ny   int
	CellSize float64

	visits  []uint32 // row-major: index = j*Nx + i
	blocked []bool

	coveredCount int
	blockedCount int
}

// NewGrid tiles the map with cells of side cellSize and marks blocked
// cells from the obstacle list.
func NewGrid(m *Map, cellSize float64) (*Grid, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("%w: cell size must be positive, got %g", ErrConfig, cellSize)
	}
	// Floor with a tolerance: W/s lands a hair under the integer when
	// the cell size is not exactly representable (0.1, 0.3, ...).
	nx := int(math.Floor(m.Width/cellSize + 1e-9))
	ny := int(math.Floor(m.Height/cellSize + 1e-9))
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("%w: cell size %g leaves no cells in a %gx%g world", ErrConfig, cellSize, m.Width, m.Height)
	}
	total := nx * ny
	if total > maxGridCells || total/nx != ny {
		return nil, fmt.Errorf("%w: grid %dx%d exceeds the cell limit", ErrResource, nx, ny)
	}

	g := &Grid{
		Nx:       nx,
		Ny:       ny,
		CellSize: cellSize,
		visits:   make([]uint32, total),
		blocked:  make([]bool, total),
	}

	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			c := g.CellCenter(i, j)
			for oi := range m.Obstacles {
				if m.Obstacles[oi].Contains(c) {
					g.blocked[j*nx+i] = true
					g.blockedCount++
					break
				}
			}
		}
	}
	return g, nil
}

// InBounds reports whether (i,j) is a valid cell.
func (g *Grid) InBounds(i, j int) bool {
	return i >= 0 && i < g.Nx && j >= 0 && j < g.Ny
}

// CellCenter returns the world coordinates of the centre of cell (i,j).
func (g *Grid) CellCenter(i, j int) geom.Vec {
	return geom.Vec{
		X: (float64(i) + 0.5) * g.CellSize,
		Y: (float64(j) + 0.5) * g.CellSize,
	}
}

// CellCorners returns the four corners of cell (i,j).
func (g *Grid) CellCorners(i, j int) [4]geom.Vec {
	x0 := float64(i) * g.CellSize
	y0 := float64(j) * g.CellSize
	x1 := x0 + g.CellSize
	y1 := y0 + g.CellSize
	return [4]geom.Vec{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

// VisitCount returns the number of recorded passes over cell (i,j).
func (g *Grid) VisitCount(i, j int) int {
	if !g.InBounds(i, j) {
		return 0
	}
	return int(g.visits[j*g.Nx+i])
}

// IsBlocked reports whether cell (i,j) is excluded by an obstacle.
func (g *Grid) IsBlocked(i, j int) bool {
	if !g.InBounds(i, j) {
		return false
	}
	return g.blocked[j*g.Nx+i]
}

// IsCovered reports whether cell (i,j) has been fully covered.
func (g *Grid) IsCovered(i, j int) bool {
	if !g.InBounds(i, j) {
		return false
	}
	idx := j*g.Nx + i
	return !g.blocked[idx] && g.visits[idx] > 0
}

// Visit records one pass over cell (i,j) and reports whether the cell
// became covered by this visit. Blocked cells never become covered and
// accumulate no visits.
func (g *Grid) Visit(i, j int) bool {
	if !g.InBounds(i, j) {
		return false
	}
	idx := j*g.Nx + i
	if g.blocked[idx] {
		return false
	}
	g.visits[idx]++
	if g.visits[idx] == 1 {
		g.coveredCount++
		return true
	}
	return false
}

// TotalCells returns Nx·Ny.
func (g *Grid) TotalCells() int { return g.Nx * g.Ny }

// BlockedCells returns the number of obstacle-excluded cells.
func (g *Grid) BlockedCells() int { return g.blockedCount }

// CoveredCells returns the number of fully covered cells.
func (g *Grid) CoveredCells() int { return g.coveredCount }

// CoverableCells returns the coverage denominator: total minus blocked.
func (g *Grid) CoverableCells() int { return g.TotalCells() - g.blockedCount }

// CoveredFraction returns covered/coverable in [0,1].
func (g *Grid) CoveredFraction() float64 {
	coverable := g.CoverableCells()
	if coverable <= 0 {
		return 0
	}
	return float64(g.coveredCount) / float64(coverable)
}
