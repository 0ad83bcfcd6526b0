package sim

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mowerlab/gridcover/internal/geom"
)

// TestInvariantsAcrossSeeds runs a mixed-obstacle world under several
// seeds and checks the structural invariants after every step:
// counter consistency, coverage monotonicity, containment and the
// distance bookkeeping.
func TestInvariantsAcrossSeeds(t *testing.T) {
	for _, seed := range []int64{1, 2, 3, 17, 99} {
		t.Run(fmt.Sprintf("Seed%d", seed), func(t *testing.T) {
			m := NewMap(10, 10)
			m.Obstacles = append(m.Obstacles,
				Obstacle{Kind: ObstacleRect, X: 1, Y: 7, W: 2, H: 1.5},
				Obstacle{Kind: ObstacleCircle, CX: 7, CY: 2.5, R: 0.9},
				Obstacle{Kind: ObstacleThickLine, P1: geom.Vec{X: 3, Y: 3}, P2: geom.Vec{X: 5, Y: 4}, Width: 0.4},
			)
			p := scenarioParams()
			p.Seed = seed
			p.MaxSteps = 4000
			p.SlippageEnabled = true

			s, err := New(m, p, nil)
			require.NoError(t, err)

			prevCovered := 0
			sumActual := 0.0
			prevPos := s.Cutter().Pos
			for s.Step() {
				g := s.Grid()
				assert.LessOrEqual(t, g.CoveredCells()+g.BlockedCells(), g.TotalCells())
				assert.GreaterOrEqual(t, g.CoveredCells(), prevCovered)
				prevCovered = g.CoveredCells()

				pos := s.Cutter().Pos
				assert.GreaterOrEqual(t, pos.X, p.Radius-1e-9)
				assert.LessOrEqual(t, pos.X, 10-p.Radius+1e-9)
				assert.GreaterOrEqual(t, pos.Y, p.Radius-1e-9)
				assert.LessOrEqual(t, pos.Y, 10-p.Radius+1e-9)

				sumActual += pos.Sub(prevPos).Len()
				prevPos = pos
			}
			// The step that fired the stop condition returned false but
			// still moved the cutter.
			sumActual += s.Cutter().Pos.Sub(prevPos).Len()

			// Distance equals the sum of actual per-step displacements,
			// up to the clamp's float drift.
			assert.InDelta(t, sumActual, s.Distance(), 1e-6)

			// Distance never exceeds velocity times stepped time;
			// bounce truncation only shortens it.
			assert.LessOrEqual(t, s.Distance(), p.Velocity*s.SimSeconds()+1e-9)
		})
	}
}

// TestQuadTreeSupersetDuringRun cross-checks the quad-tree against the
// brute-force list for the query boxes an actual run produces.
func TestQuadTreeSupersetDuringRun(t *testing.T) {
	m := randomObstacleMap(t, 5, 60)
	p := DefaultParams()
	p.CellSize = 0.5
	p.Radius = 0.4
	p.Velocity = 1
	p.MaxSteps = 2000
	p.Seed = 5

	s, err := New(m, p, nil)
	require.NoError(t, err)
	qt := s.QuadTree()
	require.NotNil(t, qt)

	var buf []int
	for s.Step() {
		pos := s.Cutter().Pos
		box := geom.NewAABB(pos, pos).Expand(1.0)
		got := qt.Query(box, buf)
		want := bruteQuery(m, box)
		require.Subset(t, got, want, "quad-tree missed obstacles near %v", pos)
		buf = got
	}
}
