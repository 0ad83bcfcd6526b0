package sim

// Coverage oracle: a cell counts as covered only when the cutter's
// active region contains the entire closed cell square at a single
// pose. Partial overlap never marks a cell.

// cellFullyCovered evaluates the coverage predicate for cell (i,j) at
// the cutter's current pose.
//
// Disc: all four corners within radius r of the centre.
//
// Blade: the spinning blade sweeps the annulus [r-l, r] within one
// step, so additionally the farthest corner must reach the annulus.
// A cell sitting entirely inside r-l is not cut at this pose; it picks
// its coverage up from a later pass, which is what produces the
// visible ring pattern.
func cellFullyCovered(g *Grid, c *Cutter, i, j int) bool {
	r2 := c.Radius * c.Radius
	maxD2 := 0.0
	for _, corner := range g.CellCorners(i, j) {
		dx := corner.X - c.Pos.X
		dy := corner.Y - c.Pos.Y
		d2 := dx*dx + dy*dy
		if d2 > r2 {
			return false
		}
		if d2 > maxD2 {
			maxD2 = d2
		}
	}
	if c.Kind == CutterBlade {
		inner := c.Radius - c.BladeLength
		if inner > 0 && maxD2 < inner*inner {
			return false
		}
	}
	return true
}

// applyCoverage tests every cell under the cutter's outer-disc AABB,
// records visits and returns how many cells became covered. The tested
// set is O(r²/s²) per step regardless of grid size.
func applyCoverage(g *Grid, c *Cutter) int {
	newly := 0
	i0, j0, i1, j1 := c.coverageBox(g)
	for j := j0; j <= j1; j++ {
		for i := i0; i <= i1; i++ {
			if !cellFullyCovered(g, c, i, j) {
				continue
			}
			if g.Visit(i, j) {
				newly++
			}
		}
	}
	return newly
}
