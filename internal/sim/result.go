package sim

import (
	"math"
	"time"
)

// Result is the metric block of a finished (or interrupted) run. The
// JSON form is the machine-readable report; fields are grouped as in
// the printed report.
type Result struct {
	StopReason string `json:"stop_reason"`

	CoveredPercent float64 `json:"covered_percent"`
	CoveredCells   int     `json:"covered_cells"`
	BlockedCells   int     `json:"blocked_cells"`
	TotalCells     int     `json:"total_cells"`

	Distance   float64 `json:"distance"`
	Bounces    int     `json:"bounces"`
	SimSeconds float64 `json:"simulated_seconds"`
	WallMillis int64   `json:"wall_clock_ms"`
	Steps      int     `json:"steps"`

	CutterType  string  `json:"cutter_type"`
	Radius      float64 `json:"radius"`
	BladeLength float64 `json:"blade_length,omitempty"`
	Velocity    float64 `json:"velocity"`

	ChargeCount     int     `json:"charge_count"`
	BatteryFraction float64 `json:"battery_remaining_fraction"`

	WorldWidth  float64 `json:"world_width"`
	WorldHeight float64 `json:"world_height"`
	CellSize    float64 `json:"cell_size"`
	GridNx      int     `json:"grid_nx"`
	GridNy      int     `json:"grid_ny"`

	StartX          float64 `json:"start_x"`
	StartY          float64 `json:"start_y"`
	StartHeadingDeg float64 `json:"start_heading_deg"`

	Seed int64 `json:"seed"`
}

// Result snapshots the current metrics. Valid at any point between
// steps, including after an interrupt.
func (s *Simulator) Result() *Result {
	var wall int64
	if !s.wallStart.IsZero() {
		wall = time.Since(s.wallStart).Milliseconds()
	}
	r := &Result{
		StopReason: s.reason.String(),

		CoveredPercent: 100 * s.grid.CoveredFraction(),
		CoveredCells:   s.grid.CoveredCells(),
		BlockedCells:   s.grid.BlockedCells(),
		TotalCells:     s.grid.TotalCells(),

		Distance:   s.distance,
		Bounces:    s.bounces,
		SimSeconds: s.simSeconds,
		WallMillis: wall,
		Steps:      s.steps,

		CutterType: s.cutter.Kind.KindName(),
		Radius:     s.cutter.Radius,
		Velocity:   s.cutter.Vel,

		ChargeCount:     s.cutter.ChargeCount,
		BatteryFraction: s.cutter.BatteryFraction(),

		WorldWidth:  s.world.Width,
		WorldHeight: s.world.Height,
		CellSize:    s.grid.CellSize,
		GridNx:      s.grid.Nx,
		GridNy:      s.grid.Ny,

		StartX:          s.startPos.X,
		StartY:          s.startPos.Y,
		StartHeadingDeg: s.startHeading * 180 / math.Pi,

		Seed: s.rng.Seed(),
	}
	if s.cutter.Kind == CutterBlade {
		r.BladeLength = s.cutter.BladeLength
	}
	return r
}
