// Package config defines the run options shared by the CLI flags and
// the TOML argument file. Every flag maps one-to-one onto a TOML key;
// values given on the command line override file values.
package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/mowerlab/gridcover/internal/sim"
)

// Options mirrors the CLI surface. Angles are degrees and times are
// minutes here (flag-friendly units); ToParams converts to the core's
// radians and seconds. Negative start-x/start-y/heading mean "sample".
type Options struct {
	WorldWidth  float64 `toml:"world-width"`
	WorldHeight float64 `toml:"world-height"`
	CellSize    float64 `toml:"cell-size"`
	MapFile     string  `toml:"map-file"`

	Cutter      string  `toml:"cutter"`
	Radius      float64 `toml:"radius"`
	BladeLength float64 `toml:"blade-length"`
	Velocity    float64 `toml:"velocity"`
	StepSize    float64 `toml:"step-size"`

	StartX  float64 `toml:"start-x"`
	StartY  float64 `toml:"start-y"`
	Heading float64 `toml:"heading"`

	PerturbPercent  float64 `toml:"perturb"`
	PerturbAngle    float64 `toml:"perturb-angle"`
	PerturbOnBounce bool    `toml:"perturb-on-bounce"`
	BounceAngle     float64 `toml:"bounce-angle"`

	Slippage               bool    `toml:"slippage"`
	SlippageActivation     float64 `toml:"slippage-activation-distance"`
	SlippageProb           float64 `toml:"slippage-probability"`
	SlippageMinDistance    float64 `toml:"slippage-min-distance"`
	SlippageMaxDistance    float64 `toml:"slippage-max-distance"`
	SlippageMinRadius      float64 `toml:"slippage-min-radius"`
	SlippageMaxRadius      float64 `toml:"slippage-max-radius"`
	SlippageAdjustmentStep float64 `toml:"slippage-adjustment-step"`

	Imbalance               bool    `toml:"imbalance"`
	ImbalanceMinRadius      float64 `toml:"imbalance-min-radius"`
	ImbalanceMaxRadius      float64 `toml:"imbalance-max-radius"`
	ImbalanceAdjustmentStep float64 `toml:"imbalance-adjustment-step"`

	BatteryRunMinutes    float64 `toml:"battery-run-minutes"`
	BatteryChargeMinutes float64 `toml:"battery-charge-minutes"`

	StopBounces  int     `toml:"stop-bounces"`
	StopMinutes  float64 `toml:"stop-minutes"`
	StopCoverage float64 `toml:"stop-coverage"` // percent
	StopSteps    int     `toml:"stop-steps"`
	StopDistance float64 `toml:"stop-distance"`

	Seed int64 `toml:"seed"`

	Verbose  bool `toml:"verbose"`
	Progress bool `toml:"progress"`
	Quiet    bool `toml:"quiet"`
	JSON     bool `toml:"json"`

	ImageFile string  `toml:"image-file"`
	PaperSize string  `toml:"paper-size"`
	ImageMMW  float64 `toml:"image-mm-width"`
	ImageMMH  float64 `toml:"image-mm-height"`
	DPI       int     `toml:"dpi"`
	Theme     string  `toml:"theme"`
	ShowTrack bool    `toml:"show-track"`
	GridLines bool    `toml:"grid-lines"`
	QTOverlay bool    `toml:"qt-overlay"`

	Animate    bool    `toml:"animate"`
	AnimFile   string  `toml:"animation-file"`
	FramesDir  string  `toml:"frames-dir"`
	FPS        int     `toml:"fps"`
	Speedup    float64 `toml:"speedup"`
	Encoder    string  `toml:"encoder"`
	KeepFrames bool    `toml:"keep-frames"`

	DBFile string `toml:"db-file"`

	NoQuadTree bool   `toml:"no-quadtree"`
	QTDump     string `toml:"qt-dump"`
}

// Default returns the CLI defaults: a 100x100 world, a disc cutter and
// a 99.5% coverage stop.
func Default() Options {
	return Options{
		WorldWidth:  100,
		WorldHeight: 100,
		CellSize:    sim.DefaultCellSize,

		Cutter:      "disc",
		Radius:      sim.DefaultRadius,
		BladeLength: sim.DefaultBladeLength,
		Velocity:    sim.DefaultVelocity,

		StartX:  -1,
		StartY:  -1,
		Heading: -1,

		PerturbPercent:  sim.DefaultSegmentPercent,
		PerturbAngle:    5,
		PerturbOnBounce: true,
		BounceAngle:     60,

		SlippageActivation:     10,
		SlippageProb:           0.1,
		SlippageMinDistance:    0.5,
		SlippageMaxDistance:    3,
		SlippageMinRadius:      0.5,
		SlippageMaxRadius:      2,
		SlippageAdjustmentStep: sim.DefaultCellSize / 2,

		ImbalanceMinRadius:      20,
		ImbalanceMaxRadius:      80,
		ImbalanceAdjustmentStep: sim.DefaultCellSize / 2,

		BatteryRunMinutes:    0,
		BatteryChargeMinutes: 60,

		StopCoverage: 99.5,

		Seed: 42,

		PaperSize: "a4",
		DPI:       150,
		Theme:     "green",

		FPS:     30,
		Speedup: 1,
		Encoder: "h264",
	}
}

// Load reads a TOML argument file into opts, leaving keys absent from
// the file untouched. Unknown keys are configuration errors so typos
// do not silently vanish.
func Load(path string, opts *Options) error {
	meta, err := toml.DecodeFile(path, opts)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: argument file %s: %v", sim.ErrIO, path, err)
		}
		return fmt.Errorf("%w: argument file %s: %v", sim.ErrConfig, path, err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return fmt.Errorf("%w: argument file %s has unknown keys: %s", sim.ErrConfig, path, strings.Join(keys, ", "))
	}
	return nil
}

// Save writes opts as a TOML document.
func Save(path string, opts *Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: writing argument file %s: %v", sim.ErrIO, path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(opts); err != nil {
		return fmt.Errorf("%w: encoding argument file %s: %v", sim.ErrIO, path, err)
	}
	return f.Close()
}

// ToParams converts the flag-facing options into the core parameter
// set. Unit conversions (degrees to radians, minutes to seconds,
// percent to fraction) happen here and nowhere else.
func (o *Options) ToParams() (sim.Params, error) {
	kind, err := sim.ParseCutterKind(o.Cutter)
	if err != nil {
		return sim.Params{}, err
	}

	p := sim.DefaultParams()
	p.CellSize = o.CellSize
	p.CutterKind = kind
	p.Radius = o.Radius
	p.BladeLength = o.BladeLength
	p.Velocity = o.Velocity
	p.StepSize = o.StepSize

	if o.StartX >= 0 && o.StartY >= 0 {
		p.StartSet = true
		p.StartX = o.StartX
		p.StartY = o.StartY
	}
	if o.Heading >= 0 {
		p.HeadingSet = true
		p.HeadingDeg = o.Heading
	}

	p.PerturbSegmentPercent = o.PerturbPercent
	p.SegmentAngleRad = o.PerturbAngle * degToRad
	p.PerturbOnBounce = o.PerturbOnBounce
	p.BounceAngleRad = o.BounceAngle * degToRad

	p.SlippageEnabled = o.Slippage
	p.SlippageActivationDistance = o.SlippageActivation
	p.SlippageProb = o.SlippageProb
	p.SlippageMinDistance = o.SlippageMinDistance
	p.SlippageMaxDistance = o.SlippageMaxDistance
	p.SlippageMinRadius = o.SlippageMinRadius
	p.SlippageMaxRadius = o.SlippageMaxRadius
	p.SlippageAdjustmentStep = o.SlippageAdjustmentStep

	p.ImbalanceEnabled = o.Imbalance
	p.ImbalanceMinRadius = o.ImbalanceMinRadius
	p.ImbalanceMaxRadius = o.ImbalanceMaxRadius
	p.ImbalanceAdjustmentStep = o.ImbalanceAdjustmentStep

	p.BatteryRunTime = o.BatteryRunMinutes * 60
	p.BatteryChargeTime = o.BatteryChargeMinutes * 60

	p.MaxBounces = o.StopBounces
	p.MaxSeconds = o.StopMinutes * 60
	p.MaxCoverage = o.StopCoverage / 100
	p.MaxSteps = o.StopSteps
	p.MaxDistance = o.StopDistance

	p.Seed = o.Seed
	p.UseQuadTree = !o.NoQuadTree

	p.RecordTrack = o.ShowTrack || o.Animate

	return p, nil
}

const degToRad = math.Pi / 180
