// Command gridcover runs the lawn coverage simulation: it builds the
// world, advances the cutter until a stopping condition fires, prints
// the result report and optionally renders a PNG, an animation and a
// database record.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mowerlab/gridcover/internal/config"
	"github.com/mowerlab/gridcover/internal/sim"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := config.Default()

	// An argument file supplies flag defaults; explicit flags then
	// override it. The file path is peeked before cobra parses so the
	// file's values can seed the flag defaults.
	if path := peekArgsFile(os.Args[1:]); path != "" {
		if err := config.Load(path, &opts); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitCode(err)
		}
	}

	var argsFile string
	var writeArgs string

	root := &cobra.Command{
		Use:           "gridcover",
		Short:         "Simulate a robotic lawn cutter and measure grid coverage",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			defer func() {
				// Internal invariant violations surface as panics from
				// the step loop; turn them back into errors here.
				if r := recover(); r != nil {
					if e, ok := r.(error); ok && errors.Is(e, sim.ErrInternal) {
						err = e
						return
					}
					panic(r)
				}
			}()
			if writeArgs != "" {
				return config.Save(writeArgs, &opts)
			}
			return simulate(cmd.Context(), &opts)
		},
	}

	fl := root.Flags()
	fl.StringVar(&argsFile, "args-file", "", "read argument defaults from a TOML file")
	fl.StringVar(&writeArgs, "write-args", "", "write the effective arguments as TOML and exit")

	fl.Float64Var(&opts.WorldWidth, "width", opts.WorldWidth, "world width in length units")
	fl.Float64Var(&opts.WorldHeight, "height", opts.WorldHeight, "world height in length units")
	fl.Float64Var(&opts.CellSize, "cell-size", opts.CellSize, "grid cell side")
	fl.StringVar(&opts.MapFile, "map", opts.MapFile, "YAML map file with world size and obstacles")

	fl.StringVar(&opts.Cutter, "cutter", opts.Cutter, "cutter geometry: disc or blade")
	fl.Float64Var(&opts.Radius, "radius", opts.Radius, "cutter bounding radius")
	fl.Float64Var(&opts.BladeLength, "blade-length", opts.BladeLength, "blade length (blade cutter)")
	fl.Float64Var(&opts.Velocity, "velocity", opts.Velocity, "cutter speed, units/second")
	fl.Float64Var(&opts.StepSize, "step-size", opts.StepSize, "step length (0 = 0.6x cell size)")

	fl.Float64Var(&opts.StartX, "start-x", opts.StartX, "start x (negative = sample)")
	fl.Float64Var(&opts.StartY, "start-y", opts.StartY, "start y (negative = sample)")
	fl.Float64Var(&opts.Heading, "heading", opts.Heading, "start heading, degrees (negative = sample)")

	fl.Float64Var(&opts.PerturbPercent, "perturb", opts.PerturbPercent, "mid-segment perturbation percent per cell")
	fl.Float64Var(&opts.PerturbAngle, "perturb-angle", opts.PerturbAngle, "mid-segment perturbation angle, degrees")
	fl.BoolVar(&opts.PerturbOnBounce, "perturb-on-bounce", opts.PerturbOnBounce, "randomise heading after a bounce")
	fl.Float64Var(&opts.BounceAngle, "bounce-angle", opts.BounceAngle, "bounce perturbation angle, degrees")

	fl.BoolVar(&opts.Slippage, "slippage", opts.Slippage, "enable wheel slippage")
	fl.Float64Var(&opts.SlippageActivation, "slippage-activation-distance", opts.SlippageActivation, "distance between slippage entry checks")
	fl.Float64Var(&opts.SlippageProb, "slippage-probability", opts.SlippageProb, "slippage entry probability per check")
	fl.Float64Var(&opts.SlippageMinDistance, "slippage-min-distance", opts.SlippageMinDistance, "minimum slip distance")
	fl.Float64Var(&opts.SlippageMaxDistance, "slippage-max-distance", opts.SlippageMaxDistance, "maximum slip distance")
	fl.Float64Var(&opts.SlippageMinRadius, "slippage-min-radius", opts.SlippageMinRadius, "minimum slip arc radius")
	fl.Float64Var(&opts.SlippageMaxRadius, "slippage-max-radius", opts.SlippageMaxRadius, "maximum slip arc radius")
	fl.Float64Var(&opts.SlippageAdjustmentStep, "slippage-adjustment-step", opts.SlippageAdjustmentStep, "travel between slip heading adjustments")

	fl.BoolVar(&opts.Imbalance, "imbalance", opts.Imbalance, "enable permanent wheel imbalance")
	fl.Float64Var(&opts.ImbalanceMinRadius, "imbalance-min-radius", opts.ImbalanceMinRadius, "minimum imbalance arc radius")
	fl.Float64Var(&opts.ImbalanceMaxRadius, "imbalance-max-radius", opts.ImbalanceMaxRadius, "maximum imbalance arc radius")
	fl.Float64Var(&opts.ImbalanceAdjustmentStep, "imbalance-adjustment-step", opts.ImbalanceAdjustmentStep, "travel between imbalance heading adjustments")

	fl.Float64Var(&opts.BatteryRunMinutes, "battery-run-minutes", opts.BatteryRunMinutes, "cutting minutes per charge (0 = no battery)")
	fl.Float64Var(&opts.BatteryChargeMinutes, "battery-charge-minutes", opts.BatteryChargeMinutes, "charging minutes")

	fl.IntVar(&opts.StopBounces, "stop-bounces", opts.StopBounces, "stop after this many bounces (0 = off)")
	fl.Float64Var(&opts.StopMinutes, "stop-minutes", opts.StopMinutes, "stop after this many simulated minutes (0 = off)")
	fl.Float64Var(&opts.StopCoverage, "stop-coverage", opts.StopCoverage, "stop at this coverage percent (0 = off)")
	fl.IntVar(&opts.StopSteps, "stop-steps", opts.StopSteps, "stop after this many steps (0 = off)")
	fl.Float64Var(&opts.StopDistance, "stop-distance", opts.StopDistance, "stop after this distance (0 = off)")

	fl.Int64Var(&opts.Seed, "seed", opts.Seed, "random seed (0 = draw from OS and log)")

	fl.BoolVarP(&opts.Verbose, "verbose", "v", opts.Verbose, "verbose logging")
	fl.BoolVar(&opts.Progress, "progress", opts.Progress, "print a progress line to stderr")
	fl.BoolVarP(&opts.Quiet, "quiet", "q", opts.Quiet, "suppress everything but the report and errors")
	fl.BoolVar(&opts.JSON, "json", opts.JSON, "print the result as JSON instead of the text report")

	fl.StringVarP(&opts.ImageFile, "image", "o", opts.ImageFile, "write a PNG of the final grid state")
	fl.StringVar(&opts.PaperSize, "paper-size", opts.PaperSize, "image paper size: a5, a4, a3, letter, square")
	fl.Float64Var(&opts.ImageMMW, "image-mm-width", opts.ImageMMW, "explicit image width in mm (overrides paper size)")
	fl.Float64Var(&opts.ImageMMH, "image-mm-height", opts.ImageMMH, "explicit image height in mm")
	fl.IntVar(&opts.DPI, "dpi", opts.DPI, "image resolution")
	fl.StringVar(&opts.Theme, "theme", opts.Theme, "image theme: green, autumn, heat, mono")
	fl.BoolVar(&opts.ShowTrack, "track", opts.ShowTrack, "overlay the centre track on the image")
	fl.BoolVar(&opts.GridLines, "grid-lines", opts.GridLines, "overlay integer-coordinate grid lines")
	fl.BoolVar(&opts.QTOverlay, "qt-overlay", opts.QTOverlay, "overlay quad-tree node rectangles")

	fl.BoolVar(&opts.Animate, "animate", opts.Animate, "write animation frames while simulating")
	fl.StringVar(&opts.AnimFile, "animation-file", opts.AnimFile, "assemble frames into this video via ffmpeg")
	fl.StringVar(&opts.FramesDir, "frames-dir", opts.FramesDir, "frame output directory (default: <image>-frames)")
	fl.IntVar(&opts.FPS, "fps", opts.FPS, "animation frame rate")
	fl.Float64Var(&opts.Speedup, "speedup", opts.Speedup, "animation speedup factor (sampling only)")
	fl.StringVar(&opts.Encoder, "encoder", opts.Encoder, "video encoder: h264, hevc, vaapi")
	fl.BoolVar(&opts.KeepFrames, "keep-frames", opts.KeepFrames, "keep frame files after video assembly")

	fl.StringVar(&opts.DBFile, "db", opts.DBFile, "append the run to this SQLite database")

	fl.BoolVar(&opts.NoQuadTree, "no-qt", opts.NoQuadTree, "use brute-force collision instead of the quad-tree")
	fl.StringVar(&opts.QTDump, "qt-dump", opts.QTDump, "write a quad-tree node dump to this path")

	// Accepted for compatibility; the step loop is single-threaded by
	// design and only row rendering parallelises.
	var legacyParallel bool
	fl.BoolVar(&legacyParallel, "parallel", false, "no effect")
	_ = fl.MarkDeprecated("parallel", "the simulation is single-threaded; results are identical")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitCode(err)
	}
	return 0
}

// peekArgsFile extracts the --args-file value without a full parse.
func peekArgsFile(args []string) string {
	for i, a := range args {
		if a == "--args-file" && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(a, "--args-file="); ok {
			return v
		}
	}
	return ""
}

// exitCode maps error kinds to distinct exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, sim.ErrConfig):
		return 2
	case errors.Is(err, sim.ErrIO):
		return 3
	case errors.Is(err, sim.ErrEncoding):
		return 4
	case errors.Is(err, sim.ErrResource):
		return 5
	case errors.Is(err, sim.ErrInternal):
		return 6
	default:
		return 1
	}
}
