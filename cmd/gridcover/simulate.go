package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/mowerlab/gridcover/internal/config"
	"github.com/mowerlab/gridcover/internal/geom"
	"github.com/mowerlab/gridcover/internal/mapfile"
	"github.com/mowerlab/gridcover/internal/render"
	"github.com/mowerlab/gridcover/internal/sim"
	"github.com/mowerlab/gridcover/internal/store"
)

// simulate is the main code path: build world and simulator, run to
// termination, then emit report, image, animation and database row.
func simulate(ctx context.Context, opts *config.Options) error {
	var logW io.Writer = os.Stderr
	if opts.Quiet {
		logW = io.Discard
	}
	logger := sim.NewStdLogger(logW, opts.Verbose)

	world, err := buildWorld(opts)
	if err != nil {
		return err
	}
	params, err := opts.ToParams()
	if err != nil {
		return err
	}

	// Output options are configuration too: reject them before the run
	// instead of after minutes of simulation.
	if opts.ImageFile != "" || opts.Animate {
		ro := imageOptions(opts)
		if err := ro.Validate(); err != nil {
			return err
		}
	}
	if opts.Animate && opts.AnimFile != "" {
		if err := render.ValidateEncoder(opts.Encoder); err != nil {
			return err
		}
	}

	s, err := sim.New(world, params, logger)
	if err != nil {
		return err
	}

	var sampler *render.FrameSampler
	if opts.Animate {
		dir := opts.FramesDir
		if dir == "" {
			dir = strings.TrimSuffix(opts.ImageFile, ".png") + "-frames"
			if opts.ImageFile == "" {
				dir = "gridcover-frames"
			}
		}
		sampler, err = render.NewFrameSampler(dir, opts.FPS, opts.Speedup, s.StepSeconds(), imageOptions(opts))
		if err != nil {
			return err
		}
	}

	var frameErr error
	progress := newProgressPrinter(logW, opts.Progress && !opts.Quiet)
	onStep := func(s *sim.Simulator) {
		progress.maybePrint(s)
		if sampler != nil && frameErr == nil {
			frameErr = sampler.Observe(s)
		}
	}

	res, err := s.Run(ctx, onStep)
	if err != nil {
		return err
	}
	progress.finish()
	if frameErr != nil {
		// Frame writing is an optional output; degrade to a warning.
		logger.Warn("animation frames abandoned: %v", frameErr)
		sampler = nil
	}

	if opts.QTDump != "" && s.QuadTree() != nil {
		if err := dumpQuadTree(opts.QTDump, s.QuadTree()); err != nil {
			return err
		}
	}

	if opts.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("%w: encoding result: %v", sim.ErrIO, err)
		}
	} else {
		printReport(os.Stdout, res, world)
	}

	if opts.ImageFile != "" {
		snap := render.Snapshot{
			Grid:   s.Grid(),
			World:  s.World(),
			QT:     s.QuadTree(),
			Track:  s.Track(),
			Result: res,
		}
		if err := render.WriteImage(opts.ImageFile, snap, imageOptions(opts)); err != nil {
			return err
		}
		logger.Info("image written to %s", opts.ImageFile)
	}

	if sampler != nil && opts.AnimFile != "" && opts.Encoder != "none" {
		if err := render.Encode(sampler.Dir, opts.AnimFile, opts.FPS, opts.Encoder); err != nil {
			// Encoder failures abandon the video only; the frames,
			// still image and report have already been produced.
			logger.Warn("%v", err)
		} else {
			logger.Info("animation written to %s (%d frames)", opts.AnimFile, sampler.FrameCount())
			if !opts.KeepFrames {
				if err := render.RemoveFrames(sampler.Dir, sampler.FrameCount()); err != nil {
					logger.Warn("%v", err)
				}
			}
		}
	}

	if opts.DBFile != "" {
		id, err := saveRun(opts, res)
		if err != nil {
			return err
		}
		logger.Info("run %d appended to %s", id, opts.DBFile)
	}

	return nil
}

// buildWorld loads the map file or builds an empty world from the
// dimension flags. Map-file dimensions win over flags.
func buildWorld(opts *config.Options) (*sim.Map, error) {
	if opts.MapFile != "" {
		return mapfile.Load(opts.MapFile, opts.WorldWidth, opts.WorldHeight)
	}
	m := sim.NewMap(opts.WorldWidth, opts.WorldHeight)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// imageOptions maps the CLI options onto render options.
func imageOptions(opts *config.Options) render.Options {
	ro := render.Options{
		PaperSize: opts.PaperSize,
		MMWidth:   opts.ImageMMW,
		MMHeight:  opts.ImageMMH,
		DPI:       opts.DPI,
		Theme:     opts.Theme,
		ShowTrack: opts.ShowTrack,
		GridLines: opts.GridLines,
		QTOverlay: opts.QTOverlay,
		Caption:   true,
	}
	if ro.MMWidth > 0 && ro.MMHeight > 0 {
		ro.PaperSize = "" // explicit size wins
	}
	return ro
}

// printReport writes the human-readable result block, one key=value
// group per line.
func printReport(w io.Writer, res *sim.Result, world *sim.Map) {
	fmt.Fprintf(w, "=== GridCover Report ===\n")
	if world.Name != "" {
		fmt.Fprintf(w, "map: %s\n", world.Name)
	}
	fmt.Fprintf(w, "stop_reason=%s\n", res.StopReason)
	fmt.Fprintf(w, "coverage: covered=%.2f%% cells=%d/%d blocked=%d\n",
		res.CoveredPercent, res.CoveredCells, res.TotalCells-res.BlockedCells, res.BlockedCells)
	fmt.Fprintf(w, "motion: distance=%.2f bounces=%d steps=%d simulated=%.1fs wall=%dms\n",
		res.Distance, res.Bounces, res.Steps, res.SimSeconds, res.WallMillis)
	if res.BladeLength > 0 {
		fmt.Fprintf(w, "cutter: type=%s radius=%g blade_length=%g velocity=%g\n",
			res.CutterType, res.Radius, res.BladeLength, res.Velocity)
	} else {
		fmt.Fprintf(w, "cutter: type=%s radius=%g velocity=%g\n",
			res.CutterType, res.Radius, res.Velocity)
	}
	fmt.Fprintf(w, "battery: charges=%d remaining=%.0f%%\n",
		res.ChargeCount, 100*res.BatteryFraction)
	fmt.Fprintf(w, "world: %gx%g grid=%dx%d cell_size=%g\n",
		res.WorldWidth, res.WorldHeight, res.GridNx, res.GridNy, res.CellSize)
	fmt.Fprintf(w, "start: pos=(%.2f,%.2f) heading=%.1fdeg\n",
		res.StartX, res.StartY, res.StartHeadingDeg)
	fmt.Fprintf(w, "seed=%d\n", res.Seed)
}

// dumpQuadTree writes one line per node: depth, rectangle, leaf items.
func dumpQuadTree(path string, qt *sim.QuadTree) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: writing quad-tree dump %s: %v", sim.ErrIO, path, err)
	}
	defer f.Close()
	qt.Walk(func(depth int, rect geom.AABB, items []int) {
		fmt.Fprintf(f, "depth=%d rect=(%.3f,%.3f)-(%.3f,%.3f) items=%v\n",
			depth, rect.MinX, rect.MinY, rect.MaxX, rect.MaxY, items)
	})
	return f.Close()
}

// saveRun appends the run to the history database together with the
// effective options as TOML.
func saveRun(opts *config.Options, res *sim.Result) (int64, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(opts); err != nil {
		return 0, fmt.Errorf("%w: encoding run parameters: %v", sim.ErrIO, err)
	}
	st, err := store.Open(opts.DBFile)
	if err != nil {
		return 0, err
	}
	defer st.Close()
	return st.InsertRun(buf.String(), res)
}

// progressPrinter keeps a single updating stderr line, refreshed once
// per simulated minute.
type progressPrinter struct {
	w       io.Writer
	enabled bool
	lastMin int
	printed bool
}

func newProgressPrinter(w io.Writer, enabled bool) *progressPrinter {
	return &progressPrinter{w: w, enabled: enabled, lastMin: -1}
}

func (p *progressPrinter) maybePrint(s *sim.Simulator) {
	if !p.enabled {
		return
	}
	minute := int(s.SimSeconds() / 60)
	if minute == p.lastMin {
		return
	}
	p.lastMin = minute
	fmt.Fprintf(p.w, "\rt=%dmin covered=%.1f%% bounces=%d distance=%.0f ",
		minute, 100*s.Grid().CoveredFraction(), s.Bounces(), s.Distance())
	p.printed = true
}

func (p *progressPrinter) finish() {
	if p.printed {
		fmt.Fprintln(p.w)
	}
}
