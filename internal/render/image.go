// Package render turns a finished (or in-flight) grid state into
// raster output: a PNG still sized to a paper format, and the frame
// sequence behind the optional animation.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"runtime"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mowerlab/gridcover/internal/geom"
	"github.com/mowerlab/gridcover/internal/sim"
)

const mmPerInch = 25.4

// captionHeightPx is the caption strip height at the bottom of the
// image; the strip is reserved only when Options.Caption is set.
const captionHeightPx = 18

// Options selects size, theme and overlays for a rendered image.
type Options struct {
	PaperSize string  // a5|a4|a3|letter|square, or "" for explicit mm
	MMWidth   float64 // used when PaperSize is ""
	MMHeight  float64
	DPI       int
	Theme     string
	ShowTrack bool
	GridLines bool
	QTOverlay bool
	Caption   bool
}

// paperMM returns the page size in millimetres, landscape.
func paperMM(name string) (w, h float64, err error) {
	switch name {
	case "a5":
		return 210, 148, nil
	case "a4":
		return 297, 210, nil
	case "a3":
		return 420, 297, nil
	case "letter":
		return 279.4, 215.9, nil
	case "square":
		return 210, 210, nil
	default:
		return 0, 0, fmt.Errorf("%w: unknown paper size %q", sim.ErrConfig, name)
	}
}

// pixelSize resolves Options into a pixel width and height.
func (o *Options) pixelSize() (int, int, error) {
	mmW, mmH := o.MMWidth, o.MMHeight
	if o.PaperSize != "" {
		var err error
		mmW, mmH, err = paperMM(o.PaperSize)
		if err != nil {
			return 0, 0, err
		}
	}
	if mmW <= 0 || mmH <= 0 {
		return 0, 0, fmt.Errorf("%w: image size %gx%gmm must be positive", sim.ErrConfig, mmW, mmH)
	}
	dpi := o.DPI
	if dpi <= 0 {
		dpi = 150
	}
	return int(math.Round(mmW / mmPerInch * float64(dpi))), int(math.Round(mmH / mmPerInch * float64(dpi))), nil
}

// Validate resolves the size and theme without rendering, so bad
// image options are rejected before the simulation starts.
func (o *Options) Validate() error {
	if _, _, err := o.pixelSize(); err != nil {
		return err
	}
	_, err := LookupTheme(o.Theme)
	return err
}

// Snapshot is the read-only view of simulator state the renderer
// consumes. Rendering never mutates simulation state.
type Snapshot struct {
	Grid   *sim.Grid
	World  *sim.Map
	QT     *sim.QuadTree // may be nil
	Track  []geom.Vec
	Result *sim.Result // caption source; may be nil
}

// Image renders the snapshot into an RGBA buffer. Cell rows are
// painted by a bounded fan-out of goroutines; this parallelism is pure
// post-processing and cannot influence simulation state.
func Image(snap Snapshot, opt Options) (*image.RGBA, error) {
	pw, ph, err := opt.pixelSize()
	if err != nil {
		return nil, err
	}
	theme, err := LookupTheme(opt.Theme)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, pw, ph))

	plotH := ph
	if opt.Caption {
		plotH -= captionHeightPx
	}

	// World-to-pixel scale preserving aspect; the plot is centred.
	scale := math.Min(float64(pw)/snap.World.Width, float64(plotH)/snap.World.Height)
	offX := (float64(pw) - snap.World.Width*scale) / 2
	offY := (float64(plotH) - snap.World.Height*scale) / 2

	toPx := func(p geom.Vec) (int, int) {
		// World Y grows up, image Y grows down.
		return int(offX + p.X*scale), int(offY + (snap.World.Height-p.Y)*scale)
	}

	g := snap.Grid
	rowsPerWorker := (ph + runtime.NumCPU() - 1) / runtime.NumCPU()
	var wg sync.WaitGroup
	for y0 := 0; y0 < ph; y0 += rowsPerWorker {
		y1 := y0 + rowsPerWorker
		if y1 > ph {
			y1 = ph
		}
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			for y := y0; y < y1; y++ {
				for x := 0; x < pw; x++ {
					img.SetRGBA(x, y, cellColor(g, theme, x, y, offX, offY, scale, snap.World.Height, plotH))
				}
			}
		}(y0, y1)
	}
	wg.Wait()

	if opt.GridLines {
		drawGridLines(img, snap.World, theme, toPx, plotH)
	}
	if opt.QTOverlay && snap.QT != nil {
		drawQuadTree(img, snap.QT, theme, toPx)
	}
	if opt.ShowTrack {
		for _, p := range snap.Track {
			x, y := toPx(p)
			if x >= 0 && x < pw && y >= 0 && y < plotH {
				img.SetRGBA(x, y, theme.Track)
			}
		}
	}
	if opt.Caption && snap.Result != nil {
		drawCaption(img, snap.Result, theme, ph)
	}
	return img, nil
}

// cellColor maps one pixel to its cell colour: background outside the
// plot and for uncovered cells, obstacle colour for blocked cells, the
// visit gradient for covered ones.
func cellColor(g *sim.Grid, theme *Theme, x, y int, offX, offY, scale, worldH float64, plotH int) color.RGBA {
	if y >= plotH {
		return theme.Background
	}
	wx := (float64(x) - offX) / scale
	wy := worldH - (float64(y)-offY)/scale
	i := int(wx / g.CellSize)
	j := int(wy / g.CellSize)
	if wx < 0 || wy < 0 || i < 0 || i >= g.Nx || j < 0 || j >= g.Ny {
		return theme.Background
	}
	if g.IsBlocked(i, j) {
		return theme.Blocked
	}
	if v := g.VisitCount(i, j); v > 0 {
		return theme.Cell(v)
	}
	return theme.Background
}

// drawGridLines paints 1px lines on integer world coordinates.
func drawGridLines(img *image.RGBA, world *sim.Map, theme *Theme, toPx func(geom.Vec) (int, int), plotH int) {
	b := img.Bounds()
	for wx := 0.0; wx <= world.Width; wx++ {
		x, _ := toPx(geom.Vec{X: wx})
		for y := 0; y < plotH && y < b.Max.Y; y++ {
			if x >= 0 && x < b.Max.X {
				img.SetRGBA(x, y, theme.GridLine)
			}
		}
	}
	for wy := 0.0; wy <= world.Height; wy++ {
		_, y := toPx(geom.Vec{Y: wy})
		for x := 0; x < b.Max.X; x++ {
			if y >= 0 && y < plotH {
				img.SetRGBA(x, y, theme.GridLine)
			}
		}
	}
}

// drawQuadTree outlines every node rectangle.
func drawQuadTree(img *image.RGBA, qt *sim.QuadTree, theme *Theme, toPx func(geom.Vec) (int, int)) {
	qt.Walk(func(_ int, rect geom.AABB, _ []int) {
		x0, y1 := toPx(geom.Vec{X: rect.MinX, Y: rect.MinY})
		x1, y0 := toPx(geom.Vec{X: rect.MaxX, Y: rect.MaxY})
		drawRectOutline(img, x0, y0, x1, y1, theme.QTLine)
	})
}

func drawRectOutline(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	b := img.Bounds()
	for x := x0; x <= x1; x++ {
		if x >= 0 && x < b.Max.X {
			if y0 >= 0 && y0 < b.Max.Y {
				img.SetRGBA(x, y0, c)
			}
			if y1 >= 0 && y1 < b.Max.Y {
				img.SetRGBA(x, y1, c)
			}
		}
	}
	for y := y0; y <= y1; y++ {
		if y >= 0 && y < b.Max.Y {
			if x0 >= 0 && x0 < b.Max.X {
				img.SetRGBA(x0, y, c)
			}
			if x1 >= 0 && x1 < b.Max.X {
				img.SetRGBA(x1, y, c)
			}
		}
	}
}

// drawCaption writes the summary line into the bottom strip.
func drawCaption(img *image.RGBA, res *sim.Result, theme *Theme, ph int) {
	text := fmt.Sprintf("seed=%d  covered=%.2f%%  distance=%.1f  bounces=%d  t=%.0fs",
		res.Seed, res.CoveredPercent, res.Distance, res.Bounces, res.SimSeconds)
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(theme.Caption),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(6, ph-5),
	}
	d.DrawString(text)
}

// WriteImage renders the snapshot and writes it as PNG.
func WriteImage(path string, snap Snapshot, opt Options) error {
	img, err := Image(snap, opt)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: writing image %s: %v", sim.ErrIO, path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("%w: encoding image %s: %v", sim.ErrIO, path, err)
	}
	return f.Close()
}
