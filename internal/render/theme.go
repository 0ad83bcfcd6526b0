package render

import (
	"fmt"
	"image/color"

	"github.com/mowerlab/gridcover/internal/sim"
)

// visitCap is the visit count at which the gradient saturates.
const visitCap = 10

// Theme is the colour scheme of a rendered image. The gradient is
// indexed by min(visit count, visitCap); index 0 is unused (uncovered
// cells take the background colour).
type Theme struct {
	Name       string
	Background color.RGBA
	Blocked    color.RGBA
	GridLine   color.RGBA
	Track      color.RGBA
	QTLine     color.RGBA
	Caption    color.RGBA
	gradient   [visitCap + 1]color.RGBA
}

// Cell returns the colour for a covered cell with the given visit
// count.
func (t *Theme) Cell(visits int) color.RGBA {
	if visits < 1 {
		return t.Background
	}
	if visits > visitCap {
		visits = visitCap
	}
	return t.gradient[visits]
}

// lerpRGB interpolates start→end across gradient slots 1..visitCap.
func lerpRGB(start, end color.RGBA) [visitCap + 1]color.RGBA {
	var g [visitCap + 1]color.RGBA
	for i := 1; i <= visitCap; i++ {
		f := float64(i-1) / float64(visitCap-1)
		g[i] = color.RGBA{
			R: uint8(float64(start.R) + f*(float64(end.R)-float64(start.R))),
			G: uint8(float64(start.G) + f*(float64(end.G)-float64(start.G))),
			B: uint8(float64(start.B) + f*(float64(end.B)-float64(start.B))),
			A: 255,
		}
	}
	return g
}

var themes = map[string]*Theme{
	"green": {
		Name:       "green",
		Background: color.RGBA{245, 245, 240, 255},
		Blocked:    color.RGBA{70, 70, 75, 255},
		GridLine:   color.RGBA{200, 200, 195, 255},
		Track:      color.RGBA{200, 30, 30, 255},
		QTLine:     color.RGBA{120, 120, 220, 255},
		Caption:    color.RGBA{40, 40, 40, 255},
		gradient:   lerpRGB(color.RGBA{190, 230, 170, 255}, color.RGBA{30, 110, 40, 255}),
	},
	"autumn": {
		Name:       "autumn",
		Background: color.RGBA{250, 246, 238, 255},
		Blocked:    color.RGBA{60, 50, 45, 255},
		GridLine:   color.RGBA{210, 200, 185, 255},
		Track:      color.RGBA{40, 60, 180, 255},
		QTLine:     color.RGBA{150, 110, 70, 255},
		Caption:    color.RGBA{50, 40, 30, 255},
		gradient:   lerpRGB(color.RGBA{240, 210, 140, 255}, color.RGBA{160, 60, 20, 255}),
	},
	"heat": {
		Name:       "heat",
		Background: color.RGBA{250, 250, 250, 255},
		Blocked:    color.RGBA{40, 40, 40, 255},
		GridLine:   color.RGBA{220, 220, 220, 255},
		Track:      color.RGBA{30, 30, 30, 255},
		QTLine:     color.RGBA{100, 100, 100, 255},
		Caption:    color.RGBA{30, 30, 30, 255},
		gradient:   lerpRGB(color.RGBA{255, 235, 130, 255}, color.RGBA{200, 20, 20, 255}),
	},
	"mono": {
		Name:       "mono",
		Background: color.RGBA{255, 255, 255, 255},
		Blocked:    color.RGBA{0, 0, 0, 255},
		GridLine:   color.RGBA{230, 230, 230, 255},
		Track:      color.RGBA{0, 0, 0, 255},
		QTLine:     color.RGBA{180, 180, 180, 255},
		Caption:    color.RGBA{0, 0, 0, 255},
		gradient:   lerpRGB(color.RGBA{210, 210, 210, 255}, color.RGBA{60, 60, 60, 255}),
	},
}

// LookupTheme resolves a theme by name.
func LookupTheme(name string) (*Theme, error) {
	if t, ok := themes[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: unknown theme %q (want green, autumn, heat or mono)", sim.ErrConfig, name)
}
