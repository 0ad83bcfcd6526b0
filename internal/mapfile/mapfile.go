// Package mapfile loads world map documents. A map file is YAML with a
// name, an optional grid size and an ordered obstacle list; obstacle
// kinds are discriminated by a type field.
package mapfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mowerlab/gridcover/internal/geom"
	"github.com/mowerlab/gridcover/internal/sim"
)

type document struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Grid        *gridSize  `yaml:"grid"`
	Obstacles   []obstacle `yaml:"obstacles"`
}

type gridSize struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// obstacle is the union of all four variants' fields; Type selects
// which of them are read.
type obstacle struct {
	Type string `yaml:"type"`
	Name string `yaml:"name"`

	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`

	CX     float64 `yaml:"cx"`
	CY     float64 `yaml:"cy"`
	Radius float64 `yaml:"radius"`

	Points [][2]float64 `yaml:"points"`

	X1 float64 `yaml:"x1"`
	Y1 float64 `yaml:"y1"`
	X2 float64 `yaml:"x2"`
	Y2 float64 `yaml:"y2"`
}

// Load reads and validates a map file. defaultW/defaultH apply when
// the document has no grid block. The returned map has passed
// sim.Map.Validate.
func Load(path string, defaultW, defaultH float64) (*sim.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading map file %s: %v", sim.ErrIO, path, err)
	}
	return Parse(data, defaultW, defaultH)
}

// Parse builds a validated sim.Map from YAML bytes.
func Parse(data []byte, defaultW, defaultH float64) (*sim.Map, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: map file is not valid YAML: %v", sim.ErrConfig, err)
	}

	m := sim.NewMap(defaultW, defaultH)
	m.Name = doc.Name
	m.Description = doc.Description
	if doc.Grid != nil {
		m.Width = doc.Grid.Width
		m.Height = doc.Grid.Height
	}

	for i, o := range doc.Obstacles {
		ob, err := convert(o, i)
		if err != nil {
			return nil, err
		}
		m.Obstacles = append(m.Obstacles, ob)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func convert(o obstacle, index int) (sim.Obstacle, error) {
	switch o.Type {
	case "rectangle", "rect":
		return sim.Obstacle{
			Kind: sim.ObstacleRect,
			Name: o.Name,
			X:    o.X, Y: o.Y, W: o.Width, H: o.Height,
		}, nil

	case "circle":
		return sim.Obstacle{
			Kind: sim.ObstacleCircle,
			Name: o.Name,
			CX:   o.CX, CY: o.CY, R: o.Radius,
		}, nil

	case "polygon":
		pts := make([]geom.Vec, 0, len(o.Points))
		for _, p := range o.Points {
			pts = append(pts, geom.Vec{X: p[0], Y: p[1]})
		}
		// Drop an explicit closing point; the polygon is closed
		// implicitly from the last point back to the first.
		if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
			pts = pts[:len(pts)-1]
		}
		return sim.Obstacle{
			Kind:   sim.ObstaclePolygon,
			Name:   o.Name,
			Points: pts,
		}, nil

	case "line":
		return sim.Obstacle{
			Kind:  sim.ObstacleThickLine,
			Name:  o.Name,
			P1:    geom.Vec{X: o.X1, Y: o.Y1},
			P2:    geom.Vec{X: o.X2, Y: o.Y2},
			Width: o.Width,
		}, nil

	default:
		return sim.Obstacle{}, fmt.Errorf("%w: obstacle #%d has unknown type %q", sim.ErrConfig, index, o.Type)
	}
}
