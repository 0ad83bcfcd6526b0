package render

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mowerlab/gridcover/internal/geom"
	"github.com/mowerlab/gridcover/internal/sim"
)

// smallSnapshot builds a 4x4 world with one blocked region and a few
// covered cells.
func smallSnapshot(t *testing.T) Snapshot {
	t.Helper()
	m := sim.NewMap(4, 4)
	m.Obstacles = append(m.Obstacles, sim.Obstacle{Kind: sim.ObstacleRect, X: 0, Y: 0, W: 1, H: 1})
	g, err := sim.NewGrid(m, 0.5)
	require.NoError(t, err)
	g.Visit(4, 4)
	g.Visit(5, 4)
	for i := 0; i < 5; i++ {
		g.Visit(6, 4) // heavy revisits push the gradient
	}
	return Snapshot{Grid: g, World: m}
}

func TestPaperSizes(t *testing.T) {
	for _, name := range []string{"a5", "a4", "a3", "letter", "square"} {
		w, h, err := paperMM(name)
		require.NoError(t, err, name)
		assert.Greater(t, w, 0.0)
		assert.Greater(t, h, 0.0)
	}
	_, _, err := paperMM("b4")
	require.Error(t, err)
	assert.ErrorIs(t, err, sim.ErrConfig)
}

func TestPixelSize(t *testing.T) {
	opt := Options{PaperSize: "square", DPI: 100}
	pw, ph, err := opt.pixelSize()
	require.NoError(t, err)
	// 210mm at 100dpi is ~827px.
	assert.Equal(t, 827, pw)
	assert.Equal(t, ph, pw)

	opt = Options{MMWidth: 25.4, MMHeight: 50.8, DPI: 100}
	pw, ph, err = opt.pixelSize()
	require.NoError(t, err)
	assert.Equal(t, 100, pw)
	assert.Equal(t, 200, ph)

	opt = Options{MMWidth: -1, MMHeight: 10, DPI: 100}
	_, _, err = opt.pixelSize()
	assert.Error(t, err)
}

func TestLookupTheme(t *testing.T) {
	for _, name := range []string{"green", "autumn", "heat", "mono"} {
		th, err := LookupTheme(name)
		require.NoError(t, err)
		assert.Equal(t, name, th.Name)
	}
	_, err := LookupTheme("neon")
	require.Error(t, err)
	assert.ErrorIs(t, err, sim.ErrConfig)
}

func TestThemeGradientSaturates(t *testing.T) {
	th, err := LookupTheme("green")
	require.NoError(t, err)
	assert.Equal(t, th.Cell(visitCap), th.Cell(visitCap+50))
	assert.NotEqual(t, th.Cell(1), th.Cell(visitCap))
	assert.Equal(t, th.Background, th.Cell(0))
}

func TestImagePixels(t *testing.T) {
	snap := smallSnapshot(t)
	opt := Options{MMWidth: 25.4, MMHeight: 25.4, DPI: 100, Theme: "mono"}
	img, err := Image(snap, opt)
	require.NoError(t, err)
	require.Equal(t, 100, img.Bounds().Dx())

	th, _ := LookupTheme("mono")

	// The blocked rectangle occupies the world's bottom-left corner,
	// which is the image's bottom-left quarter-ish; world (0.5,0.5)
	// maps to pixel (12, 87).
	assert.Equal(t, th.Blocked, img.RGBAAt(12, 87))

	// A covered cell: world cell (4,4) centre is (2.25,2.25) -> pixel
	// (56, 43).
	assert.Equal(t, th.Cell(1), img.RGBAAt(56, 43))

	// Top-right is uncovered background.
	assert.Equal(t, th.Background, img.RGBAAt(95, 5))
}

func TestImageTrackOverlay(t *testing.T) {
	snap := smallSnapshot(t)
	snap.Track = []geom.Vec{{X: 3.5, Y: 3.5}}
	opt := Options{MMWidth: 25.4, MMHeight: 25.4, DPI: 100, Theme: "green", ShowTrack: true}
	img, err := Image(snap, opt)
	require.NoError(t, err)

	th, _ := LookupTheme("green")
	// World (3.5,3.5) maps to pixel (87, 12).
	assert.Equal(t, th.Track, img.RGBAAt(87, 12))
}

func TestWriteImage(t *testing.T) {
	snap := smallSnapshot(t)
	path := filepath.Join(t.TempDir(), "out.png")
	opt := Options{MMWidth: 25.4, MMHeight: 25.4, DPI: 50, Theme: "green"}
	require.NoError(t, WriteImage(path, snap, opt))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 50, decoded.Bounds().Dx())
}

func TestFrameSamplerInterval(t *testing.T) {
	dir := t.TempDir()
	// dt=0.2s, 30fps, speedup 60: one frame every 10 steps.
	fs, err := NewFrameSampler(dir, 30, 60, 0.2, Options{MMWidth: 25.4, MMHeight: 25.4, DPI: 20, Theme: "green"})
	require.NoError(t, err)
	assert.Equal(t, 10, fs.Interval)

	// Tiny speedup clamps the interval at one step per frame.
	fs2, err := NewFrameSampler(dir, 30, 0.001, 0.2, Options{Theme: "green"})
	require.NoError(t, err)
	assert.Equal(t, 1, fs2.Interval)

	_, err = NewFrameSampler(dir, 0, 1, 0.2, Options{Theme: "green"})
	assert.ErrorIs(t, err, sim.ErrConfig)
}

func TestEncoderArgs(t *testing.T) {
	for _, enc := range []string{"h264", "hevc", "vaapi"} {
		args, err := encoderArgs(enc)
		require.NoError(t, err)
		assert.NotEmpty(t, args)
	}
	_, err := encoderArgs("mpeg1")
	require.Error(t, err)
	assert.ErrorIs(t, err, sim.ErrConfig)
}
