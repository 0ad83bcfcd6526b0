package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mowerlab/gridcover/internal/sim"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "args.toml")

	want := Default()
	want.WorldWidth = 42
	want.Cutter = "blade"
	want.BladeLength = 0.07
	want.Slippage = true
	want.StopCoverage = 80
	want.Seed = 1234
	want.Theme = "heat"
	require.NoError(t, Save(path, &want))

	got := Default()
	require.NoError(t, Load(path, &got))
	assert.Equal(t, want, got)
}

func TestLoadOverlaysOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "args.toml")
	require.NoError(t, os.WriteFile(path, []byte("seed = 7\nvelocity = 0.5\n"), 0o644))

	got := Default()
	require.NoError(t, Load(path, &got))
	assert.EqualValues(t, 7, got.Seed)
	assert.Equal(t, 0.5, got.Velocity)
	// Untouched keys keep their defaults.
	assert.Equal(t, 100.0, got.WorldWidth)
	assert.Equal(t, "disc", got.Cutter)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "args.toml")
	require.NoError(t, os.WriteFile(path, []byte("sead = 7\n"), 0o644))

	got := Default()
	err := Load(path, &got)
	require.Error(t, err)
	assert.ErrorIs(t, err, sim.ErrConfig)
	assert.Contains(t, err.Error(), "sead")
}

func TestLoadMissingFile(t *testing.T) {
	got := Default()
	err := Load(filepath.Join(t.TempDir(), "nope.toml"), &got)
	require.Error(t, err)
	assert.ErrorIs(t, err, sim.ErrIO)
}

func TestToParamsConversions(t *testing.T) {
	o := Default()
	o.Cutter = "blade"
	o.PerturbAngle = 90
	o.BounceAngle = 45
	o.StopCoverage = 50
	o.StopMinutes = 2
	o.BatteryRunMinutes = 120
	o.StartX, o.StartY = 3, 4
	o.Heading = 180

	p, err := o.ToParams()
	require.NoError(t, err)

	assert.Equal(t, sim.CutterBlade, p.CutterKind)
	assert.InDelta(t, math.Pi/2, p.SegmentAngleRad, 1e-12)
	assert.InDelta(t, math.Pi/4, p.BounceAngleRad, 1e-12)
	assert.InDelta(t, 0.5, p.MaxCoverage, 1e-12)
	assert.InDelta(t, 120, p.MaxSeconds, 1e-12)
	assert.InDelta(t, 7200, p.BatteryRunTime, 1e-12)
	assert.True(t, p.StartSet)
	assert.True(t, p.HeadingSet)
	assert.Equal(t, 180.0, p.HeadingDeg)
	assert.True(t, p.UseQuadTree)
}

func TestToParamsSamplingSentinels(t *testing.T) {
	o := Default() // start and heading default to -1
	p, err := o.ToParams()
	require.NoError(t, err)
	assert.False(t, p.StartSet)
	assert.False(t, p.HeadingSet)
}

func TestToParamsRejectsUnknownCutter(t *testing.T) {
	o := Default()
	o.Cutter = "hexagon"
	_, err := o.ToParams()
	require.Error(t, err)
	assert.ErrorIs(t, err, sim.ErrConfig)
}

func TestDefaultsAreRunnable(t *testing.T) {
	o := Default()
	p, err := o.ToParams()
	require.NoError(t, err)
	m := sim.NewMap(o.WorldWidth, o.WorldHeight)
	assert.NoError(t, p.Validate(m))
}
