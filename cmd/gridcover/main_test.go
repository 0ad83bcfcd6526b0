package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mowerlab/gridcover/internal/sim"
)

func TestPeekArgsFile(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"Absent", []string{"--seed", "7"}, ""},
		{"Separate", []string{"--args-file", "run.toml", "--seed", "7"}, "run.toml"},
		{"Equals", []string{"--args-file=run.toml"}, "run.toml"},
		{"Dangling", []string{"--args-file"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, peekArgsFile(tc.args))
		})
	}
}

func TestExitCodes(t *testing.T) {
	wrap := func(kind error) error { return fmt.Errorf("%w: detail", kind) }
	assert.Equal(t, 2, exitCode(wrap(sim.ErrConfig)))
	assert.Equal(t, 3, exitCode(wrap(sim.ErrIO)))
	assert.Equal(t, 4, exitCode(wrap(sim.ErrEncoding)))
	assert.Equal(t, 5, exitCode(wrap(sim.ErrResource)))
	assert.Equal(t, 6, exitCode(wrap(sim.ErrInternal)))
	assert.Equal(t, 1, exitCode(errors.New("something else")))
}

func TestPrintReport(t *testing.T) {
	res := &sim.Result{
		StopReason:      "coverage",
		CoveredPercent:  50.25,
		CoveredCells:    5025,
		TotalCells:      10000,
		BlockedCells:    100,
		Distance:        321.5,
		Bounces:         42,
		Steps:           5358,
		SimSeconds:      1071.6,
		CutterType:      "disc",
		Radius:          0.2,
		Velocity:        0.3,
		BatteryFraction: 1,
		WorldWidth:      10,
		WorldHeight:     10,
		GridNx:          100,
		GridNy:          100,
		CellSize:        0.1,
		Seed:            42,
	}
	var buf bytes.Buffer
	printReport(&buf, res, sim.NewMap(10, 10))
	out := buf.String()

	assert.Contains(t, out, "stop_reason=coverage")
	assert.Contains(t, out, "covered=50.25%")
	assert.Contains(t, out, "bounces=42")
	assert.Contains(t, out, "seed=42")
	assert.Contains(t, out, "type=disc")
	assert.NotContains(t, out, "blade_length", "disc report has no blade field")
}
