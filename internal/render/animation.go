package render

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/mowerlab/gridcover/internal/sim"
)

// FrameSampler writes numbered PNG frames by sampling simulation state
// every N steps. Speedup is realised purely by sampling less often;
// the physics time step is untouched, so an animated run reproduces a
// non-animated one exactly.
type FrameSampler struct {
	Dir      string
	Interval int // steps between frames
	opt      Options
	frames   int
}

// NewFrameSampler derives the sampling interval from the frame rate,
// the simulation time step and the requested speedup, and prepares the
// frame directory.
func NewFrameSampler(dir string, fps int, speedup, dt float64, opt Options) (*FrameSampler, error) {
	if fps <= 0 || speedup <= 0 {
		return nil, fmt.Errorf("%w: animation fps and speedup must be positive", sim.ErrConfig)
	}
	interval := int(math.Round(speedup / (dt * float64(fps))))
	if interval < 1 {
		interval = 1
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating frame directory %s: %v", sim.ErrIO, dir, err)
	}
	return &FrameSampler{Dir: dir, Interval: interval, opt: opt}, nil
}

// Observe is hooked into the simulator's per-step callback. It writes
// a frame whenever the step counter crosses the sampling interval.
func (fs *FrameSampler) Observe(s *sim.Simulator) error {
	if s.Steps()%fs.Interval != 0 {
		return nil
	}
	snap := Snapshot{
		Grid:   s.Grid(),
		World:  s.World(),
		QT:     s.QuadTree(),
		Track:  s.Track(),
		Result: s.Result(),
	}
	path := filepath.Join(fs.Dir, fmt.Sprintf("frame-%06d.png", fs.frames))
	if err := WriteImage(path, snap, fs.opt); err != nil {
		return err
	}
	fs.frames++
	return nil
}

// FrameCount returns the number of frames written so far.
func (fs *FrameSampler) FrameCount() int { return fs.frames }

// encoderArgs maps the encoder selection to ffmpeg codec arguments.
func encoderArgs(encoder string) ([]string, error) {
	switch encoder {
	case "h264":
		return []string{"-c:v", "libx264", "-pix_fmt", "yuv420p"}, nil
	case "hevc":
		return []string{"-c:v", "libx265", "-pix_fmt", "yuv420p"}, nil
	case "vaapi":
		return []string{"-vaapi_device", "/dev/dri/renderD128",
			"-vf", "format=nv12,hwupload", "-c:v", "h264_vaapi"}, nil
	default:
		return nil, fmt.Errorf("%w: unknown encoder %q (want h264, hevc or vaapi)", sim.ErrConfig, encoder)
	}
}

// ValidateEncoder checks the encoder selection without invoking it.
// "none" disables video assembly and is always valid.
func ValidateEncoder(name string) error {
	if name == "none" {
		return nil
	}
	_, err := encoderArgs(name)
	return err
}

// Encode assembles the frame directory into a video with an external
// ffmpeg invocation. Failures are encoding errors: callers abandon the
// animation but still produce the still image and report.
func Encode(dir, outPath string, fps int, encoder string) error {
	codec, err := encoderArgs(encoder)
	if err != nil {
		return err
	}
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("%w: ffmpeg not found in PATH", sim.ErrEncoding)
	}
	args := []string{
		"-y",
		"-framerate", fmt.Sprint(fps),
		"-i", filepath.Join(dir, "frame-%06d.png"),
	}
	args = append(args, codec...)
	args = append(args, outPath)
	cmd := exec.Command(ffmpeg, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: ffmpeg failed: %v: %s", sim.ErrEncoding, err, firstLine(out))
	}
	return nil
}

// RemoveFrames deletes the written frame files and, when it is empty
// afterwards, the directory itself.
func RemoveFrames(dir string, count int) error {
	for i := 0; i < count; i++ {
		path := filepath.Join(dir, fmt.Sprintf("frame-%06d.png", i))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: removing frame %s: %v", sim.ErrIO, path, err)
		}
	}
	_ = os.Remove(dir) // fails when non-empty; that is fine
	return nil
}

func firstLine(b []byte) string {
	for i, c := range b {
		if c == '\n' {
			return string(b[:i])
		}
	}
	return string(b)
}
