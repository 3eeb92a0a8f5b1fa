package app

import (
	"fmt"
	"time"

	"github.com/gekko3d/swarm/rt/gpu"
	"github.com/gekko3d/swarm/rt/hud"
)

var hudColor = [4]float32{0.9, 0.9, 0.9, 1}

// FrameStats is what the HUD reports.
type FrameStats struct {
	Frames    uint64
	Skipped   uint64
	Instances uint32
	Indices   uint32
	Elapsed   time.Duration
	Timings   string
}

func (s FrameStats) FPS() float64 {
	secs := s.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.Frames) / secs
}

// Lines formats the stats as HUD text: counters in the top-left corner and
// loop timings, when present, in the top-right.
func (s FrameStats) Lines() []hud.Line {
	text := fmt.Sprintf("%d particles x %d indices\n%.1f fps  frame %d  skipped %d",
		s.Instances, s.Indices, s.FPS(), s.Frames, s.Skipped)
	lines := []hud.Line{{Text: text, X: 8, Y: 8, Scale: 1, Color: hudColor}}
	if s.Timings != "" {
		lines = append(lines, hud.Line{Text: s.Timings, X: 8, Y: 8, Scale: 1, Color: hudColor, Anchor: hud.TopRight})
	}
	return lines
}

// StatusLines reads the current stats from the driver, its state and the
// loop profiler.
func StatusLines(d *gpu.FrameDriver, s *gpu.RenderState, p *Profiler) []hud.Line {
	return FrameStats{
		Frames:    d.Frames(),
		Skipped:   d.Skipped(),
		Instances: s.NumInstances(),
		Indices:   s.NumIndices(),
		Elapsed:   s.Elapsed(),
		Timings:   p.Summary(),
	}.Lines()
}
