package app

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/swarm"
	"github.com/gekko3d/swarm/rt/core"
	"github.com/gekko3d/swarm/rt/hud"
)

func TestShapeByName(t *testing.T) {
	s, err := ShapeByName("quad")
	require.NoError(t, err)
	assert.Equal(t, core.Quad, s)

	s, err = ShapeByName("pentagon")
	require.NoError(t, err)
	assert.Equal(t, core.Pentagon, s)

	_, err = ShapeByName("hexagon")
	assert.Error(t, err)
}

func TestBuildInstances(t *testing.T) {
	base := swarm.DefaultConfig().Layout
	tests := []struct {
		name string
		edit func(l *swarm.LayoutConfig)
		want int
	}{
		{"grid", func(l *swarm.LayoutConfig) { l.Kind = swarm.LayoutGrid; l.Grid = [2]uint32{4, 3} }, 12},
		{"square", func(l *swarm.LayoutConfig) { l.Kind = swarm.LayoutSquare; l.Grid = [2]uint32{5, 5} }, 25},
		{"cube", func(l *swarm.LayoutConfig) { l.Kind = swarm.LayoutCube; l.Cube = [3]uint32{2, 3, 4} }, 24},
		{"cube with wiggle", func(l *swarm.LayoutConfig) {
			l.Kind = swarm.LayoutCube
			l.Cube = [3]uint32{3, 3, 3}
			l.Wiggle = 1
		}, 27},
		{"fixed", func(l *swarm.LayoutConfig) { l.Kind = swarm.LayoutFixed; l.Count = 9 }, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := base
			tt.edit(&l)
			got, err := BuildInstances(l)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestBuildInstancesOutlineMatchesGenerator(t *testing.T) {
	l := swarm.DefaultConfig().Layout
	l.Kind = swarm.LayoutOutline
	got, err := BuildInstances(l)
	require.NoError(t, err)
	assert.Equal(t, core.DenseRect(l.Rect, l.Radius, mgl32.Vec3(l.Offset)), got)
}

func TestBuildInstancesWiggleIsSeeded(t *testing.T) {
	l := swarm.DefaultConfig().Layout
	l.Cube = [3]uint32{3, 3, 3}
	l.Wiggle = 2
	a, err := BuildInstances(l)
	require.NoError(t, err)
	b, err := BuildInstances(l)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	l.Seed++
	c, err := BuildInstances(l)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestBuildInstancesUnknownKind(t *testing.T) {
	l := swarm.DefaultConfig().Layout
	l.Kind = "spiral"
	_, err := BuildInstances(l)
	assert.Error(t, err)
}

func TestCameraFromConfig(t *testing.T) {
	cfg := swarm.DefaultConfig().Camera
	cam := CameraFromConfig(cfg, 2)
	assert.Equal(t, mgl32.Vec3{-4, 2, 2}, cam.Eye)
	assert.Equal(t, mgl32.Vec3{}, cam.Target)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, cam.Up)
	assert.Equal(t, float32(45), cam.Fovy)
	assert.Equal(t, float32(2), cam.Aspect)

	cam = CameraFromConfig(cfg, 0)
	assert.Equal(t, core.NewCamera().Aspect, cam.Aspect)
}

func TestFrameStatsLines(t *testing.T) {
	s := FrameStats{Frames: 120, Skipped: 2, Instances: 8000, Indices: 6, Elapsed: 2 * time.Second}
	assert.InDelta(t, 60, s.FPS(), 1e-9)
	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0].Text, "8000 particles")
	assert.Contains(t, lines[0].Text, "60.0 fps")
	assert.Contains(t, lines[0].Text, "skipped 2")

	assert.Zero(t, FrameStats{Frames: 3}.FPS())
}

func TestFrameStatsTimingsTopRight(t *testing.T) {
	p := NewProfiler()
	p.Begin("frame")
	p.End("frame")
	lines := FrameStats{Timings: p.Summary()}.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, hud.TopLeft, lines[0].Anchor)
	assert.Equal(t, hud.TopRight, lines[1].Anchor)
	assert.Contains(t, lines[1].Text, "frame    ")
	assert.Len(t, FrameStats{}.Lines(), 1)
}
