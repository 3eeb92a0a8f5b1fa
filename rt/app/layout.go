package app

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/swarm"
	"github.com/gekko3d/swarm/rt/core"
)

// ShapeByName maps a configured shape name to its template.
func ShapeByName(name string) (core.Shape, error) {
	switch name {
	case swarm.ShapeQuad:
		return core.Quad, nil
	case swarm.ShapePentagon:
		return core.Pentagon, nil
	}
	return 0, fmt.Errorf("unknown shape %q", name)
}

// BuildInstances runs the generator the layout selects.
func BuildInstances(l swarm.LayoutConfig) ([]core.Instance, error) {
	offset := mgl32.Vec3(l.Offset)
	switch l.Kind {
	case swarm.LayoutGrid:
		return core.Grid(l.Grid, l.Screen, offset, l.Colored), nil
	case swarm.LayoutSquare:
		return core.Square(l.Grid, l.Screen, offset, l.Colored), nil
	case swarm.LayoutCube:
		var wiggle *core.Wiggle
		if l.Wiggle != 0 {
			wiggle = core.NewWiggle(l.Wiggle, l.Seed)
		}
		return core.Cube(l.Spacing, l.Cube, wiggle, offset), nil
	case swarm.LayoutOutline:
		return core.DenseRect(l.Rect, l.Radius, offset), nil
	case swarm.LayoutFixed:
		return core.FixedLength(l.Count, mgl32.Vec3(l.Color)), nil
	}
	return nil, fmt.Errorf("unknown layout kind %q", l.Kind)
}

// CameraFromConfig builds the initial camera for a surface of the given
// aspect ratio. A non-positive aspect keeps the camera default.
func CameraFromConfig(c swarm.CameraConfig, aspect float32) core.Camera {
	cam := core.NewCamera()
	cam.Eye = mgl32.Vec3(c.Eye)
	cam.Target = mgl32.Vec3(c.Target)
	cam.Fovy = c.Fovy
	cam.ZNear = c.ZNear
	cam.ZFar = c.ZFar
	if aspect > 0 {
		cam.Aspect = aspect
	}
	return cam
}
