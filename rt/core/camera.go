package core

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type Camera struct {
	Aspect float32
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3
	Fovy   float32 // degrees
	ZNear  float32
	ZFar   float32
}

func NewCamera() Camera {
	return Camera{
		Aspect: 16.0 / 9.0,
		Eye:    mgl32.Vec3{0, 0, 4},
		Target: mgl32.Vec3{0, 0, 0},
		Up:     mgl32.Vec3{0, 1, 0},
		Fovy:   90,
		ZNear:  0.1,
		ZFar:   100,
	}
}

// BuildViewProjection recomputes projection * view from the current fields
// on every call.
func (c Camera) BuildViewProjection() mgl32.Mat4 {
	view := mgl32.LookAtV(c.Eye, c.Target, c.Up)
	fovRadians := c.Fovy / 180.0 * math.Pi
	proj := PerspectiveRH(fovRadians, c.Aspect, c.ZNear, c.ZFar)
	return proj.Mul4(view)
}

// PerspectiveRH is a right-handed perspective projection mapping depth to
// [0, 1], the WebGPU clip-space convention. mgl32.Perspective targets
// OpenGL's [-1, 1] and cannot be used here.
func PerspectiveRH(fovy, aspect, near, far float32) mgl32.Mat4 {
	h := float32(1 / math.Tan(float64(fovy)/2))
	w := h / aspect
	r := far / (near - far)
	return mgl32.Mat4{
		w, 0, 0, 0,
		0, h, 0, 0,
		0, 0, r, -1,
		0, 0, r * near, 0,
	}
}

// Orbit rotates the eye about the target around the up axis by angle
// radians, keeping its distance and height.
func (c Camera) Orbit(angle float32) Camera {
	axis := c.Up.Normalize()
	rot := mgl32.HomogRotate3D(angle, axis)
	rel := c.Eye.Sub(c.Target)
	c.Eye = c.Target.Add(mgl32.TransformCoordinate(rel, rot))
	return c
}

const CameraUniformSize = 16 * 4

// CameraUniform mirrors the WGSL camera block: one column-major 4x4 matrix.
type CameraUniform struct {
	ViewProjection mgl32.Mat4
}

func NewCameraUniform() CameraUniform {
	return CameraUniform{ViewProjection: mgl32.Ident4()}
}

func (u *CameraUniform) Update(c Camera) {
	u.ViewProjection = c.BuildViewProjection()
}

func (u CameraUniform) Bytes() []byte {
	buf := make([]byte, CameraUniformSize)
	for i, v := range u.ViewProjection {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
