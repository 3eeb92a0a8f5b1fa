package core

import "github.com/go-gl/mathgl/mgl32"

// Instance is one drawable copy of the shape.
type Instance struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
}

// NewInstance returns an instance at the origin, colored white.
func NewInstance() Instance {
	return Instance{Color: mgl32.Vec3{1, 1, 1}}
}

// InstanceRaw is the per-instance vertex buffer record: position at
// location 5, color at location 6. Tightly packed, 24 bytes.
type InstanceRaw struct {
	Position [3]float32
	Color    [3]float32
}

const (
	InstanceRawSize      = 6 * 4
	InstanceRawColorOffs = 3 * 4
)

func (in Instance) ToRaw() InstanceRaw {
	return InstanceRaw{
		Position: [3]float32(in.Position),
		Color:    [3]float32(in.Color),
	}
}

// RawInstances converts a whole set, preserving order.
func RawInstances(instances []Instance) []InstanceRaw {
	raw := make([]InstanceRaw, len(instances))
	for i, in := range instances {
		raw[i] = in.ToRaw()
	}
	return raw
}

// InstanceBytes serializes the set straight into buffer layout. The result
// is always len(instances)*InstanceRawSize bytes.
func InstanceBytes(instances []Instance) []byte {
	buf := make([]byte, len(instances)*InstanceRawSize)
	for i, in := range instances {
		off := i * InstanceRawSize
		putFloats(buf[off:], in.Position[:]...)
		putFloats(buf[off+InstanceRawColorOffs:], in.Color[:]...)
	}
	return buf
}
