package core

import (
	"encoding/binary"
	"math"
)

// Vertex matches the WGSL VertexInput: position at location 0, tex_coords at
// location 1. Tightly packed, 20 bytes.
type Vertex struct {
	Position [3]float32
	TexCoord [2]float32
}

const (
	VertexSize         = 5 * 4
	VertexTexCoordOffs = 3 * 4
)

// Shape selects one of the built-in geometry templates.
type Shape uint8

const (
	Quad Shape = iota
	Pentagon
)

var quadVertices = [...]Vertex{
	{Position: [3]float32{-0.5, -0.5, 0.0}, TexCoord: [2]float32{0.0, 0.0}}, // A
	{Position: [3]float32{0.5, -0.5, 0.0}, TexCoord: [2]float32{1.0, 0.0}},  // B
	{Position: [3]float32{0.5, 0.5, 0.0}, TexCoord: [2]float32{1.0, 1.0}},   // C
	{Position: [3]float32{-0.5, 0.5, 0.0}, TexCoord: [2]float32{0.0, 1.0}},  // D
}

var quadIndices = [...]uint16{0, 1, 3, 1, 2, 3}

var pentagonVertices = [...]Vertex{
	{Position: [3]float32{-0.0868241, 0.49240386, 0.0}, TexCoord: [2]float32{0.4131759, 0.00759614}},     // A
	{Position: [3]float32{-0.49513406, 0.06958647, 0.0}, TexCoord: [2]float32{0.0048659444, 0.43041354}}, // B
	{Position: [3]float32{-0.21918549, -0.44939706, 0.0}, TexCoord: [2]float32{0.28081453, 0.949397}},    // C
	{Position: [3]float32{0.35966998, -0.3473291, 0.0}, TexCoord: [2]float32{0.85967, 0.84732914}},       // D
	{Position: [3]float32{0.44147372, 0.2347359, 0.0}, TexCoord: [2]float32{0.9414737, 0.2652641}},       // E
}

// The trailing 0 pads the buffer to a multiple of 4 bytes. It is uploaded
// but never drawn.
var pentagonIndices = [...]uint16{0, 1, 4, 1, 2, 4, 2, 3, 4 /* padding */, 0}

func (s Shape) String() string {
	switch s {
	case Quad:
		return "quad"
	case Pentagon:
		return "pentagon"
	}
	return "unknown"
}

// Vertices returns a copy of the template's vertices in winding order.
func (s Shape) Vertices() []Vertex {
	switch s {
	case Pentagon:
		return append([]Vertex(nil), pentagonVertices[:]...)
	default:
		return append([]Vertex(nil), quadVertices[:]...)
	}
}

// Indices returns a copy of the template's index data as uploaded,
// including any alignment padding.
func (s Shape) Indices() []uint16 {
	switch s {
	case Pentagon:
		return append([]uint16(nil), pentagonIndices[:]...)
	default:
		return append([]uint16(nil), quadIndices[:]...)
	}
}

// DrawIndexCount is the number of indices passed to the draw call.
func (s Shape) DrawIndexCount() uint32 {
	switch s {
	case Pentagon:
		return uint32(len(pentagonIndices) - 1)
	default:
		return uint32(len(quadIndices))
	}
}

// Scale multiplies each x by aspectRatio, then every coordinate by factor.
// The template itself is left untouched.
func (s Shape) Scale(factor, aspectRatio float32) []Vertex {
	vertices := s.Vertices()
	for i := range vertices {
		p := &vertices[i].Position
		p[0] *= aspectRatio
		p[0] *= factor
		p[1] *= factor
		p[2] *= factor
	}
	return vertices
}

// VertexBytes serializes vertices in the little-endian layout the vertex
// buffer expects.
func VertexBytes(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*VertexSize)
	for i, v := range vertices {
		off := i * VertexSize
		putFloats(buf[off:], v.Position[:]...)
		putFloats(buf[off+VertexTexCoordOffs:], v.TexCoord[:]...)
	}
	return buf
}

// IndexBytes serializes 16-bit indices little-endian.
func IndexBytes(indices []uint16) []byte {
	buf := make([]byte, len(indices)*2)
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(buf[i*2:], idx)
	}
	return buf
}

func putFloats(buf []byte, vals ...float32) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}
