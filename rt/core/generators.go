package core

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
)

// ParticleSize is the edge length of one particle in world units. Cube
// jitter is scaled by it.
const ParticleSize float32 = 0.08

// debugBlue is the fixed blue channel of position-encoded colors.
const debugBlue float32 = 0.8

// Wiggle perturbs cube instances. Each axis moves independently by
// (U[0,1) - 0.5) * ParticleSize * Factor, drawn from Source.
type Wiggle struct {
	Factor float32
	Source *rand.Rand
}

// NewWiggle returns a Wiggle backed by a PCG generator, so the same seed
// always yields the same layout.
func NewWiggle(factor float32, seed uint64) *Wiggle {
	return &Wiggle{
		Factor: factor,
		Source: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (w *Wiggle) offset() mgl32.Vec3 {
	if w == nil || w.Source == nil || w.Factor == 0 {
		return mgl32.Vec3{}
	}
	scale := ParticleSize * w.Factor
	return mgl32.Vec3{
		(w.Source.Float32() - 0.5) * scale,
		(w.Source.Float32() - 0.5) * scale,
		(w.Source.Float32() - 0.5) * scale,
	}
}

// Grid lays out cols*rows instances row by row, spaced so that the grid spans
// screen (width, height) starting at offset. With colored set, red and green
// encode the normalized cell position.
func Grid(dims [2]uint32, screen [2]float32, offset mgl32.Vec3, colored bool) []Instance {
	cols, rows := dims[0], dims[1]
	if cols == 0 || rows == 0 {
		return nil
	}
	step := mgl32.Vec2{screen[0] / float32(cols), screen[1] / float32(rows)}

	instances := make([]Instance, 0, int(cols)*int(rows))
	for y := uint32(0); y < rows; y++ {
		for x := uint32(0); x < cols; x++ {
			in := NewInstance()
			in.Position = mgl32.Vec3{
				float32(x)*step[0] + offset[0],
				float32(y)*step[1] + offset[1],
				offset[2],
			}
			if colored {
				in.Color = mgl32.Vec3{float32(x) / float32(cols), float32(y) / float32(rows), debugBlue}
			}
			instances = append(instances, in)
		}
	}
	return instances
}

// Square is Grid centered on offset: half the distance between the first
// and last column (row) is subtracted from the offset.
func Square(dims [2]uint32, screen [2]float32, offset mgl32.Vec3, colored bool) []Instance {
	if dims[0] == 0 || dims[1] == 0 {
		return nil
	}
	stepX := screen[0] / float32(dims[0])
	stepY := screen[1] / float32(dims[1])
	centered := mgl32.Vec3{
		offset[0] - stepX*float32(dims[0]-1)/2,
		offset[1] - stepY*float32(dims[1]-1)/2,
		offset[2],
	}
	return Grid(dims, screen, centered, colored)
}

// Cube lays out w*h*d instances spacing apart, centered on offset. Colors
// encode (x, y) and fade with depth by b = z/d + 0.1. A non-nil wiggle
// jitters every position.
func Cube(spacing float32, dims [3]uint32, wiggle *Wiggle, offset mgl32.Vec3) []Instance {
	w, h, d := dims[0], dims[1], dims[2]
	if w == 0 || h == 0 || d == 0 {
		return nil
	}
	half := mgl32.Vec3{
		spacing * float32(w-1) / 2,
		spacing * float32(h-1) / 2,
		spacing * float32(d-1) / 2,
	}
	origin := offset.Sub(half)

	instances := make([]Instance, 0, int(w)*int(h)*int(d))
	for z := uint32(0); z < d; z++ {
		b := float32(z)/float32(d) + 0.1
		for y := uint32(0); y < h; y++ {
			for x := uint32(0); x < w; x++ {
				pos := origin.Add(mgl32.Vec3{
					float32(x) * spacing,
					float32(y) * spacing,
					float32(z) * spacing,
				})
				instances = append(instances, Instance{
					Position: pos.Add(wiggle.offset()),
					Color: mgl32.Vec3{
						float32(x) / float32(w),
						float32(y) / float32(h),
						debugBlue,
					}.Mul(b),
				})
			}
		}
	}
	return instances
}

// DenseRect emits the hollow outline of a size[0] x size[1] rectangle,
// subdivided so neighbouring particles of the given radius touch. Only cells
// on the border (x == 0, x == width, y == 0 or y == height) are emitted.
func DenseRect(size [2]float32, radius float32, offset mgl32.Vec3) []Instance {
	if radius <= 0 || size[0] <= 0 || size[1] <= 0 {
		return nil
	}
	nx := subdivisions(size[0], radius)
	ny := subdivisions(size[1], radius)

	coord := func(i, n int, extent float32) float32 {
		if i == n {
			return extent
		}
		return float32(i) * extent / float32(n)
	}

	var instances []Instance
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			if i != 0 && i != nx && j != 0 && j != ny {
				continue
			}
			in := NewInstance()
			in.Position = mgl32.Vec3{coord(i, nx, size[0]), coord(j, ny, size[1]), 0}.Add(offset)
			instances = append(instances, in)
		}
	}
	return instances
}

func subdivisions(extent, radius float32) int {
	n := int(math.Ceil(float64(extent / (2 * radius))))
	if n < 1 {
		n = 1
	}
	return n
}

// FixedLength returns n instances at the origin with the given color.
func FixedLength(n int, color mgl32.Vec3) []Instance {
	if n <= 0 {
		return nil
	}
	instances := make([]Instance, n)
	for i := range instances {
		instances[i] = Instance{Color: color}
	}
	return instances
}
