package hud

import (
	"encoding/binary"
	"math"
)

// GlyphInstance is one glyph quad, drawn instanced: the vertex shader
// expands it to a four-vertex strip.
type GlyphInstance struct {
	Rect  [4]float32 // clip space: left, top, right, bottom
	UV    [4]float32 // atlas: u0, v0, u1, v1
	Color [4]float32
}

const GlyphInstanceSize = 12 * 4

// Anchor picks the window corner a Line is positioned from.
type Anchor uint8

const (
	TopLeft Anchor = iota
	TopRight
	BottomLeft
	BottomRight
)

// Line is a block of text. X and Y are pixel margins from the anchor
// corner, so anchored blocks follow the window edge on resize. A '\n'
// starts a new line below the previous one.
type Line struct {
	Text   string
	X, Y   float32
	Scale  float32
	Color  [4]float32
	Anchor Anchor
}

func (l Line) scale() float32 {
	if l.Scale == 0 {
		return 1
	}
	return l.Scale
}

// origin is the block's top-left corner in window pixels.
func (l Line) origin(blockW, blockH, screenW, screenH float32) (float32, float32) {
	x, y := l.X, l.Y
	if l.Anchor == TopRight || l.Anchor == BottomRight {
		x = screenW - l.X - blockW
	}
	if l.Anchor == BottomLeft || l.Anchor == BottomRight {
		y = screenH - l.Y - blockH
	}
	return x, y
}

// BuildInstances lays out lines for a screenW x screenH target. Runes
// without a glyph are skipped, blank glyphs only advance the pen.
func (a *Atlas) BuildInstances(lines []Line, screenW, screenH uint32) []GlyphInstance {
	if screenW == 0 || screenH == 0 {
		return nil
	}
	sw, sh := float32(screenW), float32(screenH)

	var out []GlyphInstance
	for _, l := range lines {
		scale := l.scale()
		bw, bh := a.Measure(l.Text, scale)
		ox, oy := l.origin(bw, bh, sw, sh)
		a.walk(l.Text, scale, func(g glyph, penX, penY float32) {
			if g.size.X == 0 || g.size.Y == 0 {
				return
			}
			left := ox + penX + float32(g.bearing.X)*scale
			top := oy + penY + float32(g.bearing.Y)*scale
			right := left + float32(g.size.X)*scale
			bottom := top + float32(g.size.Y)*scale
			out = append(out, GlyphInstance{
				Rect:  [4]float32{left/sw*2 - 1, 1 - top/sh*2, right/sw*2 - 1, 1 - bottom/sh*2},
				UV:    g.uv,
				Color: l.Color,
			})
		})
	}
	return out
}

// InstanceBytes packs glyph instances little-endian for upload.
func InstanceBytes(instances []GlyphInstance) []byte {
	buf := make([]byte, 0, len(instances)*GlyphInstanceSize)
	for _, gi := range instances {
		for _, part := range [3][4]float32{gi.Rect, gi.UV, gi.Color} {
			for _, f := range part {
				buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
			}
		}
	}
	return buf
}
