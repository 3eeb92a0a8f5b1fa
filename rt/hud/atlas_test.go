package hud

import (
	"image"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/swarm/rt/gpu"
)

func newTestAtlas(t *testing.T) *Atlas {
	t.Helper()
	a, err := NewAtlas(16)
	require.NoError(t, err)
	return a
}

func TestAtlasCoversPrintableASCII(t *testing.T) {
	a := newTestAtlas(t)
	for r := rune('!'); r <= '~'; r++ {
		assert.True(t, a.Has(r), "missing glyph %q", r)
	}
	assert.False(t, a.Has('\n'))
}

func TestAtlasSideIsSmallestPowerOfTwo(t *testing.T) {
	a := newTestAtlas(t)
	side := a.Image.Rect.Dx()
	assert.Equal(t, side, a.Image.Rect.Dy())
	assert.Equal(t, 1, bits.OnesCount(uint(side)))
	assert.GreaterOrEqual(t, side, minAtlasSize)
	assert.Less(t, side, 512)

	big, err := NewAtlas(48)
	require.NoError(t, err)
	assert.Greater(t, big.Image.Rect.Dx(), side)
}

func TestAtlasGlyphsDoNotOverlap(t *testing.T) {
	a := newTestAtlas(t)
	side := float32(a.Image.Rect.Dx())
	var rects []image.Rectangle
	for _, g := range a.glyphs {
		if g.size.X == 0 || g.size.Y == 0 {
			continue
		}
		at := image.Pt(int(g.uv[0]*side+0.5), int(g.uv[1]*side+0.5))
		r := image.Rectangle{Min: at, Max: at.Add(g.size)}
		require.True(t, r.In(a.Image.Rect), "glyph %v outside atlas", r)
		for _, other := range rects {
			assert.False(t, r.Overlaps(other), "%v overlaps %v", r, other)
		}
		rects = append(rects, r)
	}
	assert.NotEmpty(t, rects)
}

func TestShelfPacker(t *testing.T) {
	p := newShelfPacker(16)

	pt, ok := p.place(5, 4)
	require.True(t, ok)
	assert.Equal(t, image.Pt(glyphGap, glyphGap), pt)

	pt, ok = p.place(5, 3)
	require.True(t, ok)
	assert.Equal(t, image.Pt(glyphGap+5+glyphGap, glyphGap), pt)

	// Does not fit on the first shelf: starts a new one below the tallest.
	pt, ok = p.place(5, 2)
	require.True(t, ok)
	assert.Equal(t, image.Pt(glyphGap, glyphGap+4+glyphGap), pt)

	_, ok = p.place(0, 0)
	assert.True(t, ok)
	_, ok = p.place(20, 1)
	assert.False(t, ok)
	_, ok = p.place(5, 10)
	assert.False(t, ok)
}

func TestBuildInstancesOnePerVisibleGlyph(t *testing.T) {
	a := newTestAtlas(t)
	white := [4]float32{1, 1, 1, 1}
	tests := []struct {
		name string
		text string
		want int
	}{
		{"plain", "fps60", 5},
		{"spaces only advance", "a b", 2},
		{"unknown runes skipped", "aéb", 2},
		{"newline", "ab\ncd", 4},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.BuildInstances([]Line{{Text: tt.text, Color: white}}, 800, 600)
			require.Len(t, got, tt.want)
			for _, g := range got {
				assert.Equal(t, white, g.Color)
				assert.Less(t, g.UV[0], g.UV[2])
				assert.Less(t, g.UV[1], g.UV[3])
				assert.Less(t, g.Rect[0], g.Rect[2])
				assert.Greater(t, g.Rect[1], g.Rect[3])
			}
		})
	}
	assert.Empty(t, a.BuildInstances([]Line{{Text: "x"}}, 0, 600))
}

func TestBuildInstancesAnchors(t *testing.T) {
	a := newTestAtlas(t)
	tests := []struct {
		anchor        Anchor
		right, bottom bool
	}{
		{TopLeft, false, false},
		{TopRight, true, false},
		{BottomLeft, false, true},
		{BottomRight, true, true},
	}
	for _, tt := range tests {
		got := a.BuildInstances([]Line{{Text: "M", X: 4, Y: 4, Anchor: tt.anchor}}, 800, 600)
		require.Len(t, got, 1)
		r := got[0].Rect
		if tt.right {
			assert.Greater(t, r[2], float32(0.9), "anchor %d", tt.anchor)
			assert.LessOrEqual(t, r[2], float32(1))
		} else {
			assert.Less(t, r[0], float32(-0.9), "anchor %d", tt.anchor)
			assert.GreaterOrEqual(t, r[0], float32(-1))
		}
		if tt.bottom {
			assert.Less(t, r[3], float32(-0.8), "anchor %d", tt.anchor)
			assert.GreaterOrEqual(t, r[3], float32(-1))
		} else {
			assert.Greater(t, r[1], float32(0.8), "anchor %d", tt.anchor)
			assert.LessOrEqual(t, r[1], float32(1))
		}
	}
}

func TestNewlineStartsNextLine(t *testing.T) {
	a := newTestAtlas(t)
	got := a.BuildInstances([]Line{{Text: "M\nM"}}, 800, 600)
	require.Len(t, got, 2)
	assert.InDelta(t, got[0].Rect[0], got[1].Rect[0], 1e-6)
	assert.Less(t, got[1].Rect[1], got[0].Rect[1])
}

func TestScaleGrowsGlyphs(t *testing.T) {
	a := newTestAtlas(t)
	one := a.BuildInstances([]Line{{Text: "M", Scale: 1}}, 800, 600)[0].Rect
	two := a.BuildInstances([]Line{{Text: "M", Scale: 2}}, 800, 600)[0].Rect
	assert.InDelta(t, 2*(one[2]-one[0]), two[2]-two[0], 1e-5)
}

func TestMeasure(t *testing.T) {
	a := newTestAtlas(t)
	w1, h1 := a.Measure("abc", 1)
	w2, h2 := a.Measure("abc", 2)
	assert.Greater(t, w1, float32(0))
	assert.InDelta(t, 2*w1, w2, 1e-4)
	assert.InDelta(t, 2*h1, h2, 1e-4)

	_, h := a.Measure("a\nb", 1)
	assert.InDelta(t, 2*h1, h, 1e-4)
	assert.Equal(t, a.LineHeight(1), h1)

	wide, _ := a.Measure("abcdef\nab", 1)
	six, _ := a.Measure("abcdef", 1)
	assert.Equal(t, six, wide)
}

func TestInstanceBytes(t *testing.T) {
	b := InstanceBytes([]GlyphInstance{{Rect: [4]float32{1}}, {}})
	require.Len(t, b, 2*GlyphInstanceSize)
	assert.Equal(t, []byte{0, 0, 0x80, 0x3f}, b[:4])
}

func TestGrowCapacity(t *testing.T) {
	floor := uint64(minGlyphCapacity * GlyphInstanceSize)
	tests := []struct {
		name       string
		have, need uint64
		want       uint64
	}{
		{"fits", 1 << 15, 100, 1 << 15},
		{"first buffer", 0, GlyphInstanceSize, 1 << 14},
		{"exact floor", 0, floor, 1 << 14},
		{"grows to power of two", 1 << 14, 1<<14 + 1, 1 << 15},
		{"already power of two", 1 << 14, 1 << 16, 1 << 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := growCapacity(tt.have, tt.need)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, tt.need)
		})
	}
}

type plainPass struct{ gpu.PassEncoder }

func TestDrawIgnoresNonWGPUPass(t *testing.T) {
	o := &Overlay{atlas: newTestAtlas(t)}
	o.SetLines([]Line{{Text: "hello"}})
	assert.NoError(t, o.Draw(plainPass{}, 800, 600))
}

func TestOverlaySatisfiesInterface(t *testing.T) {
	var _ gpu.Overlay = (*Overlay)(nil)
}
