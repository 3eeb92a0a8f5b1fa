package hud

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"slices"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	firstRune    = ' '
	lastRune     = '~'
	minAtlasSize = 64
	maxAtlasSize = 2048
	glyphGap     = 2
)

var ErrAtlasFull = errors.New("hud: glyphs do not fit the largest atlas")

type glyph struct {
	uv      [4]float32
	size    image.Point
	bearing image.Point
	advance float32
}

// Atlas is a single-channel glyph atlas for printable ASCII. Its side is
// the smallest power of two the glyphs fit in.
type Atlas struct {
	Image      *image.Alpha
	glyphs     map[rune]glyph
	ascent     float32
	lineHeight float32
}

// NewAtlas rasterizes the Go Regular font at size points.
func NewAtlas(size float64) (*Atlas, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	defer face.Close()
	return buildAtlas(face)
}

type rasterGlyph struct {
	r       rune
	mask    *image.Alpha
	bearing image.Point
	advance fixed.Int26_6
}

func buildAtlas(face font.Face) (*Atlas, error) {
	var raster []rasterGlyph
	for r := rune(firstRune); r <= lastRune; r++ {
		bounds, mask, maskp, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		// The face reuses its mask buffer between calls.
		own := image.NewAlpha(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(own, own.Bounds(), mask, maskp, draw.Src)
		raster = append(raster, rasterGlyph{r: r, mask: own, bearing: bounds.Min, advance: adv})
	}
	// Tallest first keeps shelves tight.
	slices.SortStableFunc(raster, func(a, b rasterGlyph) int {
		return cmp.Compare(b.mask.Rect.Dy(), a.mask.Rect.Dy())
	})

	for side := minAtlasSize; side <= maxAtlasSize; side *= 2 {
		spots, ok := packGlyphs(raster, side)
		if !ok {
			continue
		}
		metrics := face.Metrics()
		a := &Atlas{
			Image:      image.NewAlpha(image.Rect(0, 0, side, side)),
			glyphs:     make(map[rune]glyph, len(raster)),
			ascent:     float32(metrics.Ascent.Ceil()),
			lineHeight: float32(metrics.Height.Ceil()),
		}
		for i, rg := range raster {
			size := rg.mask.Rect.Size()
			dst := image.Rectangle{Min: spots[i], Max: spots[i].Add(size)}
			draw.Draw(a.Image, dst, rg.mask, image.Point{}, draw.Src)
			s := float32(side)
			a.glyphs[rg.r] = glyph{
				uv:      [4]float32{float32(dst.Min.X) / s, float32(dst.Min.Y) / s, float32(dst.Max.X) / s, float32(dst.Max.Y) / s},
				size:    size,
				bearing: rg.bearing,
				advance: float32(rg.advance) / 64,
			}
		}
		return a, nil
	}
	return nil, ErrAtlasFull
}

func packGlyphs(raster []rasterGlyph, side int) ([]image.Point, bool) {
	p := newShelfPacker(side)
	spots := make([]image.Point, len(raster))
	for i, rg := range raster {
		pt, ok := p.place(rg.mask.Rect.Dx(), rg.mask.Rect.Dy())
		if !ok {
			return nil, false
		}
		spots[i] = pt
	}
	return spots, true
}

// shelfPacker places rectangles left to right in rows whose height is set
// by the tallest rectangle on them. Empty rectangles take no space.
type shelfPacker struct {
	side   int
	x, y   int
	shelfH int
}

func newShelfPacker(side int) *shelfPacker {
	return &shelfPacker{side: side, x: glyphGap, y: glyphGap}
}

func (p *shelfPacker) place(w, h int) (image.Point, bool) {
	if w == 0 || h == 0 {
		return image.Point{}, true
	}
	if p.x+w+glyphGap > p.side {
		p.x = glyphGap
		p.y += p.shelfH + glyphGap
		p.shelfH = 0
	}
	if p.x+w+glyphGap > p.side || p.y+h+glyphGap > p.side {
		return image.Point{}, false
	}
	pt := image.Pt(p.x, p.y)
	p.x += w + glyphGap
	p.shelfH = max(p.shelfH, h)
	return pt, true
}

// Has reports whether r has a glyph in the atlas.
func (a *Atlas) Has(r rune) bool {
	_, ok := a.glyphs[r]
	return ok
}

func (a *Atlas) LineHeight(scale float32) float32 {
	return a.lineHeight * scale
}

// walk advances a pen through text at scale, calling fn (if non-nil) for
// every glyph with the pen position of its baseline origin, relative to the
// block's top-left corner. It returns the block's extent.
func (a *Atlas) walk(text string, scale float32, fn func(g glyph, penX, penY float32)) (width, height float32) {
	penX, penY := float32(0), a.ascent*scale
	lines := 1
	for _, r := range text {
		if r == '\n' {
			width = max(width, penX)
			penX = 0
			penY += a.lineHeight * scale
			lines++
			continue
		}
		g, ok := a.glyphs[r]
		if !ok {
			continue
		}
		if fn != nil {
			fn(g, penX, penY)
		}
		penX += g.advance * scale
	}
	return max(width, penX), a.lineHeight * scale * float32(lines)
}

// Measure returns the pixel width of the widest line of text and the total
// height of all its lines.
func (a *Atlas) Measure(text string, scale float32) (width, height float32) {
	return a.walk(text, scale, nil)
}
