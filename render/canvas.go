package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/sbkohel/pdf-dedupe/graphicsstate"
	"github.com/sbkohel/pdf-dedupe/model"
)

// maxEvenOddSubpaths bounds the per-subpath masks built for even-odd fills;
// paths with more subpaths are filled with the nonzero rule.
const maxEvenOddSubpaths = 32

// canvas is the device surface together with a reusable rasterizer.
type canvas struct {
	img *image.RGBA
	z   *vector.Rasterizer
}

func newCanvas(img *image.RGBA) *canvas {
	return &canvas{img: img, z: vector.NewRasterizer(0, 0)}
}

// area returns the device pixels touched by subpaths, limited to the
// canvas and the current clip.
func (c *canvas) area(subpaths []graphicsstate.Subpath, clip *image.Alpha) image.Rectangle {
	b := graphicsstate.Bounds(subpaths)
	r := image.Rect(
		int(math.Floor(b.X0)), int(math.Floor(b.Y0)),
		int(math.Ceil(b.X1)), int(math.Ceil(b.Y1)),
	).Intersect(c.img.Bounds())
	if clip != nil {
		r = r.Intersect(clip.Rect)
	}
	return r
}

// coverage rasterizes subpaths into a mask covering r.
func (c *canvas) coverage(subpaths []graphicsstate.Subpath, r image.Rectangle, evenOdd bool) *image.Alpha {
	if evenOdd && len(subpaths) > 1 && len(subpaths) <= maxEvenOddSubpaths {
		acc := image.NewAlpha(r)
		for i := range subpaths {
			m := c.rasterize(subpaths[i:i+1], r)
			for j, a := range m.Pix {
				x, y := int(acc.Pix[j]), int(a)
				acc.Pix[j] = uint8(x + y - 2*x*y/255)
			}
		}
		return acc
	}
	return c.rasterize(subpaths, r)
}

func (c *canvas) rasterize(subpaths []graphicsstate.Subpath, r image.Rectangle) *image.Alpha {
	mask := image.NewAlpha(r)
	c.z.Reset(r.Dx(), r.Dy())
	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	drawn := false
	for _, sp := range subpaths {
		if len(sp.Points) < 2 {
			continue
		}
		c.z.MoveTo(float32(sp.Points[0].X-ox), float32(sp.Points[0].Y-oy))
		for _, p := range sp.Points[1:] {
			c.z.LineTo(float32(p.X-ox), float32(p.Y-oy))
		}
		c.z.ClosePath()
		drawn = true
	}
	if drawn {
		c.z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	}
	return mask
}

// fill paints subpaths with col through the state's clip.
func (c *canvas) fill(gs *graphicsstate.GraphicsState, subpaths []graphicsstate.Subpath, evenOdd bool, col color.RGBA) {
	if col.A == 0 {
		return
	}
	r := c.area(subpaths, gs.Clip)
	if r.Empty() {
		return
	}
	c.paintMask(c.coverage(subpaths, r, evenOdd), gs.Clip, image.NewUniform(col))
}

// fillPolygons paints closed polygons, such as stroke outlines, using the
// nonzero rule.
func (c *canvas) fillPolygons(gs *graphicsstate.GraphicsState, polys [][]model.Point, col color.RGBA) {
	if len(polys) == 0 {
		return
	}
	subpaths := make([]graphicsstate.Subpath, len(polys))
	for i, p := range polys {
		subpaths[i] = graphicsstate.Subpath{Points: p, Closed: true}
	}
	c.fill(gs, subpaths, false, col)
}

// paintMask composites src onto the canvas through mask and clip. mask is
// modified.
func (c *canvas) paintMask(mask, clip *image.Alpha, src image.Image) {
	if clip != nil {
		multiply(mask, clip)
	}
	draw.DrawMask(c.img, mask.Rect, src, mask.Rect.Min, mask, mask.Rect.Min, draw.Over)
}

// fillClip paints the whole clip region, or the page when unclipped.
func (c *canvas) fillClip(gs *graphicsstate.GraphicsState, col color.RGBA) {
	if col.A == 0 {
		return
	}
	src := image.NewUniform(col)
	if gs.Clip == nil {
		draw.Draw(c.img, c.img.Bounds(), src, image.Point{}, draw.Over)
		return
	}
	draw.DrawMask(c.img, gs.Clip.Rect, src, image.Point{}, gs.Clip, gs.Clip.Rect.Min, draw.Over)
}

// intersectClip narrows the state's clip to subpaths. An empty path clips
// everything away.
func (c *canvas) intersectClip(gs *graphicsstate.GraphicsState, subpaths []graphicsstate.Subpath, evenOdd bool) {
	r := c.area(subpaths, gs.Clip)
	if r.Empty() || len(subpaths) == 0 {
		gs.Clip = image.NewAlpha(image.Rectangle{})
		return
	}
	mask := c.coverage(subpaths, r, evenOdd)
	if gs.Clip != nil {
		multiply(mask, gs.Clip)
	}
	gs.Clip = mask
}

// multiply scales mask by clip, pixel by pixel, over mask's bounds.
func multiply(mask, clip *image.Alpha) {
	r := mask.Rect
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := mask.Pix[mask.PixOffset(r.Min.X, y):]
		for x := r.Min.X; x < r.Max.X; x++ {
			i := x - r.Min.X
			if row[i] == 0 {
				continue
			}
			row[i] = uint8(uint16(row[i]) * uint16(clip.AlphaAt(x, y).A) / 255)
		}
	}
}
