package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/sbkohel/pdf-dedupe/core"
	"github.com/sbkohel/pdf-dedupe/graphicsstate"
	"github.com/sbkohel/pdf-dedupe/model"
	"github.com/sbkohel/pdf-dedupe/reader"
)

// doXObject paints an image or form XObject (the Do operator).
func (r *renderer) doXObject(f *frame, args []core.Object) error {
	obj, ok := r.namedResource(f.res, "XObject", args)
	if !ok {
		return nil
	}
	s, ok := obj.(*core.Stream)
	if !ok {
		return nil
	}
	switch subtype, _ := s.Dict.GetName("Subtype"); subtype {
	case "Image":
		r.drawImageStream(f, s)
	case "Form":
		return r.drawForm(f, s)
	}
	return nil
}

// drawForm runs a form XObject's content inside its matrix and bounding
// box.
func (r *renderer) drawForm(f *frame, s *core.Stream) error {
	if f.depth >= maxFormDepth {
		r.log.Debug("form nesting too deep")
		return nil
	}
	content, err := s.Decode()
	if err != nil {
		r.log.Debug("form content undecodable", "error", err)
		return nil
	}
	res, ok := r.resolve(s.Dict.Get("Resources")).(core.Dict)
	if !ok {
		res = f.res
	}

	gs := f.gs
	gs.Save()
	defer gs.Restore()
	if arr, ok := r.resolve(s.Dict.Get("Matrix")).(core.Array); ok {
		if v, ok := arr.Floats(); ok && len(v) == 6 {
			gs.Transform(model.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]})
		}
	}
	if arr, ok := r.resolve(s.Dict.Get("BBox")).(core.Array); ok {
		if v, ok := arr.Floats(); ok && len(v) == 4 {
			box := graphicsstate.NewPath()
			box.Rectangle(v[0], v[1], v[2]-v[0], v[3]-v[1])
			r.canvas.intersectClip(gs, box.Flatten(gs.CTM, 0.25), false)
		}
	}
	return r.run(content, res, gs, f.depth+1)
}

// drawImageStream decodes an image XObject or inline image and paints it
// into the unit square of user space.
func (r *renderer) drawImageStream(f *frame, s *core.Stream) {
	gs := f.gs
	ctm := gs.CTM
	box := ctm.TransformRect(model.Rect{X0: 0, Y0: 0, X1: 1, Y1: 1})
	dst := r.canvas.img.Bounds().Intersect(image.Rect(
		int(math.Floor(box.X0)), int(math.Floor(box.Y0)),
		int(math.Ceil(box.X1)), int(math.Ceil(box.Y1)),
	))
	if dst.Empty() || (gs.Clip != nil && dst.Intersect(gs.Clip.Rect).Empty()) {
		return
	}

	named, _ := r.resolve(f.res.Get("ColorSpace")).(core.Dict)
	img, err := r.doc.DecodeImage(s, reader.ImageOptions{
		ColorSpaces: named,
		MaxWidth:    2 * int(math.Ceil(box.Width())),
		MaxHeight:   2 * int(math.Ceil(box.Height())),
	})
	if err != nil {
		r.log.Debug("image undecodable", "error", err)
		return
	}
	r.drawImage(gs, img)
}

// drawImage maps the image's pixel grid onto the unit square: row 0 is the
// top edge at y=1.
func (r *renderer) drawImage(gs *graphicsstate.GraphicsState, img *reader.Image) {
	if img.Width <= 0 || img.Height <= 0 {
		return
	}
	var (
		src     image.Image
		srcMask image.Image
		bounds  image.Rectangle
	)
	if img.Stencil != nil {
		c := gs.Fill.RGBA(gs.FillAlpha)
		if gs.Fill.Invisible() || c.A == 0 {
			return
		}
		src = image.NewUniform(c)
		srcMask = img.Stencil
		bounds = img.Stencil.Bounds()
	} else if img.Pixels != nil {
		src = img.Pixels
		bounds = img.Pixels.Bounds()
		if gs.FillAlpha < 1 {
			srcMask = image.NewUniform(color.Alpha{A: uint8(math.Max(gs.FillAlpha, 0)*255 + 0.5)})
		}
	} else {
		return
	}

	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	m := model.Matrix{1 / w, 0, 0, -1 / h, 0, 1}.Multiply(gs.CTM)
	s2d := f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
	if math.Abs(m.Determinant()) < 1e-12 {
		return
	}

	opts := &draw.Options{SrcMask: srcMask}
	if gs.Clip != nil {
		opts.DstMask = gs.Clip
	}
	draw.BiLinear.Transform(r.canvas.img, s2d, src, bounds, draw.Over, opts)
}
