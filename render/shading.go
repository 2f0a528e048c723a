package render

import (
	"image/color"

	"github.com/sbkohel/pdf-dedupe/colorspace"
	"github.com/sbkohel/pdf-dedupe/core"
	"github.com/sbkohel/pdf-dedupe/function"
)

// Shadings are painted flat with the mean of the colours at the ends of
// their domain. Mesh shadings carry no function and use their /Background
// when present.

// shade paints the named shading over the current clip (the sh operator).
func (r *renderer) shade(f *frame, args []core.Object) {
	obj, ok := r.namedResource(f.res, "Shading", args)
	if !ok {
		return
	}
	rgb, ok := r.shadingColor(obj)
	if !ok {
		return
	}
	c := colorspace.ToColor(colorspace.DeviceRGB, rgb)
	c = scaleAlpha(c, f.gs.FillAlpha)
	r.canvas.fillClip(f.gs, c)
}

// patternColor returns the flat colour for a shading pattern. Tiling
// patterns are not expanded and report false.
func (r *renderer) patternColor(f *frame, name string) ([]float64, bool) {
	obj, ok := r.namedResource(f.res, "Pattern", []core.Object{core.Name(name)})
	if !ok {
		return nil, false
	}
	d := dictOf(obj)
	if t, _ := d.GetInt("PatternType"); t != 2 {
		return nil, false
	}
	return r.shadingColor(r.resolve(d.Get("Shading")))
}

func (r *renderer) shadingColor(obj core.Object) ([]float64, bool) {
	d := dictOf(obj)
	if d == nil {
		return nil, false
	}
	space, err := colorspace.Parse(d.Get("ColorSpace"), r.doc)
	if err != nil {
		r.log.Debug("shading colour space", "error", err)
		return nil, false
	}

	fnObj := d.Get("Function")
	if fnObj == nil {
		bg, ok := r.resolve(d.Get("Background")).(core.Array)
		if !ok {
			return nil, false
		}
		comps, ok := bg.Floats()
		if !ok {
			return nil, false
		}
		red, green, blue := space.RGB(comps)
		return []float64{red, green, blue}, true
	}
	fn, err := function.Parse(fnObj, r.doc)
	if err != nil {
		r.log.Debug("shading function", "error", err)
		return nil, false
	}

	var ends [][]float64
	shType, _ := d.GetInt("ShadingType")
	if shType == 1 {
		dom := floatsOr(r.resolve(d.Get("Domain")), []float64{0, 1, 0, 1})
		if len(dom) < 4 {
			return nil, false
		}
		ends = [][]float64{{dom[0], dom[2]}, {dom[1], dom[3]}}
	} else {
		dom := floatsOr(r.resolve(d.Get("Domain")), []float64{0, 1})
		if len(dom) < 2 {
			return nil, false
		}
		ends = [][]float64{{dom[0]}, {dom[1]}}
	}

	var sum [3]float64
	for _, in := range ends {
		if len(in) != fn.Inputs() {
			in = in[:1]
		}
		red, green, blue := space.RGB(fn.Eval(in))
		sum[0] += red
		sum[1] += green
		sum[2] += blue
	}
	n := float64(len(ends))
	return []float64{sum[0] / n, sum[1] / n, sum[2] / n}, true
}

func dictOf(obj core.Object) core.Dict {
	switch v := obj.(type) {
	case core.Dict:
		return v
	case *core.Stream:
		return v.Dict
	}
	return nil
}

func floatsOr(obj core.Object, def []float64) []float64 {
	if arr, ok := obj.(core.Array); ok {
		if v, ok := arr.Floats(); ok {
			return v
		}
	}
	return def
}

func scaleAlpha(c color.RGBA, alpha float64) color.RGBA {
	if alpha >= 1 {
		return c
	}
	if alpha <= 0 {
		return color.RGBA{}
	}
	return color.RGBA{
		R: uint8(float64(c.R)*alpha + 0.5),
		G: uint8(float64(c.G)*alpha + 0.5),
		B: uint8(float64(c.B)*alpha + 0.5),
		A: uint8(float64(c.A)*alpha + 0.5),
	}
}
