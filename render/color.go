package render

import (
	"github.com/sbkohel/pdf-dedupe/colorspace"
	"github.com/sbkohel/pdf-dedupe/core"
	"github.com/sbkohel/pdf-dedupe/graphicsstate"
)

// setColor handles the colour operators. Lower-case operators set the fill
// paint, upper-case ones the stroke paint.
func (r *renderer) setColor(f *frame, op string, args []core.Object) {
	gs := f.gs
	paint := &gs.Fill
	if op[0] >= 'A' && op[0] <= 'Z' {
		paint = &gs.Stroke
	}
	switch op {
	case "g", "G":
		if v, ok := numbers(args, 1); ok {
			*paint = graphicsstate.Paint{Space: colorspace.DeviceGray, Components: v}
		}
	case "rg", "RG":
		if v, ok := numbers(args, 3); ok {
			*paint = graphicsstate.Paint{Space: colorspace.DeviceRGB, Components: v}
		}
	case "k", "K":
		if v, ok := numbers(args, 4); ok {
			*paint = graphicsstate.Paint{Space: colorspace.DeviceCMYK, Components: v}
		}
	case "cs", "CS":
		if len(args) == 0 {
			return
		}
		named, _ := r.resolve(f.res.Get("ColorSpace")).(core.Dict)
		space, err := colorspace.FromResources(args[len(args)-1], named, r.doc)
		if err != nil {
			r.log.Debug("unsupported colour space", "error", err)
			return
		}
		*paint = graphicsstate.Paint{Space: space, Components: space.Initial()}
	case "sc", "SC", "scn", "SCN":
		next := graphicsstate.Paint{Space: paint.Space}
		var comps []float64
		for _, a := range args {
			if v, ok := core.Number(a); ok {
				comps = append(comps, v)
			}
		}
		next.Components = comps
		if name, ok := lastName(args); ok {
			next.Pattern = name
			if rgb, ok := r.patternColor(f, name); ok {
				next = graphicsstate.Paint{Space: colorspace.DeviceRGB, Components: rgb, Pattern: name}
			}
		}
		*paint = next
	}
}

func lastName(args []core.Object) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	n, ok := args[len(args)-1].(core.Name)
	return string(n), ok
}
