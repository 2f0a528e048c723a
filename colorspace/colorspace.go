// Package colorspace converts colours given in PDF colour spaces to RGB.
//
// Device spaces convert directly. ICCBased spaces are approximated by the
// device space with the same number of components (or their /Alternate).
// Separation and DeviceN run their tint transform and convert the result in
// the alternate space. Indexed spaces look components up in their palette.
package colorspace

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/sbkohel/pdf-dedupe/core"
)

// Space is a parsed colour space.
type Space interface {
	// Name is the colour space family, e.g. DeviceRGB or Indexed.
	Name() string
	// Components is the number of colour components.
	Components() int
	// RGB converts components to red, green and blue in 0..1.
	RGB(comps []float64) (r, g, b float64)
	// Initial is the initial colour set by CS/cs.
	Initial() []float64
	// DefaultDecode is the decode array of an image with bpc bits per
	// component that carries no /Decode entry.
	DefaultDecode(bpc int) []float64
}

// Device spaces share one instance each.
var (
	DeviceGray Space = gray{}
	DeviceRGB  Space = rgb{}
	DeviceCMYK Space = cmyk{}
)

// maxDepth bounds nesting through Indexed, Separation and friends.
const maxDepth = 8

// Parse builds a colour space from a name or array. Abbreviated inline
// image names (G, RGB, CMYK, I) are accepted.
func Parse(obj core.Object, res core.Resolver) (Space, error) {
	return parse(obj, res, 0)
}

func parse(obj core.Object, res core.Resolver, depth int) (Space, error) {
	if depth > maxDepth {
		return nil, errors.New("colour space nesting too deep")
	}
	obj, err := res.Resolve(obj)
	if err != nil {
		return nil, err
	}
	switch v := obj.(type) {
	case core.Name:
		return parseName(v)
	case core.Array:
		if len(v) == 0 {
			return nil, errors.New("empty colour space array")
		}
		head, _ := res.Resolve(v[0])
		name, ok := head.(core.Name)
		if !ok {
			return nil, fmt.Errorf("invalid colour space family %T", head)
		}
		if len(v) == 1 {
			return parseName(name)
		}
		return parseFamily(name, v, res, depth)
	}
	return nil, fmt.Errorf("invalid colour space object %T", obj)
}

func parseName(name core.Name) (Space, error) {
	switch name {
	case "DeviceGray", "G", "CalGray":
		return DeviceGray, nil
	case "DeviceRGB", "RGB", "CalRGB":
		return DeviceRGB, nil
	case "DeviceCMYK", "CMYK":
		return DeviceCMYK, nil
	case "Pattern":
		return Pattern{}, nil
	}
	return nil, fmt.Errorf("unknown colour space %s", name)
}

func parseFamily(name core.Name, arr core.Array, res core.Resolver, depth int) (Space, error) {
	switch name {
	case "CalGray", "CalRGB", "DeviceGray", "DeviceRGB", "DeviceCMYK", "G", "RGB", "CMYK":
		return parseName(name)
	case "Lab":
		return parseLab(arr.Get(1), res), nil
	case "ICCBased":
		return parseICC(arr.Get(1), res, depth)
	case "Indexed", "I":
		return parseIndexed(arr, res, depth)
	case "Separation":
		return parseSeparation(arr, res, depth)
	case "DeviceN":
		return parseDeviceN(arr, res, depth)
	case "Pattern":
		base, err := parse(arr.Get(1), res, depth+1)
		if err != nil {
			return nil, err
		}
		return Pattern{Base: base}, nil
	}
	return nil, fmt.Errorf("unknown colour space %s", name)
}

// ToColor converts components to an opaque colour.
func ToColor(s Space, comps []float64) color.RGBA {
	r, g, b := s.RGB(comps)
	return color.RGBA{R: to8(r), G: to8(g), B: to8(b), A: 255}
}

// Invisible reports whether painting in s leaves no marks, as for a
// Separation space named None.
func Invisible(s Space) bool {
	sep, ok := s.(*Separation)
	return ok && sep.none
}

func to8(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func comp(c []float64, i int) float64 {
	if i < len(c) {
		return c[i]
	}
	return 0
}

func unitDecode(n int) []float64 {
	d := make([]float64, 0, 2*n)
	for i := 0; i < n; i++ {
		d = append(d, 0, 1)
	}
	return d
}

type gray struct{}

func (gray) Name() string                { return "DeviceGray" }
func (gray) Components() int             { return 1 }
func (gray) Initial() []float64          { return []float64{0} }
func (gray) DefaultDecode(int) []float64 { return unitDecode(1) }
func (gray) RGB(c []float64) (r, g, b float64) {
	v := clamp01(comp(c, 0))
	return v, v, v
}

type rgb struct{}

func (rgb) Name() string                { return "DeviceRGB" }
func (rgb) Components() int             { return 3 }
func (rgb) Initial() []float64          { return []float64{0, 0, 0} }
func (rgb) DefaultDecode(int) []float64 { return unitDecode(3) }
func (rgb) RGB(c []float64) (r, g, b float64) {
	return clamp01(comp(c, 0)), clamp01(comp(c, 1)), clamp01(comp(c, 2))
}

type cmyk struct{}

func (cmyk) Name() string                { return "DeviceCMYK" }
func (cmyk) Components() int             { return 4 }
func (cmyk) Initial() []float64          { return []float64{0, 0, 0, 1} }
func (cmyk) DefaultDecode(int) []float64 { return unitDecode(4) }
func (cmyk) RGB(c []float64) (r, g, b float64) {
	k := clamp01(comp(c, 3))
	return (1 - clamp01(comp(c, 0))) * (1 - k),
		(1 - clamp01(comp(c, 1))) * (1 - k),
		(1 - clamp01(comp(c, 2))) * (1 - k)
}

// Pattern is the Pattern colour space. Patterns are not tiled; painting
// uses the underlying colour when one is given, otherwise a mid grey.
type Pattern struct {
	Base Space
}

func (Pattern) Name() string { return "Pattern" }
func (p Pattern) Components() int {
	if p.Base != nil {
		return p.Base.Components()
	}
	return 0
}
func (Pattern) Initial() []float64          { return nil }
func (Pattern) DefaultDecode(int) []float64 { return nil }
func (p Pattern) RGB(c []float64) (r, g, b float64) {
	if p.Base != nil && len(c) >= p.Base.Components() {
		return p.Base.RGB(c)
	}
	return 0.5, 0.5, 0.5
}

func parseICC(obj core.Object, res core.Resolver, depth int) (Space, error) {
	obj, err := res.Resolve(obj)
	if err != nil {
		return nil, err
	}
	stream, ok := obj.(*core.Stream)
	if !ok {
		return nil, errors.New("ICCBased colour space without profile stream")
	}
	if alt := stream.Dict.Get("Alternate"); alt != nil {
		if s, err := parse(alt, res, depth+1); err == nil {
			return s, nil
		}
	}
	n, _ := stream.Dict.GetInt("N")
	switch n {
	case 1:
		return DeviceGray, nil
	case 3:
		return DeviceRGB, nil
	case 4:
		return DeviceCMYK, nil
	}
	return nil, fmt.Errorf("ICCBased colour space with %d components", n)
}

// FromResources parses obj like Parse, but a name is first looked up in
// named, the /ColorSpace dictionary of the current resources.
func FromResources(obj core.Object, named core.Dict, res core.Resolver) (Space, error) {
	if name, ok := obj.(core.Name); ok && named != nil {
		if def := named.Get(string(name)); def != nil {
			return parse(def, res, 1)
		}
	}
	return parse(obj, res, 0)
}
