package colorspace

import (
	"errors"
	"fmt"
	"math"

	"github.com/sbkohel/pdf-dedupe/core"
	"github.com/sbkohel/pdf-dedupe/function"
)

// Lab is a CIE L*a*b* space.
type Lab struct {
	white [3]float64
	rng   [4]float64
}

func parseLab(obj core.Object, res core.Resolver) *Lab {
	l := &Lab{white: [3]float64{0.9505, 1, 1.089}, rng: [4]float64{-100, 100, -100, 100}}
	obj, _ = res.Resolve(obj)
	d, ok := obj.(core.Dict)
	if !ok {
		return l
	}
	if wp, ok := d.GetArray("WhitePoint"); ok {
		if f, ok := wp.Floats(); ok && len(f) == 3 {
			copy(l.white[:], f)
		}
	}
	if r, ok := d.GetArray("Range"); ok {
		if f, ok := r.Floats(); ok && len(f) == 4 {
			copy(l.rng[:], f)
		}
	}
	return l
}

func (*Lab) Name() string       { return "Lab" }
func (*Lab) Components() int    { return 3 }
func (*Lab) Initial() []float64 { return []float64{0, 0, 0} }
func (l *Lab) DefaultDecode(int) []float64 {
	return []float64{0, 100, l.rng[0], l.rng[1], l.rng[2], l.rng[3]}
}

func (l *Lab) RGB(c []float64) (r, g, b float64) {
	lum := math.Max(0, math.Min(100, comp(c, 0)))
	as := math.Max(l.rng[0], math.Min(l.rng[1], comp(c, 1)))
	bs := math.Max(l.rng[2], math.Min(l.rng[3], comp(c, 2)))

	fy := (lum + 16) / 116
	fx := fy + as/500
	fz := fy - bs/200
	x := l.white[0] * labInverse(fx)
	y := l.white[1] * labInverse(fy)
	z := l.white[2] * labInverse(fz)

	// XYZ to linear sRGB (D65).
	r = 3.2406*x - 1.5372*y - 0.4986*z
	g = -0.9689*x + 1.8758*y + 0.0415*z
	b = 0.0557*x - 0.2040*y + 1.0570*z
	return srgbGamma(r), srgbGamma(g), srgbGamma(b)
}

func labInverse(v float64) float64 {
	if v >= 6.0/29 {
		return v * v * v
	}
	return 108.0 / 841 * (v - 4.0/29)
}

func srgbGamma(v float64) float64 {
	v = clamp01(v)
	if v <= 0.0031308 {
		return 12.92 * v
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

// Indexed maps an index to a colour in its base space through a lookup
// table.
type Indexed struct {
	Base   Space
	HiVal  int
	lookup []byte
}

func parseIndexed(arr core.Array, res core.Resolver, depth int) (*Indexed, error) {
	if len(arr) < 4 {
		return nil, errors.New("indexed colour space needs base, hival and lookup")
	}
	base, err := parse(arr[1], res, depth+1)
	if err != nil {
		return nil, fmt.Errorf("indexed base: %w", err)
	}
	hiObj, _ := res.Resolve(arr[2])
	hi, ok := core.Number(hiObj)
	if !ok {
		return nil, errors.New("indexed colour space with invalid hival")
	}
	idx := &Indexed{Base: base, HiVal: int(math.Max(0, math.Min(255, hi)))}
	lookupObj, err := res.Resolve(arr[3])
	if err != nil {
		return nil, err
	}
	switch v := lookupObj.(type) {
	case core.String:
		idx.lookup = []byte(v)
	case *core.Stream:
		idx.lookup, err = v.Decode()
		if err != nil {
			return nil, fmt.Errorf("indexed lookup: %w", err)
		}
	default:
		return nil, fmt.Errorf("indexed lookup of type %T", lookupObj)
	}
	return idx, nil
}

func (*Indexed) Name() string       { return "Indexed" }
func (*Indexed) Components() int    { return 1 }
func (*Indexed) Initial() []float64 { return []float64{0} }
func (*Indexed) DefaultDecode(bpc int) []float64 {
	return []float64{0, math.Pow(2, float64(bpc)) - 1}
}

func (x *Indexed) RGB(c []float64) (r, g, b float64) {
	i := int(math.Round(comp(c, 0)))
	if i < 0 {
		i = 0
	}
	if i > x.HiVal {
		i = x.HiVal
	}
	n := x.Base.Components()
	dec := x.Base.DefaultDecode(8)
	vals := make([]float64, n)
	for k := 0; k < n; k++ {
		var v byte
		if off := i*n + k; off < len(x.lookup) {
			v = x.lookup[off]
		}
		lo, hi := 0.0, 1.0
		if 2*k+1 < len(dec) {
			lo, hi = dec[2*k], dec[2*k+1]
		}
		vals[k] = lo + float64(v)/255*(hi-lo)
	}
	return x.Base.RGB(vals)
}

// Separation covers both Separation (one colorant) and DeviceN spaces: the
// tint components run through the tint transform into the alternate space.
type Separation struct {
	family string
	n      int
	alt    Space
	tint   function.Function
	none   bool
	all    bool
}

func parseSeparation(arr core.Array, res core.Resolver, depth int) (*Separation, error) {
	if len(arr) < 4 {
		return nil, errors.New("separation colour space needs name, alternate and tint transform")
	}
	nameObj, _ := res.Resolve(arr[1])
	name, _ := nameObj.(core.Name)
	s := &Separation{family: "Separation", n: 1, none: name == "None", all: name == "All"}
	if err := s.load(arr[2], arr[3], res, depth); err != nil {
		return nil, err
	}
	return s, nil
}

func parseDeviceN(arr core.Array, res core.Resolver, depth int) (*Separation, error) {
	if len(arr) < 4 {
		return nil, errors.New("DeviceN colour space needs names, alternate and tint transform")
	}
	namesObj, _ := res.Resolve(arr[1])
	names, ok := namesObj.(core.Array)
	if !ok || len(names) == 0 {
		return nil, errors.New("DeviceN colour space without colorant names")
	}
	s := &Separation{family: "DeviceN", n: len(names), none: true}
	for _, o := range names {
		if n, _ := o.(core.Name); n != "None" {
			s.none = false
		}
	}
	if err := s.load(arr[2], arr[3], res, depth); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Separation) load(altObj, fnObj core.Object, res core.Resolver, depth int) error {
	alt, err := parse(altObj, res, depth+1)
	if err != nil {
		return fmt.Errorf("%s alternate: %w", s.family, err)
	}
	s.alt = alt
	// A broken tint transform still leaves a usable approximation.
	if fn, err := function.Parse(fnObj, res); err == nil {
		s.tint = fn
	}
	return nil
}

func (s *Separation) Name() string    { return s.family }
func (s *Separation) Components() int { return s.n }
func (s *Separation) Initial() []float64 {
	init := make([]float64, s.n)
	for i := range init {
		init[i] = 1
	}
	return init
}
func (s *Separation) DefaultDecode(int) []float64 { return unitDecode(s.n) }

func (s *Separation) RGB(c []float64) (r, g, b float64) {
	if s.all {
		v := 1 - clamp01(comp(c, 0))
		return v, v, v
	}
	if s.tint == nil {
		// Average tint as darkness.
		var sum float64
		for i := 0; i < s.n; i++ {
			sum += clamp01(comp(c, i))
		}
		v := 1 - sum/float64(s.n)
		return v, v, v
	}
	in := make([]float64, s.n)
	copy(in, c)
	return s.alt.RGB(s.tint.Eval(in))
}
