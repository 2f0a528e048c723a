// Package function evaluates PDF functions: sampled (type 0), exponential
// (type 2), stitching (type 3) and PostScript calculator (type 4) functions.
// They drive colour space tint transforms and shadings.
package function

import (
	"errors"
	"fmt"
	"math"

	"github.com/sbkohel/pdf-dedupe/core"
)

// Function maps m inputs to n outputs.
type Function interface {
	Inputs() int
	Outputs() int
	Eval(in []float64) []float64
}

// maxDepth bounds nesting of stitching functions.
const maxDepth = 8

// Parse builds a function from a function dictionary or stream. An array of
// single-output functions is combined into one function with as many
// outputs as the array has elements.
func Parse(obj core.Object, res core.Resolver) (Function, error) {
	return parse(obj, res, 0)
}

func parse(obj core.Object, res core.Resolver, depth int) (Function, error) {
	if depth > maxDepth {
		return nil, errors.New("function nesting too deep")
	}
	obj, err := res.Resolve(obj)
	if err != nil {
		return nil, err
	}
	var dict core.Dict
	var stream *core.Stream
	switch v := obj.(type) {
	case core.Dict:
		dict = v
	case *core.Stream:
		dict, stream = v.Dict, v
	case core.Array:
		parts := make([]Function, 0, len(v))
		for _, o := range v {
			f, err := parse(o, res, depth+1)
			if err != nil {
				return nil, err
			}
			parts = append(parts, f)
		}
		if len(parts) == 0 {
			return nil, errors.New("empty function array")
		}
		return combined(parts), nil
	case core.Name:
		if v == "Identity" {
			return identity{}, nil
		}
		return nil, fmt.Errorf("unknown function name %s", v)
	default:
		return nil, fmt.Errorf("invalid function object %T", obj)
	}

	domain := floats(dict, res, "Domain")
	if len(domain) < 2 {
		domain = []float64{0, 1}
	}
	rng := floats(dict, res, "Range")
	base := header{domain: domain, rng: rng}

	fnType, _ := dict.GetInt("FunctionType")
	switch fnType {
	case 0:
		if stream == nil {
			return nil, errors.New("sampled function must be a stream")
		}
		return newSampled(base, dict, stream, res)
	case 2:
		return newExponential(base, dict, res), nil
	case 3:
		return newStitching(base, dict, res, depth)
	case 4:
		if stream == nil {
			return nil, errors.New("PostScript function must be a stream")
		}
		data, err := stream.Decode()
		if err != nil {
			return nil, fmt.Errorf("failed to decode PostScript function: %w", err)
		}
		return newPostScript(base, data)
	}
	return nil, fmt.Errorf("unsupported function type %d", fnType)
}

// header holds the entries common to every function type.
type header struct {
	domain []float64
	rng    []float64
}

func (h header) Inputs() int { return len(h.domain) / 2 }

func (h header) clipIn(in []float64) []float64 {
	out := make([]float64, h.Inputs())
	for i := range out {
		var v float64
		if i < len(in) {
			v = in[i]
		}
		out[i] = clamp(v, h.domain[2*i], h.domain[2*i+1])
	}
	return out
}

func (h header) clipOut(out []float64) []float64 {
	for i := range out {
		if 2*i+1 < len(h.rng) {
			out[i] = clamp(out[i], h.rng[2*i], h.rng[2*i+1])
		}
	}
	return out
}

func floats(d core.Dict, res core.Resolver, key string) []float64 {
	obj, err := res.Resolve(d.Get(key))
	if err != nil {
		return nil
	}
	arr, ok := obj.(core.Array)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(arr))
	for _, o := range arr {
		o, _ = res.Resolve(o)
		v, _ := core.Number(o)
		out = append(out, v)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func interpolate(x, xmin, xmax, ymin, ymax float64) float64 {
	if xmax == xmin {
		return ymin
	}
	return ymin + (x-xmin)*(ymax-ymin)/(xmax-xmin)
}

type identity struct{}

func (identity) Inputs() int  { return 1 }
func (identity) Outputs() int { return 1 }
func (identity) Eval(in []float64) []float64 {
	return append([]float64(nil), in...)
}

type combined []Function

func (c combined) Inputs() int  { return c[0].Inputs() }
func (c combined) Outputs() int { return len(c) }
func (c combined) Eval(in []float64) []float64 {
	out := make([]float64, len(c))
	for i, f := range c {
		if v := f.Eval(in); len(v) > 0 {
			out[i] = v[0]
		}
	}
	return out
}

type exponential struct {
	header
	c0, c1 []float64
	n      float64
}

func newExponential(h header, d core.Dict, res core.Resolver) *exponential {
	f := &exponential{header: h, c0: floats(d, res, "C0"), c1: floats(d, res, "C1")}
	if len(f.c0) == 0 {
		f.c0 = []float64{0}
	}
	if len(f.c1) == 0 {
		f.c1 = []float64{1}
	}
	f.n, _ = d.GetNumber("N")
	return f
}

func (f *exponential) Outputs() int { return len(f.c0) }

func (f *exponential) Eval(in []float64) []float64 {
	x := f.clipIn(in)[0]
	xn := math.Pow(x, f.n)
	if math.IsNaN(xn) || math.IsInf(xn, 0) {
		xn = 0
	}
	out := make([]float64, len(f.c0))
	for i := range out {
		c1 := 1.0
		if i < len(f.c1) {
			c1 = f.c1[i]
		}
		out[i] = f.c0[i] + xn*(c1-f.c0[i])
	}
	return f.clipOut(out)
}

type stitching struct {
	header
	fns    []Function
	bounds []float64
	encode []float64
}

func newStitching(h header, d core.Dict, res core.Resolver, depth int) (*stitching, error) {
	arrObj, err := res.Resolve(d.Get("Functions"))
	if err != nil {
		return nil, err
	}
	arr, ok := arrObj.(core.Array)
	if !ok || len(arr) == 0 {
		return nil, errors.New("stitching function without /Functions")
	}
	f := &stitching{header: h, bounds: floats(d, res, "Bounds"), encode: floats(d, res, "Encode")}
	for _, o := range arr {
		sub, err := parse(o, res, depth+1)
		if err != nil {
			return nil, err
		}
		f.fns = append(f.fns, sub)
	}
	if len(f.bounds) < len(f.fns)-1 {
		return nil, errors.New("stitching function has too few /Bounds")
	}
	for len(f.encode) < 2*len(f.fns) {
		f.encode = append(f.encode, 0, 1)
	}
	return f, nil
}

func (f *stitching) Outputs() int { return f.fns[0].Outputs() }

func (f *stitching) Eval(in []float64) []float64 {
	x := f.clipIn(in)[0]
	k := 0
	for k < len(f.fns)-1 && x >= f.bounds[k] {
		k++
	}
	lo, hi := f.domain[0], f.domain[1]
	if k > 0 {
		lo = f.bounds[k-1]
	}
	if k < len(f.fns)-1 {
		hi = f.bounds[k]
	}
	e := interpolate(x, lo, hi, f.encode[2*k], f.encode[2*k+1])
	return f.clipOut(f.fns[k].Eval([]float64{e}))
}

type sampled struct {
	header
	size    []int
	bps     int
	encode  []float64
	decode  []float64
	samples []float64 // normalised to 0..1, n per grid point
	n       int
}

func newSampled(h header, d core.Dict, s *core.Stream, res core.Resolver) (*sampled, error) {
	m := h.Inputs()
	sizes := floats(d, res, "Size")
	if len(sizes) < m || len(h.rng) < 2 {
		return nil, errors.New("sampled function needs /Size and /Range")
	}
	f := &sampled{header: h, n: len(h.rng) / 2}
	f.bps, _ = d.GetInt("BitsPerSample")
	switch f.bps {
	case 1, 2, 4, 8, 12, 16, 24, 32:
	default:
		return nil, fmt.Errorf("invalid BitsPerSample %d", f.bps)
	}
	total := f.n
	for i := 0; i < m; i++ {
		sz := int(sizes[i])
		if sz < 1 || sz > 1<<16 {
			return nil, fmt.Errorf("invalid sample size %d", sz)
		}
		f.size = append(f.size, sz)
		total *= sz
	}
	f.encode = floats(d, res, "Encode")
	if len(f.encode) < 2*m {
		f.encode = make([]float64, 0, 2*m)
		for _, sz := range f.size {
			f.encode = append(f.encode, 0, float64(sz-1))
		}
	}
	f.decode = floats(d, res, "Decode")
	if len(f.decode) < 2*f.n {
		f.decode = h.rng
	}

	data, err := s.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode sampled function: %w", err)
	}
	f.samples = make([]float64, total)
	maxVal := math.Pow(2, float64(f.bps)) - 1
	var bitPos int
	for i := range f.samples {
		var v uint64
		for b := 0; b < f.bps; b++ {
			byteIdx := bitPos >> 3
			if byteIdx < len(data) {
				v = v<<1 | uint64(data[byteIdx]>>(7-uint(bitPos&7))&1)
			} else {
				v <<= 1
			}
			bitPos++
		}
		f.samples[i] = float64(v) / maxVal
	}
	return f, nil
}

func (f *sampled) Outputs() int { return f.n }

func (f *sampled) Eval(in []float64) []float64 {
	x := f.clipIn(in)
	m := len(x)
	// Position in the sample grid for every input.
	pos := make([]float64, m)
	for i := 0; i < m; i++ {
		e := interpolate(x[i], f.domain[2*i], f.domain[2*i+1], f.encode[2*i], f.encode[2*i+1])
		pos[i] = clamp(e, 0, float64(f.size[i]-1))
	}
	out := make([]float64, f.n)
	if m == 1 {
		i0 := int(math.Floor(pos[0]))
		i1 := i0 + 1
		if i1 >= f.size[0] {
			i1 = i0
		}
		t := pos[0] - float64(i0)
		for j := 0; j < f.n; j++ {
			v := f.samples[i0*f.n+j]*(1-t) + f.samples[i1*f.n+j]*t
			out[j] = interpolate(v, 0, 1, f.decode[2*j], f.decode[2*j+1])
		}
		return f.clipOut(out)
	}
	idx, stride := 0, 1
	for i := 0; i < m; i++ {
		idx += int(math.Round(pos[i])) * stride
		stride *= f.size[i]
	}
	for j := 0; j < f.n; j++ {
		out[j] = interpolate(f.samples[idx*f.n+j], 0, 1, f.decode[2*j], f.decode[2*j+1])
	}
	return f.clipOut(out)
}
