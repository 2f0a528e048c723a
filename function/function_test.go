package function

import (
	"math"
	"testing"

	"github.com/sbkohel/pdf-dedupe/core"
)

// direct resolves nothing; every object in these tests is direct.
type direct struct{}

func (direct) Resolve(obj core.Object) (core.Object, error) { return obj, nil }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestExponential(t *testing.T) {
	f, err := Parse(core.Dict{
		"FunctionType": core.Int(2),
		"Domain":       core.Array{core.Int(0), core.Int(1)},
		"C0":           core.Array{core.Int(0), core.Int(0), core.Int(0)},
		"C1":           core.Array{core.Int(1), core.Real(0.5), core.Int(0)},
		"N":            core.Int(1),
	}, direct{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if f.Outputs() != 3 {
		t.Fatalf("expected 3 outputs, got %d", f.Outputs())
	}
	out := f.Eval([]float64{0.5})
	if !approx(out[0], 0.5) || !approx(out[1], 0.25) || !approx(out[2], 0) {
		t.Errorf("unexpected output %v", out)
	}
	// Inputs are clipped to the domain.
	if out := f.Eval([]float64{3}); !approx(out[0], 1) {
		t.Errorf("expected clipped input, got %v", out)
	}
}

func TestStitching(t *testing.T) {
	lo := core.Dict{"FunctionType": core.Int(2), "Domain": core.Array{core.Int(0), core.Int(1)}, "C0": core.Array{core.Int(0)}, "C1": core.Array{core.Int(1)}, "N": core.Int(1)}
	hi := core.Dict{"FunctionType": core.Int(2), "Domain": core.Array{core.Int(0), core.Int(1)}, "C0": core.Array{core.Int(1)}, "C1": core.Array{core.Int(0)}, "N": core.Int(1)}
	f, err := Parse(core.Dict{
		"FunctionType": core.Int(3),
		"Domain":       core.Array{core.Int(0), core.Int(1)},
		"Functions":    core.Array{lo, hi},
		"Bounds":       core.Array{core.Real(0.5)},
		"Encode":       core.Array{core.Int(0), core.Int(1), core.Int(0), core.Int(1)},
	}, direct{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	tests := []struct{ in, want float64 }{{0, 0}, {0.25, 0.5}, {0.5, 1}, {0.75, 0.5}, {1, 0}}
	for _, tc := range tests {
		if got := f.Eval([]float64{tc.in})[0]; !approx(got, tc.want) {
			t.Errorf("f(%v): expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestSampled(t *testing.T) {
	f, err := Parse(&core.Stream{
		Dict: core.Dict{
			"FunctionType":  core.Int(0),
			"Domain":        core.Array{core.Int(0), core.Int(1)},
			"Range":         core.Array{core.Int(0), core.Int(1)},
			"Size":          core.Array{core.Int(3)},
			"BitsPerSample": core.Int(8),
		},
		Data: []byte{0, 255, 0},
	}, direct{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	tests := []struct{ in, want float64 }{{0, 0}, {0.25, 0.5}, {0.5, 1}, {1, 0}}
	for _, tc := range tests {
		if got := f.Eval([]float64{tc.in})[0]; !approx(got, tc.want) {
			t.Errorf("f(%v): expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestPostScript(t *testing.T) {
	tests := []struct {
		name string
		prog string
		in   []float64
		want []float64
		rng  core.Array
	}{
		{"tint to cmyk", "{ dup 0.5 mul exch 0 exch 0 }", []float64{0.8}, []float64{0.4, 0, 0.8, 0}, core.Array{core.Int(0), core.Int(1), core.Int(0), core.Int(1), core.Int(0), core.Int(1), core.Int(0), core.Int(1)}},
		{"ifelse", "{ 0.5 gt { 1 } { 0 } ifelse }", []float64{0.7}, []float64{1}, core.Array{core.Int(0), core.Int(1)}},
		{"if false", "{ dup 0.5 gt { pop 1 } if }", []float64{0.2}, []float64{0.2}, core.Array{core.Int(0), core.Int(1)}},
		{"roll", "{ 1 2 3 3 1 roll add add 6 div }", []float64{0}, []float64{1}, core.Array{core.Int(0), core.Int(1)}},
		{"range clip", "{ 10 mul }", []float64{0.5}, []float64{1}, core.Array{core.Int(0), core.Int(1)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Parse(&core.Stream{
				Dict: core.Dict{"FunctionType": core.Int(4), "Domain": core.Array{core.Int(0), core.Int(1)}, "Range": tc.rng},
				Data: []byte(tc.prog),
			}, direct{})
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			got := f.Eval(tc.in)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d outputs, got %d", len(tc.want), len(got))
			}
			for i := range got {
				if !approx(got[i], tc.want[i]) {
					t.Errorf("output %d: expected %v, got %v", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestPostScriptSyntaxError(t *testing.T) {
	_, err := Parse(&core.Stream{
		Dict: core.Dict{"FunctionType": core.Int(4), "Domain": core.Array{core.Int(0), core.Int(1)}, "Range": core.Array{core.Int(0), core.Int(1)}},
		Data: []byte("{ 1 add"),
	}, direct{})
	if err == nil {
		t.Error("expected error for unterminated program")
	}
}

func TestFunctionArray(t *testing.T) {
	one := core.Dict{"FunctionType": core.Int(2), "Domain": core.Array{core.Int(0), core.Int(1)}, "C0": core.Array{core.Int(0)}, "C1": core.Array{core.Int(1)}, "N": core.Int(1)}
	f, err := Parse(core.Array{one, one}, direct{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if f.Outputs() != 2 {
		t.Errorf("expected 2 outputs, got %d", f.Outputs())
	}
}

func TestUnsupportedType(t *testing.T) {
	if _, err := Parse(core.Dict{"FunctionType": core.Int(7)}, direct{}); err == nil {
		t.Error("expected error for function type 7")
	}
}
