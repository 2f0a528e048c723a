package model

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestNewRectNormalises(t *testing.T) {
	r := NewRect(612, 792, 0, 0)
	if r != (Rect{0, 0, 612, 792}) {
		t.Errorf("expected normalised rect, got %+v", r)
	}
	if r.Width() != 612 || r.Height() != 792 {
		t.Errorf("unexpected size %vx%v", r.Width(), r.Height())
	}
}

func TestRectIntersectUnion(t *testing.T) {
	a := Rect{0, 0, 10, 10}
	b := Rect{5, 5, 20, 20}
	if got := a.Intersect(b); got != (Rect{5, 5, 10, 10}) {
		t.Errorf("unexpected intersection %+v", got)
	}
	if got := a.Intersect(Rect{11, 11, 12, 12}); !got.IsEmpty() {
		t.Errorf("expected empty intersection, got %+v", got)
	}
	if got := a.Union(b); got != (Rect{0, 0, 20, 20}) {
		t.Errorf("unexpected union %+v", got)
	}
	if got := (Rect{}).Union(b); got != b {
		t.Errorf("expected empty rect to be ignored, got %+v", got)
	}
}

func TestMatrixMultiplyOrder(t *testing.T) {
	m := Scale(2, 2).Multiply(Translate(10, 0))
	p := m.Transform(Point{1, 1})
	if !almostEqual(p.X, 12) || !almostEqual(p.Y, 2) {
		t.Errorf("expected (12, 2), got %+v", p)
	}
}

func TestMatrixInverse(t *testing.T) {
	m := Matrix{2, 1, -1, 3, 5, 7}
	inv, ok := m.Inverse()
	if !ok {
		t.Fatal("expected invertible matrix")
	}
	p := Point{3, -4}
	back := inv.Transform(m.Transform(p))
	if !almostEqual(back.X, p.X) || !almostEqual(back.Y, p.Y) {
		t.Errorf("expected %+v, got %+v", p, back)
	}
	if _, ok := (Matrix{1, 2, 2, 4, 0, 0}).Inverse(); ok {
		t.Error("expected singular matrix")
	}
}

func TestMatrixRotateAndScaleFactor(t *testing.T) {
	p := Rotate(math.Pi / 2).Transform(Point{1, 0})
	if !almostEqual(p.X, 0) || !almostEqual(p.Y, 1) {
		t.Errorf("expected (0, 1), got %+v", p)
	}
	if f := Scale(4, 9).ScaleFactor(); !almostEqual(f, 6) {
		t.Errorf("expected scale factor 6, got %v", f)
	}
}

func TestTransformRect(t *testing.T) {
	r := Rotate(math.Pi / 2).TransformRect(Rect{0, 0, 2, 1})
	want := Rect{-1, 0, 0, 2}
	if !almostEqual(r.X0, want.X0) || !almostEqual(r.Y1, want.Y1) || !almostEqual(r.X1, want.X1) {
		t.Errorf("expected %+v, got %+v", want, r)
	}
}
