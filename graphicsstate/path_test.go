package graphicsstate

import (
	"math"
	"testing"

	"github.com/sbkohel/pdf-dedupe/model"
)

// TestPathConstruction tests segment recording
func TestPathConstruction(t *testing.T) {
	p := NewPath()
	if !p.IsEmpty() {
		t.Fatal("new path not empty")
	}
	p.LineTo(1, 1) // no current point acts as moveto
	p.LineTo(2, 2)
	p.CurveToV(3, 3, 4, 4)
	p.CurveToY(5, 5, 6, 6)
	p.ClosePath()

	want := []PathSegmentType{PathMoveTo, PathLineTo, PathCurveTo, PathCurveTo, PathClosePath}
	if len(p.Segments) != len(want) {
		t.Fatalf("segments = %d, want %d", len(p.Segments), len(want))
	}
	for i, seg := range p.Segments {
		if seg.Type != want[i] {
			t.Errorf("segment %d type = %v, want %v", i, seg.Type, want[i])
		}
	}
	if v := p.Segments[2].Points[0]; v != (model.Point{X: 2, Y: 2}) {
		t.Errorf("v first control = %v, want current point", v)
	}
	if y := p.Segments[3].Points[1]; y != (model.Point{X: 6, Y: 6}) {
		t.Errorf("y second control = %v, want end point", y)
	}
	if p.CurrentPoint != (model.Point{X: 1, Y: 1}) {
		t.Errorf("current point after h = %v, want subpath start", p.CurrentPoint)
	}

	p.Clear()
	if !p.IsEmpty() || p.HasCurrentPoint {
		t.Error("Clear left state behind")
	}
}

// TestFlattenRectangle tests re flattened through a matrix
func TestFlattenRectangle(t *testing.T) {
	p := NewPath()
	p.Rectangle(10, 10, 20, 5)
	subs := p.Flatten(model.Scale(2, 2), 0)
	if len(subs) != 1 {
		t.Fatalf("subpaths = %d, want 1", len(subs))
	}
	if !subs[0].Closed || len(subs[0].Points) != 4 {
		t.Errorf("subpath = %+v", subs[0])
	}
	b := Bounds(subs)
	if b != (model.Rect{X0: 20, Y0: 20, X1: 60, Y1: 30}) {
		t.Errorf("bounds = %+v", b)
	}
}

// TestFlattenCurve tests that curves end at their end point and stay near the curve
func TestFlattenCurve(t *testing.T) {
	p := NewPath()
	p.MoveTo(0, 0)
	p.CurveTo(0, 100, 100, 100, 100, 0)
	subs := p.Flatten(model.Identity(), 0.25)
	if len(subs) != 1 {
		t.Fatalf("subpaths = %d, want 1", len(subs))
	}
	pts := subs[0].Points
	if len(pts) < 10 {
		t.Errorf("only %d points for a large curve", len(pts))
	}
	if end := pts[len(pts)-1]; math.Abs(end.X-100) > 1e-9 || math.Abs(end.Y) > 1e-9 {
		t.Errorf("end = %v, want {100 0}", end)
	}
	// The curve peaks at y = 75 for t = 0.5.
	top := Bounds(subs).Y1
	if math.Abs(top-75) > 0.5 {
		t.Errorf("peak = %f, want about 75", top)
	}
}

// TestFlattenMultipleSubpaths tests subpath splitting and drawing after h
func TestFlattenMultipleSubpaths(t *testing.T) {
	p := NewPath()
	p.MoveTo(0, 0)
	p.LineTo(10, 0)
	p.ClosePath()
	p.LineTo(0, 10)
	p.MoveTo(50, 50)
	p.LineTo(60, 60)

	subs := p.Flatten(model.Identity(), 0)
	if len(subs) != 3 {
		t.Fatalf("subpaths = %d, want 3", len(subs))
	}
	if !subs[0].Closed || subs[1].Closed {
		t.Errorf("closed flags = %v %v", subs[0].Closed, subs[1].Closed)
	}
	if subs[1].Points[0] != (model.Point{}) {
		t.Errorf("line after h starts at %v, want subpath start", subs[1].Points[0])
	}
}

func totalArea(polys [][]model.Point) float64 {
	a := 0.0
	for _, p := range polys {
		a += signedArea(p)
	}
	return a
}

// TestOutlineLine tests stroking a single segment with each cap
func TestOutlineLine(t *testing.T) {
	line := []Subpath{{Points: []model.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}}}
	tests := []struct {
		name string
		cap  LineCap
		area float64
	}{
		{"butt", ButtCap, 20},
		{"square", SquareCap, 24},
		{"round", RoundCap, 20 + 4*math.Sqrt2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			polys := Outline(line, StrokeStyle{Width: 2, Cap: tt.cap, MiterLimit: 10})
			for i, p := range polys {
				if signedArea(p) < 0 {
					t.Errorf("polygon %d wound negatively", i)
				}
			}
			// Round caps are octagons overlapping the body.
			if got := totalArea(polys); math.Abs(got-tt.area) > 0.5 {
				t.Errorf("area = %f, want about %f", got, tt.area)
			}
		})
	}
}

// TestOutlineJoins tests corner polygons
func TestOutlineJoins(t *testing.T) {
	corner := []Subpath{{Points: []model.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}}}
	tests := []struct {
		name  string
		join  LineJoin
		limit float64
		polys int
		extra int
	}{
		{"miter", MiterJoin, 10, 3, 4},
		{"miter over limit", MiterJoin, 1, 3, 3},
		{"bevel", BevelJoin, 10, 3, 3},
		{"round", RoundJoin, 10, 3, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			polys := Outline(corner, StrokeStyle{Width: 2, Join: tt.join, MiterLimit: tt.limit})
			if len(polys) != tt.polys {
				t.Fatalf("polygons = %d, want %d", len(polys), tt.polys)
			}
			if got := len(polys[2]); got != tt.extra {
				t.Errorf("join polygon has %d points, want %d", got, tt.extra)
			}
		})
	}
}

// TestOutlineClosed tests that closed subpaths join at the start instead of capping
func TestOutlineClosed(t *testing.T) {
	square := []Subpath{{
		Points: []model.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
		Closed: true,
	}}
	polys := Outline(square, StrokeStyle{Width: 2, Join: BevelJoin, Cap: RoundCap})
	// Four sides and four corners.
	if len(polys) != 8 {
		t.Errorf("polygons = %d, want 8", len(polys))
	}
}

// TestOutlineDash tests dash splitting
func TestOutlineDash(t *testing.T) {
	line := []Subpath{{Points: []model.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}}}

	runs := dashes(line, []float64{2, 2}, 0)
	if len(runs) != 3 {
		t.Fatalf("dash runs = %d, want 3", len(runs))
	}
	if runs[1].Points[0].X != 4 || runs[1].Points[1].X != 6 {
		t.Errorf("second run = %v, want 4..6", runs[1].Points)
	}

	runs = dashes(line, []float64{2, 2}, 3)
	if len(runs) != 3 || runs[0].Points[0].X != 1 {
		t.Errorf("phased runs = %v", runs)
	}

	runs = dashes(line, []float64{3}, 0)
	if len(runs) != 2 {
		t.Errorf("odd dash runs = %d, want 2", len(runs))
	}
}

// TestOutlineDegenerate tests zero-length subpaths
func TestOutlineDegenerate(t *testing.T) {
	dot := []Subpath{{Points: []model.Point{{X: 5, Y: 5}, {X: 5, Y: 5}}}}
	if polys := Outline(dot, StrokeStyle{Width: 2}); len(polys) != 0 {
		t.Errorf("butt dot = %d polygons, want 0", len(polys))
	}
	if polys := Outline(dot, StrokeStyle{Width: 2, Cap: RoundCap}); len(polys) != 1 {
		t.Errorf("round dot = %d polygons, want 1", len(polys))
	}
	if polys := Outline(nil, StrokeStyle{Width: 2}); polys != nil {
		t.Errorf("empty outline = %v", polys)
	}
}

// TestStrokeStyleScaling tests device scaling of line attributes
func TestStrokeStyleScaling(t *testing.T) {
	gs := NewGraphicsState(model.Scale(2, 2))
	gs.LineWidth = 1.5
	gs.SetDash([]float64{1, 2}, 1)
	st := gs.StrokeStyle()
	if st.Width != 3 || st.DashPhase != 2 || st.Dash[1] != 4 {
		t.Errorf("style = %+v", st)
	}
}
