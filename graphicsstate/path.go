package graphicsstate

import (
	"math"

	"github.com/sbkohel/pdf-dedupe/model"
)

// PathSegmentType defines the type of path segment
type PathSegmentType int

const (
	// PathMoveTo starts a new subpath
	PathMoveTo PathSegmentType = iota
	// PathLineTo draws a line to a point
	PathLineTo
	// PathCurveTo draws a cubic Bézier curve
	PathCurveTo
	// PathClosePath closes the current subpath
	PathClosePath
)

// PathSegment represents a single segment of a path
type PathSegment struct {
	Type PathSegmentType

	// For MoveTo and LineTo: single point
	// For CurveTo: control point 1, control point 2, end point
	Points []model.Point
}

// Path represents a graphics path being constructed
type Path struct {
	Segments []PathSegment

	CurrentPoint    model.Point
	SubpathStart    model.Point
	HasCurrentPoint bool
}

// NewPath creates a new empty path
func NewPath() *Path {
	return &Path{}
}

// MoveTo starts a new subpath at the specified point (m operator)
func (p *Path) MoveTo(x, y float64) {
	pt := model.Point{X: x, Y: y}
	p.Segments = append(p.Segments, PathSegment{Type: PathMoveTo, Points: []model.Point{pt}})
	p.CurrentPoint = pt
	p.SubpathStart = pt
	p.HasCurrentPoint = true
}

// LineTo appends a line segment from current point to (x, y) (l operator)
func (p *Path) LineTo(x, y float64) {
	if !p.HasCurrentPoint {
		p.MoveTo(x, y)
		return
	}
	pt := model.Point{X: x, Y: y}
	p.Segments = append(p.Segments, PathSegment{Type: PathLineTo, Points: []model.Point{pt}})
	p.CurrentPoint = pt
}

// CurveTo appends a cubic Bézier curve (c operator)
func (p *Path) CurveTo(x1, y1, x2, y2, x3, y3 float64) {
	if !p.HasCurrentPoint {
		p.MoveTo(x1, y1)
	}
	end := model.Point{X: x3, Y: y3}
	p.Segments = append(p.Segments, PathSegment{
		Type:   PathCurveTo,
		Points: []model.Point{{X: x1, Y: y1}, {X: x2, Y: y2}, end},
	})
	p.CurrentPoint = end
}

// CurveToV appends a curve whose first control point is the current point (v operator)
func (p *Path) CurveToV(x2, y2, x3, y3 float64) {
	if !p.HasCurrentPoint {
		p.MoveTo(x2, y2)
	}
	p.CurveTo(p.CurrentPoint.X, p.CurrentPoint.Y, x2, y2, x3, y3)
}

// CurveToY appends a curve whose second control point is the end point (y operator)
func (p *Path) CurveToY(x1, y1, x3, y3 float64) {
	p.CurveTo(x1, y1, x3, y3, x3, y3)
}

// ClosePath closes the current subpath (h operator)
func (p *Path) ClosePath() {
	if !p.HasCurrentPoint {
		return
	}
	p.Segments = append(p.Segments, PathSegment{Type: PathClosePath})
	p.CurrentPoint = p.SubpathStart
}

// Rectangle appends a rectangle as a complete subpath (re operator)
func (p *Path) Rectangle(x, y, width, height float64) {
	p.MoveTo(x, y)
	p.LineTo(x+width, y)
	p.LineTo(x+width, y+height)
	p.LineTo(x, y+height)
	p.ClosePath()
}

// Clear resets the path
func (p *Path) Clear() {
	*p = Path{Segments: p.Segments[:0]}
}

// IsEmpty returns true if the path has no segments
func (p *Path) IsEmpty() bool {
	return len(p.Segments) == 0
}

// Subpath is a flattened run of connected points.
type Subpath struct {
	Points []model.Point
	Closed bool
}

// Flatten maps the path through m and approximates curves with line
// segments no further than tolerance from the curve, in device units.
func (p *Path) Flatten(m model.Matrix, tolerance float64) []Subpath {
	if tolerance <= 0 {
		tolerance = 0.25
	}
	var out []Subpath
	var cur *Subpath
	var last model.Point
	flush := func() {
		if cur != nil && len(cur.Points) > 0 {
			out = append(out, *cur)
		}
		cur = nil
	}
	for _, seg := range p.Segments {
		switch seg.Type {
		case PathMoveTo:
			flush()
			last = m.Transform(seg.Points[0])
			cur = &Subpath{Points: []model.Point{last}}
		case PathLineTo:
			if cur == nil {
				cur = &Subpath{Points: []model.Point{last}}
			}
			last = m.Transform(seg.Points[0])
			cur.Points = append(cur.Points, last)
		case PathCurveTo:
			if cur == nil {
				cur = &Subpath{Points: []model.Point{last}}
			}
			c1 := m.Transform(seg.Points[0])
			c2 := m.Transform(seg.Points[1])
			end := m.Transform(seg.Points[2])
			cur.Points = appendCubic(cur.Points, last, c1, c2, end, tolerance)
			last = end
		case PathClosePath:
			if cur == nil {
				continue
			}
			cur.Closed = true
			start := cur.Points[0]
			flush()
			// Drawing may continue from the subpath start after h.
			last = start
		}
	}
	flush()
	return out
}

// appendCubic appends points approximating the cubic from p0, excluding
// p0 itself.
func appendCubic(pts []model.Point, p0, p1, p2, p3 model.Point, tolerance float64) []model.Point {
	// Bound on the second difference gives the segment count.
	dd := math.Max(
		math.Hypot(p0.X-2*p1.X+p2.X, p0.Y-2*p1.Y+p2.Y),
		math.Hypot(p1.X-2*p2.X+p3.X, p1.Y-2*p2.Y+p3.Y),
	)
	n := int(math.Ceil(math.Sqrt(3 * dd / (4 * tolerance))))
	if n < 1 {
		n = 1
	}
	if n > 256 {
		n = 256
	}
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		u := 1 - t
		a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
		pts = append(pts, model.Point{
			X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
			Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
		})
	}
	return pts
}

// Bounds returns the bounding box of the flattened subpaths.
func Bounds(subpaths []Subpath) model.Rect {
	first := true
	var r model.Rect
	for _, sp := range subpaths {
		for _, pt := range sp.Points {
			if first {
				r = model.Rect{X0: pt.X, Y0: pt.Y, X1: pt.X, Y1: pt.Y}
				first = false
				continue
			}
			r.X0 = math.Min(r.X0, pt.X)
			r.Y0 = math.Min(r.Y0, pt.Y)
			r.X1 = math.Max(r.X1, pt.X)
			r.Y1 = math.Max(r.Y1, pt.Y)
		}
	}
	return r
}
