package graphicsstate

import (
	"math"

	"github.com/sbkohel/pdf-dedupe/model"
)

// StrokeStyle holds the line attributes in device units.
type StrokeStyle struct {
	Width      float64
	Cap        LineCap
	Join       LineJoin
	MiterLimit float64
	Dash       []float64
	DashPhase  float64
}

// StrokeStyle returns the current line attributes scaled to device space.
func (gs *GraphicsState) StrokeStyle() StrokeStyle {
	scale := gs.CTM.ScaleFactor()
	st := StrokeStyle{
		Width:      gs.DeviceLineWidth(),
		Cap:        gs.LineCap,
		Join:       gs.LineJoin,
		MiterLimit: gs.MiterLimit,
		DashPhase:  gs.DashPhase * scale,
	}
	for _, d := range gs.Dash {
		st.Dash = append(st.Dash, d*scale)
	}
	return st
}

// Outline converts stroked subpaths into polygons that, filled with the
// nonzero rule, cover the stroke. Every polygon winds the same way so
// overlaps never cancel.
func Outline(subpaths []Subpath, st StrokeStyle) [][]model.Point {
	hw := st.Width / 2
	if hw <= 0 {
		return nil
	}
	var polys [][]model.Point
	add := func(p []model.Point) {
		if len(p) >= 3 {
			polys = append(polys, orient(p))
		}
	}
	for _, sp := range dashes(subpaths, st.Dash, st.DashPhase) {
		pts := dedupe(sp.Points)
		if sp.Closed && len(pts) > 1 && pts[0] == pts[len(pts)-1] {
			pts = pts[:len(pts)-1]
		}
		if len(pts) == 0 {
			continue
		}
		if len(pts) == 1 {
			switch st.Cap {
			case RoundCap:
				add(circle(pts[0], hw))
			case SquareCap:
				p := pts[0]
				add([]model.Point{{X: p.X - hw, Y: p.Y - hw}, {X: p.X + hw, Y: p.Y - hw}, {X: p.X + hw, Y: p.Y + hw}, {X: p.X - hw, Y: p.Y + hw}})
			}
			continue
		}
		n := len(pts) - 1
		if sp.Closed {
			n = len(pts)
		}
		for i := 0; i < n; i++ {
			a, b := pts[i], pts[(i+1)%len(pts)]
			nx, ny := normal(a, b, hw)
			add([]model.Point{
				{X: a.X + nx, Y: a.Y + ny}, {X: b.X + nx, Y: b.Y + ny},
				{X: b.X - nx, Y: b.Y - ny}, {X: a.X - nx, Y: a.Y - ny},
			})
		}
		for i := 0; i < len(pts); i++ {
			if !sp.Closed && (i == 0 || i == len(pts)-1) {
				continue
			}
			prev := pts[(i-1+len(pts))%len(pts)]
			next := pts[(i+1)%len(pts)]
			add(join(prev, pts[i], next, hw, st))
		}
		if !sp.Closed {
			add(capAt(pts[1], pts[0], hw, st.Cap))
			add(capAt(pts[len(pts)-2], pts[len(pts)-1], hw, st.Cap))
		}
	}
	return polys
}

// join returns the polygon filling the outer corner at v.
func join(prev, v, next model.Point, hw float64, st StrokeStyle) []model.Point {
	if st.Join == RoundJoin {
		return circle(v, hw)
	}
	d1x, d1y := unit(v.X-prev.X, v.Y-prev.Y)
	d2x, d2y := unit(next.X-v.X, next.Y-v.Y)
	cross := d1x*d2y - d1y*d2x
	if math.Abs(cross) < 1e-9 {
		return nil
	}
	n1x, n1y := -d1y*hw, d1x*hw
	n2x, n2y := -d2y*hw, d2x*hw
	if cross > 0 {
		n1x, n1y, n2x, n2y = -n1x, -n1y, -n2x, -n2y
	}
	o1 := model.Point{X: v.X + n1x, Y: v.Y + n1y}
	o2 := model.Point{X: v.X + n2x, Y: v.Y + n2y}
	if st.Join == MiterJoin {
		dot := d1x*d2x + d1y*d2y
		ratio := 1 / math.Sqrt((1+dot)/2)
		if ratio <= st.MiterLimit {
			bx, by := unit(n1x+n2x, n1y+n2y)
			tip := model.Point{X: v.X + bx*hw*ratio, Y: v.Y + by*hw*ratio}
			return []model.Point{v, o1, tip, o2}
		}
	}
	return []model.Point{v, o1, o2}
}

// capAt returns the cap polygon at end, approached from from.
func capAt(from, end model.Point, hw float64, c LineCap) []model.Point {
	switch c {
	case RoundCap:
		return circle(end, hw)
	case SquareCap:
		dx, dy := unit(end.X-from.X, end.Y-from.Y)
		nx, ny := -dy*hw, dx*hw
		ex, ey := end.X+dx*hw, end.Y+dy*hw
		return []model.Point{
			{X: end.X + nx, Y: end.Y + ny}, {X: ex + nx, Y: ey + ny},
			{X: ex - nx, Y: ey - ny}, {X: end.X - nx, Y: end.Y - ny},
		}
	}
	return nil
}

// dashes splits subpaths into the visible dash runs.
func dashes(subpaths []Subpath, dash []float64, phase float64) []Subpath {
	if len(dash) == 0 {
		return subpaths
	}
	if len(dash)%2 == 1 {
		dash = append(append([]float64(nil), dash...), dash...)
	}
	period := 0.0
	for _, d := range dash {
		period += d
	}
	var out []Subpath
	for _, sp := range subpaths {
		pts := sp.Points
		if sp.Closed && len(pts) > 1 {
			pts = append(append([]model.Point(nil), pts...), pts[0])
		}
		idx, left, on := 0, dash[0], true
		if phase > 0 {
			p := math.Mod(phase, period)
			for p >= left {
				p -= left
				idx = (idx + 1) % len(dash)
				left = dash[idx]
				on = !on
			}
			left -= p
		}
		var cur []model.Point
		if on && len(pts) > 0 {
			cur = []model.Point{pts[0]}
		}
		for i := 1; i < len(pts); i++ {
			a, b := pts[i-1], pts[i]
			seg := math.Hypot(b.X-a.X, b.Y-a.Y)
			pos := 0.0
			for seg-pos > left {
				pos += left
				t := pos / seg
				p := model.Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
				if on {
					out = append(out, Subpath{Points: append(cur, p)})
					cur = nil
				} else {
					cur = []model.Point{p}
				}
				on = !on
				idx = (idx + 1) % len(dash)
				left = dash[idx]
			}
			left -= seg - pos
			if on {
				cur = append(cur, b)
			}
		}
		if on && len(cur) > 1 {
			out = append(out, Subpath{Points: cur})
		}
	}
	return out
}

func dedupe(pts []model.Point) []model.Point {
	out := make([]model.Point, 0, len(pts))
	for i, p := range pts {
		if i > 0 && math.Abs(p.X-out[len(out)-1].X) < 1e-9 && math.Abs(p.Y-out[len(out)-1].Y) < 1e-9 {
			continue
		}
		out = append(out, p)
	}
	return out
}

func circle(c model.Point, r float64) []model.Point {
	n := int(math.Ceil(math.Pi * r))
	if n < 8 {
		n = 8
	}
	if n > 64 {
		n = 64
	}
	pts := make([]model.Point, n)
	for i := range pts {
		s, co := math.Sincos(2 * math.Pi * float64(i) / float64(n))
		pts[i] = model.Point{X: c.X + r*co, Y: c.Y + r*s}
	}
	return pts
}

func normal(a, b model.Point, hw float64) (float64, float64) {
	dx, dy := unit(b.X-a.X, b.Y-a.Y)
	return -dy * hw, dx * hw
}

func unit(x, y float64) (float64, float64) {
	l := math.Hypot(x, y)
	if l == 0 {
		return 0, 0
	}
	return x / l, y / l
}

// orient returns p wound with non-negative signed area.
func orient(p []model.Point) []model.Point {
	if signedArea(p) >= 0 {
		return p
	}
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
	return p
}

func signedArea(p []model.Point) float64 {
	a := 0.0
	for i := range p {
		q := p[(i+1)%len(p)]
		a += p[i].X*q.Y - q.X*p[i].Y
	}
	return a / 2
}
