package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"golang.org/x/image/draw"

	"github.com/sbkohel/pdf-dedupe/contentstream"
	"github.com/sbkohel/pdf-dedupe/core"
	"github.com/sbkohel/pdf-dedupe/fonts"
	"github.com/sbkohel/pdf-dedupe/graphicsstate"
	"github.com/sbkohel/pdf-dedupe/model"
	"github.com/sbkohel/pdf-dedupe/pages"
	"github.com/sbkohel/pdf-dedupe/reader"
)

// DefaultDPI is the resolution used when Options.DPI is zero.
const DefaultDPI = 150

const (
	// maxFormDepth bounds nested form XObjects and Type3 glyph procedures.
	maxFormDepth = 12
	// maxPixels bounds the rendered page size.
	maxPixels = 1 << 26
	// cancelCheck is how many operations run between context checks.
	cancelCheck = 512
)

// Options control rendering.
type Options struct {
	// DPI is the output resolution; 72 renders one pixel per point.
	DPI float64
	// Background fills the page before drawing; nil means white.
	Background color.Color
	// Logger receives debug messages about skipped content; nil means
	// slog.Default().
	Logger *slog.Logger
}

// RenderPage renders the page at index (0-based) of doc.
func RenderPage(ctx context.Context, doc *reader.Reader, index int, opts Options) (*image.RGBA, error) {
	page, err := doc.Page(index)
	if err != nil {
		return nil, err
	}
	return Render(ctx, doc, page, opts)
}

// Render rasterizes the page's crop box with its rotation applied. Content
// that cannot be interpreted is skipped; errors are returned only for a
// page that cannot be set up or a cancelled context.
func Render(ctx context.Context, doc *reader.Reader, page *pages.Page, opts Options) (*image.RGBA, error) {
	dpi := opts.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	base, w, h := pageMatrix(page.CropBox(), page.Rotate(), dpi/72)
	if int64(w)*int64(h) > maxPixels {
		return nil, fmt.Errorf("page of %dx%d pixels at %v dpi is too large", w, h, dpi)
	}

	bg := opts.Background
	if bg == nil {
		bg = color.White
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	content, err := page.ContentData()
	if err != nil {
		log.Debug("page contents unreadable", "error", err)
		return img, nil
	}

	r := &renderer{
		ctx:    ctx,
		doc:    doc,
		log:    log,
		canvas: newCanvas(img),
		fonts:  make(map[core.IndirectRef]*fonts.Font),
		glyphs: make(map[*fonts.Font]map[uint32]*graphicsstate.Path),
	}
	gs := graphicsstate.NewGraphicsState(base)
	if err := r.run(content, page.Resources(), gs, 0); err != nil {
		return nil, err
	}
	return img, nil
}

// pageMatrix maps user space inside crop to device pixels with y pointing
// down, for a clockwise page rotation.
func pageMatrix(crop model.Rect, rotate int, scale float64) (m model.Matrix, w, h int) {
	cw, ch := crop.Width()*scale, crop.Height()*scale
	switch rotate {
	case 90:
		m = model.Matrix{0, scale, scale, 0, -crop.Y0 * scale, -crop.X0 * scale}
		cw, ch = ch, cw
	case 180:
		m = model.Matrix{-scale, 0, 0, scale, crop.X1 * scale, -crop.Y0 * scale}
	case 270:
		m = model.Matrix{0, -scale, -scale, 0, crop.Y1 * scale, crop.X1 * scale}
		cw, ch = ch, cw
	default:
		m = model.Matrix{scale, 0, 0, -scale, -crop.X0 * scale, crop.Y1 * scale}
	}
	w = int(math.Ceil(cw - 1e-6))
	h = int(math.Ceil(ch - 1e-6))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return m, w, h
}

type renderer struct {
	ctx    context.Context
	doc    *reader.Reader
	log    *slog.Logger
	canvas *canvas

	fonts  map[core.IndirectRef]*fonts.Font
	glyphs map[*fonts.Font]map[uint32]*graphicsstate.Path

	ops int
}

// frame is the interpreter state of one content stream.
type frame struct {
	res  core.Dict
	gs   *graphicsstate.GraphicsState
	path *graphicsstate.Path

	pendingClip bool
	clipEvenOdd bool

	font     *fonts.Font
	fontName string
	textClip []graphicsstate.Subpath
	depth    int
}

// run interprets content with the given resources and state.
func (r *renderer) run(content []byte, res core.Dict, gs *graphicsstate.GraphicsState, depth int) error {
	ops, err := contentstream.NewParser(content).Parse()
	if err != nil {
		r.log.Debug("content stream truncated", "error", err, "operations", len(ops))
	}
	f := &frame{res: res, gs: gs, path: graphicsstate.NewPath(), depth: depth}
	for _, op := range ops {
		if r.ops++; r.ops%cancelCheck == 0 {
			if err := r.ctx.Err(); err != nil {
				return err
			}
		}
		if err := r.exec(f, op); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) exec(f *frame, op contentstream.Operation) error {
	gs := f.gs
	args := op.Operands
	switch op.Operator {
	// Graphics state
	case "q":
		gs.Save()
	case "Q":
		if err := gs.Restore(); err != nil {
			r.log.Debug("unbalanced Q")
		}
	case "cm":
		if v, ok := numbers(args, 6); ok {
			gs.Transform(model.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]})
		}
	case "w":
		if v, ok := numbers(args, 1); ok {
			gs.LineWidth = v[0]
		}
	case "J":
		if v, ok := numbers(args, 1); ok && v[0] >= 0 && v[0] <= 2 {
			gs.LineCap = graphicsstate.LineCap(v[0])
		}
	case "j":
		if v, ok := numbers(args, 1); ok && v[0] >= 0 && v[0] <= 2 {
			gs.LineJoin = graphicsstate.LineJoin(v[0])
		}
	case "M":
		if v, ok := numbers(args, 1); ok {
			gs.MiterLimit = v[0]
		}
	case "d":
		if len(args) == 2 {
			if arr, ok := args[0].(core.Array); ok {
				dash, _ := arr.Floats()
				phase, _ := core.Number(args[1])
				gs.SetDash(dash, phase)
			}
		}
	case "gs":
		if d, ok := r.resource(f.res, "ExtGState", args); ok {
			gs.ApplyExtGState(d)
		}

	// Path construction
	case "m":
		if v, ok := numbers(args, 2); ok {
			f.path.MoveTo(v[0], v[1])
		}
	case "l":
		if v, ok := numbers(args, 2); ok {
			f.path.LineTo(v[0], v[1])
		}
	case "c":
		if v, ok := numbers(args, 6); ok {
			f.path.CurveTo(v[0], v[1], v[2], v[3], v[4], v[5])
		}
	case "v":
		if v, ok := numbers(args, 4); ok {
			f.path.CurveToV(v[0], v[1], v[2], v[3])
		}
	case "y":
		if v, ok := numbers(args, 4); ok {
			f.path.CurveToY(v[0], v[1], v[2], v[3])
		}
	case "h":
		f.path.ClosePath()
	case "re":
		if v, ok := numbers(args, 4); ok {
			f.path.Rectangle(v[0], v[1], v[2], v[3])
		}

	// Path painting
	case "f", "F":
		r.paint(f, true, false, false)
	case "f*":
		r.paint(f, true, true, false)
	case "S":
		r.paint(f, false, false, true)
	case "s":
		f.path.ClosePath()
		r.paint(f, false, false, true)
	case "B":
		r.paint(f, true, false, true)
	case "B*":
		r.paint(f, true, true, true)
	case "b":
		f.path.ClosePath()
		r.paint(f, true, false, true)
	case "b*":
		f.path.ClosePath()
		r.paint(f, true, true, true)
	case "n":
		r.paint(f, false, false, false)
	case "W":
		f.pendingClip, f.clipEvenOdd = true, false
	case "W*":
		f.pendingClip, f.clipEvenOdd = true, true

	// Colour
	case "g", "G", "rg", "RG", "k", "K", "cs", "CS", "sc", "SC", "scn", "SCN":
		r.setColor(f, op.Operator, args)

	// Text
	case "BT":
		gs.BeginText()
		f.textClip = nil
	case "ET":
		if gs.Text.Clips() && len(f.textClip) > 0 {
			r.canvas.intersectClip(gs, f.textClip, false)
		}
		f.textClip = nil
	case "Tc":
		if v, ok := numbers(args, 1); ok {
			gs.Text.CharSpacing = v[0]
		}
	case "Tw":
		if v, ok := numbers(args, 1); ok {
			gs.Text.WordSpacing = v[0]
		}
	case "Tz":
		if v, ok := numbers(args, 1); ok {
			gs.SetHorizontalScaling(v[0])
		}
	case "TL":
		if v, ok := numbers(args, 1); ok {
			gs.Text.Leading = v[0]
		}
	case "Tf":
		if len(args) == 2 {
			name, _ := args[0].(core.Name)
			size, _ := core.Number(args[1])
			gs.SetFont(string(name), size)
		}
	case "Tr":
		if v, ok := numbers(args, 1); ok {
			gs.Text.RenderingMode = int(v[0])
		}
	case "Ts":
		if v, ok := numbers(args, 1); ok {
			gs.Text.Rise = v[0]
		}
	case "Td":
		if v, ok := numbers(args, 2); ok {
			gs.TranslateText(v[0], v[1])
		}
	case "TD":
		if v, ok := numbers(args, 2); ok {
			gs.TranslateTextSetLeading(v[0], v[1])
		}
	case "Tm":
		if v, ok := numbers(args, 6); ok {
			gs.SetTextMatrix(model.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]})
		}
	case "T*":
		gs.NextLine()
	case "Tj":
		if len(args) == 1 {
			if s, ok := args[0].(core.String); ok {
				return r.showText(f, []byte(s))
			}
		}
	case "'":
		gs.NextLine()
		if len(args) == 1 {
			if s, ok := args[0].(core.String); ok {
				return r.showText(f, []byte(s))
			}
		}
	case "\"":
		if len(args) == 3 {
			if v, ok := numbers(args[:2], 2); ok {
				gs.Text.WordSpacing, gs.Text.CharSpacing = v[0], v[1]
			}
			gs.NextLine()
			if s, ok := args[2].(core.String); ok {
				return r.showText(f, []byte(s))
			}
		}
	case "TJ":
		if len(args) == 1 {
			if arr, ok := args[0].(core.Array); ok {
				return r.showTextArray(f, arr)
			}
		}

	// XObjects, images and shadings
	case "Do":
		return r.doXObject(f, args)
	case "BI":
		if len(args) == 1 {
			if s, ok := args[0].(*core.Stream); ok {
				r.drawImageStream(f, s)
			}
		}
	case "sh":
		r.shade(f, args)
	}
	return nil
}

// paint fills and strokes the current path, applies a pending clip, then
// starts a new path.
func (r *renderer) paint(f *frame, fill, evenOdd, stroke bool) {
	gs := f.gs
	if !f.path.IsEmpty() {
		subpaths := f.path.Flatten(gs.CTM, 0.25)
		if fill && !gs.Fill.Invisible() {
			r.canvas.fill(gs, subpaths, evenOdd, gs.Fill.RGBA(gs.FillAlpha))
		}
		if stroke && !gs.Stroke.Invisible() {
			polys := graphicsstate.Outline(subpaths, gs.StrokeStyle())
			r.canvas.fillPolygons(gs, polys, gs.Stroke.RGBA(gs.StrokeAlpha))
		}
		if f.pendingClip {
			r.canvas.intersectClip(gs, subpaths, f.clipEvenOdd)
		}
	} else if f.pendingClip {
		r.canvas.intersectClip(gs, nil, false)
	}
	f.pendingClip = false
	f.path.Clear()
}

// resource looks up the dictionary named by the last operand in a
// resource category such as ExtGState.
func (r *renderer) resource(res core.Dict, category string, args []core.Object) (core.Dict, bool) {
	obj, ok := r.namedResource(res, category, args)
	if !ok {
		return nil, false
	}
	d, ok := obj.(core.Dict)
	return d, ok
}

func (r *renderer) namedResource(res core.Dict, category string, args []core.Object) (core.Object, bool) {
	if len(args) == 0 {
		return nil, false
	}
	name, ok := args[len(args)-1].(core.Name)
	if !ok {
		return nil, false
	}
	cat, ok := r.resolve(res.Get(category)).(core.Dict)
	if !ok {
		return nil, false
	}
	obj := r.resolve(cat.Get(string(name)))
	if obj == nil {
		r.log.Debug("missing resource", "category", category, "name", string(name))
		return nil, false
	}
	return obj, true
}

func (r *renderer) resolve(obj core.Object) core.Object {
	if obj == nil {
		return nil
	}
	v, err := r.doc.Resolve(obj)
	if err != nil {
		return nil
	}
	if _, isNull := v.(core.Null); isNull {
		return nil
	}
	return v
}

// numbers returns the last n operands as floats.
func numbers(args []core.Object, n int) ([]float64, bool) {
	if len(args) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i, a := range args[len(args)-n:] {
		v, ok := core.Number(a)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
