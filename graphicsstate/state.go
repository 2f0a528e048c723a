package graphicsstate

import (
	"errors"
	"image"
	"image/color"

	"github.com/sbkohel/pdf-dedupe/colorspace"
	"github.com/sbkohel/pdf-dedupe/core"
	"github.com/sbkohel/pdf-dedupe/model"
)

// ErrStackUnderflow is returned by Restore without a matching Save.
var ErrStackUnderflow = errors.New("graphics state stack underflow")

// maxStackDepth bounds q nesting; deeper saves are ignored along with their
// matching restores.
const maxStackDepth = 256

// LineCap is the shape at the open ends of stroked subpaths.
type LineCap int

const (
	ButtCap LineCap = iota
	RoundCap
	SquareCap
)

// LineJoin is the shape at corners of stroked subpaths.
type LineJoin int

const (
	MiterJoin LineJoin = iota
	RoundJoin
	BevelJoin
)

// Paint is a colour together with the space it was specified in.
type Paint struct {
	Space      colorspace.Space
	Components []float64
	// Pattern is the pattern name for "/Pattern cs /P1 scn"; patterns are
	// painted with their base colour or mid grey.
	Pattern string
}

// RGBA returns the paint as a device colour scaled by alpha.
func (p Paint) RGBA(alpha float64) color.RGBA {
	c := colorspace.ToColor(p.Space, p.Components)
	if alpha >= 1 {
		return c
	}
	if alpha < 0 {
		alpha = 0
	}
	return color.RGBA{
		R: uint8(float64(c.R)*alpha + 0.5),
		G: uint8(float64(c.G)*alpha + 0.5),
		B: uint8(float64(c.B)*alpha + 0.5),
		A: uint8(float64(c.A)*alpha + 0.5),
	}
}

// Invisible reports whether painting with p leaves no mark.
func (p Paint) Invisible() bool {
	return p.Space != nil && colorspace.Invisible(p.Space)
}

// GraphicsState represents the PDF graphics state
type GraphicsState struct {
	// Current Transformation Matrix, user space to device space
	CTM model.Matrix

	// Text state
	Text TextState

	// Line attributes
	LineWidth  float64
	LineCap    LineCap
	LineJoin   LineJoin
	MiterLimit float64
	Dash       []float64
	DashPhase  float64

	Stroke Paint
	Fill   Paint

	// Constant alpha for stroking (CA) and everything else (ca)
	StrokeAlpha float64
	FillAlpha   float64

	// Clip is the device clip mask, nil for no clipping. Masks are never
	// modified after being installed, so saved states share them.
	Clip *image.Alpha

	// Graphics state stack (for q/Q operators)
	stack   []GraphicsState
	skipped int
}

// TextState represents text-specific state
type TextState struct {
	FontName string
	FontSize float64

	CharSpacing float64
	WordSpacing float64

	// Horizontal scaling as a fraction (Tz 100 is 1.0)
	HorizontalScaling float64

	Leading       float64
	RenderingMode int
	Rise          float64

	TextMatrix     model.Matrix
	TextLineMatrix model.Matrix
}

// NewGraphicsState creates a new graphics state with default values. base
// maps default user space to device space.
func NewGraphicsState(base model.Matrix) *GraphicsState {
	black := Paint{Space: colorspace.DeviceGray, Components: colorspace.DeviceGray.Initial()}
	return &GraphicsState{
		CTM:         base,
		LineWidth:   1.0,
		MiterLimit:  10,
		Stroke:      black,
		Fill:        black,
		StrokeAlpha: 1,
		FillAlpha:   1,
		Text: TextState{
			FontSize:          12.0,
			HorizontalScaling: 1,
			TextMatrix:        model.Identity(),
			TextLineMatrix:    model.Identity(),
		},
	}
}

// Save pushes the current graphics state onto the stack (q operator)
func (gs *GraphicsState) Save() {
	if len(gs.stack) >= maxStackDepth {
		gs.skipped++
		return
	}
	saved := *gs
	saved.stack = nil
	saved.Dash = append([]float64(nil), gs.Dash...)
	gs.stack = append(gs.stack, saved)
}

// Restore pops a graphics state from the stack (Q operator)
func (gs *GraphicsState) Restore() error {
	if gs.skipped > 0 {
		gs.skipped--
		return nil
	}
	if len(gs.stack) == 0 {
		return ErrStackUnderflow
	}
	stack := gs.stack[:len(gs.stack)-1]
	*gs = gs.stack[len(gs.stack)-1]
	gs.stack = stack
	return nil
}

// Depth returns the number of saved states.
func (gs *GraphicsState) Depth() int { return len(gs.stack) + gs.skipped }

// Transform concatenates m onto the CTM (cm operator)
func (gs *GraphicsState) Transform(m model.Matrix) {
	gs.CTM = m.Multiply(gs.CTM)
}

// DeviceLineWidth returns the line width in device units. Zero-width lines
// are drawn one device pixel wide.
func (gs *GraphicsState) DeviceLineWidth() float64 {
	w := gs.LineWidth * gs.CTM.ScaleFactor()
	if w < 1 {
		w = 1
	}
	return w
}

// ApplyExtGState applies the entries of an ExtGState dictionary (gs
// operator). Soft masks, blend modes and overprint are not modelled.
func (gs *GraphicsState) ApplyExtGState(d core.Dict) {
	if v, ok := d.GetNumber("LW"); ok {
		gs.LineWidth = v
	}
	if v, ok := d.GetInt("LC"); ok && v >= 0 && v <= 2 {
		gs.LineCap = LineCap(v)
	}
	if v, ok := d.GetInt("LJ"); ok && v >= 0 && v <= 2 {
		gs.LineJoin = LineJoin(v)
	}
	if v, ok := d.GetNumber("ML"); ok {
		gs.MiterLimit = v
	}
	if arr, ok := d.GetArray("D"); ok && len(arr) == 2 {
		if pattern, ok := arr[0].(core.Array); ok {
			dash, _ := pattern.Floats()
			phase, _ := core.Number(arr[1])
			gs.SetDash(dash, phase)
		}
	}
	if v, ok := d.GetNumber("CA"); ok {
		gs.StrokeAlpha = clamp01(v)
	}
	if v, ok := d.GetNumber("ca"); ok {
		gs.FillAlpha = clamp01(v)
	}
	if arr, ok := d.GetArray("Font"); ok && len(arr) == 2 {
		if size, ok := core.Number(arr[1]); ok {
			gs.Text.FontSize = size
		}
	}
}

// SetDash sets the dash pattern (d operator). A pattern that is all zeros
// or has a negative entry means solid lines.
func (gs *GraphicsState) SetDash(dash []float64, phase float64) {
	total := 0.0
	for _, v := range dash {
		if v < 0 {
			gs.Dash, gs.DashPhase = nil, 0
			return
		}
		total += v
	}
	if total == 0 {
		gs.Dash, gs.DashPhase = nil, 0
		return
	}
	gs.Dash = append([]float64(nil), dash...)
	gs.DashPhase = phase
}

// SetFont sets the current font (Tf operator)
func (gs *GraphicsState) SetFont(name string, size float64) {
	gs.Text.FontName = name
	gs.Text.FontSize = size
}

// SetHorizontalScaling sets horizontal scaling from a Tz percentage
func (gs *GraphicsState) SetHorizontalScaling(percent float64) {
	gs.Text.HorizontalScaling = percent / 100
}

// BeginText initializes text state (BT operator)
func (gs *GraphicsState) BeginText() {
	gs.Text.TextMatrix = model.Identity()
	gs.Text.TextLineMatrix = model.Identity()
}

// SetTextMatrix sets the text matrix (Tm operator)
func (gs *GraphicsState) SetTextMatrix(m model.Matrix) {
	gs.Text.TextMatrix = m
	gs.Text.TextLineMatrix = m
}

// TranslateText moves to the start of the next line offset by (tx, ty)
// (Td operator)
func (gs *GraphicsState) TranslateText(tx, ty float64) {
	gs.Text.TextLineMatrix = model.Translate(tx, ty).Multiply(gs.Text.TextLineMatrix)
	gs.Text.TextMatrix = gs.Text.TextLineMatrix
}

// TranslateTextSetLeading translates text and sets leading (TD operator)
func (gs *GraphicsState) TranslateTextSetLeading(tx, ty float64) {
	gs.Text.Leading = -ty
	gs.TranslateText(tx, ty)
}

// NextLine moves to next line (T* operator)
func (gs *GraphicsState) NextLine() {
	gs.TranslateText(0, -gs.Text.Leading)
}

// GlyphMatrix returns the matrix mapping glyph space, scaled to one unit
// per em, to device space for the next glyph.
func (gs *GraphicsState) GlyphMatrix() model.Matrix {
	t := gs.Text
	m := model.Matrix{t.FontSize * t.HorizontalScaling, 0, 0, t.FontSize, 0, t.Rise}
	return m.Multiply(t.TextMatrix).Multiply(gs.CTM)
}

// Advance moves the text position past a glyph of width w0 (in text space
// units per em). Word spacing applies to single-byte code 32 only.
func (gs *GraphicsState) Advance(w0 float64, wordSpace bool) {
	t := &gs.Text
	tx := w0*t.FontSize + t.CharSpacing
	if wordSpace {
		tx += t.WordSpacing
	}
	tx *= t.HorizontalScaling
	t.TextMatrix = model.Translate(tx, 0).Multiply(t.TextMatrix)
}

// AdvanceVertical moves the text position down a vertical glyph. w1 is
// the vertical displacement per em, negative for downward writing.
func (gs *GraphicsState) AdvanceVertical(w1 float64, wordSpace bool) {
	t := &gs.Text
	ty := w1*t.FontSize + t.CharSpacing
	if wordSpace {
		ty += t.WordSpacing
	}
	t.TextMatrix = model.Translate(0, ty).Multiply(t.TextMatrix)
}

// Kern applies a TJ array adjustment in thousandths of an em. Vertical
// fonts move along y instead.
func (gs *GraphicsState) Kern(adjust float64, vertical bool) {
	t := &gs.Text
	if vertical {
		t.TextMatrix = model.Translate(0, -adjust/1000*t.FontSize).Multiply(t.TextMatrix)
		return
	}
	tx := -adjust / 1000 * t.FontSize * t.HorizontalScaling
	t.TextMatrix = model.Translate(tx, 0).Multiply(t.TextMatrix)
}

// TextPosition returns the current text origin in device space.
func (gs *GraphicsState) TextPosition() model.Point {
	return gs.GlyphMatrix().Transform(model.Point{})
}

// Invisible reports whether the text rendering mode paints nothing.
func (t TextState) Invisible() bool {
	return t.RenderingMode == 3 || t.RenderingMode == 7
}

// Fills reports whether the text rendering mode fills glyphs.
func (t TextState) Fills() bool {
	switch t.RenderingMode {
	case 0, 2, 4, 6:
		return true
	}
	return false
}

// Strokes reports whether the text rendering mode strokes glyph outlines.
func (t TextState) Strokes() bool {
	switch t.RenderingMode {
	case 1, 2, 5, 6:
		return true
	}
	return false
}

// Clips reports whether the text rendering mode adds glyphs to the clip.
func (t TextState) Clips() bool {
	return t.RenderingMode >= 4
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
