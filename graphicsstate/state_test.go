package graphicsstate

import (
	"errors"
	"math"
	"testing"

	"github.com/sbkohel/pdf-dedupe/colorspace"
	"github.com/sbkohel/pdf-dedupe/core"
	"github.com/sbkohel/pdf-dedupe/model"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// TestNewGraphicsState tests initial state
func TestNewGraphicsState(t *testing.T) {
	base := model.Scale(2, -2)
	gs := NewGraphicsState(base)

	if gs.LineWidth != 1.0 {
		t.Errorf("expected line width 1.0, got %f", gs.LineWidth)
	}
	if gs.Text.FontSize != 12.0 {
		t.Errorf("expected font size 12.0, got %f", gs.Text.FontSize)
	}
	if gs.Text.HorizontalScaling != 1 {
		t.Errorf("expected horizontal scaling 1, got %f", gs.Text.HorizontalScaling)
	}
	if gs.CTM != base {
		t.Errorf("CTM = %v, want %v", gs.CTM, base)
	}
	if c := gs.Fill.RGBA(1); c.R != 0 || c.G != 0 || c.B != 0 || c.A != 255 {
		t.Errorf("initial fill = %v, want opaque black", c)
	}
}

// TestSaveRestore tests q/Q operators
func TestSaveRestore(t *testing.T) {
	gs := NewGraphicsState(model.Identity())
	gs.LineWidth = 2.5
	gs.SetFont("Helvetica", 14)
	gs.SetDash([]float64{3, 1}, 0)

	gs.Save()
	gs.LineWidth = 5
	gs.SetFont("Times", 18)
	gs.Transform(model.Scale(3, 3))
	gs.Dash[0] = 9

	if gs.Depth() != 1 {
		t.Errorf("Depth = %d, want 1", gs.Depth())
	}
	if err := gs.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if gs.LineWidth != 2.5 {
		t.Errorf("expected restored line width 2.5, got %f", gs.LineWidth)
	}
	if gs.Text.FontName != "Helvetica" || gs.Text.FontSize != 14 {
		t.Errorf("restored font = %s %f", gs.Text.FontName, gs.Text.FontSize)
	}
	if gs.CTM != model.Identity() {
		t.Errorf("restored CTM = %v", gs.CTM)
	}
	if gs.Dash[0] != 3 {
		t.Errorf("restored dash = %v, want [3 1]", gs.Dash)
	}
}

// TestRestoreUnderflow tests Q without q
func TestRestoreUnderflow(t *testing.T) {
	gs := NewGraphicsState(model.Identity())
	if err := gs.Restore(); !errors.Is(err, ErrStackUnderflow) {
		t.Errorf("Restore = %v, want ErrStackUnderflow", err)
	}
}

// TestDeepSave tests that saves beyond the depth limit stay balanced
func TestDeepSave(t *testing.T) {
	gs := NewGraphicsState(model.Identity())
	for i := 0; i < maxStackDepth+10; i++ {
		gs.Save()
	}
	gs.LineWidth = 7
	for i := 0; i < maxStackDepth+10; i++ {
		if err := gs.Restore(); err != nil {
			t.Fatalf("Restore %d: %v", i, err)
		}
	}
	if gs.LineWidth != 1 {
		t.Errorf("LineWidth = %f, want 1", gs.LineWidth)
	}
	if gs.Depth() != 0 {
		t.Errorf("Depth = %d, want 0", gs.Depth())
	}
}

// TestTransformOrder tests that cm premultiplies the CTM
func TestTransformOrder(t *testing.T) {
	gs := NewGraphicsState(model.Translate(0, 100))
	gs.Transform(model.Scale(2, 2))
	p := gs.CTM.Transform(model.Point{X: 1, Y: 1})
	if !near(p.X, 2) || !near(p.Y, 102) {
		t.Errorf("point = %v, want {2 102}", p)
	}
}

// TestTextPositioning tests Td, TD, T* and Tm
func TestTextPositioning(t *testing.T) {
	gs := NewGraphicsState(model.Identity())
	gs.SetFont("F1", 10)
	gs.BeginText()
	gs.TranslateText(72, 720)

	p := gs.TextPosition()
	if !near(p.X, 72) || !near(p.Y, 720) {
		t.Errorf("after Td = %v, want {72 720}", p)
	}

	gs.TranslateTextSetLeading(0, -14)
	if gs.Text.Leading != 14 {
		t.Errorf("leading = %f, want 14", gs.Text.Leading)
	}
	gs.NextLine()
	p = gs.TextPosition()
	if !near(p.Y, 692) {
		t.Errorf("after T* y = %f, want 692", p.Y)
	}

	gs.SetTextMatrix(model.Matrix{2, 0, 0, 2, 10, 20})
	gs.TranslateText(5, 0)
	p = gs.TextPosition()
	if !near(p.X, 20) || !near(p.Y, 20) {
		t.Errorf("after Tm and Td = %v, want {20 20}", p)
	}
}

// TestAdvance tests glyph advance with spacing and scaling
func TestAdvance(t *testing.T) {
	tests := []struct {
		name      string
		charSpace float64
		wordSpace float64
		scale     float64
		space     bool
		want      float64
	}{
		{"plain", 0, 0, 100, false, 5},
		{"char spacing", 1, 0, 100, false, 6},
		{"word spacing on space", 0, 2, 100, true, 7},
		{"word spacing ignored", 0, 2, 100, false, 5},
		{"scaled", 1, 0, 50, false, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := NewGraphicsState(model.Identity())
			gs.SetFont("F1", 10)
			gs.Text.CharSpacing = tt.charSpace
			gs.Text.WordSpacing = tt.wordSpace
			gs.SetHorizontalScaling(tt.scale)
			gs.BeginText()
			gs.Advance(0.5, tt.space)
			if got := gs.TextPosition().X; !near(got, tt.want) {
				t.Errorf("x = %f, want %f", got, tt.want)
			}
		})
	}
}

// TestAdvanceVertical tests vertical writing displacement
func TestAdvanceVertical(t *testing.T) {
	gs := NewGraphicsState(model.Identity())
	gs.SetFont("F1", 10)
	gs.Text.CharSpacing = 1
	gs.BeginText()
	gs.AdvanceVertical(-1, false)
	if p := gs.TextPosition(); !near(p.X, 0) || !near(p.Y, -9) {
		t.Errorf("position = %v, want {0 -9}", p)
	}
}

// TestKern tests TJ adjustments
func TestKern(t *testing.T) {
	gs := NewGraphicsState(model.Identity())
	gs.SetFont("F1", 10)
	gs.BeginText()
	gs.Kern(-500, false)
	if got := gs.TextPosition().X; !near(got, 5) {
		t.Errorf("x = %f, want 5", got)
	}
	gs.Kern(500, true)
	if got := gs.TextPosition().Y; !near(got, -5) {
		t.Errorf("vertical y = %f, want -5", got)
	}
}

// TestGlyphMatrix tests size, rise and CTM composition
func TestGlyphMatrix(t *testing.T) {
	gs := NewGraphicsState(model.Scale(2, 2))
	gs.SetFont("F1", 10)
	gs.Text.Rise = 3
	gs.BeginText()
	gs.TranslateText(100, 50)

	p := gs.GlyphMatrix().Transform(model.Point{X: 1, Y: 1})
	if !near(p.X, 220) || !near(p.Y, 126) {
		t.Errorf("glyph corner = %v, want {220 126}", p)
	}
}

// TestRenderingModes tests text rendering mode predicates
func TestRenderingModes(t *testing.T) {
	tests := []struct {
		mode                             int
		fills, strokes, clips, invisible bool
	}{
		{0, true, false, false, false},
		{1, false, true, false, false},
		{2, true, true, false, false},
		{3, false, false, false, true},
		{4, true, false, true, false},
		{7, false, false, true, true},
	}
	for _, tt := range tests {
		ts := TextState{RenderingMode: tt.mode}
		if ts.Fills() != tt.fills || ts.Strokes() != tt.strokes || ts.Clips() != tt.clips || ts.Invisible() != tt.invisible {
			t.Errorf("mode %d: fills=%v strokes=%v clips=%v invisible=%v", tt.mode, ts.Fills(), ts.Strokes(), ts.Clips(), ts.Invisible())
		}
	}
}

// TestApplyExtGState tests gs operator parameters
func TestApplyExtGState(t *testing.T) {
	gs := NewGraphicsState(model.Identity())
	gs.ApplyExtGState(core.Dict{
		"LW": core.Real(3),
		"LC": core.Int(1),
		"LJ": core.Int(2),
		"ML": core.Int(4),
		"D":  core.Array{core.Array{core.Int(2), core.Int(2)}, core.Int(1)},
		"CA": core.Real(0.5),
		"ca": core.Real(1.5),
	})
	if gs.LineWidth != 3 || gs.LineCap != RoundCap || gs.LineJoin != BevelJoin || gs.MiterLimit != 4 {
		t.Errorf("line attributes = %v %v %v %v", gs.LineWidth, gs.LineCap, gs.LineJoin, gs.MiterLimit)
	}
	if len(gs.Dash) != 2 || gs.DashPhase != 1 {
		t.Errorf("dash = %v phase %v", gs.Dash, gs.DashPhase)
	}
	if gs.StrokeAlpha != 0.5 || gs.FillAlpha != 1 {
		t.Errorf("alpha = %v %v, want 0.5 1", gs.StrokeAlpha, gs.FillAlpha)
	}
}

// TestSetDashSolid tests dash patterns that mean solid lines
func TestSetDashSolid(t *testing.T) {
	gs := NewGraphicsState(model.Identity())
	for _, d := range [][]float64{nil, {0, 0}, {3, -1}} {
		gs.SetDash([]float64{1, 1}, 0)
		gs.SetDash(d, 2)
		if gs.Dash != nil || gs.DashPhase != 0 {
			t.Errorf("SetDash(%v) = %v, want solid", d, gs.Dash)
		}
	}
}

// TestPaintAlpha tests colour scaling by alpha
func TestPaintAlpha(t *testing.T) {
	p := Paint{Space: colorspace.DeviceRGB, Components: []float64{1, 0, 0}}
	c := p.RGBA(0.5)
	if c.R != 128 || c.A != 128 || c.G != 0 {
		t.Errorf("RGBA(0.5) = %v", c)
	}
	if p.Invisible() {
		t.Error("DeviceRGB paint reported invisible")
	}
}

// TestDeviceLineWidth tests the minimum device line width
func TestDeviceLineWidth(t *testing.T) {
	gs := NewGraphicsState(model.Scale(2, 2))
	gs.LineWidth = 0
	if w := gs.DeviceLineWidth(); w != 1 {
		t.Errorf("zero width = %f, want 1", w)
	}
	gs.LineWidth = 3
	if w := gs.DeviceLineWidth(); !near(w, 6) {
		t.Errorf("width = %f, want 6", w)
	}
}
