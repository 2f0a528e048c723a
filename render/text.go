package render

import (
	"github.com/sbkohel/pdf-dedupe/core"
	"github.com/sbkohel/pdf-dedupe/fonts"
	"github.com/sbkohel/pdf-dedupe/graphicsstate"
	"github.com/sbkohel/pdf-dedupe/model"
)

// currentFont returns the font selected by Tf, loading it from the
// frame's resources on first use.
func (r *renderer) currentFont(f *frame) *fonts.Font {
	name := f.gs.Text.FontName
	if name == "" {
		return nil
	}
	if f.fontName == name {
		return f.font
	}
	f.fontName = name
	f.font = r.loadFont(f.res, name)
	return f.font
}

// loadFont loads a font resource. Fonts stored as indirect objects are
// shared across content streams; failures are remembered as nil.
func (r *renderer) loadFont(res core.Dict, name string) *fonts.Font {
	cat, ok := r.resolve(res.Get("Font")).(core.Dict)
	if !ok {
		return nil
	}
	ref, isRef := cat.Get(name).(core.IndirectRef)
	if isRef {
		if ft, ok := r.fonts[ref]; ok {
			return ft
		}
	}
	var ft *fonts.Font
	if d, ok := r.resolve(cat.Get(name)).(core.Dict); ok {
		loaded, err := fonts.Load(d, name, r.doc)
		if err != nil {
			r.log.Debug("font not loaded", "font", name, "error", err)
		} else {
			ft = loaded
		}
	}
	if isRef {
		r.fonts[ref] = ft
	}
	return ft
}

// showText paints a string and advances the text position.
func (r *renderer) showText(f *frame, s []byte) error {
	font := r.currentFont(f)
	if font == nil {
		return nil
	}
	gs := f.gs
	for _, g := range font.Decode(s) {
		if err := r.drawGlyph(f, font, g); err != nil {
			return err
		}
		if font.Vertical {
			_, adv := font.VerticalMetrics()
			gs.AdvanceVertical(adv, g.Space)
		} else {
			gs.Advance(g.Width, g.Space)
		}
	}
	return nil
}

// showTextArray handles TJ: strings interleaved with kerning adjustments.
func (r *renderer) showTextArray(f *frame, arr core.Array) error {
	vertical := false
	if font := r.currentFont(f); font != nil {
		vertical = font.Vertical
	}
	for _, el := range arr {
		switch v := el.(type) {
		case core.String:
			if err := r.showText(f, []byte(v)); err != nil {
				return err
			}
		case core.Int, core.Real:
			adj, _ := core.Number(v)
			f.gs.Kern(adj, vertical)
		}
	}
	return nil
}

func (r *renderer) drawGlyph(f *frame, font *fonts.Font, g fonts.Glyph) error {
	gs := f.gs
	t := gs.Text
	if !t.Fills() && !t.Strokes() && !t.Clips() {
		return nil
	}
	if font.Kind == fonts.Type3 {
		return r.drawType3(f, font, g)
	}
	path := r.glyphPath(font, g)
	if path == nil {
		return nil
	}
	m := gs.GlyphMatrix()
	if font.Vertical {
		origin, _ := font.VerticalMetrics()
		m = model.Translate(-g.Width/2, -origin).Multiply(m)
	}
	subpaths := path.Flatten(m, 0.25)
	if t.Fills() && !gs.Fill.Invisible() {
		r.canvas.fill(gs, subpaths, false, gs.Fill.RGBA(gs.FillAlpha))
	}
	if t.Strokes() && !gs.Stroke.Invisible() {
		polys := graphicsstate.Outline(subpaths, gs.StrokeStyle())
		r.canvas.fillPolygons(gs, polys, gs.Stroke.RGBA(gs.StrokeAlpha))
	}
	if t.Clips() {
		f.textClip = append(f.textClip, subpaths...)
	}
	return nil
}

func (r *renderer) glyphPath(font *fonts.Font, g fonts.Glyph) *graphicsstate.Path {
	cache := r.glyphs[font]
	if cache == nil {
		cache = make(map[uint32]*graphicsstate.Path)
		r.glyphs[font] = cache
	}
	if p, ok := cache[g.Code]; ok {
		return p
	}
	p, ok := font.Outline(g)
	if !ok {
		p = nil
	}
	cache[g.Code] = p
	return p
}

// drawType3 runs a Type3 glyph procedure in glyph space.
func (r *renderer) drawType3(f *frame, font *fonts.Font, g fonts.Glyph) error {
	if f.depth >= maxFormDepth {
		return nil
	}
	proc, ok := font.CharProc(g.Code)
	if !ok {
		return nil
	}
	data, err := proc.Decode()
	if err != nil {
		r.log.Debug("glyph procedure undecodable", "font", font.Name, "error", err)
		return nil
	}
	res := font.Resources()
	if res == nil {
		res = f.res
	}
	gs := f.gs
	m := font.FontMatrix().Multiply(gs.GlyphMatrix())
	gs.Save()
	defer gs.Restore()
	gs.CTM = m
	return r.run(data, res, gs, f.depth+1)
}
