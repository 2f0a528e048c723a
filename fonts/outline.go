package fonts

import (
	"sync"

	"github.com/sbkohel/pdf-dedupe/core"
	"github.com/sbkohel/pdf-dedupe/graphicsstate"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// emScale is the ppem used when loading outlines, so that one em is 1000
// units before the final division.
const emScale = 1000

// loadEmbedded parses the font program referenced by a font descriptor.
// Only TrueType and OpenType programs are readable by sfnt; bare Type 1
// and CFF programs report no face.
func loadEmbedded(fd core.Dict, res core.Resolver) (*sfnt.Font, bool) {
	for _, key := range []string{"FontFile2", "FontFile3"} {
		stm, ok := resolve(res, fd.Get(key)).(*core.Stream)
		if !ok {
			continue
		}
		if key == "FontFile3" {
			if sub, _ := stm.Dict.GetName("Subtype"); sub != "OpenType" {
				return nil, false
			}
		}
		data, err := stm.Decode()
		if err != nil {
			return nil, false
		}
		face, err := sfnt.Parse(data)
		if err != nil {
			return nil, false
		}
		return face, true
	}
	return nil, false
}

type fallbackKey struct {
	bold, italic, mono bool
}

var fallbackTTF = []struct {
	key fallbackKey
	ttf []byte
}{
	{fallbackKey{}, goregular.TTF},
	{fallbackKey{bold: true}, gobold.TTF},
	{fallbackKey{italic: true}, goitalic.TTF},
	{fallbackKey{bold: true, italic: true}, gobolditalic.TTF},
	{fallbackKey{mono: true}, gomono.TTF},
	{fallbackKey{bold: true, mono: true}, gomonobold.TTF},
	{fallbackKey{italic: true, mono: true}, gomonoitalic.TTF},
	{fallbackKey{bold: true, italic: true, mono: true}, gomonobolditalic.TTF},
}

var (
	fallbackOnce  sync.Once
	fallbackFaces map[fallbackKey]*sfnt.Font
)

// fallbackFace returns the bundled Go font closest in style to base.
func fallbackFace(base string, flags int) *sfnt.Font {
	fallbackOnce.Do(func() {
		fallbackFaces = make(map[fallbackKey]*sfnt.Font)
		for _, fb := range fallbackTTF {
			if face, err := sfnt.Parse(fb.ttf); err == nil {
				fallbackFaces[fb.key] = face
			}
		}
	})
	bold, italic, mono := styleOf(base, flags)
	if face := fallbackFaces[fallbackKey{bold, italic, mono}]; face != nil {
		return face
	}
	return fallbackFaces[fallbackKey{}]
}

// glyphIndex picks the face glyph for g; ok is false for glyphs the face
// does not have.
func (f *Font) glyphIndex(g Glyph) (sfnt.GlyphIndex, bool) {
	if f.face == nil {
		return 0, false
	}
	if f.Kind == Composite {
		if f.embedded {
			cid := g.CID
			if f.cidToGID != nil {
				if int(cid) >= len(f.cidToGID) {
					return 0, false
				}
				return sfnt.GlyphIndex(f.cidToGID[cid]), f.cidToGID[cid] != 0
			}
			return sfnt.GlyphIndex(cid), cid != 0 && int(cid) < f.face.NumGlyphs()
		}
		return f.runeGlyph(firstRune(g.Text))
	}
	return f.simpleGlyph(g.Code)
}

func (f *Font) simpleGlyph(code uint32) (sfnt.GlyphIndex, bool) {
	if f.face == nil || code > 255 {
		return 0, false
	}
	if f.embedded {
		if name := f.names[code]; name != "" {
			if gid, ok := f.glyphByName(name); ok {
				return gid, true
			}
		}
		if f.flags&flagSymbolic != 0 || f.unicode[code] == 0 {
			if gid, ok := f.runeGlyph(rune(0xF000 + code)); ok {
				return gid, true
			}
			if gid, ok := f.runeGlyph(rune(code)); ok {
				return gid, true
			}
		}
	}
	r := f.unicode[code]
	if r == 0 {
		if s := f.text(code); s != "" {
			r = firstRune(s)
		} else {
			r = rune(code)
		}
	}
	return f.runeGlyph(r)
}

func (f *Font) runeGlyph(r rune) (sfnt.GlyphIndex, bool) {
	if r == 0 {
		return 0, false
	}
	gid, err := f.face.GlyphIndex(&f.buf, r)
	if err != nil || gid == 0 {
		return 0, false
	}
	return gid, true
}

// glyphByName finds a glyph through the face's post table names.
func (f *Font) glyphByName(name string) (sfnt.GlyphIndex, bool) {
	if f.byName == nil {
		f.byName = make(map[string]sfnt.GlyphIndex)
		for i := 0; i < f.face.NumGlyphs(); i++ {
			n, err := f.face.GlyphName(&f.buf, sfnt.GlyphIndex(i))
			if err != nil {
				break
			}
			if n != "" {
				f.byName[n] = sfnt.GlyphIndex(i)
			}
		}
	}
	gid, ok := f.byName[name]
	return gid, ok
}

func (f *Font) advance(gid sfnt.GlyphIndex) float64 {
	adv, err := f.face.GlyphAdvance(&f.buf, gid, fixed.I(emScale), font.HintingNone)
	if err != nil {
		return 0
	}
	return float64(adv) / 64 / emScale
}

// Outline returns the glyph outline in glyph space with one unit per em
// and y pointing up. ok is false when the font has no outline for g, as
// for Type3 fonts and glyphs missing from the face.
func (f *Font) Outline(g Glyph) (*graphicsstate.Path, bool) {
	gid, ok := f.glyphIndex(g)
	if !ok {
		return nil, false
	}
	segs, err := f.face.LoadGlyph(&f.buf, gid, fixed.I(emScale), nil)
	if err != nil || len(segs) == 0 {
		return nil, false
	}
	const scale = 64 * emScale
	pt := func(p fixed.Point26_6) (float64, float64) {
		return float64(p.X) / scale, -float64(p.Y) / scale
	}
	path := graphicsstate.NewPath()
	for i, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if i > 0 {
				path.ClosePath()
			}
			x, y := pt(seg.Args[0])
			path.MoveTo(x, y)
		case sfnt.SegmentOpLineTo:
			x, y := pt(seg.Args[0])
			path.LineTo(x, y)
		case sfnt.SegmentOpQuadTo:
			qx, qy := pt(seg.Args[0])
			x, y := pt(seg.Args[1])
			cur := path.CurrentPoint
			path.CurveTo(
				cur.X+2.0/3*(qx-cur.X), cur.Y+2.0/3*(qy-cur.Y),
				x+2.0/3*(qx-x), y+2.0/3*(qy-y),
				x, y,
			)
		case sfnt.SegmentOpCubeTo:
			x1, y1 := pt(seg.Args[0])
			x2, y2 := pt(seg.Args[1])
			x, y := pt(seg.Args[2])
			path.CurveTo(x1, y1, x2, y2, x, y)
		}
	}
	path.ClosePath()
	return path, true
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}
