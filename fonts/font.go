package fonts

import (
	"fmt"
	"strings"

	"github.com/sbkohel/pdf-dedupe/core"
	"github.com/sbkohel/pdf-dedupe/model"
	"golang.org/x/image/font/sfnt"
)

// Kind classifies how a font's glyphs are produced.
type Kind int

const (
	// Simple fonts (Type1, MMType1, TrueType) use one byte per glyph.
	Simple Kind = iota
	// Composite fonts (Type0) select CIDs through an encoding CMap.
	Composite
	// Type3 fonts draw glyphs with content streams.
	Type3
)

// Font descriptor flags.
const (
	flagFixedPitch = 1 << 0
	flagSymbolic   = 1 << 2
	flagItalic     = 1 << 6
	flagForceBold  = 1 << 18
)

// Font is a PDF font resource prepared for drawing. A Font keeps a glyph
// buffer and is not safe for concurrent use.
type Font struct {
	Name     string
	BaseFont string
	Subtype  string
	Kind     Kind
	Vertical bool

	flags int

	// Simple and Type3 fonts
	firstChar    int
	widths       []float64
	missingWidth float64
	unicode      [256]rune
	names        [256]string

	// Composite fonts
	encoding     *CMap
	cidSubtype   string
	defaultWidth float64
	cidWidths    []cidWidth
	cidToGID     []uint16
	vertOrigin   float64
	vertAdvance  float64

	toUnicode *CMap

	face     *sfnt.Font
	embedded bool
	buf      sfnt.Buffer
	byName   map[string]sfnt.GlyphIndex

	// Type3 fonts
	charProcs  core.Dict
	fontMatrix model.Matrix
	resources  core.Dict
	res        core.Resolver
}

type cidWidth struct {
	first, last uint32
	widths      []float64
	width       float64
}

// Glyph is one decoded character code.
type Glyph struct {
	Code    uint32
	CodeLen int
	CID     uint32
	// Width is the horizontal displacement in text space units for a font
	// size of 1.
	Width float64
	// Space marks the single-byte code 32, the only code that takes word
	// spacing.
	Space bool
	Text  string
}

// Load prepares the font dictionary registered under name in a page's
// resources.
func Load(dict core.Dict, name string, res core.Resolver) (*Font, error) {
	subtype, _ := dict.GetName("Subtype")
	base, _ := dict.GetName("BaseFont")
	f := &Font{
		Name:       name,
		BaseFont:   stripSubset(string(base)),
		Subtype:    string(subtype),
		fontMatrix: model.Identity(),
		res:        res,
	}

	if tu, ok := resolve(res, dict.Get("ToUnicode")).(*core.Stream); ok {
		if data, err := tu.Decode(); err == nil {
			if cm, err := ParseCMap(data); err == nil && !cm.Empty() {
				f.toUnicode = cm
			}
		}
	}

	var err error
	switch subtype {
	case "Type0":
		f.Kind = Composite
		err = f.loadComposite(dict, res)
	case "Type3":
		f.Kind = Type3
		err = f.loadType3(dict, res)
	default:
		f.Kind = Simple
		err = f.loadSimple(dict, res)
	}
	if err != nil {
		return nil, fmt.Errorf("font %s: %w", name, err)
	}
	return f, nil
}

// stripSubset removes the "ABCDEF+" subset tag from a base font name.
func stripSubset(name string) string {
	if len(name) > 7 && name[6] == '+' {
		for i := 0; i < 6; i++ {
			if name[i] < 'A' || name[i] > 'Z' {
				return name
			}
		}
		return name[7:]
	}
	return name
}

func (f *Font) loadSimple(dict core.Dict, res core.Resolver) error {
	f.loadWidths(dict, res, 0.001)

	fd, _ := resolve(res, dict.Get("FontDescriptor")).(core.Dict)
	if fd != nil {
		f.flags, _ = fd.GetInt("Flags")
		if mw, ok := fd.GetNumber("MissingWidth"); ok {
			f.missingWidth = mw / 1000
		}
		f.face, f.embedded = loadEmbedded(fd, res)
	}

	var base [256]rune
	switch {
	case f.BaseFont == "Symbol":
		base = symbolEncoding
	case f.BaseFont == "ZapfDingbats":
	case f.Subtype == "TrueType" && f.flags&flagSymbolic == 0:
		base, _ = baseEncoding("WinAnsiEncoding")
	case f.Subtype == "TrueType":
	default:
		base = standardEncoding
	}
	f.applyEncoding(resolve(res, dict.Get("Encoding")), base, res)

	if f.face == nil {
		f.face = fallbackFace(f.BaseFont, f.flags)
	}
	return nil
}

// loadWidths reads FirstChar and Widths, scaling entries by scale.
func (f *Font) loadWidths(dict core.Dict, res core.Resolver, scale float64) {
	f.firstChar, _ = dict.GetInt("FirstChar")
	arr, ok := resolve(res, dict.Get("Widths")).(core.Array)
	if !ok {
		return
	}
	f.widths = make([]float64, len(arr))
	for i, w := range arr {
		v, _ := core.Number(resolve(res, w))
		f.widths[i] = v * scale
	}
}

// applyEncoding fills the code tables from an Encoding entry: a base
// encoding name, or a dictionary with BaseEncoding and Differences.
func (f *Font) applyEncoding(enc core.Object, base [256]rune, res core.Resolver) {
	f.unicode = base
	switch v := enc.(type) {
	case core.Name:
		if t, ok := baseEncoding(string(v)); ok {
			f.unicode = t
		}
	case core.Dict:
		if name, ok := v.GetName("BaseEncoding"); ok {
			if t, ok := baseEncoding(string(name)); ok {
				f.unicode = t
			}
		}
		diffs, _ := resolve(res, v.Get("Differences")).(core.Array)
		code := 0
		for _, item := range diffs {
			switch d := item.(type) {
			case core.Int:
				code = int(d)
			case core.Real:
				code = int(d)
			case core.Name:
				if code >= 0 && code < 256 {
					f.names[code] = string(d)
					if r, ok := GlyphRune(string(d)); ok {
						f.unicode[code] = r
					}
				}
				code++
			}
		}
	}
}

func (f *Font) loadComposite(dict core.Dict, res core.Resolver) error {
	switch enc := resolve(res, dict.Get("Encoding")).(type) {
	case core.Name:
		f.encoding, _ = PredefinedCMap(string(enc))
	case *core.Stream:
		data, err := enc.Decode()
		if err != nil {
			return fmt.Errorf("encoding cmap: %w", err)
		}
		if f.encoding, err = ParseCMap(data); err != nil {
			return err
		}
		if v, ok := enc.Dict.GetInt("WMode"); ok && v == 1 {
			f.encoding.Vertical = true
		}
	default:
		f.encoding, _ = PredefinedCMap("Identity-H")
	}
	f.Vertical = f.encoding.Vertical

	descendants, _ := resolve(res, dict.Get("DescendantFonts")).(core.Array)
	if len(descendants) == 0 {
		return fmt.Errorf("no descendant font")
	}
	cid, ok := resolve(res, descendants[0]).(core.Dict)
	if !ok {
		return fmt.Errorf("descendant font is not a dictionary")
	}
	sub, _ := cid.GetName("Subtype")
	f.cidSubtype = string(sub)

	f.defaultWidth = 1
	if dw, ok := cid.GetNumber("DW"); ok {
		f.defaultWidth = dw / 1000
	}
	f.parseW(resolve(res, cid.Get("W")), res)

	f.vertOrigin, f.vertAdvance = 0.88, -1
	if dw2, ok := resolve(res, cid.Get("DW2")).(core.Array); ok && len(dw2) == 2 {
		if v, ok := core.Number(dw2[0]); ok {
			f.vertOrigin = v / 1000
		}
		if v, ok := core.Number(dw2[1]); ok {
			f.vertAdvance = v / 1000
		}
	}

	if m, ok := resolve(res, cid.Get("CIDToGIDMap")).(*core.Stream); ok {
		if data, err := m.Decode(); err == nil {
			f.cidToGID = make([]uint16, len(data)/2)
			for i := range f.cidToGID {
				f.cidToGID[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
			}
		}
	}

	if fd, ok := resolve(res, cid.Get("FontDescriptor")).(core.Dict); ok {
		f.flags, _ = fd.GetInt("Flags")
		f.face, f.embedded = loadEmbedded(fd, res)
	}
	if f.face == nil {
		f.face = fallbackFace(f.BaseFont, f.flags)
	}
	return nil
}

// parseW reads a CIDFont W array: "c [w1 w2 ...]" and "cfirst clast w"
// entries in any mix.
func (f *Font) parseW(obj core.Object, res core.Resolver) {
	arr, ok := obj.(core.Array)
	if !ok {
		return
	}
	for i := 0; i+1 < len(arr); {
		first, ok := core.Number(resolve(res, arr[i]))
		if !ok {
			i++
			continue
		}
		if list, ok := resolve(res, arr[i+1]).(core.Array); ok {
			cw := cidWidth{first: uint32(first), last: uint32(first) + uint32(len(list)) - 1}
			for _, w := range list {
				v, _ := core.Number(resolve(res, w))
				cw.widths = append(cw.widths, v/1000)
			}
			if len(list) > 0 {
				f.cidWidths = append(f.cidWidths, cw)
			}
			i += 2
			continue
		}
		if i+2 >= len(arr) {
			return
		}
		last, _ := core.Number(resolve(res, arr[i+1]))
		w, _ := core.Number(resolve(res, arr[i+2]))
		f.cidWidths = append(f.cidWidths, cidWidth{first: uint32(first), last: uint32(last), width: w / 1000})
		i += 3
	}
}

func (f *Font) loadType3(dict core.Dict, res core.Resolver) error {
	f.fontMatrix = model.Matrix{0.001, 0, 0, 0.001, 0, 0}
	if m, ok := resolve(res, dict.Get("FontMatrix")).(core.Array); ok && len(m) == 6 {
		if v, ok := m.Floats(); ok {
			copy(f.fontMatrix[:], v)
		}
	}
	procs, ok := resolve(res, dict.Get("CharProcs")).(core.Dict)
	if !ok {
		return fmt.Errorf("type3 font without CharProcs")
	}
	f.charProcs = procs
	f.resources, _ = resolve(res, dict.Get("Resources")).(core.Dict)
	f.loadWidths(dict, res, f.fontMatrix[0])
	f.applyEncoding(resolve(res, dict.Get("Encoding")), [256]rune{}, res)
	return nil
}

// Decode splits a shown string into glyphs.
func (f *Font) Decode(s []byte) []Glyph {
	var out []Glyph
	if f.Kind == Composite {
		for len(s) > 0 {
			code, n := f.encoding.Next(s)
			cid := f.encoding.CID(code, n)
			g := Glyph{Code: code, CodeLen: n, CID: cid, Width: f.cidWidth(cid), Space: n == 1 && code == 32}
			g.Text = f.text(code)
			out = append(out, g)
			s = s[n:]
		}
		return out
	}
	for _, b := range s {
		code := uint32(b)
		out = append(out, Glyph{
			Code:    code,
			CodeLen: 1,
			CID:     code,
			Width:   f.simpleWidth(code),
			Space:   code == 32,
			Text:    f.text(code),
		})
	}
	return out
}

func (f *Font) text(code uint32) string {
	if f.toUnicode != nil {
		if s, ok := f.toUnicode.Unicode(code); ok {
			return s
		}
	}
	if f.Kind == Composite {
		if s, ok := f.encoding.Unicode(code); ok {
			return s
		}
		return ""
	}
	if r := f.unicode[code&0xff]; r != 0 {
		return string(r)
	}
	return ""
}

func (f *Font) simpleWidth(code uint32) float64 {
	i := int(code) - f.firstChar
	if i >= 0 && i < len(f.widths) {
		return f.widths[i]
	}
	if f.widths != nil || f.Kind == Type3 {
		return f.missingWidth
	}
	if gid, ok := f.simpleGlyph(code); ok {
		return f.advance(gid)
	}
	return f.missingWidth
}

func (f *Font) cidWidth(cid uint32) float64 {
	for _, w := range f.cidWidths {
		if cid < w.first || cid > w.last {
			continue
		}
		if w.widths != nil {
			return w.widths[cid-w.first]
		}
		return w.width
	}
	return f.defaultWidth
}

// VerticalMetrics returns the position vector's vertical component and the
// vertical displacement, both in text space units for a font size of 1.
func (f *Font) VerticalMetrics() (origin, advance float64) {
	return f.vertOrigin, f.vertAdvance
}

// Embedded reports whether glyph outlines come from the PDF itself. Fonts
// without a usable program draw with a bundled fallback face.
func (f *Font) Embedded() bool { return f.embedded }

// CharProc returns the Type3 glyph procedure for a code.
func (f *Font) CharProc(code uint32) (*core.Stream, bool) {
	if f.Kind != Type3 || code > 255 || f.names[code] == "" {
		return nil, false
	}
	s, ok := resolve(f.res, f.charProcs.Get(f.names[code])).(*core.Stream)
	return s, ok
}

// Resources returns the Type3 font's own resources, nil when absent.
func (f *Font) Resources() core.Dict { return f.resources }

// FontMatrix maps glyph space to text space; identity except for Type3.
func (f *Font) FontMatrix() model.Matrix { return f.fontMatrix }

func resolve(res core.Resolver, obj core.Object) core.Object {
	if obj == nil || res == nil {
		return obj
	}
	v, err := res.Resolve(obj)
	if err != nil {
		return nil
	}
	return v
}

// styleOf picks bold, italic and monospace from the name and flags.
func styleOf(base string, flags int) (bold, italic, mono bool) {
	name := strings.ToLower(base)
	bold = flags&flagForceBold != 0 || strings.Contains(name, "bold") ||
		strings.Contains(name, "black") || strings.Contains(name, "heavy")
	italic = flags&flagItalic != 0 || strings.Contains(name, "italic") || strings.Contains(name, "oblique")
	mono = flags&flagFixedPitch != 0 || strings.Contains(name, "courier") || strings.Contains(name, "mono")
	return bold, italic, mono
}
