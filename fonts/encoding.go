package fonts

import (
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// standardEncoding is the Adobe standard encoding, the default for Type 1
// fonts without an Encoding entry.
var standardEncoding = [256]rune{
	0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, // 0x00-0x07
	0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, // 0x08-0x0F
	0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, // 0x10-0x17
	0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, // 0x18-0x1F
	0x0020, 0x0021, 0x0022, 0x0023, 0x0024, 0x0025, 0x0026, 0x2019, // 0x20-0x27 (space ! " # $ % & ')
	0x0028, 0x0029, 0x002A, 0x002B, 0x002C, 0x002D, 0x002E, 0x002F, // 0x28-0x2F ( ) * + , - . /
	0x0030, 0x0031, 0x0032, 0x0033, 0x0034, 0x0035, 0x0036, 0x0037, // 0x30-0x37 0-7
	0x0038, 0x0039, 0x003A, 0x003B, 0x003C, 0x003D, 0x003E, 0x003F, // 0x38-0x3F 8-9 : ; < = > ?
	0x0040, 0x0041, 0x0042, 0x0043, 0x0044, 0x0045, 0x0046, 0x0047, // 0x40-0x47 @ A-G
	0x0048, 0x0049, 0x004A, 0x004B, 0x004C, 0x004D, 0x004E, 0x004F, // 0x48-0x4F H-O
	0x0050, 0x0051, 0x0052, 0x0053, 0x0054, 0x0055, 0x0056, 0x0057, // 0x50-0x57 P-W
	0x0058, 0x0059, 0x005A, 0x005B, 0x005C, 0x005D, 0x005E, 0x005F, // 0x58-0x5F X-Z [ \ ] ^ _
	0x2018, 0x0061, 0x0062, 0x0063, 0x0064, 0x0065, 0x0066, 0x0067, // 0x60-0x67 ` a-g
	0x0068, 0x0069, 0x006A, 0x006B, 0x006C, 0x006D, 0x006E, 0x006F, // 0x68-0x6F h-o
	0x0070, 0x0071, 0x0072, 0x0073, 0x0074, 0x0075, 0x0076, 0x0077, // 0x70-0x77 p-w
	0x0078, 0x0079, 0x007A, 0x007B, 0x007C, 0x007D, 0x007E, 0x0000, // 0x78-0x7F x-z { | } ~
	0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, // 0x80-0x87
	0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, // 0x88-0x8F
	0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, // 0x90-0x97
	0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, // 0x98-0x9F
	0x0000, 0x00A1, 0x00A2, 0x00A3, 0x2044, 0x00A5, 0x0192, 0x00A7, // 0xA0-0xA7 ¡ ¢ £ ⁄ ¥ ƒ §
	0x00A4, 0x0027, 0x201C, 0x00AB, 0x2039, 0x203A, 0xFB01, 0xFB02, // 0xA8-0xAF ¤ ' " « ‹ › fi fl
	0x0000, 0x2013, 0x2020, 0x2021, 0x00B7, 0x0000, 0x00B6, 0x2022, // 0xB0-0xB7 – † ‡ · ¶ •
	0x201A, 0x201E, 0x201D, 0x00BB, 0x2026, 0x2030, 0x0000, 0x00BF, // 0xB8-0xBF ‚ „ " » … ‰ ¿
	0x0000, 0x0060, 0x00B4, 0x02C6, 0x02DC, 0x00AF, 0x02D8, 0x02D9, // 0xC0-0xC7 ` ´ ˆ ˜ ¯ ˘ ˙
	0x00A8, 0x0000, 0x02DA, 0x00B8, 0x0000, 0x02DD, 0x02DB, 0x02C7, // 0xC8-0xCF ¨ ˚ ¸ ˝ ˛ ˇ
	0x2014, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, // 0xD0-0xD7 —
	0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, // 0xD8-0xDF
	0x0000, 0x00C6, 0x0000, 0x00AA, 0x0000, 0x0000, 0x0000, 0x0000, // 0xE0-0xE7 Æ ª
	0x0141, 0x00D8, 0x0152, 0x00BA, 0x0000, 0x0000, 0x0000, 0x0000, // 0xE8-0xEF Ł Ø Œ º
	0x0000, 0x00E6, 0x0000, 0x0000, 0x0000, 0x0131, 0x0000, 0x0000, // 0xF0-0xF7 æ ı
	0x0142, 0x00F8, 0x0153, 0x00DF, 0x0000, 0x0000, 0x0000, 0x0000, // 0xF8-0xFF ł ø œ ß
}

// symbolEncoding is the built-in encoding of the Symbol font.
var symbolEncoding = [256]rune{
	0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, // 0x00-0x07
	0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, // 0x08-0x0F
	0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, // 0x10-0x17
	0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, // 0x18-0x1F
	0x0020, 0x0021, 0x2200, 0x0023, 0x2203, 0x0025, 0x0026, 0x220B, // 0x20-0x27 space ! ∀ # ∃ % & ∋
	0x0028, 0x0029, 0x2217, 0x002B, 0x002C, 0x2212, 0x002E, 0x002F, // 0x28-0x2F ( ) ∗ + , − . /
	0x0030, 0x0031, 0x0032, 0x0033, 0x0034, 0x0035, 0x0036, 0x0037, // 0x30-0x37 0-7
	0x0038, 0x0039, 0x003A, 0x003B, 0x003C, 0x003D, 0x003E, 0x003F, // 0x38-0x3F 8-9 : ; < = > ?
	0x2245, 0x0391, 0x0392, 0x03A7, 0x0394, 0x0395, 0x03A6, 0x0393, // 0x40-0x47 ≅ Α Β Χ Δ Ε Φ Γ
	0x0397, 0x0399, 0x03D1, 0x039A, 0x039B, 0x039C, 0x039D, 0x039F, // 0x48-0x4F Η Ι ϑ Κ Λ Μ Ν Ο
	0x03A0, 0x0398, 0x03A1, 0x03A3, 0x03A4, 0x03A5, 0x03C2, 0x03A9, // 0x50-0x57 Π Θ Ρ Σ Τ Υ ς Ω
	0x039E, 0x03A8, 0x0396, 0x005B, 0x2234, 0x005D, 0x22A5, 0x005F, // 0x58-0x5F Ξ Ψ Ζ [ ∴ ] ⊥ _
	0xF8E5, 0x03B1, 0x03B2, 0x03C7, 0x03B4, 0x03B5, 0x03C6, 0x03B3, // 0x60-0x67 α β χ δ ε φ γ
	0x03B7, 0x03B9, 0x03D5, 0x03BA, 0x03BB, 0x03BC, 0x03BD, 0x03BF, // 0x68-0x6F η ι ϕ κ λ μ ν ο
	0x03C0, 0x03B8, 0x03C1, 0x03C3, 0x03C4, 0x03C5, 0x03D6, 0x03C9, // 0x70-0x77 π θ ρ σ τ υ ϖ ω
	0x03BE, 0x03C8, 0x03B6, 0x007B, 0x007C, 0x007D, 0x223C, 0x0000, // 0x78-0x7F ξ ψ ζ { | } ∼
	0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, // 0x80-0x87
	0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, // 0x88-0x8F
	0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, // 0x90-0x97
	0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, // 0x98-0x9F
	0x20AC, 0x03D2, 0x2032, 0x2264, 0x2044, 0x221E, 0x0192, 0x2663, // 0xA0-0xA7 € ϒ ′ ≤ ⁄ ∞ ƒ ♣
	0x2666, 0x2665, 0x2660, 0x2194, 0x2190, 0x2191, 0x2192, 0x2193, // 0xA8-0xAF ♦ ♥ ♠ ↔ ← ↑ → ↓
	0x00B0, 0x00B1, 0x2033, 0x2265, 0x00D7, 0x221D, 0x2202, 0x2022, // 0xB0-0xB7 ° ± ″ ≥ × ∝ ∂ •
	0x00F7, 0x2260, 0x2261, 0x2248, 0x2026, 0x23D0, 0x23AF, 0x21B5, // 0xB8-0xBF ÷ ≠ ≡ ≈ … ⏐ ⎯ ↵
	0x2135, 0x2111, 0x211C, 0x2118, 0x2297, 0x2295, 0x2205, 0x2229, // 0xC0-0xC7 ℵ ℑ ℜ ℘ ⊗ ⊕ ∅ ∩
	0x222A, 0x2283, 0x2287, 0x2284, 0x2282, 0x2286, 0x2208, 0x2209, // 0xC8-0xCF ∪ ⊃ ⊇ ⊄ ⊂ ⊆ ∈ ∉
	0x2220, 0x2207, 0x00AE, 0x00A9, 0x2122, 0x220F, 0x221A, 0x22C5, // 0xD0-0xD7 ∠ ∇ ® © ™ ∏ √ ⋅
	0x00AC, 0x2227, 0x2228, 0x21D4, 0x21D0, 0x21D1, 0x21D2, 0x21D3, // 0xD8-0xDF ¬ ∧ ∨ ⇔ ⇐ ⇑ ⇒ ⇓
	0x25CA, 0x2329, 0x00AE, 0x00A9, 0x2122, 0x2211, 0x239B, 0x239C, // 0xE0-0xE7 ◊ 〈 ® © ™ ∑ ⎛ ⎜
	0x239D, 0x23A1, 0x23A2, 0x23A3, 0x23A7, 0x23A8, 0x23A9, 0x23AA, // 0xE8-0xEF ⎝ ⎡ ⎢ ⎣ ⎧ ⎨ ⎩ ⎪
	0x0000, 0x232A, 0x222B, 0x2320, 0x23AE, 0x2321, 0x239E, 0x239F, // 0xF0-0xF7 〉 ∫ ⌠ ⎮ ⌡ ⎞ ⎟
	0x23A0, 0x23A4, 0x23A5, 0x23A6, 0x23AB, 0x23AC, 0x23AD, 0x0000, // 0xF8-0xFF ⎠ ⎤ ⎥ ⎦ ⎫ ⎬ ⎭
}

// baseEncoding returns the code to Unicode table for a named base encoding,
// or false for an unknown name.
func baseEncoding(name string) ([256]rune, bool) {
	switch name {
	case "StandardEncoding":
		return standardEncoding, true
	case "WinAnsiEncoding":
		return charmapTable(charmap.Windows1252), true
	case "MacRomanEncoding":
		return charmapTable(charmap.Macintosh), true
	case "MacExpertEncoding":
		// Expert sets hold small caps and old-style figures; their plain
		// counterparts are close enough for rendering.
		return standardEncoding, true
	case "SymbolEncoding":
		return symbolEncoding, true
	}
	return [256]rune{}, false
}

func charmapTable(cm *charmap.Charmap) [256]rune {
	var t [256]rune
	for i := 32; i < 256; i++ {
		r := cm.DecodeByte(byte(i))
		if r != '�' {
			t[i] = r
		}
	}
	return t
}

// glyphNames maps common Adobe glyph names to Unicode. Single letters and
// the uniXXXX and uXXXX forms are handled by GlyphRune directly.
var glyphNames = map[string]rune{
	// Punctuation and symbols
	"space":          0x0020,
	"exclam":         0x0021,
	"quotedbl":       0x0022,
	"numbersign":     0x0023,
	"dollar":         0x0024,
	"percent":        0x0025,
	"ampersand":      0x0026,
	"quotesingle":    0x0027,
	"quoteright":     0x2019,
	"parenleft":      0x0028,
	"parenright":     0x0029,
	"asterisk":       0x002A,
	"plus":           0x002B,
	"comma":          0x002C,
	"hyphen":         0x002D,
	"period":         0x002E,
	"slash":          0x002F,
	"colon":          0x003A,
	"semicolon":      0x003B,
	"less":           0x003C,
	"equal":          0x003D,
	"greater":        0x003E,
	"question":       0x003F,
	"at":             0x0040,
	"bracketleft":    0x005B,
	"backslash":      0x005C,
	"bracketright":   0x005D,
	"asciicircum":    0x005E,
	"underscore":     0x005F,
	"grave":          0x0060,
	"quoteleft":      0x2018,
	"braceleft":      0x007B,
	"bar":            0x007C,
	"braceright":     0x007D,
	"asciitilde":     0x007E,
	"exclamdown":     0x00A1,
	"cent":           0x00A2,
	"sterling":       0x00A3,
	"fraction":       0x2044,
	"yen":            0x00A5,
	"florin":         0x0192,
	"section":        0x00A7,
	"currency":       0x00A4,
	"quotedblleft":   0x201C,
	"guillemotleft":  0x00AB,
	"guilsinglleft":  0x2039,
	"guilsinglright": 0x203A,
	"endash":         0x2013,
	"dagger":         0x2020,
	"daggerdbl":      0x2021,
	"periodcentered": 0x00B7,
	"paragraph":      0x00B6,
	"bullet":         0x2022,
	"quotesinglbase": 0x201A,
	"quotedblbase":   0x201E,
	"quotedblright":  0x201D,
	"guillemotright": 0x00BB,
	"ellipsis":       0x2026,
	"perthousand":    0x2030,
	"questiondown":   0x00BF,
	"acute":          0x00B4,
	"circumflex":     0x02C6,
	"tilde":          0x02DC,
	"macron":         0x00AF,
	"breve":          0x02D8,
	"dotaccent":      0x02D9,
	"dieresis":       0x00A8,
	"ring":           0x02DA,
	"cedilla":        0x00B8,
	"hungarumlaut":   0x02DD,
	"ogonek":         0x02DB,
	"caron":          0x02C7,
	"emdash":         0x2014,
	"ordfeminine":    0x00AA,
	"ordmasculine":   0x00BA,
	"copyright":      0x00A9,
	"registered":     0x00AE,
	"trademark":      0x2122,
	"degree":         0x00B0,
	"plusminus":      0x00B1,
	"multiply":       0x00D7,
	"divide":         0x00F7,
	"mu":             0x00B5,
	"onesuperior":    0x00B9,
	"twosuperior":    0x00B2,
	"threesuperior":  0x00B3,
	"onehalf":        0x00BD,
	"onequarter":     0x00BC,
	"threequarters":  0x00BE,
	"logicalnot":     0x00AC,
	"brokenbar":      0x00A6,
	"minus":          0x2212,
	"nbspace":        0x00A0,
	"Euro":           0x20AC,
	"dotlessi":       0x0131,
	"germandbls":     0x00DF,
	"arrowleft":      0x2190,
	"arrowup":        0x2191,
	"arrowright":     0x2192,
	"arrowdown":      0x2193,
	"arrowboth":      0x2194,
	"lozenge":        0x25CA,
	"infinity":       0x221E,
	"notequal":       0x2260,
	"lessequal":      0x2264,
	"greaterequal":   0x2265,
	"approxequal":    0x2248,
	"partialdiff":    0x2202,
	"summation":      0x2211,
	"product":        0x220F,
	"radical":        0x221A,
	"integral":       0x222B,
	"Delta":          0x2206,
	"Omega":          0x2126,
	"pi":             0x03C0,
	"filledbox":      0x25A0,
	"circle":         0x25CB,
	"H18533":         0x25CF,
	"openbullet":     0x25E6,
	"spade":          0x2660,
	"club":           0x2663,
	"heart":          0x2665,
	"diamond":        0x2666,
	"checkmark":      0x2713,

	// Digits
	"zero":  0x0030,
	"one":   0x0031,
	"two":   0x0032,
	"three": 0x0033,
	"four":  0x0034,
	"five":  0x0035,
	"six":   0x0036,
	"seven": 0x0037,
	"eight": 0x0038,
	"nine":  0x0039,

	// Ligatures
	"fi":  0xFB01,
	"fl":  0xFB02,
	"ff":  0xFB00,
	"ffi": 0xFB03,
	"ffl": 0xFB04,
	"AE":  0x00C6,
	"ae":  0x00E6,
	"OE":  0x0152,
	"oe":  0x0153,
	"IJ":  0x0132,
	"ij":  0x0133,

	// Accented letters
	"Aacute":      0x00C1,
	"Acircumflex": 0x00C2,
	"Adieresis":   0x00C4,
	"Agrave":      0x00C0,
	"Aring":       0x00C5,
	"Atilde":      0x00C3,
	"Ccedilla":    0x00C7,
	"Eacute":      0x00C9,
	"Ecircumflex": 0x00CA,
	"Edieresis":   0x00CB,
	"Egrave":      0x00C8,
	"Eth":         0x00D0,
	"Iacute":      0x00CD,
	"Icircumflex": 0x00CE,
	"Idieresis":   0x00CF,
	"Igrave":      0x00CC,
	"Lslash":      0x0141,
	"Ntilde":      0x00D1,
	"Oacute":      0x00D3,
	"Ocircumflex": 0x00D4,
	"Odieresis":   0x00D6,
	"Ograve":      0x00D2,
	"Oslash":      0x00D8,
	"Otilde":      0x00D5,
	"Scaron":      0x0160,
	"Thorn":       0x00DE,
	"Uacute":      0x00DA,
	"Ucircumflex": 0x00DB,
	"Udieresis":   0x00DC,
	"Ugrave":      0x00D9,
	"Yacute":      0x00DD,
	"Ydieresis":   0x0178,
	"Zcaron":      0x017D,
	"aacute":      0x00E1,
	"acircumflex": 0x00E2,
	"adieresis":   0x00E4,
	"agrave":      0x00E0,
	"aring":       0x00E5,
	"atilde":      0x00E3,
	"ccedilla":    0x00E7,
	"eacute":      0x00E9,
	"ecircumflex": 0x00EA,
	"edieresis":   0x00EB,
	"egrave":      0x00E8,
	"eth":         0x00F0,
	"iacute":      0x00ED,
	"icircumflex": 0x00EE,
	"idieresis":   0x00EF,
	"igrave":      0x00EC,
	"lslash":      0x0142,
	"ntilde":      0x00F1,
	"oacute":      0x00F3,
	"ocircumflex": 0x00F4,
	"odieresis":   0x00F6,
	"ograve":      0x00F2,
	"oslash":      0x00F8,
	"otilde":      0x00F5,
	"scaron":      0x0161,
	"thorn":       0x00FE,
	"uacute":      0x00FA,
	"ucircumflex": 0x00FB,
	"udieresis":   0x00FC,
	"ugrave":      0x00F9,
	"yacute":      0x00FD,
	"ydieresis":   0x00FF,
	"zcaron":      0x017E,

	// Greek
	"Alpha":   0x0391,
	"Beta":    0x0392,
	"Gamma":   0x0393,
	"Epsilon": 0x0395,
	"Zeta":    0x0396,
	"Eta":     0x0397,
	"Theta":   0x0398,
	"Iota":    0x0399,
	"Kappa":   0x039A,
	"Lambda":  0x039B,
	"Mu":      0x039C,
	"Nu":      0x039D,
	"Xi":      0x039E,
	"Omicron": 0x039F,
	"Pi":      0x03A0,
	"Rho":     0x03A1,
	"Sigma":   0x03A3,
	"Tau":     0x03A4,
	"Upsilon": 0x03A5,
	"Phi":     0x03A6,
	"Chi":     0x03A7,
	"Psi":     0x03A8,
	"alpha":   0x03B1,
	"beta":    0x03B2,
	"gamma":   0x03B3,
	"delta":   0x03B4,
	"epsilon": 0x03B5,
	"zeta":    0x03B6,
	"eta":     0x03B7,
	"theta":   0x03B8,
	"iota":    0x03B9,
	"kappa":   0x03BA,
	"lambda":  0x03BB,
	"nu":      0x03BD,
	"xi":      0x03BE,
	"omicron": 0x03BF,
	"rho":     0x03C1,
	"sigma":   0x03C3,
	"sigma1":  0x03C2,
	"tau":     0x03C4,
	"upsilon": 0x03C5,
	"phi":     0x03C6,
	"chi":     0x03C7,
	"psi":     0x03C8,
	"omega":   0x03C9,
}

// GlyphRune maps a glyph name to Unicode. Suffixes such as ".sc" are
// dropped and ligature names like "f_i" map to their first component.
func GlyphRune(name string) (rune, bool) {
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	if i := strings.IndexByte(name, '_'); i > 0 {
		name = name[:i]
	}
	if r, ok := glyphNames[name]; ok {
		return r, true
	}
	if len(name) == 1 && (name[0] >= 'A' && name[0] <= 'Z' || name[0] >= 'a' && name[0] <= 'z') {
		return rune(name[0]), true
	}
	if strings.HasPrefix(name, "uni") && len(name) >= 7 {
		if v, err := strconv.ParseUint(name[3:7], 16, 32); err == nil {
			return rune(v), true
		}
	}
	if strings.HasPrefix(name, "u") && len(name) >= 5 && len(name) <= 7 {
		if v, err := strconv.ParseUint(name[1:], 16, 32); err == nil && v <= 0x10FFFF {
			return rune(v), true
		}
	}
	return 0, false
}
