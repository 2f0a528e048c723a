package fonts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sbkohel/pdf-dedupe/core"
	"golang.org/x/text/encoding/unicode"
)

// CMap maps byte sequences in a shown string to character codes, CIDs and
// Unicode text. One type serves both encoding CMaps and ToUnicode CMaps.
type CMap struct {
	Name     string
	Vertical bool

	codespace []codespaceRange
	cids      []cidRange
	bfChars   map[uint32]string
	bfRanges  []bfRange

	// identity maps two-byte codes to the same CID.
	identity bool
	// unicodeCodes marks predefined UCS-2 and UTF-16 CMaps whose codes are
	// Unicode values.
	unicodeCodes bool
}

type codespaceRange struct {
	lo, hi []byte
}

type cidRange struct {
	lo, hi uint32
	n      int
	cid    uint32
}

type bfRange struct {
	lo, hi uint32
	dst    []rune
	list   []string
}

// PredefinedCMap returns the CMap for a name used as a Type0 Encoding.
// Identity and the Unicode-keyed CMaps are modelled; other registered
// CMaps fall back to Identity with ok set to false.
func PredefinedCMap(name string) (cm *CMap, ok bool) {
	cm = &CMap{
		Name:      name,
		Vertical:  strings.HasSuffix(name, "-V"),
		codespace: []codespaceRange{{lo: []byte{0, 0}, hi: []byte{0xff, 0xff}}},
		identity:  true,
	}
	switch {
	case name == "Identity-H" || name == "Identity-V":
		return cm, true
	case strings.Contains(name, "UCS2") || strings.Contains(name, "UTF16"):
		cm.unicodeCodes = true
		return cm, true
	}
	return cm, false
}

// ParseCMap parses a CMap program. Unknown operators are skipped, so
// partially broken CMaps yield whatever mappings could be read.
func ParseCMap(data []byte) (*CMap, error) {
	cm := &CMap{bfChars: make(map[uint32]string)}
	p := core.NewParser(data)
	var operands []core.Object
	for {
		before := p.Pos()
		obj, err := p.ParseObject()
		if errors.Is(err, core.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			if p.Pos() > before {
				operands = nil
				continue
			}
			return cm, fmt.Errorf("cmap: %w", err)
		}
		kw, isKeyword := obj.(core.Keyword)
		if !isKeyword {
			operands = append(operands, obj)
			continue
		}
		switch kw {
		case "endcodespacerange":
			for i := 0; i+1 < len(operands); i += 2 {
				lo, ok1 := operands[i].(core.String)
				hi, ok2 := operands[i+1].(core.String)
				if ok1 && ok2 && len(lo) == len(hi) && len(lo) > 0 && len(lo) <= 4 {
					cm.codespace = append(cm.codespace, codespaceRange{lo: []byte(lo), hi: []byte(hi)})
				}
			}
		case "endcidrange":
			for i := 0; i+2 < len(operands); i += 3 {
				lo, ok1 := operands[i].(core.String)
				hi, ok2 := operands[i+1].(core.String)
				cid, ok3 := core.Number(operands[i+2])
				if ok1 && ok2 && ok3 {
					cm.cids = append(cm.cids, cidRange{lo: codeValue(lo), hi: codeValue(hi), n: len(lo), cid: uint32(cid)})
				}
			}
		case "endcidchar":
			for i := 0; i+1 < len(operands); i += 2 {
				code, ok1 := operands[i].(core.String)
				cid, ok2 := core.Number(operands[i+1])
				if ok1 && ok2 {
					c := codeValue(code)
					cm.cids = append(cm.cids, cidRange{lo: c, hi: c, n: len(code), cid: uint32(cid)})
				}
			}
		case "endbfchar":
			for i := 0; i+1 < len(operands); i += 2 {
				code, ok := operands[i].(core.String)
				if !ok {
					continue
				}
				if s, ok := bfString(operands[i+1]); ok {
					cm.bfChars[codeValue(code)] = s
				}
			}
		case "endbfrange":
			for i := 0; i+2 < len(operands); i += 3 {
				lo, ok1 := operands[i].(core.String)
				hi, ok2 := operands[i+1].(core.String)
				if !ok1 || !ok2 {
					continue
				}
				r := bfRange{lo: codeValue(lo), hi: codeValue(hi)}
				switch dst := operands[i+2].(type) {
				case core.String:
					r.dst = []rune(utf16String(dst))
				case core.Array:
					for _, item := range dst {
						s, _ := bfString(item)
						r.list = append(r.list, s)
					}
				}
				if r.hi >= r.lo && (len(r.dst) > 0 || len(r.list) > 0) {
					cm.bfRanges = append(cm.bfRanges, r)
				}
			}
		case "usecmap":
			if len(operands) > 0 {
				if name, ok := operands[len(operands)-1].(core.Name); ok {
					if base, ok := PredefinedCMap(string(name)); ok {
						cm.identity = base.identity
						cm.unicodeCodes = base.unicodeCodes
						if len(cm.codespace) == 0 {
							cm.codespace = base.codespace
						}
					}
				}
			}
		case "def":
			if len(operands) >= 2 {
				key, _ := operands[len(operands)-2].(core.Name)
				switch key {
				case "WMode":
					if v, ok := core.Number(operands[len(operands)-1]); ok {
						cm.Vertical = v == 1
					}
				case "CMapName":
					if v, ok := operands[len(operands)-1].(core.Name); ok {
						cm.Name = string(v)
					}
				}
			}
		}
		operands = nil
	}
	return cm, nil
}

// Next splits the next code off data, returning the code and its length
// in bytes. Bytes that match no codespace range are consumed using the
// shortest codespace length.
func (cm *CMap) Next(data []byte) (code uint32, n int) {
	if len(data) == 0 {
		return 0, 0
	}
	if len(cm.codespace) == 0 {
		n = 1
		if cm.identity {
			n = 2
		}
		if n > len(data) {
			n = len(data)
		}
		return codeValue(data[:n]), n
	}
	shortest := 4
	for _, r := range cm.codespace {
		if len(r.lo) < shortest {
			shortest = len(r.lo)
		}
	}
	for n = 1; n <= 4 && n <= len(data); n++ {
		for _, r := range cm.codespace {
			if len(r.lo) == n && r.contains(data[:n]) {
				return codeValue(data[:n]), n
			}
		}
	}
	n = shortest
	if n > len(data) {
		n = len(data)
	}
	return codeValue(data[:n]), n
}

func (r codespaceRange) contains(b []byte) bool {
	for i := range b {
		if b[i] < r.lo[i] || b[i] > r.hi[i] {
			return false
		}
	}
	return true
}

// CID returns the CID for a code of n bytes; unmapped codes give CID 0.
func (cm *CMap) CID(code uint32, n int) uint32 {
	for i := len(cm.cids) - 1; i >= 0; i-- {
		r := cm.cids[i]
		if r.n == n && code >= r.lo && code <= r.hi {
			return r.cid + code - r.lo
		}
	}
	if cm.identity || cm.unicodeCodes {
		return code
	}
	return 0
}

// Unicode returns the text for code.
func (cm *CMap) Unicode(code uint32) (string, bool) {
	if s, ok := cm.bfChars[code]; ok {
		return s, true
	}
	for _, r := range cm.bfRanges {
		if code < r.lo || code > r.hi {
			continue
		}
		off := code - r.lo
		if r.list != nil {
			if int(off) < len(r.list) && r.list[off] != "" {
				return r.list[off], true
			}
			return "", false
		}
		dst := append([]rune(nil), r.dst...)
		dst[len(dst)-1] += rune(off)
		return string(dst), true
	}
	if cm.unicodeCodes {
		return string(rune(code)), true
	}
	return "", false
}

// Empty reports whether the CMap holds no mappings.
func (cm *CMap) Empty() bool {
	return len(cm.cids) == 0 && len(cm.bfChars) == 0 && len(cm.bfRanges) == 0 && !cm.identity && !cm.unicodeCodes
}

func codeValue[T ~string | ~[]byte](b T) uint32 {
	var v uint32
	for i := 0; i < len(b); i++ {
		v = v<<8 | uint32(b[i])
	}
	return v
}

// bfString converts a bfchar destination: a UTF-16BE string or a glyph name.
func bfString(obj core.Object) (string, bool) {
	switch v := obj.(type) {
	case core.String:
		return utf16String(v), true
	case core.Name:
		if r, ok := GlyphRune(string(v)); ok {
			return string(r), true
		}
	}
	return "", false
}

var utf16be = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

func utf16String(b core.String) string {
	if len(b) == 1 {
		return string(rune(b[0]))
	}
	out, err := utf16be.NewDecoder().Bytes([]byte(b))
	if err != nil {
		return ""
	}
	return string(out)
}
