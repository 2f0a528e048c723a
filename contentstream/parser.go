package contentstream

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/sbkohel/pdf-dedupe/core"
)

// Operation is one operator with the operands that precede it.
type Operation struct {
	Operator string
	Operands []core.Object
}

// maxOperands bounds the operand stack; excess operands are dropped.
const maxOperands = 64

// Parser splits a content stream into operations.
type Parser struct {
	p *core.Parser
}

// NewParser returns a parser for decoded content stream data.
func NewParser(data []byte) *Parser {
	return &Parser{p: core.NewParser(data)}
}

// Parse returns every operation in order. Malformed tokens are skipped
// together with the operands collected before them. Truncated data ends the
// stream quietly; any other error that cannot be skipped is returned with
// the operations read so far.
func (p *Parser) Parse() ([]Operation, error) {
	var ops []Operation
	var operands []core.Object
	for {
		before := p.p.Pos()
		obj, err := p.p.ParseObject()
		if errors.Is(err, core.ErrUnexpectedEOF) {
			return ops, nil
		}
		if err != nil {
			if p.p.Pos() > before {
				operands = nil
				continue
			}
			return ops, fmt.Errorf("at offset %d: %w", before, err)
		}
		kw, ok := obj.(core.Keyword)
		if !ok {
			if len(operands) < maxOperands {
				operands = append(operands, obj)
			}
			continue
		}
		switch kw {
		case "BI":
			img, err := p.inlineImage()
			if err != nil {
				return ops, err
			}
			ops = append(ops, Operation{Operator: "BI", Operands: []core.Object{img}})
		case ")", "{", "}", ">":
			// Stray delimiters are dropped along with pending operands.
		default:
			ops = append(ops, Operation{Operator: string(kw), Operands: operands})
		}
		operands = nil
	}
}

// inlineKeys maps inline image abbreviations to full key names.
var inlineKeys = map[string]string{
	"BPC": "BitsPerComponent",
	"CS":  "ColorSpace",
	"D":   "Decode",
	"DP":  "DecodeParms",
	"F":   "Filter",
	"H":   "Height",
	"W":   "Width",
	"IM":  "ImageMask",
	"I":   "Interpolate",
	"L":   "Length",
}

// inlineImage reads the dictionary and data of BI ... ID ... EI. The image
// is returned as a stream with full key names.
func (p *Parser) inlineImage() (*core.Stream, error) {
	dict := core.Dict{}
	for {
		obj, err := p.p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("inline image dictionary: %w", err)
		}
		if kw, ok := obj.(core.Keyword); ok && kw == "ID" {
			break
		}
		key, ok := obj.(core.Name)
		if !ok {
			continue
		}
		val, err := p.p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("inline image dictionary: %w", err)
		}
		if kw, ok := val.(core.Keyword); ok && kw == "ID" {
			break
		}
		name := string(key)
		if full, ok := inlineKeys[name]; ok {
			name = full
		}
		dict[name] = val
	}

	lex := p.p.Lexer()
	data := lex.Data()
	start := lex.Pos()
	// A single whitespace byte separates ID from the data.
	if start < len(data) && isSpace(data[start]) {
		start++
	}

	end := -1
	if n := rawLength(dict); n >= 0 && start+n <= len(data) {
		if after := bytes.TrimLeft(data[start+n:], " \t\r\n\f\x00"); bytes.HasPrefix(after, []byte("EI")) {
			end = start + n
		}
	}
	if end < 0 {
		end = findEI(data, start)
	}
	if end < 0 {
		return nil, errors.New("inline image without EI")
	}
	img := &core.Stream{Dict: dict, Data: data[start:end]}

	rest := bytes.Index(data[end:], []byte("EI"))
	lex.SetPos(end + rest + 2)
	return img, nil
}

// rawLength returns the byte length of unfiltered inline image data, or
// -1 when it cannot be known in advance.
func rawLength(d core.Dict) int {
	if d.Has("Filter") {
		if n, ok := d.GetInt("Length"); ok && n >= 0 {
			return n
		}
		return -1
	}
	w, _ := d.GetInt("Width")
	h, _ := d.GetInt("Height")
	if w <= 0 || h <= 0 {
		return -1
	}
	bpc, ok := d.GetInt("BitsPerComponent")
	if !ok {
		bpc = 8
	}
	comps := 1
	if mask, _ := d.GetBool("ImageMask"); mask {
		bpc = 1
	} else {
		switch cs, _ := d.GetName("ColorSpace"); cs {
		case "RGB", "DeviceRGB", "CalRGB":
			comps = 3
		case "CMYK", "DeviceCMYK":
			comps = 4
		case "G", "DeviceGray", "CalGray", "I", "Indexed":
		default:
			if _, isArr := d.Get("ColorSpace").(core.Array); isArr || cs != "" {
				return -1
			}
		}
	}
	return ((w*comps*bpc + 7) / 8) * h
}

// findEI locates "EI" preceded by whitespace and followed by whitespace or
// the end of data.
func findEI(data []byte, from int) int {
	for i := from; i+1 < len(data); i++ {
		if data[i] != 'E' || data[i+1] != 'I' {
			continue
		}
		if i > from && !isSpace(data[i-1]) {
			continue
		}
		if i+2 < len(data) && !isSpace(data[i+2]) {
			continue
		}
		end := i
		if end > from && isSpace(data[end-1]) {
			end--
		}
		return end
	}
	return -1
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n' || b == '\f' || b == 0
}
