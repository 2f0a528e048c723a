package core

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// ErrUnexpectedEOF is returned when the data ends inside an object.
var ErrUnexpectedEOF = errors.New("unexpected end of data")

// maxNesting bounds array and dictionary nesting.
const maxNesting = 256

// ReferenceResolver resolves indirect references while parsing, which is
// needed for stream lengths stored as separate objects.
type ReferenceResolver interface {
	ResolveReference(ref IndirectRef) (Object, error)
}

// Parser parses PDF objects from an in-memory buffer.
type Parser struct {
	lex      *Lexer
	resolver ReferenceResolver
	depth    int
}

// NewParser returns a parser positioned at the start of data.
func NewParser(data []byte) *Parser {
	return &Parser{lex: NewLexer(data)}
}

// SetReferenceResolver sets the resolver used for indirect /Length values.
func (p *Parser) SetReferenceResolver(r ReferenceResolver) { p.resolver = r }

// Lexer exposes the underlying lexer, for callers that need raw access
// (inline image data, for example).
func (p *Parser) Lexer() *Lexer { return p.lex }

// Pos returns the current offset.
func (p *Parser) Pos() int { return p.lex.Pos() }

// SetPos moves the parser to offset.
func (p *Parser) SetPos(offset int) { p.lex.SetPos(offset) }

// next returns the next non-comment token.
func (p *Parser) next() (Token, error) {
	for {
		tok, err := p.lex.NextToken()
		if err != nil || tok.Type != TokenComment {
			return tok, err
		}
	}
}

// ParseObject parses the next object. Bare words other than null, true and
// false come back as Keyword, so the same parser serves content streams.
// At the end of the data it returns ErrUnexpectedEOF.
func (p *Parser) ParseObject() (Object, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	return p.parseFrom(tok)
}

func (p *Parser) parseFrom(tok Token) (Object, error) {
	switch tok.Type {
	case TokenEOF:
		return nil, ErrUnexpectedEOF
	case TokenKeyword:
		switch string(tok.Value) {
		case "null":
			return Null{}, nil
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}
		return Keyword(tok.Value), nil
	case TokenInteger:
		return p.parseIntOrRef(tok)
	case TokenReal:
		return Real(parseReal(tok.Value)), nil
	case TokenString, TokenHexString:
		return String(tok.Value), nil
	case TokenName:
		return Name(tok.Value), nil
	case TokenArrayStart:
		return p.parseArray()
	case TokenDictStart:
		return p.parseDict()
	case TokenArrayEnd, TokenDictEnd:
		return nil, fmt.Errorf("unexpected %q at offset %d", tok.Value, tok.Pos)
	}
	return nil, fmt.Errorf("unexpected token at offset %d", tok.Pos)
}

// parseReal parses a real leniently: "--5", "5." and a lone sign all give a
// usable value rather than an error.
func parseReal(b []byte) float64 {
	s := string(b)
	for len(s) > 1 && (s[0] == '-' || s[0] == '+') && (s[1] == '-' || s[1] == '+') {
		s = s[1:]
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return 0
}

// parseIntOrRef parses an integer, looking ahead for the "num gen R" form.
func (p *Parser) parseIntOrRef(first Token) (Object, error) {
	n, err := strconv.ParseInt(string(first.Value), 10, 64)
	if err != nil {
		return Real(parseReal(first.Value)), nil
	}
	save := p.lex.Pos()
	second, err := p.next()
	if err == nil && second.Type == TokenInteger {
		third, err := p.next()
		if err == nil && third.Type == TokenKeyword && string(third.Value) == "R" {
			gen, _ := strconv.Atoi(string(second.Value))
			return IndirectRef{Number: int(n), Generation: gen}, nil
		}
	}
	p.lex.SetPos(save)
	return Int(n), nil
}

func (p *Parser) parseArray() (Object, error) {
	if p.depth++; p.depth > maxNesting {
		return nil, fmt.Errorf("objects nested deeper than %d", maxNesting)
	}
	defer func() { p.depth-- }()

	arr := Array{}
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenArrayEnd:
			return arr, nil
		case TokenEOF:
			return nil, fmt.Errorf("array: %w", ErrUnexpectedEOF)
		}
		obj, err := p.parseFrom(tok)
		if err != nil {
			return nil, fmt.Errorf("error parsing array element: %w", err)
		}
		arr = append(arr, obj)
	}
}

func (p *Parser) parseDict() (Object, error) {
	if p.depth++; p.depth > maxNesting {
		return nil, fmt.Errorf("objects nested deeper than %d", maxNesting)
	}
	defer func() { p.depth-- }()

	dict := Dict{}
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenDictEnd:
			return dict, nil
		case TokenEOF:
			return nil, fmt.Errorf("dictionary: %w", ErrUnexpectedEOF)
		case TokenName:
		default:
			// Junk where a key should be; skip it.
			continue
		}
		key := string(tok.Value)
		valTok, err := p.next()
		if err != nil {
			return nil, err
		}
		if valTok.Type == TokenDictEnd {
			dict[key] = Null{}
			return dict, nil
		}
		val, err := p.parseFrom(valTok)
		if err != nil {
			return nil, fmt.Errorf("error parsing dictionary value for key '%s': %w", key, err)
		}
		if _, isKeyword := val.(Keyword); isKeyword {
			return nil, fmt.Errorf("unexpected keyword %q as value of /%s", val, key)
		}
		dict[key] = val
	}
}

// ParseIndirectObject parses "num gen obj <object> endobj", including a
// stream body when the object is a stream. A missing endobj is tolerated.
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	numTok, err := p.next()
	if err != nil {
		return nil, err
	}
	genTok, err := p.next()
	if err != nil {
		return nil, err
	}
	objTok, err := p.next()
	if err != nil {
		return nil, err
	}
	if numTok.Type != TokenInteger || genTok.Type != TokenInteger ||
		objTok.Type != TokenKeyword || string(objTok.Value) != "obj" {
		return nil, fmt.Errorf("expected 'num gen obj' at offset %d", numTok.Pos)
	}
	num, _ := strconv.Atoi(string(numTok.Value))
	gen, _ := strconv.Atoi(string(genTok.Value))

	obj, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("error parsing object %d %d: %w", num, gen, err)
	}
	if kw, ok := obj.(Keyword); ok && kw == "endobj" {
		// "1 0 obj endobj" is an empty object.
		return &IndirectObject{Ref: IndirectRef{num, gen}, Object: Null{}}, nil
	}

	save := p.lex.Pos()
	tok, err := p.next()
	if err == nil && tok.Type == TokenKeyword && string(tok.Value) == "stream" {
		dict, ok := obj.(Dict)
		if !ok {
			return nil, fmt.Errorf("stream in object %d %d must follow a dictionary", num, gen)
		}
		stream, err := p.parseStream(dict)
		if err != nil {
			return nil, fmt.Errorf("error parsing stream of object %d %d: %w", num, gen, err)
		}
		obj = stream
		save = p.lex.Pos()
		tok, err = p.next()
	}
	if err != nil || tok.Type != TokenKeyword || string(tok.Value) != "endobj" {
		p.lex.SetPos(save)
	}
	return &IndirectObject{Ref: IndirectRef{num, gen}, Object: obj}, nil
}

// ParseIndirectObjectAt parses the indirect object starting at offset.
func (p *Parser) ParseIndirectObjectAt(offset int) (*IndirectObject, error) {
	p.lex.SetPos(offset)
	return p.ParseIndirectObject()
}

var endstream = []byte("endstream")

// parseStream reads stream data after the stream keyword. The declared
// /Length is trusted only when "endstream" follows it; otherwise the data
// runs up to the next endstream keyword.
func (p *Parser) parseStream(dict Dict) (*Stream, error) {
	p.lex.SkipStreamEOL()
	start := p.lex.Pos()
	data := p.lex.Data()

	length := -1
	switch v := dict.Get("Length").(type) {
	case Int:
		length = int(v)
	case IndirectRef:
		if p.resolver != nil {
			if resolved, err := p.resolver.ResolveReference(v); err == nil {
				if n, ok := resolved.(Int); ok {
					length = int(n)
				}
			}
		}
	}

	if length >= 0 && start+length <= len(data) {
		end := start + length
		rest := bytes.TrimLeft(data[end:], " \t\r\n\f\x00")
		if bytes.HasPrefix(rest, endstream) {
			p.lex.SetPos(len(data) - len(rest) + len(endstream))
			return &Stream{Dict: dict, Data: data[start:end]}, nil
		}
	}

	idx := bytes.Index(data[start:], endstream)
	if idx < 0 {
		return nil, fmt.Errorf("stream: %w", ErrUnexpectedEOF)
	}
	end := start + idx
	p.lex.SetPos(end + len(endstream))
	// Drop the EOL that precedes endstream.
	if end > start && data[end-1] == '\n' {
		end--
	}
	if end > start && data[end-1] == '\r' {
		end--
	}
	return &Stream{Dict: dict, Data: data[start:end]}, nil
}

// Resolver resolves an object that may be an indirect reference. Direct
// objects are returned unchanged.
type Resolver interface {
	Resolve(obj Object) (Object, error)
}
