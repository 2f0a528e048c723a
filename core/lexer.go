package core

import (
	"bytes"
	"fmt"
)

// TokenType is the kind of a lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenComment
	TokenKeyword   // obj, endobj, stream, R, content stream operators, ...
	TokenInteger   // 123
	TokenReal      // 3.14
	TokenString    // (hello), escapes already resolved
	TokenHexString // <48656C6C6F>, already decoded to bytes
	TokenName      // /Type, # escapes already resolved
	TokenArrayStart
	TokenArrayEnd
	TokenDictStart
	TokenDictEnd
)

// Token is one lexical token. Pos is the byte offset of its first byte.
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int
}

// Lexer tokenizes PDF syntax held in memory. Working on a byte slice lets
// callers jump to xref offsets and read stream data without re-buffering.
type Lexer struct {
	data []byte
	pos  int
}

// NewLexer returns a lexer positioned at the start of data.
func NewLexer(data []byte) *Lexer {
	return &Lexer{data: data}
}

// Pos returns the current byte offset.
func (l *Lexer) Pos() int { return l.pos }

// SetPos moves the lexer to offset, clamped to the data.
func (l *Lexer) SetPos(offset int) {
	switch {
	case offset < 0:
		l.pos = 0
	case offset > len(l.data):
		l.pos = len(l.data)
	default:
		l.pos = offset
	}
}

// Data returns the underlying buffer.
func (l *Lexer) Data() []byte { return l.data }

// NextToken returns the next token, skipping whitespace. At the end of the
// data it returns a TokenEOF token.
func (l *Lexer) NextToken() (Token, error) {
	l.SkipWhitespace()
	if l.pos >= len(l.data) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}
	start := l.pos
	switch c := l.data[l.pos]; c {
	case '%':
		end := l.pos
		for end < len(l.data) && l.data[end] != '\r' && l.data[end] != '\n' {
			end++
		}
		l.pos = end
		return Token{Type: TokenComment, Value: l.data[start:end], Pos: start}, nil
	case '[':
		l.pos++
		return Token{Type: TokenArrayStart, Value: l.data[start:l.pos], Pos: start}, nil
	case ']':
		l.pos++
		return Token{Type: TokenArrayEnd, Value: l.data[start:l.pos], Pos: start}, nil
	case '(':
		return l.readString()
	case '<':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
			l.pos += 2
			return Token{Type: TokenDictStart, Value: l.data[start:l.pos], Pos: start}, nil
		}
		return l.readHexString()
	case '>':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '>' {
			l.pos += 2
			return Token{Type: TokenDictEnd, Value: l.data[start:l.pos], Pos: start}, nil
		}
		l.pos++
		return Token{Type: TokenKeyword, Value: l.data[start:l.pos], Pos: start}, nil
	case '/':
		return l.readName(), nil
	case ')', '{', '}':
		l.pos++
		return Token{Type: TokenKeyword, Value: l.data[start:l.pos], Pos: start}, nil
	}
	return l.readRegular(), nil
}

// SkipWhitespace advances past whitespace (comments are tokens).
func (l *Lexer) SkipWhitespace() {
	for l.pos < len(l.data) && isWhitespace(l.data[l.pos]) {
		l.pos++
	}
}

// readRegular reads a run of regular characters and classifies it as a
// number or a keyword.
func (l *Lexer) readRegular() Token {
	start := l.pos
	for l.pos < len(l.data) && !isWhitespace(l.data[l.pos]) && !isDelimiter(l.data[l.pos]) {
		l.pos++
	}
	word := l.data[start:l.pos]
	return Token{Type: classifyWord(word), Value: word, Pos: start}
}

func classifyWord(word []byte) TokenType {
	if len(word) == 0 {
		return TokenKeyword
	}
	digits, dots := 0, 0
	for _, c := range word {
		switch {
		case isDigit(c):
			digits++
		case c == '.':
			dots++
		case (c == '-' || c == '+') && digits == 0 && dots == 0:
		default:
			return TokenKeyword
		}
	}
	if digits == 0 && dots == 0 {
		// A lone sign is a malformed number; treat it as zero.
		return TokenReal
	}
	if dots == 0 {
		return TokenInteger
	}
	return TokenReal
}

func (l *Lexer) readString() (Token, error) {
	start := l.pos
	l.pos++ // (
	var buf bytes.Buffer
	depth := 1
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '(':
			depth++
			buf.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return Token{Type: TokenString, Value: buf.Bytes(), Pos: start}, nil
			}
			buf.WriteByte(c)
		case '\\':
			if l.pos >= len(l.data) {
				break
			}
			e := l.data[l.pos]
			l.pos++
			switch e {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '\r':
				if l.pos < len(l.data) && l.data[l.pos] == '\n' {
					l.pos++
				}
			case '\n':
			default:
				if isOctalDigit(e) {
					v := int(e - '0')
					for k := 0; k < 2 && l.pos < len(l.data) && isOctalDigit(l.data[l.pos]); k++ {
						v = v*8 + int(l.data[l.pos]-'0')
						l.pos++
					}
					buf.WriteByte(byte(v))
				} else {
					buf.WriteByte(e)
				}
			}
		default:
			buf.WriteByte(c)
		}
	}
	return Token{}, fmt.Errorf("unterminated string starting at offset %d", start)
}

func (l *Lexer) readHexString() (Token, error) {
	start := l.pos
	l.pos++ // <
	out := make([]byte, 0, 16)
	var hi byte
	half := false
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		if c == '>' {
			if half {
				out = append(out, hi<<4)
			}
			return Token{Type: TokenHexString, Value: out, Pos: start}, nil
		}
		if !isHexDigit(c) {
			continue
		}
		if half {
			out = append(out, hi<<4|hexValue(c))
		} else {
			hi = hexValue(c)
		}
		half = !half
	}
	return Token{}, fmt.Errorf("unterminated hex string starting at offset %d", start)
}

func (l *Lexer) readName() Token {
	start := l.pos
	l.pos++ // /
	var buf bytes.Buffer
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if isWhitespace(c) || isDelimiter(c) {
			break
		}
		l.pos++
		if c == '#' && l.pos+1 < len(l.data) && isHexDigit(l.data[l.pos]) && isHexDigit(l.data[l.pos+1]) {
			buf.WriteByte(hexValue(l.data[l.pos])<<4 | hexValue(l.data[l.pos+1]))
			l.pos += 2
			continue
		}
		buf.WriteByte(c)
	}
	return Token{Type: TokenName, Value: buf.Bytes(), Pos: start}
}

// SkipStreamEOL skips the end-of-line marker that must follow the stream
// keyword: CRLF or LF, and a lone CR for broken writers.
func (l *Lexer) SkipStreamEOL() {
	for l.pos < len(l.data) && (l.data[l.pos] == ' ' || l.data[l.pos] == '\t') {
		l.pos++
	}
	if l.pos < len(l.data) && l.data[l.pos] == '\r' {
		l.pos++
	}
	if l.pos < len(l.data) && l.data[l.pos] == '\n' {
		l.pos++
	}
}

// ReadBytes returns the next n bytes (fewer at the end of the data).
func (l *Lexer) ReadBytes(n int) []byte {
	end := l.pos + n
	if end > len(l.data) || n < 0 {
		end = len(l.data)
	}
	b := l.data[l.pos:end]
	l.pos = end
	return b
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isDigit(b byte) bool      { return b >= '0' && b <= '9' }
func isOctalDigit(b byte) bool { return b >= '0' && b <= '7' }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexValue(b byte) byte {
	switch {
	case isDigit(b):
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}
