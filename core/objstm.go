package core

import (
	"fmt"
	"strconv"
)

// ObjectStream is a decoded /Type /ObjStm stream holding compressed
// objects. The header is parsed eagerly; objects are parsed on demand.
type ObjectStream struct {
	data    []byte
	first   int
	numbers []int
	offsets []int
	cache   map[int]Object
}

// NewObjectStream decodes stream and reads its header of N object number
// and offset pairs.
func NewObjectStream(stream *Stream) (*ObjectStream, error) {
	if stream == nil {
		return nil, fmt.Errorf("stream is nil")
	}
	if t, _ := stream.Dict.GetName("Type"); t != "ObjStm" {
		return nil, fmt.Errorf("stream is not an object stream, got type %q", t)
	}
	n, ok := stream.Dict.GetInt("N")
	if !ok || n < 0 {
		return nil, fmt.Errorf("object stream has invalid /N")
	}
	first, ok := stream.Dict.GetInt("First")
	if !ok || first < 0 {
		return nil, fmt.Errorf("object stream has invalid /First")
	}
	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode object stream: %w", err)
	}
	if first > len(data) {
		return nil, fmt.Errorf("First offset (%d) exceeds decoded data length (%d)", first, len(data))
	}

	os := &ObjectStream{
		data:  data,
		first: first,
		cache: make(map[int]Object),
	}
	lex := NewLexer(data[:first])
	for i := 0; i < n; i++ {
		numTok, _ := lex.NextToken()
		offTok, _ := lex.NextToken()
		if numTok.Type != TokenInteger || offTok.Type != TokenInteger {
			break
		}
		num, _ := strconv.Atoi(string(numTok.Value))
		off, _ := strconv.Atoi(string(offTok.Value))
		os.numbers = append(os.numbers, num)
		os.offsets = append(os.offsets, off)
	}
	return os, nil
}

// Len returns the number of objects listed in the header.
func (os *ObjectStream) Len() int { return len(os.numbers) }

// ObjectNumbers returns the object numbers in header order.
func (os *ObjectStream) ObjectNumbers() []int {
	return append([]int(nil), os.numbers...)
}

// ObjectAt parses the object at header index i and returns it together with
// its object number.
func (os *ObjectStream) ObjectAt(i int) (Object, int, error) {
	if i < 0 || i >= len(os.numbers) {
		return nil, 0, fmt.Errorf("index %d out of range [0, %d)", i, len(os.numbers))
	}
	if obj, ok := os.cache[i]; ok {
		return obj, os.numbers[i], nil
	}
	start := os.first + os.offsets[i]
	if start >= len(os.data) {
		return nil, 0, fmt.Errorf("object offset %d exceeds decoded data length %d", start, len(os.data))
	}
	p := NewParser(os.data)
	p.SetPos(start)
	obj, err := p.ParseObject()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse object at index %d: %w", i, err)
	}
	os.cache[i] = obj
	return obj, os.numbers[i], nil
}

// Object returns the object numbered num. When the header index is known
// from the xref (hint >= 0) it is checked first.
func (os *ObjectStream) Object(num, hint int) (Object, error) {
	if hint >= 0 && hint < len(os.numbers) && os.numbers[hint] == num {
		obj, _, err := os.ObjectAt(hint)
		return obj, err
	}
	for i, n := range os.numbers {
		if n == num {
			obj, _, err := os.ObjectAt(i)
			return obj, err
		}
	}
	return nil, fmt.Errorf("object %d not found in object stream", num)
}
