package core

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// EntryKind tells how an object is stored.
type EntryKind int

const (
	EntryFree       EntryKind = iota
	EntryInUse                // stored at a byte offset
	EntryCompressed           // stored inside an object stream
)

// XRefEntry locates one object.
type XRefEntry struct {
	Kind       EntryKind
	Offset     int64 // byte offset, for EntryInUse
	Generation int
	Stream     int // object stream number, for EntryCompressed
	Index      int // index within the object stream, for EntryCompressed
}

// XRefTable maps object numbers to locations and carries the merged
// trailer dictionary.
type XRefTable struct {
	Entries  map[int]XRefEntry
	Trailer  Dict
	Repaired bool // rebuilt by scanning the file
}

// NewXRefTable returns an empty table.
func NewXRefTable() *XRefTable {
	return &XRefTable{Entries: make(map[int]XRefEntry), Trailer: Dict{}}
}

// Get returns the entry for object num.
func (x *XRefTable) Get(num int) (XRefEntry, bool) {
	e, ok := x.Entries[num]
	return e, ok
}

// Size returns the number of entries.
func (x *XRefTable) Size() int { return len(x.Entries) }

// maxSections bounds /Prev chains.
const maxSections = 512

// LoadXRef reads the cross-reference data of a PDF file: the section
// named by startxref and every /Prev and /XRefStm section behind it, newest
// entries winning. When that fails, or yields no /Root, the table is rebuilt
// by RepairXRef.
func LoadXRef(data []byte) (*XRefTable, error) {
	table, err := loadChain(data)
	if err == nil && table.Trailer.Has("Root") {
		return table, nil
	}
	repaired, rerr := RepairXRef(data)
	if rerr != nil {
		if err != nil {
			return nil, fmt.Errorf("failed to load xref (%v) and repair failed: %w", err, rerr)
		}
		return nil, rerr
	}
	return repaired, nil
}

// FindStartXRef returns the offset recorded after the last startxref
// keyword.
func FindStartXRef(data []byte) (int64, error) {
	idx := bytes.LastIndex(data, []byte("startxref"))
	if idx < 0 {
		return 0, errors.New("startxref not found")
	}
	lex := NewLexer(data[idx+len("startxref"):])
	tok, _ := lex.NextToken()
	if tok.Type != TokenInteger {
		return 0, errors.New("invalid startxref offset")
	}
	off, err := strconv.ParseInt(string(tok.Value), 10, 64)
	if err != nil || off < 0 || off >= int64(len(data)) {
		return 0, fmt.Errorf("startxref offset %q out of range", tok.Value)
	}
	return off, nil
}

func loadChain(data []byte) (*XRefTable, error) {
	start, err := FindStartXRef(data)
	if err != nil {
		return nil, err
	}
	table := NewXRefTable()
	visited := make(map[int64]bool)
	queue := []int64{start}
	for len(queue) > 0 && len(visited) < maxSections {
		off := queue[0]
		queue = queue[1:]
		if visited[off] {
			continue
		}
		visited[off] = true

		entries, trailer, err := parseSection(data, off)
		if err != nil {
			if off == start {
				return nil, err
			}
			// A broken older section loses only older revisions.
			break
		}
		if stm, ok := trailer.GetInt("XRefStm"); ok && !visited[int64(stm)] {
			visited[int64(stm)] = true
			if extra, _, err := parseSection(data, int64(stm)); err == nil {
				for num, e := range extra {
					if cur, ok := entries[num]; !ok || cur.Kind == EntryFree {
						entries[num] = e
					}
				}
			}
		}
		for num, e := range entries {
			if _, ok := table.Entries[num]; !ok {
				table.Entries[num] = e
			}
		}
		for k, v := range trailer {
			if !table.Trailer.Has(k) {
				table.Trailer[k] = v
			}
		}
		if prev, ok := trailer.GetInt("Prev"); ok && prev >= 0 && int64(prev) < int64(len(data)) {
			queue = append(queue, int64(prev))
		}
	}
	for _, k := range []string{"Prev", "XRefStm", "W", "Index", "Filter", "DecodeParms", "Length", "Type"} {
		delete(table.Trailer, k)
	}
	return table, nil
}

// parseSection parses the classic table or xref stream at offset.
func parseSection(data []byte, offset int64) (map[int]XRefEntry, Dict, error) {
	lex := NewLexer(data)
	lex.SetPos(int(offset))
	lex.SkipWhitespace()
	if bytes.HasPrefix(data[lex.Pos():], []byte("xref")) {
		return parseTable(data, lex)
	}
	p := NewParser(data)
	obj, err := p.ParseIndirectObjectAt(int(offset))
	if err != nil {
		return nil, nil, fmt.Errorf("no xref section at offset %d: %w", offset, err)
	}
	stream, ok := obj.Object.(*Stream)
	if !ok {
		return nil, nil, fmt.Errorf("object at offset %d is not an xref stream", offset)
	}
	if t, _ := stream.Dict.GetName("Type"); t != "XRef" {
		return nil, nil, fmt.Errorf("object at offset %d is not an xref stream", offset)
	}
	entries, err := ParseXRefStream(stream)
	if err != nil {
		return nil, nil, err
	}
	return entries, stream.Dict, nil
}

func parseTable(data []byte, lex *Lexer) (map[int]XRefEntry, Dict, error) {
	lex.NextToken() // xref
	entries := make(map[int]XRefEntry)
	for {
		tok, err := lex.NextToken()
		if err != nil {
			return nil, nil, err
		}
		if tok.Type == TokenKeyword && string(tok.Value) == "trailer" {
			break
		}
		if tok.Type != TokenInteger {
			return nil, nil, fmt.Errorf("invalid xref subsection header at offset %d", tok.Pos)
		}
		countTok, _ := lex.NextToken()
		if countTok.Type != TokenInteger {
			return nil, nil, fmt.Errorf("invalid xref subsection count at offset %d", countTok.Pos)
		}
		first, _ := strconv.Atoi(string(tok.Value))
		count, _ := strconv.Atoi(string(countTok.Value))
		for i := 0; i < count; i++ {
			offTok, _ := lex.NextToken()
			genTok, _ := lex.NextToken()
			flagTok, _ := lex.NextToken()
			if offTok.Type != TokenInteger || genTok.Type != TokenInteger || flagTok.Type != TokenKeyword {
				return nil, nil, fmt.Errorf("invalid xref entry %d at offset %d", first+i, offTok.Pos)
			}
			off, _ := strconv.ParseInt(string(offTok.Value), 10, 64)
			gen, _ := strconv.Atoi(string(genTok.Value))
			e := XRefEntry{Kind: EntryFree, Offset: off, Generation: gen}
			switch string(flagTok.Value) {
			case "n":
				e.Kind = EntryInUse
			case "f":
			default:
				return nil, nil, fmt.Errorf("invalid in-use flag %q", flagTok.Value)
			}
			if e.Kind == EntryInUse && off == 0 {
				// Some writers mark never-written objects as in use at 0.
				e.Kind = EntryFree
			}
			entries[first+i] = e
		}
	}
	p := NewParser(data)
	p.SetPos(lex.Pos())
	obj, err := p.ParseObject()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse trailer: %w", err)
	}
	trailer, ok := obj.(Dict)
	if !ok {
		return nil, nil, fmt.Errorf("trailer is not a dictionary, got %T", obj)
	}
	return entries, trailer, nil
}

// ParseXRefStream decodes the entries of a /Type /XRef stream.
func ParseXRefStream(stream *Stream) (map[int]XRefEntry, error) {
	wArr, ok := stream.Dict.GetArray("W")
	if !ok || len(wArr) < 3 {
		return nil, errors.New("xref stream missing /W")
	}
	w, ok := wArr.Floats()
	if !ok {
		return nil, errors.New("xref stream has invalid /W")
	}
	w0, w1, w2 := int(w[0]), int(w[1]), int(w[2])
	if w0 < 0 || w1 < 0 || w2 < 0 || w0 > 8 || w1 > 8 || w2 > 8 {
		return nil, fmt.Errorf("xref stream /W out of range: %v", w)
	}
	rowLen := w0 + w1 + w2
	if rowLen == 0 {
		return nil, errors.New("xref stream /W is all zero")
	}

	size, _ := stream.Dict.GetInt("Size")
	index := []int{0, size}
	if idx, ok := stream.Dict.GetArray("Index"); ok {
		if vals, ok := idx.Floats(); ok && len(vals)%2 == 0 {
			index = index[:0]
			for _, v := range vals {
				index = append(index, int(v))
			}
		}
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode xref stream: %w", err)
	}

	entries := make(map[int]XRefEntry)
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		first, count := index[i], index[i+1]
		for j := 0; j < count; j++ {
			if pos+rowLen > len(data) {
				return entries, nil
			}
			row := data[pos : pos+rowLen]
			pos += rowLen
			kind := 1
			if w0 > 0 {
				kind = int(beUint(row[:w0]))
			}
			f2 := beUint(row[w0 : w0+w1])
			f3 := int(beUint(row[w0+w1:]))
			var e XRefEntry
			switch kind {
			case 0:
				e = XRefEntry{Kind: EntryFree, Generation: f3}
			case 1:
				e = XRefEntry{Kind: EntryInUse, Offset: int64(f2), Generation: f3}
			case 2:
				e = XRefEntry{Kind: EntryCompressed, Stream: int(f2), Index: f3}
			default:
				// Unknown types are references to the null object.
				continue
			}
			entries[first+j] = e
		}
	}
	return entries, nil
}

func beUint(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// RepairXRef rebuilds a table by scanning the whole file for "num gen obj"
// markers (later definitions win) and trailer dictionaries. Objects found
// inside object streams are added when they have no direct definition.
// When no trailer names a /Root, the first /Type /Catalog object is used.
func RepairXRef(data []byte) (*XRefTable, error) {
	table := NewXRefTable()
	table.Repaired = true
	p := NewParser(data)

	var objStreams []int
	catalog := -1
	for i := 0; ; {
		idx := bytes.Index(data[i:], []byte("obj"))
		if idx < 0 {
			break
		}
		at := i + idx
		i = at + 3
		numStart, num, gen, ok := objectHeaderBefore(data, at)
		if !ok {
			continue
		}
		table.Entries[num] = XRefEntry{Kind: EntryInUse, Offset: int64(numStart), Generation: gen}

		obj, err := p.ParseIndirectObjectAt(numStart)
		if err != nil {
			continue
		}
		switch v := obj.Object.(type) {
		case Dict:
			if t, _ := v.GetName("Type"); t == "Catalog" && catalog < 0 {
				catalog = num
			}
		case *Stream:
			switch t, _ := v.Dict.GetName("Type"); t {
			case "ObjStm":
				objStreams = append(objStreams, num)
			case "XRef":
				mergeMissing(table.Trailer, v.Dict)
			}
		}
		if p.Pos() > i {
			i = p.Pos()
		}
	}

	for i := 0; ; {
		idx := bytes.Index(data[i:], []byte("trailer"))
		if idx < 0 {
			break
		}
		i += idx + len("trailer")
		p.SetPos(i)
		if obj, err := p.ParseObject(); err == nil {
			if d, ok := obj.(Dict); ok {
				// Later trailers describe newer revisions.
				for k, v := range d {
					table.Trailer[k] = v
				}
			}
		}
	}

	for _, sn := range objStreams {
		e := table.Entries[sn]
		obj, err := p.ParseIndirectObjectAt(int(e.Offset))
		if err != nil {
			continue
		}
		stm, ok := obj.Object.(*Stream)
		if !ok {
			continue
		}
		os, err := NewObjectStream(stm)
		if err != nil {
			continue
		}
		for idx, num := range os.ObjectNumbers() {
			if _, ok := table.Entries[num]; !ok {
				table.Entries[num] = XRefEntry{Kind: EntryCompressed, Stream: sn, Index: idx}
			}
			if catalog < 0 {
				if o, _, err := os.ObjectAt(idx); err == nil {
					if d, ok := o.(Dict); ok {
						if t, _ := d.GetName("Type"); t == "Catalog" {
							catalog = num
						}
					}
				}
			}
		}
	}

	if !table.Trailer.Has("Root") {
		if catalog < 0 {
			return nil, errors.New("no document catalog found")
		}
		table.Trailer["Root"] = IndirectRef{Number: catalog}
	}
	for _, k := range []string{"Prev", "XRefStm", "W", "Index", "Filter", "DecodeParms", "Length", "Type"} {
		delete(table.Trailer, k)
	}
	if len(table.Entries) == 0 {
		return nil, errors.New("no objects found")
	}
	return table, nil
}

func mergeMissing(dst, src Dict) {
	for k, v := range src {
		if !dst.Has(k) {
			dst[k] = v
		}
	}
}

// objectHeaderBefore checks that the "obj" keyword at position at is
// preceded by "num gen" and returns the offset of num.
func objectHeaderBefore(data []byte, at int) (start, num, gen int, ok bool) {
	if end := at + 3; end < len(data) && !isWhitespace(data[end]) && !isDelimiter(data[end]) {
		return 0, 0, 0, false
	}
	i := at - 1
	skipWS := func() bool {
		n := 0
		for i >= 0 && isWhitespace(data[i]) {
			i--
			n++
		}
		return n > 0
	}
	digits := func() (int, bool) {
		end := i + 1
		for i >= 0 && isDigit(data[i]) {
			i--
		}
		if i+1 == end || end-(i+1) > 10 {
			return 0, false
		}
		v, err := strconv.Atoi(string(data[i+1 : end]))
		return v, err == nil
	}
	if !skipWS() {
		return 0, 0, 0, false
	}
	g, okGen := digits()
	if !okGen || !skipWS() {
		return 0, 0, 0, false
	}
	n, okNum := digits()
	if !okNum {
		return 0, 0, 0, false
	}
	if i >= 0 && !isWhitespace(data[i]) && !isDelimiter(data[i]) {
		return 0, 0, 0, false
	}
	return i + 1, n, g, true
}
