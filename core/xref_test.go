package core

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"testing"
)

// classicPDF assembles objects (numbered from 1) with a classic xref table
// and returns the file and the object offsets.
func classicPDF(objects []string, trailer string) ([]byte, []int) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d %s >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, trailer, xref)
	return buf.Bytes(), offsets
}

func deflate(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

func TestLoadXRefClassic(t *testing.T) {
	data, offsets := classicPDF([]string{"<< /Type /Catalog /Pages 2 0 R >>", "<< /Type /Pages /Kids [] /Count 0 >>"}, "/Root 1 0 R")
	table, err := LoadXRef(data)
	if err != nil {
		t.Fatalf("LoadXRef failed: %v", err)
	}
	if table.Repaired {
		t.Error("expected table not to be repaired")
	}
	for i, off := range offsets {
		e, ok := table.Get(i + 1)
		if !ok || e.Kind != EntryInUse || e.Offset != int64(off) {
			t.Errorf("object %d: expected offset %d, got %+v", i+1, off, e)
		}
	}
	if e, _ := table.Get(0); e.Kind != EntryFree {
		t.Errorf("expected object 0 to be free, got %+v", e)
	}
	if ref, ok := table.Trailer["Root"].(IndirectRef); !ok || ref.Number != 1 {
		t.Errorf("unexpected /Root: %v", table.Trailer["Root"])
	}
	if table.Trailer.Has("Prev") {
		t.Error("expected /Prev to be dropped from merged trailer")
	}
}

func TestLoadXRefIncrementalUpdate(t *testing.T) {
	data, _ := classicPDF([]string{"<< /Type /Catalog >>", "(old)"}, "/Root 1 0 R")
	firstXRef, _ := FindStartXRef(data)

	var buf bytes.Buffer
	buf.Write(data)
	newOff := buf.Len()
	buf.WriteString("2 0 obj\n(new)\nendobj\n")
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n2 1\n%010d 00000 n \ntrailer\n<< /Size 3 /Prev %d >>\nstartxref\n%d\n%%%%EOF\n", newOff, firstXRef, xref)

	table, err := LoadXRef(buf.Bytes())
	if err != nil {
		t.Fatalf("LoadXRef failed: %v", err)
	}
	if e, _ := table.Get(2); e.Offset != int64(newOff) {
		t.Errorf("expected newest offset %d, got %d", newOff, e.Offset)
	}
	if !table.Trailer.Has("Root") {
		t.Error("expected /Root merged from the older trailer")
	}
}

func TestLoadXRefPrevLoop(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	off := buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog >>\nendobj\n")
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 2\n0000000000 65535 f \n%010d 00000 n \ntrailer\n<< /Size 2 /Root 1 0 R /Prev %d >>\nstartxref\n%d\n%%%%EOF\n", off, xref, xref)
	if _, err := LoadXRef(buf.Bytes()); err != nil {
		t.Fatalf("LoadXRef failed on self-referencing /Prev: %v", err)
	}
}

func TestLoadXRefStream(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.5\n")
	off1 := buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	off2 := buf.Len()
	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [] /Count 0 >>\nendobj\n")
	xrefOff := buf.Len()

	// W [1 2 1]: type, offset, generation.
	rows := []byte{
		0, 0, 0, 255,
		1, byte(off1 >> 8), byte(off1), 0,
		1, byte(off2 >> 8), byte(off2), 0,
		1, byte(xrefOff >> 8), byte(xrefOff), 0,
		2, 0, 9, 4,
	}
	// Entry 4 says object 4 is index 4 of object stream 9.
	packed := deflate(rows)
	fmt.Fprintf(&buf, "3 0 obj\n<< /Type /XRef /Size 5 /W [1 2 1] /Root 1 0 R /Filter /FlateDecode /Length %d >>\nstream\n", len(packed))
	buf.Write(packed)
	fmt.Fprintf(&buf, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", xrefOff)

	table, err := LoadXRef(buf.Bytes())
	if err != nil {
		t.Fatalf("LoadXRef failed: %v", err)
	}
	if table.Repaired {
		t.Fatal("expected xref stream to load without repair")
	}
	if e, _ := table.Get(2); e.Kind != EntryInUse || e.Offset != int64(off2) {
		t.Errorf("unexpected entry 2: %+v", e)
	}
	if e, _ := table.Get(4); e.Kind != EntryCompressed || e.Stream != 9 || e.Index != 4 {
		t.Errorf("unexpected entry 4: %+v", e)
	}
	if table.Trailer.Has("W") || table.Trailer.Has("Filter") {
		t.Error("expected stream keys to be removed from trailer")
	}
}

func TestParseXRefStreamIndex(t *testing.T) {
	s := &Stream{
		Dict: Dict{"Type": Name("XRef"), "W": Array{Int(0), Int(1), Int(0)}, "Index": Array{Int(10), Int(2)}},
		Data: []byte{20, 30},
	}
	entries, err := ParseXRefStream(s)
	if err != nil {
		t.Fatalf("ParseXRefStream failed: %v", err)
	}
	if entries[10].Offset != 20 || entries[11].Offset != 30 {
		t.Errorf("unexpected entries: %+v", entries)
	}
	if entries[10].Kind != EntryInUse {
		t.Errorf("expected default type 1 when W[0] is 0, got %v", entries[10].Kind)
	}
}

func TestRepairXRef(t *testing.T) {
	data := []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n" +
		"2 0 obj << /Type /Pages /Count 0 /Kids [] >> endobj\n" +
		"2 0 obj << /Type /Pages /Count 0 /Kids [] /Newer true >> endobj\n" +
		"%%EOF\n")
	table, err := LoadXRef(data)
	if err != nil {
		t.Fatalf("LoadXRef failed: %v", err)
	}
	if !table.Repaired {
		t.Error("expected repaired table")
	}
	if ref, _ := table.Trailer["Root"].(IndirectRef); ref.Number != 1 {
		t.Errorf("expected catalog 1 as root, got %v", table.Trailer["Root"])
	}
	e, _ := table.Get(2)
	obj, err := NewParser(data).ParseIndirectObjectAt(int(e.Offset))
	if err != nil {
		t.Fatalf("parse repaired object: %v", err)
	}
	if !obj.Object.(Dict).Has("Newer") {
		t.Error("expected the later definition to win")
	}
}

func TestRepairXRefNoObjects(t *testing.T) {
	if _, err := LoadXRef([]byte("not a pdf at all")); err == nil {
		t.Error("expected error")
	}
}

func TestObjectHeaderBefore(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
		num   int
	}{
		{"12 0 obj", true, 12},
		{"\n3   1 obj<<", true, 3},
		{"endobj", false, 0},
		{"x12 0 obj", false, 0},
		{"12 0 objx", false, 0},
	}
	for _, tc := range tests {
		at := bytes.LastIndex([]byte(tc.input), []byte("obj"))
		_, num, _, ok := objectHeaderBefore([]byte(tc.input), at)
		if ok != tc.ok || num != tc.num {
			t.Errorf("%q: expected (%d, %v), got (%d, %v)", tc.input, tc.num, tc.ok, num, ok)
		}
	}
}
