package filters

import (
	"bytes"
	"compress/lzw"
	"compress/zlib"
	"testing"
)

func zlibCompress(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

func TestFlateDecode(t *testing.T) {
	original := []byte("Hello, World! This is test data for FlateDecode.")
	decoded, err := FlateDecode(zlibCompress(original), nil)
	if err != nil {
		t.Fatalf("FlateDecode failed: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Errorf("expected %q, got %q", original, decoded)
	}
}

func TestFlateDecodeTruncated(t *testing.T) {
	original := bytes.Repeat([]byte("truncated stream content "), 200)
	packed := zlibCompress(original)
	decoded, err := FlateDecode(packed[:len(packed)-10], nil)
	if err != nil {
		t.Fatalf("expected partial data, got error: %v", err)
	}
	if len(decoded) == 0 || !bytes.HasPrefix(original, decoded) {
		t.Errorf("expected a prefix of the original, got %d bytes", len(decoded))
	}
}

func TestFlateDecodeInvalid(t *testing.T) {
	// Not a zlib header, and a raw deflate block of the reserved type 3.
	if _, err := FlateDecode([]byte{0x07, 0x00, 0x00}, nil); err == nil {
		t.Error("expected error for invalid data")
	}
}

func TestPNGPredictors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want []byte
	}{
		{"none", []byte{0, 1, 2, 3, 0, 4, 5, 6}, []byte{1, 2, 3, 4, 5, 6}},
		{"sub", []byte{1, 1, 1, 1, 1, 5, 1, 1}, []byte{1, 2, 3, 5, 6, 7}},
		{"up", []byte{0, 1, 2, 3, 2, 1, 1, 1}, []byte{1, 2, 3, 2, 3, 4}},
		{"average", []byte{0, 2, 4, 6, 3, 1, 1, 1}, []byte{2, 4, 6, 2, 4, 6}},
		{"paeth", []byte{0, 1, 2, 3, 4, 1, 1, 1}, []byte{1, 2, 3, 2, 3, 4}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := applyPredictor(tc.data, Params{"Predictor": 15, "Columns": 3})
			if err != nil {
				t.Fatalf("applyPredictor failed: %v", err)
			}
			if !bytes.Equal(got, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestPNGPredictorMultiByte(t *testing.T) {
	// Two RGB pixels per row, Sub filter: bpp is 3.
	data := []byte{1, 10, 20, 30, 1, 2, 3}
	got, err := applyPredictor(data, Params{"Predictor": 11, "Columns": 2, "Colors": 3})
	if err != nil {
		t.Fatalf("applyPredictor failed: %v", err)
	}
	want := []byte{10, 20, 30, 11, 22, 33}
	if !bytes.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestPNGPredictorUnknownType(t *testing.T) {
	if _, err := applyPredictor([]byte{9, 1, 2}, Params{"Predictor": 10, "Columns": 2}); err == nil {
		t.Error("expected error for unknown row filter")
	}
}

func TestTIFFPredictor(t *testing.T) {
	got, err := applyPredictor([]byte{1, 1, 1, 5, 1, 1}, Params{"Predictor": 2, "Columns": 3})
	if err != nil {
		t.Fatalf("applyPredictor failed: %v", err)
	}
	want := []byte{1, 2, 3, 5, 6, 7}
	if !bytes.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestUnsupportedPredictor(t *testing.T) {
	if _, err := applyPredictor([]byte{1}, Params{"Predictor": 7}); err == nil {
		t.Error("expected error for predictor 7")
	}
}

func TestLZWDecode(t *testing.T) {
	// compress/lzw with MSB order and litWidth 8 produces the same code
	// stream as PDF's LZWDecode with EarlyChange 0 apart from the EOD code,
	// which the decoder treats as end of data either way.
	original := bytes.Repeat([]byte("TOBEORNOTTOBEORTOBEORNOT#"), 40)
	var buf bytes.Buffer
	w := lzw.NewWriter(&buf, lzw.MSB, 8)
	w.Write(original)
	w.Close()

	got, err := LZWDecode(buf.Bytes(), Params{"EarlyChange": 0})
	if err != nil {
		t.Fatalf("LZWDecode failed: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("round trip mismatch: got %d bytes, want %d", len(got), len(original))
	}
}

func TestLZWDecodeKnownVector(t *testing.T) {
	// Example from the PDF reference: 800C 2DE0 ... encodes "-----A---B".
	data := []byte{0x80, 0x0B, 0x60, 0x50, 0x22, 0x0C, 0x0C, 0x85, 0x01}
	got, err := LZWDecode(data, nil)
	if err != nil {
		t.Fatalf("LZWDecode failed: %v", err)
	}
	if string(got) != "-----A---B" {
		t.Errorf("expected %q, got %q", "-----A---B", got)
	}
}

func TestLZWDecodeTruncated(t *testing.T) {
	original := bytes.Repeat([]byte("truncated lzw content "), 100)
	var buf bytes.Buffer
	w := lzw.NewWriter(&buf, lzw.MSB, 8)
	w.Write(original)
	w.Close()
	data := buf.Bytes()[:buf.Len()/2]

	got, err := LZWDecode(data, Params{"EarlyChange": 0})
	if err != nil {
		t.Fatalf("expected partial data, got error: %v", err)
	}
	if len(got) == 0 || !bytes.HasPrefix(original, got) {
		t.Errorf("partial output is not a prefix: %d bytes", len(got))
	}
}

func TestLZWDecodeInvalid(t *testing.T) {
	// 0x1FF as the first 9-bit code is beyond the table.
	if _, err := LZWDecode([]byte{0xFF, 0x80}, nil); err == nil {
		t.Error("expected error for invalid code")
	}
}

func TestRunLengthDecode(t *testing.T) {
	data := []byte{2, 'a', 'b', 'c', 254, 'x', 0, 'z', 128, 'i', 'g'}
	got, err := RunLengthDecode(data)
	if err != nil {
		t.Fatalf("RunLengthDecode failed: %v", err)
	}
	if string(got) != "abcxxxz" {
		t.Errorf("expected %q, got %q", "abcxxxz", got)
	}
}

func TestASCIIHexDecode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"48656C6C6F>", "Hello"},
		{"48 65 6c\n6c 6f", "Hello"},
		{"414>", "A@"},
	}
	for _, tc := range tests {
		got, err := ASCIIHexDecode([]byte(tc.in))
		if err != nil {
			t.Fatalf("%q: ASCIIHexDecode failed: %v", tc.in, err)
		}
		if string(got) != tc.want {
			t.Errorf("%q: expected %q, got %q", tc.in, tc.want, got)
		}
	}
	if _, err := ASCIIHexDecode([]byte("4G")); err == nil {
		t.Error("expected error for invalid digit")
	}
}

func TestASCII85Decode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"87cURDZ~>", "Hello"},
		{"<~87cURDZ~>", "Hello"},
		{"z~>", "\x00\x00\x00\x00"},
		{"87cU RD\nZ", "Hello"},
		{"9jqo^~>", "Man "},
	}
	for _, tc := range tests {
		got, err := ASCII85Decode([]byte(tc.in))
		if err != nil {
			t.Fatalf("%q: ASCII85Decode failed: %v", tc.in, err)
		}
		if string(got) != tc.want {
			t.Errorf("%q: expected %q, got %q", tc.in, tc.want, got)
		}
	}
	if _, err := ASCII85Decode([]byte("ab{")); err == nil {
		t.Error("expected error for invalid character")
	}
}

func TestParamGetters(t *testing.T) {
	p := Params{"I": 3, "F": 2.0, "B": true, "S": "x"}
	if getIntParam(p, "I", 0) != 3 || getIntParam(p, "F", 0) != 2 || getIntParam(p, "S", 7) != 7 {
		t.Error("unexpected getIntParam results")
	}
	if !getBoolParam(p, "B", false) || getBoolParam(nil, "B", false) {
		t.Error("unexpected getBoolParam results")
	}
}
