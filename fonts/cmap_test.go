package fonts

import "testing"

const sampleCMap = `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CMapName /Test-H def
/WMode 1 def
2 begincodespacerange
<00> <7F>
<8140> <9FFC>
endcodespacerange
1 begincidrange
<8140> <817E> 633
endcidrange
1 begincidchar
<41> 34
endcidchar
2 beginbfchar
<41> <0041>
<8140> <3000>
endbfchar
2 beginbfrange
<0061> <0063> <0061>
<0070> <0071> [<00660069> /eacute]
endbfrange
endcmap
CMapName currentdict /CMap defineresource pop
end
end`

// TestParseCMap tests codespace, CID and Unicode mappings
func TestParseCMap(t *testing.T) {
	cm, err := ParseCMap([]byte(sampleCMap))
	if err != nil {
		t.Fatalf("ParseCMap failed: %v", err)
	}
	if cm.Name != "Test-H" || !cm.Vertical {
		t.Errorf("name = %q vertical = %v", cm.Name, cm.Vertical)
	}

	data := []byte{0x41, 0x81, 0x42, 0xA0}
	code, n := cm.Next(data)
	if code != 0x41 || n != 1 {
		t.Errorf("first code = %#x/%d", code, n)
	}
	code, n = cm.Next(data[1:])
	if code != 0x8142 || n != 2 {
		t.Errorf("second code = %#x/%d", code, n)
	}
	// 0xA0 matches no range and is consumed with the shortest length.
	code, n = cm.Next(data[3:])
	if code != 0xA0 || n != 1 {
		t.Errorf("invalid code = %#x/%d", code, n)
	}

	cidTests := []struct {
		code uint32
		n    int
		want uint32
	}{
		{0x41, 1, 34},
		{0x8140, 2, 633},
		{0x8142, 2, 635},
		{0x42, 1, 0},
	}
	for _, tt := range cidTests {
		if got := cm.CID(tt.code, tt.n); got != tt.want {
			t.Errorf("CID(%#x) = %d, want %d", tt.code, got, tt.want)
		}
	}

	uniTests := []struct {
		code uint32
		want string
		ok   bool
	}{
		{0x41, "A", true},
		{0x8140, "　", true},
		{0x62, "b", true},
		{0x70, "fi", true},
		{0x71, "é", true},
		{0x64, "", false},
	}
	for _, tt := range uniTests {
		got, ok := cm.Unicode(tt.code)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Unicode(%#x) = %q, %v; want %q, %v", tt.code, got, ok, tt.want, tt.ok)
		}
	}
}

// TestPredefinedCMap tests the modelled predefined CMaps
func TestPredefinedCMap(t *testing.T) {
	tests := []struct {
		name     string
		ok       bool
		vertical bool
		unicode  bool
	}{
		{"Identity-H", true, false, false},
		{"Identity-V", true, true, false},
		{"UniGB-UCS2-H", true, false, true},
		{"UniJIS-UTF16-V", true, true, true},
		{"90ms-RKSJ-H", false, false, false},
	}
	for _, tt := range tests {
		cm, ok := PredefinedCMap(tt.name)
		if ok != tt.ok || cm.Vertical != tt.vertical || cm.unicodeCodes != tt.unicode {
			t.Errorf("%s: ok=%v vertical=%v unicode=%v", tt.name, ok, cm.Vertical, cm.unicodeCodes)
		}
		code, n := cm.Next([]byte{0x12, 0x34})
		if code != 0x1234 || n != 2 {
			t.Errorf("%s: Next = %#x/%d", tt.name, code, n)
		}
		if cid := cm.CID(code, n); cid != 0x1234 {
			t.Errorf("%s: CID = %#x", tt.name, cid)
		}
	}
	cm, _ := PredefinedCMap("UniGB-UCS2-H")
	if s, ok := cm.Unicode(0x4E2D); !ok || s != "中" {
		t.Errorf("UCS2 Unicode = %q, %v", s, ok)
	}
}

// TestParseCMapUseCMap tests inheriting an Identity base
func TestParseCMapUseCMap(t *testing.T) {
	cm, err := ParseCMap([]byte("/Identity-H usecmap begincmap endcmap"))
	if err != nil {
		t.Fatalf("ParseCMap failed: %v", err)
	}
	if cm.Empty() {
		t.Error("usecmap Identity-H left the CMap empty")
	}
	if code, n := cm.Next([]byte{1, 2}); code != 0x0102 || n != 2 {
		t.Errorf("Next = %#x/%d", code, n)
	}
}

// TestParseCMapBroken tests that garbage is skipped
func TestParseCMapBroken(t *testing.T) {
	cm, err := ParseCMap([]byte("] >> 1 beginbfchar <01> <0058> endbfchar ] <02"))
	if err != nil {
		t.Fatalf("ParseCMap failed: %v", err)
	}
	if s, ok := cm.Unicode(1); !ok || s != "X" {
		t.Errorf("Unicode(1) = %q, %v", s, ok)
	}
}

// TestCodeValue tests big-endian code values from strings and byte slices
func TestCodeValue(t *testing.T) {
	if got := codeValue("\x81\x40"); got != 0x8140 {
		t.Errorf("codeValue(string) = %#x, want 0x8140", got)
	}
	if got := codeValue([]byte{0x00, 0x01, 0x02}); got != 0x0102 {
		t.Errorf("codeValue([]byte) = %#x, want 0x102", got)
	}
	if got := codeValue(""); got != 0 {
		t.Errorf("codeValue(empty) = %#x, want 0", got)
	}
}
