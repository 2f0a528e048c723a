package core

import (
	"testing"
)

func TestObjectStream(t *testing.T) {
	body := "<< /A 1 >> [1 2 3] (str)"
	header := "10 0 11 11 12 19 "
	stream := &Stream{
		Dict: Dict{"Type": Name("ObjStm"), "N": Int(3), "First": Int(len(header)), "Filter": Name("FlateDecode")},
		Data: deflate([]byte(header + body)),
	}
	os, err := NewObjectStream(stream)
	if err != nil {
		t.Fatalf("NewObjectStream failed: %v", err)
	}
	if os.Len() != 3 {
		t.Fatalf("expected 3 objects, got %d", os.Len())
	}
	if nums := os.ObjectNumbers(); nums[0] != 10 || nums[2] != 12 {
		t.Errorf("unexpected object numbers: %v", nums)
	}

	obj, err := os.Object(11, -1)
	if err != nil {
		t.Fatalf("Object(11) failed: %v", err)
	}
	if arr, ok := obj.(Array); !ok || len(arr) != 3 {
		t.Errorf("expected 3-element array, got %v", obj)
	}
	obj, err = os.Object(12, 2)
	if err != nil || obj != String("str") {
		t.Errorf("expected (str), got %v, %v", obj, err)
	}
	obj, _, err = os.ObjectAt(0)
	if err != nil {
		t.Fatalf("ObjectAt(0) failed: %v", err)
	}
	if d, ok := obj.(Dict); !ok || !d.Has("A") {
		t.Errorf("expected dict with /A, got %v", obj)
	}
	if _, err := os.Object(99, -1); err == nil {
		t.Error("expected error for missing object")
	}
}

func TestObjectStreamInvalid(t *testing.T) {
	tests := []struct {
		name string
		dict Dict
	}{
		{"wrong type", Dict{"Type": Name("XRef"), "N": Int(1), "First": Int(0)}},
		{"missing N", Dict{"Type": Name("ObjStm"), "First": Int(0)}},
		{"First too large", Dict{"Type": Name("ObjStm"), "N": Int(1), "First": Int(100)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewObjectStream(&Stream{Dict: tc.dict, Data: []byte("1 0")}); err == nil {
				t.Error("expected error")
			}
		})
	}
}
