package dedupe

import (
	"math"
	"reflect"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"Invoice 42", "invoice 42", 1},
		{"invoice 42", "invoice 43", 1.0 / 3},
		{"alpha beta", "", 0},
		{"a, b; c.", "c b a", 1},
	}
	for _, tc := range tests {
		if got := Similarity(tc.a, tc.b); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestConfirmText(t *testing.T) {
	groups := []Group{{"a.pdf", "b.pdf", "c.pdf", "d.pdf"}, {"x.pdf", "y.pdf"}}
	texts := map[string]string{
		"a.pdf": "invoice march acme",
		"b.pdf": "invoice march acme",
		"c.pdf": "contract april",
		"d.pdf": "contract april",
		"x.pdf": "report",
	}
	got := ConfirmText(groups, texts, 0.8)
	want := []Group{{"a.pdf", "b.pdf"}, {"c.pdf", "d.pdf"}, {"x.pdf", "y.pdf"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ConfirmText = %v, want %v", got, want)
	}

	split := ConfirmText([]Group{{"a.pdf", "c.pdf"}}, texts, 0.8)
	if !reflect.DeepEqual(split, []Group{{"a.pdf"}, {"c.pdf"}}) {
		t.Errorf("ConfirmText split = %v", split)
	}
}
