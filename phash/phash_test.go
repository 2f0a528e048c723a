package phash

import (
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"testing"
)

func fill(w, h int, at func(x, y int) uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := at(x, y)
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func TestAverage(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
		want Hash
	}{
		{"uniform white", fill(64, 64, func(int, int) uint8 { return 255 }), 0},
		{"uniform grey", fill(30, 50, func(int, int) uint8 { return 90 }), 0},
		{
			"right half bright",
			fill(64, 64, func(x, _ int) uint8 {
				if x >= 32 {
					return 255
				}
				return 0
			}),
			0xF0F0F0F0F0F0F0F0,
		},
		{
			"bottom half bright",
			fill(64, 64, func(_, y int) uint8 {
				if y >= 32 {
					return 255
				}
				return 0
			}),
			0xFFFFFFFF00000000,
		},
		{
			"first pixel is bit zero",
			fill(8, 8, func(x, y int) uint8 {
				if x == 0 && y == 0 {
					return 255
				}
				return 0
			}),
			1,
		},
		{"empty", image.NewRGBA(image.Rectangle{}), 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Average(tc.img); got != tc.want {
				t.Errorf("Average = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b Hash
		want int
	}{
		{0, 0, 0},
		{0xff, 0, 8},
		{0, 0xffffffffffffffff, 64},
		{0xF0F0, 0x0FF0, 8},
		{0x8000000000000001, 1, 1},
	}
	for _, tc := range tests {
		if got := Distance(tc.a, tc.b); got != tc.want {
			t.Errorf("Distance(%s, %s) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
		if got := Distance(tc.b, tc.a); got != tc.want {
			t.Errorf("Distance(%s, %s) = %d, want %d", tc.b, tc.a, got, tc.want)
		}
	}
}

func TestHashString(t *testing.T) {
	h := Hash(0xabc)
	if got := h.String(); got != "0000000000000abc" {
		t.Errorf("String = %q", got)
	}
	back, err := ParseHash(h.String())
	if err != nil || back != h {
		t.Errorf("ParseHash = %v, %v", back, err)
	}
	if _, err := ParseHash("xyz"); err == nil {
		t.Error("expected error for invalid hex")
	}
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{"", AverageHash, false},
		{"average", AverageHash, false},
		{"difference", DifferenceHash, false},
		{"perception", PerceptionHash, false},
		{"wavelet", "", true},
	}
	for _, tc := range tests {
		got, err := ParseAlgorithm(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrUnknownAlgorithm) {
				t.Errorf("ParseAlgorithm(%q) error = %v, want ErrUnknownAlgorithm", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseAlgorithm(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestAlgorithmsAreStable(t *testing.T) {
	gradient := func() image.Image {
		return fill(40, 60, func(x, y int) uint8 { return uint8((x*5 + y*3) % 256) })
	}
	for _, alg := range []Algorithm{AverageHash, DifferenceHash, PerceptionHash} {
		t.Run(string(alg), func(t *testing.T) {
			a, err := alg.Compute(gradient())
			if err != nil {
				t.Fatalf("Compute failed: %v", err)
			}
			b, err := alg.Compute(gradient())
			if err != nil {
				t.Fatalf("Compute failed: %v", err)
			}
			if a != b {
				t.Errorf("hashes differ: %s vs %s", a, b)
			}
		})
	}
	if _, err := Algorithm("bogus").Compute(gradient()); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("err = %v, want ErrUnknownAlgorithm", err)
	}
}

func TestBands(t *testing.T) {
	tests := []struct {
		height              int
		top, middle, bottom int
	}{
		{9, 3, 3, 3},
		{10, 3, 3, 4},
		{11, 3, 3, 5},
		{2, 0, 0, 2},
	}
	for _, tc := range tests {
		b := Bands(image.Rect(0, 0, 5, tc.height))
		if b[Top].Dy() != tc.top || b[Middle].Dy() != tc.middle || b[Bottom].Dy() != tc.bottom {
			t.Errorf("height %d: bands %d/%d/%d, want %d/%d/%d", tc.height,
				b[Top].Dy(), b[Middle].Dy(), b[Bottom].Dy(), tc.top, tc.middle, tc.bottom)
		}
		if b[Bottom].Max.Y != tc.height {
			t.Errorf("height %d: bottom ends at %d", tc.height, b[Bottom].Max.Y)
		}
	}
}

func TestRegions(t *testing.T) {
	// Only the middle third is dark.
	img := fill(30, 30, func(_, y int) uint8 {
		if y >= 10 && y < 20 {
			return 0
		}
		return 255
	})
	rh, err := Regions(img, AverageHash)
	if err != nil {
		t.Fatal(err)
	}
	if len(rh) != 3 {
		t.Fatalf("got %d regions", len(rh))
	}
	for i, r := range AllRegions {
		if rh[i].Region != r {
			t.Errorf("region %d = %s, want %s", i, rh[i].Region, r)
		}
		if rh[i].Hash != 0 {
			t.Errorf("uniform region %s hashed to %s", r, rh[i].Hash)
		}
	}

	tiny, err := Regions(fill(4, 2, func(int, int) uint8 { return 0 }), AverageHash)
	if err != nil {
		t.Fatal(err)
	}
	if len(tiny) != 1 || tiny[0].Region != Bottom {
		t.Errorf("tiny image regions = %v, want bottom only", tiny)
	}
}

func TestCompareRegions(t *testing.T) {
	a := RegionHashes{{Top, 0}, {Middle, 0xff}, {Bottom, 1}}
	b := RegionHashes{{Bottom, 3}, {Middle, 0x0f}}
	got := CompareRegions(a, b)
	want := []RegionDistance{{Top, -1}, {Middle, 4}, {Bottom, 1}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if got := CompareRegions(nil, b); len(got) != 0 {
		t.Errorf("empty a gave %v", got)
	}
}

func TestHashJSON(t *testing.T) {
	in := RegionHashes{{Region: Top, Hash: 0xdeadbeef}}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if want := `[{"region":"top","hash":"00000000deadbeef"}]`; string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
	var out RegionHashes
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0] != in[0] {
		t.Errorf("round trip = %v", out)
	}
}
