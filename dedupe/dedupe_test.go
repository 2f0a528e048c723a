package dedupe

import (
	"reflect"
	"testing"

	"github.com/sbkohel/pdf-dedupe/phash"
)

func TestGroupDuplicates(t *testing.T) {
	tests := []struct {
		name      string
		hashes    []FileHash
		threshold int
		want      []Group
	}{
		{
			name:      "empty",
			hashes:    nil,
			threshold: 8,
			want:      nil,
		},
		{
			name:      "identical pair",
			hashes:    []FileHash{{"a.pdf", 0xff}, {"b.pdf", 0xff}, {"c.pdf", 0xff00ff00ff00ff00}},
			threshold: 0,
			want:      []Group{{"a.pdf", "b.pdf"}},
		},
		{
			name:      "threshold inclusive",
			hashes:    []FileHash{{"a.pdf", 0}, {"b.pdf", 0xff}, {"c.pdf", 0x1ff}},
			threshold: 8,
			want:      []Group{{"a.pdf", "b.pdf"}},
		},
		{
			// b is within 4 of both a and c, but a and c are 8 apart.
			name:      "not transitive",
			hashes:    []FileHash{{"a.pdf", 0x00}, {"b.pdf", 0x0f}, {"c.pdf", 0xff}},
			threshold: 4,
			want:      []Group{{"a.pdf", "b.pdf"}},
		},
		{
			name:      "anchor order",
			hashes:    []FileHash{{"x.pdf", 0xf0}, {"a.pdf", 0}, {"y.pdf", 0xf1}, {"b.pdf", 1}},
			threshold: 1,
			want:      []Group{{"x.pdf", "y.pdf"}, {"a.pdf", "b.pdf"}},
		},
		{
			name:      "singletons excluded",
			hashes:    []FileHash{{"a.pdf", 0}, {"b.pdf", ^phash.Hash(0)}},
			threshold: 8,
			want:      nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := GroupDuplicates(tc.hashes, tc.threshold)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("GroupDuplicates = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOriginals(t *testing.T) {
	hashes := []FileHash{{"a.pdf", 0}, {"solo.pdf", 0xffff}, {"b.pdf", 0}, {"c.pdf", 0xff00000000}, {"d.pdf", 0xff00000000}}
	groups := GroupDuplicates(hashes, 2)
	got := Originals(hashes, groups)
	want := []string{"a.pdf", "c.pdf", "solo.pdf"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Originals = %v, want %v", got, want)
	}

	// A name listed in two groups is reported once.
	dup := Originals(nil, []Group{{"a.pdf", "b.pdf"}, {"a.pdf", "c.pdf"}})
	if !reflect.DeepEqual(dup, []string{"a.pdf"}) {
		t.Errorf("Originals with repeated anchor = %v", dup)
	}
}

func TestFindDuplicatesFor(t *testing.T) {
	groups := []Group{{"a.pdf", "b.pdf"}, {"c.pdf", "d.pdf", "e.pdf"}}
	tests := []struct {
		name string
		want Group
	}{
		{"a.pdf", Group{"a.pdf", "b.pdf"}},
		{"e.pdf", Group{"c.pdf", "d.pdf", "e.pdf"}},
		{"missing.pdf", nil},
	}
	for _, tc := range tests {
		got := FindDuplicatesFor(groups, tc.name)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("FindDuplicatesFor(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}

	got := FindDuplicatesFor(groups, "a.pdf")
	got[0] = "changed"
	if groups[0][0] != "a.pdf" {
		t.Error("FindDuplicatesFor returned the group itself, not a copy")
	}
}

func regions(top, middle, bottom phash.Hash) phash.RegionHashes {
	return phash.RegionHashes{{Region: phash.Top, Hash: top}, {Region: phash.Middle, Hash: middle}, {Region: phash.Bottom, Hash: bottom}}
}

func TestGroupRegionWise(t *testing.T) {
	files := []FileRegions{
		{"a.pdf", regions(1, 2, 3)},
		{"b.pdf", regions(1, 2, 7)},
		{"c.pdf", regions(1, 2, 3)},
		{"short.pdf", phash.RegionHashes{{Region: phash.Bottom, Hash: 3}}},
		{"d.pdf", regions(1, 2, 7)},
	}
	tests := []struct {
		tolerance int
		want      []Group
	}{
		{0, []Group{{"a.pdf", "c.pdf"}, {"b.pdf", "d.pdf"}, {"short.pdf"}}},
		{1, []Group{{"a.pdf", "b.pdf", "c.pdf", "d.pdf"}, {"short.pdf"}}},
	}
	for _, tc := range tests {
		got := GroupRegionWise(files, tc.tolerance)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("tolerance %d: GroupRegionWise = %v, want %v", tc.tolerance, got, tc.want)
		}
	}
}

func TestGroupRegionWiseRegionCount(t *testing.T) {
	twoRegions := phash.RegionHashes{{Region: phash.Top, Hash: 1}, {Region: phash.Middle, Hash: 2}}
	tests := []struct {
		name  string
		files []FileRegions
		want  []Group
	}{
		{
			name:  "anchor has fewer regions",
			files: []FileRegions{{"a.pdf", twoRegions}, {"b.pdf", regions(1, 2, 3)}},
			want:  []Group{{"a.pdf"}, {"b.pdf"}},
		},
		{
			name:  "member has fewer regions",
			files: []FileRegions{{"a.pdf", regions(1, 2, 3)}, {"b.pdf", twoRegions}},
			want:  []Group{{"a.pdf"}, {"b.pdf"}},
		},
		{
			name:  "same partial regions",
			files: []FileRegions{{"a.pdf", twoRegions}, {"b.pdf", twoRegions}},
			want:  []Group{{"a.pdf", "b.pdf"}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := GroupRegionWise(tc.files, 64); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("GroupRegionWise = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestExactGroups(t *testing.T) {
	digests := []FileDigest{{"a.pdf", "aa"}, {"b.pdf", "bb"}, {"c.pdf", "aa"}, {"d.pdf", "cc"}, {"e.pdf", "bb"}}
	want := []Group{{"a.pdf", "c.pdf"}, {"b.pdf", "e.pdf"}}
	if got := ExactGroups(digests); !reflect.DeepEqual(got, want) {
		t.Errorf("ExactGroups = %v, want %v", got, want)
	}
}

func TestSizes(t *testing.T) {
	dup, single := Sizes([]Group{{"a"}, {"b", "c"}, {"d"}})
	if dup != 1 || single != 2 {
		t.Errorf("Sizes = %d, %d", dup, single)
	}
}

func TestAnchor(t *testing.T) {
	if got := (Group{"x", "y"}).Anchor(); got != "x" {
		t.Errorf("Anchor = %q", got)
	}
	if got := (Group{}).Anchor(); got != "" {
		t.Errorf("empty Anchor = %q", got)
	}
}
