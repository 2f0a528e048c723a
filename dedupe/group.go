package dedupe

import (
	"github.com/sbkohel/pdf-dedupe/phash"
)

// FileHash is the hash of one file's rendered page.
type FileHash struct {
	Name string     `json:"name"`
	Hash phash.Hash `json:"hash"`
}

// FileRegions holds the region hashes of one file's rendered page.
type FileRegions struct {
	Name    string             `json:"name"`
	Regions phash.RegionHashes `json:"regions"`
}

// FileDigest is the content digest of one file in hex.
type FileDigest struct {
	Name   string `json:"name"`
	Digest string `json:"digest"`
}

// Group is an ordered list of file names. The first member is the anchor.
type Group []string

// Anchor returns the file the group was formed around.
func (g Group) Anchor() string {
	if len(g) == 0 {
		return ""
	}
	return g[0]
}

// Contains reports whether name is a member.
func (g Group) Contains(name string) bool {
	for _, n := range g {
		if n == name {
			return true
		}
	}
	return false
}

// greedy forms groups over n items. joins reports whether item j belongs
// with anchor i.
func greedy(n int, joins func(i, j int) bool) [][]int {
	seen := make([]bool, n)
	var groups [][]int
	for i := 0; i < n; i++ {
		if seen[i] {
			continue
		}
		seen[i] = true
		g := []int{i}
		for j := i + 1; j < n; j++ {
			if !seen[j] && joins(i, j) {
				seen[j] = true
				g = append(g, j)
			}
		}
		groups = append(groups, g)
	}
	return groups
}

// GroupDuplicates returns groups of at least two files whose hashes are
// within threshold bits of their anchor. The bound is inclusive.
func GroupDuplicates(hashes []FileHash, threshold int) []Group {
	var out []Group
	for _, idx := range greedy(len(hashes), func(i, j int) bool {
		return phash.Distance(hashes[i].Hash, hashes[j].Hash) <= threshold
	}) {
		if len(idx) < 2 {
			continue
		}
		g := make(Group, len(idx))
		for k, i := range idx {
			g[k] = hashes[i].Name
		}
		out = append(out, g)
	}
	return out
}

// Originals lists one representative per document: the anchor of every
// group in group order, then every file that is in no group, in input
// order. Each name appears once.
func Originals(hashes []FileHash, groups []Group) []string {
	listed := make(map[string]bool)
	grouped := make(map[string]bool)
	var out []string
	for _, g := range groups {
		for _, n := range g {
			grouped[n] = true
		}
		if a := g.Anchor(); a != "" && !listed[a] {
			listed[a] = true
			out = append(out, a)
		}
	}
	for _, fh := range hashes {
		if !grouped[fh.Name] && !listed[fh.Name] {
			listed[fh.Name] = true
			out = append(out, fh.Name)
		}
	}
	return out
}

// FindDuplicatesFor returns a copy of the group containing name, name
// included, or nil when name is in no group.
func FindDuplicatesFor(groups []Group, name string) Group {
	for _, g := range groups {
		if g.Contains(name) {
			return append(Group(nil), g...)
		}
	}
	return nil
}

// GroupRegionWise groups files whose every region is within tolerance of
// the anchor's. A region missing on either side never matches, so files
// with different region counts stay apart. All groups are returned,
// singletons included.
func GroupRegionWise(files []FileRegions, tolerance int) []Group {
	idx := greedy(len(files), func(i, j int) bool {
		if len(files[i].Regions) != len(files[j].Regions) {
			return false
		}
		for _, d := range phash.CompareRegions(files[i].Regions, files[j].Regions) {
			if d.Distance < 0 || d.Distance > tolerance {
				return false
			}
		}
		return true
	})
	out := make([]Group, len(idx))
	for k, members := range idx {
		g := make(Group, len(members))
		for m, i := range members {
			g[m] = files[i].Name
		}
		out[k] = g
	}
	return out
}

// ExactGroups returns groups of at least two files with the same digest,
// ordered by their first member.
func ExactGroups(digests []FileDigest) []Group {
	var out []Group
	for _, idx := range greedy(len(digests), func(i, j int) bool {
		return digests[i].Digest == digests[j].Digest
	}) {
		if len(idx) < 2 {
			continue
		}
		g := make(Group, len(idx))
		for k, i := range idx {
			g[k] = digests[i].Name
		}
		out = append(out, g)
	}
	return out
}

// Sizes counts groups by whether they hold duplicates.
func Sizes(groups []Group) (duplicate, single int) {
	for _, g := range groups {
		if len(g) > 1 {
			duplicate++
		} else {
			single++
		}
	}
	return duplicate, single
}
