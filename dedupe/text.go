package dedupe

import (
	"strings"
	"unicode"
)

// ConfirmText splits groups whose members do not read alike. A member
// stays with its anchor when the word similarity of their texts is at
// least minSimilarity; the members that fail are grouped again among
// themselves the same way. Members without text stay where they are.
// Splitting can leave single-file groups.
func ConfirmText(groups []Group, texts map[string]string, minSimilarity float64) []Group {
	var out []Group
	for _, g := range groups {
		out = append(out, splitByText(g, texts, minSimilarity)...)
	}
	return out
}

func splitByText(g Group, texts map[string]string, minSimilarity float64) []Group {
	if len(g) == 0 {
		return nil
	}
	anchorText, anchorKnown := texts[g.Anchor()]
	keep := Group{g.Anchor()}
	var rest Group
	for _, name := range g[1:] {
		text, known := texts[name]
		if !anchorKnown || !known || Similarity(anchorText, text) >= minSimilarity {
			keep = append(keep, name)
		} else {
			rest = append(rest, name)
		}
	}
	return append([]Group{keep}, splitByText(rest, texts, minSimilarity)...)
}

// Similarity is the Jaccard index of the case-folded word sets of a and
// b. Two texts without words are identical.
func Similarity(a, b string) float64 {
	wa, wb := words(a), words(b)
	if len(wa) == 0 && len(wb) == 0 {
		return 1
	}
	common := 0
	for w := range wa {
		if wb[w] {
			common++
		}
	}
	union := len(wa) + len(wb) - common
	return float64(common) / float64(union)
}

func words(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		set[w] = true
	}
	return set
}
