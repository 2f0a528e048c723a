// Package dedupe groups documents by perceptual hash.
//
// Grouping is greedy and order dependent. Files are visited in input order;
// the first file not yet assigned anchors a new group, and every later
// unassigned file close enough to the anchor joins it. Distances are always
// measured to the anchor, so membership is not transitive: two members of a
// group may be further apart than the threshold, and a file near a member
// but far from the anchor starts or joins another group.
package dedupe
