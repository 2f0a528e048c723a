// Package phash computes 64-bit perceptual hashes of rendered pages.
//
// The average hash (aHash) scales an image to 8x8 with bilinear filtering,
// converts it to grey and sets bit i, counting pixels row by row from the
// top left, when pixel i is brighter than the truncated mean of all 64
// pixels. Bit 0 is the least significant bit. Difference and perception
// hashes come from github.com/corona10/goimagehash.
//
// Two hashes are compared with [Distance], the number of differing bits.
// [Regions] hashes the top, middle and bottom thirds of a page separately
// so that pages sharing a letterhead but differing in body can be told
// apart.
package phash
