package phash

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math/bits"
	"strconv"

	"github.com/corona10/goimagehash"
	"golang.org/x/image/draw"
)

// ErrUnknownAlgorithm is returned for an algorithm name that is not one of
// average, difference or perception.
var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

// Hash is a 64-bit perceptual hash.
type Hash uint64

// String returns the hash as 16 lower-case hex digits.
func (h Hash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// MarshalText encodes the hash in its hex form.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText decodes the hex form.
func (h *Hash) UnmarshalText(text []byte) error {
	v, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// ParseHash parses the hex form produced by String.
func ParseHash(s string) (Hash, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse hash %q: %w", s, err)
	}
	return Hash(v), nil
}

// Distance returns the Hamming distance between two hashes, 0 to 64.
func Distance(a, b Hash) int {
	return bits.OnesCount64(uint64(a ^ b))
}

// Algorithm names a hash function.
type Algorithm string

const (
	AverageHash    Algorithm = "average"
	DifferenceHash Algorithm = "difference"
	PerceptionHash Algorithm = "perception"
)

// ParseAlgorithm validates an algorithm name. The empty string selects the
// average hash.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch a := Algorithm(name); a {
	case "":
		return AverageHash, nil
	case AverageHash, DifferenceHash, PerceptionHash:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Compute hashes img with the algorithm.
func (a Algorithm) Compute(img image.Image) (Hash, error) {
	switch a {
	case AverageHash, "":
		return Average(img), nil
	case DifferenceHash:
		return Difference(img)
	case PerceptionHash:
		return Perception(img)
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, string(a))
}

// Average returns the average hash of img. An empty image hashes to 0.
func Average(img image.Image) Hash {
	if img.Bounds().Empty() {
		return 0
	}
	small := image.NewGray(image.Rect(0, 0, 8, 8))
	rgba := image.NewRGBA(small.Rect)
	draw.BiLinear.Scale(rgba, rgba.Bounds(), img, img.Bounds(), draw.Src, nil)
	draw.Draw(small, small.Rect, rgba, image.Point{}, draw.Src)

	sum := 0
	for _, p := range small.Pix {
		sum += int(p)
	}
	mean := sum / 64

	var h Hash
	for i, p := range small.Pix {
		if int(p) > mean {
			h |= 1 << uint(i)
		}
	}
	return h
}

// Difference returns the difference hash of img.
func Difference(img image.Image) (Hash, error) {
	h, err := goimagehash.DifferenceHash(opaque(img))
	if err != nil {
		return 0, fmt.Errorf("difference hash: %w", err)
	}
	return Hash(h.GetHash()), nil
}

// Perception returns the DCT-based perception hash of img.
func Perception(img image.Image) (Hash, error) {
	h, err := goimagehash.PerceptionHash(opaque(img))
	if err != nil {
		return 0, fmt.Errorf("perception hash: %w", err)
	}
	return Hash(h.GetHash()), nil
}

// opaque flattens img onto white so transparent pixels hash like paper.
func opaque(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}
