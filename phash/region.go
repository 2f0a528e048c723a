package phash

import (
	"image"

	"golang.org/x/image/draw"
)

// Region is a horizontal band of a page.
type Region string

const (
	Top    Region = "top"
	Middle Region = "middle"
	Bottom Region = "bottom"
)

// AllRegions lists the regions from the top of the page down.
var AllRegions = []Region{Top, Middle, Bottom}

// RegionHash is the hash of one region.
type RegionHash struct {
	Region Region `json:"region"`
	Hash   Hash   `json:"hash"`
}

// RegionHashes holds region hashes in page order. Regions too small to
// hash are absent.
type RegionHashes []RegionHash

// Get returns the hash of a region.
func (rh RegionHashes) Get(r Region) (Hash, bool) {
	for _, h := range rh {
		if h.Region == r {
			return h.Hash, true
		}
	}
	return 0, false
}

// RegionDistance is the distance between two pages in one region; -1 when
// either page lacks the region.
type RegionDistance struct {
	Region   Region `json:"region"`
	Distance int    `json:"distance"`
}

// Bands returns the rectangles of the three regions of bounds. Rows are
// split into thirds of height/3; the bottom band takes the remainder.
func Bands(bounds image.Rectangle) map[Region]image.Rectangle {
	h3 := bounds.Dy() / 3
	top := bounds.Min.Y
	return map[Region]image.Rectangle{
		Top:    image.Rect(bounds.Min.X, top, bounds.Max.X, top+h3),
		Middle: image.Rect(bounds.Min.X, top+h3, bounds.Max.X, top+2*h3),
		Bottom: image.Rect(bounds.Min.X, top+2*h3, bounds.Max.X, bounds.Max.Y),
	}
}

// Regions hashes each region of img with alg. Empty regions are left out.
func Regions(img image.Image, alg Algorithm) (RegionHashes, error) {
	bands := Bands(img.Bounds())
	out := make(RegionHashes, 0, len(AllRegions))
	for _, r := range AllRegions {
		rect := bands[r]
		if rect.Empty() {
			continue
		}
		h, err := alg.Compute(crop(img, rect))
		if err != nil {
			return nil, err
		}
		out = append(out, RegionHash{Region: r, Hash: h})
	}
	return out, nil
}

// CompareRegions returns, for every region of a in a's order, its distance
// to the same region of b.
func CompareRegions(a, b RegionHashes) []RegionDistance {
	out := make([]RegionDistance, 0, len(a))
	for _, ra := range a {
		d := -1
		if hb, ok := b.Get(ra.Region); ok {
			d = Distance(ra.Hash, hb)
		}
		out = append(out, RegionDistance{Region: ra.Region, Distance: d})
	}
	return out
}

func crop(img image.Image, r image.Rectangle) image.Image {
	if s, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return s.SubImage(r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Rect, img, r.Min, draw.Src)
	return dst
}
