package reader

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"

	"golang.org/x/image/draw"

	"github.com/sbkohel/pdf-dedupe/colorspace"
	"github.com/sbkohel/pdf-dedupe/core"
)

// maxImagePixels bounds the decoded size of one image.
const maxImagePixels = 1 << 26

// Image is a decoded image XObject or inline image.
type Image struct {
	Width  int
	Height int
	// Pixels holds colour and alpha; nil for stencil masks.
	Pixels *image.NRGBA
	// Stencil is set for /ImageMask images: opaque where the current fill
	// colour is painted.
	Stencil *image.Alpha
	// Placeholder is set when the codec is not supported and Pixels is a
	// uniform grey stand-in.
	Placeholder bool
}

// ImageOptions tune image decoding.
type ImageOptions struct {
	// ColorSpaces is the /ColorSpace resource dictionary used to look up
	// named colour spaces.
	ColorSpaces core.Dict
	// MaxWidth and MaxHeight, when positive, allow raw sample images to be
	// subsampled down to about that size.
	MaxWidth  int
	MaxHeight int
}

// DecodeImage decodes an image stream. Inline images use the same path with
// their dictionary expanded to full key names.
func (r *Reader) DecodeImage(stream *core.Stream, opts ImageOptions) (*Image, error) {
	d := stream.Dict
	w, _ := intEntry(r, d, "Width")
	h, _ := intEntry(r, d, "Height")
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", w, h)
	}
	if int64(w)*int64(h) > maxImagePixels {
		return nil, fmt.Errorf("image %dx%d too large", w, h)
	}

	data, codec, _, err := stream.DecodeImageData()
	if err != nil {
		return nil, fmt.Errorf("failed to decode image stream: %w", err)
	}

	isMask, _ := boolEntry(r, d, "ImageMask")
	decode := floatsEntry(r, d, "Decode")
	if isMask {
		bitsData := data
		if codec != "" {
			// Encoded stencils are rare; paint nothing rather than guess.
			bitsData = nil
		}
		return &Image{Width: w, Height: h, Stencil: stencil(bitsData, w, h, decode)}, nil
	}

	var img *Image
	switch codec {
	case "DCTDecode":
		img, err = decodeJPEG(data, w, h, decode)
		if err != nil {
			return nil, err
		}
	case "JPXDecode", "JBIG2Decode":
		img = placeholder(w, h)
	default:
		cs, err := r.imageColorSpace(d, opts)
		if err != nil {
			return nil, err
		}
		bpc, ok := intEntry(r, d, "BitsPerComponent")
		if !ok {
			bpc = 8
		}
		img, err = decodeSamples(data, w, h, bpc, cs, decode, r.colorKey(d), opts)
		if err != nil {
			return nil, err
		}
	}

	r.applyMasks(img, d)
	return img, nil
}

func (r *Reader) imageColorSpace(d core.Dict, opts ImageOptions) (colorspace.Space, error) {
	obj := d.Get("ColorSpace")
	if obj == nil {
		return colorspace.DeviceGray, nil
	}
	resolved, err := r.Resolve(obj)
	if err != nil {
		return nil, err
	}
	cs, err := colorspace.FromResources(resolved, opts.ColorSpaces, r)
	if err != nil {
		return nil, fmt.Errorf("image colour space: %w", err)
	}
	return cs, nil
}

func placeholder(w, h int) *Image {
	px := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(px, px.Bounds(), image.NewUniform(color.NRGBA{R: 128, G: 128, B: 128, A: 255}), image.Point{}, draw.Src)
	return &Image{Width: w, Height: h, Pixels: px, Placeholder: true}
}

// decodeJPEG decodes DCT data. An inverted /Decode array ([1 0 ...]) is
// applied, as some producers store negative CMYK.
func decodeJPEG(data []byte, w, h int, decode []float64) (*Image, error) {
	src, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode JPEG: %w", err)
	}
	b := src.Bounds()
	px := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if cmyk, ok := src.(*image.CMYK); ok && len(decode) >= 2 && decode[0] == 1 && decode[1] == 0 {
		for i := range cmyk.Pix {
			cmyk.Pix[i] = 255 - cmyk.Pix[i]
		}
	}
	draw.Draw(px, px.Bounds(), src, b.Min, draw.Src)
	if _, ok := src.(*image.CMYK); !ok && len(decode) >= 2 && decode[0] == 1 && decode[1] == 0 {
		for i := 0; i < len(px.Pix); i += 4 {
			px.Pix[i], px.Pix[i+1], px.Pix[i+2] = 255-px.Pix[i], 255-px.Pix[i+1], 255-px.Pix[i+2]
		}
	}
	return &Image{Width: b.Dx(), Height: b.Dy(), Pixels: px}, nil
}

// sampleReader reads packed big-endian samples row by row.
type sampleReader struct {
	data     []byte
	bpc      int
	rowBytes int
}

func (s sampleReader) at(row, index int) uint32 {
	switch s.bpc {
	case 8:
		off := row*s.rowBytes + index
		if off < len(s.data) {
			return uint32(s.data[off])
		}
		return 0
	case 16:
		off := row*s.rowBytes + 2*index
		if off+1 < len(s.data) {
			return uint32(s.data[off])<<8 | uint32(s.data[off+1])
		}
		return 0
	}
	bit := index * s.bpc
	off := row*s.rowBytes + bit/8
	if off >= len(s.data) {
		return 0
	}
	shift := 8 - s.bpc - bit%8
	return uint32(s.data[off]>>uint(shift)) & (1<<uint(s.bpc) - 1)
}

func decodeSamples(data []byte, w, h, bpc int, cs colorspace.Space, decode []float64, key []int, opts ImageOptions) (*Image, error) {
	switch bpc {
	case 1, 2, 4, 8, 16:
	default:
		return nil, fmt.Errorf("unsupported bits per component: %d", bpc)
	}
	n := cs.Components()
	if n == 0 {
		return nil, errors.New("image in a colour space without components")
	}
	if len(decode) < 2*n {
		decode = cs.DefaultDecode(bpc)
	}
	src := sampleReader{data: data, bpc: bpc, rowBytes: (w*n*bpc + 7) / 8}
	maxVal := float64(uint32(1)<<uint(bpc) - 1)

	stepX, stepY := subsampleStep(w, opts.MaxWidth), subsampleStep(h, opts.MaxHeight)
	ow, oh := (w+stepX-1)/stepX, (h+stepY-1)/stepY
	px := image.NewNRGBA(image.Rect(0, 0, ow, oh))

	// Single-component images of up to 8 bits go through a lookup table.
	var lut []color.RGBA
	if n == 1 && bpc <= 8 {
		lut = make([]color.RGBA, int(maxVal)+1)
		for v := range lut {
			c := decode[0] + float64(v)*(decode[1]-decode[0])/maxVal
			lut[v] = colorspace.ToColor(cs, []float64{c})
		}
	}

	comps := make([]float64, n)
	raw := make([]uint32, n)
	for oy := 0; oy < oh; oy++ {
		y := oy * stepY
		for ox := 0; ox < ow; ox++ {
			x := ox * stepX
			for k := 0; k < n; k++ {
				raw[k] = src.at(y, x*n+k)
			}
			var c color.RGBA
			if lut != nil {
				c = lut[raw[0]]
			} else {
				for k := 0; k < n; k++ {
					comps[k] = decode[2*k] + float64(raw[k])*(decode[2*k+1]-decode[2*k])/maxVal
				}
				c = colorspace.ToColor(cs, comps)
			}
			if key != nil && keyed(raw, key) {
				c.A = 0
			}
			off := px.PixOffset(ox, oy)
			px.Pix[off], px.Pix[off+1], px.Pix[off+2], px.Pix[off+3] = c.R, c.G, c.B, c.A
		}
	}
	return &Image{Width: ow, Height: oh, Pixels: px}, nil
}

// subsampleStep is the source stride that brings size down to about max.
func subsampleStep(size, max int) int {
	if max <= 0 || size <= 2*max {
		return 1
	}
	return size / max
}

func keyed(raw []uint32, key []int) bool {
	if len(key) < 2*len(raw) {
		return false
	}
	for k, v := range raw {
		if int(v) < key[2*k] || int(v) > key[2*k+1] {
			return false
		}
	}
	return true
}

// colorKey returns a /Mask colour key array, or nil.
func (r *Reader) colorKey(d core.Dict) []int {
	obj, err := r.Resolve(d.Get("Mask"))
	if err != nil {
		return nil
	}
	arr, ok := obj.(core.Array)
	if !ok {
		return nil
	}
	vals, ok := arr.Floats()
	if !ok {
		return nil
	}
	key := make([]int, len(vals))
	for i, v := range vals {
		key[i] = int(v)
	}
	return key
}

// stencil converts 1-bit mask samples; with the default decode array a
// sample of 0 paints.
func stencil(data []byte, w, h int, decode []float64) *image.Alpha {
	m := image.NewAlpha(image.Rect(0, 0, w, h))
	paintBit := uint32(0)
	if len(decode) >= 2 && decode[0] == 1 && decode[1] == 0 {
		paintBit = 1
	}
	src := sampleReader{data: data, bpc: 1, rowBytes: (w + 7) / 8}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (y*src.rowBytes+x/8) < len(data) && src.at(y, x) == paintBit {
				m.Pix[y*m.Stride+x] = 255
			}
		}
	}
	return m
}

// applyMasks multiplies the image alpha by /SMask or an explicit /Mask
// stencil, scaling the mask to the image size.
func (r *Reader) applyMasks(img *Image, d core.Dict) {
	if img.Pixels == nil {
		return
	}
	var mask *image.Alpha
	if obj, err := r.Resolve(d.Get("SMask")); err == nil {
		if s, ok := obj.(*core.Stream); ok {
			mask = r.softMask(s)
		}
	}
	if mask == nil {
		if obj, err := r.Resolve(d.Get("Mask")); err == nil {
			if s, ok := obj.(*core.Stream); ok {
				if mw, _ := intEntry(r, s.Dict, "Width"); mw > 0 {
					mh, _ := intEntry(r, s.Dict, "Height")
					if data, err := s.Decode(); err == nil && mh > 0 && int64(mw)*int64(mh) <= maxImagePixels {
						mask = stencil(data, mw, mh, floatsEntry(r, s.Dict, "Decode"))
					}
				}
			}
		}
	}
	if mask == nil {
		return
	}
	mb := mask.Bounds()
	for y := 0; y < img.Height; y++ {
		my := y * mb.Dy() / img.Height
		for x := 0; x < img.Width; x++ {
			mx := x * mb.Dx() / img.Width
			a := uint32(mask.Pix[my*mask.Stride+mx])
			off := img.Pixels.PixOffset(x, y)
			img.Pixels.Pix[off+3] = uint8(uint32(img.Pixels.Pix[off+3]) * a / 255)
		}
	}
}

// softMask decodes an /SMask image into alpha values.
func (r *Reader) softMask(s *core.Stream) *image.Alpha {
	img, err := r.DecodeImage(&core.Stream{Dict: withoutMasks(s.Dict), Data: s.Data}, ImageOptions{})
	if err != nil || img.Pixels == nil {
		return nil
	}
	b := img.Pixels.Bounds()
	m := image.NewAlpha(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			off := img.Pixels.PixOffset(x, y)
			// Luminosity of the decoded grey.
			lum := (299*uint32(img.Pixels.Pix[off]) + 587*uint32(img.Pixels.Pix[off+1]) + 114*uint32(img.Pixels.Pix[off+2])) / 1000
			m.Pix[(y-b.Min.Y)*m.Stride+(x-b.Min.X)] = uint8(lum)
		}
	}
	return m
}

func withoutMasks(d core.Dict) core.Dict {
	out := make(core.Dict, len(d))
	for k, v := range d {
		if k != "SMask" && k != "Mask" {
			out[k] = v
		}
	}
	return out
}

func intEntry(r *Reader, d core.Dict, key string) (int, bool) {
	obj, err := r.Resolve(d.Get(key))
	if err != nil {
		return 0, false
	}
	v, ok := core.Number(obj)
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return int(v), true
}

func boolEntry(r *Reader, d core.Dict, key string) (bool, bool) {
	obj, err := r.Resolve(d.Get(key))
	if err != nil {
		return false, false
	}
	b, ok := obj.(core.Bool)
	return bool(b), ok
}

func floatsEntry(r *Reader, d core.Dict, key string) []float64 {
	obj, err := r.Resolve(d.Get(key))
	if err != nil {
		return nil
	}
	arr, ok := obj.(core.Array)
	if !ok {
		return nil
	}
	vals, _ := arr.Floats()
	return vals
}
