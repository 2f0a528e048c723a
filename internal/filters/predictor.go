package filters

import "fmt"

// applyPredictor reverses the predictor named by params, if any. Predictor 1
// (or none) is the identity, 2 is TIFF Predictor 2 and 10-15 are the PNG
// predictors, where each row carries its own filter type byte.
func applyPredictor(data []byte, params Params) ([]byte, error) {
	predictor := getIntParam(params, "Predictor", 1)
	switch {
	case predictor <= 1:
		return data, nil
	case predictor == 2:
		return tiffPredictor(data, params)
	case predictor >= 10 && predictor <= 15:
		return pngPredictor(data, params)
	}
	return nil, fmt.Errorf("unsupported predictor: %d", predictor)
}

// rowGeometry returns bytes per pixel (at least 1) and bytes per row.
func rowGeometry(params Params) (int, int) {
	columns := getIntParam(params, "Columns", 1)
	colors := getIntParam(params, "Colors", 1)
	bpc := getIntParam(params, "BitsPerComponent", 8)
	if columns < 1 {
		columns = 1
	}
	if colors < 1 {
		colors = 1
	}
	if bpc < 1 {
		bpc = 8
	}
	bpp := (colors*bpc + 7) / 8
	rowLen := (columns*colors*bpc + 7) / 8
	return bpp, rowLen
}

func tiffPredictor(data []byte, params Params) ([]byte, error) {
	bpc := getIntParam(params, "BitsPerComponent", 8)
	if bpc != 8 && bpc != 16 {
		return nil, fmt.Errorf("TIFF predictor with %d bits per component is not supported", bpc)
	}
	bpp, rowLen := rowGeometry(params)
	out := make([]byte, len(data))
	copy(out, data)
	for start := 0; start < len(out); start += rowLen {
		end := start + rowLen
		if end > len(out) {
			end = len(out)
		}
		if bpc == 8 {
			for i := start + bpp; i < end; i++ {
				out[i] += out[i-bpp]
			}
			continue
		}
		for i := start + bpp; i+1 < end; i += 2 {
			prev := uint16(out[i-bpp])<<8 | uint16(out[i-bpp+1])
			cur := uint16(out[i])<<8 | uint16(out[i+1])
			cur += prev
			out[i], out[i+1] = byte(cur>>8), byte(cur)
		}
	}
	return out, nil
}

func pngPredictor(data []byte, params Params) ([]byte, error) {
	bpp, rowLen := rowGeometry(params)
	stride := rowLen + 1
	rows := len(data) / stride
	// A short trailing row is kept; encoders sometimes drop the padding.
	if rem := len(data) % stride; rem > 1 {
		rows++
	}
	out := make([]byte, 0, rows*rowLen)
	prev := make([]byte, rowLen)
	cur := make([]byte, rowLen)
	for r := 0; r < rows; r++ {
		start := r * stride
		end := start + stride
		if end > len(data) {
			end = len(data)
		}
		kind := data[start]
		for i := range cur {
			cur[i] = 0
		}
		copy(cur, data[start+1:end])
		switch kind {
		case 0:
		case 1:
			for i := bpp; i < rowLen; i++ {
				cur[i] += cur[i-bpp]
			}
		case 2:
			for i := 0; i < rowLen; i++ {
				cur[i] += prev[i]
			}
		case 3:
			for i := 0; i < rowLen; i++ {
				var left int
				if i >= bpp {
					left = int(cur[i-bpp])
				}
				cur[i] += byte((left + int(prev[i])) / 2)
			}
		case 4:
			for i := 0; i < rowLen; i++ {
				var left, upLeft byte
				if i >= bpp {
					left = cur[i-bpp]
					upLeft = prev[i-bpp]
				}
				cur[i] += paeth(left, prev[i], upLeft)
			}
		default:
			return nil, fmt.Errorf("unknown PNG filter type %d in row %d", kind, r)
		}
		out = append(out, cur[:end-start-1]...)
		prev, cur = cur, prev
	}
	return out, nil
}

// paeth is the PNG Paeth predictor: whichever of left, up and upper-left is
// closest to left+up-upLeft.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
