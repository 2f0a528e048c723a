package filters

import (
	"bytes"
	"compress/lzw"
	"errors"
	"fmt"
	"io"

	tifflzw "golang.org/x/image/tiff/lzw"
)

// LZWDecode decodes LZW compressed data as used by PDF (MSB-first codes,
// 9 to 12 bits wide). EarlyChange 1, the default, grows the code width one
// code early; EarlyChange 0 is the plain variant. Predictors are applied as
// for FlateDecode. Truncated streams return what was decoded.
func LZWDecode(data []byte, params Params) ([]byte, error) {
	var r io.ReadCloser
	if getIntParam(params, "EarlyChange", 1) != 0 {
		r = tifflzw.NewReader(bytes.NewReader(data), tifflzw.MSB, 8)
	} else {
		r = lzw.NewReader(bytes.NewReader(data), lzw.MSB, 8)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("lzw decode failed: %w", err)
	}
	out, err = applyPredictor(out, params)
	if err != nil {
		return nil, fmt.Errorf("predictor failed: %w", err)
	}
	return out, nil
}
