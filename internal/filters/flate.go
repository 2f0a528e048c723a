package filters

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

// FlateDecode inflates zlib/deflate compressed data and reverses any
// predictor given in params. Streams without a zlib header are inflated as
// raw deflate, and a stream that ends early returns the bytes recovered up
// to that point.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	inflated, err := inflate(data)
	if err != nil {
		return nil, err
	}
	out, err := applyPredictor(inflated, params)
	if err != nil {
		return nil, fmt.Errorf("predictor failed: %w", err)
	}
	return out, nil
}

func inflate(data []byte) ([]byte, error) {
	var r io.ReadCloser
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err == nil {
		r = zr
	} else {
		r = flate.NewReader(bytes.NewReader(data))
	}
	defer r.Close()

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	if err == nil {
		return buf.Bytes(), nil
	}
	if buf.Len() > 0 && isTruncation(err) {
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("zlib decompression failed: %w", err)
}

// isTruncation reports whether err describes a stream that simply stopped
// early (or carries a bad checksum), as opposed to corrupt codes.
func isTruncation(err error) bool {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, zlib.ErrChecksum) {
		return true
	}
	var corrupt flate.CorruptInputError
	return errors.As(err, &corrupt)
}
