//go:build !ocr

// Package ocr recognizes the text of rendered pages so that visually
// similar documents can be confirmed to read alike.
//
// Without the "ocr" build tag the package compiles to a stub: New fails
// with ErrOCRNotEnabled and pdfdedupe refuses -ocr. Build with
//
//	go build -tags ocr ./cmd/pdfdedupe
//
// against an installed Tesseract (brew install tesseract, or
// apt-get install tesseract-ocr libtesseract-dev) to enable it.
package ocr

// Enabled reports whether OCR support is compiled in.
const Enabled = false

// Client stands in for the Tesseract client.
type Client struct{}

// New always fails with ErrOCRNotEnabled.
func New(languages string) (*Client, error) {
	return nil, ErrOCRNotEnabled
}

// Close does nothing. It accepts a nil client.
func (c *Client) Close() error { return nil }

// RecognizeImage always fails with ErrOCRNotEnabled.
func (c *Client) RecognizeImage(png []byte) (string, error) {
	return "", ErrOCRNotEnabled
}
