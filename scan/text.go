package scan

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
)

// Recognizer extracts text from a PNG image. ocr.Client implements it.
type Recognizer interface {
	RecognizeImage(png []byte) (string, error)
}

// Texts renders the configured page of each named file in folder and
// recognizes its text. Files that fail are missing from the map.
func (s *Scanner) Texts(ctx context.Context, folder string, names []string, rec Recognizer) (map[string]string, []Failure, error) {
	texts, ok, failures, err := forEach(ctx, s, folder, names, func(ctx context.Context, _ string, data []byte) (string, error) {
		img, err := s.render(ctx, data)
		if err != nil {
			return "", err
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return "", fmt.Errorf("encode page: %w", err)
		}
		return rec.RecognizeImage(buf.Bytes())
	})
	if err != nil {
		return nil, failures, err
	}
	out := make(map[string]string, len(names))
	for i, t := range texts {
		if ok[i] {
			out[names[i]] = t
		}
	}
	return out, failures, nil
}
