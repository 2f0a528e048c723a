package core

import (
	"fmt"

	"github.com/sbkohel/pdf-dedupe/internal/filters"
)

// imageCodecs are filters whose output is an encoded image rather than
// bytes; decoding stops in front of them.
var imageCodecs = map[string]bool{
	"DCTDecode":   true,
	"DCT":         true,
	"JPXDecode":   true,
	"JBIG2Decode": true,
}

// Decode applies the stream's filter chain and returns the decoded bytes.
// Image codecs are left in place: for a DCTDecode stream the result is the
// JPEG file.
func (s *Stream) Decode() ([]byte, error) {
	data, _, _, err := s.DecodeImageData()
	return data, err
}

// DecodeImageData applies filters up to the first image codec and returns
// the partially decoded data, the codec name ("" when none remains) and the
// codec's decode parameters.
func (s *Stream) DecodeImageData() ([]byte, string, Dict, error) {
	names, params := s.Filters()
	data := s.Data
	for i, name := range names {
		if imageCodecs[name] {
			return data, expandFilterName(name), params[i], nil
		}
		var err error
		data, err = decodeWithFilter(data, name, params[i])
		if err != nil {
			return nil, "", nil, fmt.Errorf("filter %d (%s) failed: %w", i, name, err)
		}
	}
	return data, "", nil, nil
}

// Filters returns the filter names and their parameter dictionaries
// (nil entries where none are given). Abbreviated names are returned as
// written.
func (s *Stream) Filters() ([]string, []Dict) {
	return filterList(s.Dict.Get("Filter"), s.Dict.Get("DecodeParms"), s.Dict.Get("DP"))
}

func filterList(filterObj, parmsObj, altParms Object) ([]string, []Dict) {
	if parmsObj == nil {
		parmsObj = altParms
	}
	var names []string
	switch f := filterObj.(type) {
	case Name:
		names = []string{string(f)}
	case Array:
		for _, o := range f {
			if n, ok := o.(Name); ok {
				names = append(names, string(n))
			}
		}
	}
	params := make([]Dict, len(names))
	switch p := parmsObj.(type) {
	case Dict:
		if len(params) > 0 {
			params[0] = p
		}
	case Array:
		for i := range params {
			if d, ok := p.Get(i).(Dict); ok {
				params[i] = d
			}
		}
	}
	return names, params
}

func expandFilterName(name string) string {
	switch name {
	case "DCT":
		return "DCTDecode"
	case "Fl":
		return "FlateDecode"
	case "AHx":
		return "ASCIIHexDecode"
	case "A85":
		return "ASCII85Decode"
	case "LZW":
		return "LZWDecode"
	case "RL":
		return "RunLengthDecode"
	case "CCF":
		return "CCITTFaxDecode"
	}
	return name
}

// DecodeFilter applies a single named filter, as used by inline images.
func DecodeFilter(data []byte, name string, params Dict) ([]byte, error) {
	return decodeWithFilter(data, name, params)
}

func decodeWithFilter(data []byte, name string, params Dict) ([]byte, error) {
	switch expandFilterName(name) {
	case "FlateDecode":
		return filters.FlateDecode(data, dictToParams(params))
	case "LZWDecode":
		return filters.LZWDecode(data, dictToParams(params))
	case "ASCIIHexDecode":
		return filters.ASCIIHexDecode(data)
	case "ASCII85Decode":
		return filters.ASCII85Decode(data)
	case "RunLengthDecode":
		return filters.RunLengthDecode(data)
	case "CCITTFaxDecode":
		return filters.CCITTFaxDecode(data, dictToParams(params))
	case "Crypt":
		// Only the Identity crypt filter reaches this point; named crypt
		// filters are applied by the reader when it decrypts the stream.
		return data, nil
	case "DCTDecode", "JPXDecode", "JBIG2Decode":
		return data, nil
	}
	return nil, fmt.Errorf("unknown filter: %s", name)
}

// dictToParams converts decode parameters to the Go values the filters
// package expects.
func dictToParams(dict Dict) filters.Params {
	if dict == nil {
		return nil
	}
	params := make(filters.Params, len(dict))
	for k, v := range dict {
		switch obj := v.(type) {
		case Int:
			params[k] = int(obj)
		case Real:
			params[k] = float64(obj)
		case Bool:
			params[k] = bool(obj)
		case String:
			params[k] = string(obj)
		case Name:
			params[k] = string(obj)
		}
	}
	return params
}
