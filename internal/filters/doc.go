// Package filters implements the PDF stream filters needed to read page
// content, fonts and images.
//
// Every filter takes the encoded bytes and an optional Params map built from
// the stream's /DecodeParms dictionary:
//
//	decoded, err := filters.FlateDecode(data, filters.Params{"Predictor": 12, "Columns": 5})
//
// Supported filters are FlateDecode, LZWDecode (both with TIFF and PNG
// predictors), ASCIIHexDecode, ASCII85Decode, RunLengthDecode and
// CCITTFaxDecode. Image codecs (DCTDecode, JPXDecode, JBIG2Decode) are not
// filters in this sense and are handled by the reader.
//
// Decoders are lenient where real-world files are commonly broken: a
// truncated Flate stream yields the bytes decoded so far, and a missing EOD
// marker is not an error.
package filters
