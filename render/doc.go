// Package render rasterizes PDF pages into RGBA images.
//
// The renderer interprets a page's content stream with the contentstream
// and graphicsstate packages and paints onto an image.RGBA with
// golang.org/x/image/vector. It covers what matters for comparing the look
// of pages:
//
//   - path filling (nonzero and even-odd), stroking with caps, joins and
//     dashes, and clipping
//   - device, ICC-approximated, indexed, separation and Lab colours, with
//     constant alpha from ExtGState
//   - text in TrueType, OpenType, Type3 and composite fonts; fonts without
//     an embedded program draw with a bundled Go font
//   - image XObjects and inline images, scaled with bilinear filtering
//   - form XObjects, nested up to a fixed depth
//
// Shadings and shading patterns are painted flat with their mean colour.
// Tiling patterns, blend modes and soft-mask groups are not supported.
//
//	img, err := render.RenderPage(ctx, doc, 0, render.Options{DPI: 150})
package render
