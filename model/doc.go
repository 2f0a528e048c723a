// Package model holds the geometry shared by the page and rendering layers:
// points, rectangles and 2D affine matrices in PDF's [a b c d e f] form.
//
//	ctm := model.Scale(2, 2).Multiply(model.Translate(10, 0))
//	p := ctm.Transform(model.Point{X: 1, Y: 1}) // {22, 2}
package model
