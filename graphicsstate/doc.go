// Package graphicsstate provides PDF graphics state management.
//
// The graphics state controls how content is painted: the current
// transformation matrix, colours and constant alpha, line attributes, the
// clip mask and the text state. GraphicsState carries its own q/Q stack.
//
//	gs := graphicsstate.NewGraphicsState(pageToDevice)
//	gs.Save()              // q
//	gs.Transform(matrix)   // cm
//	gs.SetFont("F1", 12)   // Tf
//	gs.Restore()           // Q
//
// # Paths
//
// Path records m, l, c, v, y, h and re in user space. Flatten maps a path
// to device space with curves reduced to line segments, and Outline turns
// flattened subpaths into fillable polygons for stroking, honouring caps,
// joins, the miter limit and dash patterns.
package graphicsstate
