// Package contentstream splits PDF content streams into operations.
//
//	ops, err := contentstream.NewParser(data).Parse()
//	for _, op := range ops {
//	    fmt.Println(op.Operator, op.Operands)
//	}
//
// Operands are core objects. Inline images (BI ... ID ... EI) come back as
// a single "BI" operation whose operand is a *core.Stream holding the image
// dictionary, with abbreviated keys expanded, and the raw image data.
package contentstream
