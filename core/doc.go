// Package core implements the PDF object layer: the object types, an
// in-memory lexer and parser, cross-reference loading and object streams.
//
// # Objects
//
// Every PDF object satisfies [Object]: [Null], [Bool], [Int], [Real],
// [String], [Name], [Array], [Dict], [*Stream] and [IndirectRef]. Bare words
// parsed from content streams are returned as [Keyword].
//
// # Parsing
//
// [Parser] works on a byte slice so that callers can jump straight to xref
// offsets:
//
//	p := core.NewParser(data)
//	obj, err := p.ParseIndirectObjectAt(offset)
//
// Stream lengths are verified against the endstream keyword, and a wrong or
// missing /Length falls back to scanning for it.
//
// # Cross-reference data
//
// [LoadXRef] follows the startxref offset through classic tables, xref
// streams, hybrid /XRefStm sections and /Prev chains. When the chain is
// unusable it calls [RepairXRef], which rebuilds the table by scanning for
// object headers.
//
// # Object streams
//
// [ObjectStream] decodes a /Type /ObjStm stream and parses its objects on
// demand.
package core
