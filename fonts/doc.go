// Package fonts loads PDF font resources for drawing.
//
// Load turns a font dictionary into a Font that decodes shown strings into
// glyphs with their widths and Unicode text, and returns glyph outlines.
// Embedded TrueType and OpenType programs are read with
// golang.org/x/image/font/sfnt. Fonts without a readable program, which
// includes the standard 14 fonts and bare Type 1 or CFF programs, draw with
// the closest bundled Go font, chosen from the base font name and the
// descriptor flags.
//
// Simple fonts map codes through their base encoding and Differences
// array. Composite fonts split strings with an encoding CMap, either a
// predefined name such as Identity-H or an embedded CMap program. Type3
// fonts expose their glyph procedures through CharProc.
package fonts
