// Package testpdf assembles small PDF files in memory for tests.
package testpdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"sort"
	"strings"
)

// Layout selects how the cross-reference data is written.
type Layout int

const (
	// Classic writes an xref table and trailer.
	Classic Layout = iota
	// XRefStream writes a cross-reference stream.
	XRefStream
	// ObjectStreams packs non-stream objects into an object stream and
	// writes a cross-reference stream.
	ObjectStreams
)

type object struct {
	body   string
	stream []byte
	isStrm bool
}

// Builder collects numbered objects. Object 0 is never used.
type Builder struct {
	objects map[int]object
	next    int
	// Trailer holds extra trailer entries, e.g. "/Encrypt 9 0 R".
	Trailer string
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{objects: make(map[int]object), next: 1}
}

// Reserve allocates an object number to be filled by Set or SetStream.
func (b *Builder) Reserve() int {
	n := b.next
	b.next++
	return n
}

// Add adds an object given in PDF syntax and returns its number.
func (b *Builder) Add(body string) int {
	n := b.Reserve()
	b.Set(n, body)
	return n
}

// Set defines object n.
func (b *Builder) Set(n int, body string) {
	b.objects[n] = object{body: body}
}

// AddStream adds a stream object. dict holds the dictionary entries without
// /Length and without the surrounding << >>.
func (b *Builder) AddStream(dict string, data []byte) int {
	n := b.Reserve()
	b.SetStream(n, dict, data)
	return n
}

// SetStream defines stream object n.
func (b *Builder) SetStream(n int, dict string, data []byte) {
	b.objects[n] = object{body: dict, stream: data, isStrm: true}
}

// Bytes writes the file with obj root as /Root.
func (b *Builder) Bytes(root int, layout Layout) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	nums := make([]int, 0, len(b.objects))
	for n := range b.objects {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	type loc struct {
		offset int
		stream int // object stream number, 0 for none
		index  int
	}
	locs := make(map[int]loc)

	var packed []int
	if layout == ObjectStreams {
		for _, n := range nums {
			if !b.objects[n].isStrm {
				packed = append(packed, n)
			}
		}
	}
	inStream := make(map[int]bool)
	for _, n := range packed {
		inStream[n] = true
	}

	for _, n := range nums {
		if inStream[n] {
			continue
		}
		locs[n] = loc{offset: buf.Len()}
		o := b.objects[n]
		writeObject(&buf, n, o)
	}

	size := b.next
	if len(packed) > 0 {
		stmNum := size
		size++
		var header, body strings.Builder
		for i, n := range packed {
			fmt.Fprintf(&header, "%d %d ", n, body.Len())
			body.WriteString(b.objects[n].body)
			body.WriteString("\n")
			locs[n] = loc{stream: stmNum, index: i}
		}
		data := header.String() + "\n" + body.String()
		locs[stmNum] = loc{offset: buf.Len()}
		writeObject(&buf, stmNum, object{
			body:   fmt.Sprintf("/Type /ObjStm /N %d /First %d /Filter /FlateDecode", len(packed), len(header.String())+1),
			stream: Deflate([]byte(data)),
			isStrm: true,
		})
	}

	switch layout {
	case Classic:
		xrefAt := buf.Len()
		fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f\r\n", size)
		for n := 1; n < size; n++ {
			if l, ok := locs[n]; ok {
				fmt.Fprintf(&buf, "%010d 00000 n\r\n", l.offset)
			} else {
				buf.WriteString("0000000000 65535 f\r\n")
			}
		}
		fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R %s>>\nstartxref\n%d\n%%%%EOF\n", size, root, b.Trailer, xrefAt)
	default:
		xrefNum := size
		size++
		locs[xrefNum] = loc{offset: buf.Len()}
		var rows []byte
		for n := 0; n < size; n++ {
			l, ok := locs[n]
			switch {
			case !ok:
				rows = append(rows, 0, 0, 0, 0, 0, 0xff, 0xff)
			case l.stream != 0:
				rows = append(rows, 2, byte(l.stream>>24), byte(l.stream>>16), byte(l.stream>>8), byte(l.stream), byte(l.index>>8), byte(l.index))
			default:
				rows = append(rows, 1, byte(l.offset>>24), byte(l.offset>>16), byte(l.offset>>8), byte(l.offset), 0, 0)
			}
		}
		xrefAt := buf.Len()
		writeObject(&buf, xrefNum, object{
			body:   fmt.Sprintf("/Type /XRef /Size %d /W [1 4 2] /Root %d 0 R %s/Filter /FlateDecode", size, root, b.Trailer),
			stream: Deflate(rows),
			isStrm: true,
		})
		fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefAt)
	}
	return buf.Bytes()
}

func writeObject(buf *bytes.Buffer, n int, o object) {
	fmt.Fprintf(buf, "%d 0 obj\n", n)
	if o.isStrm {
		fmt.Fprintf(buf, "<< %s /Length %d >>\nstream\n", o.body, len(o.stream))
		buf.Write(o.stream)
		buf.WriteString("\nendstream")
	} else {
		buf.WriteString(o.body)
	}
	buf.WriteString("\nendobj\n")
}

// Deflate compresses data with zlib.
func Deflate(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

// Page describes one page of a generated document.
type Page struct {
	// Content is the content stream.
	Content string
	// MediaBox defaults to US Letter when all zero.
	MediaBox [4]float64
	Rotate   int
	// Resources holds resource dictionary entries, e.g.
	// "/XObject << /Im1 5 0 R >>".
	Resources string
	// Compress stores the content with FlateDecode.
	Compress bool
}

// AddPages adds a page tree for pages and a catalog, returning the catalog
// number.
func (b *Builder) AddPages(pages ...Page) int {
	treeNum := b.Reserve()
	kids := make([]string, 0, len(pages))
	for _, p := range pages {
		var content int
		if p.Compress {
			content = b.AddStream("/Filter /FlateDecode", Deflate([]byte(p.Content)))
		} else {
			content = b.AddStream("", []byte(p.Content))
		}
		box := p.MediaBox
		if box == [4]float64{} {
			box = [4]float64{0, 0, 612, 792}
		}
		page := fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [%g %g %g %g] /Contents %d 0 R /Resources << %s >>",
			treeNum, box[0], box[1], box[2], box[3], content, p.Resources)
		if p.Rotate != 0 {
			page += fmt.Sprintf(" /Rotate %d", p.Rotate)
		}
		kids = append(kids, fmt.Sprintf("%d 0 R", b.Add(page+" >>")))
	}
	b.Set(treeNum, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	return b.Add(fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", treeNum))
}

// Document builds a classic-xref file with the given pages.
func Document(pages ...Page) []byte {
	b := New()
	root := b.AddPages(pages...)
	return b.Bytes(root, Classic)
}

// Image returns resource-free XObject image dictionary entries for a
// DeviceRGB image of w by h pixels filled with one colour, and its data.
func Image(w, h int, r, g, bl byte) (dict string, data []byte) {
	data = make([]byte, 0, w*h*3)
	for i := 0; i < w*h; i++ {
		data = append(data, r, g, bl)
	}
	dict = fmt.Sprintf("/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8", w, h)
	return dict, data
}
