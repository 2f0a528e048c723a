package pages

import (
	"errors"
	"fmt"
	"math"

	"github.com/sbkohel/pdf-dedupe/core"
	"github.com/sbkohel/pdf-dedupe/model"
)

// ErrPageIndex is returned for a page index outside the document.
var ErrPageIndex = errors.New("page index out of range")

// ObjectResolver resolves indirect references; direct objects are returned
// unchanged.
type ObjectResolver interface {
	Resolve(obj core.Object) (core.Object, error)
}

// maxTreeDepth bounds page tree nesting.
const maxTreeDepth = 64

// Catalog is the document catalog.
type Catalog struct {
	dict     core.Dict
	resolver ObjectResolver
}

// NewCatalog wraps a catalog dictionary.
func NewCatalog(dict core.Dict, resolver ObjectResolver) *Catalog {
	return &Catalog{dict: dict, resolver: resolver}
}

// Version returns the /Version entry, which overrides the header version
// when present.
func (c *Catalog) Version() string {
	if v, ok := c.dict.GetName("Version"); ok {
		return string(v)
	}
	return ""
}

// Pages returns the root of the page tree.
func (c *Catalog) Pages() (core.Dict, error) {
	ref := c.dict.Get("Pages")
	if ref == nil {
		return nil, errors.New("catalog missing /Pages entry")
	}
	obj, err := c.resolver.Resolve(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Pages: %w", err)
	}
	dict, ok := obj.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid /Pages type: %T", obj)
	}
	return dict, nil
}

// PageTree is the flattened page tree of a document.
type PageTree struct {
	root     core.Dict
	resolver ObjectResolver
	pages    []*Page
	loaded   bool
	err      error
}

// NewPageTree creates a page tree from its root /Pages dictionary. Pages are
// collected on first access.
func NewPageTree(root core.Dict, resolver ObjectResolver) *PageTree {
	return &PageTree{root: root, resolver: resolver}
}

// Count returns the number of pages reachable from the root. The /Count
// entries are not trusted.
func (t *PageTree) Count() (int, error) {
	if err := t.load(); err != nil {
		return 0, err
	}
	return len(t.pages), nil
}

// Page returns the page at a zero-based index.
func (t *PageTree) Page(index int) (*Page, error) {
	if err := t.load(); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(t.pages) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrPageIndex, index, len(t.pages))
	}
	return t.pages[index], nil
}

// Pages returns every page in document order.
func (t *PageTree) Pages() ([]*Page, error) {
	if err := t.load(); err != nil {
		return nil, err
	}
	return t.pages, nil
}

func (t *PageTree) load() error {
	if t.loaded {
		return t.err
	}
	t.loaded = true
	w := walker{tree: t, seen: make(map[core.IndirectRef]bool)}
	t.err = w.visit(t.root, nil, 0)
	if t.err != nil {
		t.err = fmt.Errorf("failed to traverse page tree: %w", t.err)
	}
	return t.err
}

type walker struct {
	tree *PageTree
	seen map[core.IndirectRef]bool
}

// visit walks a node. ancestors lists the enclosing /Pages nodes, nearest
// first.
func (w *walker) visit(node core.Dict, ancestors []core.Dict, depth int) error {
	if depth > maxTreeDepth {
		return errors.New("page tree too deep")
	}
	typ, _ := node.GetName("Type")
	kidsObj := node.Get("Kids")
	if typ == "Page" || (typ != "Pages" && kidsObj == nil) {
		w.tree.pages = append(w.tree.pages, &Page{
			dict:      node,
			ancestors: ancestors,
			resolver:  w.tree.resolver,
		})
		return nil
	}

	kidsResolved, err := w.tree.resolver.Resolve(kidsObj)
	if err != nil {
		return fmt.Errorf("failed to resolve /Kids: %w", err)
	}
	kids, ok := kidsResolved.(core.Array)
	if !ok {
		// A /Pages node without usable kids contributes no pages.
		return nil
	}
	inner := append([]core.Dict{node}, ancestors...)
	for i, kid := range kids {
		if ref, ok := kid.(core.IndirectRef); ok {
			if w.seen[ref] {
				continue
			}
			w.seen[ref] = true
		}
		resolved, err := w.tree.resolver.Resolve(kid)
		if err != nil {
			return fmt.Errorf("failed to resolve kid %d: %w", i, err)
		}
		dict, ok := resolved.(core.Dict)
		if !ok {
			continue
		}
		if err := w.visit(dict, inner, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Page is a leaf of the page tree.
type Page struct {
	dict      core.Dict
	ancestors []core.Dict
	resolver  ObjectResolver
}

// NewPage creates a page from its dictionary and its ancestors, nearest
// first.
func NewPage(dict core.Dict, ancestors []core.Dict, resolver ObjectResolver) *Page {
	return &Page{dict: dict, ancestors: ancestors, resolver: resolver}
}

// Dict returns the page dictionary.
func (p *Page) Dict() core.Dict { return p.dict }

// inherited looks key up on the page and then on every ancestor.
func (p *Page) inherited(key string) core.Object {
	if v := p.dict.Get(key); v != nil {
		return v
	}
	for _, a := range p.ancestors {
		if v := a.Get(key); v != nil {
			return v
		}
	}
	return nil
}

// DefaultMediaBox is US Letter, used when no valid /MediaBox is found.
var DefaultMediaBox = model.Rect{X0: 0, Y0: 0, X1: 612, Y1: 792}

func (p *Page) box(key string) (model.Rect, bool) {
	obj, err := p.resolver.Resolve(p.inherited(key))
	if err != nil {
		return model.Rect{}, false
	}
	arr, ok := obj.(core.Array)
	if !ok || len(arr) != 4 {
		return model.Rect{}, false
	}
	var v [4]float64
	for i, o := range arr {
		o, _ = p.resolver.Resolve(o)
		n, ok := core.Number(o)
		if !ok {
			return model.Rect{}, false
		}
		v[i] = n
	}
	r := model.NewRect(v[0], v[1], v[2], v[3])
	if r.IsEmpty() {
		return model.Rect{}, false
	}
	return r, true
}

// MediaBox returns the inherited media box, or US Letter when absent or
// invalid.
func (p *Page) MediaBox() model.Rect {
	if r, ok := p.box("MediaBox"); ok {
		return r
	}
	return DefaultMediaBox
}

// CropBox returns the inherited crop box clipped to the media box. It
// defaults to the media box.
func (p *Page) CropBox() model.Rect {
	media := p.MediaBox()
	crop, ok := p.box("CropBox")
	if !ok {
		return media
	}
	if r := crop.Intersect(media); !r.IsEmpty() {
		return r
	}
	return media
}

// Rotate returns the inherited rotation normalised to 0, 90, 180 or 270.
func (p *Page) Rotate() int {
	obj, _ := p.resolver.Resolve(p.inherited("Rotate"))
	v, ok := core.Number(obj)
	if !ok {
		return 0
	}
	r := int(math.Round(v/90)) * 90 % 360
	if r < 0 {
		r += 360
	}
	return r
}

// Size returns the displayed width and height in points: the crop box with
// rotation applied.
func (p *Page) Size() (w, h float64) {
	crop := p.CropBox()
	w, h = crop.Width(), crop.Height()
	if r := p.Rotate(); r == 90 || r == 270 {
		w, h = h, w
	}
	return w, h
}

// Resources returns the inherited resource dictionary, or an empty one.
func (p *Page) Resources() core.Dict {
	obj, err := p.resolver.Resolve(p.inherited("Resources"))
	if err != nil {
		return core.Dict{}
	}
	if d, ok := obj.(core.Dict); ok {
		return d
	}
	return core.Dict{}
}

// Contents returns the page's content streams in order. Entries that are
// not streams are skipped.
func (p *Page) Contents() ([]*core.Stream, error) {
	obj := p.dict.Get("Contents")
	if obj == nil {
		return nil, nil
	}
	resolved, err := p.resolver.Resolve(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Contents: %w", err)
	}
	switch v := resolved.(type) {
	case *core.Stream:
		return []*core.Stream{v}, nil
	case core.Array:
		streams := make([]*core.Stream, 0, len(v))
		for i, elem := range v {
			r, err := p.resolver.Resolve(elem)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve contents[%d]: %w", i, err)
			}
			if s, ok := r.(*core.Stream); ok {
				streams = append(streams, s)
			}
		}
		return streams, nil
	case core.Null:
		return nil, nil
	}
	return nil, fmt.Errorf("invalid /Contents type: %T", resolved)
}

// ContentData returns the decoded content streams joined by newlines, so
// that a token split across streams stays split. Streams that fail to
// decode are left out.
func (p *Page) ContentData() ([]byte, error) {
	streams, err := p.Contents()
	if err != nil {
		return nil, err
	}
	var out []byte
	for _, s := range streams {
		data, err := s.Decode()
		if err != nil {
			continue
		}
		if len(out) > 0 {
			out = append(out, '\n')
		}
		out = append(out, data...)
	}
	return out, nil
}
