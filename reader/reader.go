package reader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/sbkohel/pdf-dedupe/core"
	"github.com/sbkohel/pdf-dedupe/pages"
)

var (
	// ErrEncrypted is returned for encrypted documents that cannot be opened
	// without a password or use an unsupported security handler.
	ErrEncrypted = errors.New("document is encrypted")
	// ErrNoPages is returned when the page tree holds no pages.
	ErrNoPages = errors.New("document has no pages")
)

// headerWindow is how far into the file the %PDF- marker may start.
const headerWindow = 1024

// maxResolveDepth bounds chains of references that resolve to references.
const maxResolveDepth = 32

// PDFVersion is the version from the file header or the catalog.
type PDFVersion struct {
	Major int
	Minor int
}

// String returns the version as "major.minor".
func (v PDFVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Reader gives access to the objects and pages of one PDF document held in
// memory. A Reader is not safe for concurrent use.
type Reader struct {
	data     []byte
	version  PDFVersion
	xref     *core.XRefTable
	repaired *core.XRefTable
	trailer  core.Dict

	cache      map[int]core.Object
	objStreams map[int]*core.ObjectStream
	loading    map[int]bool

	security   *securityHandler
	encryptNum int

	pageTree *pages.PageTree
}

var _ pages.ObjectResolver = (*Reader)(nil)
var _ core.ReferenceResolver = (*Reader)(nil)

// Open reads a PDF file into memory.
func Open(path string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return NewReader(data)
}

// NewReader parses the header, cross-reference data and encryption
// dictionary of a PDF document.
func NewReader(data []byte) (*Reader, error) {
	r := &Reader{
		data:       data,
		cache:      make(map[int]core.Object),
		objStreams: make(map[int]*core.ObjectStream),
		loading:    make(map[int]bool),
		encryptNum: -1,
	}

	version, err := parseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	r.version = version

	xref, err := core.LoadXRef(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load xref: %w", err)
	}
	r.xref = xref
	r.trailer = xref.Trailer

	if err := r.setupSecurity(); err != nil {
		return nil, err
	}
	return r, nil
}

var versionRe = regexp.MustCompile(`^(\d+)\.(\d+)`)

func parseHeader(data []byte) (PDFVersion, error) {
	window := data
	if len(window) > headerWindow {
		window = window[:headerWindow]
	}
	idx := bytes.Index(window, []byte("%PDF-"))
	if idx < 0 {
		return PDFVersion{}, errors.New("missing %PDF- header")
	}
	m := versionRe.FindSubmatch(data[idx+5:])
	if m == nil {
		// Broken version numbers are common; the body decides.
		return PDFVersion{Major: 1, Minor: 4}, nil
	}
	major, _ := strconv.Atoi(string(m[1]))
	minor, _ := strconv.Atoi(string(m[2]))
	return PDFVersion{Major: major, Minor: minor}, nil
}

func (r *Reader) setupSecurity() error {
	encObj := r.trailer.Get("Encrypt")
	if encObj == nil {
		return nil
	}
	if ref, ok := encObj.(core.IndirectRef); ok {
		r.encryptNum = ref.Number
	}
	resolved, err := r.Resolve(encObj)
	if err != nil {
		return fmt.Errorf("%w: failed to load /Encrypt: %v", ErrEncrypted, err)
	}
	enc, ok := resolved.(core.Dict)
	if !ok {
		return fmt.Errorf("%w: invalid /Encrypt type %T", ErrEncrypted, resolved)
	}
	var fileID []byte
	if ids, ok := r.trailer.GetArray("ID"); ok && len(ids) > 0 {
		if id, ok := ids[0].(core.String); ok {
			fileID = []byte(id)
		}
	}
	h, err := newSecurityHandler(enc, fileID)
	if err != nil {
		return err
	}
	r.security = h
	// Objects loaded while reading /Encrypt were not decrypted.
	r.ClearCache()
	return nil
}

// Version returns the document version. A /Version entry in the catalog
// overrides the header.
func (r *Reader) Version() PDFVersion {
	if cat, err := r.Catalog(); err == nil {
		if m := versionRe.FindStringSubmatch(pages.NewCatalog(cat, r).Version()); m != nil {
			major, _ := strconv.Atoi(m[1])
			minor, _ := strconv.Atoi(m[2])
			if major > r.version.Major || (major == r.version.Major && minor > r.version.Minor) {
				return PDFVersion{Major: major, Minor: minor}
			}
		}
	}
	return r.version
}

// Trailer returns the merged trailer dictionary.
func (r *Reader) Trailer() core.Dict { return r.trailer }

// Encrypted reports whether the document uses the Standard security
// handler.
func (r *Reader) Encrypted() bool { return r.security != nil }

// Repaired reports whether the cross-reference table had to be rebuilt.
func (r *Reader) Repaired() bool { return r.xref.Repaired }

// XRefTable returns the cross-reference table.
func (r *Reader) XRefTable() *core.XRefTable { return r.xref }

// GetObject loads object num. Free and missing objects are null.
func (r *Reader) GetObject(num int) (core.Object, error) {
	if obj, ok := r.cache[num]; ok {
		return obj, nil
	}
	if r.loading[num] {
		return nil, fmt.Errorf("reference cycle through object %d", num)
	}
	r.loading[num] = true
	defer delete(r.loading, num)

	obj, err := r.load(num)
	if err != nil {
		return nil, err
	}
	r.cache[num] = obj
	return obj, nil
}

func (r *Reader) load(num int) (core.Object, error) {
	entry, ok := r.xref.Get(num)
	if !ok || entry.Kind == core.EntryFree {
		if alt, ok := r.repairedEntry(num); ok {
			entry = alt
		} else {
			return core.Null{}, nil
		}
	}

	switch entry.Kind {
	case core.EntryCompressed:
		return r.loadCompressed(num, entry)
	case core.EntryInUse:
		obj, gen, err := r.loadAt(num, entry.Offset)
		if err != nil {
			alt, ok := r.repairedEntry(num)
			if !ok || alt.Offset == entry.Offset {
				return nil, err
			}
			if obj, gen, err = r.loadAt(num, alt.Offset); err != nil {
				return nil, err
			}
		}
		if r.security != nil && num != r.encryptNum {
			obj = r.security.decrypt(obj, num, gen)
		}
		return obj, nil
	}
	return core.Null{}, nil
}

func (r *Reader) loadAt(num int, offset int64) (core.Object, int, error) {
	if offset < 0 || offset >= int64(len(r.data)) {
		return nil, 0, fmt.Errorf("object %d offset %d out of range", num, offset)
	}
	p := core.NewParser(r.data)
	p.SetReferenceResolver(r)
	ind, err := p.ParseIndirectObjectAt(int(offset))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse object %d: %w", num, err)
	}
	if ind.Ref.Number != num {
		return nil, 0, fmt.Errorf("object number mismatch: expected %d, got %d", num, ind.Ref.Number)
	}
	return ind.Object, ind.Ref.Generation, nil
}

func (r *Reader) loadCompressed(num int, entry core.XRefEntry) (core.Object, error) {
	stm, ok := r.objStreams[entry.Stream]
	if !ok {
		obj, err := r.GetObject(entry.Stream)
		if err != nil {
			return nil, fmt.Errorf("failed to load object stream %d: %w", entry.Stream, err)
		}
		stream, ok := obj.(*core.Stream)
		if !ok {
			return nil, fmt.Errorf("object stream %d is %T", entry.Stream, obj)
		}
		stm, err = core.NewObjectStream(stream)
		if err != nil {
			return nil, fmt.Errorf("object stream %d: %w", entry.Stream, err)
		}
		r.objStreams[entry.Stream] = stm
	}
	return stm.Object(num, entry.Index)
}

// repairedEntry consults a table rebuilt by scanning the file. The scan
// runs at most once per document.
func (r *Reader) repairedEntry(num int) (core.XRefEntry, bool) {
	if r.xref.Repaired {
		return core.XRefEntry{}, false
	}
	if r.repaired == nil {
		t, err := core.RepairXRef(r.data)
		if err != nil {
			t = core.NewXRefTable()
		}
		r.repaired = t
	}
	e, ok := r.repaired.Get(num)
	if !ok || e.Kind == core.EntryFree {
		return core.XRefEntry{}, false
	}
	return e, true
}

// ResolveReference loads the object ref points to.
func (r *Reader) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return r.GetObject(ref.Number)
}

// Resolve follows indirect references until a direct object is reached.
func (r *Reader) Resolve(obj core.Object) (core.Object, error) {
	for i := 0; i < maxResolveDepth; i++ {
		ref, ok := obj.(core.IndirectRef)
		if !ok {
			return obj, nil
		}
		var err error
		if obj, err = r.ResolveReference(ref); err != nil {
			return nil, err
		}
	}
	return nil, errors.New("reference chain too long")
}

// Catalog returns the document catalog.
func (r *Reader) Catalog() (core.Dict, error) {
	root := r.trailer.Get("Root")
	if root == nil {
		return nil, errors.New("trailer missing /Root entry")
	}
	obj, err := r.Resolve(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog: %w", err)
	}
	cat, ok := obj.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("catalog is not a dictionary: %T", obj)
	}
	return cat, nil
}

// Info returns the document information dictionary, or nil.
func (r *Reader) Info() core.Dict {
	obj, err := r.Resolve(r.trailer.Get("Info"))
	if err != nil {
		return nil
	}
	d, _ := obj.(core.Dict)
	return d
}

func (r *Reader) ensurePageTree() error {
	if r.pageTree != nil {
		return nil
	}
	cat, err := r.Catalog()
	if err != nil {
		return err
	}
	root, err := pages.NewCatalog(cat, r).Pages()
	if err != nil {
		return err
	}
	r.pageTree = pages.NewPageTree(root, r)
	return nil
}

// PageCount returns the number of pages.
func (r *Reader) PageCount() (int, error) {
	if err := r.ensurePageTree(); err != nil {
		return 0, err
	}
	return r.pageTree.Count()
}

// Page returns the page at a zero-based index. A document without pages
// gives ErrNoPages; an index past the end gives pages.ErrPageIndex.
func (r *Reader) Page(index int) (*pages.Page, error) {
	n, err := r.PageCount()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNoPages
	}
	return r.pageTree.Page(index)
}

// ClearCache drops cached objects and object streams.
func (r *Reader) ClearCache() {
	r.cache = make(map[int]core.Object)
	r.objStreams = make(map[int]*core.ObjectStream)
}

// CacheSize returns the number of cached objects.
func (r *Reader) CacheSize() int { return len(r.cache) }
