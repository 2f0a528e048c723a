// Package pages walks the PDF page tree and exposes page attributes.
//
// The tree is flattened on first access. Kids already visited are skipped,
// so malformed files with cycles in /Kids still load. Nodes without a /Type
// are classified by the presence of /Kids.
//
// Inheritable attributes (/Resources, /MediaBox, /CropBox, /Rotate) are
// looked up on the page and then on every ancestor, nearest first:
//
//	tree := pages.NewPageTree(root, resolver)
//	page, err := tree.Page(0)
//	if err != nil {
//	    return err
//	}
//	crop := page.CropBox()
//	data, err := page.ContentData()
package pages
