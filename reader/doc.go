// Package reader opens PDF documents and resolves their objects.
//
// A document is read into memory once. Objects are located through the
// cross-reference data loaded by the core package; when an entry points at
// the wrong place the reader falls back to a table rebuilt by scanning the
// file. Objects in object streams are loaded through a per-document cache.
//
//	r, err := reader.Open("scan.pdf")
//	if err != nil {
//	    return err
//	}
//	page, err := r.Page(0)
//
// # Encryption
//
// Documents protected by the Standard security handler open when the user
// password is empty, which covers files that only restrict permissions.
// RC4 (40 to 128 bit), AESV2 and AESV3 (revisions 5 and 6) are supported.
// Anything else fails with [ErrEncrypted].
//
// # Images
//
// [Reader.DecodeImage] turns image XObjects and inline images into
// [image.NRGBA] pixels, applying /Decode arrays, colour key masks, stencil
// masks and soft masks.
package reader
