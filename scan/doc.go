// Package scan hashes every PDF in a folder.
//
// Files are processed by a fixed pool of workers. Results come back in
// file name order whatever the scheduling, and a file that cannot be read,
// parsed or rendered is logged and reported as a [Failure] without
// stopping the scan. When a cache store is configured, files whose content
// was hashed before with the same algorithm, resolution and page are not
// rendered again.
package scan
