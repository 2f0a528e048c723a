// Package export writes the results of a duplicate scan: it copies one
// representative of every group into an output folder and renders reports
// as plain text, JSON or HTML.
package export
