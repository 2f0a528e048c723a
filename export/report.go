package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/sbkohel/pdf-dedupe/dedupe"
)

// ErrUnknownFormat is returned for report formats other than text, json
// and html.
var ErrUnknownFormat = errors.New("unknown report format")

// Format selects how a Report is written.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// ParseFormat parses a format name. The empty string selects FormatText.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatHTML:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Report is the result of one run.
type Report struct {
	RunID     string         `json:"run_id"`
	Title     string         `json:"title"`
	Folder    string         `json:"folder"`
	CreatedAt time.Time      `json:"created_at"`
	Groups    []GroupEntry   `json:"groups"`
	Originals []string       `json:"originals,omitempty"`
	OutputDir string         `json:"output_dir,omitempty"`
	Copied    []string       `json:"copied,omitempty"`
	Failures  []FailureEntry `json:"failures,omitempty"`
}

// GroupEntry is a duplicate group. Number counts every group of the run,
// singletons included, so numbering may skip.
type GroupEntry struct {
	Number int      `json:"number"`
	Files  []string `json:"files"`
}

// FailureEntry is a file that could not be processed.
type FailureEntry struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// NewReport creates a report listing the groups with more than one file.
func NewReport(title, folder string, groups []dedupe.Group) *Report {
	r := &Report{
		RunID:     ulid.Make().String(),
		Title:     title,
		Folder:    folder,
		CreatedAt: time.Now().UTC(),
		Groups:    []GroupEntry{},
	}
	for i, g := range groups {
		if len(g) > 1 {
			r.Groups = append(r.Groups, GroupEntry{Number: i + 1, Files: append([]string(nil), g...)})
		}
	}
	return r
}

// AddFailure records a file that could not be processed.
func (r *Report) AddFailure(name string, err error) {
	r.Failures = append(r.Failures, FailureEntry{File: name, Error: err.Error()})
}

// Write writes the report to w in the given format.
func (r *Report) Write(w io.Writer, format Format) error {
	switch format {
	case FormatText, "":
		return r.writeText(w)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatHTML:
		return html.Render(w, r.htmlDocument())
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func (r *Report) writeText(w io.Writer) error {
	var b strings.Builder
	if r.Title != "" {
		fmt.Fprintf(&b, "%s:\n\n", r.Title)
	}
	for _, g := range r.Groups {
		fmt.Fprintf(&b, "Group %d (%d): [%s]\n", g.Number, len(g.Files), strings.Join(g.Files, ", "))
	}
	if len(r.Originals) > 0 {
		b.WriteString("\nOriginals:\n")
		for _, name := range r.Originals {
			fmt.Fprintf(&b, "  %s\n", name)
		}
	}
	if r.OutputDir != "" {
		fmt.Fprintf(&b, "\nCopying distinct files to '%s'...\n", r.OutputDir)
		b.WriteString("Copied files:\n")
		for _, name := range r.Copied {
			fmt.Fprintf(&b, "  %s\n", name)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Report) htmlDocument() *html.Node {
	title := r.Title
	if title == "" {
		title = "Duplicate report"
	}

	table := element(atom.Table, nil,
		element(atom.Thead, nil,
			element(atom.Tr, nil,
				element(atom.Th, nil, text("Group")),
				element(atom.Th, nil, text("Size")),
				element(atom.Th, nil, text("Files")),
			),
		),
	)
	body := element(atom.Tbody, nil)
	for _, g := range r.Groups {
		files := element(atom.Ul, nil)
		for _, name := range g.Files {
			files.AppendChild(element(atom.Li, nil, text(name)))
		}
		body.AppendChild(element(atom.Tr, []html.Attribute{{Key: "id", Val: "group-" + strconv.Itoa(g.Number)}},
			element(atom.Td, nil, text(strconv.Itoa(g.Number))),
			element(atom.Td, nil, text(strconv.Itoa(len(g.Files)))),
			element(atom.Td, nil, files),
		))
	}
	table.AppendChild(body)

	content := element(atom.Body, nil,
		element(atom.H1, nil, text(title)),
		element(atom.P, nil, text("Folder: "+r.Folder)),
		element(atom.P, nil, text("Run "+r.RunID+" at "+r.CreatedAt.Format(time.RFC3339))),
		table,
	)
	if len(r.Originals) > 0 {
		originals := element(atom.Ul, nil)
		for _, name := range r.Originals {
			originals.AppendChild(element(atom.Li, nil, text(name)))
		}
		content.AppendChild(element(atom.H2, nil, text("Originals")))
		content.AppendChild(originals)
	}
	if r.OutputDir != "" {
		copied := element(atom.Ul, nil)
		for _, name := range r.Copied {
			copied.AppendChild(element(atom.Li, nil, text(name)))
		}
		content.AppendChild(element(atom.H2, nil, text("Copied to "+r.OutputDir)))
		content.AppendChild(copied)
	}
	if len(r.Failures) > 0 {
		failed := element(atom.Ul, nil)
		for _, f := range r.Failures {
			failed.AppendChild(element(atom.Li, nil, text(f.File+": "+f.Error)))
		}
		content.AppendChild(element(atom.H2, nil, text("Failures")))
		content.AppendChild(failed)
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(element(atom.Html, nil,
		element(atom.Head, nil,
			element(atom.Meta, []html.Attribute{{Key: "charset", Val: "utf-8"}}),
			element(atom.Title, nil, text(title)),
		),
		content,
	))
	return doc
}

func element(a atom.Atom, attrs []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
