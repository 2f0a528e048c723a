package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sbkohel/pdf-dedupe/internal/testpdf"
	"github.com/sbkohel/pdf-dedupe/ocr"
)

func page(x int) []byte {
	return testpdf.Document(testpdf.Page{
		Content:  fmt.Sprintf("0 g %d 0 100 792 re f", x),
		MediaBox: [4]float64{0, 0, 612, 792},
	})
}

// fixture writes a.pdf and b.pdf with the same page and c.pdf with a
// different one under <tmp>/in and returns that folder.
func fixture(t *testing.T) string {
	t.Helper()
	t.Setenv("PDFDEDUPE_LOG_LEVEL", "warn")
	folder := filepath.Join(t.TempDir(), "in")
	if err := os.Mkdir(folder, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string][]byte{"a.pdf": page(0), "b.pdf": page(0), "c.pdf": page(500)}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(folder, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return folder
}

func execute(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestUsageErrors(t *testing.T) {
	folder := fixture(t)
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no folder", nil, 2},
		{"too many", []string{"hashes", folder, folder}, 2},
		{"find needs file", []string{"find", folder}, 2},
		{"unknown flag", []string{"-nope", folder}, 2},
		{"invalid dpi", []string{"-dpi", "0", folder}, 2},
		{"invalid report", []string{"exact", "-report", "xml", folder}, 2},
		{"help", []string{"groups", "-h"}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if code, _, stderr := execute(t, tc.args...); code != tc.want {
				t.Errorf("exit code = %d, want %d; stderr:\n%s", code, tc.want, stderr)
			}
		})
	}
}

func TestInvalidEnvironment(t *testing.T) {
	t.Setenv("PDFDEDUPE_THRESHOLD", "99")
	if code, _, _ := execute(t, "groups", t.TempDir()); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestDistinct(t *testing.T) {
	folder := fixture(t)
	code, stdout, stderr := execute(t, "-dpi", "36", folder)
	if code != 0 {
		t.Fatalf("exit code %d; stderr:\n%s", code, stderr)
	}
	if !strings.Contains(stdout, "Group 1 (2): [a.pdf, b.pdf]\n") {
		t.Errorf("missing group line:\n%s", stdout)
	}
	if strings.Contains(stdout, "Group 2") {
		t.Errorf("singleton group printed:\n%s", stdout)
	}

	outDir := filepath.Join(filepath.Dir(folder), "distinct_files")
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if strings.Join(names, ",") != "a.pdf,c.pdf" {
		t.Errorf("copied = %v", names)
	}
}

func TestDistinctJSON(t *testing.T) {
	folder := fixture(t)
	out := filepath.Join(t.TempDir(), "keep")
	code, stdout, stderr := execute(t, "distinct", "-dpi", "36", "-report", "json", "-out", out, folder)
	if code != 0 {
		t.Fatalf("exit code %d; stderr:\n%s", code, stderr)
	}
	var report struct {
		RunID     string   `json:"run_id"`
		OutputDir string   `json:"output_dir"`
		Copied    []string `json:"copied"`
	}
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if report.RunID == "" || report.OutputDir != out || len(report.Copied) != 2 {
		t.Errorf("report = %+v", report)
	}
}

func TestHashes(t *testing.T) {
	folder := fixture(t)
	code, stdout, stderr := execute(t, "hashes", "-dpi", "36", folder)
	if code != 0 {
		t.Fatalf("exit code %d; stderr:\n%s", code, stderr)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	// three hashes, a blank line, three pairs
	if len(lines) != 7 {
		t.Fatalf("output:\n%s", stdout)
	}
	if f := strings.Fields(lines[4]); len(f) != 3 || f[0] != "a.pdf" || f[1] != "b.pdf" || f[2] != "0" {
		t.Errorf("pair line = %q", lines[4])
	}
}

func TestGroups(t *testing.T) {
	folder := fixture(t)
	code, stdout, stderr := execute(t, "groups", "-dpi", "36", "-threshold", "0", folder)
	if code != 0 {
		t.Fatalf("exit code %d; stderr:\n%s", code, stderr)
	}
	want := "Duplicate groups (threshold 0):\n\nGroup 1 (2): [a.pdf, b.pdf]\n\nOriginals:\n  a.pdf\n  c.pdf\n"
	if stdout != want {
		t.Errorf("output =\n%s\nwant\n%s", stdout, want)
	}
}

func TestFind(t *testing.T) {
	folder := fixture(t)
	tests := []struct {
		file string
		want string
	}{
		{"b.pdf", "a.pdf\nb.pdf\n"},
		{filepath.Join(folder, "c.pdf"), "No duplicates found for c.pdf\n"},
	}
	for _, tc := range tests {
		code, stdout, stderr := execute(t, "find", "-dpi", "36", "-threshold", "0", folder, tc.file)
		if code != 0 {
			t.Fatalf("exit code %d; stderr:\n%s", code, stderr)
		}
		if stdout != tc.want {
			t.Errorf("find %s = %q, want %q", tc.file, stdout, tc.want)
		}
	}
}

func TestRegions(t *testing.T) {
	folder := fixture(t)
	code, stdout, stderr := execute(t, "regions", "-dpi", "36", folder, "a.pdf")
	if code != 0 {
		t.Fatalf("exit code %d; stderr:\n%s", code, stderr)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 2 {
		t.Fatalf("output:\n%s", stdout)
	}
	if f := strings.Fields(lines[0]); len(f) != 4 || f[0] != "b.pdf" || f[1] != "top=0" || f[2] != "middle=0" || f[3] != "bottom=0" {
		t.Errorf("b.pdf line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "c.pdf") {
		t.Errorf("c.pdf line = %q", lines[1])
	}

	if code, _, _ := execute(t, "regions", "-dpi", "36", folder, "missing.pdf"); code != 1 {
		t.Errorf("missing target exit code = %d, want 1", code)
	}
}

func TestExact(t *testing.T) {
	folder := fixture(t)
	code, stdout, stderr := execute(t, "exact", folder)
	if code != 0 {
		t.Fatalf("exit code %d; stderr:\n%s", code, stderr)
	}
	if !strings.Contains(stdout, "Group 1 (2): [a.pdf, b.pdf]") {
		t.Errorf("output:\n%s", stdout)
	}
}

func TestRender(t *testing.T) {
	folder := fixture(t)
	dst := filepath.Join(t.TempDir(), "page.png")
	code, _, stderr := execute(t, "render", "-dpi", "72", "-out", dst, filepath.Join(folder, "a.pdf"))
	if code != 0 {
		t.Fatalf("exit code %d; stderr:\n%s", code, stderr)
	}
	f, err := os.Open(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 612 || b.Dy() != 792 {
		t.Errorf("size = %v", b)
	}

	if code, _, _ := execute(t, "render", "-out", dst, filepath.Join(folder, "missing.pdf")); code != 1 {
		t.Errorf("missing file exit code = %d, want 1", code)
	}
}

func TestOCRNotEnabled(t *testing.T) {
	if ocr.Enabled {
		t.Skip("built with OCR")
	}
	folder := fixture(t)
	if code, _, _ := execute(t, "-dpi", "36", "-ocr", folder); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]string{"debug": "DEBUG", "warn": "WARN", "error": "ERROR", "info": "INFO", "bogus": "INFO"}
	for in, want := range tests {
		if got := parseLogLevel(in).String(); got != want {
			t.Errorf("parseLogLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestDistinctIntoSourceFolder(t *testing.T) {
	folder := fixture(t)
	before, err := os.ReadFile(filepath.Join(folder, "a.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if code, _, stderr := execute(t, "-dpi", "36", "-out", folder, folder); code != 0 {
		t.Fatalf("exit code %d; stderr:\n%s", code, stderr)
	}
	after, err := os.ReadFile(filepath.Join(folder, "a.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Errorf("a.pdf changed from %d to %d bytes", len(before), len(after))
	}
}

func TestRegionsJSONListsFailures(t *testing.T) {
	folder := fixture(t)
	if err := os.WriteFile(filepath.Join(folder, "broken.pdf"), []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, stdout, stderr := execute(t, "regions", "-dpi", "36", "-report", "json", folder, "a.pdf")
	if code != 0 {
		t.Fatalf("exit code %d; stderr:\n%s", code, stderr)
	}
	type fileRow struct {
		File string `json:"file"`
	}
	var out struct {
		File   string    `json:"file"`
		Files  []fileRow `json:"files"`
		Failed []string  `json:"failed"`
	}
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if out.File != "a.pdf" || len(out.Files) != 2 {
		t.Errorf("output = %+v", out)
	}
	if len(out.Failed) != 1 || out.Failed[0] != "broken.pdf" {
		t.Errorf("failed = %v, want [broken.pdf]", out.Failed)
	}
}
