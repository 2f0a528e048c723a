package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/sbkohel/pdf-dedupe/dedupe"
	"github.com/sbkohel/pdf-dedupe/export"
	"github.com/sbkohel/pdf-dedupe/ocr"
	"github.com/sbkohel/pdf-dedupe/phash"
)

type command struct {
	args  string
	nargs int
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"distinct": {"<folder>", 1, runDistinct},
	"hashes":   {"<folder>", 1, runHashes},
	"groups":   {"<folder>", 1, runGroups},
	"find":     {"<folder> <file>", 2, runFind},
	"regions":  {"<folder> <file>", 2, runRegions},
	"exact":    {"<folder>", 1, runExact},
	"render":   {"<pdf>", 1, runRender},
}

// runDistinct groups files whose regions all match and copies the first
// file of every group to the output folder.
func runDistinct(ctx context.Context, a *app, args []string) error {
	folder := args[0]
	outDir := a.opts.out
	if outDir == "" {
		var err error
		if outDir, err = export.DefaultOutputDir(folder); err != nil {
			return err
		}
	}

	regions, failures, err := a.scanner.RegionHashes(ctx, folder)
	if err != nil {
		return err
	}
	groups := dedupe.GroupRegionWise(regions, a.cfg.RegionTolerance)
	if groups, err = a.confirm(ctx, folder, groups); err != nil {
		return err
	}

	copied, err := export.CopyDistinct(folder, groups, outDir)
	if err != nil {
		return err
	}
	dup, single := dedupe.Sizes(groups)
	a.logger.Info("distinct files copied", "folder", folder, "output", outDir,
		"copied", len(copied), "duplicate_groups", dup, "single_files", single)

	r := export.NewReport("Region-wise duplicate groups (all regions must match)", folder, groups)
	r.OutputDir = outDir
	r.Copied = copied
	return a.report(r, failures)
}

// runHashes lists every file hash and the distance of every pair.
func runHashes(ctx context.Context, a *app, args []string) error {
	hashes, failures, err := a.scanner.Hashes(ctx, args[0])
	if err != nil {
		return err
	}
	if a.format == export.FormatJSON {
		type pair struct {
			A        string `json:"a"`
			B        string `json:"b"`
			Distance int    `json:"distance"`
		}
		out := struct {
			Hashes    []dedupe.FileHash `json:"hashes"`
			Distances []pair            `json:"distances"`
			Failed    []string          `json:"failed,omitempty"`
		}{Hashes: hashes, Distances: []pair{}}
		for i := range hashes {
			for j := i + 1; j < len(hashes); j++ {
				out.Distances = append(out.Distances, pair{hashes[i].Name, hashes[j].Name, phash.Distance(hashes[i].Hash, hashes[j].Hash)})
			}
		}
		for _, f := range failures {
			out.Failed = append(out.Failed, f.Name)
		}
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	for _, h := range hashes {
		fmt.Fprintf(tw, "%s\t%s\n", h.Name, h.Hash)
	}
	if len(hashes) > 1 {
		fmt.Fprintln(tw)
		for i := range hashes {
			for j := i + 1; j < len(hashes); j++ {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", hashes[i].Name, hashes[j].Name, phash.Distance(hashes[i].Hash, hashes[j].Hash))
			}
		}
	}
	return tw.Flush()
}

// runGroups reports the threshold groups and the files to keep.
func runGroups(ctx context.Context, a *app, args []string) error {
	folder := args[0]
	hashes, failures, err := a.scanner.Hashes(ctx, folder)
	if err != nil {
		return err
	}
	groups := dedupe.GroupDuplicates(hashes, a.cfg.Threshold)
	if groups, err = a.confirm(ctx, folder, groups); err != nil {
		return err
	}
	// Confirmation may split off singletons.
	kept := groups[:0:0]
	for _, g := range groups {
		if len(g) > 1 {
			kept = append(kept, g)
		}
	}

	r := export.NewReport(fmt.Sprintf("Duplicate groups (threshold %d)", a.cfg.Threshold), folder, kept)
	r.Originals = dedupe.Originals(hashes, kept)
	return a.report(r, failures)
}

// runFind prints the duplicates of one file, itself included.
func runFind(ctx context.Context, a *app, args []string) error {
	folder, name := args[0], filepath.Base(args[1])
	group, err := a.scanner.FindDuplicatesForFile(ctx, folder, name, a.cfg.Threshold)
	if err != nil {
		return err
	}
	if a.format == export.FormatJSON {
		return json.NewEncoder(a.stdout).Encode(struct {
			File       string   `json:"file"`
			Duplicates []string `json:"duplicates"`
		}{name, append([]string{}, group...)})
	}
	if len(group) == 0 {
		_, err := fmt.Fprintf(a.stdout, "No duplicates found for %s\n", name)
		return err
	}
	for _, f := range group {
		if _, err := fmt.Fprintln(a.stdout, f); err != nil {
			return err
		}
	}
	return nil
}

// runRegions prints the region distances from one file to every other.
func runRegions(ctx context.Context, a *app, args []string) error {
	folder, name := args[0], filepath.Base(args[1])
	files, failures, err := a.scanner.RegionHashes(ctx, folder)
	if err != nil {
		return err
	}
	var target *dedupe.FileRegions
	for i := range files {
		if files[i].Name == name {
			target = &files[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%s is not a readable PDF in %s", name, folder)
	}

	type row struct {
		File      string                 `json:"file"`
		Distances []phash.RegionDistance `json:"distances"`
	}
	var rows []row
	for _, f := range files {
		if f.Name != name {
			rows = append(rows, row{f.Name, phash.CompareRegions(target.Regions, f.Regions)})
		}
	}
	if a.format == export.FormatJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		out := struct {
			File   string   `json:"file"`
			Files  []row    `json:"files"`
			Failed []string `json:"failed,omitempty"`
		}{File: name, Files: rows}
		for _, f := range failures {
			out.Failed = append(out.Failed, f.Name)
		}
		return enc.Encode(out)
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	for _, r := range rows {
		parts := make([]string, len(r.Distances))
		for i, d := range r.Distances {
			parts[i] = fmt.Sprintf("%s=%d", d.Region, d.Distance)
		}
		fmt.Fprintf(tw, "%s\t%s\n", r.File, strings.Join(parts, "\t"))
	}
	return tw.Flush()
}

// runExact reports byte-identical files.
func runExact(ctx context.Context, a *app, args []string) error {
	folder := args[0]
	digests, failures, err := a.scanner.Digests(ctx, folder)
	if err != nil {
		return err
	}
	return a.report(export.NewReport("Exact duplicate groups", folder, dedupe.ExactGroups(digests)), failures)
}

// runRender writes the compared page of one file as PNG.
func runRender(ctx context.Context, a *app, args []string) error {
	src := args[0]
	dst := a.opts.out
	if dst == "" {
		dst = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + ".png"
	}
	img, err := a.scanner.RenderFile(ctx, src)
	if err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", dst, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	a.logger.Info("page rendered", "file", src, "output", dst,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return nil
}

// confirm splits groups whose members read differently when OCR
// confirmation is enabled.
func (a *app) confirm(ctx context.Context, folder string, groups []dedupe.Group) ([]dedupe.Group, error) {
	if !a.cfg.OCRConfirm {
		return groups, nil
	}
	client, err := ocr.New(a.opts.languages)
	if errors.Is(err, ocr.ErrOCRNotEnabled) {
		return nil, usageError("-ocr needs a binary built with -tags ocr")
	}
	if err != nil {
		return nil, err
	}
	defer client.Close()

	var names []string
	for _, g := range groups {
		if len(g) > 1 {
			names = append(names, g...)
		}
	}
	texts, _, err := a.scanner.Texts(ctx, folder, names, client)
	if err != nil {
		return nil, err
	}
	confirmed := dedupe.ConfirmText(groups, texts, a.cfg.OCRMinSimilarity)
	a.logger.Info("groups confirmed by text", "before", len(groups), "after", len(confirmed))
	return confirmed, nil
}
